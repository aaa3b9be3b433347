package domain

import "time"

// Position marks where a context message sits relative to the
// candidate video.
type Position string

const (
	PositionBefore Position = "before"
	PositionAfter  Position = "after"
)

// ContextMessage is one neighbor of a video candidate inside its
// context window. The window never contains the candidate itself.
type ContextMessage struct {
	MessageID int
	Text      string
	SenderID  int64
	Timestamp time.Time

	Position Position

	// Delta is the absolute time distance to the candidate's timestamp.
	Delta time.Duration
}
