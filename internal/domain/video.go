// Package domain holds the data types shared by the scanning and
// caption-resolution components.
package domain

import "time"

// VideoCandidate is a single video-bearing message as read from the
// source stream. Immutable once constructed.
type VideoCandidate struct {
	// PeerID identifies the source channel. Empty when the source did
	// not report one.
	PeerID string

	// MessageID is the stream-assigned, monotonically increasing id.
	// Ids are not necessarily contiguous.
	MessageID int

	// SenderID is the author of the message, used by the heuristic
	// caption fallback. Zero for anonymous channel posts.
	SenderID int64

	Timestamp time.Time

	// SizeBytes and DurationSeconds describe the video document.
	// Zero when the source did not report them.
	SizeBytes       int64
	DurationSeconds int

	// Text is the message's own caption, possibly empty.
	Text string
}
