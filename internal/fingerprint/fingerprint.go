// Package fingerprint derives the stable identity key used for video
// deduplication and outcome recording.
package fingerprint

import (
	"fmt"

	"github.com/okutsev/video-crosspost-bot/internal/domain"
)

// unknownPeer is substituted when the source did not report a peer.
// The same sentinel is used at lookup and at record time, so a message
// read twice always maps to the same key.
const unknownPeer = "unknown"

// Key returns the deterministic fingerprint for a video candidate.
// It is pure and never fails: missing fields fall back to sentinel
// values instead of producing an error.
func Key(c domain.VideoCandidate) string {
	peer := c.PeerID
	if peer == "" {
		peer = unknownPeer
	}

	var ts int64
	if !c.Timestamp.IsZero() {
		ts = c.Timestamp.Unix()
	}

	return fmt.Sprintf("%s_%d_%d_%d_%d", peer, c.MessageID, ts, c.SizeBytes, c.DurationSeconds)
}
