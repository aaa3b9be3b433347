package fingerprint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/okutsev/video-crosspost-bot/internal/domain"
)

func TestKey(t *testing.T) {
	ts := time.Unix(1700000000, 0)

	tests := []struct {
		name      string
		candidate domain.VideoCandidate
		expected  string
	}{
		{
			name: "all fields present",
			candidate: domain.VideoCandidate{
				PeerID:          "somechannel",
				MessageID:       42,
				Timestamp:       ts,
				SizeBytes:       1048576,
				DurationSeconds: 95,
			},
			expected: "somechannel_42_1700000000_1048576_95",
		},
		{
			name: "missing peer falls back to sentinel",
			candidate: domain.VideoCandidate{
				MessageID:       42,
				Timestamp:       ts,
				SizeBytes:       1048576,
				DurationSeconds: 95,
			},
			expected: "unknown_42_1700000000_1048576_95",
		},
		{
			name: "missing size and duration fall back to zero",
			candidate: domain.VideoCandidate{
				PeerID:    "somechannel",
				MessageID: 42,
				Timestamp: ts,
			},
			expected: "somechannel_42_1700000000_0_0",
		},
		{
			name:      "fully empty candidate still produces a key",
			candidate: domain.VideoCandidate{},
			expected:  "unknown_0_0_0_0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Key(tt.candidate))
		})
	}
}

func TestKeyIsStable(t *testing.T) {
	c := domain.VideoCandidate{
		PeerID:          "somechannel",
		MessageID:       7,
		Timestamp:       time.Unix(1700000000, 0),
		SizeBytes:       2048,
		DurationSeconds: 10,
		Text:            "caption text does not participate",
	}

	first := Key(c)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Key(c))
	}

	// Text is not part of the identity: an edited caption must not
	// change the fingerprint.
	edited := c
	edited.Text = "edited"
	assert.Equal(t, first, Key(edited))
}

func TestKeyDistinguishesMessages(t *testing.T) {
	base := domain.VideoCandidate{
		PeerID:          "somechannel",
		MessageID:       7,
		Timestamp:       time.Unix(1700000000, 0),
		SizeBytes:       2048,
		DurationSeconds: 10,
	}

	other := base
	other.MessageID = 8

	assert.NotEqual(t, Key(base), Key(other))
}
