package failure

import (
	"errors"
	"fmt"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Reason
	}{
		{
			name:     "duration exceeded by message",
			err:      errors.New("Bad Request: video longer than 140 seconds"),
			expected: ReasonDurationExceeded,
		},
		{
			name:     "size exceeded by message",
			err:      errors.New("Request Entity Too Large: file is too big"),
			expected: ReasonSizeExceeded,
		},
		{
			name:     "size exceeded by code",
			err:      &tgbotapi.Error{Code: 413, Message: "Request Entity Too Large"},
			expected: ReasonSizeExceeded,
		},
		{
			name:     "forbidden by code",
			err:      &tgbotapi.Error{Code: 403, Message: "Forbidden: bot is not a member of the channel chat"},
			expected: ReasonForbidden,
		},
		{
			name:     "forbidden by message",
			err:      errors.New("not enough rights to send videos to the chat"),
			expected: ReasonForbidden,
		},
		{
			name:     "unsupported format",
			err:      errors.New("Bad Request: wrong file identifier/HTTP URL specified"),
			expected: ReasonUnsupportedFormat,
		},
		{
			name:     "rate limited by code",
			err:      &tgbotapi.Error{Code: 429, Message: "Too Many Requests: retry after 32"},
			expected: ReasonRateLimited,
		},
		{
			name:     "generic client error",
			err:      &tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"},
			expected: ReasonClientError,
		},
		{
			name:     "generic server error",
			err:      &tgbotapi.Error{Code: 502, Message: "Bad Gateway"},
			expected: ReasonServerError,
		},
		{
			name:     "opaque error",
			err:      errors.New("connection reset by peer"),
			expected: ReasonUnknown,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: ReasonUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.err))
		})
	}
}

// Duration must win over the generic 4xx bucket even when a response
// code is present.
func TestClassifyPriorityOrder(t *testing.T) {
	err := &tgbotapi.Error{Code: 400, Message: "Bad Request: video longer than 140 seconds"}
	assert.Equal(t, ReasonDurationExceeded, Classify(err))

	wrapped := fmt.Errorf("publish failed: %w", err)
	assert.Equal(t, ReasonDurationExceeded, Classify(wrapped))
}
