package publisher

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateCaption(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		limit    int
		expected string
	}{
		{
			name:     "short caption untouched",
			input:    "hello",
			limit:    280,
			expected: "hello",
		},
		{
			name:     "exactly at limit untouched",
			input:    strings.Repeat("a", 280),
			limit:    280,
			expected: strings.Repeat("a", 280),
		},
		{
			name:     "over limit gains ellipsis",
			input:    strings.Repeat("a", 300),
			limit:    280,
			expected: strings.Repeat("a", 277) + "...",
		},
		{
			name:     "zero limit",
			input:    "hello",
			limit:    0,
			expected: "",
		},
		{
			name:     "tiny limit has no room for ellipsis",
			input:    "hello",
			limit:    2,
			expected: "he",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateCaption(tt.input, tt.limit)

			assert.Equal(t, tt.expected, got)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), tt.limit)
		})
	}
}

func TestTruncateCaptionMultibyte(t *testing.T) {
	input := strings.Repeat("п", 300)

	got := TruncateCaption(input, 280)

	assert.Equal(t, 280, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
}
