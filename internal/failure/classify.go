// Package failure maps publish errors onto a closed reason taxonomy.
//
// The publish collaborator does not expose structured error codes for
// most conditions, so classification inspects the response code where
// one exists and falls back to message substrings. This package is the
// only place coupled to the collaborator's error text; the policy that
// a classified failure is terminal lives with the caller.
package failure

import (
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Reason string

const (
	ReasonDurationExceeded  Reason = "duration_exceeded"
	ReasonSizeExceeded      Reason = "size_exceeded"
	ReasonForbidden         Reason = "forbidden"
	ReasonUnsupportedFormat Reason = "unsupported_format"
	ReasonRateLimited       Reason = "rate_limited"
	ReasonClientError       Reason = "client_error"
	ReasonServerError       Reason = "server_error"
	ReasonUnknown           Reason = "unknown"
)

var durationMarkers = []string{
	"video longer than",
	"duration limit",
	"video is too long",
}

var sizeMarkers = []string{
	"file is too big",
	"too large",
	"request entity too large",
	"entity too large",
}

var forbiddenMarkers = []string{
	"forbidden",
	"not enough rights",
	"permission denied",
	"bot was blocked",
	"chat_write_forbidden",
}

var unsupportedMarkers = []string{
	"wrong file identifier",
	"unsupported",
	"invalid file format",
	"video_content_type_invalid",
}

var rateMarkers = []string{
	"too many requests",
	"retry after",
	"flood",
}

// Classify maps a publish error to its reason category. Checks run in
// a fixed priority order, most specific first.
func Classify(err error) Reason {
	if err == nil {
		return ReasonUnknown
	}

	code := statusCode(err)
	msg := strings.ToLower(err.Error())

	switch {
	case containsAny(msg, durationMarkers):
		return ReasonDurationExceeded
	case code == 413 || containsAny(msg, sizeMarkers):
		return ReasonSizeExceeded
	case code == 403 || containsAny(msg, forbiddenMarkers):
		return ReasonForbidden
	case containsAny(msg, unsupportedMarkers):
		return ReasonUnsupportedFormat
	case code == 429 || containsAny(msg, rateMarkers):
		return ReasonRateLimited
	case code >= 400 && code < 500:
		return ReasonClientError
	case code >= 500 && code < 600:
		return ReasonServerError
	default:
		return ReasonUnknown
	}
}

func statusCode(err error) int {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}

	return 0
}

func containsAny(msg string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(msg, marker) {
			return true
		}
	}

	return false
}
