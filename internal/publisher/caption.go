package publisher

const ellipsis = "..."

// TruncateCaption shortens a caption to fit the Bot API caption limit,
// counting runes rather than bytes so multibyte text is not split
// mid-character.
func TruncateCaption(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	if limit <= len(ellipsis) {
		return string(runes[:limit])
	}

	return string(runes[:limit-len(ellipsis)]) + ellipsis
}
