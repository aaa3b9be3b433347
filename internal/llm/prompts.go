package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/okutsev/video-crosspost-bot/internal/domain"
)

func rankPrompt(candidateTime time.Time, window []domain.ContextMessage) string {
	var sb strings.Builder

	sb.WriteString("A video was posted to a Telegram chat without a caption at ")
	sb.WriteString(candidateTime.UTC().Format(time.RFC3339))
	sb.WriteString(".\n\nBelow are the text messages surrounding it, with their position relative to the video and how far apart in time they were posted. ")
	sb.WriteString("Pick the ONE message that most likely describes or announces this video.\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- Answer with the chosen message text VERBATIM, exactly as written, nothing else.\n")
	sb.WriteString("- Do not add quotes, numbering, or commentary.\n")
	sb.WriteString("- If none of the messages describe the video, answer with the single word: none\n\nMessages:\n")

	for i, m := range window {
		sb.WriteString(fmt.Sprintf("[%d] (%s the video, %s apart) %s\n", i+1, m.Position, m.Delta.Round(time.Second), m.Text))
	}

	return sb.String()
}

func rewritePrompt(text string) string {
	var sb strings.Builder

	sb.WriteString("Rewrite the following Telegram video caption so it reads naturally as an original post. ")
	sb.WriteString("Keep the same language, meaning, and length. Do not add hashtags, emojis, or commentary. ")
	sb.WriteString("Answer with the rewritten caption only.\n\nCaption:\n")
	sb.WriteString(text)

	return sb.String()
}
