// Package transcript renders stored chat messages into prompt text.
package transcript

import (
	"strings"

	"github.com/xandylearning/mentor-ai/backend/internal/model/chat"
)

// Placeholder stands in for an empty history or summary inside prompts.
const Placeholder = "New conversation - no prior context."

var speakerLabels = map[chat.Sender]string{
	chat.SenderStudent: "Student",
	chat.SenderMentor:  "Mentor",
	chat.SenderAI:      "AI Mentor",
}

// Format renders messages one per line as "Speaker: content", in the order
// given. Blank messages are skipped; an empty input yields "".
func Format(messages []chat.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(label(msg.SenderType))
		b.WriteString(": ")
		b.WriteString(content)
	}
	return b.String()
}

// Deliverable drops AI replies that were never delivered to the student
// (pending review or rejected).
func Deliverable(messages []chat.Message) []chat.Message {
	out := make([]chat.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.ApprovalStatus == chat.ApprovalPending || msg.ApprovalStatus == chat.ApprovalRejected {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// Tail keeps the last n messages. n <= 0 keeps everything.
func Tail(messages []chat.Message, n int) []chat.Message {
	if n <= 0 || len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}

// OrPlaceholder returns text, or Placeholder when text is blank.
func OrPlaceholder(text string) string {
	if strings.TrimSpace(text) == "" {
		return Placeholder
	}
	return text
}

func label(sender chat.Sender) string {
	if l, ok := speakerLabels[sender]; ok {
		return l
	}
	if sender == "" {
		return "Unknown"
	}
	return strings.ToUpper(string(sender[:1])) + string(sender[1:])
}
