package domain

import (
	"strings"
	"time"
)

// TruncationMarker is appended when a rendered SMS body is shortened.
const TruncationMarker = "..."

// NotificationTemplate is a stored message template keyed by
// (event type, channel type). Templates are read-only to the dispatch
// subsystem; an inactive template behaves as if it does not exist.
type NotificationTemplate struct {
	ID        string
	Name      string
	EventType EventType
	Channel   Channel
	Subject   string
	Body      string
	Variables []string
	MaxLength int
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Render substitutes every {name} token in the subject and body with the
// matching value from vars. Rendering is total: unresolved tokens stay in
// the output as literal text, and a nil map is fine. SMS bodies longer
// than MaxLength are truncated to exactly MaxLength characters including
// the truncation marker.
func (t *NotificationTemplate) Render(vars map[string]string) (subject, message string) {
	if t == nil {
		return "", ""
	}

	subject = substituteTokens(t.Subject, vars)
	message = substituteTokens(t.Body, vars)

	if t.Channel == ChannelSMS && t.MaxLength > 0 {
		message = TruncateMessage(message, t.MaxLength)
	}

	return subject, message
}

func substituteTokens(text string, vars map[string]string) string {
	if text == "" || len(vars) == 0 {
		return text
	}

	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// TruncateMessage shortens message to at most limit runes, replacing the
// tail with the truncation marker. Messages already within the limit are
// returned unchanged.
func TruncateMessage(message string, limit int) string {
	if limit <= 0 {
		return message
	}

	runes := []rune(message)
	if len(runes) <= limit {
		return message
	}

	marker := []rune(TruncationMarker)
	if limit <= len(marker) {
		return string(runes[:limit])
	}

	return string(runes[:limit-len(marker)]) + TruncationMarker
}
