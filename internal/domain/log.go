package domain

import "time"

// LogAction labels what kind of physical send a log entry records.
type LogAction string

const (
	LogActionSendAttempt  LogAction = "send_attempt"
	LogActionRetryAttempt LogAction = "retry_attempt"
)

func (a LogAction) String() string { return string(a) }

// NotificationLog is an append-only record of a single physical send
// attempt, including retries. Entries are never mutated or deleted.
type NotificationLog struct {
	ID             string
	NotificationID string
	Action         LogAction
	StatusCode     *int
	ResponseBody   *string
	Error          *string
	DurationMillis int64
	CreatedAt      time.Time
}
