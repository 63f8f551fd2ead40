package domain

import (
	"strings"
	"time"
)

// UserNotificationPreference holds per-user opt-in flags, quiet hours, and
// preferred contact overrides. At most one record exists per user; a
// missing record must behave exactly like DefaultPreference.
type UserNotificationPreference struct {
	UserID            string
	SMSEnabled        bool
	EmailEnabled      bool
	OrderUpdates      bool
	TechnicianUpdates bool
	Marketing         bool
	Promotional       bool
	QuietHoursStart   string
	QuietHoursEnd     string
	PreferredPhone    string
	PreferredEmail    string
	Timezone          string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DefaultPreference returns the implicit record for users without one:
// every channel and category enabled, no quiet hours.
func DefaultPreference(userID string) *UserNotificationPreference {
	return &UserNotificationPreference{
		UserID:            userID,
		SMSEnabled:        true,
		EmailEnabled:      true,
		OrderUpdates:      true,
		TechnicianUpdates: true,
		Marketing:         true,
		Promotional:       true,
	}
}

// AllowsChannel reports whether the user accepts messages on a channel.
func (p *UserNotificationPreference) AllowsChannel(channel Channel) bool {
	if p == nil {
		return true
	}
	switch channel {
	case ChannelSMS:
		return p.SMSEnabled
	case ChannelEmail:
		return p.EmailEnabled
	}
	return false
}

// AllowsCategory reports whether the user accepts a notification category.
func (p *UserNotificationPreference) AllowsCategory(category Category) bool {
	if p == nil {
		return true
	}
	switch category {
	case CategoryOrderUpdates:
		return p.OrderUpdates
	case CategoryTechnicianUpdates:
		return p.TechnicianUpdates
	case CategoryMarketing:
		return p.Marketing
	case CategoryPromotional:
		return p.Promotional
	}
	return true
}

// InQuietHours reports whether now falls inside the user's quiet-hours
// window. The window is expressed as HH:MM local-time strings and may span
// midnight (e.g. 22:00-07:00). Empty or malformed bounds disable the check.
func (p *UserNotificationPreference) InQuietHours(now time.Time) bool {
	if p == nil {
		return false
	}

	start, okStart := parseClock(p.QuietHoursStart)
	end, okEnd := parseClock(p.QuietHoursEnd)
	if !okStart || !okEnd || start == end {
		return false
	}

	if tz := strings.TrimSpace(p.Timezone); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			now = now.In(loc)
		}
	}
	current := now.Hour()*60 + now.Minute()

	if start < end {
		return current >= start && current < end
	}
	// Window spans midnight.
	return current >= start || current < end
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if len(value) != 5 || value[2] != ':' {
		return 0, false
	}

	hour, ok := parseTwoDigits(value[:2])
	if !ok || hour > 23 {
		return 0, false
	}
	minute, ok := parseTwoDigits(value[3:])
	if !ok || minute > 59 {
		return 0, false
	}

	return hour*60 + minute, true
}

func parseTwoDigits(s string) (int, bool) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}
