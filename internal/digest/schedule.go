package digest

import (
	"slices"
	"time"

	"github.com/nhle/notification-center/internal/model"
)

// Period returns the digest interval for freq. Instant and unknown
// frequencies have none.
func Period(freq model.EmailFrequency) time.Duration {
	switch freq {
	case model.FrequencyDaily:
		return 24 * time.Hour
	case model.FrequencyWeekly:
		return 7 * 24 * time.Hour
	}
	return 0
}

// Due reports whether a digest for freq is owed at now. A zero last is
// always due for periodic frequencies; instant is never due because it
// mails on append.
func Due(freq model.EmailFrequency, last, now time.Time) bool {
	p := Period(freq)
	if p == 0 {
		return false
	}
	return !now.Before(last.Add(p))
}

// Select returns the entries of list in the email categories created
// strictly after since, keeping list order.
func Select(list []model.Notification, prefs model.Preferences, since time.Time) []model.Notification {
	var out []model.Notification
	for _, n := range list {
		if !n.CreatedAt.After(since) {
			continue
		}
		if !slices.Contains(prefs.Email.Categories, n.Category) {
			continue
		}
		out = append(out, n)
	}
	return out
}
