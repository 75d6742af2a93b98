package testutil

import (
	"fmt"
	"time"

	"github.com/nhle/notification-center/internal/model"
)

// BaseTime is a fixed instant fixtures are built relative to.
var BaseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// Notification builds a notification with sensible defaults. The offset
// orders fixtures: a higher offset is a later CreatedAt.
func Notification(id string, c model.Category, read bool, offset int) model.Notification {
	return model.Notification{
		ID:        id,
		Category:  c,
		Priority:  model.PriorityMedium,
		Title:     fmt.Sprintf("%s %s", c.Label(), id),
		Body:      "body of " + id,
		IsRead:    read,
		CreatedAt: BaseTime.Add(time.Duration(offset) * time.Minute),
		Owner:     "alice",
	}
}
