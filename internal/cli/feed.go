package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nhle/notification-center/internal/feed"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/store"
	"github.com/nhle/notification-center/internal/theme"
)

// List prints the persisted feed newest first.
func List(ctx context.Context, w io.Writer, kv store.KV, unreadOnly bool) error {
	f := feed.New(kv)
	f.Initialize(ctx)
	defer f.Close()

	filter := model.AllFilter()
	filter.UnreadOnly = unreadOnly
	list := f.Projection(filter)
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No notifications.")
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.ColorBorder)).
		Headers("", "ID", "CATEGORY", "PRIORITY", "CREATED", "TITLE")
	for _, n := range list {
		mark := ""
		if !n.IsRead {
			mark = "●"
		}
		t.Row(mark, n.ID, string(n.Category), string(n.Priority),
			n.CreatedAt.Local().Format(time.DateTime), n.Title)
	}

	_, err := fmt.Fprintf(w, "%s\n%d unread of %d\n", t.String(), f.UnreadCount(), len(f.Notifications()))
	return err
}

// ApplyPreferences merges a JSON patch into the persisted preferences and
// returns the result. An empty patch only reads. The stored permission is
// kept as is since this process has no platform notifier.
func ApplyPreferences(ctx context.Context, kv store.KV, patchJSON []byte) (model.Preferences, error) {
	patch, err := model.ParsePreferencesPatch(patchJSON)
	if err != nil {
		return model.Preferences{}, err
	}

	f := feed.New(kv, feed.WithStoredPermission())
	f.Initialize(ctx)
	defer f.Close()

	if !patch.IsEmpty() {
		f.UpdatePreferences(patch)
	}
	return f.Preferences(), nil
}
