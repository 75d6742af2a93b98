package help

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"

	"github.com/nhle/notification-center/internal/keys"
)

func TestViewListsEveryBinding(t *testing.T) {
	k := keys.DefaultKeyMap()
	view := New(k, 160, 60).View()

	assert.Contains(t, view, "Keyboard Shortcuts")
	for _, title := range sectionTitles {
		assert.Contains(t, view, title)
	}
	for _, b := range bindingsOf(k) {
		assert.Contains(t, view, b.Help().Desc)
	}
	assert.Contains(t, view, "Interviews")
	assert.Contains(t, view, "URGENT")
}

func bindingsOf(k *keys.KeyMap) []key.Binding {
	var out []key.Binding
	for _, g := range k.FullHelp() {
		out = append(out, g...)
	}
	return out
}
