package route

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notification-center/internal/keys"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/tests/testutil"
)

func TestHomePage(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 60, 20)

	assert.Empty(t, m.Target())
	assert.Contains(t, m.View(), HomeMessage)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd, "nothing to go back from")
}

func TestNavigate(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 60, 20)
	n := testutil.Notification("n3", model.CategoryOffer, true, 0)

	m.Navigate("/offers/n3", n)
	assert.Equal(t, "/offers/n3", m.Target())
	view := m.View()
	assert.Contains(t, view, "/offers/n3")
	assert.Contains(t, view, "Offers n3")
	assert.Contains(t, view, "body of n3")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, BackMsg{}, cmd())

	m.Home()
	assert.Empty(t, m.Target())
}
