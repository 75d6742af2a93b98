package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestEnterEmitsTrimmedCommand(t *testing.T) {
	m := typeText(New(80, 10), "  read all ")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg("read all"), cmd())
	assert.Empty(t, m.input.Value())
}

func TestEnterOnEmptyInputDoesNothing(t *testing.T) {
	_, cmd := New(80, 10).Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestEscCancels(t *testing.T) {
	m := typeText(New(80, 10), "dig")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, CancelMsg{}, cmd())
	assert.Empty(t, m.input.Value())
}
