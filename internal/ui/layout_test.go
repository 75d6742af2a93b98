package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestLayoutPanelRegion(t *testing.T) {
	tests := []struct {
		width     int
		wantWidth int
	}{
		{200, 80},
		{100, 48},
		{30, 30},
	}

	for _, tt := range tests {
		l := NewLayout(tt.width, 40)
		assert.Equal(t, tt.wantWidth, l.PanelWidth(), "width %d", tt.width)
		assert.Equal(t, tt.width-tt.wantWidth, l.PanelLeft())
	}
}

func TestLayoutContentHeight(t *testing.T) {
	assert.Equal(t, 38, NewLayout(100, 40).ContentHeight())
}

func TestRenderHeaderFillsWidth(t *testing.T) {
	l := NewLayout(60, 20)
	header := l.RenderHeader("Notifications", "3 unread")
	assert.Equal(t, 60, lipgloss.Width(header))
}
