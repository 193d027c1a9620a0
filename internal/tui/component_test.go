package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestBaseComponent(t *testing.T) {
	t.Run("creates with title", func(t *testing.T) {
		c := NewBaseComponent("Test Component")
		assert.Equal(t, "Test Component", c.Title())
	})

	t.Run("starts unfocused", func(t *testing.T) {
		c := NewBaseComponent("Test")
		assert.False(t, c.Focused())
	})

	t.Run("can be focused", func(t *testing.T) {
		c := NewBaseComponent("Test")
		c.Focus()
		assert.True(t, c.Focused())
	})

	t.Run("can be blurred", func(t *testing.T) {
		c := NewBaseComponent("Test")
		c.Focus()
		c.Blur()
		assert.False(t, c.Focused())
	})

	t.Run("tracks dimensions", func(t *testing.T) {
		c := NewBaseComponent("Test")
		c.SetSize(80, 24)
		assert.Equal(t, 80, c.Width())
		assert.Equal(t, 24, c.Height())
	})

	t.Run("has default dimensions", func(t *testing.T) {
		c := NewBaseComponent("Test")
		assert.Equal(t, 0, c.Width())
		assert.Equal(t, 0, c.Height())
	})
}

func TestBaseComponent_Update(t *testing.T) {
	t.Run("handles window size message", func(t *testing.T) {
		c := NewBaseComponent("Test")
		msg := tea.WindowSizeMsg{Width: 120, Height: 40}

		updated, _ := c.Update(msg)
		base := updated.(*BaseComponent)

		assert.Equal(t, 120, base.Width())
		assert.Equal(t, 40, base.Height())
	})

	t.Run("handles focus message", func(t *testing.T) {
		c := NewBaseComponent("Test")
		msg := FocusMsg{}

		updated, _ := c.Update(msg)
		base := updated.(*BaseComponent)

		assert.True(t, base.Focused())
	})

	t.Run("handles blur message", func(t *testing.T) {
		c := NewBaseComponent("Test")
		c.Focus()
		msg := BlurMsg{}

		updated, _ := c.Update(msg)
		base := updated.(*BaseComponent)

		assert.False(t, base.Focused())
	})
}

func TestBaseComponent_View(t *testing.T) {
	t.Run("renders placeholder when empty", func(t *testing.T) {
		c := NewBaseComponent("Test Panel")
		c.SetSize(40, 10)

		view := c.View()
		assert.Contains(t, view, "Test Panel")
	})
}

func TestMessages(t *testing.T) {
	t.Run("FocusMsg is a message", func(t *testing.T) {
		msg := FocusMsg{}
		assert.NotNil(t, msg)
	})

	t.Run("BlurMsg is a message", func(t *testing.T) {
		msg := BlurMsg{}
		assert.NotNil(t, msg)
	})

	t.Run("ToastMsg carries text and severity", func(t *testing.T) {
		msg := ToastMsg{Text: "saved", IsErr: false}
		assert.Equal(t, "saved", msg.Text)
		assert.False(t, msg.IsErr)
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hello...", Truncate("hello world", 8))
	assert.Equal(t, "hel", Truncate("hello", 3))
	assert.Equal(t, "", Truncate("hello", 0))
	// Widths count runes, not bytes.
	assert.Equal(t, "Zürich", Truncate("Zürich", 6))
	assert.Equal(t, "Zü...", Truncate("Zürich Hbf", 5))
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab  ", PadRight("ab", 4))
	assert.Equal(t, "ab", PadRight("abcd", 2))
}
