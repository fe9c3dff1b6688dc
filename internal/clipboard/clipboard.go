package clipboard

import (
	"errors"
	"strings"
)

var (
	// ErrUnavailable is returned when the window has no clipboard.
	ErrUnavailable = errors.New("clipboard is not available")
	// ErrNothingToCopy is returned for blank content.
	ErrNothingToCopy = errors.New("nothing to copy")
)

// Writer is the part of fyne.Clipboard used for exporting.
type Writer interface {
	SetContent(content string)
}

// ClipboardManager defines the interface for clipboard operations.
type ClipboardManager interface {
	SetContent(content string) error
}

// Manager copies exported session text to the system clipboard.
type Manager struct {
	clipboard Writer
}

// NewManager wraps a Fyne clipboard.
func NewManager(clipboard Writer) *Manager {
	return &Manager{clipboard: clipboard}
}

// SetContent sets the clipboard content, rejecting blank text.
func (c *Manager) SetContent(content string) error {
	if c.clipboard == nil {
		return ErrUnavailable
	}
	if strings.TrimSpace(content) == "" {
		return ErrNothingToCopy
	}
	c.clipboard.SetContent(content)
	return nil
}
