package markzap

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidMode = errors.New("invalid mode")

// Mode is what the document view shows: the rendered preview or the editor.
type Mode int

const (
	ModePreview Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	switch m {
	case ModeEdit:
		return "edit"
	default:
		return "preview"
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "preview":
		return ModePreview, nil
	case "edit":
		return ModeEdit, nil
	default:
		return ModePreview, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}
