package editor

import (
	"fmt"
	"strings"
)

type Action int

const (
	ActionNone Action = iota
	ActionCopy
	ActionPaste
	ActionDuplicate
)

func (a Action) String() string {
	switch a {
	case ActionCopy:
		return "copy"
	case ActionPaste:
		return "paste"
	case ActionDuplicate:
		return "duplicate"
	}
	return "none"
}

// Shortcut - one key press with its modifiers. Ctrl and Meta (cmd) are interchangeable.
type Shortcut struct {
	Ctrl bool
	Meta bool
	Key  string
}

// ParseShortcut reads combinations such as "ctrl+c", "cmd+v" or "Meta+D".
func ParseShortcut(s string) (Shortcut, error) {
	var sc Shortcut
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if i == len(parts)-1 {
			if p == "" {
				return Shortcut{}, fmt.Errorf("shortcut %q has no key", s)
			}
			sc.Key = p
			break
		}
		switch p {
		case "ctrl", "control":
			sc.Ctrl = true
		case "cmd", "meta", "command":
			sc.Meta = true
		default:
			return Shortcut{}, fmt.Errorf("unknown modifier %q in %q", p, s)
		}
	}
	return sc, nil
}

func (sc Shortcut) Action() Action {
	if !sc.Ctrl && !sc.Meta {
		return ActionNone
	}
	switch sc.Key {
	case "c":
		return ActionCopy
	case "v":
		return ActionPaste
	case "d":
		return ActionDuplicate
	}
	return ActionNone
}

// HandleShortcut applies a key press to the scene. Copy and duplicate need a selection;
// paste works whenever the clipboard holds something. Returns the id of an inserted element.
func (s *Session) HandleShortcut(sc Shortcut) (Action, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := sc.Action()
	_, selected := s.Scene.Selected()
	switch a {
	case ActionCopy:
		if selected {
			s.Scene.CopySelectedElement()
		}
	case ActionPaste:
		return a, s.Scene.PasteElement()
	case ActionDuplicate:
		if selected {
			s.Scene.CopySelectedElement()
			return a, s.Scene.PasteElement()
		}
	}
	return a, ""
}
