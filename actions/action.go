package actions

import (
	"strings"

	"github.com/adamluzsi/persistroute/errs"
)

type Action int

const (
	Display Action = iota
	Insert
	Update
	Delete
	None
)

func (a Action) String() string {
	switch a {
	case Display:
		return "display"
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Delete:
		return "delete"
	case None:
		return "none"
	default:
		return "unknown"
	}
}

// ParseAction reads an action name case-insensitively.
// An empty name means Display.
func ParseAction(raw string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "display":
		return Display, nil
	case "insert":
		return Insert, nil
	case "update":
		return Update, nil
	case "delete":
		return Delete, nil
	case "none":
		return None, nil
	default:
		return 0, errs.UnsupportedAction{Value: raw}
	}
}
