package gridworld

import (
	"errors"
	"fmt"
	"strings"
)

// Action is one of the four moves an agent can attempt.
type Action int8

const (
	Up Action = iota
	Right
	Down
	Left
)

// Actions lists every action in candidate order. Greedy selection breaks ties
// by this order.
var Actions = []Action{Up, Right, Down, Left}

func (a Action) String() string {
	switch a {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	default:
		return fmt.Sprintf("action(%d)", int8(a))
	}
}

// delta returns the row and column offsets of the action
func (a Action) delta() (int, int) {
	switch a {
	case Up:
		return -1, 0
	case Right:
		return 0, 1
	case Down:
		return 1, 0
	case Left:
		return 0, -1
	}
	return 0, 0
}

var ErrUnknownAction = errors.New("unknown action")

// ParseAction accepts the full lower-case name of an action or its initial.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "u":
		return Up, nil
	case "right", "r":
		return Right, nil
	case "down", "d":
		return Down, nil
	case "left", "l":
		return Left, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}
