package gridworld

import "fmt"

// NumAgents is the number of agents sharing a grid.
const NumAgents = 2

// CellStatus records what a cell currently holds.
type CellStatus int8

const (
	Unvisited CellStatus = iota
	VisitedEmpty
	occupiedBase
)

// OccupiedBy is the status of a cell holding the given agent.
func OccupiedBy(agent int) CellStatus {
	return occupiedBase + CellStatus(agent)
}

// Occupant returns the agent standing on a cell with this status.
func (c CellStatus) Occupant() (int, bool) {
	if c < occupiedBase {
		return -1, false
	}
	return int(c - occupiedBase), true
}

func (c CellStatus) String() string {
	switch c {
	case Unvisited:
		return "unvisited"
	case VisitedEmpty:
		return "visited"
	}
	if agent, ok := c.Occupant(); ok {
		return fmt.Sprintf("agent%d", agent)
	}
	return fmt.Sprintf("status(%d)", int8(c))
}

// State is what policies observe: agent positions and per-cell status.
// The slices returned by World alias its internal storage and are overwritten
// by the next Step; use Copy to keep a value.
type State struct {
	Positions []int
	Status    []CellStatus
}

func (s State) Copy() State {
	positions := make([]int, len(s.Positions))
	copy(positions, s.Positions)
	status := make([]CellStatus, len(s.Status))
	copy(status, s.Status)
	return State{Positions: positions, Status: status}
}

// Locate finds the cell occupied by agent by scanning the status vector.
func (s State) Locate(agent int) (int, bool) {
	target := OccupiedBy(agent)
	for cell, status := range s.Status {
		if status == target {
			return cell, true
		}
	}
	return -1, false
}

// StateKey is a comparable snapshot of a State, usable as a map key.
type StateKey struct {
	Positions [NumAgents]int8
	Status    [MaxCells]CellStatus
}

func (s State) Key() StateKey {
	var key StateKey
	for i := 0; i < NumAgents && i < len(s.Positions); i++ {
		key.Positions[i] = int8(s.Positions[i])
	}
	copy(key.Status[:], s.Status)
	return key
}

func (s State) String() string {
	return fmt.Sprintf("positions=%v status=%v", s.Positions, s.Status)
}
