package policies

import (
	"github.com/zeu5/gridduel/gridworld"
	"gonum.org/v1/gonum/floats"
)

// QTable maps a state key to the estimated value of each action tried there.
// Entries are created lazily with the default value given on access.
type QTable struct {
	table map[gridworld.StateKey]map[gridworld.Action]float64
}

func NewQTable() *QTable {
	return &QTable{
		table: make(map[gridworld.StateKey]map[gridworld.Action]float64),
	}
}

func (q *QTable) Get(state gridworld.StateKey, action gridworld.Action, def float64) float64 {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[gridworld.Action]float64)
	}
	if _, ok := q.table[state][action]; !ok {
		q.table[state][action] = def
	}
	return q.table[state][action]
}

// Peek returns the stored value without creating an entry.
func (q *QTable) Peek(state gridworld.StateKey, action gridworld.Action) (float64, bool) {
	values, ok := q.table[state]
	if !ok {
		return 0, false
	}
	val, ok := values[action]
	return val, ok
}

func (q *QTable) Set(state gridworld.StateKey, action gridworld.Action, val float64) {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[gridworld.Action]float64)
	}
	q.table[state][action] = val
}

func (q *QTable) HasState(state gridworld.StateKey) bool {
	_, ok := q.table[state]
	return ok
}

// Actions returns a copy of the values stored for a state.
func (q *QTable) Actions(state gridworld.StateKey) map[gridworld.Action]float64 {
	out := make(map[gridworld.Action]float64, len(q.table[state]))
	for a, v := range q.table[state] {
		out[a] = v
	}
	return out
}

func (q *QTable) Size() int {
	return len(q.table)
}

// MaxAmong returns the action with the highest value among actions, creating
// missing entries with def. Ties go to the action listed first.
func (q *QTable) MaxAmong(state gridworld.StateKey, actions []gridworld.Action, def float64) (gridworld.Action, float64, bool) {
	if len(actions) == 0 {
		return 0, def, false
	}
	vals := make([]float64, len(actions))
	for i, a := range actions {
		vals[i] = q.Get(state, a, def)
	}
	i := floats.MaxIdx(vals)
	return actions[i], vals[i], true
}

// MaxValue is the highest value among actions, or def when actions is empty.
func (q *QTable) MaxValue(state gridworld.StateKey, actions []gridworld.Action, def float64) float64 {
	_, val, ok := q.MaxAmong(state, actions, def)
	if !ok {
		return def
	}
	return val
}
