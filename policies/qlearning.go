package policies

import (
	"fmt"

	"github.com/zeu5/gridduel/core"
	"github.com/zeu5/gridduel/gridworld"
	erand "golang.org/x/exp/rand"
)

type QLearningParams struct {
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`
	Discount     float64 `json:"discount" yaml:"discount"`
	Epsilon      float64 `json:"epsilon" yaml:"epsilon"`
	EpsilonDecay float64 `json:"epsilon_decay" yaml:"epsilon_decay"`
	// EpsilonMin floors the decayed exploration rate, 0 leaves it unbounded
	EpsilonMin float64 `json:"epsilon_min" yaml:"epsilon_min"`
}

func DefaultQLearningParams() QLearningParams {
	return QLearningParams{
		LearningRate: 0.1,
		Discount:     0.95,
		Epsilon:      1.0,
		EpsilonDecay: 0.99,
	}
}

// QLearningPolicy is a tabular epsilon-greedy Q-learner. It only ever
// considers actions that keep its agent on the grid. States are keyed by the
// full position and status vector, so the opponent's position and the
// visitation history are part of what it learns.
type QLearningPolicy struct {
	agent    int
	geometry gridworld.Geometry
	params   QLearningParams
	seed     uint64

	qTable  *QTable
	epsilon float64
	rand    *erand.Rand
}

var _ core.Policy = &QLearningPolicy{}

func NewQLearningPolicy(agent int, geometry gridworld.Geometry, params QLearningParams, seed uint64) *QLearningPolicy {
	return &QLearningPolicy{
		agent:    agent,
		geometry: geometry,
		params:   params,
		seed:     seed,

		qTable:  NewQTable(),
		epsilon: params.Epsilon,
		rand:    erand.New(erand.NewSource(seed)),
	}
}

func (q *QLearningPolicy) Name() string {
	return fmt.Sprintf("q-learning %d", q.agent)
}

// Reset forgets everything learned and restores the initial exploration rate.
func (q *QLearningPolicy) Reset() {
	q.qTable = NewQTable()
	q.epsilon = q.params.Epsilon
	q.rand = erand.New(erand.NewSource(q.seed))
}

func (q *QLearningPolicy) ResetEpisode(_ *core.EpisodeContext) {}

func (q *QLearningPolicy) Epsilon() float64 {
	return q.epsilon
}

func (q *QLearningPolicy) TableSize() int {
	return q.qTable.Size()
}

// Value is the stored estimate for (state, action), 0 if never visited.
func (q *QLearningPolicy) Value(state gridworld.State, action gridworld.Action) float64 {
	val, _ := q.qTable.Peek(state.Key(), action)
	return val
}

func (q *QLearningPolicy) legalActions(state gridworld.State) []gridworld.Action {
	cell, ok := state.Locate(q.agent)
	if !ok {
		cell = state.Positions[q.agent]
	}
	return q.geometry.Moves(cell)
}

func (q *QLearningPolicy) ChooseAction(_ *core.StepContext, state gridworld.State) gridworld.Action {
	actions := q.legalActions(state)
	if q.rand.Float64() < q.epsilon {
		return actions[q.rand.Intn(len(actions))]
	}
	action, _, _ := q.qTable.MaxAmong(state.Key(), actions, 0)
	return action
}

func (q *QLearningPolicy) Train(_ *core.StepContext, state gridworld.State, action gridworld.Action, reward float64, nextState gridworld.State) {
	key := state.Key()
	cur := q.qTable.Get(key, action, 0)
	best := q.qTable.MaxValue(nextState.Key(), q.legalActions(nextState), 0)

	target := reward + q.params.Discount*best
	q.qTable.Set(key, action, cur+q.params.LearningRate*(target-cur))

	q.epsilon *= q.params.EpsilonDecay
	if q.epsilon < q.params.EpsilonMin {
		q.epsilon = q.params.EpsilonMin
	}
}

type QLearningPolicyConstructor struct {
	geometry gridworld.Geometry
	params   QLearningParams
}

var _ core.PolicyConstructor = &QLearningPolicyConstructor{}

func NewQLearningPolicyConstructor(geometry gridworld.Geometry, params QLearningParams) *QLearningPolicyConstructor {
	return &QLearningPolicyConstructor{
		geometry: geometry,
		params:   params,
	}
}

func (c *QLearningPolicyConstructor) NewPolicy(agent int, seed int64) core.Policy {
	return NewQLearningPolicy(agent, c.geometry, c.params, uint64(seed))
}
