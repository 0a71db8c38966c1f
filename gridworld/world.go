package gridworld

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	ErrInvalidAgent      = errors.New("invalid agent id")
	ErrDegenerateGrid    = errors.New("grid size must be greater than 1")
	ErrGridTooLarge      = errors.New("grid size exceeds maximum")
	ErrProbabilityVector = errors.New("treasure probability vector does not match grid")
	ErrProbabilityRange  = errors.New("probability outside [0, 1]")
	ErrInvalidCell       = errors.New("invalid cell")
)

// Rand is the source of uniform draws in [0, 1) used for treasure placement
// and collision resolution. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Collision describes how a step interacted with the opponent.
type Collision int8

const (
	NoCollision Collision = iota
	CollisionWon
	CollisionLost
)

func (c Collision) String() string {
	switch c {
	case CollisionWon:
		return "won"
	case CollisionLost:
		return "lost"
	}
	return "none"
}

// StepResult is the outcome of one agent's move.
type StepResult struct {
	State          State
	Reward         float64
	Done           bool
	OpponentReward float64
	Collision      Collision
	Treasure       bool
}

// World is the two-agent treasure grid.
type World struct {
	config   Config
	geometry Geometry
	starts   [NumAgents]int
	rand     Rand
	logger   *slog.Logger

	positions []int
	status    []CellStatus
	treasures []bool
	collected [NumAgents]int
}

// NewWorld validates the configuration and returns a freshly reset world.
func NewWorld(config Config, rand Rand) (*World, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if rand == nil {
		return nil, errors.New("world needs a random source")
	}
	geometry, _ := NewGeometry(config.Size)
	probs := make([]float64, len(config.TreasureProbabilities))
	copy(probs, config.TreasureProbabilities)
	config.TreasureProbabilities = probs

	w := &World{
		config:    config,
		geometry:  geometry,
		starts:    config.starts(),
		rand:      rand,
		logger:    slog.New(discardHandler{}),
		positions: make([]int, NumAgents),
		status:    make([]CellStatus, geometry.Cells()),
		treasures: make([]bool, geometry.Cells()),
	}
	if _, err := w.Reset(); err != nil {
		return nil, err
	}
	return w, nil
}

// SetLogger routes collision and treasure events to logger, nil silences them.
func (w *World) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(discardHandler{})
	}
	w.logger = logger
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Reset puts both agents back on their start cells, clears visitation and
// redraws the treasure map.
func (w *World) Reset() (State, error) {
	for i := range w.status {
		w.status[i] = Unvisited
	}
	for agent, cell := range w.starts {
		w.positions[agent] = cell
		w.status[cell] = OccupiedBy(agent)
		w.collected[agent] = 0
	}
	w.placeTreasures()
	return w.State(), nil
}

func (w *World) placeTreasures() {
	for i, p := range w.config.TreasureProbabilities {
		w.treasures[i] = w.rand.Float64() < p
	}
}

// AvailableMoves lists the actions that keep the agent on the grid.
func (w *World) AvailableMoves(agent int) ([]Action, error) {
	if err := checkAgent(agent); err != nil {
		return nil, err
	}
	return w.geometry.Moves(w.positions[agent]), nil
}

// Step applies the agent's action. Illegal actions leave the agent in place.
// Moving onto the opponent triggers a collision decided by the agent's
// win probability; the payoff of a collision is zero-sum.
func (w *World) Step(agent int, action Action) (*StepResult, error) {
	if err := checkAgent(agent); err != nil {
		return nil, err
	}
	opponent := 1 - agent
	result := &StepResult{}

	from := w.positions[agent]
	to := w.geometry.Target(from, action)

	if to == w.positions[opponent] {
		if w.rand.Float64() < w.config.CollisionWinProbabilities[agent] {
			w.positions[opponent] = from
			w.positions[agent] = to
			w.status[from] = OccupiedBy(opponent)
			w.status[to] = OccupiedBy(agent)
			result.Reward += w.config.CollisionReward
			result.OpponentReward -= w.config.CollisionReward
			result.Collision = CollisionWon
			w.logger.Debug("collision", "agent", agent, "winner", agent, "cell", to)
		} else {
			result.Reward -= w.config.CollisionReward
			result.OpponentReward += w.config.CollisionReward
			result.Collision = CollisionLost
			w.logger.Debug("collision", "agent", agent, "winner", opponent, "cell", to)
		}
	} else {
		w.positions[agent] = to
		w.status[from] = VisitedEmpty
		w.status[to] = OccupiedBy(agent)
	}

	final := w.positions[agent]
	if final == w.config.Goal {
		result.Reward += w.config.GoalReward
		result.Done = true
	}
	if w.treasures[final] {
		w.treasures[final] = false
		w.collected[agent]++
		result.Reward += w.config.TreasureReward
		result.Treasure = true
		w.logger.Debug("treasure collected", "agent", agent, "cell", final)
	}
	result.State = w.State()
	return result, nil
}

// State returns the live state. See State for aliasing rules.
func (w *World) State() State {
	return State{Positions: w.positions, Status: w.status}
}

func (w *World) Geometry() Geometry {
	return w.geometry
}

func (w *World) Goal() int {
	return w.config.Goal
}

func (w *World) Config() Config {
	return w.config
}

// Treasures returns a copy of the current treasure map.
func (w *World) Treasures() []bool {
	out := make([]bool, len(w.treasures))
	copy(out, w.treasures)
	return out
}

func (w *World) CollectedTreasures(agent int) (int, error) {
	if err := checkAgent(agent); err != nil {
		return 0, err
	}
	return w.collected[agent], nil
}

func checkAgent(agent int) error {
	if agent < 0 || agent >= NumAgents {
		return fmt.Errorf("%w: %d", ErrInvalidAgent, agent)
	}
	return nil
}
