package core

import (
	"context"
	"log/slog"

	"github.com/zeu5/gridduel/gridworld"
)

// Environment is the view the episode runner has of a grid duel.
// *gridworld.World implements it.
type Environment interface {
	Reset() (gridworld.State, error)
	Step(int, gridworld.Action) (*gridworld.StepResult, error)
	AvailableMoves(int) ([]gridworld.Action, error)
}

var _ Environment = &gridworld.World{}

type EnvironmentConstructor interface {
	// NewEnvironment creates a new environment for the given run, drawing
	// randomness from seed.
	NewEnvironment(run int, seed int64) (Environment, error)
}

type Phase string

const (
	PhaseTrain Phase = "train"
	PhaseTest  Phase = "test"
)

// DefaultOrder lets agent 0 move first in every round.
var DefaultOrder = [gridworld.NumAgents]int{0, 1}

type EpisodeContext struct {
	Context    context.Context
	Experiment string
	Run        int
	Episode    int
	Phase      Phase
	// Agents holds the policy name of each agent
	Agents  [gridworld.NumAgents]string
	Horizon int
	// Order is the turn order within a round
	Order  [gridworld.NumAgents]int
	Logger *slog.Logger

	Trace  *Trace
	Result *EpisodeResult
}

func NewEpisodeContext(ctx context.Context) *EpisodeContext {
	return &EpisodeContext{
		Context: ctx,
		Order:   DefaultOrder,
		Trace:   NewTrace(),
		Logger:  slog.Default(),
	}
}

// Starter is the agent moving first in each round.
func (e *EpisodeContext) Starter() int {
	return e.Order[0]
}

type StepContext struct {
	Round int
	Agent int
	*EpisodeContext
}
