package core

import "github.com/zeu5/gridduel/gridworld"

// Policy drives one agent. Train is a no-op for non-learning policies.
type Policy interface {
	Name() string
	ChooseAction(*StepContext, gridworld.State) gridworld.Action
	Train(*StepContext, gridworld.State, gridworld.Action, float64, gridworld.State)
	ResetEpisode(*EpisodeContext)
	Reset()
}

type PolicyConstructor interface {
	// NewPolicy creates the policy controlling agent, seeded with seed.
	NewPolicy(agent int, seed int64) Policy
}
