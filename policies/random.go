package policies

import (
	"fmt"
	"math/rand"

	"github.com/zeu5/gridduel/core"
	"github.com/zeu5/gridduel/gridworld"
)

// RandomPolicy draws uniformly from all four actions, including the ones
// that would leave the grid (those become no-ops in the environment).
type RandomPolicy struct {
	agent int
	rand  *rand.Rand
}

var _ core.Policy = &RandomPolicy{}

func NewRandomPolicy(agent int, seed int64) *RandomPolicy {
	return &RandomPolicy{
		agent: agent,
		rand:  rand.New(rand.NewSource(seed)),
	}
}

func (r *RandomPolicy) Name() string {
	return fmt.Sprintf("random %d", r.agent)
}

func (r *RandomPolicy) Reset() {}

func (r *RandomPolicy) ResetEpisode(_ *core.EpisodeContext) {}

func (r *RandomPolicy) ChooseAction(_ *core.StepContext, _ gridworld.State) gridworld.Action {
	return gridworld.Actions[r.rand.Intn(len(gridworld.Actions))]
}

func (r *RandomPolicy) Train(_ *core.StepContext, _ gridworld.State, _ gridworld.Action, _ float64, _ gridworld.State) {
}

type RandomPolicyConstructor struct{}

var _ core.PolicyConstructor = &RandomPolicyConstructor{}

func (r *RandomPolicyConstructor) NewPolicy(agent int, seed int64) core.Policy {
	return NewRandomPolicy(agent, seed)
}
