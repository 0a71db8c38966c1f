package policies

import (
	"fmt"
	"strings"

	"github.com/zeu5/gridduel/core"
	"github.com/zeu5/gridduel/gridworld"
)

// ScriptedPolicy replays a fixed action sequence, cycling when it runs out
// and restarting at every episode.
type ScriptedPolicy struct {
	agent  int
	script []gridworld.Action
	next   int
}

var _ core.Policy = &ScriptedPolicy{}

func NewScriptedPolicy(agent int, script ...gridworld.Action) *ScriptedPolicy {
	if len(script) == 0 {
		script = []gridworld.Action{gridworld.Up}
	}
	return &ScriptedPolicy{
		agent:  agent,
		script: script,
	}
}

func (s *ScriptedPolicy) Name() string {
	names := make([]string, len(s.script))
	for i, a := range s.script {
		names[i] = a.String()
	}
	return fmt.Sprintf("scripted(%s) %d", strings.Join(names, ","), s.agent)
}

func (s *ScriptedPolicy) Reset() {
	s.next = 0
}

func (s *ScriptedPolicy) ResetEpisode(_ *core.EpisodeContext) {
	s.next = 0
}

func (s *ScriptedPolicy) ChooseAction(_ *core.StepContext, _ gridworld.State) gridworld.Action {
	a := s.script[s.next%len(s.script)]
	s.next++
	return a
}

func (s *ScriptedPolicy) Train(_ *core.StepContext, _ gridworld.State, _ gridworld.Action, _ float64, _ gridworld.State) {
}

type ScriptedPolicyConstructor struct {
	Script []gridworld.Action
}

var _ core.PolicyConstructor = &ScriptedPolicyConstructor{}

func NewScriptedPolicyConstructor(script ...gridworld.Action) *ScriptedPolicyConstructor {
	return &ScriptedPolicyConstructor{Script: script}
}

func (s *ScriptedPolicyConstructor) NewPolicy(agent int, _ int64) core.Policy {
	return NewScriptedPolicy(agent, s.Script...)
}
