package duel

import (
	"io"
	"log/slog"

	"github.com/zeu5/gridduel/analysis"
	"github.com/zeu5/gridduel/benchmarks/common"
	"github.com/zeu5/gridduel/core"
	"github.com/zeu5/gridduel/gridworld"
	"github.com/zeu5/gridduel/policies"
)

// Output collects where a comparison reports to.
type Output struct {
	Logger *slog.Logger
	// Results receives the final results table, nil disables it
	Results io.Writer
	Colored bool
}

func addAnalyses(cmp *core.Comparison, flags *common.Flags, config gridworld.Config, out Output) error {
	geometry, err := gridworld.NewGeometry(config.Size)
	if err != nil {
		return err
	}
	cmp.AddAnalysis("Outcomes", analysis.NewOutcomeAnalyzerConstructor(), analysis.NewOutcomeComparatorConstructor(flags.SavePath, out.Results, out.Colored))
	cmp.AddAnalysis("Rewards", analysis.NewRewardAnalyzerConstructor(analysis.DefaultBlockSize), analysis.NewRewardComparatorConstructor(flags.SavePath))
	cmp.AddAnalysis("Coverage", analysis.NewCoverageAnalyzerConstructor(), analysis.NewCoverageComparatorConstructor(flags.SavePath))
	cmp.AddAnalysis("Invariants",
		analysis.NewInvariantAnalyzerConstructor(flags.SavePath, geometry, config.Goal, analysis.DefaultInvariants(config)...),
		analysis.NewInvariantComparatorConstructor(flags.SavePath),
	)
	if flags.Plot {
		cmp.AddAnalysis("RewardPlot", analysis.NewRewardAnalyzerConstructor(analysis.DefaultBlockSize), analysis.NewPlotComparatorConstructor(flags.SavePath))
	}
	if flags.Debug {
		cmp.AddAnalysis("Debug", analysis.NewPrintDebugAnalyzerConstructor(flags.SavePath, geometry, config.Goal, 0), analysis.NewNoOpComparatorConstructor())
	}
	return nil
}

// PrepareDuelComparison sets up the reference duel: a random agent 0 against
// a Q-learning agent 1.
func PrepareDuelComparison(flags *common.Flags, out Output) (*core.Comparison, error) {
	if err := flags.Validate(); err != nil {
		return nil, err
	}
	config := flags.GridConfig()
	geometry, err := gridworld.NewGeometry(config.Size)
	if err != nil {
		return nil, err
	}

	cmp := core.NewComparison()
	if err := addAnalyses(cmp, flags, config, out); err != nil {
		return nil, err
	}
	env := NewWorldConstructor(config, out.Logger)

	cmp.AddExperiment(&core.Experiment{
		Name:        "RandomVsQLearning",
		Environment: env,
		Policies: [gridworld.NumAgents]core.PolicyConstructor{
			&policies.RandomPolicyConstructor{},
			policies.NewQLearningPolicyConstructor(geometry, flags.QLearningParams()),
		},
	})
	return cmp, nil
}

// PrepareBaselineComparison runs the reference duel next to baselines that
// bracket it: two random agents, Q-learning against a scripted opponent and
// two Q-learners.
func PrepareBaselineComparison(flags *common.Flags, out Output) (*core.Comparison, error) {
	cmp, err := PrepareDuelComparison(flags, out)
	if err != nil {
		return nil, err
	}
	config := flags.GridConfig()
	geometry, _ := gridworld.NewGeometry(config.Size)
	env := NewWorldConstructor(config, out.Logger)
	qLearning := policies.NewQLearningPolicyConstructor(geometry, flags.QLearningParams())
	script, err := flags.ScriptActions()
	if err != nil {
		return nil, err
	}
	if len(script) == 0 {
		script = WalkToGoal(geometry, config)
	}

	cmp.AddExperiment(&core.Experiment{
		Name:        "RandomVsRandom",
		Environment: env,
		Policies: [gridworld.NumAgents]core.PolicyConstructor{
			&policies.RandomPolicyConstructor{},
			&policies.RandomPolicyConstructor{},
		},
	})
	cmp.AddExperiment(&core.Experiment{
		Name:        "ScriptedVsQLearning",
		Environment: env,
		Policies: [gridworld.NumAgents]core.PolicyConstructor{
			policies.NewScriptedPolicyConstructor(script...),
			qLearning,
		},
	})
	cmp.AddExperiment(&core.Experiment{
		Name:        "QLearningVsQLearning",
		Environment: env,
		Policies: [gridworld.NumAgents]core.PolicyConstructor{
			qLearning,
			qLearning,
		},
	})
	return cmp, nil
}

// WalkToGoal is the shortest path of agent 0 from its start to the goal,
// vertical moves first.
func WalkToGoal(geometry gridworld.Geometry, config gridworld.Config) []gridworld.Action {
	start := gridworld.DefaultStarts(config.Size)[0]
	if len(config.Starts) == gridworld.NumAgents {
		start = config.Starts[0]
	}
	row, col := geometry.RowCol(start)
	goalRow, goalCol := geometry.RowCol(config.Goal)

	path := make([]gridworld.Action, 0)
	for ; row > goalRow; row-- {
		path = append(path, gridworld.Up)
	}
	for ; row < goalRow; row++ {
		path = append(path, gridworld.Down)
	}
	for ; col > goalCol; col-- {
		path = append(path, gridworld.Left)
	}
	for ; col < goalCol; col++ {
		path = append(path, gridworld.Right)
	}
	return path
}
