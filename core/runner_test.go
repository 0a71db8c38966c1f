package core_test

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/gridduel/core"
	"github.com/zeu5/gridduel/gridworld"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type repeatPolicy struct {
	agent   int
	actions []gridworld.Action
	next    int
	trained int
	resets  int
}

func (p *repeatPolicy) Name() string { return "repeat" }

func (p *repeatPolicy) ChooseAction(_ *core.StepContext, _ gridworld.State) gridworld.Action {
	a := p.actions[p.next%len(p.actions)]
	p.next++
	return a
}

func (p *repeatPolicy) Train(_ *core.StepContext, _ gridworld.State, _ gridworld.Action, _ float64, _ gridworld.State) {
	p.trained++
}

func (p *repeatPolicy) ResetEpisode(_ *core.EpisodeContext) {
	p.next = 0
	p.resets++
}

func (p *repeatPolicy) Reset() {}

type repeatConstructor []gridworld.Action

func (r repeatConstructor) NewPolicy(agent int, _ int64) core.Policy {
	return &repeatPolicy{agent: agent, actions: r}
}

type worldConstructor struct {
	config gridworld.Config
}

func (w worldConstructor) NewEnvironment(_ int, seed int64) (core.Environment, error) {
	return gridworld.NewWorld(w.config, rand.New(rand.NewSource(seed)))
}

func emptyConfig() gridworld.Config {
	c := gridworld.DefaultConfig()
	c.TreasureProbabilities = make([]float64, c.Size*c.Size)
	return c
}

func newWorld(t *testing.T) *gridworld.World {
	t.Helper()
	w, err := gridworld.NewWorld(emptyConfig(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	return w
}

func episodeContext(horizon int) *core.EpisodeContext {
	eCtx := core.NewEpisodeContext(context.Background())
	eCtx.Horizon = horizon
	eCtx.Logger = quiet
	return eCtx
}

func TestRunEpisodeEndsAtGoal(t *testing.T) {
	w := newWorld(t)
	// agent 0 walks 8 -> 5 -> 2 -> 1, agent 1 bumps into the left wall
	a0 := &repeatPolicy{agent: 0, actions: []gridworld.Action{gridworld.Up, gridworld.Up, gridworld.Left}}
	a1 := &repeatPolicy{agent: 1, actions: []gridworld.Action{gridworld.Left}}
	eCtx := episodeContext(100)

	result, err := core.RunEpisode(eCtx, w, [gridworld.NumAgents]core.Policy{a0, a1}, true)
	require.NoError(t, err)

	assert.True(t, result.Done[0])
	assert.False(t, result.Done[1])
	assert.False(t, result.Truncated)
	assert.Equal(t, 3, result.Rounds)
	assert.Equal(t, 5, result.Steps)
	assert.Equal(t, 10.0, result.Rewards[0])
	assert.Equal(t, 0, result.Winner)
	assert.Equal(t, 5, eCtx.Trace.Len())
	assert.True(t, eCtx.Trace.Last().Done)
	assert.Same(t, result, eCtx.Result)
	assert.Equal(t, 3, a0.trained)
	assert.Equal(t, 2, a1.trained)
}

func TestRunEpisodeTruncatesAtHorizon(t *testing.T) {
	w := newWorld(t)
	a0 := &repeatPolicy{agent: 0, actions: []gridworld.Action{gridworld.Right}}
	a1 := &repeatPolicy{agent: 1, actions: []gridworld.Action{gridworld.Left}}
	eCtx := episodeContext(5)

	result, err := core.RunEpisode(eCtx, w, [gridworld.NumAgents]core.Policy{a0, a1}, false)
	require.NoError(t, err)

	assert.True(t, result.Truncated)
	assert.Equal(t, 5, result.Rounds)
	assert.Equal(t, 10, result.Steps)
	assert.Equal(t, core.Tie, result.Winner)
	assert.Zero(t, a0.trained)
	assert.Zero(t, a1.trained)
	assert.Equal(t, 1, a0.resets)
}

func TestRunEpisodeFollowsOrder(t *testing.T) {
	w := newWorld(t)
	a0 := &repeatPolicy{agent: 0, actions: []gridworld.Action{gridworld.Right}}
	a1 := &repeatPolicy{agent: 1, actions: []gridworld.Action{gridworld.Left}}
	eCtx := episodeContext(2)
	eCtx.Order = [gridworld.NumAgents]int{1, 0}

	_, err := core.RunEpisode(eCtx, w, [gridworld.NumAgents]core.Policy{a0, a1}, false)
	require.NoError(t, err)

	require.Equal(t, 4, eCtx.Trace.Len())
	for i := 0; i < eCtx.Trace.Len(); i++ {
		step := eCtx.Trace.Step(i)
		assert.Equal(t, eCtx.Order[i%2], step.Agent)
		assert.Equal(t, i/2, step.Round)
	}
	assert.Equal(t, 1, eCtx.Starter())
}

func TestRunEpisodeKeepsStateSnapshots(t *testing.T) {
	w := newWorld(t)
	a0 := &repeatPolicy{agent: 0, actions: []gridworld.Action{gridworld.Up}}
	a1 := &repeatPolicy{agent: 1, actions: []gridworld.Action{gridworld.Up}}
	eCtx := episodeContext(1)

	_, err := core.RunEpisode(eCtx, w, [gridworld.NumAgents]core.Policy{a0, a1}, false)
	require.NoError(t, err)

	first := eCtx.Trace.Step(0)
	assert.Equal(t, []int{8, 6}, first.State.Positions)
	assert.Equal(t, []int{5, 6}, first.NextState.Positions)
	assert.Equal(t, []int{5, 3}, w.State().Positions)
}

func TestRunEpisodeStopsOnCancel(t *testing.T) {
	w := newWorld(t)
	a := &repeatPolicy{actions: []gridworld.Action{gridworld.Right}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	eCtx := core.NewEpisodeContext(ctx)
	eCtx.Logger = quiet

	_, err := core.RunEpisode(eCtx, w, [gridworld.NumAgents]core.Policy{a, a}, false)
	assert.ErrorIs(t, err, context.Canceled)
}

type countingAnalyzer struct {
	episodes map[core.Phase]int
}

func (c *countingAnalyzer) Analyze(eCtx *core.EpisodeContext, _ *core.Trace) {
	c.episodes[eCtx.Phase]++
}

func (c *countingAnalyzer) DataSet() core.DataSet {
	out := make(map[core.Phase]int, len(c.episodes))
	for k, v := range c.episodes {
		out[k] = v
	}
	return out
}

func (c *countingAnalyzer) Reset() {
	c.episodes = make(map[core.Phase]int)
}

type countingAnalyzerConstructor struct{}

func (countingAnalyzerConstructor) NewAnalyzer(_ string, _ int) core.Analyzer {
	return &countingAnalyzer{episodes: make(map[core.Phase]int)}
}

type recordingComparator struct {
	mtx   sync.Mutex
	runs  []int
	names [][]string
	data  [][]core.DataSet
}

type runComparator struct {
	run int
	rec *recordingComparator
}

func (r *runComparator) Compare(names []string, datasets []core.DataSet) {
	r.rec.mtx.Lock()
	defer r.rec.mtx.Unlock()
	r.rec.runs = append(r.rec.runs, r.run)
	r.rec.names = append(r.rec.names, names)
	r.rec.data = append(r.rec.data, datasets)
}

func (r *recordingComparator) NewComparator(run int) core.Comparator {
	return &runComparator{run: run, rec: r}
}

func TestComparisonRun(t *testing.T) {
	env := worldConstructor{config: emptyConfig()}
	walker := repeatConstructor{gridworld.Up, gridworld.Up, gridworld.Left}
	wall := repeatConstructor{gridworld.Left}

	cmp := core.NewComparison()
	cmp.AddExperiment(&core.Experiment{Name: "walker", Environment: env, Policies: [gridworld.NumAgents]core.PolicyConstructor{walker, wall}})
	cmp.AddExperiment(&core.Experiment{Name: "stuck", Environment: env, Policies: [gridworld.NumAgents]core.PolicyConstructor{wall, wall}})
	rec := &recordingComparator{}
	cmp.AddAnalysis("count", countingAnalyzerConstructor{}, rec)

	err := cmp.Run(context.Background(), 2, &core.RunConfig{
		TrainEpisodes: 3,
		TestEpisodes:  2,
		Horizon:       4,
		SwapStart:     true,
		Logger:        quiet,
	}, 2)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, rec.runs)
	for i, names := range rec.names {
		assert.Equal(t, []string{"walker", "stuck"}, names)
		for _, ds := range rec.data[i] {
			counts := ds.(map[core.Phase]int)
			assert.Equal(t, 3, counts[core.PhaseTrain])
			assert.Equal(t, 4, counts[core.PhaseTest])
		}
	}
}

func TestComparisonRunReportsErrors(t *testing.T) {
	cmp := core.NewComparison()
	assert.ErrorIs(t, cmp.Run(context.Background(), 1, &core.RunConfig{}, 1), core.ErrNoExperiments)

	rec := &recordingComparator{}
	cmp.AddAnalysis("count", countingAnalyzerConstructor{}, rec)
	cmp.AddExperiment(&core.Experiment{
		Name:        "missing",
		Environment: worldConstructor{config: emptyConfig()},
		Policies:    [gridworld.NumAgents]core.PolicyConstructor{repeatConstructor{gridworld.Up}},
	})
	err := cmp.Run(context.Background(), 1, &core.RunConfig{TrainEpisodes: 1, Logger: quiet}, 1)
	assert.ErrorIs(t, err, core.ErrNoPolicy)
	require.Len(t, rec.data, 1)
	assert.Nil(t, rec.data[0][0])
}
