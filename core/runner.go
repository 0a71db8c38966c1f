package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zeu5/gridduel/gridworld"
	"github.com/zeu5/gridduel/util"
)

var (
	ErrNoExperiments = errors.New("comparison has no experiments")
	ErrNoPolicy      = errors.New("experiment is missing a policy")
)

// Tie is the winner of an episode in which both agents scored the same.
const Tie = -1

type EpisodeResult struct {
	Rewards    [gridworld.NumAgents]float64
	Done       [gridworld.NumAgents]bool
	Treasures  [gridworld.NumAgents]int
	Collisions int
	Rounds     int
	Steps      int
	// Truncated is set when the horizon was hit before any agent reached the goal
	Truncated bool
	Winner    int
}

type renderer interface {
	Render(bool) string
}

// RunEpisode plays one episode to completion. Agents act one at a time in
// eCtx.Order; the episode ends as soon as one of them reaches the goal.
// When train is set every transition is fed back to the acting policy.
func RunEpisode(eCtx *EpisodeContext, env Environment, agents [gridworld.NumAgents]Policy, train bool) (*EpisodeResult, error) {
	state, err := env.Reset()
	if err != nil {
		return nil, err
	}
	// the environment overwrites its state in place, keep our own copy
	state = state.Copy()
	for _, agent := range agents {
		agent.ResetEpisode(eCtx)
	}
	logger := eCtx.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debug := logger.Enabled(eCtx.Context, slog.LevelDebug)
	r, canRender := env.(renderer)
	if debug && canRender {
		logger.Debug("grid state\n" + r.Render(false))
	}

	result := &EpisodeResult{Winner: Tie}
RoundLoop:
	for round := 0; eCtx.Horizon <= 0 || round < eCtx.Horizon; round++ {
		select {
		case <-eCtx.Context.Done():
			return nil, eCtx.Context.Err()
		default:
		}
		result.Rounds = round + 1

		for _, agentID := range eCtx.Order {
			sCtx := &StepContext{Round: round, Agent: agentID, EpisodeContext: eCtx}
			policy := agents[agentID]

			action := policy.ChooseAction(sCtx, state)
			step, err := env.Step(agentID, action)
			if err != nil {
				return nil, fmt.Errorf("agent %d step: %w", agentID, err)
			}
			nextState := step.State.Copy()
			if train {
				policy.Train(sCtx, state, action, step.Reward, nextState)
			}

			result.Steps++
			result.Rewards[agentID] += step.Reward
			result.Rewards[1-agentID] += step.OpponentReward
			if step.Treasure {
				result.Treasures[agentID]++
			}
			if step.Collision != gridworld.NoCollision {
				result.Collisions++
			}
			eCtx.Trace.AddStep(&Step{
				Round:          round,
				Agent:          agentID,
				State:          state,
				Action:         action,
				NextState:      nextState,
				Reward:         step.Reward,
				OpponentReward: step.OpponentReward,
				Done:           step.Done,
				Collision:      step.Collision,
				Treasure:       step.Treasure,
			})
			if debug {
				logger.Debug("agent moved", "agent", policy.Name(), "action", action, "reward", step.Reward, "state", nextState)
				if canRender {
					logger.Debug("grid state\n" + r.Render(false))
				}
			}

			state = nextState
			if step.Done {
				result.Done[agentID] = true
				break RoundLoop
			}
		}
	}

	result.Truncated = !result.Done[0] && !result.Done[1]
	switch {
	case result.Rewards[0] > result.Rewards[1]:
		result.Winner = 0
	case result.Rewards[1] > result.Rewards[0]:
		result.Winner = 1
	}
	eCtx.Result = result
	return result, nil
}

type experimentRunContext struct {
	run       int
	ctx       context.Context
	analyzers map[string]Analyzer
	output    *util.ParallelOutput

	*RunConfig
}

type ExperimentResult struct {
	TrainEpisodes     int
	TestEpisodes      int
	TruncatedEpisodes int
	TotalSteps        int

	Error    error
	Datasets map[string]DataSet
}

func (r *ExperimentResult) IsError() bool {
	return r.Error != nil
}

type phase struct {
	phase    Phase
	episodes int
	order    [gridworld.NumAgents]int
	train    bool
}

// RunSeed derives the seed of a run so that runs are independent but
// reproducible from the base seed.
func RunSeed(base int64, run int) int64 {
	return base + int64(run)*7919
}

func (e *Experiment) newAgents(seed int64) ([gridworld.NumAgents]Policy, error) {
	var agents [gridworld.NumAgents]Policy
	for i, pc := range e.Policies {
		if pc == nil {
			return agents, fmt.Errorf("%w: %s agent %d", ErrNoPolicy, e.Name, i)
		}
		agents[i] = pc.NewPolicy(i, seed+int64(i)+1)
		agents[i].Reset()
	}
	return agents, nil
}

func (e *Experiment) run(ctx *experimentRunContext) *ExperimentResult {
	result := &ExperimentResult{
		Datasets: make(map[string]DataSet),
	}
	logger := ctx.logger().With("experiment", e.Name, "run", ctx.run)
	seed := RunSeed(ctx.Seed, ctx.run)

	env, err := e.Environment.NewEnvironment(ctx.run, seed)
	if err != nil {
		result.Error = err
		return result
	}
	agents, err := e.newAgents(seed)
	if err != nil {
		result.Error = err
		return result
	}

	var names [gridworld.NumAgents]string
	for i, a := range agents {
		names[i] = a.Name()
	}

	phases := []phase{
		{phase: PhaseTrain, episodes: ctx.TrainEpisodes, order: DefaultOrder, train: true},
		{phase: PhaseTest, episodes: ctx.TestEpisodes, order: DefaultOrder},
	}
	if ctx.SwapStart {
		phases = append(phases, phase{phase: PhaseTest, episodes: ctx.TestEpisodes, order: [gridworld.NumAgents]int{1, 0}})
	}

PhaseLoop:
	for _, p := range phases {
		logger.Info("phase started", "phase", p.phase, "starter", agents[p.order[0]].Name(), "episodes", p.episodes)
		for episode := 0; episode < p.episodes; episode++ {
			select {
			case <-ctx.ctx.Done():
				result.Error = ctx.ctx.Err()
				break PhaseLoop
			default:
			}
			if ctx.output != nil {
				ctx.output.TrySet(fmt.Sprintf(
					"Experiment: %s, Run %d, Phase: %s, Episode %d/%d, Steps: %d, Truncated: %d",
					e.Name, ctx.run, p.phase, episode+1, p.episodes, result.TotalSteps, result.TruncatedEpisodes,
				))
			}

			eCtx := NewEpisodeContext(ctx.ctx)
			eCtx.Experiment = e.Name
			eCtx.Run = ctx.run
			eCtx.Episode = episode
			eCtx.Phase = p.phase
			eCtx.Agents = names
			eCtx.Horizon = ctx.Horizon
			eCtx.Order = p.order
			eCtx.Logger = logger

			er, err := RunEpisode(eCtx, env, agents, p.train)
			if err != nil {
				result.Error = err
				break PhaseLoop
			}

			logger.Info(
				"episode finished",
				"phase", p.phase,
				"episode", episode,
				agents[0].Name(), er.Rewards[0],
				agents[1].Name(), er.Rewards[1],
				"winner", winnerName(agents, er.Winner),
				"rounds", er.Rounds,
			)

			result.TotalSteps += er.Steps
			if er.Truncated {
				result.TruncatedEpisodes++
			}
			if p.train {
				result.TrainEpisodes++
			} else {
				result.TestEpisodes++
			}
			for _, a := range ctx.analyzers {
				a.Analyze(eCtx, eCtx.Trace)
			}
		}
	}
	if result.Error != nil {
		logger.Error("experiment failed", "error", result.Error)
	}

	for name, a := range ctx.analyzers {
		result.Datasets[name] = a.DataSet()
	}
	return result
}

func winnerName(agents [gridworld.NumAgents]Policy, winner int) string {
	if winner == Tie {
		return "tie"
	}
	return agents[winner].Name()
}

// parallelWorker is a worker that runs experiments
type parallelWorker struct {
	id int
}

// parallelWork is a struct that contains all the information needed to run an experiment
type parallelWork struct {
	index      int
	experiment *Experiment
	comp       *Comparison
	runNumber  int
	output     *util.ParallelOutput
	rConfig    *RunConfig
	wg         *sync.WaitGroup
}

// parallelResult is a struct that contains the result of running an experiment
type parallelResult struct {
	index  int
	result *ExperimentResult
}

// Worker main loop that consumes work from a channel. Cancellation is
// observed inside the experiment so that every work item reports back.
func (w *parallelWorker) run(ctx context.Context, workCh <-chan *parallelWork, resultsCh chan<- *parallelResult) {
	for work := range workCh {
		resultsCh <- w.runWork(ctx, work)
		work.wg.Done()
	}
}

// Run an experiment by constructing the analyzers for it
func (w *parallelWorker) runWork(ctx context.Context, work *parallelWork) *parallelResult {
	eCtx := &experimentRunContext{
		run:       work.runNumber,
		ctx:       ctx,
		analyzers: make(map[string]Analyzer),
		output:    work.output,
		RunConfig: work.rConfig,
	}
	for name, aC := range work.comp.Analyzers {
		eCtx.analyzers[name] = aC.NewAnalyzer(work.experiment.Name, work.runNumber)
	}

	return &parallelResult{
		index:  work.index,
		result: work.experiment.run(eCtx),
	}
}

// Run executes every experiment for the given number of runs, at most
// parallelism experiments at a time. After each run the comparators receive
// the datasets of all experiments in the order they were added.
func (c *Comparison) Run(ctx context.Context, runs int, rConfig *RunConfig, parallelism int) error {
	if len(c.Experiments) == 0 {
		return ErrNoExperiments
	}
	if parallelism < 1 {
		parallelism = 1
	}

	outputs := make([]*util.ParallelOutput, len(c.Experiments))
	if rConfig.Printer != nil {
		for i := range c.Experiments {
			outputs[i] = rConfig.Printer.NewOutput()
		}
		rConfig.Printer.Start(ctx)
		defer rConfig.Printer.Stop()
	}

	var errs []error
	for run := 0; run < runs; run++ {
		select {
		case <-ctx.Done():
			return errors.Join(append(errs, ctx.Err())...)
		default:
		}

		wg := new(sync.WaitGroup)
		workCh := make(chan *parallelWork, len(c.Experiments))
		resultsCh := make(chan *parallelResult, len(c.Experiments))

		for i := 0; i < parallelism; i++ {
			w := &parallelWorker{id: i}
			go w.run(ctx, workCh, resultsCh)
		}

		for i, e := range c.Experiments {
			wg.Add(1)
			workCh <- &parallelWork{
				index:      i,
				experiment: e,
				comp:       c,
				runNumber:  run,
				output:     outputs[i],
				rConfig:    rConfig,
				wg:         wg,
			}
		}
		close(workCh)
		wg.Wait()
		close(resultsCh)

		results := make([]*ExperimentResult, len(c.Experiments))
		for r := range resultsCh {
			results[r.index] = r.result
		}

		experimentNames := make([]string, len(c.Experiments))
		for i, e := range c.Experiments {
			experimentNames[i] = e.Name
			if results[i].IsError() {
				errs = append(errs, fmt.Errorf("%s run %d: %w", e.Name, run, results[i].Error))
			}
		}

		// Gather datasets to run comparisons, errored experiments contribute nil
		for _, name := range c.analyses {
			datasets := make([]DataSet, len(results))
			for i, result := range results {
				if !result.IsError() {
					datasets[i] = result.Datasets[name]
				}
			}
			c.Comparators[name].NewComparator(run).Compare(experimentNames, datasets)
		}
	}
	return errors.Join(errs...)
}
