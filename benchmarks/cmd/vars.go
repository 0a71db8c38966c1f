package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/zeu5/gridduel/benchmarks/common"
)

var (
	flags      *common.Flags = common.DefaultFlags()
	configFile string
	savePath   string

	gridSize                  int
	goal                      int
	starts                    []int
	treasureProbabilities     []float64
	collisionWinProbabilities []float64
	treasureReward            float64
	collisionReward           float64
	goalReward                float64

	learningRate float64
	discount     float64
	epsilon      float64
	epsilonDecay float64
	epsilonMin   float64

	numRuns       int
	trainEpisodes int
	testEpisodes  int
	horizon       int
	seed          int64
	swapStart     bool

	parallelism  int
	debug        bool
	logLevelFlag string
	progress     bool
	plot         bool
	script       []string
)

func AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML file with flag values, explicit flags take precedence")
	cmd.PersistentFlags().StringVar(&savePath, "save-path", flags.SavePath, "Path to save results")

	cmd.PersistentFlags().IntVar(&gridSize, "grid-size", flags.GridSize, "Side length of the grid")
	cmd.PersistentFlags().IntVar(&goal, "goal", flags.Goal, "Goal cell")
	cmd.PersistentFlags().IntSliceVar(&starts, "starts", flags.Starts, "Start cells of agent 0 and agent 1 (default opposite bottom corners)")
	cmd.PersistentFlags().Float64SliceVar(&treasureProbabilities, "treasure-probs", flags.TreasureProbabilities, "Treasure probability of every cell")
	cmd.PersistentFlags().Float64SliceVar(&collisionWinProbabilities, "collision-win-probs", flags.CollisionWinProbabilities, "Probability of each agent winning a collision it causes")
	cmd.PersistentFlags().Float64Var(&treasureReward, "treasure-reward", flags.TreasureReward, "Reward for collecting a treasure")
	cmd.PersistentFlags().Float64Var(&collisionReward, "collision-reward", flags.CollisionReward, "Reward transferred by a collision")
	cmd.PersistentFlags().Float64Var(&goalReward, "goal-reward", flags.GoalReward, "Reward for reaching the goal")

	cmd.PersistentFlags().Float64Var(&learningRate, "learning-rate", flags.LearningRate, "Q-learning rate")
	cmd.PersistentFlags().Float64Var(&discount, "discount", flags.Discount, "Q-learning discount factor")
	cmd.PersistentFlags().Float64Var(&epsilon, "epsilon", flags.Epsilon, "Initial exploration rate")
	cmd.PersistentFlags().Float64Var(&epsilonDecay, "epsilon-decay", flags.EpsilonDecay, "Exploration decay per training step")
	cmd.PersistentFlags().Float64Var(&epsilonMin, "epsilon-min", flags.EpsilonMin, "Lower bound of the exploration rate")

	cmd.PersistentFlags().IntVar(&numRuns, "num-runs", flags.NumRuns, "Number of runs")
	cmd.PersistentFlags().IntVar(&trainEpisodes, "train-episodes", flags.TrainEpisodes, "Number of training episodes")
	cmd.PersistentFlags().IntVar(&testEpisodes, "test-episodes", flags.TestEpisodes, "Number of test episodes per starting order")
	cmd.PersistentFlags().IntVar(&horizon, "horizon", flags.Horizon, "Maximum rounds per episode, 0 for no limit")
	cmd.PersistentFlags().Int64Var(&seed, "seed", flags.Seed, "Base random seed, 0 picks one from the clock")
	cmd.PersistentFlags().BoolVar(&swapStart, "swap-start", flags.SwapStart, "Repeat the test phase with agent 1 moving first")

	cmd.PersistentFlags().IntVar(&parallelism, "parallelism", flags.Parallelism, "Number of experiments run in parallel")
	cmd.PersistentFlags().BoolVar(&debug, "debug", flags.Debug, "Save every episode trace")
	cmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", flags.LogLevel, "Log level: debug, info, warn or error")
	cmd.PersistentFlags().BoolVar(&progress, "progress", flags.Progress, "Show live progress")
	cmd.PersistentFlags().BoolVar(&plot, "plot", flags.Plot, "Save an HTML chart of the training rewards")
	cmd.PersistentFlags().StringSliceVar(&script, "script", flags.Script, "Actions of the scripted opponent in compare, e.g. up,up,left (default shortest walk to the goal)")
}

var setters = map[string]func(){
	"save-path":           func() { flags.SavePath = savePath },
	"grid-size":           func() { flags.GridSize = gridSize },
	"goal":                func() { flags.Goal = goal },
	"starts":              func() { flags.Starts = starts },
	"treasure-probs":      func() { flags.TreasureProbabilities = treasureProbabilities },
	"collision-win-probs": func() { flags.CollisionWinProbabilities = collisionWinProbabilities },
	"treasure-reward":     func() { flags.TreasureReward = treasureReward },
	"collision-reward":    func() { flags.CollisionReward = collisionReward },
	"goal-reward":         func() { flags.GoalReward = goalReward },
	"learning-rate":       func() { flags.LearningRate = learningRate },
	"discount":            func() { flags.Discount = discount },
	"epsilon":             func() { flags.Epsilon = epsilon },
	"epsilon-decay":       func() { flags.EpsilonDecay = epsilonDecay },
	"epsilon-min":         func() { flags.EpsilonMin = epsilonMin },
	"num-runs":            func() { flags.NumRuns = numRuns },
	"train-episodes":      func() { flags.TrainEpisodes = trainEpisodes },
	"test-episodes":       func() { flags.TestEpisodes = testEpisodes },
	"horizon":             func() { flags.Horizon = horizon },
	"seed":                func() { flags.Seed = seed },
	"swap-start":          func() { flags.SwapStart = swapStart },
	"parallelism":         func() { flags.Parallelism = parallelism },
	"debug":               func() { flags.Debug = debug },
	"log-level":           func() { flags.LogLevel = logLevelFlag },
	"progress":            func() { flags.Progress = progress },
	"plot":                func() { flags.Plot = plot },
	"script":              func() { flags.Script = script },
}

// UpdateFlags copies the flags set on the command line into flags. Values
// not given on the command line keep what the defaults or the config file
// said.
func UpdateFlags(fs *pflag.FlagSet) {
	fs.Visit(func(f *pflag.Flag) {
		if set, ok := setters[f.Name]; ok {
			set()
		}
	})
}
