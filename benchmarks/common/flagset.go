package common

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/zeu5/gridduel/gridworld"
	"github.com/zeu5/gridduel/policies"
	"github.com/zeu5/gridduel/util"
	"gopkg.in/yaml.v3"
)

var (
	ErrCollisionProbabilities = errors.New("collision win probabilities need one value per agent")
	ErrNumRuns                = errors.New("number of runs must be positive")
	ErrEpisodes               = errors.New("episode counts must not be negative")
)

type Flags struct {
	GridFlags     `yaml:",inline"`
	LearningFlags `yaml:",inline"`
	RunFlags      `yaml:",inline"`

	SavePath    string `json:"save-path" yaml:"save-path"`
	Parallelism int    `json:"parallelism" yaml:"parallelism"`
	Debug       bool   `json:"debug" yaml:"debug"`
	LogLevel    string `json:"log-level" yaml:"log-level"`
	Progress    bool   `json:"progress" yaml:"progress"`
	Plot        bool   `json:"plot" yaml:"plot"`
	// Script is the action list of the scripted baseline opponent, empty walks
	// straight to the goal
	Script []string `json:"script" yaml:"script"`
}

type GridFlags struct {
	GridSize int `json:"grid-size" yaml:"grid-size"`
	Goal     int `json:"goal" yaml:"goal"`
	// Starts left empty places the agents in the opposite bottom corners
	Starts                    []int     `json:"starts" yaml:"starts"`
	TreasureProbabilities     []float64 `json:"treasure-probs" yaml:"treasure-probs"`
	CollisionWinProbabilities []float64 `json:"collision-win-probs" yaml:"collision-win-probs"`
	TreasureReward            float64   `json:"treasure-reward" yaml:"treasure-reward"`
	CollisionReward           float64   `json:"collision-reward" yaml:"collision-reward"`
	GoalReward                float64   `json:"goal-reward" yaml:"goal-reward"`
}

type LearningFlags struct {
	LearningRate float64 `json:"learning-rate" yaml:"learning-rate"`
	Discount     float64 `json:"discount" yaml:"discount"`
	Epsilon      float64 `json:"epsilon" yaml:"epsilon"`
	EpsilonDecay float64 `json:"epsilon-decay" yaml:"epsilon-decay"`
	EpsilonMin   float64 `json:"epsilon-min" yaml:"epsilon-min"`
}

type RunFlags struct {
	NumRuns       int `json:"num-runs" yaml:"num-runs"`
	TrainEpisodes int `json:"train-episodes" yaml:"train-episodes"`
	TestEpisodes  int `json:"test-episodes" yaml:"test-episodes"`
	// Horizon caps the rounds of an episode, 0 disables the cap
	Horizon int   `json:"horizon" yaml:"horizon"`
	Seed    int64 `json:"seed" yaml:"seed"`
	// SwapStart adds a second test phase with agent 1 moving first
	SwapStart bool `json:"swap-start" yaml:"swap-start"`
}

func DefaultFlags() *Flags {
	grid := gridworld.DefaultConfig()
	learning := policies.DefaultQLearningParams()
	return &Flags{
		GridFlags: GridFlags{
			GridSize:                  grid.Size,
			Goal:                      grid.Goal,
			TreasureProbabilities:     grid.TreasureProbabilities,
			CollisionWinProbabilities: grid.CollisionWinProbabilities[:],
			TreasureReward:            grid.TreasureReward,
			CollisionReward:           grid.CollisionReward,
			GoalReward:                grid.GoalReward,
		},
		LearningFlags: LearningFlags{
			LearningRate: learning.LearningRate,
			Discount:     learning.Discount,
			Epsilon:      learning.Epsilon,
			EpsilonDecay: learning.EpsilonDecay,
			EpsilonMin:   learning.EpsilonMin,
		},
		RunFlags: RunFlags{
			NumRuns:       1,
			TrainEpisodes: 100,
			TestEpisodes:  100,
			Horizon:       1000,
			SwapStart:     true,
		},
		SavePath:    "results",
		Parallelism: 4,
		Debug:       false,
		LogLevel:    "info",
		Progress:    false,
		Plot:        true,
	}
}

// LoadFlags overlays the values of a YAML file on f. Keys missing from the
// file keep their current value.
func LoadFlags(file string, f *Flags) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, f); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	return nil
}

func (f *Flags) GridConfig() gridworld.Config {
	c := gridworld.Config{
		Size:                  f.GridSize,
		Goal:                  f.Goal,
		Starts:                util.CopyIntSlice(f.Starts),
		TreasureProbabilities: util.CopyFloatSlice(f.TreasureProbabilities),
		TreasureReward:        f.TreasureReward,
		CollisionReward:       f.CollisionReward,
		GoalReward:            f.GoalReward,
	}
	if len(c.Starts) == 0 {
		c.Starts = nil
	}
	copy(c.CollisionWinProbabilities[:], f.CollisionWinProbabilities)
	return c
}

func (f *Flags) QLearningParams() policies.QLearningParams {
	return policies.QLearningParams{
		LearningRate: f.LearningRate,
		Discount:     f.Discount,
		Epsilon:      f.Epsilon,
		EpsilonDecay: f.EpsilonDecay,
		EpsilonMin:   f.EpsilonMin,
	}
}

// ScriptActions parses Script.
func (f *Flags) ScriptActions() ([]gridworld.Action, error) {
	out := make([]gridworld.Action, 0, len(f.Script))
	for _, s := range f.Script {
		a, err := gridworld.ParseAction(s)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Validate reports the first inconsistency in the flags.
func (f *Flags) Validate() error {
	if len(f.CollisionWinProbabilities) != gridworld.NumAgents {
		return fmt.Errorf("%w: got %d", ErrCollisionProbabilities, len(f.CollisionWinProbabilities))
	}
	if err := f.GridConfig().Validate(); err != nil {
		return err
	}
	if f.NumRuns < 1 {
		return ErrNumRuns
	}
	if f.TrainEpisodes < 0 || f.TestEpisodes < 0 {
		return ErrEpisodes
	}
	if _, err := util.ParseLevel(f.LogLevel); err != nil {
		return err
	}
	if _, err := f.ScriptActions(); err != nil {
		return err
	}
	return nil
}

// Record saves the resolved flags next to the results.
func (f *Flags) Record() error {
	return util.SaveJson(path.Join(f.SavePath, "config.json"), f)
}
