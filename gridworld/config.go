package gridworld

import "fmt"

// Config describes one grid duel. Starts may be left nil to use the opposite
// bottom corners (agent 0 bottom-right, agent 1 bottom-left).
type Config struct {
	Size                      int        `json:"size" yaml:"size"`
	Goal                      int        `json:"goal" yaml:"goal"`
	Starts                    []int      `json:"starts,omitempty" yaml:"starts,omitempty"`
	TreasureProbabilities     []float64  `json:"treasure_probabilities" yaml:"treasure_probabilities"`
	CollisionWinProbabilities [2]float64 `json:"collision_win_probabilities" yaml:"collision_win_probabilities"`
	TreasureReward            float64    `json:"treasure_reward" yaml:"treasure_reward"`
	CollisionReward           float64    `json:"collision_reward" yaml:"collision_reward"`
	GoalReward                float64    `json:"goal_reward" yaml:"goal_reward"`
}

// DefaultConfig is the reference 3x3 duel.
func DefaultConfig() Config {
	return Config{
		Size:                      3,
		Goal:                      1,
		TreasureProbabilities:     []float64{0.1, 0.1, 0.1, 0.2, 0.3, 0.2, 0, 0.5, 0},
		CollisionWinProbabilities: [2]float64{0.5, 0.5},
		TreasureReward:            1,
		CollisionReward:           0.1,
		GoalReward:                10,
	}
}

// DefaultStarts returns the opposite bottom corners of a size x size grid.
func DefaultStarts(size int) [NumAgents]int {
	return [NumAgents]int{size*size - 1, size * (size - 1)}
}

func (c Config) starts() [NumAgents]int {
	if len(c.Starts) == 0 {
		return DefaultStarts(c.Size)
	}
	var out [NumAgents]int
	copy(out[:], c.Starts)
	return out
}

// Validate checks the configuration against its geometry.
func (c Config) Validate() error {
	g, err := NewGeometry(c.Size)
	if err != nil {
		return err
	}
	if len(c.TreasureProbabilities) != g.Cells() {
		return fmt.Errorf("%w: got %d values for %d cells", ErrProbabilityVector, len(c.TreasureProbabilities), g.Cells())
	}
	for i, p := range c.TreasureProbabilities {
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: cell %d has %v", ErrProbabilityRange, i, p)
		}
	}
	for agent, p := range c.CollisionWinProbabilities {
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: agent %d collision win probability %v", ErrProbabilityRange, agent, p)
		}
	}
	if !g.Contains(c.Goal) {
		return fmt.Errorf("%w: goal %d", ErrInvalidCell, c.Goal)
	}
	if len(c.Starts) != 0 && len(c.Starts) != NumAgents {
		return fmt.Errorf("%w: need %d start cells, got %d", ErrInvalidCell, NumAgents, len(c.Starts))
	}
	starts := c.starts()
	for agent, s := range starts {
		if !g.Contains(s) {
			return fmt.Errorf("%w: start %d of agent %d", ErrInvalidCell, s, agent)
		}
	}
	if starts[0] == starts[1] {
		return fmt.Errorf("%w: agents share start cell %d", ErrInvalidCell, starts[0])
	}
	return nil
}
