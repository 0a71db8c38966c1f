package gridworld

import (
	"bytes"
	"log/slog"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constantRand float64

func (c constantRand) Float64() float64 { return float64(c) }

func noTreasureConfig() Config {
	c := DefaultConfig()
	c.TreasureProbabilities = make([]float64, c.Size*c.Size)
	return c
}

func TestAvailableMovesMatchBoundaries(t *testing.T) {
	for _, size := range []int{2, 3, 4, 5} {
		g, err := NewGeometry(size)
		require.NoError(t, err)
		for cell := 0; cell < g.Cells(); cell++ {
			row, col := g.RowCol(cell)
			expected := make([]Action, 0)
			if row > 0 {
				expected = append(expected, Up)
			}
			if col < size-1 {
				expected = append(expected, Right)
			}
			if row < size-1 {
				expected = append(expected, Down)
			}
			if col > 0 {
				expected = append(expected, Left)
			}
			moves := g.Moves(cell)
			assert.Equal(t, expected, moves, "size %d cell %d", size, cell)
			assert.GreaterOrEqual(t, len(moves), 2)
			assert.LessOrEqual(t, len(moves), 4)
		}
	}
}

func TestWorldAvailableMovesFromStart(t *testing.T) {
	w, err := NewWorld(DefaultConfig(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	moves, err := w.AvailableMoves(0)
	require.NoError(t, err)
	assert.Equal(t, []Action{Up, Left}, moves)

	moves, err = w.AvailableMoves(1)
	require.NoError(t, err)
	assert.Equal(t, []Action{Up, Right}, moves)

	_, err = w.AvailableMoves(2)
	assert.ErrorIs(t, err, ErrInvalidAgent)
}

func TestResetIsDeterministicForSeed(t *testing.T) {
	a, err := NewWorld(DefaultConfig(), rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	b, err := NewWorld(DefaultConfig(), rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	assert.Equal(t, a.Treasures(), b.Treasures())

	for i := 0; i < 10; i++ {
		_, err = a.Reset()
		require.NoError(t, err)
		_, err = b.Reset()
		require.NoError(t, err)
		assert.Equal(t, a.Treasures(), b.Treasures())
	}
}

func TestResetRestoresStartLayout(t *testing.T) {
	w, err := NewWorld(noTreasureConfig(), constantRand(0.9))
	require.NoError(t, err)
	_, err = w.Step(0, Up)
	require.NoError(t, err)

	state, err := w.Reset()
	require.NoError(t, err)
	assert.Equal(t, []int{8, 6}, state.Positions)
	for cell, status := range state.Status {
		switch cell {
		case 8:
			assert.Equal(t, OccupiedBy(0), status)
		case 6:
			assert.Equal(t, OccupiedBy(1), status)
		default:
			assert.Equal(t, Unvisited, status)
		}
	}
	collected, err := w.CollectedTreasures(0)
	require.NoError(t, err)
	assert.Zero(t, collected)
}

func TestStepMovesAgent(t *testing.T) {
	w, err := NewWorld(noTreasureConfig(), constantRand(0.9))
	require.NoError(t, err)

	result, err := w.Step(0, Up)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6}, result.State.Positions)
	assert.Equal(t, VisitedEmpty, result.State.Status[8])
	assert.Equal(t, OccupiedBy(0), result.State.Status[5])
	assert.Equal(t, OccupiedBy(1), result.State.Status[6])
	assert.Zero(t, result.Reward)
	assert.Zero(t, result.OpponentReward)
	assert.False(t, result.Done)
	assert.Equal(t, NoCollision, result.Collision)
}

func TestIllegalActionIsNoop(t *testing.T) {
	w, err := NewWorld(noTreasureConfig(), constantRand(0.9))
	require.NoError(t, err)

	result, err := w.Step(0, Right)
	require.NoError(t, err)
	assert.Equal(t, []int{8, 6}, result.State.Positions)
	assert.Equal(t, OccupiedBy(0), result.State.Status[8])
	assert.Zero(t, result.Reward)
}

func TestCollisionLose(t *testing.T) {
	c := noTreasureConfig()
	c.Starts = []int{8, 7}
	w, err := NewWorld(c, constantRand(0.9))
	require.NoError(t, err)

	result, err := w.Step(0, Left)
	require.NoError(t, err)
	assert.Equal(t, CollisionLost, result.Collision)
	assert.Equal(t, []int{8, 7}, result.State.Positions)
	assert.Equal(t, OccupiedBy(0), result.State.Status[8])
	assert.Equal(t, OccupiedBy(1), result.State.Status[7])
	assert.Equal(t, -c.CollisionReward, result.Reward)
	assert.Equal(t, c.CollisionReward, result.OpponentReward)
	assert.Zero(t, result.Reward+result.OpponentReward)
}

func TestCollisionWin(t *testing.T) {
	c := noTreasureConfig()
	c.Starts = []int{8, 7}
	w, err := NewWorld(c, constantRand(0.1))
	require.NoError(t, err)

	result, err := w.Step(0, Left)
	require.NoError(t, err)
	assert.Equal(t, CollisionWon, result.Collision)
	assert.Equal(t, []int{7, 8}, result.State.Positions)
	assert.Equal(t, OccupiedBy(0), result.State.Status[7])
	assert.Equal(t, OccupiedBy(1), result.State.Status[8])
	assert.Equal(t, c.CollisionReward, result.Reward)
	assert.Equal(t, -c.CollisionReward, result.OpponentReward)
}

func TestGoalAndTreasure(t *testing.T) {
	c := noTreasureConfig()
	c.Goal = 5
	c.TreasureProbabilities[5] = 1
	w, err := NewWorld(c, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	require.True(t, w.Treasures()[5])

	result, err := w.Step(0, Up)
	require.NoError(t, err)
	assert.True(t, result.Done)
	assert.True(t, result.Treasure)
	assert.Equal(t, c.GoalReward+c.TreasureReward, result.Reward)
	assert.False(t, w.Treasures()[5])
	collected, err := w.CollectedTreasures(0)
	require.NoError(t, err)
	assert.Equal(t, 1, collected)
}

func TestRandomPlayInvariants(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	w, err := NewWorld(DefaultConfig(), r)
	require.NoError(t, err)

	collisions := 0
	for i := 0; i < 5000; i++ {
		agent := i % NumAgents
		result, err := w.Step(agent, Actions[r.Intn(len(Actions))])
		require.NoError(t, err)

		positions := result.State.Positions
		require.NotEqual(t, positions[0], positions[1], "step %d", i)
		for a, cell := range positions {
			require.Equal(t, OccupiedBy(a), result.State.Status[cell])
		}
		if result.Collision != NoCollision {
			collisions++
			require.Zero(t, result.Reward+result.OpponentReward)
		}
		if result.Done {
			_, err = w.Reset()
			require.NoError(t, err)
		}
	}
	assert.Positive(t, collisions)
}

func TestStepInvalidAgent(t *testing.T) {
	w, err := NewWorld(DefaultConfig(), constantRand(0.5))
	require.NoError(t, err)
	_, err = w.Step(-1, Up)
	assert.ErrorIs(t, err, ErrInvalidAgent)
	_, err = w.Step(2, Up)
	assert.ErrorIs(t, err, ErrInvalidAgent)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		err    error
	}{
		{"degenerate", func(c *Config) { c.Size = 1; c.TreasureProbabilities = []float64{0} }, ErrDegenerateGrid},
		{"too large", func(c *Config) { c.Size = MaxSize + 1 }, ErrGridTooLarge},
		{"short vector", func(c *Config) { c.TreasureProbabilities = c.TreasureProbabilities[:4] }, ErrProbabilityVector},
		{"probability range", func(c *Config) { c.TreasureProbabilities[0] = 1.5 }, ErrProbabilityRange},
		{"win probability range", func(c *Config) { c.CollisionWinProbabilities[1] = -0.1 }, ErrProbabilityRange},
		{"goal outside", func(c *Config) { c.Goal = 9 }, ErrInvalidCell},
		{"shared start", func(c *Config) { c.Starts = []int{4, 4} }, ErrInvalidCell},
		{"start count", func(c *Config) { c.Starts = []int{4} }, ErrInvalidCell},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			_, err := NewWorld(c, constantRand(0.5))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestStateCopyAndKey(t *testing.T) {
	w, err := NewWorld(noTreasureConfig(), constantRand(0.9))
	require.NoError(t, err)

	before := w.State().Copy()
	key := before.Key()
	_, err = w.Step(0, Up)
	require.NoError(t, err)

	assert.Equal(t, []int{8, 6}, before.Positions)
	assert.Equal(t, key, before.Key())
	assert.NotEqual(t, key, w.State().Key())

	cell, ok := w.State().Locate(0)
	assert.True(t, ok)
	assert.Equal(t, 5, cell)
}

func TestRender(t *testing.T) {
	w, err := NewWorld(noTreasureConfig(), constantRand(0.9))
	require.NoError(t, err)
	out := w.Render(false)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "-  -* - ", lines[0])
	assert.Equal(t, "1  -  0 ", lines[2])
}

func TestParseAction(t *testing.T) {
	for _, a := range Actions {
		parsed, err := ParseAction(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, parsed)
	}
	parsed, err := ParseAction(" L ")
	require.NoError(t, err)
	assert.Equal(t, Left, parsed)

	_, err = ParseAction("jump")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestSetLoggerReportsCollisions(t *testing.T) {
	c := noTreasureConfig()
	c.Starts = []int{8, 7}
	w, err := NewWorld(c, constantRand(0.1))
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	w.SetLogger(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	_, err = w.Step(0, Left)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "collision")

	buf.Reset()
	w.SetLogger(nil)
	result, err := w.Step(1, Left)
	require.NoError(t, err)
	assert.Equal(t, CollisionWon, result.Collision)
	assert.Empty(t, buf.String())
}
