package analysis

import (
	"fmt"
	"log/slog"
	"math"
	"path"
	"strconv"

	"github.com/zeu5/gridduel/core"
	"github.com/zeu5/gridduel/gridworld"
	"github.com/zeu5/gridduel/util"
)

// Invariant is a property every trace must satisfy. Check returns false on
// a violation.
type Invariant struct {
	Name  string
	Check func(*core.Trace) bool
}

// DefaultInvariants are the properties a grid duel guarantees after every step.
func DefaultInvariants(config gridworld.Config) []Invariant {
	return []Invariant{
		{Name: "distinct_positions", Check: DistinctPositions},
		{Name: "zero_sum_collisions", Check: ZeroSumCollisions(config.TreasureReward, config.GoalReward)},
		{Name: "consistent_occupancy", Check: ConsistentOccupancy},
		{Name: "single_mover", Check: SingleMover},
	}
}

func eachStep(trace *core.Trace, f func(*core.Step) bool) bool {
	for i := 0; i < trace.Len(); i++ {
		if !f(trace.Step(i)) {
			return false
		}
	}
	return true
}

// DistinctPositions holds when the agents never share a cell.
func DistinctPositions(trace *core.Trace) bool {
	return eachStep(trace, func(s *core.Step) bool {
		return s.NextState.Positions[0] != s.NextState.Positions[1]
	})
}

// ZeroSumCollisions holds when what one agent gains in a collision the other
// loses. Treasure and goal rewards earned in the same step are taken out first.
func ZeroSumCollisions(treasureReward, goalReward float64) func(*core.Trace) bool {
	return func(trace *core.Trace) bool {
		return eachStep(trace, func(s *core.Step) bool {
			if s.Collision == gridworld.NoCollision {
				return true
			}
			payoff := s.Reward
			if s.Treasure {
				payoff -= treasureReward
			}
			if s.Done {
				payoff -= goalReward
			}
			return math.Abs(payoff+s.OpponentReward) < 1e-9
		})
	}
}

// ConsistentOccupancy holds when the status vector marks exactly the cells
// the agents stand on.
func ConsistentOccupancy(trace *core.Trace) bool {
	return eachStep(trace, func(s *core.Step) bool {
		occupied := 0
		for _, status := range s.NextState.Status {
			if _, ok := status.Occupant(); ok {
				occupied++
			}
		}
		if occupied != gridworld.NumAgents {
			return false
		}
		for agent, cell := range s.NextState.Positions {
			if s.NextState.Status[cell] != gridworld.OccupiedBy(agent) {
				return false
			}
		}
		return true
	})
}

// SingleMover holds when a step only moves the opponent as the result of a
// won collision.
func SingleMover(trace *core.Trace) bool {
	return eachStep(trace, func(s *core.Step) bool {
		opponent := 1 - s.Agent
		moved := s.State.Positions[opponent] != s.NextState.Positions[opponent]
		return !moved || s.Collision == gridworld.CollisionWon
	})
}

type InvariantDataset struct {
	Episodes   int            `json:"episodes"`
	Violations map[string]int `json:"violations"`
}

func (d *InvariantDataset) Copy() *InvariantDataset {
	out := &InvariantDataset{
		Episodes:   d.Episodes,
		Violations: make(map[string]int, len(d.Violations)),
	}
	for k, v := range d.Violations {
		out.Violations[k] = v
	}
	return out
}

// InvariantAnalyzer checks every episode against a set of invariants and
// dumps the offending traces under invariants/.
type InvariantAnalyzer struct {
	invariants []Invariant
	savePath   string
	exp        string
	geometry   gridworld.Geometry
	goal       int

	dataset *InvariantDataset
}

var _ core.Analyzer = &InvariantAnalyzer{}

func NewInvariantAnalyzer(savePath string, geometry gridworld.Geometry, goal int, invariants ...Invariant) *InvariantAnalyzer {
	a := &InvariantAnalyzer{
		invariants: invariants,
		savePath:   path.Join(savePath, "invariants"),
		geometry:   geometry,
		goal:       goal,
		dataset:    &InvariantDataset{},
	}
	a.Reset()
	return a
}

func (a *InvariantAnalyzer) Analyze(eCtx *core.EpisodeContext, trace *core.Trace) {
	a.dataset.Episodes++
	for _, inv := range a.invariants {
		if inv.Check(trace) {
			continue
		}
		a.dataset.Violations[inv.Name]++
		slog.Warn("invariant violated", "invariant", inv.Name, "experiment", eCtx.Experiment, "run", eCtx.Run, "episode", eCtx.Episode)

		fileName := fmt.Sprintf("%d_%s_%s_s%d_%d.txt", eCtx.Run, inv.Name, eCtx.Phase, eCtx.Starter(), eCtx.Episode)
		if a.exp != "" {
			fileName = fmt.Sprintf("%d_%s_%s_%s_s%d_%d.txt", eCtx.Run, a.exp, inv.Name, eCtx.Phase, eCtx.Starter(), eCtx.Episode)
		}
		if err := writeTrace(path.Join(a.savePath, fileName), trace, a.geometry, a.goal); err != nil {
			slog.Error("saving trace", "error", err)
		}
	}
}

func (a *InvariantAnalyzer) DataSet() core.DataSet {
	return a.dataset.Copy()
}

func (a *InvariantAnalyzer) Reset() {
	a.dataset.Episodes = 0
	a.dataset.Violations = make(map[string]int)
	for _, inv := range a.invariants {
		a.dataset.Violations[inv.Name] = 0
	}
}

type InvariantAnalyzerConstructor struct {
	SavePath   string
	Geometry   gridworld.Geometry
	Goal       int
	Invariants []Invariant
}

var _ core.AnalyzerConstructor = &InvariantAnalyzerConstructor{}

func NewInvariantAnalyzerConstructor(savePath string, geometry gridworld.Geometry, goal int, invariants ...Invariant) *InvariantAnalyzerConstructor {
	return &InvariantAnalyzerConstructor{
		SavePath:   savePath,
		Geometry:   geometry,
		Goal:       goal,
		Invariants: invariants,
	}
}

func (c *InvariantAnalyzerConstructor) NewAnalyzer(exp string, _ int) core.Analyzer {
	a := NewInvariantAnalyzer(c.SavePath, c.Geometry, c.Goal, c.Invariants...)
	a.exp = exp
	return a
}

// InvariantComparator saves the violation counts of a run and warns about
// experiments that broke an invariant.
type InvariantComparator struct {
	savePath string
}

var _ core.Comparator = &InvariantComparator{}

func NewInvariantComparator(savePath string) *InvariantComparator {
	return &InvariantComparator{
		savePath: path.Join(savePath, "invariants.json"),
	}
}

func (c *InvariantComparator) Compare(experimentNames []string, datasets []core.DataSet) {
	out := make(map[string]*InvariantDataset)
	for i, name := range experimentNames {
		ds, ok := datasets[i].(*InvariantDataset)
		if !ok {
			continue
		}
		out[name] = ds
		for inv, count := range ds.Violations {
			if count > 0 {
				slog.Warn("invariant violations", "experiment", name, "invariant", inv, "episodes", count)
			}
		}
	}
	if err := util.SaveJson(c.savePath, out); err != nil {
		slog.Error("saving invariants", "path", c.savePath, "error", err)
	}
}

type InvariantComparatorConstructor struct {
	savePath string
}

var _ core.ComparatorConstructor = &InvariantComparatorConstructor{}

func NewInvariantComparatorConstructor(savePath string) *InvariantComparatorConstructor {
	return &InvariantComparatorConstructor{
		savePath: savePath,
	}
}

func (c *InvariantComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewInvariantComparator(path.Join(c.savePath, strconv.Itoa(run)))
}

func writeTrace(file string, trace *core.Trace, geometry gridworld.Geometry, goal int) error {
	f, err := util.CreateFile(file)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(traceToString(trace, geometry, goal))
	return err
}
