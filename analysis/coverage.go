package analysis

import (
	"log/slog"
	"path"
	"strconv"

	"github.com/zeu5/gridduel/core"
	"github.com/zeu5/gridduel/gridworld"
	"github.com/zeu5/gridduel/util"
)

type CoverageDataset struct {
	Timesteps    []int `json:"timesteps"`
	UniqueStates []int `json:"unique_states"`
}

func (c *CoverageDataset) Copy() *CoverageDataset {
	return &CoverageDataset{
		Timesteps:    util.CopyIntSlice(c.Timesteps),
		UniqueStates: util.CopyIntSlice(c.UniqueStates),
	}
}

// CoverageAnalyzer counts the distinct states visited during training
// against the number of steps taken so far.
type CoverageAnalyzer struct {
	states  map[gridworld.StateKey]bool
	dataset *CoverageDataset
}

var _ core.Analyzer = &CoverageAnalyzer{}

func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{
		states: make(map[gridworld.StateKey]bool),
		dataset: &CoverageDataset{
			Timesteps:    make([]int, 0),
			UniqueStates: make([]int, 0),
		},
	}
}

func (c *CoverageAnalyzer) Reset() {
	c.states = make(map[gridworld.StateKey]bool)
	c.dataset.Timesteps = make([]int, 0)
	c.dataset.UniqueStates = make([]int, 0)
}

func (c *CoverageAnalyzer) Analyze(eCtx *core.EpisodeContext, trace *core.Trace) {
	if eCtx.Phase != core.PhaseTrain {
		return
	}
	for i := 0; i < trace.Len(); i++ {
		step := trace.Step(i)
		c.states[step.State.Key()] = true
		c.states[step.NextState.Key()] = true
	}
	lastTimeStep := 0
	if len(c.dataset.Timesteps) > 0 {
		lastTimeStep = c.dataset.Timesteps[len(c.dataset.Timesteps)-1]
	}
	c.dataset.Timesteps = append(c.dataset.Timesteps, lastTimeStep+trace.Len())
	c.dataset.UniqueStates = append(c.dataset.UniqueStates, len(c.states))
}

func (c *CoverageAnalyzer) DataSet() core.DataSet {
	return c.dataset.Copy()
}

type CoverageAnalyzerConstructor struct{}

var _ core.AnalyzerConstructor = &CoverageAnalyzerConstructor{}

func NewCoverageAnalyzerConstructor() *CoverageAnalyzerConstructor {
	return &CoverageAnalyzerConstructor{}
}

func (*CoverageAnalyzerConstructor) NewAnalyzer(_ string, _ int) core.Analyzer {
	return NewCoverageAnalyzer()
}

type CoverageComparator struct {
	savePath string
}

var _ core.Comparator = &CoverageComparator{}

func NewCoverageComparator(savePath string) *CoverageComparator {
	return &CoverageComparator{
		savePath: path.Join(savePath, "coverage.json"),
	}
}

func (c *CoverageComparator) Compare(experimentNames []string, datasets []core.DataSet) {
	out := make(map[string]*CoverageDataset)
	for i, name := range experimentNames {
		ds, ok := datasets[i].(*CoverageDataset)
		if !ok {
			continue
		}
		out[name] = ds
	}

	if err := util.SaveJson(c.savePath, out); err != nil {
		slog.Error("saving coverage", "path", c.savePath, "error", err)
	}
}

type CoverageComparatorConstructor struct {
	savePath string
}

var _ core.ComparatorConstructor = &CoverageComparatorConstructor{}

func (c *CoverageComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewCoverageComparator(path.Join(c.savePath, strconv.Itoa(run)))
}

func NewCoverageComparatorConstructor(savePath string) *CoverageComparatorConstructor {
	return &CoverageComparatorConstructor{
		savePath: savePath,
	}
}
