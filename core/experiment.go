package core

import (
	"log/slog"

	"github.com/zeu5/gridduel/gridworld"
	"github.com/zeu5/gridduel/util"
)

// Experiment pairs an environment with the two policies that compete in it.
type Experiment struct {
	Name        string
	Environment EnvironmentConstructor
	Policies    [gridworld.NumAgents]PolicyConstructor
}

type DataSet interface{}

type Analyzer interface {
	Analyze(*EpisodeContext, *Trace)
	DataSet() DataSet
	Reset()
}

type AnalyzerConstructor interface {
	// new analyzer based on experiment name and run
	NewAnalyzer(string, int) Analyzer
}

type Comparator interface {
	Compare([]string, []DataSet)
}

type ComparatorConstructor interface {
	NewComparator(int) Comparator
}

type RunConfig struct {
	TrainEpisodes int
	TestEpisodes  int
	// Horizon caps the rounds of an episode, 0 means no cap
	Horizon int
	Seed    int64
	// SwapStart repeats the test phase with agent 1 moving first
	SwapStart bool

	Logger  *slog.Logger
	Printer *util.TerminalPrinter
}

func (r *RunConfig) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

type Comparison struct {
	Experiments []*Experiment
	Analyzers   map[string]AnalyzerConstructor
	Comparators map[string]ComparatorConstructor

	analyses []string
}

func NewComparison() *Comparison {
	return &Comparison{
		Analyzers:   make(map[string]AnalyzerConstructor),
		Comparators: make(map[string]ComparatorConstructor),
		Experiments: make([]*Experiment, 0),
		analyses:    make([]string, 0),
	}
}

func (c *Comparison) AddExperiment(e *Experiment) {
	c.Experiments = append(c.Experiments, e)
}

func (c *Comparison) AddAnalysis(name string, a AnalyzerConstructor, cmp ComparatorConstructor) {
	if _, ok := c.Analyzers[name]; !ok {
		c.analyses = append(c.analyses, name)
	}
	c.Analyzers[name] = a
	c.Comparators[name] = cmp
}
