package analysis

import (
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/logrusorgru/aurora"
	"github.com/zeu5/gridduel/core"
	"github.com/zeu5/gridduel/gridworld"
	"github.com/zeu5/gridduel/util"
)

// OutcomeTally sums up the test episodes played with one starting agent.
type OutcomeTally struct {
	Starter    int                          `json:"starter"`
	Agents     [gridworld.NumAgents]string  `json:"agents"`
	Episodes   int                          `json:"episodes"`
	Wins       [gridworld.NumAgents]int     `json:"wins"`
	Ties       int                          `json:"ties"`
	Truncated  int                          `json:"truncated"`
	Points     [gridworld.NumAgents]float64 `json:"points"`
	Share      [gridworld.NumAgents]float64 `json:"share"`
	Treasures  [gridworld.NumAgents]int     `json:"treasures"`
	Collisions int                          `json:"collisions"`
}

func (o *OutcomeTally) add(result *core.EpisodeResult) {
	o.Episodes++
	if result.Winner == core.Tie {
		o.Ties++
	} else {
		o.Wins[result.Winner]++
	}
	if result.Truncated {
		o.Truncated++
	}
	for i := 0; i < gridworld.NumAgents; i++ {
		o.Points[i] += result.Rewards[i]
		o.Treasures[i] += result.Treasures[i]
	}
	o.Collisions += result.Collisions

	total := o.Points[0] + o.Points[1]
	for i := 0; i < gridworld.NumAgents; i++ {
		o.Share[i] = util.Percent(o.Points[i], total)
	}
}

type OutcomeDataset struct {
	// Tallies is keyed by the agent that moved first
	Tallies map[int]*OutcomeTally `json:"tallies"`
}

func (o *OutcomeDataset) Copy() *OutcomeDataset {
	out := &OutcomeDataset{Tallies: make(map[int]*OutcomeTally, len(o.Tallies))}
	for k, v := range o.Tallies {
		t := *v
		out.Tallies[k] = &t
	}
	return out
}

// Starters lists the starting agents present in the dataset in order.
func (o *OutcomeDataset) Starters() []int {
	out := make([]int, 0, len(o.Tallies))
	for k := range o.Tallies {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// OutcomeAnalyzer tallies the test phase episodes by starting agent.
type OutcomeAnalyzer struct {
	dataset *OutcomeDataset
}

var _ core.Analyzer = &OutcomeAnalyzer{}

func NewOutcomeAnalyzer() *OutcomeAnalyzer {
	return &OutcomeAnalyzer{
		dataset: &OutcomeDataset{Tallies: make(map[int]*OutcomeTally)},
	}
}

func (o *OutcomeAnalyzer) Analyze(eCtx *core.EpisodeContext, _ *core.Trace) {
	if eCtx.Phase != core.PhaseTest || eCtx.Result == nil {
		return
	}
	starter := eCtx.Starter()
	tally, ok := o.dataset.Tallies[starter]
	if !ok {
		tally = &OutcomeTally{Starter: starter, Agents: eCtx.Agents}
		o.dataset.Tallies[starter] = tally
	}
	tally.add(eCtx.Result)
}

func (o *OutcomeAnalyzer) DataSet() core.DataSet {
	return o.dataset.Copy()
}

func (o *OutcomeAnalyzer) Reset() {
	o.dataset.Tallies = make(map[int]*OutcomeTally)
}

type OutcomeAnalyzerConstructor struct{}

var _ core.AnalyzerConstructor = &OutcomeAnalyzerConstructor{}

func NewOutcomeAnalyzerConstructor() *OutcomeAnalyzerConstructor {
	return &OutcomeAnalyzerConstructor{}
}

func (*OutcomeAnalyzerConstructor) NewAnalyzer(_ string, _ int) core.Analyzer {
	return NewOutcomeAnalyzer()
}

// OutcomeSummary is what OutcomeComparator writes to disk.
type OutcomeSummary struct {
	ID          string                     `json:"id"`
	Run         int                        `json:"run"`
	Experiments map[string]*OutcomeDataset `json:"experiments"`
}

// OutcomeComparator prints the final results table of a run and saves it.
type OutcomeComparator struct {
	run      int
	savePath string
	out      io.Writer
	au       aurora.Aurora
}

var _ core.Comparator = &OutcomeComparator{}

func NewOutcomeComparator(savePath string, run int, out io.Writer, colored bool) *OutcomeComparator {
	return &OutcomeComparator{
		run:      run,
		savePath: path.Join(savePath, "outcomes.json"),
		out:      out,
		au:       aurora.NewAurora(colored),
	}
}

func (o *OutcomeComparator) Compare(experimentNames []string, datasets []core.DataSet) {
	summary := &OutcomeSummary{
		ID:          uuid.NewString(),
		Run:         o.run,
		Experiments: make(map[string]*OutcomeDataset),
	}
	for i, name := range experimentNames {
		ds, ok := datasets[i].(*OutcomeDataset)
		if !ok {
			continue
		}
		summary.Experiments[name] = ds
		if o.out != nil {
			o.print(name, ds)
		}
	}
	if err := util.SaveJson(o.savePath, summary); err != nil {
		slog.Error("saving outcomes", "path", o.savePath, "error", err)
	}
}

func (o *OutcomeComparator) print(name string, ds *OutcomeDataset) {
	fmt.Fprintf(o.out, "%s (run %d)\n", o.au.Bold(name), o.run)
	for _, starter := range ds.Starters() {
		t := ds.Tallies[starter]
		fmt.Fprintf(o.out, "  Final results when %s starts (%d episodes, %d ties, %d truncated):\n",
			o.au.Cyan(t.Agents[starter]), t.Episodes, t.Ties, t.Truncated)
		for agent := 0; agent < gridworld.NumAgents; agent++ {
			share := fmt.Sprintf("%.0f %%", t.Share[agent])
			if t.Share[agent] > t.Share[1-agent] {
				share = o.au.Green(share).String()
			}
			fmt.Fprintf(o.out, "    %-16s %10.2f (%s)  wins %d  treasures %d\n",
				t.Agents[agent], t.Points[agent], share, t.Wins[agent], t.Treasures[agent])
		}
		fmt.Fprintf(o.out, "    collisions %d\n", t.Collisions)
	}
}

type OutcomeComparatorConstructor struct {
	savePath string
	out      io.Writer
	colored  bool
}

var _ core.ComparatorConstructor = &OutcomeComparatorConstructor{}

// NewOutcomeComparatorConstructor prints to out when it is not nil.
func NewOutcomeComparatorConstructor(savePath string, out io.Writer, colored bool) *OutcomeComparatorConstructor {
	return &OutcomeComparatorConstructor{
		savePath: savePath,
		out:      out,
		colored:  colored,
	}
}

func (o *OutcomeComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewOutcomeComparator(path.Join(o.savePath, strconv.Itoa(run)), run, o.out, o.colored)
}
