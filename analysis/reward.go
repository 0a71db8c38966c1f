package analysis

import (
	"log/slog"
	"path"
	"strconv"

	"github.com/zeu5/gridduel/core"
	"github.com/zeu5/gridduel/gridworld"
	"github.com/zeu5/gridduel/util"
	"gonum.org/v1/gonum/stat"
)

// DefaultBlockSize is the number of episodes averaged into one point of the
// learning curve.
const DefaultBlockSize = 10

type RewardDataset struct {
	BlockSize int `json:"block_size"`
	// Train and Test hold the cumulative reward of every episode, per agent
	Train [gridworld.NumAgents][]float64 `json:"train"`
	Test  [gridworld.NumAgents][]float64 `json:"test"`

	BlockMeans   [gridworld.NumAgents][]float64 `json:"block_means"`
	BlockStdDevs [gridworld.NumAgents][]float64 `json:"block_std_devs"`
}

func (r *RewardDataset) Copy() *RewardDataset {
	out := &RewardDataset{BlockSize: r.BlockSize}
	for i := 0; i < gridworld.NumAgents; i++ {
		out.Train[i] = util.CopyFloatSlice(r.Train[i])
		out.Test[i] = util.CopyFloatSlice(r.Test[i])
		out.BlockMeans[i] = util.CopyFloatSlice(r.BlockMeans[i])
		out.BlockStdDevs[i] = util.CopyFloatSlice(r.BlockStdDevs[i])
	}
	return out
}

// blocks splits rewards into consecutive blocks of size episodes, the last
// one possibly shorter.
func blocks(rewards []float64, size int) ([]float64, []float64) {
	means := make([]float64, 0, len(rewards)/size+1)
	stds := make([]float64, 0, len(rewards)/size+1)
	for start := 0; start < len(rewards); start += size {
		end := start + size
		if end > len(rewards) {
			end = len(rewards)
		}
		mean, std := stat.MeanStdDev(rewards[start:end], nil)
		if end-start == 1 {
			std = 0
		}
		means = append(means, mean)
		stds = append(stds, std)
	}
	return means, stds
}

// RewardAnalyzer records the reward each agent collected per episode and
// summarises the training curve in blocks.
type RewardAnalyzer struct {
	dataset *RewardDataset
}

var _ core.Analyzer = &RewardAnalyzer{}

func NewRewardAnalyzer(blockSize int) *RewardAnalyzer {
	if blockSize < 1 {
		blockSize = DefaultBlockSize
	}
	r := &RewardAnalyzer{}
	r.dataset = &RewardDataset{BlockSize: blockSize}
	r.Reset()
	return r
}

func (r *RewardAnalyzer) Analyze(eCtx *core.EpisodeContext, _ *core.Trace) {
	if eCtx.Result == nil {
		return
	}
	for i := 0; i < gridworld.NumAgents; i++ {
		switch eCtx.Phase {
		case core.PhaseTrain:
			r.dataset.Train[i] = append(r.dataset.Train[i], eCtx.Result.Rewards[i])
		case core.PhaseTest:
			r.dataset.Test[i] = append(r.dataset.Test[i], eCtx.Result.Rewards[i])
		}
	}
}

func (r *RewardAnalyzer) DataSet() core.DataSet {
	out := r.dataset.Copy()
	for i := 0; i < gridworld.NumAgents; i++ {
		out.BlockMeans[i], out.BlockStdDevs[i] = blocks(out.Train[i], out.BlockSize)
	}
	return out
}

func (r *RewardAnalyzer) Reset() {
	for i := 0; i < gridworld.NumAgents; i++ {
		r.dataset.Train[i] = make([]float64, 0)
		r.dataset.Test[i] = make([]float64, 0)
	}
}

type RewardAnalyzerConstructor struct {
	BlockSize int
}

var _ core.AnalyzerConstructor = &RewardAnalyzerConstructor{}

func NewRewardAnalyzerConstructor(blockSize int) *RewardAnalyzerConstructor {
	return &RewardAnalyzerConstructor{BlockSize: blockSize}
}

func (r *RewardAnalyzerConstructor) NewAnalyzer(_ string, _ int) core.Analyzer {
	return NewRewardAnalyzer(r.BlockSize)
}

// RewardComparator saves the reward datasets of every experiment of a run.
type RewardComparator struct {
	savePath string
}

var _ core.Comparator = &RewardComparator{}

func NewRewardComparator(savePath string) *RewardComparator {
	return &RewardComparator{
		savePath: path.Join(savePath, "rewards.json"),
	}
}

func (r *RewardComparator) Compare(experimentNames []string, datasets []core.DataSet) {
	out := make(map[string]*RewardDataset)
	for i, name := range experimentNames {
		ds, ok := datasets[i].(*RewardDataset)
		if !ok {
			continue
		}
		out[name] = ds
	}
	if err := util.SaveJson(r.savePath, out); err != nil {
		slog.Error("saving rewards", "path", r.savePath, "error", err)
	}
}

type RewardComparatorConstructor struct {
	savePath string
}

var _ core.ComparatorConstructor = &RewardComparatorConstructor{}

func NewRewardComparatorConstructor(savePath string) *RewardComparatorConstructor {
	return &RewardComparatorConstructor{
		savePath: savePath,
	}
}

func (r *RewardComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewRewardComparator(path.Join(r.savePath, strconv.Itoa(run)))
}
