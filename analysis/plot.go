package analysis

import (
	"fmt"
	"log/slog"
	"path"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/zeu5/gridduel/core"
	"github.com/zeu5/gridduel/gridworld"
	"github.com/zeu5/gridduel/util"
)

// PlotComparator draws the block-averaged training reward of every agent of
// every experiment as one line chart. It consumes RewardAnalyzer datasets.
type PlotComparator struct {
	run      int
	savePath string
}

var _ core.Comparator = &PlotComparator{}

func NewPlotComparator(savePath string, run int) *PlotComparator {
	return &PlotComparator{
		run:      run,
		savePath: path.Join(savePath, "rewards.html"),
	}
}

func (p *PlotComparator) Compare(experimentNames []string, datasets []core.DataSet) {
	line := p.chart(experimentNames, datasets)
	if line == nil {
		return
	}
	page := components.NewPage()
	page.AddCharts(line)

	f, err := util.CreateFile(p.savePath)
	if err != nil {
		slog.Error("creating reward chart", "path", p.savePath, "error", err)
		return
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		slog.Error("rendering reward chart", "path", p.savePath, "error", err)
	}
}

func (p *PlotComparator) chart(experimentNames []string, datasets []core.DataSet) *charts.Line {
	numBlocks := 0
	blockSize := DefaultBlockSize
	rewards := make([]*RewardDataset, len(datasets))
	for i, d := range datasets {
		ds, ok := d.(*RewardDataset)
		if !ok {
			continue
		}
		rewards[i] = ds
		blockSize = ds.BlockSize
		for _, means := range ds.BlockMeans {
			if len(means) > numBlocks {
				numBlocks = len(means)
			}
		}
	}
	if numBlocks == 0 {
		return nil
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Training reward, run %d", p.run),
			Subtitle: fmt.Sprintf("mean reward per block of %d episodes", blockSize),
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
	)

	xs := make([]string, numBlocks)
	for i := range xs {
		xs[i] = strconv.Itoa(i * blockSize)
	}
	line.SetXAxis(xs)

	for i, ds := range rewards {
		if ds == nil {
			continue
		}
		for agent := 0; agent < gridworld.NumAgents; agent++ {
			items := make([]opts.LineData, 0, len(ds.BlockMeans[agent]))
			for _, v := range ds.BlockMeans[agent] {
				items = append(items, opts.LineData{Value: v})
			}
			line.AddSeries(fmt.Sprintf("%s agent %d", experimentNames[i], agent), items)
		}
	}
	return line
}

type PlotComparatorConstructor struct {
	savePath string
}

var _ core.ComparatorConstructor = &PlotComparatorConstructor{}

func NewPlotComparatorConstructor(savePath string) *PlotComparatorConstructor {
	return &PlotComparatorConstructor{
		savePath: savePath,
	}
}

func (p *PlotComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewPlotComparator(path.Join(p.savePath, strconv.Itoa(run)), run)
}
