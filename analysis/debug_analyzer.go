package analysis

import (
	"bytes"
	"fmt"
	"log/slog"
	"path"

	"github.com/zeu5/gridduel/core"
	"github.com/zeu5/gridduel/gridworld"
)

type PrintDebugAnalyzer struct {
	// savePath is the path to save the trace
	savePath string
	exp      string
	geometry gridworld.Geometry
	goal     int
	// will save the trace to the file only after the episode number exceeds this threshold
	thresholdEpisode int
}

var _ core.Analyzer = &PrintDebugAnalyzer{}

func NewPrintDebugAnalyzer(savePath string, geometry gridworld.Geometry, goal int, threshold int) *PrintDebugAnalyzer {
	return &PrintDebugAnalyzer{
		savePath:         path.Join(savePath, "traces"),
		geometry:         geometry,
		goal:             goal,
		thresholdEpisode: threshold,
	}
}

func (a *PrintDebugAnalyzer) Analyze(ctx *core.EpisodeContext, trace *core.Trace) {
	if ctx.Episode < a.thresholdEpisode {
		return
	}
	fileName := fmt.Sprintf("%d_%s_s%d_trace_%d.txt", ctx.Run, ctx.Phase, ctx.Starter(), ctx.Episode)
	if a.exp != "" {
		fileName = fmt.Sprintf("%d_%s_%s_s%d_trace_%d.txt", ctx.Run, a.exp, ctx.Phase, ctx.Starter(), ctx.Episode)
	}
	if err := writeTrace(path.Join(a.savePath, fileName), trace, a.geometry, a.goal); err != nil {
		slog.Error("saving trace", "error", err)
	}
}

func traceToString(trace *core.Trace, geometry gridworld.Geometry, goal int) string {
	buf := new(bytes.Buffer)
	for i := 0; i < trace.Len(); i++ {
		step := trace.Step(i)
		buf.WriteString(fmt.Sprintf("Step %d\n%s\n", i, stepToString(step, geometry, goal)))
	}
	return buf.String()
}

func stepToString(step *core.Step, geometry gridworld.Geometry, goal int) string {
	out := fmt.Sprintf(
		"Round: %d, Agent: %d, Action: %s\nState: \n%s\nNext State: \n%s",
		step.Round,
		step.Agent,
		step.Action,
		gridworld.RenderState(geometry, step.State, goal, nil, false),
		gridworld.RenderState(geometry, step.NextState, goal, nil, false),
	)
	out += fmt.Sprintf("Reward: %v, Opponent Reward: %v\n", step.Reward, step.OpponentReward)
	if step.Collision != gridworld.NoCollision {
		out += fmt.Sprintf("Collision: %s\n", step.Collision)
	}
	if step.Treasure {
		out += "Treasure collected\n"
	}
	if step.Done {
		out += "Goal reached\n"
	}
	return out
}

func (a *PrintDebugAnalyzer) DataSet() core.DataSet {
	return nil
}

func (a *PrintDebugAnalyzer) Reset() {
	// do nothing
}

type PrintDebugAnalyzerConstructor struct {
	SavePath         string
	Geometry         gridworld.Geometry
	Goal             int
	ThresholdEpisode int
}

var _ core.AnalyzerConstructor = &PrintDebugAnalyzerConstructor{}

func NewPrintDebugAnalyzerConstructor(savePath string, geometry gridworld.Geometry, goal int, thresholdEpisode int) *PrintDebugAnalyzerConstructor {
	return &PrintDebugAnalyzerConstructor{
		SavePath:         savePath,
		Geometry:         geometry,
		Goal:             goal,
		ThresholdEpisode: thresholdEpisode,
	}
}

func (c *PrintDebugAnalyzerConstructor) NewAnalyzer(exp string, _ int) core.Analyzer {
	a := NewPrintDebugAnalyzer(c.SavePath, c.Geometry, c.Goal, c.ThresholdEpisode)
	a.exp = exp
	return a
}
