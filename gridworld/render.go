package gridworld

import (
	"fmt"
	"strings"

	"github.com/logrusorgru/aurora"
)

// Render draws the live grid, one row per line. Each cell is a status symbol
// ("-" unvisited, "." visited, "0"/"1" agent) followed by a marker ("*" goal,
// "$" treasure).
func (w *World) Render(colored bool) string {
	return RenderState(w.geometry, w.State(), w.config.Goal, w.treasures, colored)
}

// RenderState draws a state without needing the world. treasures may be nil.
func RenderState(g Geometry, s State, goal int, treasures []bool, colored bool) string {
	au := aurora.NewAurora(colored)
	var b strings.Builder
	for row := 0; row < g.Size(); row++ {
		for col := 0; col < g.Size(); col++ {
			cell := g.Index(row, col)
			if col > 0 {
				b.WriteString(" ")
			}
			b.WriteString(renderStatus(au, s.Status[cell]))
			switch {
			case cell == goal:
				b.WriteString(au.Yellow("*").String())
			case treasures != nil && treasures[cell]:
				b.WriteString(au.Green("$").String())
			default:
				b.WriteString(" ")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderStatus(au aurora.Aurora, status CellStatus) string {
	switch status {
	case Unvisited:
		return au.Faint("-").String()
	case VisitedEmpty:
		return "."
	}
	agent, _ := status.Occupant()
	symbol := fmt.Sprintf("%d", agent)
	if agent == 0 {
		return au.Bold(au.Blue(symbol)).String()
	}
	return au.Bold(au.Red(symbol)).String()
}
