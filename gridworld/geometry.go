package gridworld

import "fmt"

const (
	// MaxSize bounds the grid so that a state fits in a fixed-size key.
	MaxSize  = 8
	MaxCells = MaxSize * MaxSize
)

// Geometry is the immutable NxN layout. Cells are indexed row-major.
type Geometry struct {
	size int
}

func NewGeometry(size int) (Geometry, error) {
	if size <= 1 {
		return Geometry{}, fmt.Errorf("%w: size %d", ErrDegenerateGrid, size)
	}
	if size > MaxSize {
		return Geometry{}, fmt.Errorf("%w: size %d", ErrGridTooLarge, size)
	}
	return Geometry{size: size}, nil
}

func (g Geometry) Size() int {
	return g.size
}

func (g Geometry) Cells() int {
	return g.size * g.size
}

func (g Geometry) Contains(cell int) bool {
	return cell >= 0 && cell < g.Cells()
}

func (g Geometry) RowCol(cell int) (int, int) {
	return cell / g.size, cell % g.size
}

func (g Geometry) Index(row, col int) int {
	return row*g.size + col
}

// Legal reports whether the action keeps the agent on the grid. Step and the
// learning policy both rely on this single boundary test.
func (g Geometry) Legal(cell int, a Action) bool {
	row, col := g.RowCol(cell)
	switch a {
	case Up:
		return row > 0
	case Right:
		return col < g.size-1
	case Down:
		return row < g.size-1
	case Left:
		return col > 0
	}
	return false
}

// Moves returns the legal actions from cell in candidate order.
func (g Geometry) Moves(cell int) []Action {
	moves := make([]Action, 0, len(Actions))
	for _, a := range Actions {
		if g.Legal(cell, a) {
			moves = append(moves, a)
		}
	}
	return moves
}

// Target is the cell reached by applying the action, or cell itself when the
// action would leave the grid.
func (g Geometry) Target(cell int, a Action) int {
	if !g.Legal(cell, a) {
		return cell
	}
	row, col := g.RowCol(cell)
	dr, dc := a.delta()
	return g.Index(row+dr, col+dc)
}
