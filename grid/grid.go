// Package grid - 4-connected pixel grid geometry and multi-source level-order traversal.
package grid

// Grid describes the dimensions of a row-major, origin top-left cell grid.
type Grid struct {
	// W is the number of columns.
	W int
	// H is the number of rows.
	H int
}

// New returns a grid of the given dimensions. Negative dimensions are treated as zero.
func New(w, h int) Grid {
	return Grid{W: max(0, w), H: max(0, h)}
}

// Len returns the number of cells in the grid.
func (g Grid) Len() int {
	return g.W * g.H
}

// Index returns the linear index of the cell at (x, y).
func (g Grid) Index(x, y int) int {
	return y*g.W + x
}

// XY returns the coordinates of the cell at linear index i.
func (g Grid) XY(i int) (x, y int) {
	return i % g.W, i / g.W
}

// OnBorder reports whether cell i lies on any of the four outer edges.
// A single-row or single-column grid is entirely border.
func (g Grid) OnBorder(i int) bool {
	x, y := g.XY(i)
	return x == 0 || y == 0 || x == g.W-1 || y == g.H-1
}

// Neighbors4 calls fn with the linear index of each in-bounds 4-connected
// neighbour of cell i, in left, right, up, down order.
func (g Grid) Neighbors4(i int, fn func(j int)) {
	x, y := g.XY(i)
	if x > 0 {
		fn(i - 1)
	}
	if x < g.W-1 {
		fn(i + 1)
	}
	if y > 0 {
		fn(i - g.W)
	}
	if y < g.H-1 {
		fn(i + g.W)
	}
}

// Neighbors8 calls fn for each of the 8 neighbours of cell (x, y). Out-of-bounds
// neighbours are reported with ok=false and j=-1 so callers can decide how the
// outside of the grid should count.
func (g Grid) Neighbors8(x, y int, fn func(j int, ok bool)) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= g.W || ny >= g.H {
				fn(-1, false)
				continue
			}
			fn(g.Index(nx, ny), true)
		}
	}
}

// Expand runs a multi-source breadth-first expansion over the 4-connected grid.
//
// seed is called once per cell in row-major order; cells for which it returns
// true form the initial frontier (level 0). step is called for every edge
// (from, to) leaving a dequeued cell; returning true enqueues to. The
// propagation rule owns all visited-state bookkeeping, which lets the same
// traversal serve flood fills, distance transforms and value propagation.
//
// Arguments:
//   - g: The grid to traverse.
//   - seed: Predicate selecting the initial frontier.
//   - step: Propagation rule deciding whether to claim a neighbour.
//
// Returns:
//   - The number of cells that were enqueued, seeds included.
func Expand(g Grid, seed func(i int) bool, step func(from, to int) bool) int {
	n := g.Len()
	if n == 0 {
		return 0
	}

	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if seed(i) {
			queue = append(queue, i)
		}
	}

	for head := 0; head < len(queue); head++ {
		from := queue[head]
		g.Neighbors4(from, func(to int) {
			if step(from, to) {
				queue = append(queue, to)
			}
		})
	}

	return len(queue)
}
