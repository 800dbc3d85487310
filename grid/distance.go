package grid

// Unset marks a distance field cell that no expansion reached.
const Unset = -1

// DistanceField holds the 4-connected graph distance of every cell to the
// nearest cell of a source mask.
type DistanceField struct {
	Grid
	d []int32
}

// NewDistanceField computes the distance of every cell to the nearest set cell
// of m by multi-source breadth-first expansion seeded at all set cells.
// Set cells get 0; other cells get parent distance + 1 the first time they are
// discovered. When m is empty every cell stays Unset.
func NewDistanceField(m *Mask) *DistanceField {
	f := &DistanceField{Grid: m.Grid, d: make([]int32, m.Len())}
	for i := range f.d {
		f.d[i] = Unset
	}

	Expand(m.Grid,
		func(i int) bool {
			if !m.Get(i) {
				return false
			}
			f.d[i] = 0
			return true
		},
		func(from, to int) bool {
			if f.d[to] != Unset {
				return false
			}
			f.d[to] = f.d[from] + 1
			return true
		},
	)

	return f
}

// At returns the distance of cell i, or Unset.
func (f *DistanceField) At(i int) int {
	return int(f.d[i])
}

// Reached reports whether any cell holds a distance. It is false only when the
// source mask was empty.
func (f *DistanceField) Reached() bool {
	for _, v := range f.d {
		if v != Unset {
			return true
		}
	}
	return false
}
