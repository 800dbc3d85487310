package grid

// Mask is a boolean cell grid; true marks a cell as a member of the set
// (for segmentation, a background pixel).
type Mask struct {
	Grid
	bits []bool
}

// NewMask returns an all-false mask of the given dimensions.
func NewMask(g Grid) *Mask {
	return &Mask{Grid: g, bits: make([]bool, g.Len())}
}

// Get reports whether cell i is set.
func (m *Mask) Get(i int) bool {
	return m.bits[i]
}

// Set marks cell i.
func (m *Mask) Set(i int) {
	m.bits[i] = true
}

// At reports whether the cell at (x, y) is set. Out-of-bounds cells are unset.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return false
	}
	return m.bits[m.Index(x, y)]
}

// Count returns the number of set cells.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}

// Empty reports whether no cell is set.
func (m *Mask) Empty() bool {
	for _, b := range m.bits {
		if b {
			return false
		}
	}
	return true
}

// Full reports whether every cell is set.
func (m *Mask) Full() bool {
	for _, b := range m.bits {
		if !b {
			return false
		}
	}
	return true
}
