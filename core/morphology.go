package core

// BoolField is a per-cell mask. Binary morphology over mesh adjacency — grow,
// shrink, smooth — is defined in hop distance: a structuring radius of r means
// r passes of single-hop spread.
type BoolField struct {
	grid *Grid
	data []bool
}

// NewBoolField allocates an all-false mask over a grid.
func NewBoolField(g *Grid) *BoolField {
	return &BoolField{grid: g, data: make([]bool, g.CellCount())}
}

// Grid returns the topology this mask is defined over.
func (m *BoolField) Grid() *Grid { return m.grid }

// Len returns the number of cells.
func (m *BoolField) Len() int { return len(m.data) }

// At returns the mask bit at a cell.
func (m *BoolField) At(i int) bool { return m.data[i] }

// Set stores a mask bit at a cell.
func (m *BoolField) Set(i int, v bool) { m.data[i] = v }

// Fill sets every cell to v.
func (m *BoolField) Fill(v bool) *BoolField {
	for i := range m.data {
		m.data[i] = v
	}
	return m
}

// CopyFrom copies src into the mask.
func (m *BoolField) CopyFrom(src *BoolField) *BoolField {
	sameGrid(m.grid, src.grid)
	copy(m.data, src.data)
	return m
}

// EqLabel marks cells whose label equals id.
func (m *BoolField) EqLabel(labels *PlateField, id int32) *BoolField {
	sameGrid(m.grid, labels.grid)
	for i, v := range labels.data {
		m.data[i] = v == id
	}
	return m
}

// NeqLabel marks cells whose label differs from id.
func (m *BoolField) NeqLabel(labels *PlateField, id int32) *BoolField {
	sameGrid(m.grid, labels.grid)
	for i, v := range labels.data {
		m.data[i] = v != id
	}
	return m
}

// Union stores a OR b.
func (m *BoolField) Union(a, b *BoolField) *BoolField {
	sameGrid(m.grid, a.grid)
	sameGrid(m.grid, b.grid)
	for i := range m.data {
		m.data[i] = a.data[i] || b.data[i]
	}
	return m
}

// Intersect stores a AND b.
func (m *BoolField) Intersect(a, b *BoolField) *BoolField {
	sameGrid(m.grid, a.grid)
	sameGrid(m.grid, b.grid)
	for i := range m.data {
		m.data[i] = a.data[i] && b.data[i]
	}
	return m
}

// Difference stores a AND NOT b, removing b's cells from a.
func (m *BoolField) Difference(a, b *BoolField) *BoolField {
	sameGrid(m.grid, a.grid)
	sameGrid(m.grid, b.grid)
	for i := range m.data {
		m.data[i] = a.data[i] && !b.data[i]
	}
	return m
}

// Count returns the number of set cells.
func (m *BoolField) Count() int {
	n := 0
	for _, v := range m.data {
		if v {
			n++
		}
	}
	return n
}

// Dilate grows src by radius hops: a cell is set when it or any neighbor
// within radius hops is set. Safe with m == src.
func (m *BoolField) Dilate(src *BoolField, radius int) *BoolField {
	sameGrid(m.grid, src.grid)
	m.spread(src, radius, true)
	return m
}

// Erode shrinks src by radius hops: a cell survives only when it and every
// neighbor within radius hops are set. Safe with m == src.
func (m *BoolField) Erode(src *BoolField, radius int) *BoolField {
	sameGrid(m.grid, src.grid)
	m.spread(src, radius, false)
	return m
}

// Close fills gaps in src: dilation followed by erosion with the same radius.
// Safe with m == src.
func (m *BoolField) Close(src *BoolField, radius int) *BoolField {
	m.Dilate(src, radius)
	m.Erode(m, radius)
	return m
}

// spread runs radius single-hop passes. With grow true a set neighbor sets the
// cell; with grow false an unset neighbor clears it.
func (m *BoolField) spread(src *BoolField, radius int, grow bool) {
	g := m.grid
	if m != src {
		copy(m.data, src.data)
	}
	cur := m.data
	scratch := make([]bool, len(cur))
	for pass := 0; pass < radius; pass++ {
		copy(scratch, cur)
		for i := 0; i < g.ArrowCount(); i++ {
			from, to := g.Arrow(i)
			if grow {
				if cur[to] {
					scratch[from] = true
				}
			} else {
				if !cur[to] {
					scratch[from] = false
				}
			}
		}
		copy(cur, scratch)
	}
}
