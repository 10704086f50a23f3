package core

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Grid is the adjacency structure of a planetary surface mesh: one cell per
// mesh vertex, with directed cell-to-cell arrows used for flux accumulation
// and flood fill. A Grid is immutable after construction and may be shared
// read-only by any number of worlds.
//
// Fields are tagged with the Grid they are defined over. Two fields combine
// only when they reference the same Grid instance; two grids of equal size can
// still have different adjacency, so identity is what matters.
type Grid struct {
	positions []mgl64.Vec3

	// Arrows sorted by source cell so the outbound arrows of a cell form a
	// contiguous run. first has length cellCount+1.
	arrowFrom []int32
	arrowTo   []int32
	first     []int32
}

// Arrow is a single directed adjacency edge.
type Arrow struct {
	From, To int32
}

// NewGrid builds a Grid from per-cell positions (unit sphere) and the full
// directed arrow list. Every traversable direction must appear once. Arrow
// endpoints are validated against the cell count.
func NewGrid(positions []mgl64.Vec3, arrows []Arrow) (*Grid, error) {
	n := len(positions)
	if n == 0 {
		return nil, fmt.Errorf("grid: no cells")
	}

	sorted := make([]Arrow, len(arrows))
	copy(sorted, arrows)
	for _, a := range sorted {
		if a.From < 0 || int(a.From) >= n || a.To < 0 || int(a.To) >= n {
			return nil, fmt.Errorf("grid: arrow %d->%d out of range [0,%d)", a.From, a.To, n)
		}
		if a.From == a.To {
			return nil, fmt.Errorf("grid: self arrow at cell %d", a.From)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].From != sorted[j].From {
			return sorted[i].From < sorted[j].From
		}
		return sorted[i].To < sorted[j].To
	})

	g := &Grid{
		positions: append([]mgl64.Vec3(nil), positions...),
		arrowFrom: make([]int32, len(sorted)),
		arrowTo:   make([]int32, len(sorted)),
		first:     make([]int32, n+1),
	}
	for i, a := range sorted {
		g.arrowFrom[i] = a.From
		g.arrowTo[i] = a.To
	}
	// Bucket offsets per source cell.
	cell := int32(0)
	for i, from := range g.arrowFrom {
		for cell < from {
			cell++
			g.first[cell] = int32(i)
		}
	}
	for cell < int32(n) {
		cell++
		g.first[cell] = int32(len(g.arrowFrom))
	}
	return g, nil
}

// CellCount returns the number of cells in the grid.
func (g *Grid) CellCount() int {
	return len(g.positions)
}

// ArrowCount returns the number of directed adjacency edges.
func (g *Grid) ArrowCount() int {
	return len(g.arrowFrom)
}

// Arrow returns the i-th directed edge.
func (g *Grid) Arrow(i int) (from, to int32) {
	return g.arrowFrom[i], g.arrowTo[i]
}

// Pos returns the position of a cell on the unit sphere.
func (g *Grid) Pos(cell int) mgl64.Vec3 {
	return g.positions[cell]
}

// NeighborCount returns the number of outbound arrows of a cell.
func (g *Grid) NeighborCount(cell int) int {
	return int(g.first[cell+1] - g.first[cell])
}

// Neighbors returns the destination cells of a cell's outbound arrows. The
// returned slice aliases grid storage and must not be modified.
func (g *Grid) Neighbors(cell int) []int32 {
	return g.arrowTo[g.first[cell]:g.first[cell+1]]
}
