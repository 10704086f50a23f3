package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// A field stores one value per grid cell. Scalar fields carry float64, vector
// fields carry mgl64.Vec3, plate fields carry int32 labels (0 = unlabeled) and
// bool fields are masks for morphology.
//
// Elementwise operations take destination receivers and return the destination
// for chaining. Operands must share the same Grid instance; a mismatch is a
// caller bug and panics. Elementwise operations tolerate dst aliasing an
// operand (each cell's write target is disjoint from every other cell's).

// ScalarField holds one float64 per cell.
type ScalarField struct {
	grid *Grid
	data []float64
}

// NewScalarField allocates a zeroed scalar field over a grid.
func NewScalarField(g *Grid) *ScalarField {
	return &ScalarField{grid: g, data: make([]float64, g.CellCount())}
}

// Grid returns the topology this field is defined over.
func (f *ScalarField) Grid() *Grid { return f.grid }

// Len returns the number of cells.
func (f *ScalarField) Len() int { return len(f.data) }

// At returns the value at a cell.
func (f *ScalarField) At(i int) float64 { return f.data[i] }

// Set stores a value at a cell.
func (f *ScalarField) Set(i int, v float64) { f.data[i] = v }

// Data exposes the backing slice for hot loops. The slice aliases field
// storage.
func (f *ScalarField) Data() []float64 { return f.data }

func sameGrid(a, b *Grid) {
	if a != b {
		panic(fmt.Sprintf("core: fields defined over different grids (%d and %d cells)", a.CellCount(), b.CellCount()))
	}
}

// Fill sets every cell to v and returns the field.
func (f *ScalarField) Fill(v float64) *ScalarField {
	for i := range f.data {
		f.data[i] = v
	}
	return f
}

// CopyFrom copies src into the field.
func (f *ScalarField) CopyFrom(src *ScalarField) *ScalarField {
	sameGrid(f.grid, src.grid)
	copy(f.data, src.data)
	return f
}

// Add stores a + b.
func (f *ScalarField) Add(a, b *ScalarField) *ScalarField {
	sameGrid(f.grid, a.grid)
	sameGrid(f.grid, b.grid)
	for i := range f.data {
		f.data[i] = a.data[i] + b.data[i]
	}
	return f
}

// Sub stores a - b.
func (f *ScalarField) Sub(a, b *ScalarField) *ScalarField {
	sameGrid(f.grid, a.grid)
	sameGrid(f.grid, b.grid)
	for i := range f.data {
		f.data[i] = a.data[i] - b.data[i]
	}
	return f
}

// Mul stores the elementwise product a * b.
func (f *ScalarField) Mul(a, b *ScalarField) *ScalarField {
	sameGrid(f.grid, a.grid)
	sameGrid(f.grid, b.grid)
	for i := range f.data {
		f.data[i] = a.data[i] * b.data[i]
	}
	return f
}

// Scale stores a * s.
func (f *ScalarField) Scale(a *ScalarField, s float64) *ScalarField {
	sameGrid(f.grid, a.grid)
	for i := range f.data {
		f.data[i] = a.data[i] * s
	}
	return f
}

// SubScalar stores a - s.
func (f *ScalarField) SubScalar(a *ScalarField, s float64) *ScalarField {
	sameGrid(f.grid, a.grid)
	for i := range f.data {
		f.data[i] = a.data[i] - s
	}
	return f
}

// MaxScalar stores max(a, s), clamping from below.
func (f *ScalarField) MaxScalar(a *ScalarField, s float64) *ScalarField {
	sameGrid(f.grid, a.grid)
	for i := range f.data {
		f.data[i] = math.Max(a.data[i], s)
	}
	return f
}

// MinScalar stores min(a, s), clamping from above.
func (f *ScalarField) MinScalar(a *ScalarField, s float64) *ScalarField {
	sameGrid(f.grid, a.grid)
	for i := range f.data {
		f.data[i] = math.Min(a.data[i], s)
	}
	return f
}

// Sum returns the total of all cell values.
func (f *ScalarField) Sum() float64 {
	var total float64
	for _, v := range f.data {
		total += v
	}
	return total
}

// MinMax returns the smallest and largest cell value.
func (f *ScalarField) MinMax() (min, max float64) {
	min, max = f.data[0], f.data[0]
	for _, v := range f.data[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// VectorField holds one 3-vector per cell.
type VectorField struct {
	grid *Grid
	data []mgl64.Vec3
}

// NewVectorField allocates a zeroed vector field over a grid.
func NewVectorField(g *Grid) *VectorField {
	return &VectorField{grid: g, data: make([]mgl64.Vec3, g.CellCount())}
}

// Grid returns the topology this field is defined over.
func (f *VectorField) Grid() *Grid { return f.grid }

// Len returns the number of cells.
func (f *VectorField) Len() int { return len(f.data) }

// At returns the vector at a cell.
func (f *VectorField) At(i int) mgl64.Vec3 { return f.data[i] }

// Set stores a vector at a cell.
func (f *VectorField) Set(i int, v mgl64.Vec3) { f.data[i] = v }

// Fill sets every cell to v.
func (f *VectorField) Fill(v mgl64.Vec3) *VectorField {
	for i := range f.data {
		f.data[i] = v
	}
	return f
}

// CopyFrom copies src into the field.
func (f *VectorField) CopyFrom(src *VectorField) *VectorField {
	sameGrid(f.grid, src.grid)
	copy(f.data, src.data)
	return f
}

// Magnitude stores the length of each vector into out.
func (f *VectorField) Magnitude(out *ScalarField) *ScalarField {
	sameGrid(f.grid, out.grid)
	for i, v := range f.data {
		out.data[i] = v.Len()
	}
	return out
}

// Cross stores a x b elementwise.
func (f *VectorField) Cross(a, b *VectorField) *VectorField {
	sameGrid(f.grid, a.grid)
	sameGrid(f.grid, b.grid)
	for i := range f.data {
		f.data[i] = a.data[i].Cross(b.data[i])
	}
	return f
}

// CrossPositions stores a x pos per cell, pos being the cell's location on the
// grid. Converts a linear velocity field into an angular velocity field.
func (f *VectorField) CrossPositions(a *VectorField) *VectorField {
	sameGrid(f.grid, a.grid)
	for i := range f.data {
		f.data[i] = a.data[i].Cross(f.grid.Pos(i))
	}
	return f
}

// Gradient stores, per cell, the direction of steepest increase of src: the
// average over the cell's arrows of the value difference times the unit offset
// toward the neighbor. Cells without neighbors get the zero vector.
func (f *VectorField) Gradient(src *ScalarField) *VectorField {
	sameGrid(f.grid, src.grid)
	g := f.grid
	for i := range f.data {
		f.data[i] = mgl64.Vec3{}
	}
	for i := 0; i < g.ArrowCount(); i++ {
		from, to := g.Arrow(i)
		offset := g.Pos(int(to)).Sub(g.Pos(int(from)))
		length := offset.Len()
		if length == 0 {
			continue
		}
		diff := src.data[to] - src.data[from]
		f.data[from] = f.data[from].Add(offset.Mul(diff / length))
	}
	for i := range f.data {
		if n := g.NeighborCount(i); n > 0 {
			f.data[i] = f.data[i].Mul(1 / float64(n))
		}
	}
	return f
}

// PlateField holds one int32 label per cell. Label 0 means unlabeled.
type PlateField struct {
	grid *Grid
	data []int32
}

// NewPlateField allocates an all-unlabeled plate field over a grid.
func NewPlateField(g *Grid) *PlateField {
	return &PlateField{grid: g, data: make([]int32, g.CellCount())}
}

// Grid returns the topology this field is defined over.
func (f *PlateField) Grid() *Grid { return f.grid }

// Len returns the number of cells.
func (f *PlateField) Len() int { return len(f.data) }

// At returns the label at a cell.
func (f *PlateField) At(i int) int32 { return f.data[i] }

// Set stores a label at a cell.
func (f *PlateField) Set(i int, id int32) { f.data[i] = id }

// Data exposes the backing slice. The slice aliases field storage.
func (f *PlateField) Data() []int32 { return f.data }

// Fill sets every cell to id.
func (f *PlateField) Fill(id int32) *PlateField {
	for i := range f.data {
		f.data[i] = id
	}
	return f
}

// MaxLabel returns the largest label present, 0 when fully unlabeled.
func (f *PlateField) MaxLabel() int32 {
	var max int32
	for _, id := range f.data {
		if id > max {
			max = id
		}
	}
	return max
}
