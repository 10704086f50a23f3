package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarFieldElementwise(t *testing.T) {
	g := ringGrid(t, 4)
	a := NewScalarField(g)
	b := NewScalarField(g)
	for i := 0; i < 4; i++ {
		a.Set(i, float64(i))
		b.Set(i, 10)
	}

	out := NewScalarField(g)
	out.Add(a, b)
	assert.Equal(t, []float64{10, 11, 12, 13}, out.Data())
	out.Sub(a, b)
	assert.Equal(t, []float64{-10, -9, -8, -7}, out.Data())
	out.Scale(a, 2)
	assert.Equal(t, []float64{0, 2, 4, 6}, out.Data())
	out.MaxScalar(out.SubScalar(a, 1.5), 0)
	assert.Equal(t, []float64{0, 0, 0.5, 1.5}, out.Data())

	assert.InDelta(t, 6.0, a.Sum(), 1e-12)
	min, max := a.MinMax()
	assert.Equal(t, 0.0, min)
	assert.Equal(t, 3.0, max)
}

func TestScalarFieldAliasingAllowed(t *testing.T) {
	g := ringGrid(t, 3)
	a := NewScalarField(g)
	a.Fill(2)
	a.Add(a, a)
	assert.Equal(t, []float64{4, 4, 4}, a.Data())
}

func TestMismatchedGridsPanic(t *testing.T) {
	g1 := ringGrid(t, 4)
	g2 := ringGrid(t, 4) // same shape, different topology identity
	a := NewScalarField(g1)
	b := NewScalarField(g2)
	assert.Panics(t, func() { NewScalarField(g1).Add(a, b) })
	assert.Panics(t, func() { NewVectorField(g1).CopyFrom(NewVectorField(g2)) })
	assert.Panics(t, func() { NewBoolField(g1).CopyFrom(NewBoolField(g2)) })
}

func TestVectorFieldMagnitudeAndCross(t *testing.T) {
	g := ringGrid(t, 4)
	v := NewVectorField(g)
	v.Fill(mgl64.Vec3{3, 4, 0})

	mag := NewScalarField(g)
	v.Magnitude(mag)
	for i := 0; i < 4; i++ {
		assert.InDelta(t, 5.0, mag.At(i), 1e-12)
	}

	a := NewVectorField(g)
	b := NewVectorField(g)
	a.Fill(mgl64.Vec3{1, 0, 0})
	b.Fill(mgl64.Vec3{0, 1, 0})
	out := NewVectorField(g)
	out.Cross(a, b)
	for i := 0; i < 4; i++ {
		assert.Equal(t, mgl64.Vec3{0, 0, 1}, out.At(i))
	}
}

func TestGradientPointsUphill(t *testing.T) {
	g := ringGrid(t, 8)
	// Pressure grows with the x coordinate of each cell.
	pressure := NewScalarField(g)
	for i := 0; i < 8; i++ {
		pressure.Set(i, g.Pos(i).X())
	}

	grad := NewVectorField(g)
	grad.Gradient(pressure)

	// Away from the extremes, the gradient should have a positive x
	// component: steepest increase points toward larger pressure.
	for _, cell := range []int{2, 6} { // cells near x = 0 on the ring
		require.Greater(t, grad.At(cell).X(), 0.0, "cell %d", cell)
	}
}

func TestPlateFieldLabels(t *testing.T) {
	g := ringGrid(t, 5)
	labels := NewPlateField(g)
	assert.Equal(t, int32(0), labels.MaxLabel())

	labels.Set(2, 3)
	labels.Set(4, 1)
	assert.Equal(t, int32(3), labels.MaxLabel())

	labels.Fill(0)
	assert.Equal(t, int32(0), labels.MaxLabel())
}
