package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planetsim/core"
)

// ringGrid builds n cells on the unit circle with bidirectional arrows
// between ring neighbors.
func ringGrid(t *testing.T, n int) *core.Grid {
	t.Helper()
	positions := make([]mgl64.Vec3, n)
	var arrows []core.Arrow
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		positions[i] = mgl64.Vec3{math.Cos(angle), 0, math.Sin(angle)}
		next := (i + 1) % n
		arrows = append(arrows,
			core.Arrow{From: int32(i), To: int32(next)},
			core.Arrow{From: int32(next), To: int32(i)},
		)
	}
	g, err := core.NewGrid(positions, arrows)
	require.NoError(t, err)
	return g
}

// pairGrid builds two mutually adjacent cells.
func pairGrid(t *testing.T) *core.Grid {
	t.Helper()
	g, err := core.NewGrid(
		[]mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}},
		[]core.Arrow{{From: 0, To: 1}, {From: 1, To: 0}},
	)
	require.NoError(t, err)
	return g
}

// unitRateConfig makes one unit of height difference move one unit of
// material per unit timestep, so expectations can be computed by hand.
func unitRateConfig() ErosionConfig {
	return ErosionConfig{PrecipitationRate: 1, ErosionCoefficient: 1}
}

func TestErodeZeroTimestep(t *testing.T) {
	g := ringGrid(t, 4)
	arena := core.NewArena(g)
	crust := NewCrust(g)
	crust.Sediment.Fill(10)
	delta := NewCrustDelta(g)

	displacement := core.NewScalarField(g)
	for i := 0; i < 4; i++ {
		displacement.Set(i, float64(4-i))
	}

	require.NoError(t, Erode(displacement, 0, 0, crust, delta, arena, unitRateConfig()))
	for _, f := range []*core.ScalarField{delta.Sediment, delta.Sedimentary, delta.Metamorphic, delta.Sial} {
		assert.Equal(t, []float64{0, 0, 0, 0}, f.Data())
	}
}

func TestErodeFlatSurfaceMovesNothing(t *testing.T) {
	g := ringGrid(t, 6)
	arena := core.NewArena(g)
	crust := NewCrust(g)
	crust.Sediment.Fill(100)
	crust.Sial.Fill(28300)
	delta := NewCrustDelta(g)

	displacement := core.NewScalarField(g).Fill(1234.5)

	require.NoError(t, Erode(displacement, 0, 1, crust, delta, arena, unitRateConfig()))
	assert.Zero(t, delta.Sediment.Sum())
	min, max := delta.Sediment.MinMax()
	assert.Zero(t, min)
	assert.Zero(t, max)
}

func TestErodeRejectsNegativeTimestep(t *testing.T) {
	g := ringGrid(t, 4)
	arena := core.NewArena(g)
	err := Erode(core.NewScalarField(g), 0, -1, NewCrust(g), NewCrustDelta(g), arena, unitRateConfig())
	assert.Error(t, err)
}

func TestErodeRejectsAliasedBundles(t *testing.T) {
	g := ringGrid(t, 4)
	arena := core.NewArena(g)
	crust := NewCrust(g)
	delta := NewCrustDelta(g)
	delta.Sediment = crust.Sediment

	err := Erode(core.NewScalarField(g), 0, 1, crust, delta, arena, unitRateConfig())
	assert.Error(t, err)
}

func TestErodeRejectsMismatchedGrids(t *testing.T) {
	g := ringGrid(t, 4)
	other := ringGrid(t, 8)
	arena := core.NewArena(g)

	displacement := core.NewScalarField(g)
	for i := 0; i < 4; i++ {
		displacement.Set(i, float64(4-i))
	}

	// Crust and delta over a different grid must be rejected before any mass
	// moves under wrong indexing.
	crust := NewCrust(other)
	crust.Sediment.Fill(10)
	delta := NewCrustDelta(other)
	err := Erode(displacement, 0, 1, crust, delta, arena, unitRateConfig())
	assert.Error(t, err)
	assert.Zero(t, delta.Sediment.Sum())
	min, max := delta.Sediment.MinMax()
	assert.Zero(t, min)
	assert.Zero(t, max)

	// A single stray field is enough to fail the whole bundle.
	crust = NewCrust(g)
	delta = NewCrustDelta(g)
	delta.Sial = core.NewScalarField(other)
	err = Erode(displacement, 0, 1, crust, delta, arena, unitRateConfig())
	assert.Error(t, err)
}

// A basin holding the only material has no outbound flux, so nothing moves.
func TestErodeBasinCannotDrain(t *testing.T) {
	g := ringGrid(t, 4)
	arena := core.NewArena(g)
	crust := NewCrust(g)
	crust.Sediment.Set(3, 10)
	delta := NewCrustDelta(g)

	// Water heights 3,2,1,0 around the ring; cell 3 is the basin.
	displacement := core.NewScalarField(g)
	for i := 0; i < 4; i++ {
		displacement.Set(i, float64(3-i))
	}

	require.NoError(t, Erode(displacement, 0, 1, crust, delta, arena, unitRateConfig()))
	assert.Equal(t, []float64{0, 0, 0, 0}, delta.Sediment.Data())
}

// Material on the summit of the ring drains to both downhill neighbors in
// proportion to the height difference.
func TestErodeSummitDrainsDownhill(t *testing.T) {
	g := ringGrid(t, 4)
	arena := core.NewArena(g)
	crust := NewCrust(g)
	crust.Sediment.Set(0, 10)
	delta := NewCrustDelta(g)

	displacement := core.NewScalarField(g)
	for i := 0; i < 4; i++ {
		displacement.Set(i, float64(3-i))
	}

	require.NoError(t, Erode(displacement, 0, 1, crust, delta, arena, unitRateConfig()))

	// Cell 0's candidates: 1 toward cell 1, 3 toward cell 3, total 4, fully
	// covered by its sediment. The fraction is split across both neighbors.
	assert.InDelta(t, -2.0, delta.Sediment.At(0), 1e-12)
	assert.InDelta(t, 0.5, delta.Sediment.At(1), 1e-12)
	assert.InDelta(t, 0.0, delta.Sediment.At(2), 1e-12)
	assert.InDelta(t, 1.5, delta.Sediment.At(3), 1e-12)
	assert.InDelta(t, 0, delta.Sediment.Sum(), 1e-12)
}

// Reservoirs drain in priority order and none is overdrawn even when the
// flux candidate exceeds what the cell holds.
func TestErodePriorityOrder(t *testing.T) {
	g := pairGrid(t)
	arena := core.NewArena(g)
	crust := NewCrust(g)
	crust.Sediment.Set(0, 4)
	crust.Sedimentary.Set(0, 5)
	crust.Metamorphic.Set(0, 100)
	delta := NewCrustDelta(g)

	displacement := core.NewScalarField(g)
	displacement.Set(0, 10)

	require.NoError(t, Erode(displacement, 0, 1, crust, delta, arena, unitRateConfig()))

	// Candidate is 10: sediment covers 4, sedimentary 5, metamorphic the
	// final 1. Sial is never reached.
	assert.InDelta(t, -4, delta.Sediment.At(0), 1e-12)
	assert.InDelta(t, 4, delta.Sediment.At(1), 1e-12)
	assert.InDelta(t, -5, delta.Sedimentary.At(0), 1e-12)
	assert.InDelta(t, 5, delta.Sedimentary.At(1), 1e-12)
	assert.InDelta(t, -1, delta.Metamorphic.At(0), 1e-12)
	assert.InDelta(t, 1, delta.Metamorphic.At(1), 1e-12)
	assert.Zero(t, delta.Sial.At(0))
}

func TestErodeConservationAndNonNegativity(t *testing.T) {
	g := ringGrid(t, 8)
	arena := core.NewArena(g)
	crust := NewCrust(g)
	delta := NewCrustDelta(g)
	displacement := core.NewScalarField(g)
	for i := 0; i < 8; i++ {
		displacement.Set(i, 1000*math.Sin(float64(i)*1.7))
		crust.Sediment.Set(i, 20*float64(i%3))
		crust.Sedimentary.Set(i, 5)
		crust.Metamorphic.Set(i, float64(i))
		crust.Sial.Set(i, 28300)
		crust.Sima.Set(i, 7100)
	}
	before := crust.TotalMass()

	for step := 0; step < 25; step++ {
		delta.Zero()
		require.NoError(t, Erode(displacement, 0, 1e4, crust, delta, arena, DefaultErosionConfig()))
		for _, f := range []*core.ScalarField{delta.Sediment, delta.Sedimentary, delta.Metamorphic, delta.Sial} {
			assert.InDelta(t, 0, f.Sum(), 1e-9, "each reservoir delta sums to zero")
		}
		delta.Apply(crust)
	}

	assert.InDelta(t, before, crust.TotalMass(), before*1e-9)
	for _, f := range []*core.ScalarField{crust.Sediment, crust.Sedimentary, crust.Metamorphic, crust.Sial} {
		min, _ := f.MinMax()
		assert.GreaterOrEqual(t, min, 0.0)
	}
}

// Sea level caps the potential: cells underwater share a water height of
// zero, so submerged terrain carries no flux.
func TestErodeSeaLevelClampsPotential(t *testing.T) {
	g := pairGrid(t)
	arena := core.NewArena(g)
	crust := NewCrust(g)
	crust.Sediment.Fill(50)
	delta := NewCrustDelta(g)

	displacement := core.NewScalarField(g)
	displacement.Set(0, -100)
	displacement.Set(1, -700)

	require.NoError(t, Erode(displacement, 0, 1, crust, delta, arena, unitRateConfig()))
	assert.Equal(t, []float64{0, 0}, delta.Sediment.Data())
}
