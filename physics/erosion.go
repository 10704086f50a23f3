package physics

import (
	"fmt"
	"math"

	"planetsim/core"
)

// ErosionConfig carries the tunable constants of the transport engine.
type ErosionConfig struct {
	// PrecipitationRate is meters of rainfall per unit of simulated time
	// (the driver uses millions of years).
	PrecipitationRate float64
	// ErosionCoefficient is the fraction of a height difference carried away
	// per meter of rainfall.
	ErosionCoefficient float64
}

// DefaultErosionConfig returns the documented defaults.
func DefaultErosionConfig() ErosionConfig {
	return ErosionConfig{
		PrecipitationRate:  7.8e5,
		ErosionCoefficient: 1.8e-7,
	}
}

// Erode runs one conservative transport step: rainfall-driven flux moves
// crust material strictly downhill along grid arrows, draining cells in
// reservoir priority order — loose sediment leaves before sedimentary rock,
// sedimentary before metamorphic, metamorphic before sial — without ever
// overdrawing a reservoir. Results accumulate into delta; the caller applies
// them after the step.
//
// The work is two full passes over the arrows. The first accumulates each
// cell's total outbound flux candidate; withdrawal fractions depend on that
// total, so the second (transfer) pass must not start until the first is
// complete. Interleaving them would make the outcome depend on arrow order.
//
// displacement and sealevel define water height as max(displacement -
// sealevel, 0); only edges running downhill in water height carry flux.
func Erode(displacement *core.ScalarField, sealevel, timestep float64, crust *Crust, delta *CrustDelta, arena *core.Arena, cfg ErosionConfig) error {
	if timestep < 0 {
		return fmt.Errorf("physics: negative timestep %g", timestep)
	}
	if err := aliased(crust, delta); err != nil {
		return err
	}
	g := displacement.Grid()
	if err := sameTopology(g, crust, delta); err != nil {
		return err
	}
	scope, err := arena.OpenScope("erode")
	if err != nil {
		return err
	}
	defer scope.Close()

	waterHeight := scope.Scalar()
	waterHeight.MaxScalar(waterHeight.SubScalar(displacement, sealevel), 0)

	rate := cfg.PrecipitationRate * timestep * cfg.ErosionCoefficient

	// Pass 1: total outbound flux candidate per cell.
	outbound := scope.Scalar()
	wh := waterHeight.Data()
	out := outbound.Data()
	for i := 0; i < g.ArrowCount(); i++ {
		from, to := g.Arrow(i)
		if diff := wh[from] - wh[to]; diff > 0 {
			out[from] += diff * rate
		}
	}

	// Withdrawal fractions, priority order sediment, sedimentary, metamorphic,
	// sial. Each reservoir covers what it can of the candidate still unclaimed
	// by higher-priority reservoirs; fractions are expressed against the
	// original candidate (the transfer pass multiplies them by per-arrow
	// candidates), so the summed withdrawal from a reservoir can never exceed
	// what it holds. Each fraction is spread evenly across the cell's arrows.
	fracSediment := scope.Scalar()
	fracSedimentary := scope.Scalar()
	fracMetamorphic := scope.Scalar()
	fracSial := scope.Scalar()
	reservoirs := []*core.ScalarField{crust.Sediment, crust.Sedimentary, crust.Metamorphic, crust.Sial}
	fractions := []*core.ScalarField{fracSediment, fracSedimentary, fracMetamorphic, fracSial}
	for cell := 0; cell < g.CellCount(); cell++ {
		total := out[cell]
		remaining := total
		neighbors := g.NeighborCount(cell)
		for r, reservoir := range reservoirs {
			var fraction float64
			if remaining > epsilon {
				take := math.Min(reservoir.At(cell), remaining)
				fraction = take / total
				remaining -= take
			}
			if neighbors > 0 {
				fractions[r].Set(cell, fraction/float64(neighbors))
			}
		}
	}

	// Pass 2: transfer along each downhill arrow.
	deltas := []*core.ScalarField{delta.Sediment, delta.Sedimentary, delta.Metamorphic, delta.Sial}
	for i := 0; i < g.ArrowCount(); i++ {
		from, to := g.Arrow(i)
		diff := wh[from] - wh[to]
		if diff <= 0 {
			continue
		}
		candidate := diff * rate
		for r := range deltas {
			amount := fractions[r].At(int(from)) * candidate
			if amount == 0 {
				continue
			}
			d := deltas[r].Data()
			d[from] -= amount
			d[to] += amount
		}
	}
	return nil
}

// epsilon guards withdrawal fraction division; candidates below it carry no
// mass worth transferring.
const epsilon = 1e-30
