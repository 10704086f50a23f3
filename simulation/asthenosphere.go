package simulation

import (
	"planetsim/core"
)

// DefaultSmoothingIterations is the number of averaging passes used to
// approximate steady-state mantle pressure. More passes converge further but
// 15 is where further change becomes negligible at typical mesh resolutions.
const DefaultSmoothingIterations = 15

// SmoothPressure approximates the asthenosphere pressure field by repeated
// local averaging of the crust density load: each pass replaces every cell's
// value with the average of its neighbors. This trades the accuracy of a real
// linear solve for a fixed, predictable cost of iterations passes over the
// arrows. A local average can't produce a new extremum, so the output always
// stays inside the input's range. iterations <= 0 degenerates to a copy.
func SmoothPressure(density *core.ScalarField, iterations int, out *core.ScalarField, arena *core.Arena) error {
	scope, err := arena.OpenScope("smooth_pressure")
	if err != nil {
		return err
	}
	defer scope.Close()

	out.CopyFrom(density)
	g := out.Grid()
	sum := scope.Scalar()

	cur := out.Data()
	acc := sum.Data()
	for pass := 0; pass < iterations; pass++ {
		for i := range acc {
			acc[i] = 0
		}
		for i := 0; i < g.ArrowCount(); i++ {
			from, to := g.Arrow(i)
			acc[from] += cur[to]
		}
		for i := range cur {
			if n := g.NeighborCount(i); n > 0 {
				cur[i] = acc[i] / float64(n)
			}
		}
	}
	return nil
}

// VelocityFromPressure derives the asthenosphere flow field as the gradient of
// the smoothed pressure: each cell's vector points toward steepest pressure
// increase.
func VelocityFromPressure(pressure *core.ScalarField, out *core.VectorField) *core.VectorField {
	return out.Gradient(pressure)
}

// AngularVelocity converts a linear surface velocity field into per-cell
// angular velocity about the planet center, cross(velocity, position).
func AngularVelocity(velocity *core.VectorField, out *core.VectorField) *core.VectorField {
	return out.CrossPositions(velocity)
}
