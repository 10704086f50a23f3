package physics

import (
	"fmt"

	"planetsim/core"
)

// Crust is the reservoir bundle of a planet's surface: four finite,
// non-negative rock pools per cell plus the basaltic sima layer, which acts
// as an effectively infinite background reservoir and is never withdrawn by
// transport.
type Crust struct {
	Sediment    *core.ScalarField
	Sedimentary *core.ScalarField
	Metamorphic *core.ScalarField
	Sial        *core.ScalarField
	Sima        *core.ScalarField
}

// NewCrust allocates an empty crust bundle over a grid.
func NewCrust(g *core.Grid) *Crust {
	return &Crust{
		Sediment:    core.NewScalarField(g),
		Sedimentary: core.NewScalarField(g),
		Metamorphic: core.NewScalarField(g),
		Sial:        core.NewScalarField(g),
		Sima:        core.NewScalarField(g),
	}
}

// Grid returns the topology the bundle is defined over.
func (c *Crust) Grid() *core.Grid { return c.Sediment.Grid() }

// TotalMass returns the summed quantity across the four finite reservoirs.
// Transport moves mass between cells without changing this total.
func (c *Crust) TotalMass() float64 {
	return c.Sediment.Sum() + c.Sedimentary.Sum() + c.Metamorphic.Sum() + c.Sial.Sum()
}

// CrustDelta holds signed per-step changes to a crust bundle. Engines
// accumulate into a delta and the driver applies it after the step, so results
// don't depend on edge iteration order.
type CrustDelta struct {
	Sediment    *core.ScalarField
	Sedimentary *core.ScalarField
	Metamorphic *core.ScalarField
	Sial        *core.ScalarField
}

// NewCrustDelta allocates a zeroed delta bundle over a grid.
func NewCrustDelta(g *core.Grid) *CrustDelta {
	return &CrustDelta{
		Sediment:    core.NewScalarField(g),
		Sedimentary: core.NewScalarField(g),
		Metamorphic: core.NewScalarField(g),
		Sial:        core.NewScalarField(g),
	}
}

// Zero clears all four delta fields.
func (d *CrustDelta) Zero() {
	d.Sediment.Fill(0)
	d.Sedimentary.Fill(0)
	d.Metamorphic.Fill(0)
	d.Sial.Fill(0)
}

// Apply adds the deltas into a crust bundle and clamps each finite reservoir
// at zero to absorb floating point residue.
func (d *CrustDelta) Apply(c *Crust) {
	c.Sediment.MaxScalar(c.Sediment.Add(c.Sediment, d.Sediment), 0)
	c.Sedimentary.MaxScalar(c.Sedimentary.Add(c.Sedimentary, d.Sedimentary), 0)
	c.Metamorphic.MaxScalar(c.Metamorphic.Add(c.Metamorphic, d.Metamorphic), 0)
	c.Sial.MaxScalar(c.Sial.Add(c.Sial, d.Sial), 0)
}

// sameTopology verifies every crust and delta field is defined over g. Grid
// identity, not shape: equal-sized grids can still disagree on adjacency.
func sameTopology(g *core.Grid, c *Crust, d *CrustDelta) error {
	fields := []*core.ScalarField{
		c.Sediment, c.Sedimentary, c.Metamorphic, c.Sial, c.Sima,
		d.Sediment, d.Sedimentary, d.Metamorphic, d.Sial,
	}
	for _, f := range fields {
		if f.Grid() != g {
			return fmt.Errorf("physics: crust and delta bundles must share the displacement grid")
		}
	}
	return nil
}

// aliased reports whether any delta field shares storage with a crust field.
// The transport engine reads the crust while writing the delta, so aliasing
// would corrupt the fraction pass.
func aliased(c *Crust, d *CrustDelta) error {
	for _, reservoir := range []*core.ScalarField{c.Sediment, c.Sedimentary, c.Metamorphic, c.Sial, c.Sima} {
		for _, delta := range []*core.ScalarField{d.Sediment, d.Sedimentary, d.Metamorphic, d.Sial} {
			if reservoir == delta {
				return fmt.Errorf("physics: crust and delta bundles share a field")
			}
		}
	}
	return nil
}
