package physics

import (
	"fmt"

	"planetsim/core"
)

// RockDensities holds per-reservoir rock densities in kg/m3, used to derive a
// column's mean density for isostatic displacement.
type RockDensities struct {
	Sediment    float64
	Sedimentary float64
	Metamorphic float64
	Sial        float64
	Sima        float64
}

// DefaultRockDensities returns Earth-like values.
func DefaultRockDensities() RockDensities {
	return RockDensities{
		Sediment:    2500,
		Sedimentary: 2600,
		Metamorphic: 2800,
		Sial:        2700,
		Sima:        3075,
	}
}

// Displacement computes buoyant vertical displacement pointwise:
//
//	out[i] = thickness[i] * (1 - density[i]/mantleDensity)
//
// Thicker or lighter columns ride higher on the mantle. mantleDensity must be
// positive; anything else is a caller bug and is rejected.
func Displacement(thickness, density *core.ScalarField, mantleDensity float64, out *core.ScalarField) error {
	if mantleDensity <= 0 {
		return fmt.Errorf("physics: mantle density %g must be positive", mantleDensity)
	}
	sameLen(thickness, density)
	sameLen(thickness, out)
	t := thickness.Data()
	rho := density.Data()
	dst := out.Data()
	for i := range dst {
		dst[i] = t[i] * (1 - rho[i]/mantleDensity)
	}
	return nil
}

// ColumnProperties fills thickness with each cell's total column height and
// density with the thickness-weighted mean rock density. Cells with an empty
// column get the sima density, so downstream displacement stays finite.
func (c *Crust) ColumnProperties(densities RockDensities, thickness, density *core.ScalarField) {
	sed := c.Sediment.Data()
	sedRock := c.Sedimentary.Data()
	meta := c.Metamorphic.Data()
	sial := c.Sial.Data()
	sima := c.Sima.Data()
	t := thickness.Data()
	rho := density.Data()
	for i := range t {
		total := sed[i] + sedRock[i] + meta[i] + sial[i] + sima[i]
		t[i] = total
		if total <= 0 {
			rho[i] = densities.Sima
			continue
		}
		mass := sed[i]*densities.Sediment +
			sedRock[i]*densities.Sedimentary +
			meta[i]*densities.Metamorphic +
			sial[i]*densities.Sial +
			sima[i]*densities.Sima
		rho[i] = mass / total
	}
}

func sameLen(a, b *core.ScalarField) {
	if a.Grid() != b.Grid() {
		panic("physics: fields defined over different grids")
	}
}
