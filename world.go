package main

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"planetsim/config"
	"planetsim/core"
	"planetsim/physics"
	"planetsim/simulation"
)

// World is the demo driver state: a grid plus the fields the engines read and
// write each step. The engines themselves never retain fields; everything here
// is owned by the driver.
type World struct {
	grid  *core.Grid
	arena *core.Arena
	sim   config.SimulationSettings

	crust *physics.Crust
	delta *physics.CrustDelta

	thickness    *core.ScalarField
	density      *core.ScalarField
	displacement *core.ScalarField
	pressure     *core.ScalarField
	velocity     *core.VectorField
	angular      *core.VectorField
	plates       *core.PlateField

	timeYears float64
	stepCount int
}

// plateCadence is how many steps pass between plate re-segmentations; the
// velocity field drifts slowly, so re-running flood fill every step buys
// nothing.
const plateCadence = 10

// NewWorld builds a demo planet at the configured icosphere level and seeds
// its crust.
func NewWorld(sim config.SimulationSettings) (*World, error) {
	grid, err := buildIcosphereGrid(sim.IcosphereLevel)
	if err != nil {
		return nil, err
	}
	w := &World{
		grid:         grid,
		arena:        core.NewArena(grid),
		sim:          sim,
		crust:        physics.NewCrust(grid),
		delta:        physics.NewCrustDelta(grid),
		thickness:    core.NewScalarField(grid),
		density:      core.NewScalarField(grid),
		displacement: core.NewScalarField(grid),
		pressure:     core.NewScalarField(grid),
		velocity:     core.NewVectorField(grid),
		angular:      core.NewVectorField(grid),
		plates:       core.NewPlateField(grid),
	}
	w.seedCrust()
	return w, nil
}

// seedCrust lays down a basaltic sima base everywhere and thick sialic crust
// where the continent noise rises above its shoreline cutoff, with a thin
// sediment blanket on continental shelves.
func (w *World) seedCrust() {
	const (
		simaThickness = 7100  // oceanic crust, meters
		sialThickness = 28300 // continental crust, meters
	)
	w.crust.Sima.Fill(simaThickness)
	for i := 0; i < w.grid.CellCount(); i++ {
		pos := w.grid.Pos(i)
		n := terrainNoise(pos.X(), pos.Y(), pos.Z())
		if n > 0.1 {
			w.crust.Sial.Set(i, sialThickness*math.Min(1, 0.6+n))
		} else if n > 0 {
			w.crust.Sediment.Set(i, 400*n/0.1)
		}
	}
}

// Step advances the world by dtYears: isostatic displacement from the current
// columns, one conservative transport step applied through the delta bundle,
// then the mantle flow derivation, re-segmenting plates on a fixed cadence.
func (w *World) Step(dtYears float64) error {
	densities := physics.RockDensities{
		Sediment:    w.sim.SedimentDensity,
		Sedimentary: w.sim.SedimentaryDensity,
		Metamorphic: w.sim.MetamorphicDensity,
		Sial:        w.sim.SialDensity,
		Sima:        w.sim.SimaDensity,
	}
	w.crust.ColumnProperties(densities, w.thickness, w.density)
	if err := physics.Displacement(w.thickness, w.density, w.sim.MantleDensity, w.displacement); err != nil {
		return err
	}

	cfg := physics.ErosionConfig{
		PrecipitationRate:  w.sim.PrecipitationRate,
		ErosionCoefficient: w.sim.ErosionCoefficient,
	}
	w.delta.Zero()
	if err := physics.Erode(w.displacement, w.sim.SeaLevel, dtYears/1e6, w.crust, w.delta, w.arena, cfg); err != nil {
		return err
	}
	w.delta.Apply(w.crust)

	if err := simulation.SmoothPressure(w.density, w.sim.DiffusionIterations, w.pressure, w.arena); err != nil {
		return err
	}
	simulation.VelocityFromPressure(w.pressure, w.velocity)
	simulation.AngularVelocity(w.velocity, w.angular)

	if w.stepCount%plateCadence == 0 {
		plates, err := simulation.SegmentPlates(w.velocity, w.sim.PlateCount, w.sim.MinPlateSize)
		if err != nil {
			return err
		}
		w.plates = plates
	}

	w.stepCount++
	w.timeYears += dtYears
	return nil
}

// buildIcosphereGrid subdivides an icosahedron and converts its triangle mesh
// into grid adjacency. Driver glue only: the engines take any precomputed
// topology.
func buildIcosphereGrid(subdivisions int) (*core.Grid, error) {
	if subdivisions < 0 || subdivisions > 8 {
		return nil, fmt.Errorf("icosphere level %d out of range [0,8]", subdivisions)
	}

	// Golden ratio icosahedron.
	t := (1.0 + math.Sqrt(5.0)) / 2.0
	positions := []mgl64.Vec3{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}
	indices := []int32{
		0, 11, 5, 0, 5, 1, 0, 1, 7, 0, 7, 10, 0, 10, 11,
		1, 5, 9, 5, 11, 4, 11, 10, 2, 10, 7, 6, 7, 1, 8,
		3, 9, 4, 3, 4, 2, 3, 2, 6, 3, 6, 8, 3, 8, 9,
		4, 9, 5, 2, 4, 11, 6, 2, 10, 8, 6, 7, 9, 8, 1,
	}

	for s := 0; s < subdivisions; s++ {
		positions, indices = subdivide(positions, indices)
	}
	for i := range positions {
		positions[i] = positions[i].Normalize()
	}

	// Each undirected triangle edge becomes two arrows.
	seen := make(map[[2]int32]bool)
	var arrows []core.Arrow
	addEdge := func(a, b int32) {
		key := [2]int32{a, b}
		if a > b {
			key = [2]int32{b, a}
		}
		if seen[key] {
			return
		}
		seen[key] = true
		arrows = append(arrows, core.Arrow{From: a, To: b}, core.Arrow{From: b, To: a})
	}
	for i := 0; i < len(indices); i += 3 {
		addEdge(indices[i], indices[i+1])
		addEdge(indices[i+1], indices[i+2])
		addEdge(indices[i+2], indices[i])
	}

	return core.NewGrid(positions, arrows)
}

// subdivide splits every triangle into four, caching edge midpoints so shared
// edges produce a single new vertex.
func subdivide(positions []mgl64.Vec3, indices []int32) ([]mgl64.Vec3, []int32) {
	midpoints := make(map[[2]int32]int32)
	newPositions := make([]mgl64.Vec3, len(positions))
	copy(newPositions, positions)
	var newIndices []int32

	getMidpoint := func(i1, i2 int32) int32 {
		key := [2]int32{i1, i2}
		if i1 > i2 {
			key = [2]int32{i2, i1}
		}
		if mid, exists := midpoints[key]; exists {
			return mid
		}
		mid := positions[i1].Add(positions[i2]).Mul(0.5)
		newPositions = append(newPositions, mid)
		midpoints[key] = int32(len(newPositions) - 1)
		return midpoints[key]
	}

	for i := 0; i < len(indices); i += 3 {
		v1, v2, v3 := indices[i], indices[i+1], indices[i+2]
		m1 := getMidpoint(v1, v2)
		m2 := getMidpoint(v2, v3)
		m3 := getMidpoint(v3, v1)
		newIndices = append(newIndices, v1, m1, m3, v2, m2, m1, v3, m3, m2, m1, m2, m3)
	}
	return newPositions, newIndices
}

// terrainNoise is a cheap deterministic noise used only to seed the demo
// continents; varied sine products give plausible large-scale blobs.
func terrainNoise(x, y, z float64) float64 {
	n1 := math.Sin(x*3.14159) * math.Cos(y*2.71828) * math.Sin(z*1.41421)
	n2 := math.Sin(x*1.73205) * math.Sin(y*2.23607) * math.Cos(z*3.16227)
	n3 := math.Cos(x*2.44949) * math.Sin(y*1.61803) * math.Sin(z*2.64575)
	return (n1 + n2*0.5 + n3*0.25) / 1.75
}
