package simulation

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"planetsim/core"
)

const (
	// SimilarityThreshold is the minimum cosine similarity between a cell's
	// velocity and the running region representative for the cell to join a
	// plate during flood fill.
	SimilarityThreshold = 0.95

	// MorphologyRadius is the structuring radius, in mesh hops, used to round
	// plate boundaries after flood fill.
	MorphologyRadius = 5
)

// SegmentPlates partitions a velocity field into rigid-body plate regions.
// Cells start unlabeled (0). Until targetCount plates exist or no unlabeled
// cell remains, the unlabeled cell with the largest velocity (ties broken by
// lowest index) seeds a breadth-first flood fill over mesh adjacency; a
// neighbor joins when the cosine similarity between its vector and the running
// region representative exceeds SimilarityThreshold. Fills smaller than
// minSize are reverted to unlabeled noise and their seed is not retried.
//
// Labels are then cleaned in ascending id order — dilation and closing with
// MorphologyRadius, minus cells already claimed by other plates — so jagged
// boundaries round out without later plates cannibalizing earlier ones. The
// fixed processing order makes the result deterministic: the first-processed
// label wins ties at shared boundaries.
func SegmentPlates(velocity *core.VectorField, targetCount, minSize int) (*core.PlateField, error) {
	if targetCount <= 0 {
		return nil, fmt.Errorf("simulation: target plate count %d must be positive", targetCount)
	}
	if minSize <= 0 {
		return nil, fmt.Errorf("simulation: min plate size %d must be positive", minSize)
	}

	g := velocity.Grid()
	n := g.CellCount()
	labels := core.NewPlateField(g)

	magnitude := make([]float64, n)
	for i := 0; i < n; i++ {
		magnitude[i] = velocity.At(i).Len()
	}

	tried := make([]bool, n)    // seeds whose fill came up short
	visited := make([]bool, n)  // per-fill membership marker
	var queue []int32           // breadth-first worklist, reused across fills
	var region []int32          // cells accepted by the current fill

	nextLabel := int32(1)
	for int(nextLabel)-1 < targetCount {
		seed := selectSeed(labels, magnitude, tried)
		if seed < 0 {
			break
		}

		region = region[:0]
		queue = append(queue[:0], int32(seed))
		visited[seed] = true
		// Running representative: normalized accumulated direction of every
		// accepted cell, starting from the seed.
		acc := velocity.At(seed)
		rep := safeNormalize(acc)

		for len(queue) > 0 {
			cell := queue[0]
			queue = queue[1:]
			region = append(region, cell)

			for _, nb := range g.Neighbors(int(cell)) {
				if visited[nb] || labels.At(int(nb)) != 0 {
					continue
				}
				dir := safeNormalize(velocity.At(int(nb)))
				if dir.Dot(rep) <= SimilarityThreshold {
					continue
				}
				visited[nb] = true
				queue = append(queue, nb)
				acc = acc.Add(velocity.At(int(nb)))
				rep = safeNormalize(acc)
			}
		}

		for _, cell := range region {
			visited[cell] = false
		}
		if len(region) < minSize {
			tried[seed] = true
			continue
		}
		for _, cell := range region {
			labels.Set(int(cell), nextLabel)
		}
		nextLabel++
	}

	cleanBoundaries(labels)
	return labels, nil
}

// selectSeed returns the unlabeled, untried cell with the largest velocity
// magnitude, or -1 when none remains.
func selectSeed(labels *core.PlateField, magnitude []float64, tried []bool) int {
	best := -1
	bestMag := 0.0
	for i := range magnitude {
		if tried[i] || labels.At(i) != 0 {
			continue
		}
		if best < 0 || magnitude[i] > bestMag {
			best = i
			bestMag = magnitude[i]
		}
	}
	return best
}

// cleanBoundaries rounds each plate's outline with binary morphology. Growth
// is masked against cells already claimed by other plates, so it only fills
// unlabeled gaps and smooths the plate's own edge.
func cleanBoundaries(labels *core.PlateField) {
	g := labels.Grid()
	segment := core.NewBoolField(g)
	occupied := core.NewBoolField(g)
	empty := core.NewBoolField(g)

	for id := int32(1); id <= labels.MaxLabel(); id++ {
		segment.EqLabel(labels, id)
		empty.EqLabel(labels, 0)
		occupied.Difference(occupied.NeqLabel(labels, id), empty)

		segment.Dilate(segment, MorphologyRadius)
		segment.Close(segment, MorphologyRadius)
		segment.Difference(segment, occupied)

		// The occupied subtraction leaves only cells that are unlabeled or
		// already carry this id, so the write never steals from other plates.
		for i := 0; i < g.CellCount(); i++ {
			if segment.At(i) {
				labels.Set(i, id)
			}
		}
	}
}

func safeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	if v.Len() == 0 {
		return v
	}
	return v.Normalize()
}
