// Package ordering implements the sorter: boxes are ordered by priority then
// volume, with controlled pairwise randomization to diversify trials.
package ordering

import (
	"math/rand"
	"sort"

	"github.com/piwi3910/containerload/internal/model"
)

// KeyedBox pairs a box's identity with its packer-ready oriented dimensions.
type KeyedBox struct {
	Key model.BoxKey
	Box model.OrientedBox
}

func volume(b model.OrientedBox) int {
	return b.L * b.W * b.H
}

// Sort orders boxes by priority descending (1 before 2) and volume
// descending, then walks the result in steps of two: for each adjacent pair
// with equal priority and a volume ratio in [0.7, 1.3], swaps them with
// probability 0.5. rng drives the swap decisions, so a trial run is
// deterministic given a seeded source.
func Sort(boxes []KeyedBox, rng *rand.Rand) []KeyedBox {
	ordered := make([]KeyedBox, len(boxes))
	copy(ordered, boxes)

	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := ordered[i].Box.Priority, ordered[j].Box.Priority
		if pi != pj {
			return pi < pj // priority 1 sorts before priority 2 ("ascending" = preferred first)
		}
		return volume(ordered[i].Box) > volume(ordered[j].Box)
	})

	for i := 0; i+1 < len(ordered); i += 2 {
		a, b := ordered[i], ordered[i+1]
		if a.Box.Priority != b.Box.Priority {
			continue
		}
		volA, volB := volume(a.Box), volume(b.Box)
		if volB == 0 {
			continue
		}
		ratio := float64(volA) / float64(volB)
		if ratio < 0.7 || ratio > 1.3 {
			continue
		}
		if rng.Float64() < 0.5 {
			ordered[i], ordered[i+1] = b, a
		}
	}

	return ordered
}
