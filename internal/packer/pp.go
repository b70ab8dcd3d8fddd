package packer

import (
	"sort"

	"github.com/piwi3910/containerload/internal/model"
)

// ppScore mirrors sort_PPs' coverage computation. coverage is the percentage
// of the PP's footprint the candidate box would cover; support is always 1 —
// the reference implementation computes a wall/neighbor support score here
// but never uses it for anything beyond this additive constant, and that is
// preserved verbatim (see DESIGN.md Open Questions).
func ppScore(pp model.PotentialPoint, boxL, boxW, cw int) (coverage float64, ppType int) {
	boxArea := boxL * boxW
	ppArea := pp.L * pp.W
	if ppArea < 0 {
		ppArea = -ppArea
	}
	const support = 1
	if ppArea > 0 {
		coverage = float64(boxArea)/float64(ppArea)*100 + support
	} else {
		coverage = support
	}

	if pp.Y == 0 || pp.Y == cw || cw-(pp.Y+boxW) < 6 {
		ppType = 1
	}
	return coverage, ppType
}

// sortPPs returns a new, stably-ordered copy of pps ranked for the given box
// and objective. For ObjectiveMaxFloor, ties on wall-adjacency favor lower z;
// otherwise they favor higher coverage minus the PP's length (a bias toward
// tight-fit PPs).
func sortPPs(pps []model.PotentialPoint, boxL, boxW int, objective model.Objective, cw int) []model.PotentialPoint {
	type scored struct {
		pp       model.PotentialPoint
		coverage float64
		ppType   int
	}

	entries := make([]scored, len(pps))
	for i, pp := range pps {
		coverage, ppType := ppScore(pp, boxL, boxW, cw)
		entries[i] = scored{pp: pp, coverage: coverage, ppType: ppType}
	}

	if objective == model.ObjectiveMaxFloor {
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].ppType != entries[j].ppType {
				return entries[i].ppType > entries[j].ppType
			}
			return entries[i].pp.Z < entries[j].pp.Z
		})
	} else {
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].ppType != entries[j].ppType {
				return entries[i].ppType > entries[j].ppType
			}
			keyI := entries[i].coverage - float64(entries[i].pp.L)
			keyJ := entries[j].coverage - float64(entries[j].pp.L)
			return keyI > keyJ
		})
	}

	out := make([]model.PotentialPoint, len(entries))
	for i, e := range entries {
		out[i] = e.pp
	}
	return out
}

// removeFirst removes the first PP equal to target, returning the remaining
// slice. PPs are plain value types; equality by value is exactly the
// reference implementation's list.remove semantics.
func removeFirst(pps []model.PotentialPoint, target model.PotentialPoint) []model.PotentialPoint {
	for i, pp := range pps {
		if pp == target {
			return append(pps[:i:i], pps[i+1:]...)
		}
	}
	return pps
}

// mergeTop scans pps for the first adjacency match against a freshly-split
// top PP and, if found, returns the merged PP and the index of the PP it
// absorbed (-1 if no merge applies).
func mergeTop(top model.PotentialPoint, pps []model.PotentialPoint, s model.LoadSettings) (model.PotentialPoint, int) {
	for i, other := range pps {
		// x-adjacent, same y, near-equal z.
		if other.X < top.X && other.Y == top.Y && absInt(other.Z-top.Z) < s.SupportGapX && top.X-(other.X+other.L) < s.AdjacentGap {
			w := other.W
			if other.Direction == model.DirectionLeft {
				w = minInt(other.W, top.W)
			} else {
				w = maxInt(other.W, top.W)
			}
			merged := model.PotentialPoint{
				X: other.X, Y: other.Y, Z: other.Z,
				L: other.L + top.L, W: w, H: other.H,
				Direction: other.Direction,
			}
			return merged, i
		}

		// y-adjacent, same x, near-equal z.
		if other.X == top.X && other.Y < top.Y && absInt(other.Z-top.Z) < s.SupportGapY && top.Y-(other.Y+other.W) < s.AdjacentGap {
			// NOTE: the reference implementation computes w1+w1 here, not
			// w1+w2 — an apparent typo preserved literally per spec.
			merged := model.PotentialPoint{
				X: other.X, Y: other.Y, Z: other.Z,
				L: minInt(other.L, top.L), W: other.W + other.W, H: other.H,
				Direction: other.Direction,
			}
			return merged, i
		}
	}
	return top, -1
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
