// Package postprocess expands the composite placements a trial produced
// back into one placement per original box, using the decomposition map
// preprocess recorded when it built each composite.
package postprocess

import "github.com/piwi3910/containerload/internal/model"

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Expand walks solution with a work queue, popping each placement and, if
// its id is a composite key in hmap, replacing it with one placement per
// child at an absolute position derived from the composite's own placement.
// Children that are themselves composites (a "_H" stacked on a "_W", say)
// are pushed back onto the queue rather than emitted directly. A child id
// is only ever emitted once: if a malformed hmap made the same id reachable
// twice, the first placement found wins.
func Expand(solution []model.Placement, hmap model.DecompositionMap) []model.Placement {
	queue := append([]model.Placement(nil), solution...)
	seen := make(map[model.BoxKey]bool, len(solution))
	var final []model.Placement

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		entries, isComposite := hmap[item.ID]
		if !isComposite {
			if !seen[item.ID] {
				seen[item.ID] = true
				final = append(final, item)
			}
			continue
		}

		suffix := item.ID.CompositeSuffix()
		for _, e := range entries {
			var next model.Placement
			if suffix == "_H" {
				length, width := e.RelL, e.RelW
				if absInt(e.RelL) > absInt(item.L) || absInt(e.RelW) > absInt(item.W) {
					length, width = e.RelW, e.RelL
				}
				if item.W < 0 {
					width = -width
				}
				next = model.Placement{ID: e.Child, X: item.X, Y: item.Y, Z: item.Z + e.RelZ, L: length, W: width, H: e.RelH}
			} else if item.W < 0 {
				if e.RelY > 0 {
					next = model.Placement{ID: e.Child, X: e.RelX + item.X, Y: item.Y - e.RelY, Z: e.RelZ + item.Z, L: e.RelL, W: -e.RelW, H: e.RelH}
				} else {
					next = model.Placement{ID: e.Child, X: e.RelX + item.X, Y: e.RelY + item.Y, Z: e.RelZ + item.Z, L: e.RelL, W: -e.RelW, H: e.RelH}
				}
			} else {
				next = model.Placement{ID: e.Child, X: e.RelX + item.X, Y: e.RelY + item.Y, Z: e.RelZ + item.Z, L: e.RelL, W: e.RelW, H: e.RelH}
			}
			queue = append(queue, next)
		}
	}

	return final
}

// ExpandNotLoaded mirrors Expand for the rejected-box side of a trial: a
// composite that never got placed is broken back down into its original
// constituents so a report can list real box identities instead of a
// synthetic "A/B_H" key.
func ExpandNotLoaded(notLoaded map[model.BoxKey]model.OrientedBox, hmap model.DecompositionMap) map[model.BoxKey]model.OrientedBox {
	out := make(map[model.BoxKey]model.OrientedBox, len(notLoaded))
	var walk func(key model.BoxKey, fallback model.OrientedBox)
	walk = func(key model.BoxKey, fallback model.OrientedBox) {
		entries, isComposite := hmap[key]
		if !isComposite {
			out[key] = fallback
			return
		}
		for _, e := range entries {
			walk(e.Child, model.OrientedBox{L: e.RelL, W: e.RelW, H: e.RelH})
		}
	}
	for key, box := range notLoaded {
		walk(key, box)
	}
	return out
}
