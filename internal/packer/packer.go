// Package packer implements the potential-points placement engine: given a
// sorted box order and a container, it walks the boxes, finds a fitting
// potential point for each, and derives the successor points the placement
// creates.
package packer

import (
	"github.com/piwi3910/containerload/internal/geometry"
	"github.com/piwi3910/containerload/internal/model"
	"github.com/piwi3910/containerload/internal/ordering"
)

// Result is the outcome of a full pack pass: the accepted placements, the
// boxes that found no home, and the surviving PP frontier (useful as a
// checkpoint for a later resume).
type Result struct {
	Solutions []model.Placement
	NotLoaded map[model.BoxKey]model.OrientedBox
	PPs       []model.PotentialPoint
}

// InitialPPs returns the two full-height PPs that seed an empty container:
// one anchored to the left wall, one mirrored against the right wall.
func InitialPPs(c model.Container) []model.PotentialPoint {
	return []model.PotentialPoint{
		{X: 0, Y: 0, Z: 0, L: c.CL, W: c.CW, H: c.CH, Direction: model.DirectionLeft},
		{X: 0, Y: c.CW, Z: 0, L: c.CL, W: -c.CW, H: c.CH, Direction: model.DirectionRight},
	}
}

// Pack places boxes into the container starting from the given PP frontier
// and existing solution set (pass InitialPPs(c) and nil for a fresh trial,
// or a checkpoint's saved frontier/solution to resume one). Boxes that do
// not fit after both the direct pass and the rotated retry pass are
// returned in NotLoaded.
func Pack(boxes []ordering.KeyedBox, c model.Container, s model.LoadSettings, objective model.Objective, pps []model.PotentialPoint, solutions []model.Placement) Result {
	state := &packState{
		c:         c,
		s:         s,
		pps:       append([]model.PotentialPoint(nil), pps...),
		solutions: append([]model.Placement(nil), solutions...),
	}

	notLoaded := make(map[model.BoxKey]model.OrientedBox)
	var retryOrder []model.BoxKey
	for _, kb := range boxes {
		if !state.place(kb.Key, kb.Box, objective, false) {
			notLoaded[kb.Key] = kb.Box
			retryOrder = append(retryOrder, kb.Key)
		}
	}

	// The lateral-support eviction sweep runs before retry, so a box evicted
	// for lack of support is both freed from solutions (no longer a spurious
	// collision obstacle) and made eligible for the rotated retry pass.
	for _, p := range state.resolvePending() {
		notLoaded[p.ID] = model.OrientedBox{L: p.L, W: absInt(p.W), H: p.H}
		retryOrder = append(retryOrder, p.ID)
	}

	// Retry visits boxes in the order they became not-loaded, so a seeded
	// trial is reproducible.
	for _, key := range retryOrder {
		if state.place(key, notLoaded[key], model.ObjectiveMaxFloor, true) {
			delete(notLoaded, key)
		}
	}

	// Retry's own commits can add freshly-elevated placements to pending too;
	// sweep once more so those are evicted exactly like the main pass's were.
	for _, p := range state.resolvePending() {
		notLoaded[p.ID] = model.OrientedBox{L: p.L, W: absInt(p.W), H: p.H}
	}

	return Result{Solutions: state.solutions, NotLoaded: notLoaded, PPs: state.pps}
}

type packState struct {
	c         model.Container
	s         model.LoadSettings
	pps       []model.PotentialPoint
	solutions []model.Placement
	pending   []model.Placement
}

// place tries every candidate PP, in sort_PPs order for the given objective,
// for a single box. When retry is true the box is offered in its rotated
// orientation (L/W swapped); Pack's retry pass calls it with the floor-first
// objective regardless of the trial's real objective, matching the
// reference implementation's retry pass.
func (st *packState) place(key model.BoxKey, box model.OrientedBox, objective model.Objective, retry bool) bool {
	candidates := sortPPs(st.pps, box.L, box.W, objective, st.c.CW)

	for _, pp := range candidates {
		l, w, h := orient(box, pp.Direction, retry)
		if !geometry.Fits(pp, l, w, h) {
			continue
		}

		placement := model.Placement{ID: key, X: pp.X, Y: pp.Y, Z: pp.Z, L: l, W: w, H: h}
		collides := false
		for _, sol := range st.solutions {
			if geometry.PlacementIntersects(placement, sol) {
				collides = true
				break
			}
		}
		if collides {
			continue
		}

		st.commit(pp, placement, box.Stackable)
		return true
	}
	return false
}

// orient derives the (l, w, h) a box occupies at a PP of the given
// direction. In the direct pass the box keeps its preprocessed orientation;
// in the retry pass length and width are swapped.
func orient(box model.OrientedBox, dir model.Direction, retry bool) (l, w, h int) {
	l, w, h = box.L, box.W, box.H
	if retry {
		l, w = box.W, box.L
	}
	if dir == model.DirectionRight {
		w = -w
	}
	return l, w, h
}

// commit removes the chosen PP, appends the placement, and derives its
// front/side/top/corner successor points.
func (st *packState) commit(chosen model.PotentialPoint, p model.Placement, stackable bool) {
	st.pps = removeFirst(st.pps, chosen)
	st.solutions = append(st.solutions, p)

	dir := chosen.Direction
	w := p.W // signed, same sign convention as chosen.W

	front := model.PotentialPoint{X: p.X + p.L, Y: p.Y, Z: p.Z, L: chosen.L - p.L, W: chosen.W, H: chosen.H, Direction: dir}
	side := model.PotentialPoint{X: p.X, Y: p.Y + w, Z: p.Z, L: p.L, W: chosen.W - w, H: chosen.H, Direction: dir}
	top := model.PotentialPoint{X: p.X, Y: p.Y, Z: p.Z + p.H, L: p.L, W: w, H: chosen.H - p.H, Direction: dir}

	merged, absorb := mergeTop(top, st.pps, st.s)
	if absorb >= 0 {
		st.pps = append(st.pps[:absorb:absorb], st.pps[absorb+1:]...)
	}

	st.pps = append(st.pps, front, side)
	if stackable {
		st.pps = append(st.pps, merged)
	}

	absW := absInt(w)
	cw := st.c.CW
	if cw-(p.Y+w) < st.s.RightCornerGap && p.Z == 0 {
		st.pps = append(st.pps, model.PotentialPoint{
			X: p.X + p.L, Y: cw, Z: p.Z, L: st.c.CL - (p.X + p.L), W: -cw, H: chosen.H, Direction: model.DirectionRight,
		})
	}
	if p.Y+w < st.s.RightCornerGap && p.Z == 0 && dir == model.DirectionRight {
		st.pps = append(st.pps, model.PotentialPoint{
			X: p.X + p.L, Y: 0, Z: p.Z, L: st.c.CL - (p.X + p.L), W: cw, H: chosen.H, Direction: model.DirectionLeft,
		})
	}

	if p.Z > 0 && p.L > absW && p.H > absW {
		st.pending = append(st.pending, p)
	}
	st.resolveSupportedPending()
}

// resolveSupportedPending drops placements from the pending list once both
// of their lateral y-faces are supported, leaving only still-unsupported
// ones for the next check (or final rejection).
func (st *packState) resolveSupportedPending() {
	var stillPending []model.Placement
	for _, p := range st.pending {
		if st.hasLateralSupport(p) {
			continue
		}
		stillPending = append(stillPending, p)
	}
	st.pending = stillPending
}

// resolvePending is the end-of-trial sweep: anything still unsupported is
// pulled out of solutions and returned to the caller as not-loaded.
func (st *packState) resolvePending() []model.Placement {
	var rejected []model.Placement
	for _, p := range st.pending {
		if st.hasLateralSupport(p) {
			continue
		}
		rejected = append(rejected, p)
		st.solutions = removePlacement(st.solutions, p)
	}
	st.pending = nil
	return rejected
}

func removePlacement(sols []model.Placement, target model.Placement) []model.Placement {
	for i, s := range sols {
		if s == target {
			return append(sols[:i:i], sols[i+1:]...)
		}
	}
	return sols
}

// hasLateralSupport checks both y-faces of p: a face is supported if it
// abuts a container wall or another placement's opposite face overlaps it
// in both x and z.
func (st *packState) hasLateralSupport(p model.Placement) bool {
	yMin, yMax := p.YMin(), p.YMax()
	cw := st.c.CW

	leftSupported := yMin == 0
	rightSupported := yMax == cw

	for _, other := range st.solutions {
		if other == p {
			continue
		}
		oMin, oMax := other.YMin(), other.YMax()
		overlapXZ := p.X < other.X+other.L && p.X+p.L > other.X && p.Z < other.Z+other.H && p.Z+p.H > other.Z
		if !overlapXZ {
			continue
		}
		if !leftSupported && oMax == yMin {
			leftSupported = true
		}
		if !rightSupported && oMin == yMax {
			rightSupported = true
		}
	}

	return leftSupported && rightSupported
}
