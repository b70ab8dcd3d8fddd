// Package preprocess merges compatible small boxes into composite
// super-boxes before packing, and records how to decompose them again once a
// trial has placed the composite.
//
// Two merge shapes exist: vertical ("_H", one box stacked on another) and
// horizontal ("_W", boxes sitting side by side to fill the container width,
// either as a pair or, failing that, a same-length triple). Horizontal merge
// is implemented but disabled by default — see
// LoadSettings.EnableHorizontalMerge — mirroring the commented-out block in
// the reference implementation.
package preprocess

import (
	"fmt"
	"sort"

	"github.com/piwi3910/containerload/internal/model"
)

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func maxStr(a, b string) string {
	if b > a {
		return b
	}
	return a
}

// normalizePallets snaps any pallet-sized box to the standard (120, 80)
// footprint, within the configured volumetric tolerance.
func normalizePallets(boxes []model.Box, s model.LoadSettings) {
	tol := s.VolumetricTolerance
	for i := range boxes {
		b := &boxes[i]
		if s.PalletLength-tol < b.L && b.L < s.PalletLength+tol &&
			s.PalletWidth-tol < b.W && b.W < s.PalletWidth+tol {
			b.L = s.PalletLength
			b.W = s.PalletWidth
		}
	}
}

// validate rejects boxes that cannot possibly be loaded: non-positive
// dimensions, or a height exceeding the container.
func validate(boxes []model.Box, s model.LoadSettings) error {
	for _, b := range boxes {
		if b.L <= 0 || b.W <= 0 || b.H <= 0 {
			return fmt.Errorf("%w: box %s has non-positive dimension (%d,%d,%d)", model.ErrInvalidInput, b.Key, b.L, b.W, b.H)
		}
		if b.H > s.Container.CH {
			return fmt.Errorf("%w: box %s height %d exceeds container height %d", model.ErrInvalidInput, b.Key, b.H, s.Container.CH)
		}
	}
	return nil
}

// Preprocess runs pallet normalization followed by vertical and (if enabled)
// horizontal merging, returning the resulting box set and the decomposition
// map needed to expand composites back into individual placements.
func Preprocess(boxes []model.Box, s model.LoadSettings) ([]model.Box, model.DecompositionMap, error) {
	if err := validate(boxes, s); err != nil {
		return nil, nil, err
	}

	working := make([]model.Box, len(boxes))
	copy(working, boxes)
	normalizePallets(working, s)

	hmap := model.DecompositionMap{}

	working = mergeVertical(working, s, hmap)
	if s.EnableHorizontalMerge {
		working = mergeHorizontal(working, s, hmap)
		working = mergeTriple(working, s, hmap)
	}

	return working, hmap, nil
}

// mergeVertical implements the "_H" stacking merge: greedy, first-match, at
// most one merge per source box per pass.
func mergeVertical(boxes []model.Box, s model.LoadSettings, hmap model.DecompositionMap) []model.Box {
	combined := make(map[int]bool, len(boxes))
	var out []model.Box

	for i := 0; i < len(boxes); i++ {
		if combined[i] {
			continue
		}
		merged := false
		for j := i + 1; j < len(boxes); j++ {
			if combined[j] {
				continue
			}
			b1, b2 := boxes[i], boxes[j]

			if b1.Stackable &&
				abs(b1.L-b2.L) < s.VolumetricTolerance &&
				abs(b1.W-b2.W) < s.VolumetricTolerance &&
				b1.H+b2.H < s.Container.CH {
				out = append(out, composeVertical(b1, b2, hmap))
				combined[i], combined[j] = true, true
				merged = true
				break
			}

			if b2.Stackable &&
				abs(b1.L-b2.L) < s.VolumetricTolerance &&
				abs(b1.W-b2.W) < s.VolumetricTolerance &&
				b1.H+b2.H < s.Container.CH {
				out = append(out, composeVertical(b2, b1, hmap))
				combined[i], combined[j] = true, true
				merged = true
				break
			}
		}
		if !merged && !combined[i] {
			out = append(out, boxes[i])
		}
	}
	return out
}

// composeVertical builds the composite box for "lower" (on the floor) and
// "upper" (stacked on top), recording the hmap entry for postprocessing.
func composeVertical(lower, upper model.Box, hmap model.DecompositionMap) model.Box {
	key := model.BoxKey{
		Partida:    lower.Key.Partida + "/" + upper.Key.Partida + "_H",
		Expedicion: lower.Key.Expedicion,
	}

	composite := model.Box{
		Key:                  key,
		L:                    maxInt(lower.L, upper.L),
		W:                    maxInt(lower.W, upper.W),
		H:                    lower.H + upper.H,
		WeightKg:             lower.WeightKg + upper.WeightKg,
		Stackable:            upper.Stackable,
		Volumen:              lower.Volumen + upper.Volumen,
		CodigoViaje:          lower.CodigoViaje,
		FechaCargaContenedor: maxStr(lower.FechaCargaContenedor, upper.FechaCargaContenedor),
		FechaEntradaAlmacen:  maxStr(lower.FechaEntradaAlmacen, upper.FechaEntradaAlmacen),
		TipoPartida:          lower.TipoPartida,
	}

	hmap[key] = []model.DecompositionEntry{
		{Child: lower.Key, RelX: 0, RelY: 0, RelZ: 0, RelL: lower.L, RelW: lower.W, RelH: lower.H},
		{Child: upper.Key, RelX: 0, RelY: 0, RelZ: lower.H, RelL: upper.L, RelW: upper.W, RelH: upper.H},
	}

	return composite
}

func maxInt(a, b int) int {
	if b > a {
		return b
	}
	return a
}

// mergeHorizontal implements the "_W" side-by-side merge across all four
// width/length pairings that can sum to the container width, matching the
// commented-out block in the reference implementation's join_box.
func mergeHorizontal(boxes []model.Box, s model.LoadSettings, hmap model.DecompositionMap) []model.Box {
	combined := make(map[int]bool, len(boxes))
	var out []model.Box

	type pairing struct {
		dim1, dim2 func(model.Box) int // the two edges summed against CW
		ortho1, ortho2 func(model.Box) int
	}
	wLen := func(b model.Box) int { return b.W }
	lLen := func(b model.Box) int { return b.L }

	pairings := []pairing{
		{wLen, wLen, lLen, lLen},
		{wLen, lLen, lLen, wLen},
		{lLen, wLen, wLen, lLen},
		{lLen, lLen, wLen, wLen},
	}

	for i := 0; i < len(boxes); i++ {
		if combined[i] {
			continue
		}
		merged := false
		for j := i + 1; j < len(boxes) && !merged; j++ {
			if combined[j] {
				continue
			}
			b1, b2 := boxes[i], boxes[j]

			for _, p := range pairings {
				total := p.dim1(b1) + p.dim2(b2)
				gap := s.Container.CW - total
				if gap < 0 || gap >= s.LengthTolerance {
					continue
				}
				if abs(p.ortho1(b1)-p.ortho2(b2)) >= s.LengthTolerance {
					continue
				}
				if abs(b1.H-b2.H) >= s.HeightTolerance {
					continue
				}

				out = append(out, composeHorizontal(b1, b2, p.dim1(b1), p.dim2(b2), hmap))
				combined[i], combined[j] = true, true
				merged = true
				break
			}
		}
		if !merged && !combined[i] {
			out = append(out, boxes[i])
		}
	}
	return out
}

// mergeTriple implements the "_W" three-box combination merge: boxes are
// grouped by exact length, and every 3-combination within a group whose
// widths sum close to the container width is collapsed into one composite.
// Only boxes that are not themselves the product of an earlier merge are
// eligible, matching the reference implementation's hmap-membership check.
// Like the pairwise case this is part of the commented-out block in the
// reference implementation's join_box, so it is gated behind the same
// EnableHorizontalMerge toggle.
func mergeTriple(boxes []model.Box, s model.LoadSettings, hmap model.DecompositionMap) []model.Box {
	groups := make(map[int][]int) // length -> indices into boxes
	for i, b := range boxes {
		groups[b.L] = append(groups[b.L], i)
	}

	lengths := make([]int, 0, len(groups))
	for l := range groups {
		lengths = append(lengths, l)
	}
	sort.Ints(lengths)

	combined := make(map[int]bool, len(boxes))
	var out []model.Box

	for _, l := range lengths {
		indices := groups[l]
		for a := 0; a < len(indices); a++ {
			for b := a + 1; b < len(indices); b++ {
				for c := b + 1; c < len(indices); c++ {
					i1, i2, i3 := indices[a], indices[b], indices[c]
					if combined[i1] || combined[i2] || combined[i3] {
						continue
					}
					b1, b2, b3 := boxes[i1], boxes[i2], boxes[i3]
					if isComposite(b1, hmap) || isComposite(b2, hmap) || isComposite(b3, hmap) {
						continue
					}

					if abs(b1.H-b2.H) > s.HeightTolerance ||
						abs(b1.H-b3.H) > s.HeightTolerance ||
						abs(b2.H-b3.H) > s.HeightTolerance {
						continue
					}

					totalWidth := b1.W + b2.W + b3.W
					gap := s.Container.CW - totalWidth
					if gap <= 0 || gap >= s.LengthTolerance {
						continue
					}

					out = append(out, composeTriple(b1, b2, b3, hmap))
					combined[i1], combined[i2], combined[i3] = true, true, true
				}
			}
		}
	}

	for i, b := range boxes {
		if !combined[i] {
			out = append(out, b)
		}
	}
	return out
}

func isComposite(b model.Box, hmap model.DecompositionMap) bool {
	_, ok := hmap[b.Key]
	return ok
}

func composeTriple(b1, b2, b3 model.Box, hmap model.DecompositionMap) model.Box {
	key := model.BoxKey{
		Partida:    b1.Key.Partida + "/" + b2.Key.Partida + "/" + b3.Key.Partida + "_W",
		Expedicion: b1.Key.Expedicion,
	}

	composite := model.Box{
		Key:                  key,
		L:                    maxInt(b1.L, maxInt(b2.L, b3.L)),
		W:                    b1.W + b2.W + b3.W,
		H:                    maxInt(b1.H, maxInt(b2.H, b3.H)),
		WeightKg:             b1.WeightKg + b2.WeightKg + b3.WeightKg,
		Stackable:            b1.Stackable && b2.Stackable && b3.Stackable,
		Volumen:              b1.Volumen + b2.Volumen + b3.Volumen,
		CodigoViaje:          b1.CodigoViaje,
		FechaCargaContenedor: maxStr(maxStr(b1.FechaCargaContenedor, b2.FechaCargaContenedor), b3.FechaCargaContenedor),
		FechaEntradaAlmacen:  maxStr(maxStr(b1.FechaEntradaAlmacen, b2.FechaEntradaAlmacen), b3.FechaEntradaAlmacen),
		TipoPartida:          b1.TipoPartida,
	}

	hmap[key] = []model.DecompositionEntry{
		{Child: b1.Key, RelX: 0, RelY: 0, RelZ: 0, RelL: b1.L, RelW: b1.W, RelH: b1.H},
		{Child: b2.Key, RelX: 0, RelY: b1.W, RelZ: 0, RelL: b2.L, RelW: b2.W, RelH: b2.H},
		{Child: b3.Key, RelX: 0, RelY: b1.W + b2.W, RelZ: 0, RelL: b3.L, RelW: b3.W, RelH: b3.H},
	}

	return composite
}

func composeHorizontal(b1, b2 model.Box, b1Width, b2Width int, hmap model.DecompositionMap) model.Box {
	key := model.BoxKey{
		Partida:    b1.Key.Partida + "/" + b2.Key.Partida + "_W",
		Expedicion: b1.Key.Expedicion,
	}

	composite := model.Box{
		Key:                  key,
		L:                    b1Width + b2Width,
		W:                    maxInt(b1.L, b2.L),
		H:                    maxInt(b1.H, b2.H),
		WeightKg:             b1.WeightKg + b2.WeightKg,
		Stackable:            b1.Stackable && b2.Stackable,
		Volumen:              b1.Volumen + b2.Volumen,
		CodigoViaje:          b1.CodigoViaje,
		FechaCargaContenedor: maxStr(b1.FechaCargaContenedor, b2.FechaCargaContenedor),
		FechaEntradaAlmacen:  maxStr(b1.FechaEntradaAlmacen, b2.FechaEntradaAlmacen),
		TipoPartida:          b1.TipoPartida,
	}

	hmap[key] = []model.DecompositionEntry{
		{Child: b1.Key, RelX: 0, RelY: 0, RelZ: 0, RelL: b1.L, RelW: b1.W, RelH: b1.H},
		{Child: b2.Key, RelX: 0, RelY: b1Width, RelZ: 0, RelL: b2.L, RelW: b2.W, RelH: b2.H},
	}

	return composite
}
