// Package trial runs the Monte Carlo search: many independent packing
// attempts over the same preprocessed boxes, each with its own random
// orientation and ordering decisions, scored and ranked by the caller's
// chosen objective.
package trial

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"runtime"
	"sort"

	"github.com/piwi3910/containerload/internal/model"
	"github.com/piwi3910/containerload/internal/ordering"
	"github.com/piwi3910/containerload/internal/packer"
	"github.com/piwi3910/containerload/internal/postprocess"
	"golang.org/x/sync/errgroup"
)

// Outcome is one trial's result: its score components and the placements
// and leftover frontier that produced them.
type Outcome struct {
	PctgVolume float64
	PctgFloor  float64
	XAxis      int
	Solution   []model.Placement
	NotLoaded  map[model.BoxKey]model.OrientedBox
	PPs        []model.PotentialPoint
}

// Summary is the result of a full multi-trial run.
type Summary struct {
	AvgVolumePctg float64
	Ranked        []Outcome // trials ordered best-first for the driver's objective
	// NotLoadedForExport always reflects the best-by-volume trial, regardless
	// of the requested objective, matching the reference pipeline's
	// not_loaded.xlsx export.
	NotLoadedForExport map[model.BoxKey]model.OrientedBox
}

// Driver configures and runs a multi-trial search over a fixed, already
// preprocessed box set.
type Driver struct {
	Boxes     []model.Box
	Hmap      model.DecompositionMap
	Container model.Container
	Settings  model.LoadSettings
	Objective model.Objective
	Seed      int64

	// ResumeSolution and ResumePPs seed every trial's starting state
	// (ObjectiveResume); leave nil to start each trial from an empty
	// container.
	ResumeSolution []model.Placement
	ResumePPs      []model.PotentialPoint
}

// Run executes Settings.NumTrials independent trials concurrently and
// returns them ranked for Objective.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	if len(d.Boxes) == 0 {
		return Summary{}, fmt.Errorf("%w: no boxes to pack", model.ErrEmptySolution)
	}

	n := d.Settings.NumTrials
	outcomes := make([]Outcome, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			rng := rand.New(rand.NewSource(d.Seed + int64(i)))
			outcomes[i] = d.runOne(rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	// A trial that placed nothing is logged and dropped from ranking and
	// averaging; the run carries on with the rest.
	kept := make([]Outcome, 0, len(outcomes))
	for i, o := range outcomes {
		if len(o.Solution) == 0 {
			log.Printf("trial %d: %v", i, model.ErrEmptySolution)
			continue
		}
		kept = append(kept, o)
	}

	return d.summarize(kept), nil
}

// runOne executes a single trial: orient, sort, pack, expand, score.
func (d *Driver) runOne(rng *rand.Rand) Outcome {
	keyed := make([]ordering.KeyedBox, len(d.Boxes))
	for i, b := range d.Boxes {
		keyed[i] = ordering.KeyedBox{Key: b.Key, Box: orient(b, d.Container.CW, d.Settings.ForcedLengthGap, d.Settings.PriorityWidthGap, rng)}
	}

	sorted := ordering.Sort(keyed, rng)

	initialPPs := d.ResumePPs
	if initialPPs == nil {
		initialPPs = packer.InitialPPs(d.Container)
	}
	result := packer.Pack(sorted, d.Container, d.Settings, d.Objective, initialPPs, d.ResumeSolution)

	finalSolution := dedup(postprocess.Expand(result.Solutions, d.Hmap))
	notLoaded := postprocess.ExpandNotLoaded(result.NotLoaded, d.Hmap)

	return score(finalSolution, notLoaded, result.PPs, d.Container)
}

func dedup(placements []model.Placement) []model.Placement {
	seen := make(map[model.BoxKey]bool, len(placements))
	out := make([]model.Placement, 0, len(placements))
	for _, p := range placements {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}

// score computes the percentage of floor area used, percentage of volume
// used, and the x-extent of the loaded solution.
func score(solution []model.Placement, notLoaded map[model.BoxKey]model.OrientedBox, pps []model.PotentialPoint, c model.Container) Outcome {
	var usedFloor, usedVolume, xAxis int
	for _, p := range solution {
		w := p.W
		if w < 0 {
			w = -w
		}
		if p.Z == 0 {
			usedFloor += p.L * w
		}
		usedVolume += p.L * w * p.H
		if end := p.X + p.L; end > xAxis {
			xAxis = end
		}
	}

	return Outcome{
		PctgVolume: float64(usedVolume) / float64(c.CL*c.CW*c.CH) * 100,
		PctgFloor:  float64(usedFloor) / float64(c.CL*c.CW) * 100,
		XAxis:      xAxis,
		Solution:   solution,
		NotLoaded:  notLoaded,
		PPs:        pps,
	}
}

// orient assigns a per-trial orientation and priority to a box. A box that
// can span the container's full width in one direction is forced into that
// orientation (priority 2); everything else gets a 50/50 random
// orientation. A second pass then bumps any box whose final width leaves
// less than PriorityWidthGap of clearance to priority 1.
func orient(b model.Box, cw, forcedGap, priorityGap int, rng *rand.Rand) model.OrientedBox {
	l, w, h := b.L, b.W, b.H

	fixed := false
	if l > cw || (cw-w >= 0 && cw-w < forcedGap) {
		fixed = true
	}
	if w > cw || (cw-l >= 0 && cw-l < forcedGap) {
		l, w = w, l
		fixed = true
	}
	if !fixed && rng.Float64() < 0.5 {
		l, w = w, l
	}

	priority := 2
	if cw-w < priorityGap {
		priority = 1
	}

	return model.OrientedBox{L: l, W: w, H: h, Priority: priority, Stackable: b.Stackable}
}

// summarize ranks outcomes for the driver's objective and computes the
// always-by-volume average and not-loaded export.
func (d *Driver) summarize(outcomes []Outcome) Summary {
	ranked := append([]Outcome(nil), outcomes...)

	switch d.Objective {
	case model.ObjectiveMaxFloor:
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].PctgFloor != ranked[j].PctgFloor {
				return ranked[i].PctgFloor > ranked[j].PctgFloor
			}
			return ranked[i].PctgVolume > ranked[j].PctgVolume
		})
	case model.ObjectiveMinXAxis, model.ObjectiveResume:
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].XAxis != ranked[j].XAxis {
				return ranked[i].XAxis < ranked[j].XAxis
			}
			return ranked[i].PctgFloor > ranked[j].PctgFloor
		})
	default: // ObjectiveMaxVolume
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].PctgVolume != ranked[j].PctgVolume {
				return ranked[i].PctgVolume > ranked[j].PctgVolume
			}
			return ranked[i].PctgFloor > ranked[j].PctgFloor
		})
	}

	if len(ranked) > d.Settings.ShownSolutions {
		ranked = ranked[:d.Settings.ShownSolutions]
	}

	byVolume := append([]Outcome(nil), outcomes...)
	sort.SliceStable(byVolume, func(i, j int) bool {
		if byVolume[i].PctgVolume != byVolume[j].PctgVolume {
			return byVolume[i].PctgVolume > byVolume[j].PctgVolume
		}
		return byVolume[i].PctgFloor > byVolume[j].PctgFloor
	})

	var sumVolume float64
	for _, o := range outcomes {
		sumVolume += o.PctgVolume
	}

	var notLoadedForExport map[model.BoxKey]model.OrientedBox
	if len(byVolume) > 0 {
		notLoadedForExport = byVolume[0].NotLoaded
	}

	return Summary{
		AvgVolumePctg:      sumVolume / float64(len(outcomes)),
		Ranked:             ranked,
		NotLoadedForExport: notLoadedForExport,
	}
}
