// Package model holds the core data types shared across the container-loading
// pipeline: boxes as read from the input table, the packer's oriented-box and
// potential-point representations, placements, and the settings that drive a
// load.
package model

import "fmt"

// Direction tags which wall a potential point (or a placement's signed width)
// is anchored against. It replaces a bare string field per the "prefer tagged
// variants for PP direction" redesign note.
type Direction int

const (
	DirectionLeft Direction = iota
	DirectionRight
)

// String renders the literal values used by the checkpoint JSON schema.
func (d Direction) String() string {
	if d == DirectionRight {
		return "right"
	}
	return "left"
}

// ParseDirection parses the checkpoint JSON schema's literal strings.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "left":
		return DirectionLeft, nil
	case "right":
		return DirectionRight, nil
	default:
		return DirectionLeft, fmt.Errorf("%w: unknown direction %q", ErrCheckpointIO, s)
	}
}

// BoxKey is the composite identity of an input box: shipment-item code and
// shipment code. Composite boxes carry a Partida that is a "/"-joined chain
// of source Partidas with a "_H" or "_W" suffix.
type BoxKey struct {
	Partida    string
	Expedicion string
}

func (k BoxKey) String() string {
	return k.Partida + "/" + k.Expedicion
}

// CompositeSuffix returns "_H", "_W", or "" depending on the trailing marker
// left on Partida by the preprocessor's merge step.
func (k BoxKey) CompositeSuffix() string {
	if len(k.Partida) < 2 {
		return ""
	}
	tail := k.Partida[len(k.Partida)-2:]
	if tail == "_H" || tail == "_W" {
		return tail
	}
	return ""
}

// Box is a single input row: a shipment item with physical dimensions,
// stackability, and shipment metadata carried through for the unloaded-box
// report.
type Box struct {
	Key BoxKey

	L, W, H int // centimetres
	WeightKg int
	Stackable bool
	Priority  int // 1 (preferred) or 2 (default); set by the RCH driver, not the table

	Volumen              float64
	CodigoViaje           string
	FechaCargaContenedor  string
	FechaEntradaAlmacen   string
	TipoPartida           string
}

// Volume returns L*W*H in cubic centimetres.
func (b Box) Volume() int {
	return b.L * b.W * b.H
}

// OrientedBox is the packer's input shape: dimensions already oriented
// (length decided per the forced/random orientation rule), plus priority and
// stackability. It carries no identity of its own; the caller threads the key
// alongside it.
type OrientedBox struct {
	L, W, H   int
	Priority  int
	Stackable bool
}

// Container is the fixed loading volume.
type Container struct {
	CL, CW, CH int
}

// DefaultContainer returns the reference container dimensions.
func DefaultContainer() Container {
	return Container{CL: 1350, CW: 246, CH: 259}
}

// Placement fixes a box (or, before postprocessing, a composite box) at a
// corner in container coordinates. W may be negative: the box occupies y
// down to y+w, denoting right-wall anchoring. That sign is the sole indicator
// of anchoring — there is no separate flag.
type Placement struct {
	ID         BoxKey
	X, Y, Z    int
	L, W, H    int
}

// YMin and YMax normalize the signed width into an ordinary [min,max] span.
func (p Placement) YMin() int {
	if p.W < 0 {
		return p.Y + p.W
	}
	return p.Y
}

func (p Placement) YMax() int {
	if p.W < 0 {
		return p.Y
	}
	return p.Y + p.W
}

// Volume returns l*|w|*h.
func (p Placement) Volume() int {
	w := p.W
	if w < 0 {
		w = -w
	}
	return p.L * w * p.H
}

// Footprint returns l*|w|, the floor area the placement occupies.
func (p Placement) Footprint() int {
	w := p.W
	if w < 0 {
		w = -w
	}
	return p.L * w
}

// PotentialPoint is a free cuboid region: near-corner (x,y,z), available
// extents (l, |w|, h) grown in the direction's sense, tagged with which wall
// it is anchored against.
type PotentialPoint struct {
	X, Y, Z   int
	L, W, H   int
	Direction Direction
}

// DecompositionEntry records one child's placement relative to its parent
// composite's reference corner, as recorded by the preprocessor.
type DecompositionEntry struct {
	Child            BoxKey
	RelX, RelY, RelZ int
	RelL, RelW, RelH int
}

// DecompositionMap maps a composite box's key to its ordered children.
type DecompositionMap map[BoxKey][]DecompositionEntry

// LoadSettings holds the tunable constants that govern a load. Defaults
// mirror the reference implementation's hardcoded values exactly.
type LoadSettings struct {
	Container Container

	LengthTolerance     int // _W merge width gap to CW and length closeness, cm
	HeightTolerance      int // _W merge height closeness, cm
	VolumetricTolerance  int // pallet-normalization / _H merge closeness, cm

	PalletLength int
	PalletWidth  int

	PriorityWidthGap int // CW - W < this => priority 1
	ForcedLengthGap  int // CW - dimension < this => force into L
	RightCornerGap   int // CW - (y+w) < this => emit right-corner PP
	SupportGapX      int // x-adjacent merge z-tolerance
	SupportGapY      int // y-adjacent merge z-tolerance
	AdjacentGap      int // x2-(x1+l1) < this, y2-(y1+w1) < this

	EnableHorizontalMerge bool

	NumTrials      int
	ShownSolutions int

	Objective Objective
}

// Objective selects which score the trial driver optimizes.
type Objective int

const (
	ObjectiveMaxVolume Objective = 1
	ObjectiveMinXAxis  Objective = 2
	ObjectiveMaxFloor  Objective = 3
	ObjectiveResume    Objective = 4
)

// DefaultSettings returns the reference configuration constants.
func DefaultSettings() LoadSettings {
	return LoadSettings{
		Container:             DefaultContainer(),
		LengthTolerance:       8,
		HeightTolerance:       15,
		VolumetricTolerance:   25,
		PalletLength:          120,
		PalletWidth:           80,
		PriorityWidthGap:      15,
		ForcedLengthGap:       8,
		RightCornerGap:        30,
		SupportGapX:           6,
		SupportGapY:           7,
		AdjacentGap:           6,
		EnableHorizontalMerge: false,
		NumTrials:             15000,
		ShownSolutions:        5,
		Objective:             ObjectiveMaxVolume,
	}
}

// Result is one trial's packing outcome.
type Result struct {
	Solution   []Placement
	NotLoaded  map[BoxKey]Box
	PPs        []PotentialPoint
	PctgVolume float64
	PctgFloor  float64
	XAxis      int
}
