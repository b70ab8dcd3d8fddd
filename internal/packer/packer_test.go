package packer

import (
	"testing"

	"github.com/piwi3910/containerload/internal/model"
	"github.com/piwi3910/containerload/internal/ordering"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kb(partida string, l, w, h, priority int, stackable bool) ordering.KeyedBox {
	return ordering.KeyedBox{
		Key: model.BoxKey{Partida: partida, Expedicion: "E1"},
		Box: model.OrientedBox{L: l, W: w, H: h, Priority: priority, Stackable: stackable},
	}
}

func TestPack_PlacesSingleBoxAtOrigin(t *testing.T) {
	c := model.Container{CL: 100, CW: 100, CH: 100}
	s := model.DefaultSettings()
	boxes := []ordering.KeyedBox{kb("A", 20, 20, 20, 1, true)}

	result := Pack(boxes, c, s, model.ObjectiveMaxVolume, InitialPPs(c), nil)

	require.Empty(t, result.NotLoaded)
	require.Len(t, result.Solutions, 1)
	assert.Equal(t, 0, result.Solutions[0].X)
	assert.Equal(t, 0, result.Solutions[0].Z)
}

func TestPack_RejectsBoxLargerThanContainer(t *testing.T) {
	c := model.Container{CL: 100, CW: 100, CH: 100}
	s := model.DefaultSettings()
	boxes := []ordering.KeyedBox{kb("A", 200, 20, 20, 1, true)}

	result := Pack(boxes, c, s, model.ObjectiveMaxVolume, InitialPPs(c), nil)

	assert.Empty(t, result.Solutions)
	_, notLoaded := result.NotLoaded[model.BoxKey{Partida: "A", Expedicion: "E1"}]
	assert.True(t, notLoaded)
}

func TestPack_SecondBoxUsesFrontPP(t *testing.T) {
	// Container height equals the box height so no usable top PP is ever
	// created, forcing the second box to land via the front PP instead of
	// stacking.
	c := model.Container{CL: 100, CW: 100, CH: 20}
	s := model.DefaultSettings()
	boxes := []ordering.KeyedBox{
		kb("A", 30, 100, 20, 1, false),
		kb("B", 30, 100, 20, 1, false),
	}

	result := Pack(boxes, c, s, model.ObjectiveMaxVolume, InitialPPs(c), nil)

	require.Empty(t, result.NotLoaded)
	require.Len(t, result.Solutions, 2)

	byX := map[int]bool{}
	for _, p := range result.Solutions {
		byX[p.X] = true
	}
	assert.True(t, byX[0])
	assert.True(t, byX[30])
}

func TestPack_RetryRotatesBoxThatOnlyFitsSideways(t *testing.T) {
	c := model.Container{CL: 100, CW: 50, CH: 50}
	s := model.DefaultSettings()
	// W=60 exceeds CW=50 directly, but fits once length and width swap.
	boxes := []ordering.KeyedBox{kb("A", 40, 60, 10, 1, true)}

	result := Pack(boxes, c, s, model.ObjectiveMaxVolume, InitialPPs(c), nil)

	require.Empty(t, result.NotLoaded)
	require.Len(t, result.Solutions, 1)
	placed := result.Solutions[0]
	assert.Equal(t, 60, placed.L)
	assert.Equal(t, 40, absInt(placed.W))
}

func TestPack_ElevatedUnsupportedBoxIsRetriedAndRescued(t *testing.T) {
	// Tower's only fit on the initial pass is stacked on Floor's top PP,
	// where it has only one supported y-face and is evicted by the
	// lateral-support sweep. Because eviction now runs before retry, Tower
	// is offered the rotated retry attempt and lands on the shelf its own
	// evicted placement vacated (still resting on Floor, just shifted over).
	c := model.Container{CL: 100, CW: 100, CH: 100}
	s := model.DefaultSettings()
	boxes := []ordering.KeyedBox{
		kb("Floor", 100, 100, 20, 1, true),
		kb("Tower", 20, 10, 50, 2, false),
	}

	result := Pack(boxes, c, s, model.ObjectiveMaxVolume, InitialPPs(c), nil)

	towerKey := model.BoxKey{Partida: "Tower", Expedicion: "E1"}
	require.Empty(t, result.NotLoaded, "the rotated retry attempt must rescue Tower")

	var towerPlacement *model.Placement
	for i, sol := range result.Solutions {
		if sol.ID == towerKey {
			towerPlacement = &result.Solutions[i]
		}
	}
	require.NotNil(t, towerPlacement, "Tower must appear in Solutions")
	assert.Equal(t, 20, towerPlacement.Z, "Tower still rests on Floor's top, just shifted to the adjacent PP")
}

func TestPack_PendingEvictedBoxGetsRetriedRotated(t *testing.T) {
	// Tower's best-scoring PP on the initial pass is stacked on Floor's top
	// PP (CL is wide enough that the floor-level front PP scores worse than
	// the top PP, per the coverage formula), where it ends up unsupported on
	// one y-face and is evicted by the lateral-support sweep. The eviction
	// must happen before retry runs, both so Tower stops blocking the spot
	// it vacated and so it is actually offered the rotated retry attempt,
	// where it fits on the floor beside Floor.
	c := model.Container{CL: 220, CW: 100, CH: 100}
	s := model.DefaultSettings()
	boxes := []ordering.KeyedBox{
		kb("Floor", 100, 100, 20, 1, true),
		kb("Tower", 20, 10, 50, 2, false),
	}

	result := Pack(boxes, c, s, model.ObjectiveMaxVolume, InitialPPs(c), nil)

	towerKey := model.BoxKey{Partida: "Tower", Expedicion: "E1"}
	require.Empty(t, result.NotLoaded, "Tower must be rescued by the rotated retry pass, not left not-loaded")

	var towerPlacement *model.Placement
	for i, sol := range result.Solutions {
		if sol.ID == towerKey {
			towerPlacement = &result.Solutions[i]
		}
	}
	require.NotNil(t, towerPlacement, "Tower must appear in Solutions")
	assert.Equal(t, 0, towerPlacement.Z, "the rescued placement must land on the floor, not stay stacked")
	assert.Equal(t, 10, towerPlacement.L)
	assert.Equal(t, 20, absInt(towerPlacement.W))
}

func TestPack_EveryBoxIsEitherPlacedOrNotLoadedExactlyOnce(t *testing.T) {
	c := model.Container{CL: 100, CW: 100, CH: 100}
	s := model.DefaultSettings()
	boxes := []ordering.KeyedBox{
		kb("Floor", 100, 100, 20, 1, true),
		kb("Pillar1", 20, 10, 50, 2, false),
		kb("Pillar2", 20, 10, 50, 2, false),
	}

	result := Pack(boxes, c, s, model.ObjectiveMaxVolume, InitialPPs(c), nil)

	seen := map[model.BoxKey]bool{}
	for _, sol := range result.Solutions {
		assert.False(t, seen[sol.ID], "box %v placed more than once", sol.ID)
		seen[sol.ID] = true
	}
	for key := range result.NotLoaded {
		assert.False(t, seen[key], "box %v both placed and not-loaded", key)
		seen[key] = true
	}
	assert.Len(t, seen, 3, "every input box must be accounted for exactly once")
}
