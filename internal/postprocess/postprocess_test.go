package postprocess

import (
	"testing"

	"github.com/piwi3910/containerload/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(partida string) model.BoxKey {
	return model.BoxKey{Partida: partida, Expedicion: "E1"}
}

func TestExpand_PassesThroughNonComposites(t *testing.T) {
	solution := []model.Placement{
		{ID: key("A"), X: 1, Y: 2, Z: 3, L: 10, W: 10, H: 10},
	}
	out := Expand(solution, model.DecompositionMap{})
	require.Len(t, out, 1)
	assert.Equal(t, solution[0], out[0])
}

func TestExpand_VerticalComposite(t *testing.T) {
	composite := key("A/B_H")
	hmap := model.DecompositionMap{
		composite: {
			{Child: key("A"), RelX: 0, RelY: 0, RelZ: 0, RelL: 50, RelW: 50, RelH: 40},
			{Child: key("B"), RelX: 0, RelY: 0, RelZ: 40, RelL: 50, RelW: 50, RelH: 60},
		},
	}
	solution := []model.Placement{
		{ID: composite, X: 10, Y: 20, Z: 0, L: 50, W: 50, H: 100},
	}

	out := Expand(solution, hmap)
	require.Len(t, out, 2)

	byID := map[model.BoxKey]model.Placement{}
	for _, p := range out {
		byID[p.ID] = p
	}
	lower := byID[key("A")]
	upper := byID[key("B")]

	assert.Equal(t, 10, lower.X)
	assert.Equal(t, 20, lower.Y)
	assert.Equal(t, 0, lower.Z)
	assert.Equal(t, 40, upper.Z-lower.Z)
}

func TestExpand_VerticalCompositeOnRightWallNegatesWidth(t *testing.T) {
	composite := key("A/B_H")
	hmap := model.DecompositionMap{
		composite: {
			{Child: key("A"), RelX: 0, RelY: 0, RelZ: 0, RelL: 50, RelW: 50, RelH: 40},
		},
	}
	solution := []model.Placement{
		{ID: composite, X: 0, Y: 50, Z: 0, L: 50, W: -50, H: 40},
	}

	out := Expand(solution, hmap)
	require.Len(t, out, 1)
	assert.Negative(t, out[0].W)
}

func TestExpand_HorizontalCompositeOffsetsY(t *testing.T) {
	composite := key("A/B_W")
	hmap := model.DecompositionMap{
		composite: {
			{Child: key("A"), RelX: 0, RelY: 0, RelZ: 0, RelL: 100, RelW: 120, RelH: 50},
			{Child: key("B"), RelX: 0, RelY: 120, RelZ: 0, RelL: 100, RelW: 126, RelH: 50},
		},
	}
	solution := []model.Placement{
		{ID: composite, X: 5, Y: 0, Z: 0, L: 100, W: 246, H: 50},
	}

	out := Expand(solution, hmap)
	require.Len(t, out, 2)

	byID := map[model.BoxKey]model.Placement{}
	for _, p := range out {
		byID[p.ID] = p
	}
	assert.Equal(t, 0, byID[key("A")].Y)
	assert.Equal(t, 120, byID[key("B")].Y)
	assert.Equal(t, 5, byID[key("A")].X)
	assert.Equal(t, 5, byID[key("B")].X)
}

func TestExpand_NestedCompositeRecurses(t *testing.T) {
	outer := key("A/B_H/C_W")
	inner := key("A/B_H")
	hmap := model.DecompositionMap{
		outer: {
			{Child: inner, RelX: 0, RelY: 0, RelZ: 0, RelL: 50, RelW: 50, RelH: 100},
		},
		inner: {
			{Child: key("A"), RelX: 0, RelY: 0, RelZ: 0, RelL: 50, RelW: 50, RelH: 40},
			{Child: key("B"), RelX: 0, RelY: 0, RelZ: 40, RelL: 50, RelW: 50, RelH: 60},
		},
	}
	solution := []model.Placement{
		{ID: outer, X: 0, Y: 0, Z: 0, L: 50, W: 50, H: 100},
	}

	out := Expand(solution, hmap)
	assert.Len(t, out, 2)
}

func TestExpandNotLoaded_BreaksCompositeIntoOriginalKeys(t *testing.T) {
	composite := key("A/B_H")
	hmap := model.DecompositionMap{
		composite: {
			{Child: key("A"), RelL: 50, RelW: 50, RelH: 40},
			{Child: key("B"), RelL: 50, RelW: 50, RelH: 60},
		},
	}
	notLoaded := map[model.BoxKey]model.OrientedBox{
		composite: {L: 50, W: 50, H: 100},
	}

	out := ExpandNotLoaded(notLoaded, hmap)
	require.Len(t, out, 2)
	assert.Equal(t, 40, out[key("A")].H)
	assert.Equal(t, 60, out[key("B")].H)
}
