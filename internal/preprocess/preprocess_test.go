package preprocess

import (
	"testing"

	"github.com/piwi3910/containerload/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(partida string, l, w, h int, stackable bool) model.Box {
	return model.Box{
		Key:       model.BoxKey{Partida: partida, Expedicion: "E1"},
		L:         l,
		W:         w,
		H:         h,
		Stackable: stackable,
	}
}

func TestPreprocess_RejectsOversizeHeight(t *testing.T) {
	_, _, err := Preprocess([]model.Box{box("A", 10, 10, 300, true)}, model.DefaultSettings())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestPreprocess_NormalizesPalletFootprint(t *testing.T) {
	boxes := []model.Box{box("A", 110, 90, 50, false)}
	out, _, err := Preprocess(boxes, model.DefaultSettings())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 120, out[0].L)
	assert.Equal(t, 80, out[0].W)
}

func TestPreprocess_VerticalMergeWhenLowerStackable(t *testing.T) {
	boxes := []model.Box{
		box("A", 50, 50, 40, true),
		box("B", 50, 50, 60, false),
	}
	out, hmap, err := Preprocess(boxes, model.DefaultSettings())
	require.NoError(t, err)
	require.Len(t, out, 1)

	composite := out[0]
	assert.Equal(t, "A/B_H", composite.Key.Partida)
	assert.Equal(t, 100, composite.H)
	assert.False(t, composite.Stackable, "composite stackability follows the upper box")

	entries := hmap[composite.Key]
	require.Len(t, entries, 2)
	assert.Equal(t, model.BoxKey{Partida: "A", Expedicion: "E1"}, entries[0].Child)
	assert.Equal(t, 0, entries[0].RelZ)
	assert.Equal(t, model.BoxKey{Partida: "B", Expedicion: "E1"}, entries[1].Child)
	assert.Equal(t, 40, entries[1].RelZ)
}

func TestPreprocess_NoMergeWhenNeitherStackable(t *testing.T) {
	boxes := []model.Box{
		box("A", 50, 50, 40, false),
		box("B", 50, 50, 60, false),
	}
	out, _, err := Preprocess(boxes, model.DefaultSettings())
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestPreprocess_AtMostOneMergePerBoxPerPass(t *testing.T) {
	boxes := []model.Box{
		box("A", 50, 50, 40, true),
		box("B", 50, 50, 40, true),
		box("C", 50, 50, 40, true),
	}
	out, _, err := Preprocess(boxes, model.DefaultSettings())
	require.NoError(t, err)
	// A merges with B greedily; C is left unmerged.
	require.Len(t, out, 2)
}

func TestPreprocess_HorizontalMergeDisabledByDefault(t *testing.T) {
	settings := model.DefaultSettings()
	// Non-stackable so the vertical pass cannot merge them either.
	boxes := []model.Box{
		box("A", 100, 120, 50, false),
		box("B", 100, 126, 50, false),
	}
	out, _, err := Preprocess(boxes, settings)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestPreprocess_TripleHorizontalMergeWhenEnabled(t *testing.T) {
	settings := model.DefaultSettings()
	settings.EnableHorizontalMerge = true
	// Same length, widths summing within 8cm of CW(246). Each pair's widths
	// differ by more than VolumetricTolerance so the vertical pass doesn't
	// claim any two of them first, and no pair sums close enough to CW for
	// the horizontal pairwise pass to claim them either. The shared length
	// lies outside the pallet band so normalization leaves B (width 90) alone.
	boxes := []model.Box{
		box("A", 150, 38, 50, true),
		box("B", 150, 90, 50, true),
		box("C", 150, 116, 50, true),
	}
	out, hmap, err := Preprocess(boxes, settings)
	require.NoError(t, err)
	require.Len(t, out, 1)

	composite := out[0]
	assert.Equal(t, "A/B/C_W", composite.Key.Partida)
	assert.Equal(t, 150, composite.L)
	assert.Equal(t, 244, composite.W)
	assert.True(t, composite.Stackable)

	entries := hmap[composite.Key]
	require.Len(t, entries, 3)
	assert.Equal(t, 0, entries[0].RelY)
	assert.Equal(t, 38, entries[1].RelY)
	assert.Equal(t, 128, entries[2].RelY)
}

func TestPreprocess_TripleMergeSkipsBoxesAlreadyCombinedByPairPass(t *testing.T) {
	settings := model.DefaultSettings()
	settings.EnableHorizontalMerge = true
	boxes := []model.Box{
		// A and B pair-merge first (wLen+wLen sums within tolerance of CW).
		// Marked non-stackable so the unconditional vertical pass doesn't
		// claim them (or C/D/E below) before the horizontal passes run.
		box("A", 50, 120, 50, false),
		box("B", 50, 126, 50, false),
		// C, D, E would otherwise triple-merge on their own.
		box("C", 70, 80, 40, false),
		box("D", 70, 80, 40, false),
		box("E", 70, 84, 40, false),
	}
	out, _, err := Preprocess(boxes, settings)
	require.NoError(t, err)
	require.Len(t, out, 2, "A/B pair composite plus C/D/E triple composite")
}

func TestPreprocess_HorizontalMergeWhenEnabled(t *testing.T) {
	settings := model.DefaultSettings()
	settings.EnableHorizontalMerge = true
	// Non-stackable so the vertical pass does not claim the pair first.
	boxes := []model.Box{
		box("A", 100, 120, 50, false),
		box("B", 100, 126, 50, false),
	}
	out, hmap, err := Preprocess(boxes, settings)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "A/B_W", out[0].Key.Partida)
	assert.Equal(t, 246, out[0].L)
	assert.Len(t, hmap[out[0].Key], 2)
}
