package calibration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenkit/guildscore/internal/scoring"
	"github.com/gardenkit/guildscore/internal/species"
)

func TestStoreRoundtrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	original := validTable(species.TierMediterranean, scoring.SizeMedium)
	require.NoError(t, store.Save(original))

	set, err := store.LoadAll()
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())

	loaded := set.Tables()[0]
	assert.Equal(t, original.Tier, loaded.Tier)
	assert.Equal(t, original.SizeClass, loaded.SizeClass)
	assert.Equal(t, original.RunID, loaded.RunID)
	assert.Equal(t, original.KBChecksum, loaded.KBChecksum)
	assert.Equal(t, original.SampleCount, loaded.SampleCount)

	params, ok := set.Params(species.TierMediterranean, scoring.SizeMedium, scoring.MetricPollinatorSupport)
	require.True(t, ok)
	assert.Equal(t, original.Metrics[scoring.MetricPollinatorSupport], params)
}

func TestStoreSaveRejectsBadSchema(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	table := validTable(species.TierArid, scoring.SizePair)
	delete(table.Metrics, scoring.MetricPathogenOverlap)

	assert.Error(t, store.Save(table))
}

func TestStoreArtifactNaming(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(validTable(species.TierContinental, scoring.SizeLarge)))

	_, err = os.Stat(filepath.Join(dir, "calibration_tier_4_continental_large.json"))
	assert.NoError(t, err)
}

func TestLoadAllFailsOnInvalidArtifact(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(validTable(species.TierArid, scoring.SizePair)))

	t.Run("corrupt json", func(t *testing.T) {
		bad := filepath.Join(dir, "calibration_tier_6_arid_small.json")
		require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
		defer os.Remove(bad)

		_, err := store.LoadAll()
		assert.Error(t, err)
	})

	t.Run("under-sampled artifact fails the whole load", func(t *testing.T) {
		low := validTable(species.TierArid, scoring.SizeSmall)
		low.SampleCount = 10
		require.NoError(t, store.Save(low))
		defer os.Remove(filepath.Join(dir, "calibration_tier_6_arid_small.json"))

		_, err := store.LoadAll()
		assert.Error(t, err)
	})

	t.Run("unrelated files are ignored", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

		set, err := store.LoadAll()
		require.NoError(t, err)
		assert.Equal(t, 1, set.Len())
	})
}
