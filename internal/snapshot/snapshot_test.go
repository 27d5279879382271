package snapshot

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/sankhya-backend-go/internal/models"
)

func sampleArtifact() *models.Artifact {
	return &models.Artifact{
		SchemaVersion: models.ArtifactSchemaVersion,
		InputDigest:   "abc",
		Districts: []models.DistrictEntry{
			{Key: "bihar/patna", District: "Patna", DSI: models.DSIScore{Score: 7, Tier: models.TierCritical}},
		},
		Forecasts: []models.ForecastSeries{{Entity: models.NationalKey}},
		States:    []models.Summary{{Scope: "bihar", Label: "Bihar"}},
		Warnings:  []string{},
	}
}

func TestSnapshotLookups(t *testing.T) {
	snap := New(sampleArtifact(), Meta{RunID: "run-1"})
	assert.Equal(t, "abc", snap.Meta.InputDigest)

	d, ok := snap.District("bihar/patna")
	require.True(t, ok)
	assert.Equal(t, 7.0, d.DSI.Score)

	_, ok = snap.District("bihar/gaya")
	assert.False(t, ok)

	_, ok = snap.Forecast(models.NationalKey)
	assert.True(t, ok)

	st, ok := snap.State("bihar")
	require.True(t, ok)
	assert.Equal(t, "Bihar", st.Label)
}

func TestStore(t *testing.T) {
	store := NewStore()
	assert.Nil(t, store.Current())

	first := New(sampleArtifact(), Meta{RunID: "run-1"})
	assert.Nil(t, store.Replace(first))
	assert.Equal(t, int64(1), store.Current().Meta.Version)

	second := New(sampleArtifact(), Meta{RunID: "run-2"})
	prev := store.Replace(second)
	assert.Same(t, first, prev)
	assert.Equal(t, int64(2), store.Current().Meta.Version)
	assert.Equal(t, "run-2", store.Current().Meta.RunID)
}

func TestStoreConcurrentReaders(t *testing.T) {
	store := NewStore()
	store.Replace(New(sampleArtifact(), Meta{RunID: "run-0"}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				snap := store.Current()
				_, ok := snap.District("bihar/patna")
				assert.True(t, ok)
			}
		}()
	}
	for i := 0; i < 50; i++ {
		store.Replace(New(sampleArtifact(), Meta{}))
	}
	wg.Wait()
	assert.Equal(t, int64(51), store.Current().Meta.Version)
}

func TestCodec(t *testing.T) {
	data, err := Encode(sampleArtifact())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"schema_version": 2`)
	assert.Contains(t, string(data), `"input_digest": "abc"`)

	again, err := Encode(sampleArtifact())
	require.NoError(t, err)
	assert.Equal(t, data, again)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "bihar/patna", decoded.Districts[0].Key)

	_, err = Decode([]byte(`{"schema_version": 99}`))
	assert.Error(t, err)
	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "artifact.json")
	data, err := Encode(sampleArtifact())
	require.NoError(t, err)

	require.NoError(t, WriteFile(path, data))
	require.NoError(t, WriteFile(path, data))

	artifact, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", artifact.InputDigest)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}
