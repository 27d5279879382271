package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/sankhya-backend-go/internal/analysis"
	"github.com/jengzang/sankhya-backend-go/internal/database"
	"github.com/jengzang/sankhya-backend-go/internal/dataset"
	"github.com/jengzang/sankhya-backend-go/internal/dataset/datasettest"
	"github.com/jengzang/sankhya-backend-go/internal/models"
	"github.com/jengzang/sankhya-backend-go/internal/repository"
	"github.com/jengzang/sankhya-backend-go/internal/snapshot"
)

func newRunRepository(t *testing.T) *repository.RunRepository {
	t.Helper()
	conn, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, database.NewMigrationManager(conn, database.Migrations()).RunMigrations())
	return repository.NewRunRepository(conn)
}

func regenerationOptions(t *testing.T) RegenerationOptions {
	t.Helper()
	out := t.TempDir()
	return RegenerationOptions{
		Sources:      dataset.SourcesFromDir(datasettest.Dir(t)),
		ArtifactPath: filepath.Join(out, "sankhya_data.json"),
		ExportPath:   filepath.Join(out, "report.xlsx"),
		Timeout:      time.Minute,
	}
}

func TestRegenerate(t *testing.T) {
	ctx := context.Background()
	opts := regenerationOptions(t)
	repo := newRunRepository(t)
	store := snapshot.NewStore()
	svc := NewRegenerationService(opts, analysis.NewEngine(analysis.DefaultConfig()), repo, store)

	run, err := svc.Regenerate(ctx, models.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, 6, run.DistrictCount)
	assert.Equal(t, 2, run.WarningCount)
	require.NotNil(t, run.CompletedAt)

	current := store.Current()
	require.NotNil(t, current)
	assert.Equal(t, run.ID, current.Meta.RunID)
	assert.Equal(t, int64(1), current.Meta.Version)
	assert.False(t, current.Meta.Restored)

	first, err := os.ReadFile(opts.ArtifactPath)
	require.NoError(t, err)
	_, err = os.Stat(opts.ExportPath)
	assert.NoError(t, err)

	t.Run("identical inputs produce identical artifacts", func(t *testing.T) {
		again, err := svc.Regenerate(ctx, models.TriggerManual)
		require.NoError(t, err)
		assert.NotEqual(t, run.ID, again.ID)
		assert.Equal(t, run.InputDigest, again.InputDigest)

		second, err := os.ReadFile(opts.ArtifactPath)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, int64(2), store.Current().Meta.Version)
	})

	t.Run("history", func(t *testing.T) {
		runs, total, err := svc.ListRuns(ctx, models.RunFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, runs, 2)

		_, _, err = svc.ListRuns(ctx, models.RunFilter{Status: "exploded"})
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})
}

func TestRegenerateFailureKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	opts := regenerationOptions(t)
	repo := newRunRepository(t)
	store := snapshot.NewStore()
	engine := analysis.NewEngine(analysis.DefaultConfig())

	good, err := NewRegenerationService(opts, engine, repo, store).Regenerate(ctx, models.TriggerStartup)
	require.NoError(t, err)

	broken := opts
	broken.Sources = dataset.SourcesFromDir(filepath.Join(t.TempDir(), "missing"))
	run, err := NewRegenerationService(broken, engine, repo, store).Regenerate(ctx, models.TriggerManual)
	require.Error(t, err)
	require.NotNil(t, run)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.NotEmpty(t, run.ErrorMessage)

	assert.Equal(t, good.ID, store.Current().Meta.RunID)

	stored, err := repo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, stored.Status)
}

type panicStage struct{}

func (panicStage) Name() string { return "explode" }

func (panicStage) Run(context.Context, *analysis.State) error {
	panic("index out of range")
}

func TestRegeneratePanicKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	opts := regenerationOptions(t)
	repo := newRunRepository(t)
	store := snapshot.NewStore()

	good, err := NewRegenerationService(opts, analysis.NewEngine(analysis.DefaultConfig()), repo, store).Regenerate(ctx, models.TriggerStartup)
	require.NoError(t, err)
	artifact, err := os.ReadFile(opts.ArtifactPath)
	require.NoError(t, err)

	engine := analysis.NewEngineWithStages(analysis.DefaultConfig(), append(analysis.DefaultStages(), panicStage{})...)
	svc := NewRegenerationService(opts, engine, repo, store)

	var run *models.RegenerationRun
	require.NotPanics(t, func() {
		run, err = svc.Regenerate(ctx, models.TriggerSchedule)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index out of range")
	require.NotNil(t, run)
	assert.Equal(t, models.RunStatusFailed, run.Status)

	stored, err := repo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, stored.Status)
	assert.Contains(t, stored.ErrorMessage, "panicked")

	assert.Equal(t, good.ID, store.Current().Meta.RunID)
	unchanged, err := os.ReadFile(opts.ArtifactPath)
	require.NoError(t, err)
	assert.Equal(t, artifact, unchanged)

	t.Run("lock is released", func(t *testing.T) {
		assert.True(t, svc.mu.TryLock())
		svc.mu.Unlock()
	})
}

func TestRegenerateInProgress(t *testing.T) {
	svc := NewRegenerationService(regenerationOptions(t), analysis.NewEngine(analysis.DefaultConfig()), nil, snapshot.NewStore())

	svc.mu.Lock()
	_, err := svc.Regenerate(context.Background(), models.TriggerManual)
	svc.mu.Unlock()
	assert.ErrorIs(t, err, ErrRegenerationInProgress)

	run, err := svc.Regenerate(context.Background(), models.TriggerCLI)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
}

func TestRegenerateCancelled(t *testing.T) {
	store := snapshot.NewStore()
	svc := NewRegenerationService(regenerationOptions(t), analysis.NewEngine(analysis.DefaultConfig()), newRunRepository(t), store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Regenerate(ctx, models.TriggerManual)
	assert.Error(t, err)
	assert.Nil(t, store.Current())
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	opts := regenerationOptions(t)
	engine := analysis.NewEngine(analysis.DefaultConfig())

	t.Run("from run history", func(t *testing.T) {
		repo := newRunRepository(t)
		run, err := NewRegenerationService(opts, engine, repo, snapshot.NewStore()).Regenerate(ctx, models.TriggerStartup)
		require.NoError(t, err)

		store := snapshot.NewStore()
		restored, err := NewRegenerationService(opts, engine, repo, store).Restore(ctx)
		require.NoError(t, err)
		assert.True(t, restored)
		assert.Equal(t, run.ID, store.Current().Meta.RunID)
		assert.True(t, store.Current().Meta.Restored)
		assert.Equal(t, run.InputDigest, store.Current().Meta.InputDigest)
	})

	t.Run("from artifact file", func(t *testing.T) {
		_, err := NewRegenerationService(opts, engine, nil, snapshot.NewStore()).Regenerate(ctx, models.TriggerCLI)
		require.NoError(t, err)

		store := snapshot.NewStore()
		restored, err := NewRegenerationService(opts, engine, newRunRepository(t), store).Restore(ctx)
		require.NoError(t, err)
		assert.True(t, restored)
		assert.True(t, store.Current().Meta.Restored)
		assert.Len(t, store.Current().Artifact.Districts, 6)
	})

	t.Run("nothing to restore", func(t *testing.T) {
		empty := opts
		empty.ArtifactPath = filepath.Join(t.TempDir(), "none.json")
		store := snapshot.NewStore()
		restored, err := NewRegenerationService(empty, engine, newRunRepository(t), store).Restore(ctx)
		require.NoError(t, err)
		assert.False(t, restored)
		assert.Nil(t, store.Current())
	})
}

func TestStartSchedule(t *testing.T) {
	svc := NewRegenerationService(regenerationOptions(t), analysis.NewEngine(analysis.DefaultConfig()), nil, snapshot.NewStore())

	stop, err := svc.StartSchedule(context.Background(), "@every 1h")
	require.NoError(t, err)
	stop()

	_, err = svc.StartSchedule(context.Background(), "not a schedule")
	assert.Error(t, err)
}
