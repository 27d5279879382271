package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/jengzang/sankhya-backend-go/internal/analysis"
	"github.com/jengzang/sankhya-backend-go/internal/dataset"
	"github.com/jengzang/sankhya-backend-go/internal/export"
	"github.com/jengzang/sankhya-backend-go/internal/models"
	"github.com/jengzang/sankhya-backend-go/internal/repository"
	"github.com/jengzang/sankhya-backend-go/internal/snapshot"
)

// RegenerationOptions locates the inputs and outputs of a regeneration
type RegenerationOptions struct {
	Sources      dataset.Sources
	ArtifactPath string
	ExportPath   string // Empty disables the XLSX report
	Timeout      time.Duration
}

// RegenerationService rebuilds the snapshot from the source files. Runs are
// serialized; a failed run leaves the published snapshot untouched.
type RegenerationService struct {
	opts   RegenerationOptions
	engine *analysis.Engine
	repo   *repository.RunRepository // Optional, nil skips run history
	store  *snapshot.Store

	mu sync.Mutex
}

// NewRegenerationService creates a new regeneration service
func NewRegenerationService(opts RegenerationOptions, engine *analysis.Engine, repo *repository.RunRepository, store *snapshot.Store) *RegenerationService {
	return &RegenerationService{
		opts:   opts,
		engine: engine,
		repo:   repo,
		store:  store,
	}
}

// Regenerate loads the sources, runs the engine and publishes the result.
// It returns ErrRegenerationInProgress when another run holds the lock.
func (s *RegenerationService) Regenerate(ctx context.Context, trigger string) (*models.RegenerationRun, error) {
	if !s.mu.TryLock() {
		return nil, ErrRegenerationInProgress
	}
	defer s.mu.Unlock()

	run := &models.RegenerationRun{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Status:    models.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if s.repo != nil {
		if err := s.repo.Create(ctx, run); err != nil {
			return nil, err
		}
	}
	log.Printf("[Regeneration] Run %s started (trigger=%s)", run.ID, trigger)

	runCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	artifact, data, err := s.build(runCtx)
	if err != nil {
		return run, s.fail(ctx, run, err)
	}

	run.InputDigest = artifact.InputDigest
	run.DistrictCount = len(artifact.Districts)
	run.WarningCount = len(artifact.Warnings)
	if s.repo != nil {
		if err := s.repo.MarkCompleted(context.WithoutCancel(ctx), run, data); err != nil {
			return run, s.fail(ctx, run, err)
		}
	} else {
		completed := time.Now().UTC()
		run.Status = models.RunStatusCompleted
		run.CompletedAt = &completed
	}

	s.publish(artifact, run, false)
	log.Printf("[Regeneration] Run %s completed in %v (%d districts, %d warnings)",
		run.ID, run.CompletedAt.Sub(run.StartedAt), run.DistrictCount, run.WarningCount)
	return run, nil
}

// build recovers a panic in any stage so the run is recorded as failed
func (s *RegenerationService) build(ctx context.Context) (artifact *models.Artifact, data []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("[Regeneration] Panic: %v\n%s", p, debug.Stack())
			artifact, data, err = nil, nil, fmt.Errorf("regeneration panicked: %v", p)
		}
	}()

	ds, err := dataset.Load(ctx, s.opts.Sources)
	if err != nil {
		return nil, nil, err
	}

	artifact, err = s.engine.Run(ctx, ds)
	if err != nil {
		return nil, nil, err
	}

	data, err = snapshot.Encode(artifact)
	if err != nil {
		return nil, nil, err
	}

	if s.opts.ArtifactPath != "" {
		if err := snapshot.WriteFile(s.opts.ArtifactPath, data); err != nil {
			return nil, nil, err
		}
	}
	if s.opts.ExportPath != "" {
		if err := export.SaveAs(s.opts.ExportPath, artifact); err != nil {
			log.Printf("[Regeneration] Failed to export report: %v", err)
		}
	}
	return artifact, data, nil
}

func (s *RegenerationService) fail(ctx context.Context, run *models.RegenerationRun, cause error) error {
	completed := time.Now().UTC()
	run.Status = models.RunStatusFailed
	run.ErrorMessage = cause.Error()
	run.CompletedAt = &completed

	if s.repo != nil {
		if err := s.repo.MarkFailed(context.WithoutCancel(ctx), run.ID, run.ErrorMessage); err != nil {
			log.Printf("[Regeneration] Failed to record failure of run %s: %v", run.ID, err)
		}
	}
	log.Printf("[Regeneration] Run %s failed: %v", run.ID, cause)
	return fmt.Errorf("failed to regenerate snapshot: %w", cause)
}

func (s *RegenerationService) publish(artifact *models.Artifact, run *models.RegenerationRun, restored bool) {
	generated := run.StartedAt
	if run.CompletedAt != nil {
		generated = *run.CompletedAt
	}
	s.store.Replace(snapshot.New(artifact, snapshot.Meta{
		RunID:       run.ID,
		Trigger:     run.Trigger,
		GeneratedAt: generated,
		Restored:    restored,
	}))
}

// Restore publishes the last good artifact, preferring run history over the
// artifact file. It reports false when neither exists.
func (s *RegenerationService) Restore(ctx context.Context) (bool, error) {
	if s.repo != nil {
		run, data, err := s.repo.LatestCompleted(ctx)
		switch {
		case err == nil:
			artifact, err := snapshot.Decode(data)
			if err != nil {
				return false, fmt.Errorf("failed to restore run %s: %w", run.ID, err)
			}
			s.publish(artifact, run, true)
			log.Printf("[Regeneration] Restored snapshot of run %s", run.ID)
			return true, nil
		case !errors.Is(err, repository.ErrRunNotFound):
			return false, err
		}
	}

	if s.opts.ArtifactPath == "" {
		return false, nil
	}
	info, err := os.Stat(s.opts.ArtifactPath)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat artifact: %w", err)
	}
	artifact, err := snapshot.ReadFile(s.opts.ArtifactPath)
	if err != nil {
		return false, err
	}
	s.publish(artifact, &models.RegenerationRun{StartedAt: info.ModTime().UTC()}, true)
	log.Printf("[Regeneration] Restored snapshot from %s", s.opts.ArtifactPath)
	return true, nil
}

// ListRuns returns the regeneration history newest first
func (s *RegenerationService) ListRuns(ctx context.Context, filter models.RunFilter) ([]*models.RegenerationRun, int64, error) {
	if s.repo == nil {
		return []*models.RegenerationRun{}, 0, nil
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, 0, fmt.Errorf("%w: limit and offset must be non-negative", ErrInvalidParameter)
	}
	switch filter.Status {
	case "", models.RunStatusRunning, models.RunStatusCompleted, models.RunStatusFailed:
	default:
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidParameter, filter.Status)
	}
	return s.repo.List(ctx, filter)
}

// StartSchedule runs Regenerate on a cron spec until the returned stop func
// is called. Stop waits for a running job to finish.
func (s *RegenerationService) StartSchedule(ctx context.Context, spec string) (func(), error) {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	_, err := c.AddFunc(spec, func() {
		if _, err := s.Regenerate(ctx, models.TriggerSchedule); err != nil {
			log.Printf("[Regeneration] Scheduled run skipped: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule regeneration: %w", err)
	}

	c.Start()
	log.Printf("[Regeneration] Scheduled with %q", spec)
	return func() {
		<-c.Stop().Done()
	}, nil
}
