package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jengzang/sankhya-backend-go/internal/analysis"
	"github.com/jengzang/sankhya-backend-go/internal/dataset/datasettest"
	"github.com/jengzang/sankhya-backend-go/internal/models"
	"github.com/jengzang/sankhya-backend-go/internal/snapshot"
)

// publishedStore returns a store holding the snapshot of the test dataset
func publishedStore(t *testing.T) *snapshot.Store {
	t.Helper()
	artifact, err := analysis.NewEngine(analysis.DefaultConfig()).Run(context.Background(), datasettest.Load(t))
	require.NoError(t, err)

	store := snapshot.NewStore()
	store.Replace(snapshot.New(artifact, snapshot.Meta{
		RunID:       "run-test",
		Trigger:     models.TriggerManual,
		GeneratedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}))
	return store
}

func newDashboard(t *testing.T) *DashboardService {
	t.Helper()
	return NewDashboardService(publishedStore(t), analysis.DefaultConfig().Weights, time.Minute)
}
