package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"care-meal-planner/internal/planner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanStore(t *testing.T) {
	tempDir := t.TempDir()
	store, err := NewPlanStore(filepath.Join(tempDir, "plans"))
	require.NoError(t, err)

	patientID := "station-2/zimmer_14"
	first := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	plan := planner.BuildFallbackPlan(planner.DayNames(2))

	t.Run("CheckExists-False", func(t *testing.T) {
		assert.False(t, store.Exists(patientID, first))
	})

	t.Run("Save", func(t *testing.T) {
		path, err := store.Save(ArchivedPlan{
			PatientID: patientID,
			PlanID:    7,
			Source:    planner.SourceFallback,
			CreatedAt: first,
			Plan:      plan,
		})
		require.NoError(t, err)
		assert.Equal(t, "station-2-zimmer-14_20260201T093000Z.json", filepath.Base(path))
		assert.True(t, store.Exists(patientID, first))
	})

	t.Run("Load", func(t *testing.T) {
		loaded, err := store.Load(patientID, first)
		require.NoError(t, err)
		assert.Equal(t, int64(7), loaded.PlanID)
		assert.Equal(t, plan, loaded.Plan)
	})

	t.Run("LatestAndRemoveStale", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			_, err := store.Save(ArchivedPlan{PatientID: patientID, PlanID: int64(7 + i), CreatedAt: first.Add(time.Duration(i) * time.Hour), Plan: plan})
			require.NoError(t, err)
		}

		latest, err := store.Latest(patientID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), latest.PlanID)

		require.NoError(t, store.RemoveStaleVersions(patientID, 2))
		versions, err := store.Versions(patientID)
		require.NoError(t, err)
		assert.Len(t, versions, 2)
		assert.False(t, store.Exists(patientID, first))
	})

	t.Run("LatestUnknownPatient", func(t *testing.T) {
		_, err := store.Latest("nobody")
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}
