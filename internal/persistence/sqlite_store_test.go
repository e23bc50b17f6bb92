package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denysyudin/captionize/internal/captions"
	"github.com/denysyudin/captionize/internal/jobs"
	"github.com/denysyudin/captionize/internal/timeline"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_RequiresPath(t *testing.T) {
	_, err := NewSQLiteStore("  ")
	require.Error(t, err)
}

func TestSQLiteStore_UpsertAndLoadRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	job := &jobs.CaptionJob{
		ID:     "job-1",
		Status: jobs.StatusQueued,
		Request: jobs.CaptionRequest{
			VideoURL: "https://example.com/clip.mp4",
			Transcription: []timeline.WordInterval{
				{Word: "hello", Start: 0.5, End: 1.2},
				{Word: "world", Start: 1.2, End: 1.9},
			},
			Replace:  []captions.ReplaceRule{{Find: "hello", Replace: "hi"}},
			Settings: captions.Default(),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	require.NoError(t, store.UpsertJob(ctx, job))

	loaded, err := store.LoadJobs(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, jobs.StatusQueued, got.Status)
	assert.Equal(t, job.Request.VideoURL, got.Request.VideoURL)
	assert.Equal(t, job.Request.Transcription, got.Request.Transcription)
	assert.Equal(t, job.Request.Replace, got.Request.Replace)
	assert.Equal(t, job.Request.Settings, got.Request.Settings)
}

func TestSQLiteStore_UpsertUpdatesExistingJob(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	job := &jobs.CaptionJob{
		ID:        "job-1",
		Status:    jobs.StatusQueued,
		Request:   jobs.CaptionRequest{VideoURL: "https://example.com/clip.mp4"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.UpsertJob(ctx, job))

	job.Status = jobs.StatusCompleted
	job.OutputPath = "/out/processed_abc.mp4"
	job.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, store.UpsertJob(ctx, job))

	loaded, err := store.LoadJobs(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, jobs.StatusCompleted, loaded[0].Status)
	assert.Equal(t, "/out/processed_abc.mp4", loaded[0].OutputPath)
}

func TestSQLiteStore_DeleteJob(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, store.UpsertJob(ctx, &jobs.CaptionJob{
		ID:        "job-1",
		Status:    jobs.StatusFailed,
		Error:     "fetch source video: 404",
		Request:   jobs.CaptionRequest{VideoURL: "u"},
		CreatedAt: now,
		UpdatedAt: now,
	}))

	require.NoError(t, store.DeleteJob(ctx, "job-1"))
	require.NoError(t, store.DeleteJob(ctx, "job-1"))

	loaded, err := store.LoadJobs(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestSQLiteStore_LoadJobsOrderedByCreation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	offsets := map[string]time.Duration{"first": 0, "second": time.Minute, "third": 2 * time.Minute}
	for _, id := range []string{"third", "first", "second"} {
		require.NoError(t, store.UpsertJob(ctx, &jobs.CaptionJob{
			ID:        id,
			Status:    jobs.StatusQueued,
			Request:   jobs.CaptionRequest{VideoURL: "u"},
			CreatedAt: base.Add(offsets[id]),
			UpdatedAt: base.Add(offsets[id]),
		}))
	}

	loaded, err := store.LoadJobs(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, "first", loaded[0].ID)
	assert.Equal(t, "second", loaded[1].ID)
	assert.Equal(t, "third", loaded[2].ID)
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, store.UpsertJob(ctx, &jobs.CaptionJob{
		ID:        "survivor",
		Status:    jobs.StatusProcessing,
		Request:   jobs.CaptionRequest{VideoURL: "u"},
		CreatedAt: now,
		UpdatedAt: now,
	}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.LoadJobs(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "survivor", loaded[0].ID)
	assert.Equal(t, jobs.StatusProcessing, loaded[0].Status)
}
