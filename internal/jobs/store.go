package jobs

import "context"

// Store persists job states so the queue survives restarts.
type Store interface {
	LoadJobs(ctx context.Context) ([]*CaptionJob, error)
	UpsertJob(ctx context.Context, job *CaptionJob) error
	DeleteJob(ctx context.Context, jobID string) error
}
