package jobs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/denysyudin/captionize/pkg/log"
)

// StatusUpdater lets a running pipeline advance its own job's status.
type StatusUpdater func(Status)

// Executor runs one job's full pipeline and returns the final output
// artifact path. Intermediate phases are reported through the updater;
// terminal states are recorded by the queue from the return values.
type Executor func(ctx context.Context, job *CaptionJob, update StatusUpdater) (string, error)

// Queue is the concurrent-safe job table plus a fixed worker pool. Each
// job id is only ever advanced by the one worker running it; readers get
// clone snapshots, so status polling never observes partial writes.
type Queue struct {
	workerCount int
	maxJobs     int
	store       Store

	mu         sync.RWMutex
	jobs       map[string]*CaptionJob
	started    bool
	pendingIDs chan string
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func NewQueue(workerCount int, store Store) *Queue {
	if workerCount <= 0 {
		workerCount = 1
	}
	q := &Queue{
		workerCount: workerCount,
		maxJobs:     1000,
		store:       store,
		jobs:        make(map[string]*CaptionJob),
		pendingIDs:  make(chan string, 1024),
		stopCh:      make(chan struct{}),
	}
	q.hydrateFromStore(context.Background())
	return q
}

// Enqueue records the job and returns an immediate snapshot with queued
// status; the pipeline runs later on a worker. The bool reports whether a
// new job was created.
func (q *Queue) Enqueue(req EnqueueRequest) (*CaptionJob, bool) {
	now := time.Now()

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	q.mu.Lock()
	if existing, ok := q.jobs[id]; ok {
		snapshot := cloneJob(existing)
		q.mu.Unlock()
		return snapshot, false
	}

	job := &CaptionJob{
		ID:        id,
		Request:   req.Request,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	q.jobs[id] = job
	started := q.started
	snapshot := cloneJob(job)
	q.mu.Unlock()

	q.persistJob(snapshot)
	if started {
		q.enqueuePendingID(id)
	}
	return snapshot, true
}

func (q *Queue) Get(id string) (*CaptionJob, bool) {
	q.mu.RLock()
	job, ok := q.jobs[id]
	q.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cloneJob(job), true
}

func (q *Queue) List() []*CaptionJob {
	q.mu.RLock()
	defer q.mu.RUnlock()

	ret := make([]*CaptionJob, 0, len(q.jobs))
	for _, job := range q.jobs {
		ret = append(ret, cloneJob(job))
	}
	return ret
}

func (q *Queue) Start(exec Executor) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true

	pending := make([]string, 0)
	for id, job := range q.jobs {
		if job.Status == StatusQueued {
			pending = append(pending, id)
		}
	}
	q.mu.Unlock()

	for _, id := range pending {
		q.enqueuePendingID(id)
	}

	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker(exec)
	}
}

func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.stopCh)
		q.wg.Wait()
	})
}

func (q *Queue) worker(exec Executor) {
	defer q.wg.Done()

	for {
		select {
		case <-q.stopCh:
			return
		case id := <-q.pendingIDs:
			job, ok := q.claim(id)
			if !ok {
				continue
			}

			output, err := exec(context.Background(), job, func(status Status) {
				q.SetStatus(id, status)
			})
			if err != nil {
				q.markFailed(id, err)
				continue
			}
			q.markCompleted(id, output)
		}
	}
}

func (q *Queue) enqueuePendingID(id string) {
	select {
	case q.pendingIDs <- id:
	default:
		go func() { q.pendingIDs <- id }()
	}
}

// claim atomically takes a queued job for execution by advancing it to
// downloading, which also keeps a duplicate channel entry from running
// the same job twice.
func (q *Queue) claim(id string) (*CaptionJob, bool) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok || job.Status != StatusQueued {
		q.mu.Unlock()
		return nil, false
	}
	job.Status = StatusDownloading
	job.UpdatedAt = time.Now()
	snapshot := cloneJob(job)
	q.mu.Unlock()

	q.persistJob(snapshot)
	return snapshot, true
}

// SetStatus advances a job to a later non-terminal phase. Backward or
// repeated transitions are ignored, keeping the lifecycle one-way;
// terminal states go through markCompleted/markFailed only.
func (q *Queue) SetStatus(id string, status Status) {
	if status.Terminal() || statusRank(status) < 0 {
		return
	}

	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok || job.Status.Terminal() || statusRank(status) <= statusRank(job.Status) {
		q.mu.Unlock()
		return
	}
	job.Status = status
	job.UpdatedAt = time.Now()
	snapshot := cloneJob(job)
	q.mu.Unlock()

	q.persistJob(snapshot)
}

func (q *Queue) markCompleted(id, outputPath string) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok || job.Status.Terminal() {
		q.mu.Unlock()
		return
	}
	job.Status = StatusCompleted
	job.OutputPath = outputPath
	job.Error = ""
	job.UpdatedAt = time.Now()
	pruned := q.pruneTerminalJobsLocked()
	snapshot := cloneJob(job)
	q.mu.Unlock()

	q.persistJob(snapshot)
	q.deleteJobsFromStore(pruned)
}

func (q *Queue) markFailed(id string, err error) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok || job.Status.Terminal() {
		q.mu.Unlock()
		return
	}
	job.Status = StatusFailed
	if err != nil {
		job.Error = err.Error()
	}
	job.UpdatedAt = time.Now()
	pruned := q.pruneTerminalJobsLocked()
	snapshot := cloneJob(job)
	q.mu.Unlock()

	q.persistJob(snapshot)
	q.deleteJobsFromStore(pruned)
}

// Sweep evicts terminal jobs older than the retention window and returns
// their snapshots so the caller can remove output artifacts.
func (q *Queue) Sweep(retention time.Duration) []*CaptionJob {
	cutoff := time.Now().Add(-retention)

	q.mu.Lock()
	evicted := make([]*CaptionJob, 0)
	for id, job := range q.jobs {
		if job.Status.Terminal() && job.UpdatedAt.Before(cutoff) {
			evicted = append(evicted, cloneJob(job))
			delete(q.jobs, id)
		}
	}
	q.mu.Unlock()

	ids := make([]string, 0, len(evicted))
	for _, job := range evicted {
		ids = append(ids, job.ID)
	}
	q.deleteJobsFromStore(ids)
	return evicted
}

func (q *Queue) pruneTerminalJobsLocked() []string {
	if q.maxJobs <= 0 || len(q.jobs) <= q.maxJobs {
		return nil
	}

	type candidate struct {
		id        string
		updatedAt time.Time
	}
	terminal := make([]candidate, 0, len(q.jobs))
	for id, job := range q.jobs {
		if job == nil || !job.Status.Terminal() {
			continue
		}
		terminal = append(terminal, candidate{id: id, updatedAt: job.UpdatedAt})
	}
	if len(terminal) == 0 {
		return nil
	}

	sort.Slice(terminal, func(i, j int) bool {
		return terminal[i].updatedAt.Before(terminal[j].updatedAt)
	})

	toRemove := len(q.jobs) - q.maxJobs
	if toRemove <= 0 {
		return nil
	}
	if toRemove > len(terminal) {
		toRemove = len(terminal)
	}

	pruned := make([]string, 0, toRemove)
	for i := 0; i < toRemove; i++ {
		delete(q.jobs, terminal[i].id)
		pruned = append(pruned, terminal[i].id)
	}
	return pruned
}

func (q *Queue) deleteJobsFromStore(ids []string) {
	if q.store == nil || len(ids) == 0 {
		return
	}
	for _, id := range ids {
		if err := q.store.DeleteJob(context.Background(), id); err != nil {
			log.Error("Failed to delete pruned job %s from store: %v", id, err)
		}
	}
}

// hydrateFromStore reloads persisted jobs on startup. Jobs caught mid-run
// by a crash are reset to queued; the pipeline is rerunnable from the
// original request.
func (q *Queue) hydrateFromStore(ctx context.Context) {
	if q.store == nil {
		return
	}
	loaded, err := q.store.LoadJobs(ctx)
	if err != nil {
		log.Error("Failed to load jobs from store: %v", err)
		return
	}

	now := time.Now()
	toPersist := make([]*CaptionJob, 0)
	q.mu.Lock()
	for _, raw := range loaded {
		if raw == nil || raw.ID == "" {
			continue
		}
		job := cloneJob(raw)
		if !job.Status.Terminal() && job.Status != StatusQueued {
			job.Status = StatusQueued
			job.UpdatedAt = now
			toPersist = append(toPersist, cloneJob(job))
		}
		q.jobs[job.ID] = job
	}
	q.mu.Unlock()

	for _, job := range toPersist {
		q.persistJob(job)
	}
}

func (q *Queue) persistJob(job *CaptionJob) {
	if q.store == nil || job == nil {
		return
	}
	if err := q.store.UpsertJob(context.Background(), job); err != nil {
		log.Error("Failed to persist job %s: %v", job.ID, err)
	}
}

func cloneJob(job *CaptionJob) *CaptionJob {
	if job == nil {
		return nil
	}
	tmp := *job
	return &tmp
}
