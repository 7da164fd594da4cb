package report

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/droidscope/logdex/internal/errs"
	"github.com/droidscope/logdex/internal/models"
)

// Index builds run synchronously on a dedicated worker; interactive
// callers submit a job and poll instead of blocking on a multi-hundred-MB
// scan. One goroutine drains the queue, so at most one build runs at a
// time process-wide.

type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job tracks one async Prepare from submission to completion.
type Job struct {
	ID         string          `json:"job_id"`
	SourcePath string          `json:"source_path"`
	TraceID    string          `json:"trace_id,omitempty"`
	Status     JobStatus       `json:"status"`
	Summary    *models.Summary `json:"summary,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// JobRunner owns the background build worker and the job table.
type JobRunner struct {
	svc   *Service
	queue chan string

	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobRunner starts the worker goroutine. queueDepth bounds how many
// builds can wait; past that, Submit fails fast instead of hoarding work.
func NewJobRunner(svc *Service, queueDepth int) *JobRunner {
	if queueDepth < 1 {
		queueDepth = 16
	}

	r := &JobRunner{
		svc:   svc,
		queue: make(chan string, queueDepth),
		jobs:  make(map[string]*Job),
	}
	go r.run()
	return r
}

// Submit queues an async Prepare and returns the job to poll.
func (r *JobRunner) Submit(sourcePath, traceID string) (Job, error) {
	if sourcePath == "" {
		return Job{}, errs.Validation("source path is required")
	}

	job := &Job{
		ID:         uuid.NewString(),
		SourcePath: sourcePath,
		TraceID:    traceID,
		Status:     JobQueued,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	select {
	case r.queue <- job.ID:
		return *job, nil
	default:
		r.mu.Lock()
		delete(r.jobs, job.ID)
		r.mu.Unlock()
		return Job{}, errs.Validation("build queue is full, retry later")
	}
}

// Get returns a snapshot of a job, or false if the id is unknown.
func (r *JobRunner) Get(id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

func (r *JobRunner) run() {
	for id := range r.queue {
		r.setStatus(id, JobRunning, nil, "")

		r.mu.RLock()
		job := r.jobs[id]
		r.mu.RUnlock()

		summary, err := r.svc.Prepare(job.SourcePath, job.TraceID)
		if err != nil {
			r.svc.logger.Printf("[job %s] Build failed: %v", id, err)
			r.setStatus(id, JobFailed, nil, err.Error())
			continue
		}
		r.setStatus(id, JobDone, &summary, "")
	}
}

func (r *JobRunner) setStatus(id string, status JobStatus, summary *models.Summary, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job, ok := r.jobs[id]; ok {
		job.Status = status
		job.Summary = summary
		job.Error = errMsg
		job.UpdatedAt = time.Now()
	}
}
