package pipeline

import (
	"sync"
	"time"

	"github.com/dgallion1/recexport/internal/export"
	"github.com/rs/xid"
)

// JobStatus represents the state of an export job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusPaginating JobStatus = "paginating"
	StatusRendering  JobStatus = "rendering"
	StatusAssembling JobStatus = "assembling"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// statusForStage maps export progress onto job status.
var statusForStage = map[export.Stage]JobStatus{
	export.StageParsing:    StatusParsing,
	export.StagePaginating: StatusPaginating,
	export.StageRendering:  StatusRendering,
	export.StageAssembling: StatusAssembling,
}

// Job tracks the state of a single asynchronous export.
type Job struct {
	mu sync.Mutex

	ID     string        `json:"job_id"`
	Format export.Format `json:"format"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`
	Title  string    `json:"title"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	request   export.Request
	result    *export.Result
	errorKind string
	errors    []string
}

// NewJob creates a queued job for one export request.
func NewJob(format export.Format, req export.Request) *Job {
	now := time.Now()
	return &Job{
		ID:        xid.New().String(),
		Format:    format,
		Status:    StatusQueued,
		Phase:     "queued",
		Title:     req.Record.Title,
		CreatedAt: now,
		UpdatedAt: now,
		request:   req,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs and the artifacts they hold.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Fail records the error and marks the job failed.
func (j *Job) Fail(kind, phase string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errorKind = kind
	j.errors = append(j.errors, err.Error())
	j.Status = StatusFailed
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Complete stores the finished artifact.
func (j *Job) Complete(res *export.Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = res
	j.Status = StatusCompleted
	j.Phase = "done"
	j.UpdatedAt = time.Now()
}

// Result returns the artifact once the job has completed, or nil.
func (j *Job) Result() *export.Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// Request returns the export request the job was created with.
func (j *Job) Request() export.Request {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.request
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string        `json:"job_id"`
	Format    export.Format `json:"format"`
	Status    JobStatus     `json:"status"`
	Phase     string        `json:"phase"`
	Title     string        `json:"title"`
	Filename  string        `json:"filename,omitempty"`
	Pages     int           `json:"pages,omitempty"`
	Bytes     int           `json:"bytes,omitempty"`
	Warnings  []string      `json:"warnings"`
	ErrorKind string        `json:"error_kind,omitempty"`
	Errors    []string      `json:"errors"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := JobSnapshot{
		ID:        j.ID,
		Format:    j.Format,
		Status:    j.Status,
		Phase:     j.Phase,
		Title:     j.Title,
		Warnings:  []string{},
		ErrorKind: j.errorKind,
		Errors:    append([]string{}, j.errors...),
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
	if r := j.result; r != nil {
		snap.Filename = r.Filename
		snap.Pages = r.Pages
		snap.Bytes = len(r.Data)
		snap.Warnings = append(snap.Warnings, r.Warnings...)
	}
	return snap
}
