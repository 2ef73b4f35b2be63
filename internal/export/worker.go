package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"greenleaf/internal/blob"
	"greenleaf/internal/stats"
	"greenleaf/pkg/domain"
)

// Status describes the lifecycle stage of an export job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// DefaultQueueSize bounds the number of pending jobs.
const DefaultQueueSize = 32

var (
	// ErrQueueFull is returned by Enqueue when the queue is at capacity.
	ErrQueueFull = errors.New("export queue full")
	// ErrInvalidRequest marks a request with an unsupported format.
	ErrInvalidRequest = errors.New("invalid export request")
	// ErrStopped is returned by Enqueue after Stop.
	ErrStopped = errors.New("export worker stopped")
)

// Artifact is a rendered file stored in the blob store.
type Artifact struct {
	Key         string    `json:"key"`
	Format      Format    `json:"format"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

// Job tracks an export request and its artifacts.
type Job struct {
	ID          string       `json:"id"`
	Period      stats.Period `json:"period"`
	Formats     []Format     `json:"formats"`
	Status      Status       `json:"status"`
	Error       string       `json:"error,omitempty"`
	Samples     int          `json:"samples"`
	Artifacts   []Artifact   `json:"artifacts,omitempty"`
	RequestedBy string       `json:"requested_by,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

func (j *Job) copy() Job {
	out := *j
	out.Formats = append([]Format(nil), j.Formats...)
	out.Artifacts = append([]Artifact(nil), j.Artifacts...)
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// Request is an enqueue request for the worker.
type Request struct {
	Period      stats.Period
	Formats     []Format
	RequestedBy string
}

// SampleSource supplies the samples an export reads.
type SampleSource interface {
	ListSamples(ctx context.Context) ([]domain.Sample, error)
}

// Worker renders exports asynchronously and stores them in the blob store.
type Worker struct {
	source SampleSource
	store  blob.Store
	logger *zap.Logger
	now    func() time.Time

	queue chan string
	mu    sync.RWMutex
	jobs  map[string]*Job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithQueueSize sets the queue capacity.
func WithQueueSize(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.queue = make(chan string, n)
		}
	}
}

// WithLogger sets the worker logger.
func WithLogger(logger *zap.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithClock overrides the clock used for filters and timestamps.
func WithClock(now func() time.Time) WorkerOption {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

// NewWorker constructs an export worker. Call Start to begin processing.
func NewWorker(source SampleSource, store blob.Store, opts ...WorkerOption) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		source: source,
		store:  store,
		logger: zap.NewNop(),
		now:    time.Now,
		queue:  make(chan string, DefaultQueueSize),
		jobs:   make(map[string]*Job),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for the loop to exit or ctx to
// expire. Queued jobs that never ran stay queued.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case id := <-w.queue:
			w.process(id)
		}
	}
}

// Enqueue validates req and schedules it, returning the queued job. A
// cancelled ctx rejects the request before anything is queued.
func (w *Worker) Enqueue(ctx context.Context, req Request) (Job, error) {
	if err := w.ctx.Err(); err != nil {
		return Job{}, ErrStopped
	}
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	formats, err := uniqueFormats(req.Formats)
	if err != nil {
		return Job{}, err
	}
	period := req.Period
	if period == "" {
		period = stats.PeriodAll
	}

	now := w.now().UTC()
	job := &Job{
		ID:          uuid.NewString(),
		Period:      period,
		Formats:     formats,
		Status:      StatusQueued,
		RequestedBy: req.RequestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[job.ID] = job
	snapshot := job.copy()
	w.mu.Unlock()

	select {
	case w.queue <- job.ID:
	default:
		w.mu.Lock()
		delete(w.jobs, job.ID)
		w.mu.Unlock()
		return Job{}, ErrQueueFull
	}
	w.logger.Info("export queued",
		zap.String("export_id", job.ID),
		zap.String("period", string(period)),
		zap.String("requested_by", req.RequestedBy),
	)
	return snapshot, nil
}

// Get returns a snapshot of the job.
func (w *Worker) Get(id string) (Job, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	job, ok := w.jobs[id]
	if !ok {
		return Job{}, false
	}
	return job.copy(), true
}

// List returns snapshots of all known jobs, newest first.
func (w *Worker) List() []Job {
	w.mu.RLock()
	out := make([]Job, 0, len(w.jobs))
	for _, job := range w.jobs {
		out = append(out, job.copy())
	}
	w.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (w *Worker) process(id string) {
	job, ok := w.Get(id)
	if !ok {
		return
	}
	w.update(id, func(j *Job) { j.Status = StatusRunning })

	samples, err := w.source.ListSamples(w.ctx)
	if err != nil {
		w.fail(id, fmt.Errorf("list samples: %w", err))
		return
	}
	report := NewReport(samples, job.Period, w.now())

	artifacts := make([]Artifact, 0, len(job.Formats))
	for _, format := range job.Formats {
		artifact, err := w.storeArtifact(id, format, report)
		if err != nil {
			w.discard(id, artifacts)
			w.fail(id, err)
			return
		}
		artifacts = append(artifacts, artifact)
	}

	completed := w.now().UTC()
	w.update(id, func(j *Job) {
		j.Status = StatusSucceeded
		j.Samples = len(report.Samples)
		j.Artifacts = artifacts
		j.CompletedAt = &completed
	})
	w.logger.Info("export succeeded", zap.String("export_id", id), zap.Int("artifacts", len(artifacts)))
}

func (w *Worker) storeArtifact(id string, format Format, report Report) (Artifact, error) {
	var buf bytes.Buffer
	if err := Render(&buf, format, report); err != nil {
		return Artifact{}, fmt.Errorf("render %s: %w", format, err)
	}
	filename := report.Filename(format)
	size := int64(buf.Len())
	info, err := w.store.Put(w.ctx, blob.ExportKey(id, filename), &buf, blob.PutOptions{
		ContentType: format.ContentType(),
		Metadata:    map[string]string{"export_id": id, "period": string(report.Period)},
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("store %s: %w", format, err)
	}
	if info.Size == 0 {
		info.Size = size
	}
	return Artifact{
		Key:         info.Key,
		Format:      format,
		Filename:    filename,
		ContentType: format.ContentType(),
		SizeBytes:   info.Size,
		URL:         info.URL,
		CreatedAt:   w.now().UTC(),
	}, nil
}

// discard removes the artifacts a failed job already stored.
func (w *Worker) discard(id string, artifacts []Artifact) {
	ctx := context.WithoutCancel(w.ctx)
	for _, a := range artifacts {
		if _, err := w.store.Delete(ctx, a.Key); err != nil {
			w.logger.Warn("discard export artifact",
				zap.String("export_id", id), zap.String("key", a.Key), zap.Error(err))
		}
	}
}

func (w *Worker) update(id string, mutate func(*Job)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if job, ok := w.jobs[id]; ok {
		mutate(job)
		job.UpdatedAt = w.now().UTC()
	}
}

func (w *Worker) fail(id string, err error) {
	completed := w.now().UTC()
	w.update(id, func(j *Job) {
		j.Status = StatusFailed
		j.Error = err.Error()
		j.CompletedAt = &completed
	})
	w.logger.Error("export failed", zap.String("export_id", id), zap.Error(err))
}

func uniqueFormats(in []Format) ([]Format, error) {
	if len(in) == 0 {
		return []Format{FormatXLSX}, nil
	}
	out := make([]Format, 0, len(in))
	seen := make(map[Format]struct{}, len(in))
	for _, raw := range in {
		f, err := ParseFormat(string(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out, nil
}
