// Package core hosts the sample service: it orchestrates the sample store,
// the analyzer and the blob store, and wraps every operation with tracing,
// metrics, audit and structured logging.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"greenleaf/internal/analysis"
	"greenleaf/internal/blob"
	"greenleaf/internal/mapview"
	"greenleaf/internal/stats"
	"greenleaf/pkg/domain"
)

// Operation names reported to metrics, traces and audit entries.
const (
	OpListSamples   = "list_samples"
	OpGetSample     = "get_sample"
	OpCreateSample  = "create_sample"
	OpReplaceSample = "replace_sample"
	OpPatchSample   = "patch_sample"
	OpDeleteSample  = "delete_sample"
	OpAttachImage   = "attach_image"
	OpDashboard     = "dashboard"
	OpMapOverview   = "map_overview"
	OpMapFeatures   = "map_features"
)

var (
	// ErrInvalidImage marks an upload that is not an image.
	ErrInvalidImage = errors.New("upload is not an image")
	// ErrNoBlobStore is returned by image operations when no blob store is configured.
	ErrNoBlobStore = errors.New("blob store not configured")
)

// Service exposes the sample operations used by the HTTP API and the CLI.
type Service struct {
	store    domain.SampleStore
	analyzer analysis.Analyzer
	blobs    blob.Store
	logger   *zap.Logger
	metrics  MetricsRecorder
	tracer   Tracer
	audit    AuditRecorder
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for operation logs.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder sets the recorder observing operation outcomes.
func WithMetricsRecorder(rec MetricsRecorder) Option {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithTracer sets the tracer wrapping each operation.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithAuditRecorder sets the recorder receiving mutation audit entries.
func WithAuditRecorder(rec AuditRecorder) Option {
	return func(s *Service) {
		if rec != nil {
			s.audit = rec
		}
	}
}

// WithAnalyzer replaces the default random analyzer.
func WithAnalyzer(a analysis.Analyzer) Option {
	return func(s *Service) {
		if a != nil {
			s.analyzer = a
		}
	}
}

// WithClock overrides the clock used for date windows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBlobStore enables image uploads.
func WithBlobStore(store blob.Store) Option {
	return func(s *Service) {
		s.blobs = store
	}
}

// NewService constructs a service backed by store.
func NewService(store domain.SampleStore, opts ...Option) *Service {
	s := &Service{
		store:    store,
		analyzer: analysis.NewRandomAnalyzer(),
		logger:   zap.NewNop(),
		metrics:  noopMetrics{},
		tracer:   noopTracer{},
		audit:    noopAudit{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying sample store.
func (s *Service) Store() domain.SampleStore { return s.store }

// Blobs returns the configured blob store, which may be nil.
func (s *Service) Blobs() blob.Store { return s.blobs }

// Now returns the service clock reading.
func (s *Service) Now() time.Time { return s.now() }

// ListSamples returns every stored sample.
func (s *Service) ListSamples(ctx context.Context) ([]domain.Sample, error) {
	var out []domain.Sample
	err := s.run(ctx, OpListSamples, nil, false, func(ctx context.Context) error {
		var err error
		out, err = s.store.List(ctx)
		return err
	})
	return out, err
}

// GetSample returns a single sample.
func (s *Service) GetSample(ctx context.Context, id string) (domain.Sample, error) {
	var out domain.Sample
	err := s.run(ctx, OpGetSample, &id, false, func(ctx context.Context) error {
		var err error
		out, err = s.store.Get(ctx, id)
		return err
	})
	return out, err
}

// CreateSample applies defaults, attaches a fresh analysis and stores the
// sample. Any analysis in the input is discarded.
func (s *Service) CreateSample(ctx context.Context, sample domain.Sample) (domain.Sample, error) {
	var (
		id      string
		created domain.Sample
	)
	err := s.run(ctx, OpCreateSample, &id, true, func(ctx context.Context) error {
		sample.ApplyCreateDefaults()
		result, err := s.analyzer.Analyze(ctx, sample)
		if err != nil {
			return fmt.Errorf("analyze sample: %w", err)
		}
		sample.Analysis = result
		created, err = s.store.Create(ctx, sample)
		if err != nil {
			return err
		}
		id = created.ID
		return nil
	})
	return created, err
}

// ReplaceSample overwrites the whole document. Omitted fields become zero or
// null. A well-formed unknown id yields (nil, nil).
func (s *Service) ReplaceSample(ctx context.Context, id string, sample domain.Sample) (*domain.Sample, error) {
	var out *domain.Sample
	err := s.run(ctx, OpReplaceSample, &id, true, func(ctx context.Context) error {
		var err error
		out, err = s.store.Replace(ctx, id, sample)
		return err
	})
	return out, err
}

// PatchSample merges patch into the stored sample.
func (s *Service) PatchSample(ctx context.Context, id string, patch domain.SamplePatch) (domain.Sample, error) {
	var out domain.Sample
	err := s.run(ctx, OpPatchSample, &id, true, func(ctx context.Context) error {
		current, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		merged := patch.Apply(current)
		stored, err := s.store.Replace(ctx, id, merged)
		if err != nil {
			return err
		}
		if stored == nil {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		out = *stored
		return nil
	})
	return out, err
}

// DeleteSample removes the sample. Absent ids are not an error.
func (s *Service) DeleteSample(ctx context.Context, id string) error {
	return s.run(ctx, OpDeleteSample, &id, true, func(ctx context.Context) error {
		return s.store.Delete(ctx, id)
	})
}

// Upload is an image attached to a sample.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// AttachImage stores upload in the blob store and records its URL as the
// sample's original image.
func (s *Service) AttachImage(ctx context.Context, id string, upload Upload) (domain.Sample, error) {
	var out domain.Sample
	err := s.run(ctx, OpAttachImage, &id, true, func(ctx context.Context) error {
		if s.blobs == nil {
			return ErrNoBlobStore
		}
		if !strings.HasPrefix(upload.ContentType, "image/") {
			return fmt.Errorf("%w: content type %q", ErrInvalidImage, upload.ContentType)
		}
		current, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		key := blob.ImageKey(id, upload.Filename, upload.ContentType)
		info, err := s.blobs.Put(ctx, key, upload.Body, blob.PutOptions{
			ContentType: upload.ContentType,
			Metadata:    map[string]string{"sample_id": id, "filename": upload.Filename},
		})
		if err != nil {
			return fmt.Errorf("store image: %w", err)
		}
		current.OriginalImage = info.URL
		stored, err := s.store.Replace(ctx, id, current)
		if err == nil && stored == nil {
			err = fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		if err != nil {
			if _, delErr := s.blobs.Delete(ctx, key); delErr != nil {
				s.logger.Warn("orphaned image blob", zap.String("key", key), zap.Error(delErr))
			}
			return err
		}
		out = *stored
		return nil
	})
	return out, err
}

// Dashboard aggregates the samples collected within period.
func (s *Service) Dashboard(ctx context.Context, period stats.Period) (stats.Dashboard, error) {
	var out stats.Dashboard
	err := s.run(ctx, OpDashboard, nil, false, func(ctx context.Context) error {
		samples, err := s.store.List(ctx)
		if err != nil {
			return err
		}
		out = stats.BuildDashboard(samples, period, s.now())
		return nil
	})
	return out, err
}

// MapOverview is the heatmap payload.
type MapOverview struct {
	Points  []mapview.Point `json:"points"`
	Summary mapview.Summary `json:"summary"`
}

// MapOverview returns the heatmap points and map counters.
func (s *Service) MapOverview(ctx context.Context) (MapOverview, error) {
	var out MapOverview
	err := s.run(ctx, OpMapOverview, nil, false, func(ctx context.Context) error {
		samples, err := s.store.List(ctx)
		if err != nil {
			return err
		}
		out = MapOverview{Points: mapview.Heatmap(samples), Summary: mapview.Summarize(samples)}
		return nil
	})
	return out, err
}

// MapFeatures returns the located samples as a GeoJSON feature collection.
func (s *Service) MapFeatures(ctx context.Context) (*geojson.FeatureCollection, error) {
	var out *geojson.FeatureCollection
	err := s.run(ctx, OpMapFeatures, nil, false, func(ctx context.Context) error {
		samples, err := s.store.List(ctx)
		if err != nil {
			return err
		}
		out = mapview.FeatureCollection(samples)
		return nil
	})
	return out, err
}

// run wraps fn with a span, a metrics observation, a log line and, for
// mutations, an audit entry. id may be filled in by fn.
func (s *Service) run(ctx context.Context, op string, id *string, mutating bool, fn func(context.Context) error) error {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, op)
	err := fn(ctx)
	span.End(err)
	elapsed := time.Since(started)
	s.metrics.Observe(ctx, op, err == nil, elapsed)

	fields := []zap.Field{zap.String("operation", op), zap.Duration("duration", elapsed)}
	var sampleID string
	if id != nil && *id != "" {
		sampleID = *id
		fields = append(fields, zap.String("sample_id", sampleID))
	}
	switch {
	case err == nil:
		s.logger.Info("sample operation succeeded", fields...)
	case IsClientError(err):
		s.logger.Info("sample operation rejected", append(fields, zap.Error(err))...)
	default:
		s.logger.Error("sample operation failed", append(fields, zap.Error(err))...)
	}

	if mutating {
		entry := AuditEntry{
			Operation:  op,
			SampleID:   sampleID,
			Actor:      ActorFrom(ctx),
			Status:     AuditStatusSuccess,
			Duration:   elapsed,
			OccurredAt: s.now().UTC(),
		}
		if err != nil {
			entry.Status = AuditStatusError
			entry.Error = err.Error()
		}
		s.audit.Record(ctx, entry)
	}
	return err
}

// IsClientError reports whether err stems from the caller's input rather
// than a backend failure.
func IsClientError(err error) bool {
	return errors.Is(err, domain.ErrInvalidID) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, ErrInvalidImage)
}
