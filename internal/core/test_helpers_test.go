package core

import (
	"context"
	"sync"
	"time"

	"greenleaf/internal/analysis"
	"greenleaf/internal/infra/persistence/memory"
	"greenleaf/pkg/domain"
)

var fixedNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func fixedAnalysis() analysis.FixedAnalyzer {
	return analysis.FixedAnalyzer{Result: domain.Analysis{
		Organism:       domain.DefaultOrganism,
		Severity:       domain.SeverityModerate,
		AffectedArea:   domain.Float(42.5),
		Confidence:     domain.Float(91.2),
		SegmentedImage: "https://exemplo.com/imagens/segmentada_1.jpg",
		AnalyzedAt:     domain.NewDate(fixedNow),
	}}
}

func newTestService(opts ...Option) *Service {
	base := []Option{WithAnalyzer(fixedAnalysis()), WithClock(func() time.Time { return fixedNow })}
	return NewService(memory.NewStore(), append(base, opts...)...)
}

type captureAuditRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (c *captureAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
}

func (c *captureAuditRecorder) has(op string, status AuditStatus, predicate func(AuditEntry) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range c.entries {
		if entry.Operation == op && entry.Status == status {
			if predicate == nil || predicate(entry) {
				return true
			}
		}
	}
	return false
}

type metricsCall struct {
	op      string
	success bool
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

// failingStore errors on every call.
type failingStore struct {
	domain.SampleStore
	err error
}

func (f failingStore) List(context.Context) ([]domain.Sample, error) { return nil, f.err }

func (f failingStore) Get(context.Context, string) (domain.Sample, error) {
	return domain.Sample{}, f.err
}

func (f failingStore) Create(context.Context, domain.Sample) (domain.Sample, error) {
	return domain.Sample{}, f.err
}
