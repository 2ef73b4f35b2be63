// Package analysis produces the Analysis attached to a sample at creation.
// No model runs here: RandomAnalyzer fabricates plausible values and
// FixedAnalyzer returns a preset result.
package analysis

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"greenleaf/pkg/domain"
)

// DefaultSegmentedBaseURL prefixes generated segmented image URLs.
const DefaultSegmentedBaseURL = "https://exemplo.com/imagens"

// Analyzer classifies a sample.
type Analyzer interface {
	Analyze(ctx context.Context, sample domain.Sample) (domain.Analysis, error)
}

// RandomAnalyzer is the stub generator used until a real model exists.
type RandomAnalyzer struct {
	mu      sync.Mutex
	rng     *rand.Rand
	now     func() time.Time
	baseURL string
}

// Option configures a RandomAnalyzer.
type Option func(*RandomAnalyzer)

// WithSource replaces the randomness source, typically with a seeded PCG in tests.
func WithSource(src rand.Source) Option {
	return func(a *RandomAnalyzer) {
		if src != nil {
			a.rng = rand.New(src)
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(a *RandomAnalyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// WithSegmentedBaseURL sets the prefix for segmented image URLs.
func WithSegmentedBaseURL(base string) Option {
	return func(a *RandomAnalyzer) {
		if base != "" {
			a.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// NewRandomAnalyzer constructs the stub generator.
func NewRandomAnalyzer(opts ...Option) *RandomAnalyzer {
	seed := uint64(time.Now().UnixNano())
	a := &RandomAnalyzer{
		rng:     rand.New(rand.NewPCG(seed, seed>>1|1)),
		now:     time.Now,
		baseURL: DefaultSegmentedBaseURL,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze draws a severity uniformly from domain.Severities, an affected
// area in [0,100] and a confidence in [80,100], both rounded to one decimal.
func (a *RandomAnalyzer) Analyze(ctx context.Context, _ domain.Sample) (domain.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return domain.Analysis{}, err
	}
	a.mu.Lock()
	severity := domain.Severities[a.rng.IntN(len(domain.Severities))]
	area := round1(a.rng.Float64() * 100)
	confidence := round1(80 + a.rng.Float64()*20)
	a.mu.Unlock()

	now := a.now()
	return domain.Analysis{
		Organism:       domain.DefaultOrganism,
		Severity:       severity,
		AffectedArea:   domain.Float(area),
		Confidence:     domain.Float(confidence),
		SegmentedImage: fmt.Sprintf("%s/segmentada_%d.jpg", a.baseURL, now.UnixMilli()),
		AnalyzedAt:     domain.NewDate(now),
	}, nil
}

// FixedAnalyzer always returns Result.
type FixedAnalyzer struct {
	Result domain.Analysis
	Err    error
}

// Analyze returns a copy of the preset result.
func (f FixedAnalyzer) Analyze(context.Context, domain.Sample) (domain.Analysis, error) {
	if f.Err != nil {
		return domain.Analysis{}, f.Err
	}
	return f.Result.Clone(), nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
