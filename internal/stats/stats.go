// Package stats aggregates sample sets into the dashboard summary: counts,
// label histograms, means and the derived insights.
package stats

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"greenleaf/pkg/domain"
)

// Labels used when a sample lacks the grouped field.
const (
	UndefinedSeverity  = "Não definido"
	UnknownState       = "Não informado"
	UndetectedOrganism = "Não detectada"
)

// RecentWindow is the look-back used for RecentSamples.
const RecentWindow = 7 * 24 * time.Hour

// Period selects a date window ending now.
type Period string

// Supported periods.
const (
	PeriodAll   Period = "all"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

var periodWindows = map[Period]time.Duration{
	PeriodWeek:  7 * 24 * time.Hour,
	PeriodMonth: 30 * 24 * time.Hour,
	PeriodYear:  365 * 24 * time.Hour,
}

// ParsePeriod maps a period name to a Period. Unknown names select all.
func ParsePeriod(raw string) Period {
	p := Period(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := periodWindows[p]; ok {
		return p
	}
	return PeriodAll
}

// Cutoff returns the earliest collection time kept by p. The second result is
// false for PeriodAll.
func (p Period) Cutoff(now time.Time) (time.Time, bool) {
	window, ok := periodWindows[p]
	if !ok {
		return time.Time{}, false
	}
	return now.Add(-window), true
}

// Filter keeps samples collected at or after the period cutoff. Samples with
// no collection date are dropped unless p is PeriodAll.
func Filter(samples []domain.Sample, p Period, now time.Time) []domain.Sample {
	cutoff, ok := p.Cutoff(now)
	if !ok {
		return samples
	}
	out := make([]domain.Sample, 0, len(samples))
	for _, s := range samples {
		if s.CollectedAt == nil || s.CollectedAt.IsZero() {
			continue
		}
		if !s.CollectedAt.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out
}

// Stats is the dashboard aggregate.
type Stats struct {
	Total            int       `json:"total"`
	ByInfectionLevel Histogram `json:"byInfectionLevel"`
	ByState          Histogram `json:"byState"`
	ByBacteria       Histogram `json:"byBacteria"`
	AvgConfidence    float64   `json:"avgConfidence"`
	AvgAffectedArea  float64   `json:"avgAffectedArea"`
	RecentSamples    int       `json:"recentSamples"`
}

// Compute aggregates samples. Means ignore missing and zero values and are
// rounded to one decimal; they are zero when nothing qualifies.
func Compute(samples []domain.Sample, now time.Time) Stats {
	out := Stats{
		Total:            len(samples),
		ByInfectionLevel: Histogram{},
		ByState:          Histogram{},
		ByBacteria:       Histogram{},
	}
	recentCutoff := now.Add(-RecentWindow)
	var confidences, areas []float64
	for _, s := range samples {
		out.ByInfectionLevel.Add(orDefault(s.Analysis.Severity, UndefinedSeverity))
		out.ByState.Add(orDefault(s.Location.State, UnknownState))
		out.ByBacteria.Add(orDefault(s.Analysis.Organism, UndetectedOrganism))
		if v := s.Analysis.Confidence; v != nil && *v != 0 {
			confidences = append(confidences, *v)
		}
		if v := s.Analysis.AffectedArea; v != nil && *v != 0 {
			areas = append(areas, *v)
		}
		if s.CollectedAt != nil && !s.CollectedAt.IsZero() && !s.CollectedAt.Before(recentCutoff) {
			out.RecentSamples++
		}
	}
	out.AvgConfidence = mean1(confidences)
	out.AvgAffectedArea = mean1(areas)
	return out
}

// Alert kinds.
const (
	AlertSevereInfection  = "severe_infection"
	AlertLowConfidence    = "low_confidence"
	AlertHighAffectedArea = "high_affected_area"
)

// Alert thresholds.
const (
	LowConfidenceThreshold    = 80.0
	HighAffectedAreaThreshold = 50.0
)

// Alert is a risk flag raised from the aggregate.
type Alert struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Report holds the executive summary derived from Stats.
type Report struct {
	TopState      string  `json:"topState"`
	TopBacteria   string  `json:"topBacteria"`
	RecentPercent int     `json:"recentPercent"`
	Alerts        []Alert `json:"alerts"`
}

// NotAvailable is reported when a histogram is empty.
const NotAvailable = "N/A"

// Insights derives the summary and alerts shown next to the charts.
func Insights(s Stats) Report {
	r := Report{TopState: NotAvailable, TopBacteria: NotAvailable, Alerts: []Alert{}}
	if top, ok := s.ByState.Top(); ok {
		r.TopState = top
	}
	if top, ok := s.ByBacteria.Top(); ok {
		r.TopBacteria = top
	}
	if s.Total > 0 {
		r.RecentPercent = int(math.Round(float64(s.RecentSamples) / float64(s.Total) * 100))
	}
	if n := s.ByInfectionLevel.Get(domain.SeveritySevere); n > 0 {
		r.Alerts = append(r.Alerts, Alert{
			Kind:    AlertSevereInfection,
			Message: fmt.Sprintf("%d amostras com infecção grave detectada", n),
		})
	}
	if s.AvgConfidence > 0 && s.AvgConfidence < LowConfidenceThreshold {
		r.Alerts = append(r.Alerts, Alert{
			Kind:    AlertLowConfidence,
			Message: fmt.Sprintf("Confiabilidade média baixa (%.1f%%)", s.AvgConfidence),
		})
	}
	if s.AvgAffectedArea > HighAffectedAreaThreshold {
		r.Alerts = append(r.Alerts, Alert{
			Kind:    AlertHighAffectedArea,
			Message: fmt.Sprintf("Área afetada média alta (%.1f%%)", s.AvgAffectedArea),
		})
	}
	return r
}

// Dashboard is the payload of the dashboard endpoint.
type Dashboard struct {
	Period   Period `json:"period"`
	Stats    Stats  `json:"stats"`
	Insights Report `json:"insights"`
}

// BuildDashboard filters samples by period and aggregates the result.
func BuildDashboard(samples []domain.Sample, p Period, now time.Time) Dashboard {
	s := Compute(Filter(samples, p, now), now)
	return Dashboard{Period: p, Stats: s, Insights: Insights(s)}
}

func mean1(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return math.Round(stat.Mean(values, nil)*10) / 10
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
