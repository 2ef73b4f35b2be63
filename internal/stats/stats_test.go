package stats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenleaf/pkg/domain"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func collected(daysAgo int) *domain.Date {
	return domain.NewDate(now.AddDate(0, 0, -daysAgo))
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil, now)
	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0.0, s.AvgConfidence)
	assert.Equal(t, 0.0, s.AvgAffectedArea)
	assert.Equal(t, 0, s.RecentSamples)
	assert.Empty(t, s.ByState)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":0,"byInfectionLevel":{},"byState":{},"byBacteria":{},"avgConfidence":0,"avgAffectedArea":0,"recentSamples":0}`, string(data))
}

func TestComputeMeansSkipMissingValues(t *testing.T) {
	samples := []domain.Sample{
		{Analysis: domain.Analysis{Confidence: domain.Float(90)}},
		{Analysis: domain.Analysis{Confidence: domain.Float(80)}},
		{},
	}
	s := Compute(samples, now)
	assert.Equal(t, 85.0, s.AvgConfidence)
	assert.Equal(t, 3, s.Total)
}

func TestComputeMeansSkipZeroAndRound(t *testing.T) {
	samples := []domain.Sample{
		{Analysis: domain.Analysis{AffectedArea: domain.Float(0)}},
		{Analysis: domain.Analysis{AffectedArea: domain.Float(10)}},
		{Analysis: domain.Analysis{AffectedArea: domain.Float(20)}},
		{Analysis: domain.Analysis{AffectedArea: domain.Float(33.3)}},
	}
	s := Compute(samples, now)
	assert.Equal(t, 21.1, s.AvgAffectedArea)
}

func TestComputeHistogramsUseFallbackLabels(t *testing.T) {
	samples := []domain.Sample{
		{Location: domain.Location{State: "SP"}, Analysis: domain.Analysis{Severity: "Grave", Organism: domain.DefaultOrganism}},
		{Location: domain.Location{State: "SP"}},
		{Location: domain.Location{State: "MG"}, Analysis: domain.Analysis{Severity: "Leve"}},
	}
	s := Compute(samples, now)
	assert.Equal(t, Histogram{{"Grave", 1}, {UndefinedSeverity, 1}, {"Leve", 1}}, s.ByInfectionLevel)
	assert.Equal(t, Histogram{{"SP", 2}, {"MG", 1}}, s.ByState)
	assert.Equal(t, 2, s.ByBacteria.Get(UndetectedOrganism))
}

func TestRecentSamplesIgnoresFilter(t *testing.T) {
	samples := []domain.Sample{
		{CollectedAt: collected(0)},
		{CollectedAt: collected(6)},
		{CollectedAt: collected(8)},
		{},
	}
	s := Compute(samples, now)
	assert.Equal(t, 2, s.RecentSamples)
}

func TestWeekFilter(t *testing.T) {
	today := domain.Sample{Code: "today", CollectedAt: collected(0)}
	old := domain.Sample{Code: "old", CollectedAt: collected(10)}
	undated := domain.Sample{Code: "undated"}
	samples := []domain.Sample{today, old, undated}

	week := Filter(samples, ParsePeriod("week"), now)
	require.Len(t, week, 1)
	assert.Equal(t, "today", week[0].Code)

	all := Filter(samples, ParsePeriod("all"), now)
	assert.Len(t, all, 3)

	month := Filter(samples, PeriodMonth, now)
	assert.Len(t, month, 2)
}

func TestParsePeriod(t *testing.T) {
	assert.Equal(t, PeriodWeek, ParsePeriod(" Week "))
	assert.Equal(t, PeriodYear, ParsePeriod("year"))
	assert.Equal(t, PeriodAll, ParsePeriod("decade"))
	assert.Equal(t, PeriodAll, ParsePeriod(""))
	cutoff, ok := PeriodMonth.Cutoff(now)
	assert.True(t, ok)
	assert.Equal(t, now.Add(-30*24*time.Hour), cutoff)
}

func TestInsights(t *testing.T) {
	s := Stats{
		Total:            4,
		ByInfectionLevel: Histogram{{"Leve", 1}, {"Grave", 3}},
		ByState:          Histogram{{"MG", 2}, {"SP", 2}},
		ByBacteria:       Histogram{{domain.DefaultOrganism, 4}},
		AvgConfidence:    75.5,
		AvgAffectedArea:  60,
		RecentSamples:    1,
	}
	r := Insights(s)
	assert.Equal(t, "MG", r.TopState)
	assert.Equal(t, domain.DefaultOrganism, r.TopBacteria)
	assert.Equal(t, 25, r.RecentPercent)
	require.Len(t, r.Alerts, 3)
	assert.Equal(t, AlertSevereInfection, r.Alerts[0].Kind)
	assert.Equal(t, "3 amostras com infecção grave detectada", r.Alerts[0].Message)
	assert.Equal(t, AlertLowConfidence, r.Alerts[1].Kind)
	assert.Equal(t, AlertHighAffectedArea, r.Alerts[2].Kind)
}

func TestInsightsEmpty(t *testing.T) {
	r := Insights(Compute(nil, now))
	assert.Equal(t, NotAvailable, r.TopState)
	assert.Equal(t, NotAvailable, r.TopBacteria)
	assert.Equal(t, 0, r.RecentPercent)
	assert.Empty(t, r.Alerts)
}

func TestHistogramJSONKeepsOrder(t *testing.T) {
	h := Histogram{{"Moderada", 2}, {"Leve", 5}}
	data, err := json.Marshal(h)
	require.NoError(t, err)
	assert.Equal(t, `{"Moderada":2,"Leve":5}`, string(data))

	var back Histogram
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, h, back)
	assert.Equal(t, "Leve", back.Sorted()[0].Label)
	assert.Equal(t, 5, back.Max())
}

func TestBuildDashboard(t *testing.T) {
	samples := []domain.Sample{
		{CollectedAt: collected(1), Analysis: domain.Analysis{Confidence: domain.Float(90)}},
		{CollectedAt: collected(40), Analysis: domain.Analysis{Confidence: domain.Float(50)}},
	}
	d := BuildDashboard(samples, PeriodMonth, now)
	assert.Equal(t, 1, d.Stats.Total)
	assert.Equal(t, 90.0, d.Stats.AvgConfidence)
	assert.Equal(t, 100, d.Insights.RecentPercent)
}
