package dashboard

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenleaf/internal/stats"
	"greenleaf/pkg/domain"
)

func TestRenderIncludesChartsAndSummary(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	samples := []domain.Sample{
		{
			CollectedAt: domain.NewDate(now),
			Location:    domain.Location{State: "BA"},
			Analysis:    domain.Analysis{Severity: domain.SeveritySevere, Organism: domain.DefaultOrganism, Confidence: domain.Float(70)},
		},
		{
			CollectedAt: domain.NewDate(now.AddDate(0, 0, -2)),
			Location:    domain.Location{State: "SE"},
			Analysis:    domain.Analysis{Severity: domain.SeverityMild},
		},
	}
	d := stats.BuildDashboard(samples, stats.PeriodWeek, now)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, d))
	html := buf.String()

	assert.Contains(t, html, PageTitle)
	assert.Contains(t, html, "Amostras por Estado")
	assert.Contains(t, html, "#dc3545")
	assert.Contains(t, html, "Total: 2")
}

func TestSummaryListsAlerts(t *testing.T) {
	d := stats.Dashboard{
		Period: stats.Period("bogus"),
		Stats:  stats.Stats{Total: 3},
		Insights: stats.Report{
			TopState:    "BA",
			TopBacteria: stats.NotAvailable,
			Alerts:      []stats.Alert{{Kind: stats.AlertSevereInfection, Message: "1 amostras com infecção grave detectada"}},
		},
	}
	s := summary(d)
	assert.Contains(t, s, "Todos os períodos")
	assert.Contains(t, s, "Total: 3")
	assert.Contains(t, s, "1 amostras com infecção grave detectada")
}
