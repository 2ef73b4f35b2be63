package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"greenleaf/internal/stats"
	"greenleaf/pkg/domain"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func fixtureSamples() []domain.Sample {
	return []domain.Sample{
		{
			ID:          "665f1c2e9b1e8a0012345678",
			Code:        "AM-001",
			Species:     domain.DefaultSpecies,
			CollectedAt: domain.NewDate(now.AddDate(0, 0, -1)),
			CollectedBy: "Ana",
			Location: domain.Location{
				Latitude: domain.Float(-12.67), Longitude: domain.Float(-39.1),
				Municipality: "Cruz das Almas", State: "BA",
			},
			Analysis: domain.Analysis{
				Organism: domain.DefaultOrganism, Severity: domain.SeveritySevere,
				AffectedArea: domain.Float(63.4), Confidence: domain.Float(91.5),
				AnalyzedAt: domain.NewDate(now),
			},
		},
		{
			ID:          "665f1c2e9b1e8a0012345679",
			Code:        "AM-002",
			CollectedAt: domain.NewDate(now.AddDate(0, 0, -40)),
			Analysis:    domain.Analysis{AffectedArea: domain.Float(0)},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	f, err = ParseFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestReportFilename(t *testing.T) {
	all := NewReport(fixtureSamples(), stats.PeriodAll, now)
	assert.Equal(t, "green_leaf_dashboard_completo_2025-06-15.xlsx", all.Filename(FormatXLSX))
	week := NewReport(fixtureSamples(), stats.PeriodWeek, now)
	assert.Equal(t, "green_leaf_dashboard_filtro-week_2025-06-15.csv", week.Filename(FormatCSV))
	assert.Len(t, week.Samples, 1)
	assert.Equal(t, 1, week.Dashboard.Stats.Total)
}

func TestRowDefaults(t *testing.T) {
	r := row(fixtureSamples()[1])
	require.Len(t, r, len(Columns))
	assert.Equal(t, "AM-002", r[0])
	assert.Equal(t, "06/05/2025", r[1])
	for _, i := range []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12} {
		assert.Equal(t, stats.NotAvailable, r[i], "column %s", Columns[i])
	}
	full := row(fixtureSamples()[0])
	assert.Equal(t, 63.4, full[7])
	assert.Equal(t, "15/06/2025", full[10])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatCSV, NewReport(fixtureSamples(), stats.PeriodAll, now)))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Columns, records[0])
	assert.Equal(t, []string{
		"AM-001", "14/06/2025", "BA", "Cruz das Almas", domain.DefaultSpecies, "Ana", "Grave",
		"63.4", "91.5", domain.DefaultOrganism, "15/06/2025", "-12.67", "-39.1",
	}, records[1])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatJSON, NewReport(nil, stats.PeriodMonth, now)))
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "month", got["period"])
	assert.Equal(t, []any{}, got["samples"])
	assert.Contains(t, got, "insights")
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatXLSX, NewReport(fixtureSamples(), stats.PeriodAll, now)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSamples, SheetStats}, f.GetSheetList())
	rows, err := f.GetRows(SheetSamples)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "AM-001", rows[1][0])
	assert.Equal(t, "N/A", rows[2][2])

	width, err := f.GetColWidth(SheetSamples, "J")
	require.NoError(t, err)
	assert.Equal(t, 25.0, width)

	statsRows, err := f.GetRows(SheetStats)
	require.NoError(t, err)
	assert.Equal(t, []string{"Estatística", "Valor"}, statsRows[0])
	assert.Equal(t, []string{"Total de Amostras", "2"}, statsRows[1])
	labels := make(map[string]string)
	for _, r := range statsRows {
		if len(r) == 2 {
			labels[r[0]] = r[1]
		}
	}
	assert.Equal(t, "1", labels["BA"])
	assert.Equal(t, "1", labels["Grave"])
	assert.Equal(t, "1", labels["Não detectada"])
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatHTML, NewReport(fixtureSamples(), stats.PeriodAll, now)))
	assert.Contains(t, buf.String(), "<html")
}
