// Package export renders sample reports as xlsx workbooks, CSV, JSON and
// HTML, and runs export jobs that store the artifacts in the blob store.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"greenleaf/internal/stats"
	"greenleaf/pkg/domain"
)

// Format is an export file type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// Formats lists every supported format.
var Formats = []Format{FormatXLSX, FormatCSV, FormatJSON, FormatHTML}

// ParseFormat resolves a format name, defaulting to xlsx when raw is empty.
func ParseFormat(raw string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(raw)))
	if f == "" {
		return FormatXLSX, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported export format %q", raw)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// Report is the filtered sample set and its dashboard at generation time.
type Report struct {
	Period      stats.Period
	GeneratedAt time.Time
	Samples     []domain.Sample
	Dashboard   stats.Dashboard
}

// NewReport filters samples by period and aggregates them.
func NewReport(samples []domain.Sample, p stats.Period, now time.Time) Report {
	filtered := stats.Filter(samples, p, now)
	s := stats.Compute(filtered, now)
	return Report{
		Period:      p,
		GeneratedAt: now,
		Samples:     filtered,
		Dashboard:   stats.Dashboard{Period: p, Stats: s, Insights: stats.Insights(s)},
	}
}

// Filename returns green_leaf_dashboard_<completo|filtro-PERIOD>_<date>.<ext>.
func (r Report) Filename(f Format) string {
	scope := "completo"
	if r.Period != "" && r.Period != stats.PeriodAll {
		scope = "filtro-" + string(r.Period)
	}
	return fmt.Sprintf("green_leaf_dashboard_%s_%s.%s", scope, r.GeneratedAt.UTC().Format(time.DateOnly), f)
}

// Render writes the report in format f.
func Render(w io.Writer, f Format, r Report) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, r)
	case FormatCSV:
		return WriteCSV(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatHTML:
		return WriteHTML(w, r)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

// Column headers of the samples sheet and CSV.
var Columns = []string{
	"Código da Amostra",
	"Data de Coleta",
	"Estado",
	"Município",
	"Espécie",
	"Coletado Por",
	"Nível de Infecção",
	"Área Afetada (%)",
	"Confiabilidade (%)",
	"Bactéria Detectada",
	"Data da Análise",
	"Latitude",
	"Longitude",
}

// columnWidths are the samples sheet widths in characters, aligned with Columns.
var columnWidths = []float64{15, 12, 15, 15, 20, 20, 18, 15, 18, 25, 15, 12, 12}

// row flattens a sample into Columns order. Missing and zero values become
// stats.NotAvailable; numbers stay numeric.
func row(s domain.Sample) []any {
	return []any{
		text(s.Code),
		date(s.CollectedAt),
		text(s.Location.State),
		text(s.Location.Municipality),
		text(s.Species),
		text(s.CollectedBy),
		text(s.Analysis.Severity),
		number(s.Analysis.AffectedArea),
		number(s.Analysis.Confidence),
		text(s.Analysis.Organism),
		date(s.Analysis.AnalyzedAt),
		number(s.Location.Latitude),
		number(s.Location.Longitude),
	}
}

func text(v string) any {
	if v == "" {
		return stats.NotAvailable
	}
	return v
}

func number(v *float64) any {
	if v == nil || *v == 0 {
		return stats.NotAvailable
	}
	return *v
}

func date(d *domain.Date) any {
	if d == nil || d.IsZero() {
		return stats.NotAvailable
	}
	return d.UTC().Format("02/01/2006")
}

func cellString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}
