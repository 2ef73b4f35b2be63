package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"greenleaf/internal/dashboard"
	"greenleaf/internal/stats"
	"greenleaf/pkg/domain"
)

// WriteCSV writes the samples sheet as CSV with a header row.
func WriteCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	record := make([]string, len(Columns))
	for _, s := range r.Samples {
		for i, v := range row(s) {
			record[i] = cellString(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonReport struct {
	Period      stats.Period    `json:"period"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Stats       stats.Stats     `json:"stats"`
	Insights    stats.Report    `json:"insights"`
	Samples     []domain.Sample `json:"samples"`
}

// WriteJSON writes the dashboard and the filtered samples as one document.
func WriteJSON(w io.Writer, r Report) error {
	samples := r.Samples
	if samples == nil {
		samples = []domain.Sample{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		Period:      r.Period,
		GeneratedAt: r.GeneratedAt.UTC(),
		Stats:       r.Dashboard.Stats,
		Insights:    r.Dashboard.Insights,
		Samples:     samples,
	})
}

// WriteHTML writes the chart dashboard page.
func WriteHTML(w io.Writer, r Report) error {
	return dashboard.Render(w, r.Dashboard)
}
