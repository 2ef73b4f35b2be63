package present

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"greenleaf/internal/stats"
	"greenleaf/pkg/domain"
)

// SampleHeaders are the columns of the sample list.
var SampleHeaders = []string{"ID", "Código", "Espécie", "Coleta", "Estado", "Infecção", "Área (%)"}

// SampleTable renders samples as a fixed-width table. Severity cells are
// colored by class.
func SampleTable(samples []domain.Sample, styles Styles) string {
	if len(samples) == 0 {
		return styles.Muted.Render("Nenhuma amostra cadastrada.") + "\n"
	}
	rows := make([][]string, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, sampleRow(s))
	}

	widths := make([]int, len(SampleHeaders))
	for i, h := range SampleHeaders {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	for i := range widths {
		widths[i] += 2
	}

	header := styles.Bold.Padding(0, 1)
	cell := styles.Body.Padding(0, 1)
	sep := styles.Muted.Render("|")

	var sb strings.Builder
	for i, h := range SampleHeaders {
		sb.WriteString(header.Width(widths[i]).Render(h))
		if i < len(SampleHeaders)-1 {
			sb.WriteString(sep)
		}
	}
	sb.WriteString("\n")
	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}
	sb.WriteString(styles.Muted.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")

	for _, row := range rows {
		for i, v := range row {
			style := cell
			if i == 5 {
				style = style.Foreground(lipgloss.Color(stats.ClassifySeverity(v).Color()))
			}
			sb.WriteString(style.Width(widths[i]).Render(v))
			if i < len(row)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func sampleRow(s domain.Sample) []string {
	collected := "-"
	if s.CollectedAt != nil && !s.CollectedAt.IsZero() {
		collected = s.CollectedAt.Format("02/01/2006")
	}
	area := "-"
	if s.Analysis.AffectedArea != nil {
		area = strconv.FormatFloat(*s.Analysis.AffectedArea, 'f', 1, 64)
	}
	return []string{
		s.ID,
		orDash(s.Code),
		orDash(s.Species),
		collected,
		orDash(s.Location.State),
		orDash(s.Analysis.Severity),
		area,
	}
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
