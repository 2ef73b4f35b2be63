package present

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"greenleaf/internal/stats"
)

// barWidth is the length of the longest bar.
const barWidth = 30

// Dashboard renders the dashboard counters and one bar chart per histogram.
func Dashboard(d stats.Dashboard, styles Styles) string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(fmt.Sprintf("Green Leaf - Dashboard (%s)", d.Period)))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Total de amostras: %d\n", d.Stats.Total)
	fmt.Fprintf(&sb, "Confiabilidade média: %.1f%%\n", d.Stats.AvgConfidence)
	fmt.Fprintf(&sb, "Área afetada média: %.1f%%\n", d.Stats.AvgAffectedArea)
	fmt.Fprintf(&sb, "Amostras recentes (7 dias): %d\n", d.Stats.RecentSamples)
	fmt.Fprintf(&sb, "Estado com mais amostras: %s\n", d.Insights.TopState)
	fmt.Fprintf(&sb, "Bactéria mais detectada: %s\n", d.Insights.TopBacteria)

	sb.WriteString("\n")
	sb.WriteString(bars("Grau de infecção", d.Stats.ByInfectionLevel, styles, func(label string) string {
		return stats.ClassifySeverity(label).Color()
	}))
	sb.WriteString(bars("Amostras por estado", d.Stats.ByState, styles, nil))
	sb.WriteString(bars("Bactérias detectadas", d.Stats.ByBacteria, styles, nil))

	for _, a := range d.Insights.Alerts {
		sb.WriteString(styles.Alert.Render("! " + a.Message))
		sb.WriteString("\n")
	}
	return sb.String()
}

// bars draws a horizontal bar per histogram bucket scaled to the largest
// count. color may be nil for the default bar color.
func bars(title string, h stats.Histogram, styles Styles, color func(string) string) string {
	if len(h) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(styles.Bold.Render(title))
	sb.WriteString("\n")

	labelWidth, peak := 0, 0
	for _, b := range h {
		labelWidth = max(labelWidth, lipgloss.Width(b.Label))
		peak = max(peak, b.Count)
	}
	for _, b := range h {
		n := 0
		if peak > 0 {
			n = max(1, b.Count*barWidth/peak)
		}
		fill := "#17a2b8"
		if color != nil {
			fill = color(b.Label)
		}
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(fill)).Render(strings.Repeat("█", n))
		fmt.Fprintf(&sb, "%s %s %d\n", lipgloss.NewStyle().Width(labelWidth).Render(b.Label), bar, b.Count)
	}
	sb.WriteString("\n")
	return sb.String()
}
