// Package dashboard renders the statistics dashboard as a standalone HTML
// page of ECharts charts.
package dashboard

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"greenleaf/internal/stats"
)

// PageTitle is the browser title of the dashboard page.
const PageTitle = "Green Leaf - Dashboard"

var periodLabels = map[stats.Period]string{
	stats.PeriodAll:   "Todos os períodos",
	stats.PeriodWeek:  "Última semana",
	stats.PeriodMonth: "Último mês",
	stats.PeriodYear:  "Último ano",
}

// Render writes the dashboard page for d to w.
func Render(w io.Writer, d stats.Dashboard) error {
	return NewPage(d).Render(w)
}

// NewPage builds the chart page: severity pie, state bar and organism bar.
func NewPage(d stats.Dashboard) *components.Page {
	page := components.NewPage()
	page.PageTitle = PageTitle
	page.AddCharts(
		severityChart(d),
		histogramBar("Amostras por Estado", "Estado", d.Stats.ByState, "#2e7d32"),
		histogramBar("Bactérias Detectadas", "Bactéria", d.Stats.ByBacteria, "#1565c0"),
	)
	return page
}

func severityChart(d stats.Dashboard) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: PageTitle}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Distribuição por Nível de Infecção",
			Subtitle: summary(d),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
	)
	data := make([]opts.PieData, 0, len(d.Stats.ByInfectionLevel))
	for _, b := range d.Stats.ByInfectionLevel {
		data = append(data, opts.PieData{
			Name:      b.Label,
			Value:     b.Count,
			ItemStyle: &opts.ItemStyle{Color: stats.ClassifySeverity(b.Label).Color()},
		})
	}
	pie.AddSeries("Nível de Infecção", data).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {c}"}))
	return pie
}

func histogramBar(title, axis string, h stats.Histogram, color string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: axis}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Amostras", MinInterval: 1}),
	)
	sorted := h.Sorted()
	labels := make([]string, 0, len(sorted))
	data := make([]opts.BarData, 0, len(sorted))
	for _, b := range sorted {
		labels = append(labels, b.Label)
		data = append(data, opts.BarData{Value: b.Count, ItemStyle: &opts.ItemStyle{Color: color}})
	}
	bar.SetXAxis(labels).AddSeries("Amostras", data)
	return bar
}

func summary(d stats.Dashboard) string {
	label, ok := periodLabels[d.Period]
	if !ok {
		label = periodLabels[stats.PeriodAll]
	}
	lines := []string{
		fmt.Sprintf("%s | Total: %d | Recentes (7 dias): %d", label, d.Stats.Total, d.Stats.RecentSamples),
		fmt.Sprintf("Confiabilidade média: %.1f%% | Área afetada média: %.1f%%", d.Stats.AvgConfidence, d.Stats.AvgAffectedArea),
		fmt.Sprintf("Estado mais afetado: %s | Bactéria predominante: %s | Taxa recente: %d%%",
			d.Insights.TopState, d.Insights.TopBacteria, d.Insights.RecentPercent),
	}
	for _, a := range d.Insights.Alerts {
		lines = append(lines, "⚠ "+a.Message)
	}
	return strings.Join(lines, "\n")
}
