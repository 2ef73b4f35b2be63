package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"greenleaf/internal/stats"
)

// Sheet names of the workbook.
const (
	SheetSamples = "Amostras"
	SheetStats   = "Estatísticas"
)

// WriteXLSX writes a two-sheet workbook: one row per sample, then the
// summary figures and distributions.
func WriteXLSX(w io.Writer, r Report) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSamples); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	rows := make([][]any, 0, len(r.Samples)+1)
	rows = append(rows, headerRow())
	for _, s := range r.Samples {
		rows = append(rows, row(s))
	}
	if err := writeRows(f, SheetSamples, rows, columnWidths); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetStats); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := writeRows(f, SheetStats, statsRows(r.Dashboard.Stats), []float64{30, 15}); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func headerRow() []any {
	out := make([]any, len(Columns))
	for i, c := range Columns {
		out[i] = c
	}
	return out
}

func writeRows(f *excelize.File, sheet string, rows [][]any, widths []float64) error {
	for i, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("set %s width: %w", sheet, err)
		}
	}
	return nil
}

// statsRows lays out the statistics sheet as label/value pairs.
func statsRows(s stats.Stats) [][]any {
	rows := [][]any{
		{"Estatística", "Valor"},
		{"Total de Amostras", s.Total},
		{"Confiabilidade Média (%)", s.AvgConfidence},
		{"Área Afetada Média (%)", s.AvgAffectedArea},
		{"Amostras Recentes (7 dias)", s.RecentSamples},
	}
	section := func(title string, h stats.Histogram) {
		rows = append(rows, []any{"", ""}, []any{title, ""})
		for _, b := range h {
			rows = append(rows, []any{b.Label, b.Count})
		}
	}
	section("Distribuição por Nível de Infecção", s.ByInfectionLevel)
	section("Distribuição por Estado", s.ByState)
	section("Bactérias Detectadas", s.ByBacteria)
	return rows
}
