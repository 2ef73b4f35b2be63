package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"greenleaf/internal/present"
	"greenleaf/internal/stats"
)

var (
	period    string
	format    string
	outputDir string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dashboard statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext(cmd)
		defer cancel()
		raw, err := session().Dashboard(ctx, period)
		if err != nil {
			return err
		}
		if outputJSON {
			_, err := cmd.OutOrStdout().Write(append(raw, '\n'))
			return err
		}
		var d stats.Dashboard
		if err := json.Unmarshal(raw, &d); err != nil {
			return fmt.Errorf("decode dashboard: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), present.Dashboard(d, styles()))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download a dashboard export",
	Long: `Downloads the samples and statistics of --period as a spreadsheet or
report and writes it to --out using the server's file name.

Example:
  greenleaf export --period month --format xlsx --out ./reports`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(outputDir, 0o750); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		tmp, err := os.CreateTemp(outputDir, ".greenleaf-export-*")
		if err != nil {
			return err
		}
		defer os.Remove(tmp.Name())

		ctx, cancel := clientContext(cmd)
		defer cancel()
		name, err := session().Export(ctx, period, format, tmp)
		if cerr := tmp.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		if name == "" {
			name = "green_leaf_export." + format
		}
		dest := filepath.Join(outputDir, filepath.Base(name))
		if err := os.Rename(tmp.Name(), dest); err != nil {
			return fmt.Errorf("save export: %w", err)
		}
		logger.Debug("export saved", zap.String("path", dest))
		fmt.Fprintln(cmd.OutOrStdout(), dest)
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVarP(&period, "period", "p", string(stats.PeriodAll), "all, week, month or year")
	statsCmd.Flags().BoolVar(&outputJSON, "json", false, "Print the raw JSON payload")
	exportCmd.Flags().StringVarP(&period, "period", "p", string(stats.PeriodAll), "all, week, month or year")
	exportCmd.Flags().StringVar(&format, "format", "xlsx", "xlsx, csv, json or html")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", ".", "Output directory")
}
