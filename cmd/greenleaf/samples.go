package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"greenleaf/internal/present"
	"greenleaf/pkg/domain"
)

var (
	sampleFile   string
	skipValidate bool
	outputJSON   bool
)

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "Manage leaf samples on a running server",
}

var samplesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every sample",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext(cmd)
		defer cancel()
		samples, err := session().List(ctx)
		if err != nil {
			return err
		}
		if outputJSON {
			return writeJSON(cmd.OutOrStdout(), samples)
		}
		fmt.Fprint(cmd.OutOrStdout(), present.SampleTable(samples, styles()))
		return nil
	},
}

var samplesGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show one sample",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext(cmd)
		defer cancel()
		sample, err := session().Get(ctx, args[0])
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), sample)
	},
}

var samplesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a sample from a JSON document",
	Long: `Reads a sample document from --file ("-" for stdin) and submits it. The
entry form fields (codigo_amostra, variedade, data_coleta, coletado_por)
are checked first unless --skip-validate is set. The analysis is always
generated by the server.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var sample domain.Sample
		if err := readDocument(cmd, &sample); err != nil {
			return err
		}
		if sample.Species == "" {
			sample.Species = domain.DefaultSpecies
		}
		if !skipValidate {
			if err := present.ValidateForm(sample); err != nil {
				return err
			}
		}
		ctx, cancel := clientContext(cmd)
		defer cancel()
		id, err := session().Create(ctx, sample)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var samplesUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Replace a sample with a JSON document",
	Long: `Full replacement: fields missing from the document are cleared on the
server. Use "samples patch" to change individual fields. The edit form
fields, including location names and the whole analysis, are checked first
unless --skip-validate is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var sample domain.Sample
		if err := readDocument(cmd, &sample); err != nil {
			return err
		}
		if !skipValidate {
			if err := present.ValidateUpdateForm(sample); err != nil {
				return err
			}
		}
		ctx, cancel := clientContext(cmd)
		defer cancel()
		updated, err := session().Replace(ctx, args[0], sample)
		if err != nil {
			return err
		}
		if updated == nil {
			return fmt.Errorf("sample %s does not exist", args[0])
		}
		return writeJSON(cmd.OutOrStdout(), updated)
	},
}

var samplesPatchCmd = &cobra.Command{
	Use:   "patch [id]",
	Short: "Merge a partial JSON document into a sample",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var patch domain.SamplePatch
		if err := readDocument(cmd, &patch); err != nil {
			return err
		}
		ctx, cancel := clientContext(cmd)
		defer cancel()
		updated, err := session().Patch(ctx, args[0], patch)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), updated)
	},
}

var samplesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a sample",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext(cmd)
		defer cancel()
		return session().Delete(ctx, args[0])
	},
}

func init() {
	samplesListCmd.Flags().BoolVar(&outputJSON, "json", false, "Print JSON instead of a table")
	for _, c := range []*cobra.Command{samplesCreateCmd, samplesUpdateCmd, samplesPatchCmd} {
		c.Flags().StringVarP(&sampleFile, "file", "f", "-", `JSON document path ("-" for stdin)`)
	}
	for _, c := range []*cobra.Command{samplesCreateCmd, samplesUpdateCmd} {
		c.Flags().BoolVar(&skipValidate, "skip-validate", false, "Submit without checking required form fields")
	}

	samplesCmd.AddCommand(samplesListCmd)
	samplesCmd.AddCommand(samplesGetCmd)
	samplesCmd.AddCommand(samplesCreateCmd)
	samplesCmd.AddCommand(samplesUpdateCmd)
	samplesCmd.AddCommand(samplesPatchCmd)
	samplesCmd.AddCommand(samplesDeleteCmd)
}

func clientContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func readDocument(cmd *cobra.Command, out any) error {
	var r io.Reader = cmd.InOrStdin()
	if sampleFile != "-" {
		f, err := os.Open(sampleFile)
		if err != nil {
			return fmt.Errorf("open %s: %w", sampleFile, err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
