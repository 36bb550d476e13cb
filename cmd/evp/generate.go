package main

import (
	"fmt"
	"io"
	"os"

	"github.com/FranksOps/evp/internal/config"
	"github.com/FranksOps/evp/internal/pipeline"
	"github.com/FranksOps/evp/internal/report"
	"github.com/spf13/cobra"
)

var outputFormats = []string{"markdown", "json", "html", "csv"}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	var (
		company string
		siteURL string
		format  string
		outFile string
		o       config.Overrides
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Collect sources for a company and generate its EVP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !validFormat(format) {
				return fmt.Errorf("unsupported format %q (want one of %v)", format, outputFormats)
			}

			o.ConfigFile = root.configFile
			_, wf, err := newWorkflow(o, root)
			if err != nil {
				return err
			}

			res, err := wf.Run(cmd.Context(), company, siteURL)
			if err != nil {
				return err
			}
			if len(res.Documents) == 0 {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", report.NoSourcesWarning)
			}

			w := cmd.OutOrStdout()
			if outFile != "" {
				f, err := os.Create(outFile)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}
			return writeResult(w, format, res, "")
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "Company name (required)")
	cmd.Flags().StringVar(&siteURL, "url", "", "Company website URL (required)")
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "Output format: markdown, json, html or csv")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write output to a file instead of stdout")
	addSettingsFlags(cmd, &o)
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

// addSettingsFlags registers the overrides shared by every command that
// talks to the completion provider.
func addSettingsFlags(cmd *cobra.Command, o *config.Overrides) {
	cmd.Flags().StringVar(&o.APIKey, "api-key", "", "API key (overrides "+config.EnvAPIKey+")")
	cmd.Flags().StringVar(&o.BaseURL, "base-url", "", "OpenAI-compatible base URL (overrides "+config.EnvBaseURL+")")
	cmd.Flags().StringVar(&o.Model, "model", "", "Model name (overrides "+config.EnvModel+", default "+config.DefaultModel+")")
}

func validFormat(f string) bool {
	for _, v := range outputFormats {
		if v == f {
			return true
		}
	}
	return false
}

func writeResult(w io.Writer, format string, res *pipeline.Result, backLink string) error {
	switch format {
	case "json":
		return report.WriteJSON(w, res)
	case "html":
		return report.WriteHTML(w, res, backLink)
	case "csv":
		return report.WriteSourcesCSV(w, res.Documents)
	default:
		return report.WriteMarkdown(w, res)
	}
}
