package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/FranksOps/evp/internal/config"
	"github.com/FranksOps/evp/internal/pipeline"
	"github.com/spf13/cobra"
)

const checkTimeout = 30 * time.Second

func newCheckCmd(root *rootOptions) *cobra.Command {
	var o config.Overrides

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the completion provider credentials",
		Long:  "Resolve the provider settings and make one round trip to confirm the key, base URL and model work. Exits 1 when no key is configured and 2 when validation fails.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			o.ConfigFile = root.configFile
			cfg, err := checkSettings(cmd.Context(), o, root)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "OK: provider reachable with model %s\n", cfg.Settings.Model)
			return nil
		},
	}
	addSettingsFlags(cmd, &o)

	return cmd
}

// checkSettings is the single credential validation entry point used by the
// CLI and the web form.
func checkSettings(ctx context.Context, o config.Overrides, root *rootOptions) (config.Config, error) {
	cfg, wf, err := newWorkflow(o, root)
	if err != nil {
		return cfg, err
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := wf.Validate(ctx); err != nil {
		return cfg, &exitError{code: exitInvalidConf, err: fmt.Errorf("validation failed: %w", err)}
	}
	return cfg, nil
}

// newWorkflow resolves settings and builds a workflow, tagging failures with
// the exit code every command reports for them.
func newWorkflow(o config.Overrides, root *rootOptions) (config.Config, *pipeline.Workflow, error) {
	cfg, err := config.Resolve(o)
	if errors.Is(err, config.ErrMissingAPIKey) {
		return cfg, nil, &exitError{code: exitMissingKey, err: err}
	}
	if err != nil {
		return cfg, nil, &exitError{code: exitInvalidConf, err: err}
	}

	wf, err := pipeline.New(cfg, pipeline.WithLogger(root.logger))
	if err != nil {
		return cfg, nil, &exitError{code: exitInvalidConf, err: err}
	}
	return cfg, wf, nil
}
