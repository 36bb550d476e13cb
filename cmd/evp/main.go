// Package main provides the evp command: it collects public material about a
// company and drafts its Employee Value Proposition.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Exit codes reported by main for every command.
const (
	exitFailure     = 1
	exitMissingKey  = 1
	exitInvalidConf = 2
)

// exitError carries a specific process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitFailure
}

const rootLong = `evp gathers a company's website, press releases, employee reviews and reports, then asks a chat-completion model to draft an EVP across four dimensions.

Exit status: 0 on success, 1 when no API key is configured or a run fails,
2 when the configuration is invalid or the provider rejects it.`

type rootOptions struct {
	configFile string
	verbose    bool
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{logger: slog.Default()}

	cmd := &cobra.Command{
		Use:           "evp",
		Short:         "Employee Value Proposition builder",
		Long:          rootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newGenerateCmd(opts), newCheckCmd(opts), newServeCmd(opts))
	return cmd
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
