package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/axtree/internal/log"
)

// NewRootCmd creates the root command for axtree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "axtree",
		Short: "Capture and render UI accessibility trees",
		Long: `axtree walks the accessibility tree of an application through an
introspection boundary, normalizes it and renders it for people or for
language models.

Two boundaries are built in: YAML element-graph fixtures (--fixture) and
HTML documents exposed as accessibility trees (--html).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-format", "text", "Log format: text or json")

	cmd.AddCommand(NewSnapshotCmd())
	cmd.AddCommand(NewConvertCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// newLogger builds the secret-masking logger on w in the format chosen by
// --log-format.
func newLogger(cmd *cobra.Command, w io.Writer, verbose bool) (*slog.Logger, error) {
	format, err := cmd.Flags().GetString("log-format")
	if err != nil {
		format, err = cmd.Root().PersistentFlags().GetString("log-format")
		if err != nil {
			format = "text"
		}
	}
	switch format {
	case "text":
		return log.NewSecureLogger(w, verbose), nil
	case "json":
		return log.NewSecureJSONLogger(w, verbose), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
}
