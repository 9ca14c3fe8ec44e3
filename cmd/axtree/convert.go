package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/axtree/internal/config"
	"github.com/nao1215/axtree/internal/model"
	"github.com/nao1215/axtree/internal/pipeline"
	"github.com/nao1215/axtree/internal/render"
)

// NewConvertCmd creates the convert command.
func NewConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Convert a rendered tree between formats",
		Long: `Convert reads a tree rendered as YAML, XML or JSON and writes it in another
format. Use "-" to read from standard input.

The input format is taken from the file extension unless --from is given.
With --normalize, the tree is passed through the filter/prune pipeline of the
named mode before it is written.

Examples:
  axtree convert tree.yaml --to xml
  axtree convert tree.json --to markdown -o report.md
  cat tree.xml | axtree convert - --from xml --to yaml --normalize summarized`,
		Args: cobra.ExactArgs(1),
		RunE: runConvertCmd,
	}

	cmd.Flags().String("from", "", "Input format: yaml, xml or json (default: by extension)")
	cmd.Flags().String("to", string(render.FormatYAML),
		"Output format: yaml, xml, json, json-pretty or markdown")
	cmd.Flags().String("normalize", "", "Normalize with this mode before writing: all or summarized")
	cmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")

	return cmd
}

func runConvertCmd(cmd *cobra.Command, args []string) error {
	input := args[0]

	fromName, err := cmd.Flags().GetString("from")
	if err != nil {
		return err
	}
	toName, err := cmd.Flags().GetString("to")
	if err != nil {
		return err
	}
	mode, err := cmd.Flags().GetString("normalize")
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	from, err := inputFormat(input, fromName)
	if err != nil {
		return err
	}
	to, err := render.ParseFormat(toName)
	if err != nil {
		return err
	}

	tree, err := readTree(cmd.InOrStdin(), input, from)
	if err != nil {
		return err
	}

	if mode != "" {
		cfg, err := config.Preset(mode)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		tree = pipeline.Normalize(tree, cfg)
	}

	write := func(out io.Writer) error {
		w, err := render.NewWriter(to, out)
		if err != nil {
			return err
		}
		if _, err := w.Write(tree); err != nil {
			return fmt.Errorf("failed to write tree: %w", err)
		}
		return nil
	}
	if output == "" {
		return write(cmd.OutOrStdout())
	}
	return writeOutputFile(output, write)
}

// inputFormat resolves the input format from the flag or the file extension.
func inputFormat(input, flagValue string) (render.Format, error) {
	if flagValue != "" {
		return render.ParseFormat(flagValue)
	}
	if input == "-" {
		return "", errors.New("reading from stdin requires --from")
	}
	ext := strings.TrimPrefix(filepath.Ext(input), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot infer the format of %s; use --from", input)
	}
	format, err := render.ParseFormat(ext)
	if err != nil {
		return "", fmt.Errorf("cannot infer the format of %s; use --from: %w", input, err)
	}
	return format, nil
}

func readTree(stdin io.Reader, input string, format render.Format) (*model.Node, error) {
	r := stdin
	if input != "-" {
		f, err := os.Open(input) //nolint:gosec // input path is chosen by the user
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	tree, err := render.DecodeTree(format, r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", input, err)
	}
	return tree, nil
}
