package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/axtree/internal/capture"
	"github.com/nao1215/axtree/internal/config"
	"github.com/nao1215/axtree/internal/inspect"
	"github.com/nao1215/axtree/internal/inspect/htmldom"
	"github.com/nao1215/axtree/internal/inspect/memtree"
	"github.com/nao1215/axtree/internal/render"
	"github.com/nao1215/axtree/internal/store"
)

// NewSnapshotCmd creates the snapshot command.
func NewSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture and render the accessibility tree of one or more processes",
		Long: `Snapshot captures the accessibility tree of each process, normalizes it and
renders it.

The tree is read from an element-graph fixture (--fixture) or from an HTML
document exposed as an accessibility tree (--html). Without --pid, every
process of the fixture is captured; an HTML document answers as pid 1.

Boundary failures never abort a capture. They are recorded in the tree as
error.* attributes, and elements reached twice become cycle leaves.

Examples:
  # Summarized YAML of every process in a fixture
  axtree snapshot --fixture app.yaml

  # Full XML tree of one process
  axtree snapshot --fixture app.yaml --pid 42 --mode all --format xml

  # Markdown digest of a web page, saved to the history
  axtree snapshot --html page.html --format markdown --save

  # Several processes at once, one file each
  axtree snapshot --fixture app.yaml --pid 42 --pid 43 -o out/`,
		Args: cobra.NoArgs,
		RunE: runSnapshotCmd,
	}

	cmd.Flags().StringP("fixture", "F", "", "Element-graph fixture (YAML) to capture from")
	cmd.Flags().String("html", "", "HTML document to capture from")
	cmd.Flags().IntSliceP("pid", "p", nil, "Process id to capture (repeatable)")

	cmd.Flags().StringP("mode", "m", config.ModeSummarized, "Normalization mode: all or summarized")
	cmd.Flags().StringP("format", "f", string(render.FormatYAML),
		"Output format: yaml, xml, json, json-pretty or markdown")
	cmd.Flags().StringP("output", "o", "",
		"Write to this file (a directory when several processes are captured)")

	cmd.Flags().DurationP("timeout", "t", 0, "Deadline for each capture (0 disables it)")
	cmd.Flags().IntP("batch", "b", capture.DefaultConcurrency, "Number of concurrent captures")
	cmd.Flags().Bool("include-hidden", false, "Include hidden elements")
	cmd.Flags().Bool("text-only", false, "Keep only nodes with text and their ancestors")
	cmd.Flags().Int("max-depth", 0, "Maximum tree depth (0 means no limit)")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .axtree in current or home directory)")
	cmd.Flags().Bool("save", false, "Record the rendering in the snapshot history")
	cmd.Flags().String("db-dir", "", "Snapshot history directory (default: $XDG_DATA_HOME/axtree)")

	return cmd
}

// snapshotOptions is the resolved configuration of one snapshot run.
type snapshotOptions struct {
	fixture string
	html    string
	pids    []int
	cfg     config.Config
	format  render.Format
	output  string
	timeout time.Duration
	batch   int
	save    bool
	dbDir   string
	verbose bool
}

func runSnapshotCmd(cmd *cobra.Command, _ []string) error {
	opts, err := buildSnapshotOptions(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd, cmd.ErrOrStderr(), opts.verbose)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runSnapshot(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, logger)
}

// buildSnapshotOptions merges flags over the configuration file. A flag wins
// only when it was set explicitly.
func buildSnapshotOptions(cmd *cobra.Command) (*snapshotOptions, error) {
	flags := cmd.Flags()
	opts := &snapshotOptions{verbose: getVerboseFlag(cmd)}

	var err error
	if opts.fixture, err = flags.GetString("fixture"); err != nil {
		return nil, err
	}
	if opts.html, err = flags.GetString("html"); err != nil {
		return nil, err
	}
	if opts.pids, err = flags.GetIntSlice("pid"); err != nil {
		return nil, err
	}
	if opts.output, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if opts.save, err = flags.GetBool("save"); err != nil {
		return nil, err
	}

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	file, err := loadConfigFile(configPath)
	if err != nil {
		return nil, err
	}

	if flags.Changed("mode") {
		if file.Mode, err = flags.GetString("mode"); err != nil {
			return nil, err
		}
	}
	opts.cfg, err = file.Resolve(config.ModeSummarized)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	if flags.Changed("include-hidden") {
		if opts.cfg.IncludeHidden, err = flags.GetBool("include-hidden"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("text-only") {
		if opts.cfg.TextNodesOnly, err = flags.GetBool("text-only"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-depth") {
		if opts.cfg.MaxDepth, err = flags.GetInt("max-depth"); err != nil {
			return nil, err
		}
	}
	if err := opts.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	formatName := file.Format
	if flags.Changed("format") || formatName == "" {
		if formatName, err = flags.GetString("format"); err != nil {
			return nil, err
		}
	}
	if opts.format, err = render.ParseFormat(formatName); err != nil {
		return nil, err
	}

	opts.timeout = file.Timeout
	if flags.Changed("timeout") {
		if opts.timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}

	opts.batch = capture.DefaultConcurrency
	if file.BatchSize > 0 {
		opts.batch = file.BatchSize
	}
	if flags.Changed("batch") {
		if opts.batch, err = flags.GetInt("batch"); err != nil {
			return nil, err
		}
	}

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	opts.dbDir = resolveDBDir(dbDir, file)

	return opts, nil
}

// loadConfigFile loads the configuration file. A missing file is an error
// only when its path was given explicitly.
func loadConfigFile(path string) (*config.File, error) {
	found := config.FindConfigFile(path)
	if found == "" {
		if path != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
		}
		return &config.File{}, nil
	}
	file, err := config.LoadConfigFile(found)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
	}
	return file, nil
}

// resolveDBDir picks the history directory: flag, then config file, then XDG.
func resolveDBDir(flagValue string, file *config.File) string {
	switch {
	case flagValue != "":
		return flagValue
	case file != nil && file.DBDir != "":
		return file.DBDir
	default:
		return config.XDGDataDir()
	}
}

// boundary is an opened introspection source.
type boundary struct {
	inspector inspect.Inspector
	source    string
	pids      []int
}

func openBoundary(opts *snapshotOptions) (*boundary, error) {
	switch {
	case opts.fixture != "" && opts.html != "":
		return nil, errors.New("--fixture and --html are mutually exclusive")

	case opts.fixture != "":
		tree, err := memtree.LoadFile(opts.fixture)
		if err != nil {
			return nil, fmt.Errorf("failed to load fixture: %w", err)
		}
		pids := opts.pids
		if len(pids) == 0 {
			pids = tree.PIDs()
		}
		if len(pids) == 0 {
			return nil, fmt.Errorf("fixture %s declares no processes", opts.fixture)
		}
		return &boundary{inspector: tree, source: opts.fixture, pids: pids}, nil

	case opts.html != "":
		if len(opts.pids) > 1 {
			return nil, errors.New("an HTML document is a single process; pass at most one --pid")
		}
		pid := htmldom.DefaultPID
		if len(opts.pids) == 1 {
			pid = opts.pids[0]
		}
		f, err := os.Open(opts.html) //nolint:gosec // document path is chosen by the user
		if err != nil {
			return nil, fmt.Errorf("failed to open HTML document: %w", err)
		}
		defer f.Close()
		doc, err := htmldom.Parse(f, htmldom.WithPID(pid))
		if err != nil {
			return nil, fmt.Errorf("failed to parse HTML document: %w", err)
		}
		return &boundary{inspector: doc, source: opts.html, pids: []int{pid}}, nil

	default:
		return nil, errors.New("no source given (use --fixture or --html)")
	}
}

// runSnapshot captures every requested process and writes the renderings.
func runSnapshot(ctx context.Context, stdout, stderr io.Writer, opts *snapshotOptions, logger *slog.Logger) error {
	b, err := openBoundary(opts)
	if err != nil {
		return err
	}

	logger.Info("starting snapshot",
		"source", b.source,
		"pids", b.pids,
		"mode", opts.cfg.Mode.Name(),
		"format", opts.format,
	)

	var db *store.SnapshotDB
	if opts.save {
		db, err = store.Open(opts.dbDir, store.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open snapshot history: %w", err)
		}
		defer db.Close()
	}

	capturer := capture.New(b.inspector, opts.cfg,
		capture.WithLogger(logger),
		capture.WithTimeout(opts.timeout),
	)

	var results []*capture.Result
	if len(b.pids) == 1 {
		res, err := capturer.Capture(ctx, b.pids[0])
		if err != nil {
			return err
		}
		results = []*capture.Result{res}
	} else {
		batch := capture.NewBatchCapturer(capturer,
			capture.WithBatchLogger(logger),
			capture.WithConcurrency(opts.batch),
		)
		if results, err = batch.CaptureBatch(ctx, b.pids); err != nil {
			return err
		}
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(stderr, "pid %d: %v\n", res.PID, res.Err)
			continue
		}
		if err := emit(ctx, stdout, stderr, opts, b, res, db, len(results) > 1); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d captures failed", failed, len(results))
	}
	return nil
}

// emit writes one rendering to its destination and, when db is set, to the
// snapshot history.
func emit(ctx context.Context, stdout, stderr io.Writer, opts *snapshotOptions, b *boundary, res *capture.Result, db *store.SnapshotDB, many bool) error {
	var body bytes.Buffer
	write := func(out io.Writer) error {
		w, err := newTreeWriter(opts.format, out, res.PID)
		if err != nil {
			return err
		}
		if db != nil {
			mirror, err := newTreeWriter(opts.format, &body, res.PID)
			if err != nil {
				return err
			}
			w = render.NewMultiWriter(w, mirror)
		}
		if _, err := w.Write(res.Tree); err != nil {
			return fmt.Errorf("failed to write pid %d: %w", res.PID, err)
		}
		return nil
	}

	dest := "stdout"
	if opts.output == "" {
		if err := write(stdout); err != nil {
			return err
		}
	} else {
		dest = opts.output
		if many {
			dest = filepath.Join(opts.output, fmt.Sprintf("pid-%d%s", res.PID, opts.format.Extension()))
		}
		if err := writeOutputFile(dest, write); err != nil {
			return err
		}
	}

	s := res.Stats
	fmt.Fprintf(stderr, "pid %d: %d nodes, depth %d, %d diagnostic node(s), %d cycle(s) in %s -> %s\n",
		res.PID, s.Nodes, s.Depth, s.Diagnostics, s.Cycles, s.Elapsed.Round(time.Microsecond), dest)

	if db == nil {
		return nil
	}
	snap := &store.Snapshot{
		PID:       res.PID,
		Source:    b.source,
		Mode:      opts.cfg.Mode.Name(),
		Format:    string(opts.format),
		NodeCount: s.Nodes,
		Body:      body.Bytes(),
	}
	if err := db.SaveSnapshot(ctx, snap); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "saved snapshot %s\n", snap.ID)
	return nil
}

// newTreeWriter returns the writer for format. Markdown digests are titled
// with the pid.
func newTreeWriter(format render.Format, out io.Writer, pid int) (render.Writer, error) {
	if format == render.FormatMarkdown {
		return render.NewMarkdownWriter(out, render.WithTitle(fmt.Sprintf("Accessibility Tree (pid %d)", pid))), nil
	}
	return render.NewWriter(format, out)
}

// createOutputFile creates path, owner-readable only, and its parent directories.
func createOutputFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // output path is chosen by the user
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// writeOutputFile creates path and hands it to write. The file is closed
// before returning and a failed close is reported.
func writeOutputFile(path string, write func(io.Writer) error) error {
	f, err := createOutputFile(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		return errors.Join(err, f.Close())
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}
