package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/axtree/internal/store"
)

// defaultHistoryLimit is the number of snapshots listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, show or delete saved snapshots",
		Long: `History manages snapshots recorded with "axtree snapshot --save".

Without flags, the most recent snapshots are listed as a Markdown table.
Snapshot ids may be abbreviated to any unique prefix.

Examples:
  axtree history
  axtree history --pid 42 --limit 5
  axtree history --show 0192f3a1
  axtree history --delete 0192f3a1`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("pid", "p", 0, "Only list snapshots of this process")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of snapshots to list (0 lists all)")
	cmd.Flags().String("show", "", "Write the body of the snapshot with this id")
	cmd.Flags().String("delete", "", "Delete the snapshot with this id")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .axtree in current or home directory)")
	cmd.Flags().String("db-dir", "", "Snapshot history directory (default: $XDG_DATA_HOME/axtree)")

	cmd.MarkFlagsMutuallyExclusive("show", "delete")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	pid, err := flags.GetInt("pid")
	if err != nil {
		return err
	}
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	show, err := flags.GetString("show")
	if err != nil {
		return err
	}
	del, err := flags.GetString("delete")
	if err != nil {
		return err
	}
	configPath, err := flags.GetString("config")
	if err != nil {
		return err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}

	file, err := loadConfigFile(configPath)
	if err != nil {
		return err
	}
	dbDir = resolveDBDir(dbDir, file)

	db, err := store.Open(dbDir, store.Options{EnableWAL: true})
	if err != nil {
		if errors.Is(err, store.ErrDatabaseNotFound) && show == "" && del == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No snapshots recorded.")
			return nil
		}
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case show != "":
		snap, err := db.GetSnapshot(ctx, show)
		if err != nil {
			return err
		}
		_, err = out.Write(snap.Body)
		return err

	case del != "":
		snap, err := db.GetSnapshot(ctx, del)
		if err != nil {
			return err
		}
		if err := db.DeleteSnapshot(ctx, snap.ID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted snapshot %s\n", snap.ID)
		return nil
	}

	snaps, err := db.ListSnapshots(ctx, pid, limit)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Fprintln(out, "No snapshots recorded.")
		return nil
	}

	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, []string{
			s.ID,
			strconv.Itoa(s.PID),
			s.Mode,
			s.Format,
			strconv.Itoa(s.NodeCount),
			strconv.Itoa(s.Size),
			s.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			s.Source,
		})
	}
	return markdown.NewMarkdown(out).
		Table(markdown.TableSet{
			Header: []string{"ID", "PID", "Mode", "Format", "Nodes", "Bytes", "Created", "Source"},
			Rows:   rows,
		}).
		Build()
}
