package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/welld/agent-memory/internal/store"
)

// records is the export and import surface shared by both stores.
type records interface {
	Export() ([]store.Record, error)
	Import(ctx context.Context, recs []store.Record) (store.ImportResult, error)
	Close() error
}

func openRecords(ctx context.Context, which string) (records, error) {
	if which == "schedule" {
		return openScheduleStore(ctx)
	}
	return openMemoryStore(ctx)
}

func init() {
	cmd := &cobra.Command{
		Use:       "export <memory|schedule>",
		Short:     "Export a collection as JSON",
		Long:      "Export every entry of a collection in the on-disk file format, so it can be imported into either backend.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"memory", "schedule"},
		Run:       runExport,
	}

	cmd.Flags().StringP("out", "o", "", "Write to file instead of stdout")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	out, _ := cmd.Flags().GetString("out")

	s, err := openRecords(cmd.Context(), args[0])
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	recs, err := s.Export()
	if err != nil {
		exitErr("export", err)
	}
	b, err := store.EncodeRecords(recs)
	if err != nil {
		exitErr("encode", err)
	}

	if out == "" {
		if _, err := cmd.OutOrStdout().Write(b); err != nil {
			exitErr("write", err)
		}
		return
	}
	if err := os.WriteFile(out, b, 0o644); err != nil {
		exitErr("write", err)
	}
	printJSON(cmd, map[string]any{"ok": true, "exported": len(recs), "path": out})
}

func errUnknownCollection(name string) error {
	return fmt.Errorf("unknown collection %q, want memory or schedule", name)
}
