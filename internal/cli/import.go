package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/welld/agent-memory/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:       "import <memory|schedule> [file]",
		Short:     "Import entries from JSON",
		Long:      "Import entries from JSON (file or stdin). Expects the format produced by export. Existing keys are kept.",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{"memory", "schedule"},
		Run:       runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	if args[0] != "memory" && args[0] != "schedule" {
		exitErr("import", errUnknownCollection(args[0]))
	}

	var (
		data []byte
		err  error
	)
	if len(args) == 2 {
		data, err = os.ReadFile(args[1])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitErr("read input", err)
	}

	recs, err := store.DecodeRecords(data)
	if err != nil {
		exitErr("parse json", err)
	}

	s, err := openRecords(cmd.Context(), args[0])
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	res, err := s.Import(cmd.Context(), recs)
	if err != nil {
		exitErr("import", err)
	}
	printJSON(cmd, res)
}
