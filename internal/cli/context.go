package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/welld/agent-memory/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context [description]",
		Short: "Assemble relevant memories for a prompt",
		Long:  "Rank memories by priority and similarity, then pack them greedily into a character budget. Without a description every memory is a candidate.",
		Run:   runContext,
	}

	cmd.Flags().StringP("tag", "t", "", "Only memories with this tag")
	cmd.Flags().IntP("budget", "b", store.DefaultContextBudget, "Max characters of content")

	memoryCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	tag, _ := cmd.Flags().GetString("tag")
	budget, _ := cmd.Flags().GetInt("budget")

	s, err := openMemoryStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	result, err := s.Context(cmd.Context(), store.ContextParams{
		Query:  strings.Join(args, " "),
		Tag:    tag,
		Budget: budget,
	})
	if err != nil {
		exitErr("context", err)
	}
	printJSON(cmd, result)
}
