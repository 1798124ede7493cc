package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Fuzzy search memories",
		Long:  "Return up to five memories whose content resembles the query. Each hit bumps its reference count.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().StringP("tag", "t", "", "Only memories with this tag")

	memoryCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	tag, _ := cmd.Flags().GetString("tag")
	query := strings.Join(args, " ")

	s, err := openMemoryStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	results, err := s.Search(cmd.Context(), query, tag)
	if err != nil {
		exitErr("search", err)
	}
	printJSON(cmd, results)
}
