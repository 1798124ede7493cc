package cli

import (
	"github.com/spf13/cobra"

	"github.com/welld/agent-memory/internal/model"
)

func init() {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show memory counts and tag usage",
		Run:   runStats,
	}

	tagsCmd := &cobra.Command{
		Use:   "tags",
		Short: "List the tag taxonomy with examples",
		Run: func(cmd *cobra.Command, args []string) {
			type tagInfo struct {
				Tag      model.Tag `json:"tag"`
				Examples string    `json:"examples"`
			}
			var out []tagInfo
			for _, t := range model.AllTags() {
				out = append(out, tagInfo{Tag: t, Examples: model.TagExamples[t]})
			}
			printJSON(cmd, out)
		},
	}

	prioritiesCmd := &cobra.Command{
		Use:   "priorities",
		Short: "List the priority levels",
		Run: func(cmd *cobra.Command, args []string) {
			printJSON(cmd, model.PriorityValues())
		},
	}

	memoryCmd.AddCommand(statsCmd, tagsCmd, prioritiesCmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s, err := openMemoryStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	printJSON(cmd, s.Stats())
}
