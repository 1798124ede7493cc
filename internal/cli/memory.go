package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/welld/agent-memory/internal/store"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Manage user memories",
}

func init() {
	addCmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Store a memory",
		Long:  "Store a fact about the user. Content comes from args or stdin.",
		Run:   runMemoryAdd,
	}
	addCmd.Flags().StringSliceP("tags", "t", nil, "Tags (comma-separated)")
	addCmd.Flags().StringP("priority", "p", "", "Priority: high, mid, low (default mid)")

	updateCmd := &cobra.Command{
		Use:   "update <key> [content]",
		Short: "Change a memory",
		Args:  cobra.MinimumNArgs(1),
		Run:   runMemoryUpdate,
	}
	updateCmd.Flags().StringSliceP("tags", "t", nil, "Replace tags")
	updateCmd.Flags().StringP("priority", "p", "", "New priority")

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Show a memory",
		Args:  cobra.ExactArgs(1),
		Run:   runMemoryGet,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List every memory in insertion order",
		Run:   runMemoryList,
	}

	rmCmd := &cobra.Command{
		Use:   "rm <key>",
		Short: "Delete a memory",
		Args:  cobra.ExactArgs(1),
		Run:   runMemoryRm,
	}

	memoryCmd.AddCommand(addCmd, updateCmd, getCmd, listCmd, rmCmd)
	RootCmd.AddCommand(memoryCmd)
}

func runMemoryAdd(cmd *cobra.Command, args []string) {
	tags, _ := cmd.Flags().GetStringSlice("tags")
	priority, _ := cmd.Flags().GetString("priority")

	s, err := openMemoryStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	m, err := s.Add(cmd.Context(), store.AddMemoryParams{
		Tags:     tags,
		Content:  strings.TrimSpace(readContent(args)),
		Priority: priority,
	})
	if err != nil {
		exitErr("add", err)
	}
	printJSON(cmd, m)
}

func runMemoryUpdate(cmd *cobra.Command, args []string) {
	tags, _ := cmd.Flags().GetStringSlice("tags")
	priority, _ := cmd.Flags().GetString("priority")

	s, err := openMemoryStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	m, err := s.Update(cmd.Context(), args[0], store.UpdateMemoryParams{
		Content:  strings.TrimSpace(readContent(args[1:])),
		Tags:     tags,
		Priority: priority,
	})
	if err != nil {
		exitErr("update", err)
	}
	printJSON(cmd, m)
}

func runMemoryGet(cmd *cobra.Command, args []string) {
	s, err := openMemoryStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	m, ok := s.Get(args[0])
	if !ok {
		exitErr("get", fmt.Errorf("%w: %s", store.ErrNotFound, args[0]))
	}
	printJSON(cmd, m)
}

func runMemoryList(cmd *cobra.Command, args []string) {
	s, err := openMemoryStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	printJSON(cmd, s.All())
}

func runMemoryRm(cmd *cobra.Command, args []string) {
	s, err := openMemoryStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	deleted, err := s.Delete(cmd.Context(), args[0])
	if err != nil {
		exitErr("delete", err)
	}
	printJSON(cmd, map[string]any{"ok": true, "key": args[0], "deleted": deleted})
}
