package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/welld/agent-memory/internal/model"
	"github.com/welld/agent-memory/internal/store"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage deadline-bound schedule items",
}

func init() {
	addCmd := &cobra.Command{
		Use:   "add <YYYYMMDD> [content]",
		Short: "Store a schedule item",
		Args:  cobra.MinimumNArgs(1),
		Run:   runScheduleAdd,
	}
	addCmd.Flags().StringP("priority", "p", "", "Priority: high, mid, low (default mid)")

	updateCmd := &cobra.Command{
		Use:   "update <schedule_id> [content]",
		Short: "Change a schedule item",
		Args:  cobra.MinimumNArgs(1),
		Run:   runScheduleUpdate,
	}
	updateCmd.Flags().StringP("deadline", "d", "", "New deadline (YYYYMMDD)")
	updateCmd.Flags().StringP("priority", "p", "", "New priority")

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "List items due within a window around today",
		Run:   runScheduleSearch,
	}
	searchCmd.Flags().Int("before", 0, "Days before today")
	searchCmd.Flags().Int("after", 0, "Days after today")

	getCmd := &cobra.Command{
		Use:   "get <schedule_id>",
		Short: "Show a schedule item",
		Args:  cobra.ExactArgs(1),
		Run:   runScheduleGet,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List every schedule item",
		Run:   runScheduleList,
	}

	rmCmd := &cobra.Command{
		Use:   "rm <schedule_id>",
		Short: "Delete a schedule item",
		Args:  cobra.ExactArgs(1),
		Run:   runScheduleRm,
	}

	prioritiesCmd := &cobra.Command{
		Use:   "priorities",
		Short: "List the priority levels",
		Run: func(cmd *cobra.Command, args []string) {
			printJSON(cmd, model.PriorityValues())
		},
	}

	scheduleCmd.AddCommand(addCmd, updateCmd, searchCmd, getCmd, listCmd, rmCmd, prioritiesCmd)
	RootCmd.AddCommand(scheduleCmd)
}

func runScheduleAdd(cmd *cobra.Command, args []string) {
	priority, _ := cmd.Flags().GetString("priority")

	s, err := openScheduleStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	sc, err := s.Add(cmd.Context(), store.AddScheduleParams{
		Deadline: args[0],
		Content:  strings.TrimSpace(readContent(args[1:])),
		Priority: priority,
	})
	if err != nil {
		exitErr("add", err)
	}
	printJSON(cmd, sc)
}

func runScheduleUpdate(cmd *cobra.Command, args []string) {
	deadline, _ := cmd.Flags().GetString("deadline")
	priority, _ := cmd.Flags().GetString("priority")

	s, err := openScheduleStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	sc, err := s.Update(cmd.Context(), args[0], store.UpdateScheduleParams{
		Content:  strings.TrimSpace(readContent(args[1:])),
		Deadline: deadline,
		Priority: priority,
	})
	if err != nil {
		exitErr("update", err)
	}
	printJSON(cmd, sc)
}

func runScheduleSearch(cmd *cobra.Command, args []string) {
	before, _ := cmd.Flags().GetInt("before")
	after, _ := cmd.Flags().GetInt("after")
	if before < 0 || after < 0 {
		exitErr("search", fmt.Errorf("--before and --after must not be negative"))
	}

	s, err := openScheduleStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	printJSON(cmd, s.SearchRange(before, after))
}

func runScheduleGet(cmd *cobra.Command, args []string) {
	s, err := openScheduleStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	sc, ok := s.Get(args[0])
	if !ok {
		exitErr("get", fmt.Errorf("%w: %s", store.ErrNotFound, args[0]))
	}
	printJSON(cmd, sc)
}

func runScheduleList(cmd *cobra.Command, args []string) {
	s, err := openScheduleStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	printJSON(cmd, s.All())
}

func runScheduleRm(cmd *cobra.Command, args []string) {
	s, err := openScheduleStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	deleted, err := s.Delete(cmd.Context(), args[0])
	if err != nil {
		exitErr("delete", err)
	}
	printJSON(cmd, map[string]any{"ok": true, "schedule_id": args[0], "deleted": deleted})
}
