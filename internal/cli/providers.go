package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/welld/agent-memory/internal/provider"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Inspect and connect to configured tool providers",
}

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the providers in the mcpServers config",
		Run:   runProvidersList,
	}

	connectCmd := &cobra.Command{
		Use:   "connect",
		Short: "Run one discovery pass and report every provider's outcome",
		Run:   runProvidersConnect,
	}
	connectCmd.Flags().Bool("tools", false, "Include tool names of connected providers")

	providersCmd.AddCommand(listCmd, connectCmd)
	RootCmd.AddCommand(providersCmd)
}

type providerView struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Target  string   `json:"target"`
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`
	URL     string   `json:"url,omitempty"`
}

type outcomeView struct {
	Name       string   `json:"name"`
	State      string   `json:"state"`
	Stage      string   `json:"stage,omitempty"`
	Error      string   `json:"error,omitempty"`
	Tools      int      `json:"tools"`
	ToolNames  []string `json:"tool_names,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

func runProvidersList(cmd *cobra.Command, args []string) {
	pc, err := provider.LoadConfig(cfg.ProvidersFile)
	if err != nil {
		exitErr("load providers", err)
	}

	views := []providerView{}
	for _, d := range pc.Providers() {
		views = append(views, providerView{
			Name:    d.Name,
			Kind:    string(d.Kind),
			Target:  d.Target(),
			Command: d.Command,
			Args:    d.Args,
			URL:     d.URL,
		})
	}
	printJSON(cmd, views)
}

func runProvidersConnect(cmd *cobra.Command, args []string) {
	withTools, _ := cmd.Flags().GetBool("tools")

	res, err := discover(cmd.Context())
	if err != nil {
		exitErr("load providers", err)
	}
	defer res.Close()

	views := make([]outcomeView, 0, len(res.Outcomes))
	for _, o := range res.Outcomes {
		ov := outcomeView{
			Name:       o.Name,
			State:      o.State.String(),
			Stage:      string(o.Stage),
			Tools:      o.Tools,
			DurationMS: o.Duration.Milliseconds(),
		}
		if o.Err != nil {
			ov.Error = o.Err.Error()
		}
		if h, ok := res.Handle(o.Name); ok && withTools {
			for _, t := range h.Tools() {
				ov.ToolNames = append(ov.ToolNames, t.Name)
			}
		}
		views = append(views, ov)
	}
	printJSON(cmd, map[string]any{
		"pass_id":   res.PassID,
		"connected": res.Names,
		"providers": views,
	})
}

// discover loads the provider config and runs one discovery pass. The
// caller owns the returned handles.
func discover(ctx context.Context) (*provider.Result, error) {
	pc, err := provider.LoadConfig(cfg.ProvidersFile)
	if err != nil {
		return nil, err
	}
	c := provider.NewConnector(logger)
	c.Timeout = cfg.DiscoveryTimeout
	c.ConnectTimeout = cfg.ConnectTimeout
	return c.ConnectAll(ctx, pc.Providers()), nil
}
