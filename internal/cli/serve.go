package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/welld/agent-memory/internal/tools"
)

func init() {
	cmd := &cobra.Command{
		Use:       "serve [memory|schedule|all]",
		Short:     "Serve the tools over MCP",
		Long:      "Serve memory tools, schedule tools or both over MCP on stdio, or over streamable HTTP with --http.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"memory", "schedule", "all"},
		Run:       runServe,
	}

	cmd.Flags().String("http", "", "Listen address for streamable HTTP instead of stdio")
	cmd.Flags().Bool("with-providers", false, "Also expose the tools of configured providers (all only)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	which := "all"
	if len(args) == 1 {
		which = args[0]
	}
	addr, _ := cmd.Flags().GetString("http")
	withProviders, _ := cmd.Flags().GetBool("with-providers")
	ctx := cmd.Context()

	served, closeAll, err := buildTools(ctx, which, withProviders)
	if err != nil {
		exitErr("serve", err)
	}
	defer closeAll()

	s := tools.NewServer("agent-memory-"+which, served...)
	logger.Info("serving", zap.String("tools", which), zap.Int("count", len(served)), zap.String("http", addr))

	if err := listen(ctx, s, addr); err != nil {
		closeAll()
		exitErr("serve", err)
	}
}

// buildTools opens the stores behind which and, with providers, merges
// in the tools of every provider that connects. A provider config that
// cannot be loaded is an error; individual provider failures are not.
// closeAll releases whatever was opened, also on error.
func buildTools(ctx context.Context, which string, withProviders bool) (served []server.ServerTool, closeAll func(), err error) {
	var closers []func() error
	closeAll = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		closers = nil
	}
	defer func() {
		if err != nil {
			closeAll()
		}
	}()

	var local []server.ServerTool
	if which == "memory" || which == "all" {
		ms, err := openMemoryStore(ctx)
		if err != nil {
			return nil, closeAll, fmt.Errorf("open memory store: %w", err)
		}
		closers = append(closers, ms.Close)
		local = append(local, tools.NewMemoryTools(ms, logger).Tools()...)
	}
	if which == "schedule" || which == "all" {
		ss, err := openScheduleStore(ctx)
		if err != nil {
			return nil, closeAll, fmt.Errorf("open schedule store: %w", err)
		}
		closers = append(closers, ss.Close)
		local = append(local, tools.NewScheduleTools(ss, logger).Tools()...)
	}

	if !withProviders || which != "all" {
		return local, closeAll, nil
	}
	res, err := discover(ctx)
	if err != nil {
		return nil, closeAll, fmt.Errorf("load providers: %w", err)
	}
	closers = append(closers, res.Close)
	return tools.NewRegistry(logger, local, res.Handles).ServerTools(), closeAll, nil
}

func listen(ctx context.Context, s *server.MCPServer, addr string) error {
	if addr == "" {
		stdio := server.NewStdioServer(s)
		stdio.SetErrorLogger(zap.NewStdLog(logger))
		err := stdio.Listen(ctx, os.Stdin, os.Stdout)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	httpSrv := server.NewStreamableHTTPServer(s)
	errc := make(chan error, 1)
	go func() { errc <- httpSrv.Start(addr) }()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return httpSrv.Shutdown(context.WithoutCancel(ctx))
	}
}
