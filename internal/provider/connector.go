package provider

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTimeout bounds one provider's whole attempt.
	DefaultTimeout = 10 * time.Second

	// DefaultConnectTimeout bounds starting the transport and the
	// initialize handshake.
	DefaultConnectTimeout = 5 * time.Second
)

// Client identity sent in the initialize handshake.
var (
	ClientName    = "agent-memory"
	ClientVersion = "0.1.0"
)

// Dialer opens a session to def. ctx bounds the connect stage.
type Dialer func(ctx context.Context, def Definition) (Session, error)

// Connector connects to every configured provider at once. A provider
// that hangs, refuses or errors is logged and skipped; it never fails
// or delays the batch beyond Timeout.
type Connector struct {
	Logger         *zap.Logger
	Timeout        time.Duration
	ConnectTimeout time.Duration

	// Concurrency caps parallel attempts. Zero means no cap.
	Concurrency int

	// Dial defaults to DialMCP.
	Dial Dialer
}

// NewConnector returns a connector with the default timeouts.
func NewConnector(logger *zap.Logger) *Connector {
	return &Connector{
		Logger:         logger,
		Timeout:        DefaultTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		Dial:           DialMCP,
	}
}

func (c *Connector) withDefaults() Connector {
	cc := Connector{
		Logger:         c.Logger,
		Timeout:        c.Timeout,
		ConnectTimeout: c.ConnectTimeout,
		Concurrency:    c.Concurrency,
		Dial:           c.Dial,
	}
	if cc.Logger == nil {
		cc.Logger = zap.NewNop()
	}
	if cc.Timeout <= 0 {
		cc.Timeout = DefaultTimeout
	}
	if cc.ConnectTimeout <= 0 || cc.ConnectTimeout > cc.Timeout {
		cc.ConnectTimeout = min(DefaultConnectTimeout, cc.Timeout)
	}
	if cc.Dial == nil {
		cc.Dial = DialMCP
	}
	return cc
}

// ConnectAll attempts every definition concurrently and returns once
// each attempt has connected, failed or run out of time. It never
// returns an error; failures are in Result.Outcomes.
func (c *Connector) ConnectAll(ctx context.Context, defs []Definition) *Result {
	cc := c.withDefaults()
	res := &Result{
		PassID:   ulid.Make().String(),
		Names:    []string{},
		Handles:  []*Handle{},
		Outcomes: make([]Outcome, len(defs)),
	}
	log := cc.Logger.With(zap.String("pass", res.PassID))
	log.Debug("discovery started", zap.Int("providers", len(defs)))

	handles := make([]*Handle, len(defs))
	var g errgroup.Group
	if cc.Concurrency > 0 {
		g.SetLimit(cc.Concurrency)
	}
	for i, def := range defs {
		g.Go(func() error {
			handles[i], res.Outcomes[i] = cc.attempt(ctx, log, def)
			return nil
		})
	}
	_ = g.Wait()

	for i, h := range handles {
		if h != nil {
			res.Names = append(res.Names, defs[i].Name)
			res.Handles = append(res.Handles, h)
		}
	}
	log.Info("discovery finished",
		zap.Int("connected", len(res.Handles)),
		zap.Int("skipped", len(defs)-len(res.Handles)))
	return res
}

type attemptResult struct {
	handle *Handle
	stage  Stage
	err    error
	dctx   error
}

// attempt bounds one provider by Timeout. The select returns on the
// deadline even when the transport ignores its context; a session that
// connects after that is closed in the background.
func (c Connector) attempt(ctx context.Context, log *zap.Logger, def Definition) (*Handle, Outcome) {
	start := time.Now()
	out := Outcome{Name: def.Name, State: Pending}

	actx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	var stage atomic.Value
	stage.Store(StageConnect)
	done := make(chan attemptResult, 1)
	go func() { done <- c.open(actx, def, &stage) }()

	var r attemptResult
	select {
	case r = <-done:
		out.State = classify(r.err, r.dctx)
	case <-actx.Done():
		go func() {
			if late := <-done; late.handle != nil {
				late.handle.Close()
			}
		}()
		r = attemptResult{stage: stage.Load().(Stage), err: actx.Err()}
		out.State = classify(r.err, nil)
	}
	out.Duration = time.Since(start)

	if r.err == nil {
		out.Tools = len(r.handle.tools)
		log.Info("provider connected",
			zap.String("provider", def.Name),
			zap.String("target", def.Target()),
			zap.Int("tools", out.Tools),
			zap.Duration("took", out.Duration))
		return r.handle, out
	}

	out.Stage = r.stage
	out.Err = r.err
	log.Error("provider skipped",
		zap.String("provider", def.Name),
		zap.String("target", def.Target()),
		zap.Stringer("state", out.State),
		zap.String("stage", string(out.Stage)),
		zap.Duration("took", out.Duration),
		zap.Error(r.err))
	return nil, out
}

// open records the step it is in on stage, so a timeout observed by
// attempt names the right one.
func (c Connector) open(ctx context.Context, def Definition, stage *atomic.Value) attemptResult {
	dctx, dcancel := context.WithTimeout(ctx, c.ConnectTimeout)
	sess, err := c.Dial(dctx, def)
	dctxErr := dctx.Err()
	dcancel()
	if err != nil {
		return attemptResult{stage: StageConnect, err: err, dctx: dctxErr}
	}

	stage.Store(StageListTools)
	tools, err := sess.ListTools(ctx)
	if err == nil && len(tools) == 0 {
		err = ErrNoTools
	}
	if err != nil {
		sess.Close()
		return attemptResult{stage: StageListTools, err: err, dctx: ctx.Err()}
	}
	return attemptResult{handle: newHandle(def, sess, tools)}
}

// DialMCP connects to def over mcp-go: a subprocess speaking stdio, or
// a streamable HTTP endpoint. The transport outlives ctx; only the
// handshake is bounded by it.
func DialMCP(ctx context.Context, def Definition) (Session, error) {
	var c *client.Client
	switch def.Kind {
	case KindHTTP:
		t, err := transport.NewStreamableHTTP(def.URL)
		if err != nil {
			return nil, fmt.Errorf("create http transport: %w", err)
		}
		c = client.NewClient(t)
	case KindStdio:
		c = client.NewClient(transport.NewStdio(def.Command, def.Environ(), def.Args...))
	default:
		return nil, fmt.Errorf("unsupported provider kind %q", def.Kind)
	}

	if err := c.Start(context.WithoutCancel(ctx)); err != nil {
		c.Close()
		return nil, fmt.Errorf("start transport: %w", err)
	}

	req := mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo: mcp.Implementation{
				Name:    ClientName,
				Version: ClientVersion,
			},
		},
	}
	if _, err := c.Initialize(ctx, req); err != nil {
		c.Close()
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return &mcpSession{client: c}, nil
}

type mcpSession struct {
	client *client.Client
}

func (s *mcpSession) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	resp, err := s.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, err
	}
	return resp.Tools, nil
}

func (s *mcpSession) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return s.client.CallTool(ctx, req)
}

func (s *mcpSession) Close() error { return s.client.Close() }
