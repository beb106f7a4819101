package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cuemby/cri-mcp/pkg/dispatch"
	"github.com/cuemby/cri-mcp/pkg/events"
	"github.com/cuemby/cri-mcp/pkg/log"
	"github.com/cuemby/cri-mcp/pkg/metrics"
	"github.com/cuemby/cri-mcp/pkg/types"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

// Name is the implementation name announced to clients
const Name = "cri-mcp"

const instructions = `Tools in this server manage pods, containers and images through the node's
container runtime (CRI). Pod and container IDs come from list_pods and
list_containers. Failed calls return isError with a kind such as NotFound,
InvalidArguments or Unavailable at the start of the text.`

// Options configures a Server
type Options struct {
	Version string
	Broker  *events.Broker
}

// Server exposes a dispatcher as an MCP server. It is transport agnostic:
// the same server runs over stdio, streamable HTTP or SSE.
type Server struct {
	mcp        *mcp.Server
	dispatcher *dispatch.Dispatcher
	tools      []*mcp.Tool
	broker     *events.Broker
	logger     zerolog.Logger
}

// NewServer registers every catalog tool and the bridge prompts
func NewServer(d *dispatch.Dispatcher, opts Options) *Server {
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		dispatcher: d,
		broker:     opts.Broker,
		logger:     log.WithComponent("bridge"),
	}
	s.mcp = mcp.NewServer(&mcp.Implementation{Name: Name, Version: opts.Version}, &mcp.ServerOptions{
		Instructions:       instructions,
		InitializedHandler: s.sessionInitialized,
	})

	for _, desc := range d.Catalog().List() {
		tool := toolFor(desc)
		s.tools = append(s.tools, tool)
		s.mcp.AddTool(tool, s.handler(desc.Name))
	}
	s.addPrompts()
	s.mcp.AddReceivingMiddleware(s.middleware)

	return s
}

// MCP returns the underlying MCP server
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// Tools returns the advertised tools in catalog order
func (s *Server) Tools() []*mcp.Tool {
	return s.tools
}

// Run serves a single session over the given transport until it closes
func (s *Server) Run(ctx context.Context, t mcp.Transport) error {
	return s.mcp.Run(ctx, t)
}

func toolFor(desc types.ToolDescriptor) *mcp.Tool {
	destructive := desc.Annotations.Destructive
	openWorld := false
	return &mcp.Tool{
		Name:        desc.Name,
		Description: desc.Description,
		InputSchema: desc.ArgumentSchema,
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:    desc.Annotations.ReadOnly,
			DestructiveHint: &destructive,
			IdempotentHint:  desc.Annotations.Idempotent,
			OpenWorldHint:   &openWorld,
		},
	}
}

func (s *Server) handler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := s.dispatcher.DispatchRaw(ctx, name, req.Params.Arguments)
		return toCallToolResult(result), nil
	}
}

// middleware keeps tools/list in catalog order and answers calls to
// unknown tools with a tool error instead of a protocol error
func (s *Server) middleware(next mcp.MethodHandler) mcp.MethodHandler {
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		switch method {
		case "tools/list":
			return &mcp.ListToolsResult{Tools: s.tools}, nil
		case "tools/call":
			if call, ok := req.(*mcp.CallToolRequest); ok && call.Params != nil {
				if _, known := s.dispatcher.Catalog().Lookup(call.Params.Name); !known {
					result := s.dispatcher.Dispatch(ctx, types.ToolCall{Name: call.Params.Name})
					return toCallToolResult(result), nil
				}
			}
		}
		return next(ctx, method, req)
	}
}

func (s *Server) sessionInitialized(ctx context.Context, req *mcp.InitializedRequest) {
	session := req.Session
	id := session.ID()

	logger := log.WithSession(id)
	logger.Info().Msg("Session opened")
	metrics.SessionsActive.Inc()
	s.broker.Publish(&events.Event{
		Type:     events.EventSessionOpened,
		Message:  "MCP session opened",
		Metadata: map[string]string{"session_id": id},
	})

	go func() {
		_ = session.Wait()
		logger.Info().Msg("Session closed")
		metrics.SessionsActive.Dec()
		s.broker.Publish(&events.Event{
			Type:     events.EventSessionClosed,
			Message:  "MCP session closed",
			Metadata: map[string]string{"session_id": id},
		})
	}()
}

// toCallToolResult renders a result as JSON text plus structured content.
// Failures carry their kind first in the text and in the structured error.
func toCallToolResult(r types.ToolResult) *mcp.CallToolResult {
	if f := r.Failure(); f != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("%s: %s", f.Kind, f.Message)}},
			StructuredContent: map[string]any{
				"error": map[string]any{"kind": string(f.Kind), "message": f.Message},
			},
		}
	}

	data, err := json.Marshal(r.Payload())
	if err != nil {
		log.Errorf("Failed to encode tool payload", err)
		return toCallToolResult(types.Fail(types.KindInternal, "internal error while encoding the result"))
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: string(data)}},
		StructuredContent: json.RawMessage(data),
	}
}
