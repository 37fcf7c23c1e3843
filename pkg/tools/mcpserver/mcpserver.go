// Package mcpserver exposes a toolbox and static prompts over the Model
// Context Protocol, as a thin layer over the official MCP Go SDK. It owns
// the transport choice: line-delimited JSON-RPC on an io.Reader/io.Writer
// pair (stdio in production) or the SDK's streamable HTTP handler.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/hugohow/mcp-audio-analysis/pkg/tools/toolbox"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Prompt is a static prompt served over MCP. Text becomes the single
// user-role message of the prompts/get response.
type Prompt struct {
	Name        string
	Description string
	Text        string
}

// MCPServer wraps an SDK server with tool and prompt registration.
type MCPServer struct {
	server *mcp.Server
}

// New returns an MCPServer that advertises name and version during the
// protocol handshake.
func New(name, version string) *MCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version,
	}, nil)

	return &MCPServer{server: server}
}

// Register makes the tools callable and discoverable on the server.
func (s *MCPServer) Register(tools ...toolbox.Tool) {
	for _, t := range tools {
		s.server.AddTool(toSDKTool(t), toSDKHandler(t.Handler))
	}
}

// RegisterPrompt makes the static prompts available via prompts/list and
// prompts/get.
func (s *MCPServer) RegisterPrompt(prompts ...Prompt) {
	for _, p := range prompts {
		s.server.AddPrompt(&mcp.Prompt{
			Name:        p.Name,
			Description: p.Description,
		}, toSDKPromptHandler(p))
	}
}

// Serve speaks the protocol on the in/out pair and blocks until ctx is
// cancelled or the transport closes. When out is a process's stdout, nothing
// else may write to it.
func (s *MCPServer) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	transport := &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	}

	return s.run(ctx, transport)
}

// ServeHTTP serves the streamable HTTP transport on addr and blocks until
// ctx is cancelled or the listener fails. Cancellation gives in-flight
// requests a short drain window before the server closes.
func (s *MCPServer) ServeHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{Addr: addr, Handler: handler}

	errc := make(chan error, 1)
	go func() {
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errc:
		return err
	}
}

// run drives the SDK server over any transport. Tests call it with in-memory
// transports.
func (s *MCPServer) run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

func toSDKTool(t toolbox.Tool) *mcp.Tool {
	return &mcp.Tool{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: t.InputSchema,
	}
}

// toSDKHandler adapts a toolbox.Handler to the SDK's handler shape: handler
// errors become isError text results rather than protocol errors, so the
// caller always receives the failure message as content.
func toSDKHandler(h toolbox.Handler) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.Params.Arguments
		if args == nil {
			args = json.RawMessage("{}")
		}

		result, err := h(ctx, args)
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
				IsError: true,
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result}},
		}, nil
	}
}

func toSDKPromptHandler(p Prompt) mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return &mcp.GetPromptResult{
			Description: p.Description,
			Messages: []*mcp.PromptMessage{
				{
					Role:    "user",
					Content: &mcp.TextContent{Text: p.Text},
				},
			},
		}, nil
	}
}

// nopWriteCloser lets an io.Writer satisfy the transport's WriteCloser
// without closing the underlying stream.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
