// Package mcp exposes the revert engine as a Model Context Protocol tool
// served over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sokinpui/vibedoctor/cli"
	"github.com/sokinpui/vibedoctor/internal/ui"
	"github.com/sokinpui/vibedoctor/revert"
)

const (
	serverName    = "vibedoctor"
	serverVersion = "1.0.0"
)

// Reverter serves one revert request and renders its report.
type Reverter interface {
	Run(ctx context.Context, req revert.Request) string
}

// RevertLastChangesInput is the argument object of revert_last_changes.
type RevertLastChangesInput struct {
	Count               int    `json:"count,omitempty" jsonschema:"number of recent changes to revert, 1 to 10 (default 1)"`
	UserMessage         string `json:"user_message,omitempty" jsonschema:"text of the user's latest message, used to find the current session (default revert)"`
	ConversationHistory string `json:"conversation_history,omitempty" jsonschema:"conversation text so far; earlier VIBEDOCTOR CHANGES tags in it are skipped"`
	Transcript          string `json:"transcript,omitempty" jsonschema:"optional pasted transcript to revert from instead of the session log"`
}

// RevertLastChangesTool defines the MCP tool schema for reverting edits.
func RevertLastChangesTool() *mcp.Tool {
	return &mcp.Tool{
		Name: "revert_last_changes",
		Description: "Revert the last N file changes made by the assistant in this session. " +
			"Include the returned [VIBEDOCTOR CHANGES: N] tag in your response.",
		InputSchema: revertLastChangesSchema(),
	}
}

// revertLastChangesSchema is the schema inferred from RevertLastChangesInput
// with the count range and default added.
func revertLastChangesSchema() *jsonschema.Schema {
	schema, err := jsonschema.For[RevertLastChangesInput](nil)
	if err != nil {
		panic(fmt.Sprintf("infer revert_last_changes schema: %v", err))
	}
	minCount, maxCount := float64(cli.MinCount), float64(cli.MaxCount)
	if count := schema.Properties["count"]; count != nil {
		count.Minimum = &minCount
		count.Maximum = &maxCount
		count.Default = json.RawMessage(fmt.Sprint(cli.MinCount))
	}
	return schema
}

// RevertLastChangesHandler runs one revert per call. Failures are reported in
// the text payload, never as a tool error.
func RevertLastChangesHandler(reverter Reverter) mcp.ToolHandlerFor[RevertLastChangesInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RevertLastChangesInput) (*mcp.CallToolResult, any, error) {
		req := revert.Request{
			Count:      cli.ClampCount(input.Count),
			Search:     input.UserMessage,
			History:    input.ConversationHistory,
			Transcript: input.Transcript,
		}
		ui.Debug("revert_last_changes count=%d search=%q transcript=%t", req.Count, req.Search, req.Transcript != "")

		text := reverter.Run(ctx, req)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil, nil
	}
}

// Server wraps the MCP server with its registered tool.
type Server struct {
	mcpServer *mcp.Server
}

// NewServer registers revert_last_changes backed by reverter.
func NewServer(reverter Reverter) *Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	server.AddTool(RevertLastChangesTool(), rawHandler(RevertLastChangesHandler(reverter)))
	return &Server{mcpServer: server}
}

// rawHandler decodes arguments itself instead of going through mcp.AddTool,
// which would reject an out-of-range count against the advertised schema
// rather than clamp it. Undecodable arguments are reported as text too.
func rawHandler(handler mcp.ToolHandlerFor[RevertLastChangesInput, any]) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input RevertLastChangesInput
		if req.Params != nil && len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &input); err != nil {
				return &mcp.CallToolResult{
					Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("❌ VibeDoctor error: invalid arguments: %v", err)}},
				}, nil
			}
		}
		result, _, err := handler(ctx, req, input)
		return result, err
	}
}

// Serve handles requests on stdin/stdout until the client disconnects or ctx
// is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	ui.Info("VibeDoctor MCP server running on stdio")
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
