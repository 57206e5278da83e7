// Package mcp exposes the Arbor engine as an MCP server, letting agent
// hosts drive conversations over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/arbor/pkg/domain"
)

// Engine is the interface the MCP adapter needs from the Arbor core.
type Engine interface {
	Turn(ctx context.Context, conversationID string, in *domain.Input) (*domain.TurnResult, error)
	Conversations(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, conversationID string) error
}

// Server wraps the Arbor engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance.
func NewServer(engine Engine, version string) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("arbor-mcp", version),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	// TOOL: dialog_turn
	turnTool := mcp.NewTool("dialog_turn",
		mcp.WithDescription("Process one dialog turn. Input must be a resolved intent/slot payload; the result is the ordered act list for the host to render."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation identifier")),
		mcp.WithString("input", mcp.Required(), mcp.Description("JSON-encoded Input: {kind, intent, slots}")),
		mcp.WithOutputSchema[domain.TurnResult](),
	)
	s.mcpServer.AddTool(turnTool, mcp.NewStructuredToolHandler(s.handleTurn))

	// TOOL: list_conversations
	s.mcpServer.AddTool(mcp.NewTool("list_conversations",
		mcp.WithDescription("List known conversation IDs."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		conversations, err := s.engine.Conversations(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(conversations)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: end_conversation
	s.mcpServer.AddTool(mcp.NewTool("end_conversation",
		mcp.WithDescription("Delete a conversation's persisted state."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation identifier")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, _ := request.GetArguments()["conversation_id"].(string)
		if id == "" {
			return mcp.NewToolResultError("conversation_id is required"), nil
		}
		if err := s.engine.Delete(ctx, id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
		}
		return mcp.NewToolResultText("deleted"), nil
	})
}

func (s *Server) handleTurn(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.TurnResult, error) {
	conversationID, _ := args["conversation_id"].(string)
	if conversationID == "" {
		return domain.TurnResult{}, fmt.Errorf("conversation_id is required")
	}

	raw, _ := args["input"].(string)
	var in domain.Input
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return domain.TurnResult{}, fmt.Errorf("invalid input payload: %w", err)
	}

	result, err := s.engine.Turn(ctx, conversationID, &in)
	if err != nil {
		return domain.TurnResult{}, fmt.Errorf("turn failed: %w", err)
	}
	return *result, nil
}
