package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/OpenDive/suibotics-core-sub002/control/service"
	"github.com/OpenDive/suibotics-core-sub002/control/session"
)

// Server exposes the coordinator over MCP.
type Server struct {
	svc       service.ControlService
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server backed by svc.
func NewServer(svc service.ControlService) *Server {
	s := &Server{svc: svc}
	s.initMCPServer()
	return s
}

// initMCPServer initializes the MCP server with all tools
func (s *Server) initMCPServer() {
	s.mcpServer = server.NewMCPServer(
		"Suibotics Swarm Control",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Suibotics Swarm Control - MCP Interface

Coordinate crowd-controlled movement sessions for a physical device. A
session accepts directional commands from any number of independent callers
for a fixed 120-second window; every accepted command is sequenced and
streamed to the device in real time.

AVAILABLE TOOLS:
- create_session: Open a new 120-second control session
- submit_move: Submit a directional command (8 directions) to a session
- end_session: Close a session whose time window has elapsed
- session_info: Get a session's status, timing, and participation stats
- list_sessions: List all known sessions
- direction_names: Show the direction code table (0..7)

SESSION LIFECYCLE:
A session starts WAITING, becomes ACTIVE on its first accepted command, and
ends when its 120-second window elapses. Commands submitted after the
deadline are dropped and close the session instead of moving the device.`),
	)

	// Register all tools
	s.registerTools()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new crowd-control session with a fixed 120-second window",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"creator": map[string]interface{}{
					"type":        "string",
					"description": "Principal opening the session",
				},
			},
			Required: []string{"creator"},
		},
	}, s.handleCreateSession)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "submit_move",
		Description: "Submit a directional command to a session. Accepts a direction label or its numeric code 0..7.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
				"principal": map[string]interface{}{
					"type":        "string",
					"description": "Identity of the caller submitting the command",
				},
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right", "up_right", "up_left", "down_left", "down_right"},
					"description": "Direction to move",
				},
			},
			Required: []string{"session_id", "principal", "direction"},
		},
	}, s.handleSubmitMove)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "end_session",
		Description: "Close a session whose 120-second window has elapsed. Fails when called before the deadline.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
			},
			Required: []string{"session_id"},
		},
	}, s.handleEndSession)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "session_info",
		Description: "Get a session's status, timing, and participation stats",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
			},
			Required: []string{"session_id"},
		},
	}, s.handleSessionInfo)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all known control sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleListSessions)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "direction_names",
		Description: "Show the direction code table mapping 0..7 to direction labels",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleDirectionNames)
}

// GetMCPServer returns the underlying MCP server for serving
func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

// Serve runs the MCP server over stdio until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// Tool handlers

func (s *Server) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	creator, _ := args["creator"].(string)

	info, err := s.svc.CreateSession(ctx, creator)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nCreator: %s\nWindow: %d ms (closes at %d)\n",
		info.ID, info.Creator, info.DurationMillis, info.EndTime)
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleSubmitMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)
	principal, _ := args["principal"].(string)

	dir, err := parseDirectionArg(args["direction"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.svc.SubmitMove(ctx, sessionID, principal, dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(dir, result)), nil
}

func (s *Server) handleEndSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	result, err := s.svc.EndSession(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	header := "Session ended\n"
	if result.AlreadyEnded {
		header = "Session was already ended\n"
	}
	return mcp.NewToolResultText(header + formatSessionInfo(result.Session)), nil
}

func (s *Server) handleSessionInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	info, err := s.svc.GetSession(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(info)), nil
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := s.svc.ListSessions(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Known Sessions (%d):\n\n", len(sessions))
	for _, info := range sessions {
		result += fmt.Sprintf("- %s (%s, moves: %d, participants: %d)\n",
			info.ID, info.Status, info.TotalMoves, info.ParticipantCount)
	}

	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleDirectionNames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	b.WriteString("Direction codes:\n\n")
	for _, dir := range session.Directions() {
		b.WriteString(fmt.Sprintf("%d: %s\n", uint8(dir), dir.String()))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// parseDirectionArg accepts the direction as a JSON string label, a numeric
// string, or a bare JSON number.
func parseDirectionArg(raw interface{}) (session.Direction, error) {
	switch v := raw.(type) {
	case string:
		return session.ParseDirection(v)
	case float64:
		return session.ParseDirection(fmt.Sprintf("%d", int(v)))
	default:
		return 0, fmt.Errorf("direction is required")
	}
}

// Formatting helpers

func formatSessionInfo(info *service.SessionInfo) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Session: %s\n", info.ID))
	b.WriteString(fmt.Sprintf("Creator: %s\n", info.Creator))
	b.WriteString(fmt.Sprintf("Status: %s\n", info.Status))
	b.WriteString(fmt.Sprintf("Window: created %d, closes %d (%d ms)\n",
		info.CreatedAt, info.EndTime, info.DurationMillis))
	b.WriteString(fmt.Sprintf("Time remaining: %d ms", info.TimeRemaining))
	if info.HasExpired {
		b.WriteString(" (expired)")
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Moves: %d\n", info.TotalMoves))
	b.WriteString(fmt.Sprintf("Participants (%d): %s\n",
		info.ParticipantCount, strings.Join(info.Participants, ", ")))
	return b.String()
}

func formatMoveResult(dir session.Direction, result *service.MoveResult) string {
	if result.Terminated {
		return fmt.Sprintf("✗ Command dropped: session window elapsed, session is now ENDED\n\n%s",
			formatSessionInfo(result.Session))
	}

	response := fmt.Sprintf("✓ Move accepted: %s (seq %d)\n", dir.String(), result.Seq)
	if result.NewParticipant {
		response += "First command from this participant\n"
	}
	return response + "\n" + formatSessionInfo(result.Session)
}
