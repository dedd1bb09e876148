package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/coincraze/game/engine"
	"github.com/wricardo/mcp-training/coincraze/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"CoinCraze",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`CoinCraze - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Chain equal coins together so their sum reaches the next denomination
(1→5→10→50→100→500→1000). Reach the target score to level up.

AVAILABLE TOOLS:
- create_session / get_session / list_sessions: manage sessions
- game_state: board, preview row, score, level and target
- select_chain: play a whole chain in one call - requires intent explanation
- begin_selection / extend_selection / complete_selection / cancel_selection: step-by-step play
- hints: equal neighbouring pairs and whether a pair alone would merge
- reset_game: start over (history is kept)
- turn_history: past turns
- list_configs: available board configurations
- game_instructions: full rules
- describe_cell: details about one cell

Coordinates are zero-based: row 0 is the top row, column 0 the leftmost column.

NOTE: The 'intent' parameter on select_chain serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func cellProperties(verb string) map[string]interface{} {
	return map[string]interface{}{
		"session_id": sessionIDProperty(),
		"row": map[string]interface{}{
			"type":        "integer",
			"description": fmt.Sprintf("Row of the cell to %s (0 is the top row)", verb),
		},
		"column": map[string]interface{}{
			"type":        "integer",
			"description": fmt.Sprintf("Column of the cell to %s (0 is the leftmost column)", verb),
		},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the config to use (optional, see list_configs)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, preview row, score, level and target",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_chain",
		Description: fmt.Sprintf("Select a chain of equal, adjacent coins (diagonals count) and resolve it in one call. At most %d cells.", engine.MaxChainLength),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"cells": map[string]interface{}{
					"type":        "array",
					"description": "Cells in chain order. Each cell is {\"row\": r, \"column\": c}.",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"row":    map[string]interface{}{"type": "integer"},
							"column": map[string]interface{}{"type": "integer"},
						},
						"required": []string{"row", "column"},
					},
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this chain (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before playing the chain",
				},
			},
			Required: []string{"session_id", "cells", "intent"},
		},
	}, c.handleSelectChain)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "begin_selection",
		Description: "Start a new chain at a cell",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: cellProperties("start from"),
			Required:   []string{"session_id", "row", "column"},
		},
	}, c.handleBeginSelection)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "extend_selection",
		Description: "Add an adjacent equal coin to the chain, or step back to the previous cell to undo the last one",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: cellProperties("add"),
			Required:   []string{"session_id", "row", "column"},
		},
	}, c.handleExtendSelection)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "complete_selection",
		Description: "Resolve the current chain",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleCompleteSelection)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "cancel_selection",
		Description: "Drop the current chain without resolving it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleCancelSelection)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the game to level 1 with a fresh board",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "turn_history",
		Description: "Get the turn history of a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (1-based)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Turns per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest first (asc) or newest first (desc, default)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleTurnHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "hints",
		Description: "List equal orthogonal neighbours on the board and whether each pair alone would merge",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleHints)

	// Configuration
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe one cell: its coin, what it merges into, and its equal neighbours",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: cellProperties("describe"),
			Required:   []string{"session_id", "row", "column"},
		},
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// HTTPHandler serves JSON-RPC messages posted to the MCP endpoint
func (c *Client) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := c.mcpServer.HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// sessionPath escapes the session ID into an API path
func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// cellArgs reads the row and column arguments. JSON numbers arrive as float64.
func cellArgs(args map[string]interface{}) (engine.Position, error) {
	row, rowOK := args["row"].(float64)
	column, colOK := args["column"].(float64)
	if !rowOK || !colOK {
		return engine.Position{}, fmt.Errorf("row and column are required")
	}
	return engine.Position{Row: int(row), Column: int(column)}, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Sessions []*service.SessionInfo `json:"sessions"`
		Total    int                    `json:"total"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(response.Sessions) == 0 {
		return mcp.NewToolResultText("No active sessions."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Total)
	for _, session := range response.Sessions {
		b.WriteString("• " + sessionLine(session) + "\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleSelectChain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	cellsRaw, _ := args["cells"].([]interface{})
	reset, _ := args["reset"].(bool)

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_ = args["intent"]

	cells := make([]engine.Position, 0, len(cellsRaw))
	for i, raw := range cellsRaw {
		cell, ok := raw.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("cell %d must be an object with row and column", i)), nil
		}
		pos, err := cellArgs(cell)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("cell %d: %v", i, err)), nil
		}
		cells = append(cells, pos)
	}
	if len(cells) == 0 {
		return mcp.NewToolResultError("cells must list at least one cell"), nil
	}

	body := map[string]interface{}{
		"cells": cells,
		"reset": reset,
	}

	var result service.ChainResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/chain"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatChainResult(&result)), nil
}

func (c *Client) handleBeginSelection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.selectionCall(ctx, request, "/select/begin")
}

func (c *Client) handleExtendSelection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.selectionCall(ctx, request, "/select/extend")
}

func (c *Client) selectionCall(ctx context.Context, request mcp.CallToolRequest, suffix string) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	pos, err := cellArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.SelectionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, suffix), pos, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSelectionResult(&result)), nil
}

func (c *Client) handleCompleteSelection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var result service.TurnResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/select/complete"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTurnResult(&result)), nil
}

func (c *Client) handleCancelSelection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var result service.SelectionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/select/cancel"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSelectionResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleTurnHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := args["page"].(float64); ok {
		params.Set("page", fmt.Sprintf("%d", int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		params.Set("limit", fmt.Sprintf("%d", int(limit)))
	}
	if order, ok := args["order"].(string); ok && order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleHints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var hints service.HintsResult
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/hints"), nil, &hints); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHints(&hints)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Grid: %dx%d, Target: %d, Refill: %s\n\n",
			config.Name, config.ConfigID, config.Description,
			config.Rows, config.Columns, config.TargetScore, config.RefillPolicy)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := fmt.Sprintf(`CoinCraze - Complete Instructions

GAME OBJECTIVE:
Merge coins into higher denominations and reach the target score to level up.

COINS:
1 → 5 → 10 → 50 → 100 → 500 → (1000 clears the chain)

SELECTING A CHAIN:
• Start on any coin. Every following coin must have the same value as the first
• Each coin must touch the previous one, including diagonally
• A cell can be used only once per chain; at most %d cells
• Stepping back onto the previous cell removes the last coin (backtracking)

RESOLVING:
• The chain merges when its sum reaches the next denomination
  (e.g. five 1s = 5, two 5s = 10, five 10s = 50, two 50s = 100, five 100s = 500, two 500s = 1000)
• On a merge every chain cell empties and the first cell receives the next coin
• Two 500s become 1000, which is not a coin: the whole chain is cleared
• The score increases by the sum of the chain
• A chain that falls short does nothing; it only costs a turn

AFTER EVERY TURN:
• Coins fall down to fill the gaps
• New coins drop in from the preview row shown above the board
• If no two equal coins touch orthogonally, the board is reshuffled

LEVELS:
• Reaching the target score advances the level, resets the score to 0,
  raises the target and deals a fresh board

STRATEGY TIPS:
1. Use hints to find equal neighbours that merge on their own
2. Long chains of small coins build 5s and 10s for bigger merges
3. Watch the preview row: it tells you what falls next
4. Keep 500s adjacent; a pair of them clears space and scores 1000

TOOLS:
• select_chain plays a whole chain: cells [{"row":0,"column":0},{"row":0,"column":1}]
• begin_selection / extend_selection / complete_selection do the same step by step
• describe_cell explains a single cell

Good luck!`, engine.MaxChainLength)

	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	pos, err := cellArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !state.Grid.InBounds(pos) {
		return mcp.NewToolResultError(fmt.Sprintf("Cell (%d, %d) is out of bounds. Grid is %d rows x %d columns (rows 0-%d, columns 0-%d)",
			pos.Row, pos.Column, state.Rows, state.Columns, state.Rows-1, state.Columns-1)), nil
	}

	return mcp.NewToolResultText(describeCell(&state, pos)), nil
}
