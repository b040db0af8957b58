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
	"github.com/rs/zerolog/log"
	"github.com/wricardo/mcp-training/tilematch/game/engine"
	"github.com/wricardo/mcp-training/tilematch/game/service"
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
		"Tile Match Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Tile Match Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Clear every tile from the board. Picking a tile moves it into the first free
holding slot; three equal symbols in the slots are cleared. Filling every slot
without a triple loses the game.

AVAILABLE TOOLS:
- create_session: Create new game session
- list_sessions: List all active sessions
- get_session: Get session details
- game_state: Board, slots and the tiles that can be picked right now
- select_tile: Pick the tile at row/col - requires intent explanation
- restart_game: Deal a fresh board in the same session
- selection_history: View past selections, including ignored ones
- list_configs: List available themes
- describe_tile: Inspect one tile (symbol, position, blocked or not)
- game_instructions: Full rules and strategy notes

NOTE: The 'intent' parameter on select_tile serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	sessionIDProp := map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}

	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional theme selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Theme identifier from list_configs (e.g. 'classic'); omit for the default theme",
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
		Description: "Get details about a session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProp},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Gameplay
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, slots and selectable tiles",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProp},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_tile",
		Description: "Pick the tile at row/col and move it into the holding slots",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProp,
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Board row, zero based",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Board column, zero based",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Why this tile? Describe the triple you are building",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleSelectTile)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "restart_game",
		Description: "Deal a fresh board and empty the slots",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProp},
			Required:   []string{"session_id"},
		},
	}, c.handleRestart)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "selection_history",
		Description: "Get paginated selection history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProp,
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Entries per page (default 20, max 100)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest first (asc) or newest first (desc, default)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleSelectionHistory)

	// Configuration
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game themes",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	// Help
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_tile",
		Description: "Describe the tile at row/col: symbol, position, and whether it is covered",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProp,
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Board row, zero based",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Board column, zero based",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleDescribeTile)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules of the game and tips for playing it",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for stdio serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
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

func intArg(args map[string]interface{}, name string) (int, bool) {
	switch v := args[name].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func cellArgs(args map[string]interface{}) (int, int, error) {
	row, ok := intArg(args, "row")
	if !ok {
		return 0, 0, fmt.Errorf("row is required")
	}
	col, ok := intArg(args, "col")
	if !ok {
		return 0, 0, fmt.Errorf("col is required")
	}
	return row, col, nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
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

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n", session.ID, session.ConfigName)
	if session.GameState != nil {
		result += formatGameState(session.GameState)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "unknown"
		if s.GameState != nil {
			status = string(s.GameState.Status)
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Status: %s, Created: %s)\n",
			s.ID, s.ConfigName, status, s.CreatedAt.Format("15:04:05"))
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

func (c *Client) handleSelectTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	intent, _ := args["intent"].(string)

	row, col, err := cellArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if intent != "" {
		log.Debug().Str("session", sessionID).Int("row", row).Int("col", col).Str("intent", intent).Msg("select_tile")
	}

	var result service.SelectResult
	body := map[string]int{"row": row, "col": col}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/select"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSelectResult(&result)), nil
}

func (c *Client) handleRestart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/restart"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := response.Message + "\n\n"
	if response.State != nil {
		result += formatGameState(response.State)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleSelectionHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
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

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (id: %s)\n  %s\n  Symbols: %d, Tiles: %d, Columns: %d, Slots: %d\n\n",
			config.Name, config.ConfigID, config.Description,
			config.Symbols, config.TotalTiles, config.Columns, config.SlotCount)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleDescribeTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	row, col, err := cellArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if row < 0 || col < 0 {
		return mcp.NewToolResultError(fmt.Sprintf("row and col must be non-negative, got (%d, %d)", row, col)), nil
	}

	var response struct {
		Row        int         `json:"row"`
		Col        int         `json:"col"`
		Tile       engine.Tile `json:"tile"`
		Blocked    bool        `json:"blocked"`
		Selectable bool        `json:"selectable"`
	}
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, fmt.Sprintf("/tiles/%d/%d", row, col)), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTile(response.Row, response.Col, response.Tile, response.Selectable)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `TILE MATCH - COMPLETE GAME GUIDE

OBJECTIVE:
Clear every tile on the board by collecting them in groups of three.

THE BOARD:
• Tiles are addressed by (row, col), both zero based
• Each tile also has a position on a continuous plane; tiles overlap
• A tile lower on screen (larger y) sits on top of tiles above it
• A tile is COVERED when an uncleared tile at the same height or lower on
  screen overlaps it by more than the overlap threshold in both directions
• Only uncovered tiles can be picked; game_state lists them

THE SLOTS:
• A picked tile moves into the FIRST free holding slot
• As soon as three slots hold the same symbol they are marked for clearing
• After a short delay the three slots are emptied; the board tiles stay cleared
• While a triple is waiting to clear, every pick is ignored

WINNING AND LOSING:
• Victory: every tile on the board has been cleared
• Game over: you pick a tile when every slot is already taken and no triple forms

IGNORED PICKS (no state change):
• out_of_range - no tile at that row/col
• matched - the tile was already picked
• blocked - the tile is covered
• clearing - a triple is waiting to clear
• game_over - the game already ended; use restart_game

STRATEGY:
1. Call game_state and read the selectable list before every pick
2. Prefer symbols you already hold in a slot; two of a kind needs one more
3. Avoid filling the last free slot with a symbol you hold nowhere else
4. Picking a tile can uncover others; use describe_tile to see what a tile is
5. Check selection_history when a pick did not do what you expected

Good luck!`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	result := fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\nLast Accessed: %s\n\n",
		session.ID, session.ConfigName,
		session.CreatedAt.Format(time.RFC3339), session.LastAccessedAt.Format(time.RFC3339))
	if session.GameState != nil {
		result += formatGameState(session.GameState)
	}
	return result
}

func formatSlots(slots []*engine.SlotTile) string {
	parts := make([]string, len(slots))
	for i, s := range slots {
		if s == nil {
			parts[i] = "[ ]"
		} else {
			parts[i] = "[" + s.Symbol + "]"
		}
	}
	return strings.Join(parts, " ")
}

func formatGameState(state *engine.GameState) string {
	var b strings.Builder

	switch state.Status {
	case engine.Won:
		b.WriteString("🎉 VICTORY!\n")
	case engine.Lost:
		b.WriteString("💀 GAME OVER\n")
	}

	fmt.Fprintf(&b, "Theme: %s\n", state.ConfigName)
	fmt.Fprintf(&b, "Status: %s\n", state.Status)
	fmt.Fprintf(&b, "Cleared: %d / %d\n", state.MatchedCount, state.TotalTiles)
	fmt.Fprintf(&b, "Selections: %d\n", state.Selections)
	if state.Message != "" {
		fmt.Fprintf(&b, "Message: %s\n", state.Message)
	}

	fmt.Fprintf(&b, "\nSlots (%d free): %s\n", state.EmptySlots(), formatSlots(state.Slots))
	if state.PendingMatch != nil {
		fmt.Fprintf(&b, "Clearing: %s in slots %v\n", state.PendingMatch.Symbol, state.PendingMatch.SlotIndices)
	}

	if state.GameOver() {
		return b.String()
	}

	selectable := state.Selectable()
	fmt.Fprintf(&b, "\nSelectable tiles (%d):\n", len(selectable))
	for _, cell := range selectable {
		tile, _ := state.TileAt(cell.Row, cell.Col)
		fmt.Fprintf(&b, "  (%d,%d) %s\n", cell.Row, cell.Col, tile.Symbol)
	}

	return b.String()
}

func formatSelectResult(result *service.SelectResult) string {
	var b strings.Builder

	sel := result.Selection
	if sel.Accepted {
		fmt.Fprintf(&b, "✅ Picked %s at (%d,%d) into slot %d\n", sel.Symbol, sel.Row, sel.Col, sel.SlotIndex)
	} else {
		fmt.Fprintf(&b, "❌ Ignored (%d,%d): %s\n", sel.Row, sel.Col, sel.Reason)
	}
	if sel.Match != nil {
		fmt.Fprintf(&b, "✨ Three %s! Slots %v will clear\n", sel.Match.Symbol, sel.Match.SlotIndices)
	}
	if result.Message != "" {
		fmt.Fprintf(&b, "%s\n", result.Message)
	}

	if result.GameState != nil {
		b.WriteString("\n")
		b.WriteString(formatGameState(result.GameState))
	}
	return b.String()
}

func formatTile(row, col int, tile engine.Tile, selectable bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tile (%d,%d)\n", row, col)

	switch {
	case tile.Filler:
		b.WriteString("Empty cell padding the last row\n")
		return b.String()
	case tile.Matched:
		fmt.Fprintf(&b, "Symbol: %s\nAlready picked\n", tile.Symbol)
		return b.String()
	}

	fmt.Fprintf(&b, "Symbol: %s\n", tile.Symbol)
	fmt.Fprintf(&b, "Position: x=%.1f y=%.1f\n", tile.Position.X, tile.Position.Y)
	fmt.Fprintf(&b, "Covered: %t\n", tile.Blocked)
	fmt.Fprintf(&b, "Selectable now: %t\n", selectable)
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Selection History (Page %d/%d) - Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalSelections)

	for _, entry := range history.Selections {
		status := "✓"
		detail := entry.Symbol
		if !entry.Accepted {
			status = "✗"
			detail = string(entry.Reason)
		}
		fmt.Fprintf(&b, "%d. (%d,%d) %s %s [epoch %d, %s]",
			entry.Seq, entry.Row, entry.Col, status, detail, entry.Epoch, entry.Status)
		if entry.Matched != "" {
			fmt.Fprintf(&b, " matched %s", entry.Matched)
		}
		b.WriteString("\n")
	}

	if len(history.Selections) == 0 {
		b.WriteString("(no selections)\n")
	}
	return b.String()
}
