package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/mcp-training/tilematch/api"
	"github.com/wricardo/mcp-training/tilematch/game/config"
	"github.com/wricardo/mcp-training/tilematch/game/engine"
	"github.com/wricardo/mcp-training/tilematch/game/service"
	"github.com/wricardo/mcp-training/tilematch/game/session"
)

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// smallState is a 1x3 board: A selectable, B covered, C already picked.
func smallState() *engine.GameState {
	return &engine.GameState{
		Board: engine.Board{Rows: 1, Cols: 3, Tiles: []engine.Tile{
			{ID: "t0", Symbol: "A", Position: engine.Position{X: 10, Y: 20}},
			{ID: "t1", Symbol: "B", Blocked: true},
			{ID: "t2", Symbol: "C", Matched: true},
		}},
		Slots:        []*engine.SlotTile{{TileID: "t2", Symbol: "C"}, nil, nil},
		MatchedCount: 1,
		TotalTiles:   3,
		Status:       engine.Playing,
		Selections:   1,
		Message:      "Cleared: 1 / 3",
		ConfigName:   "Test Theme",
	}
}

// newFakeAPI serves canned replies on the REST routes the client uses.
func newFakeAPI(t *testing.T) *httptest.Server {
	t.Helper()

	r := mux.NewRouter()
	r.HandleFunc("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["config_id"] == "missing" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "config not found: missing"})
			return
		}
		writeJSON(w, http.StatusCreated, service.SessionInfo{ID: "ab12", ConfigName: "Test Theme", GameState: smallState()})
	}).Methods("POST")
	r.HandleFunc("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count": 1,
			"sessions": []service.SessionInfo{
				{ID: "ab12", ConfigName: "Test Theme", GameState: smallState()},
			},
		})
	}).Methods("GET")
	r.HandleFunc("/api/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		if mux.Vars(r)["id"] != "ab12" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		writeJSON(w, http.StatusOK, service.SessionInfo{ID: "ab12", ConfigName: "Test Theme", GameState: smallState()})
	}).Methods("GET")
	r.HandleFunc("/api/sessions/{id}/state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, smallState())
	}).Methods("GET")
	r.HandleFunc("/api/sessions/{id}/select", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Row int `json:"row"`
			Col int `json:"col"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		sel := engine.SelectResult{Row: req.Row, Col: req.Col, Status: engine.Playing}
		if req.Col == 0 {
			sel.Accepted = true
			sel.Symbol = "A"
			sel.SlotIndex = 1
		} else {
			sel.Reason = engine.ReasonBlocked
			sel.SlotIndex = -1
		}
		writeJSON(w, http.StatusOK, service.SelectResult{Success: sel.Accepted, Selection: sel, GameState: smallState()})
	}).Methods("POST")
	r.HandleFunc("/api/sessions/{id}/restart", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Game restarted", "state": smallState()})
	}).Methods("POST")
	r.HandleFunc("/api/sessions/{id}/history", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "5", q.Get("limit"))
		assert.Equal(t, "asc", q.Get("order"))
		writeJSON(w, http.StatusOK, service.HistoryResponse{
			Selections: []service.SelectionEntry{
				{Seq: 6, Row: 0, Col: 0, Symbol: "A", Accepted: true, Status: engine.Playing},
				{Seq: 7, Row: 0, Col: 1, Reason: engine.ReasonBlocked, SlotIndex: -1, Status: engine.Playing},
				{Seq: 8, Row: 0, Col: 2, Symbol: "C", Accepted: true, Matched: "C", Status: engine.AwaitingClear},
			},
			TotalSelections: 8,
			Page:            2,
			PageSize:        5,
			TotalPages:      2,
			HasPrevious:     true,
		})
	}).Methods("GET")
	r.HandleFunc("/api/sessions/{id}/tiles/{row}/{col}", func(w http.ResponseWriter, r *http.Request) {
		if mux.Vars(r)["row"] != "0" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no tile at row 4, col 0"})
			return
		}
		state := smallState()
		tile, _ := state.TileAt(0, 0)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"row": 0, "col": 0, "tile": tile, "blocked": false, "selectable": true,
		})
	}).Methods("GET")
	r.HandleFunc("/api/configs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []service.ConfigInfo{
			{ConfigID: "classic", Name: "Classic Fruit", Description: "Eight fruits", Symbols: 8, TotalTiles: 24, Columns: 8, SlotCount: 7},
		})
	}).Methods("GET")

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	assert.Equal(t, "http://localhost:8080", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.GetMCPServer())
}

func TestClient_apiCall(t *testing.T) {
	ts := newFakeAPI(t)
	client := NewClient(ts.URL)

	var state engine.GameState
	require.NoError(t, client.apiCall(context.Background(), "GET", "/api/sessions/ab12/state", nil, &state))
	assert.Equal(t, "Test Theme", state.ConfigName)
}

func TestClient_apiCall_Errors(t *testing.T) {
	ts := newFakeAPI(t)
	client := NewClient(ts.URL)

	err := client.apiCall(context.Background(), "GET", "/api/sessions/zzzz", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "session not found", err.Error())

	err = client.apiCall(context.Background(), "GET", "/api/unknown", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error: 404")

	unreachable := NewClient("http://127.0.0.1:1")
	assert.Error(t, unreachable.apiCall(context.Background(), "GET", "/api/health", nil, nil))
}

func TestClient_CreateSession(t *testing.T) {
	ts := newFakeAPI(t)
	client := NewClient(ts.URL)
	ctx := context.Background()

	result, err := client.handleCreateSession(ctx, callRequest("create_session", map[string]interface{}{}))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "Created session: ab12")
	assert.Contains(t, text, "Selectable tiles (1)")

	result, err = client.handleCreateSession(ctx, callRequest("create_session", map[string]interface{}{"config_id": "missing"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "config not found")
}

func TestClient_ListAndGetSession(t *testing.T) {
	ts := newFakeAPI(t)
	client := NewClient(ts.URL)
	ctx := context.Background()

	result, err := client.handleListSessions(ctx, callRequest("list_sessions", nil))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "Active Sessions (1)")
	assert.Contains(t, text, "ab12 (Config: Test Theme, Status: playing")

	result, err = client.handleGetSession(ctx, callRequest("get_session", map[string]interface{}{"session_id": "ab12"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Session: ab12")

	result, err = client.handleGetSession(ctx, callRequest("get_session", map[string]interface{}{"session_id": "zzzz"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestClient_SelectTile(t *testing.T) {
	ts := newFakeAPI(t)
	client := NewClient(ts.URL)
	ctx := context.Background()

	result, err := client.handleSelectTile(ctx, callRequest("select_tile", map[string]interface{}{
		"session_id": "ab12", "row": float64(0), "col": float64(0), "intent": "start a pair of A",
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Picked A at (0,0) into slot 1")

	result, err = client.handleSelectTile(ctx, callRequest("select_tile", map[string]interface{}{
		"session_id": "ab12", "row": float64(0), "col": float64(1),
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Ignored (0,1): blocked")

	result, err = client.handleSelectTile(ctx, callRequest("select_tile", map[string]interface{}{
		"session_id": "ab12", "row": float64(0),
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "col is required")
}

func TestClient_RestartAndState(t *testing.T) {
	ts := newFakeAPI(t)
	client := NewClient(ts.URL)
	ctx := context.Background()

	result, err := client.handleRestart(ctx, callRequest("restart_game", map[string]interface{}{"session_id": "ab12"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Game restarted")

	result, err = client.handleGameState(ctx, callRequest("game_state", map[string]interface{}{"session_id": "ab12"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Cleared: 1 / 3")
}

func TestClient_SelectionHistory(t *testing.T) {
	ts := newFakeAPI(t)
	client := NewClient(ts.URL)

	result, err := client.handleSelectionHistory(context.Background(), callRequest("selection_history", map[string]interface{}{
		"session_id": "ab12", "page": float64(2), "limit": float64(5), "order": "asc",
	}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Selection History (Page 2/2) - Total: 8")
	assert.Contains(t, text, "6. (0,0) ✓ A")
	assert.Contains(t, text, "7. (0,1) ✗ blocked")
	assert.Contains(t, text, "matched C")
}

func TestClient_ListConfigs(t *testing.T) {
	ts := newFakeAPI(t)
	client := NewClient(ts.URL)

	result, err := client.handleListConfigs(context.Background(), callRequest("list_configs", nil))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "Classic Fruit (id: classic)")
	assert.Contains(t, text, "Symbols: 8, Tiles: 24, Columns: 8, Slots: 7")
}

func TestClient_DescribeTile(t *testing.T) {
	ts := newFakeAPI(t)
	client := NewClient(ts.URL)
	ctx := context.Background()

	result, err := client.handleDescribeTile(ctx, callRequest("describe_tile", map[string]interface{}{
		"session_id": "ab12", "row": float64(0), "col": float64(0),
	}))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "Symbol: A")
	assert.Contains(t, text, "Position: x=10.0 y=20.0")
	assert.Contains(t, text, "Selectable now: true")

	result, err = client.handleDescribeTile(ctx, callRequest("describe_tile", map[string]interface{}{
		"session_id": "ab12", "row": float64(4), "col": float64(0),
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = client.handleDescribeTile(ctx, callRequest("describe_tile", map[string]interface{}{
		"session_id": "ab12", "row": float64(-1), "col": float64(0),
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestClient_GameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleGameInstructions(context.Background(), callRequest("game_instructions", nil))
	require.NoError(t, err)

	text := resultText(t, result)
	for _, section := range []string{"OBJECTIVE:", "THE BOARD:", "THE SLOTS:", "WINNING AND LOSING:", "IGNORED PICKS", "STRATEGY:"} {
		assert.Contains(t, text, section)
	}
}

func TestFormatGameState(t *testing.T) {
	state := smallState()
	state.PendingMatch = &engine.MatchGroup{Symbol: "C", SlotIndices: []int{0, 1, 2}}

	text := formatGameState(state)
	assert.Contains(t, text, "Theme: Test Theme")
	assert.Contains(t, text, "Slots (2 free): [C] [ ] [ ]")
	assert.Contains(t, text, "Clearing: C in slots [0 1 2]")
	assert.Contains(t, text, "(0,0) A")
	assert.NotContains(t, text, "(0,1) B")
	assert.NotContains(t, text, "VICTORY")
}

func TestFormatGameState_Terminal(t *testing.T) {
	won := smallState()
	won.Status = engine.Won
	text := formatGameState(won)
	assert.Contains(t, text, "🎉 VICTORY!")
	assert.NotContains(t, text, "Selectable tiles")

	lost := smallState()
	lost.Status = engine.Lost
	assert.Contains(t, formatGameState(lost), "💀 GAME OVER")
}

func TestFormatTile_Filler(t *testing.T) {
	text := formatTile(2, 5, engine.Tile{ID: "empty-2-5", Filler: true, Matched: true}, false)
	assert.Contains(t, text, "Empty cell")
}

// The client driving a real server: open field theme, so every tile is
// selectable and three picks of one symbol always match.
func TestClient_EndToEnd(t *testing.T) {
	configs, err := config.NewManager(t.TempDir())
	require.NoError(t, err)

	open := engine.DefaultConfig()
	open.Name = "Open Field"
	open.Symbols = []string{"A", "B"}
	open.TileSize = 1
	open.OverlapThreshold = 0.5
	open.ClearDelayMS = 0
	open.Regions = []engine.Region{{Name: "field", MinX: 0, MaxX: 1000, MinY: 0, MaxY: 1000}}
	require.NoError(t, configs.SaveConfig("open", open))

	sessions := session.NewManager()
	ts := httptest.NewServer(api.NewServer(service.NewGameService(sessions, configs), nil))
	defer ts.Close()

	client := NewClient(ts.URL)
	ctx := context.Background()

	var info service.SessionInfo
	require.NoError(t, client.apiCall(ctx, "POST", "/api/sessions", map[string]string{"config_id": "open"}, &info))
	require.Len(t, info.GameState.Selectable(), 6)

	var cells []engine.Cell
	for _, cell := range info.GameState.Selectable() {
		tile, _ := info.GameState.TileAt(cell.Row, cell.Col)
		if tile.Symbol == "A" {
			cells = append(cells, cell)
		}
	}
	require.Len(t, cells, 3)

	var text string
	for _, cell := range cells {
		result, err := client.handleSelectTile(ctx, callRequest("select_tile", map[string]interface{}{
			"session_id": info.ID, "row": float64(cell.Row), "col": float64(cell.Col),
		}))
		require.NoError(t, err)
		require.False(t, result.IsError)
		text = resultText(t, result)
	}
	assert.Contains(t, text, "Three A!")

	require.Eventually(t, func() bool {
		var state engine.GameState
		if err := client.apiCall(ctx, "GET", "/api/sessions/"+info.ID+"/state", nil, &state); err != nil {
			return false
		}
		return state.EmptySlots() == len(state.Slots)
	}, 2*time.Second, 10*time.Millisecond)

	result, err := client.handleSelectionHistory(ctx, callRequest("selection_history", map[string]interface{}{"session_id": info.ID}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Total: 3")
}
