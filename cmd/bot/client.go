package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wricardo/mcp-training/tilematch/game/engine"
	"github.com/wricardo/mcp-training/tilematch/game/service"
)

// Client talks to a game server's REST API on behalf of one session
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionID returns the session the client plays in
func (c *Client) SessionID() string {
	return c.sessionID
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, bytes.TrimSpace(data))
	}
	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("parse %s response: %w", path, err)
		}
	}
	return nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

// CreateSession starts a new session, using the server default theme when
// configID is empty
func (c *Client) CreateSession(ctx context.Context, configID string) (*engine.GameState, error) {
	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return nil, err
	}

	c.sessionID = session.ID
	return session.GameState, nil
}

// Resume attaches the client to an existing session
func (c *Client) Resume(ctx context.Context, sessionID string) (*engine.GameState, error) {
	c.sessionID = sessionID
	return c.GetState(ctx)
}

func (c *Client) GetState(ctx context.Context) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/state"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) Select(ctx context.Context, row, col int) (*service.SelectResult, error) {
	var result service.SelectResult
	body := map[string]int{"row": row, "col": col}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/select"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Restart(ctx context.Context) (*engine.GameState, error) {
	var resp struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/restart"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}
