package functional_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/ganot/timeflow/internal/testserver"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      any             `json:"id,omitempty"`
}

type rpcError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// rpcCall posts a JSON-RPC request to /rpc and returns the HTTP status with
// the decoded envelope.
func rpcCall(t *testing.T, ts *testserver.TestServer, token, method string, params any) (int, rpcResponse) {
	t.Helper()

	payload := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"id":      1,
	}
	if params != nil {
		payload["params"] = params
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result rpcResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	}
	return resp.StatusCode, result
}

// bearer adds an Authorization header to every MCP request.
type bearer struct {
	token string
	next  http.RoundTripper
}

func (b bearer) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	return b.next.RoundTrip(req)
}

// connect opens an MCP client session against /mcp.
func connect(t *testing.T, ts *testserver.TestServer, token string) *sdkmcp.ClientSession {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	transport := &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearer{token: token, next: http.DefaultTransport}},
	}
	session, err := client.Connect(ctx, transport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

// callTool runs a tool and returns its JSON text and error flag.
func callTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) (json.RawMessage, bool) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok, "expected text content")
	return json.RawMessage(text.Text), result.IsError
}

func mustTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) json.RawMessage {
	t.Helper()
	out, isErr := callTool(t, session, name, args)
	require.False(t, isErr, "tool %s failed: %s", name, out)
	return out
}

func TestFunctional_RPCAuthentication(t *testing.T) {
	ts := testserver.New(t, "token", "owner1")

	status, _ := rpcCall(t, ts, "", "timer.status", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = rpcCall(t, ts, "wrong", "timer.status", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, resp := rpcCall(t, ts, ts.Token, "timer.status", nil)
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error)
}

func TestFunctional_MCPToolsRequireToken(t *testing.T) {
	ts := testserver.New(t, "token", "owner1")
	session := connect(t, ts, "")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "focus_status"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unauthorized")
}

func TestFunctional_CompletedSessionOverMCP(t *testing.T) {
	ts := testserver.New(t, "token", "owner1")
	session := connect(t, ts, ts.Token)

	mustTool(t, session, "set_daily_goal", map[string]any{"minutes": 1})
	started := mustTool(t, session, "start_focus", map[string]any{"minutes": 1})
	require.Contains(t, string(started), `"state":"running"`)

	ts.Advance(60)

	var dash struct {
		Today struct {
			MinutesCompleted int  `json:"minutes_completed"`
			GoalCompleted    bool `json:"goal_completed"`
		} `json:"today"`
		Tree              string `json:"tree"`
		CurrentStreak     int    `json:"current_streak"`
		CompletedSessions int    `json:"completed_sessions"`
	}
	require.NoError(t, json.Unmarshal(mustTool(t, session, "get_dashboard", nil), &dash))
	require.Equal(t, 1, dash.Today.MinutesCompleted)
	require.True(t, dash.Today.GoalCompleted)
	require.Equal(t, "full", dash.Tree)
	require.Equal(t, 1, dash.CurrentStreak)
	require.Equal(t, 1, dash.CompletedSessions)

	var sessions struct {
		Sessions []struct {
			Duration  int  `json:"duration"`
			Completed bool `json:"completed"`
		} `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(mustTool(t, session, "list_sessions", nil), &sessions))
	require.Len(t, sessions.Sessions, 1)
	require.True(t, sessions.Sessions[0].Completed)

	var entries []struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(mustTool(t, session, "get_recent_activity", map[string]any{"type": "session_completed"}), &entries))
	require.Len(t, entries, 1)
}

func TestFunctional_ErrorCodes(t *testing.T) {
	ts := testserver.New(t, "token", "owner1")
	session := connect(t, ts, ts.Token)

	out, isErr := callTool(t, session, "pause_focus", nil)
	require.True(t, isErr)
	require.Contains(t, string(out), "NOT_ACTIVE")

	out, isErr = callTool(t, session, "set_daily_goal", map[string]any{"minutes": 5000})
	require.True(t, isErr)
	require.Contains(t, string(out), "INVALID_GOAL")

	_, resp := rpcCall(t, ts, ts.Token, "timer.pause", nil)
	require.NotNil(t, resp.Error)
	require.Equal(t, -32000, resp.Error.Code)
	require.Equal(t, "NOT_ACTIVE", resp.Error.Data["code"])

	_, resp = rpcCall(t, ts, ts.Token, "timer.explode", nil)
	require.NotNil(t, resp.Error)
	require.Equal(t, -32601, resp.Error.Code)
}

func TestFunctional_RPCAndMCPShareTimer(t *testing.T) {
	ts := testserver.New(t, "token", "owner1")
	session := connect(t, ts, ts.Token)

	_, resp := rpcCall(t, ts, ts.Token, "timer.start", map[string]any{"minutes": 10})
	require.Nil(t, resp.Error)

	ts.Advance(120)
	status := mustTool(t, session, "focus_status", nil)
	require.Contains(t, string(status), `"seconds_left":480`)

	paused := mustTool(t, session, "pause_focus", nil)
	require.Contains(t, string(paused), `"state":"paused"`)

	_, resp = rpcCall(t, ts, ts.Token, "stats.dashboard", nil)
	require.Nil(t, resp.Error)
	var dash struct {
		Today struct {
			MinutesCompleted int `json:"minutes_completed"`
		} `json:"today"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &dash))
	require.Equal(t, 2, dash.Today.MinutesCompleted)
}

func TestFunctional_OwnersAreIsolated(t *testing.T) {
	ts := testserver.New(t, "token-a", "owner-a")
	require.NoError(t, ts.AddAPIKey("token-b", "owner-b"))

	_, resp := rpcCall(t, ts, "token-a", "timer.start", map[string]any{"minutes": 5})
	require.Nil(t, resp.Error)

	_, resp = rpcCall(t, ts, "token-b", "timer.status", nil)
	require.Nil(t, resp.Error)
	require.Contains(t, string(resp.Result), `"state":"idle"`)

	_, resp = rpcCall(t, ts, "token-b", "timer.start", map[string]any{"minutes": 5})
	require.Nil(t, resp.Error)
}

func TestFunctional_ResetDataClearsProgress(t *testing.T) {
	ts := testserver.New(t, "token", "owner1")
	session := connect(t, ts, ts.Token)

	mustTool(t, session, "start_focus", map[string]any{"minutes": 1})
	ts.Advance(60)

	out, isErr := callTool(t, session, "reset_data", map[string]any{"confirm": false})
	require.True(t, isErr)
	require.Contains(t, string(out), "INVALID_PARAMS")

	mustTool(t, session, "reset_data", map[string]any{"confirm": true})

	var dash struct {
		TotalMinutes int `json:"total_minutes"`
	}
	require.NoError(t, json.Unmarshal(mustTool(t, session, "get_dashboard", nil), &dash))
	require.Zero(t, dash.TotalMinutes)
}

func TestFunctional_HealthAndMetrics(t *testing.T) {
	ts := testserver.New(t, "token", "owner1")

	resp, err := http.Get(ts.Server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.Server.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
