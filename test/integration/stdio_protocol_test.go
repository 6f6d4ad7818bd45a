package integration_test

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func serverBinary(t *testing.T) string {
	t.Helper()
	for _, path := range []string{"./bin/timeflow-server", "../../bin/timeflow-server"} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	t.Skip("Server binary not found. Run 'go build -o bin/timeflow-server ./cmd/server' first.")
	return ""
}

func stdioEnv() []string {
	return append(os.Environ(),
		"TIMEFLOW_TRANSPORT=stdio",
		"TIMEFLOW_DB_PATH=:memory:",
	)
}

// TestStdioProtocolCompliance drives the server binary with the SDK client.
func TestStdioProtocolCompliance(t *testing.T) {
	binaryPath := serverBinary(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath)
	cmd.Env = stdioEnv()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, &sdkmcp.CommandTransport{Command: cmd}, nil)
	require.NoError(t, err, "Failed to connect to server")
	defer session.Close()

	t.Run("ServerInfo", func(t *testing.T) {
		initResult := session.InitializeResult()
		require.NotNil(t, initResult)
		require.NotNil(t, initResult.ServerInfo)
		require.Equal(t, "timeflow", initResult.ServerInfo.Name)
		require.Equal(t, "0.1.0", initResult.ServerInfo.Version)
		require.NotEmpty(t, initResult.Instructions)
	})

	t.Run("ListTools", func(t *testing.T) {
		tools, err := session.ListTools(ctx, nil)
		require.NoError(t, err)
		require.Len(t, tools.Tools, 18)

		names := make(map[string]bool)
		for _, tool := range tools.Tools {
			names[tool.Name] = true
		}
		for _, name := range []string{"start_focus", "pause_focus", "focus_status", "get_dashboard", "set_daily_goal", "get_recent_activity"} {
			require.True(t, names[name], "Missing expected tool: %s", name)
		}
	})

	t.Run("Resources", func(t *testing.T) {
		resources, err := session.ListResources(ctx, nil)
		require.NoError(t, err)
		require.Len(t, resources.Resources, 3)

		res, err := session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "timeflow://docs/timer"})
		require.NoError(t, err)
		require.NotEmpty(t, res.Contents)
		require.Contains(t, res.Contents[0].Text, "SESSION_ACTIVE")
	})

	t.Run("CallStatus", func(t *testing.T) {
		result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "focus_status"})
		require.NoError(t, err)
		require.False(t, result.IsError)
		text, ok := result.Content[0].(*sdkmcp.TextContent)
		require.True(t, ok)
		require.Contains(t, text.Text, `"state":"idle"`)
	})
}

// TestStdioProtocol_StdoutHygiene checks that stdout carries only JSON-RPC.
func TestStdioProtocol_StdoutHygiene(t *testing.T) {
	binaryPath := serverBinary(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath)
	cmd.Env = append(stdioEnv(), "TIMEFLOW_LOG_LEVEL=debug")

	stdin, err := cmd.StdinPipe()
	require.NoError(t, err)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())
	defer func() {
		_ = stdin.Close()
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}()

	initReq := `{"jsonrpc":"2.0","method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}},"id":1}`
	_, err = stdin.Write([]byte(initReq + "\n"))
	require.NoError(t, err)

	lines := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(stdout)
		if scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	select {
	case line, ok := <-lines:
		require.True(t, ok, "server produced no stdout output")
		require.NotEmpty(t, line)
		require.Equal(t, byte('{'), line[0], "stdout should start with a JSON-RPC message, got %q", line[:min(50, len(line))])
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout waiting for server response")
	}
}
