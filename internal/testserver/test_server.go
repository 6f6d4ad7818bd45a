package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ganot/timeflow/internal/bootstrap"
	"github.com/ganot/timeflow/internal/clock"
	"github.com/ganot/timeflow/internal/config"
	"github.com/ganot/timeflow/internal/sqlite"
	"github.com/stretchr/testify/require"
)

// Start is the fake clock's initial reading.
var Start = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

type TestServer struct {
	Server  *httptest.Server
	App     *bootstrap.App
	Clock   *clock.Fake
	Token   string
	OwnerID string
}

// New serves the full HTTP surface with bearer auth enabled and token
// registered for ownerID.
func New(t *testing.T, token, ownerID string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	cfg := config.Default()
	cfg.Auth.Enabled = true
	cfg.Time.Zone = "UTC"

	clk := clock.NewFake(Start)
	app, err := bootstrap.New(bootstrap.Options{Config: cfg, DB: db, Clock: clk})
	require.NoError(t, err)

	server := httptest.NewServer(app.Router(app.MCPServer()))

	ts := &TestServer{
		Server:  server,
		App:     app,
		Clock:   clk,
		Token:   token,
		OwnerID: ownerID,
	}
	require.NoError(t, ts.AddAPIKey(token, ownerID))

	t.Cleanup(func() {
		server.Close()
		app.Shutdown()
		_ = db.Close()
	})

	return ts
}

func (ts *TestServer) AddAPIKey(token, ownerID string) error {
	return ts.App.APIKeys.Create(context.Background(), ownerID, token, "test")
}

// Advance moves the clock by n seconds, ticking every timer once per second
// and waiting for any completion a tick starts.
func (ts *TestServer) Advance(n int) {
	ctx := context.Background()
	for range n {
		ts.Clock.Advance(time.Second)
		ts.App.Hub.TickAll(ctx)
		ts.App.Hub.Wait()
	}
}
