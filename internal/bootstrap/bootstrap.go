// Package bootstrap wires repositories, services and the timer hub from a
// configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ganot/timeflow/internal/clock"
	"github.com/ganot/timeflow/internal/config"
	"github.com/ganot/timeflow/internal/domain/activity"
	"github.com/ganot/timeflow/internal/domain/profile"
	"github.com/ganot/timeflow/internal/domain/reconcile"
	"github.com/ganot/timeflow/internal/domain/stats"
	"github.com/ganot/timeflow/internal/domain/timer"
	"github.com/ganot/timeflow/internal/mcp"
	"github.com/ganot/timeflow/internal/metrics"
	"github.com/ganot/timeflow/internal/repository"
	"github.com/ganot/timeflow/internal/snapshot"
	"github.com/ganot/timeflow/internal/sqlite"
	"github.com/ganot/timeflow/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Options configures New. DB must already be migrated.
type Options struct {
	Config config.Config
	DB     *sqlite.DB
	Clock  clock.Clock
	Logger *slog.Logger
	// Store overrides the per-owner sqlite snapshot slot.
	Store func(ownerID string) snapshot.Store
	// Version is reported to MCP clients.
	Version string
}

type App struct {
	Config   config.Config
	DB       *sqlite.DB
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Reconcile *reconcile.Service
	Activity  *activity.Service
	Profiles  *profile.Service
	Stats     *stats.Service
	Hub       *timer.Hub
	Handler   *mcp.Handler
	APIKeys   *sqlite.APIKeyRepository

	version string
	logger  *slog.Logger
}

func New(opts Options) (*App, error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.System{}
	}
	loc, err := cfg.Time.Location()
	if err != nil {
		return nil, fmt.Errorf("resolve time zone: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	sessionRepo := sqlite.NewSessionRepository(opts.DB)
	progressRepo := sqlite.NewProgressRepository(opts.DB)
	streakRepo := sqlite.NewStreakRepository(opts.DB)
	profileRepo := sqlite.NewProfileRepository(opts.DB)
	activityRepo := sqlite.NewActivityRepository(opts.DB)
	snapshotRepo := sqlite.NewSnapshotRepository(opts.DB)
	goals := defaultGoals{repo: profileRepo, fallback: cfg.Goals.DefaultMinutes}

	reconcileSvc := reconcile.NewService(sessionRepo, progressRepo, streakRepo, reconcile.Config{
		Clock:    clk,
		Location: loc,
		Metrics:  m,
		Goals:    goals,
	}, logger)
	activitySvc := activity.NewService(activityRepo, clk, logger)
	profileSvc := profile.NewService(profileRepo, reconcileSvc, activitySvc, clk, logger).WithLimits(profile.Limits{
		DefaultGoal: cfg.Goals.DefaultMinutes,
		MinGoal:     cfg.Goals.MinMinutes,
		MaxGoal:     cfg.Goals.MaxMinutes,
	})
	statsSvc := stats.NewService(sessionRepo, progressRepo, reconcileSvc, stats.Config{
		Clock:    clk,
		Location: loc,
		Goals:    goals,
	}, logger)

	store := opts.Store
	if store == nil {
		store = func(ownerID string) snapshot.Store {
			return snapshot.NewRepoStore(snapshotRepo, ownerID)
		}
	}
	timerCfg := cfg.Timer
	hub := timer.NewHub(func(ownerID string) *timer.Controller {
		notify := timer.Multi{
			activitySvc.Subscriber(ownerID),
			m,
			timer.LogNotifier{Logger: logger},
		}
		return timer.NewController(timer.Config{
			OwnerID:         ownerID,
			StartPolicy:     timer.StartPolicy(timerCfg.StartPolicy),
			CommitTimeout:   timerCfg.CommitTimeout,
			DefaultDuration: timerCfg.DefaultDuration,
		}, reconcileSvc, store(ownerID), notify, clk, logger)
	}, logger).WithMetrics(m)

	handler := mcp.NewHandler(hub, statsSvc, profileSvc, activitySvc, mcp.Limits{
		MinDuration: timerCfg.MinDuration,
		MaxDuration: timerCfg.MaxDuration,
	})

	return &App{
		Config:    cfg,
		DB:        opts.DB,
		Registry:  reg,
		Metrics:   m,
		Reconcile: reconcileSvc,
		Activity:  activitySvc,
		Profiles:  profileSvc,
		Stats:     statsSvc,
		Hub:       hub,
		Handler:   handler,
		APIKeys:   sqlite.NewAPIKeyRepository(opts.DB),
		version:   opts.Version,
		logger:    logger,
	}, nil
}

// MCPServer builds an MCP server over the app's handler.
func (a *App) MCPServer() *sdkmcp.Server {
	return mcp.NewServer(mcp.Config{
		Handler:       a.Handler,
		Resolver:      a.APIKeys,
		AuthEnabled:   a.Config.Auth.Enabled,
		TransportMode: a.Config.Transport.Mode,
		DefaultOwner:  a.Config.Auth.Owner,
		Version:       a.version,
		Logger:        a.logger,
	})
}

// Router serves JSON-RPC on /rpc, MCP over streamable HTTP on /mcp, /health
// and /metrics.
func (a *App) Router(mcpServer *sdkmcp.Server) http.Handler {
	auth := transport.StaticOwner(a.Config.Auth.Owner)
	if a.Config.Auth.Enabled {
		auth = transport.AuthMiddleware(a.APIKeys)
	}
	var mcpHandler http.Handler
	if mcpServer != nil {
		mcpHandler = sdkmcp.NewStreamableHTTPHandler(
			func(*http.Request) *sdkmcp.Server { return mcpServer },
			&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
		)
	}
	return transport.NewServer(a.Handler, transport.Options{
		Auth:    auth,
		Metrics: metrics.Handler(a.Registry),
		MCP:     mcpHandler,
		Logger:  a.logger,
	})
}

// defaultGoals falls back to the configured goal for owners without a
// profile.
type defaultGoals struct {
	repo     *sqlite.ProfileRepository
	fallback int
}

func (g defaultGoals) GoalMinutes(ctx context.Context, ownerID string) (int, error) {
	goal, err := g.repo.GoalMinutes(ctx, ownerID)
	if errors.Is(err, repository.ErrNotFound) && g.fallback > 0 {
		return g.fallback, nil
	}
	return goal, err
}

// Run ticks every loaded timer until ctx is done.
func (a *App) Run(ctx context.Context) {
	a.Hub.Run(ctx)
}

// Shutdown commits running timers and flushes their snapshots.
func (a *App) Shutdown() {
	a.Hub.Shutdown()
}
