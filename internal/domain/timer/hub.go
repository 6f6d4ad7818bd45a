package timer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ganot/timeflow/internal/metrics"
)

// Factory builds the controller for one owner.
type Factory func(ownerID string) *Controller

// Hub keeps one controller per owner and ticks them from a single loop.
type Hub struct {
	factory Factory
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu          sync.Mutex
	controllers map[string]*Controller
}

// NewHub creates a hub that builds controllers lazily with factory.
func NewHub(factory Factory, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		factory:     factory,
		logger:      logger,
		controllers: make(map[string]*Controller),
	}
}

// WithMetrics records snapshot restore outcomes on m.
func (h *Hub) WithMetrics(m *metrics.Metrics) *Hub {
	h.metrics = m
	return h
}

// Get returns the owner's controller, restoring its snapshot on first use.
func (h *Hub) Get(ctx context.Context, ownerID string) *Controller {
	h.mu.Lock()
	c, ok := h.controllers[ownerID]
	if !ok {
		c = h.factory(ownerID)
		h.controllers[ownerID] = c
	}
	h.mu.Unlock()

	if !ok {
		if err := c.Restore(ctx); err != nil {
			h.metrics.Restore("error")
			h.logger.Warn("timer restore failed", "owner_id", ownerID, "error", err)
		} else {
			h.metrics.Restore("ok")
		}
	}
	return c
}

func (h *Hub) all() []*Controller {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := make([]*Controller, 0, len(h.controllers))
	for _, c := range h.controllers {
		list = append(list, c)
	}
	return list
}

// TickAll advances every controller by one second. Completions it triggers
// are saved in the background, so one owner's slow store never holds back
// another owner's clock.
func (h *Hub) TickAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, c := range h.all() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Tick(ctx)
		}()
	}
	wg.Wait()
}

// Run ticks all controllers once per second until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.TickAll(ctx)
		}
	}
}

// Wait blocks until every controller's background work has finished.
func (h *Hub) Wait() {
	for _, c := range h.all() {
		c.Wait()
	}
}

// Shutdown unloads every controller and waits for their final writes.
func (h *Hub) Shutdown() {
	for _, c := range h.all() {
		c.Unload()
	}
	h.Wait()
}
