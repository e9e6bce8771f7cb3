// Package api serves a read-only HTTP view of suggestions and tallies.
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/emberforge/guildbot/src/actions/core"
	sharedconfig "github.com/emberforge/guildbot/src/config"
	"github.com/emberforge/guildbot/src/suggestions"
	"github.com/gin-gonic/gin"
)

var _ core.Module = (*Module)(nil)

const shutdownTimeout = 10 * time.Second

// Module runs the HTTP server as an action module.
type Module struct {
	config  *sharedconfig.APIConfig
	server  *http.Server
	limiter *RateLimiter
	cancel  context.CancelFunc
}

func NewModule(cfg *sharedconfig.APIConfig, engine *suggestions.Engine) *Module {
	gin.SetMode(gin.ReleaseMode)
	handler, limiter := newRouter(cfg, engine)
	return &Module{
		config: cfg,
		server: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		limiter: limiter,
	}
}

// Name implements actions.Module.
func (m *Module) Name() string { return "api" }

func (m *Module) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.server.Addr)
	if err != nil {
		return fmt.Errorf("api: listen on %s: %w", m.server.Addr, err)
	}
	runtimeCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.server.BaseContext = func(net.Listener) context.Context { return runtimeCtx }
	if m.limiter != nil {
		go m.limiter.Run(runtimeCtx)
	}

	go func() {
		log.Printf("api: listening on %s", ln.Addr())
		if err := m.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("api: server stopped: %v", err)
		}
	}()
	return nil
}

func (m *Module) Stop(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := m.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("api: shutdown: %v", err)
	}
	if m.cancel != nil {
		m.cancel()
	}
}
