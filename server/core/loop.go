package core

import (
	"sync"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"
)

// GameLoop drives the server at a fixed production rate.
type GameLoop struct {
	server   *Server
	interval time.Duration
	clock    clock.WithTicker
	logger   logr.Logger
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewGameLoop(server *Server, interval time.Duration, clk clock.WithTicker, logger logr.Logger) *GameLoop {
	return &GameLoop{
		server:   server,
		interval: interval,
		clock:    clk,
		logger:   logger.WithName("loop"),
		stopChan: make(chan struct{}),
	}
}

func (g *GameLoop) Run() {
	ticker := g.clock.NewTicker(g.interval)
	defer ticker.Stop()

	g.logger.Info("Game loop started", "interval", g.interval)

	for {
		select {
		case <-g.stopChan:
			g.server.authority.Close()
			g.logger.Info("Game loop stopped")
			return
		case <-ticker.C():
			g.server.tick()
		}
	}
}

func (g *GameLoop) Stop() {
	g.stopOnce.Do(func() {
		close(g.stopChan)
	})
}
