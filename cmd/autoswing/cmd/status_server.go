package cmd

import (
	"context"
	"time"

	"github.com/shaurya-ahuja/autoswing-trading-suite/logger"
	"github.com/shaurya-ahuja/autoswing-trading-suite/market"
	"github.com/shaurya-ahuja/autoswing-trading-suite/strategy"
	"github.com/shaurya-ahuja/autoswing-trading-suite/web"
)

type statusServer struct {
	server *web.Server
	log    *logger.Logger
}

func newStatusServer(addr string, registry *strategy.Registry, ticks market.TickSource, log *logger.Logger) *statusServer {
	s := &statusServer{server: web.NewServer(addr, registry, ticks, log), log: log}
	go func() {
		if err := s.server.Start(); err != nil {
			log.WithError(err).Error("status server failed")
		}
	}()
	return s
}

func (s *statusServer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.log.WithError(err).Warn("status server shutdown")
	}
}
