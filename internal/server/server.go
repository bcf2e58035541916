// Package server assembles the HTTP surface: routing, middleware and
// lifecycle.
package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	invhandler "github.com/altastore/stock-service/internal/inventory/handler"
	prodhandler "github.com/altastore/stock-service/internal/product/handler"
	"github.com/altastore/stock-service/pkg/logger"
)

type Server struct {
	httpServer *http.Server
	logger     logger.Logger
}

func New(addr string, inv *invhandler.InventoryHandler, prod *prodhandler.ProductHandler, log logger.Logger) *Server {
	mux := http.NewServeMux()
	inv.Register(mux)
	prod.Register(mux)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      withMiddleware(mux, log),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: log,
	}
}

func (s *Server) Run() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
