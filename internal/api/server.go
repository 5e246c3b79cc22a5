// Package api exposes the simulation core over HTTP and WebSocket.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/broker"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/instruments"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/stream"
)

// Market is the read side of the price/book generator.
type Market interface {
	Registry() *instruments.Registry
	Symbols() []string
	Ticker(symbol string) (models.Ticker, bool)
	Tickers() []models.Ticker
	Candles(symbol string, limit int) ([]models.Candle, bool)
	OrderBook(symbol string) (models.OrderBook, bool)
	Trades(symbol string, limit int) ([]models.Trade, bool)
	Indicators(symbol string) (models.TechnicalIndicators, bool)
	Derivative(symbol string) (models.DerivativeInfo, bool)
	Stats24h(symbol string) (models.Stats24h, bool)
	Movers(n int) []models.Ticker
	IsConnected() bool
}

// Workflows is the automation engine surface served over HTTP.
type Workflows interface {
	Create(wf models.AutomationWorkflow) (*models.AutomationWorkflow, error)
	Update(wf models.AutomationWorkflow) (*models.AutomationWorkflow, error)
	SetActive(id string, active bool) error
	Delete(id string) error
	Get(id string) (*models.AutomationWorkflow, bool)
	All() []*models.AutomationWorkflow
	Executions(workflowID string) []models.WorkflowExecution
	Execute(ctx context.Context, workflowID, triggerID string) (*models.WorkflowExecution, error)
	Metrics() models.WorkflowMetrics
	IsRunning() bool
}

// Config wires the server to the core components.
type Config struct {
	Market    Market
	Broker    broker.Broker
	Workflows Workflows
	Hub       *stream.Hub
	Logger    zerolog.Logger
}

// Server is the HTTP adapter.
type Server struct {
	market    Market
	broker    broker.Broker
	workflows Workflows
	hub       *stream.Hub
	logger    zerolog.Logger
	engine    *gin.Engine
}

// NewServer builds the router.
func NewServer(cfg Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		market:    cfg.Market,
		broker:    cfg.Broker,
		workflows: cfg.Workflows,
		hub:       cfg.Hub,
		logger:    cfg.Logger.With().Str("component", "api").Logger(),
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.health)
	r.GET("/ws", s.stream)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/instruments", s.listInstruments)
		v1.GET("/instruments/:symbol", s.getInstrument)
		v1.GET("/tickers", s.listTickers)
		v1.GET("/tickers/:symbol", s.getTicker)
		v1.GET("/movers", s.movers)
		v1.GET("/candles/:symbol", s.getCandles)
		v1.GET("/orderbook/:symbol", s.getOrderBook)
		v1.GET("/trades/:symbol", s.getTrades)
		v1.GET("/stats/:symbol", s.getStats)
		v1.GET("/indicators/:symbol", s.getIndicators)
		v1.GET("/derivatives/:symbol", s.getDerivative)
		v1.GET("/hub", s.hubMetrics)

		v1.POST("/orders", s.placeOrder)
		v1.GET("/orders", s.listOrders)
		v1.GET("/orders/:id", s.getOrder)
		v1.DELETE("/orders/:id", s.cancelOrder)
		v1.GET("/accounts/:id", s.getAccount)
		v1.GET("/accounts/:id/positions", s.getPositions)

		v1.GET("/workflows", s.listWorkflows)
		v1.POST("/workflows", s.createWorkflow)
		v1.GET("/workflows/:id", s.getWorkflow)
		v1.PUT("/workflows/:id", s.updateWorkflow)
		v1.DELETE("/workflows/:id", s.deleteWorkflow)
		v1.POST("/workflows/:id/activate", s.activateWorkflow)
		v1.POST("/workflows/:id/deactivate", s.deactivateWorkflow)
		v1.POST("/workflows/:id/execute", s.executeWorkflow)
		v1.GET("/workflows/:id/executions", s.listExecutions)
		v1.GET("/automation/metrics", s.automationMetrics)
	}

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request served")
	}
}

func (s *Server) health(c *gin.Context) {
	running := false
	if s.workflows != nil {
		running = s.workflows.IsRunning()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"connected":  s.market.IsConnected(),
		"automation": running,
		"symbols":    len(s.market.Symbols()),
	})
}
