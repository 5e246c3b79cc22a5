package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

const (
	defaultCandleLimit = 100
	defaultTradeLimit  = 50
	defaultMovers      = 5
)

// queryInt reads a non-negative integer query parameter.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + ": " + raw})
		return 0, false
	}
	return n, true
}

func (s *Server) listInstruments(c *gin.Context) {
	reg := s.market.Registry()
	out := make([]models.InstrumentConfig, 0, reg.Len())
	for _, sym := range reg.Symbols() {
		inst, _ := reg.Get(sym)
		out = append(out, inst)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getInstrument(c *gin.Context) {
	sym := c.Param("symbol")
	inst, ok := s.market.Registry().Get(sym)
	if !ok {
		notFound(c, "symbol", sym)
		return
	}
	c.JSON(http.StatusOK, inst)
}

func (s *Server) listTickers(c *gin.Context) {
	c.JSON(http.StatusOK, s.market.Tickers())
}

func (s *Server) getTicker(c *gin.Context) {
	sym := c.Param("symbol")
	t, ok := s.market.Ticker(sym)
	if !ok {
		notFound(c, "symbol", sym)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) movers(c *gin.Context) {
	n, ok := queryInt(c, "n", defaultMovers)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.market.Movers(n))
}

func (s *Server) getCandles(c *gin.Context) {
	limit, ok := queryInt(c, "limit", defaultCandleLimit)
	if !ok {
		return
	}
	sym := c.Param("symbol")
	candles, found := s.market.Candles(sym, limit)
	if !found {
		notFound(c, "symbol", sym)
		return
	}
	c.JSON(http.StatusOK, candles)
}

func (s *Server) getOrderBook(c *gin.Context) {
	sym := c.Param("symbol")
	ob, ok := s.market.OrderBook(sym)
	if !ok {
		notFound(c, "symbol", sym)
		return
	}
	c.JSON(http.StatusOK, ob)
}

func (s *Server) getTrades(c *gin.Context) {
	limit, ok := queryInt(c, "limit", defaultTradeLimit)
	if !ok {
		return
	}
	sym := c.Param("symbol")
	trades, found := s.market.Trades(sym, limit)
	if !found {
		notFound(c, "symbol", sym)
		return
	}
	c.JSON(http.StatusOK, trades)
}

func (s *Server) getStats(c *gin.Context) {
	sym := c.Param("symbol")
	st, ok := s.market.Stats24h(sym)
	if !ok {
		notFound(c, "symbol", sym)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) getIndicators(c *gin.Context) {
	sym := c.Param("symbol")
	ind, ok := s.market.Indicators(sym)
	if !ok {
		notFound(c, "symbol", sym)
		return
	}
	c.JSON(http.StatusOK, ind)
}

func (s *Server) getDerivative(c *gin.Context) {
	sym := c.Param("symbol")
	info, ok := s.market.Derivative(sym)
	if !ok {
		notFound(c, "derivative", sym)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) hubMetrics(c *gin.Context) {
	m := s.hub.Metrics()
	c.JSON(http.StatusOK, gin.H{
		"published":   m.Published,
		"delivered":   m.Delivered,
		"panics":      m.Panics,
		"subscribers": m.Subscribers,
		"channels":    s.hub.Channels(),
	})
}
