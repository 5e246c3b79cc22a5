package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/broker"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

func (s *Server) placeOrder(c *gin.Context) {
	var req models.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := s.broker.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, order)
}

func (s *Server) listOrders(c *gin.Context) {
	account := c.DefaultQuery("account", broker.DefaultAccountID)
	orders := s.broker.Orders(account)
	if status := c.Query("status"); status != "" {
		filtered := orders[:0]
		for _, o := range orders {
			if string(o.Status) == status {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}
	c.JSON(http.StatusOK, orders)
}

func (s *Server) getOrder(c *gin.Context) {
	id := c.Param("id")
	order, ok := s.broker.Order(id)
	if !ok {
		notFound(c, "order", id)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) cancelOrder(c *gin.Context) {
	id := c.Param("id")
	if err := s.broker.CancelOrder(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	order, _ := s.broker.Order(id)
	c.JSON(http.StatusOK, order)
}

func (s *Server) getAccount(c *gin.Context) {
	id := c.Param("id")
	acct, ok := s.broker.Account(id)
	if !ok {
		notFound(c, "account", id)
		return
	}
	c.JSON(http.StatusOK, acct)
}

func (s *Server) getPositions(c *gin.Context) {
	c.JSON(http.StatusOK, s.broker.Positions(c.Param("id")))
}
