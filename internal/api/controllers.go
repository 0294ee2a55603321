package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) getSystemStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.Svc.Status(c.Request.Context()))
}

func (s *Server) getSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, s.Svc.Snapshots())
}

func (s *Server) getHistory(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	limit := queryInt(c, "limit", 0)
	prices, ok := s.Svc.History(symbol, limit)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "prices": prices})
}

func (s *Server) getCorrelations(c *gin.Context) {
	m := s.Svc.Correlations()
	if m.Empty() {
		c.JSON(http.StatusOK, gin.H{"status": "no data", "symbols": m.Symbols})
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) getBeta(c *gin.Context) {
	target := strings.ToUpper(c.Query("target"))
	benchmark := strings.ToUpper(c.DefaultQuery("benchmark", "BTCUSDT"))
	if target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"target":    target,
		"benchmark": benchmark,
		"beta":      s.Svc.Beta(target, benchmark),
	})
}

func (s *Server) getRisk(c *gin.Context) {
	c.JSON(http.StatusOK, s.Svc.Risk())
}

func (s *Server) getOrders(c *gin.Context) {
	orders, err := s.Svc.RecentOrders(c.Request.Context(), queryInt(c, "limit", 50))
	if err != nil {
		s.log.Error().Err(err).Msg("list orders")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load orders"})
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (s *Server) getPositions(c *gin.Context) {
	c.JSON(http.StatusOK, s.Svc.Positions())
}

func (s *Server) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.Svc.Metrics())
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
