// Package api exposes the bot over HTTP: a webhook for chat transports, an
// entry point for extracted receipt/voice text, a JWT-protected management
// API and a WebSocket event feed.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mygroceries/internal/ledger"
	"mygroceries/internal/normalize"
	"mygroceries/internal/orchestrator"
)

// Bot handles one message end to end.
type Bot interface {
	Handle(ctx context.Context, userID, messageID, text string) (orchestrator.Response, error)
	HandleExtracted(ctx context.Context, userID, messageID, text string) (orchestrator.Response, error)
}

// Server represents the HTTP surface of the bot.
type Server struct {
	Router *gin.Engine

	bot     Bot
	ledger  *ledger.Ledger
	table   *normalize.Table
	hub     *Hub
	metrics *Metrics
}

// NewServer creates the HTTP server and wires all routes.
func NewServer(bot Bot, l *ledger.Ledger, table *normalize.Table, hub *Hub, metrics *Metrics, jwtSecret string) *Server {
	s := &Server{
		Router:  gin.Default(),
		bot:     bot,
		ledger:  l,
		table:   table,
		hub:     hub,
		metrics: metrics,
	}
	s.setupRoutes(jwtSecret)
	return s
}

func (s *Server) setupRoutes(jwtSecret string) {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "grocery bot is running"})
	})

	// Chat transports deliver user messages here.
	s.Router.POST("/webhook", s.HandleMessage)
	s.Router.POST("/extracted", s.HandleExtracted)

	if s.hub != nil {
		s.Router.GET("/ws/events", s.hub.handleWebSocket)
	}

	v1 := s.Router.Group("/api/v1")
	v1.Use(AuthMiddleware(jwtSecret))
	{
		v1.GET("/inventory", s.GetInventory)
		v1.GET("/inventory/:item", s.GetInventoryItem)
		v1.GET("/events", s.GetEvents)
		v1.GET("/items", s.GetItems)
	}
}

type messageRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	MessageID string `json:"message_id"`
	Text      string `json:"text" binding:"required"`
}

// HandleMessage processes one chat message and returns the bot's reply.
func (s *Server) HandleMessage(c *gin.Context) {
	s.handleWith(c, "webhook", s.bot.Handle)
}

// HandleExtracted processes text extracted upstream from a receipt photo or
// voice note. The resulting additions always require confirmation.
func (s *Server) HandleExtracted(c *gin.Context) {
	s.handleWith(c, "extracted", s.bot.HandleExtracted)
}

func (s *Server) handleWith(c *gin.Context, endpoint string, handle func(context.Context, string, string, string) (orchestrator.Response, error)) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.metrics != nil {
		s.metrics.recordMessage(endpoint)
	}

	start := time.Now()
	resp, err := handle(c.Request.Context(), req.UserID, req.MessageID, req.Text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if s.metrics != nil {
		s.metrics.recordReply(resp.AwaitingConfirmation, time.Since(start).Seconds())
	}

	c.JSON(http.StatusOK, resp)
}

// GetInventory returns the in-stock entries.
func (s *Server) GetInventory(c *gin.Context) {
	snapshot, err := s.ledger.Snapshot()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"inventory": snapshot})
}

// GetInventoryItem returns one item's entry, resolving aliases and close
// spellings the same way chat messages do.
func (s *Server) GetInventoryItem(c *gin.Context) {
	item, _, err := s.table.ResolveName(c.Param("item"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown item"})
		return
	}

	entry, err := s.ledger.Query(item.Key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if entry == nil {
		c.JSON(http.StatusOK, gin.H{"item_key": item.Key, "amount": 0})
		return
	}
	c.JSON(http.StatusOK, entry)
}

// GetEvents returns the most recent ledger events, newest first.
func (s *Server) GetEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	events, err := s.ledger.Events(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// GetItems returns the canonical item vocabulary.
func (s *Server) GetItems(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": s.table.Items()})
}
