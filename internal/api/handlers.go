package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatfeed/internal/models"
	"chatfeed/internal/store"
)

// MessageFeed is the feed behaviour the HTTP layer needs.
type MessageFeed interface {
	Post(ctx context.Context, view models.MessageView) (models.MessageView, error)
	Messages(ctx context.Context, lastMessageID string) ([]models.MessageView, error)
	Ping(ctx context.Context) error
}

// Handler wires HTTP routes to the message feed.
type Handler struct {
	feed MessageFeed
	log  *zap.Logger
}

// NewHandler constructs a Handler instance.
func NewHandler(feed MessageFeed) *Handler {
	return &Handler{feed: feed, log: zap.L().Named("api")}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.healthz)
	v1 := router.Group("/api/v1")
	v1.GET("/messages", h.listMessages)
	v1.POST("/messages", h.postMessage)
}

func (h *Handler) listMessages(c *gin.Context) {
	messages, err := h.feed.Messages(c.Request.Context(), c.Query("lastMessageId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *Handler) postMessage(c *gin.Context) {
	var req models.MessageView
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	// ids are assigned by the store
	req.ID = ""
	msg, err := h.feed.Post(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) healthz(c *gin.Context) {
	if err := h.feed.Ping(c.Request.Context()); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		c.String(http.StatusServiceUnavailable, "UNAVAILABLE")
		return
	}
	c.String(http.StatusOK, "OK")
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrUnavailable):
		h.log.Error("store unavailable", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "message store unavailable"})
	default:
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
