package transport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/pushService/internal/entity"
	"github.com/ds124wfegd/pushService/internal/service"
)

type SubscriptionHandler struct {
	service service.SubscriptionUseCase
}

func NewSubscriptionHandler(service service.SubscriptionUseCase) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var sub entity.Subscription
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Subscribe(c.Request.Context(), &sub); err != nil {
		if errors.Is(err, entity.ErrInvalidSubscription) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true})
}

func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	var req entity.UnsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Unsubscribe(c.Request.Context(), req.Endpoint); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *SubscriptionHandler) GetSubscriptions(c *gin.Context) {
	subscriptions, err := h.service.ListSubscriptions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get subscriptions",
			"details": err.Error(),
		})
		return
	}

	// Key material stays server-side; operators only need endpoints.
	endpoints := make([]string, 0, len(subscriptions))
	for _, sub := range subscriptions {
		endpoints = append(endpoints, sub.Endpoint)
	}

	c.JSON(http.StatusOK, gin.H{
		"endpoints": endpoints,
		"count":     len(endpoints),
	})
}
