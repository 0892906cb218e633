package transport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/pushService/internal/entity"
	"github.com/ds124wfegd/pushService/internal/service"
)

type PushHandler struct {
	service service.PushUseCase
}

func NewPushHandler(service service.PushUseCase) *PushHandler {
	return &PushHandler{service: service}
}

// Send triggers a broadcast of a plaintext message to every registered
// subscription and returns the per-target delivery report.
func (h *PushHandler) Send(c *gin.Context) {
	var req entity.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.service.Broadcast(c.Request.Context(), req.Message)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrNoSubscribers):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, entity.ErrPayloadTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, report)
}
