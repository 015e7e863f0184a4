package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-sync/internal/models"
	"github.com/adanyl0v/go-todo-sync/internal/services"
)

type refreshResponse struct {
	Success bool            `json:"success"`
	Offline bool            `json:"offline"`
	Status  services.Status `json:"status"`
}

func (h *handlerImpl) HandleRefresh(c *gin.Context) {
	result := h.sync.Refresh(c)
	if !result.Success {
		h.logger.Error().
			Err(result.Error).
			Msg("failed to refresh tasks")
		abort(c, newOperationError(result.Error))
		return
	}

	status, _ := h.sync.Status()
	c.JSON(http.StatusOK, refreshResponse{
		Success: true,
		Offline: result.Offline,
		Status:  status,
	})
}

func (h *handlerImpl) HandleSync(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.ReplayQueue(c))
}

type setConnectivityRequest struct {
	Online *bool `json:"online" binding:"required"`
}

type connectivityResponse struct {
	Online       bool `json:"online"`
	PendingCount int  `json:"pendingCount"`
}

func (h *handlerImpl) HandleSetConnectivity(c *gin.Context) {
	var req setConnectivityRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	h.sync.SetOnline(c, *req.Online)
	c.JSON(http.StatusOK, connectivityResponse{
		Online:       h.sync.Online(),
		PendingCount: h.sync.PendingCount(),
	})
}

type getQueueResponse struct {
	Pending []models.QueueEntry `json:"pending"`
	Failed  []models.QueueEntry `json:"failed"`
}

func (h *handlerImpl) HandleGetQueue(c *gin.Context) {
	pending := h.sync.Queue()
	if pending == nil {
		pending = []models.QueueEntry{}
	}
	failed := h.sync.Failed()
	if failed == nil {
		failed = []models.QueueEntry{}
	}
	c.JSON(http.StatusOK, getQueueResponse{
		Pending: pending,
		Failed:  failed,
	})
}
