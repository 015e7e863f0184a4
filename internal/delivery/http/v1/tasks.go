package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-sync/internal/models"
	"github.com/adanyl0v/go-todo-sync/internal/reconcile"
	"github.com/adanyl0v/go-todo-sync/internal/services"
)

type taskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Category    string     `json:"category"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	IsPending   bool       `json:"isPending"`
}

func newTaskResponse(task models.Task) taskResponse {
	return taskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		DueDate:     task.DueDate,
		Category:    task.Category,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		IsPending:   task.IsPending,
	}
}

func newTaskResponses(tasks []models.Task) []taskResponse {
	result := make([]taskResponse, len(tasks))
	for i, task := range tasks {
		result[i] = newTaskResponse(task)
	}
	return result
}

type getTasksResponse struct {
	Tasks        []taskResponse  `json:"tasks"`
	Status       services.Status `json:"status"`
	Error        string          `json:"error,omitempty"`
	PendingCount int             `json:"pendingCount"`
	Online       bool            `json:"online"`
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	status, err := h.sync.Status()
	resp := getTasksResponse{
		Tasks:        newTaskResponses(h.sync.Tasks()),
		Status:       status,
		PendingCount: h.sync.PendingCount(),
		Online:       h.sync.Online(),
	}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

type upcomingTaskResponse struct {
	taskResponse
	DueInDays int `json:"dueInDays"`
}

type getUpcomingTasksResponse struct {
	Tasks []upcomingTaskResponse `json:"tasks"`
}

func newUpcomingTaskResponses(tasks []reconcile.UpcomingTask) []upcomingTaskResponse {
	result := make([]upcomingTaskResponse, len(tasks))
	for i, task := range tasks {
		result[i] = upcomingTaskResponse{
			taskResponse: newTaskResponse(task.Task),
			DueInDays:    task.DueInDays,
		}
	}
	return result
}

func (h *handlerImpl) HandleGetUpcomingTasks(c *gin.Context) {
	upcoming := h.sync.Upcoming(h.clock.Now())
	c.JSON(http.StatusOK, getUpcomingTasksResponse{
		Tasks: newUpcomingTaskResponses(upcoming),
	})
}

type createTaskRequest struct {
	Title       string     `json:"title" binding:"required,max=120"`
	Description *string    `json:"description,omitempty" binding:"omitempty,max=1000"`
	Status      *string    `json:"status,omitempty" binding:"omitempty,oneof=pending in-progress completed"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Category    *string    `json:"category,omitempty"`
}

func (r createTaskRequest) payload() models.TaskPayload {
	return models.TaskPayload{
		Title:       models.String(r.Title),
		Description: r.Description,
		Status:      r.Status,
		DueDate:     r.DueDate,
		Category:    r.Category,
	}
}

type updateTaskRequest struct {
	Title       *string    `json:"title,omitempty" binding:"omitempty,max=120"`
	Description *string    `json:"description,omitempty" binding:"omitempty,max=1000"`
	Status      *string    `json:"status,omitempty" binding:"omitempty,oneof=pending in-progress completed"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Category    *string    `json:"category,omitempty"`
}

func (r updateTaskRequest) payload() models.TaskPayload {
	return models.TaskPayload{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		DueDate:     r.DueDate,
		Category:    r.Category,
	}
}

type operationResponse struct {
	Success bool          `json:"success"`
	Offline bool          `json:"offline"`
	TempID  string        `json:"tempId,omitempty"`
	Task    *taskResponse `json:"task,omitempty"`
}

// writeResult answers 200 for a change the remote store confirmed, 202 for
// one that was queued, and the mapped error otherwise. created turns the
// confirmed status into 201.
func (h *handlerImpl) writeResult(c *gin.Context, result services.Result, created bool) {
	if !result.Success {
		abort(c, newOperationError(result.Error))
		return
	}

	resp := operationResponse{
		Success: true,
		Offline: result.Offline,
		TempID:  result.TempID,
	}
	if result.Task != nil {
		task := newTaskResponse(*result.Task)
		resp.Task = &task
	}

	status := http.StatusOK
	switch {
	case result.Offline:
		status = http.StatusAccepted
	case created:
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	result := h.sync.Create(c, req.payload())
	if result.Error != nil {
		h.logger.Error().
			Err(result.Error).
			Msg("failed to create task")
	}
	h.writeResult(c, result, true)
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	id := c.Param("id")
	result := h.sync.Update(c, id, req.payload())
	if result.Error != nil {
		h.logger.Error().
			Err(result.Error).
			Str("task_id", id).
			Msg("failed to update task")
	}
	h.writeResult(c, result, false)
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	id := c.Param("id")
	result := h.sync.Delete(c, id)
	if result.Error != nil {
		h.logger.Error().
			Err(result.Error).
			Str("task_id", id).
			Msg("failed to delete task")
	}
	h.writeResult(c, result, false)
}
