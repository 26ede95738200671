package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskdesk/internal/apperror"
	"taskdesk/internal/domain"
	"taskdesk/internal/service"
)

// TaskHandler mantiene dependencias para los endpoints de tareas.
type TaskHandler struct {
	logger *zap.Logger
	tasks  *service.TaskService
}

// NewTaskHandler crea una instancia de TaskHandler con sus dependencias.
func NewTaskHandler(logger *zap.Logger, tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{
		logger: logger,
		tasks:  tasks,
	}
}

// List maneja GET /tasks.
func (h *TaskHandler) List(c *gin.Context) {
	subject, ok := Subject(c)
	if !ok {
		respondError(c, h.logger, apperror.MissingToken())
		return
	}

	tasks, err := h.tasks.List(c.Request.Context(), subject)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

// Create maneja POST /tasks.
func (h *TaskHandler) Create(c *gin.Context) {
	subject, ok := Subject(c)
	if !ok {
		respondError(c, h.logger, apperror.MissingToken())
		return
	}

	var req struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
	}
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), subject, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// Get maneja GET /tasks/:id.
func (h *TaskHandler) Get(c *gin.Context) {
	subject, ok := Subject(c)
	if !ok {
		respondError(c, h.logger, apperror.MissingToken())
		return
	}
	taskID, err := parseTaskID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), subject, taskID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Update maneja PUT /tasks/:id. La edición es parcial y el owner_id es
// inmutable aunque venga en el body: nunca se deserializa.
func (h *TaskHandler) Update(c *gin.Context) {
	subject, ok := Subject(c)
	if !ok {
		respondError(c, h.logger, apperror.MissingToken())
		return
	}
	taskID, err := parseTaskID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), subject, taskID, service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Delete maneja DELETE /tasks/:id.
func (h *TaskHandler) Delete(c *gin.Context) {
	subject, ok := Subject(c)
	if !ok {
		respondError(c, h.logger, apperror.MissingToken())
		return
	}
	taskID, err := parseTaskID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), subject, taskID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleComplete maneja PATCH /tasks/:id/complete.
func (h *TaskHandler) ToggleComplete(c *gin.Context) {
	subject, ok := Subject(c)
	if !ok {
		respondError(c, h.logger, apperror.MissingToken())
		return
	}
	taskID, err := parseTaskID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	task, err := h.tasks.ToggleComplete(c.Request.Context(), subject, taskID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func parseTaskID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperror.Validation([]apperror.FieldError{
			{Field: "id", Message: "must be an integer"},
		})
	}
	return id, nil
}
