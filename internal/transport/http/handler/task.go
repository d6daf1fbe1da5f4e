package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nicoceron/nimble-backend/internal/app"
	"github.com/nicoceron/nimble-backend/internal/model"
	"github.com/nicoceron/nimble-backend/internal/transport/http/response"
)

type TaskHandler struct {
	taskService *app.TaskService
}

type CreateTaskRequest struct {
	UserID      uint       `json:"user_id" binding:"required,gt=0"`
	Title       string     `json:"title" binding:"required,max=100"`
	Description string     `json:"description" binding:"max=1000"`
	DueDate     *time.Time `json:"due_date"`
	Priority    string     `json:"priority"`
}

type CreateUndatedTaskRequest struct {
	UserID      uint   `json:"user_id" binding:"required,gt=0"`
	Title       string `json:"title" binding:"required,max=100"`
	Description string `json:"description" binding:"max=1000"`
	Priority    string `json:"priority"`
}

// UpdateTaskRequest is a full replacement: omitted optional fields are cleared.
type UpdateTaskRequest struct {
	Title       string     `json:"title" binding:"required,max=100"`
	Description string     `json:"description" binding:"max=1000"`
	DueDate     *time.Time `json:"due_date"`
	Priority    string     `json:"priority" binding:"required"`
	Status      string     `json:"status" binding:"required"`
}

func NewTaskHandler(taskService *app.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	h.create(c, req)
}

func (h *TaskHandler) CreateWithoutDate(c *gin.Context) {
	var req CreateUndatedTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	h.create(c, CreateTaskRequest{
		UserID:      req.UserID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
}

func (h *TaskHandler) create(c *gin.Context, req CreateTaskRequest) {
	priority := model.PriorityMedium
	if req.Priority != "" {
		parsed, err := model.ParsePriority(req.Priority)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
			return
		}
		priority = parsed
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), app.CreateTaskInput{
		UserID:      req.UserID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    priority,
	})
	if err != nil {
		writeServiceError(c, err, "create task failed")
		return
	}

	response.OK(c, task)
}

func (h *TaskHandler) GetByID(c *gin.Context) {
	taskID, ok := parseUintParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid task id")
		return
	}

	task, err := h.taskService.FindTaskByID(c.Request.Context(), taskID)
	if err != nil {
		writeServiceError(c, err, "fetch task failed")
		return
	}
	if task == nil {
		response.Error(c, http.StatusNotFound, response.CodeTaskNotFound, "task not found")
		return
	}

	response.OK(c, task)
}

func (h *TaskHandler) ListForUser(c *gin.Context) {
	userID, ok := parseUintParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid user id")
		return
	}

	var (
		tasks []model.Task
		err   error
	)
	if raw := c.Query("status"); raw != "" {
		status, parseErr := model.ParseStatus(raw)
		if parseErr != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, parseErr.Error())
			return
		}
		tasks, err = h.taskService.FindTasksByUserIDAndStatus(c.Request.Context(), userID, status)
	} else {
		tasks, err = h.taskService.FindTasksByUserID(c.Request.Context(), userID)
	}
	if err != nil {
		writeServiceError(c, err, "list tasks failed")
		return
	}

	response.OK(c, tasks)
}

func (h *TaskHandler) Update(c *gin.Context) {
	taskID, ok := parseUintParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid task id")
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	priority, err := model.ParsePriority(req.Priority)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		return
	}
	status, err := model.ParseStatus(req.Status)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), app.UpdateTaskInput{
		TaskID:      taskID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    priority,
		Status:      status,
	})
	if err != nil {
		writeServiceError(c, err, "update task failed")
		return
	}

	response.OK(c, task)
}

// Delete reports {"deleted": true} for existing and missing ids alike.
func (h *TaskHandler) Delete(c *gin.Context) {
	taskID, ok := parseUintParam(c, "id")
	if !ok {
		response.ErrorWithData(c, http.StatusBadRequest, response.CodeBadRequest, "invalid task id", gin.H{"deleted": false})
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), taskID); err != nil {
		_ = c.Error(err)
		response.ErrorWithData(c, http.StatusInternalServerError, response.CodeInternalServer, "delete task failed", gin.H{"deleted": false})
		return
	}

	response.OK(c, gin.H{"deleted": true})
}
