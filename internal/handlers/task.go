package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plannerhq/planner-api/internal/dto"
	apierrors "github.com/plannerhq/planner-api/internal/errors"
	"github.com/plannerhq/planner-api/internal/middleware"
	"github.com/plannerhq/planner-api/internal/models"
	"github.com/plannerhq/planner-api/internal/policy"
	"github.com/plannerhq/planner-api/internal/services"
	"github.com/plannerhq/planner-api/internal/utils"
)

// TaskHandler coordinates task HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// CreateTask creates a task within a project. Lead only.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	projectID, ok := parseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid project ID")
		return
	}

	type CreateTaskRequest struct {
		Name      string            `json:"name" binding:"required"`
		Status    models.TaskStatus `json:"status"`
		StartDate *time.Time        `json:"start_date"`
		EndDate   *time.Time        `json:"end_date"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		ProjectID: projectID,
		ActorID:   userID,
		Name:      req.Name,
		Status:    req.Status,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// ListTasks returns a project's tasks, paginated. Member only.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	projectID, ok := parseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid project ID")
		return
	}

	params := utils.GetPaginationParams(c)

	tasks, total, err := h.taskService.ListTasksForProject(userID, projectID, params.Page, params.Limit)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

// ListAssignedTasks returns the tasks assigned to the actor.
func (h *TaskHandler) ListAssignedTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	tasks, err := h.taskService.ListTasksForAssignee(userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	taskDTOs := make([]dto.TaskDTO, len(tasks))
	for i, t := range tasks {
		taskDTOs[i] = dto.ToTaskDTO(t)
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": taskDTOs,
	})
}

// GetTask returns a task. Member of the task's project only.
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, ok := parseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	task, err := h.taskService.GetTask(userID, taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTask updates a task's name and schedule. Lead only.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, ok := parseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	type UpdateTaskRequest struct {
		Name      *string    `json:"name"`
		StartDate *time.Time `json:"start_date"`
		EndDate   *time.Time `json:"end_date"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.UpdateTask(userID, taskID, services.UpdateTaskInput{
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateStatus sets a task's status. Lead only.
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, ok := parseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	type UpdateStatusRequest struct {
		Status models.TaskStatus `json:"status" binding:"required"`
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.UpdateStatus(userID, taskID, req.Status)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task and its comments. Lead only.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, ok := parseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	if err := h.taskService.DeleteTask(userID, taskID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// AssignTask sets or clears the task's assignee. Lead only; the assignee
// must be a member of the task's project.
func (h *TaskHandler) AssignTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, ok := parseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	type AssignTaskRequest struct {
		UserID *uint64 `json:"user_id"` // null clears the assignee
	}

	var req AssignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.AssignTask(userID, taskID, req.UserID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, policy.ErrNotAMember):
		// 404 instead of 403 to avoid leaking resource existence
		apierrors.NotFound(c, "Resource not found")
	case errors.Is(err, policy.ErrInsufficientRole):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrTaskNameRequired),
		errors.Is(err, services.ErrInvalidTaskStatus),
		errors.Is(err, services.ErrAssigneeNotMember):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
