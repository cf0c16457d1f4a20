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
)

// ProjectHandler coordinates project HTTP handlers.
type ProjectHandler struct {
	projectService *services.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// CreateProject creates a new project with the actor as lead.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateProjectRequest struct {
		Name      string     `json:"name" binding:"required"`
		StartDate *time.Time `json:"start_date"`
		EndDate   *time.Time `json:"end_date"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.CreateProject(services.CreateProjectInput{
		Name:      req.Name,
		CreatorID: userID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// ListProjects returns the projects the actor is a member of.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	projects, err := h.projectService.ListProjects(userID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	projectDTOs := make([]dto.ProjectDTO, len(projects))
	for i, p := range projects {
		projectDTOs[i] = dto.ToProjectDTO(p)
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": projectDTOs,
	})
}

// GetProject returns project details with members and the actor's role.
func (h *ProjectHandler) GetProject(c *gin.Context) {
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

	project, members, role, err := h.projectService.GetProject(userID, projectID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDetailDTO(*project, members, role))
}

// UpdateProject updates a project's name and schedule.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
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

	type UpdateProjectRequest struct {
		Name      *string    `json:"name"`
		StartDate *time.Time `json:"start_date"`
		EndDate   *time.Time `json:"end_date"`
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.UpdateProject(userID, projectID, services.UpdateProjectInput{
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// DeleteProject deletes a project and everything under it.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
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

	if err := h.projectService.DeleteProject(userID, projectID); err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Project deleted successfully",
	})
}

// ListMembers returns the project's members.
func (h *ProjectHandler) ListMembers(c *gin.Context) {
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

	members, err := h.projectService.ListMembers(userID, projectID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	memberDTOs := make([]dto.ProjectMemberDTO, len(members))
	for i, m := range members {
		memberDTOs[i] = dto.ToProjectMemberDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{
		"members": memberDTOs,
	})
}

// AddMember adds a user to the project. Creator only.
func (h *ProjectHandler) AddMember(c *gin.Context) {
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

	type AddMemberRequest struct {
		UserID uint64             `json:"user_id" binding:"required"`
		Role   models.ProjectRole `json:"role"`
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.projectService.AddMember(services.AddMemberInput{
		ActorID:   userID,
		ProjectID: projectID,
		UserID:    req.UserID,
		Role:      req.Role,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, member)
}

// GetStats returns the derived progress percentages.
func (h *ProjectHandler) GetStats(c *gin.Context) {
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

	stats, err := h.projectService.Stats(userID, projectID, time.Now())
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetTimeline returns the project's timeline chart data.
func (h *ProjectHandler) GetTimeline(c *gin.Context) {
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

	entries, err := h.projectService.Timeline(userID, projectID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"timeline": entries,
	})
}

// Dashboard returns the actor's projects and assigned tasks.
func (h *ProjectHandler) Dashboard(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	projects, assigned, err := h.projectService.Dashboard(userID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	projectDTOs := make([]dto.ProjectDTO, len(projects))
	for i, p := range projects {
		projectDTOs[i] = dto.ToProjectDTO(p)
	}
	taskDTOs := make([]dto.TaskDTO, len(assigned))
	for i, t := range assigned {
		taskDTOs[i] = dto.ToTaskDTO(t)
	}

	c.JSON(http.StatusOK, gin.H{
		"projects":       projectDTOs,
		"assigned_tasks": taskDTOs,
	})
}

func respondProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrMemberNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, policy.ErrNotAMember):
		// 404 instead of 403 to avoid leaking project existence
		apierrors.NotFound(c, "Project not found")
	case errors.Is(err, policy.ErrInsufficientRole):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrInvalidProjectName),
		errors.Is(err, services.ErrInvalidDateRange),
		errors.Is(err, services.ErrInvalidProjectRole):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAlreadyMember):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
