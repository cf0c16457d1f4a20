package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plannerhq/planner-api/internal/dto"
	apierrors "github.com/plannerhq/planner-api/internal/errors"
	"github.com/plannerhq/planner-api/internal/middleware"
	"github.com/plannerhq/planner-api/internal/policy"
	"github.com/plannerhq/planner-api/internal/services"
)

// CommentHandler coordinates comment HTTP handlers. Timestamps are rendered
// in displayLoc; storage stays UTC.
type CommentHandler struct {
	commentService *services.CommentService
	displayLoc     *time.Location
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(commentService *services.CommentService, displayLoc *time.Location) *CommentHandler {
	if displayLoc == nil {
		displayLoc = time.UTC
	}
	return &CommentHandler{
		commentService: commentService,
		displayLoc:     displayLoc,
	}
}

// AddComment appends a comment to a task.
func (h *CommentHandler) AddComment(c *gin.Context) {
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

	type AddCommentRequest struct {
		Content string `json:"content" binding:"required"`
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.commentService.AddComment(userID, taskID, req.Content)
	if err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment, h.displayLoc))
}

// ListComments returns a task's comments oldest first.
func (h *CommentHandler) ListComments(c *gin.Context) {
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

	comments, err := h.commentService.ListComments(userID, taskID)
	if err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": dto.ToCommentDTOs(comments, h.displayLoc),
	})
}

// DeleteComment removes a comment. Author or project lead only.
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	commentID, ok := parseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid comment ID")
		return
	}

	if err := h.commentService.DeleteComment(userID, commentID); err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment deleted successfully",
	})
}

func respondCommentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, policy.ErrNotAMember):
		// 404 instead of 403 to avoid leaking resource existence
		apierrors.NotFound(c, "Resource not found")
	case errors.Is(err, policy.ErrInsufficientRole):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrCommentContentEmpty):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
