package dto

import (
	"time"

	"github.com/plannerhq/planner-api/internal/models"
)

// CommentDTO represents a comment in API responses. CreatedAt is rendered in
// the configured display timezone; storage stays UTC.
type CommentDTO struct {
	ID        uint64 `json:"id"`
	TaskID    uint64 `json:"task_id"`
	AuthorID  uint64 `json:"author_id"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

const commentTimeLayout = "2006-01-02 15:04:05"

// ToCommentDTO converts a comment, shifting the timestamp into loc for display.
func ToCommentDTO(comment models.Comment, loc *time.Location) CommentDTO {
	return CommentDTO{
		ID:        comment.ID,
		TaskID:    comment.TaskID,
		AuthorID:  comment.AuthorID,
		Username:  comment.Author.Username,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt.In(loc).Format(commentTimeLayout),
	}
}

// ToCommentDTOs converts a slice of comments, preserving order.
func ToCommentDTOs(comments []models.Comment, loc *time.Location) []CommentDTO {
	dtos := make([]CommentDTO, len(comments))
	for i, c := range comments {
		dtos[i] = ToCommentDTO(c, loc)
	}
	return dtos
}
