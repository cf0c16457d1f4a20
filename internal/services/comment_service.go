package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/plannerhq/planner-api/internal/models"
	"github.com/plannerhq/planner-api/internal/policy"
	"github.com/plannerhq/planner-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound     = errors.New("comment not found")
	ErrCommentContentEmpty = errors.New("comment content cannot be empty")
)

// CommentService handles the per-task comment log.
type CommentService struct {
	commentRepo repository.CommentRepository
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	engine      *policy.Engine
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repository.CommentRepository, taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository, engine *policy.Engine) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		engine:      engine,
	}
}

// AddComment appends a comment to a task. Any member of the task's project
// may comment. The timestamp is always recorded in UTC.
func (s *CommentService) AddComment(actorID, taskID uint64, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrCommentContentEmpty
	}

	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if err := s.engine.CanViewProject(actorID, task.ProjectID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		TaskID:    taskID,
		AuthorID:  actorID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.commentRepo.Create(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return comment, nil
}

// ListComments returns a task's comments oldest first, authors included.
// Member required.
func (s *CommentService) ListComments(actorID, taskID uint64) ([]models.Comment, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if err := s.engine.CanViewProject(actorID, task.ProjectID); err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, nil
}

// DeleteComment removes a comment. Allowed for the author and for the
// project's lead.
func (s *CommentService) DeleteComment(actorID, commentID uint64) error {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to find comment: %w", err)
	}

	task, err := s.findTask(comment.TaskID)
	if err != nil {
		return err
	}

	role, ok, err := s.projectRepo.ProjectRole(task.ProjectID, actorID)
	if err != nil {
		return fmt.Errorf("failed to resolve project role: %w", err)
	}
	if !ok {
		return policy.ErrNotAMember
	}

	if err := s.engine.CanDeleteComment(actorID, comment, role); err != nil {
		return err
	}

	if err := s.commentRepo.Delete(commentID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return nil
}

func (s *CommentService) findTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}
