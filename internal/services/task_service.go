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
	ErrTaskNotFound      = errors.New("task not found")
	ErrTaskNameRequired  = errors.New("task name is required")
	ErrInvalidTaskStatus = errors.New("invalid task status")
	ErrAssigneeNotMember = errors.New("assignee is not a member of the task's project")
)

// TaskService handles task business logic. Every mutation consults the
// policy engine first; a membership revoked mid-request is caught by the
// repository transaction on the write side.
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	engine      *policy.Engine
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository, engine *policy.Engine) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		engine:      engine,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	ProjectID uint64
	ActorID   uint64
	Name      string
	Status    models.TaskStatus
	StartDate *time.Time
	EndDate   *time.Time
}

// CreateTask creates a task within a project. Lead role required.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrTaskNameRequired
	}

	if _, err := s.findProject(input.ProjectID); err != nil {
		return nil, err
	}

	if err := s.engine.CanCreateTask(input.ActorID, input.ProjectID); err != nil {
		return nil, err
	}

	if input.Status == "" {
		input.Status = models.TaskStatusPending
	}
	if !models.ValidTaskStatus(input.Status) {
		return nil, ErrInvalidTaskStatus
	}

	task := &models.Task{
		ProjectID: input.ProjectID,
		Name:      input.Name,
		Status:    input.Status,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// GetTask returns a task. Any member of the task's project may look.
func (s *TaskService) GetTask(actorID, taskID uint64) (*models.Task, error) {
	task, err := s.findTask(taskID, "Assignee")
	if err != nil {
		return nil, err
	}

	if err := s.engine.CanViewProject(actorID, task.ProjectID); err != nil {
		return nil, err
	}

	return task, nil
}

// ListTasksForProject returns a project's tasks, paginated. Member required.
func (s *TaskService) ListTasksForProject(actorID, projectID uint64, page, pageSize int) ([]models.Task, int64, error) {
	if _, err := s.findProject(projectID); err != nil {
		return nil, 0, err
	}

	if err := s.engine.CanViewProject(actorID, projectID); err != nil {
		return nil, 0, err
	}

	tasks, total, err := s.taskRepo.List(repository.TaskFilter{
		ProjectID: &projectID,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// ListTasksForAssignee returns the tasks assigned to the actor.
func (s *TaskService) ListTasksForAssignee(actorID uint64) ([]models.Task, error) {
	tasks, _, err := s.taskRepo.List(repository.TaskFilter{AssigneeID: &actorID})
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTaskInput represents input for updating a task. Nil leaves the field
// unchanged.
type UpdateTaskInput struct {
	Name      *string
	StartDate *time.Time
	EndDate   *time.Time
}

// UpdateTask updates a task's name and schedule. Lead role required.
func (s *TaskService) UpdateTask(actorID, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if err := s.engine.CanMutateTask(actorID, task); err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, ErrTaskNameRequired
		}
		task.Name = *input.Name
	}
	if input.StartDate != nil {
		task.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		task.EndDate = input.EndDate
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// UpdateStatus sets a task's status. Lead role required.
func (s *TaskService) UpdateStatus(actorID, taskID uint64, status models.TaskStatus) (*models.Task, error) {
	if !models.ValidTaskStatus(status) {
		return nil, ErrInvalidTaskStatus
	}

	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if err := s.engine.CanMutateTask(actorID, task); err != nil {
		return nil, err
	}

	task.Status = status
	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}

	return task, nil
}

// DeleteTask deletes a task and its comments. Lead role required.
func (s *TaskService) DeleteTask(actorID, taskID uint64) error {
	task, err := s.findTask(taskID)
	if err != nil {
		return err
	}

	if err := s.engine.CanMutateTask(actorID, task); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// AssignTask sets or clears a task's assignee. Lead role required; a non-nil
// assignee must be a member of the task's project.
func (s *TaskService) AssignTask(actorID, taskID uint64, assigneeID *uint64) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if err := s.engine.CanMutateTask(actorID, task); err != nil {
		return nil, err
	}

	if assigneeID != nil {
		_, ok, err := s.projectRepo.ProjectRole(task.ProjectID, *assigneeID)
		if err != nil {
			return nil, fmt.Errorf("failed to verify assignee membership: %w", err)
		}
		if !ok {
			return nil, ErrAssigneeNotMember
		}
	}

	task.AssigneeID = assigneeID
	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to assign task: %w", err)
	}

	return task, nil
}

func (s *TaskService) findTask(taskID uint64, preload ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *TaskService) findProject(projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}
