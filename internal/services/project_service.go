package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/plannerhq/planner-api/internal/models"
	"github.com/plannerhq/planner-api/internal/policy"
	"github.com/plannerhq/planner-api/internal/progress"
	"github.com/plannerhq/planner-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound    = errors.New("project not found")
	ErrInvalidProjectName = errors.New("project name cannot be empty")
	ErrInvalidDateRange   = errors.New("end date cannot precede start date")
	ErrMemberNotFound     = errors.New("user to add does not exist")
	ErrAlreadyMember      = errors.New("user is already a member of this project")
	ErrInvalidProjectRole = errors.New("invalid project role")
)

// ProjectService provides business logic for project operations.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
	userRepo    repository.UserRepository
	engine      *policy.Engine
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository, taskRepo repository.TaskRepository, userRepo repository.UserRepository, engine *policy.Engine) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		userRepo:    userRepo,
		engine:      engine,
	}
}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	Name      string
	CreatorID uint64
	StartDate *time.Time
	EndDate   *time.Time
}

// CreateProject creates a project and makes the creator its lead. The
// project row and the lead membership are written in one transaction.
func (s *ProjectService) CreateProject(input CreateProjectInput) (*models.Project, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrInvalidProjectName
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return nil, ErrInvalidDateRange
	}

	creator, err := s.userRepo.FindByID(input.CreatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find creator: %w", err)
	}

	if err := s.engine.CanCreateProject(creator); err != nil {
		return nil, err
	}

	project := &models.Project{
		Name:      input.Name,
		CreatorID: creator.ID,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}

	lead := &models.ProjectMember{
		UserID:   creator.ID,
		JoinedAt: time.Now(),
	}

	if err := s.projectRepo.CreateWithLead(project, lead); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

// ListProjects returns the projects the user is a member of.
func (s *ProjectService) ListProjects(userID uint64) ([]models.Project, error) {
	projects, err := s.projectRepo.ListForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject returns a project with its members and the actor's role.
func (s *ProjectService) GetProject(actorID, projectID uint64) (*models.Project, []models.ProjectMember, models.ProjectRole, error) {
	project, err := s.findProject(projectID)
	if err != nil {
		return nil, nil, "", err
	}

	if err := s.engine.CanViewProject(actorID, projectID); err != nil {
		return nil, nil, "", err
	}

	members, err := s.projectRepo.ListMembers(projectID)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to list project members: %w", err)
	}

	role, _, err := s.projectRepo.ProjectRole(projectID, actorID)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to resolve project role: %w", err)
	}

	return project, members, role, nil
}

// UpdateProjectInput holds the updatable project fields. Nil means leave the
// field unchanged.
type UpdateProjectInput struct {
	Name      *string
	StartDate *time.Time
	EndDate   *time.Time
}

// UpdateProject updates a project's name and schedule. Creator only.
func (s *ProjectService) UpdateProject(actorID, projectID uint64, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.findProject(projectID)
	if err != nil {
		return nil, err
	}

	if err := s.engine.CanManageProject(actorID, project); err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, ErrInvalidProjectName
		}
		project.Name = *input.Name
	}
	if input.StartDate != nil {
		project.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		project.EndDate = input.EndDate
	}
	if project.StartDate != nil && project.EndDate != nil && project.EndDate.Before(*project.StartDate) {
		return nil, ErrInvalidDateRange
	}

	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return project, nil
}

// DeleteProject removes a project and cascades to memberships, tasks, and
// comments. Creator only.
func (s *ProjectService) DeleteProject(actorID, projectID uint64) error {
	project, err := s.findProject(projectID)
	if err != nil {
		return err
	}

	if err := s.engine.CanManageProject(actorID, project); err != nil {
		return err
	}

	if err := s.projectRepo.Delete(projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}

// AddMemberInput represents parameters to add a project member.
type AddMemberInput struct {
	ActorID   uint64
	ProjectID uint64
	UserID    uint64
	Role      models.ProjectRole
}

// AddMember adds a user to a project. Creator only. Defaults the role to
// member and fails with ErrAlreadyMember when the pair exists.
func (s *ProjectService) AddMember(input AddMemberInput) (*models.ProjectMember, error) {
	project, err := s.findProject(input.ProjectID)
	if err != nil {
		return nil, err
	}

	if err := s.engine.CanManageProject(input.ActorID, project); err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = models.RoleMember
	}
	if role != models.RoleLead && role != models.RoleMember {
		return nil, ErrInvalidProjectRole
	}

	if _, err := s.userRepo.FindByID(input.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if _, err := s.projectRepo.FindMember(input.ProjectID, input.UserID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	member := &models.ProjectMember{
		ProjectID: input.ProjectID,
		UserID:    input.UserID,
		Role:      role,
		JoinedAt:  time.Now(),
	}

	if err := s.projectRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return member, nil
}

// ListMembers returns the project's members. Any member may look.
func (s *ProjectService) ListMembers(actorID, projectID uint64) ([]models.ProjectMember, error) {
	if _, err := s.findProject(projectID); err != nil {
		return nil, err
	}

	if err := s.engine.CanViewProject(actorID, projectID); err != nil {
		return nil, err
	}

	members, err := s.projectRepo.ListMembers(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}

	return members, nil
}

// ProjectStats holds the derived progress percentages for a project.
type ProjectStats struct {
	TaskProgress int `json:"task_progress"`
	TimeProgress int `json:"time_progress"`
}

// Stats derives the completion and elapsed-time percentages for a project.
func (s *ProjectService) Stats(actorID, projectID uint64, now time.Time) (*ProjectStats, error) {
	project, err := s.findProject(projectID)
	if err != nil {
		return nil, err
	}

	if err := s.engine.CanViewProject(actorID, projectID); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return &ProjectStats{
		TaskProgress: progress.TaskProgress(tasks),
		TimeProgress: progress.TimeProgress(project.StartDate, project.EndDate, now),
	}, nil
}

// TimelineEntry is one bar of the project timeline chart.
type TimelineEntry struct {
	Label     string     `json:"label"`
	Kind      string     `json:"kind"` // "project" or "task"
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// Timeline returns the project window followed by every dated task, for
// Gantt-style rendering.
func (s *ProjectService) Timeline(actorID, projectID uint64) ([]TimelineEntry, error) {
	project, err := s.findProject(projectID)
	if err != nil {
		return nil, err
	}

	if err := s.engine.CanViewProject(actorID, projectID); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	entries := []TimelineEntry{{
		Label:     project.Name,
		Kind:      "project",
		StartDate: project.StartDate,
		EndDate:   project.EndDate,
	}}

	for _, task := range tasks {
		if task.StartDate == nil || task.EndDate == nil {
			continue
		}
		entries = append(entries, TimelineEntry{
			Label:     task.Name,
			Kind:      "task",
			StartDate: task.StartDate,
			EndDate:   task.EndDate,
		})
	}

	return entries, nil
}

// Dashboard returns the user's projects together with the tasks assigned to them.
func (s *ProjectService) Dashboard(userID uint64) ([]models.Project, []models.Task, error) {
	projects, err := s.projectRepo.ListForUser(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list projects: %w", err)
	}

	assigned, _, err := s.taskRepo.List(repository.TaskFilter{AssigneeID: &userID})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list assigned tasks: %w", err)
	}

	return projects, assigned, nil
}

func (s *ProjectService) findProject(projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}
