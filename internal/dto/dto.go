package dto

import (
	"time"

	"github.com/plannerhq/planner-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID         uint64            `json:"id"`
	Username   string            `json:"username"`
	GlobalRole models.GlobalRole `json:"global_role"`
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID        uint64     `json:"id"`
	Name      string     `json:"name"`
	CreatorID uint64     `json:"creator_id"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ProjectMemberDTO represents a member in a project
type ProjectMemberDTO struct {
	User     UserDTO            `json:"user"`
	Role     models.ProjectRole `json:"role"`
	JoinedAt time.Time          `json:"joined_at"`
}

// ProjectDetailDTO represents detailed project information
type ProjectDetailDTO struct {
	ProjectDTO
	Members  []ProjectMemberDTO `json:"members"`
	YourRole models.ProjectRole `json:"your_role"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID         uint64            `json:"id"`
	ProjectID  uint64            `json:"project_id"`
	Name       string            `json:"name"`
	Status     models.TaskStatus `json:"status"`
	StartDate  *time.Time        `json:"start_date"`
	EndDate    *time.Time        `json:"end_date"`
	AssigneeID *uint64           `json:"assignee_id"`
	Assignee   *UserDTO          `json:"assignee,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:         user.ID,
		Username:   user.Username,
		GlobalRole: user.GlobalRole,
	}
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	return ProjectDTO{
		ID:        project.ID,
		Name:      project.Name,
		CreatorID: project.CreatorID,
		StartDate: project.StartDate,
		EndDate:   project.EndDate,
		CreatedAt: project.CreatedAt,
		UpdatedAt: project.UpdatedAt,
	}
}

// ToProjectMemberDTO converts a member to DTO
func ToProjectMemberDTO(member models.ProjectMember) ProjectMemberDTO {
	return ProjectMemberDTO{
		User:     ToUserDTO(member.User),
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
}

// ToProjectDetailDTO converts a project with members to detailed DTO
func ToProjectDetailDTO(project models.Project, members []models.ProjectMember, yourRole models.ProjectRole) ProjectDetailDTO {
	memberDTOs := make([]ProjectMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = ToProjectMemberDTO(member)
	}

	return ProjectDetailDTO{
		ProjectDTO: ToProjectDTO(project),
		Members:    memberDTOs,
		YourRole:   yourRole,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:         task.ID,
		ProjectID:  task.ProjectID,
		Name:       task.Name,
		Status:     task.Status,
		StartDate:  task.StartDate,
		EndDate:    task.EndDate,
		AssigneeID: task.AssigneeID,
		CreatedAt:  task.CreatedAt,
		UpdatedAt:  task.UpdatedAt,
	}

	// Include assignee if preloaded
	if task.Assignee != nil && task.Assignee.ID != 0 {
		assignee := ToUserDTO(*task.Assignee)
		dto.Assignee = &assignee
	}

	return dto
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, page, pageSize int, totalCount int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Tasks:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
	}
}
