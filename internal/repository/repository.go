package repository

import (
	"github.com/plannerhq/planner-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Register creates a new user. The first user ever registered is given
	// the admin global role; the count check and the insert run in one
	// transaction.
	Register(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)
}

// ProjectRepository defines the interface for project and membership data access
type ProjectRepository interface {
	// CreateWithLead creates a project and the creator's lead membership in a
	// single transaction. A project without a lead is never observable.
	CreateWithLead(project *models.Project, lead *models.ProjectMember) error

	// FindByID finds a project by ID
	FindByID(id uint64) (*models.Project, error)

	// ListForUser lists projects the user is a member of
	ListForUser(userID uint64) ([]models.Project, error)

	// Update updates a project
	Update(project *models.Project) error

	// Delete deletes a project, its memberships, its tasks, and the tasks'
	// comments in a single transaction.
	Delete(id uint64) error

	// AddMember adds a member to a project
	AddMember(member *models.ProjectMember) error

	// FindMember finds a specific project member
	FindMember(projectID, userID uint64) (*models.ProjectMember, error)

	// ListMembers lists all members of a project with users preloaded
	ListMembers(projectID uint64) ([]models.ProjectMember, error)

	// ProjectRole resolves the user's role in a project; ok is false when the
	// user has no membership. Satisfies policy.RoleSource.
	ProjectRole(projectID, userID uint64) (models.ProjectRole, bool, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ProjectID  *uint64
	AssigneeID *uint64
	Status     *models.TaskStatus
	Page       int
	PageSize   int
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// ListByProject returns every task of a project, unpaginated. Used for
	// progress derivation and timeline data.
	ListByProject(projectID uint64) ([]models.Task, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete deletes a task and its comments in a single transaction
	Delete(id uint64) error
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create appends a comment
	Create(comment *models.Comment) error

	// FindByID finds a comment by ID
	FindByID(id uint64) (*models.Comment, error)

	// ListByTask lists a task's comments oldest first with authors preloaded
	ListByTask(taskID uint64) ([]models.Comment, error)

	// Delete deletes a comment
	Delete(id uint64) error
}
