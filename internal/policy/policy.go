// Package policy is the single authority for "may actor A perform operation
// O on target T". Services consult it before every mutation; each denial is
// a distinct sentinel error so callers can tell not-a-member apart from
// wrong-role and not-found.
package policy

import (
	"errors"
	"fmt"

	"github.com/plannerhq/planner-api/internal/models"
)

var (
	// ErrNotAMember means the actor has no membership in the target project.
	ErrNotAMember = errors.New("not a member of this project")
	// ErrInsufficientRole means the actor is a member but lacks the role the
	// operation requires.
	ErrInsufficientRole = errors.New("role does not permit this action")
)

// RoleSource resolves the actor's role within a project. The second return
// is false when the actor has no membership at all.
type RoleSource interface {
	ProjectRole(projectID, userID uint64) (models.ProjectRole, bool, error)
}

// Engine answers authorization questions over project memberships.
type Engine struct {
	roles RoleSource
}

func NewEngine(roles RoleSource) *Engine {
	return &Engine{roles: roles}
}

// CanCreateProject allows only accounts with the admin global role to create
// projects.
func (e *Engine) CanCreateProject(actor *models.User) error {
	if actor.GlobalRole != models.GlobalRoleAdmin {
		return ErrInsufficientRole
	}
	return nil
}

// CanViewProject allows any member of the project. Membership existence is
// the sole gate for read access.
func (e *Engine) CanViewProject(actorID, projectID uint64) error {
	_, ok, err := e.roles.ProjectRole(projectID, actorID)
	if err != nil {
		return fmt.Errorf("failed to resolve project role: %w", err)
	}
	if !ok {
		return ErrNotAMember
	}
	return nil
}

// CanManageProject allows only the project creator to edit or delete the
// project and to add members.
func (e *Engine) CanManageProject(actorID uint64, project *models.Project) error {
	if actorID == project.CreatorID {
		return nil
	}
	_, ok, err := e.roles.ProjectRole(project.ID, actorID)
	if err != nil {
		return fmt.Errorf("failed to resolve project role: %w", err)
	}
	if !ok {
		return ErrNotAMember
	}
	return ErrInsufficientRole
}

// CanCreateTask allows only members with the lead role.
func (e *Engine) CanCreateTask(actorID, projectID uint64) error {
	return e.requireLead(actorID, projectID)
}

// CanMutateTask gates task edits, status updates, deletion and assignment on
// the lead role within the task's project.
func (e *Engine) CanMutateTask(actorID uint64, task *models.Task) error {
	return e.requireLead(actorID, task.ProjectID)
}

// CanDeleteComment allows the comment's author or a project lead.
func (e *Engine) CanDeleteComment(actorID uint64, comment *models.Comment, projectRole models.ProjectRole) error {
	if actorID == comment.AuthorID || projectRole == models.RoleLead {
		return nil
	}
	return ErrInsufficientRole
}

func (e *Engine) requireLead(actorID, projectID uint64) error {
	role, ok, err := e.roles.ProjectRole(projectID, actorID)
	if err != nil {
		return fmt.Errorf("failed to resolve project role: %w", err)
	}
	if !ok {
		return ErrNotAMember
	}
	if role != models.RoleLead {
		return ErrInsufficientRole
	}
	return nil
}
