package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plannerhq/planner-api/internal/constants"
	"github.com/plannerhq/planner-api/internal/database"
	"github.com/plannerhq/planner-api/internal/dto"
	"github.com/plannerhq/planner-api/internal/models"
	"github.com/plannerhq/planner-api/internal/policy"
	"github.com/plannerhq/planner-api/internal/repository"
	"github.com/plannerhq/planner-api/internal/services"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type projectTestEnv struct {
	db             *gorm.DB
	handler        *ProjectHandler
	projectService *services.ProjectService
}

func setupProjectTestEnv(t *testing.T) projectTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Task{},
		&models.Comment{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	engine := policy.NewEngine(projectRepo)
	projectService := services.NewProjectService(projectRepo, taskRepo, userRepo, engine)
	handler := NewProjectHandler(projectService)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return projectTestEnv{
		db:             db,
		handler:        handler,
		projectService: projectService,
	}
}

func testContext(method, url string, body []byte, userID uint64, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = params
	c.Set(constants.ContextKeyUserID, userID)

	return c, w
}

func createTestUser(t *testing.T, db *gorm.DB, username string, role models.GlobalRole) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		PasswordHash: "hashed",
		GlobalRole:   role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestProjectHandler_CreateProject_GrantsLeadMembership(t *testing.T) {
	env := setupProjectTestEnv(t)

	admin := createTestUser(t, env.db, "admin", models.GlobalRoleAdmin)

	payload := map[string]string{"name": "Release Plan"}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	c, w := testContext(http.MethodPost, "/api/projects", body, admin.ID, nil)

	env.handler.CreateProject(c)

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.ProjectDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "Release Plan", response.Name)

	// Exactly one membership row, and it is the creator's lead role.
	var members []models.ProjectMember
	require.NoError(t, env.db.Where("project_id = ?", response.ID).Find(&members).Error)
	require.Len(t, members, 1)
	require.Equal(t, admin.ID, members[0].UserID)
	require.Equal(t, models.RoleLead, members[0].Role)
}

func TestProjectHandler_CreateProject_RequiresAdminGlobalRole(t *testing.T) {
	env := setupProjectTestEnv(t)

	ordinary := createTestUser(t, env.db, "ordinary", models.GlobalRoleMember)

	payload := map[string]string{"name": "Forbidden"}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	c, w := testContext(http.MethodPost, "/api/projects", body, ordinary.ID, nil)

	env.handler.CreateProject(c)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestProjectHandler_GetProject_NonMemberGets404(t *testing.T) {
	env := setupProjectTestEnv(t)

	admin := createTestUser(t, env.db, "admin", models.GlobalRoleAdmin)
	outsider := createTestUser(t, env.db, "outsider", models.GlobalRoleMember)

	_, err := env.projectService.CreateProject(services.CreateProjectInput{
		Name:      "Private",
		CreatorID: admin.ID,
	})
	require.NoError(t, err)

	c, w := testContext(http.MethodGet, "/api/projects/1", nil, outsider.ID,
		gin.Params{{Key: "id", Value: "1"}})

	env.handler.GetProject(c)

	// Existence is not leaked to non-members.
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestProjectHandler_AddMember(t *testing.T) {
	env := setupProjectTestEnv(t)

	admin := createTestUser(t, env.db, "admin", models.GlobalRoleAdmin)
	invitee := createTestUser(t, env.db, "invitee", models.GlobalRoleMember)

	_, err := env.projectService.CreateProject(services.CreateProjectInput{
		Name:      "Team",
		CreatorID: admin.ID,
	})
	require.NoError(t, err)

	payload := map[string]uint64{"user_id": invitee.ID}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	c, w := testContext(http.MethodPost, "/api/projects/1/members", body, admin.ID,
		gin.Params{{Key: "id", Value: "1"}})

	env.handler.AddMember(c)

	require.Equal(t, http.StatusCreated, w.Code)

	// Defaults to the member role.
	var member models.ProjectMember
	require.NoError(t, env.db.Where("project_id = ? AND user_id = ?", 1, invitee.ID).First(&member).Error)
	require.Equal(t, models.RoleMember, member.Role)

	// Adding the same pair again conflicts.
	c, w = testContext(http.MethodPost, "/api/projects/1/members", body, admin.ID,
		gin.Params{{Key: "id", Value: "1"}})
	env.handler.AddMember(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestProjectHandler_AddMember_MemberCannotInvite(t *testing.T) {
	env := setupProjectTestEnv(t)

	admin := createTestUser(t, env.db, "admin", models.GlobalRoleAdmin)
	member := createTestUser(t, env.db, "member", models.GlobalRoleMember)
	invitee := createTestUser(t, env.db, "invitee", models.GlobalRoleMember)

	_, err := env.projectService.CreateProject(services.CreateProjectInput{
		Name:      "Team",
		CreatorID: admin.ID,
	})
	require.NoError(t, err)

	_, err = env.projectService.AddMember(services.AddMemberInput{
		ActorID:   admin.ID,
		ProjectID: 1,
		UserID:    member.ID,
	})
	require.NoError(t, err)

	_, err = env.projectService.AddMember(services.AddMemberInput{
		ActorID:   member.ID,
		ProjectID: 1,
		UserID:    invitee.ID,
	})
	require.ErrorIs(t, err, policy.ErrInsufficientRole)
}

func TestProjectHandler_DeleteProject_Cascades(t *testing.T) {
	env := setupProjectTestEnv(t)

	admin := createTestUser(t, env.db, "admin", models.GlobalRoleAdmin)

	project, err := env.projectService.CreateProject(services.CreateProjectInput{
		Name:      "Doomed",
		CreatorID: admin.ID,
	})
	require.NoError(t, err)

	task := &models.Task{ProjectID: project.ID, Name: "Task", Status: models.TaskStatusPending}
	require.NoError(t, env.db.Create(task).Error)
	comment := &models.Comment{TaskID: task.ID, AuthorID: admin.ID, Content: "note", CreatedAt: time.Now().UTC()}
	require.NoError(t, env.db.Create(comment).Error)

	c, w := testContext(http.MethodDelete, "/api/projects/1", nil, admin.ID,
		gin.Params{{Key: "id", Value: "1"}})

	env.handler.DeleteProject(c)

	require.Equal(t, http.StatusOK, w.Code)

	var p models.Project
	require.True(t, errors.Is(env.db.First(&p, project.ID).Error, gorm.ErrRecordNotFound))

	var memberCount, taskCount, commentCount int64
	require.NoError(t, env.db.Model(&models.ProjectMember{}).Where("project_id = ?", project.ID).Count(&memberCount).Error)
	require.NoError(t, env.db.Model(&models.Task{}).Where("project_id = ?", project.ID).Count(&taskCount).Error)
	require.NoError(t, env.db.Model(&models.Comment{}).Where("task_id = ?", task.ID).Count(&commentCount).Error)
	require.Zero(t, memberCount)
	require.Zero(t, taskCount)
	require.Zero(t, commentCount)
}

func TestProjectHandler_DeleteProject_MemberCannotDelete(t *testing.T) {
	env := setupProjectTestEnv(t)

	admin := createTestUser(t, env.db, "admin", models.GlobalRoleAdmin)
	member := createTestUser(t, env.db, "member", models.GlobalRoleMember)

	_, err := env.projectService.CreateProject(services.CreateProjectInput{
		Name:      "Kept",
		CreatorID: admin.ID,
	})
	require.NoError(t, err)

	_, err = env.projectService.AddMember(services.AddMemberInput{
		ActorID:   admin.ID,
		ProjectID: 1,
		UserID:    member.ID,
	})
	require.NoError(t, err)

	c, w := testContext(http.MethodDelete, "/api/projects/1", nil, member.ID,
		gin.Params{{Key: "id", Value: "1"}})

	env.handler.DeleteProject(c)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestProjectHandler_GetStats(t *testing.T) {
	env := setupProjectTestEnv(t)

	admin := createTestUser(t, env.db, "admin", models.GlobalRoleAdmin)

	start := time.Now().Add(-24 * time.Hour)
	end := time.Now().Add(24 * time.Hour)
	project, err := env.projectService.CreateProject(services.CreateProjectInput{
		Name:      "Tracked",
		CreatorID: admin.ID,
		StartDate: &start,
		EndDate:   &end,
	})
	require.NoError(t, err)

	require.NoError(t, env.db.Create(&models.Task{ProjectID: project.ID, Name: "a", Status: models.TaskStatusDone}).Error)
	require.NoError(t, env.db.Create(&models.Task{ProjectID: project.ID, Name: "b", Status: models.TaskStatusPending}).Error)

	c, w := testContext(http.MethodGet, "/api/projects/1/stats", nil, admin.ID,
		gin.Params{{Key: "id", Value: "1"}})

	env.handler.GetStats(c)

	require.Equal(t, http.StatusOK, w.Code)

	var stats services.ProjectStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	require.Equal(t, 50, stats.TaskProgress)
	require.Equal(t, 50, stats.TimeProgress)
}

func TestProjectHandler_GetStats_FollowsStatusChanges(t *testing.T) {
	env := setupProjectTestEnv(t)

	admin := createTestUser(t, env.db, "admin", models.GlobalRoleAdmin)

	project, err := env.projectService.CreateProject(services.CreateProjectInput{
		Name:      "Rolling",
		CreatorID: admin.ID,
	})
	require.NoError(t, err)

	tasks := make([]*models.Task, 3)
	for i, name := range []string{"one", "two", "three"} {
		tasks[i] = &models.Task{ProjectID: project.ID, Name: name, Status: models.TaskStatusPending}
		require.NoError(t, env.db.Create(tasks[i]).Error)
	}

	fetch := func() int {
		c, w := testContext(http.MethodGet, "/api/projects/1/stats", nil, admin.ID,
			gin.Params{{Key: "id", Value: "1"}})
		env.handler.GetStats(c)
		require.Equal(t, http.StatusOK, w.Code)
		var stats services.ProjectStats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		return stats.TaskProgress
	}

	require.Equal(t, 0, fetch())

	require.NoError(t, env.db.Model(tasks[0]).Update("status", models.TaskStatusDone).Error)
	require.Equal(t, 33, fetch())

	// in_progress does not count as done
	require.NoError(t, env.db.Model(tasks[1]).Update("status", models.TaskStatusInProgress).Error)
	require.Equal(t, 33, fetch())

	require.NoError(t, env.db.Model(tasks[1]).Update("status", models.TaskStatusDone).Error)
	require.Equal(t, 67, fetch())

	require.NoError(t, env.db.Model(tasks[2]).Update("status", models.TaskStatusDone).Error)
	require.Equal(t, 100, fetch())
}
