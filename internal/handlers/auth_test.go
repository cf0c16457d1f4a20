package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/plannerhq/planner-api/internal/constants"
	"github.com/plannerhq/planner-api/internal/database"
	"github.com/plannerhq/planner-api/internal/dto"
	"github.com/plannerhq/planner-api/internal/models"
	"github.com/plannerhq/planner-api/internal/repository"
	"github.com/plannerhq/planner-api/internal/services"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type authTestEnv struct {
	db          *gorm.DB
	handler     *AuthHandler
	authService *services.AuthService
}

func setupAuthTestEnv(t *testing.T) authTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	userRepo := repository.NewUserRepository(db)
	authService := services.NewAuthService(userRepo)
	handler := NewAuthHandler(authService)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return authTestEnv{
		db:          db,
		handler:     handler,
		authService: authService,
	}
}

func TestAuthHandler_Register(t *testing.T) {
	env := setupAuthTestEnv(t)

	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.POST("/api/auth/register", env.handler.Register)

	payload := map[string]string{
		"username": "newuser",
		"password": "supersecret",
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, payload["username"], response.Username)
}

func TestAuthHandler_Register_FirstUserBecomesAdmin(t *testing.T) {
	env := setupAuthTestEnv(t)

	first, err := env.authService.Register(services.RegisterInput{
		Username: "first",
		Password: "supersecret",
	})
	require.NoError(t, err)
	require.Equal(t, models.GlobalRoleAdmin, first.GlobalRole)

	second, err := env.authService.Register(services.RegisterInput{
		Username: "second",
		Password: "supersecret",
	})
	require.NoError(t, err)
	require.Equal(t, models.GlobalRoleMember, second.GlobalRole)
}

func TestAuthHandler_Register_DuplicateUsername(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, err := env.authService.Register(services.RegisterInput{
		Username: "taken",
		Password: "supersecret",
	})
	require.NoError(t, err)

	_, err = env.authService.Register(services.RegisterInput{
		Username: "taken",
		Password: "anothersecret",
	})
	require.ErrorIs(t, err, services.ErrUsernameTaken)
}

func TestAuthHandler_Login(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, err := env.authService.Register(services.RegisterInput{
		Username: "existing",
		Password: "supersecret",
	})
	require.NoError(t, err)

	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.POST("/api/auth/login", env.handler.Login)

	payload := map[string]string{
		"username": "existing",
		"password": "supersecret",
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, payload["username"], response.Username)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "expected session cookie to be set")
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, err := env.authService.Register(services.RegisterInput{
		Username: "existing",
		Password: "supersecret",
	})
	require.NoError(t, err)

	_, err = env.authService.Login(services.LoginInput{
		Username: "existing",
		Password: "wrongpassword",
	})
	require.ErrorIs(t, err, services.ErrInvalidCredentials)
}
