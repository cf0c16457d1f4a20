package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/plannerhq/planner-api/internal/config"
	"github.com/plannerhq/planner-api/internal/constants"
	"github.com/plannerhq/planner-api/internal/database"
	"github.com/plannerhq/planner-api/internal/handlers"
	"github.com/plannerhq/planner-api/internal/middleware"
	"github.com/plannerhq/planner-api/internal/policy"
	"github.com/plannerhq/planner-api/internal/repository"
	"github.com/plannerhq/planner-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Resolve the display timezone for comment timestamps
	displayLoc, err := time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		log.Fatalf("Invalid DISPLAY_TIMEZONE %q: %v", cfg.DisplayTimezone, err)
	}

	// Initialize Gin router
	r := gin.Default()

	r.Use(middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Repositories
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// Policy engine resolves roles through the project repository
	engine := policy.NewEngine(projectRepo)

	// Services
	authService := services.NewAuthService(userRepo)
	projectService := services.NewProjectService(projectRepo, taskRepo, userRepo, engine)
	taskService := services.NewTaskService(taskRepo, projectRepo, engine)
	commentService := services.NewCommentService(commentRepo, taskRepo, projectRepo, engine)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	projectHandler := handlers.NewProjectHandler(projectService)
	taskHandler := handlers.NewTaskHandler(taskService)
	commentHandler := handlers.NewCommentHandler(commentService, displayLoc)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Planner API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Dashboard (protected)
		api.GET("/dashboard", middleware.RequireAuth(), projectHandler.Dashboard)

		// Project routes (protected)
		projects := api.Group("/projects")
		projects.Use(middleware.RequireAuth())
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.PUT("/:id", projectHandler.UpdateProject)
			projects.DELETE("/:id", projectHandler.DeleteProject)
			projects.GET("/:id/members", projectHandler.ListMembers)
			projects.POST("/:id/members", projectHandler.AddMember)
			projects.GET("/:id/stats", projectHandler.GetStats)
			projects.GET("/:id/timeline", projectHandler.GetTimeline)
			projects.GET("/:id/tasks", taskHandler.ListTasks)
			projects.POST("/:id/tasks", taskHandler.CreateTask)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("/assigned", taskHandler.ListAssignedTasks)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PATCH("/:id", taskHandler.UpdateTask)
			tasks.PATCH("/:id/status", taskHandler.UpdateStatus)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
			tasks.POST("/:id/assign", taskHandler.AssignTask)
			tasks.GET("/:id/comments", commentHandler.ListComments)
			tasks.POST("/:id/comments", commentHandler.AddComment)
		}

		// Comment routes (protected)
		api.DELETE("/comments/:id", middleware.RequireAuth(), commentHandler.DeleteComment)
	}

	// Start server
	log.Println("Server starting on :8080")
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
