package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lmittmann/tint"

	"github.com/miskar/quizdeck/internal/auth"
	"github.com/miskar/quizdeck/internal/config"
	"github.com/miskar/quizdeck/internal/database"
	"github.com/miskar/quizdeck/internal/handler"
	"github.com/miskar/quizdeck/internal/quiz"
	"github.com/miskar/quizdeck/internal/repository/postgres"
	"github.com/miskar/quizdeck/internal/service"
	"github.com/miskar/quizdeck/internal/session"
)

func main() {
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(log)

	cfg := config.Load()

	// Initialize database connection
	pool, err := database.ConnectPostgres(cfg.Postgres)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Initialize Redis client
	redisClient, err := database.ConnectRedis(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Initialize repositories
	hasher := auth.NewBcryptHasher(0)
	userRepo := postgres.NewUserRepository(pool, hasher)
	questionRepo := postgres.NewQuestionRepository(pool)

	// Initialize session stores
	tokens := session.NewTokenStore(redisClient)
	registry := session.NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	registry.StartCleanupJob(ctx)

	// Initialize services
	userService := service.NewUserService(userRepo, tokens)
	recorder := quiz.NewResultRecorder(userRepo)
	quizService := service.NewQuizService(questionRepo, recorder, registry, log)

	// Initialize handlers
	userHandler := handler.NewUserHandler(userService)
	questionHandler := handler.NewQuestionHandler(questionRepo)
	quizHandler := handler.NewQuizHandler(quizService)
	wsHandler := handler.NewWebSocketHandler(userService, quizService, log)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Routes
	api := e.Group("/api")

	// User routes
	users := api.Group("/users")
	users.POST("/register", userHandler.Register)
	users.POST("/login", userHandler.Login)
	users.POST("/logout", userHandler.Logout)
	users.GET("/me", userHandler.Me, handler.RequireUser(userService))

	// Player routes
	quizzes := api.Group("/quiz", handler.RequireUser(userService))
	quizzes.GET("/categories", questionHandler.ListCategories)
	quizzes.POST("/sessions", quizHandler.StartSession)
	quizzes.GET("/sessions/:id", quizHandler.CurrentQuestion)
	quizzes.POST("/sessions/:id/answers", quizHandler.SubmitAnswer)
	quizzes.DELETE("/sessions/:id", quizHandler.AbandonSession)

	// Admin routes
	admin := api.Group("/admin", handler.RequireUser(userService), handler.RequireAdmin())
	admin.GET("/questions", questionHandler.ListQuestions)
	admin.POST("/questions", questionHandler.CreateQuestion)
	admin.GET("/questions/:id", questionHandler.GetQuestion)
	admin.PUT("/questions/:id", questionHandler.UpdateQuestion)
	admin.DELETE("/questions/:id", questionHandler.DeleteQuestion)

	// WebSocket route
	e.GET("/ws/quiz", wsHandler.HandleQuiz)

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	// Start server
	go func() {
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("shutting down the server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}
}
