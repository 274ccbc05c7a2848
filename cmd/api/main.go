package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/satprep-api/internal/config"
	"github.com/yourusername/satprep-api/internal/handler"
	"github.com/yourusername/satprep-api/internal/middleware"
	pgRepo "github.com/yourusername/satprep-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/satprep-api/internal/repository/redis"
	"github.com/yourusername/satprep-api/internal/service"
	"github.com/yourusername/satprep-api/internal/service/testsession"
	ws "github.com/yourusername/satprep-api/internal/websocket"
	"github.com/yourusername/satprep-api/pkg/auth"
	"github.com/yourusername/satprep-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	testRepo := pgRepo.NewTestRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	attemptRepo := pgRepo.NewAttemptRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Проверка JWT выпускается внешним сервисом идентификации,
	// здесь токены только валидируются
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Инициализация WebSocket Hub
	hub := ws.NewHub()
	go hub.Run()

	// Инициализируем сервисы
	testService := service.NewTestService(testRepo, questionRepo)
	attemptService := service.NewAttemptService(attemptRepo, testRepo, testsession.NewRealClock())

	sessionConfig := &testsession.Config{
		TickInterval:  cfg.Session.TickInterval(),
		SubmitLockTTL: cfg.Session.SubmitLockTTL(),
	}
	sessionManager := testsession.NewManager(sessionConfig, &testsession.Dependencies{
		CacheRepo: cacheRepo,
		Recorder:  attemptService,
		Notifier:  ws.NewSessionNotifier(hub),
		Clock:     testsession.NewRealClock(),
		Config:    sessionConfig,
	})

	// Инициализируем обработчики
	testHandler := handler.NewTestHandler(testService, attemptService)
	sessionHandler := handler.NewSessionHandler(testService, sessionManager)
	attemptHandler := handler.NewAttemptHandler(attemptService, testService)
	wsHandler := handler.NewWSHandler(hub, jwtService)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Инициализируем роутер Gin
	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	api.Use(rateLimiter.Limit(middleware.DefaultAPIRateLimitConfig()))
	{
		// Тесты
		tests := api.Group("/tests")
		tests.Use(authMiddleware.RequireAuth())
		{
			tests.GET("", testHandler.ListTests)
			tests.POST("", authMiddleware.TeacherOnly(), testHandler.CreateTest)

			testWithID := tests.Group("/:id")
			testWithID.Use(middleware.ExtractUintParam("id", "testID"))
			{
				testWithID.GET("", testHandler.GetTest)
				testWithID.GET("/summary", testHandler.GetTestSummary)

				// Сессии прохождения
				testWithID.POST("/sessions", sessionHandler.StartSession)

				// Попытки текущего студента
				testWithID.GET("/attempts/my", attemptHandler.ListMyAttempts)

				// Маршруты для преподавателей
				teacherTests := testWithID.Group("")
				teacherTests.Use(authMiddleware.TeacherOnly())
				{
					teacherTests.PUT("", testHandler.UpdateTest)
					teacherTests.DELETE("", testHandler.DeleteTest)
					teacherTests.POST("/questions", testHandler.AddQuestions)
					teacherTests.GET("/attempts", attemptHandler.ListTestAttempts)
					teacherTests.GET("/attempts/export", attemptHandler.ExportTestAttempts)
				}
			}
		}

		// Вопросы
		questions := api.Group("/questions")
		questions.Use(authMiddleware.RequireAuth(), authMiddleware.TeacherOnly())
		{
			questionWithID := questions.Group("/:id")
			questionWithID.Use(middleware.ExtractUintParam("id", "questionID"))
			{
				questionWithID.PUT("", testHandler.UpdateQuestion)
				questionWithID.DELETE("", testHandler.DeleteQuestion)
			}
		}

		// Активные сессии
		sessions := api.Group("/sessions")
		sessions.Use(authMiddleware.RequireAuth())
		{
			sessionWithID := sessions.Group("/:session_id")
			{
				sessionWithID.GET("", sessionHandler.GetSession)
				sessionWithID.PUT("/answers", sessionHandler.SelectAnswer)
				sessionWithID.PUT("/position", sessionHandler.Navigate)
				sessionWithID.POST("/submit",
					rateLimiter.Limit(middleware.SubmitRateLimitConfig()),
					sessionHandler.Submit)
				sessionWithID.DELETE("", sessionHandler.CancelSession)
			}
		}

		// Попытки
		attempts := api.Group("/attempts")
		attempts.Use(authMiddleware.RequireAuth())
		{
			attemptWithID := attempts.Group("/:id")
			attemptWithID.Use(middleware.ExtractUintParam("id", "attemptID"))
			{
				attemptWithID.GET("", attemptHandler.GetAttempt)
			}
		}

		// Статистика текущего пользователя
		me := api.Group("/me")
		me.Use(authMiddleware.RequireAuth())
		{
			me.GET("/stats", attemptHandler.GetMyStats)
		}
	}

	// WebSocket маршрут
	router.GET("/ws", wsHandler.HandleConnection)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Останавливаем таймеры активных сессий и WebSocket хаб
	sessionManager.Shutdown()
	hub.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
