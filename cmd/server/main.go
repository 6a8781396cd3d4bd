package main

import (
	"fmt"
	"net/http"
	"time"

	"posture-detector-go/internal/client"
	"posture-detector-go/internal/config"
	"posture-detector-go/internal/handler"
	"posture-detector-go/internal/logging"
	"posture-detector-go/internal/media"
	"posture-detector-go/internal/pose"
	"posture-detector-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Загружаем .env если он есть, переменные окружения имеют приоритет
	_ = godotenv.Load()

	// Получаем конфигурацию из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Инициализируем логгер
	logger := logging.New(cfg)
	logger.Info("Запуск Posture Detection API Server")

	// Инициализируем клиент сервиса оценки позы
	poseClient := client.NewPoseAPIClient(
		cfg.PoseAPI.BaseURL,
		time.Duration(cfg.PoseAPI.Timeout)*time.Second,
		logger,
	)

	// Инициализируем декодер видео
	decoder := media.NewFFmpegDecoder(cfg.Media.FFmpegPath, logger)

	// Инициализируем сервисы
	evaluator := pose.NewEvaluator()
	analyzer := service.NewAnalyzer(poseClient, poseClient, evaluator, logger, cfg.Analysis.DefaultStride)

	// Инициализируем обработчики
	postureHandler := handler.NewPostureHandler(analyzer, decoder, logger, cfg.Analysis.MaxUploadMB)

	// Настраиваем Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Добавляем middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg.CORS.AllowedOrigin))

	// Регистрируем маршруты
	postureHandler.RegisterRoutes(router)

	// Базовый маршрут для проверки
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Posture Detection Backend is running!",
		})
	})

	// Запускаем сервер
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Сервер запущен на %s", serverAddr)
	logger.Infof("Сервис оценки позы: %s", cfg.PoseAPI.BaseURL)

	if err := router.Run(serverAddr); err != nil {
		logger.Fatalf("Ошибка запуска сервера: %v", err)
	}
}

// corsMiddleware добавляет заголовки CORS
func corsMiddleware(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", allowedOrigin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
