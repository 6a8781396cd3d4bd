package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"posture-detector-go/internal/media"
	"posture-detector-go/internal/pose"
	"posture-detector-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PostureHandler обрабатывает HTTP запросы анализа осанки
type PostureHandler struct {
	analyzer       *service.Analyzer
	decoder        media.Decoder
	logger         *logrus.Logger
	maxUploadBytes int64
}

// NewPostureHandler создает новый экземпляр PostureHandler
func NewPostureHandler(analyzer *service.Analyzer, decoder media.Decoder, logger *logrus.Logger, maxUploadMB int) *PostureHandler {
	return &PostureHandler{
		analyzer:       analyzer,
		decoder:        decoder,
		logger:         logger,
		maxUploadBytes: int64(maxUploadMB) << 20,
	}
}

// RegisterRoutes регистрирует маршруты API
func (h *PostureHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/analyze_video/", h.AnalyzeVideo)
	router.POST("/analyze_frame/", h.AnalyzeFrame)
	router.GET("/health", h.CheckHealth)
}

// AnalyzeVideo обрабатывает запрос на анализ видео
func (h *PostureHandler) AnalyzeVideo(c *gin.Context) {
	h.logger.Info("Получен запрос на анализ видео")

	if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.logger.Errorf("Ошибка парсинга multipart form: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ошибка парсинга формы"})
		return
	}

	activity := requestValue(c, "activity", pose.ActivitySquat)

	// Шаг выборки кадров (опциональный параметр)
	stride := 0 // 0 — использовать значение по умолчанию из конфигурации
	if strideStr := requestValue(c, "stride", ""); strideStr != "" {
		parsed, err := strconv.Atoi(strideStr)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "stride должен быть целым числом не меньше 1"})
			return
		}
		stride = parsed
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.logger.Errorf("Ошибка получения файла: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Файл обязателен"})
		return
	}
	defer file.Close()

	// Сохраняем загрузку во временный файл; удаление гарантировано
	// на любом пути выхода из обработчика
	staged, err := media.Stage(file, videoExt(header.Filename), h.logger)
	if err != nil {
		h.logger.Errorf("Ошибка сохранения загрузки: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сохранения загрузки"})
		return
	}
	defer staged.Remove()

	frames, err := h.decoder.OpenVideo(staged.Path())
	if err != nil {
		h.logger.Errorf("Ошибка открытия видео: %v", err)
		h.respondAnalysisError(c, err)
		return
	}
	defer frames.Close()

	result, err := h.analyzer.AnalyzeVideo(frames, activity, stride)
	if err != nil {
		h.logger.Errorf("Ошибка анализа видео: %v", err)
		h.respondAnalysisError(c, err)
		return
	}

	h.logger.Infof("Анализ видео завершен: %d кадров в ответе", len(result.Frames))
	c.JSON(http.StatusOK, result)
}

// AnalyzeFrame обрабатывает запрос на анализ одиночного кадра
func (h *PostureHandler) AnalyzeFrame(c *gin.Context) {
	h.logger.Info("Получен запрос на анализ кадра")

	if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.logger.Errorf("Ошибка парсинга multipart form: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ошибка парсинга формы"})
		return
	}

	activity := requestValue(c, "activity", pose.ActivitySquat)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.logger.Errorf("Ошибка получения файла: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Файл обязателен"})
		return
	}
	defer file.Close()

	staged, err := media.Stage(file, imageExt(header.Filename), h.logger)
	if err != nil {
		h.logger.Errorf("Ошибка сохранения загрузки: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сохранения загрузки"})
		return
	}
	defer staged.Remove()

	imageData, err := os.ReadFile(staged.Path())
	if err != nil {
		h.logger.Errorf("Ошибка чтения изображения: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка чтения изображения"})
		return
	}

	if err := media.EnsureImage(imageData); err != nil {
		h.logger.Errorf("Загрузка не является изображением: %v", err)
		h.respondAnalysisError(c, err)
		return
	}

	result, err := h.analyzer.AnalyzeFrame(imageData, activity)
	if err != nil {
		h.logger.Errorf("Ошибка анализа кадра: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":      "Сервис оценки позы недоступен",
			"error_kind": "pose_backend",
		})
		return
	}

	h.logger.Info("Анализ кадра завершен")
	c.JSON(http.StatusOK, result)
}

// CheckHealth проверяет состояние сервиса
func (h *PostureHandler) CheckHealth(c *gin.Context) {
	h.logger.Debug("Получен запрос проверки здоровья сервиса")

	health, err := h.analyzer.CheckHealth()
	if err != nil {
		h.logger.Errorf("Ошибка проверки здоровья: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка проверки состояния сервиса"})
		return
	}

	statusCode := http.StatusOK
	if health.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, health)
}

// respondAnalysisError отдает 400 для ошибок декодирования и 500 для остальных
func (h *PostureHandler) respondAnalysisError(c *gin.Context, err error) {
	var decodeErr *media.DecodeError
	if errors.As(err, &decodeErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Не удалось декодировать загруженный файл",
			"error_kind": "decode",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Внутренняя ошибка сервера"})
}

// requestValue получает значение параметра из формы или query строки
func requestValue(c *gin.Context, key, defaultValue string) string {
	if value := c.PostForm(key); value != "" {
		return value
	}
	if value := c.Query(key); value != "" {
		return value
	}
	return defaultValue
}

// videoExt возвращает расширение загруженного видео файла
func videoExt(filename string) string {
	if ext := filepath.Ext(filename); ext != "" {
		return ext
	}
	return ".mp4"
}

// imageExt возвращает расширение загруженного изображения
func imageExt(filename string) string {
	if ext := filepath.Ext(filename); ext != "" {
		return ext
	}
	return ".jpg"
}
