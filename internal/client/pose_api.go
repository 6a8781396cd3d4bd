package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"posture-detector-go/internal/pose"
	"posture-detector-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// PoseAPIClient клиент для сервиса оценки позы (Python сайдкар с MediaPipe)
type PoseAPIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewPoseAPIClient создает новый клиент для сервиса оценки позы
func NewPoseAPIClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *PoseAPIClient {
	return &PoseAPIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// EstimatePose отправляет изображение на оценку позы.
// Возвращает nil без ошибки, если тело на изображении не найдено.
func (c *PoseAPIClient) EstimatePose(imageData []byte) (pose.LandmarkSet, error) {
	// Создаем multipart form-data с изображением
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	imageWriter, err := writer.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("ошибка создания form field для изображения: %w", err)
	}

	if _, err := imageWriter.Write(imageData); err != nil {
		return nil, fmt.Errorf("ошибка записи данных изображения: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("ошибка закрытия multipart writer: %w", err)
	}

	url := fmt.Sprintf("%s/estimate", c.baseURL)
	req, err := http.NewRequest("POST", url, &body)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debugf("Отправка POST запроса на %s (%d байт)", url, len(imageData))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки HTTP запроса: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("сервис оценки позы вернул ошибку: статус %d, тело: %s", resp.StatusCode, string(respBody))
	}

	var apiResponse models.PoseAPIResponse
	if err := json.Unmarshal(respBody, &apiResponse); err != nil {
		return nil, fmt.Errorf("ошибка парсинга JSON ответа: %w", err)
	}

	if !apiResponse.Detected {
		return nil, nil
	}

	if len(apiResponse.Landmarks) != pose.LandmarkCount {
		return nil, fmt.Errorf("сервис оценки позы вернул %d точек вместо %d", len(apiResponse.Landmarks), pose.LandmarkCount)
	}

	return pose.LandmarkSet(apiResponse.Landmarks), nil
}

// CheckHealth проверяет состояние сервиса оценки позы
func (c *PoseAPIClient) CheckHealth() (*models.HealthResponse, error) {
	c.logger.Debug("Проверка здоровья сервиса оценки позы")

	url := fmt.Sprintf("%s/health", c.baseURL)
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки HTTP запроса: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("сервис оценки позы вернул ошибку: статус %d, тело: %s", resp.StatusCode, string(respBody))
	}

	var healthResponse models.HealthResponse
	if err := json.Unmarshal(respBody, &healthResponse); err != nil {
		return nil, fmt.Errorf("ошибка парсинга JSON ответа: %w", err)
	}

	return &healthResponse, nil
}
