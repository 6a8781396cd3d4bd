package service

import (
	"errors"
	"fmt"
	"io"
	"time"

	"posture-detector-go/internal/media"
	"posture-detector-go/internal/pose"
	"posture-detector-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// PoseEstimator внешний сервис оценки позы: изображение на входе,
// набор ключевых точек на выходе. nil без ошибки означает, что тело
// на изображении не найдено.
type PoseEstimator interface {
	EstimatePose(imageData []byte) (pose.LandmarkSet, error)
}

// HealthChecker проверка доступности сервиса оценки позы
type HealthChecker interface {
	CheckHealth() (*models.HealthResponse, error)
}

// Analyzer сервис анализа осанки: прогоняет кадры через сервис оценки
// позы и применяет правила выбранной активности
type Analyzer struct {
	estimator     PoseEstimator
	health        HealthChecker
	evaluator     *pose.Evaluator
	logger        *logrus.Logger
	defaultStride int
}

// NewAnalyzer создает новый сервис анализа осанки
func NewAnalyzer(estimator PoseEstimator, health HealthChecker, evaluator *pose.Evaluator, logger *logrus.Logger, defaultStride int) *Analyzer {
	if defaultStride < 1 {
		defaultStride = 1
	}
	return &Analyzer{
		estimator:     estimator,
		health:        health,
		evaluator:     evaluator,
		logger:        logger,
		defaultStride: defaultStride,
	}
}

// AnalyzeFrame анализирует одиночное изображение.
// Ошибка сервиса оценки позы здесь пробрасывается наверх: в отличие от
// видео нет цикла кадров, который мог бы ее поглотить.
func (s *Analyzer) AnalyzeFrame(imageData []byte, activity string) (*models.FrameAnalyzeResponse, error) {
	landmarks, err := s.estimator.EstimatePose(imageData)
	if err != nil {
		return nil, fmt.Errorf("pose estimation failed: %w", err)
	}

	issues, keypoints := s.evaluateFrame(landmarks, activity)
	return &models.FrameAnalyzeResponse{
		Issues:    issues,
		Keypoints: keypoints,
	}, nil
}

// AnalyzeVideo анализирует видео, обрабатывая каждый stride-й кадр.
// Результаты идут строго в порядке кадров исходного видео. Сбои оценки
// позы на отдельных кадрах поглощаются (кадр получает пустые точки),
// наверх уходит только полная невозможность декодировать поток.
func (s *Analyzer) AnalyzeVideo(frames media.FrameSource, activity string, stride int) (*models.VideoAnalyzeResponse, error) {
	if stride < 1 {
		stride = s.defaultStride
	}

	startTime := time.Now()
	results := make([]models.FrameResult, 0)

	frameIdx := 0
	for {
		frameData, err := frames.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if frameIdx == 0 {
				// Ни одного кадра извлечь не удалось — ошибка декодирования
				var decodeErr *media.DecodeError
				if errors.As(err, &decodeErr) {
					return nil, err
				}
				return nil, &media.DecodeError{Reason: "no frames decoded", Err: err}
			}
			// Поток оборвался после успешных кадров, возвращаем что есть
			s.logger.Warnf("Видео поток оборвался на кадре %d: %v", frameIdx, err)
			break
		}

		if frameIdx%stride != 0 {
			frameIdx++
			continue
		}

		landmarks, err := s.estimator.EstimatePose(frameData)
		if err != nil {
			// Best-effort: сбой одного кадра не прерывает анализ
			s.logger.Warnf("Ошибка оценки позы на кадре %d: %v", frameIdx, err)
			landmarks = nil
		}

		issues, keypoints := s.evaluateFrame(landmarks, activity)
		results = append(results, models.FrameResult{
			FrameIndex: frameIdx,
			Issues:     issues,
			Keypoints:  keypoints,
		})
		frameIdx++
	}

	s.logger.Infof("Анализ видео завершен за %v: %d кадров обработано из %d (шаг %d)",
		time.Since(startTime), len(results), frameIdx, stride)

	return &models.VideoAnalyzeResponse{Frames: results}, nil
}

// evaluateFrame применяет правила к найденным точкам одного кадра.
// Без точек правила не запускаются: пустые точки влекут пустые нарушения.
func (s *Analyzer) evaluateFrame(landmarks pose.LandmarkSet, activity string) ([]string, []models.Landmark) {
	if len(landmarks) == 0 {
		return []string{}, []models.Landmark{}
	}
	issues := s.evaluator.Evaluate(activity, landmarks)
	return issues, []models.Landmark(landmarks)
}

// CheckHealth проверяет состояние сервиса и его зависимостей
func (s *Analyzer) CheckHealth() (*models.HealthResponse, error) {
	s.logger.Debug("Проверяем состояние сервиса анализа")

	poseHealth, err := s.health.CheckHealth()
	if err != nil {
		s.logger.Errorf("Сервис оценки позы недоступен: %v", err)
		return &models.HealthResponse{
			Status:      "unhealthy",
			ModelLoaded: false,
			Version:     "1.0.0",
		}, nil
	}

	return poseHealth, nil
}
