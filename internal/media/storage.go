package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// StagedFile временный файл с загруженными данными запроса.
// Владелец обязан вызвать Remove на каждом пути выхода (через defer),
// чтобы загрузка не оставалась на диске после ответа.
type StagedFile struct {
	path   string
	logger *logrus.Logger
}

// Stage сохраняет загруженные данные во временный файл с уникальным именем
func Stage(data io.Reader, ext string, logger *logrus.Logger) (*StagedFile, error) {
	if ext == "" {
		ext = ".bin"
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("posture-%s%s", uuid.New().String(), ext))

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create staged file: %w", err)
	}

	written, err := io.Copy(file, data)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// Удаляем недописанный файл сразу
		os.Remove(path)
		return nil, fmt.Errorf("failed to write staged file: %w", err)
	}

	logger.Debugf("Загрузка сохранена во временный файл %s (%d байт)", path, written)
	return &StagedFile{path: path, logger: logger}, nil
}

// Path возвращает путь к временному файлу
func (f *StagedFile) Path() string {
	return f.path
}

// Remove удаляет временный файл. Повторный вызов безопасен.
func (f *StagedFile) Remove() {
	if f.path == "" {
		return
	}
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		f.logger.Warnf("Не удалось удалить временный файл %s: %v", f.path, err)
		return
	}
	f.path = ""
}
