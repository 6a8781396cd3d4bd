package media

import (
	"fmt"
	"net/http"
	"strings"
)

// DecodeError ошибка декодирования загруженного медиа.
// Обработчик отличает ее от внутренних ошибок и возвращает клиенту 4xx.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode failed: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// FrameSource последовательный итератор кадров видео.
// Next возвращает io.EOF после последнего кадра.
type FrameSource interface {
	Next() ([]byte, error)
	Close() error
}

// Decoder открывает видео файл как последовательность кадров
type Decoder interface {
	OpenVideo(path string) (FrameSource, error)
}

// EnsureImage проверяет, что данные похожи на изображение
func EnsureImage(data []byte) error {
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return &DecodeError{Reason: fmt.Sprintf("unsupported content type %s", contentType)}
	}
	return nil
}
