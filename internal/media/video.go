package media

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/sirupsen/logrus"
)

// FFmpegDecoder декодирует видео через подпроцесс ffmpeg.
// Кадры запрашиваются как MJPEG поток (image2pipe) и разбираются
// по маркерам JPEG, пиксели в Go не распаковываются — сырые JPEG
// байты уходят напрямую в сервис оценки позы.
type FFmpegDecoder struct {
	ffmpegPath string
	logger     *logrus.Logger
}

// NewFFmpegDecoder создает новый декодер
func NewFFmpegDecoder(ffmpegPath string, logger *logrus.Logger) *FFmpegDecoder {
	return &FFmpegDecoder{
		ffmpegPath: ffmpegPath,
		logger:     logger,
	}
}

// OpenVideo запускает ffmpeg и возвращает итератор кадров
func (d *FFmpegDecoder) OpenVideo(path string) (FrameSource, error) {
	cmd := exec.Command(d.ffmpegPath,
		"-i", path,
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "2",
		"-",
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open ffmpeg stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	d.logger.Debugf("Запущен ffmpeg для декодирования %s", path)

	return &ffmpegFrameSource{
		cmd:    cmd,
		reader: bufio.NewReaderSize(stdout, 1<<16),
		stderr: &stderr,
	}, nil
}

// ffmpegFrameSource читает JPEG кадры из stdout процесса ffmpeg
type ffmpegFrameSource struct {
	cmd    *exec.Cmd
	reader *bufio.Reader
	stderr *bytes.Buffer
	waited bool
}

// Next возвращает следующий кадр как JPEG байты, io.EOF после последнего
func (s *ffmpegFrameSource) Next() ([]byte, error) {
	// Ищем маркер начала кадра (SOI)
	for {
		b, err := s.reader.ReadByte()
		if err != nil {
			return nil, s.finish(err)
		}
		if b != 0xFF {
			continue
		}
		next, err := s.reader.ReadByte()
		if err != nil {
			return nil, s.finish(err)
		}
		if next == 0xD8 {
			break
		}
	}

	frame := make([]byte, 0, 64*1024)
	frame = append(frame, 0xFF, 0xD8)

	// Копируем до маркера конца кадра (EOI). Внутри сжатых данных
	// байт 0xFF экранируется как 0xFF00, поэтому пара 0xFFD9 встречается
	// только как маркер.
	prev := byte(0)
	for {
		b, err := s.reader.ReadByte()
		if err != nil {
			// Поток оборвался посреди кадра
			return nil, s.finish(err)
		}
		frame = append(frame, b)
		if prev == 0xFF && b == 0xD9 {
			return frame, nil
		}
		prev = b
	}
}

// finish переводит ошибку чтения в итоговый статус потока
func (s *ffmpegFrameSource) finish(readErr error) error {
	waitErr := s.wait()
	if waitErr != nil {
		return &DecodeError{Reason: s.stderrTail(), Err: waitErr}
	}
	if errors.Is(readErr, io.EOF) {
		return io.EOF
	}
	return fmt.Errorf("failed to read ffmpeg output: %w", readErr)
}

// Close завершает процесс ffmpeg
func (s *ffmpegFrameSource) Close() error {
	if s.cmd.Process != nil && !s.waited {
		// Итерацию прервали до конца потока
		_ = s.cmd.Process.Kill()
	}
	_ = s.wait()
	return nil
}

func (s *ffmpegFrameSource) wait() error {
	if s.waited {
		return nil
	}
	s.waited = true
	return s.cmd.Wait()
}

// stderrTail возвращает последние строки вывода ffmpeg для диагностики
func (s *ffmpegFrameSource) stderrTail() string {
	out := s.stderr.Bytes()
	const limit = 512
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return string(bytes.TrimSpace(out))
}
