package service

import (
	"errors"
	"io"
	"testing"

	"posture-detector-go/internal/media"
	"posture-detector-go/internal/pose"
	"posture-detector-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// fakeEstimator детерминированная замена сервиса оценки позы
type fakeEstimator struct {
	landmarks pose.LandmarkSet
	err       error
	failAt    map[int]bool // номера вызовов, завершающиеся ошибкой
	calls     int
}

func (f *fakeEstimator) EstimatePose(imageData []byte) (pose.LandmarkSet, error) {
	call := f.calls
	f.calls++
	if f.failAt != nil && f.failAt[call] {
		return nil, errors.New("pose backend down")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.landmarks, nil
}

// fakeFrameSource выдает заранее подготовленные кадры
type fakeFrameSource struct {
	frames [][]byte
	errAt  int // индекс кадра, на котором вернуть ошибку; -1 — без ошибок
	err    error
	pos    int
	closed bool
}

func (f *fakeFrameSource) Next() ([]byte, error) {
	if f.err != nil && f.pos == f.errAt {
		return nil, f.err
	}
	if f.pos >= len(f.frames) {
		return nil, io.EOF
	}
	frame := f.frames[f.pos]
	f.pos++
	return frame, nil
}

func (f *fakeFrameSource) Close() error {
	f.closed = true
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func detectedLandmarks() pose.LandmarkSet {
	set := make(pose.LandmarkSet, pose.LandmarkCount)
	for i := range set {
		set[i] = models.Landmark{X: 0.1, Y: 0.1, Visibility: 0.9}
	}
	// Колено за носком — одно гарантированное нарушение
	set[pose.LeftShoulder] = models.Landmark{X: 0.5, Y: 0.1, Visibility: 0.9}
	set[pose.LeftHip] = models.Landmark{X: 0.5, Y: 0.5, Visibility: 0.9}
	set[pose.LeftKnee] = models.Landmark{X: 0.6, Y: 0.9, Visibility: 0.9}
	set[pose.LeftAnkle] = models.Landmark{X: 0.6, Y: 1.1, Visibility: 0.9}
	set[pose.LeftFootIndex] = models.Landmark{X: 0.5, Y: 1.15, Visibility: 0.9}
	return set
}

func dummyFrames(n int) [][]byte {
	frames := make([][]byte, n)
	for i := range frames {
		frames[i] = []byte{byte(i)}
	}
	return frames
}

func TestAnalyzeVideoStrideSampling(t *testing.T) {
	estimator := &fakeEstimator{landmarks: detectedLandmarks()}
	analyzer := NewAnalyzer(estimator, nil, pose.NewEvaluator(), testLogger(), 5)

	// 12 кадров с шагом 5: обрабатываются кадры 0, 5 и 10
	source := &fakeFrameSource{frames: dummyFrames(12), errAt: -1}
	result, err := analyzer.AnalyzeVideo(source, pose.ActivitySquat, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantIndices := []int{0, 5, 10}
	if len(result.Frames) != len(wantIndices) {
		t.Fatalf("expected %d frames, got %d", len(wantIndices), len(result.Frames))
	}
	for i, want := range wantIndices {
		if result.Frames[i].FrameIndex != want {
			t.Errorf("frame %d: expected index %d, got %d", i, want, result.Frames[i].FrameIndex)
		}
	}
	if estimator.calls != 3 {
		t.Errorf("expected 3 estimator calls, got %d", estimator.calls)
	}
}

func TestAnalyzeVideoDefaultStride(t *testing.T) {
	estimator := &fakeEstimator{landmarks: detectedLandmarks()}
	analyzer := NewAnalyzer(estimator, nil, pose.NewEvaluator(), testLogger(), 5)

	// stride <= 0 в запросе означает шаг по умолчанию
	source := &fakeFrameSource{frames: dummyFrames(11), errAt: -1}
	result, err := analyzer.AnalyzeVideo(source, pose.ActivitySquat, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Frames) != 3 {
		t.Errorf("expected 3 frames with default stride 5, got %d", len(result.Frames))
	}
}

func TestAnalyzeVideoNoDetection(t *testing.T) {
	estimator := &fakeEstimator{landmarks: nil}
	analyzer := NewAnalyzer(estimator, nil, pose.NewEvaluator(), testLogger(), 5)

	source := &fakeFrameSource{frames: dummyFrames(1), errAt: -1}
	result, err := analyzer.AnalyzeVideo(source, pose.ActivitySquat, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(result.Frames))
	}

	frame := result.Frames[0]
	if frame.Keypoints == nil || len(frame.Keypoints) != 0 {
		t.Errorf("expected empty keypoints, got %v", frame.Keypoints)
	}
	if frame.Issues == nil || len(frame.Issues) != 0 {
		t.Errorf("expected empty issues, got %v", frame.Issues)
	}
}

func TestAnalyzeVideoEstimatorFailureAbsorbed(t *testing.T) {
	// Сбой на втором обработанном кадре не прерывает анализ
	estimator := &fakeEstimator{landmarks: detectedLandmarks(), failAt: map[int]bool{1: true}}
	analyzer := NewAnalyzer(estimator, nil, pose.NewEvaluator(), testLogger(), 5)

	source := &fakeFrameSource{frames: dummyFrames(3), errAt: -1}
	result, err := analyzer.AnalyzeVideo(source, pose.ActivitySquat, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(result.Frames))
	}
	if len(result.Frames[0].Keypoints) == 0 {
		t.Errorf("frame 0 should have keypoints")
	}
	if len(result.Frames[1].Keypoints) != 0 || len(result.Frames[1].Issues) != 0 {
		t.Errorf("failed frame should be empty, got %+v", result.Frames[1])
	}
	if len(result.Frames[2].Keypoints) == 0 {
		t.Errorf("frame 2 should have keypoints")
	}
}

func TestAnalyzeVideoImmediateDecodeFailure(t *testing.T) {
	estimator := &fakeEstimator{landmarks: detectedLandmarks()}
	analyzer := NewAnalyzer(estimator, nil, pose.NewEvaluator(), testLogger(), 5)

	source := &fakeFrameSource{frames: nil, errAt: 0, err: &media.DecodeError{Reason: "broken stream"}}
	_, err := analyzer.AnalyzeVideo(source, pose.ActivitySquat, 1)

	var decodeErr *media.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestAnalyzeVideoMidStreamFailureKeepsResults(t *testing.T) {
	estimator := &fakeEstimator{landmarks: detectedLandmarks()}
	analyzer := NewAnalyzer(estimator, nil, pose.NewEvaluator(), testLogger(), 5)

	source := &fakeFrameSource{frames: dummyFrames(5), errAt: 3, err: errors.New("stream interrupted")}
	result, err := analyzer.AnalyzeVideo(source, pose.ActivitySquat, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Frames) != 3 {
		t.Errorf("expected 3 frames before interruption, got %d", len(result.Frames))
	}
}

func TestAnalyzeFrameDetected(t *testing.T) {
	estimator := &fakeEstimator{landmarks: detectedLandmarks()}
	analyzer := NewAnalyzer(estimator, nil, pose.NewEvaluator(), testLogger(), 5)

	result, err := analyzer.AnalyzeFrame([]byte("jpeg"), pose.ActivitySquat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Keypoints) != pose.LandmarkCount {
		t.Errorf("expected %d keypoints, got %d", pose.LandmarkCount, len(result.Keypoints))
	}
	if len(result.Issues) == 0 {
		t.Errorf("expected at least one issue")
	}
}

func TestAnalyzeFrameNoDetection(t *testing.T) {
	estimator := &fakeEstimator{landmarks: nil}
	analyzer := NewAnalyzer(estimator, nil, pose.NewEvaluator(), testLogger(), 5)

	result, err := analyzer.AnalyzeFrame([]byte("jpeg"), pose.ActivitySquat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Keypoints == nil || len(result.Keypoints) != 0 {
		t.Errorf("expected empty keypoints, got %v", result.Keypoints)
	}
	if result.Issues == nil || len(result.Issues) != 0 {
		t.Errorf("expected empty issues, got %v", result.Issues)
	}
}

func TestAnalyzeFramePropagatesEstimatorError(t *testing.T) {
	estimator := &fakeEstimator{err: errors.New("pose backend down")}
	analyzer := NewAnalyzer(estimator, nil, pose.NewEvaluator(), testLogger(), 5)

	if _, err := analyzer.AnalyzeFrame([]byte("jpeg"), pose.ActivitySquat); err == nil {
		t.Fatal("expected error from estimator")
	}
}

func TestAnalyzeVideoUnknownActivity(t *testing.T) {
	estimator := &fakeEstimator{landmarks: detectedLandmarks()}
	analyzer := NewAnalyzer(estimator, nil, pose.NewEvaluator(), testLogger(), 5)

	source := &fakeFrameSource{frames: dummyFrames(2), errAt: -1}
	result, err := analyzer.AnalyzeVideo(source, "yoga", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, frame := range result.Frames {
		if len(frame.Issues) != 0 {
			t.Errorf("unknown activity must not produce issues, got %v", frame.Issues)
		}
		if len(frame.Keypoints) != pose.LandmarkCount {
			t.Errorf("keypoints still returned for unknown activity")
		}
	}
}
