package pose

import (
	"errors"

	"posture-detector-go/pkg/models"
)

// Joint индекс ключевой точки в схеме MediaPipe Pose
type Joint int

// Схема из 33 точек, порядок фиксирован контрактом с сервисом оценки позы
const (
	Nose Joint = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex
)

// LandmarkCount количество точек в полной схеме
const LandmarkCount = 33

// ErrMissingLandmark запрошенная точка отсутствует в наборе
var ErrMissingLandmark = errors.New("landmark is missing from the set")

// LandmarkSet упорядоченный набор ключевых точек, индексируемый по Joint
type LandmarkSet []models.Landmark

// At возвращает точку по индексу сустава
func (s LandmarkSet) At(j Joint) (models.Landmark, error) {
	if int(j) < 0 || int(j) >= len(s) {
		return models.Landmark{}, ErrMissingLandmark
	}
	return s[j], nil
}
