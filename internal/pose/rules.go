package pose

import (
	"fmt"
)

// Поддерживаемые виды активности
const (
	ActivitySquat   = "squat"
	ActivitySitting = "sitting"
)

// Пороговые значения правил в градусах
const (
	minSquatBackAngle   = 150.0
	maxNeckBendAngle    = 30.0
	maxBackStraightness = 20.0
)

// Evaluator применяет правила осанки к набору ключевых точек.
// Оценка работает по принципу best-effort: отсутствующие точки и
// вырожденная геометрия дают пустой список нарушений для кадра,
// ошибка никогда не покидает оценщик.
type Evaluator struct{}

// NewEvaluator создает новый оценщик правил
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate возвращает список нарушений для заданной активности.
// Неизвестная активность дает пустой список без ошибки.
func (e *Evaluator) Evaluate(activity string, landmarks LandmarkSet) []string {
	switch activity {
	case ActivitySquat:
		return e.checkSquatRules(landmarks)
	case ActivitySitting:
		return e.checkSittingRules(landmarks)
	}
	return []string{}
}

// checkSquatRules проверяет правила приседания
func (e *Evaluator) checkSquatRules(landmarks LandmarkSet) []string {
	issues := make([]string, 0, 2)

	knee, err := landmarks.At(LeftKnee)
	if err != nil {
		return []string{}
	}
	hip, err := landmarks.At(LeftHip)
	if err != nil {
		return []string{}
	}
	shoulder, err := landmarks.At(LeftShoulder)
	if err != nil {
		return []string{}
	}
	toe, err := landmarks.At(LeftFootIndex)
	if err != nil {
		return []string{}
	}
	if _, err := landmarks.At(LeftAnkle); err != nil {
		return []string{}
	}

	// Правило: колено за носком (ось X в координатах изображения,
	// камера предполагается слева от атлета)
	if knee.X > toe.X {
		issues = append(issues, "Left knee over toe")
	}

	// Правило: угол спины (плечо-бедро-колено)
	backAngle, err := AngleAtVertex(pointOf(shoulder), pointOf(hip), pointOf(knee))
	if err != nil {
		return []string{}
	}
	if backAngle < minSquatBackAngle {
		issues = append(issues, fmt.Sprintf("Back angle too small: %d°", int(backAngle)))
	}

	return issues
}

// checkSittingRules проверяет правила сидячей осанки
func (e *Evaluator) checkSittingRules(landmarks LandmarkSet) []string {
	issues := make([]string, 0, 2)

	shoulder, err := landmarks.At(LeftShoulder)
	if err != nil {
		return []string{}
	}
	ear, err := landmarks.At(LeftEar)
	if err != nil {
		return []string{}
	}
	hip, err := landmarks.At(LeftHip)
	if err != nil {
		return []string{}
	}

	// Правило: наклон шеи — угол между направлением плечо-ухо и
	// вертикалью над плечом
	verticalAboveShoulder := Point{X: shoulder.X, Y: shoulder.Y - 1}
	neckAngle, err := AngleAtVertex(pointOf(ear), pointOf(shoulder), verticalAboveShoulder)
	if err != nil {
		return []string{}
	}
	if neckAngle > maxNeckBendAngle {
		issues = append(issues, fmt.Sprintf("Neck bend too large: %d°", int(neckAngle)))
	}

	// Правило: прямая спина (плечо-бедро-вертикаль над бедром)
	verticalAboveHip := Point{X: hip.X, Y: hip.Y - 1}
	backAngle, err := AngleAtVertex(pointOf(shoulder), pointOf(hip), verticalAboveHip)
	if err != nil {
		return []string{}
	}
	if diff := backAngle - 180; diff > maxBackStraightness || diff < -maxBackStraightness {
		issues = append(issues, fmt.Sprintf("Back not straight: %d°", int(backAngle)))
	}

	return issues
}
