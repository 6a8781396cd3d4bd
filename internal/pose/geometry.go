package pose

import (
	"errors"
	"math"

	"posture-detector-go/pkg/models"
)

// Point точка в нормализованных координатах изображения
type Point struct {
	X float64
	Y float64
}

// ErrDegenerateTriangle один из векторов имеет нулевую длину, угол не определен
var ErrDegenerateTriangle = errors.New("degenerate triangle: zero-length vector")

// AngleAtVertex вычисляет угол (в градусах) при вершине b, заданной точками a, b, c.
// Косинус ограничивается диапазоном [-1, 1] для защиты от погрешностей
// плавающей точки, результат всегда в [0, 180].
func AngleAtVertex(a, b, c Point) (float64, error) {
	baX, baY := a.X-b.X, a.Y-b.Y
	bcX, bcY := c.X-b.X, c.Y-b.Y

	normBA := math.Hypot(baX, baY)
	normBC := math.Hypot(bcX, bcY)
	if normBA == 0 || normBC == 0 {
		return 0, ErrDegenerateTriangle
	}

	cosine := (baX*bcX + baY*bcY) / (normBA * normBC)
	cosine = math.Max(-1, math.Min(1, cosine))

	return math.Acos(cosine) * 180 / math.Pi, nil
}

// pointOf преобразует ключевую точку в 2D точку (координата Z схемой не предусмотрена)
func pointOf(lm models.Landmark) Point {
	return Point{X: lm.X, Y: lm.Y}
}
