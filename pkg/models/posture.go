package models

// Landmark представляет одну ключевую точку тела
type Landmark struct {
	X          float64 `json:"x"`          // Нормализованная координата X [0,1]
	Y          float64 `json:"y"`          // Нормализованная координата Y [0,1]
	Visibility float64 `json:"visibility"` // Уверенность детекции [0,1]
}

// FrameResult результат анализа одного кадра видео
type FrameResult struct {
	FrameIndex int        `json:"frame"`     // Индекс кадра в исходном видео
	Issues     []string   `json:"issues"`    // Найденные нарушения осанки
	Keypoints  []Landmark `json:"keypoints"` // Ключевые точки (пустой список, если тело не найдено)
}

// VideoAnalyzeResponse ответ анализа видео
type VideoAnalyzeResponse struct {
	Frames []FrameResult `json:"frames"` // Результаты по обработанным кадрам в порядке следования
}

// FrameAnalyzeResponse ответ анализа одиночного кадра
type FrameAnalyzeResponse struct {
	Issues    []string   `json:"issues"`
	Keypoints []Landmark `json:"keypoints"`
}

// PoseAPIResponse определяет структуру ответа от сервиса оценки позы
type PoseAPIResponse struct {
	Detected  bool       `json:"detected"`  // Найдено ли тело на изображении
	Landmarks []Landmark `json:"landmarks"` // 33 ключевые точки в схеме MediaPipe Pose
}

// HealthResponse представляет ответ проверки здоровья сервиса
type HealthResponse struct {
	Status      string `json:"status"`       // Статус сервиса (healthy/unhealthy)
	ModelLoaded bool   `json:"model_loaded"` // Загружена ли модель оценки позы
	Version     string `json:"version"`      // Версия сервиса
}
