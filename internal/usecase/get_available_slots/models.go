package get_available_slots

import (
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Request модель запроса на получение доступных слотов
type Request struct {
	Actor domain.Actor // кто спрашивает: окно записи действует только для клиентов
	Date  types.Date   // Дата для получения слотов
}

// Response модель ответа со списком доступных слотов
type Response struct {
	Date  types.Date // Дата, на которую запрашивались слоты
	Slots []Slot     // Свободные слоты по возрастанию времени начала
}

// Slot модель временного слота
type Slot struct {
	ID              int64            // ID слота для записи
	StartTime       types.TimeString // Время начала слота (например, "10:00")
	EndTime         types.TimeString // Время окончания
	DurationMinutes int              // Длительность слота в минутах
	Bay             int              // Номер бокса
}
