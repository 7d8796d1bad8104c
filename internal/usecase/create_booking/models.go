package create_booking

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Request модель запроса на создание бронирования
type Request struct {
	Actor              domain.Actor // кто создаёт запись
	SlotID             int64        // ID слота
	CustomerID         int64        // ID клиента (0 - сам пользователь; администратор обязан указать)
	VehicleID          int64        // ID автомобиля клиента
	TotalPrice         int64        // Цена в минимальных единицах валюты
	ConfirmImmediately bool         // Только для администратора: сразу confirmed
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID              int64            // ID созданного бронирования
	Reference       string           // Код бронирования DT-XXXXXXXX
	SlotID          int64            // ID слота
	Date            types.Date       // Дата слота
	StartTime       types.TimeString // Время начала
	DurationMinutes int              // Длительность в минутах
	Bay             int              // Номер бокса
	CustomerID      int64            // ID клиента
	VehicleID       int64            // ID автомобиля
	Status          string           // Статус бронирования
	TotalPrice      int64            // Цена
	PaymentStatus   string           // Статус оплаты

	CreatedAt time.Time // Время создания
	UpdatedAt time.Time // Время обновления
}
