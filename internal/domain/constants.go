package domain

// Значения по умолчанию для настроек бизнеса
const (
	DefaultSlotDurationMinutes     = 120
	DefaultBookingsPerSlot         = 1
	DefaultCancellationWindowHours = 24
	DefaultRescheduleWindowHours   = 24
	DefaultMinBookingNoticeMinutes = 60
	DefaultAdvanceBookingDays      = 0 // 0 = без ограничения
	DefaultMaxReschedules          = 0 // 0 = без ограничения
)

// Ограничения для валидации
const (
	MinSlotDurationMinutes  = 5
	MaxSlotDurationMinutes  = 480 // 8 часов
	MinBookingsPerSlot      = 1
	MaxBookingsPerSlot      = 20
	MaxAdvanceBookingDays   = 365
	MaxBookingNoticeMinutes = 10080 // неделя
	MaxPolicyWindowHours    = 720   // 30 дней
	MaxGenerateRangeDays    = 92
	MaxReasonLength         = 500
	MaxAdminNotesLength     = 1000
)

// ActiveStatuses статусы, при которых бронирование удерживает слот
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusInProgress,
	StatusRescheduleRequested,
}

// TerminalStatuses конечные статусы бронирования
var TerminalStatuses = []BookingStatus{
	StatusCompleted,
	StatusCancelled,
}
