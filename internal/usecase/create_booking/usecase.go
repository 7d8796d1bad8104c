package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/events"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	slotRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

const (
	// maxReferenceAttempts сколько раз генерировать новый код при коллизии
	maxReferenceAttempts = 3

	claimOperation = "create_booking"
)

// errClaimFailed слот заняли между чтением и захватом
var errClaimFailed = errors.New("slot was claimed concurrently")

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo  BookingRepository
	slotRepo     SlotRepository
	policies     PolicyProvider
	txManager    TransactionManager
	cache        AvailabilityCache
	publisher    EventPublisher
	metrics      Metrics
	timeProvider TimeProvider
	location     *time.Location
	newReference func() string
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	slotRepo SlotRepository,
	policies PolicyProvider,
	txManager TransactionManager,
	cache AvailabilityCache,
	publisher EventPublisher,
	metrics Metrics,
	timeProvider TimeProvider,
	location *time.Location,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		slotRepo:     slotRepo,
		policies:     policies,
		txManager:    txManager,
		cache:        cache,
		publisher:    publisher,
		metrics:      metrics,
		timeProvider: timeProvider,
		location:     location,
		newReference: NewReference,
		logger:       logger,
	}
}

// Execute выполняет use case создания бронирования.
// Захват слота и вставка бронирования выполняются в одной транзакции:
// из нескольких одновременных запросов на один слот успешен ровно один.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: user=%d (%s), slot=%d, vehicle=%d",
		req.Actor.UserID, req.Actor.Role, req.SlotID, req.VehicleID)

	// 1. Валидация входных данных
	customerID, err := validateRequest(req)
	if err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Получаем слот
	slot, err := uc.getSlot(ctx, req.SlotID)
	if err != nil {
		return nil, err
	}

	// 4. Начавшийся слот недоступен никому
	start := slot.StartsAt(uc.location)
	if !start.After(now) {
		uc.logger.Warn("CreateBooking: slot id=%d already started at %s", slot.ID, start.Format(time.RFC3339))
		return nil, fmt.Errorf("%w: slot already started", ErrSlotUnavailable)
	}

	// 5. Окно записи действует только для клиентов
	if !req.Actor.IsAdmin() {
		policy, err := uc.policies.GetPolicy(ctx)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to get policy: %v", err)
			return nil, fmt.Errorf("%w: failed to get policy: %v", ErrInternal, err)
		}
		if err := validateBookingWindow(slot.Date, start, now.In(uc.location), *policy); err != nil {
			uc.logger.Warn("CreateBooking: booking window check failed: %v", err)
			return nil, err
		}
	}

	if !slot.IsAvailable() {
		uc.logger.Warn("CreateBooking: slot id=%d is %s", slot.ID, slot.Status)
		return nil, ErrSlotUnavailable
	}

	status := domain.StatusPending
	if req.ConfirmImmediately {
		status = domain.StatusConfirmed
	}

	// 6. Захват слота и создание бронирования
	var (
		result       *domain.Booking
		referenceTry int
		rechecked    bool
	)
	for {
		booking := &domain.Booking{
			Reference:     uc.newReference(),
			SlotID:        slot.ID,
			CustomerID:    customerID,
			VehicleID:     req.VehicleID,
			Status:        status,
			TotalPrice:    req.TotalPrice,
			PaymentStatus: domain.PaymentUnpaid,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		result, err = uc.claimAndCreate(ctx, booking, now)
		if err == nil {
			break
		}

		switch {
		case errors.Is(err, bookingRepo.ErrDuplicateReference):
			referenceTry++
			if referenceTry >= maxReferenceAttempts {
				uc.logger.Error("CreateBooking: reference collisions exhausted: %v", err)
				return nil, fmt.Errorf("%w: failed to generate unique reference", ErrInternal)
			}
			uc.logger.Warn("CreateBooking: reference %s collided, regenerating", booking.Reference)
			continue

		case errors.Is(err, errClaimFailed):
			uc.metrics.ObserveClaimConflict(claimOperation)
			if rechecked {
				uc.logger.Warn("CreateBooking: slot id=%d lost again after recheck", slot.ID)
				return nil, ErrSlotUnavailable
			}
			rechecked = true

			// Одна повторная проверка: слот мог освободиться между попытками
			fresh, getErr := uc.getSlot(ctx, slot.ID)
			if getErr != nil {
				return nil, getErr
			}
			if !fresh.IsAvailable() {
				uc.logger.Warn("CreateBooking: slot id=%d claimed by another booking", slot.ID)
				return nil, ErrSlotUnavailable
			}
			continue

		case errors.Is(err, bookingRepo.ErrActiveBookingExists):
			uc.metrics.ObserveClaimConflict(claimOperation)
			uc.logger.Warn("CreateBooking: slot id=%d already has an active booking", slot.ID)
			return nil, ErrSlotUnavailable

		default:
			uc.logger.Error("CreateBooking: transaction failed: %v", err)
			return nil, fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d ref=%s", result.ID, result.Reference)

	uc.cache.Invalidate(ctx, slot.Date)
	uc.metrics.ObserveBookingCreated(string(result.Status))
	uc.publisher.Publish(ctx, events.Event{
		Type:       events.BookingCreated,
		OccurredAt: now,
		ActorID:    req.Actor.UserID,
		ActorRole:  string(req.Actor.Role),
		BookingID:  ptr.Ptr(result.ID),
		Reference:  ptr.Ptr(result.Reference),
		SlotID:     ptr.Ptr(slot.ID),
		Date:       ptr.Ptr(slot.Date.String()),
		ToStatus:   ptr.Ptr(string(result.Status)),
	})

	// Конвертируем в response
	return &Response{
		ID:              result.ID,
		Reference:       result.Reference,
		SlotID:          slot.ID,
		Date:            slot.Date,
		StartTime:       slot.StartTime,
		DurationMinutes: slot.DurationMinutes,
		Bay:             slot.Bay,
		CustomerID:      result.CustomerID,
		VehicleID:       result.VehicleID,
		Status:          string(result.Status),
		TotalPrice:      result.TotalPrice,
		PaymentStatus:   string(result.PaymentStatus),
		CreatedAt:       result.CreatedAt,
		UpdatedAt:       result.UpdatedAt,
	}, nil
}

// claimAndCreate атомарно переводит слот в booked и сохраняет бронирование
func (uc *UseCase) claimAndCreate(ctx context.Context, booking *domain.Booking, now time.Time) (*domain.Booking, error) {
	var created *domain.Booking

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		claimed, err := uc.slotRepo.Claim(txCtx, booking.SlotID, now)
		if err != nil {
			return err
		}
		if !claimed {
			return errClaimFailed
		}

		created, err = uc.bookingRepo.Create(txCtx, booking)
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (uc *UseCase) getSlot(ctx context.Context, id int64) (*domain.Slot, error) {
	slot, err := uc.slotRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			uc.logger.Warn("CreateBooking: slot id=%d not found", id)
			return nil, ErrSlotNotFound
		}
		uc.logger.Error("CreateBooking: failed to get slot id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: failed to get slot: %v", ErrInternal, err)
	}
	return slot, nil
}
