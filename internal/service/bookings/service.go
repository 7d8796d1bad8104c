package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/events"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	slotRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/internal/service/policy"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

// Service сервис для работы с бронированиями: чтение, смена статуса, отмена
type Service struct {
	bookingRepo BookingRepository
	slotRepo    SlotRepository
	policies    PolicyProvider
	txManager   TransactionManager
	cache       AvailabilityCache
	publisher   EventPublisher
	metrics     Metrics
	clock       TimeProvider
	location    *time.Location
	logger      Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	slotRepo SlotRepository,
	policies PolicyProvider,
	txManager TransactionManager,
	cache AvailabilityCache,
	publisher EventPublisher,
	metrics Metrics,
	clock TimeProvider,
	location *time.Location,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		slotRepo:    slotRepo,
		policies:    policies,
		txManager:   txManager,
		cache:       cache,
		publisher:   publisher,
		metrics:     metrics,
		clock:       clock,
		location:    location,
		logger:      logger,
	}
}

// GetByID получает бронирование по ID
// Клиент видит только своё бронирование, администратор - любое
func (s *Service) GetByID(ctx context.Context, actor domain.Actor, id int64) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for user=%d", id, actor.UserID)

	booking, err := s.getAccessible(ctx, "GetByID", actor, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("GetByID: successfully fetched booking id=%d", id)
	return models.FromDomainBooking(booking), nil
}

// GetUserBookings получает историю бронирований клиента
// Опционально фильтрует по статусу
func (s *Service) GetUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetUserBookings: fetching bookings for customer=%d, status=%v", req.CustomerID, req.Status)

	var domainStatus *domain.BookingStatus
	if req.Status != nil {
		status, err := models.ToDomainBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("GetUserBookings: invalid status=%s for customer=%d", *req.Status, req.CustomerID)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		domainStatus = &status
	}

	bookings, err := s.bookingRepo.ListByCustomer(ctx, req.CustomerID, domainStatus)
	if err != nil {
		s.logger.Error("GetUserBookings: repository error for customer=%d: %v", req.CustomerID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetUserBookings: successfully fetched %d bookings for customer=%d", len(bookings), req.CustomerID)
	return models.FromDomainBookingList(bookings), nil
}

// GetSlotBookings вся история бронирований слота, от старых к новым
func (s *Service) GetSlotBookings(ctx context.Context, slotID int64) (*models.BookingListResponse, error) {
	s.logger.Info("GetSlotBookings: fetching bookings for slot=%d", slotID)

	if _, err := s.getSlot(ctx, "GetSlotBookings", slotID); err != nil {
		return nil, err
	}

	bookings, err := s.bookingRepo.ListBySlot(ctx, slotID)
	if err != nil {
		s.logger.Error("GetSlotBookings: repository error for slot=%d: %v", slotID, err)
		return nil, fmt.Errorf("%w: GetSlotBookings - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainBookingList(bookings), nil
}

// UpdateStatus переводит бронирование в новый статус по конечному автомату.
// Клиент может только отменить своё бронирование; отмена клиентом проходит проверку политики
// и может начислить штраф. Отмена и завершение освобождают слот в той же транзакции.
func (s *Service) UpdateStatus(ctx context.Context, actor domain.Actor, id int64, req *models.UpdateStatusRequest) (*models.BookingResponse, error) {
	s.logger.Info("UpdateStatus: booking id=%d -> %s by user=%d", id, req.Status, actor.UserID)

	target, err := models.ToDomainBookingStatus(req.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, req.Status)
	}

	reason, err := normalizeReason(req.Reason)
	if err != nil {
		return nil, err
	}

	event, err := domain.EventForTarget(target)
	if err != nil {
		s.logger.Warn("UpdateStatus: status %s cannot be set directly", target)
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}

	if !actor.IsAdmin() && event != domain.EventCancel {
		s.logger.Warn("UpdateStatus: user=%d is not allowed to set %s", actor.UserID, target)
		return nil, ErrAccessDenied
	}

	booking, err := s.getAccessible(ctx, "UpdateStatus", actor, id)
	if err != nil {
		return nil, err
	}

	from := booking.Status
	to, err := domain.Transition(from, event)
	if err != nil {
		s.logger.Warn("UpdateStatus: booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, target)
	}

	slot, err := s.getSlot(ctx, "UpdateStatus", booking.SlotID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var fee int64
	if event == domain.EventCancel {
		policyCfg, err := s.loadPolicy(ctx, "UpdateStatus")
		if err != nil {
			return nil, err
		}

		decision := policy.ForActor(actor, policy.CanCancel(policy.Subject{
			Booking:   booking,
			SlotStart: slot.StartsAt(s.location),
		}, *policyCfg, now))

		if !decision.Allowed {
			s.logger.Warn("UpdateStatus: cancellation of booking id=%d refused: %s", id, decision.Reason)
			return nil, fmt.Errorf("%w: %s", ErrCancellationNotAllowed, decision.Reason)
		}
		fee = decision.FeeAmount
	}

	releases := domain.ReleasesSlot(to)

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		if to == domain.StatusCancelled {
			err = s.bookingRepo.Cancel(ctx, id, from, reason, fee, now)
		} else {
			err = s.bookingRepo.UpdateStatus(ctx, id, from, to, reason, now)
		}
		if err != nil {
			return err
		}

		if !releases {
			return nil
		}

		released, err := s.slotRepo.Release(ctx, booking.SlotID, now)
		if err != nil {
			return err
		}
		if !released {
			return fmt.Errorf("slot id=%d was not booked", booking.SlotID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, bookingRepo.ErrStatusChanged) {
			s.logger.Warn("UpdateStatus: booking id=%d changed concurrently", id)
			return nil, fmt.Errorf("%w: booking status changed concurrently", ErrInvalidTransition)
		}
		s.logger.Error("UpdateStatus: transaction failed for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: UpdateStatus - transaction error: %v", ErrInternal, err)
	}

	if releases {
		s.cache.Invalidate(ctx, slot.Date)
	}
	s.metrics.ObserveTransition(string(from), string(to))

	evType := events.BookingStatusChanged
	if to == domain.StatusCancelled {
		evType = events.BookingCancelled
	}
	ev := events.Event{
		Type:       evType,
		OccurredAt: now,
		ActorID:    actor.UserID,
		ActorRole:  string(actor.Role),
		BookingID:  ptr.Ptr(id),
		Reference:  ptr.Ptr(booking.Reference),
		SlotID:     ptr.Ptr(booking.SlotID),
		FromStatus: ptr.Ptr(string(from)),
		ToStatus:   ptr.Ptr(string(to)),
		Reason:     reason,
	}
	if fee > 0 {
		ev.FeeAmount = ptr.Ptr(fee)
	}
	s.publisher.Publish(ctx, ev)

	updated, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("UpdateStatus: failed to reload booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: UpdateStatus - reload booking: %v", ErrInternal, err)
	}

	s.logger.Info("UpdateStatus: booking id=%d %s -> %s, fee=%d", id, from, to, fee)
	return models.FromDomainBooking(updated), nil
}

// GetPolicyQuote сколько сейчас стоит отмена и перенос бронирования для этого пользователя
func (s *Service) GetPolicyQuote(ctx context.Context, actor domain.Actor, id int64) (*models.PolicyQuoteResponse, error) {
	booking, err := s.getAccessible(ctx, "GetPolicyQuote", actor, id)
	if err != nil {
		return nil, err
	}

	slot, err := s.getSlot(ctx, "GetPolicyQuote", booking.SlotID)
	if err != nil {
		return nil, err
	}

	policyCfg, err := s.loadPolicy(ctx, "GetPolicyQuote")
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	subject := policy.Subject{Booking: booking, SlotStart: slot.StartsAt(s.location)}
	cancel := policy.ForActor(actor, policy.CanCancel(subject, *policyCfg, now))
	reschedule := policy.ForActor(actor, policy.CanReschedule(subject, *policyCfg, now))

	return &models.PolicyQuoteResponse{
		BookingID:    booking.ID,
		SlotStartsAt: subject.SlotStart,
		Cancel:       toDecisionResponse(cancel),
		Reschedule:   toDecisionResponse(reschedule),
	}, nil
}

func toDecisionResponse(d policy.Decision) models.DecisionResponse {
	return models.DecisionResponse{Allowed: d.Allowed, FeeAmount: d.FeeAmount, Reason: d.Reason}
}

// getAccessible загружает бронирование и проверяет права доступа
func (s *Service) getAccessible(ctx context.Context, op string, actor domain.Actor, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%d not found", op, id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("%s: repository error for booking id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}

	if !actor.CanAccess(booking) {
		s.logger.Warn("%s: access denied for user=%d to booking id=%d", op, actor.UserID, id)
		return nil, ErrAccessDenied
	}

	return booking, nil
}

func (s *Service) getSlot(ctx context.Context, op string, id int64) (*domain.Slot, error) {
	slot, err := s.slotRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			s.logger.Warn("%s: slot id=%d not found", op, id)
			return nil, ErrSlotNotFound
		}
		s.logger.Error("%s: repository error for slot id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - slot repository error: %v", ErrInternal, op, err)
	}
	return slot, nil
}

func (s *Service) loadPolicy(ctx context.Context, op string) (*domain.BusinessPolicy, error) {
	p, err := s.policies.GetPolicy(ctx)
	if err != nil {
		s.logger.Error("%s: failed to load business policy: %v", op, err)
		return nil, fmt.Errorf("%w: %s - load policy: %v", ErrInternal, op, err)
	}
	return p, nil
}

func normalizeReason(reason *string) (*string, error) {
	if reason == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*reason)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > domain.MaxReasonLength {
		return nil, fmt.Errorf("%w: reason exceeds %d characters", ErrInvalidInput, domain.MaxReasonLength)
	}
	return &trimmed, nil
}
