package reschedule

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
	requestRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/reschedule"
	slotRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/slot"
	bookingModels "github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/internal/service/policy"
	"github.com/m04kA/SMC-SchedulingService/internal/service/reschedule/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// errClaimFailed запрошенный слот заняли до одобрения
var errClaimFailed = errors.New("requested slot was taken")

// Service процесс переноса: запрос клиента и решение администратора
type Service struct {
	bookingRepo BookingRepository
	slotRepo    SlotRepository
	requestRepo RequestRepository
	policies    PolicyProvider
	txManager   TransactionManager
	cache       AvailabilityCache
	publisher   EventPublisher
	metrics     Metrics
	clock       TimeProvider
	location    *time.Location
	staleAfter  time.Duration
	logger      Logger
}

// NewService создает новый экземпляр сервиса переносов.
// staleAfter - возраст, после которого открытый запрос считается зависшим.
func NewService(
	bookingRepo BookingRepository,
	slotRepo SlotRepository,
	requestRepo RequestRepository,
	policies PolicyProvider,
	txManager TransactionManager,
	cache AvailabilityCache,
	publisher EventPublisher,
	metrics Metrics,
	clock TimeProvider,
	location *time.Location,
	staleAfter time.Duration,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		slotRepo:    slotRepo,
		requestRepo: requestRepo,
		policies:    policies,
		txManager:   txManager,
		cache:       cache,
		publisher:   publisher,
		metrics:     metrics,
		clock:       clock,
		location:    location,
		staleAfter:  staleAfter,
		logger:      logger,
	}
}

// Propose создаёт запрос на перенос подтверждённого бронирования в другой свободный слот.
// Исходный слот остаётся занятым до решения администратора.
func (s *Service) Propose(ctx context.Context, actor domain.Actor, bookingID int64, req *models.ProposeRequest) (*models.RequestResponse, error) {
	s.logger.Info("Propose: booking id=%d -> slot id=%d by user=%d", bookingID, req.RequestedSlotID, actor.UserID)

	if req.RequestedSlotID <= 0 {
		return nil, fmt.Errorf("%w: requestedSlotId is required", ErrInvalidInput)
	}
	reason, err := normalizeText(req.Reason, domain.MaxReasonLength, "reason")
	if err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("Propose: booking id=%d not found", bookingID)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("Propose: repository error for booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: Propose - repository error: %v", ErrInternal, err)
	}
	if !actor.CanAccess(booking) {
		s.logger.Warn("Propose: access denied for user=%d to booking id=%d", actor.UserID, bookingID)
		return nil, ErrAccessDenied
	}

	next, err := domain.Transition(booking.Status, domain.EventRequestReschedule)
	if err != nil {
		s.logger.Warn("Propose: booking id=%d in status %s", bookingID, booking.Status)
		return nil, fmt.Errorf("%w: status %s", ErrBookingNotReschedulable, booking.Status)
	}

	if req.RequestedSlotID == booking.SlotID {
		return nil, fmt.Errorf("%w: requested slot is the current slot", ErrInvalidInput)
	}

	current, err := s.getSlot(ctx, "Propose", booking.SlotID)
	if err != nil {
		return nil, err
	}
	requested, err := s.getSlot(ctx, "Propose", req.RequestedSlotID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !requested.IsAvailable() || !requested.StartsAt(s.location).After(now) {
		s.logger.Warn("Propose: requested slot id=%d is %s", requested.ID, requested.Status)
		return nil, ErrSlotUnavailable
	}

	policyCfg, err := s.policies.GetPolicy(ctx)
	if err != nil {
		s.logger.Error("Propose: failed to load business policy: %v", err)
		return nil, fmt.Errorf("%w: Propose - load policy: %v", ErrInternal, err)
	}

	if !actor.IsAdmin() {
		if err := checkBookingWindow(requested.Date, requested.StartsAt(s.location), *policyCfg, now.In(s.location)); err != nil {
			s.logger.Warn("Propose: requested slot id=%d outside booking window: %v", requested.ID, err)
			return nil, err
		}
	}

	decision := policy.ForActor(actor, policy.CanReschedule(policy.Subject{
		Booking:   booking,
		SlotStart: current.StartsAt(s.location),
	}, *policyCfg, now))
	if !decision.Allowed {
		s.logger.Warn("Propose: reschedule of booking id=%d refused: %s", bookingID, decision.Reason)
		return nil, fmt.Errorf("%w: %s", ErrRescheduleNotAllowed, decision.Reason)
	}

	var created *domain.RescheduleRequest
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.bookingRepo.UpdateStatus(ctx, booking.ID, booking.Status, next, reason, now); err != nil {
			return err
		}

		var err error
		created, err = s.requestRepo.Create(ctx, &domain.RescheduleRequest{
			BookingID:       booking.ID,
			OriginalSlotID:  booking.SlotID,
			RequestedSlotID: requested.ID,
			Reason:          reason,
			Status:          domain.ReschedulePending,
			FeeAmount:       decision.FeeAmount,
			RequestedAt:     now,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, bookingRepo.ErrStatusChanged) || errors.Is(err, requestRepo.ErrPendingRequestExists) {
			s.logger.Warn("Propose: booking id=%d changed concurrently: %v", bookingID, err)
			return nil, fmt.Errorf("%w: booking changed concurrently", ErrBookingNotReschedulable)
		}
		s.logger.Error("Propose: transaction failed for booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: Propose - transaction error: %v", ErrInternal, err)
	}

	s.metrics.ObserveTransition(string(booking.Status), string(next))

	ev := s.newEvent(events.RescheduleRequested, actor, created, booking)
	ev.FromStatus = ptr.Ptr(string(booking.Status))
	ev.ToStatus = ptr.Ptr(string(next))
	ev.Reason = reason
	if decision.FeeAmount > 0 {
		ev.FeeAmount = ptr.Ptr(decision.FeeAmount)
	}
	s.publisher.Publish(ctx, ev)

	s.logger.Info("Propose: created request id=%d for booking id=%d, fee=%d", created.ID, bookingID, decision.FeeAmount)
	resp := models.FromDomainRequest(created)
	return &resp, nil
}

// Approve одобряет перенос: в одной транзакции закрывает запрос, занимает новый слот,
// освобождает старый и переводит бронирование обратно в confirmed.
// Если новый слот уже занят, ничего не меняется и запрос остаётся открытым.
func (s *Service) Approve(ctx context.Context, actor domain.Actor, requestID int64, req *models.DecisionRequest) (*models.DecisionResponse, error) {
	s.logger.Info("Approve: request id=%d by user=%d", requestID, actor.UserID)

	notes, err := normalizeText(req.AdminNotes, domain.MaxAdminNotesLength, "adminNotes")
	if err != nil {
		return nil, err
	}

	request, booking, err := s.loadPending(ctx, "Approve", requestID)
	if err != nil {
		return nil, err
	}

	approved, err := domain.Transition(booking.Status, domain.EventApproveReschedule)
	if err != nil {
		s.logger.Error("Approve: booking id=%d in status %s for pending request id=%d", booking.ID, booking.Status, requestID)
		return nil, fmt.Errorf("%w: %v", ErrBookingNotReschedulable, err)
	}
	final, err := domain.Transition(approved, domain.EventResume)
	if err != nil {
		return nil, fmt.Errorf("%w: Approve - %v", ErrInternal, err)
	}

	original, err := s.getSlot(ctx, "Approve", request.OriginalSlotID)
	if err != nil {
		return nil, err
	}
	requested, err := s.getSlot(ctx, "Approve", request.RequestedSlotID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !requested.StartsAt(s.location).After(now) {
		s.logger.Warn("Approve: requested slot id=%d already started", requested.ID)
		return nil, ErrSlotUnavailable
	}

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.requestRepo.Resolve(ctx, requestID, domain.RescheduleApproved, ptr.Ptr(actor.UserID), notes, now); err != nil {
			return err
		}

		claimed, err := s.slotRepo.Claim(ctx, requested.ID, now)
		if err != nil {
			return err
		}
		if !claimed {
			return errClaimFailed
		}

		released, err := s.slotRepo.Release(ctx, original.ID, now)
		if err != nil {
			return err
		}
		if !released {
			return fmt.Errorf("original slot id=%d was not booked", original.ID)
		}

		return s.bookingRepo.MoveToSlot(ctx, booking.ID, booking.Status, requested.ID, request.FeeAmount, notes, now)
	})
	if err != nil {
		switch {
		case errors.Is(err, errClaimFailed):
			s.metrics.ObserveClaimConflict("reschedule")
			s.logger.Warn("Approve: requested slot id=%d is no longer available", requested.ID)
			return nil, ErrSlotUnavailable
		case errors.Is(err, requestRepo.ErrRequestNotPending), errors.Is(err, bookingRepo.ErrStatusChanged):
			s.logger.Warn("Approve: request id=%d resolved concurrently", requestID)
			return nil, ErrRequestNotPending
		default:
			s.logger.Error("Approve: transaction failed for request id=%d: %v", requestID, err)
			return nil, fmt.Errorf("%w: Approve - transaction error: %v", ErrInternal, err)
		}
	}

	s.cache.Invalidate(ctx, original.Date, requested.Date)
	s.metrics.ObserveRescheduleDecision(string(domain.RescheduleApproved))
	s.metrics.ObserveTransition(string(booking.Status), string(final))

	request.Status = domain.RescheduleApproved
	ev := s.newEvent(events.RescheduleApproved, actor, request, booking)
	ev.SlotID = ptr.Ptr(requested.ID)
	ev.FromStatus = ptr.Ptr(string(booking.Status))
	ev.ToStatus = ptr.Ptr(string(final))
	if request.FeeAmount > 0 {
		ev.FeeAmount = ptr.Ptr(request.FeeAmount)
	}
	s.publisher.Publish(ctx, ev)

	s.logger.Info("Approve: booking id=%d moved from slot id=%d to slot id=%d", booking.ID, original.ID, requested.ID)
	return s.decisionResponse(ctx, "Approve", requestID, booking.ID)
}

// Decline отклоняет перенос: бронирование остаётся в исходном слоте и снова подтверждено
func (s *Service) Decline(ctx context.Context, actor domain.Actor, requestID int64, req *models.DecisionRequest) (*models.DecisionResponse, error) {
	s.logger.Info("Decline: request id=%d by user=%d", requestID, actor.UserID)

	notes, err := normalizeText(req.AdminNotes, domain.MaxAdminNotesLength, "adminNotes")
	if err != nil {
		return nil, err
	}

	request, booking, err := s.loadPending(ctx, "Decline", requestID)
	if err != nil {
		return nil, err
	}

	final, err := s.close(ctx, request, booking, domain.RescheduleDeclined, ptr.Ptr(actor.UserID), notes)
	if err != nil {
		if errors.Is(err, requestRepo.ErrRequestNotPending) || errors.Is(err, bookingRepo.ErrStatusChanged) {
			s.logger.Warn("Decline: request id=%d resolved concurrently", requestID)
			return nil, ErrRequestNotPending
		}
		s.logger.Error("Decline: failed for request id=%d: %v", requestID, err)
		return nil, fmt.Errorf("%w: Decline - %v", ErrInternal, err)
	}

	s.metrics.ObserveRescheduleDecision(string(domain.RescheduleDeclined))
	s.metrics.ObserveTransition(string(booking.Status), string(final))

	request.Status = domain.RescheduleDeclined
	ev := s.newEvent(events.RescheduleDeclined, actor, request, booking)
	ev.FromStatus = ptr.Ptr(string(booking.Status))
	ev.ToStatus = ptr.Ptr(string(final))
	s.publisher.Publish(ctx, ev)

	return s.decisionResponse(ctx, "Decline", requestID, booking.ID)
}

// ExpireStale закрывает открытые запросы старше заданного возраста.
// Бронирования возвращаются в confirmed в исходном слоте.
func (s *Service) ExpireStale(ctx context.Context, actor domain.Actor, req *models.ExpireRequest) (*models.ExpireResponse, error) {
	olderThan := s.staleAfter
	if req.OlderThanHours != nil {
		if *req.OlderThanHours <= 0 {
			return nil, fmt.Errorf("%w: olderThanHours must be positive", ErrInvalidInput)
		}
		olderThan = time.Duration(*req.OlderThanHours) * time.Hour
	}

	cutoff := s.clock.Now().Add(-olderThan)
	s.logger.Info("ExpireStale: expiring requests created before %s by user=%d", cutoff.Format(time.RFC3339), actor.UserID)

	pending, err := s.requestRepo.ListPendingBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("ExpireStale: repository error: %v", err)
		return nil, fmt.Errorf("%w: ExpireStale - repository error: %v", ErrInternal, err)
	}

	expired := 0
	for _, request := range pending {
		booking, err := s.bookingRepo.GetByID(ctx, request.BookingID)
		if err != nil {
			s.logger.Error("ExpireStale: failed to load booking id=%d: %v", request.BookingID, err)
			return nil, fmt.Errorf("%w: ExpireStale - load booking: %v", ErrInternal, err)
		}

		final, err := s.close(ctx, request, booking, domain.RescheduleExpired, nil, nil)
		if err != nil {
			if errors.Is(err, requestRepo.ErrRequestNotPending) || errors.Is(err, bookingRepo.ErrStatusChanged) {
				s.logger.Warn("ExpireStale: request id=%d resolved concurrently, skipping", request.ID)
				continue
			}
			s.logger.Error("ExpireStale: failed for request id=%d: %v", request.ID, err)
			return nil, fmt.Errorf("%w: ExpireStale - %v", ErrInternal, err)
		}

		expired++
		s.metrics.ObserveRescheduleDecision(string(domain.RescheduleExpired))
		s.metrics.ObserveTransition(string(booking.Status), string(final))

		request.Status = domain.RescheduleExpired
		ev := s.newEvent(events.RescheduleExpired, actor, request, booking)
		ev.FromStatus = ptr.Ptr(string(booking.Status))
		ev.ToStatus = ptr.Ptr(string(final))
		s.publisher.Publish(ctx, ev)
	}

	s.logger.Info("ExpireStale: expired %d of %d requests", expired, len(pending))
	return &models.ExpireResponse{Expired: expired}, nil
}

// List запросы на перенос, опционально по статусу
func (s *Service) List(ctx context.Context, status *string) (*models.RequestListResponse, error) {
	var filter *domain.RescheduleStatus
	if status != nil {
		st := domain.RescheduleStatus(*status)
		if !st.IsValid() {
			return nil, fmt.Errorf("%w: unknown request status %q", ErrInvalidInput, *status)
		}
		filter = &st
	}

	requests, err := s.requestRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainRequestList(requests), nil
}

// close закрывает запрос без переноса: declined или expired.
// Бронирование проходит reschedule_declined и сразу возвращается в confirmed.
func (s *Service) close(
	ctx context.Context,
	request *domain.RescheduleRequest,
	booking *domain.Booking,
	outcome domain.RescheduleStatus,
	respondedBy *int64,
	notes *string,
) (domain.BookingStatus, error) {
	declined, err := domain.Transition(booking.Status, domain.EventDeclineReschedule)
	if err != nil {
		return "", err
	}
	final, err := domain.Transition(declined, domain.EventResume)
	if err != nil {
		return "", err
	}

	now := s.clock.Now()
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.requestRepo.Resolve(ctx, request.ID, outcome, respondedBy, notes, now); err != nil {
			return err
		}
		return s.bookingRepo.UpdateStatus(ctx, booking.ID, booking.Status, final, notes, now)
	})
	if err != nil {
		return "", err
	}

	return final, nil
}

func (s *Service) loadPending(ctx context.Context, op string, requestID int64) (*domain.RescheduleRequest, *domain.Booking, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, requestRepo.ErrRequestNotFound) {
			s.logger.Warn("%s: request id=%d not found", op, requestID)
			return nil, nil, ErrRequestNotFound
		}
		s.logger.Error("%s: repository error for request id=%d: %v", op, requestID, err)
		return nil, nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	if !request.IsPending() {
		s.logger.Warn("%s: request id=%d is %s", op, requestID, request.Status)
		return nil, nil, ErrRequestNotPending
	}

	booking, err := s.bookingRepo.GetByID(ctx, request.BookingID)
	if err != nil {
		s.logger.Error("%s: failed to load booking id=%d: %v", op, request.BookingID, err)
		return nil, nil, fmt.Errorf("%w: %s - load booking: %v", ErrInternal, op, err)
	}

	return request, booking, nil
}

func (s *Service) decisionResponse(ctx context.Context, op string, requestID, bookingID int64) (*models.DecisionResponse, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		s.logger.Error("%s: failed to reload request id=%d: %v", op, requestID, err)
		return nil, fmt.Errorf("%w: %s - reload request: %v", ErrInternal, op, err)
	}
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		s.logger.Error("%s: failed to reload booking id=%d: %v", op, bookingID, err)
		return nil, fmt.Errorf("%w: %s - reload booking: %v", ErrInternal, op, err)
	}

	return &models.DecisionResponse{
		Request: models.FromDomainRequest(request),
		Booking: bookingModels.FromDomainBooking(booking),
	}, nil
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

func (s *Service) newEvent(t events.Type, actor domain.Actor, request *domain.RescheduleRequest, booking *domain.Booking) events.Event {
	return events.Event{
		Type:       t,
		OccurredAt: s.clock.Now(),
		ActorID:    actor.UserID,
		ActorRole:  string(actor.Role),
		BookingID:  ptr.Ptr(booking.ID),
		Reference:  ptr.Ptr(booking.Reference),
		SlotID:     ptr.Ptr(request.RequestedSlotID),
		RequestID:  ptr.Ptr(request.ID),
	}
}

// checkBookingWindow новый слот клиента подчиняется тем же ограничениям, что и новая запись.
// now должен быть во временной зоне бизнеса.
func checkBookingWindow(date types.Date, start time.Time, p domain.BusinessPolicy, now time.Time) error {
	notice := time.Duration(p.MinBookingNoticeMinutes) * time.Minute
	if start.Sub(now) < notice {
		return fmt.Errorf("%w: less than %d minutes before start", ErrSlotUnavailable, p.MinBookingNoticeMinutes)
	}
	if !p.WithinAdvanceLimit(date, types.NewDate(now)) {
		return fmt.Errorf("%w: more than %d days ahead", ErrSlotUnavailable, p.AdvanceBookingDays)
	}
	return nil
}

func normalizeText(value *string, maxLen int, field string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > maxLen {
		return nil, fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidInput, field, maxLen)
	}
	return &trimmed, nil
}
