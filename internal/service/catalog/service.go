package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/events"
	slotRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-SchedulingService/internal/service/catalog/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Service каталог слотов: генерация по шаблону, ручные слоты, блокировки и доступность
type Service struct {
	slotRepo  SlotRepository
	templates TemplateProvider
	cache     AvailabilityCache
	publisher EventPublisher
	metrics   Metrics
	clock     TimeProvider
	location  *time.Location
	logger    Logger
}

// NewService создает новый экземпляр каталога слотов
func NewService(
	slotRepo SlotRepository,
	templates TemplateProvider,
	cache AvailabilityCache,
	publisher EventPublisher,
	metrics Metrics,
	clock TimeProvider,
	location *time.Location,
	logger Logger,
) *Service {
	return &Service{
		slotRepo:  slotRepo,
		templates: templates,
		cache:     cache,
		publisher: publisher,
		metrics:   metrics,
		clock:     clock,
		location:  location,
		logger:    logger,
	}
}

// today текущая дата во временной зоне бизнеса
func (s *Service) today() types.Date {
	return types.NewDate(s.clock.Now().In(s.location))
}

// GenerateForDate материализует слоты на дату по недельному шаблону.
// Повторный вызов для той же даты ничего не создаёт и возвращает уже существующие слоты шаблона.
func (s *Service) GenerateForDate(ctx context.Context, actor domain.Actor, date types.Date) (*models.GenerateResponse, error) {
	s.logger.Info("GenerateForDate: generating slots for date=%s by user=%d", date, actor.UserID)

	if date.Before(s.today()) {
		s.logger.Warn("GenerateForDate: date=%s is in the past", date)
		return nil, fmt.Errorf("%w: cannot generate slots for past date %s", ErrInvalidRange, date)
	}

	template, err := s.templates.GetWeeklyTemplate(ctx)
	if err != nil {
		s.logger.Error("GenerateForDate: failed to load weekly template: %v", err)
		return nil, fmt.Errorf("%w: GenerateForDate - load template: %v", ErrInternal, err)
	}

	slots, created, err := s.generate(ctx, template, date)
	if err != nil {
		return nil, err
	}

	s.afterGenerate(ctx, actor, date, created)

	s.logger.Info("GenerateForDate: date=%s created=%d total=%d", date, created, len(slots))
	return &models.GenerateResponse{
		StartDate: date.String(),
		EndDate:   date.String(),
		Created:   created,
		Slots:     models.FromDomainSlotList(slots).Slots,
	}, nil
}

// GenerateForRange генерация за период [startDate, endDate] включительно
func (s *Service) GenerateForRange(ctx context.Context, actor domain.Actor, req *models.GenerateRangeRequest) (*models.GenerateResponse, error) {
	s.logger.Info("GenerateForRange: generating slots for %s..%s by user=%d", req.StartDate, req.EndDate, actor.UserID)

	start, err := types.ParseDate(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: startDate: %v", ErrInvalidRange, err)
	}
	end, err := types.ParseDate(req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: endDate: %v", ErrInvalidRange, err)
	}

	if end.Before(start) {
		s.logger.Warn("GenerateForRange: end=%s before start=%s", end, start)
		return nil, fmt.Errorf("%w: endDate must not be before startDate", ErrInvalidRange)
	}
	if start.Before(s.today()) {
		return nil, fmt.Errorf("%w: cannot generate slots for past date %s", ErrInvalidRange, start)
	}
	if end.After(start.AddDays(domain.MaxGenerateRangeDays - 1)) {
		return nil, fmt.Errorf("%w: range exceeds %d days", ErrInvalidRange, domain.MaxGenerateRangeDays)
	}

	template, err := s.templates.GetWeeklyTemplate(ctx)
	if err != nil {
		s.logger.Error("GenerateForRange: failed to load weekly template: %v", err)
		return nil, fmt.Errorf("%w: GenerateForRange - load template: %v", ErrInternal, err)
	}

	all := make([]*domain.Slot, 0)
	total := 0
	for date := start; !date.After(end); date = date.AddDays(1) {
		slots, created, err := s.generate(ctx, template, date)
		if err != nil {
			return nil, err
		}
		s.afterGenerate(ctx, actor, date, created)
		all = append(all, slots...)
		total += created
	}

	s.logger.Info("GenerateForRange: %s..%s created=%d total=%d", start, end, total, len(all))
	return &models.GenerateResponse{
		StartDate: start.String(),
		EndDate:   end.String(),
		Created:   total,
		Slots:     models.FromDomainSlotList(all).Slots,
	}, nil
}

func (s *Service) generate(ctx context.Context, template *domain.WeeklyTemplate, date types.Date) ([]*domain.Slot, int, error) {
	source := domain.SlotSourceTemplate

	existing, err := s.slotRepo.ListByDate(ctx, date, nil, &source)
	if err != nil {
		s.logger.Error("generate: failed to list slots for date=%s: %v", date, err)
		return nil, 0, fmt.Errorf("%w: generate - list slots: %v", ErrInternal, err)
	}
	if len(existing) > 0 {
		return existing, 0, nil
	}

	day := template.ForDate(date)
	times, err := day.SlotTimes()
	if err != nil {
		s.logger.Warn("generate: template for %s is invalid: %v", date.Weekday(), err)
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	if len(times) == 0 {
		return []*domain.Slot{}, 0, nil
	}

	now := s.clock.Now()
	slots := make([]*domain.Slot, 0, len(times)*day.MaxBookingsPerSlot)
	for _, start := range times {
		for bay := 1; bay <= day.MaxBookingsPerSlot; bay++ {
			slots = append(slots, &domain.Slot{
				Date:            date,
				StartTime:       start,
				DurationMinutes: day.SlotDurationMinutes,
				Bay:             bay,
				Status:          domain.SlotAvailable,
				Source:          domain.SlotSourceTemplate,
				CreatedAt:       now,
				UpdatedAt:       now,
			})
		}
	}

	inserted, err := s.slotRepo.CreateMissing(ctx, slots)
	if err != nil {
		s.logger.Error("generate: failed to insert slots for date=%s: %v", date, err)
		return nil, 0, fmt.Errorf("%w: generate - insert slots: %v", ErrInternal, err)
	}

	created, err := s.slotRepo.ListByDate(ctx, date, nil, &source)
	if err != nil {
		s.logger.Error("generate: failed to reload slots for date=%s: %v", date, err)
		return nil, 0, fmt.Errorf("%w: generate - reload slots: %v", ErrInternal, err)
	}

	return created, int(inserted), nil
}

func (s *Service) afterGenerate(ctx context.Context, actor domain.Actor, date types.Date, created int) {
	if created == 0 {
		return
	}
	s.cache.Invalidate(ctx, date)
	s.metrics.ObserveSlotsGenerated(string(domain.SlotSourceTemplate), created)

	event := s.newEvent(events.SlotsGenerated, actor)
	event.Date = ptr.Ptr(date.String())
	event.Count = ptr.Ptr(created)
	s.publisher.Publish(ctx, event)
}

// ListAvailable свободные слоты на дату в порядке времени начала.
// Читает через кэш; фильтрация по политике записи выполняется вызывающим.
// Результат попадает в кэш, только если дату не инвалидировали во время чтения.
func (s *Service) ListAvailable(ctx context.Context, date types.Date) ([]*domain.Slot, error) {
	if slots, ok := s.cache.Get(ctx, date); ok {
		return slots, nil
	}

	version, cacheable := s.cache.Version(ctx, date)

	status := domain.SlotAvailable
	slots, err := s.slotRepo.ListByDate(ctx, date, &status, nil)
	if err != nil {
		s.logger.Error("ListAvailable: repository error for date=%s: %v", date, err)
		return nil, fmt.Errorf("%w: ListAvailable - repository error: %v", ErrInternal, err)
	}

	if cacheable {
		s.cache.Set(ctx, date, version, slots)
	}
	return slots, nil
}

// ListByDate все слоты даты для администратора, опционально с фильтром по статусу
func (s *Service) ListByDate(ctx context.Context, date types.Date, status *string) (*models.SlotListResponse, error) {
	var filter *domain.SlotStatus
	if status != nil {
		st := domain.SlotStatus(*status)
		if !st.IsValid() {
			return nil, fmt.Errorf("%w: unknown slot status %q", ErrInvalidInput, *status)
		}
		filter = &st
	}

	slots, err := s.slotRepo.ListByDate(ctx, date, filter, nil)
	if err != nil {
		s.logger.Error("ListByDate: repository error for date=%s: %v", date, err)
		return nil, fmt.Errorf("%w: ListByDate - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainSlotList(slots), nil
}

// GetSlot получает слот по ID
func (s *Service) GetSlot(ctx context.Context, id int64) (*models.SlotResponse, error) {
	slot, err := s.getSlot(ctx, "GetSlot", id)
	if err != nil {
		return nil, err
	}
	resp := models.FromDomainSlot(slot)
	return &resp, nil
}

// CreateSlot добавляет слот вне шаблона. Бокс назначается следующим свободным номером
// для той же даты и времени, поэтому совпадать может только точная копия.
func (s *Service) CreateSlot(ctx context.Context, actor domain.Actor, req *models.CreateSlotRequest) (*models.SlotResponse, error) {
	s.logger.Info("CreateSlot: creating slot date=%s start=%s duration=%d by user=%d",
		req.Date, req.StartTime, req.DurationMinutes, actor.UserID)

	date, err := types.ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	start, err := types.NewTimeStringFromString(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if req.DurationMinutes < domain.MinSlotDurationMinutes || req.DurationMinutes > domain.MaxSlotDurationMinutes {
		return nil, fmt.Errorf("%w: duration must be between %d and %d minutes",
			ErrInvalidTemplate, domain.MinSlotDurationMinutes, domain.MaxSlotDurationMinutes)
	}
	if _, err := start.AddMinutes(req.DurationMinutes); err != nil {
		return nil, fmt.Errorf("%w: slot must end within the day", ErrInvalidTemplate)
	}

	now := s.clock.Now()
	if !start.On(date, s.location).After(now) {
		s.logger.Warn("CreateSlot: slot %s %s is in the past", date, start)
		return nil, fmt.Errorf("%w: slot start is in the past", ErrInvalidTemplate)
	}

	bay, err := s.slotRepo.NextBay(ctx, date, start)
	if err != nil {
		s.logger.Error("CreateSlot: failed to pick bay: %v", err)
		return nil, fmt.Errorf("%w: CreateSlot - next bay: %v", ErrInternal, err)
	}

	slot, err := s.slotRepo.Create(ctx, &domain.Slot{
		Date:            date,
		StartTime:       start,
		DurationMinutes: req.DurationMinutes,
		Bay:             bay,
		Status:          domain.SlotAvailable,
		Source:          domain.SlotSourceManual,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotAlreadyExists) {
			s.logger.Warn("CreateSlot: slot %s %s bay=%d already exists", date, start, bay)
			return nil, ErrSlotAlreadyExists
		}
		s.logger.Error("CreateSlot: repository error: %v", err)
		return nil, fmt.Errorf("%w: CreateSlot - repository error: %v", ErrInternal, err)
	}

	s.cache.Invalidate(ctx, date)
	s.metrics.ObserveSlotsGenerated(string(domain.SlotSourceManual), 1)

	event := s.newEvent(events.SlotCreated, actor)
	event.SlotID = ptr.Ptr(slot.ID)
	event.Date = ptr.Ptr(date.String())
	s.publisher.Publish(ctx, event)

	s.logger.Info("CreateSlot: created slot id=%d", slot.ID)
	resp := models.FromDomainSlot(slot)
	return &resp, nil
}

// Block снимает свободный слот с продажи. Повторная блокировка ничего не меняет.
func (s *Service) Block(ctx context.Context, actor domain.Actor, id int64, req *models.BlockSlotRequest) (*models.SlotResponse, error) {
	s.logger.Info("Block: blocking slot id=%d by user=%d", id, actor.UserID)

	reason := strings.TrimSpace(req.Reason)
	if utf8.RuneCountInString(reason) > domain.MaxReasonLength {
		return nil, fmt.Errorf("%w: reason is too long", ErrInvalidInput)
	}

	slot, err := s.getSlot(ctx, "Block", id)
	if err != nil {
		return nil, err
	}
	if slot.IsBlocked() {
		resp := models.FromDomainSlot(slot)
		return &resp, nil
	}
	if slot.IsBooked() {
		s.logger.Warn("Block: slot id=%d is booked", id)
		return nil, fmt.Errorf("%w: slot is booked", ErrSlotNotAvailable)
	}

	blocked, err := s.slotRepo.Block(ctx, id, reason, s.clock.Now())
	if err != nil {
		s.logger.Error("Block: repository error for slot id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: Block - repository error: %v", ErrInternal, err)
	}
	if !blocked {
		// слот заняли между чтением и блокировкой
		s.logger.Warn("Block: slot id=%d changed concurrently", id)
		return nil, fmt.Errorf("%w: slot is booked", ErrSlotNotAvailable)
	}

	s.cache.Invalidate(ctx, slot.Date)

	event := s.newEvent(events.SlotBlocked, actor)
	event.SlotID = ptr.Ptr(id)
	event.Date = ptr.Ptr(slot.Date.String())
	if reason != "" {
		event.Reason = ptr.Ptr(reason)
	}
	s.publisher.Publish(ctx, event)

	return s.GetSlot(ctx, id)
}

// Unblock возвращает заблокированный слот в продажу
func (s *Service) Unblock(ctx context.Context, actor domain.Actor, id int64) (*models.SlotResponse, error) {
	s.logger.Info("Unblock: unblocking slot id=%d by user=%d", id, actor.UserID)

	slot, err := s.getSlot(ctx, "Unblock", id)
	if err != nil {
		return nil, err
	}
	if slot.IsAvailable() {
		resp := models.FromDomainSlot(slot)
		return &resp, nil
	}
	if slot.IsBooked() {
		return nil, fmt.Errorf("%w: slot is booked", ErrSlotNotAvailable)
	}

	unblocked, err := s.slotRepo.Unblock(ctx, id, s.clock.Now())
	if err != nil {
		s.logger.Error("Unblock: repository error for slot id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: Unblock - repository error: %v", ErrInternal, err)
	}
	if !unblocked {
		return nil, fmt.Errorf("%w: slot changed concurrently", ErrSlotNotAvailable)
	}

	s.cache.Invalidate(ctx, slot.Date)

	event := s.newEvent(events.SlotUnblocked, actor)
	event.SlotID = ptr.Ptr(id)
	event.Date = ptr.Ptr(slot.Date.String())
	s.publisher.Publish(ctx, event)

	return s.GetSlot(ctx, id)
}

// Delete удаляет свободный слот без истории бронирований
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	s.logger.Info("Delete: deleting slot id=%d by user=%d", id, actor.UserID)

	slot, err := s.getSlot(ctx, "Delete", id)
	if err != nil {
		return err
	}

	deleted, err := s.slotRepo.DeleteUnused(ctx, id)
	if err != nil {
		s.logger.Error("Delete: repository error for slot id=%d: %v", id, err)
		return fmt.Errorf("%w: Delete - repository error: %v", ErrInternal, err)
	}

	if !deleted {
		// слот мог измениться или исчезнуть после первого чтения
		slot, err = s.getSlot(ctx, "Delete", id)
		if err != nil {
			return err
		}

		hasHistory, err := s.slotRepo.HasHistory(ctx, id)
		if err != nil {
			s.logger.Error("Delete: failed to check history for slot id=%d: %v", id, err)
			return fmt.Errorf("%w: Delete - check history: %v", ErrInternal, err)
		}
		if hasHistory || slot.IsBooked() {
			s.logger.Warn("Delete: slot id=%d has bookings", id)
			return ErrSlotHasBooking
		}
		s.logger.Warn("Delete: slot id=%d is %s", id, slot.Status)
		return fmt.Errorf("%w: slot is %s", ErrSlotNotAvailable, slot.Status)
	}

	s.cache.Invalidate(ctx, slot.Date)

	event := s.newEvent(events.SlotDeleted, actor)
	event.SlotID = ptr.Ptr(id)
	event.Date = ptr.Ptr(slot.Date.String())
	s.publisher.Publish(ctx, event)

	s.logger.Info("Delete: slot id=%d deleted", id)
	return nil
}

func (s *Service) getSlot(ctx context.Context, op string, id int64) (*domain.Slot, error) {
	slot, err := s.slotRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			s.logger.Warn("%s: slot id=%d not found", op, id)
			return nil, ErrSlotNotFound
		}
		s.logger.Error("%s: repository error for slot id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	return slot, nil
}

func (s *Service) newEvent(t events.Type, actor domain.Actor) events.Event {
	return events.Event{
		Type:       t,
		OccurredAt: s.clock.Now(),
		ActorID:    actor.UserID,
		ActorRole:  string(actor.Role),
	}
}
