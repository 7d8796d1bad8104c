package create_booking

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/cache/availability"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/events"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/settings"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/storagetest"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings"
	bookingModels "github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-SchedulingService/pkg/clock"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

var (
	now    = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	monday = types.MustDate("2026-10-19")

	admin    = domain.Actor{UserID: 1, Role: domain.RoleAdmin}
	customer = domain.Actor{UserID: 7, Role: domain.RoleCustomer}
)

type fixture struct {
	uc       *UseCase
	slots    *slot.Repository
	bookings *booking.Repository
	settings *settings.Repository
	events   *events.Recorder
	clock    *clock.Manual
	store    *storagetest.Store
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := storagetest.New(t)

	f := &fixture{
		slots:    slot.NewRepository(store.DB, store.Builder),
		bookings: booking.NewRepository(store.DB, store.Builder),
		settings: settings.NewRepository(store.DB, store.Builder),
		events:   &events.Recorder{},
		clock:    clock.NewManual(now),
		store:    store,
	}
	f.uc = NewUseCase(
		f.bookings,
		f.slots,
		f.settings,
		store.TxManager,
		availability.Nop{},
		f.events,
		(*metrics.Metrics)(nil),
		f.clock,
		time.UTC,
		logger.NewNop(),
	)
	return f
}

// slot создаёт свободный слот на заданную дату и время
func (f *fixture) slot(t *testing.T, date types.Date, start string) *domain.Slot {
	t.Helper()
	s, err := f.slots.Create(context.Background(), &domain.Slot{
		Date:            date,
		StartTime:       types.MustTimeString(start),
		DurationMinutes: 120,
		Bay:             1,
		Status:          domain.SlotAvailable,
		Source:          domain.SlotSourceManual,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	require.NoError(t, err)
	return s
}

func (f *fixture) slotStatus(t *testing.T, id int64) domain.SlotStatus {
	t.Helper()
	s, err := f.slots.GetByID(context.Background(), id)
	require.NoError(t, err)
	return s.Status
}

func TestExecute_CustomerBooksSlot(t *testing.T) {
	f := setup(t)
	s := f.slot(t, monday, "10:00")

	resp, err := f.uc.Execute(context.Background(), &Request{
		Actor:      customer,
		SlotID:     s.ID,
		VehicleID:  70,
		TotalPrice: 5000,
	})
	require.NoError(t, err)

	assert.Regexp(t, `^DT-[0-9A-F]{8}$`, resp.Reference)
	assert.Equal(t, customer.UserID, resp.CustomerID)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "unpaid", resp.PaymentStatus)
	assert.Equal(t, "10:00", resp.StartTime.String())
	assert.Equal(t, domain.SlotBooked, f.slotStatus(t, s.ID))

	published := f.events.Events()
	require.Len(t, published, 1)
	assert.Equal(t, events.BookingCreated, published[0].Type)
	assert.Equal(t, resp.ID, *published[0].BookingID)
	assert.Equal(t, "2026-10-19", *published[0].Date)
}

func TestExecute_AdminBooksForCustomerConfirmed(t *testing.T) {
	f := setup(t)
	s := f.slot(t, monday, "10:00")

	resp, err := f.uc.Execute(context.Background(), &Request{
		Actor:              admin,
		SlotID:             s.ID,
		CustomerID:         customer.UserID,
		VehicleID:          70,
		ConfirmImmediately: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", resp.Status)
	assert.Equal(t, customer.UserID, resp.CustomerID)
}

func TestExecute_AdminIgnoresBookingWindow(t *testing.T) {
	f := setup(t)
	// 30 минут до начала: клиенту нельзя (минимум 60), администратору можно
	s := f.slot(t, types.NewDate(now), "09:30")

	_, err := f.uc.Execute(context.Background(), &Request{Actor: customer, SlotID: s.ID, VehicleID: 70})
	assert.ErrorIs(t, err, ErrTooLateToBook)

	_, err = f.uc.Execute(context.Background(), &Request{
		Actor:      admin,
		SlotID:     s.ID,
		CustomerID: customer.UserID,
		VehicleID:  70,
	})
	require.NoError(t, err)
}

func TestExecute_Rejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p := domain.DefaultPolicy()
	p.AdvanceBookingDays = 14
	require.NoError(t, f.settings.UpdatePolicy(ctx, p, now))

	free := f.slot(t, monday, "10:00")
	past := f.slot(t, types.NewDate(now), "08:00")
	far := f.slot(t, monday.AddDays(30), "10:00")

	blocked := f.slot(t, monday, "12:00")
	_, err := f.slots.Block(ctx, blocked.ID, "maintenance", now)
	require.NoError(t, err)

	tests := []struct {
		name string
		req  Request
		err  error
	}{
		{"missing slot", Request{Actor: customer, SlotID: 9999, VehicleID: 70}, ErrSlotNotFound},
		{"no vehicle", Request{Actor: customer, SlotID: free.ID}, ErrInvalidInput},
		{"negative price", Request{Actor: customer, SlotID: free.ID, VehicleID: 70, TotalPrice: -1}, ErrInvalidInput},
		{"admin without customer", Request{Actor: admin, SlotID: free.ID, VehicleID: 70}, ErrInvalidInput},
		{"customer books for another", Request{Actor: customer, SlotID: free.ID, VehicleID: 70, CustomerID: 99}, ErrAccessDenied},
		{"customer self-confirms", Request{Actor: customer, SlotID: free.ID, VehicleID: 70, ConfirmImmediately: true}, ErrAccessDenied},
		{"past slot", Request{Actor: admin, SlotID: past.ID, VehicleID: 70, CustomerID: 7}, ErrSlotUnavailable},
		{"too far ahead", Request{Actor: customer, SlotID: far.ID, VehicleID: 70}, ErrDateTooFarInFuture},
		{"blocked slot", Request{Actor: customer, SlotID: blocked.ID, VehicleID: 70}, ErrSlotUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.uc.Execute(ctx, &req)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.Equal(t, domain.SlotAvailable, f.slotStatus(t, free.ID))
	assert.Empty(t, f.events.Types())
}

// availableSlots свободные слоты прямо из репозитория, без кэша
type availableSlots struct {
	slots *slot.Repository
}

func (a availableSlots) ListAvailable(ctx context.Context, date types.Date) ([]*domain.Slot, error) {
	status := domain.SlotAvailable
	return a.slots.ListByDate(ctx, date, &status, nil)
}

func TestExecute_LastListedDayIsBookable(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p := domain.DefaultPolicy()
	p.AdvanceBookingDays = 7
	require.NoError(t, f.settings.UpdatePolicy(ctx, p, now))

	// пятница 09:00 + 7 дней: последний день записи - 23 октября, позже 09:00
	lastDay := types.NewDate(now).AddDays(7)
	f.slot(t, lastDay, "10:00")
	f.slot(t, lastDay, "20:00")
	beyond := f.slot(t, lastDay.AddDays(1), "08:00")

	listing := get_available_slots.NewUseCase(availableSlots{f.slots}, f.settings, f.clock, time.UTC, logger.NewNop())

	listed, err := listing.Execute(ctx, &get_available_slots.Request{Actor: customer, Date: lastDay})
	require.NoError(t, err)
	require.Len(t, listed.Slots, 2)

	for _, s := range listed.Slots {
		_, err := f.uc.Execute(ctx, &Request{Actor: customer, SlotID: s.ID, VehicleID: 70})
		require.NoError(t, err, "listed slot %s %s must be bookable", lastDay, s.StartTime)
		assert.Equal(t, domain.SlotBooked, f.slotStatus(t, s.ID))
	}

	_, err = listing.Execute(ctx, &get_available_slots.Request{Actor: customer, Date: lastDay.AddDays(1)})
	assert.ErrorIs(t, err, get_available_slots.ErrDateTooFarInFuture)

	_, err = f.uc.Execute(ctx, &Request{Actor: customer, SlotID: beyond.ID, VehicleID: 70})
	assert.ErrorIs(t, err, ErrDateTooFarInFuture)
}

func TestExecute_SecondBookingOnSameSlotRejected(t *testing.T) {
	f := setup(t)
	s := f.slot(t, monday, "10:00")
	ctx := context.Background()

	_, err := f.uc.Execute(ctx, &Request{Actor: customer, SlotID: s.ID, VehicleID: 70})
	require.NoError(t, err)

	other := domain.Actor{UserID: 8, Role: domain.RoleCustomer}
	_, err = f.uc.Execute(ctx, &Request{Actor: other, SlotID: s.ID, VehicleID: 80})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestExecute_ConcurrentBookingsExactlyOneWins(t *testing.T) {
	f := setup(t)
	s := f.slot(t, monday, "10:00")

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		lost      int
	)

	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			<-start

			_, err := f.uc.Execute(context.Background(), &Request{
				Actor:     domain.Actor{UserID: userID, Role: domain.RoleCustomer},
				SlotID:    s.ID,
				VehicleID: userID * 10,
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, ErrSlotUnavailable):
				lost++
			}
		}(int64(100 + i))
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, lost)

	active, err := f.bookings.ListBySlot(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Equal(t, domain.SlotBooked, f.slotStatus(t, s.ID))
}

func TestExecute_CancelledSlotCanBeRebooked(t *testing.T) {
	f := setup(t)
	s := f.slot(t, monday, "10:00")
	ctx := context.Background()

	first, err := f.uc.Execute(ctx, &Request{Actor: customer, SlotID: s.ID, VehicleID: 70})
	require.NoError(t, err)

	require.NoError(t, f.store.TxManager.Do(ctx, func(ctx context.Context) error {
		if err := f.bookings.Cancel(ctx, first.ID, domain.StatusPending, nil, 0, now); err != nil {
			return err
		}
		_, err := f.slots.Release(ctx, s.ID, now)
		return err
	}))

	second, err := f.uc.Execute(ctx, &Request{
		Actor:     domain.Actor{UserID: 8, Role: domain.RoleCustomer},
		SlotID:    s.ID,
		VehicleID: 80,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.Reference, second.Reference)
}

func TestExecute_ReferenceCollisionRegenerates(t *testing.T) {
	f := setup(t)
	a := f.slot(t, monday, "10:00")
	b := f.slot(t, monday, "12:00")
	ctx := context.Background()

	refs := []string{"DT-0000000A", "DT-0000000A", "DT-0000000B"}
	f.uc.newReference = func() string {
		ref := refs[0]
		refs = refs[1:]
		return ref
	}

	_, err := f.uc.Execute(ctx, &Request{Actor: customer, SlotID: a.ID, VehicleID: 70})
	require.NoError(t, err)

	resp, err := f.uc.Execute(ctx, &Request{Actor: customer, SlotID: b.ID, VehicleID: 70})
	require.NoError(t, err)
	assert.Equal(t, "DT-0000000B", resp.Reference)
}

func TestExecute_ReferenceCollisionsExhausted(t *testing.T) {
	f := setup(t)
	a := f.slot(t, monday, "10:00")
	b := f.slot(t, monday, "12:00")
	ctx := context.Background()

	f.uc.newReference = func() string { return "DT-0000000A" }

	_, err := f.uc.Execute(ctx, &Request{Actor: customer, SlotID: a.ID, VehicleID: 70})
	require.NoError(t, err)

	_, err = f.uc.Execute(ctx, &Request{Actor: customer, SlotID: b.ID, VehicleID: 70})
	assert.ErrorIs(t, err, ErrInternal)

	// захват слота откатился вместе с неудачной вставкой
	assert.Equal(t, domain.SlotAvailable, f.slotStatus(t, b.ID))
}

// TestSlotBookingConsistency случайная последовательность записей и отмен:
// после каждого шага слот занят тогда и только тогда, когда на него ссылается ровно одно активное бронирование.
func TestSlotBookingConsistency(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	svc := bookings.NewService(
		f.bookings,
		f.slots,
		f.settings,
		f.store.TxManager,
		availability.Nop{},
		events.Nop{},
		(*metrics.Metrics)(nil),
		f.clock,
		time.UTC,
		logger.NewNop(),
	)

	var slotIDs []int64
	for _, start := range []string{"08:00", "10:00", "12:00", "14:00"} {
		slotIDs = append(slotIDs, f.slot(t, monday, start).ID)
	}

	rng := rand.New(rand.NewSource(42))
	var active []int64

	for step := 0; step < 200; step++ {
		if len(active) > 0 && rng.Intn(3) == 0 {
			i := rng.Intn(len(active))
			target := "cancelled"
			if rng.Intn(2) == 0 {
				target = "confirmed"
			}
			_, _ = svc.UpdateStatus(ctx, admin, active[i], &bookingModels.UpdateStatusRequest{Status: target})
			if target == "cancelled" {
				active = append(active[:i], active[i+1:]...)
			}
		} else {
			userID := int64(100 + rng.Intn(10))
			resp, err := f.uc.Execute(ctx, &Request{
				Actor:     domain.Actor{UserID: userID, Role: domain.RoleCustomer},
				SlotID:    slotIDs[rng.Intn(len(slotIDs))],
				VehicleID: userID,
			})
			if err == nil {
				active = append(active, resp.ID)
			} else {
				require.ErrorIs(t, err, ErrSlotUnavailable)
			}
		}

		assertSlotsConsistent(t, f, slotIDs)
	}
}

func assertSlotsConsistent(t *testing.T, f *fixture, slotIDs []int64) {
	t.Helper()
	ctx := context.Background()

	for _, id := range slotIDs {
		s, err := f.slots.GetByID(ctx, id)
		require.NoError(t, err)

		list, err := f.bookings.ListBySlot(ctx, id)
		require.NoError(t, err)

		activeCount := 0
		for _, b := range list {
			if b.IsActive() {
				activeCount++
			}
		}

		require.LessOrEqual(t, activeCount, 1, "slot %d has %d active bookings", id, activeCount)
		require.Equal(t, s.IsBooked(), activeCount == 1, "slot %d status %s with %d active bookings", id, s.Status, activeCount)
	}
}
