package bookings_test

import (
	"context"
	"strings"
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
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/clock"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

var (
	now       = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	slotStart = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

	admin    = domain.Actor{UserID: 1, Role: domain.RoleAdmin}
	customer = domain.Actor{UserID: 7, Role: domain.RoleCustomer}
	stranger = domain.Actor{UserID: 8, Role: domain.RoleCustomer}
)

type fixture struct {
	svc      *bookings.Service
	slots    *slot.Repository
	bookings *booking.Repository
	settings *settings.Repository
	events   *events.Recorder
	clock    *clock.Manual
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
	}
	f.svc = bookings.NewService(
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

	p := domain.DefaultPolicy()
	p.LateCancellationFee = 1500
	require.NoError(t, f.settings.UpdatePolicy(context.Background(), p, now))

	return f
}

// book создаёт занятый слот и бронирование клиента в заданном статусе
func (f *fixture) book(t *testing.T, status domain.BookingStatus) *domain.Booking {
	t.Helper()
	ctx := context.Background()

	s, err := f.slots.Create(ctx, &domain.Slot{
		Date:            types.NewDate(slotStart),
		StartTime:       types.NewTimeString(slotStart),
		DurationMinutes: 120,
		Bay:             1,
		Status:          domain.SlotBooked,
		Source:          domain.SlotSourceTemplate,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	require.NoError(t, err)

	b, err := f.bookings.Create(ctx, &domain.Booking{
		Reference:     "DT-AAAA0001",
		SlotID:        s.ID,
		CustomerID:    customer.UserID,
		VehicleID:     70,
		Status:        status,
		TotalPrice:    5000,
		PaymentStatus: domain.PaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) slotStatus(t *testing.T, id int64) domain.SlotStatus {
	t.Helper()
	s, err := f.slots.GetByID(context.Background(), id)
	require.NoError(t, err)
	return s.Status
}

func TestGetByID_Access(t *testing.T) {
	f := setup(t)
	b := f.book(t, domain.StatusConfirmed)
	ctx := context.Background()

	got, err := f.svc.GetByID(ctx, customer, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "DT-AAAA0001", got.Reference)

	_, err = f.svc.GetByID(ctx, admin, b.ID)
	require.NoError(t, err)

	_, err = f.svc.GetByID(ctx, stranger, b.ID)
	assert.ErrorIs(t, err, bookings.ErrAccessDenied)

	_, err = f.svc.GetByID(ctx, customer, 9999)
	assert.ErrorIs(t, err, bookings.ErrBookingNotFound)
}

func TestUpdateStatus_CustomerCancelFree(t *testing.T) {
	f := setup(t)
	b := f.book(t, domain.StatusConfirmed)

	got, err := f.svc.UpdateStatus(context.Background(), customer, b.ID, &models.UpdateStatusRequest{
		Status: "cancelled",
		Reason: ptr.Ptr("  plans changed "),
	})
	require.NoError(t, err)

	assert.Equal(t, "cancelled", got.Status)
	assert.Zero(t, got.FeeAmount)
	assert.NotNil(t, got.CancelledAt)
	require.NotNil(t, got.StatusChangeReason)
	assert.Equal(t, "plans changed", *got.StatusChangeReason)
	assert.Equal(t, domain.SlotAvailable, f.slotStatus(t, b.SlotID))
	assert.Equal(t, []events.Type{events.BookingCancelled}, f.events.Types())
}

func TestUpdateStatus_ReasonLimitCountsCharacters(t *testing.T) {
	f := setup(t)
	b := f.book(t, domain.StatusConfirmed)
	ctx := context.Background()

	// кириллица занимает два байта на символ
	_, err := f.svc.UpdateStatus(ctx, customer, b.ID, &models.UpdateStatusRequest{
		Status: "cancelled",
		Reason: ptr.Ptr(strings.Repeat("я", domain.MaxReasonLength+1)),
	})
	assert.ErrorIs(t, err, bookings.ErrInvalidInput)

	reason := strings.Repeat("я", domain.MaxReasonLength)
	got, err := f.svc.UpdateStatus(ctx, customer, b.ID, &models.UpdateStatusRequest{
		Status: "cancelled",
		Reason: ptr.Ptr(reason),
	})
	require.NoError(t, err)
	require.NotNil(t, got.StatusChangeReason)
	assert.Equal(t, reason, *got.StatusChangeReason)
}

func TestUpdateStatus_CustomerLateCancelCharged(t *testing.T) {
	f := setup(t)
	b := f.book(t, domain.StatusConfirmed)
	f.clock.Set(slotStart.Add(-2 * time.Hour))

	got, err := f.svc.UpdateStatus(context.Background(), customer, b.ID, &models.UpdateStatusRequest{Status: "cancelled"})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), got.FeeAmount)
}

func TestUpdateStatus_AdminLateCancelNoFee(t *testing.T) {
	f := setup(t)
	b := f.book(t, domain.StatusConfirmed)
	f.clock.Set(slotStart.Add(-2 * time.Hour))

	got, err := f.svc.UpdateStatus(context.Background(), admin, b.ID, &models.UpdateStatusRequest{Status: "cancelled"})
	require.NoError(t, err)
	assert.Zero(t, got.FeeAmount)
}

func TestUpdateStatus_CustomerCancelAfterStartRefused(t *testing.T) {
	f := setup(t)
	b := f.book(t, domain.StatusConfirmed)
	f.clock.Set(slotStart.Add(time.Minute))

	_, err := f.svc.UpdateStatus(context.Background(), customer, b.ID, &models.UpdateStatusRequest{Status: "cancelled"})
	assert.ErrorIs(t, err, bookings.ErrCancellationNotAllowed)
	assert.Equal(t, domain.SlotBooked, f.slotStatus(t, b.SlotID))
}

func TestUpdateStatus_AdminLifecycle(t *testing.T) {
	f := setup(t)
	b := f.book(t, domain.StatusPending)
	ctx := context.Background()

	for _, status := range []string{"confirmed", "in_progress"} {
		got, err := f.svc.UpdateStatus(ctx, admin, b.ID, &models.UpdateStatusRequest{Status: status})
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
		assert.Equal(t, domain.SlotBooked, f.slotStatus(t, b.SlotID))
	}

	got, err := f.svc.UpdateStatus(ctx, admin, b.ID, &models.UpdateStatusRequest{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status)
	assert.Equal(t, domain.SlotAvailable, f.slotStatus(t, b.SlotID))

	// из терминального статуса выхода нет
	_, err = f.svc.UpdateStatus(ctx, admin, b.ID, &models.UpdateStatusRequest{Status: "confirmed"})
	assert.ErrorIs(t, err, bookings.ErrInvalidTransition)

	assert.Equal(t, []events.Type{
		events.BookingStatusChanged,
		events.BookingStatusChanged,
		events.BookingStatusChanged,
	}, f.events.Types())
}

func TestUpdateStatus_Rejections(t *testing.T) {
	f := setup(t)
	b := f.book(t, domain.StatusPending)
	ctx := context.Background()

	tests := []struct {
		name   string
		actor  domain.Actor
		status string
		err    error
	}{
		{"customer cannot confirm", customer, "confirmed", bookings.ErrAccessDenied},
		{"stranger cannot cancel", stranger, "cancelled", bookings.ErrAccessDenied},
		{"unknown status", admin, "done", bookings.ErrInvalidInput},
		{"reschedule statuses are not settable", admin, "reschedule_requested", bookings.ErrInvalidTransition},
		{"pending cannot start", admin, "in_progress", bookings.ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateStatus(ctx, tt.actor, b.ID, &models.UpdateStatusRequest{Status: tt.status})
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.Empty(t, f.events.Types())
}

func TestGetUserBookings(t *testing.T) {
	f := setup(t)
	f.book(t, domain.StatusConfirmed)
	ctx := context.Background()

	all, err := f.svc.GetUserBookings(ctx, &models.GetUserBookingsRequest{CustomerID: customer.UserID})
	require.NoError(t, err)
	assert.Len(t, all.Bookings, 1)

	none, err := f.svc.GetUserBookings(ctx, &models.GetUserBookingsRequest{
		CustomerID: customer.UserID,
		Status:     ptr.Ptr("cancelled"),
	})
	require.NoError(t, err)
	assert.Empty(t, none.Bookings)

	_, err = f.svc.GetUserBookings(ctx, &models.GetUserBookingsRequest{
		CustomerID: customer.UserID,
		Status:     ptr.Ptr("whatever"),
	})
	assert.ErrorIs(t, err, bookings.ErrInvalidInput)
}

func TestGetSlotBookings(t *testing.T) {
	f := setup(t)
	b := f.book(t, domain.StatusConfirmed)

	resp, err := f.svc.GetSlotBookings(context.Background(), b.SlotID)
	require.NoError(t, err)
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, b.ID, resp.Bookings[0].ID)

	_, err = f.svc.GetSlotBookings(context.Background(), 9999)
	assert.ErrorIs(t, err, bookings.ErrSlotNotFound)
}

func TestGetPolicyQuote(t *testing.T) {
	f := setup(t)
	b := f.book(t, domain.StatusConfirmed)
	f.clock.Set(slotStart.Add(-3 * time.Hour))

	quote, err := f.svc.GetPolicyQuote(context.Background(), customer, b.ID)
	require.NoError(t, err)

	assert.True(t, slotStart.Equal(quote.SlotStartsAt))
	assert.True(t, quote.Cancel.Allowed)
	assert.Equal(t, int64(1500), quote.Cancel.FeeAmount)
	assert.True(t, quote.Reschedule.Allowed)

	adminQuote, err := f.svc.GetPolicyQuote(context.Background(), admin, b.ID)
	require.NoError(t, err)
	assert.Zero(t, adminQuote.Cancel.FeeAmount)
}
