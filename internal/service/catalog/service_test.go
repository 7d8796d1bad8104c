package catalog_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/events"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/settings"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/storagetest"
	"github.com/m04kA/SMC-SchedulingService/internal/service/catalog"
	"github.com/m04kA/SMC-SchedulingService/internal/service/catalog/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/clock"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// пятница, 16 октября 2026; ближайший понедельник - 19 октября
var now = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

var (
	admin  = domain.Actor{UserID: 1, Role: domain.RoleAdmin}
	monday = types.MustDate("2026-10-19")
	sunday = types.MustDate("2026-10-18")
)

// countingCache кэш в памяти, считающий попадания; запись принимается только при неизменном поколении даты
type countingCache struct {
	data        map[string][]*domain.Slot
	gen         map[string]int64
	hits        int
	invalidated []types.Date
}

func newCountingCache() *countingCache {
	return &countingCache{
		data: make(map[string][]*domain.Slot),
		gen:  make(map[string]int64),
	}
}

func (c *countingCache) Get(_ context.Context, date types.Date) ([]*domain.Slot, bool) {
	slots, ok := c.data[date.String()]
	if ok {
		c.hits++
	}
	return slots, ok
}

func (c *countingCache) Version(_ context.Context, date types.Date) (int64, bool) {
	return c.gen[date.String()], true
}

func (c *countingCache) Set(_ context.Context, date types.Date, version int64, slots []*domain.Slot) {
	if c.gen[date.String()] != version {
		return
	}
	c.data[date.String()] = slots
}

func (c *countingCache) Invalidate(_ context.Context, dates ...types.Date) {
	for _, d := range dates {
		delete(c.data, d.String())
		c.gen[d.String()]++
		c.invalidated = append(c.invalidated, d)
	}
}

// hookedSlots репозиторий слотов с перехватом отдельных вызовов
type hookedSlots struct {
	*slot.Repository
	onListByDate   func()
	onDeleteUnused func(ctx context.Context, id int64) (bool, error)
}

func (r *hookedSlots) ListByDate(ctx context.Context, date types.Date, status *domain.SlotStatus, source *domain.SlotSource) ([]*domain.Slot, error) {
	slots, err := r.Repository.ListByDate(ctx, date, status, source)
	if r.onListByDate != nil {
		r.onListByDate()
	}
	return slots, err
}

func (r *hookedSlots) DeleteUnused(ctx context.Context, id int64) (bool, error) {
	if r.onDeleteUnused != nil {
		return r.onDeleteUnused(ctx, id)
	}
	return r.Repository.DeleteUnused(ctx, id)
}

type fixture struct {
	svc      *catalog.Service
	slots    *slot.Repository
	hooks    *hookedSlots
	bookings *booking.Repository
	cache    *countingCache
	events   *events.Recorder
	clock    *clock.Manual
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := storagetest.New(t)

	f := &fixture{
		slots:    slot.NewRepository(store.DB, store.Builder),
		bookings: booking.NewRepository(store.DB, store.Builder),
		cache:    newCountingCache(),
		events:   &events.Recorder{},
		clock:    clock.NewManual(now),
	}
	f.hooks = &hookedSlots{Repository: f.slots}
	f.svc = catalog.NewService(
		f.hooks,
		settings.NewRepository(store.DB, store.Builder),
		f.cache,
		f.events,
		(*metrics.Metrics)(nil),
		f.clock,
		time.UTC,
		logger.NewNop(),
	)
	return f
}

func TestGenerateForDate_WorkingMonday(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	resp, err := f.svc.GenerateForDate(ctx, admin, monday)
	require.NoError(t, err)

	assert.Equal(t, 5, resp.Created)
	require.Len(t, resp.Slots, 5)

	starts := make([]string, 0, len(resp.Slots))
	for _, s := range resp.Slots {
		starts = append(starts, s.StartTime)
		assert.Equal(t, "available", s.Status)
		assert.Equal(t, "template", s.Source)
		assert.Equal(t, 120, s.DurationMinutes)
	}
	assert.Equal(t, []string{"08:00", "10:00", "12:00", "14:00", "16:00"}, starts)
	assert.Equal(t, "18:00", resp.Slots[4].EndTime)

	assert.Equal(t, []events.Type{events.SlotsGenerated}, f.events.Types())
	assert.Contains(t, f.cache.invalidated, monday)
}

func TestGenerateForDate_Idempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.svc.GenerateForDate(ctx, admin, monday)
	require.NoError(t, err)

	second, err := f.svc.GenerateForDate(ctx, admin, monday)
	require.NoError(t, err)

	assert.Equal(t, 0, second.Created)
	assert.Equal(t, first.Slots, second.Slots)
	assert.Len(t, f.events.Types(), 1)
}

func TestGenerateForDate_NonWorkingDay(t *testing.T) {
	f := setup(t)

	resp, err := f.svc.GenerateForDate(context.Background(), admin, sunday)
	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
	assert.Zero(t, resp.Created)
}

func TestGenerateForDate_PastDate(t *testing.T) {
	f := setup(t)

	_, err := f.svc.GenerateForDate(context.Background(), admin, types.MustDate("2026-10-15"))
	assert.ErrorIs(t, err, catalog.ErrInvalidRange)
}

func TestGenerateForRange(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("end before start", func(t *testing.T) {
		_, err := f.svc.GenerateForRange(ctx, admin, &models.GenerateRangeRequest{
			StartDate: "2026-10-20",
			EndDate:   "2026-10-19",
		})
		assert.ErrorIs(t, err, catalog.ErrInvalidRange)
	})

	t.Run("too long", func(t *testing.T) {
		_, err := f.svc.GenerateForRange(ctx, admin, &models.GenerateRangeRequest{
			StartDate: "2026-10-19",
			EndDate:   "2027-10-19",
		})
		assert.ErrorIs(t, err, catalog.ErrInvalidRange)
	})

	t.Run("sunday to tuesday", func(t *testing.T) {
		resp, err := f.svc.GenerateForRange(ctx, admin, &models.GenerateRangeRequest{
			StartDate: "2026-10-18",
			EndDate:   "2026-10-20",
		})
		require.NoError(t, err)
		// воскресенье выходной, понедельник и вторник по 5 слотов
		assert.Equal(t, 10, resp.Created)
		assert.Len(t, resp.Slots, 10)
	})
}

func TestListAvailable_ReadThroughCache(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.GenerateForDate(ctx, admin, monday)
	require.NoError(t, err)

	first, err := f.svc.ListAvailable(ctx, monday)
	require.NoError(t, err)
	assert.Len(t, first, 5)
	assert.Zero(t, f.cache.hits)

	second, err := f.svc.ListAvailable(ctx, monday)
	require.NoError(t, err)
	assert.Len(t, second, 5)
	assert.Equal(t, 1, f.cache.hits)

	// блокировка сбрасывает кэш даты
	_, err = f.svc.Block(ctx, admin, first[0].ID, &models.BlockSlotRequest{Reason: "maintenance"})
	require.NoError(t, err)

	third, err := f.svc.ListAvailable(ctx, monday)
	require.NoError(t, err)
	assert.Len(t, third, 4)
	assert.Equal(t, 1, f.cache.hits)
}

func TestListAvailable_InvalidatedDuringReadIsNotCached(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	gen, err := f.svc.GenerateForDate(ctx, admin, monday)
	require.NoError(t, err)
	claimed := gen.Slots[0].ID

	// бронирование успевает занять слот между чтением из БД и записью в кэш
	f.hooks.onListByDate = func() {
		f.hooks.onListByDate = nil
		bookSlot(t, f, claimed)
		f.cache.Invalidate(ctx, monday)
	}

	stale, err := f.svc.ListAvailable(ctx, monday)
	require.NoError(t, err)
	assert.Len(t, stale, 5)
	_, cached := f.cache.data[monday.String()]
	assert.False(t, cached)

	fresh, err := f.svc.ListAvailable(ctx, monday)
	require.NoError(t, err)
	assert.Len(t, fresh, 4)
	for _, s := range fresh {
		assert.NotEqual(t, claimed, s.ID)
	}
	assert.Zero(t, f.cache.hits)
}

func TestCreateSlot(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.svc.CreateSlot(ctx, admin, &models.CreateSlotRequest{
		Date: "2026-10-19", StartTime: "19:00", DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, "manual", first.Source)
	assert.Equal(t, 1, first.Bay)
	assert.Equal(t, "20:00", first.EndTime)

	second, err := f.svc.CreateSlot(ctx, admin, &models.CreateSlotRequest{
		Date: "2026-10-19", StartTime: "19:00", DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Bay)

	tests := []struct {
		name string
		req  models.CreateSlotRequest
		err  error
	}{
		{"bad date", models.CreateSlotRequest{Date: "19.10.2026", StartTime: "10:00", DurationMinutes: 60}, catalog.ErrInvalidInput},
		{"bad time", models.CreateSlotRequest{Date: "2026-10-19", StartTime: "25:00", DurationMinutes: 60}, catalog.ErrInvalidInput},
		{"zero duration", models.CreateSlotRequest{Date: "2026-10-19", StartTime: "10:00", DurationMinutes: 0}, catalog.ErrInvalidTemplate},
		{"crosses midnight", models.CreateSlotRequest{Date: "2026-10-19", StartTime: "23:30", DurationMinutes: 60}, catalog.ErrInvalidTemplate},
		{"in the past", models.CreateSlotRequest{Date: "2026-10-16", StartTime: "08:00", DurationMinutes: 60}, catalog.ErrInvalidTemplate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.svc.CreateSlot(ctx, admin, &req)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func bookSlot(t *testing.T, f *fixture, slotID int64) {
	t.Helper()
	ctx := context.Background()

	claimed, err := f.slots.Claim(ctx, slotID, now)
	require.NoError(t, err)
	require.True(t, claimed)

	_, err = f.bookings.Create(ctx, &domain.Booking{
		Reference:     "DT-0000000A",
		SlotID:        slotID,
		CustomerID:    7,
		VehicleID:     70,
		Status:        domain.StatusPending,
		PaymentStatus: domain.PaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	require.NoError(t, err)
}

func TestBlockUnblock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	gen, err := f.svc.GenerateForDate(ctx, admin, monday)
	require.NoError(t, err)
	free, booked := gen.Slots[0].ID, gen.Slots[1].ID
	bookSlot(t, f, booked)

	blocked, err := f.svc.Block(ctx, admin, free, &models.BlockSlotRequest{Reason: "maintenance"})
	require.NoError(t, err)
	assert.Equal(t, "blocked", blocked.Status)
	require.NotNil(t, blocked.BlockReason)
	assert.Equal(t, "maintenance", *blocked.BlockReason)

	// повторная блокировка ничего не меняет
	again, err := f.svc.Block(ctx, admin, free, &models.BlockSlotRequest{})
	require.NoError(t, err)
	assert.Equal(t, "blocked", again.Status)

	_, err = f.svc.Block(ctx, admin, booked, &models.BlockSlotRequest{})
	assert.ErrorIs(t, err, catalog.ErrSlotNotAvailable)

	_, err = f.svc.Block(ctx, admin, 9999, &models.BlockSlotRequest{})
	assert.ErrorIs(t, err, catalog.ErrSlotNotFound)

	unblocked, err := f.svc.Unblock(ctx, admin, free)
	require.NoError(t, err)
	assert.Equal(t, "available", unblocked.Status)
	assert.Nil(t, unblocked.BlockReason)

	_, err = f.svc.Unblock(ctx, admin, booked)
	assert.ErrorIs(t, err, catalog.ErrSlotNotAvailable)

	assert.Equal(t, []events.Type{events.SlotsGenerated, events.SlotBlocked, events.SlotUnblocked}, f.events.Types())
}

func TestBlock_ReasonLimitCountsCharacters(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	gen, err := f.svc.GenerateForDate(ctx, admin, monday)
	require.NoError(t, err)
	id := gen.Slots[0].ID

	_, err = f.svc.Block(ctx, admin, id, &models.BlockSlotRequest{Reason: strings.Repeat("ж", domain.MaxReasonLength+1)})
	assert.ErrorIs(t, err, catalog.ErrInvalidInput)

	reason := strings.Repeat("ж", domain.MaxReasonLength)
	blocked, err := f.svc.Block(ctx, admin, id, &models.BlockSlotRequest{Reason: reason})
	require.NoError(t, err)
	require.NotNil(t, blocked.BlockReason)
	assert.Equal(t, reason, *blocked.BlockReason)
}

func TestDelete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	gen, err := f.svc.GenerateForDate(ctx, admin, monday)
	require.NoError(t, err)
	free, booked, blocked := gen.Slots[0].ID, gen.Slots[1].ID, gen.Slots[2].ID
	bookSlot(t, f, booked)
	_, err = f.svc.Block(ctx, admin, blocked, &models.BlockSlotRequest{})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(ctx, admin, booked), catalog.ErrSlotHasBooking)
	assert.ErrorIs(t, f.svc.Delete(ctx, admin, blocked), catalog.ErrSlotNotAvailable)
	assert.ErrorIs(t, f.svc.Delete(ctx, admin, 9999), catalog.ErrSlotNotFound)

	require.NoError(t, f.svc.Delete(ctx, admin, free))
	_, err = f.svc.GetSlot(ctx, free)
	assert.ErrorIs(t, err, catalog.ErrSlotNotFound)
}

func TestDelete_ConcurrentlyDeleted(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	gen, err := f.svc.GenerateForDate(ctx, admin, monday)
	require.NoError(t, err)
	id := gen.Slots[0].ID

	// параллельный запрос удаляет слот раньше
	f.hooks.onDeleteUnused = func(ctx context.Context, id int64) (bool, error) {
		deleted, err := f.slots.DeleteUnused(ctx, id)
		require.NoError(t, err)
		require.True(t, deleted)
		return false, nil
	}

	err = f.svc.Delete(ctx, admin, id)
	assert.ErrorIs(t, err, catalog.ErrSlotNotFound)
	assert.NotErrorIs(t, err, catalog.ErrSlotNotAvailable)
}

func TestListByDate_StatusFilter(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	gen, err := f.svc.GenerateForDate(ctx, admin, monday)
	require.NoError(t, err)
	_, err = f.svc.Block(ctx, admin, gen.Slots[0].ID, &models.BlockSlotRequest{})
	require.NoError(t, err)

	status := "blocked"
	resp, err := f.svc.ListByDate(ctx, monday, &status)
	require.NoError(t, err)
	assert.Len(t, resp.Slots, 1)

	bad := "gone"
	_, err = f.svc.ListByDate(ctx, monday, &bad)
	assert.ErrorIs(t, err, catalog.ErrInvalidInput)
}
