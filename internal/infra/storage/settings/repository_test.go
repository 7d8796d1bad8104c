package settings_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/settings"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/storagetest"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

var now = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func TestRepository_WeeklyTemplate(t *testing.T) {
	store := storagetest.New(t)
	repo := settings.NewRepository(store.DB, store.Builder)
	ctx := context.Background()

	tmpl, err := repo.GetWeeklyTemplate(ctx)
	require.NoError(t, err)
	assert.False(t, tmpl.Days[time.Sunday].IsWorkingDay)
	assert.True(t, tmpl.Days[time.Monday].IsWorkingDay)
	assert.Equal(t, "08:00", tmpl.Days[time.Monday].StartTime.String())
	assert.Equal(t, 120, tmpl.Days[time.Monday].SlotDurationMinutes)
	assert.Nil(t, tmpl.Days[time.Monday].BreakStart)

	monday := tmpl.Days[time.Monday]
	monday.MaxBookingsPerSlot = 2
	monday.BreakStart = ptr.Ptr(types.MustTimeString("12:00"))
	monday.BreakEnd = ptr.Ptr(types.MustTimeString("13:00"))
	require.NoError(t, repo.UpdateDay(ctx, monday, now))

	tmpl, err = repo.GetWeeklyTemplate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, tmpl.Days[time.Monday].MaxBookingsPerSlot)
	require.NotNil(t, tmpl.Days[time.Monday].BreakStart)
	assert.Equal(t, "12:00", tmpl.Days[time.Monday].BreakStart.String())
}

func TestRepository_Policy(t *testing.T) {
	store := storagetest.New(t)
	repo := settings.NewRepository(store.DB, store.Builder)
	ctx := context.Background()

	policy, err := repo.GetPolicy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 24, policy.CancellationWindowHours)
	assert.Equal(t, 60, policy.MinBookingNoticeMinutes)

	policy.LateCancellationFee = 500
	policy.MaxReschedules = 2
	require.NoError(t, repo.UpdatePolicy(ctx, *policy, now))

	policy, err = repo.GetPolicy(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 500, policy.LateCancellationFee)
	assert.Equal(t, 2, policy.MaxReschedules)
}
