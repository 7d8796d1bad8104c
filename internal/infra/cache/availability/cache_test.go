package availability

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

type warnCounter struct {
	n int
}

func (w *warnCounter) Warn(string, ...interface{}) { w.n++ }

func TestKey(t *testing.T) {
	assert.Equal(t, "availability:2026-10-19", Key(types.MustDate("2026-10-19")))
	assert.Equal(t, "availability:gen:2026-10-19", GenerationKey(types.MustDate("2026-10-19")))
}

func TestEncodeDecode(t *testing.T) {
	slots := []*domain.Slot{{
		ID:              3,
		Date:            types.MustDate("2026-10-19"),
		StartTime:       types.MustTimeString("10:00"),
		DurationMinutes: 120,
		Bay:             2,
		Status:          domain.SlotAvailable,
		Source:          domain.SlotSourceManual,
	}}

	data, err := encode(slots)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"start_time":"10:00"`)

	decoded, err := decode(data)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, slots[0].ID, decoded[0].ID)
	assert.True(t, slots[0].Date.Equal(decoded[0].Date))
	assert.Equal(t, "10:00", decoded[0].StartTime.String())
	assert.Equal(t, 2, decoded[0].Bay)
}

func TestCache_UnreachableRedisIsAMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	log := &warnCounter{}
	cache := New(client, time.Minute, log)
	ctx := context.Background()
	date := types.MustDate("2026-10-19")

	_, cacheable := cache.Version(ctx, date)
	cache.Set(ctx, date, 0, nil)
	slots, ok := cache.Get(ctx, date)
	cache.Invalidate(ctx, date)

	assert.False(t, cacheable)
	assert.False(t, ok)
	assert.Nil(t, slots)
	assert.Equal(t, 4, log.n)
}

func TestNop(t *testing.T) {
	var c Nop
	ctx := context.Background()
	date := types.MustDate("2026-10-19")

	_, cacheable := c.Version(ctx, date)
	assert.False(t, cacheable)
	c.Set(ctx, date, 0, nil)
	_, ok := c.Get(ctx, date)
	assert.False(t, ok)
}
