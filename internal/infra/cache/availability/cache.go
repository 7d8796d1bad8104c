// Package availability кэш свободных слотов на дату поверх Redis.
// Кэш только ускоряет чтение: записи (захват, блокировка) всегда идут в базу,
// а после каждой мутации запись за дату удаляется и поколение даты растёт.
// Читатель запоминает поколение до чтения из базы и сохраняет результат,
// только если поколение не изменилось.
package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

const (
	keyPrefix        = "availability:"
	generationPrefix = "availability:gen:"

	// generationTTL поколение живёт дольше любой записи
	generationTTL = 24 * time.Hour
)

// errStale поколение даты изменилось, пока читалась база
var errStale = errors.New("availability cache: stale generation")

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
}

// Store кэш доступности: Cache поверх Redis или Nop
type Store interface {
	Get(ctx context.Context, date types.Date) ([]*domain.Slot, bool)
	Version(ctx context.Context, date types.Date) (int64, bool)
	Set(ctx context.Context, date types.Date, version int64, slots []*domain.Slot)
	Invalidate(ctx context.Context, dates ...types.Date)
}

// Cache read-through кэш доступности с TTL
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger Logger
}

// New создаёт кэш поверх готового клиента Redis
func New(client *redis.Client, ttl time.Duration, logger Logger) *Cache {
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// Connect создаёт клиента и проверяет соединение
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("availability cache: ping %s: %w", addr, err)
	}

	return client, nil
}

// Key ключ записи для даты
func Key(date types.Date) string {
	return keyPrefix + date.String()
}

// GenerationKey ключ счётчика инвалидаций даты
func GenerationKey(date types.Date) string {
	return generationPrefix + date.String()
}

// Get возвращает закэшированные свободные слоты. Любая ошибка Redis - это промах.
func (c *Cache) Get(ctx context.Context, date types.Date) ([]*domain.Slot, bool) {
	data, err := c.client.Get(ctx, Key(date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("availability cache: get %s: %v", date, err)
		return nil, false
	}

	slots, err := decode(data)
	if err != nil {
		c.logger.Warn("availability cache: decode %s: %v", date, err)
		return nil, false
	}

	return slots, true
}

// Version текущее поколение даты. false - кэш недоступен, сохранять результат нельзя.
func (c *Cache) Version(ctx context.Context, date types.Date) (int64, bool) {
	version, err := c.client.Get(ctx, GenerationKey(date)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		c.logger.Warn("availability cache: version %s: %v", date, err)
		return 0, false
	}
	return version, true
}

// Set сохраняет свободные слоты даты, если с момента Version не было инвалидации.
// Проверка и запись выполняются в одной транзакции под WATCH.
func (c *Cache) Set(ctx context.Context, date types.Date, version int64, slots []*domain.Slot) {
	data, err := encode(slots)
	if err != nil {
		c.logger.Warn("availability cache: encode %s: %v", date, err)
		return
	}

	genKey := GenerationKey(date)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStale
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, Key(date), data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil, errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		// устаревший результат просто не сохраняется
	default:
		c.logger.Warn("availability cache: set %s: %v", date, err)
	}
}

// Invalidate удаляет записи для дат
func (c *Cache) Invalidate(ctx context.Context, dates ...types.Date) {
	if len(dates) == 0 {
		return
	}

	keys := make([]string, 0, len(dates))
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, d := range dates {
			keys = append(keys, Key(d))
			pipe.Del(ctx, Key(d))
			pipe.Incr(ctx, GenerationKey(d))
			pipe.Expire(ctx, GenerationKey(d), generationTTL)
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("availability cache: invalidate %v: %v", keys, err)
	}
}

// Nop кэш-заглушка, когда Redis выключен
type Nop struct{}

func (Nop) Get(context.Context, types.Date) ([]*domain.Slot, bool) { return nil, false }
func (Nop) Version(context.Context, types.Date) (int64, bool)      { return 0, false }
func (Nop) Set(context.Context, types.Date, int64, []*domain.Slot) {}
func (Nop) Invalidate(context.Context, ...types.Date)              {}

// cachedSlot форма слота в кэше
type cachedSlot struct {
	ID              int64             `json:"id"`
	Date            types.Date        `json:"date"`
	StartTime       types.TimeString  `json:"start_time"`
	DurationMinutes int               `json:"duration_minutes"`
	Bay             int               `json:"bay"`
	Status          domain.SlotStatus `json:"status"`
	Source          domain.SlotSource `json:"source"`
}

func encode(slots []*domain.Slot) ([]byte, error) {
	out := make([]cachedSlot, 0, len(slots))
	for _, s := range slots {
		out = append(out, cachedSlot{
			ID:              s.ID,
			Date:            s.Date,
			StartTime:       s.StartTime,
			DurationMinutes: s.DurationMinutes,
			Bay:             s.Bay,
			Status:          s.Status,
			Source:          s.Source,
		})
	}
	return json.Marshal(out)
}

func decode(data []byte) ([]*domain.Slot, error) {
	var in []cachedSlot
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}

	slots := make([]*domain.Slot, 0, len(in))
	for _, s := range in {
		slots = append(slots, &domain.Slot{
			ID:              s.ID,
			Date:            s.Date,
			StartTime:       s.StartTime,
			DurationMinutes: s.DurationMinutes,
			Bay:             s.Bay,
			Status:          s.Status,
			Source:          s.Source,
		})
	}
	return slots, nil
}
