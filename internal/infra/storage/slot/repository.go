package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/dberrors"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

var slotColumns = []string{
	"id",
	"slot_date",
	"start_time",
	"duration_minutes",
	"bay",
	"status",
	"source",
	"block_reason",
	"created_at",
	"updated_at",
}

// Repository репозиторий слотов
type Repository struct {
	db DBExecutor
	qb psqlbuilder.Builder
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor, qb psqlbuilder.Builder) *Repository {
	return &Repository{db: db, qb: qb}
}

// Create добавляет один слот
func (r *Repository) Create(ctx context.Context, slot *domain.Slot) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.qb.Insert("slots").
		Columns(
			"slot_date",
			"start_time",
			"duration_minutes",
			"bay",
			"status",
			"source",
			"block_reason",
			"created_at",
			"updated_at",
		).
		Values(
			slot.Date,
			slot.StartTime,
			slot.DurationMinutes,
			slot.Bay,
			slot.Status,
			slot.Source,
			slot.BlockReason,
			slot.CreatedAt,
			slot.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&slot.ID)
	if dberrors.IsUniqueViolation(err) {
		return nil, ErrSlotAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return slot, nil
}

// CreateMissing вставляет слоты, пропуская те, что уже есть (по дате, времени и боксу).
// Возвращает количество реально добавленных строк.
func (r *Repository) CreateMissing(ctx context.Context, slots []*domain.Slot) (int64, error) {
	if len(slots) == 0 {
		return 0, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	insert := r.qb.Insert("slots").
		Columns(
			"slot_date",
			"start_time",
			"duration_minutes",
			"bay",
			"status",
			"source",
			"created_at",
			"updated_at",
		)
	for _, s := range slots {
		insert = insert.Values(s.Date, s.StartTime, s.DurationMinutes, s.Bay, s.Status, s.Source, s.CreatedAt, s.UpdatedAt)
	}

	query, args, err := insert.
		Suffix("ON CONFLICT (slot_date, start_time, bay) DO NOTHING").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CreateMissing - build insert query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: CreateMissing - execute insert: %v", ErrExecQuery, err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: CreateMissing - get rows affected: %v", ErrExecQuery, err)
	}

	return inserted, nil
}

// GetByID получает слот по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.qb.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	slot, err := scanSlot(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan slot: %v", ErrScanRow, err)
	}

	return slot, nil
}

// ListByDate возвращает слоты на дату, отсортированные по времени начала и боксу.
// Если status задан, возвращаются только слоты с этим статусом, source - аналогично.
func (r *Repository) ListByDate(ctx context.Context, date types.Date, status *domain.SlotStatus, source *domain.SlotSource) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := r.qb.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{"slot_date": date}).
		OrderBy("start_time ASC", "bay ASC")

	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *status})
	}
	if source != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"source": *source})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByDate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByDate - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanSlots(rows)
}

// NextBay следующий свободный номер бокса для даты и времени начала
func (r *Repository) NextBay(ctx context.Context, date types.Date, start types.TimeString) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.qb.Select("COALESCE(MAX(bay), 0) + 1").
		From("slots").
		Where(squirrel.Eq{"slot_date": date, "start_time": start}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: NextBay - build select query: %v", ErrBuildQuery, err)
	}

	var bay int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&bay); err != nil {
		return 0, fmt.Errorf("%w: NextBay - scan bay: %v", ErrScanRow, err)
	}

	return bay, nil
}

// Claim атомарно переводит слот из available в booked.
// false означает, что слот уже не свободен (или его нет).
func (r *Repository) Claim(ctx context.Context, id int64, now time.Time) (bool, error) {
	return r.compareAndSetStatus(ctx, "Claim", id, domain.SlotAvailable, domain.SlotBooked, nil, now)
}

// Release возвращает занятый слот в available
func (r *Repository) Release(ctx context.Context, id int64, now time.Time) (bool, error) {
	return r.compareAndSetStatus(ctx, "Release", id, domain.SlotBooked, domain.SlotAvailable, nil, now)
}

// Block закрывает свободный слот для записи
func (r *Repository) Block(ctx context.Context, id int64, reason string, now time.Time) (bool, error) {
	return r.compareAndSetStatus(ctx, "Block", id, domain.SlotAvailable, domain.SlotBlocked, &reason, now)
}

// Unblock открывает заблокированный слот
func (r *Repository) Unblock(ctx context.Context, id int64, now time.Time) (bool, error) {
	return r.compareAndSetStatus(ctx, "Unblock", id, domain.SlotBlocked, domain.SlotAvailable, nil, now)
}

func (r *Repository) compareAndSetStatus(
	ctx context.Context,
	op string,
	id int64,
	from, to domain.SlotStatus,
	blockReason *string,
	now time.Time,
) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.qb.Update("slots").
		Set("status", to).
		Set("block_reason", blockReason).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "status": from}).
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, op, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	return rowsAffected == 1, nil
}

// DeleteUnused удаляет свободный слот, на который никогда не ссылались бронирования
// и запросы на перенос. false - слот не найден или удалять его нельзя.
func (r *Repository) DeleteUnused(ctx context.Context, id int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.qb.Delete("slots").
		Where(squirrel.Eq{"id": id, "status": domain.SlotAvailable}).
		Where("NOT EXISTS (SELECT 1 FROM bookings WHERE bookings.slot_id = slots.id)").
		Where("NOT EXISTS (SELECT 1 FROM reschedule_requests rr WHERE rr.original_slot_id = slots.id OR rr.requested_slot_id = slots.id)").
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: DeleteUnused - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: DeleteUnused - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: DeleteUnused - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected == 1, nil
}

// HasHistory есть ли бронирования или запросы на перенос, ссылающиеся на слот
func (r *Repository) HasHistory(ctx context.Context, id int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.qb.Select("COUNT(*)").
		From("bookings").
		Where(squirrel.Eq{"slot_id": id}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: HasHistory - build bookings query: %v", ErrBuildQuery, err)
	}

	var bookings int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&bookings); err != nil {
		return false, fmt.Errorf("%w: HasHistory - scan bookings count: %v", ErrScanRow, err)
	}
	if bookings > 0 {
		return true, nil
	}

	query, args, err = r.qb.Select("COUNT(*)").
		From("reschedule_requests").
		Where(squirrel.Or{
			squirrel.Eq{"original_slot_id": id},
			squirrel.Eq{"requested_slot_id": id},
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: HasHistory - build requests query: %v", ErrBuildQuery, err)
	}

	var requests int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&requests); err != nil {
		return false, fmt.Errorf("%w: HasHistory - scan requests count: %v", ErrScanRow, err)
	}

	return requests > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSlot(row rowScanner) (*domain.Slot, error) {
	var slot domain.Slot
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&slot.ID,
		&slot.Date,
		&slot.StartTime,
		&slot.DurationMinutes,
		&slot.Bay,
		&slot.Status,
		&slot.Source,
		&slot.BlockReason,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	slot.CreatedAt = createdAt.Time
	slot.UpdatedAt = updatedAt.Time

	return &slot, nil
}

// scanSlots сканирует результаты запроса в слайс слотов
func scanSlots(rows *sql.Rows) ([]*domain.Slot, error) {
	slots := make([]*domain.Slot, 0)

	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanSlots - scan row: %v", ErrScanRow, err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanSlots - rows error: %v", ErrScanRow, err)
	}

	return slots, nil
}
