package reschedule

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
)

var requestColumns = []string{
	"id",
	"booking_id",
	"original_slot_id",
	"requested_slot_id",
	"reason",
	"status",
	"fee_amount",
	"requested_at",
	"responded_at",
	"responded_by",
	"admin_notes",
}

// Repository репозиторий запросов на перенос
type Repository struct {
	db DBExecutor
	qb psqlbuilder.Builder
}

// NewRepository создает новый экземпляр репозитория запросов на перенос
func NewRepository(db DBExecutor, qb psqlbuilder.Builder) *Repository {
	return &Repository{db: db, qb: qb}
}

// Create сохраняет новый запрос. Второй открытый запрос для того же бронирования
// отклоняется уникальным индексом.
func (r *Repository) Create(ctx context.Context, req *domain.RescheduleRequest) (*domain.RescheduleRequest, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.qb.Insert("reschedule_requests").
		Columns(
			"booking_id",
			"original_slot_id",
			"requested_slot_id",
			"reason",
			"status",
			"fee_amount",
			"requested_at",
		).
		Values(
			req.BookingID,
			req.OriginalSlotID,
			req.RequestedSlotID,
			req.Reason,
			req.Status,
			req.FeeAmount,
			req.RequestedAt,
		).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&req.ID)
	if dberrors.IsUniqueViolation(err) {
		return nil, ErrPendingRequestExists
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return req, nil
}

// GetByID получает запрос по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.RescheduleRequest, error) {
	return r.getOne(ctx, "GetByID", squirrel.Eq{"id": id})
}

// GetPendingByBooking открытый запрос бронирования
func (r *Repository) GetPendingByBooking(ctx context.Context, bookingID int64) (*domain.RescheduleRequest, error) {
	return r.getOne(ctx, "GetPendingByBooking", squirrel.Eq{"booking_id": bookingID, "status": domain.ReschedulePending})
}

func (r *Repository) getOne(ctx context.Context, op string, filter squirrel.Eq) (*domain.RescheduleRequest, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.qb.Select(requestColumns...).
		From("reschedule_requests").
		Where(filter).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	req, err := scanRequest(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan request: %v", ErrScanRow, op, err)
	}

	return req, nil
}

// List запросы, опционально с фильтром по статусу, старые первыми
func (r *Repository) List(ctx context.Context, status *domain.RescheduleStatus) ([]*domain.RescheduleRequest, error) {
	selectBuilder := r.qb.Select(requestColumns...).
		From("reschedule_requests").
		OrderBy("requested_at ASC", "id ASC")

	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *status})
	}

	return r.list(ctx, "List", selectBuilder)
}

// ListPendingBefore открытые запросы, созданные раньше cutoff
func (r *Repository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*domain.RescheduleRequest, error) {
	selectBuilder := r.qb.Select(requestColumns...).
		From("reschedule_requests").
		Where(squirrel.Eq{"status": domain.ReschedulePending}).
		Where(squirrel.Lt{"requested_at": cutoff}).
		OrderBy("requested_at ASC", "id ASC")

	return r.list(ctx, "ListPendingBefore", selectBuilder)
}

func (r *Repository) list(ctx context.Context, op string, selectBuilder squirrel.SelectBuilder) ([]*domain.RescheduleRequest, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, op, err)
	}
	defer rows.Close()

	requests := make([]*domain.RescheduleRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan row: %v", ErrScanRow, op, err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, op, err)
	}

	return requests, nil
}

// Resolve закрывает открытый запрос с итоговым статусом.
// ErrRequestNotPending, если запрос уже рассмотрен кем-то другим.
func (r *Repository) Resolve(ctx context.Context, id int64, to domain.RescheduleStatus, respondedBy *int64, adminNotes *string, now time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.qb.Update("reschedule_requests").
		Set("status", to).
		Set("responded_at", now).
		Set("responded_by", respondedBy).
		Set("admin_notes", adminNotes).
		Where(squirrel.Eq{"id": id, "status": domain.ReschedulePending}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Resolve - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Resolve - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Resolve - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrRequestNotPending
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*domain.RescheduleRequest, error) {
	var req domain.RescheduleRequest
	var requestedAt sql.NullTime

	err := row.Scan(
		&req.ID,
		&req.BookingID,
		&req.OriginalSlotID,
		&req.RequestedSlotID,
		&req.Reason,
		&req.Status,
		&req.FeeAmount,
		&requestedAt,
		&req.RespondedAt,
		&req.RespondedBy,
		&req.AdminNotes,
	)
	if err != nil {
		return nil, err
	}

	req.RequestedAt = requestedAt.Time

	return &req, nil
}
