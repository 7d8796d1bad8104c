package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/dberrors"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

var bookingColumns = []string{
	"id",
	"reference",
	"slot_id",
	"customer_id",
	"vehicle_id",
	"status",
	"total_price",
	"fee_amount",
	"payment_status",
	"reschedule_count",
	"status_change_reason",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями.
// Бронирования никогда не удаляются: отмена - это смена статуса.
type Repository struct {
	db DBExecutor
	qb psqlbuilder.Builder
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor, qb psqlbuilder.Builder) *Repository {
	return &Repository{db: db, qb: qb}
}

// Create создает новое бронирование.
// Вызывается в той же транзакции, что и захват слота (см. dbmetrics.GetExecutor).
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.qb.Insert("bookings").
		Columns(
			"reference",
			"slot_id",
			"customer_id",
			"vehicle_id",
			"status",
			"total_price",
			"fee_amount",
			"payment_status",
			"reschedule_count",
			"status_change_reason",
			"created_at",
			"updated_at",
		).
		Values(
			booking.Reference,
			booking.SlotID,
			booking.CustomerID,
			booking.VehicleID,
			booking.Status,
			booking.TotalPrice,
			booking.FeeAmount,
			booking.PaymentStatus,
			booking.RescheduleCount,
			booking.StatusChangeReason,
			booking.CreatedAt,
			booking.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&booking.ID)
	if dberrors.IsUniqueViolation(err) {
		if strings.Contains(err.Error(), "reference") {
			return nil, ErrDuplicateReference
		}
		return nil, ErrActiveBookingExists
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return booking, nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.qb.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return booking, nil
}

// ListBySlot все бронирования слота, включая завершённые и отменённые (для аудита)
func (r *Repository) ListBySlot(ctx context.Context, slotID int64) ([]*domain.Booking, error) {
	return r.list(ctx, "ListBySlot", squirrel.Eq{"slot_id": slotID}, "created_at ASC", "id ASC")
}

// ListByCustomer бронирования клиента, опционально с фильтром по статусу
func (r *Repository) ListByCustomer(ctx context.Context, customerID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	filter := squirrel.Eq{"customer_id": customerID}
	if status != nil {
		filter["status"] = *status
	}
	return r.list(ctx, "ListByCustomer", filter, "created_at DESC", "id DESC")
}

func (r *Repository) list(ctx context.Context, op string, filter squirrel.Eq, orderBy ...string) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.qb.Select(bookingColumns...).
		From("bookings").
		Where(filter).
		OrderBy(orderBy...).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, op, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// UpdateStatus меняет статус, только если текущий статус равен from
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus, reason *string, now time.Time) error {
	update := r.qb.Update("bookings").
		Set("status", to).
		Set("status_change_reason", reason).
		Set("updated_at", now)

	return r.compareAndUpdate(ctx, "UpdateStatus", id, from, update)
}

// Cancel отменяет бронирование и добавляет штраф за позднюю отмену
func (r *Repository) Cancel(ctx context.Context, id int64, from domain.BookingStatus, reason *string, fee int64, now time.Time) error {
	update := r.qb.Update("bookings").
		Set("status", domain.StatusCancelled).
		Set("status_change_reason", reason).
		Set("fee_amount", squirrel.Expr("fee_amount + ?", fee)).
		Set("cancelled_at", now).
		Set("updated_at", now)

	return r.compareAndUpdate(ctx, "Cancel", id, from, update)
}

// MoveToSlot переносит бронирование на новый слот после одобрения переноса:
// статус становится confirmed, счётчик переносов увеличивается, штраф добавляется.
func (r *Repository) MoveToSlot(ctx context.Context, id int64, from domain.BookingStatus, slotID int64, fee int64, reason *string, now time.Time) error {
	update := r.qb.Update("bookings").
		Set("slot_id", slotID).
		Set("status", domain.StatusConfirmed).
		Set("reschedule_count", squirrel.Expr("reschedule_count + 1")).
		Set("fee_amount", squirrel.Expr("fee_amount + ?", fee)).
		Set("status_change_reason", reason).
		Set("updated_at", now)

	return r.compareAndUpdate(ctx, "MoveToSlot", id, from, update)
}

func (r *Repository) compareAndUpdate(ctx context.Context, op string, id int64, from domain.BookingStatus, update squirrel.UpdateBuilder) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := update.
		Where(squirrel.Eq{"id": id, "status": from}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, op, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if dberrors.IsUniqueViolation(err) {
		return ErrActiveBookingExists
	}
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrStatusChanged
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&booking.ID,
		&booking.Reference,
		&booking.SlotID,
		&booking.CustomerID,
		&booking.VehicleID,
		&booking.Status,
		&booking.TotalPrice,
		&booking.FeeAmount,
		&booking.PaymentStatus,
		&booking.RescheduleCount,
		&booking.StatusChangeReason,
		&booking.CancelledAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return &booking, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}
