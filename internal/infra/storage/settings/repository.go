package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

// policyRowID единственная строка таблицы business_policy
const policyRowID = 1

// Repository хранит недельный шаблон и политику отмены/переноса
type Repository struct {
	db DBExecutor
	qb psqlbuilder.Builder
}

// NewRepository создает новый экземпляр репозитория настроек
func NewRepository(db DBExecutor, qb psqlbuilder.Builder) *Repository {
	return &Repository{db: db, qb: qb}
}

// GetWeeklyTemplate читает все семь дней шаблона
func (r *Repository) GetWeeklyTemplate(ctx context.Context) (*domain.WeeklyTemplate, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.qb.Select(
		"day_of_week",
		"is_working_day",
		"start_time",
		"end_time",
		"slot_duration_minutes",
		"max_bookings_per_slot",
		"break_start",
		"break_end",
		"updated_at",
	).
		From("weekly_template").
		OrderBy("day_of_week ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetWeeklyTemplate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetWeeklyTemplate - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	var template domain.WeeklyTemplate
	seen := 0

	for rows.Next() {
		var day domain.DayTemplate
		var dayOfWeek int
		var updatedAt sql.NullTime

		err := rows.Scan(
			&dayOfWeek,
			&day.IsWorkingDay,
			&day.StartTime,
			&day.EndTime,
			&day.SlotDurationMinutes,
			&day.MaxBookingsPerSlot,
			&day.BreakStart,
			&day.BreakEnd,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: GetWeeklyTemplate - scan row: %v", ErrScanRow, err)
		}
		if dayOfWeek < 0 || dayOfWeek > 6 {
			return nil, fmt.Errorf("%w: GetWeeklyTemplate - day_of_week %d", ErrScanRow, dayOfWeek)
		}

		day.DayOfWeek = time.Weekday(dayOfWeek)
		day.UpdatedAt = updatedAt.Time
		template.Days[dayOfWeek] = day
		seen++
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetWeeklyTemplate - rows error: %v", ErrScanRow, err)
	}

	if seen != len(template.Days) {
		return nil, fmt.Errorf("%w: found %d of 7 days", ErrIncompleteTemplate, seen)
	}

	return &template, nil
}

// UpdateDay сохраняет настройки одного дня недели
func (r *Repository) UpdateDay(ctx context.Context, day domain.DayTemplate, now time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	update := r.qb.Update("weekly_template").
		Set("is_working_day", day.IsWorkingDay).
		Set("slot_duration_minutes", day.SlotDurationMinutes).
		Set("max_bookings_per_slot", day.MaxBookingsPerSlot).
		Set("break_start", day.BreakStart).
		Set("break_end", day.BreakEnd).
		Set("updated_at", now)

	// Колонки времени NOT NULL: пустое значение оставляет прежнее
	if !day.StartTime.IsZero() {
		update = update.Set("start_time", day.StartTime)
	}
	if !day.EndTime.IsZero() {
		update = update.Set("end_time", day.EndTime)
	}

	query, args, err := update.
		Where(squirrel.Eq{"day_of_week": int(day.DayOfWeek)}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateDay - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateDay - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateDay - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrTemplateNotFound
	}

	return nil
}

// GetPolicy читает политику отмены и переноса
func (r *Repository) GetPolicy(ctx context.Context) (*domain.BusinessPolicy, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.qb.Select(
		"cancellation_window_hours",
		"late_cancellation_fee",
		"reschedule_window_hours",
		"reschedule_fee",
		"max_reschedules",
		"min_booking_notice_minutes",
		"advance_booking_days",
		"updated_at",
	).
		From("business_policy").
		Where(squirrel.Eq{"id": policyRowID}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetPolicy - build select query: %v", ErrBuildQuery, err)
	}

	var policy domain.BusinessPolicy
	var updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&policy.CancellationWindowHours,
		&policy.LateCancellationFee,
		&policy.RescheduleWindowHours,
		&policy.RescheduleFee,
		&policy.MaxReschedules,
		&policy.MinBookingNoticeMinutes,
		&policy.AdvanceBookingDays,
		&updatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPolicyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetPolicy - scan policy: %v", ErrScanRow, err)
	}

	policy.UpdatedAt = updatedAt.Time

	return &policy, nil
}

// UpdatePolicy перезаписывает политику целиком
func (r *Repository) UpdatePolicy(ctx context.Context, policy domain.BusinessPolicy, now time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.qb.Update("business_policy").
		Set("cancellation_window_hours", policy.CancellationWindowHours).
		Set("late_cancellation_fee", policy.LateCancellationFee).
		Set("reschedule_window_hours", policy.RescheduleWindowHours).
		Set("reschedule_fee", policy.RescheduleFee).
		Set("max_reschedules", policy.MaxReschedules).
		Set("min_booking_notice_minutes", policy.MinBookingNoticeMinutes).
		Set("advance_booking_days", policy.AdvanceBookingDays).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": policyRowID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdatePolicy - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdatePolicy - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdatePolicy - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrPolicyNotFound
	}

	return nil
}
