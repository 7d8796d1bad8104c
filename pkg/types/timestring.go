package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

var (
	// ErrInvalidTimeString возвращается при некорректном формате времени (ожидается HH:MM)
	ErrInvalidTimeString = errors.New("invalid time string format")

	// ErrTimeOverflow возвращается, когда время выходит за пределы суток
	ErrTimeOverflow = errors.New("time string overflows the day")
)

// TimeString время суток в формате HH:MM
// Хранится как количество минут от полуночи, в БД пишется строкой "HH:MM"
type TimeString struct {
	minutes int
	valid   bool
}

// NewTimeString создает TimeString из time.Time (секунды отбрасываются)
func NewTimeString(t time.Time) TimeString {
	return TimeString{minutes: t.Hour()*60 + t.Minute(), valid: true}
}

// NewTimeStringFromString парсит строку формата HH:MM
func NewTimeStringFromString(s string) (TimeString, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeString{}, fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
	}
	return NewTimeString(t), nil
}

// MustTimeString используется в тестах и константах
func MustTimeString(s string) TimeString {
	t, err := NewTimeStringFromString(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeString) IsZero() bool {
	return !t.valid
}

// Validate проверяет, что время было корректно инициализировано
func (t TimeString) Validate() error {
	if !t.valid || t.minutes < 0 || t.minutes >= minutesPerDay {
		return ErrInvalidTimeString
	}
	return nil
}

// Minutes возвращает количество минут от полуночи
func (t TimeString) Minutes() int {
	return t.minutes
}

// AddMinutes прибавляет минуты. Ровно 24:00 допустимо только как конец интервала,
// поэтому переход через полночь считается ошибкой.
func (t TimeString) AddMinutes(m int) (TimeString, error) {
	total := t.minutes + m
	if total < 0 || total > minutesPerDay {
		return TimeString{}, ErrTimeOverflow
	}
	return TimeString{minutes: total, valid: true}, nil
}

func (t TimeString) IsBefore(other TimeString) bool {
	return t.minutes < other.minutes
}

func (t TimeString) IsAfter(other TimeString) bool {
	return t.minutes > other.minutes
}

func (t TimeString) Equal(other TimeString) bool {
	return t.minutes == other.minutes
}

// On возвращает момент начала t в указанную дату и временной зоне
func (t TimeString) On(date Date, loc *time.Location) time.Time {
	y, m, d := date.Time().Date()
	return time.Date(y, m, d, t.minutes/60, t.minutes%60, 0, 0, loc)
}

func (t TimeString) String() string {
	if !t.valid {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", t.minutes/60, t.minutes%60)
}

// Scan реализует sql.Scanner
func (t *TimeString) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = TimeString{}
		return nil
	case string:
		return t.parseDB(v)
	case []byte:
		return t.parseDB(string(v))
	case time.Time:
		*t = NewTimeString(v)
		return nil
	default:
		return fmt.Errorf("%w: unsupported scan type %T", ErrInvalidTimeString, src)
	}
}

// parseDB принимает как "HH:MM", так и "HH:MM:SS" (формат TIME в Postgres)
func (t *TimeString) parseDB(s string) error {
	if len(s) > 5 {
		s = s[:5]
	}
	parsed, err := NewTimeStringFromString(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value реализует driver.Valuer
func (t TimeString) Value() (driver.Value, error) {
	if !t.valid {
		return nil, nil
	}
	return t.String(), nil
}

func (t TimeString) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeString) UnmarshalText(b []byte) error {
	parsed, err := NewTimeStringFromString(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
