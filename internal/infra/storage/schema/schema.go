package schema

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

var (
	//go:embed postgres.sql
	postgresSchema string

	//go:embed sqlite.sql
	sqliteSchema string
)

var (
	// ErrUnknownDialect для диалекта нет схемы
	ErrUnknownDialect = errors.New("schema: unknown dialect")

	// ErrApply не удалось применить схему
	ErrApply = errors.New("schema: failed to apply")
)

// Apply создаёт таблицы и заполняет значения по умолчанию (недельный шаблон, политику).
// Повторный вызов безопасен.
func Apply(ctx context.Context, db dbmetrics.DBExecutor, dialect string) error {
	script, err := Script(dialect)
	if err != nil {
		return err
	}

	for i, stmt := range statements(script) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: statement %d: %v", ErrApply, i+1, err)
		}
	}

	return nil
}

// Script возвращает DDL для диалекта
func Script(dialect string) (string, error) {
	switch dialect {
	case psqlbuilder.DialectPostgres:
		return postgresSchema, nil
	case psqlbuilder.DialectSQLite:
		return sqliteSchema, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
	}
}

// statements делит скрипт по ';'. В DDL нет строковых литералов с ';'.
func statements(script string) []string {
	parts := strings.Split(script, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
