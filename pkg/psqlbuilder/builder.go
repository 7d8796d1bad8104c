package psqlbuilder

import (
	"fmt"

	"github.com/Masterminds/squirrel"
)

// Поддерживаемые диалекты SQL
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Builder обёртка над squirrel.StatementBuilderType с плейсхолдерами нужного диалекта
// Postgres использует $1, $2..., SQLite - ?
type Builder struct {
	dialect string
	sb      squirrel.StatementBuilderType
}

// New создает билдер для указанного диалекта
func New(dialect string) (Builder, error) {
	switch dialect {
	case DialectPostgres:
		return Builder{dialect: dialect, sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}, nil
	case DialectSQLite:
		return Builder{dialect: dialect, sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)}, nil
	default:
		return Builder{}, fmt.Errorf("psqlbuilder: unsupported dialect %q", dialect)
	}
}

// Dialect возвращает имя диалекта
func (b Builder) Dialect() string {
	return b.dialect
}

func (b Builder) Select(columns ...string) squirrel.SelectBuilder {
	return b.sb.Select(columns...)
}

func (b Builder) Insert(table string) squirrel.InsertBuilder {
	return b.sb.Insert(table)
}

func (b Builder) Update(table string) squirrel.UpdateBuilder {
	return b.sb.Update(table)
}

func (b Builder) Delete(table string) squirrel.DeleteBuilder {
	return b.sb.Delete(table)
}
