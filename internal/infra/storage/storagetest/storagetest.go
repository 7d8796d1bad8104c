// Package storagetest поднимает временную базу SQLite с рабочей схемой для тестов
package storagetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/m04kA/SMC-SchedulingService/internal/config"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/schema"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-SchedulingService/pkg/txmanager"
)

// Store база для одного теста
type Store struct {
	DB        *dbmetrics.DB
	Builder   psqlbuilder.Builder
	TxManager *txmanager.TransactionManager
}

// New создаёт файл базы во временной директории теста и применяет схему.
// Одно соединение: SQLite сериализует запись, а транзакции в тестах конкурируют за него.
func New(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "scheduling.db")
	db, err := sql.Open("sqlite", config.SQLiteDSN(path))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	wrapped := dbmetrics.Wrap(db, nil, "test")
	require.NoError(t, schema.Apply(context.Background(), wrapped, psqlbuilder.DialectSQLite))

	qb, err := psqlbuilder.New(psqlbuilder.DialectSQLite)
	require.NoError(t, err)

	return &Store{
		DB:        wrapped,
		Builder:   qb,
		TxManager: txmanager.NewTransactionManager(wrapped),
	}
}
