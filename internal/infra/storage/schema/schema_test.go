package schema_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/schema"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/storagetest"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

func TestApply_SeedsDefaultsAndIsRepeatable(t *testing.T) {
	store := storagetest.New(t)
	ctx := context.Background()

	// второй прогон не дублирует начальные данные
	require.NoError(t, schema.Apply(ctx, store.DB, psqlbuilder.DialectSQLite))

	var days, policies int
	require.NoError(t, store.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM weekly_template").Scan(&days))
	require.NoError(t, store.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM business_policy").Scan(&policies))
	assert.Equal(t, 7, days)
	assert.Equal(t, 1, policies)
}

func TestScript_UnknownDialect(t *testing.T) {
	_, err := schema.Script("oracle")
	assert.ErrorIs(t, err, schema.ErrUnknownDialect)

	script, err := schema.Script(psqlbuilder.DialectPostgres)
	require.NoError(t, err)
	assert.Contains(t, script, "uq_bookings_active_slot")
}
