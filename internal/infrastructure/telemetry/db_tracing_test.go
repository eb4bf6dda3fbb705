package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTracingTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestStatementOperation(t *testing.T) {
	tests := map[string]string{
		"SELECT * FROM fee_vouchers":                 "SELECT",
		"  insert into voucher_payments values (1)":  "INSERT",
		"UPDATE fee_vouchers SET version = version+1": "UPDATE",
		"delete from fee_vouchers":                    "DELETE",
		"CREATE TABLE x (id int)":                     "OTHER",
		"":                                            "OTHER",
	}
	for sqlText, want := range tests {
		assert.Equal(t, want, statementOperation(sqlText), sqlText)
	}
}

func TestDBTracingPlugin_Enabled(t *testing.T) {
	recorder := withRecorder(t)
	mp, reader := newTestMeterProvider(t)

	plugin, err := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, mp.Meter(MeterName), zap.NewNop())
	require.NoError(t, err)

	db := openTracingTestDB(t)
	require.NoError(t, db.Use(plugin))

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Exec("CREATE TABLE ledger_probe (id integer)").Error)
	require.NoError(t, db.WithContext(ctx).Exec("INSERT INTO ledger_probe (id) VALUES (1), (2)").Error)

	var count int64
	require.NoError(t, db.WithContext(ctx).Table("ledger_probe").Count(&count).Error)
	assert.Equal(t, int64(2), count)

	assert.Error(t, db.WithContext(ctx).Exec("SELECT * FROM missing_table").Error)

	queries, ok := collectMetric(t, reader, "db_query_total")
	require.True(t, ok)
	assert.Equal(t, int64(1), sumWhere(t, queries, "db.operation", "INSERT"))
	assert.GreaterOrEqual(t, sumWhere(t, queries, "db.operation", "SELECT"), int64(2))
	assert.Equal(t, int64(1), sumWhere(t, queries, "db.operation", "OTHER"))

	assert.NotEmpty(t, recorder.Ended())
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	recorder := withRecorder(t)

	plugin, err := NewDBTracingPlugin(DefaultDBTracingConfig(), nil, zap.NewNop())
	require.NoError(t, err)

	db := openTracingTestDB(t)
	require.NoError(t, db.Use(plugin))
	require.NoError(t, db.Exec("CREATE TABLE ledger_probe (id integer)").Error)

	assert.Empty(t, recorder.Ended())

	// Without a meter there is nothing to collect
	plugin.StartPoolStatsCollection(context.Background(), nil)
	plugin.Stop()
	plugin.Stop()
}
