package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func setupTracedDB(t *testing.T, cfg DBTracingConfig) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	require.NoError(t, NewDBTracingPlugin(cfg, zap.NewNop()).Register(db))
	return db
}

func TestNewDBTracingPlugin_Defaults(t *testing.T) {
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, nil)
	assert.Equal(t, 200*time.Millisecond, p.config.SlowQueryThresh)
	assert.Equal(t, "postgresql", p.config.DBSystem)
	assert.Equal(t, DefaultDBTracingConfig().SlowQueryThresh, p.config.SlowQueryThresh)
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	db := setupTracedDB(t, DBTracingConfig{Enabled: false})
	assert.Nil(t, db.Callback().Query().Get("otel_timing:after_query"))
}

func TestDBTracingPlugin_Enabled(t *testing.T) {
	db := setupTracedDB(t, DBTracingConfig{Enabled: true})
	assert.NotNil(t, db.Callback().Query().Get("otel_timing:after_query"))

	require.NoError(t, db.Create(&tracedRow{Name: "pump"}).Error)
	var got tracedRow
	require.NoError(t, db.First(&got).Error)
	assert.Equal(t, "pump", got.Name)
}

func TestDBTracingPlugin_AfterQueryAnnotatesSpan(t *testing.T) {
	db := setupTracedDB(t, DBTracingConfig{Enabled: false})
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: time.Millisecond}, nil)

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "ticket.list")
	ctx = context.WithValue(ctx, queryStartTimeKey, time.Now().Add(-time.Second))

	tx := db.WithContext(ctx)
	tx.Statement.RowsAffected = 3
	tx.Statement.Table = "tickets"
	tx.Error = errors.New("deadlock detected")
	p.afterQuery(tx)
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	got := ended[0]

	attrs := map[string]any{}
	for _, kv := range got.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, int64(3), attrs["db.rows_affected"])
	assert.Equal(t, "tickets", attrs["db.sql.table"])
	assert.Equal(t, true, attrs["db.slow_query"])
	assert.Equal(t, codes.Error, got.Status().Code)

	names := []string{}
	for _, ev := range got.Events() {
		names = append(names, ev.Name)
	}
	assert.Contains(t, names, "slow_query_warning")
}

func TestDBTracingPlugin_AfterQueryIgnoresNotFound(t *testing.T) {
	db := setupTracedDB(t, DBTracingConfig{Enabled: false})
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, nil)

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "user.get")
	tx := db.WithContext(ctx)
	tx.Error = gorm.ErrRecordNotFound
	p.afterQuery(tx)
	span.End()

	assert.NotEqual(t, codes.Error, sr.Ended()[0].Status().Code)

	// A context without a recording span is left alone
	assert.NotPanics(t, func() { p.afterQuery(db.WithContext(context.Background())) })
}

func TestDBTracingPlugin_DoubleRegistration(t *testing.T) {
	db := setupTracedDB(t, DBTracingConfig{Enabled: true})
	assert.Error(t, NewDBTracingPlugin(DBTracingConfig{Enabled: true}, nil).Register(db))
}
