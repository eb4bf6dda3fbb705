package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls database spans and metrics.
type DBTracingConfig struct {
	Enabled           bool
	LogFullSQL        bool          // Include bound variables in spans, never in production
	SlowQueryThresh   time.Duration // Default 200ms
	DBSystem          string        // Default "postgresql"
	PoolStatsInterval time.Duration // Default 15s
}

// DefaultDBTracingConfig returns the disabled, variable-free configuration
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh:   200 * time.Millisecond,
		DBSystem:          "postgresql",
		PoolStatsInterval: 15 * time.Second,
	}
}

type queryStartKey struct{}

// gormRegister is the registration end of a GORM callback chain
type gormRegister interface {
	Register(name string, fn func(*gorm.DB)) error
}

// statementHooks places the timing hook before each core callback and the
// annotation hook after it but ahead of otelgorm ending the span.
func (p *DBTracingPlugin) statementHooks(db *gorm.DB) []struct {
	callback gormRegister
	hook     func(*gorm.DB)
	name     string
} {
	cb := db.Callback()
	return []struct {
		callback gormRegister
		hook     func(*gorm.DB)
		name     string
	}{
		{cb.Create().Before("gorm:create"), markQueryStart, "before:create"},
		{cb.Create().After("gorm:create").Before("otel:after:create"), p.afterStatement, "after:create"},
		{cb.Query().Before("gorm:query"), markQueryStart, "before:select"},
		{cb.Query().After("gorm:query").Before("otel:after:select"), p.afterStatement, "after:select"},
		{cb.Update().Before("gorm:update"), markQueryStart, "before:update"},
		{cb.Update().After("gorm:update").Before("otel:after:update"), p.afterStatement, "after:update"},
		{cb.Delete().Before("gorm:delete"), markQueryStart, "before:delete"},
		{cb.Delete().After("gorm:delete").Before("otel:after:delete"), p.afterStatement, "after:delete"},
		{cb.Row().Before("gorm:row"), markQueryStart, "before:row"},
		{cb.Row().After("gorm:row").Before("otel:after:row"), p.afterStatement, "after:row"},
		{cb.Raw().Before("gorm:raw"), markQueryStart, "before:raw"},
		{cb.Raw().After("gorm:raw").Before("otel:after:raw"), p.afterStatement, "after:raw"},
	}
}

// DBTracingPlugin adds otelgorm spans to the ledger store, annotates slow
// or failed statements and records query and pool metrics.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger

	queryTotal     *Counter
	queryDuration  *Histogram
	poolConns      *Gauge
	stopCh         chan struct{}
	stopOnce       sync.Once
	collectorGroup sync.WaitGroup
}

// NewDBTracingPlugin creates the plugin. meter may be nil to skip metrics.
func NewDBTracingPlugin(cfg DBTracingConfig, meter metric.Meter, logger *zap.Logger) (*DBTracingPlugin, error) {
	defaults := DefaultDBTracingConfig()
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = defaults.SlowQueryThresh
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = defaults.DBSystem
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = defaults.PoolStatsInterval
	}

	p := &DBTracingPlugin{
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}
	if meter == nil {
		return p, nil
	}

	var err error
	if p.queryTotal, err = NewCounter(meter, "db_query_total", "Database statements by operation", "{query}"); err != nil {
		return nil, err
	}
	if p.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database statement latency",
		Unit:        "s",
		Boundaries:  []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}); err != nil {
		return nil, err
	}
	if p.poolConns, err = NewGauge(meter, "db_pool_connections", "Connections in the pool by state", "{connection}"); err != nil {
		return nil, err
	}
	return p, nil
}

// Name implements gorm.Plugin
func (p *DBTracingPlugin) Name() string {
	return "feeledger:db_tracing"
}

// Initialize implements gorm.Plugin
func (p *DBTracingPlugin) Initialize(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	for _, h := range p.statementHooks(db) {
		if err := h.callback.Register("feeledger:"+h.name, h.hook); err != nil {
			return fmt.Errorf("callback register %s failed: %w", h.name, err)
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (p *DBTracingPlugin) afterStatement(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	var elapsed time.Duration
	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		elapsed = time.Since(start)
	}

	if p.queryTotal != nil {
		op := attribute.String("db.operation", statementOperation(db.Statement.SQL.String()))
		p.queryTotal.Inc(ctx, op)
		p.queryDuration.RecordDuration(ctx, elapsed, op)
	}

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
	if elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}

// statementOperation classifies a statement by its leading keyword
func statementOperation(sqlText string) string {
	sqlText = strings.ToUpper(strings.TrimSpace(sqlText))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sqlText, op) {
			return op
		}
	}
	return "OTHER"
}

// StartPoolStatsCollection samples pool statistics until ctx ends or Stop
func (p *DBTracingPlugin) StartPoolStatsCollection(ctx context.Context, sqlDB *sql.DB) {
	if p.poolConns == nil || sqlDB == nil {
		return
	}

	p.collectorGroup.Add(1)
	go func() {
		defer p.collectorGroup.Done()
		ticker := time.NewTicker(p.config.PoolStatsInterval)
		defer ticker.Stop()

		for {
			stats := sqlDB.Stats()
			p.poolConns.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
			p.poolConns.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
			p.poolConns.Record(ctx, int64(stats.MaxOpenConnections), AttrDBState.String("max"))

			select {
			case <-ticker.C:
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends pool stats collection. Safe to call more than once.
func (p *DBTracingPlugin) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		p.collectorGroup.Wait()
	})
}
