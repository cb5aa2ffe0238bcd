package repository

import (
	"context"
	"errors"
	"time"

	"github.com/okian/chipledger/pkg/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowQuery = 200 * time.Millisecond

// Option applies a configuration option to a SQL-backed store.
type Option func(*options)

type options struct {
	log       logger.Logger
	slowQuery time.Duration
}

// WithLogger routes SQL tracing through l.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithSlowQueryThreshold sets the duration above which queries are logged as warnings.
func WithSlowQueryThreshold(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.slowQuery = d
		}
	}
}

func newOptions(opts []Option) options {
	o := options{slowQuery: defaultSlowQuery}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) gormLogger() gormlogger.Interface {
	if o.log == nil {
		return gormlogger.Discard
	}
	return &sqlLogger{log: o.log.Named("sql"), slow: o.slowQuery, level: gormlogger.Warn}
}

// sqlLogger adapts logger.Logger to GORM's logger interface.
type sqlLogger struct {
	log   logger.Logger
	slow  time.Duration
	level gormlogger.LogLevel
}

func (l *sqlLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *sqlLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.log.Info(ctx, msg, logger.Any("args", args))
	}
}

func (l *sqlLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.log.Warn(ctx, msg, logger.Any("args", args))
	}
}

func (l *sqlLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.log.Error(ctx, msg, logger.Any("args", args))
	}
}

func (l *sqlLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		l.log.Error(ctx, "sql failed", logger.String("sql", sql), logger.Any("rows", rows), logger.Duration("elapsed", elapsed), logger.Error(err))
	case elapsed > l.slow && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.log.Warn(ctx, "slow sql", logger.String("sql", sql), logger.Any("rows", rows), logger.Duration("elapsed", elapsed))
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.log.Debug(ctx, "sql", logger.String("sql", sql), logger.Any("rows", rows), logger.Duration("elapsed", elapsed))
	}
}
