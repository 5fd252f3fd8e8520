package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Skotchmaster/marketplace/pkg/logging"
)

// stringLiteral matches single-quoted SQL literals, including '' escapes.
var stringLiteral = regexp.MustCompile(`'(?:[^']|'')*'`)

// redact hides string values (password and token hashes, emails) from
// interpolated statements. Numbers and identifiers are kept.
func redact(sql string) string {
	return stringLiteral.ReplaceAllString(sql, "'?'")
}

// SlogLogger routes GORM statement logs to the request logger stored in ctx.
type SlogLogger struct {
	SlowThreshold time.Duration
	level         gormlogger.LogLevel
}

func NewSlogLogger(slow time.Duration) *SlogLogger {
	return &SlogLogger{SlowThreshold: slow, level: gormlogger.Info}
}

func (l *SlogLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		logging.FromContext(ctx).Info(fmt.Sprintf(msg, args...), "component", "gorm")
	}
}

func (l *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		logging.FromContext(ctx).Warn(fmt.Sprintf(msg, args...), "component", "gorm")
	}
}

func (l *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		logging.FromContext(ctx).Error(fmt.Sprintf(msg, args...), "component", "gorm")
	}
}

func (l *SlogLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	lg := logging.FromContext(ctx).With(
		"component", "gorm",
		"duration_ms", elapsed.Milliseconds(),
		"rows", rows,
		"sql", redact(sql),
	)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		lg.Error("query_failed", "error", err)
	case l.SlowThreshold > 0 && elapsed > l.SlowThreshold && l.level >= gormlogger.Warn:
		lg.Warn("query_slow", "threshold_ms", l.SlowThreshold.Milliseconds())
	case l.level >= gormlogger.Info:
		lg.Debug("query_done")
	}
}
