package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

var base zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	base = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// Init 设置服务名等全局字段，并根据环境变量调整日志级别。
// 在 bootstrap 中调用一次即可。
func Init(serviceName string) {
	level := zerolog.InfoLevel
	if lv, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lv != zerolog.NoLevel {
		level = lv
	}
	base = base.Level(level).With().Str("service", serviceName).Logger()
}

// Logger 返回全局 logger，用于没有 context 的场景（启动、关停）。
func Logger() *zerolog.Logger {
	return &base
}

// Ctx 返回一个附带了当前链路 trace_id / span_id 的 logger，
// 业务代码统一通过它打日志，保证日志和 Jaeger 链路可以互相关联。
func Ctx(ctx context.Context) *zerolog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return &base
	}
	l := base.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
	return &l
}
