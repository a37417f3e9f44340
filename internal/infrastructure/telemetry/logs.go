package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogsConfig holds log export configuration.
type LogsConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ServiceName       string
	Insecure          bool
}

// LoggerProvider owns the OTLP log pipeline. Disabled configuration
// yields a provider whose methods are all no-ops.
type LoggerProvider struct {
	provider *sdklog.LoggerProvider
	logger   *zap.Logger
	config   LogsConfig
}

// NewLoggerProvider builds the log export pipeline with a batch
// processor over OTLP gRPC.
func NewLoggerProvider(ctx context.Context, cfg LogsConfig, logger *zap.Logger) (*LoggerProvider, error) {
	lp := &LoggerProvider{logger: logger, config: cfg}

	if !cfg.Enabled {
		logger.Info("Log export disabled")
		return lp, nil
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP logs exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	lp.provider = sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(lp.provider)

	logger.Info("Log export initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.String("service_name", cfg.ServiceName),
	)
	return lp, nil
}

// IsEnabled reports whether records are exported.
func (lp *LoggerProvider) IsEnabled() bool {
	return lp.config.Enabled && lp.provider != nil
}

// ForceFlush exports buffered records immediately.
func (lp *LoggerProvider) ForceFlush(ctx context.Context) error {
	if lp.provider == nil {
		return nil
	}
	return lp.provider.ForceFlush(ctx)
}

// Shutdown flushes and stops the export pipeline.
func (lp *LoggerProvider) Shutdown(ctx context.Context) error {
	if lp.provider == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := lp.provider.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown logger provider: %w", err)
	}
	lp.logger.Info("Log export shutdown complete")
	return nil
}

// BridgeZapLogger tees the base logger with an otelzap core so every
// record reaches both the configured output and the collector. The
// bridged core inherits the base logger's level, and a disabled
// provider returns the base logger unchanged.
func BridgeZapLogger(base *zap.Logger, lp *LoggerProvider, serviceName string) *zap.Logger {
	if lp == nil || !lp.IsEnabled() {
		return base
	}

	otelCore := &gatedCore{
		Core: otelzap.NewCore(serviceName, otelzap.WithLoggerProvider(lp.provider)),
		gate: base.Core(),
	}
	return zap.New(
		zapcore.NewTee(base.Core(), otelCore),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
}

// gatedCore filters a core through another core's level decisions.
type gatedCore struct {
	zapcore.Core
	gate zapcore.LevelEnabler
}

func (c *gatedCore) Enabled(lvl zapcore.Level) bool {
	return c.gate.Enabled(lvl) && c.Core.Enabled(lvl)
}

func (c *gatedCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(entry.Level) {
		return ce
	}
	return c.Core.Check(entry, ce)
}

func (c *gatedCore) With(fields []zapcore.Field) zapcore.Core {
	return &gatedCore{Core: c.Core.With(fields), gate: c.gate}
}
