package telemetry

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// ProfilerConfig holds Pyroscope continuous profiling configuration.
type ProfilerConfig struct {
	Enabled           bool
	ServerAddress     string
	ApplicationName   string
	BasicAuthUser     string // Grafana Cloud
	BasicAuthPassword string

	ProfileCPU           bool
	ProfileAllocObjects  bool
	ProfileAllocSpace    bool
	ProfileInuseObjects  bool
	ProfileInuseSpace    bool
	ProfileGoroutines    bool
	ProfileMutexCount    bool
	ProfileMutexDuration bool
	ProfileBlockCount    bool
	ProfileBlockDuration bool

	MutexProfileFraction int
	BlockProfileRate     int
	DisableGCRuns        bool
}

func (cfg ProfilerConfig) profileTypes() []pyroscope.ProfileType {
	var types []pyroscope.ProfileType
	for _, p := range []struct {
		on  bool
		typ pyroscope.ProfileType
	}{
		{cfg.ProfileCPU, pyroscope.ProfileCPU},
		{cfg.ProfileAllocObjects, pyroscope.ProfileAllocObjects},
		{cfg.ProfileAllocSpace, pyroscope.ProfileAllocSpace},
		{cfg.ProfileInuseObjects, pyroscope.ProfileInuseObjects},
		{cfg.ProfileInuseSpace, pyroscope.ProfileInuseSpace},
		{cfg.ProfileGoroutines, pyroscope.ProfileGoroutines},
		{cfg.ProfileMutexCount, pyroscope.ProfileMutexCount},
		{cfg.ProfileMutexDuration, pyroscope.ProfileMutexDuration},
		{cfg.ProfileBlockCount, pyroscope.ProfileBlockCount},
		{cfg.ProfileBlockDuration, pyroscope.ProfileBlockDuration},
	} {
		if p.on {
			types = append(types, p.typ)
		}
	}
	return types
}

// Profiler wraps the Pyroscope session. Disabled configuration yields
// a no-op profiler.
type Profiler struct {
	profiler *pyroscope.Profiler
	logger   *zap.Logger
	config   ProfilerConfig
	mu       sync.Mutex
	stopped  bool
}

// NewProfiler starts continuous profiling against the configured
// Pyroscope server.
func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger, config: cfg}

	if !cfg.Enabled {
		logger.Info("Continuous profiling disabled")
		return p, nil
	}
	if cfg.ServerAddress == "" {
		return nil, fmt.Errorf("profiler server address is required when profiling is enabled")
	}
	if cfg.ApplicationName == "" {
		return nil, fmt.Errorf("profiler application name is required when profiling is enabled")
	}

	// Mutex and block profiles stay empty unless the runtime samples them
	if cfg.ProfileMutexCount || cfg.ProfileMutexDuration {
		fraction := cfg.MutexProfileFraction
		if fraction <= 0 {
			fraction = 5
		}
		runtime.SetMutexProfileFraction(fraction)
	}
	if cfg.ProfileBlockCount || cfg.ProfileBlockDuration {
		rate := cfg.BlockProfileRate
		if rate <= 0 {
			rate = 5
		}
		runtime.SetBlockProfileRate(rate)
	}

	types := cfg.profileTypes()
	if len(types) == 0 {
		logger.Warn("No profile types enabled, profiler will not collect any data")
	}

	tags := map[string]string{}
	if hostname := os.Getenv("HOSTNAME"); hostname != "" {
		tags["hostname"] = hostname
	}

	session := pyroscope.Config{
		ApplicationName:   cfg.ApplicationName,
		ServerAddress:     cfg.ServerAddress,
		BasicAuthUser:     cfg.BasicAuthUser,
		BasicAuthPassword: cfg.BasicAuthPassword,
		Logger:            pyroscopeZap{logger.Named("pyroscope").Sugar()},
		Tags:              tags,
		ProfileTypes:      types,
		DisableGCRuns:     cfg.DisableGCRuns,
	}

	profiler, err := pyroscope.Start(session)
	if err != nil {
		return nil, fmt.Errorf("failed to start Pyroscope profiler: %w", err)
	}
	p.profiler = profiler

	logger.Info("Continuous profiling started",
		zap.String("server_address", cfg.ServerAddress),
		zap.String("application_name", cfg.ApplicationName),
		zap.Int("profile_types", len(types)),
	)
	return p, nil
}

// Stop flushes pending profiles and ends the session. Safe to call
// more than once.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || p.profiler == nil {
		p.stopped = true
		return nil
	}
	p.stopped = true

	if err := p.profiler.Stop(); err != nil {
		return fmt.Errorf("failed to stop profiler: %w", err)
	}
	p.logger.Info("Continuous profiling stopped")
	return nil
}

// IsEnabled reports whether a profiling session is running.
func (p *Profiler) IsEnabled() bool {
	return p.config.Enabled && p.profiler != nil
}

// pyroscopeZap adapts zap to the pyroscope.Logger interface.
type pyroscopeZap struct {
	s *zap.SugaredLogger
}

func (l pyroscopeZap) Infof(format string, args ...any)  { l.s.Infof(format, args...) }
func (l pyroscopeZap) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l pyroscopeZap) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }
