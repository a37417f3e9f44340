package telemetry

import (
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewProfilerDisabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfilerRequiresServerAddress(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{
		Enabled:         true,
		ApplicationName: "homefinder-backend",
	}, zaptest.NewLogger(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "server address")
}

func TestNewProfilerRequiresApplicationName(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{
		Enabled:       true,
		ServerAddress: "http://localhost:4040",
	}, zaptest.NewLogger(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "application name")
}

func TestProfileTypesSelection(t *testing.T) {
	cfg := ProfilerConfig{
		ProfileCPU:        true,
		ProfileGoroutines: true,
	}

	types := cfg.profileTypes()
	assert.ElementsMatch(t, []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileGoroutines,
	}, types)
}

func TestProfileTypesEmptyByDefault(t *testing.T) {
	assert.Empty(t, ProfilerConfig{}.profileTypes())
}

func TestProfilerStartAndStop(t *testing.T) {
	// The pyroscope client starts without a reachable server; uploads
	// fail asynchronously and are dropped.
	p, err := NewProfiler(ProfilerConfig{
		Enabled:         true,
		ServerAddress:   "http://localhost:4040",
		ApplicationName: "homefinder-backend-test",
		ProfileCPU:      true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.True(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}
