package run

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carto-dev/carto/internal/cache"
	"github.com/carto-dev/carto/internal/config"
)

func TestTimerKeepsFirstRunOrder(t *testing.T) {
	timer := NewTimer()
	timer.Add("scan", 10*time.Millisecond)
	timer.Add("parse", 40*time.Millisecond)
	timer.Add("scan", 5*time.Millisecond)

	durations := timer.Durations()
	require.Len(t, durations, 2)
	assert.Equal(t, "scan", durations[0].Name)
	assert.Equal(t, 15*time.Millisecond, durations[0].Duration)
	assert.Equal(t, "parse", durations[1].Name)
	assert.Equal(t, 55*time.Millisecond, timer.Total())
}

func TestPhaseMeasuresElapsed(t *testing.T) {
	timer := NewTimer()
	stop := timer.Phase("resolve")
	time.Sleep(2 * time.Millisecond)
	stop()

	durations := timer.Durations()
	require.Len(t, durations, 1)
	assert.Equal(t, "resolve", durations[0].Name)
	assert.Greater(t, durations[0].Duration, time.Duration(0))
}

func TestNewContextPopulatesIdentity(t *testing.T) {
	ctx := New("/tmp/project", config.Default(), nil)
	assert.NotEmpty(t, ctx.ID)
	assert.Equal(t, "/tmp/project", ctx.Root)
	assert.NotNil(t, ctx.Log)
	assert.NotNil(t, ctx.Timer)
	assert.GreaterOrEqual(t, ctx.Elapsed(), time.Duration(0))
	require.NoError(t, ctx.Close())
}

func TestContextAggregatesWarnings(t *testing.T) {
	ctx := New("/tmp/project", config.Default(), nil)
	assert.Empty(t, ctx.Warnings())

	ctx.Warn("cannot parse %s", "weird.py")
	ctx.Warn("cache write failed")
	assert.Equal(t, []string{"cannot parse weird.py", "cache write failed"}, ctx.Warnings())
}

func TestContextCloseReleasesCache(t *testing.T) {
	ctx := New("/tmp/project", config.Default(), nil)
	ctx.Cache = cache.NewMemory()
	require.NoError(t, ctx.Close())
	assert.Nil(t, ctx.Cache)
	require.NoError(t, ctx.Close())
}
