package profiler

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func TestTickLogsAfterInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	logger, hook := test.NewNullLogger()
	p := NewProfiler(WithInterval(time.Second), WithLogger(logger), withClock(clock.now))

	clock.advance(500 * time.Millisecond)
	assert.False(t, p.Tick(1024))
	assert.Empty(t, hook.AllEntries())

	clock.advance(500 * time.Millisecond)
	assert.True(t, p.Tick(1024*1024))
	require.Len(t, hook.AllEntries(), 1)

	entry := hook.LastEntry()
	assert.Equal(t, "[Profiler] upload stats", entry.Message)
	assert.Equal(t, 2, entry.Data["uploads"])
	assert.InDelta(t, 2.0, entry.Data["uploads_per_s"], 1e-9)
	assert.InDelta(t, 1+1.0/1024, entry.Data["mb_per_s"], 1e-9)
}

func TestFlushResetsWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	logger, hook := test.NewNullLogger()
	p := NewProfiler(WithLogger(logger), withClock(clock.now))

	p.Tick(10)
	p.Tick(20)
	clock.advance(250 * time.Millisecond)

	s := p.Flush()
	assert.Equal(t, 2, s.Uploads)
	assert.Equal(t, 30, s.Bytes)
	assert.Equal(t, 250*time.Millisecond, s.Elapsed)
	assert.InDelta(t, 8.0, s.UploadRate, 1e-9)
	assert.Len(t, hook.AllEntries(), 1)

	empty := p.Flush()
	assert.Zero(t, empty.Uploads)
	assert.Zero(t, empty.UploadRate, "zero elapsed time leaves rates at zero")
	assert.Len(t, hook.AllEntries(), 1, "an empty window is not logged")
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(-time.Second))
	assert.Equal(t, time.Second, p.updateInterval)
}
