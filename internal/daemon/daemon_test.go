package daemon

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/persiandate/internal/metrics"
	"github.com/username/persiandate/pkg/persiandate"
	"go.uber.org/zap"
)

// testClock is a settable clock safe for use from the schedule loop
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

func newTestDaemon(t *testing.T, settings Settings, now *time.Time) *Daemon {
	t.Helper()
	d := NewScheduledDaemon(settings, metrics.New(), zap.NewNop())
	d.now = func() time.Time { return *now }
	t.Cleanup(d.Stop)
	return d
}

func TestRunOnceWritesFile(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, time.March, 20, 9, 0, 0, 0, time.Local)
	d := newTestDaemon(t, Settings{
		OutputFile:  filepath.Join(dir, "nested", "today"),
		MetricsFile: filepath.Join(dir, "persiandate.prom"),
		Format:      persiandate.Hyphenated,
		ZeroPad:     true,
	}, &now)

	value, err := d.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, "1403-01-01", value)

	data, err := os.ReadFile(filepath.Join(dir, "nested", "today"))
	require.NoError(t, err)
	assert.Equal(t, "1403-01-01\n", string(data))

	_, err = os.Stat(filepath.Join(dir, "persiandate.prom"))
	assert.NoError(t, err)

	gregorian, persian := d.Status()
	assert.Equal(t, "2024-03-20", gregorian)
	assert.Equal(t, "1403-01-01", persian)
}

func TestRunOnceIsIdempotentPerDay(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "today")
	now := time.Date(2025, time.March, 20, 0, 5, 0, 0, time.Local)
	d := newTestDaemon(t, Settings{OutputFile: out, Format: persiandate.US, ZeroPad: false}, &now)

	value, err := d.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, "12/30/1403", value)

	// Tamper with the file: a second run on the same day must not rewrite it
	require.NoError(t, os.WriteFile(out, []byte("edited\n"), 0o644))
	now = now.Add(6 * time.Hour)

	value, err = d.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, "12/30/1403", value)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "edited\n", string(data))

	// Next day updates
	now = time.Date(2025, time.March, 21, 0, 5, 0, 0, time.Local)
	value, err = d.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, "1/1/1404", value)

	data, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "1/1/1404\n", string(data))
}

func TestRefreshNowForcesRewrite(t *testing.T) {
	out := filepath.Join(t.TempDir(), "today")
	now := time.Date(2024, time.March, 19, 12, 0, 0, 0, time.Local)
	d := newTestDaemon(t, Settings{OutputFile: out, Format: persiandate.International, ZeroPad: true}, &now)

	_, err := d.RunOnce()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(out, []byte("edited\n"), 0o644))

	d.RefreshNow()

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "29/12/1402\n", string(data))
}

func TestRunOnceWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	now := time.Date(2024, time.March, 20, 9, 0, 0, 0, time.Local)
	d := newTestDaemon(t, Settings{OutputFile: filepath.Join(blocker, "today"), Format: persiandate.Hyphenated}, &now)

	_, err := d.RunOnce()
	assert.Error(t, err)

	gregorian, _ := d.Status()
	assert.Empty(t, gregorian)
}

func TestCalculateNextRun(t *testing.T) {
	now := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.Local)
	d := newTestDaemon(t, Settings{DailyHour: 0, DailyMinute: 5}, &now)

	assert.Equal(t, time.Date(2025, time.January, 16, 0, 5, 0, 0, time.Local), d.calculateNextRun())

	d.settings.DailyHour = 23
	assert.Equal(t, time.Date(2025, time.January, 15, 23, 5, 0, 0, time.Local), d.calculateNextRun())
}

func TestStopCancelsContext(t *testing.T) {
	now := time.Now()
	d := newTestDaemon(t, Settings{}, &now)

	d.Stop()

	select {
	case <-d.ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled after Stop")
	}
}

func TestStartReturnsAfterStop(t *testing.T) {
	now := time.Date(2024, time.March, 20, 9, 0, 0, 0, time.Local)
	d := newTestDaemon(t, Settings{
		OutputFile: filepath.Join(t.TempDir(), "today"),
		Format:     persiandate.Hyphenated,
		ZeroPad:    true,
	}, &now)

	done := make(chan error, 1)
	go func() { done <- d.Start() }()

	require.Eventually(t, func() bool {
		_, persian := d.Status()
		return persian == "1403-01-01"
	}, 2*time.Second, 10*time.Millisecond)

	d.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func TestScheduledLoopWritesAndReschedules(t *testing.T) {
	out := filepath.Join(t.TempDir(), "today")
	clock := &testClock{now: time.Date(2024, time.March, 20, 9, 0, 0, 0, time.Local)}

	d := NewScheduledDaemon(Settings{
		OutputFile:  out,
		Format:      persiandate.Hyphenated,
		ZeroPad:     true,
		DailyHour:   0,
		DailyMinute: 5,
	}, metrics.New(), zap.NewNop())
	d.now = clock.Now
	d.tick = 5 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- d.Start() }()

	// Written immediately on start
	require.Eventually(t, func() bool {
		return readFile(t, out) == "1403-01-01\n"
	}, 2*time.Second, 5*time.Millisecond)

	// Before the scheduled time nothing changes
	clock.Set(time.Date(2024, time.March, 21, 0, 1, 0, 0, time.Local))
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, "1403-01-01\n", readFile(t, out))

	clock.Set(time.Date(2024, time.March, 21, 0, 6, 0, 0, time.Local))
	require.Eventually(t, func() bool {
		return readFile(t, out) == "1403-01-02\n"
	}, 2*time.Second, 5*time.Millisecond)

	// The next run is scheduled for the following day
	clock.Set(time.Date(2024, time.March, 22, 0, 6, 0, 0, time.Local))
	require.Eventually(t, func() bool {
		return readFile(t, out) == "1403-01-03\n"
	}, 2*time.Second, 5*time.Millisecond)

	d.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled loop did not return after cancellation")
	}
}
