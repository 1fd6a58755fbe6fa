package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"lumenai/internal/database/databasetest"
)

type fakePurger struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakePurger) PurgeExpired(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("purge without deadline")
	}
	return 3, f.err
}

func (f *fakePurger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestStartPurgesImmediately(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := &fakePurger{}
	s := New("@every 1h", p, nil)
	require.NoError(t, s.Start())
	assert.Equal(t, 1, p.count())
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}

func TestStartSchedulesPoolStats(t *testing.T) {
	s := New("@every 1h", &fakePurger{}, databasetest.Open(t))
	require.NoError(t, s.Start())
	defer s.Stop()
	assert.Len(t, s.cron.Entries(), 2)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := New("every now and then", &fakePurger{}, nil)
	assert.ErrorContains(t, s.Start(), "invalid cleanup schedule")
}

func TestPurgeErrorsAreLogged(t *testing.T) {
	p := &fakePurger{err: errors.New("database is locked")}
	s := New("@hourly", p, nil)
	s.PurgeTokens()
	assert.Equal(t, 1, p.count())
}

func TestRecordPoolStats(t *testing.T) {
	s := New("@hourly", &fakePurger{}, databasetest.Open(t))
	assert.NotPanics(t, s.RecordPoolStats)
}
