package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahamlab/sinyal/internal/domain"
	"github.com/sahamlab/sinyal/internal/runlock"
)

type fakePipeline struct {
	report domain.BatchReport
	err    error
	runs   int
}

func (f *fakePipeline) RunBatch(ctx context.Context) (domain.BatchReport, error) {
	f.runs++
	return f.report, f.err
}

type fakeLocks struct {
	acquireErr error

	acquired      []string
	released      []string
	forceReleased []string
	leases        []time.Duration
}

func (f *fakeLocks) Acquire(name, holder string, lease time.Duration) error {
	if f.acquireErr != nil {
		return f.acquireErr
	}
	f.acquired = append(f.acquired, holder)
	f.leases = append(f.leases, lease)
	return nil
}

func (f *fakeLocks) Release(name, holder string) error {
	f.released = append(f.released, holder)
	return nil
}

func (f *fakeLocks) ForceRelease(name string) error {
	f.forceReleased = append(f.forceReleased, name)
	return nil
}

func TestScrapeJobSuccess(t *testing.T) {
	pipeline := &fakePipeline{report: domain.BatchReport{RunID: "r1", Inserted: 5}}
	locks := &fakeLocks{}
	job := NewScrapeJob(pipeline, locks, 15*time.Minute, zerolog.Nop())

	require.NoError(t, job.Run())

	assert.Equal(t, 1, pipeline.runs)
	assert.Equal(t, StateIdle, job.State())
	assert.Empty(t, job.LastError())

	report := job.LastReport()
	require.NotNil(t, report)
	assert.Equal(t, "r1", report.RunID)
	assert.Equal(t, 5, report.Inserted)

	// lock held for the batch, then released by the same holder
	require.Len(t, locks.acquired, 1)
	require.Len(t, locks.released, 1)
	assert.Equal(t, locks.acquired[0], locks.released[0])
	assert.Empty(t, locks.forceReleased)
}

func TestScrapeJobLeaseMatchesWatchdog(t *testing.T) {
	locks := &fakeLocks{}
	job := NewScrapeJob(&fakePipeline{}, locks, 15*time.Minute, zerolog.Nop())

	require.NoError(t, job.Run())

	require.Len(t, locks.leases, 1)
	assert.Equal(t, 15*time.Minute, locks.leases[0])
}

func TestScrapeJobLockContention(t *testing.T) {
	pipeline := &fakePipeline{}
	locks := &fakeLocks{acquireErr: runlock.ErrLockHeld}
	job := NewScrapeJob(pipeline, locks, 15*time.Minute, zerolog.Nop())

	// contention is the expected multi-instance outcome: no run, no error
	require.NoError(t, job.Run())

	assert.Zero(t, pipeline.runs)
	assert.Equal(t, StateIdle, job.State())
	assert.Empty(t, job.LastError())
	assert.Empty(t, locks.released)
}

func TestScrapeJobAcquireFailure(t *testing.T) {
	pipeline := &fakePipeline{}
	locks := &fakeLocks{acquireErr: errors.New("database is locked")}
	job := NewScrapeJob(pipeline, locks, 15*time.Minute, zerolog.Nop())

	require.NoError(t, job.Run())

	assert.Zero(t, pipeline.runs)
	assert.Equal(t, StateIdle, job.State())
	assert.Contains(t, job.LastError(), "database is locked")
}

func TestScrapeJobBatchFailure(t *testing.T) {
	pipeline := &fakePipeline{err: errors.New("source unreachable")}
	locks := &fakeLocks{}
	job := NewScrapeJob(pipeline, locks, 15*time.Minute, zerolog.Nop())

	require.NoError(t, job.Run())

	assert.Equal(t, StateIdle, job.State())
	assert.Contains(t, job.LastError(), "source unreachable")
	assert.Nil(t, job.LastReport())

	// the lock is still released after a failed batch
	require.Len(t, locks.released, 1)
	assert.Empty(t, locks.forceReleased)
}

func TestScrapeJobWatchdogForceReleases(t *testing.T) {
	pipeline := &fakePipeline{err: context.DeadlineExceeded}
	locks := &fakeLocks{}
	job := NewScrapeJob(pipeline, locks, 15*time.Minute, zerolog.Nop())

	require.NoError(t, job.Run())

	assert.Equal(t, StateIdle, job.State())
	assert.Contains(t, job.LastError(), "deadline exceeded")

	// abandoned batch: force-release instead of the holder-scoped release
	assert.Equal(t, []string{ScrapeLockName}, locks.forceReleased)
	assert.Empty(t, locks.released)
}

func TestScrapeJobSuccessClearsError(t *testing.T) {
	pipeline := &fakePipeline{err: errors.New("transient")}
	locks := &fakeLocks{}
	job := NewScrapeJob(pipeline, locks, 15*time.Minute, zerolog.Nop())

	require.NoError(t, job.Run())
	require.NotEmpty(t, job.LastError())

	pipeline.err = nil
	require.NoError(t, job.Run())
	assert.Empty(t, job.LastError())
	assert.NotNil(t, job.LastReport())
}
