package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sahamlab/sinyal/internal/domain"
	"github.com/sahamlab/sinyal/internal/runlock"
)

// ScrapeLockName is the run lock shared by every instance of the scrape job
const ScrapeLockName = "scrape_batch"

// State is the scrape job's lifecycle phase
type State string

const (
	StateIdle      State = "IDLE"
	StateAcquiring State = "ACQUIRING_LOCK"
	StateRunning   State = "RUNNING"
	StateReleasing State = "RELEASING"
	StateError     State = "ERROR"
)

// BatchRunner executes one pipeline batch
type BatchRunner interface {
	RunBatch(ctx context.Context) (domain.BatchReport, error)
}

// LockManager provides the cross-instance run lock
type LockManager interface {
	Acquire(name, holder string, lease time.Duration) error
	Release(name, holder string) error
	ForceRelease(name string) error
}

// ScrapeJob runs the ingestion pipeline behind a single-flight run lock.
// Lock contention is the expected steady state with multiple instances and
// returns the job to idle silently. The watchdog timeout bounds a running
// batch; on expiry the batch is abandoned and the lock force-released so
// the next tick can recover. No batch failure ever escapes the job.
type ScrapeJob struct {
	pipeline   BatchRunner
	locks      LockManager
	watchdog   time.Duration
	instanceID string
	log        zerolog.Logger

	mu         sync.RWMutex
	state      State
	lastReport *domain.BatchReport
	lastError  string
}

// NewScrapeJob creates the scrape job. Each process gets a unique holder
// identity so lock releases never free a lock owned by another instance.
func NewScrapeJob(pipeline BatchRunner, locks LockManager, watchdog time.Duration, log zerolog.Logger) *ScrapeJob {
	return &ScrapeJob{
		pipeline:   pipeline,
		locks:      locks,
		watchdog:   watchdog,
		instanceID: uuid.NewString(),
		log:        log.With().Str("job", "scrape").Logger(),
		state:      StateIdle,
	}
}

// Name identifies the job in scheduler logs
func (j *ScrapeJob) Name() string {
	return "scrape"
}

// Run executes one guarded batch. The returned error is always nil: every
// failure mode is handled inside so the scheduler loop survives any batch.
func (j *ScrapeJob) Run() error {
	j.setState(StateAcquiring)

	// The lease equals the watchdog timeout: if this process dies mid-batch
	// the lock self-expires in at most one watchdog period.
	err := j.locks.Acquire(ScrapeLockName, j.instanceID, j.watchdog)
	if errors.Is(err, runlock.ErrLockHeld) {
		// Expected under multi-instance deployment, not a failure
		j.log.Debug().Msg("Batch already running elsewhere, returning to idle")
		j.setState(StateIdle)
		return nil
	}
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to acquire run lock")
		j.failTo(err)
		return nil
	}

	j.setState(StateRunning)

	ctx, cancel := context.WithTimeout(context.Background(), j.watchdog)
	defer cancel()

	report, runErr := j.pipeline.RunBatch(ctx)

	j.setState(StateReleasing)

	if errors.Is(runErr, context.DeadlineExceeded) {
		// Watchdog fired: abandon the batch and force the lock free so the
		// next tick can acquire it. Fatal to this batch only.
		j.log.Error().
			Dur("watchdog", j.watchdog).
			Msg("Watchdog timeout, abandoning batch and force-releasing lock")
		if err := j.locks.ForceRelease(ScrapeLockName); err != nil {
			j.log.Error().Err(err).Msg("Failed to force-release run lock")
		}
		j.failTo(runErr)
		return nil
	}

	// Release unconditionally, even when the batch failed
	if err := j.locks.Release(ScrapeLockName, j.instanceID); err != nil {
		j.log.Error().Err(err).Msg("Failed to release run lock")
	}

	if runErr != nil {
		j.log.Error().Err(runErr).Msg("Batch failed")
		j.failTo(runErr)
		return nil
	}

	j.mu.Lock()
	j.lastReport = &report
	j.lastError = ""
	j.state = StateIdle
	j.mu.Unlock()

	return nil
}

// State returns the job's current lifecycle phase
func (j *ScrapeJob) State() State {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// LastReport returns the most recent successful batch report, or nil
func (j *ScrapeJob) LastReport() *domain.BatchReport {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.lastReport
}

// LastError returns the most recent batch failure message, if any
func (j *ScrapeJob) LastError() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.lastError
}

func (j *ScrapeJob) setState(s State) {
	j.mu.Lock()
	j.state = s
	j.mu.Unlock()
}

// failTo passes through ERROR and settles back on IDLE so the job retries
// on the next tick. Only the failure message survives the transition.
func (j *ScrapeJob) failTo(err error) {
	j.setState(StateError)
	j.mu.Lock()
	j.lastError = err.Error()
	j.state = StateIdle
	j.mu.Unlock()
}
