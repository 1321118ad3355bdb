// Package runlock implements a database-backed mutual-exclusion lease used
// to guarantee at most one pipeline batch runs at a time across all process
// instances sharing the same database.
package runlock

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrLockHeld is returned when another holder owns a live lease. This is the
// expected steady-state outcome under multi-instance deployment, not a
// failure.
var ErrLockHeld = errors.New("run lock held by another instance")

// Manager acquires and releases named run locks. A lock is a single row
// keyed by name carrying a holder identity and a lease deadline; an expired
// lease is claimable by anyone, which is the crash-recovery path.
type Manager struct {
	db  *sql.DB
	log zerolog.Logger
}

// New creates a run lock manager
func New(db *sql.DB, log zerolog.Logger) *Manager {
	return &Manager{
		db:  db,
		log: log.With().Str("component", "runlock").Logger(),
	}
}

// Acquire claims the named lock for holder with the given lease duration.
// The claim is a single atomic upsert: it succeeds when the row is absent or
// its lease has expired, and returns ErrLockHeld otherwise.
func (m *Manager) Acquire(name, holder string, lease time.Duration) error {
	now := time.Now().UTC()
	expires := now.Add(lease)

	res, err := m.db.Exec(`
		INSERT INTO run_locks (name, holder, acquired_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			holder = excluded.holder,
			acquired_at = excluded.acquired_at,
			expires_at = excluded.expires_at
		WHERE run_locks.expires_at <= excluded.acquired_at`,
		name, holder, now, expires,
	)
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read lock acquire result: %w", err)
	}
	if affected == 0 {
		return ErrLockHeld
	}

	m.log.Debug().Str("lock", name).Str("holder", holder).Time("expires", expires).Msg("Lock acquired")
	return nil
}

// Release frees the named lock if this holder still owns it. Releasing a
// lock that expired and was claimed by someone else is a no-op.
func (m *Manager) Release(name, holder string) error {
	res, err := m.db.Exec(`DELETE FROM run_locks WHERE name = ? AND holder = ?`, name, holder)
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", name, err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		m.log.Warn().Str("lock", name).Str("holder", holder).Msg("Release found no owned lock (lease expired?)")
		return nil
	}

	m.log.Debug().Str("lock", name).Str("holder", holder).Msg("Lock released")
	return nil
}

// ForceRelease unconditionally removes the named lock regardless of holder.
// Used by the watchdog after abandoning a stuck batch.
func (m *Manager) ForceRelease(name string) error {
	if _, err := m.db.Exec(`DELETE FROM run_locks WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to force-release lock %s: %w", name, err)
	}
	m.log.Warn().Str("lock", name).Msg("Lock force-released")
	return nil
}

// Status describes the current lock row
type Status struct {
	Held      bool      `json:"held"`
	Holder    string    `json:"holder,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Status reports whether the named lock is currently held by a live lease
func (m *Manager) Status(name string) (Status, error) {
	var s Status
	var expires time.Time
	err := m.db.QueryRow(`SELECT holder, expires_at FROM run_locks WHERE name = ?`, name).
		Scan(&s.Holder, &expires)
	if err == sql.ErrNoRows {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("failed to query lock status: %w", err)
	}
	if time.Now().UTC().Before(expires) {
		s.Held = true
		s.ExpiresAt = expires
	} else {
		// Row exists but the lease lapsed; report as free
		return Status{}, nil
	}
	return s, nil
}
