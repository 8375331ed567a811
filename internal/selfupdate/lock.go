// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
	"github.com/shirou/gopsutil/v4/process"

	"pinion-cli/internal/testutil"
)

// defaultLockMaxAge is the staleness threshold: a lock older than this is
// assumed abandoned even if its pid cannot be probed.
const defaultLockMaxAge = 10 * time.Minute

// ErrLockBusy indicates another live process holds the update lock. The
// holder is expected to complete the update for everyone; callers abandon
// finalization for this run rather than waiting.
var ErrLockBusy = errors.New("update lock held by another process")

type (
	// LockRecord is the payload written into the lock file. It identifies
	// the holder well enough for a later process to judge staleness.
	LockRecord struct {
		PID        int       `toml:"pid"`
		AcquiredAt time.Time `toml:"acquired_at"`
		Hostname   string    `toml:"hostname"`
		Executable string    `toml:"executable"`
	}

	// LivenessProbe reports whether the process with the given pid exists.
	// Implementations must only return alive=false with a nil error when
	// the process definitively does not exist; every ambiguous result
	// (permission denied, transient failure) must surface as an error so
	// the staleness evaluation stays conservative.
	LivenessProbe func(pid int) (alive bool, err error)

	// StalenessPolicy decides when an existing lock may be reclaimed.
	// Injectable so tests can exercise the reclaim path deterministically.
	StalenessPolicy struct {
		MaxAge time.Duration
		Probe  LivenessProbe
		Clock  testutil.Clock
	}

	// LockManager serializes finalize attempts across processes through an
	// atomic create-if-absent lock file. All operations are non-blocking.
	LockManager struct {
		policy StalenessPolicy
		logger *log.Logger
	}

	// LockHandle represents a held lock. Release is idempotent and safe on
	// every exit path, including after the lock file was already removed.
	LockHandle struct {
		path     string
		released bool
	}
)

// gopsutilProbe is the production liveness probe. process.PidExists reads
// the process table without signaling, so "exists but owned by another
// user" still reports alive rather than erroring into a false reclaim.
func gopsutilProbe(pid int) (bool, error) {
	return process.PidExists(int32(pid))
}

// NewLockManager builds a LockManager, filling policy zero values with the
// production defaults (10 minute threshold, gopsutil pid probe, real clock).
func NewLockManager(policy StalenessPolicy) *LockManager {
	if policy.MaxAge <= 0 {
		policy.MaxAge = defaultLockMaxAge
	}
	if policy.Probe == nil {
		policy.Probe = gopsutilProbe
	}
	if policy.Clock == nil {
		policy.Clock = testutil.RealClock{}
	}
	return &LockManager{policy: policy, logger: log.New(io.Discard)}
}

// Acquire attempts to take the lock at lockPath for the given record. On
// conflict it evaluates the existing lock for staleness and retries the
// creation exactly once after reclaiming; a second conflict yields
// ErrLockBusy. Acquire never waits.
func (m *LockManager) Acquire(lockPath string, rec LockRecord) (*LockHandle, error) {
	if err := m.tryCreate(lockPath, rec); err == nil {
		return &LockHandle{path: lockPath}, nil
	} else if !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("creating lock file: %w", err)
	}

	if !m.isStale(lockPath) {
		return nil, ErrLockBusy
	}

	// Reclaim: remove the stale lock and retry once. A concurrent process
	// may win the race; that is the Busy case, not an error.
	m.logger.Debug("reclaiming stale update lock", "path", lockPath)
	if err := os.Remove(lockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("removing stale lock: %w", err)
	}
	if err := m.tryCreate(lockPath, rec); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, ErrLockBusy
		}
		return nil, fmt.Errorf("creating lock file after reclaim: %w", err)
	}
	return &LockHandle{path: lockPath}, nil
}

// tryCreate atomically creates the lock file with the record payload.
// O_EXCL makes creation the linearization point between racing processes.
func (m *LockManager) tryCreate(lockPath string, rec LockRecord) error {
	f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}

	payload, err := toml.Marshal(rec)
	if err == nil {
		_, err = f.Write(payload)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// The slot is ours but the record is unreadable to others; give it
		// back rather than leave a lock that can only age out.
		_ = os.Remove(lockPath)
		return err
	}
	return nil
}

// isStale reports whether the existing lock at lockPath may be reclaimed:
// its age exceeds the threshold, or its recorded process no longer exists.
// Ambiguity never reclaims: an unreadable record falls back to file
// modification time for age, and a probe error counts as alive.
func (m *LockManager) isStale(lockPath string) bool {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		// Lock vanished or is unreadable; only a vanished lock is safe to
		// treat as reclaimable, and the retry's O_EXCL covers that case.
		return errors.Is(err, os.ErrNotExist)
	}

	var rec LockRecord
	haveRecord := toml.Unmarshal(data, &rec) == nil && rec.PID > 0

	age := m.lockAge(lockPath, rec, haveRecord)
	if age > m.policy.MaxAge {
		return true
	}

	if haveRecord {
		alive, probeErr := m.policy.Probe(rec.PID)
		if probeErr == nil && !alive {
			return true
		}
	}
	return false
}

// lockAge determines how old the lock is, preferring the recorded
// acquisition timestamp and falling back to file mtime when the record is
// corrupt, so a garbled lock still ages out instead of wedging updates.
func (m *LockManager) lockAge(lockPath string, rec LockRecord, haveRecord bool) time.Duration {
	if haveRecord && !rec.AcquiredAt.IsZero() {
		return m.policy.Clock.Since(rec.AcquiredAt)
	}
	fi, err := os.Stat(lockPath)
	if err != nil {
		return 0
	}
	return m.policy.Clock.Since(fi.ModTime())
}

// ReadLockRecord parses the lock record at lockPath for read-only
// inspection. Returns an error wrapping os.ErrNotExist when no lock is
// held.
func ReadLockRecord(lockPath string) (*LockRecord, error) {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return nil, err
	}
	var rec LockRecord
	if err := toml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing lock record: %w", err)
	}
	return &rec, nil
}

// Release deletes the lock file. It is idempotent and swallows
// missing-file errors so that every exit path can call it unconditionally.
func (h *LockHandle) Release() error {
	if h == nil || h.released {
		return nil
	}
	h.released = true
	if err := os.Remove(h.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing lock file: %w", err)
	}
	return nil
}
