// Package seqindex manages the persistent index mapping invoice sequence
// numbers to the date ranges they cover. The on-disk file is the source of
// truth; all mutation happens under an exclusive cross-process file lock
// with a bounded wait.
package seqindex

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/xolan/clinvoice/internal/period"
)

var (
	// ErrLockTimeout indicates exclusive access could not be acquired
	// within the bounded wait.
	ErrLockTimeout = errors.New("timed out waiting for index lock")
	// ErrCorrupt indicates the index file exists but cannot be parsed.
	// A corrupt index is never silently discarded or reset.
	ErrCorrupt = errors.New("sequence index corrupt")
	// ErrDuplicateSequence indicates an explicit sequence number is
	// already recorded.
	ErrDuplicateSequence = errors.New("sequence number already recorded")
	// ErrUnknownSequence indicates a lookup for a sequence not in the index.
	ErrUnknownSequence = errors.New("sequence number not recorded")
)

// DefaultLockTimeout bounds how long callers wait for the file lock.
const DefaultLockTimeout = 5 * time.Second

// lockRetryDelay is the poll interval while waiting for the lock.
const lockRetryDelay = 50 * time.Millisecond

// Record is one persisted allocation: a sequence number and the inclusive
// date range the invoice covers.
type Record struct {
	Sequence int
	Range    period.DateRange
}

// Index provides exclusive, race-free sequence allocation against one
// index file. In-memory state is scratch; the file is authoritative.
type Index struct {
	path        string
	lockTimeout time.Duration
}

// New returns an Index bound to the given file path.
func New(path string) *Index {
	return &Index{path: path, lockTimeout: DefaultLockTimeout}
}

// SetLockTimeout overrides the bounded lock wait (for testing).
func (x *Index) SetLockTimeout(d time.Duration) {
	x.lockTimeout = d
}

// lockPath is a sibling of the index file. The index file itself is
// replaced by rename on save, so the lock must live on a stable inode.
func (x *Index) lockPath() string {
	return x.path + ".lock"
}

// withLock runs fn while holding the file lock, exclusive or shared,
// waiting at most the configured timeout.
func (x *Index) withLock(ctx context.Context, exclusive bool, fn func() error) error {
	fl := flock.New(x.lockPath())
	lockCtx, cancel := context.WithTimeout(ctx, x.lockTimeout)
	defer cancel()

	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = fl.TryLockContext(lockCtx, lockRetryDelay)
	} else {
		locked, err = fl.TryRLockContext(lockCtx, lockRetryDelay)
	}
	if !locked {
		if err == nil || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrLockTimeout, x.lockPath())
		}
		return fmt.Errorf("locking %s: %w", x.lockPath(), err)
	}
	defer func() { _ = fl.Unlock() }()

	return fn()
}

// AllocateNext records a new sequence covering the given range, one higher
// than the highest recorded, and returns it. Concurrent callers in the
// same or different processes never receive the same number.
func (x *Index) AllocateNext(ctx context.Context, r period.DateRange) (int, error) {
	var allocated int
	err := x.withLock(ctx, true, func() error {
		records, err := x.load()
		if err != nil {
			return err
		}
		allocated = 1
		for _, rec := range records {
			if rec.Sequence >= allocated {
				allocated = rec.Sequence + 1
			}
		}
		return x.save(append(records, Record{Sequence: allocated, Range: r}))
	})
	return allocated, err
}

// Record persists an explicitly chosen sequence number. It fails with
// ErrDuplicateSequence if the number is already present.
func (x *Index) Record(ctx context.Context, sequence int, r period.DateRange) error {
	return x.withLock(ctx, true, func() error {
		records, err := x.load()
		if err != nil {
			return err
		}
		for _, rec := range records {
			if rec.Sequence == sequence {
				return fmt.Errorf("%w: %d", ErrDuplicateSequence, sequence)
			}
		}
		return x.save(append(records, Record{Sequence: sequence, Range: r}))
	})
}

// Lookup returns the date range covered by a sequence number. It takes
// only a shared lock.
func (x *Index) Lookup(ctx context.Context, sequence int) (period.DateRange, error) {
	var found period.DateRange
	err := x.withLock(ctx, false, func() error {
		records, err := x.load()
		if err != nil {
			return err
		}
		for _, rec := range records {
			if rec.Sequence == sequence {
				found = rec.Range
				return nil
			}
		}
		return fmt.Errorf("%w: %d", ErrUnknownSequence, sequence)
	})
	return found, err
}

// FindByRange returns the sequence of an existing record covering exactly
// the given range, if any. Used for idempotent regeneration.
func (x *Index) FindByRange(ctx context.Context, r period.DateRange) (sequence int, ok bool, err error) {
	err = x.withLock(ctx, false, func() error {
		records, loadErr := x.load()
		if loadErr != nil {
			return loadErr
		}
		for _, rec := range records {
			if rec.Range.Start.Equal(r.Start) && rec.Range.End.Equal(r.End) {
				sequence = rec.Sequence
				ok = true
				return nil
			}
		}
		return nil
	})
	return sequence, ok, err
}

// Records returns all persisted records ordered by sequence, under a
// shared lock.
func (x *Index) Records(ctx context.Context) ([]Record, error) {
	var records []Record
	err := x.withLock(ctx, false, func() error {
		loaded, err := x.load()
		if err != nil {
			return err
		}
		records = loaded
		return nil
	})
	return records, err
}

// load reads the index file. A missing file is an empty index; any
// unparseable content is ErrCorrupt.
func (x *Index) load() ([]Record, error) {
	file, err := os.Open(x.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening index %s: %w", x.path, err)
	}
	defer func() { _ = file.Close() }()

	var records []Record
	seen := make(map[int]bool)
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: %s:%d: expected 'sequence start end', got %q", ErrCorrupt, x.path, lineNo, line)
		}
		sequence, err := strconv.Atoi(fields[0])
		if err != nil || sequence < 1 {
			return nil, fmt.Errorf("%w: %s:%d: bad sequence number %q", ErrCorrupt, x.path, lineNo, fields[0])
		}
		if seen[sequence] {
			return nil, fmt.Errorf("%w: %s:%d: sequence %d recorded twice", ErrCorrupt, x.path, lineNo, sequence)
		}
		seen[sequence] = true
		start, err := period.ParseDate(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: bad start date %q", ErrCorrupt, x.path, lineNo, fields[1])
		}
		end, err := period.ParseDate(fields[2])
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: bad end date %q", ErrCorrupt, x.path, lineNo, fields[2])
		}
		records = append(records, Record{Sequence: sequence, Range: period.DateRange{Start: start, End: end}})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading index %s: %w", x.path, err)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Sequence < records[j].Sequence })
	return records, nil
}

// save writes the full record set durably: temp file, fsync, then rename.
func (x *Index) save(records []Record) error {
	sort.Slice(records, func(i, j int) bool { return records[i].Sequence < records[j].Sequence })

	dir := filepath.Dir(x.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(x.path)+".tmp")
	if err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	tmpName := tmp.Name()

	for _, rec := range records {
		line := fmt.Sprintf("%d %s %s\n", rec.Sequence, period.FormatDate(rec.Range.Start), period.FormatDate(rec.Range.End))
		if _, err := tmp.WriteString(line); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
			return fmt.Errorf("writing index: %w", err)
		}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("syncing index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing index: %w", err)
	}
	if err := os.Rename(tmpName, x.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing index: %w", err)
	}
	return nil
}
