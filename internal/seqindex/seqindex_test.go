package seqindex

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/xolan/clinvoice/internal/period"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func monthRange(year int, month time.Month) period.DateRange {
	return period.DateRange{
		Start: date(year, month, 1),
		End:   period.LastDayOfMonth(year, month),
	}
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "test.index"))
}

func TestAllocateNext_StartsAtOne(t *testing.T) {
	index := newTestIndex(t)

	sequence, err := index.AllocateNext(context.Background(), monthRange(2023, time.January))
	if err != nil {
		t.Fatalf("AllocateNext unexpected error: %v", err)
	}
	if sequence != 1 {
		t.Errorf("first sequence = %d, expected 1", sequence)
	}
}

func TestAllocateNext_Monotonic(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	for expected, month := range []time.Month{time.January, time.February, time.March} {
		sequence, err := index.AllocateNext(ctx, monthRange(2023, month))
		if err != nil {
			t.Fatalf("AllocateNext unexpected error: %v", err)
		}
		if sequence != expected+1 {
			t.Errorf("sequence = %d, expected %d", sequence, expected+1)
		}
	}
}

func TestAllocateNext_SkipsPastExplicit(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	if err := index.Record(ctx, 10, monthRange(2023, time.January)); err != nil {
		t.Fatalf("Record unexpected error: %v", err)
	}
	sequence, err := index.AllocateNext(ctx, monthRange(2023, time.February))
	if err != nil {
		t.Fatalf("AllocateNext unexpected error: %v", err)
	}
	if sequence != 11 {
		t.Errorf("sequence = %d, expected 11 (max recorded + 1)", sequence)
	}
}

func TestAllocateNext_Concurrent(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	const workers = 8
	results := make([]int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sequence, err := index.AllocateNext(ctx, monthRange(2023, time.Month(i%12+1)))
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			results[i] = sequence
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool)
	for _, sequence := range results {
		if seen[sequence] {
			t.Fatalf("sequence %d allocated twice", sequence)
		}
		seen[sequence] = true
	}
}

func TestRecord_Duplicate(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	if err := index.Record(ctx, 5, monthRange(2023, time.January)); err != nil {
		t.Fatalf("Record unexpected error: %v", err)
	}
	err := index.Record(ctx, 5, monthRange(2023, time.February))
	if !errors.Is(err, ErrDuplicateSequence) {
		t.Errorf("error = %v, expected ErrDuplicateSequence", err)
	}
}

func TestLookup(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()
	r := monthRange(2023, time.March)

	if err := index.Record(ctx, 7, r); err != nil {
		t.Fatalf("Record unexpected error: %v", err)
	}

	found, err := index.Lookup(ctx, 7)
	if err != nil {
		t.Fatalf("Lookup unexpected error: %v", err)
	}
	if !found.Start.Equal(r.Start) || !found.End.Equal(r.End) {
		t.Errorf("Lookup(7) = %s, expected %s", found, r)
	}

	if _, err := index.Lookup(ctx, 99); !errors.Is(err, ErrUnknownSequence) {
		t.Errorf("Lookup(99) error = %v, expected ErrUnknownSequence", err)
	}
}

func TestFindByRange(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()
	r := monthRange(2023, time.March)

	if _, ok, err := index.FindByRange(ctx, r); err != nil || ok {
		t.Fatalf("FindByRange on empty index = %v, %v; expected not found", ok, err)
	}

	if err := index.Record(ctx, 3, r); err != nil {
		t.Fatalf("Record unexpected error: %v", err)
	}

	sequence, ok, err := index.FindByRange(ctx, r)
	if err != nil {
		t.Fatalf("FindByRange unexpected error: %v", err)
	}
	if !ok || sequence != 3 {
		t.Errorf("FindByRange = %d, %v; expected 3, true", sequence, ok)
	}

	// An overlapping but not identical range does not match.
	partial := period.DateRange{Start: date(2023, time.March, 1), End: date(2023, time.March, 15)}
	if _, ok, err := index.FindByRange(ctx, partial); err != nil || ok {
		t.Errorf("FindByRange(partial) = %v, %v; expected not found", ok, err)
	}
}

func TestRecords_SortedBySequence(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	if err := index.Record(ctx, 9, monthRange(2023, time.March)); err != nil {
		t.Fatal(err)
	}
	if err := index.Record(ctx, 2, monthRange(2023, time.January)); err != nil {
		t.Fatal(err)
	}

	records, err := index.Records(ctx)
	if err != nil {
		t.Fatalf("Records unexpected error: %v", err)
	}
	if len(records) != 2 || records[0].Sequence != 2 || records[1].Sequence != 9 {
		t.Errorf("Records = %v, expected sorted sequences 2, 9", records)
	}
}

func TestRecords_MissingFileIsEmpty(t *testing.T) {
	index := newTestIndex(t)

	records, err := index.Records(context.Background())
	if err != nil {
		t.Fatalf("Records unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Records = %v, expected empty", records)
	}
}

func TestCorruptIndex(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "wrong field count", content: "1 2023-01-01\n"},
		{name: "bad sequence", content: "abc 2023-01-01 2023-01-31\n"},
		{name: "zero sequence", content: "0 2023-01-01 2023-01-31\n"},
		{name: "bad start date", content: "1 notadate 2023-01-31\n"},
		{name: "bad end date", content: "1 2023-01-01 notadate\n"},
		{name: "duplicate sequence", content: "1 2023-01-01 2023-01-31\n1 2023-02-01 2023-02-28\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "corrupt.index")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			index := New(path)
			_, err := index.Records(context.Background())
			if !errors.Is(err, ErrCorrupt) {
				t.Errorf("error = %v, expected ErrCorrupt", err)
			}

			// A corrupt index blocks allocation rather than being reset.
			if _, err := index.AllocateNext(context.Background(), monthRange(2023, time.March)); !errors.Is(err, ErrCorrupt) {
				t.Errorf("AllocateNext error = %v, expected ErrCorrupt", err)
			}
			content, readErr := os.ReadFile(path)
			if readErr != nil || string(content) != tt.content {
				t.Error("corrupt index file should be left untouched")
			}
		})
	}
}

func TestSave_ReplacesFileAtomically(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	if _, err := index.AllocateNext(ctx, monthRange(2023, time.January)); err != nil {
		t.Fatal(err)
	}
	if _, err := index.AllocateNext(ctx, monthRange(2023, time.February)); err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(index.path)
	if err != nil {
		t.Fatalf("reading index file: %v", err)
	}
	expected := "1 2023-01-01 2023-01-31\n2 2023-02-01 2023-02-28\n"
	if string(content) != expected {
		t.Errorf("index file = %q, expected %q", content, expected)
	}

	// No stray temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(index.path))
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if name != filepath.Base(index.path) && name != filepath.Base(index.lockPath()) {
			t.Errorf("unexpected file in index directory: %s", name)
		}
	}
}

func TestLockTimeout(t *testing.T) {
	index := newTestIndex(t)
	index.SetLockTimeout(100 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hold the lock from a second handle for the duration of the test.
	blocker := New(index.path)
	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = blocker.withLock(ctx, true, func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	_, err := index.AllocateNext(ctx, monthRange(2023, time.January))
	if !errors.Is(err, ErrLockTimeout) {
		t.Errorf("error = %v, expected ErrLockTimeout", err)
	}
}
