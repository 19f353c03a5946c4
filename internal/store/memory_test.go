package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryStore_ConcurrentAppends(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Every goroutine races on the same reference; only one may win.
			_, _, _ = s.AppendXPEntry(ctx, XPEntry{UserID: "u1", Amount: 100, Source: XPTreeCompletion, ReferenceID: "statics"})
			_, _, _ = s.AppendXPEntry(ctx, XPEntry{UserID: "u1", Amount: 1, Source: XPLessonCompletion, ReferenceID: fmt.Sprintf("lesson-%d", i)})
		}()
	}
	wg.Wait()

	total, err := s.TotalXP(ctx, "u1")
	if err != nil {
		t.Fatalf("TotalXP: %v", err)
	}
	if total != 150 {
		t.Errorf("total = %d, want 150", total)
	}

	entries, err := s.XPEntries(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("XPEntries: %v", err)
	}
	seen := make(map[int64]bool)
	for _, e := range entries {
		if seen[e.Sequence] {
			t.Fatalf("duplicate sequence %d", e.Sequence)
		}
		seen[e.Sequence] = true
	}
}

func TestMemoryStore_ConcurrentAwards(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := s.AwardAchievement(ctx, "u1", "first-steps", nil)
			if err != nil {
				t.Errorf("AwardAchievement: %v", err)
				return
			}
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("created %d awards, want exactly 1", created)
	}
}
