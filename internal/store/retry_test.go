package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/engineermaster/internal/skilltree"
)

func retryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 1 * time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2.0,
	}
}

// flakyStore fails Tree with the queued errors before delegating.
type flakyStore struct {
	ProgressStore
	mu    sync.Mutex
	errs  []error
	calls int
}

func (f *flakyStore) Tree(ctx context.Context, treeID string) (skilltree.Tree, error) {
	f.mu.Lock()
	f.calls++
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	f.mu.Unlock()
	if err != nil {
		return skilltree.Tree{}, err
	}
	return f.ProgressStore.Tree(ctx, treeID)
}

func newFlaky(t *testing.T, errs ...error) *flakyStore {
	t.Helper()
	mem := NewMemoryStore()
	if err := mem.SaveTree(context.Background(), skilltree.Tree{ID: "statics", Active: true}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return &flakyStore{ProgressStore: mem, errs: errs}
}

func transient() error {
	return &TransientError{Op: "query tree", Err: errors.New("database is locked")}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	f := newFlaky(t)
	s := WithRetry(f, retryConfig())

	tree, err := s.Tree(context.Background(), "statics")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.ID != "statics" {
		t.Fatalf("got tree %q", tree.ID)
	}
	if f.calls != 1 {
		t.Fatalf("expected 1 call, got %d", f.calls)
	}
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	f := newFlaky(t, transient())
	s := WithRetry(f, retryConfig())

	if _, err := s.Tree(context.Background(), "statics"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", f.calls)
	}
}

func TestRetry_AllAttemptsFail(t *testing.T) {
	f := newFlaky(t, transient(), transient(), transient(), transient())
	s := WithRetry(f, retryConfig())

	_, err := s.Tree(context.Background(), "statics")
	if !IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if f.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", f.calls)
	}
}

func TestRetry_NotFoundNotRetried(t *testing.T) {
	f := newFlaky(t)
	s := WithRetry(f, retryConfig())

	_, err := s.Tree(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if f.calls != 1 {
		t.Fatalf("expected 1 call, got %d", f.calls)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	f := newFlaky(t, transient(), transient(), transient())
	cfg := retryConfig()
	cfg.InitialWait = time.Hour
	cfg.MaxWait = time.Hour
	s := WithRetry(f, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Tree(ctx, "statics")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if f.calls != 1 {
		t.Fatalf("expected 1 call, got %d", f.calls)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"transient", transient(), true},
		{"wrapped transient", errors.Join(errors.New("ctx"), transient()), true},
		{"not found", &NotFoundError{Kind: "node", ID: "x"}, false},
		{"cancelled", context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	if classify("op", nil) != nil {
		t.Error("classify(nil) should be nil")
	}
	err := classify("query tree", errors.New("syntax error"))
	if IsTransient(err) {
		t.Error("plain driver error should not be transient")
	}
	if err.Error() != "query tree: syntax error" {
		t.Errorf("got %q", err.Error())
	}
	if IsTransient(classify("op", context.DeadlineExceeded)) {
		t.Error("deadline should not be transient")
	}
}

func TestBackoffBounds(t *testing.T) {
	cfg := retryConfig()
	for attempt := range 10 {
		d := backoff(cfg, attempt)
		if d < 0 || d > time.Duration(float64(cfg.MaxWait)*1.2) {
			t.Fatalf("attempt %d: backoff %s out of bounds", attempt, d)
		}
	}
}
