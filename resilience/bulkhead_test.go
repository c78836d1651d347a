package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBulkheadAcquireRelease(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 2})

	r1, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	r2, _ := b.Acquire(context.Background())
	if b.InUse() != 2 || b.Available() != 0 {
		t.Fatalf("expected full bulkhead, in use %d", b.InUse())
	}

	rejected := 0
	b.cfg.OnReject = func(string) { rejected++ }
	if _, err := b.Acquire(context.Background()); !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("expected ErrBulkheadFull, got %v", err)
	}
	if rejected != 1 {
		t.Errorf("expected OnReject once, got %d", rejected)
	}

	r1()
	r1()
	if b.InUse() != 1 {
		t.Errorf("release must be idempotent, in use %d", b.InUse())
	}
	r2()
}

func TestBulkheadWaitTimeout(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: 20 * time.Millisecond})
	release, _ := b.Acquire(context.Background())
	defer release()

	if _, err := b.Acquire(context.Background()); !errors.Is(err, ErrBulkheadTimeout) {
		t.Errorf("expected ErrBulkheadTimeout, got %v", err)
	}
}

func TestBulkheadWaitContextCanceled(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: time.Minute})
	release, _ := b.Acquire(context.Background())
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBulkheadWaitSucceedsWhenReleased(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: time.Second})
	release, _ := b.Acquire(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		release()
	}()

	err := b.Execute(context.Background(), func() error { return nil })
	if err != nil {
		t.Errorf("expected slot after release, got %v", err)
	}
	if b.InUse() != 0 {
		t.Errorf("expected Execute to release, in use %d", b.InUse())
	}
}

func TestBulkheadDefault(t *testing.T) {
	if got := NewBulkhead(BulkheadConfig{}).Available(); got != 10 {
		t.Errorf("expected 10 slots, got %d", got)
	}
}
