package runtime

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitAndGet(t *testing.T) {
	p := NewPool()
	defer p.Close()

	f := Submit[int](p, Normal, func() (int, error) { return 42, nil })
	v, err := f.Get()
	if err != nil || v != 42 {
		t.Fatalf("Get() = (%v,%v), want (42,nil)", v, err)
	}
	if !f.Ready() {
		t.Fatal("Ready() should report true once Get() has returned")
	}
}

func TestSubmitPropagatesError(t *testing.T) {
	p := NewPool()
	defer p.Close()

	wantErr := errors.New("boom")
	f := Submit[int](p, Normal, func() (int, error) { return 0, wantErr })
	_, err := f.Get()
	if !errors.Is(err, wantErr) {
		t.Fatalf("Get() error = %v, want %v", err, wantErr)
	}
}

func TestResolvedIsImmediatelyReady(t *testing.T) {
	f := Resolved(7, nil)
	if !f.Ready() {
		t.Fatal("Resolved future should be immediately Ready")
	}
	v, err := f.Get()
	if err != nil || v != 7 {
		t.Fatalf("Get() = (%v,%v), want (7,nil)", v, err)
	}
}

func TestMustGetPanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustGet should panic (via debug.AssertNoErr) when the future errored")
		}
	}()
	f := Resolved(0, errors.New("fail"))
	MustGet(f)
}

func TestWaitRespectsContextCancellation(t *testing.T) {
	p := NewPool()
	defer p.Close()

	block := make(chan struct{})
	f := Submit[int](p, Normal, func() (int, error) {
		<-block
		return 1, nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := f.Wait(ctx); err == nil {
		t.Fatal("Wait should return the context's deadline error while the task is still blocked")
	}
	close(block)
}

func TestForEachRunsEveryItem(t *testing.T) {
	p := NewPool()
	defer p.Close()

	var count int64
	items := make([]int, 20)
	for i := range items {
		items[i] = i
	}
	err := ForEach(context.Background(), p, items, func(ctx context.Context, i int) error {
		atomic.AddInt64(&count, 1)
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach returned error: %v", err)
	}
	if count != int64(len(items)) {
		t.Fatalf("ForEach ran %d ops, want %d", count, len(items))
	}
}

func TestForEachPropagatesFirstError(t *testing.T) {
	p := NewPool()
	defer p.Close()

	wantErr := errors.New("item failed")
	err := ForEach(context.Background(), p, []int{1, 2, 3}, func(ctx context.Context, i int) error {
		if i == 2 {
			return wantErr
		}
		return nil
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("ForEach error = %v, want %v", err, wantErr)
	}
}

func TestFanInCollectsAllResults(t *testing.T) {
	p := NewPool()
	defer p.Close()

	futures := make([]*Future[int], 5)
	for i := range futures {
		i := i
		futures[i] = Submit[int](p, Normal, func() (int, error) { return i * i, nil })
	}
	results, err := FanIn(context.Background(), futures)
	if err != nil {
		t.Fatalf("FanIn returned error: %v", err)
	}
	for i, v := range results {
		if v != i*i {
			t.Fatalf("FanIn result[%d] = %d, want %d", i, v, i*i)
		}
	}
}
