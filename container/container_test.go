package container

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/madwave-project/madwave/procmap"
	"github.com/madwave-project/madwave/runtime"
)

func newTestContainer(t *testing.T) *Container[int] {
	t.Helper()
	pool := runtime.NewPool()
	t.Cleanup(pool.Close)
	return New[int](0, procmap.Single{}, nil, pool, 1)
}

func TestFindReplaceDelete(t *testing.T) {
	c := newTestContainer(t)
	k := Key{N: 1, L: []int{0}}

	if _, ok := c.Find(k); ok {
		t.Fatal("Find on an empty container should report not-found")
	}
	c.Replace(k, 42)
	v, ok := c.Find(k)
	if !ok || v != 42 {
		t.Fatalf("Find after Replace = (%v,%v), want (42,true)", v, ok)
	}
	c.Delete(k)
	if _, ok := c.Find(k); ok {
		t.Fatal("Find after Delete should report not-found")
	}
}

func TestForEachLocalVisitsEveryEntry(t *testing.T) {
	c := newTestContainer(t)
	want := map[Key]int{
		{N: 1, L: []int{0}}: 1,
		{N: 1, L: []int{1}}: 2,
		{N: 2, L: []int{3}}: 3,
	}
	for k, v := range want {
		c.Replace(k, v)
	}
	if c.Size() != len(want) {
		t.Fatalf("Size() = %d, want %d", c.Size(), len(want))
	}
	seen := map[Key]int{}
	c.ForEachLocal(func(k Key, v int) { seen[k] = v })
	if len(seen) != len(want) {
		t.Fatalf("ForEachLocal visited %d entries, want %d", len(seen), len(want))
	}
	for k, v := range want {
		if seen[k] != v {
			t.Fatalf("ForEachLocal entry %v = %v, want %v", k, seen[k], v)
		}
	}
}

func TestOwnsUnderSingleMap(t *testing.T) {
	c := newTestContainer(t)
	if !c.Owns(Key{N: 3, L: []int{1, 2}}) {
		t.Fatal("a procmap.Single container should own every key")
	}
}

func TestSendLocalDispatchesOnPool(t *testing.T) {
	c := newTestContainer(t)
	applied := make(chan Key, 1)
	err := c.Send(context.Background(), Key{N: 0, L: []int{0}}, []byte("payload"), func(k Key, op []byte) {
		if string(op) != "payload" {
			t.Errorf("apply received op %q, want %q", op, "payload")
		}
		applied <- k
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	select {
	case <-applied:
	case <-time.After(time.Second):
		t.Fatal("local Send should dispatch apply on the pool promptly")
	}
}

func TestEmptySiblingIsIndependent(t *testing.T) {
	c := newTestContainer(t)
	c.Replace(Key{N: 0, L: []int{0}}, 7)
	s := c.EmptySibling()
	if s.Size() != 0 {
		t.Fatal("EmptySibling should start with no entries")
	}
	s.Replace(Key{N: 0, L: []int{0}}, 99)
	v, _ := c.Find(Key{N: 0, L: []int{0}})
	if v != 7 {
		t.Fatal("EmptySibling should not alias the parent container's buckets")
	}
}

func TestDurableBackendSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/shard.db"
	pool := runtime.NewPool()
	defer pool.Close()

	c1 := New[int](0, procmap.Single{}, nil, pool, 1, WithDurable(path))
	c1.Replace(Key{N: 1, L: []int{0}}, 55)
	if err := c1.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	c2 := New[int](0, procmap.Single{}, nil, pool, 2, WithDurable(path))
	defer c2.Close()
	v, ok := c2.Find(Key{N: 1, L: []int{0}})
	if !ok || v != 55 {
		t.Fatalf("reopened durable container Find = (%v,%v), want (55,true)", v, ok)
	}
	_ = os.Remove(path)
}
