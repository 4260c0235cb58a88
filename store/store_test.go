package store_test

import (
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/usecase/dispatcher"
	"github.com/xraph/usecase/internal/logtest"
	"github.com/xraph/usecase/payload"
	"github.com/xraph/usecase/store"
)

func counter() *store.Store[int] {
	return store.New("counter", 0, func(n int, p payload.Payload, _ payload.Meta) int {
		switch p.Type() {
		case "counter.incremented":
			return n + 1
		case "counter.panic":
			panic("bad reducer")
		}
		return n
	}, store.WithLogger(logtest.Discard()))
}

func TestStore_ReducesAttachedPayloads(t *testing.T) {
	d := dispatcher.New(dispatcher.WithLogger(logtest.Discard()))
	s := counter()
	detach := s.Attach(d)

	d.Dispatch(payload.New("counter.incremented", nil), payload.Meta{})
	d.Dispatch(payload.New("counter.incremented", nil), payload.Meta{})
	d.Dispatch(payload.New("other", nil), payload.Meta{})

	if got := s.State(); got != 2 {
		t.Errorf("State() = %d, want 2", got)
	}
	if got := s.Snapshot(); got != 2 {
		t.Errorf("Snapshot() = %v, want 2", got)
	}
	if got := s.Version(); got != 3 {
		t.Errorf("Version() = %d, want 3", got)
	}

	detach()
	d.Dispatch(payload.New("counter.incremented", nil), payload.Meta{})
	if got := s.State(); got != 2 {
		t.Errorf("State() after detach = %d, want 2", got)
	}
}

func TestStore_ReducerPanicKeepsState(t *testing.T) {
	rec := logtest.NewRecorder()
	s := store.New("counter", 5, func(n int, p payload.Payload, _ payload.Meta) int {
		panic("bad reducer")
	}, store.WithLogger(rec.Logger()))

	s.Apply(payload.New("x", nil), payload.Meta{})

	if got := s.State(); got != 5 {
		t.Errorf("State() = %d, want 5", got)
	}
	if !rec.Contains("store reducer panicked") {
		t.Error("expected reducer panic to be logged")
	}
}

func TestStore_OnChange(t *testing.T) {
	s := counter()

	var seen []int
	unsubscribe := s.OnChange(func(n int) { seen = append(seen, n) })

	s.Apply(payload.New("counter.incremented", nil), payload.Meta{})
	s.Apply(payload.New("counter.panic", nil), payload.Meta{})
	unsubscribe()
	unsubscribe()
	s.Apply(payload.New("counter.incremented", nil), payload.Meta{})

	if len(seen) != 1 || seen[0] != 1 {
		t.Errorf("seen = %v, want [1]", seen)
	}
}

func TestGroup(t *testing.T) {
	d := dispatcher.New(dispatcher.WithLogger(logtest.Discard()))
	c := counter()
	names := store.New("names", []string(nil), func(ns []string, p payload.Payload, _ payload.Meta) []string {
		if e, ok := p.(*payload.Event); ok && e.Kind == "user.added" {
			return append(append([]string(nil), ns...), e.Data["name"].(string))
		}
		return ns
	})

	g, err := store.NewGroup(c, names)
	if err != nil {
		t.Fatalf("NewGroup: %v", err)
	}
	detach := g.Attach(d)
	defer detach()

	d.Dispatch(payload.New("counter.incremented", nil), payload.Meta{})
	d.Dispatch(payload.New("user.added", map[string]any{"name": "ada"}), payload.Meta{})

	snap, ok := g.Snapshot().(map[string]any)
	if !ok {
		t.Fatalf("Snapshot type %T, want map[string]any", g.Snapshot())
	}
	if snap["counter"] != 1 {
		t.Errorf("counter = %v, want 1", snap["counter"])
	}
	if ns, _ := snap["names"].([]string); len(ns) != 1 || ns[0] != "ada" {
		t.Errorf("names = %v, want [ada]", snap["names"])
	}

	if _, ok := g.Store("names"); !ok {
		t.Error("Store(names) not found")
	}
}

func TestGroup_DuplicateNames(t *testing.T) {
	if _, err := store.NewGroup(counter(), counter()); err == nil {
		t.Fatal("expected duplicate name error")
	}
}

func TestStore_ReducerMayReadStore(t *testing.T) {
	var s *store.Store[int]
	s = store.New("reader", 0, func(n int, _ payload.Payload, _ payload.Meta) int {
		return s.State() + n + 1
	}, store.WithLogger(logtest.Discard()))

	s.Apply(payload.New("counter.incremented", nil), payload.Meta{})
	if got := s.State(); got != 1 {
		t.Errorf("State = %d, want 1", got)
	}
}

func TestStore_ConcurrentApply(t *testing.T) {
	s := counter()

	var g errgroup.Group
	for range 50 {
		g.Go(func() error {
			s.Apply(payload.New("counter.incremented", nil), payload.Meta{})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if got := s.State(); got != 50 {
		t.Errorf("State = %d, want 50", got)
	}
	if got := s.Version(); got != 50 {
		t.Errorf("Version = %d, want 50", got)
	}
}
