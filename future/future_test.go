package future_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/usecase/future"
)

func TestResolve_SettlesOnce(t *testing.T) {
	f := future.New()
	if f.Settled() {
		t.Fatal("new future should be pending")
	}
	if !f.Resolve("a") {
		t.Fatal("first Resolve should settle")
	}
	if f.Resolve("b") {
		t.Error("second Resolve should not settle")
	}
	if f.Reject(errors.New("late")) {
		t.Error("Reject after Resolve should not settle")
	}

	v, ok, err := f.Result()
	if !ok || err != nil || v != "a" {
		t.Fatalf("Result() = (%v, %v, %v), want (a, true, nil)", v, ok, err)
	}
}

func TestResult_Pending(t *testing.T) {
	f := future.New()
	if v, ok, err := f.Result(); ok || v != nil || err != nil {
		t.Fatalf("Result() = (%v, %v, %v), want (nil, false, nil)", v, ok, err)
	}
	f.Reject(errors.New("late"))
	if _, ok, err := f.Result(); !ok || err == nil {
		t.Errorf("Result() after Reject = (%v, %v), want settled with error", ok, err)
	}
}

func TestReject_NilError(t *testing.T) {
	f := future.Rejected(nil)
	_, err := f.Await(context.Background())
	if !errors.Is(err, future.ErrNilRejection) {
		t.Fatalf("err = %v, want ErrNilRejection", err)
	}
}

func TestOnSettle_OrderAndLateRegistration(t *testing.T) {
	f := future.New()
	var order []string
	f.OnSettle(func(any, error) { order = append(order, "first") })
	f.OnSettle(func(any, error) { order = append(order, "second") })

	f.Resolve(1)
	f.OnSettle(func(v any, _ error) {
		if v != 1 {
			t.Errorf("late callback value = %v, want 1", v)
		}
		order = append(order, "late")
	})

	want := []string{"first", "second", "late"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestAwait_ContextCancelled(t *testing.T) {
	f := future.New()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Await(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
}

func TestGo(t *testing.T) {
	f := future.Go(func() (any, error) { return 42, nil })
	got, err := future.Await[int](context.Background(), f)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}

	want := errors.New("boom")
	_, err = future.Go(func() (any, error) { return nil, want }).Await(context.Background())
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}

func TestGo_Panic(t *testing.T) {
	f := future.Go(func() (any, error) { panic("kaboom") })
	_, err := f.Await(context.Background())
	if err == nil || err.Error() != "future: panic: kaboom" {
		t.Fatalf("err = %v", err)
	}
}

func TestAwaitTyped_WrongType(t *testing.T) {
	_, err := future.Await[int](context.Background(), future.Resolved("nope"))
	if err == nil {
		t.Fatal("expected type mismatch error")
	}

	got, err := future.Await[string](context.Background(), future.Resolved(nil))
	if err != nil || got != "" {
		t.Fatalf("Await nil = (%q, %v)", got, err)
	}
}
