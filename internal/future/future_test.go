package future

import (
	"errors"
	"testing"
	"time"
)

func TestAwaitReturnsCompletedValue(t *testing.T) {
	f := New(func() (int, error) { return 42, nil })
	v, err := f.Await()
	if err != nil || v != 42 {
		t.Fatalf("got %d, %v", v, err)
	}
}

func TestAwaitTimeoutFalseWhenStillRunning(t *testing.T) {
	f := New(func() (int, error) {
		time.Sleep(50 * time.Millisecond)
		return 1, nil
	})
	_, _, ok := f.AwaitTimeout(5 * time.Millisecond)
	if ok {
		t.Fatalf("expected the future to still be running")
	}
	v, err := f.Await()
	if err != nil || v != 1 {
		t.Fatalf("got %d, %v", v, err)
	}
}

func TestAllJoinsEveryFutureRegardlessOfFailure(t *testing.T) {
	a := New(func() (int, error) { return 1, nil })
	b := New(func() (int, error) { return 0, errors.New("boom") })
	c := New(func() (int, error) { return 3, nil })

	vals, errs := All(a, b, c)
	if vals[0] != 1 || vals[2] != 3 {
		t.Fatalf("got %v", vals)
	}
	if errs[1] == nil {
		t.Fatalf("expected the second future's error to be reported, not swallowed")
	}
	if errs[0] != nil || errs[2] != nil {
		t.Fatalf("got %v", errs)
	}
}
