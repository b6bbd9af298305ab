package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitForReturnsAfterSleep(t *testing.T) {
	var slept time.Duration
	err := WaitFor(context.Background(), time.Second, func(d time.Duration) { slept = d })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slept != time.Second {
		t.Fatalf("expected sleep of 1s, got %s", slept)
	}
}

func TestWaitForSkipsNonPositiveDuration(t *testing.T) {
	called := false
	if err := WaitFor(context.Background(), 0, func(time.Duration) { called = true }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatal("sleep must not be called")
	}
}

func TestWaitForStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	block := make(chan struct{})
	defer close(block)

	err := WaitFor(ctx, time.Hour, func(time.Duration) { <-block })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
