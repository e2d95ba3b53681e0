package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestFlightDeduplicatesConcurrentCalls(t *testing.T) {
	g := newFlightGroup[int]()
	gate := make(chan struct{})
	var runs int

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := g.Do(context.Background(), "k", func(context.Context) (int, error) {
				runs++
				<-gate
				return 42, nil
			})
			if err != nil {
				t.Errorf("Do: %v", err)
			}
			results[i] = v
		}(i)
	}
	// let every caller subscribe before the leader finishes
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	if runs != 1 {
		t.Fatalf("leader ran %d times, want 1", runs)
	}
	for i, v := range results {
		if v != 42 {
			t.Fatalf("caller %d got %d, want 42", i, v)
		}
	}
}

func TestFlightSlotReleasedAfterSettle(t *testing.T) {
	g := newFlightGroup[int]()
	var runs int
	for i := 0; i < 3; i++ {
		if _, err := g.Do(context.Background(), "k", func(context.Context) (int, error) {
			runs++
			return i, nil
		}); err != nil {
			t.Fatalf("Do: %v", err)
		}
	}
	if runs != 3 {
		t.Fatalf("leader ran %d times, want a fresh flight per call", runs)
	}
}

func TestFlightLeaderSurvivesOneWaiterLeaving(t *testing.T) {
	g := newFlightGroup[int]()
	gate := make(chan struct{})
	leaderCtx := make(chan context.Context, 1)

	done := make(chan int, 1)
	go func() {
		v, _ := g.Do(context.Background(), "k", func(fctx context.Context) (int, error) {
			leaderCtx <- fctx
			<-gate
			return 7, fctx.Err()
		})
		done <- v
	}()
	fctx := <-leaderCtx

	// a second caller joins and abandons
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := g.Do(ctx, "k", func(context.Context) (int, error) { return 0, nil })
		errc <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("abandoning waiter got %v, want context.Canceled", err)
	}
	if fctx.Err() != nil {
		t.Fatal("leader canceled while a waiter remains")
	}

	close(gate)
	if v := <-done; v != 7 {
		t.Fatalf("remaining waiter got %d, want 7", v)
	}
}

func TestFlightLastWaiterOutCancelsLeader(t *testing.T) {
	g := newFlightGroup[int]()
	leaderCtx := make(chan context.Context, 1)
	started := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := g.Do(ctx, "k", func(fctx context.Context) (int, error) {
			leaderCtx <- fctx
			close(started)
			<-fctx.Done()
			return 0, fctx.Err()
		})
		errc <- err
	}()
	fctx := <-leaderCtx
	<-started

	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("waiter got %v, want context.Canceled", err)
	}
	select {
	case <-fctx.Done():
	case <-time.After(time.Second):
		t.Fatal("leader context not canceled after last waiter left")
	}
}

func TestFlightAbandonedSlotNotInheritedByNextCaller(t *testing.T) {
	g := newFlightGroup[int]()
	leaderCtx := make(chan context.Context, 1)
	started := make(chan struct{})

	// sole waiter abandons its flight; the leader parks on its context
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := g.Do(ctx, "k", func(fctx context.Context) (int, error) {
			leaderCtx <- fctx
			close(started)
			<-fctx.Done()
			return 0, fctx.Err()
		})
		errc <- err
	}()
	fctx := <-leaderCtx
	<-started
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("abandoning waiter got %v, want context.Canceled", err)
	}
	<-fctx.Done()

	// a later caller with a live context must start a fresh flight, not
	// join the canceled one
	v, err := g.Do(context.Background(), "k", func(fctx context.Context) (int, error) {
		return 9, fctx.Err()
	})
	if err != nil {
		t.Fatalf("fresh call after abandonment: %v", err)
	}
	if v != 9 {
		t.Fatalf("fresh call got %d, want 9", v)
	}
}

func TestFlightErrorPropagatesToAllWaiters(t *testing.T) {
	g := newFlightGroup[int]()
	boom := errors.New("boom")
	gate := make(chan struct{})

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = g.Do(context.Background(), "k", func(context.Context) (int, error) {
				<-gate
				return 0, boom
			})
		}(i)
	}
	time.Sleep(10 * time.Millisecond)
	close(gate)
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, boom) {
			t.Fatalf("waiter %d got %v, want boom", i, err)
		}
	}
}
