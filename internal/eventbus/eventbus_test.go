// Copyright 2026 The Navcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

package eventbus

import (
	"testing"
	"time"
)

func TestPushNextFIFO(t *testing.T) {
	b := New(4)
	b.Push(Event{Tick: &TickEvent{At: time.Unix(1, 0)}})
	b.Push(Event{Tick: &TickEvent{At: time.Unix(2, 0)}})

	e1, ok := b.Next()
	if !ok || e1.Tick == nil || !e1.Tick.At.Equal(time.Unix(1, 0)) {
		t.Fatalf("got %+v, want first tick", e1)
	}
	e2, ok := b.Next()
	if !ok || e2.Tick == nil || !e2.Tick.At.Equal(time.Unix(2, 0)) {
		t.Fatalf("got %+v, want second tick", e2)
	}
}

func TestStopDiscardsFurtherPushesAndUnblocksNext(t *testing.T) {
	b := New(1)
	b.Stop()
	b.Push(Event{Tick: &TickEvent{At: time.Now()}})

	done := make(chan bool, 1)
	go func() {
		_, ok := b.Next()
		done <- ok
	}()

	select {
	case ok := <-done:
		if ok {
			t.Error("got ok=true from Next after Stop, want false")
		}
	case <-time.After(time.Second):
		t.Fatal("Next did not return after Stop")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	b := New(1)
	b.Stop()
	b.Stop()
}
