package workerpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p := New(Config{WorkerCount: 2, QueueSize: 4})
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer p.Stop(time.Second)

	var done int32
	for i := 0; i < 10; i++ {
		err := p.Submit(context.Background(), func(ctx context.Context) {
			atomic.AddInt32(&done, 1)
		})
		if err != nil {
			t.Fatalf("Submit() error: %v", err)
		}
	}

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&done) < 10 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := atomic.LoadInt32(&done); got != 10 {
		t.Fatalf("ran %d tasks, want 10", got)
	}
}

func TestPoolSubmitBeforeStartFails(t *testing.T) {
	p := New(Config{WorkerCount: 1})
	err := p.Submit(context.Background(), func(ctx context.Context) {})
	if err == nil {
		t.Fatalf("expected error submitting before Start()")
	}
}

func TestPoolRecoversFromPanic(t *testing.T) {
	p := New(Config{WorkerCount: 1, QueueSize: 2})
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer p.Stop(time.Second)

	var ran int32
	p.Submit(context.Background(), func(ctx context.Context) { panic("boom") })
	p.Submit(context.Background(), func(ctx context.Context) { atomic.AddInt32(&ran, 1) })

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&ran) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if atomic.LoadInt32(&ran) != 1 {
		t.Fatalf("worker did not survive panic to run next task")
	}
}

func TestPoolStopTimesOutIfWorkerStuck(t *testing.T) {
	p := New(Config{WorkerCount: 1, QueueSize: 1})
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	block := make(chan struct{})
	running := make(chan struct{})
	p.Submit(context.Background(), func(ctx context.Context) {
		close(running)
		<-block
	})
	<-running

	err := p.Stop(10 * time.Millisecond)
	close(block)
	if err == nil {
		t.Fatalf("expected Stop() to time out while a worker is blocked")
	}
}
