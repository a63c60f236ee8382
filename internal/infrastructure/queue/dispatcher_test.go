package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

func TestDispatcher_SameKeyNeverOverlaps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := NewDispatcher(4, Metrics{}, zerolog.Nop())
	d.Start(ctx)

	var (
		running int32
		overlap int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := d.Do(ctx, "user_1", func(context.Context) error {
				if atomic.AddInt32(&running, 1) > 1 {
					atomic.StoreInt32(&overlap, 1)
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil
			})
			if err != nil {
				t.Errorf("Do: %v", err)
			}
		}()
	}
	wg.Wait()

	if overlap != 0 {
		t.Fatalf("mutations for the same key overlapped")
	}
}

func TestDispatcher_ReturnsFnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := NewDispatcher(2, Metrics{}, zerolog.Nop())
	d.Start(ctx)

	want := errors.New("boom")
	if err := d.Do(ctx, "k", func(context.Context) error { return want }); !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestDispatcher_RecoversPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := NewDispatcher(1, Metrics{}, zerolog.Nop())
	d.Start(ctx)

	if err := d.Do(ctx, "k", func(context.Context) error { panic("bad") }); err == nil {
		t.Fatalf("expected error from panicking mutation")
	}
	if err := d.Do(ctx, "k", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("worker must survive a panic, got %v", err)
	}
}

func TestDispatcher_StoppedFailsFast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(1, Metrics{}, zerolog.Nop())
	d.Start(ctx)
	cancel()
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	err := d.Do(context.Background(), "k", func(context.Context) error { return nil })
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, Metrics{}, zerolog.Nop())
	first := d.shardIndex("user_42")
	for i := 0; i < 10; i++ {
		if got := d.shardIndex("user_42"); got != first {
			t.Fatalf("shard index changed: %d != %d", got, first)
		}
	}
	if first < 0 || first >= 8 {
		t.Fatalf("shard index out of range: %d", first)
	}
}

func TestDispatcher_RunningJobReportsOutcomeAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(1, Metrics{}, zerolog.Nop())
	d.Start(ctx)

	started := make(chan struct{})
	release := make(chan struct{})
	var committed int32
	result := make(chan error, 1)
	go func() {
		result <- d.Do(context.Background(), "k", func(context.Context) error {
			close(started)
			<-release
			atomic.AddInt32(&committed, 1)
			return nil
		})
	}()

	<-started
	cancel()
	close(release)

	if err := <-result; err != nil {
		t.Fatalf("expected the committed job to report success, got %v", err)
	}
	if atomic.LoadInt32(&committed) != 1 {
		t.Fatalf("job did not run")
	}
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestDispatcher_QueuedJobsDrainOnStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(1, Metrics{}, zerolog.Nop())
	d.Start(ctx)

	started := make(chan struct{})
	release := make(chan struct{})
	var ran int32
	results := make(chan error, 2)
	go func() {
		results <- d.Do(context.Background(), "k", func(context.Context) error {
			close(started)
			<-release
			atomic.AddInt32(&ran, 1)
			return nil
		})
	}()
	<-started
	go func() {
		results <- d.Do(context.Background(), "k", func(context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		})
	}()

	deadline := time.Now().Add(2 * time.Second)
	for len(d.workers[0]) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("second job was never queued")
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	close(release)

	for i := 0; i < 2; i++ {
		if err := <-results; err != nil {
			t.Fatalf("queued job %d: %v", i, err)
		}
	}
	if atomic.LoadInt32(&ran) != 2 {
		t.Fatalf("expected both jobs to run, got %d", ran)
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	if err := d.Wait(waitCtx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestDispatcher_RecordsMetrics(t *testing.T) {
	m := Metrics{
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "depth"}, []string{"worker_id"}),
		Duration:   prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "duration"}, []string{"result"}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := NewDispatcher(1, m, zerolog.Nop())
	d.Start(ctx)

	if err := d.Do(ctx, "k", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if err := d.Do(ctx, "k", func(context.Context) error { return errors.New("boom") }); err == nil {
		t.Fatalf("expected error")
	}

	if got := seriesCount(m.Duration); got != 2 {
		t.Fatalf("expected ok and error series, got %d", got)
	}
	if got := seriesCount(m.QueueDepth); got != 1 {
		t.Fatalf("expected one worker depth series, got %d", got)
	}
}

func seriesCount(c prometheus.Collector) int {
	ch := make(chan prometheus.Metric, 16)
	c.Collect(ch)
	close(ch)
	return len(ch)
}
