package queue

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// ErrStopped is returned by Do once the dispatcher no longer accepts jobs.
var ErrStopped = errors.New("mutation dispatcher stopped")

// Metrics are the collectors the dispatcher reports to. Nil collectors are
// skipped.
type Metrics struct {
	// QueueDepth is labelled by worker_id.
	QueueDepth *prometheus.GaugeVec
	// Duration is labelled by result ("ok" or "error").
	Duration *prometheus.HistogramVec
}

type job struct {
	ctx  context.Context
	key  string
	fn   func(ctx context.Context) error
	done chan error
}

// Dispatcher routes mutations to a fixed set of workers using consistent
// hashing on a key (the user id), so mutations sharing a key run one at a
// time and in arrival order while different keys proceed in parallel.
//
// A job that was accepted always runs to completion and its caller always
// receives the real outcome, also while the dispatcher is draining.
type Dispatcher struct {
	workers []chan job
	metrics Metrics
	log     zerolog.Logger

	mu     sync.RWMutex // guards closed and sends on workers
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, m Metrics, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan job, numWorkers),
		metrics: m,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan job, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Once ctx is cancelled the dispatcher
// stops accepting jobs; workers finish what is already queued and exit.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(i, ch)
	}
	go func() {
		<-ctx.Done()
		d.close()
	}()
}

// Wait blocks until every worker has drained its queue and exited, or ctx
// expires. It does not stop the dispatcher by itself.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn on the worker owning key and waits for its result. ctx only
// bounds the wait for a queue slot; after that fn receives ctx and Do
// returns whatever fn returned.
func (d *Dispatcher) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	j := job{ctx: ctx, key: key, fn: fn, done: make(chan error, 1)}
	if err := d.enqueue(ctx, j); err != nil {
		return err
	}
	return <-j.done
}

func (d *Dispatcher) enqueue(ctx context.Context, j job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrStopped
	}

	idx := d.shardIndex(j.key)
	ch := d.workers[idx]
	select {
	case ch <- j:
		d.observeDepth(idx, len(ch))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(id int, ch <-chan job) {
	defer d.wg.Done()
	for j := range ch {
		d.observeDepth(id, len(ch))
		j.done <- d.run(id, j)
	}
	d.log.Debug().Int("worker_id", id).Msg("worker drained")
}

func (d *Dispatcher) run(id int, j job) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mutation panicked: %v", r)
			d.log.Error().Str("key", j.key).Int("worker_id", id).Interface("panic", r).Msg("mutation panicked")
		}
		if d.metrics.Duration != nil {
			result := "ok"
			if err != nil {
				result = "error"
			}
			d.metrics.Duration.WithLabelValues(result).Observe(time.Since(start).Seconds())
		}
	}()

	if err := j.ctx.Err(); err != nil {
		return err
	}
	return j.fn(j.ctx)
}

func (d *Dispatcher) observeDepth(id, depth int) {
	if d.metrics.QueueDepth != nil {
		d.metrics.QueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(depth))
	}
}
