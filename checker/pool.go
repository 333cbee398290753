// Package checker fetches a batch of URLs with a fixed-size worker pool and
// collects exactly one outcome per target, in input order.
package checker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"
	"golang.org/x/sync/errgroup"

	"github.com/lukemcguire/urlpulse/result"
	"github.com/lukemcguire/urlpulse/urlutil"
)

// Pool runs fetch jobs on a fixed number of workers.
type Pool struct {
	cfg        Config
	fetcher    Fetcher
	throttle   *Throttle
	progressCh chan<- Event
}

// task is one fetch job together with its result handle.
type task struct {
	raw     string
	ctx     context.Context // cancelled when the controller stops waiting for this task
	cancel  context.CancelFunc
	started atomic.Int64 // UnixNano when a worker picked the task up; 0 while queued
	done    chan result.Outcome
}

func (t *task) elapsed() time.Duration {
	started := t.started.Load()
	if started == 0 {
		return 0
	}
	return time.Since(time.Unix(0, started))
}

// New creates a Pool. The progressCh parameter is optional; pass nil to
// disable progress events.
func New(cfg Config, fetcher Fetcher, progressCh chan<- Event) *Pool {
	cfg = cfg.withDefaults()

	var throttle *Throttle
	if cfg.RateLimit > 0 {
		throttle = NewThrottle(cfg.RateLimit, result.FastThreshold)
	}

	return &Pool{
		cfg:        cfg,
		fetcher:    fetcher,
		throttle:   throttle,
		progressCh: progressCh,
	}
}

// Size returns the number of workers the pool runs.
func (p *Pool) Size() int {
	return p.cfg.PoolSize
}

// RunAll checks every target and returns one outcome per target, in order.
func (p *Pool) RunAll(ctx context.Context, targets []string) []result.Outcome {
	outcomes := make([]result.Outcome, len(targets))
	p.Run(ctx, targets, func(index int, o result.Outcome) {
		outcomes[index] = o
	})
	return outcomes
}

// Run checks every target and calls emit once per target in input order,
// as soon as that target's outcome has been collected.
//
// All targets are queued before any result is awaited. Results are then
// awaited strictly in order, each bounded by cfg.TaskDeadline. When ctx is
// cancelled, every target not yet collected is reported as interrupted.
// Run returns without waiting for workers still busy with abandoned fetches.
func (p *Pool) Run(ctx context.Context, targets []string, emit func(index int, o result.Outcome)) {
	if len(targets) == 0 {
		return
	}
	log := zerolog.Ctx(ctx)

	workCtx, shutdown := context.WithCancel(ctx)

	tasks := make([]*task, len(targets))
	queue := make(chan *task, len(targets))
	for i, raw := range targets {
		taskCtx, cancel := context.WithCancel(workCtx)
		tasks[i] = &task{raw: raw, ctx: taskCtx, cancel: cancel, done: make(chan result.Outcome, 1)}
		queue <- tasks[i]
	}
	close(queue)

	workers := min(p.cfg.PoolSize, len(targets))
	errGroup, groupCtx := errgroup.WithContext(workCtx)
	for range workers {
		errGroup.Go(func() error {
			p.work(groupCtx, queue)
			return nil
		})
	}
	log.Debug().Int("targets", len(targets)).Int("workers", workers).Msg("batch submitted")

	for i, t := range tasks {
		o := p.await(ctx, t)
		emit(i, o)
		p.report(ctx, i, len(tasks), o)
	}

	// Queued work is discarded and in-flight fetches see a cancelled context.
	shutdown()
	go func() {
		_ = errGroup.Wait()
		log.Debug().Msg("workers stopped")
	}()
}

// work runs queued tasks until the queue is empty or ctx is done.
// Tasks abandoned by the controller while still queued are skipped.
func (p *Pool) work(ctx context.Context, queue <-chan *task) {
	for t := range queue {
		if ctx.Err() != nil {
			return
		}
		if t.ctx.Err() != nil {
			continue
		}
		t.started.Store(time.Now().UnixNano())
		t.done <- p.execute(t.ctx, t)
		t.cancel()
	}
}

// execute normalizes and fetches one target. It never panics.
func (p *Pool) execute(ctx context.Context, t *task) result.Outcome {
	target, err := urlutil.Normalize(t.raw)
	if err != nil {
		return result.Invalid{RawInput: t.raw, Reason: err.Error()}
	}

	if p.throttle != nil {
		if waitErr := p.throttle.Wait(ctx); waitErr != nil {
			return result.NewNetworkError(t.raw, result.CategoryInterrupted,
				fmt.Sprintf("rate limiter wait: %v", waitErr), t.elapsed())
		}
	}

	var o result.Outcome
	if recovered := panics.Try(func() { o = p.fetcher.Fetch(ctx, target, t.raw) }); recovered != nil {
		zerolog.Ctx(ctx).Warn().
			Str("url", t.raw).
			Str("panic", recovered.String()).
			Msg("fetch panicked")
		return result.NewNetworkError(t.raw, result.CategoryExecution, fmt.Sprint(recovered.Value), t.elapsed())
	}
	if o == nil {
		return result.NewNetworkError(t.raw, result.CategoryExecution, "fetcher returned no outcome", t.elapsed())
	}

	if s, ok := o.(result.Success); ok && p.throttle != nil {
		p.throttle.Observe(s.Elapsed)
	}
	return o
}

// await blocks until t has an outcome, its deadline passes, or ctx is done.
func (p *Pool) await(ctx context.Context, t *task) result.Outcome {
	if ctx.Err() != nil {
		return interrupted(t)
	}

	timer := time.NewTimer(p.cfg.TaskDeadline)
	defer timer.Stop()

	select {
	case o := <-t.done:
		return o
	case <-timer.C:
		// Frees the worker for the tasks queued behind this one.
		t.cancel()
		zerolog.Ctx(ctx).Warn().
			Str("url", t.raw).
			Dur("deadline", p.cfg.TaskDeadline).
			Msg("gave up waiting for result")
		return result.NewNetworkError(t.raw, result.CategoryDeadline,
			fmt.Sprintf("timed out waiting for result (task exceeded %s)", p.cfg.TaskDeadline), t.elapsed())
	case <-ctx.Done():
		zerolog.Ctx(ctx).Warn().Str("url", t.raw).Msg("interrupted while waiting for result")
		return interrupted(t)
	}
}

func interrupted(t *task) result.Outcome {
	return result.NewNetworkError(t.raw, result.CategoryInterrupted, "interrupted while waiting for results", t.elapsed())
}

// report sends a progress event, giving up if ctx is done.
func (p *Pool) report(ctx context.Context, index, total int, o result.Outcome) {
	rec := result.Classify(index+1, o)
	zerolog.Ctx(ctx).Debug().
		Int("index", index+1).
		Str("url", rec.URL).
		Str("kind", string(rec.Kind)).
		Int64("elapsed_ms", rec.ElapsedMs).
		Msg("outcome collected")

	if p.progressCh == nil {
		return
	}
	evt := Event{Index: index, Total: total, Collected: index + 1, Record: rec}
	select {
	case p.progressCh <- evt:
	case <-ctx.Done():
	}
}
