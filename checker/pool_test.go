package checker_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukemcguire/urlpulse/checker"
	"github.com/lukemcguire/urlpulse/result"
)

// fetchFunc adapts a function to the checker.Fetcher interface.
type fetchFunc func(ctx context.Context, target *url.URL, raw string) result.Outcome

func (f fetchFunc) Fetch(ctx context.Context, target *url.URL, raw string) result.Outcome {
	return f(ctx, target, raw)
}

// okAfter returns a fetcher that answers 200 after delay, honouring ctx.
func okAfter(delay time.Duration) fetchFunc {
	return func(ctx context.Context, _ *url.URL, raw string) result.Outcome {
		start := time.Now()
		select {
		case <-time.After(delay):
			return result.NewSuccess(raw, http.StatusOK, "OK", time.Since(start), -1)
		case <-ctx.Done():
			return result.NewNetworkError(raw, result.CategoryInterrupted, ctx.Err().Error(), time.Since(start))
		}
	}
}

func testConfig(poolSize int) checker.Config {
	cfg := checker.DefaultConfig()
	cfg.PoolSize = poolSize
	cfg.TaskDeadline = 2 * time.Second
	return cfg
}

func inputs(outcomes []result.Outcome) []string {
	got := make([]string, len(outcomes))
	for i, o := range outcomes {
		got[i] = o.Input()
	}
	return got
}

func TestRunAll_PreservesInputOrder(t *testing.T) {
	targets := []string{"a.test", "b.test", "c.test", "d.test", "e.test"}

	// Earlier targets finish last.
	fetcher := fetchFunc(func(ctx context.Context, target *url.URL, raw string) result.Outcome {
		idx := strings.Index("abcde", raw[:1])
		time.Sleep(time.Duration(len(targets)-idx) * 20 * time.Millisecond)
		return result.NewSuccess(raw, http.StatusOK, "OK", 0, -1)
	})

	pool := checker.New(testConfig(len(targets)), fetcher, nil)
	outcomes := pool.RunAll(context.Background(), targets)

	require.Len(t, outcomes, len(targets))
	assert.Equal(t, targets, inputs(outcomes))
}

func TestRunAll_EmptyInput(t *testing.T) {
	pool := checker.New(testConfig(2), okAfter(0), nil)
	assert.Empty(t, pool.RunAll(context.Background(), nil))
}

func TestRunAll_PrependsDefaultScheme(t *testing.T) {
	var mu sync.Mutex
	var fetched []string
	fetcher := fetchFunc(func(ctx context.Context, target *url.URL, raw string) result.Outcome {
		mu.Lock()
		fetched = append(fetched, target.String())
		mu.Unlock()
		return result.NewSuccess(raw, http.StatusOK, "OK", 0, -1)
	})

	pool := checker.New(testConfig(1), fetcher, nil)
	outcomes := pool.RunAll(context.Background(), []string{"example.com"})

	require.Len(t, outcomes, 1)
	assert.Equal(t, []string{"http://example.com"}, fetched)
	assert.Equal(t, "example.com", outcomes[0].Input(), "raw input is preserved, not the normalized form")
}

func TestRunAll_InvalidNeverFetches(t *testing.T) {
	var calls atomic.Int32
	fetcher := fetchFunc(func(ctx context.Context, target *url.URL, raw string) result.Outcome {
		calls.Add(1)
		return result.NewSuccess(raw, http.StatusOK, "OK", 0, -1)
	})

	pool := checker.New(testConfig(2), fetcher, nil)
	outcomes := pool.RunAll(context.Background(), []string{"exa mple.com", "http://"})

	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		inv, ok := o.(result.Invalid)
		require.True(t, ok, "expected Invalid, got %#v", o)
		assert.NotEmpty(t, inv.Reason)
		assert.False(t, result.Classify(1, o).ValidURL)
	}
	assert.Zero(t, calls.Load())
}

func TestRunAll_DeadlineDoesNotHangBatch(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	// The first target ignores its context entirely.
	fetcher := fetchFunc(func(ctx context.Context, target *url.URL, raw string) result.Outcome {
		if raw == "hang.test" {
			<-release
		}
		return result.NewSuccess(raw, http.StatusOK, "OK", 0, -1)
	})

	cfg := testConfig(2)
	cfg.TaskDeadline = 150 * time.Millisecond
	pool := checker.New(cfg, fetcher, nil)

	start := time.Now()
	outcomes := pool.RunAll(context.Background(), []string{"hang.test", "ok.test"})
	took := time.Since(start)

	require.Len(t, outcomes, 2)
	e, ok := outcomes[0].(result.NetworkError)
	require.True(t, ok, "expected NetworkError, got %#v", outcomes[0])
	assert.Equal(t, result.CategoryDeadline, e.Category)
	assert.Contains(t, e.Error, "timed out waiting for result")
	assert.GreaterOrEqual(t, e.Elapsed, 100*time.Millisecond)

	_, ok = outcomes[1].(result.Success)
	assert.True(t, ok, "other targets are unaffected, got %#v", outcomes[1])
	assert.Less(t, took, time.Second)
}

func TestRunAll_DeadlineCancelsFetchAndFreesWorker(t *testing.T) {
	var stuckCancelled atomic.Bool
	fetcher := fetchFunc(func(ctx context.Context, target *url.URL, raw string) result.Outcome {
		if raw == "stuck.test" {
			<-ctx.Done()
			stuckCancelled.Store(true)
			return result.NewNetworkError(raw, result.CategoryInterrupted, ctx.Err().Error(), 0)
		}
		return result.NewSuccess(raw, http.StatusOK, "OK", time.Millisecond, -1)
	})

	cfg := testConfig(1)
	cfg.TaskDeadline = 100 * time.Millisecond
	pool := checker.New(cfg, fetcher, nil)

	outcomes := pool.RunAll(context.Background(), []string{"stuck.test", "fast.test"})
	require.Len(t, outcomes, 2)

	e, ok := outcomes[0].(result.NetworkError)
	require.True(t, ok, "expected NetworkError, got %#v", outcomes[0])
	assert.Equal(t, result.CategoryDeadline, e.Category)

	s, ok := outcomes[1].(result.Success)
	require.True(t, ok, "queued target should run once the stuck fetch is cancelled, got %#v", outcomes[1])
	assert.Equal(t, http.StatusOK, s.StatusCode)
	assert.Eventually(t, stuckCancelled.Load, time.Second, 10*time.Millisecond)
}

func TestRunAll_RecoversPanics(t *testing.T) {
	fetcher := fetchFunc(func(ctx context.Context, target *url.URL, raw string) result.Outcome {
		if raw == "boom.test" {
			panic("fetcher exploded")
		}
		return result.NewSuccess(raw, http.StatusOK, "OK", 0, -1)
	})

	pool := checker.New(testConfig(1), fetcher, nil)
	outcomes := pool.RunAll(context.Background(), []string{"boom.test", "fine.test"})

	require.Len(t, outcomes, 2)
	e, ok := outcomes[0].(result.NetworkError)
	require.True(t, ok, "expected NetworkError, got %#v", outcomes[0])
	assert.Equal(t, result.CategoryExecution, e.Category)
	assert.Contains(t, e.Error, "fetcher exploded")

	_, ok = outcomes[1].(result.Success)
	assert.True(t, ok)
}

func TestRun_InterruptMarksRemainingTargets(t *testing.T) {
	fetcher := fetchFunc(func(ctx context.Context, target *url.URL, raw string) result.Outcome {
		if raw == "first.test" {
			return result.NewSuccess(raw, http.StatusOK, "OK", 0, -1)
		}
		return okAfter(time.Minute)(ctx, target, raw)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := checker.New(testConfig(4), fetcher, nil)

	targets := []string{"first.test", "second.test", "third.test", "fourth.test"}
	var outcomes []result.Outcome
	pool.Run(ctx, targets, func(index int, o result.Outcome) {
		outcomes = append(outcomes, o)
		if index == 0 {
			cancel()
		}
	})

	require.Len(t, outcomes, len(targets))
	assert.Equal(t, targets, inputs(outcomes))
	_, ok := outcomes[0].(result.Success)
	assert.True(t, ok)
	for _, o := range outcomes[1:] {
		e, ok := o.(result.NetworkError)
		require.True(t, ok, "expected NetworkError, got %#v", o)
		assert.Equal(t, result.CategoryInterrupted, e.Category)
	}
}

func TestRunAll_BoundedConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	fetcher := fetchFunc(func(ctx context.Context, target *url.URL, raw string) result.Outcome {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		inFlight.Add(-1)
		return result.NewSuccess(raw, http.StatusOK, "OK", 0, -1)
	})

	targets := make([]string, 12)
	for i := range targets {
		targets[i] = "host.test"
	}

	pool := checker.New(testConfig(3), fetcher, nil)
	outcomes := pool.RunAll(context.Background(), targets)

	assert.Len(t, outcomes, len(targets))
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Positive(t, peak.Load())
}

func TestRunAll_PoolOfOneSerializes(t *testing.T) {
	targets := []string{"a.test", "b.test", "c.test", "d.test"}

	pool := checker.New(testConfig(1), okAfter(100*time.Millisecond), nil)

	start := time.Now()
	outcomes := pool.RunAll(context.Background(), targets)
	took := time.Since(start)

	assert.Len(t, outcomes, len(targets))
	assert.GreaterOrEqual(t, took, 400*time.Millisecond)
}

func TestRunAll_PoolOfNParallelizes(t *testing.T) {
	targets := []string{"a.test", "b.test", "c.test", "d.test"}

	pool := checker.New(testConfig(len(targets)), okAfter(100*time.Millisecond), nil)

	start := time.Now()
	outcomes := pool.RunAll(context.Background(), targets)
	took := time.Since(start)

	assert.Len(t, outcomes, len(targets))
	assert.Less(t, took, 300*time.Millisecond)
}

func TestRun_EmitsProgressInOrder(t *testing.T) {
	targets := []string{"one.test", "two.test", "three.test"}
	progressCh := make(chan checker.Event, len(targets))

	pool := checker.New(testConfig(3), okAfter(10*time.Millisecond), progressCh)
	pool.RunAll(context.Background(), targets)
	close(progressCh)

	var events []checker.Event
	for evt := range progressCh {
		events = append(events, evt)
	}

	require.Len(t, events, len(targets))
	for i, evt := range events {
		assert.Equal(t, i, evt.Index)
		assert.Equal(t, i+1, evt.Collected)
		assert.Equal(t, len(targets), evt.Total)
		assert.Equal(t, targets[i], evt.Record.URL)
		assert.Equal(t, result.VerdictFast, evt.Record.Verdict)
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	pool := checker.New(checker.Config{}, okAfter(0), nil)
	assert.Equal(t, checker.DefaultPoolSize(), pool.Size())
	assert.GreaterOrEqual(t, pool.Size(), 2)
}

// TestRunAll_HTTPIntegration runs the real fetcher against a local server.
func TestRunAll_HTTPIntegration(t *testing.T) {
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/fail", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/stall", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	defer close(release)

	host := strings.TrimPrefix(server.URL, "http://")
	targets := []string{
		server.URL + "/ok",
		host + "/missing",
		"exa mple.com",
		server.URL + "/stall",
		strings.ToUpper("http://") + host + "/fail",
	}

	cfg := testConfig(3)
	cfg.ReadTimeout = 200 * time.Millisecond
	pool := checker.New(cfg, checker.NewHTTPFetcher(cfg), nil)

	outcomes := pool.RunAll(context.Background(), targets)
	require.Len(t, outcomes, len(targets))
	assert.Equal(t, targets, inputs(outcomes))

	records := make([]result.Record, len(outcomes))
	for i, o := range outcomes {
		records[i] = result.Classify(i+1, o)
	}

	assert.Equal(t, result.VerdictFast, records[0].Verdict)
	assert.Equal(t, result.VerdictClientError, records[1].Verdict)
	assert.Equal(t, 404, records[1].StatusCode)
	assert.Equal(t, result.KindInvalid, records[2].Kind)
	assert.Equal(t, result.KindError, records[3].Kind)
	assert.Equal(t, result.CategoryTimeout, records[3].ErrorCategory)
	assert.Equal(t, result.VerdictServerError, records[4].Verdict)
}
