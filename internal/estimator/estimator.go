// Package estimator implements EstimatorWorker (spec §4.8): the off-main
// token-estimation backend TokenApproximator posts snapshots to. Ported
// from the teacher's internal/orchestration/pool worker-pool pattern,
// narrowed from "pool of N concurrent subprocess workers" to "one long-lived
// goroutine consuming requests over a channel and replying on a per-request
// result channel" — the Go analogue of postMessage/onmessage. A
// CSP-restrictive host (spec §4.8, §7 "worker-unavailable") is simulated by
// WithRunInline(true), which bypasses the channel entirely and calls models
// synchronously on the caller's goroutine.
package estimator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/MaxITService/OneClickPrompts-sub000/internal/cachemanager"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/log"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/orchestration/tracing"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/tokenmodel"
)

// ErrWorkerClosed is returned by Estimate when the worker's goroutine has
// already been stopped via Close.
var ErrWorkerClosed = errors.New("estimator: worker is closed")

// Texts is the triple of text snapshots EstimatorInput carries (spec §3).
type Texts struct {
	All        string
	ThreadOnly string
	EditorsOnly string
}

// Input is EstimatorInput from spec §3/§4.8.
type Input struct {
	Texts          Texts
	Scale          float64
	CountingMethod string
}

// Estimates mirrors Input.Texts, one count per snapshot.
type Estimates struct {
	All         int
	ThreadOnly  int
	EditorsOnly int
}

// Output is the worker's reply: either a populated Estimates with the model
// id actually used (after legacy-id resolution), or an error.
type Output struct {
	OK        bool
	Estimates Estimates
	ModelUsed string
	Err       error
}

// CacheManager is the subset of cachemanager.CacheManager the worker needs,
// narrowed to string keys so callers can swap in a no-op cache for tests.
type CacheManager = cachemanager.CacheManager[string, int]

// Worker is the EstimatorWorker. Zero value is not usable; construct with
// New.
type Worker struct {
	registry  *tokenmodel.Registry
	cache     CacheManager
	cacheTTL  time.Duration
	runInline bool

	requests chan request
	done     chan struct{}
}

type request struct {
	ctx    context.Context
	input  Input
	result chan Output
}

// Option configures a Worker at construction time.
type Option func(*Worker)

// WithCache installs a cache for per-text-hash estimate memoization,
// keyed by normalized-text+model+scale (spec §4.8 implementation note:
// "implementer must make the model set self-contained inside the worker
// boundary" — the cache lives here, not in the caller).
func WithCache(c CacheManager, ttl time.Duration) Option {
	return func(w *Worker) {
		w.cache = c
		w.cacheTTL = ttl
	}
}

// WithRunInline forces every Estimate call to run synchronously on the
// caller's goroutine, simulating a CSP-restrictive host that cannot spin up
// a worker (spec §4.8, §7 "worker-unavailable").
func WithRunInline(inline bool) Option {
	return func(w *Worker) { w.runInline = inline }
}

// New creates a Worker over registry and starts its background goroutine
// unless WithRunInline(true) is given.
func New(registry *tokenmodel.Registry, opts ...Option) *Worker {
	w := &Worker{
		registry: registry,
		cacheTTL: 10 * time.Second,
		requests: make(chan request),
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	if !w.runInline {
		go w.loop()
	}
	return w
}

// Close stops the worker's background goroutine. Pending Estimate calls
// that are already in flight still receive their response; calls made
// after Close return ErrWorkerClosed.
func (w *Worker) Close() {
	if w.runInline {
		return
	}
	select {
	case <-w.done:
	default:
		close(w.done)
	}
}

func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.result <- w.process(req.ctx, req.input)
		case <-w.done:
			return
		}
	}
}

// Estimate posts input and waits for the response, the Go analogue of
// postMessage + a single onmessage reply (spec §5 "worker message is
// fire-and-forget with a single response"). In RunInline mode this calls
// process directly on the caller's goroutine.
func (w *Worker) Estimate(ctx context.Context, input Input) Output {
	if w.runInline {
		return w.process(ctx, input)
	}
	req := request{ctx: ctx, input: input, result: make(chan Output, 1)}
	select {
	case <-w.done:
		return Output{OK: false, Err: ErrWorkerClosed}
	default:
	}
	select {
	case w.requests <- req:
	case <-w.done:
		return Output{OK: false, Err: ErrWorkerClosed}
	case <-ctx.Done():
		return Output{OK: false, Err: ctx.Err()}
	}
	select {
	case out := <-req.result:
		return out
	case <-ctx.Done():
		return Output{OK: false, Err: ctx.Err()}
	}
}

func (w *Worker) process(ctx context.Context, input Input) Output {
	ctx, span := tracing.Tracer().Start(ctx, tracing.SpanEstimatorEstimate,
		oteltrace.WithAttributes(attribute.Float64(tracing.AttrEstimatorScale, input.Scale)))
	defer span.End()

	modelID := w.registry.ResolveModelID(input.CountingMethod)
	span.SetAttributes(attribute.String(tracing.AttrEstimatorModel, modelID))
	model, ok := w.registry.GetModel(modelID)
	if !ok {
		err := fmt.Errorf("estimator: no model available for id %q", modelID)
		span.SetStatus(codes.Error, err.Error())
		log.Error(log.CatEstimator, "estimate failed: no model", "countingMethod", input.CountingMethod)
		return Output{OK: false, Err: err}
	}

	scale := input.Scale
	if scale <= 0 {
		scale = 1
	}

	est := Estimates{
		All:         w.estimateOne(ctx, modelID, model, input.Texts.All, scale),
		ThreadOnly:  w.estimateOne(ctx, modelID, model, input.Texts.ThreadOnly, scale),
		EditorsOnly: w.estimateOne(ctx, modelID, model, input.Texts.EditorsOnly, scale),
	}
	span.SetAttributes(attribute.Int(tracing.AttrEstimatorTokens, est.All))
	span.AddEvent(tracing.EventEstimatorModelUsed)
	log.Debug(log.CatEstimator, "estimate complete", "model", modelID, "all", est.All, "threadOnly", est.ThreadOnly, "editorsOnly", est.EditorsOnly)
	return Output{OK: true, Estimates: est, ModelUsed: modelID}
}

// estimateInput carries what the read-through cache's compute function
// needs to run a cache miss, since the cache key alone (a text hash) isn't
// enough to re-derive the estimate.
type estimateInput struct {
	model tokenmodel.Model
	text  string
	scale float64
}

func (w *Worker) estimateOne(ctx context.Context, modelID string, model tokenmodel.Model, text string, scale float64) int {
	normalized := tokenmodel.NormalizeText(text)
	if normalized == "" {
		return 0
	}
	if w.cache == nil {
		return model.Estimate(normalized, scale)
	}
	key := cacheKey(modelID, scale, normalized)
	if _, hit := w.cache.Get(ctx, key); hit {
		span := oteltrace.SpanFromContext(ctx)
		span.SetAttributes(attribute.Bool(tracing.AttrEstimatorCacheHit, true))
		span.AddEvent(tracing.EventEstimatorCacheHit)
	}
	rtc := cachemanager.NewReadThroughCache(w.cache, func(_ context.Context, in estimateInput) (int, error) {
		return in.model.Estimate(in.text, in.scale), nil
	}, false)
	v, _ := rtc.Get(ctx, key, estimateInput{model: model, text: normalized, scale: scale}, w.cacheTTL)
	return v
}

func cacheKey(modelID string, scale float64, normalized string) string {
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%s:%g:%s", modelID, scale, hex.EncodeToString(h[:]))
}
