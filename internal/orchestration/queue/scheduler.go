// Package queue implements QueueScheduler (spec §4.4): the per-tab dispatch
// loop that shifts items off a queueitem.Model and sends them to a
// siteadapter.Adapter on a jittered timer, with pause/resume/seek/skip
// control surfaces. The debounce-timer-plus-mutex shape is ported from the
// orchestration layer's CoordinatorNudger event loop, adapted from a
// batch-and-flush debounce into a single-item dispatch-and-arm cycle.
package queue

import (
	"context"
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/MaxITService/OneClickPrompts-sub000/internal/clock"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/domain/profile"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/domain/queueitem"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/log"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/orchestration/queue/automation"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/orchestration/tracing"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/siteadapter"
)

// DelayConfig is the subset of profile fields sampleDelay needs.
type DelayConfig struct {
	Unit             profile.DelayUnit
	Minutes          int
	Seconds          int
	RandomizeEnabled bool
	RandomPercent    int
}

// DelayConfigFromProfile extracts a DelayConfig from a normalized profile.
func DelayConfigFromProfile(p profile.Profile) DelayConfig {
	return DelayConfig{
		Unit:             p.QueueDelayUnit,
		Minutes:          p.QueueDelayMinutes,
		Seconds:          p.QueueDelaySeconds,
		RandomizeEnabled: p.QueueRandomizeEnabled,
		RandomPercent:    p.QueueRandomizePercent,
	}
}

// TogglesFromProfile extracts the automation toggles from a profile.
func TogglesFromProfile(p profile.Profile) automation.Toggles {
	return automation.Toggles{
		AutoScroll: p.QueueAutoScrollBeforeSend,
		Beep:       p.QueueBeepBeforeSend,
		Speak:      p.QueueSpeakBeforeSend,
		FinishBeep: p.QueueBeepOnFinish,
	}
}

func (c DelayConfig) baseMs() int64 {
	if c.Unit == profile.DelayUnitSeconds {
		return int64(c.Seconds) * 1000
	}
	return int64(c.Minutes) * 60000
}

// Snapshot is a point-in-time, lock-free-to-read copy of scheduler state for
// rendering.
type Snapshot struct {
	Size               int
	Running            bool
	Finished           bool
	RemainingOnPauseMs int64
	LastDelaySample    queueitem.DelaySample
	PendingTimerID     string
}

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithAutomationRunner installs the Runner used for pre-dispatch and finish
// side effects. Defaults to automation.NoopRunner.
func WithAutomationRunner(r automation.Runner) Option {
	return func(s *Scheduler) { s.runner = r }
}

// WithOnUpdate installs a callback fired after any state-changing operation,
// standing in for "render the updated display" (spec §4.4 step 2).
func WithOnUpdate(fn func()) Option {
	return func(s *Scheduler) { s.onUpdate = fn }
}

// WithOnError installs a callback fired once per dispatch attempt that
// stops the queue (spec §4.4 failure semantics).
func WithOnError(fn func(reason string)) Option {
	return func(s *Scheduler) { s.onError = fn }
}

// WithRandSource overrides the scheduler's delay-jitter source, for
// deterministic tests.
func WithRandSource(src rand.Source) Option {
	return func(s *Scheduler) { s.rng = rand.New(src) }
}

// Scheduler is the per-tab QueueScheduler.
type Scheduler struct {
	mu      sync.Mutex
	model   *queueitem.Model
	clk     clock.Clock
	adapter siteadapter.Adapter
	runner  automation.Runner
	cfg     DelayConfig
	toggles automation.Toggles
	rng     *rand.Rand

	timer       clock.Timer
	timerStop   chan struct{}
	timerGen    uint64
	armDeadline time.Time

	onUpdate func()
	onError  func(reason string)

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Scheduler over model, dispatching through adapter on clk's
// timers.
func New(model *queueitem.Model, clk clock.Clock, adapter siteadapter.Adapter, cfg DelayConfig, toggles automation.Toggles, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		model:   model,
		clk:     clk,
		adapter: adapter,
		cfg:     cfg,
		toggles: toggles,
		runner:  automation.NoopRunner{},
		rng:     rand.New(rand.NewSource(clk.Now().UnixNano())),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Close releases scheduler resources. The model's queued items are left
// untouched; callers that want to empty the queue should call Reset first.
func (s *Scheduler) Close() {
	s.cancel()
}

// Snapshot returns a consistent copy of the scheduler's current state.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Size:               s.model.Size(),
		Running:            s.model.IsRunning(),
		Finished:           s.model.Finished(),
		RemainingOnPauseMs: s.model.RemainingOnPauseMs(),
		LastDelaySample:    s.model.LastDelaySample(),
		PendingTimerID:     s.model.PendingTimerID(),
	}
}

// Enqueue adds an item to the queue. Safe to call at any time, running or
// not.
func (s *Scheduler) Enqueue(icon, text string, autoSend bool) (queueitem.Item, error) {
	_, span := tracing.Tracer().Start(s.ctx, tracing.SpanQueueEnqueue)
	defer span.End()

	s.mu.Lock()
	item, err := s.model.Enqueue(icon, text, autoSend)
	size := s.model.Size()
	s.mu.Unlock()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return item, err
	}
	span.SetAttributes(
		attribute.String(tracing.AttrQueueItemID, item.QueueID),
		attribute.Int(tracing.AttrQueueSize, size),
	)
	span.AddEvent(tracing.EventQueueItemEnqueued)
	s.notifyUpdate()
	return item, err
}

// RemoveAt removes the item at index, whether or not the scheduler is
// running.
func (s *Scheduler) RemoveAt(index int) (queueitem.Item, bool) {
	s.mu.Lock()
	item, ok := s.model.RemoveAt(index)
	s.mu.Unlock()
	if ok {
		s.notifyUpdate()
	}
	return item, ok
}

// Reorder moves the item at fromIndex to toIndex.
func (s *Scheduler) Reorder(fromIndex, toIndex int) bool {
	s.mu.Lock()
	ok := s.model.Reorder(fromIndex, toIndex)
	s.mu.Unlock()
	if ok {
		s.notifyUpdate()
	}
	return ok
}

// UpdateConfig installs new delay/automation parameters, taking effect on
// the next sampled delay. Call RecalculateRunningTimer afterward to rearm a
// pending wait immediately, per spec §4.4/§5 ("the scheduler must tolerate a
// config update landing mid-wait").
func (s *Scheduler) UpdateConfig(cfg DelayConfig, toggles automation.Toggles) {
	s.mu.Lock()
	s.cfg = cfg
	s.toggles = toggles
	s.mu.Unlock()
}

// Start transitions to running. If resuming from a pause with remaining
// wait time, it arms a timer for exactly that remaining duration; otherwise
// it dispatches the head immediately.
func (s *Scheduler) Start() {
	_, span := tracing.Tracer().Start(s.ctx, tracing.SpanQueueResume, oteltrace.WithAttributes(
		attribute.Bool(tracing.AttrSchedulerPaused, false),
	))
	defer span.End()

	s.mu.Lock()
	if s.model.IsRunning() || s.model.Size() == 0 {
		s.mu.Unlock()
		return
	}
	remaining := s.model.RemainingOnPauseMs()
	s.model.SetRunning(true)
	s.model.SetRemainingOnPauseMs(0)
	span.AddEvent(tracing.EventQueueResumed)
	if remaining > 0 {
		s.armTimerLocked(time.Duration(remaining) * time.Millisecond)
		s.mu.Unlock()
		s.notifyUpdate()
		return
	}
	s.mu.Unlock()
	s.notifyUpdate()
	s.dispatchOnce(true)
}

// Pause captures the remaining wait time (if a timer is pending) and
// transitions to not-running.
func (s *Scheduler) Pause() {
	_, span := tracing.Tracer().Start(s.ctx, tracing.SpanQueuePause, oteltrace.WithAttributes(
		attribute.Bool(tracing.AttrSchedulerPaused, true),
	))
	defer span.End()

	s.mu.Lock()
	if !s.model.IsRunning() {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		remaining := s.armDeadline.Sub(s.clk.Now())
		if remaining < 0 {
			remaining = 0
		}
		s.model.SetRemainingOnPauseMs(remaining.Milliseconds())
		s.cancelTimerLocked()
	}
	s.model.SetRunning(false)
	s.mu.Unlock()
	span.AddEvent(tracing.EventQueuePaused)
	s.notifyUpdate()
	log.Debug(log.CatScheduler, "queue paused")
}

// Reset pauses, empties the queue, and clears Finished. Pending
// audio/speech side effects are dropped best-effort; this simulated runner
// has no in-flight playback state to cancel.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	s.cancelTimerLocked()
	s.model.Reset()
	s.mu.Unlock()
	s.notifyUpdate()
}

// Skip dispatches the head item immediately, bypassing any remaining delay.
// While running, this continues the run (the next item gets its own
// sampled delay armed as usual). While paused, the head is still sent but
// run state is left unchanged: the scheduler remains paused afterward.
func (s *Scheduler) Skip() {
	s.mu.Lock()
	if s.model.Size() == 0 {
		s.mu.Unlock()
		return
	}
	wasRunning := s.model.IsRunning()
	s.cancelTimerLocked()
	s.model.SetRemainingOnPauseMs(0)
	s.mu.Unlock()

	_, span := tracing.Tracer().Start(s.ctx, tracing.SpanQueueDispatch, oteltrace.WithAttributes(
		attribute.Bool(tracing.AttrSchedulerSkipped, true),
	))
	span.AddEvent(tracing.EventQueueItemSkipped)
	span.End()

	s.dispatchOnce(wasRunning)
}

// SeekToRatio rescales the remaining wait to (1-r) of the last sampled
// total delay, clamped to [0, totalMs]. Meaningful only while a timer is
// pending (running) or a pause has remaining time recorded; otherwise a
// no-op.
func (s *Scheduler) SeekToRatio(r float64) {
	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}
	_, span := tracing.Tracer().Start(s.ctx, tracing.SpanSchedulerSample, oteltrace.WithAttributes(
		attribute.Float64(tracing.AttrSchedulerRatio, r),
	))
	defer span.End()

	s.mu.Lock()
	sample := s.model.LastDelaySample()
	if sample.TotalMs <= 0 {
		s.mu.Unlock()
		return
	}
	remaining := int64(math.Round((1 - r) * float64(sample.TotalMs)))
	remaining = clampInt64(remaining, 0, sample.TotalMs)

	switch {
	case s.timer != nil:
		s.cancelTimerLocked()
		s.armTimerLocked(time.Duration(remaining) * time.Millisecond)
	case !s.model.IsRunning() && s.model.RemainingOnPauseMs() > 0:
		s.model.SetRemainingOnPauseMs(remaining)
	}
	s.mu.Unlock()
	s.notifyUpdate()
}

// RecalculateRunningTimer cancels and re-arms a pending timer using a fresh
// sampleDelay call, preserving run state. Called after a config change
// lands mid-wait.
func (s *Scheduler) RecalculateRunningTimer() {
	s.mu.Lock()
	if s.timer == nil {
		s.mu.Unlock()
		return
	}
	s.cancelTimerLocked()
	totalMs, sample := s.sampleDelayLocked()
	s.model.SetLastDelaySample(sample)
	s.armTimerLocked(time.Duration(totalMs) * time.Millisecond)
	s.mu.Unlock()
	s.notifyUpdate()
}

// dispatchOnce shifts and sends the head item. armNext controls whether a
// successful send with items remaining arms the next timer (true for every
// path except a skip issued while paused).
func (s *Scheduler) dispatchOnce(armNext bool) {
	s.mu.Lock()
	item, ok := s.model.ShiftHead()
	if !ok {
		s.mu.Unlock()
		return
	}
	toggles := s.toggles
	adapter := s.adapter
	runner := s.runner
	s.mu.Unlock()
	s.notifyUpdate()

	ctx, span := tracing.Tracer().Start(s.ctx, tracing.SpanQueueDispatch,
		oteltrace.WithAttributes(
			attribute.String(tracing.AttrQueueItemID, item.QueueID),
			attribute.String(tracing.AttrQueueSiteName, string(adapter.Site())),
		))
	defer span.End()

	automation.RunPreDispatch(ctx, runner, toggles)

	result, err := adapter.Send(ctx, item.Text, true)

	s.mu.Lock()
	if err != nil || result.Status != siteadapter.StatusSent {
		s.model.SetRunning(false)
		reason := resultReason(result, err)
		s.mu.Unlock()
		span.SetStatus(codes.Error, reason)
		span.SetAttributes(attribute.String(tracing.AttrErrorMessage, reason))
		span.AddEvent(tracing.EventErrorOccurred)
		log.Error(log.CatScheduler, "dispatch failed, queue stopped", "status", string(result.Status), "reason", reason)
		s.notifyError(reason)
		s.notifyUpdate()
		return
	}

	span.AddEvent(tracing.EventQueueItemDispatched)

	if s.model.Size() == 0 {
		s.model.SetFinished(true)
		s.model.SetRunning(false)
		s.mu.Unlock()
		automation.RunFinish(ctx, runner, toggles)
		s.notifyUpdate()
		return
	}

	if !armNext {
		s.mu.Unlock()
		s.notifyUpdate()
		return
	}

	totalMs, sample := s.sampleDelayLocked()
	s.model.SetLastDelaySample(sample)
	span.SetAttributes(attribute.Int64(tracing.AttrSchedulerDelayMs, totalMs))
	s.armTimerLocked(time.Duration(totalMs) * time.Millisecond)
	s.mu.Unlock()
	s.notifyUpdate()
}

// sampleDelay implements spec §4.4's delay sampling formula. Must be called
// with s.mu held.
func (s *Scheduler) sampleDelayLocked() (int64, queueitem.DelaySample) {
	base := s.cfg.baseMs()
	var offset int64
	if s.cfg.RandomizeEnabled && s.cfg.RandomPercent > 0 {
		u := s.rng.Float64() * (float64(s.cfg.RandomPercent) / 100)
		sign := 1.0
		if s.rng.Float64() < 0.5 {
			sign = -1.0
		}
		offset = int64(math.Round(float64(base) * u * sign))
	}
	total := base + offset
	if total < 0 {
		total = 0
	}
	sample := queueitem.DelaySample{
		BaseMs:    base,
		OffsetMs:  offset,
		TotalMs:   total,
		Percent:   s.cfg.RandomPercent,
		Timestamp: s.clk.Now().UnixMilli(),
	}
	return total, sample
}

// armTimerLocked starts a new timer for d and spawns the goroutine that
// waits on it. Must be called with s.mu held.
func (s *Scheduler) armTimerLocked(d time.Duration) {
	s.timerGen++
	gen := s.timerGen
	stop := make(chan struct{})
	timer := s.clk.NewTimer(d)

	s.timer = timer
	s.timerStop = stop
	s.armDeadline = s.clk.Now().Add(d)
	s.model.SetPendingTimerID(timerIDFor(gen))

	go s.waitTimer(gen, timer, stop)
}

// cancelTimerLocked stops any pending timer and unblocks its waiter
// goroutine. Must be called with s.mu held.
func (s *Scheduler) cancelTimerLocked() {
	if s.timer == nil {
		return
	}
	s.timer.Stop()
	close(s.timerStop)
	s.timer = nil
	s.timerStop = nil
	s.timerGen++
	s.model.SetPendingTimerID("")
}

func (s *Scheduler) waitTimer(gen uint64, t clock.Timer, stop chan struct{}) {
	select {
	case <-t.C():
		s.onTimerFire(gen)
	case <-stop:
	case <-s.ctx.Done():
	}
}

func (s *Scheduler) onTimerFire(gen uint64) {
	s.mu.Lock()
	if gen != s.timerGen || s.timer == nil {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.timerStop = nil
	s.model.SetPendingTimerID("")
	s.mu.Unlock()
	s.dispatchOnce(true)
}

func (s *Scheduler) notifyUpdate() {
	if s.onUpdate != nil {
		s.onUpdate()
	}
}

func (s *Scheduler) notifyError(reason string) {
	if s.onError != nil {
		s.onError(reason)
	}
}

func resultReason(result siteadapter.Result, err error) string {
	if err != nil {
		return err.Error()
	}
	if result.Reason != "" {
		return result.Reason
	}
	return string(result.Status)
}

func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func timerIDFor(gen uint64) string {
	return "timer-" + strconv.FormatUint(gen, 10)
}
