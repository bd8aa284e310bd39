// Package approximator implements TokenApproximator (spec §4.6): two
// independent cooldown-debounced schedulers (thread, editor) that snapshot
// DOM text, post it to an estimator.Worker, and drive a pair of chip state
// machines through loading → fresh → stale → paused. Ported from the
// teacher's internal/orchestration/v2/nudger.CoordinatorNudger debounce-timer
// loop (the same Clock/Timer seam used by internal/orchestration/queue),
// generalized here to two independently configured instances sharing one
// clock.Clock. "DOM mutation" and "visibility change" are the external
// collaborators named in spec §1: a host harness drives them through
// NotifyThreadMutation/NotifyEditorInput/SetVisible.
package approximator

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/MaxITService/OneClickPrompts-sub000/internal/clock"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/domain/profile"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/estimator"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/log"
)

// ChipKind distinguishes the thread-total chip from the editor-only chip
// (spec §3 TokenChip.kind).
type ChipKind string

const (
	ChipThread ChipKind = "thread"
	ChipEditor ChipKind = "editor"
)

// ChipStatus is the chip's display state machine (spec §4.6).
type ChipStatus string

const (
	StatusLoading ChipStatus = "loading"
	StatusFresh   ChipStatus = "fresh"
	StatusStale   ChipStatus = "stale"
	StatusPaused  ChipStatus = "paused"
)

// Default cooldowns and stale timeouts (spec §4.6/§9). Stale timeouts are
// also exposed per-instance via Config so a host can make them tunable
// settings, per the spec's open-question note.
const (
	DefaultThreadCooldown = 15 * time.Second
	DefaultEditorCooldown = 600 * time.Millisecond
	DefaultSafetyTick     = 45 * time.Second
	DefaultThreadStale    = 6500 * time.Millisecond
	DefaultEditorStale    = 12000 * time.Millisecond
)

// Chip is the transient UI state for one chip (spec §3 TokenChip).
type Chip struct {
	Kind   ChipKind
	Status ChipStatus
	Value  string
}

// Format renders a token count per spec §4.6/§8: values under 1000 render
// as "<B" where B is the next multiple of 100 ≥ value; 1000 and above
// render as "⌈v/1000⌉k".
func Format(v int) string {
	if v < 0 {
		v = 0
	}
	if v < 1000 {
		b := ((v + 99) / 100) * 100
		return "<" + strconv.Itoa(b)
	}
	k := (v + 999) / 1000
	return strconv.Itoa(k) + "k"
}

// TextSource is a pull-based snapshot of the current page text, supplied by
// the host harness. It stands in for reading {all, threadOnly, editorsOnly}
// off the live DOM (spec §4.6).
type TextSource interface {
	Snapshot() estimator.Texts
}

// TextSourceFunc adapts a function to TextSource.
type TextSourceFunc func() estimator.Texts

func (f TextSourceFunc) Snapshot() estimator.Texts { return f() }

// Config configures one scheduler instance.
type Config struct {
	Cooldown       time.Duration
	StaleAfter     time.Duration
	Scale          float64
	CountingMethod string
	// ThreadMode selects which snapshot the thread scheduler reads: All
	// (withEditors) or ThreadOnly (ignoreEditors). Unused by the editor
	// scheduler, which always reads EditorsOnly.
	ThreadMode profile.ThreadMode
}

// scheduler is the shared cooldown-debounce engine behind both the thread
// and editor schedulers (spec §9 "model as a task with states {idle,
// pendingDirty, scheduled, running}").
type scheduler struct {
	mu      sync.Mutex
	kind    ChipKind
	clk     clock.Clock
	worker  *estimator.Worker
	source  TextSource
	cfg     Config
	onChip  func(Chip)

	dirty       bool
	scheduled   bool
	visible     bool
	lastRunAt   time.Time
	hasRun      bool
	timer       clock.Timer
	staleTimer  clock.Timer
	safetyTimer clock.Timer
	chip        Chip

	ctx    context.Context
	cancel context.CancelFunc
}

func newScheduler(kind ChipKind, clk clock.Clock, worker *estimator.Worker, source TextSource, cfg Config, onChip func(Chip)) *scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &scheduler{
		kind:    kind,
		clk:     clk,
		worker:  worker,
		source:  source,
		cfg:     cfg,
		onChip:  onChip,
		visible: true,
		chip:    Chip{Kind: kind, Status: StatusFresh, Value: Format(0)},
		ctx:     ctx,
		cancel:  cancel,
	}
	return s
}

// Close stops all pending timers and goroutines for this scheduler.
func (s *scheduler) Close() {
	s.cancel()
	s.mu.Lock()
	s.stopTimerLocked()
	s.stopStaleTimerLocked()
	s.stopSafetyTimerLocked()
	s.mu.Unlock()
}

// MarkDirty marks the scheduler dirty (an event occurred) and schedules a
// tick at the first of (idle callback, min-cooldown elapsed). A single
// clock timer, waited on by one goroutine, stands in for the
// idle-callback/raf race spec §4.6 describes; both resolve to "run at the
// cooldown boundary" in a headless harness.
func (s *scheduler) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
	if !s.visible {
		s.setChipLocked(StatusPaused, s.chip.Value)
		return
	}
	if s.chip.Status != StatusLoading {
		s.setChipLocked(StatusLoading, s.chip.Value)
	}
	s.scheduleLocked(false)
}

// RunNow runs a tick if the scheduler is dirty and its cooldown has
// elapsed; otherwise it is a no-op (the pending scheduled tick will still
// fire later).
func (s *scheduler) RunNow() {
	s.mu.Lock()
	if !s.dirty || !s.visible {
		s.mu.Unlock()
		return
	}
	if s.hasRun && s.clk.Now().Sub(s.lastRunAt) < s.cfg.Cooldown {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.tick()
}

// ForceNow bypasses cooldown entirely (spec §4.6: "used only for a direct
// chip click"), zeroing the last-run timestamp before scheduling.
func (s *scheduler) ForceNow() {
	s.mu.Lock()
	s.hasRun = false
	s.dirty = true
	s.mu.Unlock()
	s.tick()
}

// SetVisible toggles the visibility gate (spec §5 "TokenApproximator
// suspends ... while document.visibilityState !== 'visible'").
func (s *scheduler) SetVisible(visible bool) {
	s.mu.Lock()
	wasVisible := s.visible
	s.visible = visible
	if !visible {
		s.stopTimerLocked()
		s.stopStaleTimerLocked()
		s.setChipLocked(StatusPaused, s.chip.Value)
		s.mu.Unlock()
		return
	}
	if !wasVisible {
		s.dirty = true
		s.setChipLocked(StatusLoading, s.chip.Value)
		s.scheduleLocked(true)
	}
	s.mu.Unlock()
}

// scheduleLocked arms a timer for the remaining cooldown (or immediately if
// none has elapsed yet). immediate forces a zero-delay tick, used on
// visibility restore.
func (s *scheduler) scheduleLocked(immediate bool) {
	if s.scheduled {
		return
	}
	delay := time.Duration(0)
	if !immediate && s.hasRun {
		elapsed := s.clk.Now().Sub(s.lastRunAt)
		if elapsed < s.cfg.Cooldown {
			delay = s.cfg.Cooldown - elapsed
		}
	}
	s.scheduled = true
	timer := s.clk.NewTimer(delay)
	s.timer = timer
	go s.waitSchedule(timer)
}

func (s *scheduler) waitSchedule(t clock.Timer) {
	select {
	case <-t.C():
		s.mu.Lock()
		s.scheduled = false
		s.mu.Unlock()
		s.tick()
	case <-s.ctx.Done():
	}
}

// tick snapshots text, posts it to the estimator, and updates the chip on
// response (spec §4.6 "each tick snapshots ... and posts to
// EstimatorWorker").
func (s *scheduler) tick() {
	s.mu.Lock()
	if !s.dirty || !s.visible {
		s.mu.Unlock()
		return
	}
	s.dirty = false
	s.lastRunAt = s.clk.Now()
	s.hasRun = true
	cfg := s.cfg
	source := s.source
	s.mu.Unlock()

	if source == nil || s.worker == nil {
		return
	}
	texts := source.Snapshot()
	out := s.worker.Estimate(s.ctx, estimator.Input{
		Texts:          texts,
		Scale:          cfg.Scale,
		CountingMethod: cfg.CountingMethod,
	})
	if !out.OK {
		log.Error(log.CatApproximator, "estimate failed", "kind", string(s.kind), "err", out.Err)
		return
	}

	var value int
	switch {
	case s.kind == ChipEditor:
		value = out.Estimates.EditorsOnly
	case cfg.ThreadMode == profile.ThreadModeIgnoreEditors:
		value = out.Estimates.ThreadOnly
	default:
		value = out.Estimates.All
	}

	s.mu.Lock()
	s.setChipLocked(StatusFresh, Format(value))
	s.armStaleTimerLocked()
	s.mu.Unlock()
}

// armStaleTimerLocked schedules the transition to stale after cfg.StaleAfter
// has elapsed without a fresh result (spec §4.6 chip state transitions).
func (s *scheduler) armStaleTimerLocked() {
	s.stopStaleTimerLocked()
	timer := s.clk.NewTimer(s.cfg.StaleAfter)
	s.staleTimer = timer
	go s.waitStale(timer)
}

func (s *scheduler) waitStale(t clock.Timer) {
	select {
	case <-t.C():
		s.mu.Lock()
		if s.chip.Status == StatusFresh {
			s.setChipLocked(StatusStale, s.chip.Value)
		}
		s.mu.Unlock()
	case <-s.ctx.Done():
	}
}

func (s *scheduler) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.scheduled = false
}

func (s *scheduler) stopStaleTimerLocked() {
	if s.staleTimer != nil {
		s.staleTimer.Stop()
		s.staleTimer = nil
	}
}

func (s *scheduler) stopSafetyTimerLocked() {
	if s.safetyTimer != nil {
		s.safetyTimer.Stop()
		s.safetyTimer = nil
	}
}

func (s *scheduler) setChipLocked(status ChipStatus, value string) {
	s.chip.Status = status
	s.chip.Value = value
	if s.onChip != nil {
		chip := s.chip
		go s.onChip(chip)
	}
}

// Chip returns the scheduler's current chip snapshot.
func (s *scheduler) Chip() Chip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chip
}

// armSafetyTick arms the thread scheduler's periodic safety tick (spec
// §4.6: "periodic 45 s safety tick"), re-arming itself after every fire.
func (s *scheduler) armSafetyTick(interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.mu.Lock()
	s.stopSafetyTimerLocked()
	timer := s.clk.NewTimer(interval)
	s.safetyTimer = timer
	s.mu.Unlock()
	go s.waitSafety(timer, interval)
}

func (s *scheduler) waitSafety(t clock.Timer, interval time.Duration) {
	select {
	case <-t.C():
		s.MarkDirty()
		s.armSafetyTick(interval)
	case <-s.ctx.Done():
	}
}
