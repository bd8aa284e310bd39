package approximator

import (
	"time"

	"github.com/MaxITService/OneClickPrompts-sub000/internal/clock"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/domain/profile"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/estimator"
)

// TooltipStatus captures the per-chip phrase shown alongside its status
// prefix (spec §6 "Token chip tooltip").
const (
	TooltipCalculating = "calculating…"
	TooltipUpdatedNow  = "updated just now"
	TooltipStale       = "stale — click to re-estimate"
	TooltipPaused      = "paused while tab inactive"
)

// TooltipPrefix returns the prefix string for a chip (spec §6), selecting
// between the thread chip's two variants by threadMode.
func TooltipPrefix(kind ChipKind, mode profile.ThreadMode) string {
	if kind == ChipEditor {
		return "Editor tokens"
	}
	if mode == profile.ThreadModeIgnoreEditors {
		return "Whole-thread tokens (thread only)"
	}
	return "Whole-thread tokens (with editors)"
}

// Tooltip formats the full tooltip string: "{prefix} — {status}{cta}".
func Tooltip(kind ChipKind, mode profile.ThreadMode, status ChipStatus) string {
	prefix := TooltipPrefix(kind, mode)
	var phrase string
	switch status {
	case StatusLoading:
		phrase = TooltipCalculating
	case StatusFresh:
		phrase = TooltipUpdatedNow
	case StatusStale:
		phrase = TooltipStale
	case StatusPaused:
		phrase = TooltipPaused
	}
	return prefix + " — " + phrase
}

// TokenApproximator is the per-page component from spec §4.6: two
// independent cooldown-debounced schedulers sharing one clock, gated by an
// Enabled setting and a page-visibility signal.
type TokenApproximator struct {
	enabled bool
	mode    profile.ThreadMode
	thread  *scheduler
	editor  *scheduler
}

// New constructs a TokenApproximator. threadSource/editorSource supply the
// text snapshots each scheduler reads (spec §4.6: editors may be excluded
// from thread text depending on threadMode). onChip is invoked (off the
// caller's goroutine) whenever either chip's state changes.
func New(clk clock.Clock, worker *estimator.Worker, settings profile.TokenApproximatorSettings, threadSource, editorSource TextSource, onChip func(Chip)) *TokenApproximator {
	threadCfg := Config{
		Cooldown:       DefaultThreadCooldown,
		StaleAfter:     time.Duration(settings.ThreadStaleMs) * time.Millisecond,
		Scale:          settings.Scale,
		CountingMethod: settings.CountingMethod,
		ThreadMode:     settings.ThreadMode,
	}
	editorCfg := Config{
		Cooldown:       DefaultEditorCooldown,
		StaleAfter:     time.Duration(settings.EditorStaleMs) * time.Millisecond,
		Scale:          settings.Scale,
		CountingMethod: settings.CountingMethod,
	}
	a := &TokenApproximator{
		enabled: settings.Enabled,
		mode:    settings.ThreadMode,
		thread:  newScheduler(ChipThread, clk, worker, threadSource, threadCfg, onChip),
		editor:  newScheduler(ChipEditor, clk, worker, editorSource, editorCfg, onChip),
	}
	if a.enabled {
		a.thread.armSafetyTick(DefaultSafetyTick)
	}
	return a
}

// Close stops both schedulers' background goroutines and timers.
func (a *TokenApproximator) Close() {
	a.thread.Close()
	a.editor.Close()
}

// Enabled reports whether the approximator is gated on (spec §4.6 "gated
// by enabled").
func (a *TokenApproximator) Enabled() bool { return a.enabled }

// NotifyThreadMutation marks the thread scheduler dirty: a DOM mutation,
// scroll, or visibility change on the thread occurred (spec §4.6).
func (a *TokenApproximator) NotifyThreadMutation() {
	if !a.enabled {
		return
	}
	a.thread.MarkDirty()
}

// NotifyEditorInput marks the editor scheduler dirty: an input event fired
// on an editable element (spec §4.6).
func (a *TokenApproximator) NotifyEditorInput() {
	if !a.enabled {
		return
	}
	a.editor.MarkDirty()
}

// SetVisible propagates a document.visibilityState change to both
// schedulers (spec §4.6 "Pauses while visibilityState !== 'visible'").
func (a *TokenApproximator) SetVisible(visible bool) {
	a.thread.SetVisible(visible)
	a.editor.SetVisible(visible)
}

// ForceRefresh bypasses the cooldown of the scheduler named by kind, used
// only for a direct chip click (spec §4.6 forceNow).
func (a *TokenApproximator) ForceRefresh(kind ChipKind) {
	switch kind {
	case ChipThread:
		a.thread.ForceNow()
	case ChipEditor:
		a.editor.ForceNow()
	}
}

// RunNow runs a scheduler's tick if dirty and cooldown has elapsed.
func (a *TokenApproximator) RunNow(kind ChipKind) {
	switch kind {
	case ChipThread:
		a.thread.RunNow()
	case ChipEditor:
		a.editor.RunNow()
	}
}

// Chips returns the current thread and editor chip snapshots.
func (a *TokenApproximator) Chips() (thread, editor Chip) {
	return a.thread.Chip(), a.editor.Chip()
}

// ThreadMode returns the configured thread-text mode, for tooltip
// formatting by a host UI.
func (a *TokenApproximator) ThreadMode() profile.ThreadMode { return a.mode }
