// Package automation implements the four pre-dispatch/post-dispatch side
// effects QueueScheduler runs around a send (spec §4.5): auto-scroll, beep,
// speak, and a distinct finish tone. A browser page provides the real scroll
// and audio/speech APIs; Runner is the seam that stands in for them so the
// scheduler never depends on a concrete DOM binding.
package automation

import (
	"context"
	"time"

	"github.com/MaxITService/OneClickPrompts-sub000/internal/log"
)

// Timeout bounds every individual automation call. The spec requires each
// step to be "synchronous best-effort" and not block beyond a short
// timeout; automations that exceed it are abandoned, not retried.
const Timeout = 750 * time.Millisecond

// Toggles are the four independent per-profile switches controlling which
// automations run.
type Toggles struct {
	AutoScroll bool
	Beep       bool
	Speak      bool
	FinishBeep bool
}

// Runner performs the actual page-side effects. Implementations must fail
// quietly: a Runner method returning an error only gets logged, never
// surfaced to the user and never stops dispatch.
type Runner interface {
	// Scroll scrolls every scrollable region to bottom, three times in
	// succession.
	Scroll(ctx context.Context) error
	// Beep plays the short pre-send tone.
	Beep(ctx context.Context) error
	// Speak queues the "Next item" utterance, cancelling any already queued.
	Speak(ctx context.Context, phrase string) error
	// FinishTone plays the distinct queue-completion tone.
	FinishTone(ctx context.Context) error
}

// SpokenPhrase is spoken before each dispatch when Toggles.Speak is set.
const SpokenPhrase = "Next item"

// RunPreDispatch runs auto-scroll, beep, and speak in that order, each
// individually timed out and fail-quiet, per spec §4.4 step 3.
func RunPreDispatch(ctx context.Context, r Runner, t Toggles) {
	if r == nil {
		return
	}
	if t.AutoScroll {
		runQuiet(ctx, "scroll", func(c context.Context) error { return r.Scroll(c) })
	}
	if t.Beep {
		runQuiet(ctx, "beep", func(c context.Context) error { return r.Beep(c) })
	}
	if t.Speak {
		runQuiet(ctx, "speak", func(c context.Context) error { return r.Speak(c, SpokenPhrase) })
	}
}

// RunFinish plays the finish tone when the queue has run to completion and
// Toggles.FinishBeep is set.
func RunFinish(ctx context.Context, r Runner, t Toggles) {
	if r == nil || !t.FinishBeep {
		return
	}
	runQuiet(ctx, "finish-tone", func(c context.Context) error { return r.FinishTone(c) })
}

func runQuiet(ctx context.Context, name string, fn func(context.Context) error) {
	callCtx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(callCtx) }()

	select {
	case err := <-done:
		if err != nil {
			log.Warn(log.CatAutomation, "automation step failed", "step", name, "error", err.Error())
		}
	case <-callCtx.Done():
		log.Warn(log.CatAutomation, "automation step timed out", "step", name)
	}
}

// NoopRunner performs no side effects; used when no automation surface is
// wired, e.g. in headless/demo hosts.
type NoopRunner struct{}

func (NoopRunner) Scroll(context.Context) error            { return nil }
func (NoopRunner) Beep(context.Context) error               { return nil }
func (NoopRunner) Speak(context.Context, string) error       { return nil }
func (NoopRunner) FinishTone(context.Context) error          { return nil }
