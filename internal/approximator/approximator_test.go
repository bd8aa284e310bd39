package approximator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaxITService/OneClickPrompts-sub000/internal/clock"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/domain/profile"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/estimator"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/tokenmodel"
)

func TestFormat_UnderThousand_RoundsUpToNextHundred(t *testing.T) {
	assert.Equal(t, "<100", Format(1))
	assert.Equal(t, "<100", Format(100))
	assert.Equal(t, "<200", Format(101))
	assert.Equal(t, "<0", Format(0))
}

func TestFormat_AtOrAboveThousand_RoundsUpToNextK(t *testing.T) {
	assert.Equal(t, "1k", Format(1000))
	assert.Equal(t, "2k", Format(1001))
	assert.Equal(t, "13k", Format(12001))
}

func waitForChip(t *testing.T, a *TokenApproximator, kind ChipKind, status ChipStatus, timeout time.Duration) Chip {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		thread, editor := a.Chips()
		c := thread
		if kind == ChipEditor {
			c = editor
		}
		if c.Status == status {
			return c
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s chip to reach status %s", kind, status)
	return Chip{}
}

func newTestApproximator(t *testing.T, settings profile.TokenApproximatorSettings) (*TokenApproximator, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Unix(0, 0))
	registry := tokenmodel.NewDefaultRegistry()
	worker := estimator.New(registry)
	t.Cleanup(worker.Close)

	threadSource := TextSourceFunc(func() estimator.Texts {
		return estimator.Texts{All: "hello world this is the thread", ThreadOnly: "hello world", EditorsOnly: ""}
	})
	editorSource := TextSourceFunc(func() estimator.Texts {
		return estimator.Texts{EditorsOnly: "draft text in the editor box"}
	})

	a := New(clk, worker, settings, threadSource, editorSource, nil)
	t.Cleanup(a.Close)
	return a, clk
}

func TestTokenApproximator_MarkDirtyThenRunNow_ProducesFreshChip(t *testing.T) {
	settings := profile.DefaultTokenApproximatorSettings()
	settings.Enabled = true
	a, _ := newTestApproximator(t, settings)

	a.NotifyThreadMutation()
	a.RunNow(ChipThread)

	chip := waitForChip(t, a, ChipThread, StatusFresh, time.Second)
	assert.NotEmpty(t, chip.Value)
}

func TestTokenApproximator_Disabled_IgnoresNotifications(t *testing.T) {
	settings := profile.DefaultTokenApproximatorSettings()
	settings.Enabled = false
	a, _ := newTestApproximator(t, settings)

	a.NotifyThreadMutation()
	thread, _ := a.Chips()
	assert.Equal(t, StatusFresh, thread.Status)
	assert.Equal(t, Format(0), thread.Value)
}

func TestTokenApproximator_SetVisibleFalse_PausesChips(t *testing.T) {
	settings := profile.DefaultTokenApproximatorSettings()
	settings.Enabled = true
	a, _ := newTestApproximator(t, settings)

	a.SetVisible(false)
	thread, editor := a.Chips()
	assert.Equal(t, StatusPaused, thread.Status)
	assert.Equal(t, StatusPaused, editor.Status)
}

func TestTokenApproximator_ForceRefresh_BypassesCooldown(t *testing.T) {
	settings := profile.DefaultTokenApproximatorSettings()
	settings.Enabled = true
	a, _ := newTestApproximator(t, settings)

	a.ForceRefresh(ChipEditor)
	waitForChip(t, a, ChipEditor, StatusFresh, time.Second)

	// A second ForceRefresh should also succeed immediately despite the
	// 600ms editor cooldown not having elapsed.
	a.ForceRefresh(ChipEditor)
	waitForChip(t, a, ChipEditor, StatusFresh, time.Second)
}

func TestTooltip_SelectsPrefixByThreadModeAndStatus(t *testing.T) {
	withEditors := Tooltip(ChipThread, profile.ThreadModeWithEditors, StatusFresh)
	require.Contains(t, withEditors, "with editors")
	require.Contains(t, withEditors, TooltipUpdatedNow)

	threadOnly := Tooltip(ChipThread, profile.ThreadModeIgnoreEditors, StatusStale)
	require.Contains(t, threadOnly, "thread only")
	require.Contains(t, threadOnly, TooltipStale)

	editor := Tooltip(ChipEditor, profile.ThreadModeWithEditors, StatusPaused)
	require.Equal(t, "Editor tokens — paused while tab inactive", editor)
}
