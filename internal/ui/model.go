// Package ui is the minimal terminal host standing in for the injected
// page overlay: a queue item count, a dispatch progress bar, the token chip
// pair, keybinding and model help, and a toast line for enqueue errors.
// Built in bubbletea's Model/Update/View idiom, the same shape the
// teacher's own TUI uses. There is no per-item queue list and no profile
// switcher, dispatch failures (selector-missing/adapter-blocked) are not
// shown as toasts, and the reorder, chip-cycle, site-switch and profile
// keys listed in the help have no handler.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/MaxITService/OneClickPrompts-sub000/internal/approximator"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/broadcastbus"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/clock"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/configstore"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/domain/profile"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/domain/queueitem"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/estimator"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/keys"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/orchestration/queue"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/orchestration/queue/automation"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/siteadapter"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/tokenmodel"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/ui/chip"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/ui/help"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	toastStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	chipStyle    = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())
	pausedChip   = chipStyle.Foreground(lipgloss.Color("240"))
	freshChip    = chipStyle.Foreground(lipgloss.Color("86"))
	staleChip    = chipStyle.Foreground(lipgloss.Color("214"))
	loadingChip  = chipStyle.Foreground(lipgloss.Color("63"))
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Model is the root bubbletea model for `cmd run`.
type Model struct {
	store      *configstore.Store
	bus        *broadcastbus.Bus
	scheduler  *queue.Scheduler
	approx     *approximator.TokenApproximator
	models     *tokenmodel.Registry
	clk        clock.Clock
	tabID      string
	activeSite siteadapter.Site
	activeProf profile.Profile

	selected int
	toast    string
	width    int
	height   int
	showHelp bool

	progress *chip.Spring
	lastSize int
}

// New constructs the root model. site selects which simulated adapter
// backs the scheduler; p is the profile driving delay/automation config.
func New(store *configstore.Store, bus *broadcastbus.Bus, clk clock.Clock, site siteadapter.Site, p profile.Profile, worker *estimator.Worker, settings profile.TokenApproximatorSettings, models *tokenmodel.Registry) (*Model, error) {
	adapter, err := siteadapter.New(site)
	if err != nil {
		return nil, err
	}
	model := queueitem.New()
	sched := queue.New(model, clk, adapter,
		queue.DelayConfigFromProfile(p),
		queue.TogglesFromProfile(p),
		queue.WithAutomationRunner(automation.NoopRunner{}),
	)

	m := &Model{
		store:      store,
		bus:        bus,
		scheduler:  sched,
		models:     models,
		clk:        clk,
		tabID:      "tui-tab",
		activeSite: site,
		activeProf: p,
		progress:   chip.NewSpring(10),
	}

	threadSource := approximator.TextSourceFunc(func() estimator.Texts {
		return m.snapshotTexts()
	})
	editorSource := approximator.TextSourceFunc(func() estimator.Texts {
		return estimator.Texts{}
	})
	m.approx = approximator.New(clk, worker, settings, threadSource, editorSource, nil)

	return m, nil
}

func (m *Model) snapshotTexts() estimator.Texts {
	snap := m.scheduler.Snapshot()
	var b strings.Builder
	fmt.Fprintf(&b, "%d items queued", snap.Size)
	return estimator.Texts{All: b.String(), ThreadOnly: b.String()}
}

// Init starts the tick loop and subscribes to profileChanged broadcasts.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.subscribeProfileChanges())
}

func (m *Model) subscribeProfileChanges() tea.Cmd {
	ch := m.bus.Subscribe(context.Background(), m.tabID)
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return nil
		}
		return evt.Payload
	}
}

// Update handles bubbletea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tickMsg:
		snap := m.scheduler.Snapshot()
		if snap.Size < m.lastSize {
			m.progress.Set(0)
		}
		m.lastSize = snap.Size
		target := 0.0
		if snap.Running {
			target = 1.0
		}
		m.progress.Step(target)
		return m, tick()

	case broadcastbus.ProfileChangedMessage:
		if broadcastbus.ShouldHandle(msg, m.tabID) {
			if p, err := m.store.GetConfig(); err == nil {
				m.activeProf = p
				m.scheduler.UpdateConfig(queue.DelayConfigFromProfile(p), queue.TogglesFromProfile(p))
				m.scheduler.RecalculateRunningTimer()
			}
		}
		return m, m.subscribeProfileChanges()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key(msg, keys.Common.Quit):
		return m, tea.Quit
	case key(msg, keys.Common.Help):
		m.showHelp = !m.showHelp
		return m, nil
	case key(msg, keys.Common.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	case key(msg, keys.Common.Down):
		m.selected++
		return m, nil
	case key(msg, keys.Queue.Toggle):
		snap := m.scheduler.Snapshot()
		if snap.Running {
			m.scheduler.Pause()
		} else {
			m.scheduler.Start()
		}
		return m, nil
	case key(msg, keys.Queue.Skip):
		m.scheduler.Skip()
		return m, nil
	case key(msg, keys.Queue.Reset):
		m.scheduler.Reset()
		return m, nil
	case key(msg, keys.Queue.SeekLeft):
		m.scheduler.SeekToRatio(0.75)
		return m, nil
	case key(msg, keys.Queue.SeekRight):
		m.scheduler.SeekToRatio(0.25)
		return m, nil
	case key(msg, keys.Queue.Add):
		if _, err := m.scheduler.Enqueue("💬", "queued prompt text", true); err != nil {
			m.toast = err.Error()
		}
		return m, nil
	case key(msg, keys.Queue.Remove):
		m.scheduler.RemoveAt(m.selected)
		return m, nil
	case key(msg, keys.Queue.ForceChip):
		m.approx.ForceRefresh(approximator.ChipThread)
		return m, nil
	}
	return m, nil
}

func key(msg tea.KeyMsg, b keybindingLike) bool {
	for _, k := range b.Keys() {
		if msg.String() == k {
			return true
		}
	}
	return false
}

// keybindingLike narrows key.Binding to the Keys() accessor, so handleKey
// stays decoupled from the bubbles/key import here.
type keybindingLike interface {
	Keys() []string
}

// View renders the full screen.
func (m *Model) View() string {
	snap := m.scheduler.Snapshot()
	thread, editor := m.approx.Chips()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Prompt Queue") + "  ")
	b.WriteString(dimStyle.Render(fmt.Sprintf("site=%s profile=%s", m.activeSite, m.activeProf.Name)))
	b.WriteString("\n\n")

	b.WriteString(headStyle.Render(fmt.Sprintf("Queue (%d items)", snap.Size)))
	b.WriteString("\n")
	if snap.Size == 0 {
		b.WriteString(dimStyle.Render("  (empty)"))
	}
	b.WriteString("\n\n")

	status := "paused"
	if snap.Running {
		status = "running"
	}
	if snap.Finished {
		status = "finished"
	}
	b.WriteString(fmt.Sprintf("status: %s  remaining: %dms\n", status, snap.RemainingOnPauseMs))
	b.WriteString(dimStyle.Render("[" + chip.ProgressBar(24, m.progress.Pos()) + "]"))
	b.WriteString("\n\n")

	b.WriteString(renderChip("thread", thread) + "  " + renderChip("editor", editor))
	b.WriteString("\n\n")

	if m.toast != "" {
		b.WriteString(toastStyle.Render("! " + m.toast))
		b.WriteString("\n\n")
	}

	if m.showHelp {
		b.WriteString(renderHelp())
		b.WriteString(m.renderModelHelp())
	} else {
		b.WriteString(helpStyle.Render("? for help"))
	}

	return zone.Scan(b.String())
}

// renderModelHelp glamour-renders the registry default model's markdown
// description, shown alongside the keybinding table (spec §4.7 metadata,
// surfaced here instead of a settings page per §1's scoping). The
// profile's selected counting method is not consulted.
func (m *Model) renderModelHelp() string {
	width := m.width
	if width <= 0 {
		width = 72
	}
	renderer, err := help.New(width)
	if err != nil {
		return ""
	}
	model, ok := m.models.GetDefaultModel()
	if !ok {
		return ""
	}
	out, err := renderer.RenderModel(model.GetMetadata())
	if err != nil {
		return ""
	}
	return out
}

func renderChip(label string, c approximator.Chip) string {
	style := pausedChip
	switch c.Status {
	case approximator.StatusFresh:
		style = freshChip
	case approximator.StatusStale:
		style = staleChip
	case approximator.StatusLoading:
		style = loadingChip
	}
	return style.Render(fmt.Sprintf("%s: %s", label, c.Value))
}

func renderHelp() string {
	var b strings.Builder
	for _, row := range keys.FullHelp() {
		parts := make([]string, 0, len(row))
		for _, bnd := range row {
			h := bnd.Help()
			parts = append(parts, fmt.Sprintf("%s %s", h.Key, h.Desc))
		}
		b.WriteString(strings.Join(parts, "   "))
		b.WriteString("\n")
	}
	return helpStyle.Render(b.String())
}

// Close releases the model's background resources.
func (m *Model) Close() {
	m.scheduler.Close()
	m.approx.Close()
}
