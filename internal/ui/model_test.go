package ui

import (
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaxITService/OneClickPrompts-sub000/internal/broadcastbus"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/clock"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/configstore"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/domain/profile"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/estimator"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/infrastructure/kvstore"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/keys"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/siteadapter"
	_ "github.com/MaxITService/OneClickPrompts-sub000/internal/siteadapter/sites"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/tokenmodel"
)

func newTestModel(t *testing.T) (*Model, *configstore.Store) {
	t.Helper()
	db, err := kvstore.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bus := broadcastbus.New()
	t.Cleanup(bus.Close)
	store := configstore.New(db.Repository(), bus, func() int64 { return 1 })

	p, err := store.GetConfig()
	require.NoError(t, err)

	registry := tokenmodel.NewDefaultRegistry()
	worker := estimator.New(registry, estimator.WithRunInline(true))
	t.Cleanup(worker.Close)

	m, err := New(store, bus, clock.NewFake(time.Unix(0, 0)), siteadapter.SiteChatGPT, p, worker, profile.DefaultTokenApproximatorSettings(), registry)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m, store
}

func TestNew_BuildsModelForRegisteredSite(t *testing.T) {
	m, _ := newTestModel(t)
	assert.Equal(t, siteadapter.SiteChatGPT, m.activeSite)
	assert.Equal(t, "Default", m.activeProf.Name)
}

func TestHandleKey_AddEnqueuesItem(t *testing.T) {
	m, _ := newTestModel(t)
	_, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys.Queue.Add.Keys()[0])})
	assert.Equal(t, 1, m.scheduler.Snapshot().Size)
}

func TestHandleKey_HelpTogglesShowHelp(t *testing.T) {
	m, _ := newTestModel(t)
	require.False(t, m.showHelp)
	_, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys.Common.Help.Keys()[0])})
	assert.True(t, m.showHelp)
}

func TestHandleKey_QuitReturnsQuitCmd(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys.Common.Quit.Keys()[0])})
	require.NotNil(t, cmd)
	msg := cmd()
	assert.IsType(t, tea.QuitMsg{}, msg)
}

func TestView_RendersQueueAndProfileName(t *testing.T) {
	m, _ := newTestModel(t)
	out := m.View()
	assert.Contains(t, out, "Prompt Queue")
	assert.Contains(t, out, "profile=Default")
}

func TestView_ShowHelpIncludesModelMetadata(t *testing.T) {
	m, _ := newTestModel(t)
	m.showHelp = true
	out := m.View()
	assert.NotEmpty(t, out)
	modelHelp := m.renderModelHelp()
	require.NotEmpty(t, modelHelp)
	assert.Contains(t, out, modelHelp)
}

func TestProfileChangedMessage_RefreshesActiveProfileWhenNotExcluded(t *testing.T) {
	m, store := newTestModel(t)

	updated := profile.Default()
	updated.EnableQueueMode = true
	require.NoError(t, store.SaveConfig("Default", updated, broadcastbus.OriginPanel, "other-tab"))

	newModel, _ := m.Update(broadcastbus.ProfileChangedMessage{ProfileName: "Default", Origin: broadcastbus.OriginPanel})
	m2 := newModel.(*Model)
	assert.True(t, m2.activeProf.EnableQueueMode)
}
