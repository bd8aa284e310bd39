package configstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaxITService/OneClickPrompts-sub000/internal/broadcastbus"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/domain/profile"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/infrastructure/kvstore"
)

func newTestStore(t *testing.T) (*Store, *broadcastbus.Bus) {
	t.Helper()
	db, err := kvstore.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var tick int64
	bus := broadcastbus.New()
	t.Cleanup(bus.Close)
	return New(db.Repository(), bus, func() int64 { tick++; return tick }), bus
}

func TestGetConfig_CreatesDefaultOnFirstAccess(t *testing.T) {
	s, _ := newTestStore(t)
	p, err := s.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, "Default", p.Name)
}

func TestSaveConfig_BroadcastsWhenActiveProfileChanges(t *testing.T) {
	s, bus := newTestStore(t)
	_, err := s.GetConfig()
	require.NoError(t, err)

	ch := bus.Subscribe(t.Context(), "tab-listener")

	p := profile.Default()
	p.EnableQueueMode = true
	require.NoError(t, s.SaveConfig("Default", p, broadcastbus.OriginPanel, "tab-1"))

	select {
	case evt := <-ch:
		assert.Equal(t, "Default", evt.Payload.ProfileName)
		assert.Equal(t, "tab-1", evt.Payload.ExcludeTabID)
	default:
		t.Fatal("expected a profileChanged broadcast")
	}
}

func TestSaveConfig_NoBroadcastWhenUnchanged(t *testing.T) {
	s, bus := newTestStore(t)
	p, err := s.GetConfig()
	require.NoError(t, err)

	ch := bus.Subscribe(t.Context(), "tab-listener")
	require.NoError(t, s.SaveConfig("Default", p, broadcastbus.OriginPanel, "tab-1"))

	select {
	case <-ch:
		t.Fatal("did not expect a broadcast for an unchanged save")
	default:
	}
}

func TestDeleteProfile_RefusesDefault(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.DeleteProfile("Default")
	assert.ErrorIs(t, err, ErrCannotDeleteDefault)
}

func TestDeleteProfile_SwitchesToDefaultIfActive(t *testing.T) {
	s, _ := newTestStore(t)
	other := profile.Default()
	other.Name = "Work"
	require.NoError(t, s.SaveConfig("Work", other, broadcastbus.OriginPanel, ""))
	_, err := s.SwitchProfile("Work", "", broadcastbus.OriginPanel)
	require.NoError(t, err)

	require.NoError(t, s.DeleteProfile("Work"))

	active, err := s.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, "Default", active.Name)
}

func TestListProfiles(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.GetConfig()
	require.NoError(t, err)
	other := profile.Default()
	other.Name = "Work"
	require.NoError(t, s.SaveConfig("Work", other, broadcastbus.OriginPanel, ""))

	names, err := s.ListProfiles()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Default", "Work"}, names)
}

type fakeLegacy struct {
	profiles map[string]profile.Profile
	cleared  bool
}

func (f *fakeLegacy) ReadProfile(name string) (profile.Profile, bool, error) {
	p, ok := f.profiles[name]
	return p, ok, nil
}

func (f *fakeLegacy) ReadAllProfileNames() ([]string, error) {
	names := make([]string, 0, len(f.profiles))
	for n := range f.profiles {
		names = append(names, n)
	}
	return names, nil
}

func (f *fakeLegacy) Clear() error {
	f.cleared = true
	return nil
}

func TestMigrateLegacy_CopiesAndClearsOnSuccess(t *testing.T) {
	s, _ := newTestStore(t)
	legacy := &fakeLegacy{profiles: map[string]profile.Profile{
		"Imported": {Name: "Imported", QueueDelayMinutes: 7, QueueDelayUnit: profile.DelayUnitMinutes, QueueRandomizePercent: 5},
	}}
	s.SetLegacySource(legacy)

	require.NoError(t, s.MigrateLegacy())
	require.True(t, legacy.cleared)

	names, err := s.ListProfiles()
	require.NoError(t, err)
	assert.Contains(t, names, "Imported")
}

func TestMigrateLegacy_IsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	legacy := &fakeLegacy{profiles: map[string]profile.Profile{
		"Imported": {Name: "Imported"},
	}}
	s.SetLegacySource(legacy)

	require.NoError(t, s.MigrateLegacy())
	legacy.cleared = false
	require.NoError(t, s.MigrateLegacy())
	assert.False(t, legacy.cleared, "second run should be a no-op")
}
