// Package configstore implements the ConfigStore contract from spec §4.1:
// persisting profiles and global settings, broadcasting profile changes,
// and running the one-shot legacy-namespace migration.
package configstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/MaxITService/OneClickPrompts-sub000/internal/broadcastbus"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/config"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/domain/profile"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/infrastructure/kvstore"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/log"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/orchestration/tracing"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/watcher"
)

const (
	keyActiveProfile    = "activeProfile"
	keyProfilePrefix    = "profile:"
	keyGlobalSettings   = "globalSettings"
	keyMigrationComplete = "migrationComplete"
	defaultProfileName   = "Default"
)

// ErrCannotDeleteDefault is returned by DeleteProfile when asked to remove
// the Default profile.
var ErrCannotDeleteDefault = errors.New("configstore: cannot delete the Default profile")

// Store implements the ConfigStore contract over a kvstore.Store, emitting
// profileChanged events on a broadcastbus.Bus.
type Store struct {
	mu   sync.Mutex
	kv   *kvstore.Store
	bus  *broadcastbus.Bus
	now  func() int64
	// legacy, when set, is consulted by MigrateLegacy for the one-shot
	// cross-device-namespace migration (spec §4.1).
	legacy LegacySource
}

// LegacySource is the cross-device storage namespace ConfigStore migrates
// out of exactly once. It stands in for a browser extension's
// chrome.storage.sync area.
type LegacySource interface {
	ReadProfile(name string) (profile.Profile, bool, error)
	ReadAllProfileNames() ([]string, error)
	Clear() error
}

// New creates a Store backed by kv, broadcasting through bus. now supplies
// the updated_at timestamp for writes (injected for deterministic tests).
func New(kv *kvstore.Store, bus *broadcastbus.Bus, now func() int64) *Store {
	return &Store{kv: kv, bus: bus, now: now}
}

// SetLegacySource installs the legacy namespace MigrateLegacy reads from.
func (s *Store) SetLegacySource(src LegacySource) { s.legacy = src }

// WatchExternal starts watching dbPath (the sqlite file backing this
// store's kvstore.Store) for out-of-process writes — another process editing
// the same file, the Go analogue of chrome.storage.onChanged firing for an
// edit this tab didn't make — and re-broadcasts profileChanged to every tab
// once a debounced change settles. Returns a stop function; callers should
// defer it alongside the store's own Close.
func (s *Store) WatchExternal(dbPath string) (stop func() error, err error) {
	w, err := watcher.New(watcher.DefaultConfig(dbPath))
	if err != nil {
		return nil, fmt.Errorf("configstore: start external watcher: %w", err)
	}
	changes, err := w.Start()
	if err != nil {
		return nil, fmt.Errorf("configstore: watch %s: %w", dbPath, err)
	}
	done := make(chan struct{})
	go func() {
		for {
			select {
			case _, ok := <-changes:
				if !ok {
					return
				}
				s.notifyExternalChange()
			case <-done:
				return
			}
		}
	}()
	return func() error {
		close(done)
		return w.Stop()
	}, nil
}

// notifyExternalChange re-reads the active profile and broadcasts it
// as a profileChanged event with no excluded tab, since the edit's
// originating tab (if any) is outside this process. It acquires s.mu
// itself rather than expecting the caller to hold it.
func (s *Store) notifyExternalChange() {
	s.mu.Lock()
	name, err := s.activeNameLocked()
	s.mu.Unlock()
	if err != nil {
		log.ErrorErr(log.CatConfig, "external change notification: failed to read active profile", err)
		return
	}
	if s.bus != nil {
		log.Info(log.CatConfig, "external profile change detected, broadcasting", "profile", name)
		s.bus.Broadcast(broadcastbus.ProfileChangedMessage{ProfileName: name, Origin: broadcastbus.OriginPanel}, "")
	}
}

// GetConfig returns the active profile, normalized per spec §4.1's default
// rules. If no active profile has ever been set, it creates and returns
// Default.
func (s *Store) GetConfig() (profile.Profile, error) {
	_, span := tracing.Tracer().Start(context.Background(), tracing.SpanConfigStoreLoad,
		oteltrace.WithAttributes(attribute.String(tracing.AttrConfigKey, keyActiveProfile)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.getActiveLocked()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return p, err
	}
	span.SetAttributes(attribute.String(tracing.AttrConfigProfileID, p.Name))
	return p, nil
}

func (s *Store) getActiveLocked() (profile.Profile, error) {
	name, err := s.activeNameLocked()
	if err != nil {
		return profile.Profile{}, err
	}
	return s.readProfileLocked(name)
}

func (s *Store) activeNameLocked() (string, error) {
	raw, err := s.kv.Get(keyActiveProfile)
	if errors.Is(err, kvstore.ErrNotFound) {
		if _, err := s.createDefaultProfileLocked(); err != nil {
			return "", err
		}
		if err := s.kv.Set(keyActiveProfile, []byte(defaultProfileName), s.now()); err != nil {
			return "", err
		}
		return defaultProfileName, nil
	}
	if err != nil {
		return "", fmt.Errorf("configstore: read active profile: %w", err)
	}
	return string(raw), nil
}

func (s *Store) readProfileLocked(name string) (profile.Profile, error) {
	raw, err := s.kv.Get(keyProfilePrefix + name)
	if errors.Is(err, kvstore.ErrNotFound) {
		return s.createDefaultProfileLocked()
	}
	if err != nil {
		log.ErrorErr(log.CatConfig, "failed to read profile", err, "profile", name)
		return profile.Profile{}, fmt.Errorf("configstore: read profile %q: %w", name, err)
	}
	return config.UnmarshalProfile(raw)
}

// SaveConfig stores config under profileName. If profileName is the active
// profile and the serialized value differs from what was stored, a
// profileChanged event is broadcast with origins inline and panel (spec
// §4.1 names both; this emits one event per call tagged with the caller's
// origin, since a single save always originates from exactly one surface).
func (s *Store) SaveConfig(profileName string, cfg profile.Profile, origin broadcastbus.Origin, tabID string) error {
	_, span := tracing.Tracer().Start(context.Background(), tracing.SpanConfigStoreSave,
		oteltrace.WithAttributes(attribute.String(tracing.AttrConfigProfileID, profileName)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg.Name = profileName
	cfg = profile.Normalize(cfg)

	previous, err := s.readProfileLocked(profileName)
	changed := true
	hadPrevious := err == nil
	if hadPrevious {
		if eq, eqErr := config.ProfilesEqual(previous, cfg); eqErr == nil {
			changed = !eq
		}
	}
	if hadPrevious && changed {
		if diff, diffErr := DiffProfiles(previous, cfg); diffErr == nil {
			log.Debug(log.CatConfig, "profile save changed fields", "profile", profileName, "diff", diff)
		}
		span.AddEvent(tracing.EventConfigSaved)
	}

	data, err := config.MarshalProfile(cfg)
	if err != nil {
		return err
	}
	if err := s.kv.Set(keyProfilePrefix+profileName, data, s.now()); err != nil {
		if errors.Is(err, kvstore.ErrStorageQuota) {
			log.Error(log.CatConfig, "storage quota exceeded saving profile", "profile", profileName)
		} else {
			log.ErrorErr(log.CatConfig, "failed to save profile", err, "profile", profileName)
		}
		return err
	}

	activeName, err := s.activeNameLocked()
	if err != nil {
		return err
	}
	if changed && activeName == profileName && s.bus != nil {
		s.bus.Broadcast(broadcastbus.ProfileChangedMessage{ProfileName: profileName, Origin: origin}, tabID)
	}
	return nil
}

// SwitchProfile sets the active profile and broadcasts profileChanged to
// every tab but excludeTabID. Switching to a profile that was never stored
// fails, except for Default, which is created on demand.
func (s *Store) SwitchProfile(profileName string, excludeTabID string, origin broadcastbus.Origin) (profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if profileName != defaultProfileName {
		if _, err := s.kv.Get(keyProfilePrefix + profileName); errors.Is(err, kvstore.ErrNotFound) {
			return profile.Profile{}, fmt.Errorf("configstore: unknown profile %q: %w", profileName, err)
		}
	}

	p, err := s.readProfileLocked(profileName)
	if err != nil {
		return profile.Profile{}, err
	}
	if err := s.kv.Set(keyActiveProfile, []byte(profileName), s.now()); err != nil {
		return profile.Profile{}, err
	}
	if s.bus != nil {
		s.bus.Broadcast(broadcastbus.ProfileChangedMessage{ProfileName: profileName, Origin: origin}, excludeTabID)
	}
	return p, nil
}

// CreateDefaultProfile loads the canonical default profile, stores it as
// Default, and returns it.
func (s *Store) CreateDefaultProfile() (profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createDefaultProfileLocked()
}

func (s *Store) createDefaultProfileLocked() (profile.Profile, error) {
	p := profile.Default()
	data, err := config.MarshalProfile(p)
	if err != nil {
		return profile.Profile{}, err
	}
	if err := s.kv.Set(keyProfilePrefix+defaultProfileName, data, s.now()); err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

// DeleteProfile removes a profile. Deleting Default fails with
// ErrCannotDeleteDefault. Deleting the active profile switches to Default
// first.
func (s *Store) DeleteProfile(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == defaultProfileName {
		return ErrCannotDeleteDefault
	}

	activeName, err := s.activeNameLocked()
	if err != nil {
		return err
	}
	if activeName == name {
		if err := s.kv.Set(keyActiveProfile, []byte(defaultProfileName), s.now()); err != nil {
			return err
		}
	}
	return s.kv.Delete(keyProfilePrefix + name)
}

// ListProfiles returns every stored profile's name.
func (s *Store) ListProfiles() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.kv.ListKeys(keyProfilePrefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k[len(keyProfilePrefix):]
	}
	return names, nil
}

// GetGlobalSettings returns the single shared GlobalSettings record,
// creating defaults on first access.
func (s *Store) GetGlobalSettings() (profile.GlobalSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.kv.Get(keyGlobalSettings)
	if errors.Is(err, kvstore.ErrNotFound) {
		defaults := profile.DefaultGlobalSettings()
		data, mErr := config.MarshalGlobalSettings(defaults)
		if mErr != nil {
			return profile.GlobalSettings{}, mErr
		}
		if err := s.kv.Set(keyGlobalSettings, data, s.now()); err != nil {
			return profile.GlobalSettings{}, err
		}
		return defaults, nil
	}
	if err != nil {
		return profile.GlobalSettings{}, fmt.Errorf("configstore: read global settings: %w", err)
	}
	return config.UnmarshalGlobalSettings(raw)
}

// SaveGlobalSettings persists the shared GlobalSettings record.
func (s *Store) SaveGlobalSettings(settings profile.GlobalSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := config.MarshalGlobalSettings(settings)
	if err != nil {
		return err
	}
	return s.kv.Set(keyGlobalSettings, data, s.now())
}

// MigrateLegacy runs the one-shot migration from LegacySource into this
// store. It is gated by migrationComplete and verifies full equality with
// the legacy copy before clearing the source, per spec §4.1's "clearing
// source without successful verification is forbidden."
func (s *Store) MigrateLegacy() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.legacy == nil {
		return nil
	}
	if _, err := s.kv.Get(keyMigrationComplete); err == nil {
		return nil // already migrated
	}

	names, err := s.legacy.ReadAllProfileNames()
	if err != nil {
		log.ErrorErr(log.CatMigration, "failed to enumerate legacy profiles", err)
		return fmt.Errorf("configstore: enumerate legacy profiles: %w", err)
	}

	for _, name := range names {
		legacyProfile, ok, err := s.legacy.ReadProfile(name)
		if err != nil {
			return fmt.Errorf("configstore: read legacy profile %q: %w", name, err)
		}
		if !ok {
			continue
		}
		data, err := config.MarshalProfile(legacyProfile)
		if err != nil {
			return err
		}
		if err := s.kv.Set(keyProfilePrefix+name, data, s.now()); err != nil {
			return err
		}
	}

	if err := s.verifyMigrationLocked(names); err != nil {
		log.ErrorErr(log.CatMigration, "legacy migration verification failed, leaving source intact", err)
		return err
	}

	if err := s.legacy.Clear(); err != nil {
		return fmt.Errorf("configstore: clear legacy source: %w", err)
	}
	if err := s.kv.Set(keyMigrationComplete, []byte("true"), s.now()); err != nil {
		return err
	}
	log.Info(log.CatMigration, "legacy storage migration complete", "profiles", len(names))
	return nil
}

func (s *Store) verifyMigrationLocked(names []string) error {
	for _, name := range names {
		legacyProfile, ok, err := s.legacy.ReadProfile(name)
		if err != nil || !ok {
			continue
		}
		migrated, err := s.readProfileLocked(name)
		if err != nil {
			return fmt.Errorf("configstore: verify profile %q: %w", name, err)
		}
		eq, err := config.ProfilesEqual(legacyProfile, migrated)
		if err != nil {
			return err
		}
		if !eq {
			return fmt.Errorf("configstore: migrated profile %q does not match legacy source", name)
		}
	}
	return nil
}

// DiffProfiles returns a human-readable unified diff between two profiles'
// serialized forms, used by debug logging (CatConfig) to show exactly what
// a save changed.
func DiffProfiles(a, b profile.Profile) (string, error) {
	aBytes, err := config.MarshalProfile(a)
	if err != nil {
		return "", err
	}
	bBytes, err := config.MarshalProfile(b)
	if err != nil {
		return "", err
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(aBytes), string(bBytes), false)
	return dmp.DiffPrettyText(diffs), nil
}
