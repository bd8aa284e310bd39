package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaxITService/OneClickPrompts-sub000/internal/domain/profile"
)

func TestMarshalUnmarshalProfile_RoundTrips(t *testing.T) {
	p := profile.Default()
	p.Name = "Work"
	p.EnableQueueMode = true
	p.QueueDelayMinutes = 10

	data, err := MarshalProfile(p)
	require.NoError(t, err)

	got, err := UnmarshalProfile(data)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestUnmarshalProfile_NormalizesMissingFields(t *testing.T) {
	got, err := UnmarshalProfile([]byte("name: Bare\n"))
	require.NoError(t, err)
	assert.Equal(t, profile.DefaultDelayMinutes, got.QueueDelayMinutes)
	assert.Equal(t, profile.DelayUnitMinutes, got.QueueDelayUnit)
	assert.NotNil(t, got.CustomButtons)
}

func TestProfilesEqual(t *testing.T) {
	a := profile.Default()
	b := profile.Default()
	eq, err := ProfilesEqual(a, b)
	require.NoError(t, err)
	assert.True(t, eq)

	b.QueueDelayMinutes = 9
	eq, err = ProfilesEqual(a, b)
	require.NoError(t, err)
	assert.False(t, eq)
}

func TestSaveLoadProfileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	p := profile.Default()
	p.Name = "Exported"

	require.NoError(t, SaveProfileFile(path, p))

	got, err := LoadProfileFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Exported", got.Name)
}

func TestSaveProfileFile_PreservesHeadComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	initial := "# keep me\nname: Original\n"
	require.NoError(t, os.WriteFile(path, []byte(initial), 0o600))

	p := profile.Default()
	p.Name = "Updated"
	require.NoError(t, SaveProfileFile(path, p))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "keep me")
	assert.Contains(t, string(data), "Updated")
}

func TestSaveProfileFile_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "profile.yaml")
	require.NoError(t, SaveProfileFile(path, profile.Default()))

	_, err := os.Stat(path)
	require.NoError(t, err)
}
