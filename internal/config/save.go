package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/MaxITService/OneClickPrompts-sub000/internal/domain/profile"
)

// MarshalProfile serializes a normalized Profile to YAML bytes, the
// representation ConfigStore stores as a kvstore value.
func MarshalProfile(p profile.Profile) ([]byte, error) {
	p = profile.Normalize(p)
	out, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("config: marshal profile %q: %w", p.Name, err)
	}
	return out, nil
}

// UnmarshalProfile parses YAML bytes into a normalized Profile.
func UnmarshalProfile(data []byte) (profile.Profile, error) {
	var p profile.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return profile.Profile{}, fmt.Errorf("config: unmarshal profile: %w", err)
	}
	return profile.Normalize(p), nil
}

// MarshalGlobalSettings serializes GlobalSettings to YAML bytes.
func MarshalGlobalSettings(s profile.GlobalSettings) ([]byte, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("config: marshal global settings: %w", err)
	}
	return out, nil
}

// UnmarshalGlobalSettings parses YAML bytes into GlobalSettings.
func UnmarshalGlobalSettings(data []byte) (profile.GlobalSettings, error) {
	var s profile.GlobalSettings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return profile.GlobalSettings{}, fmt.Errorf("config: unmarshal global settings: %w", err)
	}
	return s, nil
}

// ProfilesEqual reports whether two profiles serialize identically, the
// basis for ConfigStore's change-detection before broadcasting
// profileChanged (spec §4.1).
func ProfilesEqual(a, b profile.Profile) (bool, error) {
	aBytes, err := MarshalProfile(a)
	if err != nil {
		return false, err
	}
	bBytes, err := MarshalProfile(b)
	if err != nil {
		return false, err
	}
	return string(aBytes) == string(bBytes), nil
}

// SaveProfileFile writes p to path as a standalone YAML document,
// preserving any hand-written comments already in the file by round-
// tripping through yaml.Node rather than overwriting wholesale, so a user
// may hand-annotate the file. No command in cmd/ calls it.
func SaveProfileFile(path string, p profile.Profile) error {
	p = profile.Normalize(p)

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("config: reading profile file: %w", err)
	}

	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("config: parsing profile file: %w", err)
		}
	}

	var newDoc yaml.Node
	if err := newDoc.Encode(p); err != nil {
		return fmt.Errorf("config: encoding profile: %w", err)
	}

	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{&newDoc}}
	} else if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 && doc.Content[0].Kind == yaml.MappingNode {
		mergeMappingPreservingComments(doc.Content[0], &newDoc)
	} else {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{&newDoc}}
	}

	return writeYAMLAtomic(path, &doc)
}

// LoadProfileFile reads and normalizes a Profile from a standalone YAML
// file written by SaveProfileFile.
func LoadProfileFile(path string) (profile.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("config: reading profile file: %w", err)
	}
	return UnmarshalProfile(data)
}

// mergeMappingPreservingComments overwrites scalar/sequence values in dst
// from src key-by-key, keeping dst's existing HeadComment/LineComment on
// keys that survive, and appending any key present only in src.
func mergeMappingPreservingComments(dst, src *yaml.Node) {
	for i := 0; i+1 < len(src.Content); i += 2 {
		key := src.Content[i].Value
		val := src.Content[i+1]

		found := false
		for j := 0; j+1 < len(dst.Content); j += 2 {
			if dst.Content[j].Value == key {
				comment := dst.Content[j+1].HeadComment
				lineComment := dst.Content[j+1].LineComment
				dst.Content[j+1] = val
				dst.Content[j+1].HeadComment = comment
				dst.Content[j+1].LineComment = lineComment
				found = true
				break
			}
		}
		if !found {
			dst.Content = append(dst.Content, src.Content[i], val)
		}
	}
}

func writeYAMLAtomic(path string, doc *yaml.Node) error {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("config: marshaling profile file: %w", err)
	}
	_ = encoder.Close()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("config: creating profile directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".promptqueue.profile.tmp.*")
	if err != nil {
		return fmt.Errorf("config: creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(buf.Bytes()); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("config: writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("config: closing temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("config: renaming temp file: %w", err)
	}
	return nil
}
