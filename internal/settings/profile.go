package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile errors.
var (
	ErrProfileNameMissing = errors.New("profile has no name")
	ErrInvalidProfileName = errors.New("profile name contains invalid characters")
	ErrProfileExists      = errors.New("profile already exists")
)

// Profile is a bot profile. Only "name" is interpreted here; every other
// field is passed through to the bot application unchanged.
type Profile map[string]any

// Name returns the profile's name field.
func (p Profile) Name() string {
	name, _ := p["name"].(string)
	return name
}

var validProfileNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// Files in the working directory that are never profiles.
var reservedFiles = []string{SettingsFile, KeysFile, "package.json", "package-lock.json"}

// ParseProfile decodes a profile from YAML or JSON, chosen by the extension
// of filename.
func ParseProfile(filename string, data []byte) (Profile, error) {
	var p Profile
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filename, err)
		}
	default:
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filename, err)
		}
	}

	name := p.Name()
	if name == "" {
		return nil, ErrProfileNameMissing
	}
	if !validProfileNameRegex.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProfileName, name)
	}
	return p, nil
}

// AddProfile writes p as <name>.json. An existing profile of the same name
// is never overwritten.
func (s *Store) AddProfile(p Profile) (string, error) {
	name := p.Name()
	if name == "" {
		return "", ErrProfileNameMissing
	}
	if !validProfileNameRegex.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidProfileName, name)
	}

	file := name + ".json"
	if slices.Contains(reservedFiles, file) {
		return "", fmt.Errorf("%w: %q", ErrInvalidProfileName, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(file)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%w: %s", ErrProfileExists, name)
	}
	if err := writeJSON(path, p, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// ImportProfile reads a YAML or JSON profile from path and adds it.
func (s *Store) ImportProfile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	p, err := ParseProfile(path, data)
	if err != nil {
		return "", err
	}
	return s.AddProfile(p)
}

// Profiles returns the names of the profiles in the store directory, sorted.
// JSON files without a name field are skipped.
func (s *Store) Profiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" || slices.Contains(reservedFiles, e.Name()) {
			continue
		}
		data, err := os.ReadFile(s.Path(e.Name()))
		if err != nil {
			continue
		}
		var p Profile
		if json.Unmarshal(data, &p) != nil || p.Name() == "" {
			continue
		}
		names = append(names, p.Name())
	}
	slices.Sort(names)
	return names, nil
}
