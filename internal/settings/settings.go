// Package settings manages the JSON files the bot application reads from
// the working directory: settings.json, keys.json and bot profiles.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// File names inside the working directory.
const (
	SettingsFile = "settings.json"
	KeysFile     = "keys.json"
)

// Errors returned by Store.
var (
	ErrUnknownSetting = errors.New("unknown setting")
	ErrInvalidValue   = errors.New("invalid setting value")
)

// Defaults returns the settings the bot application assumes when
// settings.json is absent.
func Defaults() map[string]any {
	return map[string]any{
		"minecraft_version":     "1.20.4",
		"host":                  "127.0.0.1",
		"port":                  55916,
		"auth":                  "offline",
		"host_mindserver":       true,
		"mindserver_host":       "localhost",
		"mindserver_port":       8080,
		"base_profile":          "./profiles/defaults/survival.json",
		"profiles":              []string{"./andy.json"},
		"load_memory":           false,
		"init_message":          "Respond with hello world and your name",
		"only_chat_with":        []string{},
		"language":              "en",
		"show_bot_views":        false,
		"allow_insecure_coding": false,
		"code_timeout_mins":     -1,
		"relevant_docs_count":   5,
		"max_messages":          15,
		"num_examples":          2,
		"max_commands":          -1,
		"verbose_commands":      true,
		"narrate_behavior":      true,
		"chat_bot_messages":     true,
	}
}

// Store reads and writes the files in one directory.
type Store struct {
	dir string

	// Debounce is how long Watch waits after the last change before
	// emitting. Defaults to DefaultDebounce.
	Debounce time.Duration

	mu sync.Mutex
}

// NewStore returns a Store for dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory the store manages.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute path of name inside the store directory.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Settings returns the defaults overlaid with settings.json.
func (s *Store) Settings() (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settingsLocked()
}

func (s *Store) settingsLocked() (map[string]any, error) {
	merged := Defaults()

	data, err := os.ReadFile(s.Path(SettingsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return merged, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var saved map[string]any
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("parse %s: %w", SettingsFile, err)
	}
	for k, v := range saved {
		merged[k] = v
	}
	return merged, nil
}

// Get returns one setting.
func (s *Store) Get(key string) (any, error) {
	all, err := s.Settings()
	if err != nil {
		return nil, err
	}
	v, ok := all[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	return v, nil
}

// Set parses raw according to the type of key's default and saves it.
// List settings take a comma-separated value.
func (s *Store) Set(key, raw string) error {
	def, ok := Defaults()[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}

	value, err := parseValue(def, raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidValue, key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.settingsLocked()
	if err != nil {
		return err
	}
	all[key] = value
	return writeJSON(s.Path(SettingsFile), all, 0644)
}

// Names returns the sorted names of every known setting.
func Names() []string {
	var names []string
	for k := range Defaults() {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

func parseValue(def any, raw string) (any, error) {
	switch def.(type) {
	case bool:
		return strconv.ParseBool(raw)
	case int:
		return strconv.Atoi(raw)
	case []string:
		out := []string{}
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	default:
		return raw, nil
	}
}

// writeJSON writes v as indented JSON using write-to-temp-then-rename.
func writeJSON(path string, v any, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, perm); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpFile, path); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
