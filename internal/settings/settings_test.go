package settings

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestSettingsDefaultsWhenMissing(t *testing.T) {
	s := NewStore(t.TempDir())

	all, err := s.Settings()
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if all["minecraft_version"] != "1.20.4" {
		t.Errorf("minecraft_version = %v", all["minecraft_version"])
	}
	if all["port"] != 55916 {
		t.Errorf("port = %v", all["port"])
	}
	if all["auth"] != "offline" {
		t.Errorf("auth = %v", all["auth"])
	}
}

func TestSettingsOverlay(t *testing.T) {
	dir := t.TempDir()
	content := `{"host": "mc.example.com", "port": 25565, "extra": "kept"}`
	if err := os.WriteFile(filepath.Join(dir, SettingsFile), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	all, err := NewStore(dir).Settings()
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if all["host"] != "mc.example.com" {
		t.Errorf("host = %v", all["host"])
	}
	if all["port"] != float64(25565) {
		t.Errorf("port = %v (%T)", all["port"], all["port"])
	}
	if all["extra"] != "kept" {
		t.Errorf("extra = %v", all["extra"])
	}
	if all["language"] != "en" {
		t.Errorf("language = %v, want default", all["language"])
	}
}

func TestSettingsMalformed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SettingsFile), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(dir).Settings(); err == nil {
		t.Error("Settings() succeeded on malformed JSON")
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		key     string
		raw     string
		want    any
		wantErr error
	}{
		{"host", "10.0.0.2", "10.0.0.2", nil},
		{"port", "25565", float64(25565), nil},
		{"load_memory", "true", true, nil},
		{"profiles", "./andy.json, ./bob.json", []any{"./andy.json", "./bob.json"}, nil},
		{"only_chat_with", "", []any{}, nil},
		{"port", "high", nil, ErrInvalidValue},
		{"load_memory", "maybe", nil, ErrInvalidValue},
		{"no_such_setting", "1", nil, ErrUnknownSetting},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.raw, func(t *testing.T) {
			dir := t.TempDir()
			s := NewStore(dir)

			err := s.Set(tt.key, tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Set() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			data, err := os.ReadFile(filepath.Join(dir, SettingsFile))
			if err != nil {
				t.Fatal(err)
			}
			var saved map[string]any
			if err := json.Unmarshal(data, &saved); err != nil {
				t.Fatal(err)
			}
			gotJSON, _ := json.Marshal(saved[tt.key])
			wantJSON, _ := json.Marshal(tt.want)
			if string(gotJSON) != string(wantJSON) {
				t.Errorf("saved %s = %s, want %s", tt.key, gotJSON, wantJSON)
			}
			if _, err := os.Stat(filepath.Join(dir, SettingsFile+".tmp")); !os.IsNotExist(err) {
				t.Error("temp file left behind")
			}
		})
	}
}

func TestSetPreservesOtherSettings(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.Set("host", "10.0.0.2"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("auth", "microsoft"); err != nil {
		t.Fatal(err)
	}

	host, err := s.Get("host")
	if err != nil || host != "10.0.0.2" {
		t.Errorf("Get(host) = %v, %v", host, err)
	}
	if _, err := s.Get("missing"); !errors.Is(err, ErrUnknownSetting) {
		t.Errorf("Get(missing) error = %v", err)
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if !slices.IsSorted(names) {
		t.Error("Names() not sorted")
	}
	if len(names) != len(Defaults()) {
		t.Errorf("len(Names()) = %d, want %d", len(names), len(Defaults()))
	}
}

func TestAPIKeys(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	if err := s.SetAPIKey("OPENAI_API_KEY", "sk-abcdef1234"); err != nil {
		t.Fatalf("SetAPIKey() error = %v", err)
	}
	if err := s.SetAPIKey("GEMINI_API_KEY", "g-1"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetAPIKey("GEMINI_API_KEY", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.SetAPIKey("MY_KEY", "x"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("SetAPIKey(MY_KEY) error = %v, want ErrUnknownKey", err)
	}

	keys, err := s.APIKeys()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys["OPENAI_API_KEY"] != "sk-abcdef1234" {
		t.Errorf("APIKeys() = %v", keys)
	}

	info, err := os.Stat(filepath.Join(dir, KeysFile))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 && os.PathSeparator == '/' {
		t.Errorf("keys.json mode = %v, want owner-only", perm)
	}
}

func TestMaskKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"sk-abcdef1234", "****1234"},
		{"abcd", "****"},
		{"", "****"},
	}
	for _, tt := range tests {
		if got := MaskKey(tt.in); got != tt.want {
			t.Errorf("MaskKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
