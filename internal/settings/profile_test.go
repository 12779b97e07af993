package settings

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestParseProfile(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     string
		wantName string
		wantErr  error
	}{
		{"yaml", "bob.yaml", "name: bob\nmodel: gpt-4o\n", "bob", nil},
		{"yml", "bob.yml", "name: bob\n", "bob", nil},
		{"json", "bob.json", `{"name": "bob", "model": "claude"}`, "bob", nil},
		{"missing name", "x.yaml", "model: gpt-4o\n", "", ErrProfileNameMissing},
		{"path in name", "x.yaml", "name: ../evil\n", "", ErrInvalidProfileName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseProfile(tt.filename, []byte(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ParseProfile() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseProfile() error = %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.wantName)
			}
		})
	}
}

func TestParseProfileMalformed(t *testing.T) {
	if _, err := ParseProfile("a.yaml", []byte("name: [unclosed")); err == nil {
		t.Error("malformed YAML accepted")
	}
	if _, err := ParseProfile("a.json", []byte("{")); err == nil {
		t.Error("malformed JSON accepted")
	}
}

func TestImportProfileConvertsYAMLToJSON(t *testing.T) {
	src := filepath.Join(t.TempDir(), "bob.yaml")
	yamlDoc := `name: bob
model: gpt-4o-mini
modes:
  self_preservation: true
  hunting: false
conversation_examples:
  - [hello, hi]
`
	if err := os.WriteFile(src, []byte(yamlDoc), 0644); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	s := NewStore(dir)
	path, err := s.ImportProfile(src)
	if err != nil {
		t.Fatalf("ImportProfile() error = %v", err)
	}
	if path != filepath.Join(dir, "bob.json") {
		t.Errorf("path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("written profile is not JSON: %v", err)
	}
	modes, ok := got["modes"].(map[string]any)
	if !ok || modes["self_preservation"] != true {
		t.Errorf("modes = %v", got["modes"])
	}
	if got["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v", got["model"])
	}
}

func TestAddProfileRejectsDuplicates(t *testing.T) {
	s := NewStore(t.TempDir())

	if _, err := s.AddProfile(Profile{"name": "andy", "model": "a"}); err != nil {
		t.Fatal(err)
	}
	_, err := s.AddProfile(Profile{"name": "andy", "model": "b"})
	if !errors.Is(err, ErrProfileExists) {
		t.Errorf("AddProfile() error = %v, want ErrProfileExists", err)
	}
	if _, err := s.AddProfile(Profile{"name": "settings"}); !errors.Is(err, ErrInvalidProfileName) {
		t.Errorf("AddProfile(settings) error = %v, want ErrInvalidProfileName", err)
	}
}

func TestProfiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	for _, name := range []string{"zed", "andy"} {
		if _, err := s.AddProfile(Profile{"name": name}); err != nil {
			t.Fatal(err)
		}
	}
	// Non-profile JSON in the working directory.
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name": "mindcraft"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tsconfig.json"), []byte(`{"compilerOptions": {}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("host", "localhost"); err != nil {
		t.Fatal(err)
	}

	got, err := s.Profiles()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []string{"andy", "zed"}) {
		t.Errorf("Profiles() = %v, want [andy zed]", got)
	}
}

func TestProfilesMissingDir(t *testing.T) {
	got, err := NewStore(filepath.Join(t.TempDir(), "missing")).Profiles()
	if err != nil || got != nil {
		t.Errorf("Profiles() = %v, %v", got, err)
	}
}
