package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
)

// ErrUnknownKey is returned for API key names the bot application never reads.
var ErrUnknownKey = errors.New("unknown API key name")

// KnownKeys lists the provider API keys the bot application reads.
var KnownKeys = []string{
	"OPENAI_API_KEY",
	"OPENAI_ORG_ID",
	"GEMINI_API_KEY",
	"ANTHROPIC_API_KEY",
	"REPLICATE_API_KEY",
	"GROQCLOUD_API_KEY",
	"HUGGINGFACE_API_KEY",
	"QWEN_API_KEY",
	"XAI_API_KEY",
	"MISTRAL_API_KEY",
	"DEEPSEEK_API_KEY",
}

// APIKeys returns the contents of keys.json. A missing file is empty.
func (s *Store) APIKeys() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keysLocked()
}

func (s *Store) keysLocked() (map[string]string, error) {
	keys := map[string]string{}
	data, err := os.ReadFile(s.Path(KeysFile))
	if err != nil {
		if os.IsNotExist(err) {
			return keys, nil
		}
		return nil, fmt.Errorf("read keys: %w", err)
	}
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("parse %s: %w", KeysFile, err)
	}
	return keys, nil
}

// SetAPIKey stores value under name. An empty value removes the key.
func (s *Store) SetAPIKey(name, value string) error {
	if !slices.Contains(KnownKeys, name) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.keysLocked()
	if err != nil {
		return err
	}
	if value == "" {
		delete(keys, name)
	} else {
		keys[name] = value
	}
	return writeJSON(s.Path(KeysFile), keys, 0600)
}

// MaskKey hides all but the last four characters of a key.
func MaskKey(value string) string {
	if len(value) <= 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}
