// Package theme persists the light/dark display preference.
package theme

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/valuation/internal/errors"
)

// Theme is a display preference
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Key is the preferences entry holding the theme
const Key = "theme"

// Default is used when nothing valid is stored
const Default = Light

// Parse converts s to a Theme
func Parse(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, nil
	case Dark:
		return Dark, nil
	}
	return "", errors.NewThemeUnknownError(s)
}

// Opposite returns the other theme
func (t Theme) Opposite() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// Label is the text of the toggle control for the current theme
func (t Theme) Label() string {
	if t == Dark {
		return "Modo Escuro Ativado"
	}
	return "Ativar Modo Escuro (Dark Mode)"
}

// Store reads and writes the theme in a YAML preferences file. Other keys
// in the file are preserved.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store backed by path. The file is created on first Set.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file
func (s *Store) Path() string {
	return s.path
}

// Current returns the stored theme, or Default when the file is missing,
// unreadable or holds an unknown value.
func (s *Store) Current() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.read()
	if err != nil {
		return Default
	}
	raw, _ := prefs[Key].(string)
	t, err := Parse(raw)
	if err != nil {
		return Default
	}
	return t
}

// Set stores t
func (s *Store) Set(t Theme) error {
	if _, err := Parse(string(t)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.read()
	if err != nil {
		// Unreadable preferences are replaced rather than blocking the toggle
		prefs = map[string]any{}
	}
	prefs[Key] = string(t)
	return s.write(prefs)
}

// Toggle flips the stored theme and returns the new value
func (s *Store) Toggle() (Theme, error) {
	next := s.Current().Opposite()
	if err := s.Set(next); err != nil {
		return s.Current(), err
	}
	return next, nil
}

func (s *Store) read() (map[string]any, error) {
	prefs := map[string]any{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return prefs, nil
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "read preferences", err)
	}
	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return nil, errors.NewFileUnmarshalError(s.path, "YAML", err)
	}
	if prefs == nil {
		prefs = map[string]any{}
	}
	return prefs, nil
}

func (s *Store) write(prefs map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeDirectoryFailed, "create preferences directory", err)
	}

	data, err := yaml.Marshal(prefs)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileMarshal, "encode preferences", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "write preferences", err)
	}
	return nil
}
