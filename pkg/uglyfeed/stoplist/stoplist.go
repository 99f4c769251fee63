package stoplist

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var builtin embed.FS

// Manager holds the stopwords of one language
type Manager struct {
	stops map[string]Source
}

// Source records where a stopword came from
type Source int

const (
	// Builtin words ship with the language list.
	Builtin Source = iota
	// Extra words were added from configuration.
	Extra
)

// NewManager creates a new stoplist manager
func NewManager(initialStops []string) *Manager {
	stops := make(map[string]Source, len(initialStops))
	for _, s := range initialStops {
		stops[strings.ToLower(s)] = Builtin
	}
	return &Manager{stops: stops}
}

// IsStop checks if a token is a stopword
func (m *Manager) IsStop(token string) bool {
	_, ok := m.stops[token]
	return ok
}

// Add adds a token to the stoplist
func (m *Manager) Add(token string, src Source) {
	m.stops[strings.ToLower(token)] = src
}

// Remove removes a token from the stoplist
func (m *Manager) Remove(token string) {
	delete(m.stops, strings.ToLower(token))
}

// All returns all stopwords in sorted order
func (m *Manager) All() []string {
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// Len returns the number of stopwords
func (m *Manager) Len() int { return len(m.stops) }

// File is the on-disk stopword list format.
//
//	terms:
//	  - the
//	  - and
type File struct {
	Terms []string `yaml:"terms"`
}

// Registry maps ISO 639-1 language codes to stopword managers.
// It is built once per process and read concurrently afterwards.
type Registry struct {
	mu        sync.RWMutex
	languages map[string]*Manager
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{languages: make(map[string]*Manager)}
}

// LoadBuiltin returns a registry populated with the embedded lists.
func LoadBuiltin() (*Registry, error) {
	r := NewRegistry()
	entries, err := builtin.ReadDir("data")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		data, err := builtin.ReadFile("data/" + e.Name())
		if err != nil {
			return nil, err
		}
		lang := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if err := r.load(lang, data); err != nil {
			return nil, fmt.Errorf("builtin stoplist %s: %w", lang, err)
		}
	}
	return r, nil
}

// LoadDir adds every <lang>.yaml file in dir, replacing builtin
// lists of the same language.
func (r *Registry) LoadDir(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return err
	}
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		lang := strings.TrimSuffix(filepath.Base(path), ".yaml")
		if err := r.load(lang, data); err != nil {
			return fmt.Errorf("stoplist %s: %w", path, err)
		}
	}
	return nil
}

func (r *Registry) load(lang string, data []byte) error {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}
	r.Set(lang, NewManager(f.Terms))
	return nil
}

// Set registers the manager for a language.
func (r *Registry) Set(lang string, m *Manager) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.languages[strings.ToLower(lang)] = m
}

// Get returns the manager for a language.
func (r *Registry) Get(lang string) (*Manager, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.languages[strings.ToLower(lang)]
	return m, ok
}

// Languages lists registered language codes in sorted order.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.languages))
	for lang := range r.languages {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}
