// Package assets resolves game files across GRF archives and directories.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Faultbox/rsm2gltf/pkg/encoding"
	"github.com/Faultbox/rsm2gltf/pkg/grf"
)

// ErrNotFound is returned when no source holds a path.
var ErrNotFound = errors.New("asset not found")

// source is a read-only file tree keyed by normalized path.
type source interface {
	Contains(path string) bool
	Read(path string) ([]byte, error)
	List() []string
	Close() error
}

// Manager handles asset loading from GRF archives and directories.
// Sources are searched in reverse order (last added = highest priority).
type Manager struct {
	sources []source
	cache   *Cache
	mu      sync.RWMutex
}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(),
	}
}

// AddArchive adds a GRF archive to the manager.
func (m *Manager) AddArchive(path string) error {
	archive, err := grf.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", path, err)
	}
	m.add(archive)
	return nil
}

// AddDir adds a directory tree to the manager. Paths inside it match
// case-insensitively like archive paths.
func (m *Manager) AddDir(root string) error {
	dir, err := openDir(root)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", root, err)
	}
	m.add(dir)
	return nil
}

func (m *Manager) add(s source) {
	m.mu.Lock()
	m.sources = append(m.sources, s)
	m.mu.Unlock()
}

// Exists reports whether any source holds path.
func (m *Manager) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.find(path) != nil
}

func (m *Manager) find(path string) source {
	for i := len(m.sources) - 1; i >= 0; i-- {
		if m.sources[i].Contains(path) {
			return m.sources[i]
		}
	}
	return nil
}

// Load reads a file from the highest priority source that holds it.
func (m *Manager) Load(path string) ([]byte, error) {
	key := encoding.NormalizePath(path)
	if data, ok := m.cache.Get(key); ok {
		return data, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.find(key)
	if src == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	data, err := src.Read(key)
	if err != nil {
		return nil, err
	}
	m.cache.Set(key, data)
	return data, nil
}

// List returns the normalized paths of all sources, sorted and deduplicated.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var result []string
	for _, s := range m.sources {
		for _, p := range s.List() {
			if !seen[p] {
				seen[p] = true
				result = append(result, p)
			}
		}
	}
	sort.Strings(result)
	return result
}

// Close closes all sources.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sources {
		s.Close()
	}
	m.sources = nil
	m.cache.Clear()
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// dirSource is a directory tree indexed once at open.
type dirSource struct {
	files map[string]string // normalized relative path -> file path
}

func openDir(root string) (*dirSource, error) {
	files := make(map[string]string)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files[encoding.NormalizePath(filepath.ToSlash(rel))] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dirSource{files: files}, nil
}

func (d *dirSource) Contains(path string) bool {
	_, ok := d.files[encoding.NormalizePath(path)]
	return ok
}

func (d *dirSource) Read(path string) ([]byte, error) {
	file, ok := d.files[encoding.NormalizePath(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return os.ReadFile(file)
}

func (d *dirSource) List() []string {
	result := make([]string, 0, len(d.files))
	for p := range d.files {
		result = append(result, p)
	}
	return result
}

func (d *dirSource) Close() error {
	return nil
}
