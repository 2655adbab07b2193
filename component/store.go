package component

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNotFound is returned when a component or snapshot id is unknown.
var ErrNotFound = errors.New("component not found")

// Store persists components and their version snapshots.
type Store interface {
	// Save writes the current state of a component.
	Save(c *Component) error

	// Load reads a component by id. Returns ErrNotFound if absent.
	Load(id string) (*Component, error)

	// Delete removes a component record. Snapshots are kept.
	Delete(id string) error

	// LoadAll reads every stored component.
	LoadAll() ([]*Component, error)

	// SaveSnapshot writes an immutable version snapshot.
	SaveSnapshot(s *Snapshot) error

	// LoadSnapshot reads a snapshot by component id and version key ("1_0_0").
	LoadSnapshot(id, versionKey string) (*Snapshot, error)

	// ListSnapshots returns the version keys of all snapshots for a component.
	ListSnapshots(id string) ([]string, error)
}

// FileStore persists components as JSON files under a directory:
//
//	<dir>/<id>.json                    current state
//	<dir>/versions/<id>/<v_key>.json   immutable snapshots
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir, creating the
// directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create component directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes the component JSON atomically (temp file + rename).
func (s *FileStore) Save(c *Component) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal component: %w", err)
	}
	return atomicWrite(filepath.Join(s.dir, c.ID+".json"), data)
}

// Load reads a component by id.
func (s *FileStore) Load(id string) (*Component, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, id+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read component file: %w", err)
	}

	var c Component
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse component file: %w", err)
	}
	return &c, nil
}

// Delete removes the component record. Snapshots are kept so an
// archived component's history stays readable.
func (s *FileStore) Delete(id string) error {
	err := os.Remove(filepath.Join(s.dir, id+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// LoadAll reads every component JSON file in the store directory.
// Snapshot files under versions/ are not included.
func (s *FileStore) LoadAll() ([]*Component, error) {
	paths, err := doublestar.FilepathGlob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan component directory: %w", err)
	}

	components := make([]*Component, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var c Component
		if err := json.Unmarshal(data, &c); err != nil {
			// Skip files that aren't component records
			continue
		}
		if c.ID == "" {
			continue
		}
		components = append(components, &c)
	}
	return components, nil
}

// SaveSnapshot writes an immutable version snapshot.
func (s *FileStore) SaveSnapshot(snap *Snapshot) error {
	v, err := ParseVersion(snap.Version)
	if err != nil {
		return fmt.Errorf("snapshot version: %w", err)
	}

	dir := filepath.Join(s.dir, "versions", snap.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return atomicWrite(filepath.Join(dir, v.Key()+".json"), data)
}

// LoadSnapshot reads a snapshot by component id and version key.
func (s *FileStore) LoadSnapshot(id, versionKey string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, "versions", id, versionKey+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot file: %w", err)
	}
	return &snap, nil
}

// ListSnapshots returns version keys of all snapshots for a component,
// ordered oldest first.
func (s *FileStore) ListSnapshots(id string) ([]string, error) {
	paths, err := doublestar.FilepathGlob(filepath.Join(s.dir, "versions", id, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan snapshot directory: %w", err)
	}

	keys := make([]string, 0, len(paths))
	for _, path := range paths {
		keys = append(keys, strings.TrimSuffix(filepath.Base(path), ".json"))
	}

	sort.Slice(keys, func(i, j int) bool {
		vi, erri := ParseVersionKey(keys[i])
		vj, errj := ParseVersionKey(keys[j])
		if erri != nil || errj != nil {
			return keys[i] < keys[j]
		}
		return vi.Compare(vj) < 0
	})
	return keys, nil
}

// atomicWrite writes data via a temp file and rename so readers never
// see a partial file.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// MemoryStore is an in-memory Store for tests and ephemeral use.
type MemoryStore struct {
	mu         sync.RWMutex
	components map[string]*Component
	snapshots  map[string]map[string]*Snapshot // id → version key → snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		components: make(map[string]*Component),
		snapshots:  make(map[string]map[string]*Snapshot),
	}
}

// Save stores a copy of the component.
func (s *MemoryStore) Save(c *Component) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.components[c.ID] = c.Clone()
	return nil
}

// Load returns a copy of the component.
func (s *MemoryStore) Load(id string) (*Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.components[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

// Delete removes the component record.
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.components[id]; !ok {
		return ErrNotFound
	}
	delete(s.components, id)
	return nil
}

// LoadAll returns copies of all components.
func (s *MemoryStore) LoadAll() ([]*Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]*Component, 0, len(s.components))
	for _, c := range s.components {
		all = append(all, c.Clone())
	}
	return all, nil
}

// SaveSnapshot stores a version snapshot.
func (s *MemoryStore) SaveSnapshot(snap *Snapshot) error {
	v, err := ParseVersion(snap.Version)
	if err != nil {
		return fmt.Errorf("snapshot version: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshots[snap.ID] == nil {
		s.snapshots[snap.ID] = make(map[string]*Snapshot)
	}
	copied := *snap
	copied.Component = *snap.Component.Clone()
	s.snapshots[snap.ID][v.Key()] = &copied
	return nil
}

// LoadSnapshot returns a snapshot by component id and version key.
func (s *MemoryStore) LoadSnapshot(id, versionKey string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[id][versionKey]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *snap
	copied.Component = *snap.Component.Clone()
	return &copied, nil
}

// ListSnapshots returns version keys ordered oldest first.
func (s *MemoryStore) ListSnapshots(id string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.snapshots[id]))
	for key := range s.snapshots[id] {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		vi, erri := ParseVersionKey(keys[i])
		vj, errj := ParseVersionKey(keys[j])
		if erri != nil || errj != nil {
			return keys[i] < keys[j]
		}
		return vi.Compare(vj) < 0
	})
	return keys, nil
}
