package progress

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ncestudy/nce/internal/fsutil"
)

// where a learner stopped in one lesson
type Entry struct {
	Index      int           `yaml:"index" json:"index"`
	Position   time.Duration `yaml:"position" json:"position"`
	Duration   time.Duration `yaml:"duration" json:"duration"`
	Percentage int           `yaml:"percentage" json:"percentage"`
	// accumulated listening time
	StudyTime time.Duration `yaml:"study_time" json:"study_time"`
	LastStudy time.Time     `yaml:"last_study" json:"last_study"`
}

// Store keeps progress per lesson in a YAML file. Every change is written
// through atomically.
type Store struct {
	path string

	mu      sync.Mutex
	entries map[string]Entry
}

type fileFormat struct {
	Lessons map[string]Entry `yaml:"lessons"`
}

// Key identifies a lesson in the store.
func Key(book, name string) string {
	return book + "/" + name
}

// Open loads the store at path. A missing file is an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, entries: make(map[string]Entry)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read progress %s: %w", path, err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse progress %s: %w", path, err)
	}
	for k, v := range f.Lessons {
		s.entries[k] = v
	}
	return s, nil
}

func (s *Store) Get(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e, ok
}

// All returns a copy of every entry.
func (s *Store) All() map[string]Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Entry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

func (s *Store) Put(key string, e Entry) error {
	return s.Update(key, func(Entry) Entry { return e })
}

// Update applies fn to the entry under key and persists the result.
func (s *Store) Update(key string, fn func(Entry) Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.entries[key]
	s.entries[key] = fn(prev)
	return s.save()
}

func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return nil
	}
	delete(s.entries, key)
	return s.save()
}

func (s *Store) save() error {
	data, err := yaml.Marshal(fileFormat{Lessons: s.entries})
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}
