package annotation

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Store holds the per-image annotation sets for one editing session. It is
// owned by exactly one session and is not safe for concurrent use.
type Store struct {
	sets  map[string]*Set
	dirty bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sets: make(map[string]*Set)}
}

// SaveResult reports the outcome of a Save across all images.
type SaveResult struct {
	Saved   int // record files written
	Removed int // stale record files deleted (annotation list became empty)
	Failed  int // per-image I/O or encoding failures
}

// RecordSubdir is the subdirectory, next to the images, that holds the
// per-image annotation record files.
const RecordSubdir = "json_data"

// RecordPath returns the record file path for an image name inside dir.
func RecordPath(dir, imageName string) string {
	base := strings.TrimSuffix(imageName, filepath.Ext(imageName))
	return filepath.Join(dir, base+".json")
}

// Get returns the annotation set for an image, or nil if none exists.
func (s *Store) Get(imageName string) *Set {
	return s.sets[imageName]
}

// Annotations returns the current annotation list for an image.
func (s *Store) Annotations(imageName string) []Annotation {
	if set, ok := s.sets[imageName]; ok {
		return set.Annotations
	}
	return nil
}

// Append adds an annotation to the image's set, creating the set lazily with
// the given original size on first use. Degenerate or otherwise invalid
// annotations are rejected as a no-op; callers are expected to validate
// before appending, so a rejection here is logged.
func (s *Store) Append(imageName string, size SizePx, a Annotation) bool {
	if err := a.Validate(); err != nil {
		log.Printf("store: rejected annotation for %s: %v", imageName, err)
		return false
	}
	set, ok := s.sets[imageName]
	if !ok {
		set = &Set{OriginalSize: size}
		s.sets[imageName] = set
	}
	set.Annotations = append(set.Annotations, a)
	s.dirty = true
	return true
}

// DeleteAt removes the annotation at index. An out-of-range index is a
// no-op, not a fault.
func (s *Store) DeleteAt(imageName string, index int) bool {
	set, ok := s.sets[imageName]
	if !ok || index < 0 || index >= len(set.Annotations) {
		return false
	}
	set.Annotations = append(set.Annotations[:index], set.Annotations[index+1:]...)
	s.dirty = true
	return true
}

// Clear empties the image's annotation list but keeps the set record with
// its original size, so a subsequent save removes any stale record file.
func (s *Store) Clear(imageName string, size SizePx) {
	if set, ok := s.sets[imageName]; ok {
		set.Annotations = nil
	} else {
		s.sets[imageName] = &Set{OriginalSize: size}
	}
	s.dirty = true
}

// Dirty reports whether the store has unsaved changes.
func (s *Store) Dirty() bool {
	return s.dirty
}

// Load parses a record file for an image if one exists. A missing file is
// not an error: the image simply has no prior annotations. An already-loaded
// image is left untouched.
func (s *Store) Load(imageName, path string) error {
	if _, ok := s.sets[imageName]; ok {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read record %s: %w", path, err)
	}
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return fmt.Errorf("parse record %s: %w", path, err)
	}
	s.sets[imageName] = &set
	return nil
}

// Save writes one record file per image with a non-empty annotation list and
// deletes record files for images whose list became empty, so no persisted
// file ever represents zero annotations. A failure on one image is counted
// and does not prevent saving the rest. The dirty flag clears only when
// every image saved cleanly.
func (s *Store) Save(dir string) (SaveResult, error) {
	var res SaveResult
	if err := os.MkdirAll(dir, 0755); err != nil {
		return res, fmt.Errorf("create record directory: %w", err)
	}

	for imageName, set := range s.sets {
		path := RecordPath(dir, imageName)

		if len(set.Annotations) == 0 {
			if _, err := os.Stat(path); err == nil {
				if err := os.Remove(path); err != nil {
					log.Printf("store: remove %s: %v", path, err)
					res.Failed++
					continue
				}
				res.Removed++
			}
			continue
		}

		data, err := json.MarshalIndent(set, "", "  ")
		if err != nil {
			log.Printf("store: encode %s: %v", imageName, err)
			res.Failed++
			continue
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			log.Printf("store: write %s: %v", path, err)
			res.Failed++
			continue
		}
		res.Saved++
	}

	if res.Failed == 0 {
		s.dirty = false
	}
	return res, nil
}
