// Package app provides the editing session state and its events.
package app

import (
	"fmt"
	goimage "image"
	"log"
	"path/filepath"
	"sort"
	"sync"

	"masklab/internal/annotation"
	"masklab/internal/imageio"
	"masklab/internal/tool"
	"masklab/internal/viewport"
)

// EventType identifies different session events.
type EventType int

const (
	EventFolderOpened EventType = iota
	EventImageChanged
	EventAnnotationsChanged
	EventDirtyChanged
	EventClassesChanged
	EventViewChanged
	EventToolChanged
	EventSaved
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// Session holds the state of one labeling session: the open image folder,
// the current image, the annotation store, the view transform, and the
// drawing tool. UI widgets subscribe to its events instead of polling.
type Session struct {
	mu sync.RWMutex

	folder  string
	images  []string
	current int

	image     goimage.Image
	imageSize annotation.SizePx

	store     *annotation.Store
	transform *viewport.Transform
	machine   *tool.Machine

	table   *annotation.ClassTable
	classes []string

	listeners map[EventType][]EventListener
}

// NewSession creates a session with the default class list and no folder
// open.
func NewSession() *Session {
	return &Session{
		current:   -1,
		store:     annotation.NewStore(),
		transform: viewport.New(),
		machine:   tool.NewMachine(),
		table:     annotation.DefaultClassTable(),
		classes:   annotation.DefaultClassList(),
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *Session) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *Session) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Store returns the session's annotation store.
func (s *Session) Store() *annotation.Store { return s.store }

// Transform returns the session's view transform.
func (s *Session) Transform() *viewport.Transform { return s.transform }

// Machine returns the session's drawing tool state machine.
func (s *Session) Machine() *tool.Machine { return s.machine }

// ClassTable returns the label-to-ID table for the session's classes.
func (s *Session) ClassTable() *annotation.ClassTable { return s.table }

// Classes returns the selectable class labels, in UI order.
func (s *Session) Classes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.classes))
	copy(out, s.classes)
	return out
}

// AddClass appends a new class label, assigning it the next free ID.
func (s *Session) AddClass(label string) error {
	s.mu.Lock()
	if _, ok := s.table.ID(label); ok {
		s.mu.Unlock()
		return fmt.Errorf("class %q already exists", label)
	}

	mapping := make(map[string]int)
	nextID := 0
	for _, c := range s.table.Classes() {
		mapping[c.Label] = c.ID
		if c.ID > nextID {
			nextID = c.ID
		}
	}
	mapping[annotation.BackgroundLabel] = annotation.BackgroundID
	mapping[label] = nextID + 1

	table, err := annotation.NewClassTable(mapping)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.table = table
	s.classes = append(s.classes, label)
	s.mu.Unlock()

	s.Emit(EventClassesChanged, label)
	return nil
}

// Folder returns the open image folder, or an empty string.
func (s *Session) Folder() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.folder
}

// RecordDir returns the directory holding the folder's annotation records.
func (s *Session) RecordDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filepath.Join(s.folder, annotation.RecordSubdir)
}

// ImageCount returns the number of images in the open folder.
func (s *Session) ImageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.images)
}

// CurrentIndex returns the index of the current image, or -1.
func (s *Session) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// CurrentName returns the file name of the current image, or an empty
// string when no image is shown.
func (s *Session) CurrentName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current < 0 || s.current >= len(s.images) {
		return ""
	}
	return s.images[s.current]
}

// CurrentImage returns the decoded current image, or nil.
func (s *Session) CurrentImage() goimage.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.image
}

// CurrentSize returns the pixel size of the current image.
func (s *Session) CurrentSize() annotation.SizePx {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.imageSize
}

// OpenFolder scans dir for images and shows the first one. Any previous
// session state is discarded; unsaved work should be handled by the caller
// before switching folders.
func (s *Session) OpenFolder(dir string) error {
	names, err := imageio.ListImages(dir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no supported images in %s", dir)
	}
	sort.Strings(names)

	s.mu.Lock()
	s.folder = dir
	s.images = names
	s.current = -1
	s.store = annotation.NewStore()
	s.transform = viewport.New()
	s.machine.Cancel()
	s.image = nil
	s.imageSize = annotation.SizePx{}
	s.mu.Unlock()

	s.Emit(EventFolderOpened, dir)
	return s.ShowImage(0)
}

// ShowImage switches to the image at index, loading its pixels and any
// saved annotation record. Out-of-range indices are an error.
func (s *Session) ShowImage(index int) error {
	s.mu.RLock()
	folder := s.folder
	count := len(s.images)
	s.mu.RUnlock()

	if index < 0 || index >= count {
		return fmt.Errorf("image index %d out of range [0,%d)", index, count)
	}

	s.mu.RLock()
	name := s.images[index]
	s.mu.RUnlock()

	img, err := imageio.Load(filepath.Join(folder, name))
	if err != nil {
		return err
	}

	recordPath := annotation.RecordPath(filepath.Join(folder, annotation.RecordSubdir), name)
	if err := s.store.Load(name, recordPath); err != nil {
		log.Printf("session: could not load annotations for %s: %v", name, err)
	}

	b := img.Bounds()
	s.mu.Lock()
	s.current = index
	s.image = img
	s.imageSize = annotation.SizePx{Width: b.Dx(), Height: b.Dy()}
	s.machine.Cancel()
	s.mu.Unlock()

	s.Emit(EventImageChanged, name)
	return nil
}

// NextImage advances to the next image, if any.
func (s *Session) NextImage() error {
	if i := s.CurrentIndex(); i >= 0 && i+1 < s.ImageCount() {
		return s.ShowImage(i + 1)
	}
	return nil
}

// PrevImage goes back to the previous image, if any.
func (s *Session) PrevImage() error {
	if i := s.CurrentIndex(); i > 0 {
		return s.ShowImage(i - 1)
	}
	return nil
}

// AddAnnotation appends a validated annotation to the current image's set.
func (s *Session) AddAnnotation(a annotation.Annotation) bool {
	name := s.CurrentName()
	if name == "" {
		return false
	}
	wasDirty := s.store.Dirty()
	if !s.store.Append(name, s.CurrentSize(), a) {
		return false
	}
	s.Emit(EventAnnotationsChanged, name)
	if !wasDirty {
		s.Emit(EventDirtyChanged, true)
	}
	return true
}

// DeleteAnnotation removes the annotation at index from the current image.
func (s *Session) DeleteAnnotation(index int) bool {
	name := s.CurrentName()
	if name == "" {
		return false
	}
	wasDirty := s.store.Dirty()
	if !s.store.DeleteAt(name, index) {
		return false
	}
	s.Emit(EventAnnotationsChanged, name)
	if !wasDirty {
		s.Emit(EventDirtyChanged, true)
	}
	return true
}

// ClearAnnotations removes all annotations from the current image.
func (s *Session) ClearAnnotations() {
	name := s.CurrentName()
	if name == "" {
		return
	}
	wasDirty := s.store.Dirty()
	s.store.Clear(name, s.CurrentSize())
	s.Emit(EventAnnotationsChanged, name)
	if !wasDirty {
		s.Emit(EventDirtyChanged, true)
	}
}

// Annotations returns the current image's annotation list.
func (s *Session) Annotations() []annotation.Annotation {
	return s.store.Annotations(s.CurrentName())
}

// Dirty reports whether there are unsaved annotation changes.
func (s *Session) Dirty() bool {
	return s.store.Dirty()
}

// Save writes all annotation records under the folder's record directory.
func (s *Session) Save() (annotation.SaveResult, error) {
	s.mu.RLock()
	folder := s.folder
	s.mu.RUnlock()
	if folder == "" {
		return annotation.SaveResult{}, fmt.Errorf("no folder open")
	}

	res, err := s.store.Save(filepath.Join(folder, annotation.RecordSubdir))
	if err != nil {
		return res, err
	}
	s.Emit(EventSaved, res)
	if !s.store.Dirty() {
		s.Emit(EventDirtyChanged, false)
	}
	return res, nil
}
