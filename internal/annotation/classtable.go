package annotation

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// BackgroundID is the class identifier reserved for unlabeled pixels.
const BackgroundID = 0

// BackgroundLabel is the conventional label for class id 0.
const BackgroundLabel = "background"

// Class pairs a semantic label with its raster class identifier.
type Class struct {
	Label string
	ID    int
}

// ClassTable is a validated bidirectional mapping between labels and class
// identifiers. Identifier 0 is reserved for the background; the table never
// contains duplicate ids or duplicate labels.
type ClassTable struct {
	byLabel map[string]int
	byID    map[int]string
}

// NewClassTable builds a table from a label→id mapping. The mapping may
// include the background entry ("background": 0); any other label mapped to
// id 0, a duplicate id, an empty label, or an id outside [0,255] is rejected.
func NewClassTable(mapping map[string]int) (*ClassTable, error) {
	t := &ClassTable{
		byLabel: make(map[string]int, len(mapping)),
		byID:    make(map[int]string, len(mapping)),
	}
	for label, id := range mapping {
		if label == "" {
			return nil, fmt.Errorf("class table: empty label for id %d", id)
		}
		if id < 0 || id > 255 {
			return nil, fmt.Errorf("class table: id %d for %q outside [0,255]", id, label)
		}
		if id == BackgroundID && label != BackgroundLabel {
			return nil, fmt.Errorf("class table: id 0 is reserved for background, got %q", label)
		}
		if existing, ok := t.byID[id]; ok {
			return nil, fmt.Errorf("class table: duplicate id %d (%q and %q)", id, existing, label)
		}
		t.byLabel[label] = id
		t.byID[id] = label
	}
	return t, nil
}

// DefaultClassTable returns the table for the stock class list.
func DefaultClassTable() *ClassTable {
	t, _ := NewClassTable(map[string]int{
		BackgroundLabel: 0,
		"lines":         1,
		"object":        2,
		"person":        3,
		"vehicle":       4,
		"animal":        5,
		"marker":        6,
		"path":          7,
	})
	return t
}

// DefaultClassList returns the stock class labels offered by the labeling UI,
// in presentation order.
func DefaultClassList() []string {
	return []string{"object", "lines", "person", "vehicle", "animal", "marker", "path"}
}

// ID returns the class id for a label.
func (t *ClassTable) ID(label string) (int, bool) {
	id, ok := t.byLabel[label]
	return id, ok
}

// Label returns the label for a class id.
func (t *ClassTable) Label(id int) (string, bool) {
	label, ok := t.byID[id]
	return label, ok
}

// Classes returns the non-background classes sorted by id.
func (t *ClassTable) Classes() []Class {
	classes := make([]Class, 0, len(t.byID))
	for id, label := range t.byID {
		if id == BackgroundID {
			continue
		}
		classes = append(classes, Class{Label: label, ID: id})
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].ID < classes[j].ID })
	return classes
}

// NumClasses returns the number of non-background classes.
func (t *ClassTable) NumClasses() int {
	n := len(t.byID)
	if _, ok := t.byID[BackgroundID]; ok {
		n--
	}
	return n
}

// VisualValue maps a class id to the intensity used in human-viewable
// rasters: id 0 stays 0, id k becomes round(k*255/numNonBackground) so that
// classes remain visually distinguishable.
func (t *ClassTable) VisualValue(id int) uint8 {
	if id == BackgroundID {
		return 0
	}
	n := t.NumClasses()
	if n == 0 {
		return 0
	}
	v := math.Round(float64(id) * 255 / float64(n))
	if v > 255 {
		v = 255
	}
	return uint8(v)
}

// Values returns the raw value→label mapping (pixel intensity equals the
// class id). Background is excluded.
func (t *ClassTable) Values() map[uint8]string {
	values := make(map[uint8]string, len(t.byID))
	for id, label := range t.byID {
		if id == BackgroundID {
			continue
		}
		values[uint8(id)] = label
	}
	return values
}

// VisualValues returns the value→label mapping for rasters written with
// visual intensity scaling. Recovering class ids from such a raster requires
// this table, not Values; mixing the two is a caller error.
func (t *ClassTable) VisualValues() map[uint8]string {
	values := make(map[uint8]string, len(t.byID))
	for id, label := range t.byID {
		if id == BackgroundID {
			continue
		}
		values[t.VisualValue(id)] = label
	}
	return values
}

// ParseValueMapping parses a "value, label" per-line mapping, the format
// used by the batch converter configuration:
//
//	255, lines
//	170, person
func ParseValueMapping(text string) (map[uint8]string, error) {
	mapping := make(map[uint8]string)
	for i, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: %q: expected \"value, label\"", i+1, line)
		}
		value, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil || value < 0 || value > 255 {
			return nil, fmt.Errorf("line %d: invalid pixel value %q", i+1, strings.TrimSpace(parts[0]))
		}
		label := strings.TrimSpace(parts[1])
		if label == "" {
			return nil, fmt.Errorf("line %d: empty label", i+1)
		}
		if existing, ok := mapping[uint8(value)]; ok {
			return nil, fmt.Errorf("line %d: value %d already mapped to %q", i+1, value, existing)
		}
		mapping[uint8(value)] = label
	}
	if len(mapping) == 0 {
		return nil, fmt.Errorf("class mapping is empty")
	}
	return mapping, nil
}
