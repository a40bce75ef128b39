package annotation

import "testing"

func TestNewClassTableValidation(t *testing.T) {
	cases := []struct {
		name    string
		mapping map[string]int
	}{
		{"empty label", map[string]int{"": 1}},
		{"id out of range", map[string]int{"object": 300}},
		{"negative id", map[string]int{"object": -1}},
		{"id 0 not background", map[string]int{"object": 0}},
	}
	for _, tc := range cases {
		if _, err := NewClassTable(tc.mapping); err == nil {
			t.Errorf("%s: no error", tc.name)
		}
	}

	// Duplicate ids across two labels.
	if _, err := NewClassTable(map[string]int{"object": 1, "person": 1}); err == nil {
		t.Error("duplicate id: no error")
	}

	table, err := NewClassTable(map[string]int{BackgroundLabel: 0, "object": 2})
	if err != nil {
		t.Fatalf("NewClassTable: %v", err)
	}
	if id, ok := table.ID("object"); !ok || id != 2 {
		t.Errorf("ID(object) = %d, %v", id, ok)
	}
	if label, ok := table.Label(2); !ok || label != "object" {
		t.Errorf("Label(2) = %q, %v", label, ok)
	}
}

func TestClassesSortedByID(t *testing.T) {
	table := DefaultClassTable()
	classes := table.Classes()
	if len(classes) != 7 {
		t.Fatalf("got %d classes, want 7", len(classes))
	}
	for i := 1; i < len(classes); i++ {
		if classes[i-1].ID >= classes[i].ID {
			t.Fatalf("classes not sorted: %v", classes)
		}
	}
	for _, c := range classes {
		if c.ID == BackgroundID {
			t.Error("background listed as a class")
		}
	}
}

func TestVisualValue(t *testing.T) {
	table := DefaultClassTable() // 7 non-background classes

	cases := []struct {
		id   int
		want uint8
	}{
		{0, 0},
		{1, 36},  // round(255/7)
		{4, 146}, // round(4*255/7)
		{7, 255},
	}
	for _, tc := range cases {
		if got := table.VisualValue(tc.id); got != tc.want {
			t.Errorf("VisualValue(%d) = %d, want %d", tc.id, got, tc.want)
		}
	}
}

func TestValueMappings(t *testing.T) {
	table := DefaultClassTable()

	raw := table.Values()
	if raw[1] != "lines" || raw[7] != "path" {
		t.Errorf("raw values = %v", raw)
	}
	if _, ok := raw[0]; ok {
		t.Error("raw values include background")
	}

	visual := table.VisualValues()
	if visual[36] != "lines" || visual[255] != "path" {
		t.Errorf("visual values = %v", visual)
	}
}

func TestParseValueMapping(t *testing.T) {
	mapping, err := ParseValueMapping("255, lines\n\n170, person\n")
	if err != nil {
		t.Fatalf("ParseValueMapping: %v", err)
	}
	if len(mapping) != 2 || mapping[255] != "lines" || mapping[170] != "person" {
		t.Errorf("mapping = %v", mapping)
	}

	for _, text := range []string{
		"",
		"255 lines",
		"999, lines",
		"255, ",
		"255, lines\n255, person",
	} {
		if _, err := ParseValueMapping(text); err == nil {
			t.Errorf("no error for %q", text)
		}
	}
}
