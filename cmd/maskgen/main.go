// Command maskgen renders annotation record files into class mask images.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"masklab/internal/annotation"
	"masklab/internal/convert"
)

func main() {
	jsonDir := flag.String("json", "", "Directory containing annotation record files (.json)")
	imageDir := flag.String("images", "", "Directory containing the source images")
	outDir := flag.String("out", "", "Output directory for mask images")
	thickness := flag.Int("thickness", convert.DefaultThickness, "Stroke thickness for line and freehand annotations")
	visual := flag.Bool("visual", true, "Spread class IDs over the 0-255 intensity range for visual inspection")
	mappingPath := flag.String("mapping", "", "Optional class mapping file, one 'id, label' line per class")
	flag.Parse()

	if *jsonDir == "" || *imageDir == "" || *outDir == "" {
		fmt.Fprintln(os.Stderr, "Usage: maskgen -json <dir> -images <dir> -out <dir> [-thickness 5] [-visual] [-mapping <file>]")
		os.Exit(1)
	}
	if *thickness <= 0 {
		fmt.Fprintln(os.Stderr, "maskgen: thickness must be positive")
		os.Exit(1)
	}

	log.SetFlags(log.LstdFlags)
	logger := log.New(os.Stdout, "", log.LstdFlags)

	table := annotation.DefaultClassTable()
	if *mappingPath != "" {
		t, err := loadClassTable(*mappingPath)
		if err != nil {
			logger.Fatalf("maskgen: %v", err)
		}
		table = t
	}

	res, err := convert.GenerateMasks(convert.MaskGenConfig{
		JSONDir:   *jsonDir,
		ImageDir:  *imageDir,
		OutputDir: *outDir,
		Options: convert.RasterizeOptions{
			Thickness:   *thickness,
			VisualScale: *visual,
		},
		Table: table,
		Log:   logger,
	})
	if err != nil {
		logger.Fatalf("maskgen: %v", err)
	}

	logger.Printf("done: %d processed, %d generated, %d failed", res.Processed, res.Generated, res.Failed)
	if res.Failed > 0 {
		os.Exit(1)
	}
}

// loadClassTable reads a mapping file of 'id, label' lines into a validated
// class table.
func loadClassTable(path string) (*annotation.ClassTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}
	byValue, err := annotation.ParseValueMapping(string(data))
	if err != nil {
		return nil, err
	}

	mapping := make(map[string]int, len(byValue))
	for value, label := range byValue {
		if _, dup := mapping[label]; dup {
			return nil, fmt.Errorf("mapping file: duplicate label %q", label)
		}
		mapping[label] = int(value)
	}
	return annotation.NewClassTable(mapping)
}
