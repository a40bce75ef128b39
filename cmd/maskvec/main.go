// Command maskvec recovers annotation record files from class mask images.
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
	maskDir := flag.String("masks", "", "Directory containing mask images")
	outDir := flag.String("out", "", "Base output directory (records go to a json_data_from_masks subdirectory)")
	mappingPath := flag.String("mapping", "", "Class mapping file, one 'pixel_value, label' line per class")
	visual := flag.Bool("visual", false, "Match masks written with visually scaled class values (used without -mapping)")
	flag.Parse()

	if *maskDir == "" || *outDir == "" {
		fmt.Fprintln(os.Stderr, "Usage: maskvec -masks <dir> -out <dir> [-mapping <file>] [-visual]")
		os.Exit(1)
	}

	log.SetFlags(log.LstdFlags)
	logger := log.New(os.Stdout, "", log.LstdFlags)

	mapping, err := resolveMapping(*mappingPath, *visual)
	if err != nil {
		logger.Fatalf("maskvec: %v", err)
	}

	res, err := convert.VectorizeMasks(convert.MaskVecConfig{
		MaskDir:   *maskDir,
		OutputDir: *outDir,
		Mapping:   mapping,
		Log:       logger,
	})
	if err != nil {
		logger.Fatalf("maskvec: %v", err)
	}

	logger.Printf("done: %d processed, %d generated, %d skipped, %d failed",
		res.Processed, res.Generated, res.Skipped, res.Failed)
	if res.Failed > 0 {
		os.Exit(1)
	}
}

// resolveMapping builds the pixel-value-to-label mapping from the mapping
// file, or from the default class table when no file is given. Masks written
// with -visual must be read back with the same scaling.
func resolveMapping(path string, visual bool) (map[uint8]string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read mapping file: %w", err)
		}
		return annotation.ParseValueMapping(string(data))
	}

	table := annotation.DefaultClassTable()
	if visual {
		return table.VisualValues(), nil
	}
	return table.Values(), nil
}
