package convert

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"

	"masklab/internal/annotation"
	"masklab/internal/imageio"
)

// VectorOutputSubdir is the subdirectory, under the chosen output
// directory, that receives JSON records recovered from masks. It is kept
// distinct from the labeling session's own directory so round trips never
// overwrite hand-drawn annotations.
const VectorOutputSubdir = "json_data_from_masks"

// maskSuffix links a mask file to its source image: <base>_mask.png.
const maskSuffix = "_mask"

// BatchResult counts the outcomes of a directory run. A failed item never
// produces an output file.
type BatchResult struct {
	Processed int
	Generated int
	Failed    int
	Skipped   int
}

// MaskGenConfig configures a JSON-to-mask directory run.
type MaskGenConfig struct {
	JSONDir   string
	ImageDir  string
	OutputDir string
	Options   RasterizeOptions
	Table     *annotation.ClassTable
	Log       *log.Logger
}

// GenerateMasks rasterizes every annotation record in cfg.JSONDir into a
// class mask under cfg.OutputDir. Each record must have a matching image in
// cfg.ImageDir; the image supplies the mask size when the record omits it.
// Per-item failures are logged and counted, never fatal to the run.
func GenerateMasks(cfg MaskGenConfig) (BatchResult, error) {
	var res BatchResult
	logger := cfg.Log
	if logger == nil {
		logger = log.Default()
	}
	table := cfg.Table
	if table == nil {
		table = annotation.DefaultClassTable()
	}

	entries, err := os.ReadDir(cfg.JSONDir)
	if err != nil {
		return res, fmt.Errorf("failed to read annotation directory: %w", err)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return res, fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		res.Processed++
		base := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		logger.Printf("processing %s", e.Name())

		imgPath := imageio.FindMatching(cfg.ImageDir, base)
		if imgPath == "" {
			logger.Printf("  %s: %v in %s, skipping", e.Name(), ErrNoImageMatch, cfg.ImageDir)
			res.Failed++
			continue
		}

		data, err := os.ReadFile(filepath.Join(cfg.JSONDir, e.Name()))
		if err != nil {
			logger.Printf("  %s: %v, skipping", e.Name(), err)
			res.Failed++
			continue
		}
		var set annotation.Set
		if err := json.Unmarshal(data, &set); err != nil {
			logger.Printf("  %s: invalid annotation record: %v, skipping", e.Name(), err)
			res.Failed++
			continue
		}

		if !set.OriginalSize.IsValid() {
			size, err := imageio.ProbeSize(imgPath)
			if err != nil {
				logger.Printf("  %s: %v: %v, skipping", e.Name(), ErrImageSizeUnavailable, err)
				res.Failed++
				continue
			}
			logger.Printf("  %s: original size missing, using %dx%d from %s",
				e.Name(), size.Width, size.Height, filepath.Base(imgPath))
			set.OriginalSize = size
		}

		mask, report, err := Rasterize(set, table, cfg.Options)
		if err != nil {
			logger.Printf("  %s: %v, skipping", e.Name(), err)
			res.Failed++
			continue
		}
		for _, skip := range report.Skipped {
			logger.Printf("  %s: %v, skipped", e.Name(), skip)
		}

		outPath := filepath.Join(cfg.OutputDir, base+maskSuffix+".png")
		ok := gocv.IMWrite(outPath, mask)
		mask.Close()
		if !ok {
			logger.Printf("  %s: failed to write %s", e.Name(), outPath)
			res.Failed++
			continue
		}
		logger.Printf("  wrote %s (%d annotation(s) drawn)", outPath, report.Drawn)
		res.Generated++
	}

	return res, nil
}

// MaskVecConfig configures a mask-to-JSON directory run.
type MaskVecConfig struct {
	MaskDir   string
	OutputDir string
	Mapping   map[uint8]string
	Log       *log.Logger
}

// VectorizeMasks recovers annotation records from every mask image in
// cfg.MaskDir and writes them as JSON under
// cfg.OutputDir/json_data_from_masks. Masks in which none of the mapped
// pixel values occur produce no file. Per-item failures are logged and
// counted, never fatal to the run.
func VectorizeMasks(cfg MaskVecConfig) (BatchResult, error) {
	var res BatchResult
	logger := cfg.Log
	if logger == nil {
		logger = log.Default()
	}
	if len(cfg.Mapping) == 0 {
		return res, fmt.Errorf("class mapping is empty")
	}

	names, err := imageio.ListImages(cfg.MaskDir)
	if err != nil {
		return res, fmt.Errorf("failed to read mask directory: %w", err)
	}
	outDir := filepath.Join(cfg.OutputDir, VectorOutputSubdir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return res, fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, name := range names {
		res.Processed++
		logger.Printf("processing %s", name)

		mask := gocv.IMRead(filepath.Join(cfg.MaskDir, name), gocv.IMReadGrayScale)
		if mask.Empty() {
			logger.Printf("  %s: could not read mask image, skipping", name)
			res.Failed++
			continue
		}

		set, stats, err := Vectorize(mask, cfg.Mapping)
		mask.Close()
		if err != nil {
			logger.Printf("  %s: %v, skipping", name, err)
			res.Failed++
			continue
		}
		for _, cs := range stats {
			logger.Printf("  %s: class %q (value %d): %d contour(s), area mean %.1f stddev %.1f",
				name, cs.Label, cs.PixelValue, cs.Contours, cs.MeanArea, cs.StdDevArea)
		}
		if len(set.Annotations) == 0 {
			logger.Printf("  %s: no contours found for the mapped classes, no record written", name)
			res.Skipped++
			continue
		}

		base := strings.TrimSuffix(name, filepath.Ext(name))
		base = strings.TrimSuffix(base, maskSuffix)
		data, err := json.MarshalIndent(set, "", "  ")
		if err != nil {
			logger.Printf("  %s: %v, skipping", name, err)
			res.Failed++
			continue
		}
		outPath := filepath.Join(outDir, base+".json")
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			logger.Printf("  %s: %v, skipping", name, err)
			res.Failed++
			continue
		}
		logger.Printf("  wrote %s (%d annotation(s))", outPath, len(set.Annotations))
		res.Generated++
	}

	return res, nil
}
