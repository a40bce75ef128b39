package convert

import (
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"

	"masklab/internal/annotation"
	"masklab/pkg/geometry"
)

func writeTestImage(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func writeRecord(t *testing.T, path string, set annotation.Set) {
	t.Helper()
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestGenerateMasks(t *testing.T) {
	jsonDir := t.TempDir()
	imageDir := t.TempDir()
	outDir := t.TempDir()

	writeTestImage(t, filepath.Join(imageDir, "scene.png"), 100, 100)
	writeRecord(t, filepath.Join(jsonDir, "scene.json"), annotation.Set{
		OriginalSize: annotation.SizePx{Width: 100, Height: 100},
		Annotations: []annotation.Annotation{
			annotation.NewRectangle("object", geometry.Point2D{X: 10, Y: 10}, geometry.Point2D{X: 60, Y: 60}),
		},
	})
	// A record with no matching image fails without stopping the run.
	writeRecord(t, filepath.Join(jsonDir, "orphan.json"), annotation.Set{
		OriginalSize: annotation.SizePx{Width: 10, Height: 10},
	})

	res, err := GenerateMasks(MaskGenConfig{
		JSONDir:   jsonDir,
		ImageDir:  imageDir,
		OutputDir: outDir,
		Log:       quietLogger(),
	})
	if err != nil {
		t.Fatalf("GenerateMasks: %v", err)
	}
	if res.Processed != 2 || res.Generated != 1 || res.Failed != 1 {
		t.Fatalf("result = %+v, want 2 processed, 1 generated, 1 failed", res)
	}

	maskPath := filepath.Join(outDir, "scene_mask.png")
	mask := gocv.IMRead(maskPath, gocv.IMReadGrayScale)
	if mask.Empty() {
		t.Fatalf("mask not written to %s", maskPath)
	}
	defer mask.Close()
	if got := mask.GetUCharAt(30, 30); got != 2 {
		t.Errorf("mask pixel = %d, want class 2", got)
	}
	if _, err := os.Stat(filepath.Join(outDir, "orphan_mask.png")); !os.IsNotExist(err) {
		t.Error("failed item produced an output file")
	}
}

func TestGenerateMasksSizeFallback(t *testing.T) {
	jsonDir := t.TempDir()
	imageDir := t.TempDir()
	outDir := t.TempDir()

	writeTestImage(t, filepath.Join(imageDir, "scene.png"), 64, 48)
	// Record without original_size; dimensions come from the image file.
	if err := os.WriteFile(filepath.Join(jsonDir, "scene.json"),
		[]byte(`{"annotations":[{"label":"lines","type":"line","coordinates_original":[[5,5],[40,5]]}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := GenerateMasks(MaskGenConfig{
		JSONDir:   jsonDir,
		ImageDir:  imageDir,
		OutputDir: outDir,
		Log:       quietLogger(),
	})
	if err != nil {
		t.Fatalf("GenerateMasks: %v", err)
	}
	if res.Generated != 1 {
		t.Fatalf("result = %+v, want 1 generated", res)
	}

	mask := gocv.IMRead(filepath.Join(outDir, "scene_mask.png"), gocv.IMReadGrayScale)
	if mask.Empty() {
		t.Fatal("mask not written")
	}
	defer mask.Close()
	if mask.Cols() != 64 || mask.Rows() != 48 {
		t.Errorf("mask is %dx%d, want 64x48 from the image file", mask.Cols(), mask.Rows())
	}
}

func TestVectorizeMasks(t *testing.T) {
	maskDir := t.TempDir()
	outDir := t.TempDir()

	mask := gocv.Zeros(80, 80, gocv.MatTypeCV8UC1)
	fillRect(&mask, image.Rect(10, 10, 50, 50), 2)
	if !gocv.IMWrite(filepath.Join(maskDir, "scene_mask.png"), mask) {
		t.Fatal("failed to write test mask")
	}
	mask.Close()

	// A mask with none of the mapped values produces no record.
	blank := gocv.Zeros(80, 80, gocv.MatTypeCV8UC1)
	if !gocv.IMWrite(filepath.Join(maskDir, "blank_mask.png"), blank) {
		t.Fatal("failed to write blank mask")
	}
	blank.Close()

	res, err := VectorizeMasks(MaskVecConfig{
		MaskDir:   maskDir,
		OutputDir: outDir,
		Mapping:   map[uint8]string{2: "object"},
		Log:       quietLogger(),
	})
	if err != nil {
		t.Fatalf("VectorizeMasks: %v", err)
	}
	if res.Processed != 2 || res.Generated != 1 || res.Skipped != 1 {
		t.Fatalf("result = %+v, want 2 processed, 1 generated, 1 skipped", res)
	}

	// The mask suffix is stripped from the record name.
	recordPath := filepath.Join(outDir, VectorOutputSubdir, "scene.json")
	data, err := os.ReadFile(recordPath)
	if err != nil {
		t.Fatalf("record not written: %v", err)
	}
	var set annotation.Set
	if err := json.Unmarshal(data, &set); err != nil {
		t.Fatalf("record does not parse: %v", err)
	}
	if len(set.Annotations) != 1 || set.Annotations[0].Label != "object" {
		t.Errorf("record = %+v, want one object annotation", set)
	}
	if _, err := os.Stat(filepath.Join(outDir, VectorOutputSubdir, "blank.json")); !os.IsNotExist(err) {
		t.Error("blank mask produced a record")
	}
}

func TestVectorizeMasksEmptyMapping(t *testing.T) {
	if _, err := VectorizeMasks(MaskVecConfig{
		MaskDir:   t.TempDir(),
		OutputDir: t.TempDir(),
		Log:       quietLogger(),
	}); err == nil {
		t.Error("VectorizeMasks accepted an empty mapping")
	}
}
