package world

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func writeGz(t *testing.T, path string, data []byte) {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDirSourceReadsRegionFiles(t *testing.T) {
	dir := t.TempDir()
	terrain := []byte{50, 1, 7, 0, 0}
	objects := []byte{0x01, 0x85, 0x0A, 0x01, 0x00, 0x00}
	writeGz(t, filepath.Join(dir, "m50_50.gz"), terrain)
	writeGz(t, filepath.Join(dir, "l50_50.gz"), objects)

	src := NewDirSource(dir)
	gotTerrain, gotObjects, err := src.RegionData(context.Background(), RegionKey{X: 50, Y: 50})
	if err != nil {
		t.Fatalf("region data: %v", err)
	}
	if !bytes.Equal(gotTerrain, terrain) || !bytes.Equal(gotObjects, objects) {
		t.Fatalf("streams round-tripped wrong: %v / %v", gotTerrain, gotObjects)
	}
}

func TestDirSourceMissingRegionIsEmpty(t *testing.T) {
	src := NewDirSource(t.TempDir())
	terrain, objects, err := src.RegionData(context.Background(), RegionKey{X: 1, Y: 1})
	if err != nil {
		t.Fatalf("missing region must not error: %v", err)
	}
	if terrain != nil || objects != nil {
		t.Fatalf("missing region must yield empty streams, got %v / %v", terrain, objects)
	}

	// An empty pair decodes to an empty region.
	region, _ := DecodeRegion(terrain, objects)
	if len(region.Objects) != 0 {
		t.Fatal("empty streams decoded objects")
	}
}

func TestDirSourceObjectsOnly(t *testing.T) {
	dir := t.TempDir()
	writeGz(t, filepath.Join(dir, "l3_4.gz"), []byte{0x01, 0x85, 0x0A, 0x01, 0x00, 0x00})

	src := NewDirSource(dir)
	terrain, objects, err := src.RegionData(context.Background(), RegionKey{X: 3, Y: 4})
	if err != nil {
		t.Fatalf("region data: %v", err)
	}
	if terrain != nil {
		t.Fatal("absent terrain file must read as empty")
	}
	if len(objects) == 0 {
		t.Fatal("object stream missing")
	}

	region, collision := DecodeRegion(terrain, objects)
	if len(region.Objects) != 1 {
		t.Fatalf("decoded %d objects, want 1", len(region.Objects))
	}
	if collision.At(0, 10, 10)&FlagWallNorth == 0 {
		t.Fatal("wall flag not raised from objects-only region")
	}
}

func TestDirSourceCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "m9_9.gz"), []byte("not gzip"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := NewDirSource(dir).RegionData(context.Background(), RegionKey{X: 9, Y: 9}); err == nil {
		t.Fatal("corrupt gzip must error")
	}
}
