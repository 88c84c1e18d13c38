package world

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/rs317go/client/internal/persist"
)

// DirSource reads region byte streams from a directory of gzip files named
// m{x}_{y}.gz (terrain) and l{x}_{y}.gz (objects), the layout the map
// dumper produces. A missing file is an empty stream, not an error.
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) RegionData(_ context.Context, key RegionKey) ([]byte, []byte, error) {
	terrain, err := readGzipFile(filepath.Join(s.dir, fmt.Sprintf("m%d_%d.gz", key.X, key.Y)))
	if err != nil {
		return nil, nil, fmt.Errorf("region %d_%d terrain: %w", key.X, key.Y, err)
	}
	objects, err := readGzipFile(filepath.Join(s.dir, fmt.Sprintf("l%d_%d.gz", key.X, key.Y)))
	if err != nil {
		return nil, nil, fmt.Errorf("region %d_%d objects: %w", key.X, key.Y, err)
	}
	return terrain, objects, nil
}

func readGzipFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// RepoSource reads region byte streams from the blob store. Blobs are
// stored gzipped, exactly as fetched.
type RepoSource struct {
	repo *persist.RegionRepo
}

func NewRepoSource(repo *persist.RegionRepo) *RepoSource {
	return &RepoSource{repo: repo}
}

func (s *RepoSource) RegionData(ctx context.Context, key RegionKey) ([]byte, []byte, error) {
	row, err := s.repo.Load(ctx, key.X, key.Y)
	if err != nil {
		return nil, nil, fmt.Errorf("region %d_%d: %w", key.X, key.Y, err)
	}
	if row == nil {
		return nil, nil, nil
	}
	terrain, err := gunzip(row.Terrain)
	if err != nil {
		return nil, nil, fmt.Errorf("region %d_%d terrain: %w", key.X, key.Y, err)
	}
	objects, err := gunzip(row.Objects)
	if err != nil {
		return nil, nil, fmt.Errorf("region %d_%d objects: %w", key.X, key.Y, err)
	}
	return terrain, objects, nil
}

func gunzip(blob []byte) ([]byte, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
