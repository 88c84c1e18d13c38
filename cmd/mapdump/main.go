// mapdump decodes cached region files and prints tile/object/collision
// statistics, optionally importing the raw blobs into the postgres store.
//
// Usage:
//
//	go run ./cmd/mapdump -dir data/regions -x 50 -y 50
//	go run ./cmd/mapdump -dir data/regions -x 50 -y 50 -dsn postgres://...
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs317go/client/internal/config"
	"github.com/rs317go/client/internal/persist"
	"github.com/rs317go/client/internal/world"
	"go.uber.org/zap"
)

func main() {
	dir := flag.String("dir", "data/regions", "directory of m{x}_{y}.gz / l{x}_{y}.gz files")
	x := flag.Int("x", -1, "region X")
	y := flag.Int("y", -1, "region Y")
	dsn := flag.String("dsn", "", "optional postgres DSN to import the blobs into")
	flag.Parse()

	if *x < 0 || *y < 0 {
		fmt.Fprintln(os.Stderr, "mapdump: -x and -y are required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*dir, *x, *y, *dsn); err != nil {
		fmt.Fprintf(os.Stderr, "mapdump: %v\n", err)
		os.Exit(1)
	}
}

func run(dir string, x, y int, dsn string) error {
	log := zap.NewNop()
	key := world.RegionKey{X: x, Y: y}

	source := world.NewDirSource(dir)
	terrain, objects, err := source.RegionData(context.Background(), key)
	if err != nil {
		return err
	}
	if terrain == nil && objects == nil {
		return fmt.Errorf("region %d_%d not found in %s", x, y, dir)
	}

	region, collision := world.DecodeRegion(terrain, objects)

	var overlays, blockedTiles, walls int
	for plane := 0; plane < world.Planes; plane++ {
		for tx := 0; tx < world.RegionSize; tx++ {
			for ty := 0; ty < world.RegionSize; ty++ {
				if region.Tiles[plane][tx][ty].OverlayID != 0 {
					overlays++
				}
				flags := collision.At(plane, tx, ty)
				if flags&world.FlagBlocked != 0 {
					blockedTiles++
				}
				if flags&(world.FlagWallNorth|world.FlagWallEast|world.FlagWallSouth|world.FlagWallWest) != 0 {
					walls++
				}
			}
		}
	}

	fmt.Printf("region %d_%d\n", x, y)
	fmt.Printf("  terrain stream:  %d bytes\n", len(terrain))
	fmt.Printf("  object stream:   %d bytes\n", len(objects))
	fmt.Printf("  objects:         %d\n", len(region.Objects))
	fmt.Printf("  overlay tiles:   %d\n", overlays)
	fmt.Printf("  blocked tiles:   %d\n", blockedTiles)
	fmt.Printf("  wall tiles:      %d\n", walls)

	if dsn == "" {
		return nil
	}

	// Import the raw gzip blobs, exactly as they sit on disk.
	rawTerrain, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("m%d_%d.gz", x, y)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	rawObjects, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("l%d_%d.gz", x, y)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, config.DatabaseConfig{
		DSN:             dsn,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return err
	}
	if err := persist.NewRegionRepo(db).Save(ctx, x, y, rawTerrain, rawObjects); err != nil {
		return err
	}
	fmt.Printf("  imported into %s\n", dsn)
	return nil
}
