package world

// Per-tile collision flag bits, matching the revision's clipping layout.
// Wall bits sit on the tile that owns the wall; the blocked-from-side bits
// are the projection of a neighbour's wall onto this tile, used by callers
// that clip projectiles and multi-tile entities.
const (
	FlagWallNorth int32 = 0x2
	FlagWallEast  int32 = 0x8
	FlagWallSouth int32 = 0x20
	FlagWallWest  int32 = 0x80

	FlagBlocked int32 = 0x100 // solid object or unwalkable terrain

	FlagBlockedNorth int32 = 0x400
	FlagBlockedEast  int32 = 0x1000
	FlagBlockedSouth int32 = 0x4000
	FlagBlockedWest  int32 = 0x10000

	FlagFloorDecoration int32 = 0x40000
	FlagFloor           int32 = 0x200000

	// FlagBlockMovement is the set of bits that make a tile an invalid
	// destination for walking.
	FlagBlockMovement = FlagBlocked | FlagFloor | FlagFloorDecoration
)

// fullyBlocked is what out-of-range tiles report: every bit set, so no
// query ever walks off the edge of the region.
const fullyBlocked int32 = -1

// CollisionMap is the derived flag grid for one region. Built incrementally
// during the region's decode pass, then queried read-only. A CollisionMap
// and its MapRegion always share one lifecycle.
type CollisionMap struct {
	flags [Planes][RegionSize][RegionSize]int32
}

func NewCollisionMap() *CollisionMap {
	return &CollisionMap{}
}

func inRange(plane, x, y int) bool {
	return plane >= 0 && plane < Planes &&
		x >= 0 && x < RegionSize &&
		y >= 0 && y < RegionSize
}

// Add ORs flag bits into a tile. Out-of-range coordinates are ignored.
func (m *CollisionMap) Add(plane, x, y int, flags int32) {
	if !inRange(plane, x, y) {
		return
	}
	m.flags[plane][x][y] |= flags
}

// At returns a tile's flags. Out-of-range plane or coordinates read as
// fully blocked rather than panicking.
func (m *CollisionMap) At(plane, x, y int) int32 {
	if !inRange(plane, x, y) {
		return fullyBlocked
	}
	return m.flags[plane][x][y]
}

// CanMove validates a single-tile step from (srcX,srcY) to (dstX,dstY) on
// the given plane. North is +y. Only adjacent steps are ever validated at
// this layer; pathfinding composes them.
func (m *CollisionMap) CanMove(plane, srcX, srcY, dstX, dstY int) bool {
	dx := dstX - srcX
	dy := dstY - srcY
	if dx < -1 || dx > 1 || dy < -1 || dy > 1 {
		return false
	}
	if dx == 0 && dy == 0 {
		return inRange(plane, srcX, srcY)
	}
	if dx == 0 || dy == 0 {
		return m.canStep(plane, srcX, srcY, dx, dy)
	}
	// Diagonal: both component cardinals must be open from the source, and
	// both corner tiles must be able to complete the remaining component —
	// a diagonal never cuts through a blocked corner.
	return m.canStep(plane, srcX, srcY, dx, 0) &&
		m.canStep(plane, srcX, srcY, 0, dy) &&
		m.canStep(plane, srcX+dx, srcY, 0, dy) &&
		m.canStep(plane, srcX, srcY+dy, dx, 0)
}

// canStep validates one cardinal step: the destination carries no
// movement-blocking bit, the source has no wall facing the direction of
// travel, and the destination has no wall facing back.
func (m *CollisionMap) canStep(plane, x, y, dx, dy int) bool {
	src := m.At(plane, x, y)
	dst := m.At(plane, x+dx, y+dy)
	if dst&FlagBlockMovement != 0 {
		return false
	}

	var out, back int32
	switch {
	case dy == 1:
		out, back = FlagWallNorth, FlagWallSouth
	case dy == -1:
		out, back = FlagWallSouth, FlagWallNorth
	case dx == 1:
		out, back = FlagWallEast, FlagWallWest
	default:
		out, back = FlagWallWest, FlagWallEast
	}
	return src&out == 0 && dst&back == 0
}
