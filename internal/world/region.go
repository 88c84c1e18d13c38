package world

// Region geometry. A region is the unit of map streaming: 64×64 tiles on
// each of 4 planes, keyed externally by (regionX, regionY).
const (
	RegionSize = 64
	Planes     = 4
)

// Tile render-flag bits carried in the terrain stream.
const (
	TileBlocked = 0x1 // tile is unwalkable terrain (water, cliffs)
	TileBridge  = 0x2 // tile belongs to the plane below for clipping
)

// Object type ranges. Types 0–3 are straight walls, 9–11 solid scenery,
// 22 ground decoration; the rest (wall/roof decorations) do not clip.
const (
	objTypeWallMax    = 3
	objTypeDiagonal   = 9
	objTypeSceneryMax = 11
	objTypeFloorDecor = 22
)

// MapTile is one decoded terrain cell. The zero value is the shared empty
// tile — a region starts as 16384 of them and decode overwrites in place.
type MapTile struct {
	Height          int
	OverlayID       int
	OverlayShape    int
	OverlayRotation int
	UnderlayID      int
	Flags           int
}

// EmptyTile is the default value of every undecoded tile.
var EmptyTile = MapTile{}

// MapObject is one object placement within a region.
type MapObject struct {
	ID       int
	LocalX   int // 0..63
	LocalY   int // 0..63
	Plane    int // 0..3
	Type     int
	Rotation int // 0..3
}

// MapRegion owns the decoded tile grid and object list for one region.
// Populated by exactly one decode pass, then read-mostly.
type MapRegion struct {
	Tiles   [Planes][RegionSize][RegionSize]MapTile
	Objects []MapObject
}

// wallFlags maps a straight wall's rotation to the collision bit it raises:
// 0=west, 1=north, 2=east, 3=south.
var wallFlags = [4]int32{FlagWallWest, FlagWallNorth, FlagWallEast, FlagWallSouth}

// DecodeRegion turns a region's raw terrain and object byte streams into a
// populated MapRegion and its paired CollisionMap. Decoding is best-effort:
// truncated or malformed input stops the pass at the point of exhaustion,
// keeps everything decoded so far, and leaves the rest at defaults. It never
// returns an error and never panics.
func DecodeRegion(terrain, objects []byte) (*MapRegion, *CollisionMap) {
	region := &MapRegion{}
	collision := NewCollisionMap()
	decodeTerrain(region, collision, terrain)
	decodeObjects(region, collision, objects)
	return region, collision
}

func decodeTerrain(region *MapRegion, collision *CollisionMap, data []byte) {
	s := stream{data: data}
	for plane := 0; plane < Planes; plane++ {
		for x := 0; x < RegionSize; x++ {
			for y := 0; y < RegionSize; y++ {
				tile, ok := decodeTile(&s)
				if !ok {
					return // truncated mid-tile: partial tile discarded
				}
				region.Tiles[plane][x][y] = tile
				if tile.Flags&TileBlocked != 0 {
					collision.Add(plane, x, y, FlagBlocked)
				}
			}
		}
	}
}

// decodeTile consumes control bytes for one tile until a terminator.
//
//	0       terminate, height stays default
//	1       next byte is the explicit height, terminate
//	2..49   next byte is the overlay id; shape/rotation derive from the opcode
//	50..81  flags = opcode - 49
//	82..255 underlay = opcode - 81
func decodeTile(s *stream) (MapTile, bool) {
	var tile MapTile
	for {
		op, ok := s.u8()
		if !ok {
			return tile, false
		}
		switch {
		case op == 0:
			return tile, true
		case op == 1:
			h, ok := s.u8()
			if !ok {
				return tile, false
			}
			tile.Height = int(h)
			return tile, true
		case op <= 49:
			id, ok := s.u8()
			if !ok {
				return tile, false
			}
			tile.OverlayID = int(id)
			tile.OverlayShape = int(op-2) / 4
			tile.OverlayRotation = int(op-2) & 3
		case op <= 81:
			tile.Flags = int(op) - 49
		default:
			tile.UnderlayID = int(op) - 81
		}
	}
}

// decodeObjects walks the delta-encoded object stream: an outer loop of
// object-id deltas (0 ends the stream) and an inner loop of packed location
// deltas (0 ends the object's placements), each placement followed by one
// attribute byte.
func decodeObjects(region *MapRegion, collision *CollisionMap, data []byte) {
	s := stream{data: data}
	objectID := 0
	for {
		idDelta, ok := s.varint()
		if !ok || idDelta == 0 {
			return
		}
		objectID += idDelta

		locationHash := 0
		for {
			locDelta, ok := s.varint()
			if !ok {
				return
			}
			if locDelta == 0 {
				break
			}
			locationHash += locDelta

			attr, ok := s.u8()
			if !ok {
				return
			}

			obj := MapObject{
				ID:       objectID,
				LocalX:   (locationHash >> 6) & 0x3F,
				LocalY:   locationHash & 0x3F,
				Plane:    (locationHash >> 12) & 0x3,
				Type:     int(attr) >> 2,
				Rotation: int(attr) & 3,
			}
			region.Objects = append(region.Objects, obj)
			addObjectCollision(collision, obj)
		}
	}
}

func addObjectCollision(collision *CollisionMap, obj MapObject) {
	switch {
	case obj.Type <= objTypeWallMax:
		collision.Add(obj.Plane, obj.LocalX, obj.LocalY, wallFlags[obj.Rotation])
	case obj.Type >= objTypeDiagonal && obj.Type <= objTypeSceneryMax:
		collision.Add(obj.Plane, obj.LocalX, obj.LocalY, FlagBlocked)
	case obj.Type == objTypeFloorDecor:
		collision.Add(obj.Plane, obj.LocalX, obj.LocalY, FlagFloorDecoration)
	}
}

// stream is a bounds-checked cursor over one raw byte array.
type stream struct {
	data []byte
	off  int
}

func (s *stream) u8() (byte, bool) {
	if s.off >= len(s.data) {
		return 0, false
	}
	v := s.data[s.off]
	s.off++
	return v, true
}

// maxVarintBytes bounds the continuation loop so corrupt input with the high
// bit stuck on cannot spin forever. Five 7-bit groups cover 32 bits.
const maxVarintBytes = 5

// varint reads an unsigned 7-bits-per-byte integer, high bit = continuation.
func (s *stream) varint() (int, bool) {
	var v uint32
	for i := 0; i < maxVarintBytes; i++ {
		b, ok := s.u8()
		if !ok {
			return 0, false
		}
		v = v<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return int(v), true
		}
	}
	return 0, false // continuation run too long: malformed
}
