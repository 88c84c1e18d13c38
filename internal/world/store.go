package world

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// RegionKey identifies one region in world space.
type RegionKey struct {
	X int
	Y int
}

// Source supplies the raw byte pair for a region. Implementations fetch
// from disk, the blob store, or the update server; a missing region is
// (nil, nil, nil), which decodes to a fully empty region.
type Source interface {
	RegionData(ctx context.Context, key RegionKey) (terrain, objects []byte, err error)
}

// regionEntry is one cache slot. The entry itself is the flight: it is
// published to the map before decoding starts, and ready closes when the
// region and collision map are populated.
type regionEntry struct {
	ready     chan struct{}
	region    *MapRegion
	collision *CollisionMap
	err       error
}

// RegionStore is the owned cache of decoded regions, keyed by coordinates.
// GetOrLoad has single-flight semantics: the first caller for a key fetches
// and decodes, concurrent callers for the same key wait on the result, and
// a key is never decoded twice while it stays cached. A region and its
// collision map enter and leave the store together.
type RegionStore struct {
	mu      sync.Mutex
	entries map[RegionKey]*regionEntry
	source  Source
	log     *zap.Logger
}

func NewRegionStore(source Source, log *zap.Logger) *RegionStore {
	return &RegionStore{
		entries: make(map[RegionKey]*regionEntry),
		source:  source,
		log:     log,
	}
}

// GetOrLoad returns the decoded region and collision map for key, loading
// and decoding them if no caller has yet. The map lock is never held across
// fetch or decode; only the per-key flight serializes them.
func (s *RegionStore) GetOrLoad(ctx context.Context, key RegionKey) (*MapRegion, *CollisionMap, error) {
	s.mu.Lock()
	if e, ok := s.entries[key]; ok {
		s.mu.Unlock()
		select {
		case <-e.ready:
			return e.region, e.collision, e.err
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
	e := &regionEntry{ready: make(chan struct{})}
	s.entries[key] = e
	s.mu.Unlock()

	terrain, objects, err := s.source.RegionData(ctx, key)
	if err != nil {
		e.err = err
		close(e.ready)
		// Drop the failed entry so a later caller can retry the fetch.
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur == e {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		s.log.Warn("區域載入失敗",
			zap.Int("regionX", key.X), zap.Int("regionY", key.Y), zap.Error(err))
		return nil, nil, err
	}

	e.region, e.collision = DecodeRegion(terrain, objects)
	close(e.ready)
	s.log.Debug("區域已解碼",
		zap.Int("regionX", key.X), zap.Int("regionY", key.Y),
		zap.Int("objects", len(e.region.Objects)))
	return e.region, e.collision, nil
}

// Peek returns the decoded pair if key is cached and ready, without loading.
func (s *RegionStore) Peek(key RegionKey) (*MapRegion, *CollisionMap, bool) {
	s.mu.Lock()
	e, ok := s.entries[key]
	s.mu.Unlock()
	if !ok {
		return nil, nil, false
	}
	select {
	case <-e.ready:
		if e.err != nil {
			return nil, nil, false
		}
		return e.region, e.collision, true
	default:
		return nil, nil, false
	}
}

// Evict removes a region and its collision map as one unit. An in-flight
// load keeps its entry; callers already waiting still get their result.
func (s *RegionStore) Evict(key RegionKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		select {
		case <-e.ready:
			delete(s.entries, key)
		default:
			// still loading; the flight owns the slot
		}
	}
}

// Len reports the number of cached (including in-flight) regions.
func (s *RegionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
