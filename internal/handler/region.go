package handler

import (
	"context"
	"time"

	"github.com/rs317go/client/internal/net"
	"github.com/rs317go/client/internal/net/packet"
	"github.com/rs317go/client/internal/world"
	"go.uber.org/zap"
)

// HandleLoadRegion processes S_LoadRegion (opcode 73): the server announces
// the chunk the player now stands in. The surrounding region is warmed in
// the store so movement validation has collision data before the player
// takes a step, then the client acks with C_LoadingFinished.
func HandleLoadRegion(sess *net.Session, r *packet.Reader, deps *Deps) {
	chunkX := int(r.ReadUint16())
	chunkY := int(r.ReadUint16())
	key := world.RegionKey{X: chunkX >> 3, Y: chunkY >> 3}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	region, _, err := deps.Regions.GetOrLoad(ctx, key)
	if err != nil {
		deps.Log.Warn("區域載入失敗，以空區域繼續",
			zap.Int("regionX", key.X), zap.Int("regionY", key.Y), zap.Error(err))
	} else {
		deps.Log.Info("區域就緒",
			zap.Int("regionX", key.X), zap.Int("regionY", key.Y),
			zap.Int("objects", len(region.Objects)))
	}

	if err := sess.Send(packet.C_OPCODE_LOADING_FINISHED, nil); err != nil {
		deps.Log.Debug("loading-finished ack failed", zap.Error(err))
	}
}
