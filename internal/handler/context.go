package handler

import (
	"github.com/rs317go/client/internal/config"
	"github.com/rs317go/client/internal/net"
	"github.com/rs317go/client/internal/net/packet"
	"github.com/rs317go/client/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	Config  *config.Config
	Log     *zap.Logger
	Regions *world.RegionStore
}

// anyPhase: the built-ins behave identically whether the dev server runs
// plaintext or the cipher is active.
var anyPhase = []packet.Phase{packet.PhaseHandshake, packet.PhaseEncrypted}

// RegisterAll registers the built-in packet handlers into the registry.
// Everything here stays on the framing side of the payload boundary; game
// logic belongs to plugins and callers.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	reg.Register(packet.S_OPCODE_LOAD_REGION, anyPhase,
		func(sess any, r *packet.Reader) {
			HandleLoadRegion(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.S_OPCODE_SYSTEM_UPDATE, anyPhase,
		func(sess any, r *packet.Reader) {
			HandleSystemUpdate(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.S_OPCODE_LOGOUT, anyPhase,
		func(sess any, r *packet.Reader) {
			HandleLogout(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.S_OPCODE_MESSAGE, anyPhase,
		func(sess any, r *packet.Reader) {
			HandleMessage(sess.(*net.Session), r, deps)
		},
	)
}
