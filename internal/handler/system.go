package handler

import (
	"github.com/rs317go/client/internal/net"
	"github.com/rs317go/client/internal/net/packet"
	"go.uber.org/zap"
)

// HandleSystemUpdate processes S_SystemUpdate (opcode 114): the server will
// restart in the given number of ticks. Nothing to do client-side but warn.
func HandleSystemUpdate(sess *net.Session, r *packet.Reader, deps *Deps) {
	ticks := r.ReadUint16()
	deps.Log.Warn("伺服器即將重啟", zap.Uint16("ticks", ticks))
}

// HandleLogout processes S_Logout (opcode 109): the server kicked us out.
func HandleLogout(sess *net.Session, r *packet.Reader, deps *Deps) {
	deps.Log.Info("伺服器要求登出")
	sess.Close()
}

// HandleMessage processes S_Message (opcode 253): a game message line.
func HandleMessage(sess *net.Session, r *packet.Reader, deps *Deps) {
	deps.Log.Info("遊戲訊息", zap.String("text", r.ReadString()))
}
