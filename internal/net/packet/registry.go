package packet

import (
	"fmt"

	"go.uber.org/zap"
)

// Phase represents the session's current protocol phase.
type Phase int

const (
	PhaseHandshake Phase = iota // plaintext opcodes, pre-seed-exchange
	PhaseEncrypted              // opcodes transformed through the cipher pair
	PhaseClosing
)

func (p Phase) String() string {
	switch p {
	case PhaseHandshake:
		return "Handshake"
	case PhaseEncrypted:
		return "Encrypted"
	case PhaseClosing:
		return "Closing"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// HandlerFunc is the callback signature for packet handlers. The session
// pointer is passed as an opaque interface to avoid import cycles.
type HandlerFunc func(sess any, r *Reader)

type handlerEntry struct {
	fn            HandlerFunc
	allowedPhases map[Phase]bool
}

// Registry maps incoming opcodes to handlers with phase-based access control.
// Payload interpretation stays entirely inside the handlers; the registry
// only routes.
type Registry struct {
	handlers map[byte]*handlerEntry
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[byte]*handlerEntry),
		log:      log,
	}
}

// Register maps an opcode to a handler, restricted to the given phases.
func (reg *Registry) Register(opcode byte, phases []Phase, fn HandlerFunc) {
	allowed := make(map[Phase]bool, len(phases))
	for _, p := range phases {
		allowed[p] = true
	}
	reg.handlers[opcode] = &handlerEntry{
		fn:            fn,
		allowedPhases: allowed,
	}
}

// Dispatch finds the handler for the packet's opcode, validates the session
// phase, and calls the handler. Unknown opcodes are logged and skipped —
// the server sends plenty of packets a headless client has no use for.
func (reg *Registry) Dispatch(sess any, phase Phase, pkt Incoming) error {
	reg.log.Debug("收到封包",
		zap.Uint8("opcode", pkt.Opcode),
		zap.Int("size", len(pkt.Payload)),
		zap.String("phase", phase.String()),
	)

	entry, ok := reg.handlers[pkt.Opcode]
	if !ok {
		reg.log.Debug("未處理的操作碼", zap.Uint8("opcode", pkt.Opcode))
		return nil
	}

	if !entry.allowedPhases[phase] {
		reg.log.Warn("操作碼在此階段不允許",
			zap.Uint8("opcode", pkt.Opcode),
			zap.String("phase", phase.String()),
		)
		return fmt.Errorf("opcode %d not allowed in phase %s", pkt.Opcode, phase)
	}

	return reg.safeCall(entry.fn, sess, NewReader(pkt.Payload), pkt.Opcode)
}

// safeCall executes a handler with panic recovery so one malformed payload
// cannot take down the whole dispatch loop.
func (reg *Registry) safeCall(fn HandlerFunc, sess any, r *Reader, opcode byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("處理器 panic 已恢復",
				zap.Uint8("opcode", opcode),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for opcode %d: %v", opcode, rec)
		}
	}()
	fn(sess, r)
	return nil
}
