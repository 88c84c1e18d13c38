package net

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs317go/client/internal/net/packet"
	"go.uber.org/zap"
)

// Session owns one connection to the game server: the transport, the cipher
// pair, and both framing directions. Network I/O runs in dedicated
// goroutines; consumers read reassembled packets from InQueue.
//
// The cipher and frame state advance irreversibly with every byte, so each
// direction has exactly one owner: the read loop drives FrameReader and the
// decode cipher, Send (serialized by sendMu) drives FrameWriter and the
// encode cipher.
type Session struct {
	transport Transport

	reader *FrameReader
	writer *FrameWriter
	phase  atomic.Int32 // packet.Phase stored as int32

	sendMu sync.Mutex // serializes Encode calls — cipher order must match queue order

	InQueue  chan packet.Incoming // consumers read packets from here
	OutQueue chan []byte          // writer goroutine reads encoded frames from here

	writeTimeout time.Duration

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	// Per-second packet rate guard (readLoop goroutine only, no lock needed)
	pktPerSec  int
	pktCount   int
	pktResetAt int64

	log *zap.Logger
}

func NewSession(t Transport, catalog *packet.Catalog, inSize, outSize, pktPerSec int, log *zap.Logger) *Session {
	s := &Session{
		transport:    t,
		reader:       NewFrameReader(catalog, packet.ServerToClient),
		writer:       NewFrameWriter(catalog, packet.ClientToServer),
		InQueue:      make(chan packet.Incoming, inSize),
		OutQueue:     make(chan []byte, outSize),
		writeTimeout: 10 * time.Second,
		closeCh:      make(chan struct{}),
		pktPerSec:    pktPerSec,
		log:          log,
	}
	s.phase.Store(int32(packet.PhaseHandshake))
	return s
}

func (s *Session) Phase() packet.Phase {
	return packet.Phase(s.phase.Load())
}

// EnableEncryption installs the cipher pair for both directions and enters
// the encrypted phase. The 4-word seed comes from the session handshake,
// which happens outside this core. Must be called before Start — once the
// loops are running the cipher state has single owners and cannot be
// swapped underneath them.
func (s *Session) EnableEncryption(seed [4]uint32) {
	pair := NewCipherPair(seed, RoleClient)
	s.reader.EnableCipher(pair)
	s.writer.EnableCipher(pair)
	s.phase.Store(int32(packet.PhaseEncrypted))
}

// Start launches the reader and writer goroutines.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// Send frames one packet and queues it for the write loop. Encoding happens
// here, under sendMu, so the encode cipher advances in exactly the order
// frames hit the wire. A full queue means the link cannot keep up; the
// session is closed rather than letting the cipher stream drift from what
// was actually sent.
func (s *Session) Send(opcode byte, payload []byte) error {
	if s.closed.Load() {
		return errors.New("session closed")
	}

	s.sendMu.Lock()
	frame, err := s.writer.Encode(opcode, payload)
	if err != nil {
		s.sendMu.Unlock()
		return err
	}
	select {
	case s.OutQueue <- frame:
		s.sendMu.Unlock()
		return nil
	default:
		s.sendMu.Unlock()
		s.log.Warn("輸出佇列已滿，斷開連線")
		s.Close()
		return errors.New("output queue full")
	}
}

// Close gracefully shuts down the session. Idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.phase.Store(int32(packet.PhaseClosing))
		close(s.closeCh)
		s.transport.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// readLoop runs in its own goroutine. It pulls raw bytes off the transport,
// feeds the frame reader, and pushes completed packets onto InQueue.
func (s *Session) readLoop() {
	defer s.Close()

	buf := make([]byte, 4096)
	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		n, err := s.transport.Read(buf)
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("讀取錯誤", zap.Error(err))
			}
			return
		}

		pkts, err := s.reader.Feed(buf[:n])
		for _, pkt := range pkts {
			if !s.admitPacket() {
				return
			}
			// Block until InQueue has space or the session closes. The
			// readLoop is per-session, so blocking here only stalls this
			// connection — dropping packets would desync game state.
			select {
			case s.InQueue <- pkt:
			case <-s.closeCh:
				return
			}
		}
		if err != nil {
			// ProtocolError: corrupt framing, unrecoverable. Anything the
			// reader emitted before the error is still valid and was queued.
			s.log.Error("封包框架錯誤，斷開連線", zap.Error(err))
			return
		}
	}
}

// admitPacket enforces the per-second inbound packet ceiling.
func (s *Session) admitPacket() bool {
	if s.pktPerSec <= 0 {
		return true
	}
	now := time.Now().Unix()
	if now != s.pktResetAt {
		s.pktCount = 0
		s.pktResetAt = now
	}
	s.pktCount++
	if s.pktCount > s.pktPerSec {
		s.log.Warn("封包速率超限，斷開連線", zap.Int("pps", s.pktCount))
		return false
	}
	return true
}

// writeLoop runs in its own goroutine, draining OutQueue to the transport.
// Frames arrive already encoded (see Send).
func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case frame := <-s.OutQueue:
			if !s.writeOneFrame(frame) {
				return
			}
		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) writeOneFrame(frame []byte) bool {
	if len(frame) > 0 {
		s.log.Debug("TX",
			zap.String("op", fmt.Sprintf("0x%02X(%d)", frame[0], frame[0])),
			zap.Int("len", len(frame)),
		)
	}

	if d, ok := s.transport.(interface{ SetWriteDeadline(time.Time) error }); ok {
		d.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	if _, err := s.transport.Write(frame); err != nil {
		if !s.closed.Load() {
			s.log.Debug("寫入錯誤", zap.Error(err))
		}
		return false
	}
	return true
}
