package net

import (
	"encoding/binary"
	"fmt"

	"github.com/rs317go/client/internal/net/packet"
)

// MaxPayload is the protocol ceiling on a variable-length payload. A decoded
// length above this means the stream is corrupt (almost always a
// desynchronized cipher); the connection must be dropped, never serviced.
const MaxPayload = 5000

// ProtocolError is fatal framing-level corruption. There is no recovery at
// this layer — the caller tears the connection down.
type ProtocolError struct {
	Opcode byte
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error on opcode %d: %s", e.Opcode, e.Reason)
}

type frameState int

const (
	awaitOpcode frameState = iota
	awaitLengthPrefix
	awaitPayload
)

// FrameReader reassembles discrete packets from an incrementally delivered
// byte stream. It never assumes a packet's bytes arrive in one chunk: Feed
// may be called with any fragmentation and parsing resumes where it left
// off. One FrameReader per connection, driven by a single goroutine.
type FrameReader struct {
	catalog *packet.Catalog
	dir     packet.Direction
	pair    *CipherPair // nil until the encrypted phase

	buf    []byte
	state  frameState
	opcode byte
	mode   int // size mode of the packet being parsed
	need   int // payload bytes still required
}

func NewFrameReader(catalog *packet.Catalog, dir packet.Direction) *FrameReader {
	return &FrameReader{catalog: catalog, dir: dir}
}

// EnableCipher switches the reader into the encrypted phase. Only the opcode
// byte is ever transformed; payload bytes pass through untouched. Must be
// called from the goroutine that drives Feed, between packets.
func (fr *FrameReader) EnableCipher(pair *CipherPair) {
	fr.pair = pair
}

// Feed appends raw transport bytes and returns every packet that completed.
// A returned *ProtocolError poisons the stream: the connection must be
// closed and the reader discarded.
func (fr *FrameReader) Feed(p []byte) ([]packet.Incoming, error) {
	fr.buf = append(fr.buf, p...)

	var out []packet.Incoming
	for {
		switch fr.state {
		case awaitOpcode:
			if len(fr.buf) < 1 {
				return out, nil
			}
			op := fr.buf[0]
			fr.buf = fr.buf[1:]
			if fr.pair != nil {
				op = fr.pair.DecodeOpcode(op)
			}
			fr.opcode = op
			fr.mode = fr.catalog.Size(fr.dir, op)
			if fr.mode >= 0 {
				fr.need = fr.mode
				fr.state = awaitPayload
			} else {
				fr.state = awaitLengthPrefix
			}

		case awaitLengthPrefix:
			prefixLen := 1
			if fr.mode == packet.VarShort {
				prefixLen = 2
			}
			if len(fr.buf) < prefixLen {
				return out, nil
			}
			var length int
			if prefixLen == 1 {
				length = int(fr.buf[0])
			} else {
				length = int(binary.BigEndian.Uint16(fr.buf))
			}
			fr.buf = fr.buf[prefixLen:]
			if length > MaxPayload {
				return out, &ProtocolError{
					Opcode: fr.opcode,
					Reason: fmt.Sprintf("payload length %d exceeds ceiling %d", length, MaxPayload),
				}
			}
			fr.need = length
			fr.state = awaitPayload

		case awaitPayload:
			if len(fr.buf) < fr.need {
				return out, nil
			}
			payload := make([]byte, fr.need)
			copy(payload, fr.buf[:fr.need])
			fr.buf = fr.buf[fr.need:]
			out = append(out, packet.Incoming{Opcode: fr.opcode, Payload: payload})
			fr.state = awaitOpcode
		}
	}
}

// FrameWriter builds outbound frames: wire opcode (cipher-transformed in the
// encrypted phase), length prefix per the size table, then the payload.
type FrameWriter struct {
	catalog *packet.Catalog
	dir     packet.Direction
	pair    *CipherPair
}

func NewFrameWriter(catalog *packet.Catalog, dir packet.Direction) *FrameWriter {
	return &FrameWriter{catalog: catalog, dir: dir}
}

// EnableCipher switches outbound opcodes into the encrypted phase.
func (fw *FrameWriter) EnableCipher(pair *CipherPair) {
	fw.pair = pair
}

// Encode frames one packet. The payload must agree with the opcode's size
// mode; a mismatch is a programming error on our side and is reported as a
// ProtocolError without advancing the cipher.
func (fw *FrameWriter) Encode(opcode byte, payload []byte) ([]byte, error) {
	mode := fw.catalog.Size(fw.dir, opcode)
	switch {
	case mode >= 0:
		if len(payload) != mode {
			return nil, &ProtocolError{
				Opcode: opcode,
				Reason: fmt.Sprintf("fixed-size packet wants %d bytes, got %d", mode, len(payload)),
			}
		}
	case mode == packet.VarByte:
		if len(payload) > 255 {
			return nil, &ProtocolError{
				Opcode: opcode,
				Reason: fmt.Sprintf("payload %d bytes overflows 1-byte prefix", len(payload)),
			}
		}
	default: // VarShort
		if len(payload) > MaxPayload {
			return nil, &ProtocolError{
				Opcode: opcode,
				Reason: fmt.Sprintf("payload %d bytes exceeds ceiling %d", len(payload), MaxPayload),
			}
		}
	}

	wireOp := opcode
	if fw.pair != nil {
		wireOp = fw.pair.EncodeOpcode(opcode)
	}

	frame := make([]byte, 0, len(payload)+3)
	frame = append(frame, wireOp)
	switch mode {
	case packet.VarByte:
		frame = append(frame, byte(len(payload)))
	case packet.VarShort:
		frame = append(frame, byte(len(payload)>>8), byte(len(payload)))
	}
	return append(frame, payload...), nil
}
