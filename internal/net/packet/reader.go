package packet

import (
	"encoding/binary"

	"golang.org/x/text/encoding/charmap"
)

// Reader reads fields from a packet payload. All multi-byte reads are
// big-endian. Reads past the end return zero values rather than panicking —
// the framing layer has already validated the payload length against the
// size table, so a short read here means a malformed payload we tolerate.
type Reader struct {
	data []byte
	off  int
}

func NewReader(payload []byte) *Reader {
	return &Reader{data: payload}
}

// ReadUint8 reads 1 unsigned byte.
func (r *Reader) ReadUint8() byte {
	if r.off >= len(r.data) {
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

// ReadUint16 reads 2 bytes as big-endian uint16.
func (r *Reader) ReadUint16() uint16 {
	if r.off+2 > len(r.data) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

// ReadUint24 reads 3 bytes as a big-endian unsigned value.
func (r *Reader) ReadUint24() uint32 {
	if r.off+3 > len(r.data) {
		return 0
	}
	v := uint32(r.data[r.off])<<16 | uint32(r.data[r.off+1])<<8 | uint32(r.data[r.off+2])
	r.off += 3
	return v
}

// ReadInt32 reads 4 bytes as big-endian int32.
func (r *Reader) ReadInt32() int32 {
	if r.off+4 > len(r.data) {
		return 0
	}
	v := int32(binary.BigEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v
}

// ReadString reads a newline-terminated windows-1252 string as UTF-8.
func (r *Reader) ReadString() string {
	start := r.off
	for r.off < len(r.data) {
		if r.data[r.off] == '\n' {
			raw := r.data[start:r.off]
			r.off++ // skip terminator
			return cp1252ToUTF8(raw)
		}
		r.off++
	}
	return cp1252ToUTF8(r.data[start:r.off])
}

// cp1252ToUTF8 converts windows-1252 bytes to a UTF-8 string. Pure ASCII
// passes through unchanged.
func cp1252ToUTF8(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	allASCII := true
	for _, b := range raw {
		if b >= 0x80 {
			allASCII = false
			break
		}
	}
	if allASCII {
		return string(raw)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw) // fallback to raw bytes
	}
	return string(decoded)
}

// ReadBytes reads n raw bytes.
func (r *Reader) ReadBytes(n int) []byte {
	if r.off+n > len(r.data) {
		remaining := r.data[r.off:]
		r.off = len(r.data)
		return remaining
	}
	b := make([]byte, n)
	copy(b, r.data[r.off:r.off+n])
	r.off += n
	return b
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}
