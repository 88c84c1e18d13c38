package packet

import (
	"encoding/binary"

	"golang.org/x/text/encoding/charmap"
)

// Writer builds a packet payload. All multi-byte writes are big-endian.
// The opcode and any length prefix are the framing layer's business, not
// the Writer's — Bytes returns the bare payload.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// WriteUint8 writes 1 byte.
func (w *Writer) WriteUint8(v byte) {
	w.buf = append(w.buf, v)
}

// WriteUint16 writes 2 bytes big-endian.
func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteUint24 writes the low 3 bytes of v big-endian.
func (w *Writer) WriteUint24(v uint32) {
	w.buf = append(w.buf, byte(v>>16), byte(v>>8), byte(v))
}

// WriteInt32 writes 4 bytes big-endian.
func (w *Writer) WriteInt32(v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	w.buf = append(w.buf, b[:]...)
}

// WriteString writes a newline-terminated string, converting UTF-8 to
// windows-1252.
func (w *Writer) WriteString(s string) {
	if len(s) > 0 {
		encoded, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
		if err != nil {
			// Fallback: raw bytes (correct for pure ASCII)
			w.buf = append(w.buf, []byte(s)...)
		} else {
			w.buf = append(w.buf, encoded...)
		}
	}
	w.buf = append(w.buf, '\n')
}

// WriteBytes writes raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// Bytes returns the payload built so far.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the current payload length.
func (w *Writer) Len() int {
	return len(w.buf)
}
