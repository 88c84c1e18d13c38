package packet

import (
	"bytes"
	"testing"
)

func TestReaderFields(t *testing.T) {
	w := NewWriter()
	w.WriteUint8(0xAB)
	w.WriteUint16(0x1234)
	w.WriteUint24(0xABCDEF)
	w.WriteInt32(-1)
	w.WriteString("hello")
	w.WriteBytes([]byte{9, 8, 7})

	r := NewReader(w.Bytes())
	if got := r.ReadUint8(); got != 0xAB {
		t.Fatalf("uint8 %#x", got)
	}
	if got := r.ReadUint16(); got != 0x1234 {
		t.Fatalf("uint16 %#x", got)
	}
	if got := r.ReadUint24(); got != 0xABCDEF {
		t.Fatalf("uint24 %#x", got)
	}
	if got := r.ReadInt32(); got != -1 {
		t.Fatalf("int32 %d", got)
	}
	if got := r.ReadString(); got != "hello" {
		t.Fatalf("string %q", got)
	}
	if got := r.ReadBytes(3); !bytes.Equal(got, []byte{9, 8, 7}) {
		t.Fatalf("bytes %v", got)
	}
	if r.Remaining() != 0 {
		t.Fatalf("remaining %d", r.Remaining())
	}
}

func TestReaderBigEndianLayout(t *testing.T) {
	r := NewReader([]byte{0x12, 0x34, 0x56, 0x78})
	if got := r.ReadUint16(); got != 0x1234 {
		t.Fatalf("first uint16 %#x, want 0x1234", got)
	}
	if got := r.ReadUint16(); got != 0x5678 {
		t.Fatalf("second uint16 %#x, want 0x5678", got)
	}
}

func TestStringWindows1252RoundTrip(t *testing.T) {
	// é is 0xE9 in windows-1252, two bytes in UTF-8.
	w := NewWriter()
	w.WriteString("café")

	wire := w.Bytes()
	if !bytes.Equal(wire, []byte{'c', 'a', 'f', 0xE9, '\n'}) {
		t.Fatalf("wire encoding %v", wire)
	}
	if got := NewReader(wire).ReadString(); got != "café" {
		t.Fatalf("decoded %q", got)
	}
}

func TestReadStringWithoutTerminator(t *testing.T) {
	r := NewReader([]byte("truncated"))
	if got := r.ReadString(); got != "truncated" {
		t.Fatalf("got %q", got)
	}
	if r.Remaining() != 0 {
		t.Fatalf("remaining %d", r.Remaining())
	}
}

func TestReaderShortReadsReturnZero(t *testing.T) {
	r := NewReader([]byte{0x01})
	if got := r.ReadUint16(); got != 0 {
		t.Fatalf("short uint16 %#x, want 0", got)
	}
	if got := r.ReadUint8(); got != 1 {
		t.Fatalf("offset moved by failed read: %#x", got)
	}
	if got := r.ReadInt32(); got != 0 {
		t.Fatalf("exhausted int32 %d, want 0", got)
	}
	if got := r.ReadBytes(5); len(got) != 0 {
		t.Fatalf("exhausted ReadBytes returned %v", got)
	}
}
