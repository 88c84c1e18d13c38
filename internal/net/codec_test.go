package net

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/rs317go/client/internal/net/packet"
)

// testCatalog assigns a handful of opcodes across every size mode; all other
// opcodes are zero-length fixed.
func testCatalog() *packet.Catalog {
	var s2c, c2s [256]int
	s2c[7] = 3
	s2c[8] = packet.VarByte
	s2c[9] = packet.VarShort
	s2c[10] = 0
	c2s[7] = 3
	c2s[8] = packet.VarByte
	c2s[9] = packet.VarShort
	return packet.NewCatalog(317, s2c, c2s)
}

func frame(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func feedAll(t *testing.T, fr *FrameReader, data []byte, chunk func() int) []packet.Incoming {
	t.Helper()
	var out []packet.Incoming
	for off := 0; off < len(data); {
		n := chunk()
		if n < 1 {
			n = 1
		}
		if off+n > len(data) {
			n = len(data) - off
		}
		pkts, err := fr.Feed(data[off : off+n])
		if err != nil {
			t.Fatalf("unexpected feed error: %v", err)
		}
		out = append(out, pkts...)
		off += n
	}
	return out
}

func TestFrameReaderChunkingInvariance(t *testing.T) {
	cat := testCatalog()
	wire := frame(
		[]byte{7, 0xAA, 0xBB, 0xCC},            // fixed 3
		[]byte{8, 2, 0x01, 0x02},               // var-byte
		[]byte{9, 0x01, 0x00}, make([]byte, 256), // var-short, 256-byte payload
		[]byte{10}, // fixed 0
	)

	want := feedAll(t, NewFrameReader(cat, packet.ServerToClient), wire, func() int { return len(wire) })
	if len(want) != 4 {
		t.Fatalf("expected 4 packets, got %d", len(want))
	}

	byteAtATime := feedAll(t, NewFrameReader(cat, packet.ServerToClient), wire, func() int { return 1 })
	rng := rand.New(rand.NewSource(1))
	randomChunks := feedAll(t, NewFrameReader(cat, packet.ServerToClient), wire, func() int { return 1 + rng.Intn(7) })

	for name, got := range map[string][]packet.Incoming{"1-byte": byteAtATime, "random": randomChunks} {
		if len(got) != len(want) {
			t.Fatalf("%s: packet count %d != %d", name, len(got), len(want))
		}
		for i := range want {
			if got[i].Opcode != want[i].Opcode || !bytes.Equal(got[i].Payload, want[i].Payload) {
				t.Fatalf("%s: packet %d differs: %+v != %+v", name, i, got[i], want[i])
			}
		}
	}
}

func TestFrameReaderEncryptedOpcodes(t *testing.T) {
	cat := testCatalog()
	seed := [4]uint32{5, 6, 7, 8}
	server := NewCipherPair(seed, RoleServer)
	client := NewCipherPair(seed, RoleClient)

	fr := NewFrameReader(cat, packet.ServerToClient)
	fr.EnableCipher(client)

	// Server sends 100 fixed-size packets with ciphered opcodes.
	var wire []byte
	for i := 0; i < 100; i++ {
		wire = append(wire, server.EncodeOpcode(7), byte(i), byte(i+1), byte(i+2))
	}

	pkts, err := fr.Feed(wire)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(pkts) != 100 {
		t.Fatalf("expected 100 packets, got %d", len(pkts))
	}
	for i, p := range pkts {
		if p.Opcode != 7 {
			t.Fatalf("packet %d: opcode %d after decode, want 7", i, p.Opcode)
		}
		if p.Payload[0] != byte(i) {
			t.Fatalf("packet %d: payload transformed — only opcodes may be ciphered", i)
		}
	}
}

func TestFrameReaderLengthCeiling(t *testing.T) {
	cat := testCatalog()
	fr := NewFrameReader(cat, packet.ServerToClient)

	// var-short length 5001 — above MaxPayload
	_, err := fr.Feed([]byte{9, 0x13, 0x89})
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ProtocolError, got %v", err)
	}
	if perr.Opcode != 9 {
		t.Fatalf("error opcode %d, want 9", perr.Opcode)
	}
}

func TestFrameReaderEmitsBeforeError(t *testing.T) {
	cat := testCatalog()
	fr := NewFrameReader(cat, packet.ServerToClient)

	// one good fixed packet, then a poisoned length
	pkts, err := fr.Feed(frame([]byte{7, 1, 2, 3}, []byte{9, 0xFF, 0xFF}))
	if err == nil {
		t.Fatal("expected protocol error")
	}
	if len(pkts) != 1 || pkts[0].Opcode != 7 {
		t.Fatalf("packets decoded before the error must still be returned, got %v", pkts)
	}
}

func TestFrameWriterRoundTrip(t *testing.T) {
	cat := testCatalog()
	seed := [4]uint32{100, 200, 300, 400}

	fw := NewFrameWriter(cat, packet.ClientToServer)
	fw.EnableCipher(NewCipherPair(seed, RoleClient))
	fr := NewFrameReader(cat, packet.ClientToServer)
	fr.EnableCipher(NewCipherPair(seed, RoleServer))

	cases := []struct {
		opcode  byte
		payload []byte
	}{
		{7, []byte{1, 2, 3}},
		{8, bytes.Repeat([]byte{0x5A}, 200)},
		{9, bytes.Repeat([]byte{0xA5}, 1000)},
		{0, nil},
	}
	var wire []byte
	for _, c := range cases {
		f, err := fw.Encode(c.opcode, c.payload)
		if err != nil {
			t.Fatalf("encode opcode %d: %v", c.opcode, err)
		}
		wire = append(wire, f...)
	}

	pkts, err := fr.Feed(wire)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(pkts) != len(cases) {
		t.Fatalf("got %d packets, want %d", len(pkts), len(cases))
	}
	for i, c := range cases {
		if pkts[i].Opcode != c.opcode {
			t.Fatalf("packet %d: opcode %d, want %d", i, pkts[i].Opcode, c.opcode)
		}
		want := c.payload
		if want == nil {
			want = []byte{}
		}
		if !bytes.Equal(pkts[i].Payload, want) {
			t.Fatalf("packet %d: payload mismatch", i)
		}
	}
}

func TestFrameWriterSizeValidation(t *testing.T) {
	fw := NewFrameWriter(testCatalog(), packet.ClientToServer)

	if _, err := fw.Encode(7, []byte{1, 2}); err == nil {
		t.Fatal("fixed-size mismatch must fail")
	}
	if _, err := fw.Encode(8, make([]byte, 256)); err == nil {
		t.Fatal("var-byte overflow must fail")
	}
	if _, err := fw.Encode(9, make([]byte, MaxPayload+1)); err == nil {
		t.Fatal("var-short over ceiling must fail")
	}
}
