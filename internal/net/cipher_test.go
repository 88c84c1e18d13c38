package net

import (
	"math/rand"
	"testing"
)

func TestIsaacDeterministic(t *testing.T) {
	seeds := [][]uint32{
		{0, 0, 0, 0},
		{1, 2, 3, 4},
		{0xDEADBEEF, 0xCAFEBABE, 0x12345678, 0x9ABCDEF0},
	}
	for _, seed := range seeds {
		a := NewIsaac(seed)
		b := NewIsaac(seed)
		for i := 0; i < 1000; i++ {
			av, bv := a.Next(), b.Next()
			if av != bv {
				t.Fatalf("seed %v: sequences diverge at word %d: %#x != %#x", seed, i, av, bv)
			}
		}
	}
}

func TestIsaacSeedsDiffer(t *testing.T) {
	a := NewIsaac([]uint32{1, 2, 3, 4})
	b := NewIsaac([]uint32{1, 2, 3, 5})
	same := true
	for i := 0; i < 16; i++ {
		if a.Next() != b.Next() {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical output prefix")
	}
}

func TestIsaacNextByteMatchesNext(t *testing.T) {
	a := NewIsaac([]uint32{7, 7, 7, 7})
	b := NewIsaac([]uint32{7, 7, 7, 7})
	for i := 0; i < 600; i++ {
		want := byte(a.Next())
		got := b.NextByte()
		if got != want {
			t.Fatalf("word %d: NextByte %#x != Next&0xFF %#x", i, got, want)
		}
	}
}

func TestIsaacPeekDoesNotAdvance(t *testing.T) {
	c := NewIsaac([]uint32{42, 42, 42, 42})
	// Cross the buffer-exhaustion boundary to cover regeneration in Peek.
	for i := 0; i < 300; i++ {
		p1 := c.Peek()
		p2 := c.Peek()
		if p1 != p2 {
			t.Fatalf("call %d: consecutive peeks differ: %#x != %#x", i, p1, p2)
		}
		if got := c.Next(); got != p1 {
			t.Fatalf("call %d: Next %#x != peeked %#x", i, got, p1)
		}
	}
}

func TestCipherPairRoundTrip(t *testing.T) {
	seed := [4]uint32{0x11111111, 0x22222222, 0x33333333, 0x44444444}
	client := NewCipherPair(seed, RoleClient)
	server := NewCipherPair(seed, RoleServer)

	rng := rand.New(rand.NewSource(317))

	// client→server direction
	for i := 0; i < 1000; i++ {
		op := byte(rng.Intn(256))
		wire := client.EncodeOpcode(op)
		if got := server.DecodeOpcode(wire); got != op {
			t.Fatalf("c→s opcode %d at step %d decoded as %d", op, i, got)
		}
	}
	// server→client direction uses the +50 stream
	for i := 0; i < 1000; i++ {
		op := byte(rng.Intn(256))
		wire := server.EncodeOpcode(op)
		if got := client.DecodeOpcode(wire); got != op {
			t.Fatalf("s→c opcode %d at step %d decoded as %d", op, i, got)
		}
	}
}

func TestCipherPairStatesIndependent(t *testing.T) {
	seed := [4]uint32{9, 9, 9, 9}
	p := NewCipherPair(seed, RoleClient)

	// Draining one direction must not disturb the other.
	ref := NewCipherPair(seed, RoleClient)
	for i := 0; i < 500; i++ {
		p.EncodeOpcode(0)
	}
	for i := 0; i < 100; i++ {
		a := p.DecodeOpcode(0)
		b := ref.DecodeOpcode(0)
		if a != b {
			t.Fatalf("decode stream disturbed by encode usage at step %d", i)
		}
	}
}
