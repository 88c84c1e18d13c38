package net

// Isaac is the ISAAC keystream generator used to obfuscate packet opcodes
// after the handshake. This is a faithful port of the canonical reference
// (Jenkins, rand.c) — the server runs the same construction, so any drift
// here desynchronizes the whole opcode stream.
type Isaac struct {
	results [isaacWords]uint32
	memory  [isaacWords]uint32
	aa      uint32
	bb      uint32
	cc      uint32
	count   int
}

const (
	isaacWords = 256
	isaacMask  = isaacWords - 1

	goldenRatio = 0x9e3779b9
)

// NewIsaac creates a generator seeded with the given words. Identical seeds
// always produce identical output sequences. Seeds shorter than 256 words
// leave the remaining slots zero; the session handshake uses 4 words.
func NewIsaac(seed []uint32) *Isaac {
	c := &Isaac{}
	for i := 0; i < len(seed) && i < isaacWords; i++ {
		c.results[i] = seed[i]
	}
	c.init()
	return c
}

// mix scrambles the eight accumulator words in place. The shift schedule
// (11,2,8,16,10,4,8,9) is the canonical one; it is load-bearing for wire
// compatibility and must not be "improved".
func mix(s *[8]uint32) {
	s[0] ^= s[1] << 11
	s[3] += s[0]
	s[1] += s[2]
	s[1] ^= s[2] >> 2
	s[4] += s[1]
	s[2] += s[3]
	s[2] ^= s[3] << 8
	s[5] += s[2]
	s[3] += s[4]
	s[3] ^= s[4] >> 16
	s[6] += s[3]
	s[4] += s[5]
	s[4] ^= s[5] << 10
	s[7] += s[4]
	s[5] += s[6]
	s[5] ^= s[6] >> 4
	s[0] += s[5]
	s[6] += s[7]
	s[6] ^= s[7] << 8
	s[1] += s[6]
	s[7] += s[0]
	s[7] ^= s[0] >> 9
	s[2] += s[7]
	s[0] += s[1]
}

func (c *Isaac) init() {
	var s [8]uint32
	for i := range s {
		s[i] = goldenRatio
	}
	for i := 0; i < 4; i++ {
		mix(&s)
	}

	// First pass folds the seed (sitting in results) into memory,
	// second pass folds memory into itself.
	for i := 0; i < isaacWords; i += 8 {
		for j := 0; j < 8; j++ {
			s[j] += c.results[i+j]
		}
		mix(&s)
		for j := 0; j < 8; j++ {
			c.memory[i+j] = s[j]
		}
	}
	for i := 0; i < isaacWords; i += 8 {
		for j := 0; j < 8; j++ {
			s[j] += c.memory[i+j]
		}
		mix(&s)
		for j := 0; j < 8; j++ {
			c.memory[i+j] = s[j]
		}
	}

	c.generate()
	c.count = isaacWords
}

// generate refills the 256-word results buffer. Called once from init and
// again whenever Next exhausts the buffer.
func (c *Isaac) generate() {
	c.cc++
	c.bb += c.cc

	for i := 0; i < isaacWords; i++ {
		x := c.memory[i]
		switch i & 3 {
		case 0:
			c.aa ^= c.aa << 13
		case 1:
			c.aa ^= c.aa >> 6
		case 2:
			c.aa ^= c.aa << 2
		case 3:
			c.aa ^= c.aa >> 16
		}
		c.aa += c.memory[(i+128)&isaacMask]
		y := c.memory[(x>>2)&isaacMask] + c.aa + c.bb
		c.memory[i] = y
		c.bb = c.memory[(y>>10)&isaacMask] + x
		c.results[i] = c.bb
	}
}

// Next advances the stream by one word and returns it.
func (c *Isaac) Next() uint32 {
	if c.count == 0 {
		c.generate()
		c.count = isaacWords
	}
	c.count--
	return c.results[c.count]
}

// NextByte returns Next() & 0xFF.
func (c *Isaac) NextByte() byte {
	return byte(c.Next())
}

// Peek returns the value Next would return without advancing the stream.
func (c *Isaac) Peek() uint32 {
	if c.count == 0 {
		c.generate()
		c.count = isaacWords
	}
	return c.results[c.count-1]
}

// Role selects which side of the ±50 seed convention this endpoint plays.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

// seedOffset is the per-word offset applied to the server→client stream
// seeds. Fixed by the protocol.
const seedOffset = 50

// CipherPair holds the two independent ISAAC states of one session: one for
// outgoing opcodes, one for incoming. The client encodes with the raw
// handshake seeds and decodes with each word +50; the server is the mirror,
// so each side's encode stream lines up with the peer's decode stream.
//
// Both states advance irreversibly on every call — a CipherPair must have a
// single owner per direction (see Session).
type CipherPair struct {
	enc *Isaac
	dec *Isaac
}

func NewCipherPair(seed [4]uint32, role Role) *CipherPair {
	raw := make([]uint32, len(seed))
	shifted := make([]uint32, len(seed))
	for i, w := range seed {
		raw[i] = w
		shifted[i] = w + seedOffset
	}

	p := &CipherPair{}
	switch role {
	case RoleServer:
		p.enc = NewIsaac(shifted)
		p.dec = NewIsaac(raw)
	default:
		p.enc = NewIsaac(raw)
		p.dec = NewIsaac(shifted)
	}
	return p
}

// EncodeOpcode transforms a logical opcode into its wire form, advancing the
// encode stream by exactly one byte.
func (p *CipherPair) EncodeOpcode(opcode byte) byte {
	return opcode + p.enc.NextByte()
}

// DecodeOpcode recovers the logical opcode from its wire form, advancing the
// decode stream by exactly one byte.
func (p *CipherPair) DecodeOpcode(wire byte) byte {
	return wire - p.dec.NextByte()
}
