package packet

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Direction distinguishes the two opcode namespaces. Every opcode means a
// different thing (and has a different size) depending on who sent it.
type Direction int

const (
	ServerToClient Direction = iota
	ClientToServer
)

func (d Direction) String() string {
	if d == ClientToServer {
		return "client→server"
	}
	return "server→client"
}

// Size-mode sentinels. A non-negative table entry is an exact payload length.
const (
	VarByte  = -1 // 1-byte unsigned length prefix follows the opcode
	VarShort = -2 // 2-byte big-endian unsigned length prefix follows
)

// Incoming is one fully reassembled packet. Payload never includes the
// opcode or length prefix, and is never cipher-transformed.
type Incoming struct {
	Opcode  byte
	Payload []byte
}

//go:embed sizes317.yaml
var sizes317 []byte

type sizesFile struct {
	Revision       int   `yaml:"revision"`
	ServerToClient []int `yaml:"server_to_client"`
	ClientToServer []int `yaml:"client_to_server"`
}

// Catalog is the revision-pinned framing table: 256 entries per direction,
// loaded once at startup and never mutated afterwards.
type Catalog struct {
	revision int
	s2c      [256]int
	c2s      [256]int
}

// LoadCatalog parses the embedded revision tables.
func LoadCatalog() (*Catalog, error) {
	var f sizesFile
	if err := yaml.Unmarshal(sizes317, &f); err != nil {
		return nil, fmt.Errorf("parse size tables: %w", err)
	}
	if len(f.ServerToClient) != 256 || len(f.ClientToServer) != 256 {
		return nil, fmt.Errorf("size tables must have 256 entries per direction, got %d/%d",
			len(f.ServerToClient), len(f.ClientToServer))
	}
	c := &Catalog{revision: f.Revision}
	for i := 0; i < 256; i++ {
		if f.ServerToClient[i] < VarShort || f.ClientToServer[i] < VarShort {
			return nil, fmt.Errorf("invalid size mode at opcode %d", i)
		}
		c.s2c[i] = f.ServerToClient[i]
		c.c2s[i] = f.ClientToServer[i]
	}
	return c, nil
}

// NewCatalog builds a catalog from explicit tables. Used by tools and tests;
// the client itself always loads the embedded revision data.
func NewCatalog(revision int, s2c, c2s [256]int) *Catalog {
	return &Catalog{revision: revision, s2c: s2c, c2s: c2s}
}

// Revision reports which protocol revision the tables describe.
func (c *Catalog) Revision() int {
	return c.revision
}

// Size returns the size mode for an opcode in the given direction: a fixed
// payload length if ≥ 0, otherwise VarByte or VarShort.
func (c *Catalog) Size(dir Direction, opcode byte) int {
	if dir == ClientToServer {
		return c.c2s[opcode]
	}
	return c.s2c[opcode]
}
