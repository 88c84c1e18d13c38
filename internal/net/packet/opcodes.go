package packet

// Opcodes the built-in handlers care about, revision 317. S_ = server→client,
// C_ = client→server. The full opcode space is framed by the size tables;
// everything not listed here is routed to plugins or ignored.
const (
	S_OPCODE_LOAD_REGION   byte = 73  // chunkX u16, chunkY u16
	S_OPCODE_LOGOUT        byte = 109 // no payload
	S_OPCODE_SYSTEM_UPDATE byte = 114 // ticks u16
	S_OPCODE_MESSAGE       byte = 253 // var-byte, newline-terminated string

	C_OPCODE_IDLE             byte = 0   // keepalive, no payload
	C_OPCODE_LOADING_FINISHED byte = 121 // no payload
)
