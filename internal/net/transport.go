package net

import (
	"fmt"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// Transport is the minimal capability the protocol core needs from a
// connection. The desktop client dials TCP, the browser build rides a
// WebSocket; the cipher and framing layers never see the difference.
type Transport interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// DialTCP opens a plain TCP transport.
func DialTCP(addr string, timeout time.Duration) (Transport, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}
	return conn, nil
}

// wsTransport bridges a message-based WebSocket to the byte-stream Transport
// shape. Binary messages are buffered and drained by successive Reads.
type wsTransport struct {
	conn *websocket.Conn
	rest []byte
}

// DialWebSocket opens a WebSocket transport (for gateways that tunnel the
// raw protocol over ws/wss).
func DialWebSocket(url string, timeout time.Duration) (Transport, error) {
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &wsTransport{conn: conn}, nil
}

func (t *wsTransport) Read(p []byte) (int, error) {
	for len(t.rest) == 0 {
		msgType, msg, err := t.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		if msgType != websocket.BinaryMessage {
			continue // the gateway only ever tunnels binary frames
		}
		t.rest = msg
	}
	n := copy(p, t.rest)
	t.rest = t.rest[n:]
	return n, nil
}

func (t *wsTransport) Write(p []byte) (int, error) {
	if err := t.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}
