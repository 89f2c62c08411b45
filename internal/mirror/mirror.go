// Package mirror implements the socket collaborator named in spec.md
// §6: a Unix-domain or TCP listener that mirrors every tty RX byte to
// all connected clients and decodes client input back into the
// connection engine, one forwardable byte per read event.
package mirror

import (
	"fmt"
	"net"
	"strings"
	"sync"
)

// Parse splits a --socket value of the form "unix:/path" or
// "tcp:host:port" into a net.Listen network/address pair.
func Parse(spec string) (network, address string, err error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid socket spec %q, want unix:<path> or tcp:<host:port>", spec)
	}
	switch parts[0] {
	case "unix":
		return "unix", parts[1], nil
	case "tcp":
		return "tcp", parts[1], nil
	default:
		return "", "", fmt.Errorf("unknown socket scheme %q", parts[0])
	}
}

// Mirror listens on a Unix-domain or TCP address and relays bytes
// between all connected clients and the engine.
type Mirror struct {
	ln net.Listener

	mu      sync.Mutex
	clients map[net.Conn]struct{}

	// Incoming carries one byte per client read event, for the engine
	// to forward to the tty per spec.md §6.
	Incoming chan byte
}

// Listen opens a listener per spec, as produced by Parse.
func Listen(spec string) (*Mirror, error) {
	network, address, err := Parse(spec)
	if err != nil {
		return nil, err
	}
	ln, err := net.Listen(network, address)
	if err != nil {
		return nil, fmt.Errorf("mirror listen: %w", err)
	}
	return &Mirror{
		ln:       ln,
		clients:  make(map[net.Conn]struct{}),
		Incoming: make(chan byte, 256),
	}, nil
}

// Serve accepts connections until the listener is closed. Call it in
// its own goroutine.
func (m *Mirror) Serve() {
	for {
		conn, err := m.ln.Accept()
		if err != nil {
			return
		}
		m.mu.Lock()
		m.clients[conn] = struct{}{}
		m.mu.Unlock()
		go m.readLoop(conn)
	}
}

func (m *Mirror) readLoop(conn net.Conn) {
	defer func() {
		m.mu.Lock()
		delete(m.clients, conn)
		m.mu.Unlock()
		conn.Close()
	}()
	buf := make([]byte, 1)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			select {
			case m.Incoming <- buf[0]:
			default:
				// engine not draining fast enough: drop rather than block the reader
			}
		}
		if err != nil {
			return
		}
	}
}

// Tee mirrors one RX byte to every connected client.
func (m *Mirror) Tee(b byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for c := range m.clients {
		c.Write([]byte{b})
	}
}

// Close shuts down the listener and all connected clients.
func (m *Mirror) Close() error {
	m.mu.Lock()
	for c := range m.clients {
		c.Close()
	}
	m.mu.Unlock()
	return m.ln.Close()
}
