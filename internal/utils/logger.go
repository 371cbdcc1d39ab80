package utils

import (
	"fmt"
	"log"
	"net"
	"sync"
)

// RemoteLogger broadcasts log lines to every TCP client connected to Port.
// It satisfies io.Writer so it can sit behind log.SetOutput.
type RemoteLogger struct {
	Port     int
	Listener net.Listener

	mu      sync.Mutex
	clients []net.Conn
	closed  bool
}

// NewRemoteLogger starts a TCP listener on the given port.
func NewRemoteLogger(port int) (*RemoteLogger, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("remote logger listen: %w", err)
	}
	rl := &RemoteLogger{
		Port:     ln.Addr().(*net.TCPAddr).Port,
		Listener: ln,
	}
	go rl.acceptClients()
	return rl, nil
}

func (rl *RemoteLogger) acceptClients() {
	for {
		conn, err := rl.Listener.Accept()
		if err != nil {
			rl.mu.Lock()
			closed := rl.closed
			rl.mu.Unlock()
			if closed {
				return
			}
			log.Printf("[LOG] accept failed: %v", err)
			continue
		}
		rl.mu.Lock()
		rl.clients = append(rl.clients, conn)
		rl.mu.Unlock()
	}
}

// Write sends p to all connected clients, dropping the ones that fail.
func (rl *RemoteLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	alive := rl.clients[:0]
	for _, conn := range rl.clients {
		if _, err := conn.Write(p); err != nil {
			_ = conn.Close()
			continue
		}
		alive = append(alive, conn)
	}
	rl.clients = alive
	return len(p), nil
}

// Logf sends a formatted log message to all connected clients.
func (rl *RemoteLogger) Logf(format string, args ...any) {
	_, _ = fmt.Fprintln(rl, fmt.Sprintf(format, args...))
}

func (rl *RemoteLogger) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RemoteLogger) Close() error {
	rl.mu.Lock()
	rl.closed = true
	for _, conn := range rl.clients {
		_ = conn.Close()
	}
	rl.clients = nil
	rl.mu.Unlock()
	return rl.Listener.Close()
}
