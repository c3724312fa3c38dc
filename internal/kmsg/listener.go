// Package kmsg collects kernel messages emitted by the guest during a
// campaign. The guest is expected to forward its kernel log over
// netconsole to a UDP port on the host; the listener appends whatever
// arrives to a log file. Both hooks are best-effort and return nothing:
// kernel messages are diagnostic gravy, never a reason to fail a campaign.
package kmsg

import (
	"errors"
	"log/slog"
	"net"
	"os"
	"sync"
)

// Listener brackets a campaign run. Start is called once before the first
// stage, Stop once after the last attempted stage.
type Listener interface {
	Start()
	Stop()
}

// NetconsoleListener receives netconsole UDP datagrams and appends them to
// a file. One listener serves one campaign; it is not safe to share
// across concurrent campaigns.
type NetconsoleListener struct {
	addr    string
	logPath string
	log     *slog.Logger

	mu   sync.Mutex
	conn net.PacketConn
	done chan struct{}
}

// NewNetconsole creates a listener bound to addr (host:port) that appends
// received messages to logPath.
func NewNetconsole(addr, logPath string, log *slog.Logger) *NetconsoleListener {
	if log == nil {
		log = slog.Default()
	}
	return &NetconsoleListener{addr: addr, logPath: logPath, log: log}
}

// Start binds the UDP socket and begins appending datagrams to the log
// file. Failures are logged, not returned.
func (l *NetconsoleListener) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		return
	}

	conn, err := net.ListenPacket("udp", l.addr)
	if err != nil {
		l.log.Warn("kmsg listener failed to bind", "addr", l.addr, "error", err)
		return
	}
	out, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		l.log.Warn("kmsg listener failed to open log", "path", l.logPath, "error", err)
		conn.Close()
		return
	}

	l.conn = conn
	l.done = make(chan struct{})
	l.log.Info("kmsg listener started", "addr", conn.LocalAddr().String(), "log", l.logPath)

	go func(conn net.PacketConn, out *os.File, done chan struct{}) {
		defer close(done)
		defer out.Close()
		buf := make([]byte, 4096)
		for {
			n, _, err := conn.ReadFrom(buf)
			if n > 0 {
				if _, werr := out.Write(buf[:n]); werr != nil {
					l.log.Warn("kmsg listener write failed", "error", werr)
				}
			}
			if err != nil {
				// Closed socket ends the listener; anything else is
				// logged and also ends it.
				if !isClosedErr(err) {
					l.log.Warn("kmsg listener read failed", "error", err)
				}
				return
			}
		}
	}(conn, out, l.done)
}

// Stop closes the socket and waits for the reader to drain. Safe to call
// without a prior successful Start, and safe to call twice.
func (l *NetconsoleListener) Stop() {
	l.mu.Lock()
	conn, done := l.conn, l.done
	l.conn, l.done = nil, nil
	l.mu.Unlock()

	if conn == nil {
		return
	}
	conn.Close()
	<-done
	l.log.Info("kmsg listener stopped", "log", l.logPath)
}

// Addr returns the bound address while the listener is running, or "".
func (l *NetconsoleListener) Addr() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return ""
	}
	return l.conn.LocalAddr().String()
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed)
}

var _ Listener = (*NetconsoleListener)(nil)
