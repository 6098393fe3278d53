package tcpd

import (
	"net"

	"github.com/shazow/rateio"

	"github.com/normanw/pairchat/termio"
)

// Framing selects how accepted connections are presented as line channels.
type Framing int

const (
	// FramingEcho emulates a terminal: per-character echo, backspace editing,
	// prompt repaint. For clients with no local line editing.
	FramingEcho Framing = iota
	// FramingBulk buffers until a line terminator arrives, with no echo. For
	// clients that edit locally and send whole lines.
	FramingBulk
)

// Listener accepts raw TCP connections and yields each as a line channel.
type Listener struct {
	net.Listener
	Framing   Framing
	RateLimit func() rateio.Limiter
}

// Listen opens a raw TCP listener socket.
func Listen(laddr string) (*Listener, error) {
	socket, err := net.Listen("tcp", laddr)
	if err != nil {
		return nil, err
	}
	return &Listener{Listener: socket}, nil
}

// ServeChannel accepts incoming connections and yields them as channels. The
// returned channel is closed once the listener stops accepting.
func (l *Listener) ServeChannel() <-chan termio.Channel {
	ch := make(chan termio.Channel)

	go func() {
		defer close(ch)
		for {
			conn, err := l.Accept()
			if err != nil {
				if ne, ok := err.(net.Error); ok && ne.Temporary() {
					logger.Printf("Failed to accept connection: %v", err)
					continue
				}
				logger.Printf("Listener closed: %v", err)
				return
			}

			if l.RateLimit != nil {
				conn = termio.ReadLimitConn(conn, l.RateLimit())
			}

			switch l.Framing {
			case FramingBulk:
				ch <- termio.NewBulk(conn)
			default:
				ch <- termio.NewTerm(conn)
			}
		}
	}()

	return ch
}
