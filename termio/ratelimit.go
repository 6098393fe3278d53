package termio

import (
	"io"
	"net"

	"github.com/shazow/rateio"
)

type limitedConn struct {
	net.Conn
	io.Reader // Rate-limited io.Reader for net.Conn
}

func (c *limitedConn) Read(p []byte) (n int, err error) {
	return c.Reader.Read(p)
}

// ReadLimitConn returns a net.Conn whose read side is throttled by limiter.
// Exceeding the limit surfaces as a read error, ending the connection.
func ReadLimitConn(conn net.Conn, limiter rateio.Limiter) net.Conn {
	return &limitedConn{
		Conn:   conn,
		Reader: rateio.NewReader(conn, limiter),
	}
}
