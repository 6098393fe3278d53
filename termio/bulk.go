package termio

import (
	"net"
	"strings"
	"sync"
	"time"
)

// Bulk is the no-echo framing: incoming bytes are buffered until a line
// terminator appears in the accumulated input, splitting exactly at the first
// CR, LF, or CRLF even when the pair spans two reads. Used when the client
// performs its own local line editing and submits whole lines.
type Bulk struct {
	conn      net.Conn
	buf       []byte
	skipLF    bool
	chunk     [512]byte
	closeOnce sync.Once
	closeErr  error
}

// NewBulk wraps a raw connection in the bulk line framing.
func NewBulk(conn net.Conn) *Bulk {
	return &Bulk{conn: conn}
}

func (b *Bulk) ReadLine() (string, error) {
	for {
		if line, ok := b.scanLine(); ok {
			return strings.TrimSpace(line), nil
		}
		n, err := b.conn.Read(b.chunk[:])
		if n > 0 {
			b.buf = append(b.buf, b.chunk[:n]...)
			continue
		}
		if err == nil {
			continue
		}
		if IsTimeout(err) {
			return "", err
		}
		return "", ErrClosed
	}
}

// scanLine splits the buffered input at the first recognized terminator. A CR
// at the end of the buffer completes the line and swallows a LF that may
// arrive in the next read.
func (b *Bulk) scanLine() (string, bool) {
	if b.skipLF {
		if len(b.buf) == 0 {
			return "", false
		}
		if b.buf[0] == '\n' {
			b.buf = b.buf[1:]
		}
		b.skipLF = false
	}
	for i := 0; i < len(b.buf); i++ {
		switch b.buf[i] {
		case '\n':
			line := string(b.buf[:i])
			b.buf = b.buf[i+1:]
			return line, true
		case '\r':
			line := string(b.buf[:i])
			if i+1 < len(b.buf) {
				if b.buf[i+1] == '\n' {
					i++
				}
				b.buf = b.buf[i+1:]
			} else {
				b.buf = b.buf[:0]
				b.skipLF = true
			}
			return line, true
		}
	}
	return "", false
}

func (b *Bulk) WriteLine(text string) error {
	return b.WriteString(text + "\r\n")
}

func (b *Bulk) WriteString(text string) error {
	if _, err := b.conn.Write([]byte(text)); err != nil {
		return ErrClosed
	}
	return nil
}

// SetPrompt writes the prompt once; there is no input line to repaint.
func (b *Bulk) SetPrompt(prompt string) {
	b.WriteString(prompt)
}

func (b *Bulk) SetReadDeadline(d time.Time) error {
	return b.conn.SetReadDeadline(d)
}

func (b *Bulk) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = b.conn.Close()
	})
	return b.closeErr
}
