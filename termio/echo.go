package termio

import (
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh/terminal"
)

// Term is the interactive-echo framing: every received character is echoed
// back, backspace erases the last buffered character, and messages written
// while the user is mid-line repaint the prompt and pending input. Used when
// the client is a raw terminal with no local line editing.
type Term struct {
	*terminal.Terminal
	conn      net.Conn
	closeOnce sync.Once
	closeErr  error
}

// NewTerm wraps a raw connection in a terminal emulator.
func NewTerm(conn net.Conn) *Term {
	return &Term{
		Terminal: terminal.NewTerminal(conn, ""),
		conn:     conn,
	}
}

func (t *Term) ReadLine() (string, error) {
	line, err := t.Terminal.ReadLine()
	if err == nil {
		return strings.TrimSpace(line), nil
	}
	if err == io.EOF {
		return "", ErrClosed
	}
	if IsTimeout(err) {
		return "", err
	}
	return "", ErrClosed
}

func (t *Term) WriteLine(text string) error {
	if _, err := fmt.Fprintf(t.Terminal, "%s\r\n", text); err != nil {
		return ErrClosed
	}
	return nil
}

func (t *Term) WriteString(text string) error {
	if _, err := t.Terminal.Write([]byte(text)); err != nil {
		return ErrClosed
	}
	return nil
}

func (t *Term) SetReadDeadline(d time.Time) error {
	return t.conn.SetReadDeadline(d)
}

func (t *Term) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}
