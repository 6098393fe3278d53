package termio

import (
	"errors"
	"net"
	"time"
)

// ErrClosed is returned once the underlying stream has ended or a write to it
// has failed. It is always terminal for the channel.
var ErrClosed = errors.New("channel closed")

// Channel presents a raw byte stream as a producer and consumer of complete
// lines of text. Implementations differ in framing: some emulate a terminal
// with per-character echo, others buffer until a line terminator arrives.
type Channel interface {
	// ReadLine blocks until a full line is available and returns the trimmed
	// text. It returns ErrClosed if the stream ends, or a timeout error
	// (see IsTimeout) if the read deadline passes first. Partial input is
	// retained across timeouts.
	ReadLine() (string, error)

	// WriteLine frames text for delivery, including a line terminator.
	WriteLine(text string) error

	// WriteString sends text verbatim, with no terminator appended.
	WriteString(text string) error

	// SetPrompt configures the input prompt where the framing supports one.
	SetPrompt(prompt string)

	// SetReadDeadline bounds the next ReadLine call.
	SetReadDeadline(t time.Time) error

	// Close tears down the underlying stream. Safe to call more than once.
	Close() error
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "read timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// ErrTimeout is returned by ReadLine implementations that track deadlines
// themselves rather than through a net.Conn.
var ErrTimeout net.Error = timeoutError{}

// IsTimeout reports whether err is a read deadline expiry rather than a
// terminal stream failure. Callers are expected to re-poll after a timeout.
func IsTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
