package wsd

import (
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/normanw/pairchat/termio"
)

const (
	lineBufferSize = 64
	writeWait      = 10 * time.Second
)

// wsChannel presents a websocket session as a line channel: one text frame
// per line, bulk framing. A single read pump goroutine owns all reads on the
// socket; ReadLine deadlines are tracked against the pump's output so a poll
// timeout does not poison the websocket.
type wsChannel struct {
	socket *websocket.Conn

	lines chan string
	done  chan struct{}
	quit  chan struct{}

	mu       sync.Mutex
	deadline time.Time

	closeOnce sync.Once
	closeErr  error
}

func newChannel(socket *websocket.Conn) *wsChannel {
	c := &wsChannel{
		socket: socket,
		lines:  make(chan string, lineBufferSize),
		done:   make(chan struct{}),
		quit:   make(chan struct{}),
	}
	go c.readPump()
	return c
}

// readPump pumps frames from the websocket into the lines buffer. It is the
// only reader on the socket.
func (c *wsChannel) readPump() {
	defer close(c.done)
	for {
		_, data, err := c.socket.ReadMessage()
		if err != nil {
			return
		}
		for _, line := range splitLines(string(data)) {
			select {
			case c.lines <- line:
			case <-c.quit:
				return
			}
		}
	}
}

// splitLines tolerates clients that batch several lines into one frame.
func splitLines(data string) []string {
	data = strings.Replace(data, "\r\n", "\n", -1)
	data = strings.Replace(data, "\r", "\n", -1)
	return strings.Split(strings.TrimSuffix(data, "\n"), "\n")
}

func (c *wsChannel) ReadLine() (string, error) {
	c.mu.Lock()
	deadline := c.deadline
	c.mu.Unlock()

	var timeout <-chan time.Time
	if !deadline.IsZero() {
		wait := deadline.Sub(time.Now())
		if wait <= 0 {
			return "", termio.ErrTimeout
		}
		timer := time.NewTimer(wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case line := <-c.lines:
		return strings.TrimSpace(line), nil
	case <-timeout:
		return "", termio.ErrTimeout
	case <-c.done:
		// The pump may have exited with lines still buffered.
		select {
		case line := <-c.lines:
			return strings.TrimSpace(line), nil
		default:
		}
		return "", termio.ErrClosed
	}
}

func (c *wsChannel) WriteLine(text string) error {
	return c.write(text + "\r\n")
}

func (c *wsChannel) WriteString(text string) error {
	return c.write(text)
}

func (c *wsChannel) write(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.socket.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.socket.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return termio.ErrClosed
	}
	return nil
}

// SetPrompt is a no-op; websocket clients render their own input affordance.
func (c *wsChannel) SetPrompt(prompt string) {}

func (c *wsChannel) SetReadDeadline(d time.Time) error {
	c.mu.Lock()
	c.deadline = d
	c.mu.Unlock()
	return nil
}

func (c *wsChannel) Close() error {
	c.closeOnce.Do(func() {
		close(c.quit)
		c.closeErr = c.socket.Close()
	})
	return c.closeErr
}
