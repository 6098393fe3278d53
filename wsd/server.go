package wsd

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/normanw/pairchat/termio"
)

const socketBufferSize = 1024

var upgrader = &websocket.Upgrader{
	ReadBufferSize:  socketBufferSize,
	WriteBufferSize: socketBufferSize,
	CheckOrigin: func(req *http.Request) bool {
		return true
	},
}

// Listener upgrades HTTP requests to websocket sessions and yields each as a
// line channel.
type Listener struct {
	ch chan termio.Channel
}

func NewListener() *Listener {
	return &Listener{ch: make(chan termio.Channel)}
}

// ServeChannel yields one channel per upgraded websocket session.
func (l *Listener) ServeChannel() <-chan termio.Channel {
	return l.ch
}

func (l *Listener) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	socket, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		logger.Printf("Failed to upgrade: %v", err)
		return
	}
	logger.Printf("Upgraded websocket session: %s", req.RemoteAddr)
	l.ch <- newChannel(socket)
}
