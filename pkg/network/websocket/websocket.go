package websocket

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/peerconnect/peerconnect/pkg/logger"
)

const (
	maxMessageSize = 10 * 1024
	pingTime       = pongTime * 9 / 10
	pongTime       = 60 * time.Second
	readWait       = 5 * time.Second
	writeWait      = 10 * time.Second
	sendQueueSize  = 64
)

type WS struct {
	conn deadlinedConn
	send chan []byte

	handler MessageHandler

	mu     sync.Mutex
	closed bool

	pingPong bool

	shutdown sync.WaitGroup
	once     sync.Once
	Done     chan struct{}

	log *logger.Logger
}

type MessageHandler func(message []byte, err error)

type Upgrader struct {
	websocket.Upgrader
}

var DefaultUpgrader = Upgrader{
	websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		WriteBufferPool: &sync.Pool{},
	},
}

// NewUpgrader makes an upgrader with a relaxed origin check for the given host.
func NewUpgrader(origin string) *Upgrader {
	u := DefaultUpgrader
	if origin == "*" {
		u.CheckOrigin = func(r *http.Request) bool { return true }
	} else if origin != "" {
		u.CheckOrigin = func(r *http.Request) bool { return r.Header.Get("Origin") == origin }
	}
	return &u
}

// NewServerWithConn wraps an already upgraded websocket connection.
func NewServerWithConn(conn *websocket.Conn, log *logger.Logger) (*WS, error) {
	return newSocket(conn, true, log), nil
}

func NewClient(address url.URL, log *logger.Logger) (*WS, error) {
	conn, _, err := websocket.DefaultDialer.Dial(address.String(), nil)
	if err != nil {
		return nil, err
	}
	return newSocket(conn, false, log), nil
}

func newSocket(conn *websocket.Conn, pingPong bool, log *logger.Logger) *WS {
	safeConn := deadlinedConn{sock: conn, wt: writeWait}
	if !pingPong {
		safeConn.rt = readWait
	}
	return &WS{
		conn:     safeConn,
		send:     make(chan []byte, sendQueueSize),
		pingPong: pingPong,
		Done:     make(chan struct{}, 1),
		log:      log,
	}
}

func (ws *WS) SetMessageHandler(fn MessageHandler) { ws.handler = fn }

// Listen starts the read/write pumps of the connection.
// The returned channel signals the connection teardown.
func (ws *WS) Listen() chan struct{} {
	ws.shutdown.Add(2)
	go ws.writer()
	go ws.reader()
	return ws.Done
}

// reader pumps messages from the websocket connection to the message handler.
// Blocking, must be called as goroutine. Serializes all websocket reads.
func (ws *WS) reader() {
	defer func() {
		ws.mu.Lock()
		ws.closed = true
		close(ws.send)
		ws.mu.Unlock()
		ws.shutdown.Done()
		ws.close()
	}()
	ws.conn.setup(func(conn *websocket.Conn) {
		conn.SetReadLimit(maxMessageSize)
		if ws.pingPong {
			_ = conn.SetReadDeadline(time.Now().Add(pongTime))
			conn.SetPongHandler(func(string) error { _ = conn.SetReadDeadline(time.Now().Add(pongTime)); return nil })
		}
	})
	for {
		message, err := ws.conn.read()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.log.Error().Err(err).Msg("ws read fail")
			}
			break
		}
		if ws.handler != nil {
			ws.handler(message, err)
		}
	}
}

// writer pumps messages from the send channel to the websocket connection.
// Blocking, must be called as goroutine. Serializes all websocket writes.
func (ws *WS) writer() {
	var ticker *time.Ticker
	if ws.pingPong {
		ticker = time.NewTicker(pingTime)
	}
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
		ws.shutdown.Done()
		ws.close()
	}()
	for {
		if ws.pingPong {
			select {
			case message, ok := <-ws.send:
				if !ws.handleMessage(message, ok) {
					return
				}
			case <-ticker.C:
				if err := ws.conn.write(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		} else {
			message, ok := <-ws.send
			if !ws.handleMessage(message, ok) {
				return
			}
		}
	}
}

func (ws *WS) handleMessage(message []byte, ok bool) bool {
	if !ok {
		_ = ws.conn.write(websocket.CloseMessage, []byte{})
		return false
	}
	if err := ws.conn.write(websocket.TextMessage, message); err != nil {
		return false
	}
	return true
}

// Write queues a message for sending.
// Messages to an already closed or congested connection are dropped.
func (ws *WS) Write(data []byte) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.closed {
		return
	}
	select {
	case ws.send <- data:
	default:
		ws.log.Warn().Msg("ws send queue overflow")
	}
}

func (ws *WS) Close() {
	_ = ws.conn.write(websocket.CloseMessage, []byte{})
	_ = ws.conn.close()
}

func (ws *WS) close() {
	ws.shutdown.Wait()
	ws.once.Do(func() {
		_ = ws.conn.close()
		ws.Done <- struct{}{}
	})
}
