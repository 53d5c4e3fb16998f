package com

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/peerconnect/peerconnect/pkg/api"
	"github.com/peerconnect/peerconnect/pkg/logger"
	"github.com/peerconnect/peerconnect/pkg/network/websocket"
)

// Client is one peer attached to the broker over a websocket connection.
type Client struct {
	id   Uid
	sock *websocket.WS
	log  *logger.Logger
}

// Connector upgrades HTTP requests into broker clients.
type Connector struct {
	wu *websocket.Upgrader
}

type Option = func(c *Connector)

func WithOrigin(origin string) Option {
	return func(c *Connector) { c.wu = websocket.NewUpgrader(origin) }
}

func NewConnector(opts ...Option) *Connector {
	c := &Connector{}
	for _, opt := range opts {
		opt(c)
	}
	if c.wu == nil {
		c.wu = &websocket.DefaultUpgrader
	}
	return c
}

// NewClient upgrades an incoming HTTP request into a connected Client.
func (co *Connector) NewClient(w http.ResponseWriter, r *http.Request, log *logger.Logger) (*Client, error) {
	conn, err := co.wu.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	id := NewUid()
	clog := log.Extend(log.With().Str(logger.ClientField, id.Short()))
	sock, err := websocket.NewServerWithConn(conn, clog)
	if err != nil {
		return nil, err
	}
	clog.Debug().Msg("Connect")
	return &Client{id: id, sock: sock, log: clog}, nil
}

func (c *Client) Id() Uid { return c.id }

func (c *Client) Log() *logger.Logger { return c.log }

// OnPacket sets the handler for incoming packets. Malformed frames are
// passed through with a nil payload so the caller can reject them.
func (c *Client) OnPacket(fn func(in api.In)) {
	c.sock.SetMessageHandler(func(message []byte, err error) {
		if err != nil {
			c.log.Error().Err(err).Send()
			return
		}
		var in api.In
		if err = json.Unmarshal(message, &in); err != nil {
			c.log.Error().Err(err).Msg("broken packet")
			in = api.In{}
		}
		c.log.Debug().Str(logger.DirectionField, "←").Msgf("%v", in.T)
		fn(in)
	})
}

// Notify sends a push message to the client and doesn't wait for anything.
func (c *Client) Notify(t api.PT, data any) {
	c.log.Debug().Str(logger.DirectionField, "→").Msgf("%v", t)
	r, err := json.Marshal(api.Out{T: t, Payload: data})
	if err != nil {
		c.log.Error().Err(err).Msg("can't marshal packet")
		return
	}
	c.sock.Write(r)
}

// Listen starts the connection pumps, the returned channel signals teardown.
func (c *Client) Listen() chan struct{} { return c.sock.Listen() }

func (c *Client) Disconnect() {
	c.sock.Close()
	c.log.Debug().Str(logger.DirectionField, "x").Msg("Close")
}
