package broker

import (
	"github.com/goccy/go-json"
	"github.com/peerconnect/peerconnect/pkg/api"
	"github.com/peerconnect/peerconnect/pkg/com"
)

// Messenger is the send side of one connected peer.
type Messenger interface {
	Id() com.Uid
	Notify(t api.PT, data any)
}

// Session is the broker's bookkeeping for one connected client.
// A session never outlives its connection and is owned by the hub:
// every field mutation happens under the hub lock.
type Session struct {
	client      Messenger
	isInitiator bool
	offer       json.RawMessage
	location    *api.Location
}
