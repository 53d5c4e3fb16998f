// Package api defines the wire API between browser peers and the signaling broker.
//
// Each message (request, response, or push) is a JSON-encoded "packet" of the
// following structure:
//
//	id - (optional) a globally unique packet id;
//	 t - (required) one of the predefined unique packet types;
//	 p - (optional) packet payload with arbitrary data.
//
// The packets differentiate by their predefined types with which it is possible
// to unwrap the payload into distinct request/response data structures.
// Offer and answer payloads are opaque WebRTC handshake blobs; the broker
// relays them without ever interpreting their contents.
package api

import (
	"errors"

	"github.com/goccy/go-json"
)

type PT uint8

// Packet codes:
//
//	1x  - asset bootstrap pushes
//	10x - peering handshake
//	11x - failure signals
const (
	LoadServerVideo     PT = 10
	Torrent             PT = 11
	CreateBaseInitiator PT = 100
	CreateReceiverPeer  PT = 101
	OfferToServer       PT = 102
	AnswerToServer      PT = 103
	AnswerToInitiator   PT = 104
	Retry               PT = 110
	Fail                PT = 111
)

func (p PT) String() string {
	switch p {
	case LoadServerVideo:
		return "LoadServerVideo"
	case Torrent:
		return "Torrent"
	case CreateBaseInitiator:
		return "CreateBaseInitiator"
	case CreateReceiverPeer:
		return "CreateReceiverPeer"
	case OfferToServer:
		return "OfferToServer"
	case AnswerToServer:
		return "AnswerToServer"
	case AnswerToInitiator:
		return "AnswerToInitiator"
	case Retry:
		return "Retry"
	case Fail:
		return "Fail"
	default:
		return "Unknown"
	}
}

type In struct {
	Id      string          `json:"id,omitempty"`
	T       PT              `json:"t"`
	Payload json.RawMessage `json:"p,omitempty"` // RawMessage for 2-pass unmarshal
}

type Out struct {
	Id      string `json:"id,omitempty"`
	T       PT     `json:"t"`
	Payload any    `json:"p,omitempty"`
}

var (
	ErrMalformed   = errors.New("malformed")
	ErrNoInitiator = errors.New("no initiator available")
	ErrUnknownPeer = errors.New("unknown peer")
)

func Unwrap[T any](data []byte) *T {
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil
	}
	return out
}
