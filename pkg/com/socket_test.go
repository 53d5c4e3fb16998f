package com

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/peerconnect/peerconnect/pkg/api"
	"github.com/peerconnect/peerconnect/pkg/logger"
	"github.com/peerconnect/peerconnect/pkg/network/websocket"
)

const waitTime = 3 * time.Second

type wsPeer struct {
	sock *websocket.WS
	recv chan []byte
	done chan struct{}
}

// dial opens a raw websocket to the test server, the way a browser would.
func dial(t *testing.T, serverURL string) *wsPeer {
	t.Helper()
	addr, err := url.Parse(serverURL)
	if err != nil {
		t.Fatal(err)
	}
	sock, err := websocket.NewClient(url.URL{Scheme: "ws", Host: addr.Host, Path: "/ws"}, logger.Default())
	if err != nil {
		t.Fatalf("couldn't dial %v: %v", addr.Host, err)
	}
	p := &wsPeer{sock: sock, recv: make(chan []byte, 8)}
	sock.SetMessageHandler(func(m []byte, err error) {
		if err == nil {
			p.recv <- m
		}
	})
	p.done = sock.Listen()
	return p
}

func (p *wsPeer) next(t *testing.T) []byte {
	t.Helper()
	select {
	case m := <-p.recv:
		return m
	case <-time.After(waitTime):
		t.Fatal("no message from the server")
		return nil
	}
}

func TestClientRoundTrip(t *testing.T) {
	connector := NewConnector()
	packets := make(chan api.In, 8)
	served := make(chan *Client, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := connector.NewClient(w, r, logger.Default())
		if err != nil {
			t.Errorf("couldn't upgrade the connection: %v", err)
			return
		}
		c.OnPacket(func(in api.In) { packets <- in })
		c.Listen()
		served <- c
	}))
	defer srv.Close()

	peer := dial(t, srv.URL)
	var server *Client
	select {
	case server = <-served:
	case <-time.After(waitTime):
		t.Fatal("the server never saw the connection")
	}
	if server.Id().IsEmpty() {
		t.Fatal("a connected client must have an id")
	}

	// peer to server
	raw, err := json.Marshal(api.Out{T: api.OfferToServer, Payload: api.OfferRequest{
		Offer: json.RawMessage(`{"sdp":"v=0"}`),
	}})
	if err != nil {
		t.Fatal(err)
	}
	peer.sock.Write(raw)
	in := nextPacket(t, packets)
	if in.T != api.OfferToServer {
		t.Fatalf("wrong packet type %v", in.T)
	}
	rq := api.Unwrap[api.OfferRequest](in.Payload)
	if rq == nil || !strings.Contains(string(rq.Offer), "v=0") {
		t.Fatalf("wrong payload: %+v", rq)
	}

	// a broken frame surfaces as an empty packet for the hub to reject
	peer.sock.Write([]byte(`{"t":`))
	in = nextPacket(t, packets)
	if in.T != 0 || in.Payload != nil {
		t.Fatalf("a broken frame should come through empty, got %+v", in)
	}

	// server to peer
	server.Notify(api.Retry, api.RetryResponse{Reason: "busy"})
	var out api.In
	if err := json.Unmarshal(peer.next(t), &out); err != nil {
		t.Fatal(err)
	}
	if out.T != api.Retry {
		t.Fatalf("wrong packet type %v", out.T)
	}
	if rr := api.Unwrap[api.RetryResponse](out.Payload); rr == nil || rr.Reason != "busy" {
		t.Fatalf("wrong payload: %+v", rr)
	}

	// server-side teardown reaches the peer
	server.Disconnect()
	select {
	case <-peer.done:
	case <-time.After(waitTime):
		t.Fatal("peer teardown timed out")
	}
}

func nextPacket(t *testing.T, packets chan api.In) api.In {
	t.Helper()
	select {
	case in := <-packets:
		return in
	case <-time.After(waitTime):
		t.Fatal("no packet from the peer")
		return api.In{}
	}
}
