// Package broker implements the peer-discovery and signaling service:
// browser peers connect over websocket, get an initiator or receiver
// role, and have their WebRTC offer/answer handshake relayed so that the
// bulk asset transfer can happen directly between the peers.
package broker

import (
	"context"
	"net/http"

	"github.com/peerconnect/peerconnect/pkg/config"
	"github.com/peerconnect/peerconnect/pkg/geo"
	"github.com/peerconnect/peerconnect/pkg/logger"
	"github.com/peerconnect/peerconnect/pkg/monitoring"
	"github.com/peerconnect/peerconnect/pkg/network/httpx"
	"github.com/peerconnect/peerconnect/pkg/service"
	"github.com/peerconnect/peerconnect/pkg/webseed"
)

type Broker struct {
	conf     config.PeerConnect
	hub      *Hub
	services service.Group
	log      *logger.Logger
}

func New(conf config.PeerConnect, log *logger.Logger) (*Broker, error) {
	b := &Broker{conf: conf, log: log}

	var seeds *webseed.Store
	if conf.Broker.Peering.PeerVideos {
		seeds = webseed.NewStore(conf.Webseed, log)
		if err := seeds.Scan(); err != nil {
			// no torrents is a degraded bootstrap, not a dead broker
			log.Error().Err(err).Msg("webseed scan failed")
		}
	}

	var resolver geo.Resolver
	if conf.Broker.Geo.Enabled {
		resolver = geo.NewHTTPResolver(conf.Broker.Geo, log)
	}

	b.hub = NewHub(conf.Broker, resolver, seeds, log)

	address := conf.Broker.Server.Address
	if conf.Broker.Server.Https {
		address = conf.Broker.Server.Tls.Address
	}
	srv, err := httpx.NewServer(
		address,
		func(*httpx.Server) httpx.Handler {
			h := http.NewServeMux()
			h.HandleFunc("/ws", b.hub.handleClientConnection)
			if seeds != nil {
				h.Handle("/video/", seeds.VideoHandler())
				h.Handle("/torrent/", seeds.TorrentHandler())
			}
			return h
		},
		httpx.WithHttps(conf.Broker.Server.Https),
		httpx.WithHttpsCert(conf.Broker.Server.Tls.HttpsCert, conf.Broker.Server.Tls.HttpsKey),
		httpx.WithHttpsDomain(conf.Broker.Server.Tls.Domain),
		httpx.WithHttpsRedirectAddress(conf.Broker.Server.Address),
		httpx.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	b.services.Add(srv)
	if seeds != nil {
		b.services.Add(seeds)
	}
	b.services.AddIf(conf.Broker.Monitoring.IsEnabled(), monitoring.New(conf.Broker.Monitoring, "brk", log))
	return b, nil
}

// Hub exposes the session state machine, mostly for the websocket routes.
func (b *Broker) Hub() *Hub { return b.hub }

func (b *Broker) Start() { b.services.Start() }

func (b *Broker) Shutdown(ctx context.Context) error { return b.services.Shutdown(ctx) }
