package broker

import (
	"context"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/peerconnect/peerconnect/pkg/api"
	"github.com/peerconnect/peerconnect/pkg/com"
	"github.com/peerconnect/peerconnect/pkg/config"
	"github.com/peerconnect/peerconnect/pkg/geo"
	"github.com/peerconnect/peerconnect/pkg/logger"
	"github.com/peerconnect/peerconnect/pkg/webseed"
)

const geoTimeout = 10 * time.Second

// Hub is the signaling broker: it owns every session and the global
// stats, decides initiator/receiver roles, and relays the offer/answer
// handshake between matched peers. One mutex serializes all role
// decisions and stats updates, so two clients racing through the
// threshold check can't both take the initiator role past the cap.
type Hub struct {
	conf       config.Broker
	assetTypes []string
	connector  *com.Connector

	mu       sync.Mutex
	sessions map[com.Uid]*Session
	order    []com.Uid // connection order, the deterministic scan order for matching
	stats    Stats
	rnd      *rand.Rand

	geo   geo.Resolver
	seeds *webseed.Store
	log   *logger.Logger
}

func NewHub(conf config.Broker, resolver geo.Resolver, seeds *webseed.Store, log *logger.Logger) *Hub {
	return &Hub{
		conf:       conf,
		assetTypes: conf.Peering.AssetTypes(),
		connector:  com.NewConnector(com.WithOrigin(conf.Origin)),
		sessions:   make(map[com.Uid]*Session, 10),
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
		geo:        resolver,
		seeds:      seeds,
		log:        log,
	}
}

// SeedRandom re-seeds the initiator sampling source.
func (h *Hub) SeedRandom(seed int64) {
	h.mu.Lock()
	h.rnd = rand.New(rand.NewSource(seed))
	h.mu.Unlock()
}

// handleClientConnection serves the websocket endpoint for browser peers.
func (h *Hub) handleClientConnection(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if v := recover(); v != nil {
			h.log.Error().Msgf("recovered client handler from %v", v)
		}
	}()

	usr, err := h.connector.NewClient(w, r, h.log)
	if err != nil {
		h.log.Error().Err(err).Msg("couldn't init client connection")
		return
	}
	usr.OnPacket(func(in api.In) { h.routePacket(usr, in) })

	h.Connect(usr)
	done := usr.Listen()
	go h.AssignRole(usr.Id(), geo.ClientIP(r))

	<-done
	h.Disconnect(usr.Id())
}

func (h *Hub) routePacket(usr Messenger, in api.In) {
	switch in.T {
	case api.OfferToServer:
		rq := api.Unwrap[api.OfferRequest](in.Payload)
		if rq == nil || len(rq.Offer) == 0 {
			usr.Notify(api.Fail, api.FailResponse{Error: api.ErrMalformed.Error()})
			return
		}
		h.HandleOffer(usr.Id(), *rq)
	case api.AnswerToServer:
		rq := api.Unwrap[api.AnswerRequest](in.Payload)
		if rq == nil || len(rq.Answer) == 0 || rq.PeerId == "" {
			usr.Notify(api.Fail, api.FailResponse{Error: api.ErrMalformed.Error()})
			return
		}
		h.HandleAnswer(usr.Id(), *rq)
	default:
		usr.Notify(api.Fail, api.FailResponse{Error: api.ErrMalformed.Error()})
	}
}

// Connect registers a new session and pushes the one-time asset
// bootstrap. Role assignment happens separately in AssignRole.
func (h *Hub) Connect(m Messenger) {
	h.mu.Lock()
	h.sessions[m.Id()] = &Session{client: m}
	h.order = append(h.order, m.Id())
	h.stats.addClient()
	clients, initiators := h.stats.Clients, h.stats.Initiators
	h.mu.Unlock()

	clientsGauge.Set(float64(clients))
	h.log.Info().Msgf("connect %v (clients: %v, initiators: %v)", m.Id(), clients, initiators)
	h.bootstrap(m)
}

// bootstrap pushes the media hints unrelated to role assignment.
func (h *Hub) bootstrap(m Messenger) {
	if h.conf.Peering.PeerVideos && h.seeds != nil {
		for _, t := range h.seeds.Torrents() {
			m.Notify(api.Torrent, t)
		}
		return
	}
	m.Notify(api.LoadServerVideo, nil)
}

// AssignRole decides whether the client becomes an initiator or gets
// paired as a receiver. With geolocation on, the client's coordinates
// are resolved first; the lookup may outlive the session, so state is
// re-validated at commit time, and the threshold is re-checked under
// the hub lock, atomically with all other connect/offer/disconnect
// events.
func (h *Hub) AssignRole(id com.Uid, remoteIP string) {
	var loc *api.Location
	if h.geolocates() {
		ctx, cancel := context.WithTimeout(context.Background(), geoTimeout)
		l, err := h.geo.Resolve(ctx, remoteIP)
		cancel()
		if err != nil {
			// matching degrades to an unlocated client, signaling goes on
			geoFailures.Inc()
			h.log.Warn().Err(err).Msgf("geo lookup failed for %v", remoteIP)
		} else {
			loc = l
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	if !ok {
		// disconnected during the lookup
		return
	}
	if loc != nil {
		s.location = loc
	}
	if h.stats.Initiators < h.conf.Peering.Threshold || !h.conf.Peering.PeerImages {
		s.client.Notify(api.CreateBaseInitiator, api.InitiatorSetup{
			AssetTypes:  h.assetTypes,
			FoldLoading: h.conf.Peering.FoldLoading,
			HasHeights:  h.stats.HasHeights,
		})
		return
	}
	h.matchReceiver(s)
}

func (h *Hub) geolocates() bool {
	return h.geo != nil && h.conf.Geo.Enabled && h.conf.Peering.PeerImages
}

// matchReceiver pairs the session with an existing initiator: the
// nearest one when both sides have coordinates, a uniformly random one
// otherwise. The chosen initiator gives up its role. Callers hold the
// hub lock.
func (h *Hub) matchReceiver(receiver *Session) {
	var found *Session
	if h.geolocates() && receiver.location != nil {
		found = h.nearestInitiator(receiver)
	} else {
		found = h.randomInitiator()
	}
	if found == nil {
		retriesCounter.Inc()
		receiver.client.Notify(api.Retry, api.RetryResponse{Reason: api.ReasonNoInitiator})
		return
	}

	found.isInitiator = false
	h.stats.dropInitiator(h.log)
	initiatorsGauge.Set(float64(h.stats.Initiators))
	matchesCounter.Inc()

	receiver.client.Notify(api.CreateReceiverPeer, api.ReceiverSetup{
		Initiator: api.InitiatorData{
			Offer:    found.offer,
			PeerId:   found.client.Id().String(),
			Location: found.location,
		},
		AssetTypes:   h.assetTypes,
		FoldLoading:  h.conf.Peering.FoldLoading,
		ImageHeights: h.stats.ImageHeights,
	})
}

// nearestInitiator picks the located initiator with the strictly
// smallest distance to the receiver. Ties go to the earliest connected
// candidate, the scan order is the connection order.
func (h *Hub) nearestInitiator(receiver *Session) *Session {
	var best *Session
	bestDistance := math.Inf(1)
	for _, id := range h.order {
		s := h.sessions[id]
		if s == nil || !s.isInitiator || s.location == nil {
			continue
		}
		d := geo.Distance(
			receiver.location.Latitude, receiver.location.Longitude,
			s.location.Latitude, s.location.Longitude,
		)
		if d < bestDistance {
			best, bestDistance = s, d
		}
	}
	return best
}

func (h *Hub) randomInitiator() *Session {
	var candidates []*Session
	for _, id := range h.order {
		if s := h.sessions[id]; s != nil && s.isInitiator {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[h.rnd.Intn(len(candidates))]
}

// HandleOffer stores the reported offer and promotes the session to the
// initiator role. No response goes back to the reporting client, the
// updated state feeds future receiver matches.
func (h *Hub) HandleOffer(id com.Uid, rq api.OfferRequest) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	if !ok {
		h.mu.Unlock()
		return
	}
	if !s.isInitiator {
		s.isInitiator = true
		h.stats.addInitiator()
	}
	s.offer = rq.Offer
	h.stats.setHeights(rq.ImageHeights, rq.HasHeights)
	clients, initiators := h.stats.Clients, h.stats.Initiators
	h.mu.Unlock()

	initiatorsGauge.Set(float64(initiators))
	h.log.Info().Msgf("offer from %v (clients: %v, initiators: %v)", id, clients, initiators)
}

// HandleAnswer relays the answer to the one initiator it targets.
// A vanished target is reported back to the answering client instead of
// being dropped on the floor.
func (h *Hub) HandleAnswer(id com.Uid, rq api.AnswerRequest) {
	peerId, err := com.UidFromString(rq.PeerId)

	h.mu.Lock()
	answerer, ok := h.sessions[id]
	if !ok {
		h.mu.Unlock()
		return
	}
	var target *Session
	if err == nil {
		target = h.sessions[peerId]
	}
	if target == nil {
		h.mu.Unlock()
		answerer.client.Notify(api.Fail, api.FailResponse{Error: api.ErrUnknownPeer.Error()})
		return
	}
	loc := answerer.location
	h.mu.Unlock()

	relaysCounter.Inc()
	target.client.Notify(api.AnswerToInitiator, api.AnswerRelay{
		Answer:          rq.Answer,
		Location:        loc,
		ImageSliceIndex: rq.ImageSliceIndex,
	})
}

// Disconnect releases the session and its role.
// A repeated call for the same id is a no-op, the counters are
// decremented exactly once per connection lifecycle.
func (h *Hub) Disconnect(id com.Uid) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	if !ok {
		h.mu.Unlock()
		return
	}
	if s.isInitiator {
		h.stats.dropInitiator(h.log)
	}
	delete(h.sessions, id)
	for i, v := range h.order {
		if v == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	h.stats.dropClient(h.log)
	clients, initiators := h.stats.Clients, h.stats.Initiators
	h.mu.Unlock()

	clientsGauge.Set(float64(clients))
	initiatorsGauge.Set(float64(initiators))
	h.log.Info().Msgf("disconnect %v (clients: %v, initiators: %v)", id, clients, initiators)
}

// Stats returns a copy of the current broker bookkeeping.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := h.stats
	st.ImageHeights = append([]float64(nil), h.stats.ImageHeights...)
	return st
}
