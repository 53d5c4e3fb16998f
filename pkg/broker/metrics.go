package broker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	clientsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "peerconnect_clients",
		Help: "Number of connected clients.",
	})
	initiatorsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "peerconnect_initiators",
		Help: "Number of sessions currently holding the initiator role.",
	})
	matchesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "peerconnect_matches_total",
		Help: "Receiver-initiator pairings made.",
	})
	relaysCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "peerconnect_answer_relays_total",
		Help: "Answers relayed to initiators.",
	})
	retriesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "peerconnect_no_initiator_total",
		Help: "Receiver requests that found no initiator to pair with.",
	})
	geoFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "peerconnect_geo_failures_total",
		Help: "Failed geolocation lookups.",
	})
)
