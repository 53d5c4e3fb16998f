package broker

import "github.com/peerconnect/peerconnect/pkg/logger"

// Stats is the process-wide broker bookkeeping. The counters hold
// Initiators <= Clients and never go negative: an unmatched decrement is
// an invariant violation which is logged and clamped instead of
// corrupting future threshold checks.
type Stats struct {
	Clients      int
	Initiators   int
	HasHeights   bool
	ImageHeights []float64

	heightsSet bool
}

func (s *Stats) addClient()    { s.Clients++ }
func (s *Stats) addInitiator() { s.Initiators++ }

func (s *Stats) dropClient(log *logger.Logger) {
	if s.Clients == 0 {
		log.Error().Msg("client counter underflow")
		return
	}
	s.Clients--
}

func (s *Stats) dropInitiator(log *logger.Logger) {
	if s.Initiators == 0 {
		log.Error().Msg("initiator counter underflow")
		return
	}
	s.Initiators--
}

// setHeights stores the image heights reported by the first initiator.
// First writer wins for the process lifetime.
func (s *Stats) setHeights(heights []float64, has bool) {
	if s.heightsSet || len(heights) == 0 {
		return
	}
	s.ImageHeights = heights
	s.HasHeights = has
	s.heightsSet = true
}
