package api

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestPacketRoundTrip(t *testing.T) {
	raw, err := json.Marshal(Out{Id: "1", T: OfferToServer, Payload: OfferRequest{
		Offer:        json.RawMessage(`{"sdp":"x"}`),
		ImageHeights: []float64{10, 20},
		HasHeights:   true,
	}})
	if err != nil {
		t.Fatal(err)
	}

	var in In
	if err := json.Unmarshal(raw, &in); err != nil {
		t.Fatal(err)
	}
	if in.T != OfferToServer {
		t.Fatalf("wrong type %v", in.T)
	}
	rq := Unwrap[OfferRequest](in.Payload)
	if rq == nil || string(rq.Offer) != `{"sdp":"x"}` || len(rq.ImageHeights) != 2 {
		t.Fatalf("wrong payload %+v", rq)
	}
}

func TestUnwrapMalformed(t *testing.T) {
	if rq := Unwrap[AnswerRequest]([]byte(`{"answer":`)); rq != nil {
		t.Fatalf("expected nil for malformed payload, got %+v", rq)
	}
}

func TestPTStrings(t *testing.T) {
	known := []PT{LoadServerVideo, Torrent, CreateBaseInitiator, CreateReceiverPeer,
		OfferToServer, AnswerToServer, AnswerToInitiator, Retry, Fail}
	for _, p := range known {
		if p.String() == "Unknown" {
			t.Errorf("missing name for packet code %d", p)
		}
	}
	if PT(250).String() != "Unknown" {
		t.Error("unnamed codes should stringify as Unknown")
	}
}
