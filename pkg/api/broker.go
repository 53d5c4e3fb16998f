package api

import "github.com/goccy/go-json"

// Location carries resolved client coordinates. Only latitude and
// longitude take part in matching; the descriptive fields are forwarded
// to the paired peer untouched.
type Location struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	City       string  `json:"city,omitempty"`
	RegionCode string  `json:"region_code,omitempty"`
	Country    string  `json:"country_code,omitempty"`
	ZipCode    string  `json:"zip_code,omitempty"`
}

// OfferRequest is sent by a peer that holds an asset bundle and is ready
// to serve it (OfferToServer).
type OfferRequest struct {
	Offer        json.RawMessage `json:"offer"`
	ImageHeights []float64       `json:"imageHeights,omitempty"`
	HasHeights   bool            `json:"hasHeights,omitempty"`
}

// AnswerRequest is sent by a matched receiver, targeted at the initiator
// that produced the offer (AnswerToServer).
type AnswerRequest struct {
	Answer          json.RawMessage `json:"answer"`
	PeerId          string          `json:"peerId"`
	ImageSliceIndex int             `json:"imageSliceIndex"`
}

// InitiatorSetup is pushed to a client selected for the initiator role
// (CreateBaseInitiator).
type InitiatorSetup struct {
	AssetTypes  []string `json:"assetTypes"`
	FoldLoading bool     `json:"foldLoading"`
	HasHeights  bool     `json:"hasHeights"`
}

// InitiatorData packages a matched initiator for a receiver.
type InitiatorData struct {
	Offer    json.RawMessage `json:"offer"`
	PeerId   string          `json:"peerId"`
	Location *Location       `json:"location,omitempty"`
}

// ReceiverSetup is pushed to a client matched as a receiver
// (CreateReceiverPeer).
type ReceiverSetup struct {
	Initiator    InitiatorData `json:"initiator"`
	AssetTypes   []string      `json:"assetTypes"`
	FoldLoading  bool          `json:"foldLoading"`
	ImageHeights []float64     `json:"imageHeights,omitempty"`
}

// AnswerRelay is the targeted unicast of a receiver's answer to its
// initiator (AnswerToInitiator).
type AnswerRelay struct {
	Answer          json.RawMessage `json:"answer"`
	Location        *Location       `json:"location,omitempty"`
	ImageSliceIndex int             `json:"imageSliceIndex"`
}

// RetryResponse tells a would-be receiver that no initiator is available
// right now and it should ask again later (Retry).
type RetryResponse struct {
	Reason string `json:"reason"`
}

// FailResponse reports a request failure back to the sending client only
// (Fail).
type FailResponse struct {
	Error string `json:"error"`
}

const ReasonNoInitiator = "no_initiator_available"
