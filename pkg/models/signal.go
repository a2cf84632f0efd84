package models

import (
	"encoding/json"
	"time"
)

// SignalType classifies an incoming SSAS transmission.
const (
	SignalTypeTest      = "TEST"
	SignalTypeAlert     = "ALERT"
	SignalTypeUnplanned = "UNPLANNED"
)

// Link states for a signal. A signal moves from UNMATCHED to LINKED exactly
// once; there is no unlink transition.
const (
	LinkStateUnmatched = "UNMATCHED"
	LinkStateLinked    = "LINKED"
)

// Signal is a received SSAS transmission. Identifier columns are nullable
// because upstream providers vary wildly in what they populate; anything
// missing from the columns may still live in Metadata.
type Signal struct {
	ID             int64           `db:"id" json:"id"`
	TerminalNumber *string         `db:"terminal_number" json:"terminal_number,omitempty"`
	MMSI           *string         `db:"mmsi" json:"mmsi,omitempty"`
	VesselName     *string         `db:"vessel_name" json:"vessel_name,omitempty"`
	SignalType     string          `db:"signal_type" json:"signal_type"`
	ReceivedAt     time.Time       `db:"received_at" json:"received_at"`
	Latitude       *float64        `db:"latitude" json:"latitude,omitempty"`
	Longitude      *float64        `db:"longitude" json:"longitude,omitempty"`
	Metadata       json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	LinkState      string          `db:"link_state" json:"link_state"`
	RequestID      *int64          `db:"request_id" json:"request_id,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// IsLinked reports whether the signal has already been reconciled.
func (s *Signal) IsLinked() bool {
	return s.LinkState == LinkStateLinked
}

// CreateSignalRequest is the ingest payload for a new signal.
type CreateSignalRequest struct {
	TerminalNumber *string         `json:"terminalNumber"`
	MMSI           *string         `json:"mmsi"`
	VesselName     *string         `json:"vesselName"`
	SignalType     string          `json:"signalType" validate:"omitempty,oneof=TEST ALERT UNPLANNED"`
	ReceivedAt     *time.Time      `json:"receivedAt"`
	Latitude       *float64        `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude      *float64        `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Metadata       json.RawMessage `json:"metadata"`
}

// Reason tags attached to suggestions. Stable strings consumed by the
// operator console.
const (
	ReasonMMSI       = "MMSI"
	ReasonIMO        = "IMO"
	ReasonNameStrong = "NAME_STRONG"
	ReasonNameFuzzy  = "NAME_FUZZY"
	ReasonTime       = "TIME"
)

// Suggestion is a scored candidate request for an unmatched signal.
type Suggestion struct {
	RequestID int64    `json:"requestId"`
	Score     int      `json:"score"`
	Reasons   []string `json:"reasons"`
}

// LinkResult confirms a signal-to-request link.
type LinkResult struct {
	OK        bool  `json:"ok"`
	SignalID  int64 `json:"signalId"`
	RequestID int64 `json:"requestId"`
	Override  bool  `json:"override"`
}

// UnmatchedSignal is a feed entry: the signal plus everything the engine
// worked out about it. Signal fields serialize snake_case like the signal
// resource itself; topScore and suggestion fields stay camelCase, matching
// what the operator console already consumes.
type UnmatchedSignal struct {
	Signal
	Suggestions      []Suggestion `json:"suggestions"`
	OperatorMessages []string     `json:"operator_messages"`
	TopScore         *int         `json:"topScore,omitempty"`
}

// UnmatchedFeed is a page of the unmatched feed. Count is the total number
// of unmatched signals before pagination.
type UnmatchedFeed struct {
	Count int               `json:"count"`
	Items []UnmatchedSignal `json:"items"`
}
