package types

import "time"

// Venue identifies the DEX program that emitted a transaction log.
type Venue string

// Known venues. Unknown means no configured program matched;
// Unsupported means the program is recognized but its swaps cannot
// be decoded (routed or order-book venues).
const (
	VenueRaydium     Venue = "raydium"
	VenueOrca        Venue = "orca"
	VenueMeteora     Venue = "meteora"
	VenueJupiter     Venue = "jupiter"
	VenueSerum       Venue = "serum"
	VenueUnknown     Venue = "unknown"
	VenueUnsupported Venue = "unsupported"
)

// ParseVenue maps a config string to a Venue.
// Returns VenueUnknown for unrecognized names.
func ParseVenue(s string) Venue {
	switch s {
	case "raydium":
		return VenueRaydium
	case "orca":
		return VenueOrca
	case "meteora":
		return VenueMeteora
	case "jupiter":
		return VenueJupiter
	case "serum":
		return VenueSerum
	default:
		return VenueUnknown
	}
}

// Commitment is the Solana confirmation level used for RPC reads.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// Valid reports whether the commitment is one of the three Solana levels.
func (c Commitment) Valid() bool {
	switch c {
	case CommitmentProcessed, CommitmentConfirmed, CommitmentFinalized:
		return true
	}
	return false
}

// LogRecord is one logsSubscribe notification, normalized.
// Immutable after construction.
type LogRecord struct {
	Signature  string
	Slot       uint64
	ProgramIDs []string // programs invoked, extracted from log lines
	Logs       []string
	Failed     bool // transaction-level error reported in the notification
	ReceivedAt time.Time
}
