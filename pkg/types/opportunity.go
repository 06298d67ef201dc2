package types

import "time"

// Decision is the evaluator's verdict on a candidate.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// Reason codes for rejected or dropped records. Reject reasons come
// from the evaluator; drop reasons from earlier pipeline stages.
const (
	ReasonLowMargin        = "low_margin"
	ReasonLowConfidence    = "low_confidence"
	ReasonUnknownVenue     = "unknown_venue"
	ReasonDecodeFailed     = "decode_failed"
	ReasonFetchFailed      = "fetch_failed"
	ReasonDeadlineExceeded = "deadline_exceeded"
	ReasonMcapOutOfRange   = "mcap_out_of_range"
	ReasonEstimateFailed   = "estimate_failed"
)

// Opportunity is the evaluator's structured outcome for one record.
// Monetary fields are lamports.
type Opportunity struct {
	ID              string
	Signature       string
	Venue           Venue
	PoolID          string
	MCapDeltaPct    float64
	Confidence      Confidence
	EstimatedProfit uint64
	EstimatedCost   uint64
	SafetyMargin    uint64
	Decision        Decision
	Reason          string // empty on accept
	DetectedAt      time.Time
}

// Accepted reports whether the evaluator accepted the candidate.
func (o *Opportunity) Accepted() bool {
	return o.Decision == DecisionAccept
}
