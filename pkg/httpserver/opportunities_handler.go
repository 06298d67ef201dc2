package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/solscope/sandwichd/pkg/types"
)

// OpportunitySource provides recently evaluated opportunities,
// newest first.
type OpportunitySource interface {
	Recent() []*types.Opportunity
}

// OpportunitiesHandler handles HTTP requests for recent opportunities.
type OpportunitiesHandler struct {
	source OpportunitySource
	logger *zap.Logger
}

// NewOpportunitiesHandler creates a new opportunities handler.
func NewOpportunitiesHandler(source OpportunitySource, logger *zap.Logger) *OpportunitiesHandler {
	return &OpportunitiesHandler{
		source: source,
		logger: logger,
	}
}

// OpportunityView is the JSON shape of one evaluated opportunity.
type OpportunityView struct {
	ID              string    `json:"id"`
	Signature       string    `json:"signature"`
	Venue           string    `json:"venue"`
	PoolID          string    `json:"pool_id"`
	MCapDeltaPct    float64   `json:"mcap_delta_pct"`
	Confidence      string    `json:"confidence"`
	EstimatedProfit uint64    `json:"estimated_profit_lamports"`
	EstimatedCost   uint64    `json:"estimated_cost_lamports"`
	Decision        string    `json:"decision"`
	Reason          string    `json:"reason,omitempty"`
	DetectedAt      time.Time `json:"detected_at"`
}

// OpportunitiesResponse represents the HTTP response for recent
// opportunities.
type OpportunitiesResponse struct {
	Count         int               `json:"count"`
	Opportunities []OpportunityView `json:"opportunities"`
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleOpportunities handles GET /api/opportunities requests.
// Optional query parameters: decision=accept|reject, limit=N.
func (h *OpportunitiesHandler) HandleOpportunities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var decision types.Decision
	if d := r.URL.Query().Get("decision"); d != "" {
		decision = types.Decision(d)
		if decision != types.DecisionAccept && decision != types.DecisionReject {
			h.writeError(w, "decision must be 'accept' or 'reject'", http.StatusBadRequest)
			return
		}
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			h.writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	recent := h.source.Recent()
	views := make([]OpportunityView, 0, len(recent))

	for _, opp := range recent {
		if decision != "" && opp.Decision != decision {
			continue
		}

		views = append(views, OpportunityView{
			ID:              opp.ID,
			Signature:       opp.Signature,
			Venue:           string(opp.Venue),
			PoolID:          opp.PoolID,
			MCapDeltaPct:    opp.MCapDeltaPct,
			Confidence:      string(opp.Confidence),
			EstimatedProfit: opp.EstimatedProfit,
			EstimatedCost:   opp.EstimatedCost,
			Decision:        string(opp.Decision),
			Reason:          opp.Reason,
			DetectedAt:      opp.DetectedAt,
		})

		if limit > 0 && len(views) == limit {
			break
		}
	}

	response := OpportunitiesResponse{
		Count:         len(views),
		Opportunities: views,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (h *OpportunitiesHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{Error: message}
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		h.logger.Error("failed-to-encode-error-response", zap.Error(err))
	}
}
