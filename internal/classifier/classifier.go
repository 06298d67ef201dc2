// Package classifier maps log records to DEX venues using a static
// program-id table. Classification never performs I/O.
package classifier

import (
	"strings"

	"go.uber.org/zap"

	"github.com/solscope/sandwichd/pkg/types"
)

// Mainnet program ids of the supported venues.
const (
	RaydiumAMMV4  = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	RaydiumCLMM   = "CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK"
	OrcaWhirlpool = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"
	OrcaTokenSwap = "9W959DqEETiGZocYWCQPaJ6sBmUzgfxXfqGeTEdp3aQP"
	MeteoraDLMM   = "LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo"
	MeteoraPools  = "Eo7WjKq67rjJQSZxS6z3YkapzY3eMj6Xy8X5EQVn5UaB"
	JupiterV6     = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"
	JupiterV4     = "JUP4Fb2cqiRUcaTHdrPC8h2gNsA2ETXiPDD33WcGuJB"
	SerumDEXV3    = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
)

// programVenues is the full known-program table.
var programVenues = map[string]types.Venue{
	RaydiumAMMV4:  types.VenueRaydium,
	RaydiumCLMM:   types.VenueRaydium,
	OrcaWhirlpool: types.VenueOrca,
	OrcaTokenSwap: types.VenueOrca,
	MeteoraDLMM:   types.VenueMeteora,
	MeteoraPools:  types.VenueMeteora,
	JupiterV6:     types.VenueJupiter,
	JupiterV4:     types.VenueJupiter,
	SerumDEXV3:    types.VenueSerum,
}

// AllVenues returns every venue with a known program id.
func AllVenues() []types.Venue {
	seen := make(map[types.Venue]bool)
	var venues []types.Venue
	for _, venue := range programVenues {
		if !seen[venue] {
			seen[venue] = true
			venues = append(venues, venue)
		}
	}
	return venues
}

// ProgramIDsForVenues returns the program ids belonging to the given
// venues, for building subscription filters.
func ProgramIDsForVenues(venues []types.Venue) []string {
	enabled := make(map[types.Venue]bool, len(venues))
	for _, v := range venues {
		enabled[v] = true
	}

	var ids []string
	for id, venue := range programVenues {
		if enabled[venue] {
			ids = append(ids, id)
		}
	}
	return ids
}

// Classifier tags log records with a venue. Only records matching an
// enabled venue proceed down the pipeline.
type Classifier struct {
	enabled map[types.Venue]bool
	logger  *zap.Logger
}

// Config holds classifier configuration.
type Config struct {
	Venues []types.Venue
	Logger *zap.Logger
}

// New creates a classifier restricted to the configured venues.
func New(cfg Config) *Classifier {
	enabled := make(map[types.Venue]bool, len(cfg.Venues))
	for _, v := range cfg.Venues {
		enabled[v] = true
	}

	return &Classifier{
		enabled: enabled,
		logger:  cfg.Logger,
	}
}

// Classify returns the venue of the record, or VenueUnknown when no
// enabled venue's program appears. First match wins: a Jupiter route
// invoking Raydium underneath is tagged by whichever program id is
// seen first in the invocation order.
func (c *Classifier) Classify(record *types.LogRecord) types.Venue {
	for _, programID := range record.ProgramIDs {
		if venue, ok := programVenues[programID]; ok && c.enabled[venue] {
			RecordsClassifiedTotal.WithLabelValues(string(venue)).Inc()
			return venue
		}
	}

	// Some nodes omit invocation lines at processed commitment; fall
	// back to scanning raw log text for known program ids.
	for _, line := range record.Logs {
		for programID, venue := range programVenues {
			if c.enabled[venue] && strings.Contains(line, programID) {
				RecordsClassifiedTotal.WithLabelValues(string(venue)).Inc()
				return venue
			}
		}
	}

	RecordsClassifiedTotal.WithLabelValues(string(types.VenueUnknown)).Inc()
	return types.VenueUnknown
}
