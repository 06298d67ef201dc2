package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/solscope/sandwichd/pkg/types"
)

func newTestClassifier(venues ...types.Venue) *Classifier {
	logger, _ := zap.NewDevelopment()
	return New(Config{Venues: venues, Logger: logger})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		venues []types.Venue
		record *types.LogRecord
		want   types.Venue
	}{
		{
			name:   "raydium v4 program",
			venues: []types.Venue{types.VenueRaydium, types.VenueOrca},
			record: &types.LogRecord{ProgramIDs: []string{RaydiumAMMV4}},
			want:   types.VenueRaydium,
		},
		{
			name:   "orca whirlpool program",
			venues: []types.Venue{types.VenueRaydium, types.VenueOrca},
			record: &types.LogRecord{ProgramIDs: []string{OrcaWhirlpool}},
			want:   types.VenueOrca,
		},
		{
			name:   "meteora dlmm program",
			venues: []types.Venue{types.VenueMeteora},
			record: &types.LogRecord{ProgramIDs: []string{MeteoraDLMM}},
			want:   types.VenueMeteora,
		},
		{
			name:   "unrecognized program",
			venues: []types.Venue{types.VenueRaydium},
			record: &types.LogRecord{ProgramIDs: []string{"SomeRandomProgram1111111111111111111111111"}},
			want:   types.VenueUnknown,
		},
		{
			name:   "known program but venue disabled",
			venues: []types.Venue{types.VenueOrca},
			record: &types.LogRecord{ProgramIDs: []string{RaydiumAMMV4}},
			want:   types.VenueUnknown,
		},
		{
			name:   "first match wins for routed swaps",
			venues: []types.Venue{types.VenueRaydium, types.VenueJupiter},
			record: &types.LogRecord{ProgramIDs: []string{JupiterV6, RaydiumAMMV4}},
			want:   types.VenueJupiter,
		},
		{
			name:   "fallback to raw log scan",
			venues: []types.Venue{types.VenueRaydium},
			record: &types.LogRecord{
				Logs: []string{"Program " + RaydiumAMMV4 + " consumed 30000 compute units"},
			},
			want: types.VenueRaydium,
		},
		{
			name:   "empty record",
			venues: []types.Venue{types.VenueRaydium},
			record: &types.LogRecord{},
			want:   types.VenueUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClassifier(tt.venues...)
			assert.Equal(t, tt.want, c.Classify(tt.record))
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := newTestClassifier(types.VenueRaydium)
	record := &types.LogRecord{ProgramIDs: []string{RaydiumAMMV4}}

	first := c.Classify(record)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Classify(record))
	}
}

func TestProgramIDsForVenues(t *testing.T) {
	ids := ProgramIDsForVenues([]types.Venue{types.VenueRaydium})
	assert.ElementsMatch(t, []string{RaydiumAMMV4, RaydiumCLMM}, ids)

	ids = ProgramIDsForVenues([]types.Venue{types.VenueOrca, types.VenueMeteora})
	assert.ElementsMatch(t, []string{OrcaWhirlpool, OrcaTokenSwap, MeteoraDLMM, MeteoraPools}, ids)

	assert.Empty(t, ProgramIDsForVenues(nil))
}
