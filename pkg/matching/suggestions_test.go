package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesselops/beacon/pkg/extractor"
	"github.com/vesselops/beacon/pkg/models"
)

func TestScorer_BuildSuggestions(t *testing.T) {
	scorer := NewScorer()
	received := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("orders by score descending", func(t *testing.T) {
		sig := extractor.SignalIdentifiers{MMSI: "273456789", VesselName: "VITUS BERING", ReceivedAt: received}
		candidates := []models.Request{
			{ID: 1, VesselName: "VITUS BERING"},                            // name only: 25
			{ID: 2, VesselName: "AURORA", MMSI: strPtr("273456789")},       // mmsi only: 40
			{ID: 3, VesselName: "VITUS BERING", MMSI: strPtr("273456789")}, // both: 65
		}

		suggestions := scorer.BuildSuggestions(sig, candidates, 0)
		require.Len(t, suggestions, 3)
		assert.Equal(t, int64(3), suggestions[0].RequestID)
		assert.Equal(t, 65, suggestions[0].Score)
		assert.Equal(t, int64(2), suggestions[1].RequestID)
		assert.Equal(t, int64(1), suggestions[2].RequestID)
	})

	t.Run("zero score candidates are dropped", func(t *testing.T) {
		sig := extractor.SignalIdentifiers{MMSI: "273456789", ReceivedAt: received}
		candidates := []models.Request{
			{ID: 1, VesselName: "UNRELATED"},
			{ID: 2, VesselName: "AURORA", MMSI: strPtr("273456789")},
		}

		suggestions := scorer.BuildSuggestions(sig, candidates, 0)
		require.Len(t, suggestions, 1)
		assert.Equal(t, int64(2), suggestions[0].RequestID)
	})

	t.Run("equal scores break ties by ascending request id", func(t *testing.T) {
		sig := extractor.SignalIdentifiers{MMSI: "273456789", ReceivedAt: received}
		candidates := []models.Request{
			{ID: 7, VesselName: "A", MMSI: strPtr("273456789")},
			{ID: 3, VesselName: "B", MMSI: strPtr("273456789")},
			{ID: 5, VesselName: "C", MMSI: strPtr("273456789")},
		}

		suggestions := scorer.BuildSuggestions(sig, candidates, 0)
		require.Len(t, suggestions, 3)
		assert.Equal(t, int64(3), suggestions[0].RequestID)
		assert.Equal(t, int64(5), suggestions[1].RequestID)
		assert.Equal(t, int64(7), suggestions[2].RequestID)
	})

	t.Run("limit caps the list", func(t *testing.T) {
		sig := extractor.SignalIdentifiers{MMSI: "273456789", ReceivedAt: received}
		var candidates []models.Request
		for i := int64(1); i <= 10; i++ {
			candidates = append(candidates, models.Request{ID: i, VesselName: "V", MMSI: strPtr("273456789")})
		}

		suggestions := scorer.BuildSuggestions(sig, candidates, 3)
		assert.Len(t, suggestions, 3)
	})

	t.Run("default limit is five", func(t *testing.T) {
		sig := extractor.SignalIdentifiers{MMSI: "273456789", ReceivedAt: received}
		var candidates []models.Request
		for i := int64(1); i <= 10; i++ {
			candidates = append(candidates, models.Request{ID: i, VesselName: "V", MMSI: strPtr("273456789")})
		}

		suggestions := scorer.BuildSuggestions(sig, candidates, 0)
		assert.Len(t, suggestions, DefaultSuggestionLimit)
	})
}

func TestBuildOperatorMessages(t *testing.T) {
	t.Run("ambiguous terminal gets its own explanation", func(t *testing.T) {
		sig := extractor.SignalIdentifiers{IMN: "427315936"}

		msgs := BuildOperatorMessages(sig, nil, true)
		require.NotEmpty(t, msgs)
		assert.Contains(t, msgs[0], "Multiple open requests share terminal 427315936")
	})

	t.Run("missing terminal is called out", func(t *testing.T) {
		sig := extractor.SignalIdentifiers{}

		msgs := BuildOperatorMessages(sig, nil, false)
		require.NotEmpty(t, msgs)
		assert.Contains(t, msgs[0], "no terminal number")
	})

	t.Run("test transmissions are flagged", func(t *testing.T) {
		sig := extractor.SignalIdentifiers{IMN: "427315936", IsTest: true}

		msgs := BuildOperatorMessages(sig, nil, false)
		assert.Contains(t, msgs, "Signal is marked as a test transmission")
	})

	t.Run("suggestions are summarized per candidate", func(t *testing.T) {
		sig := extractor.SignalIdentifiers{IMN: "427315936"}
		suggestions := []models.Suggestion{
			{RequestID: 12, Score: 65, Reasons: []string{models.ReasonMMSI, models.ReasonNameStrong}},
		}

		msgs := BuildOperatorMessages(sig, suggestions, false)
		assert.Contains(t, msgs, "Request 12 scored 65 (MMSI, NAME_STRONG)")
	})

	t.Run("no candidates gets a closing explanation", func(t *testing.T) {
		sig := extractor.SignalIdentifiers{IMN: "427315936"}

		msgs := BuildOperatorMessages(sig, nil, false)
		assert.Contains(t, msgs, "No candidate requests found; the signal may belong to a vessel without an open request")
	})
}
