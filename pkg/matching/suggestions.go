package matching

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vesselops/beacon/pkg/extractor"
	"github.com/vesselops/beacon/pkg/models"
)

// DefaultSuggestionLimit caps how many candidates are surfaced per signal.
const DefaultSuggestionLimit = 5

// BuildSuggestions scores every candidate request against the signal's
// identifiers and returns the top suggestions, best first. Zero-score
// candidates are dropped; ties break on ascending request id so repeated
// calls over the same data produce the same ordering.
func (s *Scorer) BuildSuggestions(sig extractor.SignalIdentifiers, candidates []models.Request, limit int) []models.Suggestion {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	suggestions := make([]models.Suggestion, 0, len(candidates))
	for i := range candidates {
		score, reasons := s.Score(sig, &candidates[i])
		if score <= 0 {
			continue
		}
		suggestions = append(suggestions, models.Suggestion{
			RequestID: candidates[i].ID,
			Score:     score,
			Reasons:   reasons,
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].RequestID < suggestions[j].RequestID
	})

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

// BuildOperatorMessages explains to the operator why a signal sits in the
// unmatched feed and what, if anything, the engine found for it.
func BuildOperatorMessages(sig extractor.SignalIdentifiers, suggestions []models.Suggestion, ambiguous bool) []string {
	var msgs []string

	if ambiguous {
		msgs = append(msgs, fmt.Sprintf("Multiple open requests share terminal %s; automatic linking is blocked, review and link manually", sig.IMN))
	} else if sig.IMN == "" {
		msgs = append(msgs, "Signal carries no terminal number; automatic linking is not possible")
	} else {
		msgs = append(msgs, fmt.Sprintf("No open request matches terminal %s", sig.IMN))
	}

	if sig.IsTest {
		msgs = append(msgs, "Signal is marked as a test transmission")
	}

	if len(suggestions) == 0 {
		msgs = append(msgs, "No candidate requests found; the signal may belong to a vessel without an open request")
		return msgs
	}

	for _, sug := range suggestions {
		msgs = append(msgs, fmt.Sprintf("Request %d scored %d (%s)", sug.RequestID, sug.Score, strings.Join(sug.Reasons, ", ")))
	}
	return msgs
}
