package matching

import (
	"math"
	"time"

	"github.com/vesselops/beacon/pkg/extractor"
	"github.com/vesselops/beacon/pkg/models"
	"github.com/vesselops/beacon/pkg/normalizers"
)

// MatchWindowHours is the maximum distance between a signal and a request's
// planned test instant for time proximity to contribute at all. Signals and
// requests further apart are not temporally related.
const MatchWindowHours = 48

// Suggestion weights. MMSI is the strongest fuzzy signal available; no
// combination of weak signals outranks it plus one corroborating field.
// Auto-link never uses these — only exact terminal equality links a signal.
const (
	scoreMMSI       = 40
	scoreIMO        = 35
	scoreNameStrong = 25
	scoreNameFuzzy  = 20 // scaled by similarity

	nameStrongThreshold = 0.90
	nameFuzzyThreshold  = 0.75
)

// Scorer evaluates a single candidate request against extracted signal
// identifiers. Pure; all state is the weight table above.
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the suggestion score and reason tags for one candidate.
// A zero score means the candidate shares nothing usable with the signal.
func (s *Scorer) Score(sig extractor.SignalIdentifiers, req *models.Request) (int, []string) {
	var score int
	var reasons []string

	reqMMSI := normalizers.Identifier(deref(req.MMSI))
	reqIMO := normalizers.Identifier(deref(req.IMONumber))

	if sig.MMSI != "" && reqMMSI != "" && sig.MMSI == reqMMSI {
		score += scoreMMSI
		reasons = append(reasons, models.ReasonMMSI)
	}
	if sig.IMO != "" && reqIMO != "" && sig.IMO == reqIMO {
		score += scoreIMO
		reasons = append(reasons, models.ReasonIMO)
	}

	sim := normalizers.Similarity(sig.VesselName, req.VesselName)
	switch {
	case sim >= nameStrongThreshold:
		score += scoreNameStrong
		reasons = append(reasons, models.ReasonNameStrong)
	case sim >= nameFuzzyThreshold:
		score += int(math.Round(sim * scoreNameFuzzy))
		reasons = append(reasons, models.ReasonNameFuzzy)
	}

	if d := req.TestWindow(); d != nil {
		if ts := s.TimeProximity(sig.ReceivedAt, *d); ts > 0 {
			score += ts
			reasons = append(reasons, models.ReasonTime)
		}
	}

	return score, reasons
}

// TimeProximity scores how close a signal arrived to the planned test
// instant: tiered decay, zero beyond the match window.
func (s *Scorer) TimeProximity(receivedAt, testDate time.Time) int {
	diffHours := math.Abs(receivedAt.Sub(testDate).Hours())
	switch {
	case diffHours <= 6:
		return 10
	case diffHours <= 24:
		return 5
	case diffHours <= MatchWindowHours:
		return 2
	default:
		return 0
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
