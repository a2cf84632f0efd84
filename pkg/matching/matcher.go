package matching

import (
	"github.com/vesselops/beacon/pkg/extractor"
	"github.com/vesselops/beacon/pkg/models"
	"github.com/vesselops/beacon/pkg/normalizers"
)

// StrictResult is the outcome of strict terminal matching. Match is set only
// when exactly one open request carries the signal's terminal number.
// Ambiguous reports that two or more requests carried it, which blocks
// automatic linking and must surface to the operator.
type StrictResult struct {
	Match     *models.Request
	Ambiguous bool
}

// SelectBestMatchStrictByTerminal compares the signal's normalized terminal
// number against each candidate's SSAS number. Terminal equality is the only
// identity strong enough to link without a human in the loop; MMSI, IMO and
// name similarity never qualify here.
func SelectBestMatchStrictByTerminal(sig extractor.SignalIdentifiers, candidates []models.Request) StrictResult {
	if sig.IMN == "" {
		return StrictResult{}
	}

	var match *models.Request
	for i := range candidates {
		req := &candidates[i]
		reqIMN := normalizedRequestIMN(req)
		if reqIMN == "" || reqIMN != sig.IMN {
			continue
		}
		if match != nil {
			return StrictResult{Ambiguous: true}
		}
		match = req
	}

	return StrictResult{Match: match}
}

func normalizedRequestIMN(req *models.Request) string {
	return normalizers.Terminal(deref(req.SSASNumber))
}
