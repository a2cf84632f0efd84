// Package feed shapes reconciled unmatched signals into the paginated,
// sorted view the operator console consumes.
package feed

import (
	"sort"

	"github.com/vesselops/beacon/pkg/models"
)

const (
	SortScore   = "score"
	SortRecency = "recency"

	DirAsc  = "asc"
	DirDesc = "desc"

	DefaultLimit = 20
	MaxLimit     = 100
)

// Params controls ordering and pagination of the unmatched feed.
type Params struct {
	Limit  int    `query:"limit"`
	Offset int    `query:"offset"`
	Sort   string `query:"sort"`
	Dir    string `query:"dir"`
}

// Normalize fills defaults and clamps out-of-range values. "time" is accepted
// as a legacy alias for recency.
func (p Params) Normalize() Params {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	switch p.Sort {
	case SortRecency:
	case "time":
		p.Sort = SortRecency
	default:
		p.Sort = SortScore
	}
	if p.Dir != DirAsc {
		p.Dir = DirDesc
	}
	return p
}

// Present sorts and paginates the full unmatched set. Count always reflects
// the total before pagination so clients can page without a second query.
func Present(items []models.UnmatchedSignal, p Params) *models.UnmatchedFeed {
	p = p.Normalize()

	sorted := make([]models.UnmatchedSignal, len(items))
	copy(sorted, items)

	cmp := compareFunc(p.Sort)
	sort.SliceStable(sorted, func(i, j int) bool {
		c := cmp(&sorted[i], &sorted[j])
		if c == 0 {
			// ties always break by id, independent of direction
			return sorted[i].ID < sorted[j].ID
		}
		if p.Dir == DirAsc {
			return c < 0
		}
		return c > 0
	})

	count := len(sorted)
	start := p.Offset
	if start > count {
		start = count
	}
	end := start + p.Limit
	if end > count {
		end = count
	}

	return &models.UnmatchedFeed{
		Count: count,
		Items: sorted[start:end],
	}
}

func compareFunc(sortBy string) func(a, b *models.UnmatchedSignal) int {
	if sortBy == SortRecency {
		return func(a, b *models.UnmatchedSignal) int {
			switch {
			case a.ReceivedAt.Before(b.ReceivedAt):
				return -1
			case a.ReceivedAt.After(b.ReceivedAt):
				return 1
			default:
				return 0
			}
		}
	}
	return func(a, b *models.UnmatchedSignal) int {
		return topScore(a) - topScore(b)
	}
}

func topScore(s *models.UnmatchedSignal) int {
	if s.TopScore == nil {
		return -1
	}
	return *s.TopScore
}
