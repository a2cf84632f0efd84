package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesselops/beacon/pkg/models"
)

func entry(id int64, receivedAt time.Time, topScore int) models.UnmatchedSignal {
	item := models.UnmatchedSignal{
		Signal: models.Signal{
			ID:         id,
			ReceivedAt: receivedAt,
			LinkState:  models.LinkStateUnmatched,
		},
	}
	if topScore >= 0 {
		item.TopScore = &topScore
	}
	return item
}

func ids(feed *models.UnmatchedFeed) []int64 {
	out := make([]int64, 0, len(feed.Items))
	for _, item := range feed.Items {
		out = append(out, item.ID)
	}
	return out
}

func TestParams_Normalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p := Params{}.Normalize()
		assert.Equal(t, DefaultLimit, p.Limit)
		assert.Equal(t, 0, p.Offset)
		assert.Equal(t, SortScore, p.Sort)
		assert.Equal(t, DirDesc, p.Dir)
	})

	t.Run("clamps limit and offset", func(t *testing.T) {
		p := Params{Limit: 500, Offset: -3}.Normalize()
		assert.Equal(t, MaxLimit, p.Limit)
		assert.Equal(t, 0, p.Offset)
	})

	t.Run("time is an alias for recency", func(t *testing.T) {
		p := Params{Sort: "time"}.Normalize()
		assert.Equal(t, SortRecency, p.Sort)
	})

	t.Run("unknown sort falls back to score", func(t *testing.T) {
		p := Params{Sort: "vessel"}.Normalize()
		assert.Equal(t, SortScore, p.Sort)
	})

	t.Run("unknown direction falls back to desc", func(t *testing.T) {
		p := Params{Dir: "sideways"}.Normalize()
		assert.Equal(t, DirDesc, p.Dir)
	})
}

func TestPresent(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	items := []models.UnmatchedSignal{
		entry(1, base.Add(-2*time.Hour), 40),
		entry(2, base, 65),
		entry(3, base.Add(-time.Hour), -1),
		entry(4, base.Add(-3*time.Hour), 10),
	}

	t.Run("default order is score descending", func(t *testing.T) {
		feed := Present(items, Params{})
		assert.Equal(t, 4, feed.Count)
		assert.Equal(t, []int64{2, 1, 4, 3}, ids(feed))
	})

	t.Run("signals without suggestions sort last on score", func(t *testing.T) {
		feed := Present(items, Params{})
		last := feed.Items[len(feed.Items)-1]
		assert.Equal(t, int64(3), last.ID)
		assert.Nil(t, last.TopScore)
	})

	t.Run("recency descending puts the newest first", func(t *testing.T) {
		feed := Present(items, Params{Sort: SortRecency})
		assert.Equal(t, []int64{2, 3, 1, 4}, ids(feed))
	})

	t.Run("recency ascending puts the oldest first", func(t *testing.T) {
		feed := Present(items, Params{Sort: SortRecency, Dir: DirAsc})
		assert.Equal(t, []int64{4, 1, 3, 2}, ids(feed))
	})

	t.Run("count survives pagination", func(t *testing.T) {
		feed := Present(items, Params{Limit: 2})
		assert.Equal(t, 4, feed.Count)
		assert.Equal(t, []int64{2, 1}, ids(feed))
	})

	t.Run("offset skips into the ordered set", func(t *testing.T) {
		feed := Present(items, Params{Limit: 2, Offset: 2})
		assert.Equal(t, []int64{4, 3}, ids(feed))
	})

	t.Run("offset past the end yields an empty page", func(t *testing.T) {
		feed := Present(items, Params{Offset: 100})
		assert.Equal(t, 4, feed.Count)
		assert.Empty(t, feed.Items)
	})

	t.Run("equal scores break ties by id", func(t *testing.T) {
		tied := []models.UnmatchedSignal{
			entry(9, base, 40),
			entry(4, base, 40),
			entry(7, base, 40),
		}
		feed := Present(tied, Params{})
		assert.Equal(t, []int64{4, 7, 9}, ids(feed))
	})

	t.Run("input slice is not reordered", func(t *testing.T) {
		before := make([]int64, len(items))
		for i, item := range items {
			before[i] = item.ID
		}
		_ = Present(items, Params{Sort: SortRecency, Dir: DirAsc})
		for i, item := range items {
			require.Equal(t, before[i], item.ID)
		}
	})
}
