package bookmark

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/errors"
)

// Resolve finds a bookmark by exact id, or else by the closest fuzzy
// match on its label.
func Resolve(marks []core.Bookmark, query string) (core.Bookmark, error) {
	if b, ok := lo.Find(marks, func(b core.Bookmark) bool { return b.ID == query }); ok {
		return b, nil
	}

	labels := lo.Map(marks, func(b core.Bookmark, _ int) string { return b.Label })
	ranks := fuzzy.RankFindNormalizedFold(query, labels)
	if len(ranks) == 0 {
		return core.Bookmark{}, fmt.Errorf("%w: %q", errors.ErrBookmarkNotFound, query)
	}
	sort.Sort(ranks)
	return marks[ranks[0].OriginalIndex], nil
}
