package board

import (
	"context"
	"fmt"

	"pinscraper/pkg/logger"
	"pinscraper/pkg/models"
	"pinscraper/pkg/pinterest"
)

// FetchNew pages the feed of a board from the newest pin down and returns the
// pins that precede the first already-known one, oldest first.
//
// A pin counts as known when known reports its id, or when it was already
// collected earlier in the same run. Entries after the first known pin are
// never looked at. Any fetch or parse failure aborts the whole run and no
// pins are returned.
func FetchNew(ctx context.Context, source FeedSource, boardID int64, board models.BoardIdentity, known func(id int64) bool) ([]models.Pin, error) {
	return fetchNew(ctx, source, boardID, board, known, logger.NewNopLogger())
}

func fetchNew(ctx context.Context, source FeedSource, boardID int64, board models.BoardIdentity, known func(id int64) bool, log logger.Logger) ([]models.Pin, error) {
	var (
		bookmarks    []string
		prevBookmark string
		fresh        []models.Pin
		collected    = make(map[int64]struct{})
	)

	log.Info("fetching new pins")

	for page := 1; ; page++ {
		feed, err := source.FetchFeedPage(ctx, boardID, board, bookmarks)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch feed page %d: %w", page, err)
		}

		reachedCache := false
		parsed := 0
		for _, raw := range feed.Entries {
			entry, err := pinterest.ParseEntry(raw, board)
			if err != nil {
				return nil, fmt.Errorf("feed page %d: %w", page, err)
			}

			id := entry.Pin().ID
			if _, dup := collected[id]; dup || known(id) {
				reachedCache = true
				break
			}

			fresh = append(fresh, entry.ResolvedPin())
			collected[id] = struct{}{}
			parsed++
		}

		log.DebugWithFields("feed page parsed", map[string]interface{}{
			"page":          page,
			"new_pins":      parsed,
			"reached_cache": reachedCache,
		})

		if reachedCache || !feed.HasMore || len(feed.Entries) == 0 || feed.Bookmark == prevBookmark {
			break
		}
		prevBookmark = feed.Bookmark
		bookmarks = []string{feed.Bookmark}
	}

	for i, j := 0, len(fresh)-1; i < j; i, j = i+1, j-1 {
		fresh[i], fresh[j] = fresh[j], fresh[i]
	}

	log.InfoWithFields("new pins fetched", map[string]interface{}{"count": len(fresh)})
	return fresh, nil
}
