package board

import (
	"context"

	"pinscraper/pkg/models"
	"pinscraper/pkg/pinterest"
)

// FeedSource serves one page of a board feed per call
type FeedSource interface {
	FetchFeedPage(ctx context.Context, boardID int64, board models.BoardIdentity, bookmarks []string) (*pinterest.FeedPage, error)
}

// Client resolves boards and serves their feeds
type Client interface {
	FeedSource
	ResolveBoardID(ctx context.Context, board models.BoardIdentity) (int64, error)
}
