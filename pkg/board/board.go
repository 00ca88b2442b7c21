package board

import (
	"context"
	"errors"
	"sync"

	"pinscraper/pkg/cache"
	"pinscraper/pkg/logger"
	"pinscraper/pkg/models"
)

// Board is a public board with its pins cached oldest first
type Board struct {
	identity models.BoardIdentity
	id       int64
	client   Client
	store    *cache.Store
	logger   logger.Logger

	// mu serializes Pins so only one fetch runs per board
	mu    sync.Mutex
	pins  []models.Pin
	known map[int64]struct{}
}

type options struct {
	cachePath string
	logger    logger.Logger
}

// Option configures a Board
type Option func(*options)

// WithCachePath persists the pin list at path. Without it nothing is cached
// across runs.
func WithCachePath(path string) Option {
	return func(o *options) {
		o.cachePath = path
	}
}

// WithLogger sets the logger used by the board and its cache
func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}

// New resolves the board and loads its cache. It fails when the board does
// not exist, or when the cache file is corrupted or belongs to another board.
func New(ctx context.Context, client Client, userName, boardName string, opts ...Option) (*Board, error) {
	if userName == "" || boardName == "" {
		return nil, errors.New("user name and board name are required")
	}

	o := options{logger: logger.NewNopLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	identity := models.BoardIdentity{UserName: userName, BoardName: boardName}
	log := o.logger.WithFields(map[string]interface{}{
		"user_name":  userName,
		"board_name": boardName,
	})
	log.Info("initializing board")

	id, err := client.ResolveBoardID(ctx, identity)
	if err != nil {
		log.WithError(err).Error("failed to resolve board")
		return nil, err
	}

	store := cache.NewStore(o.cachePath, log)
	cached, err := store.Load(identity)
	if err != nil {
		return nil, err
	}

	b := &Board{
		identity: identity,
		id:       id,
		client:   client,
		store:    store,
		logger:   log.WithField("board_id", id),
		known:    make(map[int64]struct{}, len(cached)),
	}
	b.commit(cached)

	return b, nil
}

// Pins fetches pins added since the last call, appends them to the cached
// list, persists it and returns a copy of the whole list, oldest first.
// On failure the list is left exactly as it was.
func (b *Board) Pins(ctx context.Context) ([]models.Pin, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	fresh, err := fetchNew(ctx, b.client, b.id, b.identity, b.isKnown, b.logger)
	if err != nil {
		b.logger.WithError(err).Error("failed to fetch new pins")
		return nil, err
	}

	merged := make([]models.Pin, 0, len(b.pins)+len(fresh))
	merged = append(merged, b.pins...)
	merged = append(merged, fresh...)

	if err := b.store.Save(b.identity, merged); err != nil {
		return nil, err
	}
	b.commit(fresh)

	return b.snapshot(), nil
}

// Cached returns the pins held in memory without contacting the site
func (b *Board) Cached() []models.Pin {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot()
}

// ID returns the internal board id resolved at construction
func (b *Board) ID() int64 {
	return b.id
}

// Identity returns the owner and name of the board
func (b *Board) Identity() models.BoardIdentity {
	return b.identity
}

// CachePath returns the cache file location, empty when caching is off
func (b *Board) CachePath() string {
	return b.store.Path()
}

// Equal reports whether two boards have the same owner and name
func (b *Board) Equal(other *Board) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.identity.Equal(other.identity)
}

func (b *Board) isKnown(id int64) bool {
	_, ok := b.known[id]
	return ok
}

// commit appends pins to the in-memory list; callers hold mu or own b
func (b *Board) commit(pins []models.Pin) {
	for _, p := range pins {
		b.pins = append(b.pins, p)
		b.known[p.ID] = struct{}{}
	}
}

func (b *Board) snapshot() []models.Pin {
	out := make([]models.Pin, len(b.pins))
	copy(out, b.pins)
	return out
}
