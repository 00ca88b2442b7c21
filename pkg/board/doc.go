// Package board keeps an incrementally updated, locally cached copy of the
// pin list of one public Pinterest board.
//
// A Board resolves the board's internal id once, at construction, and loads
// whatever was cached before. Each call to Pins pages the feed from the
// newest pin down and stops at the first pin it already has, so a repeated
// call on an unchanged board costs a single feed request. New pins are
// appended in oldest-first order and the full list is written back to the
// cache.
//
// Basic usage:
//
//	client := pinterest.NewClient(pinterest.Options{Timeout: 30 * time.Second})
//	b, err := board.New(ctx, client, "someuser", "recipes",
//		board.WithCachePath("recipes.json"),
//		board.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	pins, err := b.Pins(ctx)
//	oldest := pins[0]
package board
