// Package logger provides the structured logging interface used across pinscraper.
//
// It wraps zerolog with a small Logger interface so that components receive a
// logger at construction instead of reaching for a global one:
//
//	log, err := logger.New(&cfg.Logging)
//	if err != nil {
//	    return err
//	}
//	client := pinterest.NewClient(pinterest.Options{Logger: log})
//	b, err := board.New(ctx, client, "alice", "recipes", board.WithLogger(log))
//
// Console output is colored and written to stderr. When LoggingConfig.File is
// set, JSON lines are also appended to that file.
//
// Tests use NewNopLogger to discard output or NewTestLogger to capture and
// assert on messages.
package logger
