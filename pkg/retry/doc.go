// Package retry repeats operations that fail with transient errors.
//
// It is used for resource downloads only. Board resolution and feed paging
// never retry: their failures go straight back to the caller.
//
//	err := retry.Do(ctx, func() error {
//		return fetch(url)
//	}, &retry.Config{
//		MaxAttempts: 3,
//		Backoff:     retry.DefaultExponentialBackoff(),
//		Logger:      log,
//	})
//
// Errors from pkg/errors are retried only when their type is network or
// server_error. Context cancellation is never retried.
package retry
