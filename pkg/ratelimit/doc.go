// Package ratelimit paces requests to the site.
//
// Pacing is opt-in: the default request interval is zero, which yields a
// limiter that never blocks. When an interval is configured every page or
// resource request waits for its slot first:
//
//	limiter := ratelimit.NewInterval(cfg.Pinterest.RequestInterval)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
//
// Limiters are built on golang.org/x/time/rate and are safe for concurrent use.
// Nothing here reacts to server-side throttling; a 429 response is reported
// as an error like any other unexpected status.
package ratelimit
