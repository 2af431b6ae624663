// Package ratelimit paces requests to the gallery site.
//
// The site answers aggressive clients with 429s or an anti-bot challenge, so
// every request issued by the site client first waits on a Limiter:
//
//	limiter := ratelimit.NewTokenBucket(2, 4) // 2 req/s, bursts of 4
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
//
// A rate of zero means unlimited.
package ratelimit
