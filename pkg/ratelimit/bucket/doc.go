// Package bucket is a token bucket used to pace outgoing API requests.
//
// A Limiter refills at Limit tokens per second up to Burst tokens. Allow
// takes a token if one is available; Wait blocks until one is, or until the
// context ends:
//
//	limiter := bucket.New(bucket.Every(200*time.Millisecond), 5)
//	if err := limiter.Wait(ctx); err != nil {
//		return err
//	}
//
// The zero Limit never refills and Inf disables limiting.
package bucket
