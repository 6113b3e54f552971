// Package dedup remembers which event ids were already accepted so that the
// same lead or conversion is never dispatched twice inside the dedup window.
package dedup

import "context"

// Store is a bounded set of recently seen event ids.
type Store interface {
	// Claim atomically records id and reports whether it was new. A false
	// result means id was already claimed and has not yet expired.
	Claim(ctx context.Context, id string) (bool, error)
	// Len returns the number of ids currently remembered.
	Len(ctx context.Context) (int, error)
	Close(ctx context.Context) error
}
