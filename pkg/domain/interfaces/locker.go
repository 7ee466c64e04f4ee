package interfaces

import "context"

// Locker serializes work per key. Lock blocks until the key is free or ctx
// is done; the returned function releases it.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
