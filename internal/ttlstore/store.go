// Package ttlstore provides a small keyed store with absolute-TTL expiry,
// used for ephemeral transfer sessions and pending-transfer records.
package ttlstore

import "time"

// Store is a concurrent keyed store whose entries expire a fixed duration
// after first insertion. The TTL is absolute: updating an existing entry does
// not extend its lifetime.
type Store[T any] interface {
	// Get returns the live value for id. Expired or unknown ids report false.
	Get(id string) (T, bool)
	// Put inserts or updates the value for id.
	Put(id string, value T)
	// Delete removes the entry for id if present.
	Delete(id string)
	// SweepExpired drops every entry expired as of now and returns the count.
	SweepExpired(now time.Time) int
}
