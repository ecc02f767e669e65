// Package store provides the persisted key-value store used by the client.
package store

import "context"

// Keys written by the client.
const (
	KeyToken   = "userToken"
	KeyProfile = "userInfo"
	KeyChat    = "chat"
)

// Store is a string key-value store that survives process restarts.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set writes a single key.
	Set(ctx context.Context, key, value string) error

	// SetMany writes every entry or none of them.
	SetMany(ctx context.Context, entries map[string]string) error

	// Remove deletes a key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// RemoveMany deletes every key or none of them.
	RemoveMany(ctx context.Context, keys ...string) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying resources.
	Close() error
}
