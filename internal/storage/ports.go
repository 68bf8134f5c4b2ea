package storage

import (
	"context"
	"errors"
)

// ErrEmptyKey is returned by stores when asked for the empty key.
var ErrEmptyKey = errors.New("empty key")

// Ports for the durable key-value store backends.
type (
	KeyValueStore interface {
		// Get returns the value stored under key; found is false when absent.
		Get(ctx context.Context, key string) (value []byte, found bool, err error)
		// Put overwrites the value stored under key.
		Put(ctx context.Context, key string, value []byte) error
	}

	// Pinger is implemented by stores that can report their health.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
