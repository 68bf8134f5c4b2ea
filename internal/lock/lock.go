// Package lock guards the ledger store against a second writer process.
//
// The server holds the lock for its whole life; depensesctl takes it for the
// duration of a write command. Both sides use the same path, derived from the
// configured backend.
package lock

import "errors"

// ErrLocked is returned by Acquire when another process holds the lock.
var ErrLocked = errors.New("ledger store is in use by another process")
