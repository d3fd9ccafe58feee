// Package presence tracks which accounts are online and on how many devices.
//
// Two key families, both keyed by account id: a status record, overwritten
// wholesale on every transition, and a set of live connection ids supporting
// multiple simultaneous devices. Status writes are last-write-wins; the
// connection-id set is the authoritative multiplicity.
package presence

import (
	"context"
	"time"
)

// Status is an account's merged online/offline state.
type Status struct {
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"last_seen"`
}

// Store is the key-value presence abstraction shared by every gateway.
type Store interface {
	SetStatus(ctx context.Context, accountID int64, st Status) error
	// GetStatus returns the stored status and whether one exists. An account
	// that never connected has no record and is reported offline.
	GetStatus(ctx context.Context, accountID int64) (Status, bool, error)
	AddConnection(ctx context.Context, accountID int64, connID string) error
	RemoveConnection(ctx context.Context, accountID int64, connID string) error
	CountConnections(ctx context.Context, accountID int64) (int, error)
	Close() error
}
