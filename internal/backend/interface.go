package backend

import (
	"context"

	"fundledger/internal/store"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// PingFunc checks that the backend is reachable.
type PingFunc func(ctx context.Context) error

// BackendResult holds the two collections of a backend and its lifecycle
// hooks. Ping and Cleanup may be nil.
type BackendResult struct {
	Donations store.Collection
	Outflows  store.Collection
	Ping      PingFunc
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	DonationsCollection string
	OutflowsCollection  string

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	PostgresDSN string

	// Firestore specific
	FirestoreProjectID string
	FirestoreDatabase  string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend    BackendType = "memory"
	SQLiteBackend    BackendType = "sqlite"
	PostgresBackend  BackendType = "postgres"
	FirestoreBackend BackendType = "firestore"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend, FirestoreBackend:
		return true
	default:
		return false
	}
}
