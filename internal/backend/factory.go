package backend

import (
	"context"
	"fmt"
	"log/slog"

	fsapi "google.golang.org/api/firestore/v1"
	"google.golang.org/api/option"

	"fundledger/internal/core"
	"fundledger/internal/gcloud"
	"fundledger/internal/storage"
	"fundledger/internal/store/firestore"
	"fundledger/internal/store/memory"
	"fundledger/internal/store/postgres"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	// firestoreOpts replaces credentials lookup when set (tests).
	firestoreOpts []option.ClientOption
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

var _ Factory = (*DefaultFactory)(nil)

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend(config), nil
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case PostgresBackend:
		return f.createPostgresBackend(ctx, config)
	case FirestoreBackend:
		return f.createFirestoreBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend(config Config) *BackendResult {
	f.logger.Info("Initialized memory backend",
		"donations", config.DonationsCollection,
		"outflows", config.OutflowsCollection)

	return &BackendResult{
		Donations: memory.New(core.Inflow),
		Outflows:  memory.New(core.Outflow),
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Donations: repo.Collection(config.DonationsCollection, core.Inflow),
		Outflows:  repo.Collection(config.OutflowsCollection, core.Outflow),
		Ping:      repo.Ping,
		Cleanup:   repo.Close,
	}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := postgres.NewRepository(ctx, config.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
	}

	f.logger.Info("Initialized Postgres backend")

	return &BackendResult{
		Donations: repo.Collection(config.DonationsCollection, core.Inflow),
		Outflows:  repo.Collection(config.OutflowsCollection, core.Outflow),
		Ping:      repo.Ping,
		Cleanup:   repo.Close,
	}, nil
}

func (f *DefaultFactory) createFirestoreBackend(ctx context.Context, config Config) (*BackendResult, error) {
	opts := f.firestoreOpts
	if opts == nil {
		var err error
		opts, err = gcloud.CredentialsFromEnv().ClientOptions(ctx, fsapi.DatastoreScope)
		if err != nil {
			return nil, fmt.Errorf("firestore credentials: %w", err)
		}
	}

	client, err := firestore.New(ctx, config.FirestoreProjectID, config.FirestoreDatabase, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firestore client: %w", err)
	}

	donations := client.Collection(config.DonationsCollection, core.Inflow)
	f.logger.Info("Initialized Firestore backend",
		"project", config.FirestoreProjectID,
		"database", config.FirestoreDatabase)

	return &BackendResult{
		Donations: donations,
		Outflows:  client.Collection(config.OutflowsCollection, core.Outflow),
		Ping: func(ctx context.Context) error {
			_, err := donations.QueryRecent(ctx, 1)
			return err
		},
	}, nil
}
