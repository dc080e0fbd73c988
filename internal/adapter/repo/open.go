package repo

import (
	"context"
	"fmt"

	"artistry/internal/domain"
	"artistry/internal/infra"
)

// Backend is an opened persistence backend.
type Backend struct {
	Stores domain.Stores
	// SQL is set in postgres mode only; the credentials store needs it.
	SQL   infra.SQLExecutor
	close func()
}

// Close releases the underlying connections.
func (b *Backend) Close() {
	if b != nil && b.close != nil {
		b.close()
	}
}

// Open connects the backend selected by cfg.PersistenceMode and applies the
// schema. Stateless mode returns empty stores.
func Open(ctx context.Context, cfg *infra.Config, logger infra.Logger) (*Backend, error) {
	switch cfg.PersistenceMode {
	case infra.PersistencePostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		runner := infra.NewSQLRunner(pool, logger)
		if err := infra.MigratePostgres(ctx, runner); err != nil {
			pool.Close()
			return nil, err
		}
		return &Backend{Stores: NewPostgresStores(runner), SQL: runner, close: pool.Close}, nil
	case infra.PersistenceSQLite:
		db, err := infra.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Backend{Stores: NewSQLiteStores(db), close: func() { _ = db.Close() }}, nil
	case infra.PersistenceStateless:
		return &Backend{Stores: domain.Stores{Mode: infra.PersistenceStateless}}, nil
	default:
		return nil, fmt.Errorf("unsupported persistence mode %q", cfg.PersistenceMode)
	}
}

// NewPostgresStores builds the postgres repositories on one executor.
func NewPostgresStores(sql infra.SQLExecutor) domain.Stores {
	jobs := NewJobRepository(sql)
	return domain.Stores{
		Mode:     infra.PersistencePostgres,
		Jobs:     jobs,
		Claimer:  jobs,
		Sessions: NewSessionRepository(sql),
		Results:  NewResultRepository(sql),
	}
}
