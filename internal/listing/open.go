package listing

import (
	"context"
	"fmt"
)

// Open returns the store selected by dsn: in memory when dsn is empty,
// Postgres (migrated on open) otherwise. With seed set an empty store
// receives the demo catalog. closeFn releases the database, if any.
func Open(ctx context.Context, dsn string, seed bool) (s Store, closeFn func() error, err error) {
	closeFn = func() error { return nil }

	if dsn == "" {
		s = NewMemStore()
	} else {
		db, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		if err := Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		s, closeFn = NewPostgresStore(db), db.Close
	}

	if seed {
		if err := Seed(ctx, s); err != nil {
			_ = closeFn()
			return nil, nil, fmt.Errorf("seed: %w", err)
		}
	}
	return s, closeFn, nil
}
