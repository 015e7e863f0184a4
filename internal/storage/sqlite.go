package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv_store (
    key   TEXT PRIMARY KEY,
    value BLOB NOT NULL
)
`

type sqliteStoreImpl struct {
	logger zerolog.Logger
	pool   *sqlitex.Pool
	path   string
}

// NewSQLiteStore opens (creating if needed) a WAL database at path. The
// table is created on every new connection, before first use.
func NewSQLiteStore(logger zerolog.Logger, path string, poolSize int) (Store, error) {
	logger = logger.With().Str("component", "sqlite_store").Logger()
	if path == "" {
		return nil, fmt.Errorf("sqlite store: path is required")
	}
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareSQLiteConn,
	})
	if err != nil {
		logger.Error().
			Err(err).
			Str("path", path).
			Msg("failed to open sqlite pool")
		return nil, fmt.Errorf("sqlite store: opening %s: %w", path, err)
	}
	logger.Info().
		Str("path", path).
		Int("pool_size", poolSize).
		Msg("opened sqlite store")

	return &sqliteStoreImpl{
		logger: logger,
		pool:   pool,
		path:   path,
	}, nil
}

func prepareSQLiteConn(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		err := sqlitex.ExecuteTransient(conn, pragma, nil)
		if err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return sqlitex.ExecuteTransient(conn, sqliteSchema, nil)
}

func (s *sqliteStoreImpl) Get(ctx context.Context, key string) ([]byte, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to take sqlite connection")
		return nil, err
	}
	defer s.pool.Put(conn)

	var (
		value []byte
		found bool
	)
	const selectValueQuery = `SELECT value FROM kv_store WHERE key = ?`
	err = sqlitex.Execute(conn, selectValueQuery, &sqlitex.ExecOptions{
		Args: []any{key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			value = make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, value)
			found = true
			return nil
		},
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to select value")
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return value, nil
}

func (s *sqliteStoreImpl) Put(ctx context.Context, key string, value []byte) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to take sqlite connection")
		return err
	}
	defer s.pool.Put(conn)

	const upsertValueQuery = `
INSERT INTO kv_store (key, value)
VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value
`
	err = sqlitex.Execute(conn, upsertValueQuery, &sqlitex.ExecOptions{
		Args: []any{key, value},
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to upsert value")
		return err
	}
	s.logger.Trace().
		Str("key", key).
		Int("size", len(value)).
		Msg("stored value")
	return nil
}

func (s *sqliteStoreImpl) Delete(ctx context.Context, key string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to take sqlite connection")
		return err
	}
	defer s.pool.Put(conn)

	const deleteValueQuery = `DELETE FROM kv_store WHERE key = ?`
	err = sqlitex.Execute(conn, deleteValueQuery, &sqlitex.ExecOptions{
		Args: []any{key},
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to delete value")
		return err
	}
	return nil
}

func (s *sqliteStoreImpl) Close() error {
	err := s.pool.Close()
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("path", s.path).
			Msg("failed to close sqlite pool")
		return err
	}
	s.logger.Info().
		Str("path", s.path).
		Msg("closed sqlite store")
	return nil
}
