package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS kv_store (
    key        TEXT PRIMARY KEY,
    value      BYTEA NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)
`

type postgresStoreImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

// NewPostgresStore does not own pgPool; Close leaves it open. The table is
// created lazily the first time a write finds it missing.
func NewPostgresStore(logger zerolog.Logger, pgPool *pgxpool.Pool) Store {
	return &postgresStoreImpl{
		logger: logger.With().Str("component", "postgres_store").Logger(),
		pgPool: pgPool,
	}
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable
}

func (s *postgresStoreImpl) ensureSchema(ctx context.Context) error {
	_, err := s.pgPool.Exec(ctx, postgresSchema)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to create kv_store table")
		return err
	}
	s.logger.Info().Msg("created kv_store table")
	return nil
}

func (s *postgresStoreImpl) Get(ctx context.Context, key string) ([]byte, error) {
	const selectValueQuery = `
SELECT value
FROM kv_store
WHERE key = $1
`
	var value []byte
	err := s.pgPool.QueryRow(
		ctx,
		selectValueQuery,
		key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isUndefinedTable(err) {
			return nil, ErrNotFound
		}

		s.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to select value")
		return nil, err
	}
	return value, nil
}

func (s *postgresStoreImpl) Put(ctx context.Context, key string, value []byte) error {
	const upsertValueQuery = `
INSERT INTO kv_store (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value,
                                updated_at = EXCLUDED.updated_at
`
	_, err := s.pgPool.Exec(ctx, upsertValueQuery, key, value)
	if err != nil && isUndefinedTable(err) {
		err = s.ensureSchema(ctx)
		if err != nil {
			return err
		}
		_, err = s.pgPool.Exec(ctx, upsertValueQuery, key, value)
	}
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

func (s *postgresStoreImpl) Delete(ctx context.Context, key string) error {
	const deleteValueQuery = `
DELETE FROM kv_store
WHERE key = $1
`
	tag, err := s.pgPool.Exec(ctx, deleteValueQuery, key)
	if err != nil {
		if isUndefinedTable(err) {
			return nil
		}

		s.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to delete value")
		return err
	}
	s.logger.Trace().
		Str("key", key).
		Int64("rows", tag.RowsAffected()).
		Msg("deleted value")
	return nil
}

func (s *postgresStoreImpl) Close() error {
	return nil
}
