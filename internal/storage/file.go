package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

type fileStoreImpl struct {
	logger zerolog.Logger
	dir    string
}

// NewFileStore keeps one file per key under dir. Writes go to a temp file
// in the same directory and are renamed over the target.
func NewFileStore(logger zerolog.Logger, dir string) (Store, error) {
	err := os.MkdirAll(dir, 0o700)
	if err != nil {
		logger.Error().
			Err(err).
			Str("dir", dir).
			Msg("failed to create store directory")
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	return &fileStoreImpl{
		logger: logger.With().Str("component", "file_store").Logger(),
		dir:    dir,
	}, nil
}

func (s *fileStoreImpl) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".bin")
}

func (s *fileStoreImpl) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		s.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to read value")
		return nil, err
	}
	return data, nil
}

func (s *fileStoreImpl) Put(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".put-*")
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to create temp file")
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	_, err = tmp.Write(value)
	if err == nil {
		err = tmp.Sync()
	}
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to write temp file")
		return err
	}

	err = os.Rename(tmpName, s.path(key))
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to replace value")
		return err
	}
	s.logger.Trace().
		Str("key", key).
		Int("size", len(value)).
		Msg("stored value")
	return nil
}

func (s *fileStoreImpl) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to delete value")
		return err
	}
	return nil
}

func (s *fileStoreImpl) Close() error {
	return nil
}
