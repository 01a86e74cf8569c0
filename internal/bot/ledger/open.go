package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/verifybot/internal/bot/config"
	"github.com/dmitrijs2005/verifybot/internal/logging"
)

// Open builds the repository selected by cfg.Data.Backend and wraps it with
// the S3 mirror when a bucket is configured.
//
// With the postgres backend, records found in the JSON ledger file are
// imported once so switching backends keeps existing members.
func Open(ctx context.Context, cfg *config.Config, logger logging.Logger) (Repository, error) {
	var repo Repository

	switch cfg.Data.Backend {
	case config.BackendPostgres:
		pg, db, err := OpenPostgres(ctx, cfg.Data.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		legacy, err := readRecordsFile(cfg.Data.VerifiedUsersFile)
		if err != nil {
			logger.Warn(ctx, "skipping ledger file import", "path", cfg.Data.VerifiedUsersFile, "error", err)
		}
		if len(legacy) > 0 {
			added, err := ImportRecords(ctx, db, legacy)
			if err != nil {
				_ = pg.Close()
				return nil, fmt.Errorf("import ledger file: %w", err)
			}
			logger.Info(ctx, "imported ledger file", "path", cfg.Data.VerifiedUsersFile, "added", added)
		}
		repo = pg
	default:
		j, err := OpenJSONFile(ctx, cfg.Data.Folder, cfg.Data.VerifiedUsersFile, logger)
		if err != nil {
			return nil, err
		}
		repo = j
	}

	if cfg.Data.S3.Bucket == "" {
		return repo, nil
	}

	client, err := NewS3Client(ctx, cfg.Data.S3)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	logger.Info(ctx, "ledger snapshots enabled", "bucket", cfg.Data.S3.Bucket)
	return NewMirroredRepository(repo, client, cfg.Data.S3.Bucket, cfg.Data.S3.Key, logger), nil
}

func readRecordsFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}
