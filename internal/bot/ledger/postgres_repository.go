package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/verifybot/internal/bot/ledger/migrations"
	"github.com/dmitrijs2005/verifybot/internal/common"
	"github.com/dmitrijs2005/verifybot/internal/dbx"
)

// PostgresRepository stores records in the verified_members table. The
// primary key on member_id enforces the one-record-per-member rule.
type PostgresRepository struct {
	db    dbx.DBTX
	close func() error
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// OpenPostgres connects with the pgx driver, migrates the schema and
// returns a repository that owns the connection pool.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepository, *sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db migrate: %w", err)
	}
	r := NewPostgresRepository(db)
	r.close = db.Close
	return r, db, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]Record, error) {
	query :=
		`SELECT member_id, display_name, verified_at, method FROM verified_members
		 ORDER BY verified_at, member_id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.MemberID, &rec.DisplayName, &rec.VerifiedAt, &rec.Method); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		rec.VerifiedAt = rec.VerifiedAt.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return records, nil
}

func (r *PostgresRepository) Find(ctx context.Context, memberID string) (*Record, error) {
	query :=
		`SELECT member_id, display_name, verified_at, method FROM verified_members
		 WHERE member_id = $1
		 `

	rec := &Record{}
	err := r.db.QueryRowContext(ctx, query, memberID).Scan(&rec.MemberID, &rec.DisplayName, &rec.VerifiedAt, &rec.Method)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	rec.VerifiedAt = rec.VerifiedAt.UTC()
	return rec, nil
}

func (r *PostgresRepository) AppendIfAbsent(ctx context.Context, rec Record) (bool, error) {
	query :=
		`INSERT INTO verified_members (member_id, display_name, verified_at, method)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (member_id) DO NOTHING
		 `

	res, err := r.db.ExecContext(ctx, query, rec.MemberID, rec.DisplayName, rec.VerifiedAt, string(rec.Method))
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

// ImportRecords copies records into the table inside one transaction,
// skipping members already present. It returns how many rows were added.
func ImportRecords(ctx context.Context, db *sql.DB, records []Record) (int, error) {
	added := 0
	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewPostgresRepository(tx)
		for _, rec := range records {
			inserted, err := repo.AppendIfAbsent(ctx, rec)
			if err != nil {
				return err
			}
			if inserted {
				added++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}
