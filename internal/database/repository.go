package database

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-jobfeed-crawler/internal/models"
)

var ErrJobNotFound = errors.New("job not found")

// dbtx is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func ConnectDB(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse database url")
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour

	// PgBouncer in transaction mode cannot hold prepared statements
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, errors.Wrap(err, "unable to connect to database")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "database unreachable")
	}

	return &Repository{db: pool, pool: pool}, nil
}

// NewRepository wraps an existing connection or transaction
func NewRepository(db dbtx) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	source      TEXT NOT NULL,
	external_id TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	company     TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL,
	channel     TEXT NOT NULL DEFAULT '',
	crawl_id    TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (source, external_id)
)`

// EnsureSchema creates the jobs table if it does not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to create jobs table")
	}
	return nil
}

// SaveJob inserts a new job or updates an existing one (based on source + external_id)
func (r *Repository) SaveJob(ctx context.Context, job *models.Job) (*models.Job, error) {
	query := `
		INSERT INTO jobs (source, external_id, title, company, url, channel, crawl_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (source, external_id)
		DO UPDATE SET title = EXCLUDED.title, company = EXCLUDED.company, url = EXCLUDED.url,
			channel = EXCLUDED.channel, crawl_id = EXCLUDED.crawl_id, updated_at = now()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, job.Source, job.ExternalID, job.Title, job.Company, job.URL, job.Channel, job.CrawlID).
		Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to save job %s", job.ExternalID)
	}
	return job, nil
}

// SaveJobs saves each job and returns how many were stored before the first failure
func (r *Repository) SaveJobs(ctx context.Context, jobs []*models.Job) (int, error) {
	for i, job := range jobs {
		if _, err := r.SaveJob(ctx, job); err != nil {
			return i, err
		}
	}
	return len(jobs), nil
}

// GetJob retrieves a job by its source and canonical link
func (r *Repository) GetJob(ctx context.Context, source, externalID string) (*models.Job, error) {
	var job models.Job
	query := `SELECT id, source, external_id, title, company, url, channel, crawl_id, created_at, updated_at
		FROM jobs WHERE source = $1 AND external_id = $2`
	err := r.db.QueryRow(ctx, query, source, externalID).
		Scan(&job.ID, &job.Source, &job.ExternalID, &job.Title, &job.Company, &job.URL, &job.Channel, &job.CrawlID, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(ErrJobNotFound, "%s %s", source, externalID)
		}
		return nil, errors.Wrap(err, "failed to get job")
	}
	return &job, nil
}
