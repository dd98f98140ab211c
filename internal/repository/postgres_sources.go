package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"CurveDash/internal/domain/models"
	domrepo "CurveDash/internal/domain/repository"
)

const selectSourceCols = "SELECT id, name, enabled, config, last_sync, created_at, updated_at FROM data_sources"

// PostgresSourceRegistry implements SourceRegistry on Postgres.
type PostgresSourceRegistry struct {
	pool *pgxpool.Pool
}

// NewPostgresSourceRegistry creates the Postgres source registry.
func NewPostgresSourceRegistry(pool *pgxpool.Pool) domrepo.SourceRegistry {
	return &PostgresSourceRegistry{pool: pool}
}

func (r *PostgresSourceRegistry) Get(ctx context.Context, name string) (*models.DataSource, error) {
	row := r.pool.QueryRow(ctx, selectSourceCols+" WHERE name = $1", name)
	src, err := scanSource(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, models.NewStorageError("get source", err)
	}
	return src, nil
}

func (r *PostgresSourceRegistry) List(ctx context.Context) ([]*models.DataSource, error) {
	return r.list(ctx, selectSourceCols+" ORDER BY name")
}

func (r *PostgresSourceRegistry) ListEnabled(ctx context.Context) ([]*models.DataSource, error) {
	return r.list(ctx, selectSourceCols+" WHERE enabled ORDER BY name")
}

func (r *PostgresSourceRegistry) list(ctx context.Context, q string) ([]*models.DataSource, error) {
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, models.NewStorageError("list sources", err)
	}
	defer rows.Close()

	sources := make([]*models.DataSource, 0)
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, models.NewStorageError("scan source", err)
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewStorageError("list sources", err)
	}
	return sources, nil
}

func (r *PostgresSourceRegistry) TouchLastSync(ctx context.Context, name string, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE data_sources SET last_sync = $1, updated_at = now() WHERE name = $2",
		at.UTC(), name)
	if err != nil {
		return models.NewStorageError("touch last sync", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNoData
	}
	return nil
}

// Ensure registers the descriptor if missing, leaving existing rows alone.
// Called at startup so the configured feed always has a registry entry.
func (r *PostgresSourceRegistry) Ensure(ctx context.Context, name string, enabled bool, config map[string]interface{}) error {
	cfg, err := json.Marshal(config)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO data_sources (name, enabled, config)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING
	`, name, enabled, cfg)
	if err != nil {
		return models.NewStorageError("ensure source", err)
	}
	return nil
}

func scanSource(row pgx.Row) (*models.DataSource, error) {
	var (
		src models.DataSource
		cfg []byte
	)
	if err := row.Scan(&src.ID, &src.Name, &src.Enabled, &cfg, &src.LastSync, &src.CreatedAt, &src.UpdatedAt); err != nil {
		return nil, err
	}
	if len(cfg) > 0 {
		if err := json.Unmarshal(cfg, &src.Config); err != nil {
			return nil, err
		}
	}
	return &src, nil
}
