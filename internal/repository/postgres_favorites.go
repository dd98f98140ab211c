package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"CurveDash/internal/domain/models"
	domrepo "CurveDash/internal/domain/repository"
)

// PostgresFavoriteStore implements FavoriteStore on Postgres.
type PostgresFavoriteStore struct {
	pool *pgxpool.Pool
}

// NewPostgresFavoriteStore creates the Postgres favorite store.
func NewPostgresFavoriteStore(pool *pgxpool.Pool) domrepo.FavoriteStore {
	return &PostgresFavoriteStore{pool: pool}
}

func (s *PostgresFavoriteStore) List(ctx context.Context, userID string) ([]*models.Favorite, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, ticker, display_name, created_at
		FROM user_favorites
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, models.NewStorageError("list favorites", err)
	}
	defer rows.Close()

	favorites := make([]*models.Favorite, 0)
	for rows.Next() {
		var f models.Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.Ticker, &f.DisplayName, &f.CreatedAt); err != nil {
			return nil, models.NewStorageError("scan favorite", err)
		}
		favorites = append(favorites, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewStorageError("list favorites", err)
	}
	return favorites, nil
}

func (s *PostgresFavoriteStore) Add(ctx context.Context, f *models.Favorite) (*models.Favorite, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO user_favorites (user_id, ticker, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, ticker) DO UPDATE SET display_name = EXCLUDED.display_name
		RETURNING id, created_at
	`, f.UserID, f.Ticker, f.DisplayName).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return nil, models.NewStorageError("add favorite", err)
	}
	return f, nil
}

func (s *PostgresFavoriteStore) Remove(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM user_favorites WHERE id = $1", id)
	if err != nil {
		return models.NewStorageError("remove favorite", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNoData
	}
	return nil
}
