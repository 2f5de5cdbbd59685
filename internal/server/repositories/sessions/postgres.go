package sessions

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/capsync/internal/dbx"
	"github.com/dmitrijs2005/capsync/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, s *models.IssuedSession) (*models.IssuedSession, error) {

	query :=
		`INSERT INTO issued_sessions (user_id, folder_name, issued_at, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		s.UserID, s.FolderName, s.IssuedAt, s.ExpiresAt).Scan(&s.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return s, nil
}

func (r *PostgresRepository) ListByFolder(ctx context.Context, folderName string) ([]*models.IssuedSession, error) {
	query :=
		`SELECT id, user_id, folder_name, issued_at, expires_at FROM issued_sessions
		 WHERE folder_name = $1
		 ORDER BY issued_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, folderName)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.IssuedSession
	for rows.Next() {
		s := &models.IssuedSession{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.FolderName, &s.IssuedAt, &s.ExpiresAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
