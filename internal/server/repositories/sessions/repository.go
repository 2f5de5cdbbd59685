// Package sessions contains the issued-session audit repository.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/capsync/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, s *models.IssuedSession) (*models.IssuedSession, error)
	ListByFolder(ctx context.Context, folderName string) ([]*models.IssuedSession, error)
}
