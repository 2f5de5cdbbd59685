package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/capsync/internal/artifacts"
	"github.com/dmitrijs2005/capsync/internal/server/config"
	"github.com/dmitrijs2005/capsync/internal/server/models"
	"github.com/dmitrijs2005/capsync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/capsync/internal/server/storage"
)

type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	presigner   storage.Presigner
	validity    time.Duration
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, p storage.Presigner, cfg *config.Config) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: m,
		presigner:   p,
		validity:    cfg.SessionURIValidity,
	}
}

// IssueSessionURIs presigns one PUT URL per expected artifact file of the
// folder, records an audit row, and returns the URL map plus its expiry.
// Object keys are "<folderName>/<fileName>".
func (s *SessionService) IssueSessionURIs(ctx context.Context, userID, folderName string) (map[string]string, time.Time, error) {

	issuedAt := time.Now()
	expiresAt := issuedAt.Add(s.validity)

	uris := make(map[string]string)
	for _, name := range artifacts.Names() {
		url, err := s.presigner.PresignPut(ctx, folderName+"/"+name, s.validity)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("error presigning %s: %w", name, err)
		}
		uris[name] = url
	}

	repo := s.repomanager.Sessions(s.db)

	_, err := repo.Insert(ctx, &models.IssuedSession{
		UserID:     userID,
		FolderName: folderName,
		IssuedAt:   issuedAt,
		ExpiresAt:  expiresAt,
	})
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("error recording issued session: %w", err)
	}

	return uris, expiresAt, nil
}
