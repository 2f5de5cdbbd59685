package api

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/capsync/internal/common"
)

// FileTokenProvider reads the bearer token from a file on disk. The token
// is cached and re-read when the file's mtime changes, so an external
// refresh (or the CLI login command) takes effect without a restart.
type FileTokenProvider struct {
	path string

	mu      sync.Mutex
	token   string
	modTime time.Time
}

func NewFileTokenProvider(path string) *FileTokenProvider {
	return &FileTokenProvider{path: path}
}

func (p *FileTokenProvider) AccessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	info, err := os.Stat(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no token file at %s: %w", p.path, common.ErrorUnauthorized)
		}
		return "", fmt.Errorf("stat token file: %w", err)
	}

	if p.token != "" && info.ModTime().Equal(p.modTime) {
		return p.token, nil
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("empty token file at %s: %w", p.path, common.ErrorUnauthorized)
	}

	p.token = token
	p.modTime = info.ModTime()
	return token, nil
}

// Store writes a fresh token to the file with owner-only permissions.
func (p *FileTokenProvider) Store(token string) error {
	if err := os.WriteFile(p.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	p.mu.Lock()
	p.token = ""
	p.modTime = time.Time{}
	p.mu.Unlock()
	return nil
}
