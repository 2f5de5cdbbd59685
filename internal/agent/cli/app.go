// Package cli implements the interactive front end of the capsync agent.
// It is the composition root: the state store, the API client, the
// transferrer, and the upload coordinator are constructed once here and
// live until the process exits.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/capsync/internal/agent/api"
	"github.com/dmitrijs2005/capsync/internal/agent/config"
	"github.com/dmitrijs2005/capsync/internal/agent/state"
	"github.com/dmitrijs2005/capsync/internal/agent/transfer"
	"github.com/dmitrijs2005/capsync/internal/agent/upload"
	"github.com/dmitrijs2005/capsync/internal/common"
	"github.com/dmitrijs2005/capsync/internal/logging"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	store       *state.Store
	tokens      *api.FileTokenProvider
	client      api.Client
	coordinator *upload.Coordinator
	reader      *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	logger := logging.NewSlogLogger(sl)

	store := state.NewStore(c.StateFilePath, c.LockRetryBudget, logger)
	tokens := api.NewFileTokenProvider(c.TokenFilePath)
	client := api.NewHTTPClient(c.BackendAddr, tokens, logger)
	transferrer := transfer.NewHTTPTransferrer(logger)

	coordinator := upload.NewCoordinator(
		store, client, transferrer,
		upload.SinkFunc(func(r upload.Report) {
			logger.Debug(context.Background(), "status report updated", "folders", len(r))
		}),
		logger, c.VideoStorageRoot, c.SessionURIValidity,
	)

	return &App{
		config:      c,
		logger:      logger,
		store:       store,
		tokens:      tokens,
		client:      client,
		coordinator: coordinator,
		reader:      bufio.NewReader(os.Stdin),
	}, nil
}

// Run verifies the persisted state (driving the recovery dialog when the
// document is corrupt), clears interrupted-upload flags left by a crash,
// and enters the command loop.
func (a *App) Run(ctx context.Context) error {
	if err := a.ensureStateLoadable(ctx); err != nil {
		return err
	}

	n, err := a.store.NormalizeInterrupted(ctx)
	if err != nil {
		return fmt.Errorf("normalize interrupted uploads: %w", err)
	}
	if n > 0 {
		fmt.Printf("%d interrupted upload(s) from a previous run are ready to retry\n", n)
	}

	a.Main(ctx)
	return nil
}

// ensureStateLoadable loads the state document once at startup. On
// corruption it rebuilds a minimal candidate from the storage root and
// asks the user to reset or abort; data is never discarded silently.
func (a *App) ensureStateLoadable(ctx context.Context) error {
	_, err := a.store.Load(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrStateCorrupt) {
		return err
	}

	a.logger.Error(ctx, "persisted state failed validation", "error", err.Error())

	recovered, rerr := a.store.Recover(ctx, a.config.VideoStorageRoot)
	if rerr != nil {
		return fmt.Errorf("state recovery scan: %w", rerr)
	}

	fmt.Printf("The state file is corrupt. A minimal state with %d folder(s) can be rebuilt from disk.\n", len(recovered.Folders))
	ok, cerr := Confirm(a.reader, "Reset the state file to the rebuilt version?", os.Stdout)
	if cerr != nil {
		return cerr
	}
	if !ok {
		return fmt.Errorf("state reset declined: %w", err)
	}

	if err := a.store.ResetTo(ctx, recovered); err != nil {
		return fmt.Errorf("apply recovered state: %w", err)
	}
	fmt.Println("State file reset.")
	return nil
}
