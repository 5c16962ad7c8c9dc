package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/agnosto/dm-archiver/core"
	"github.com/agnosto/dm-archiver/db"
	dbservice "github.com/agnosto/dm-archiver/db/service"
	"github.com/agnosto/dm-archiver/logger"
)

var errDatabaseNotOpen = errors.New("database is not open")

// archiveStore opens the database on first use. A failed open is retried at
// the next health check, so the scheduler runs while the database is down.
type archiveStore struct {
	connector string

	mu       sync.Mutex
	database *db.Database
	archive  *dbservice.ArchiveService
}

func newArchiveStore(connector string) *archiveStore {
	return &archiveStore{connector: connector}
}

func (s *archiveStore) open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLocked()
}

func (s *archiveStore) openLocked() error {
	if s.database != nil {
		return nil
	}
	database, err := db.NewDatabase(s.connector)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	s.database = database
	s.archive = dbservice.NewArchiveService(database.DB)
	return nil
}

func (s *archiveStore) Healthy(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.openLocked(); err != nil {
		logger.Logger.Error().Err(err).Msg("database unavailable")
		return false
	}
	return s.database.Healthy(ctx)
}

func (s *archiveStore) Ingest(ctx context.Context, cmd core.Command, link core.PostLink, result core.FetchResult) (dbservice.Outcome, error) {
	s.mu.Lock()
	archive := s.archive
	s.mu.Unlock()
	if archive == nil {
		return 0, errDatabaseNotOpen
	}
	return archive.Ingest(ctx, cmd, link, result)
}

func (s *archiveStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.database == nil {
		return nil
	}
	err := s.database.Close()
	s.database, s.archive = nil, nil
	return err
}
