package repositories

import (
	"context"
	"database/sql"

	"github.com/desertthunder/lens/internal/models"
	"github.com/desertthunder/lens/internal/shared"
)

// Store groups the repositories a scan writes to.
// Every error it returns is a [shared.PersistenceError].
type Store struct {
	ScanLogs *ScanLogRepository
	Movies   *MovieRepository
	Series   *SeriesRepository
	Channels *ChannelRepository
}

// NewStore creates a Store over db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		ScanLogs: NewScanLogRepository(db),
		Movies:   NewMovieRepository(db),
		Series:   NewSeriesRepository(db),
		Channels: NewChannelRepository(db),
	}
}

func (s *Store) CreateScanLog(ctx context.Context, log *models.ScanLog) error {
	return wrap("create scan log", s.ScanLogs.Create(ctx, log))
}

func (s *Store) UpdateScanLog(ctx context.Context, id string, patch models.ScanLogPatch) error {
	return wrap("update scan log", s.ScanLogs.Update(ctx, id, patch))
}

func (s *Store) CreateMovie(ctx context.Context, m *models.MovieRecord) error {
	return wrap("create movie", s.Movies.Create(ctx, m))
}

func (s *Store) CreateSeries(ctx context.Context, r *models.SeriesRecord) error {
	return wrap("create series", s.Series.Create(ctx, r))
}

func (s *Store) CreateChannel(ctx context.Context, c *models.ChannelRecord) error {
	return wrap("create channel", s.Channels.Create(ctx, c))
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &shared.PersistenceError{Op: op, Err: err}
}
