package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/lens/internal/models"
	"github.com/desertthunder/lens/internal/shared"
)

// prepare assigns an ID and creation time to a new record and validates it.
func prepare(rec interface{ Validate() error }, id *string, createdAt *time.Time) error {
	if *id == "" {
		*id = shared.GenerateID()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// MovieRepository persists [models.MovieRecord] rows.
type MovieRepository struct {
	db *sql.DB
}

// NewMovieRepository creates a new MovieRepository with the given database connection
func NewMovieRepository(db *sql.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

const movieColumns = `id, source_id, title, original_title, url, quality, year, genre, language, rating, runtime,
	tmdb_id, imdb_id, confidence, logo, group_title, created_at`

// Create inserts m with a generated ID.
func (r *MovieRepository) Create(ctx context.Context, m *models.MovieRecord) error {
	if err := prepare(m, &m.RecordID, &m.CreatedAt); err != nil {
		return err
	}

	query := `INSERT INTO movies (` + movieColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		m.RecordID,
		m.SourceID,
		m.Title,
		nullString(m.OriginalTitle),
		m.URL,
		nullString(string(m.Quality)),
		nullInt(m.Year),
		nullString(m.Genre),
		nullString(m.Language),
		nullFloat(m.Rating),
		nullInt(m.Runtime),
		nullString(m.TMDBID),
		nullString(m.IMDBID),
		m.Confidence,
		nullString(m.Logo),
		nullString(m.Group),
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert movie: %w", err)
	}
	return nil
}

// Get retrieves a movie by ID.
func (r *MovieRepository) Get(ctx context.Context, id string) (*models.MovieRecord, error) {
	m, err := scanMovie(r.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("movie", id)
	}
	return m, err
}

// List returns movies in insertion order. Criteria: "source_id", "limit".
func (r *MovieRepository) List(ctx context.Context, criteria map[string]any) ([]*models.MovieRecord, error) {
	query, args := where(`SELECT `+movieColumns+` FROM movies WHERE 1 = 1`, nil, criteria, "source_id")
	query = limit(query+" ORDER BY created_at ASC, rowid ASC", criteria)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer rows.Close()

	var out []*models.MovieRecord
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func scanMovie(row scanner) (*models.MovieRecord, error) {
	var (
		m                                   models.MovieRecord
		originalTitle, quality, genre, lang sql.NullString
		tmdbID, imdbID, logo, group         sql.NullString
		year, runtime                       sql.NullInt64
		rating                              sql.NullFloat64
	)
	err := row.Scan(&m.RecordID, &m.SourceID, &m.Title, &originalTitle, &m.URL, &quality, &year, &genre, &lang,
		&rating, &runtime, &tmdbID, &imdbID, &m.Confidence, &logo, &group, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan movie: %w", err)
	}

	m.OriginalTitle = originalTitle.String
	m.Quality = models.Quality(quality.String)
	m.Year = int(year.Int64)
	m.Genre = genre.String
	m.Language = lang.String
	m.Rating = rating.Float64
	m.Runtime = int(runtime.Int64)
	m.TMDBID = tmdbID.String
	m.IMDBID = imdbID.String
	m.Logo = logo.String
	m.Group = group.String
	return &m, nil
}

// SeriesRepository persists [models.SeriesRecord] rows.
type SeriesRepository struct {
	db *sql.DB
}

// NewSeriesRepository creates a new SeriesRepository with the given database connection
func NewSeriesRepository(db *sql.DB) *SeriesRepository {
	return &SeriesRepository{db: db}
}

const seriesColumns = `id, source_id, title, original_title, url, quality, year, genre, language, rating, season, episode,
	tmdb_id, imdb_id, confidence, logo, group_title, created_at`

// Create inserts s with a generated ID.
func (r *SeriesRepository) Create(ctx context.Context, s *models.SeriesRecord) error {
	if err := prepare(s, &s.RecordID, &s.CreatedAt); err != nil {
		return err
	}

	query := `INSERT INTO series (` + seriesColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.RecordID,
		s.SourceID,
		s.Title,
		nullString(s.OriginalTitle),
		s.URL,
		nullString(string(s.Quality)),
		nullInt(s.Year),
		nullString(s.Genre),
		nullString(s.Language),
		nullFloat(s.Rating),
		nullInt(s.Season),
		nullInt(s.Episode),
		nullString(s.TMDBID),
		nullString(s.IMDBID),
		s.Confidence,
		nullString(s.Logo),
		nullString(s.Group),
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert series: %w", err)
	}
	return nil
}

// Get retrieves a series episode by ID.
func (r *SeriesRepository) Get(ctx context.Context, id string) (*models.SeriesRecord, error) {
	s, err := scanSeries(r.db.QueryRowContext(ctx, `SELECT `+seriesColumns+` FROM series WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("series", id)
	}
	return s, err
}

// List returns series episodes ordered by title, season and episode. Criteria: "source_id", "title", "limit".
func (r *SeriesRepository) List(ctx context.Context, criteria map[string]any) ([]*models.SeriesRecord, error) {
	query, args := where(`SELECT `+seriesColumns+` FROM series WHERE 1 = 1`, nil, criteria, "source_id", "title")
	query = limit(query+" ORDER BY title ASC, season ASC, episode ASC", criteria)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer rows.Close()

	var out []*models.SeriesRecord
	for rows.Next() {
		s, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func scanSeries(row scanner) (*models.SeriesRecord, error) {
	var (
		s                                   models.SeriesRecord
		originalTitle, quality, genre, lang sql.NullString
		tmdbID, imdbID, logo, group         sql.NullString
		year, season, episode               sql.NullInt64
		rating                              sql.NullFloat64
	)
	err := row.Scan(&s.RecordID, &s.SourceID, &s.Title, &originalTitle, &s.URL, &quality, &year, &genre, &lang,
		&rating, &season, &episode, &tmdbID, &imdbID, &s.Confidence, &logo, &group, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan series: %w", err)
	}

	s.OriginalTitle = originalTitle.String
	s.Quality = models.Quality(quality.String)
	s.Year = int(year.Int64)
	s.Genre = genre.String
	s.Language = lang.String
	s.Rating = rating.Float64
	s.Season = int(season.Int64)
	s.Episode = int(episode.Int64)
	s.TMDBID = tmdbID.String
	s.IMDBID = imdbID.String
	s.Logo = logo.String
	s.Group = group.String
	return &s, nil
}

// ChannelRepository persists [models.ChannelRecord] rows.
type ChannelRepository struct {
	db *sql.DB
}

// NewChannelRepository creates a new ChannelRepository with the given database connection
func NewChannelRepository(db *sql.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

const channelColumns = `id, source_id, name, url, logo, group_title, category, language, quality, tvg_id, confidence, created_at`

// Create inserts c with a generated ID.
func (r *ChannelRepository) Create(ctx context.Context, c *models.ChannelRecord) error {
	if err := prepare(c, &c.RecordID, &c.CreatedAt); err != nil {
		return err
	}

	query := `INSERT INTO channels (` + channelColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.RecordID,
		c.SourceID,
		c.Name,
		c.URL,
		nullString(c.Logo),
		nullString(c.Group),
		nullString(c.Category),
		nullString(c.Language),
		nullString(string(c.Quality)),
		nullString(c.TVGID),
		c.Confidence,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert channel: %w", err)
	}
	return nil
}

// Get retrieves a channel by ID.
func (r *ChannelRepository) Get(ctx context.Context, id string) (*models.ChannelRecord, error) {
	c, err := scanChannel(r.db.QueryRowContext(ctx, `SELECT `+channelColumns+` FROM channels WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("channel", id)
	}
	return c, err
}

// List returns channels ordered by name. Criteria: "source_id", "category", "language", "limit".
func (r *ChannelRepository) List(ctx context.Context, criteria map[string]any) ([]*models.ChannelRecord, error) {
	query, args := where(`SELECT `+channelColumns+` FROM channels WHERE 1 = 1`, nil, criteria, "source_id", "category", "language")
	query = limit(query+" ORDER BY name ASC", criteria)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer rows.Close()

	var out []*models.ChannelRecord
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func scanChannel(row scanner) (*models.ChannelRecord, error) {
	var (
		c                                 models.ChannelRecord
		logo, group, category, lang, qual sql.NullString
		tvgID                             sql.NullString
	)
	err := row.Scan(&c.RecordID, &c.SourceID, &c.Name, &c.URL, &logo, &group, &category, &lang, &qual, &tvgID, &c.Confidence, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan channel: %w", err)
	}

	c.Logo = logo.String
	c.Group = group.String
	c.Category = category.String
	c.Language = lang.String
	c.Quality = models.Quality(qual.String)
	c.TVGID = tvgID.String
	return &c, nil
}
