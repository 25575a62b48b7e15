package models

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrMissingSource = errors.New("source id is required")
	ErrMissingTitle  = errors.New("title is required")
	ErrMissingURL    = errors.New("url is required")
	ErrConfidence    = errors.New("confidence must be within 0..100")
)

// MovieRecord is a persisted movie entry.
type MovieRecord struct {
	RecordID      string
	SourceID      string
	Title         string
	OriginalTitle string
	URL           string
	Quality       Quality
	Year          int
	Genre         string
	Language      string
	Rating        float64
	Runtime       int
	TMDBID        string
	IMDBID        string
	Confidence    int
	Logo          string
	Group         string
	CreatedAt     time.Time
}

func (m *MovieRecord) ID() string { return m.RecordID }

func (m *MovieRecord) Validate() error {
	return validateRecord(m.SourceID, m.Title, m.URL, m.Confidence)
}

// SeriesRecord is a persisted series episode entry.
type SeriesRecord struct {
	RecordID      string
	SourceID      string
	Title         string
	OriginalTitle string
	URL           string
	Quality       Quality
	Year          int
	Genre         string
	Language      string
	Rating        float64
	Season        int
	Episode       int
	TMDBID        string
	IMDBID        string
	Confidence    int
	Logo          string
	Group         string
	CreatedAt     time.Time
}

func (s *SeriesRecord) ID() string { return s.RecordID }

func (s *SeriesRecord) Validate() error {
	return validateRecord(s.SourceID, s.Title, s.URL, s.Confidence)
}

// ChannelRecord is a persisted live channel entry.
type ChannelRecord struct {
	RecordID   string
	SourceID   string
	Name       string
	URL        string
	Logo       string
	Group      string
	Category   string
	Language   string
	Quality    Quality
	TVGID      string
	Confidence int
	CreatedAt  time.Time
}

func (c *ChannelRecord) ID() string { return c.RecordID }

func (c *ChannelRecord) Validate() error {
	return validateRecord(c.SourceID, c.Name, c.URL, c.Confidence)
}

func validateRecord(sourceID, title, url string, confidence int) error {
	switch {
	case sourceID == "":
		return ErrMissingSource
	case strings.TrimSpace(title) == "":
		return ErrMissingTitle
	case url == "":
		return ErrMissingURL
	case confidence < 0 || confidence > 100:
		return ErrConfidence
	}
	return nil
}

// NewMovieRecord builds the movie row for an entry and its classification.
func NewMovieRecord(sourceID string, e PlaylistEntry, r ClassificationResult) *MovieRecord {
	md := r.Metadata
	return &MovieRecord{
		SourceID:      sourceID,
		Title:         titleOf(e, md),
		OriginalTitle: md.OriginalTitle,
		URL:           e.URL,
		Quality:       qualityOf(e, md),
		Year:          md.Year,
		Genre:         strings.Join(md.Genres, ", "),
		Language:      languageOf(e, md),
		Rating:        md.Rating,
		Runtime:       md.RuntimeMinutes,
		TMDBID:        md.ExternalIDs["tmdb"],
		IMDBID:        md.ExternalIDs["imdb"],
		Confidence:    r.Confidence,
		Logo:          e.Logo,
		Group:         e.Group,
	}
}

// NewSeriesRecord builds the series row for an entry and its classification.
func NewSeriesRecord(sourceID string, e PlaylistEntry, r ClassificationResult) *SeriesRecord {
	md := r.Metadata
	return &SeriesRecord{
		SourceID:      sourceID,
		Title:         titleOf(e, md),
		OriginalTitle: md.OriginalTitle,
		URL:           e.URL,
		Quality:       qualityOf(e, md),
		Year:          md.Year,
		Genre:         strings.Join(md.Genres, ", "),
		Language:      languageOf(e, md),
		Rating:        md.Rating,
		Season:        md.Season,
		Episode:       md.Episode,
		TMDBID:        md.ExternalIDs["tmdb"],
		IMDBID:        md.ExternalIDs["imdb"],
		Confidence:    r.Confidence,
		Logo:          e.Logo,
		Group:         e.Group,
	}
}

// NewChannelRecord builds the channel row for an entry and its classification.
func NewChannelRecord(sourceID string, e PlaylistEntry, r ClassificationResult) *ChannelRecord {
	md := r.Metadata
	category := md.Category
	if category == "" {
		category = e.Category
	}
	return &ChannelRecord{
		SourceID:   sourceID,
		Name:       channelName(e, md),
		URL:        e.URL,
		Logo:       e.Logo,
		Group:      e.Group,
		Category:   category,
		Language:   languageOf(e, md),
		Quality:    qualityOf(e, md),
		TVGID:      e.TvgID,
		Confidence: r.Confidence,
	}
}

func titleOf(e PlaylistEntry, md Metadata) string {
	for _, s := range []string{md.Title, e.Name, e.TvgName, e.RawName} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// channelName falls back to the tvg-id and then the stream URL for unnamed channels.
func channelName(e PlaylistEntry, md Metadata) string {
	if name := titleOf(e, md); name != "" {
		return name
	}
	if strings.TrimSpace(e.TvgID) != "" {
		return e.TvgID
	}
	return e.URL
}

func qualityOf(e PlaylistEntry, md Metadata) Quality {
	if md.Quality != QualityUnknown {
		return md.Quality
	}
	return e.Quality
}

func languageOf(e PlaylistEntry, md Metadata) string {
	if md.Language != "" {
		return md.Language
	}
	return e.Language
}
