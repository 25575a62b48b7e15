package models

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Model is implemented by every persisted record.
type Model interface {
	ID() string      // ID returns the unique identifier for this model
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// ContentType is the kind of media an entry describes.
type ContentType int

const (
	Channel ContentType = iota
	Movie
	Series
)

func (c ContentType) String() string {
	switch c {
	case Channel:
		return "channel"
	case Movie:
		return "movie"
	case Series:
		return "series"
	default:
		return fmt.Sprintf("ContentType(%d)", int(c))
	}
}

// ParseContentType converts "movie", "series" or "channel" into a [ContentType].
func ParseContentType(s string) (ContentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "channel", "live":
		return Channel, nil
	case "movie", "film":
		return Movie, nil
	case "series", "tv":
		return Series, nil
	}
	return Channel, fmt.Errorf("unknown content type %q", s)
}

func (c ContentType) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *ContentType) UnmarshalText(b []byte) error {
	v, err := ParseContentType(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Quality is a stream resolution tier detected from an entry title.
type Quality string

const (
	QualityUnknown Quality = ""
	QualityUHD4K   Quality = "UHD_4K"
	QualityFHD     Quality = "FHD"
	QualityHD      Quality = "HD"
	QualitySD      Quality = "SD"
)

// CategoryGeneral is assigned when no category keyword matches.
const CategoryGeneral = "general"

// PlaylistEntry is one directive line and its URL, after name cleaning.
type PlaylistEntry struct {
	Name     string  `json:"name"`
	RawName  string  `json:"raw_name"`
	URL      string  `json:"url"`
	Duration float64 `json:"duration"` // seconds, -1 for live or unspecified
	Logo     string  `json:"logo,omitempty"`
	Group    string  `json:"group,omitempty"`
	Country  string  `json:"country,omitempty"`
	Language string  `json:"language,omitempty"`
	TvgID    string  `json:"tvg_id,omitempty"`
	TvgName  string  `json:"tvg_name,omitempty"`
	Quality  Quality `json:"quality,omitempty"`
	Category string  `json:"category,omitempty"`
}

// Metadata is populated first by the classifier and then by enrichment.
type Metadata struct {
	Title          string            `json:"title,omitempty"`
	OriginalTitle  string            `json:"original_title,omitempty"`
	Year           int               `json:"year,omitempty"`
	Genres         []string          `json:"genres,omitempty"`
	Rating         float64           `json:"rating,omitempty"`
	RuntimeMinutes int               `json:"runtime_minutes,omitempty"`
	Quality        Quality           `json:"quality,omitempty"`
	Language       string            `json:"language,omitempty"`
	Category       string            `json:"category,omitempty"`
	Season         int               `json:"season,omitempty"`
	Episode        int               `json:"episode,omitempty"`
	Overview       string            `json:"overview,omitempty"`
	Poster         string            `json:"poster,omitempty"`
	Backdrop       string            `json:"backdrop,omitempty"`
	Director       string            `json:"director,omitempty"`
	Cast           []string          `json:"cast,omitempty"`
	Country        string            `json:"country,omitempty"`
	ExternalIDs    map[string]string `json:"external_ids,omitempty"`
}

// Clone returns a deep copy so results can be handed between stages without sharing slices or maps.
func (m Metadata) Clone() Metadata {
	m.Genres = slices.Clone(m.Genres)
	m.Cast = slices.Clone(m.Cast)
	m.ExternalIDs = maps.Clone(m.ExternalIDs)
	return m
}

// ClassificationResult is the outcome of classifying one entry.
type ClassificationResult struct {
	Type       ContentType `json:"type"`
	Confidence int         `json:"confidence"` // 0..100
	Metadata   Metadata    `json:"metadata"`
	Sources    []string    `json:"sources,omitempty"`
}

// Clone returns a deep copy of r.
func (r ClassificationResult) Clone() ClassificationResult {
	r.Metadata = r.Metadata.Clone()
	r.Sources = slices.Clone(r.Sources)
	return r
}

// Candidate is a provider's answer to a title lookup.
type Candidate struct {
	Provider      string      `json:"provider"`
	ExternalID    string      `json:"external_id"`
	Title         string      `json:"title"`
	OriginalTitle string      `json:"original_title,omitempty"`
	Year          int         `json:"year,omitempty"`
	Kind          ContentType `json:"kind"`
	Popularity    float64     `json:"popularity,omitempty"`
	Poster        string      `json:"poster,omitempty"`
}

// IDKey names the identifier namespace of ExternalID: "imdb" for IMDb ids, the provider name otherwise.
func (c Candidate) IDKey() string {
	if strings.HasPrefix(c.ExternalID, "tt") {
		return "imdb"
	}
	return c.Provider
}

// Details is the full record a provider returns for a [Candidate].
type Details struct {
	Provider   string   `json:"provider"`
	ExternalID string   `json:"external_id"`
	IMDBID     string   `json:"imdb_id,omitempty"`
	Status     string   `json:"status,omitempty"`
	Seasons    int      `json:"seasons,omitempty"`
	Episodes   int      `json:"episodes,omitempty"`
	Metadata   Metadata `json:"metadata"`
}

// SourceType identifies how a playlist source is obtained.
type SourceType string

const (
	SourceM3U         SourceType = "m3u"
	SourceXtream      SourceType = "xtream"
	SourceArchivoloca SourceType = "archivoloca"
)

// Credentials authenticate against a source that requires them.
type Credentials struct {
	Username string `json:"username,omitempty"`
	Password string `json:"-"`
}

// Empty reports whether no credential is set.
func (c Credentials) Empty() bool {
	return c.Username == "" && c.Password == ""
}
