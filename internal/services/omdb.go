package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/lens/internal/models"
	"github.com/desertthunder/lens/internal/shared"
)

const (
	omdbName    = "omdb"
	omdbBaseURL = "https://www.omdbapi.com"
	notAvail    = "N/A"
)

// OMDBService queries the Open Movie Database.
type OMDBService struct {
	api    *apiClient
	apiKey string
}

var _ Provider = (*OMDBService)(nil)

// NewOMDBService creates an OMDB client from cfg.
func NewOMDBService(cfg shared.OMDBConfig, opts ...Option) (*OMDBService, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: omdb api key required", shared.ErrMissingCredentials)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = omdbBaseURL
	}

	o := buildOptions(cfg.Timeout.Duration, opts)
	api := newAPIClient(omdbName, baseURL, o.httpClient)
	api.userAgent = o.userAgent
	return &OMDBService{api: api, apiKey: apiKey}, nil
}

func (s *OMDBService) Name() string { return omdbName }

// omdbEnvelope carries OMDB's in-band error reporting; failures arrive with HTTP 200.
type omdbEnvelope struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

func (e omdbEnvelope) ok() bool { return strings.EqualFold(e.Response, "True") }

type omdbSearchItem struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	IMDBID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

type omdbSearchResponse struct {
	omdbEnvelope
	Search       []omdbSearchItem `json:"Search"`
	TotalResults string           `json:"totalResults"`
}

type omdbDetails struct {
	omdbEnvelope
	Title        string `json:"Title"`
	Year         string `json:"Year"`
	Runtime      string `json:"Runtime"`
	Genre        string `json:"Genre"`
	Director     string `json:"Director"`
	Actors       string `json:"Actors"`
	Plot         string `json:"Plot"`
	Language     string `json:"Language"`
	Country      string `json:"Country"`
	Poster       string `json:"Poster"`
	IMDBRating   string `json:"imdbRating"`
	IMDBID       string `json:"imdbID"`
	Type         string `json:"Type"`
	TotalSeasons string `json:"totalSeasons"`
}

// SearchByTitle calls ?s= restricted to movies or series. A "not found" answer yields no candidates.
func (s *OMDBService) SearchByTitle(ctx context.Context, title string, year int, kind models.ContentType) ([]models.Candidate, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: empty title", shared.ErrInvalidInput)
	}

	q := url.Values{}
	q.Set("apikey", s.apiKey)
	q.Set("s", title)
	q.Set("type", omdbType(kind))
	if year > 0 {
		q.Set("y", strconv.Itoa(year))
	}

	var payload omdbSearchResponse
	if err := s.api.getJSON(ctx, "search", "/", q, &payload); err != nil {
		return nil, err
	}
	if !payload.ok() {
		if isNotFound(payload.Error) {
			return []models.Candidate{}, nil
		}
		return nil, s.api.fail("search", 200, fmt.Errorf("%w: %s", shared.ErrProvider, payload.Error))
	}

	cands := make([]models.Candidate, 0, len(payload.Search))
	for _, item := range payload.Search {
		c := models.Candidate{
			Provider:   omdbName,
			ExternalID: item.IMDBID,
			Title:      item.Title,
			Year:       yearOf(item.Year),
			Kind:       models.Movie,
			Poster:     nonNA(item.Poster),
		}
		if item.Type == "series" {
			c.Kind = models.Series
		}
		cands = append(cands, c)
	}
	return cands, nil
}

// GetDetails calls ?i=<imdb id>&plot=full.
func (s *OMDBService) GetDetails(ctx context.Context, cand models.Candidate) (*models.Details, error) {
	if cand.ExternalID == "" {
		return nil, fmt.Errorf("%w: empty imdb id", shared.ErrInvalidInput)
	}

	q := url.Values{}
	q.Set("apikey", s.apiKey)
	q.Set("i", cand.ExternalID)
	q.Set("plot", "full")

	var d omdbDetails
	if err := s.api.getJSON(ctx, "details", "/", q, &d); err != nil {
		return nil, err
	}
	if !d.ok() {
		if isNotFound(d.Error) {
			return nil, nil
		}
		return nil, s.api.fail("details", 200, fmt.Errorf("%w: %s", shared.ErrProvider, d.Error))
	}

	md := models.Metadata{
		Title:          d.Title,
		Year:           yearOf(d.Year),
		Genres:         ParseList(d.Genre),
		Rating:         ParseRating(d.IMDBRating),
		RuntimeMinutes: ParseRuntime(d.Runtime),
		Overview:       nonNA(d.Plot),
		Poster:         nonNA(d.Poster),
		Director:       firstOf(ParseList(d.Director)),
		Cast:           ParseList(d.Actors),
		Language:       firstOf(ParseList(d.Language)),
		Country:        firstOf(ParseList(d.Country)),
	}
	if d.IMDBID != "" {
		md.ExternalIDs = map[string]string{"imdb": d.IMDBID}
	}

	seasons, _ := strconv.Atoi(nonNA(d.TotalSeasons))
	return &models.Details{
		Provider:   omdbName,
		ExternalID: d.IMDBID,
		IMDBID:     d.IMDBID,
		Seasons:    seasons,
		Metadata:   md,
	}, nil
}

func omdbType(kind models.ContentType) string {
	if kind == models.Series {
		return "series"
	}
	return "movie"
}

func isNotFound(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "not found")
}

// ParseRating parses an OMDB rating such as "8.7" or "8.7/10". N/A yields 0.
func ParseRating(s string) float64 {
	s = nonNA(s)
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// ParseRuntime parses a runtime such as "136 min" into minutes. N/A yields 0.
func ParseRuntime(s string) int {
	fields := strings.Fields(nonNA(s))
	if len(fields) == 0 {
		return 0
	}
	v, err := strconv.Atoi(fields[0])
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// ParseList splits a comma-separated OMDB field, dropping blanks and N/A.
func ParseList(s string) []string {
	s = nonNA(s)
	if s == "" {
		return nil
	}
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" && part != notAvail {
			out = append(out, part)
		}
	}
	return out
}

func nonNA(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, notAvail) {
		return ""
	}
	return s
}

func firstOf(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
