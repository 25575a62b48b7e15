package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/lens/internal/models"
	"github.com/desertthunder/lens/internal/shared"
	"golang.org/x/oauth2"
)

const (
	tmdbName         = "tmdb"
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p/w500"
	maxCast          = 5
)

// TMDBService queries The Movie Database.
type TMDBService struct {
	api          *apiClient
	apiKey       string
	language     string
	imageBaseURL string
}

var _ Provider = (*TMDBService)(nil)

// Option configures a provider client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	userAgent  string
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) { o.userAgent = ua }
}

func buildOptions(timeout time.Duration, opts []Option) clientOptions {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	o := clientOptions{httpClient: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewTMDBService creates a TMDB client from cfg.
//
// When cfg.AccessToken is set requests carry it as a bearer token through an
// [oauth2.TokenSource]; otherwise cfg.APIKey is sent as the api_key query parameter.
func NewTMDBService(cfg shared.TMDBConfig, opts ...Option) (*TMDBService, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	token := strings.TrimSpace(cfg.AccessToken)
	if apiKey == "" && token == "" {
		return nil, fmt.Errorf("%w: tmdb api key or access token required", shared.ErrMissingCredentials)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = tmdbBaseURL
	}
	imageBaseURL := strings.TrimRight(cfg.ImageBaseURL, "/")
	if imageBaseURL == "" {
		imageBaseURL = tmdbImageBaseURL
	}

	o := buildOptions(cfg.Timeout.Duration, opts)
	httpClient := o.httpClient
	if token != "" {
		httpClient = bearerClient(httpClient, token)
		apiKey = ""
	}

	api := newAPIClient(tmdbName, baseURL, httpClient)
	api.userAgent = o.userAgent

	return &TMDBService{
		api:          api,
		apiKey:       apiKey,
		language:     cfg.Language,
		imageBaseURL: imageBaseURL,
	}, nil
}

// bearerClient wraps base so each request carries token, reusing base's transport and timeout.
func bearerClient(base *http.Client, token string) *http.Client {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	src := oauth2.ReuseTokenSource(nil, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	client := oauth2.NewClient(ctx, src)
	client.Timeout = base.Timeout
	return client
}

func (s *TMDBService) Name() string { return tmdbName }

type tmdbSearchResult struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Name          string  `json:"name"`
	OriginalTitle string  `json:"original_title"`
	OriginalName  string  `json:"original_name"`
	ReleaseDate   string  `json:"release_date"`
	FirstAirDate  string  `json:"first_air_date"`
	Popularity    float64 `json:"popularity"`
	PosterPath    string  `json:"poster_path"`
}

type tmdbSearchResponse struct {
	Page    int                `json:"page"`
	Results []tmdbSearchResult `json:"results"`
}

type tmdbNamed struct {
	Name string `json:"name"`
}

type tmdbDetails struct {
	ID                  int64       `json:"id"`
	IMDBID              string      `json:"imdb_id"`
	Title               string      `json:"title"`
	Name                string      `json:"name"`
	OriginalTitle       string      `json:"original_title"`
	OriginalName        string      `json:"original_name"`
	OriginalLanguage    string      `json:"original_language"`
	Overview            string      `json:"overview"`
	PosterPath          string      `json:"poster_path"`
	BackdropPath        string      `json:"backdrop_path"`
	ReleaseDate         string      `json:"release_date"`
	FirstAirDate        string      `json:"first_air_date"`
	Genres              []tmdbNamed `json:"genres"`
	VoteAverage         float64     `json:"vote_average"`
	Runtime             int         `json:"runtime"`
	EpisodeRunTime      []int       `json:"episode_run_time"`
	NumberOfSeasons     int         `json:"number_of_seasons"`
	NumberOfEpisodes    int         `json:"number_of_episodes"`
	Status              string      `json:"status"`
	OriginCountry       []string    `json:"origin_country"`
	ProductionCountries []struct {
		ISO string `json:"iso_3166_1"`
	} `json:"production_countries"`
	SpokenLanguages []struct {
		ISO string `json:"iso_639_1"`
	} `json:"spoken_languages"`
	Credits struct {
		Cast []struct {
			Name  string `json:"name"`
			Order int    `json:"order"`
		} `json:"cast"`
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
	ExternalIDs struct {
		IMDBID string `json:"imdb_id"`
	} `json:"external_ids"`
}

func (s *TMDBService) query() url.Values {
	q := url.Values{}
	if s.apiKey != "" {
		q.Set("api_key", s.apiKey)
	}
	if s.language != "" {
		q.Set("language", s.language)
	}
	return q
}

// SearchByTitle searches /search/tv for series and /search/movie otherwise.
func (s *TMDBService) SearchByTitle(ctx context.Context, title string, year int, kind models.ContentType) ([]models.Candidate, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: empty title", shared.ErrInvalidInput)
	}

	q := s.query()
	q.Set("query", title)
	q.Set("include_adult", "false")

	path := "/search/movie"
	if kind == models.Series {
		path = "/search/tv"
		if year > 0 {
			q.Set("first_air_date_year", strconv.Itoa(year))
		}
	} else if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}

	var payload tmdbSearchResponse
	if err := s.api.getJSON(ctx, "search", path, q, &payload); err != nil {
		return nil, err
	}

	cands := make([]models.Candidate, 0, len(payload.Results))
	for _, r := range payload.Results {
		c := models.Candidate{
			Provider:      tmdbName,
			ExternalID:    strconv.FormatInt(r.ID, 10),
			Title:         firstNonEmpty(r.Title, r.Name),
			OriginalTitle: firstNonEmpty(r.OriginalTitle, r.OriginalName),
			Year:          yearOf(firstNonEmpty(r.ReleaseDate, r.FirstAirDate)),
			Kind:          models.Movie,
			Popularity:    r.Popularity,
			Poster:        s.imageURL(r.PosterPath),
		}
		if kind == models.Series {
			c.Kind = models.Series
		}
		if c.OriginalTitle == c.Title {
			c.OriginalTitle = ""
		}
		cands = append(cands, c)
	}
	return cands, nil
}

// GetDetails fetches /movie/{id} with credits or /tv/{id} with external ids.
func (s *TMDBService) GetDetails(ctx context.Context, cand models.Candidate) (*models.Details, error) {
	if cand.ExternalID == "" {
		return nil, fmt.Errorf("%w: empty tmdb id", shared.ErrInvalidInput)
	}

	q := s.query()
	path := "/movie/" + url.PathEscape(cand.ExternalID)
	q.Set("append_to_response", "credits")
	if cand.Kind == models.Series {
		path = "/tv/" + url.PathEscape(cand.ExternalID)
		q.Set("append_to_response", "external_ids")
	}

	var d tmdbDetails
	if err := s.api.getJSON(ctx, "details", path, q, &d); err != nil {
		var pe *shared.ProviderError
		if errors.As(err, &pe) && pe.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	md := models.Metadata{
		Title:         firstNonEmpty(d.Title, d.Name),
		OriginalTitle: firstNonEmpty(d.OriginalTitle, d.OriginalName),
		Year:          yearOf(firstNonEmpty(d.ReleaseDate, d.FirstAirDate)),
		Rating:        d.VoteAverage,
		Overview:      d.Overview,
		Poster:        s.imageURL(d.PosterPath),
		Backdrop:      s.imageURL(d.BackdropPath),
		Language:      d.OriginalLanguage,
		ExternalIDs:   map[string]string{tmdbName: strconv.FormatInt(d.ID, 10)},
	}
	for _, g := range d.Genres {
		md.Genres = append(md.Genres, g.Name)
	}
	md.RuntimeMinutes = d.Runtime
	if md.RuntimeMinutes == 0 && len(d.EpisodeRunTime) > 0 {
		md.RuntimeMinutes = d.EpisodeRunTime[0]
	}
	if len(d.SpokenLanguages) > 0 && md.Language == "" {
		md.Language = d.SpokenLanguages[0].ISO
	}
	if len(d.ProductionCountries) > 0 {
		md.Country = d.ProductionCountries[0].ISO
	} else if len(d.OriginCountry) > 0 {
		md.Country = d.OriginCountry[0]
	}
	for _, c := range d.Credits.Crew {
		if c.Job == "Director" {
			md.Director = c.Name
			break
		}
	}
	for _, c := range d.Credits.Cast {
		if len(md.Cast) == maxCast {
			break
		}
		md.Cast = append(md.Cast, c.Name)
	}

	return &models.Details{
		Provider:   tmdbName,
		ExternalID: strconv.FormatInt(d.ID, 10),
		IMDBID:     firstNonEmpty(d.IMDBID, d.ExternalIDs.IMDBID),
		Status:     d.Status,
		Seasons:    d.NumberOfSeasons,
		Episodes:   d.NumberOfEpisodes,
		Metadata:   md,
	}, nil
}

func (s *TMDBService) imageURL(path string) string {
	if path == "" {
		return ""
	}
	return s.imageBaseURL + path
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// yearOf reads the leading four-digit year of a date such as "1999-03-31" or "2008–2013".
func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}
