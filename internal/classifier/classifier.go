// Package classifier decides the content type of a playlist entry and scores how
// well an external metadata candidate matches it.
package classifier

import (
	"math"
	"slices"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/desertthunder/lens/internal/models"
	"github.com/desertthunder/lens/internal/normalize"
)

const (
	MinConfidence  = 0
	MaxConfidence  = 100
	BaseConfidence = 50

	similarityWeight = 40
	exactYearBonus   = 10
	nearYearBonus    = 5
)

// Classify assigns a content type and heuristic metadata to e.
//
// Markers are checked over the raw title and group in the order series, movie, channel.
// An entry whose cleaned title is empty is a channel with [MinConfidence].
func Classify(e models.PlaylistEntry) models.ClassificationResult {
	raw := e.RawName
	if strings.TrimSpace(raw) == "" {
		raw = e.Name
	}
	text := raw + " " + e.Group

	md := models.Metadata{
		Quality:  e.Quality,
		Language: e.Language,
		Category: e.Category,
	}
	if md.Quality == models.QualityUnknown {
		md.Quality = normalize.DetectQuality(raw)
	}
	if md.Language == "" {
		md.Language = normalize.DetectLanguage(text)
	}
	if md.Category == "" {
		md.Category = normalize.DetectCategory(text)
	}

	name := strings.TrimSpace(e.Name)
	if name == "" {
		name = normalize.CleanName(raw)
	}
	if name == "" {
		return models.ClassificationResult{Type: models.Channel, Confidence: MinConfidence, Metadata: md}
	}

	result := models.ClassificationResult{Confidence: BaseConfidence}

	if marker, ok := normalize.DetectSeries(text); ok {
		result.Type = models.Series
		md.Title = normalize.StripEpisodeMarker(name)
		md.Season = marker.Season
		md.Episode = marker.Episode
		if year, ok := normalize.ExtractYear(raw); ok {
			md.Year = year
		}
	} else if normalize.DetectMovie(text) {
		result.Type = models.Movie
		md.Title = normalize.StripYear(name)
		if year, ok := normalize.ExtractYear(raw); ok {
			md.Year = year
		}
	} else {
		result.Type = models.Channel
		md.Title = name
	}

	if md.Title == "" {
		md.Title = name
	}
	result.Metadata = md
	return result
}

// levenshtein returns a case-insensitive metric with unit costs.
func levenshtein() *metrics.Levenshtein {
	m := metrics.NewLevenshtein()
	m.CaseSensitive = false
	m.InsertCost, m.DeleteCost, m.ReplaceCost = 1, 1, 1
	return m
}

// EditDistance is the unit-cost Levenshtein distance between the case-folded a and b.
func EditDistance(a, b string) int {
	return levenshtein().Distance(normalize.Fold(a), normalize.Fold(b))
}

// Similarity is (maxLen - editDistance) / maxLen over case-folded strings, in [0, 1].
// Two empty strings are identical.
func Similarity(a, b string) float64 {
	return strutil.Similarity(normalize.Fold(a), normalize.Fold(b), levenshtein())
}

// YearBonus rewards an exact or off-by-one release year.
func YearBonus(year, candidateYear int) int {
	if year <= 0 || candidateYear <= 0 {
		return 0
	}
	switch d := year - candidateYear; {
	case d == 0:
		return exactYearBonus
	case d == 1 || d == -1:
		return nearYearBonus
	}
	return 0
}

// ScoreCandidate computes 50 + similarity*40 + yearBonus, rounded and clamped to [0, 100].
func ScoreCandidate(title, candidateTitle string, year, candidateYear int) int {
	score := float64(BaseConfidence) + Similarity(title, candidateTitle)*similarityWeight + float64(YearBonus(year, candidateYear))
	return Clamp(int(math.Round(score)))
}

// Clamp bounds c to [MinConfidence, MaxConfidence].
func Clamp(c int) int {
	return max(MinConfidence, min(MaxConfidence, c))
}

// BestCandidate returns the highest scoring candidate for title/year, or nil.
// Ties keep the provider's original order.
func BestCandidate(title string, year int, candidates []models.Candidate) (*models.Candidate, int) {
	var (
		best  *models.Candidate
		score = -1
	)
	for i := range candidates {
		c := &candidates[i]
		s := ScoreCandidate(title, c.Title, year, c.Year)
		if c.OriginalTitle != "" {
			s = max(s, ScoreCandidate(title, c.OriginalTitle, year, c.Year))
		}
		if s > score {
			best, score = c, s
		}
	}
	return best, score
}

// Apply merges a candidate and its optional details into base and returns the result.
//
// base is not modified. The content type never changes. Heuristic fields win over
// provider fields except the title, which takes the provider's spelling.
func Apply(base models.ClassificationResult, cand *models.Candidate, details *models.Details) models.ClassificationResult {
	out := base.Clone()
	if cand == nil {
		return out
	}

	md := &out.Metadata
	heuristicTitle := md.Title

	out.Confidence = ScoreCandidate(heuristicTitle, cand.Title, md.Year, cand.Year)
	if cand.OriginalTitle != "" {
		out.Confidence = max(out.Confidence, ScoreCandidate(heuristicTitle, cand.OriginalTitle, md.Year, cand.Year))
	}

	if cand.Title != "" {
		md.Title = cand.Title
	}
	if md.OriginalTitle == "" {
		md.OriginalTitle = cand.OriginalTitle
	}
	if md.Year == 0 {
		md.Year = cand.Year
	}
	if md.Poster == "" {
		md.Poster = cand.Poster
	}
	setExternalID(md, cand.IDKey(), cand.ExternalID)
	out.Sources = appendSource(out.Sources, cand.Provider)

	if details == nil {
		return out
	}

	d := details.Metadata
	if md.OriginalTitle == "" {
		md.OriginalTitle = d.OriginalTitle
	}
	if md.Year == 0 {
		md.Year = d.Year
	}
	if len(md.Genres) == 0 {
		md.Genres = slices.Clone(d.Genres)
	}
	if md.Rating == 0 {
		md.Rating = d.Rating
	}
	if md.RuntimeMinutes == 0 {
		md.RuntimeMinutes = d.RuntimeMinutes
	}
	if md.Language == "" {
		md.Language = d.Language
	}
	if md.Overview == "" {
		md.Overview = d.Overview
	}
	if md.Poster == "" {
		md.Poster = d.Poster
	}
	if md.Backdrop == "" {
		md.Backdrop = d.Backdrop
	}
	if md.Director == "" {
		md.Director = d.Director
	}
	if len(md.Cast) == 0 {
		md.Cast = slices.Clone(d.Cast)
	}
	if md.Country == "" {
		md.Country = d.Country
	}
	for k, v := range d.ExternalIDs {
		setExternalID(md, k, v)
	}
	setExternalID(md, "imdb", details.IMDBID)
	out.Sources = appendSource(out.Sources, details.Provider)
	return out
}

func setExternalID(md *models.Metadata, key, id string) {
	if key == "" || id == "" {
		return
	}
	if md.ExternalIDs == nil {
		md.ExternalIDs = map[string]string{}
	}
	if _, ok := md.ExternalIDs[key]; !ok {
		md.ExternalIDs[key] = id
	}
}

func appendSource(sources []string, name string) []string {
	if name == "" || slices.Contains(sources, name) {
		return sources
	}
	return append(sources, name)
}
