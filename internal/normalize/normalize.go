// Package normalize holds the text cleaning and pattern detection helpers shared by
// the playlist parser and the content classifier.
//
// Every function is pure and safe for concurrent use. Pattern tables are ordered and
// evaluated first-match-wins.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/desertthunder/lens/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Keyword patterns bound to letter/digit edges instead of \b, which is ASCII-only in RE2.
const (
	lead  = `(?:^|[^\p{L}\p{N}])`
	trail = `(?:$|[^\p{L}\p{N}])`
)

func words(alts string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + lead + `(?:` + alts + `)` + trail)
}

func prefixes(alts string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + lead + `(?:` + alts + `)`)
}

var (
	bracketed     = regexp.MustCompile(`\[[^\]]*\]`)
	parenthesized = regexp.MustCompile(`\([^)]*\)`)
	qualityToken  = regexp.MustCompile(`(?i)\b(?:4k|uhd|fhd|2160p|1080p|720p|480p|360p|sd|hd)\b`)
	sourceToken   = regexp.MustCompile(`(?i)\b(?:cam|ts|tc|scr|dvdrip|brrip|webrip)\b`)
	spaces        = regexp.MustCompile(`\s+`)

	yearToken    = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	enclosedYear = regexp.MustCompile(`[(\[]((?:19|20)\d{2})[)\]]`)
	episodeCode  = regexp.MustCompile(`(?i)\bS(\d{1,2})\s*E(\d{1,3})\b`)
	crossCode    = regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{2,3})\b`)
	seasonWord   = regexp.MustCompile(`(?i)` + lead + `(?:season|temporada|saison|staffel)\s*(\d{1,3})`)
	episodeWord  = regexp.MustCompile(`(?i)` + lead + `(?:episode|episodio|epis[oó]dio|cap[ií]tulo|chapter)\s*(\d{1,4})`)
	movieKeyword = words(`movie|movies|pel[ií]cula|pel[ií]culas|cinema|film|films|cine|vod`)
)

const edgeJunk = " \t-_|:.,;/"

type qualityPattern struct {
	quality models.Quality
	re      *regexp.Regexp
}

var qualityPatterns = []qualityPattern{
	{models.QualityUHD4K, regexp.MustCompile(`(?i)\b(?:4k|uhd|2160p)\b`)},
	{models.QualityFHD, regexp.MustCompile(`(?i)\b(?:fhd|1080p|full\s*hd)\b`)},
	{models.QualityHD, regexp.MustCompile(`(?i)\b(?:hd|720p)\b`)},
	{models.QualitySD, regexp.MustCompile(`(?i)\b(?:sd|480p|360p)\b`)},
}

// language matches upper-case codes exactly and names case-insensitively.
func language(codes, names string) *regexp.Regexp {
	return regexp.MustCompile(lead + `(?:` + codes + `)` + trail + `|(?i:` + lead + `(?:` + names + `)` + trail + `)`)
}

type keywordPattern struct {
	name string
	re   *regexp.Regexp
}

// Two-letter codes only count in upper case so words like "it" or "de" in titles don't match.
var languagePatterns = []keywordPattern{
	{"es", language(`ES|ESP|SPA`, `spanish|espa[nñ]ol|castellano|latino`)},
	{"en", language(`EN|ENG`, `english|ingl[eé]s`)},
	{"fr", language(`FR|FRA|FRE`, `french|franc[eé]s|fran[cç]ais`)},
	{"de", language(`DE|GER|DEU`, `german|alem[aá]n|deutsch`)},
	{"it", language(`IT|ITA`, `italian|italiano`)},
	{"pt", language(`PT|POR`, `portuguese|portugu[eé]s`)},
}

var categoryPatterns = []keywordPattern{
	{"sports", prefixes(`sport|deporte|football|futbol|fútbol|soccer|basketball|tennis|espn|fox\s*sports|nba|nfl`)},
	{"news", prefixes(`news|noticias|cnn|bbc|fox\s*news|telemundo|univision`)},
	{"entertainment", prefixes(`entertainment|entretenimiento|comedy|comedia|variety`)},
	{"kids", prefixes(`kids|infantil|cartoon|disney|nickelodeon|nick\s*jr`)},
	{"music", prefixes(`music|m[uú]sica|mtv|vh1`)},
	{"documentary", prefixes(`documentar|documental|discovery|history|national\s*geographic|nat\s*geo`)},
	{"movies", prefixes(`movie|pel[ií]cula|cinema|film|cine`)},
	{"series", prefixes(`series|tv\s*show|drama`)},
	{"religious", prefixes(`religious|religioso|church|iglesia|catholic|cat[oó]lic|cristian`)},
	{"adult", prefixes(`adult|xxx|porn`)},
}

// CleanName strips bracketed spans, quality and release-source tokens, then collapses whitespace.
func CleanName(raw string) string {
	s := bracketed.ReplaceAllString(raw, " ")
	s = parenthesized.ReplaceAllString(s, " ")
	s = qualityToken.ReplaceAllString(s, " ")
	s = sourceToken.ReplaceAllString(s, " ")
	s = spaces.ReplaceAllString(s, " ")
	return strings.Trim(s, edgeJunk)
}

// DetectQuality returns the first quality tier whose pattern matches title.
func DetectQuality(title string) models.Quality {
	for _, p := range qualityPatterns {
		if p.re.MatchString(title) {
			return p.quality
		}
	}
	return models.QualityUnknown
}

// DetectLanguage returns an ISO 639-1 code for the first language keyword in text, or "".
func DetectLanguage(text string) string {
	for _, p := range languagePatterns {
		if p.re.MatchString(text) {
			return p.name
		}
	}
	return ""
}

// DetectCategory returns the first matching category for text, or [models.CategoryGeneral].
func DetectCategory(text string) string {
	for _, p := range categoryPatterns {
		if p.re.MatchString(text) {
			return p.name
		}
	}
	return models.CategoryGeneral
}

// EpisodeMarker is the season/episode information found in a title.
type EpisodeMarker struct {
	Season  int
	Episode int
}

// DetectSeries looks for season/episode markers such as "S01E05", "1x05",
// "Season 2" or "Capítulo 3".
func DetectSeries(text string) (EpisodeMarker, bool) {
	if m := episodeCode.FindStringSubmatch(text); m != nil {
		return EpisodeMarker{Season: atoi(m[1]), Episode: atoi(m[2])}, true
	}
	if m := crossCode.FindStringSubmatch(text); m != nil {
		return EpisodeMarker{Season: atoi(m[1]), Episode: atoi(m[2])}, true
	}

	var marker EpisodeMarker
	found := false
	if m := seasonWord.FindStringSubmatch(text); m != nil {
		marker.Season = atoi(m[1])
		found = true
	}
	if m := episodeWord.FindStringSubmatch(text); m != nil {
		marker.Episode = atoi(m[1])
		found = true
	}
	return marker, found
}

// DetectMovie reports whether text carries a movie keyword or a year token.
func DetectMovie(text string) bool {
	if movieKeyword.MatchString(text) {
		return true
	}
	_, ok := ExtractYear(text)
	return ok
}

// ExtractYear returns a 1900..2099 year from text, preferring one enclosed in brackets.
func ExtractYear(text string) (int, bool) {
	if m := enclosedYear.FindStringSubmatch(text); m != nil {
		return atoi(m[1]), true
	}
	if m := yearToken.FindString(text); m != "" {
		return atoi(m), true
	}
	return 0, false
}

// Fold case-folds s for comparisons.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// FoldKey reduces s to a lookup key: diacritics removed, case folded,
// punctuation collapsed to single spaces.
func FoldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	stripped = Fold(stripped)

	var b strings.Builder
	space := false
	for _, r := range stripped {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
			continue
		}
		space = true
	}
	return b.String()
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// HeuristicType applies the series > movie > channel precedence to text.
func HeuristicType(text string) models.ContentType {
	if _, ok := DetectSeries(text); ok {
		return models.Series
	}
	if DetectMovie(text) {
		return models.Movie
	}
	return models.Channel
}

// StripEpisodeMarker removes season/episode markers from a cleaned series name.
func StripEpisodeMarker(name string) string {
	for _, re := range []*regexp.Regexp{episodeCode, crossCode, seasonWord, episodeWord} {
		name = re.ReplaceAllString(name, " ")
	}
	return strings.Trim(spaces.ReplaceAllString(name, " "), edgeJunk)
}

// StripYear removes year tokens from a cleaned movie name.
func StripYear(name string) string {
	if stripped := strings.Trim(spaces.ReplaceAllString(yearToken.ReplaceAllString(name, " "), " "), edgeJunk); stripped != "" {
		return stripped
	}
	return name
}
