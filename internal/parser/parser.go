// Package parser reads extended M3U playlist text into [models.PlaylistEntry] values.
//
// A directive line has the form
//
//	#EXTINF:<duration> key="value" key2="value, with comma",Title
//
// and is followed by the stream URL. Parsing is synchronous and total: malformed
// attributes are skipped and a directive without a URL is dropped.
package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/desertthunder/lens/internal/models"
	"github.com/desertthunder/lens/internal/normalize"
	"github.com/desertthunder/lens/internal/shared"
)

const (
	directivePrefix = "#EXTINF:"
	groupPrefix     = "#EXTGRP:"
)

var (
	durationPrefix = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)`)
	attribute      = regexp.MustCompile(`([A-Za-z][A-Za-z0-9_-]*)\s*=\s*"([^"]*)"`)
	utf8BOM        = []byte{0xEF, 0xBB, 0xBF}
)

// Stats counts entries by the heuristic content type of their titles.
type Stats struct {
	Total    int `json:"total"`
	Channels int `json:"channels"`
	Movies   int `json:"movies"`
	Series   int `json:"series"`
	Dropped  int `json:"dropped"` // directives without a URL
}

// Result is a fully materialized parse.
type Result struct {
	Entries []models.PlaylistEntry
	Stats   Stats
	Elapsed time.Duration
}

// Parse returns the ordered entries in text.
func Parse(text string) []models.PlaylistEntry {
	return ParseString(text).Entries
}

// ParseString parses text and reports statistics alongside the entries.
func ParseString(text string) Result {
	start := time.Now()
	lines := splitLines(text)

	var res Result
	for i := 0; i < len(lines); i++ {
		if !isDirective(lines[i]) {
			continue
		}

		entry, ok := parseDirective(lines[i])
		if !ok {
			continue
		}

		url, group, next := findURL(lines, i+1)
		if url == "" {
			res.Stats.Dropped++
			i = next - 1
			continue
		}

		if entry.Group == "" && group != "" {
			entry.Group = group
		}
		finishEntry(&entry, url)
		res.Entries = append(res.Entries, entry)
		i = next
	}

	res.Stats.Total = len(res.Entries)
	for _, e := range res.Entries {
		switch normalize.HeuristicType(e.RawName + " " + e.Group) {
		case models.Series:
			res.Stats.Series++
		case models.Movie:
			res.Stats.Movies++
		case models.Channel:
			res.Stats.Channels++
		}
	}
	res.Elapsed = time.Since(start)
	return res
}

// ParseBytes decodes b as UTF-8 playlist text. Undecodable input is a [shared.ParseError].
func ParseBytes(source string, b []byte) (Result, error) {
	b = bytes.TrimPrefix(b, utf8BOM)
	if !utf8.Valid(b) {
		return Result{}, shared.NewParseError(source, fmt.Errorf("playlist is not valid UTF-8"))
	}
	return ParseString(string(b)), nil
}

// ParseReader reads all of r and parses it.
func ParseReader(source string, r io.Reader) (Result, error) {
	b, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return Result{}, shared.NewParseError(source, fmt.Errorf("failed to read playlist: %w", err))
	}
	return ParseBytes(source, b)
}

// ParseFile parses the playlist stored at path.
func ParseFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, shared.NewParseError(path, fmt.Errorf("failed to open playlist: %w", err))
	}
	defer f.Close()
	return ParseReader(path, f)
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(strings.TrimSuffix(l, "\r")); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func isDirective(line string) bool {
	return len(line) >= len(directivePrefix) && strings.EqualFold(line[:len(directivePrefix)], directivePrefix)
}

// findURL returns the URL for the directive preceding lines[from], skipping comment
// lines, together with any #EXTGRP group seen on the way and the index of the URL line.
// When another directive or the end of input comes first, url is empty and next is
// the index to resume from.
func findURL(lines []string, from int) (url, group string, next int) {
	for j := from; j < len(lines); j++ {
		line := lines[j]
		switch {
		case isDirective(line):
			return "", group, j
		case hasPrefixFold(line, groupPrefix):
			group = strings.TrimSpace(line[len(groupPrefix):])
		case strings.HasPrefix(line, "#"):
		default:
			return line, group, j
		}
	}
	return "", group, len(lines)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// parseDirective reads the duration, attributes and raw title of a directive line.
func parseDirective(line string) (models.PlaylistEntry, bool) {
	rest := line[len(directivePrefix):]
	m := durationPrefix.FindStringSubmatch(rest)
	if m == nil {
		return models.PlaylistEntry{}, false
	}
	duration, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return models.PlaylistEntry{}, false
	}
	tail := rest[len(m[0]):]

	attrPart, title := splitTitle(tail)
	attrs := parseAttributes(attrPart)

	entry := models.PlaylistEntry{
		RawName:  strings.TrimSpace(title),
		Duration: duration,
		Logo:     attrs["tvg-logo"],
		Group:    attrs["group-title"],
		Country:  attrs["tvg-country"],
		Language: attrs["tvg-language"],
		TvgID:    attrs["tvg-id"],
		TvgName:  attrs["tvg-name"],
	}
	if entry.Duration < 0 {
		entry.Duration = -1
	}
	if entry.RawName == "" {
		entry.RawName = entry.TvgName
	}
	return entry, true
}

// splitTitle splits tail at its right-most comma outside double quotes.
func splitTitle(tail string) (attrs, title string) {
	inQuote := false
	last := -1
	for i, r := range tail {
		switch r {
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				last = i
			}
		}
	}
	if last < 0 {
		last = strings.LastIndex(tail, ",")
	}
	if last < 0 {
		return tail, ""
	}
	return tail[:last], tail[last+1:]
}

func parseAttributes(s string) map[string]string {
	attrs := map[string]string{}
	for _, m := range attribute.FindAllStringSubmatch(s, -1) {
		key := strings.ToLower(m[1])
		if _, seen := attrs[key]; seen {
			continue
		}
		attrs[key] = strings.TrimSpace(m[2])
	}
	return attrs
}

func finishEntry(e *models.PlaylistEntry, url string) {
	e.URL = url
	e.Name = normalize.CleanName(e.RawName)
	e.Quality = normalize.DetectQuality(e.RawName)

	text := e.RawName + " " + e.Group
	if e.Language == "" {
		e.Language = normalize.DetectLanguage(text)
	}
	e.Category = normalize.DetectCategory(text)
}
