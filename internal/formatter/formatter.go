// package formatter renders parsed entries, classifications and scan logs as CSV, JSON, plain text or tables
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/lens/internal/models"
	"github.com/desertthunder/lens/internal/shared"
)

// Output formats accepted by [WriteEntries] and [WriteClassified].
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatTable = "table"
)

// Classified pairs an entry with its classification.
type Classified struct {
	Entry  models.PlaylistEntry        `json:"entry"`
	Result models.ClassificationResult `json:"result"`
}

// MarshalJSON encodes v, indented when pretty is set.
func MarshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// EntriesToCSV converts parsed entries to CSV with one row per entry.
func EntriesToCSV(entries []models.PlaylistEntry) ([]byte, error) {
	headers := []string{"Name", "Raw Name", "URL", "Duration", "Group", "Logo", "TVG ID", "Language", "Country", "Quality", "Category"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Name,
			e.RawName,
			e.URL,
			strconv.FormatFloat(e.Duration, 'f', -1, 64),
			e.Group,
			e.Logo,
			e.TvgID,
			e.Language,
			e.Country,
			string(e.Quality),
			e.Category,
		})
	}
	return writeCSV(headers, rows)
}

// ClassifiedToCSV converts classifications to CSV with one row per entry.
func ClassifiedToCSV(items []Classified) ([]byte, error) {
	headers := []string{"Type", "Confidence", "Title", "Year", "Season", "Episode", "Quality", "Language", "Category", "Group", "URL", "Sources"}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		md := it.Result.Metadata
		rows = append(rows, []string{
			it.Result.Type.String(),
			strconv.Itoa(it.Result.Confidence),
			titleOf(it),
			optionalInt(md.Year),
			optionalInt(md.Season),
			optionalInt(md.Episode),
			string(md.Quality),
			md.Language,
			md.Category,
			it.Entry.Group,
			it.Entry.URL,
			strings.Join(it.Result.Sources, "|"),
		})
	}
	return writeCSV(headers, rows)
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, record := range rows {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// EntriesToText lists entries one per line as "N. name [group] url".
func EntriesToText(entries []models.PlaylistEntry) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Entries: %d\n\n", len(entries))
	for i, e := range entries {
		group := ""
		if e.Group != "" {
			group = fmt.Sprintf(" [%s]", e.Group)
		}
		fmt.Fprintf(&buf, "%d. %s%s %s\n", i+1, e.Name, group, e.URL)
	}
	return buf.Bytes()
}

// ClassifiedToText lists classifications one per line, e.g. "1. movie  84%  The Matrix (1999) UHD_4K".
func ClassifiedToText(items []Classified) []byte {
	var buf bytes.Buffer
	for i, it := range items {
		fmt.Fprintf(&buf, "%d. %-7s %3d%%  %s\n", i+1, it.Result.Type, it.Result.Confidence, Describe(it))
	}
	return buf.Bytes()
}

// Describe renders a one-line summary of a classification: title, year, episode marker and quality.
func Describe(it Classified) string {
	md := it.Result.Metadata
	parts := []string{titleOf(it)}
	if md.Year > 0 {
		parts = append(parts, fmt.Sprintf("(%d)", md.Year))
	}
	if ep := episodeMarker(it); ep != "" {
		parts = append(parts, ep)
	}
	if md.Quality != models.QualityUnknown {
		parts = append(parts, string(md.Quality))
	}
	return strings.Join(parts, " ")
}

// WriteEntries writes entries to w in format.
func WriteEntries(w io.Writer, entries []models.PlaylistEntry, format string) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = MarshalJSON(entries, true)
	case FormatCSV:
		data, err = EntriesToCSV(entries)
	case FormatTable:
		data = []byte(EntriesTable(entries) + "\n")
	case FormatText, "":
		data = EntriesToText(entries)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return err
	}
	return write(w, data)
}

// WriteClassified writes classifications to w in format.
func WriteClassified(w io.Writer, items []Classified, format string) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = MarshalJSON(items, true)
	case FormatCSV:
		data, err = ClassifiedToCSV(items)
	case FormatTable:
		data = []byte(ClassificationTable(items) + "\n")
	case FormatText, "":
		data = ClassifiedToText(items)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return err
	}
	return write(w, data)
}

// WriteFile writes data to path, or to w when path is empty or "-".
func WriteFile(w io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		return write(w, data)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func write(w io.Writer, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func titleOf(it Classified) string {
	if it.Result.Metadata.Title != "" {
		return it.Result.Metadata.Title
	}
	return it.Entry.Name
}

func optionalInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
