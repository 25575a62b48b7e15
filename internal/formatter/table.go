package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/desertthunder/lens/internal/models"
	"github.com/desertthunder/lens/internal/parser"
)

const timeLayout = "2006-01-02 15:04:05"

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// EntriesTable renders parsed entries.
func EntriesTable(entries []models.PlaylistEntry) string {
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, []string{strconv.Itoa(i + 1), e.Name, e.Group, string(e.Quality), e.Language, e.Category})
	}
	return renderTable(
		[]string{"#", "Name", "Group", "Quality", "Language", "Category"},
		rows,
		[]columnAlignment{alignRight},
	)
}

// ClassificationTable renders classifications with their confidence.
func ClassificationTable(items []Classified) string {
	rows := make([][]string, 0, len(items))
	for i, it := range items {
		md := it.Result.Metadata
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			it.Result.Type.String(),
			strconv.Itoa(it.Result.Confidence),
			titleOf(it),
			optionalInt(md.Year),
			episodeMarker(it),
			string(md.Quality),
			strings.Join(it.Result.Sources, ","),
		})
	}
	return renderTable(
		[]string{"#", "Type", "Conf", "Title", "Year", "Episode", "Quality", "Sources"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight},
	)
}

// StatsTable renders parse counts and elapsed time.
func StatsTable(stats parser.Stats, elapsed time.Duration) string {
	rows := [][]string{
		{"Total", strconv.Itoa(stats.Total)},
		{"Channels", strconv.Itoa(stats.Channels)},
		{"Movies", strconv.Itoa(stats.Movies)},
		{"Series", strconv.Itoa(stats.Series)},
		{"Dropped", strconv.Itoa(stats.Dropped)},
		{"Elapsed", elapsed.Round(time.Millisecond).String()},
	}
	return renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
}

// ScanLogTable renders a list of scan logs, newest first as given.
func ScanLogTable(logs []*models.ScanLog) string {
	rows := make([][]string, 0, len(logs))
	for _, l := range logs {
		rows = append(rows, []string{
			shortID(l.ID),
			l.SourceID,
			string(l.Status),
			l.StartedAt.Local().Format(timeLayout),
			fmt.Sprintf("%d/%d", l.ProcessedEntries, l.TotalEntries),
			strconv.Itoa(len(l.Errors)),
		})
	}
	return renderTable(
		[]string{"ID", "Source", "Status", "Started", "Processed", "Errors"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	)
}

// ScanLogDetail renders one scan log as a key/value table followed by its errors.
func ScanLogDetail(l *models.ScanLog, now time.Time) string {
	completed := "-"
	if l.CompletedAt != nil {
		completed = l.CompletedAt.Local().Format(timeLayout)
	}
	rows := [][]string{
		{"ID", l.ID},
		{"Source", l.SourceID},
		{"Status", string(l.Status)},
		{"Started", l.StartedAt.Local().Format(timeLayout)},
		{"Completed", completed},
		{"Duration", l.Duration(now).Round(time.Millisecond).String()},
		{"Processed", fmt.Sprintf("%d/%d", l.ProcessedEntries, l.TotalEntries)},
		{"Errors", strconv.Itoa(len(l.Errors))},
	}

	var b strings.Builder
	b.WriteString(renderTable([]string{"Field", "Value"}, rows, nil))
	if len(l.Errors) > 0 {
		b.WriteString("\n")
		errRows := make([][]string, 0, len(l.Errors))
		for i, msg := range l.Errors {
			errRows = append(errRows, []string{strconv.Itoa(i + 1), msg})
		}
		b.WriteString(renderTable([]string{"#", "Error"}, errRows, []columnAlignment{alignRight}))
	}
	return b.String()
}

func episodeMarker(it Classified) string {
	md := it.Result.Metadata
	if it.Result.Type != models.Series || (md.Season == 0 && md.Episode == 0) {
		return ""
	}
	return fmt.Sprintf("S%02dE%02d", md.Season, md.Episode)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// MoviesTable renders persisted movie records.
func MoviesTable(records []*models.MovieRecord) string {
	rows := make([][]string, 0, len(records))
	for _, m := range records {
		rows = append(rows, []string{m.Title, optionalInt(m.Year), string(m.Quality), m.Genre, ratingOf(m.Rating), strconv.Itoa(m.Confidence)})
	}
	return renderTable(
		[]string{"Title", "Year", "Quality", "Genre", "Rating", "Conf"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignRight},
	)
}

// SeriesTable renders persisted series episode records.
func SeriesTable(records []*models.SeriesRecord) string {
	rows := make([][]string, 0, len(records))
	for _, s := range records {
		rows = append(rows, []string{s.Title, fmt.Sprintf("S%02dE%02d", s.Season, s.Episode), string(s.Quality), s.Genre, strconv.Itoa(s.Confidence)})
	}
	return renderTable(
		[]string{"Title", "Episode", "Quality", "Genre", "Conf"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
}

// ChannelsTable renders persisted channel records.
func ChannelsTable(records []*models.ChannelRecord) string {
	rows := make([][]string, 0, len(records))
	for _, c := range records {
		rows = append(rows, []string{c.Name, c.Group, c.Category, c.Language, string(c.Quality)})
	}
	return renderTable([]string{"Name", "Group", "Category", "Language", "Quality"}, rows, nil)
}

func ratingOf(r float64) string {
	if r == 0 {
		return ""
	}
	return strconv.FormatFloat(r, 'f', 1, 64)
}
