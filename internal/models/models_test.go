package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestContentType(t *testing.T) {
	tt := []struct {
		in   string
		want ContentType
		ok   bool
	}{
		{"movie", Movie, true},
		{"Series", Series, true},
		{" channel ", Channel, true},
		{"podcast", Channel, false},
	}

	for _, tc := range tt {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseContentType(tc.in)
			if (err == nil) != tc.ok {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}

	t.Run("JSON uses names", func(t *testing.T) {
		b, err := json.Marshal(ClassificationResult{Type: Series, Confidence: 50})
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		var back ClassificationResult
		if err := json.Unmarshal(b, &back); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if back.Type != Series {
			t.Errorf("expected series, got %v (%s)", back.Type, b)
		}
	})
}

func TestClassificationResultClone(t *testing.T) {
	orig := ClassificationResult{
		Type:     Movie,
		Metadata: Metadata{Genres: []string{"Drama"}, ExternalIDs: map[string]string{"tmdb": "1"}},
		Sources:  []string{"heuristic"},
	}
	c := orig.Clone()
	c.Metadata.Genres[0] = "Comedy"
	c.Metadata.ExternalIDs["tmdb"] = "2"
	c.Sources[0] = "tmdb"

	if orig.Metadata.Genres[0] != "Drama" || orig.Metadata.ExternalIDs["tmdb"] != "1" || orig.Sources[0] != "heuristic" {
		t.Error("clone shares state with original")
	}
}

func TestScanLog(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("lifecycle", func(t *testing.T) {
		log := NewScanLog("src", now)
		if log.Status != ScanRunning || log.TotalEntries != 0 || log.ProcessedEntries != 0 || len(log.Errors) != 0 {
			t.Fatalf("unexpected initial state: %+v", log)
		}

		if err := log.SetTotal(2); err != nil {
			t.Fatalf("SetTotal failed: %v", err)
		}
		if err := log.SetTotal(3); !errors.Is(err, ErrTotalSet) {
			t.Errorf("expected ErrTotalSet, got %v", err)
		}

		if err := log.RecordAttempt(""); err != nil {
			t.Fatalf("RecordAttempt failed: %v", err)
		}
		if err := log.RecordAttempt("entry 2 failed"); err != nil {
			t.Fatalf("RecordAttempt failed: %v", err)
		}
		if err := log.RecordAttempt(""); !errors.Is(err, ErrProcessedOver) {
			t.Errorf("expected ErrProcessedOver, got %v", err)
		}

		done := now.Add(time.Minute)
		if err := log.Complete(done); err != nil {
			t.Fatalf("Complete failed: %v", err)
		}
		if log.Status != ScanCompleted || log.CompletedAt == nil || !log.CompletedAt.Equal(done) {
			t.Errorf("unexpected terminal state: %+v", log)
		}
		if log.ProcessedEntries != 2 || len(log.Errors) != 1 {
			t.Errorf("expected 2 processed and 1 error, got %d/%d", log.ProcessedEntries, len(log.Errors))
		}
		if log.Duration(time.Now()) != time.Minute {
			t.Errorf("expected 1m duration, got %v", log.Duration(time.Now()))
		}
	})

	t.Run("terminal states reject transitions", func(t *testing.T) {
		log := NewScanLog("src", now)
		if err := log.Fail(now, "unreachable"); err != nil {
			t.Fatalf("Fail failed: %v", err)
		}
		if err := log.Complete(now); !errors.Is(err, ErrScanTerminal) {
			t.Errorf("expected ErrScanTerminal, got %v", err)
		}
		if err := log.RecordAttempt("x"); !errors.Is(err, ErrScanTerminal) {
			t.Errorf("expected ErrScanTerminal, got %v", err)
		}
		if log.Errors[0] != "unreachable" {
			t.Errorf("expected failure reason recorded, got %v", log.Errors)
		}
	})

	t.Run("patch and snapshot are copies", func(t *testing.T) {
		log := NewScanLog("src", now)
		log.SetTotal(1)
		log.RecordAttempt("boom")

		patch := log.Patch()
		snap := log.Snapshot()
		patch.Errors[0] = "changed"
		snap.Errors[0] = "changed"

		if log.Errors[0] != "boom" {
			t.Error("patch or snapshot shares errors slice")
		}
	})
}

func TestRecords(t *testing.T) {
	entry := PlaylistEntry{
		Name:     "The Matrix",
		RawName:  "The Matrix (1999) [4K]",
		URL:      "http://example.com/matrix.mkv",
		Logo:     "http://example.com/m.png",
		Group:    "Movies",
		Quality:  QualityUHD4K,
		Language: "english",
	}
	result := ClassificationResult{
		Type:       Movie,
		Confidence: 84,
		Metadata: Metadata{
			Title:       "The Matrix",
			Year:        1999,
			Genres:      []string{"Action", "Science Fiction"},
			ExternalIDs: map[string]string{"tmdb": "603", "imdb": "tt0133093"},
		},
	}

	t.Run("movie", func(t *testing.T) {
		rec := NewMovieRecord("src", entry, result)
		if rec.Genre != "Action, Science Fiction" {
			t.Errorf("expected joined genres, got %q", rec.Genre)
		}
		if rec.TMDBID != "603" || rec.IMDBID != "tt0133093" {
			t.Errorf("expected external ids, got %q/%q", rec.TMDBID, rec.IMDBID)
		}
		if rec.Quality != QualityUHD4K {
			t.Errorf("expected entry quality, got %q", rec.Quality)
		}
		if err := rec.Validate(); err != nil {
			t.Errorf("expected valid record, got %v", err)
		}
	})

	t.Run("series", func(t *testing.T) {
		r := result
		r.Type = Series
		r.Metadata.Season, r.Metadata.Episode = 1, 5
		rec := NewSeriesRecord("src", entry, r)
		if rec.Season != 1 || rec.Episode != 5 {
			t.Errorf("expected S1E5, got S%dE%d", rec.Season, rec.Episode)
		}
	})

	t.Run("channel falls back to entry fields", func(t *testing.T) {
		e := entry
		e.Category = "news"
		rec := NewChannelRecord("src", e, ClassificationResult{Type: Channel, Confidence: 50})
		if rec.Name != "The Matrix" || rec.Category != "news" {
			t.Errorf("unexpected channel record %+v", rec)
		}
	})

	t.Run("unnamed channel uses tvg-id then url", func(t *testing.T) {
		rec := NewChannelRecord("src", PlaylistEntry{TvgID: "bbc1.uk", URL: "http://example.com/a.ts"}, ClassificationResult{Type: Channel})
		if rec.Name != "bbc1.uk" {
			t.Errorf("expected tvg-id name, got %q", rec.Name)
		}

		rec = NewChannelRecord("src", PlaylistEntry{URL: "http://example.com/a.ts"}, ClassificationResult{Type: Channel})
		if rec.Name != "http://example.com/a.ts" {
			t.Errorf("expected url name, got %q", rec.Name)
		}
		if err := rec.Validate(); err != nil {
			t.Errorf("expected valid record, got %v", err)
		}
	})

	t.Run("validation", func(t *testing.T) {
		tt := []struct {
			name string
			rec  Model
			want error
		}{
			{"missing source", &ChannelRecord{Name: "x", URL: "u"}, ErrMissingSource},
			{"missing title", &MovieRecord{SourceID: "s", Title: " ", URL: "u"}, ErrMissingTitle},
			{"missing url", &SeriesRecord{SourceID: "s", Title: "x"}, ErrMissingURL},
			{"bad confidence", &ChannelRecord{SourceID: "s", Name: "x", URL: "u", Confidence: 101}, ErrConfidence},
		}
		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				if err := tc.rec.Validate(); !errors.Is(err, tc.want) {
					t.Errorf("expected %v, got %v", tc.want, err)
				}
			})
		}
	})
}
