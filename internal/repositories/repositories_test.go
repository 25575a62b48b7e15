package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/lens/internal/models"
	"github.com/desertthunder/lens/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestScanLogRepository(t *testing.T) {
	ctx := context.Background()
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Create And Get", func(t *testing.T) {
		repo := NewScanLogRepository(setupTestDB(t))
		log := models.NewScanLog("src-1", started)

		if err := repo.Create(ctx, log); err != nil {
			t.Fatalf("failed to create scan log: %v", err)
		}
		if log.ID == "" {
			t.Fatal("scan log ID should be set after creation")
		}

		got, err := repo.Get(ctx, log.ID)
		if err != nil {
			t.Fatalf("failed to get scan log: %v", err)
		}
		if got.Status != models.ScanRunning || got.SourceID != "src-1" {
			t.Errorf("expected running log for src-1, got %s %s", got.Status, got.SourceID)
		}
		if got.CompletedAt != nil {
			t.Errorf("expected nil completed_at, got %v", got.CompletedAt)
		}
		if !got.StartedAt.Equal(started) {
			t.Errorf("expected started_at %v, got %v", started, got.StartedAt)
		}
		if got.Errors == nil || len(got.Errors) != 0 {
			t.Errorf("expected empty errors, got %v", got.Errors)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewScanLogRepository(setupTestDB(t))
		log := models.NewScanLog("src-1", started)
		if err := repo.Create(ctx, log); err != nil {
			t.Fatalf("failed to create scan log: %v", err)
		}

		log.SetTotal(3)
		log.RecordAttempt("")
		log.RecordAttempt(`entry 1 ("x") enrich: boom`)
		log.RecordAttempt("")
		log.Complete(started.Add(time.Minute))

		if err := repo.Update(ctx, log.ID, log.Patch()); err != nil {
			t.Fatalf("failed to update scan log: %v", err)
		}

		got, err := repo.Get(ctx, log.ID)
		if err != nil {
			t.Fatalf("failed to get scan log: %v", err)
		}
		if got.Status != models.ScanCompleted || got.TotalEntries != 3 || got.ProcessedEntries != 3 {
			t.Errorf("unexpected log %+v", got)
		}
		if len(got.Errors) != 1 || got.Errors[0] != `entry 1 ("x") enrich: boom` {
			t.Errorf("expected one error, got %v", got.Errors)
		}
		if got.CompletedAt == nil || !got.CompletedAt.Equal(started.Add(time.Minute)) {
			t.Errorf("expected completed_at set, got %v", got.CompletedAt)
		}
	})

	t.Run("Update Missing", func(t *testing.T) {
		repo := NewScanLogRepository(setupTestDB(t))
		err := repo.Update(ctx, "missing", models.ScanLogPatch{Status: models.ScanFailed})
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Invalid Status Rejected", func(t *testing.T) {
		repo := NewScanLogRepository(setupTestDB(t))
		log := models.NewScanLog("src-1", started)
		log.Status = "paused"
		if err := repo.Create(ctx, log); err == nil {
			t.Error("expected check constraint failure")
		}
	})

	t.Run("Get Missing", func(t *testing.T) {
		repo := NewScanLogRepository(setupTestDB(t))
		if _, err := repo.Get(ctx, "missing"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewScanLogRepository(setupTestDB(t))
		for i, src := range []string{"a", "b", "a"} {
			log := models.NewScanLog(src, started.Add(time.Duration(i)*time.Hour))
			if err := repo.Create(ctx, log); err != nil {
				t.Fatalf("failed to create scan log: %v", err)
			}
		}

		all, err := repo.List(ctx, nil)
		if err != nil {
			t.Fatalf("failed to list scan logs: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 logs, got %d", len(all))
		}
		if !all[0].StartedAt.After(all[2].StartedAt) {
			t.Error("expected newest first")
		}

		filtered, _ := repo.List(ctx, map[string]any{"source_id": "a", "limit": 1})
		if len(filtered) != 1 || filtered[0].SourceID != "a" {
			t.Errorf("expected one log for source a, got %d", len(filtered))
		}
	})
}

func TestContentRepositories(t *testing.T) {
	ctx := context.Background()

	t.Run("Movie", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))
		m := &models.MovieRecord{
			SourceID:   "src",
			Title:      "The Matrix",
			URL:        "http://x/matrix.mkv",
			Quality:    models.QualityUHD4K,
			Year:       1999,
			Genre:      "Action, Sci-Fi",
			Rating:     8.7,
			Runtime:    136,
			IMDBID:     "tt0133093",
			Confidence: 100,
		}
		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("failed to create movie: %v", err)
		}
		if m.ID() == "" || m.CreatedAt.IsZero() {
			t.Fatal("expected ID and created_at set")
		}

		got, err := repo.Get(ctx, m.ID())
		if err != nil {
			t.Fatalf("failed to get movie: %v", err)
		}
		if got.Title != m.Title || got.Year != 1999 || got.Quality != models.QualityUHD4K || got.IMDBID != "tt0133093" {
			t.Errorf("unexpected movie %+v", got)
		}
		if got.TMDBID != "" || got.OriginalTitle != "" {
			t.Errorf("expected NULL columns to read back empty, got %+v", got)
		}

		list, _ := repo.List(ctx, map[string]any{"source_id": "src"})
		if len(list) != 1 {
			t.Errorf("expected 1 movie, got %d", len(list))
		}
	})

	t.Run("Movie Validation", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))
		err := repo.Create(ctx, &models.MovieRecord{SourceID: "src", Title: "x", Confidence: 10})
		if !errors.Is(err, models.ErrMissingURL) {
			t.Errorf("expected ErrMissingURL, got %v", err)
		}
	})

	t.Run("Series", func(t *testing.T) {
		repo := NewSeriesRepository(setupTestDB(t))
		for _, ep := range []int{2, 1} {
			s := &models.SeriesRecord{SourceID: "src", Title: "Breaking Bad", URL: "http://x", Season: 1, Episode: ep, Confidence: 50}
			if err := repo.Create(ctx, s); err != nil {
				t.Fatalf("failed to create series: %v", err)
			}
		}

		list, err := repo.List(ctx, map[string]any{"title": "Breaking Bad"})
		if err != nil {
			t.Fatalf("failed to list series: %v", err)
		}
		if len(list) != 2 || list[0].Episode != 1 || list[1].Episode != 2 {
			t.Errorf("expected episodes ordered 1,2, got %+v", list)
		}
	})

	t.Run("Channel", func(t *testing.T) {
		repo := NewChannelRepository(setupTestDB(t))
		c := &models.ChannelRecord{SourceID: "src", Name: "BBC One", URL: "http://x/bbc", Category: "general", Quality: models.QualityHD, TVGID: "bbc1.uk", Confidence: 50}
		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("failed to create channel: %v", err)
		}

		got, err := repo.Get(ctx, c.ID())
		if err != nil {
			t.Fatalf("failed to get channel: %v", err)
		}
		if got.Name != "BBC One" || got.Quality != models.QualityHD || got.TVGID != "bbc1.uk" {
			t.Errorf("unexpected channel %+v", got)
		}

		if _, err := repo.Get(ctx, "missing"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}

		list, _ := repo.List(ctx, map[string]any{"category": "news"})
		if len(list) != 0 {
			t.Errorf("expected no news channels, got %d", len(list))
		}
	})
}

func TestCacheRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("Set And Get", func(t *testing.T) {
		repo := NewCacheRepository(setupTestDB(t)).WithClock(clock)
		if err := repo.Set(ctx, "k", []byte("v1"), time.Hour); err != nil {
			t.Fatalf("failed to set: %v", err)
		}
		if err := repo.Set(ctx, "k", []byte("v2"), time.Hour); err != nil {
			t.Fatalf("failed to overwrite: %v", err)
		}

		v, ok, err := repo.Get(ctx, "k")
		if err != nil || !ok || string(v) != "v2" {
			t.Errorf("expected v2, got %q %v %v", v, ok, err)
		}

		if _, ok, _ := repo.Get(ctx, "other"); ok {
			t.Error("expected miss for unknown key")
		}
	})

	t.Run("Expiry And Purge", func(t *testing.T) {
		current := now
		repo := NewCacheRepository(setupTestDB(t)).WithClock(func() time.Time { return current })

		repo.Set(ctx, "short", []byte("a"), time.Minute)
		repo.Set(ctx, "long", []byte("b"), time.Hour)

		current = now.Add(2 * time.Minute)
		if _, ok, _ := repo.Get(ctx, "short"); ok {
			t.Error("expected expired entry to miss")
		}
		if _, ok, _ := repo.Get(ctx, "long"); !ok {
			t.Error("expected live entry to hit")
		}

		n, err := repo.Purge(ctx)
		if err != nil {
			t.Fatalf("failed to purge: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 purged entry, got %d", n)
		}
	})
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Wraps Errors", func(t *testing.T) {
		store := NewStore(setupTestDB(t))
		err := store.CreateChannel(ctx, &models.ChannelRecord{SourceID: "src"})

		var pe *shared.PersistenceError
		if !errors.As(err, &pe) {
			t.Fatalf("expected PersistenceError, got %v", err)
		}
		if pe.Op != "create channel" || !errors.Is(err, shared.ErrPersistence) {
			t.Errorf("unexpected persistence error %v", err)
		}
	})

	t.Run("Closed Database", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewStore(db)
		db.Close()

		err := store.CreateScanLog(ctx, models.NewScanLog("src", time.Now()))
		if !errors.Is(err, shared.ErrPersistence) {
			t.Errorf("expected ErrPersistence, got %v", err)
		}
	})

	t.Run("Round Trip", func(t *testing.T) {
		store := NewStore(setupTestDB(t))
		log := models.NewScanLog("src", time.Now())
		if err := store.CreateScanLog(ctx, log); err != nil {
			t.Fatalf("failed to create scan log: %v", err)
		}
		log.SetTotal(1)
		log.RecordAttempt("")
		log.Complete(time.Now())
		if err := store.UpdateScanLog(ctx, log.ID, log.Patch()); err != nil {
			t.Fatalf("failed to update scan log: %v", err)
		}
		if err := store.CreateMovie(ctx, &models.MovieRecord{SourceID: "src", Title: "x", URL: "u"}); err != nil {
			t.Fatalf("failed to create movie: %v", err)
		}
		if err := store.CreateSeries(ctx, &models.SeriesRecord{SourceID: "src", Title: "y", URL: "u"}); err != nil {
			t.Fatalf("failed to create series: %v", err)
		}
	})
}
