package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/lens/internal/models"
	"github.com/desertthunder/lens/internal/tasks"
)

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func entryProgress(step, total int, out tasks.EntryOutcome) tasks.ProgressUpdate {
	return tasks.ProgressUpdate{
		Phase:   tasks.ProcessEntry,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, out.Name),
		Data:    out,
	}
}

// drive runs the model's scan to completion without a tea.Program.
func drive(t *testing.T, m *ScanModel) {
	t.Helper()
	cmd := m.startScan()
	for range 100 {
		msg := cmd()
		m.Update(msg)
		if um, ok := msg.(Msg); ok && um.kind == MsgScanComplete {
			return
		}
		cmd = m.waitForProgress()
	}
	t.Fatal("scan did not complete")
}

func completedLog() *models.ScanLog {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := models.NewScanLog("src", now)
	l.ID = "scan-1"
	_ = l.SetTotal(2)
	_ = l.RecordAttempt("")
	_ = l.RecordAttempt("entry 1: tmdb: boom")
	_ = l.Complete(now.Add(time.Second))
	return l
}

func TestScanModel(t *testing.T) {
	t.Run("progress updates counts and recent lines", func(t *testing.T) {
		m := NewScanModel(context.Background(), "src", nil)
		movie := &models.ClassificationResult{Type: models.Movie, Confidence: 80}

		for i := range 10 {
			out := tasks.EntryOutcome{Index: i, Name: fmt.Sprintf("Movie %d", i), Type: models.Movie, Result: movie}
			if i%5 == 0 {
				out.Err = errors.New("provider down")
			}
			m.Update(progressUpdateMsg(entryProgress(i+1, 10, out)))
		}

		if m.counts[models.Movie] != 10 {
			t.Errorf("expected 10 movies, got %d", m.counts[models.Movie])
		}
		if m.failures != 2 {
			t.Errorf("expected 2 failures, got %d", m.failures)
		}
		if len(m.recent) != recentLines {
			t.Errorf("expected %d recent lines, got %d", recentLines, len(m.recent))
		}
		if !strings.HasSuffix(m.recent[len(m.recent)-1], "Movie 9") {
			t.Errorf("expected newest line last, got %q", m.recent[len(m.recent)-1])
		}
		if m.percent() != 1 {
			t.Errorf("expected 100%%, got %v", m.percent())
		}
		if view := m.View(); !strings.Contains(view, "Processing entries (10/10)") {
			t.Errorf("expected processing phase in view, got:\n%s", view)
		}
	})

	t.Run("percent is zero outside entry processing", func(t *testing.T) {
		m := NewScanModel(context.Background(), "src", nil)
		m.Update(progressUpdateMsg(tasks.ProgressUpdate{Phase: tasks.ParseSource, Step: 5, Total: 5}))
		if m.percent() != 0 {
			t.Errorf("expected 0, got %v", m.percent())
		}
	})

	t.Run("runs scan to result view", func(t *testing.T) {
		log := completedLog()
		run := func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*models.ScanLog, error) {
			progress <- tasks.ProgressUpdate{Phase: tasks.FetchSource, Message: "Fetching"}
			progress <- entryProgress(1, 2, tasks.EntryOutcome{Name: "CNN", Type: models.Channel, Result: &models.ClassificationResult{Type: models.Channel}})
			progress <- entryProgress(2, 2, tasks.EntryOutcome{Name: "Heat", Type: models.Movie, Result: &models.ClassificationResult{Type: models.Movie}, Err: errors.New("boom")})
			return log, nil
		}

		m := NewScanModel(context.Background(), "src", run)
		drive(t, m)

		if m.view != ResultView {
			t.Fatalf("expected result view, got %v", m.view)
		}
		got, err := m.Result()
		if err != nil || got != log {
			t.Errorf("expected final log, got %v, %v", got, err)
		}
		if n := len(m.entryList.Items()); n != 2 {
			t.Errorf("expected 2 entry items, got %d", n)
		}
		if n := len(m.errorList.Items()); n != 1 {
			t.Errorf("expected 1 error item, got %d", n)
		}

		view := m.View()
		for _, want := range []string{"Scan Complete", "Processed: 2/2", "Channels: 1", "Errors: 1"} {
			if !strings.Contains(view, want) {
				t.Errorf("expected %q in view, got:\n%s", want, view)
			}
		}
	})

	t.Run("failed scan without log", func(t *testing.T) {
		run := func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*models.ScanLog, error) {
			return nil, errors.New("db locked")
		}
		m := NewScanModel(context.Background(), "src", run)
		drive(t, m)

		if view := m.View(); !strings.Contains(view, "could not start: db locked") {
			t.Errorf("expected start failure, got:\n%s", view)
		}
	})

	t.Run("cancel key cancels context", func(t *testing.T) {
		m := NewScanModel(context.Background(), "src", nil)
		_, cmd := m.Update(keyMsg("c"))
		if cmd != nil {
			t.Error("expected no command while scan drains")
		}
		if !m.cancelled {
			t.Error("expected cancelled flag")
		}
		if m.ctx.Err() == nil {
			t.Error("expected context to be cancelled")
		}
		if view := m.View(); !strings.Contains(view, "Cancelling") {
			t.Errorf("expected cancelling notice, got:\n%s", view)
		}
	})

	t.Run("cancelled result", func(t *testing.T) {
		m := NewScanModel(context.Background(), "src", nil)
		l := completedLog()
		l.Status = models.ScanFailed
		m.Update(scanCompleteMsg(l, fmt.Errorf("scan interrupted: %w", context.Canceled)))
		if view := m.View(); !strings.Contains(view, "Scan cancelled") {
			t.Errorf("expected cancelled header, got:\n%s", view)
		}
	})

	t.Run("quit from result view", func(t *testing.T) {
		m := NewScanModel(context.Background(), "src", nil)
		m.Update(scanCompleteMsg(completedLog(), nil))

		_, cmd := m.Update(keyMsg("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})

	t.Run("ctrl+c always quits", func(t *testing.T) {
		m := NewScanModel(context.Background(), "src", nil)
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if m.ctx.Err() == nil {
			t.Error("expected context to be cancelled")
		}
	})

	t.Run("tab toggles errors list", func(t *testing.T) {
		m := NewScanModel(context.Background(), "src", nil)
		m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
		m.Update(scanCompleteMsg(completedLog(), nil))
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		if !m.showErrors {
			t.Error("expected errors list")
		}
		if view := m.View(); !strings.Contains(view, "entry 1: tmdb: boom") {
			t.Errorf("expected error line in view, got:\n%s", view)
		}
	})

	t.Run("window size bounds bar width", func(t *testing.T) {
		m := NewScanModel(context.Background(), "src", nil)
		m.Update(tea.WindowSizeMsg{Width: 200, Height: 50})
		if m.bar.Width != maxBarWidth {
			t.Errorf("expected %d, got %d", maxBarWidth, m.bar.Width)
		}
		m.Update(tea.WindowSizeMsg{Width: 6, Height: 50})
		if m.bar.Width != 10 {
			t.Errorf("expected 10, got %d", m.bar.Width)
		}
	})
}

func TestPalette(t *testing.T) {
	for _, s := range []models.ScanStatus{models.ScanRunning, models.ScanCompleted, models.ScanFailed} {
		if got := Status(s); !strings.Contains(got, string(s)) {
			t.Errorf("expected %q in %q", s, got)
		}
	}
	if got := Title("Lens"); !strings.Contains(got, "Lens") {
		t.Errorf("expected title text, got %q", got)
	}
}

func TestOutcomeItem(t *testing.T) {
	tests := []struct {
		name     string
		outcome  tasks.EntryOutcome
		expected string
	}{
		{
			name:     "failed before classification",
			outcome:  tasks.EntryOutcome{Name: "x", Err: errors.New("panic")},
			expected: "✗ panic",
		},
		{
			name: "enriched movie",
			outcome: tasks.EntryOutcome{Name: "Heat", Type: models.Movie, Result: &models.ClassificationResult{
				Type: models.Movie, Confidence: 91, Sources: []string{"tmdb", "omdb"},
			}},
			expected: "movie • 91% • tmdb, omdb",
		},
		{
			name: "partial failure",
			outcome: tasks.EntryOutcome{Name: "Heat", Type: models.Movie, Result: &models.ClassificationResult{
				Type: models.Movie, Confidence: 50,
			}, Err: errors.New("omdb down")},
			expected: "movie • 50% • ✗ omdb down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := outcomeItem{outcome: tt.outcome}
			if got := item.Description(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
			if item.FilterValue() != tt.outcome.Name {
				t.Errorf("expected filter value %q, got %q", tt.outcome.Name, item.FilterValue())
			}
		})
	}
}
