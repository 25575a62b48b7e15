package tasks

import (
	"fmt"

	"github.com/desertthunder/lens/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSource Phase = iota
	ParseSource
	ProcessEntry
	ScanComplete
	ScanFailed
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case ParseSource:
		return "parse"
	case ProcessEntry:
		return "process_entry"
	case ScanComplete:
		return "complete"
	case ScanFailed:
		return "failed"
	default:
		return ""
	}
}

// Terminal reports whether p ends a scan.
func (p Phase) Terminal() bool {
	return p == ScanComplete || p == ScanFailed
}

// EntryOutcome is the Data of a [ProcessEntry] update.
type EntryOutcome struct {
	Index  int
	Name   string
	Type   models.ContentType
	Result *models.ClassificationResult
	Err    error
}

func fetchSourceUpdate(location string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching source %s...", location),
	}
}

func parseUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ParseSource,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Parsed %d entries", total),
	}
}

func entryUpdate(step, total int, out EntryOutcome) ProgressUpdate {
	if out.Err != nil {
		return ProgressUpdate{
			Phase:   ProcessEntry,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, out.Name, out.Err),
			Data:    out,
		}
	}
	return ProgressUpdate{
		Phase:   ProcessEntry,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%s)", step, total, out.Name, out.Type),
		Data:    out,
	}
}

func completeUpdate(log *models.ScanLog) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanComplete,
		Step:    log.ProcessedEntries,
		Total:   log.TotalEntries,
		Message: fmt.Sprintf("Scan completed: %d entries, %d errors", log.ProcessedEntries, len(log.Errors)),
		Data:    log,
	}
}

func failedUpdate(log *models.ScanLog, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanFailed,
		Step:    log.ProcessedEntries,
		Total:   log.TotalEntries,
		Message: fmt.Sprintf("Scan failed: %v", err),
		Data:    log,
	}
}
