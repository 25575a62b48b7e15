package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/lens/internal/tasks"
)

var (
	_ list.Item = outcomeItem{}
	_ list.Item = errorItem{}
)

// outcomeItem wraps [tasks.EntryOutcome] to implement [list.Item].
type outcomeItem struct {
	outcome tasks.EntryOutcome
}

func (i outcomeItem) FilterValue() string { return i.outcome.Name }
func (i outcomeItem) Title() string       { return i.outcome.Name }
func (i outcomeItem) Description() string {
	if i.outcome.Result == nil {
		return fmt.Sprintf("✗ %v", i.outcome.Err)
	}
	desc := fmt.Sprintf("%s • %d%%", i.outcome.Type, i.outcome.Result.Confidence)
	if len(i.outcome.Result.Sources) > 0 {
		desc = fmt.Sprintf("%s • %s", desc, strings.Join(i.outcome.Result.Sources, ", "))
	}
	if i.outcome.Err != nil {
		desc = fmt.Sprintf("%s • ✗ %v", desc, i.outcome.Err)
	}
	return desc
}

// errorItem is one ScanLog error line.
type errorItem struct {
	index int
	msg   string
}

func (i errorItem) FilterValue() string { return i.msg }
func (i errorItem) Title() string       { return fmt.Sprintf("Error %d", i.index+1) }
func (i errorItem) Description() string { return i.msg }
