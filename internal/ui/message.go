package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/lens/internal/models"
	"github.com/desertthunder/lens/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgScanComplete
)

// scanOutcome is the payload of [MsgScanComplete].
type scanOutcome struct {
	log *models.ScanLog
	err error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// scanCompleteMsg is the constructor for [MsgScanComplete]
func scanCompleteMsg(log *models.ScanLog, err error) Msg {
	return Msg{kind: MsgScanComplete, data: scanOutcome{log: log, err: err}}
}
