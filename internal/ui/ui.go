package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/lens/internal/models"
	"github.com/desertthunder/lens/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ScanView ViewState = iota
	ResultView
)

const (
	recentLines = 8
	maxBarWidth = 80
)

// ScanRunner starts one scan and streams its progress.
type ScanRunner func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*models.ScanLog, error)

// ScanModel represents the TUI application state for one scan run.
type ScanModel struct {
	ctx          context.Context
	cancel       context.CancelFunc
	run          ScanRunner
	source       string
	view         ViewState
	width        int
	height       int
	spinner      spinner.Model
	bar          progress.Model
	progressChan chan tasks.ProgressUpdate
	done         chan scanOutcome
	progress     tasks.ProgressUpdate
	recent       []string
	outcomes     []tasks.EntryOutcome
	counts       map[models.ContentType]int
	failures     int
	cancelled    bool
	showErrors   bool
	entryList    list.Model
	errorList    list.Model
	log          *models.ScanLog
	err          error
	help         help.Model
	keys         keyMap
}

// NewScanModel creates a TUI model that runs a scan of source when started.
func NewScanModel(ctx context.Context, source string, run ScanRunner) *ScanModel {
	ctx, cancel := context.WithCancel(ctx)
	return &ScanModel{
		ctx:     ctx,
		cancel:  cancel,
		run:     run,
		source:  source,
		view:    ScanView,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.ok)),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		counts:  make(map[models.ContentType]int),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Result returns the final scan log and error once the scan has finished.
func (m *ScanModel) Result() (*models.ScanLog, error) {
	return m.log, m.err
}

// Init starts the spinner and the scan.
func (m *ScanModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startScan())
}

// Update handles incoming messages and updates the model state.
func (m *ScanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(max(msg.Width-4, 10), maxBarWidth)
		if m.view == ResultView {
			m.resizeLists()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		if m.view != ScanView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			m.applyProgress(msg.data.(tasks.ProgressUpdate))
			return m, m.waitForProgress()
		case MsgScanComplete:
			out := msg.data.(scanOutcome)
			m.finish(out.log, out.err)
			return m, nil
		}
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *ScanModel) View() string {
	switch m.view {
	case ScanView:
		return m.renderScan()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *ScanModel) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.cancel()
		return m, tea.Quit
	}

	switch {
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case m.view == ScanView && key.Matches(msg, m.keys.cancel, m.keys.quit):
		m.cancelled = true
		m.cancel()
		return m, nil
	case m.view == ResultView && key.Matches(msg, m.keys.quit):
		m.cancel()
		return m, tea.Quit
	case m.view == ResultView && key.Matches(msg, m.keys.tab):
		m.showErrors = !m.showErrors
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *ScanModel) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view != ResultView {
		return m, nil
	}
	var cmd tea.Cmd
	if m.showErrors {
		m.errorList, cmd = m.errorList.Update(msg)
	} else {
		m.entryList, cmd = m.entryList.Update(msg)
	}
	return m, cmd
}

func (m *ScanModel) startScan() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 64)
	m.done = make(chan scanOutcome, 1)

	go func() {
		log, err := m.run(m.ctx, m.progressChan)
		m.done <- scanOutcome{log: log, err: err}
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *ScanModel) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.progressChan
		if !ok {
			out := <-m.done
			return scanCompleteMsg(out.log, out.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *ScanModel) applyProgress(update tasks.ProgressUpdate) {
	m.progress = update
	if out, ok := update.Data.(tasks.EntryOutcome); ok {
		m.outcomes = append(m.outcomes, out)
		if out.Result != nil {
			m.counts[out.Type]++
		}
		if out.Err != nil {
			m.failures++
		}
	}
	if update.Message != "" {
		m.recent = append(m.recent, update.Message)
		if len(m.recent) > recentLines {
			m.recent = m.recent[len(m.recent)-recentLines:]
		}
	}
}

func (m *ScanModel) finish(log *models.ScanLog, err error) {
	m.log = log
	m.err = err
	m.view = ResultView

	entries := make([]list.Item, len(m.outcomes))
	for i, out := range m.outcomes {
		entries[i] = outcomeItem{outcome: out}
	}
	m.entryList = list.New(entries, list.NewDefaultDelegate(), 0, 0)
	m.entryList.Title = "Entries"
	m.entryList.SetShowHelp(false)

	var errs []list.Item
	if log != nil {
		errs = make([]list.Item, len(log.Errors))
		for i, e := range log.Errors {
			errs[i] = errorItem{index: i, msg: e}
		}
	}
	m.errorList = list.New(errs, list.NewDefaultDelegate(), 0, 0)
	m.errorList.Title = "Errors"
	m.errorList.SetShowHelp(false)
	m.resizeLists()
}

func (m *ScanModel) resizeLists() {
	w, h := max(m.width-4, 20), max(m.height-12, 5)
	m.entryList.SetSize(w, h)
	m.errorList.SetSize(w, h)
}

func (m *ScanModel) percent() float64 {
	if m.progress.Phase != tasks.ProcessEntry || m.progress.Total == 0 {
		return 0
	}
	return float64(m.progress.Step) / float64(m.progress.Total)
}

func (m *ScanModel) renderScan() string {
	title := styles.title.Render(fmt.Sprintf("Scanning %s", m.source))

	var phase string
	switch m.progress.Phase {
	case tasks.FetchSource:
		phase = "Fetching source..."
	case tasks.ParseSource:
		phase = fmt.Sprintf("Parsed %d entries", m.progress.Total)
	case tasks.ProcessEntry:
		phase = fmt.Sprintf("Processing entries (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Starting..."
	}
	if m.cancelled {
		phase = styles.warn.Render("Cancelling, waiting for in-flight entries...")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s %s\n\n%s\n\n", title, m.spinner.View(), phase, m.bar.ViewAs(m.percent()))
	fmt.Fprintf(&b, "movies %d • series %d • channels %d • %s\n\n",
		m.counts[models.Movie], m.counts[models.Series], m.counts[models.Channel],
		m.failureCount())
	for _, line := range m.recent {
		b.WriteString(styles.help.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.cancel, m.keys.quit}))
	return b.String()
}

func (m *ScanModel) failureCount() string {
	s := fmt.Sprintf("errors %d", m.failures)
	if m.failures > 0 {
		return styles.warn.Render(s)
	}
	return s
}

func (m *ScanModel) renderResult() string {
	var header string
	switch {
	case m.log == nil && m.err != nil:
		header = styles.err.Render(fmt.Sprintf("✗ Scan could not start: %v", m.err))
	case m.log == nil:
		header = styles.err.Render("No result available")
	case m.log.Status == models.ScanCompleted:
		header = styles.ok.Render("✓ Scan Complete!")
	case errors.Is(m.err, context.Canceled):
		header = styles.warn.Render("Scan cancelled")
	default:
		header = styles.err.Render(fmt.Sprintf("✗ Scan failed: %v", m.err))
	}

	var info string
	if m.log != nil {
		info = fmt.Sprintf(
			"\nScan: %s\nSource: %s\nProcessed: %d/%d\nMovies: %d  Series: %d  Channels: %d\nErrors: %d\n",
			m.log.ID,
			m.log.SourceID,
			m.log.ProcessedEntries,
			m.log.TotalEntries,
			m.counts[models.Movie],
			m.counts[models.Series],
			m.counts[models.Channel],
			len(m.log.Errors),
		)
	}

	body := m.entryList.View()
	if m.showErrors {
		body = m.errorList.View()
	}

	var helpView string
	if m.help.ShowAll {
		helpView = m.help.FullHelpView(m.keys.FullHelp())
	} else {
		helpView = m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.tab, m.keys.help, m.keys.quit})
	}
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", header, info, body, helpView)
}
