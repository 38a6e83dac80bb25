package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/blissify/internal/formatter"
	"github.com/desertthunder/blissify/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RunView ViewState = iota
	ResultView
)

// recentPicks is how many picks the run view keeps on screen.
const recentPicks = 5

// RunFunc starts a traversal that reports through progress. It must not close progress.
type RunFunc func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.Result, error)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	view         ViewState
	title        string
	run          RunFunc
	width        int
	height       int
	progressChan chan tasks.ProgressUpdate
	doneChan     chan Msg
	progress     tasks.ProgressUpdate
	picks        []tasks.Pick
	result       *tasks.Result
	err          error
	quitting     bool
	spinner      spinner.Model
	bar          progress.Model
	pickList     list.Model
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model that will execute run once started.
func NewModel(ctx context.Context, title string, run RunFunc) *Model {
	ctx, cancel := context.WithCancel(ctx)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.title.UnsetMarginBottom()

	return &Model{
		ctx:     ctx,
		cancel:  cancel,
		view:    RunView,
		title:   title,
		run:     run,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Result returns the outcome of the run once the program has exited.
func (m *Model) Result() (*tasks.Result, error) {
	return m.result, m.err
}

// Init starts the spinner and the run.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startRun())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(10, min(msg.Width-4, 60))
		if m.view == ResultView {
			m.pickList.SetSize(msg.Width-4, msg.Height-10)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case RunView:
			return m.handleRunKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != RunView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			update := msg.data.(tasks.ProgressUpdate)
			m.progress = update
			if pick, ok := update.Data.(tasks.Pick); ok {
				m.picks = append(m.picks, pick)
			}
			return m, m.waitForProgress()

		case MsgRunComplete:
			outcome := msg.data.(runOutcome)
			m.result = outcome.result
			m.err = outcome.err
			m.view = ResultView
			m.progressChan = nil
			m.cancel()

			var picks []tasks.Pick
			if m.result != nil {
				picks = m.result.Picks
			}
			m.pickList = list.New(pickItems(picks), list.NewDefaultDelegate(), 0, 0)
			m.pickList.Title = "Queued tracks"
			m.pickList.SetShowHelp(false)
			m.pickList.SetSize(max(m.width-4, 20), max(m.height-10, 5))

			if m.quitting {
				return m, tea.Quit
			}
			return m, nil
		}
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleRunKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		m.quitting = true
		m.cancel()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.pickList, cmd = m.pickList.Update(msg)
	return m, cmd
}

// startRun launches the traversal. The progress channel is closed once run returns, after which the outcome is
// delivered on doneChan.
func (m *Model) startRun() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.doneChan = make(chan Msg, 1)

	progressChan, doneChan := m.progressChan, m.doneChan
	go func() {
		result, err := m.run(m.ctx, progressChan)
		close(progressChan)
		doneChan <- runCompleteMsg(result, err)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan, doneChan := m.progressChan, m.doneChan
	return func() tea.Msg {
		if progressChan == nil {
			return <-doneChan
		}

		update, ok := <-progressChan
		if !ok {
			return <-doneChan
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderRun() string {
	title := styles.title.Render(m.title)

	if m.quitting {
		return fmt.Sprintf("%s\n\n%s Cancelling, waiting for the current step...", title, m.spinner.View())
	}

	status := fmt.Sprintf("%s %s", m.spinner.View(), phaseLabel(m.progress))
	bar := m.bar.ViewAs(completion(m.progress))

	var b strings.Builder
	start := max(0, len(m.picks)-recentPicks)
	for _, p := range m.picks[start:] {
		b.WriteString(fmt.Sprintf("\n  %s %s", styles.ok.Render("+"), p.TrackID))
		b.WriteString(styles.dim.Render(fmt.Sprintf("  %.4f %s", p.Distance, p.Source)))
	}

	helpView := m.help.ShortHelpView([]key.Binding{cancelKey(m.keys)})
	return fmt.Sprintf("%s\n\n%s\n%s\n%s\n%s\n\n%s",
		title, status, bar, styles.help.Render(m.progress.Message), b.String(), helpView)
}

func (m *Model) renderResult() string {
	if m.result == nil {
		return styles.err.Render(fmt.Sprintf("Run failed: %v\n\nPress q to quit", m.err))
	}

	res := m.result
	var heading string
	switch res.Stop {
	case tasks.StopCompleted:
		heading = "✓ Playlist complete"
	case tasks.StopAborted:
		heading = "✗ Playlist aborted"
	default:
		heading = fmt.Sprintf("Playlist stopped early (%s)", res.Stop)
	}
	title := styles.stop(string(res.Stop)).Render(heading)

	info := fmt.Sprintf("\nSeed: %s\nQueued: %d/%d %s\nDuration: %s",
		res.Seed, len(res.Picks), res.Requested, unit(res.Mode), formatter.FormatDuration(res.CompletedAt.Sub(res.StartedAt)))
	if res.Mode == tasks.ModeAlbums {
		info = fmt.Sprintf("\nSeed: %s\nQueued: %d tracks from %d/%d albums\nDuration: %s",
			res.Seed, len(res.Picks), res.Steps, res.Requested, formatter.FormatDuration(res.CompletedAt.Sub(res.StartedAt)))
	}

	var failure string
	if m.err != nil {
		failure = "\n\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.quit})
	return fmt.Sprintf("%s\n%s%s\n\n%s\n\n%s", title, info, failure, m.pickList.View(), helpView)
}

func cancelKey(k keyMap) key.Binding {
	return key.NewBinding(key.WithKeys(k.quit.Keys()...), key.WithHelp("q", "cancel"))
}

func phaseLabel(u tasks.ProgressUpdate) string {
	switch u.Phase {
	case tasks.SelectSeed:
		return "Selecting seed"
	case tasks.ProbeCache:
		return fmt.Sprintf("Step %d/%d: checking cached neighbors", u.Step, u.Total)
	case tasks.ScanLibrary:
		return fmt.Sprintf("Step %d/%d: scanning library", u.Step, u.Total)
	case tasks.RankGroups:
		return fmt.Sprintf("Step %d/%d: ranking albums", u.Step, u.Total)
	case tasks.PickTrack:
		return fmt.Sprintf("Step %d/%d: queued", u.Step, u.Total)
	case tasks.Done:
		return "Finishing"
	default:
		return "Starting"
	}
}

// completion is the share of finished steps; a step in progress does not count.
func completion(u tasks.ProgressUpdate) float64 {
	if u.Total <= 0 {
		return 0
	}
	done := u.Step
	switch u.Phase {
	case tasks.SelectSeed:
		done = 0
	case tasks.ProbeCache, tasks.ScanLibrary, tasks.RankGroups:
		done = u.Step - 1
	}
	return min(1, max(0, float64(done)/float64(u.Total)))
}

func unit(mode tasks.Mode) string {
	if mode == tasks.ModeAlbums {
		return "albums"
	}
	return "tracks"
}
