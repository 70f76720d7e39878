package ui

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shiki/internal/auth"
	"github.com/five82/shiki/internal/catalog"
	"github.com/five82/shiki/internal/fetch"
	"github.com/five82/shiki/internal/logtail"
	"github.com/five82/shiki/internal/prefs"
	"github.com/five82/shiki/internal/state"
	"github.com/five82/shiki/internal/tracking"
)

// View identifies the screen being shown.
type View int

const (
	ViewHome View = iota
	ViewSchedule
	ViewProfile
	ViewLogs
	ViewDetail
	ViewAccount
)

// tabOrder is the cycle tab walks. Detail and Account are entered from
// other views and left with esc.
var tabOrder = []View{ViewHome, ViewSchedule, ViewProfile, ViewLogs}

func (v View) String() string {
	switch v {
	case ViewHome:
		return "Home"
	case ViewSchedule:
		return "Schedule"
	case ViewProfile:
		return "Profile"
	case ViewLogs:
		return "Logs"
	case ViewDetail:
		return "Detail"
	case ViewAccount:
		return "Account"
	default:
		return "Unknown"
	}
}

// ParseView maps a preference value such as "schedule" to a View. Unknown
// names give ViewHome.
func ParseView(name string) View {
	switch name {
	case "schedule":
		return ViewSchedule
	case "profile":
		return ViewProfile
	default:
		return ViewHome
	}
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Catalog   *catalog.Service
	Tracking  *tracking.Store
	Loader    *fetch.Loader
	Auth      *auth.Client
	Store     *state.Store
	LogPath   string
	PollTick  time.Duration
	Prefs     prefs.Prefs
	PrefsPath string
	Now       func() time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	catalog   *catalog.Service
	tracked   *tracking.Store
	loader    *fetch.Loader
	auth      *auth.Client
	store     *state.Store
	logPath   string
	prefsPath string
	prefs     prefs.Prefs
	pollTick  time.Duration
	now       func() time.Time
	keys      keyMap

	changes     <-chan struct{}
	unsubscribe func()

	theme       Theme
	currentView View
	returnView  View
	width       int
	height      int
	ready       bool
	showHelp    bool
	spinner     spinner.Model

	snapshot    state.Snapshot
	lastUpdated time.Time
	user        *auth.User
	flash       flash

	home     homeState
	schedule scheduleState
	detail   detailState
	profile  profileState
	account  accountState
	logs     logState
}

// flash is a one-line message shown in the header until the next action.
type flash struct {
	text  string
	isErr bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	userPrefs := opts.Prefs
	if userPrefs.Theme == "" {
		userPrefs = prefs.Defaults()
	}

	m := Model{
		ctx:         ctx,
		catalog:     opts.Catalog,
		tracked:     opts.Tracking,
		loader:      opts.Loader,
		auth:        opts.Auth,
		store:       opts.Store,
		logPath:     opts.LogPath,
		prefsPath:   prefsPath,
		prefs:       userPrefs,
		pollTick:    pollTick,
		now:         now,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(userPrefs.Theme),
		currentView: ParseView(userPrefs.StartView),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		schedule:    newScheduleState(now()),
		account:     newAccountState(),
		logs:        logState{follow: true, minLevel: logtail.LevelDebug},
	}
	m.returnView = m.currentView
	switch m.currentView {
	case ViewSchedule:
		m.schedule.loading = true
	case ViewProfile:
		m.profile.loading = true
	}
	if m.tracked != nil {
		m.changes, m.unsubscribe = m.tracked.Subscribe()
		m.home.requestedIDs = m.tracked.IDs(tracking.WatchLater)
		m.home.continueLoading = m.catalog != nil && m.loader != nil
	}
	if m.auth != nil {
		m.user = m.auth.Current()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
		m.spinner.Tick,
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.changes != nil {
		cmds = append(cmds, waitForChangeCmd(m.ctx, m.changes))
	}
	if m.home.continueLoading {
		cmds = append(cmds, continueCmd(m.ctx, m.catalog, m.loader))
	}
	switch m.currentView {
	case ViewSchedule:
		cmds = append(cmds, m.scheduleCmd())
	case ViewProfile:
		cmds = append(cmds, m.profileCmd())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.detail.viewport = viewport.New(0, 0)
			m.logs.viewport = viewport.New(0, 0)
		}
		m.ready = true
		m.resizeViewports()
		m.updateDetailViewport()
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = m.snapshot.LastUpdated
		m.clampHomeSelection()
		return m, nil

	case trackingChangedMsg:
		return m.handleTrackingChanged()

	case continueMsg:
		m.handleContinue(msg)
		return m, nil

	case scheduleMsg:
		m.handleSchedule(msg)
		return m, nil

	case detailMsg:
		m.handleDetail(msg)
		return m, nil

	case profileMsg:
		m.handleProfile(msg)
		return m, nil

	case authMsg:
		return m.handleAuth(msg)

	case logsMsg:
		m.handleLogs(msg)
		return m, nil
	}

	if m.currentView == ViewAccount {
		return m.updateAccountInputs(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input. Form input on the account view takes
// precedence over every global key except ctrl+c.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}
	if m.currentView == ViewAccount {
		return m.handleAccountKey(msg)
	}

	m.flash = flash{}
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		return m.cycleTheme()
	case key.Matches(msg, m.keys.Tab):
		return m.switchView(m.nextTabView(1))
	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView(m.nextTabView(-1))
	case key.Matches(msg, m.keys.ViewHome):
		return m.switchView(ViewHome)
	case key.Matches(msg, m.keys.ViewSchedule):
		return m.switchView(ViewSchedule)
	case key.Matches(msg, m.keys.ViewProfile):
		return m.switchView(ViewProfile)
	case key.Matches(msg, m.keys.ViewLogs):
		return m.switchView(ViewLogs)
	case key.Matches(msg, m.keys.SignIn):
		return m.openAccount()
	case key.Matches(msg, m.keys.SignOut):
		return m, signOutCmd(m.ctx, m.auth)
	case key.Matches(msg, m.keys.TrackedOnly) && m.currentView != ViewLogs:
		return m.toggleTrackedOnly()
	}

	switch m.currentView {
	case ViewHome:
		return m.handleHomeKey(msg)
	case ViewSchedule:
		return m.handleScheduleKey(msg)
	case ViewDetail:
		return m.handleDetailKey(msg)
	case ViewProfile:
		return m.handleProfileKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	if m.loader != nil {
		m.loader.Cancel()
	}
	return m, tea.Quit
}

func (m Model) cycleTheme() (tea.Model, tea.Cmd) {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.prefs.Theme = m.theme.Name
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.flash = flash{text: "Could not save theme: " + err.Error(), isErr: true}
	}
	m.updateDetailViewport()
	m.updateLogViewport()
	return m, nil
}

func (m Model) nextTabView(step int) View {
	current := m.currentView
	if current == ViewDetail || current == ViewAccount {
		current = m.returnView
	}
	idx := slices.Index(tabOrder, current)
	if idx < 0 {
		return tabOrder[0]
	}
	n := len(tabOrder)
	return tabOrder[((idx+step)%n+n)%n]
}

// switchView shows v and starts whatever fetch it needs.
func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	m.currentView = v
	m.returnView = v
	switch v {
	case ViewSchedule:
		if !m.schedule.loaded && !m.schedule.loading {
			return m, m.beginSchedule()
		}
	case ViewProfile:
		return m, m.beginProfile()
	case ViewLogs:
		return m, logsCmd(m.logPath)
	}
	return m, nil
}

// goBack leaves Detail or Account for the view they were opened from.
func (m Model) goBack() (tea.Model, tea.Cmd) {
	if m.currentView == ViewDetail {
		m.detail.gen++ // drop any response still in flight
	}
	m.currentView = m.returnView
	return m, nil
}

func (m Model) toggleTrackedOnly() (tea.Model, tea.Cmd) {
	if m.tracked == nil {
		return m, nil
	}
	on := !m.tracked.ShowTrackedOnly()
	m.tracked.SetShowTrackedOnly(on)
	m.home.selected = 0
	m.schedule.selected = 0
	if on {
		m.flash = flash{text: "Showing tracked shows only"}
	} else {
		m.flash = flash{text: "Showing all shows"}
	}
	if m.currentView == ViewSchedule || m.schedule.loaded {
		return m, m.beginSchedule()
	}
	return m, nil
}

// toggleMembership flips id in set and reports the result in the header.
func (m *Model) toggleMembership(set tracking.SetName, id, title string) {
	if m.tracked == nil || id == "" {
		return
	}
	title = truncate(title, 40)
	added := m.tracked.Toggle(set, id)
	switch {
	case set == tracking.Tracked && added:
		m.flash = flash{text: "Tracking " + title}
	case set == tracking.Tracked:
		m.flash = flash{text: "Stopped tracking " + title}
	case added:
		m.flash = flash{text: "Added " + title + " to watch later"}
	default:
		m.flash = flash{text: "Removed " + title + " from watch later"}
	}
}

// handleTrackingChanged re-arms the subscription and starts a new
// watch-later batch when that list changed since the last one.
func (m Model) handleTrackingChanged() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{waitForChangeCmd(m.ctx, m.changes)}
	if m.tracked.Loading() {
		return m, tea.Batch(cmds...)
	}
	ids := m.tracked.IDs(tracking.WatchLater)
	if !slices.Equal(ids, m.home.requestedIDs) && m.catalog != nil && m.loader != nil {
		m.home.requestedIDs = ids
		m.home.continueLoading = true
		cmds = append(cmds, continueCmd(m.ctx, m.catalog, m.loader))
	}
	if m.currentView == ViewProfile {
		cmds = append(cmds, m.beginProfile())
	}
	m.clampHomeSelection()
	m.updateDetailViewport()
	return m, tea.Batch(cmds...)
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogs && m.logs.follow {
		cmds = append(cmds, logsCmd(m.logPath))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) resizeViewports() {
	w, h := m.contentSize()
	m.detail.viewport.Width = max(w-4, 10)
	m.detail.viewport.Height = max(h-2, 1)
	m.logs.viewport.Width = max(w-4, 10)
	m.logs.viewport.Height = max(h-2, 1)
}

// contentSize is the area left under the header and command bar.
func (m Model) contentSize() (int, int) {
	return m.width, max(m.height-2, 3)
}

// renderMain renders header, command bar, and the current view.
func (m Model) renderMain() string {
	header := m.renderHeader()
	commandBar := m.renderCommandBar()
	content := m.renderContent()
	return lipgloss.JoinVertical(lipgloss.Left, header, commandBar, content)
}

func (m Model) renderContent() string {
	w, h := m.contentSize()
	switch m.currentView {
	case ViewSchedule:
		return m.renderSchedule(w, h)
	case ViewDetail:
		return m.renderDetail(w, h)
	case ViewProfile:
		return m.renderProfile(w, h)
	case ViewAccount:
		return m.renderAccount(w, h)
	case ViewLogs:
		return m.renderLogs(w, h)
	default:
		return m.renderHome(w, h)
	}
}

// userMessage turns err into a line fit for the header.
func userMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case auth.IsUserError(err):
		return err.Error()
	case errors.Is(err, context.Canceled):
		return "Cancelled"
	default:
		return classifyAPIError(err) + ": " + truncate(err.Error(), 80)
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type trackingChangedMsg struct{}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// waitForChangeCmd blocks until the tracked lists change. It returns nil
// once ctx is done, which ends the subscription loop.
func waitForChangeCmd(ctx context.Context, changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			return trackingChangedMsg{}
		}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
