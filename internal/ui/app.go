package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/Johannes-Berggren/CommitQuery/internal/api"
	"github.com/Johannes-Berggren/CommitQuery/internal/models"
)

// Service is the part of the commit query server the UI drives.
type Service interface {
	Login(ctx context.Context, username, password string) (string, error)
	ListCommits(ctx context.Context, q models.Query) (models.CommitPage, error)
	ExportText(ctx context.Context, q models.ExportQuery) (string, error)
}

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	Save(token string) error
	Clear() error
}

// Deps are the collaborators injected into the Model.
type Deps struct {
	Service   Service
	Tokens    TokenStore
	Clipboard func(string) error
	Now       func() time.Time

	// Server is shown in the header.
	Server   string
	PageSize int
	// LoggedIn selects the first screen. Without a token the user starts at login.
	LoggedIn bool
	// Initial prefills the query form.
	Initial   models.Query
	BannerTTL time.Duration
}

type screen int

const (
	screenLogin screen = iota
	screenQuery
)

type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayDetail
	overlayExport
)

type loginDoneMsg struct {
	gen   int
	token string
	err   error
}

type commitsLoadedMsg struct {
	gen  int
	page models.CommitPage
	err  error
}

type exportLoadedMsg struct {
	gen     int
	content string
	err     error
}

type copyDoneMsg struct {
	err error
}

// Model is the single controller of the client. It owns the current query,
// the last pagination summary and the request generation; views only render.
type Model struct {
	deps    Deps
	width   int
	height  int
	screen  screen
	overlay overlayKind

	login   *LoginView
	form    *QueryForm
	results *ResultsView
	detail  *Overlay
	export  *Overlay
	banner  *Banner
	spinner spinner.Model

	// One flight per kind of request. A new request only supersedes an
	// older one of the same kind.
	loginReq  flight
	listReq   flight
	exportReq flight

	query      models.Query
	hasQuery   bool
	pagination models.Pagination
}

func NewModel(deps Deps) Model {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.PageSize <= 0 {
		deps.PageSize = models.DefaultPageSize
	}

	form := NewQueryForm(deps.Now(), deps.PageSize)
	form.SetQuery(deps.Initial)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

	m := Model{
		deps:    deps,
		login:   NewLoginView(),
		form:    form,
		results: NewResultsView(),
		detail:  NewOverlay("提交详情", "esc 关闭"),
		export:  NewOverlay("文本导出", "c 复制 • esc 关闭"),
		banner:  NewBanner(deps.BannerTTL),
		spinner: sp,

		loginReq:  flight{name: "login"},
		listReq:   flight{name: "list"},
		exportReq: flight{name: "export"},
	}
	if deps.LoggedIn {
		m.screen = screenQuery
		m.form.Focus(fieldProject)
	} else {
		m.screen = screenLogin
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return m.login.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.stopAll()
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loginSubmitMsg:
		return m, m.submitLogin(msg.username, msg.password)

	case loginDoneMsg:
		if !m.loginReq.current(msg.gen) {
			return m, nil
		}
		m.loginReq.done()
		return m, m.loginDone(msg)

	case commitsLoadedMsg:
		if !m.listReq.current(msg.gen) {
			return m, nil
		}
		m.listReq.done()
		return m, m.commitsLoaded(msg)

	case exportLoadedMsg:
		if !m.exportReq.current(msg.gen) {
			return m, nil
		}
		m.exportReq.done()
		return m, m.exportLoaded(msg)

	case openDetailMsg:
		m.detail.Show(renderCommitDetail(msg.commit))
		m.overlay = overlayDetail
		return m, nil

	case copyDoneMsg:
		if msg.err != nil {
			return m, m.banner.Error(fmt.Sprintf("复制失败: %v", msg.err))
		}
		return m, m.banner.Notice("已复制到剪贴板")

	case bannerExpiredMsg:
		m.banner.Expire(msg.id)
		return m, nil
	}

	// Cursor blinks and other component messages go to the active input.
	var cmd tea.Cmd
	if m.screen == screenLogin {
		m.login, cmd = m.login.Update(msg)
	} else {
		m.form, cmd = m.form.Update(msg)
	}
	return m, cmd
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.form.SetWidth(width)
	// header, form, spinner line, banner and footer
	m.results.SetSize(width, height-(2+fieldCount+2+1+2))
	m.detail.SetSize(width, height)
	m.export.SetSize(width, height)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.overlay {
	case overlayDetail:
		switch msg.String() {
		case "esc", "q", "enter":
			m.closeOverlay()
			return m, nil
		}
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case overlayExport:
		switch msg.String() {
		case "esc", "q":
			m.closeOverlay()
			return m, nil
		case "c", "y":
			return m, m.copyExport()
		}
		m.export, cmd = m.export.Update(msg)
		return m, cmd
	}

	if m.screen == screenLogin {
		m.login, cmd = m.login.Update(msg)
		return m, cmd
	}
	return m.handleQueryKey(msg)
}

func (m Model) handleQueryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+e":
		return m, m.exportText()
	case "ctrl+n":
		return m, m.nextPage()
	case "ctrl+p":
		return m, m.prevPage()
	case "ctrl+o":
		return m, m.logout()
	case "tab":
		return m, m.stepFocus(1)
	case "shift+tab":
		return m, m.stepFocus(-1)
	}

	if m.results.Focused() {
		switch msg.String() {
		case "enter":
			if row, ok := m.results.Selected(); ok {
				return m, row.Open
			}
			return m, nil
		case "l", "right", "n":
			return m, m.nextPage()
		case "h", "left", "p":
			return m, m.prevPage()
		case "/", "esc":
			m.results.Blur()
			return m, m.form.Focus(fieldProject)
		case "q":
			m.stopAll()
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	if msg.String() == "enter" {
		return m, m.submitQuery()
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

// stepFocus cycles focus through the form fields and, when results are on
// screen, the table.
func (m *Model) stepFocus(delta int) tea.Cmd {
	tableAvailable := m.results.State() == resultsTable
	if m.results.Focused() {
		m.results.Blur()
		if delta > 0 {
			return m.form.Focus(fieldProject)
		}
		return m.form.Focus(fieldCount - 1)
	}
	if moved, cmd := m.form.Step(delta); moved {
		return cmd
	}
	if tableAvailable {
		m.form.Blur()
		m.results.Focus()
		return nil
	}
	if delta > 0 {
		return m.form.Focus(fieldProject)
	}
	return m.form.Focus(fieldCount - 1)
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.overlay == overlayNone {
		return m, nil
	}
	o := m.activeOverlay()

	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		x, y, w, h := m.overlayBounds(o.View())
		if msg.X < x || msg.X >= x+w || msg.Y < y || msg.Y >= y+h {
			m.closeOverlay()
		}
		return m, nil
	}

	var cmd tea.Cmd
	_, cmd = o.Update(msg)
	return m, cmd
}

func (m Model) activeOverlay() *Overlay {
	if m.overlay == overlayExport {
		return m.export
	}
	return m.detail
}

// overlayBounds returns where box is drawn: centered above the banner and footer lines.
func (m Model) overlayBounds(box string) (x, y, w, h int) {
	w = lipgloss.Width(box)
	h = lipgloss.Height(box)
	x = max(m.width-w, 0) / 2
	y = max(m.overlayAreaHeight()-h, 0) / 2
	return x, y, w, h
}

func (m Model) overlayAreaHeight() int {
	return max(m.height-2, 0)
}

func (m *Model) closeOverlay() {
	m.detail.Hide()
	m.export.Hide()
	m.overlay = overlayNone
}

// flight tracks the latest request of one kind. gen numbers the requests;
// only the response carrying the current gen is applied.
type flight struct {
	name   string
	gen    int
	cancel context.CancelFunc
}

// begin starts a new generation, cancelling the previous request of this kind.
func (f *flight) begin() (context.Context, int) {
	f.stop()
	f.gen++
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	return ctx, f.gen
}

func (f *flight) current(gen int) bool {
	if gen != f.gen {
		log.Printf("ui: dropping stale %s response %d (current %d)", f.name, gen, f.gen)
		return false
	}
	return true
}

// done releases the context of the finished request.
func (f *flight) done() {
	f.stop()
}

func (f *flight) stop() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

// abandon cancels the request and drops its response even if it already arrived.
func (f *flight) abandon() {
	f.stop()
	f.gen++
}

func (f *flight) active() bool {
	return f.cancel != nil
}

func (m *Model) busy() bool {
	return m.loginReq.active() || m.listReq.active() || m.exportReq.active()
}

func (m *Model) stopAll() {
	m.loginReq.abandon()
	m.listReq.abandon()
	m.exportReq.abandon()
}

// fail reports a request error. A rejected session clears the token and
// returns to the login screen.
func (m *Model) fail(err error) tea.Cmd {
	var authErr *api.AuthError
	if errors.As(err, &authErr) {
		if cerr := m.deps.Tokens.Clear(); cerr != nil {
			log.Printf("ui: clearing token: %v", cerr)
		}
		log.Printf("ui: session rejected, redirecting to %s", authErr.Redirect)
		focus := m.toLogin()
		return tea.Batch(focus, m.banner.Error(authErr.Detail))
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return m.banner.Error(err.Error())
}

func (m *Model) toLogin() tea.Cmd {
	m.stopAll()
	m.screen = screenLogin
	m.closeOverlay()
	m.results.Reset()
	m.form.Blur()
	m.hasQuery = false
	m.query = models.Query{}
	m.pagination = models.Pagination{}
	m.login.Reset()
	return m.login.Focus()
}

func (m *Model) submitLogin(username, password string) tea.Cmd {
	if username == "" || password == "" {
		return m.banner.Error("请输入用户名和密码")
	}
	ctx, gen := m.loginReq.begin()
	svc := m.deps.Service
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		token, err := svc.Login(ctx, username, password)
		return loginDoneMsg{gen: gen, token: token, err: err}
	})
}

func (m *Model) loginDone(msg loginDoneMsg) tea.Cmd {
	if msg.err != nil {
		return m.fail(msg.err)
	}
	if err := m.deps.Tokens.Save(msg.token); err != nil {
		return m.banner.Error(err.Error())
	}
	m.screen = screenQuery
	m.login.Reset()
	return tea.Batch(m.form.Focus(fieldProject), m.banner.Notice("登录成功"))
}

func (m *Model) submitQuery() tea.Cmd {
	if err := m.form.ExportQuery().Validate(); err != nil {
		return m.banner.Error(err.Error())
	}
	q, err := m.form.Query()
	if err != nil {
		return m.banner.Error(err.Error())
	}
	q.Page = 1
	m.query = q
	m.hasQuery = true
	return m.requestPage()
}

// requestPage fetches m.query. The results area stays hidden until the response arrives.
func (m *Model) requestPage() tea.Cmd {
	ctx, gen := m.listReq.begin()
	m.results.Hide()
	q := m.query
	svc := m.deps.Service
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		page, err := svc.ListCommits(ctx, q)
		return commitsLoadedMsg{gen: gen, page: page, err: err}
	})
}

func (m *Model) commitsLoaded(msg commitsLoadedMsg) tea.Cmd {
	if msg.err != nil {
		m.results.Hide()
		cmd := m.fail(msg.err)
		if m.screen == screenQuery {
			return tea.Batch(cmd, m.ensureFocus())
		}
		return cmd
	}
	m.pagination = msg.page.Pagination
	// The server clamps out-of-range pages.
	m.query.Page = msg.page.Page
	m.results.SetPage(msg.page)
	if m.results.State() == resultsTable {
		m.form.Blur()
		m.results.Focus()
		return nil
	}
	return m.ensureFocus()
}

// ensureFocus puts the cursor back into the form when nothing holds focus.
func (m *Model) ensureFocus() tea.Cmd {
	if m.form.Focused() || m.results.Focused() {
		return nil
	}
	return m.form.Focus(fieldProject)
}

func (m *Model) prevPage() tea.Cmd {
	if !m.hasQuery || m.query.Page <= 1 {
		return nil
	}
	m.query.Page--
	return m.requestPage()
}

func (m *Model) nextPage() tea.Cmd {
	if !m.hasQuery || m.query.Page >= m.pagination.TotalPages {
		return nil
	}
	m.query.Page++
	return m.requestPage()
}

func (m *Model) exportText() tea.Cmd {
	q := m.form.ExportQuery()
	if err := q.Validate(); err != nil {
		return m.banner.Error(err.Error())
	}
	ctx, gen := m.exportReq.begin()
	svc := m.deps.Service
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		content, err := svc.ExportText(ctx, q)
		return exportLoadedMsg{gen: gen, content: content, err: err}
	})
}

func (m *Model) exportLoaded(msg exportLoadedMsg) tea.Cmd {
	if msg.err != nil {
		return m.fail(msg.err)
	}
	content := CleanText(msg.content)
	if strings.TrimSpace(content) == "" {
		return m.banner.Error("没有可导出的内容")
	}
	m.export.Show(content)
	m.overlay = overlayExport
	return nil
}

func (m *Model) copyExport() tea.Cmd {
	text := m.export.Content()
	if !m.export.Visible() || text == "" {
		return m.banner.Error("没有可复制的内容")
	}
	clip := m.deps.Clipboard
	return func() tea.Msg {
		return copyDoneMsg{err: clip(text)}
	}
}

func (m *Model) logout() tea.Cmd {
	if err := m.deps.Tokens.Clear(); err != nil {
		return m.banner.Error(err.Error())
	}
	focus := m.toLogin()
	return tea.Batch(focus, m.banner.Notice("已退出登录"))
}

func (m Model) View() string {
	// Handle case where terminal size isn't set yet
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.overlay != overlayNone {
		box := m.activeOverlay().View()
		placed := lipgloss.Place(m.width, m.overlayAreaHeight(), lipgloss.Center, lipgloss.Center, box)
		return lipgloss.JoinVertical(lipgloss.Left, placed, m.banner.View(), m.renderHelp())
	}

	var body string
	if m.screen == screenLogin {
		body = m.login.View()
	} else {
		body = m.renderQueryScreen()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		body,
		m.banner.View(),
		m.renderFooter(),
	)
}

func (m Model) renderQueryScreen() string {
	var b strings.Builder
	b.WriteString(m.form.View())

	if m.listReq.active() {
		b.WriteString("\n" + m.spinner.View() + mutedStyle.Render(" 加载中...") + "\n")
	} else if view := m.results.View(); view != "" {
		b.WriteString("\n" + view + "\n")
	}
	if m.exportReq.active() {
		b.WriteString(m.spinner.View() + mutedStyle.Render(" 导出中...") + "\n")
	}
	return b.String()
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("🔍 CommitQuery")
	server := mutedStyle.Render(m.deps.Server)

	headerLine := lipgloss.JoinHorizontal(lipgloss.Top, title, server)
	if m.screen == screenLogin && m.loginReq.active() {
		headerLine += "  " + m.spinner.View()
	}
	divider := dividerStyle.Render(strings.Repeat("─", m.width))

	return lipgloss.JoinVertical(lipgloss.Left, headerLine, divider)
}

func (m Model) renderFooter() string {
	divider := dividerStyle.Render(strings.Repeat("─", m.width))
	return lipgloss.JoinVertical(lipgloss.Left, divider, m.renderHelp())
}

func (m Model) renderHelp() string {
	var keys []string
	switch {
	case m.overlay == overlayExport:
		keys = []string{"c: 复制", "esc: 关闭"}
	case m.overlay == overlayDetail:
		keys = []string{"esc: 关闭"}
	case m.screen == screenLogin:
		keys = []string{"tab: 切换", "enter: 登录", "ctrl+c: 退出"}
	case m.results.Focused():
		keys = []string{"j/k: 移动", "enter: 详情", "h/l: 翻页", "/: 编辑查询", "ctrl+e: 导出", "q: 退出"}
	default:
		keys = []string{"tab: 切换", "enter: 查询", "ctrl+n/ctrl+p: 翻页", "ctrl+e: 导出", "ctrl+o: 退出登录", "ctrl+c: 退出"}
	}
	return helpStyle.Render(strings.Join(keys, " • "))
}
