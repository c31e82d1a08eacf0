package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/rankline/internal/paging"
	"github.com/rshade/rankline/internal/store"
	listview "github.com/rshade/rankline/internal/tui/list"
)

// Default viewport dimensions until the first resize arrives.
const (
	defaultWidth  = 80
	defaultHeight = 24

	// chromeHeight is the rows taken by the header and footer.
	chromeHeight = 4
)

// ViewState is the browser's current mode.
type ViewState int

// View states.
const (
	ViewStateLoading ViewState = iota
	ViewStateList
	ViewStateError
	ViewStateQuitting
)

// PageLoadedMsg carries a page fetched by the session.
type PageLoadedMsg struct {
	Page *paging.Response[store.Item]
}

// PageErrorMsg carries a failed fetch.
type PageErrorMsg struct {
	Err error
}

//nolint:gochecknoglobals // Shared printer for grouped counts.
var printer = message.NewPrinter(language.English)

// BrowseModel is the Bubble Tea model of the list browser.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View.
type BrowseModel struct {
	ctx     context.Context
	title   string
	session *paging.Session[store.Item]
	list    *listview.VirtualListModel[store.Item]
	spinner spinner.Model
	state   ViewState
	loading bool
	hasMore bool
	total   *int64
	version time.Time
	err     error
	width   int
	height  int
}

// NewBrowseModel creates a browser over session. title heads the screen.
func NewBrowseModel(ctx context.Context, title string, session *paging.Session[store.Item]) BrowseModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle

	m := BrowseModel{
		ctx:     ctx,
		title:   title,
		session: session.WithTotal(),
		spinner: s,
		state:   ViewStateLoading,
		loading: true,
		width:   defaultWidth,
		height:  defaultHeight,
	}
	m.list = listview.NewVirtualListModel[store.Item](nil, m.height-chromeHeight, m.width, renderItem)
	return m
}

// Init starts the spinner and fetches the first page.
func (m BrowseModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m BrowseModel) fetch() tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		page, err := session.Next(ctx)
		if err != nil {
			return PageErrorMsg{Err: err}
		}
		return PageLoadedMsg{Page: page}
	}
}

// Update handles pages, errors, keys and resizes.
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(m.width, max(1, m.height-chromeHeight))
		return m, nil

	case PageLoadedMsg:
		m.loading = false
		m.state = ViewStateList
		m.hasMore = msg.Page.HasMore
		m.version = msg.Page.Version
		if msg.Page.TotalCount != nil {
			m.total = msg.Page.TotalCount
		}
		m.list.Append(msg.Page.Items...)
		return m, nil

	case PageErrorMsg:
		m.loading = false
		m.state = ViewStateError
		m.err = msg.Err
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m BrowseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.state = ViewStateQuitting
		return m, tea.Quit
	case "r":
		return m.restart()
	}

	if m.state != ViewStateList {
		return m, nil
	}
	m.list.Update(msg)
	if m.list.AtEnd() && m.hasMore && !m.loading {
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetch())
	}
	return m, nil
}

// restart drops every loaded row and starts a new session at the current version.
func (m BrowseModel) restart() (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	m.session.Restart()
	m.list.Reset(nil)
	m.total = nil
	m.err = nil
	m.hasMore = false
	m.loading = true
	m.state = ViewStateLoading
	return m, tea.Batch(m.spinner.Tick, m.fetch())
}

// View renders the header, the visible rows and the footer.
func (m BrowseModel) View() string {
	if m.state == ViewStateQuitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	if !m.version.IsZero() {
		b.WriteString(mutedStyle.Render("  snapshot " + m.version.Local().Format(time.DateTime)))
	}
	b.WriteString("\n\n")

	switch m.state {
	case ViewStateLoading:
		fmt.Fprintf(&b, " %s Loading...\n", m.spinner.View())
	case ViewStateError:
		b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n")
		if errors.Is(m.err, paging.ErrSnapshotExpired) {
			b.WriteString(mutedStyle.Render("The snapshot expired. Press r to restart from the top.") + "\n")
		}
	default:
		if m.list.ItemCount() == 0 {
			b.WriteString(mutedStyle.Render("(empty list)") + "\n")
		} else {
			b.WriteString(m.list.View() + "\n")
		}
	}

	b.WriteString("\n" + m.footer())
	return b.String()
}

func (m BrowseModel) footer() string {
	status := printer.Sprintf("%d loaded", m.list.ItemCount())
	if m.total != nil {
		status = printer.Sprintf("%d of %d", m.list.ItemCount(), *m.total)
	}
	if m.loading && m.state == ViewStateList {
		status += " " + m.spinner.View()
	} else if m.hasMore {
		status += " (more below)"
	}
	return mutedStyle.Render(status + "  j/k move  r restart  q quit")
}

// State returns the current view state.
func (m BrowseModel) State() ViewState {
	return m.state
}

// Loaded returns the number of rows loaded so far.
func (m BrowseModel) Loaded() int {
	return m.list.ItemCount()
}

func renderItem(item store.Item, selected bool) string {
	cursor := "  "
	title := item.Title
	if selected {
		cursor = "> "
		title = selectedStyle.Render(title)
	}
	return cursor + rankStyle.Render(item.Rank) + title
}
