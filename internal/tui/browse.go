package tui

// Package tui is the interactive browse mode: a puzzle directory list, a
// creation form and a detail page with inline upload, mirroring the web
// frontend's pages. All network calls run as tea commands so the interface
// stays responsive; a response for a page the user already left is dropped.

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"puzzle-helper/internal/api"
	"puzzle-helper/internal/session"
	"puzzle-helper/internal/upload"
)

type page int

const (
	pageList page = iota
	pageCreate
	pageDetail
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
	statusStyle = map[api.Status]lipgloss.Style{
		api.StatusPending:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		api.StatusUploaded:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		api.StatusProcessing: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		api.StatusCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
)

// puzzleItem adapts api.Puzzle to list.Item.
type puzzleItem struct {
	puzzle api.Puzzle
}

func (i puzzleItem) Title() string { return i.puzzle.PuzzleName }
func (i puzzleItem) Description() string {
	return fmt.Sprintf("%d pieces · %s", i.puzzle.PieceCount, i.puzzle.Status)
}
func (i puzzleItem) FilterValue() string { return i.puzzle.PuzzleName }

type puzzlesLoadedMsg struct{ puzzles []api.Puzzle }
type puzzleLoadedMsg struct{ puzzle *api.Puzzle }
type createdMsg struct{ resp *api.CreateResponse }
type uploadDoneMsg struct{ puzzle *api.Puzzle }
type errMsg struct{ err error }

// Model is the root bubbletea model for browse mode.
type Model struct {
	ctx       context.Context
	apiClient *api.Client
	sess      *session.Store
	logger    *slog.Logger

	page    page
	loading bool
	errText string

	// Directory page.
	list list.Model

	// Creation form.
	nameInput  textinput.Model
	pieceIdx   int
	creating   bool

	// Detail page.
	puzzleID  string
	puzzle    *api.Puzzle
	fileInput textinput.Model
	uploading bool
	notice    string
}

// Run starts the interactive browser. The caller has already passed the
// route guard.
func Run(ctx context.Context, client *api.Client, sess *session.Store, logger *slog.Logger) error {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Puzzles"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	name := textinput.New()
	name.Placeholder = "e.g. 富士山の風景"
	name.CharLimit = 100

	file := textinput.New()
	file.Placeholder = "/path/to/image.jpg"

	m := Model{
		ctx:       ctx,
		apiClient: client,
		sess:      sess,
		logger:    logger,
		page:      pageList,
		loading:   true,
		list:      l,
		nameInput: name,
		pieceIdx:  1, // default 300
		fileInput: file,
	}

	_, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.fetchList()
}

func (m Model) fetchList() tea.Cmd {
	return func() tea.Msg {
		puzzles, err := m.apiClient.ListPuzzles(m.ctx, m.sess.UserID())
		if err != nil {
			return errMsg{err}
		}
		return puzzlesLoadedMsg{puzzles}
	}
}

func (m Model) fetchPuzzle(id string) tea.Cmd {
	return func() tea.Msg {
		p, err := m.apiClient.GetPuzzle(m.ctx, id, m.sess.UserID())
		if err != nil {
			return errMsg{err}
		}
		return puzzleLoadedMsg{p}
	}
}

func (m Model) createPuzzle(name string, pieces int) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.apiClient.CreatePuzzle(m.ctx, api.CreateRequest{
			PuzzleName: name,
			PieceCount: pieces,
			UserID:     m.sess.UserID(),
		})
		if err != nil {
			return errMsg{err}
		}
		return createdMsg{resp}
	}
}

func (m Model) runUpload(puzzleID, filePath string) tea.Cmd {
	return func() tea.Msg {
		flow := upload.NewFlow(m.apiClient, m.logger)
		p, err := flow.Run(m.ctx, puzzleID, m.sess.UserID(), filePath)
		if err != nil {
			return errMsg{err}
		}
		return uploadDoneMsg{p}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-2, msg.Height-4)
		return m, nil

	case errMsg:
		m.loading = false
		m.creating = false
		m.uploading = false
		m.errText = msg.err.Error()
		return m, nil

	case puzzlesLoadedMsg:
		m.loading = false
		m.errText = ""
		items := make([]list.Item, len(msg.puzzles))
		for i, p := range msg.puzzles {
			items[i] = puzzleItem{p}
		}
		m.list.Title = fmt.Sprintf("Puzzles (%d)", len(msg.puzzles))
		return m, m.list.SetItems(items)

	case puzzleLoadedMsg:
		m.loading = false
		m.errText = ""
		m.puzzle = msg.puzzle
		return m, nil

	case createdMsg:
		// Creation and upload are decoupled: navigate to the new puzzle's
		// detail page where the image can be attached.
		m.creating = false
		m.errText = ""
		m.page = pageDetail
		m.puzzleID = msg.resp.PuzzleID
		m.puzzle = nil
		m.loading = true
		m.fileInput.SetValue("")
		m.fileInput.Focus()
		return m, m.fetchPuzzle(msg.resp.PuzzleID)

	case uploadDoneMsg:
		m.uploading = false
		m.errText = ""
		m.puzzle = msg.puzzle
		m.notice = "Image uploaded."
		m.fileInput.SetValue("")
		return m, nil

	case tea.KeyMsg:
		switch m.page {
		case pageList:
			return m.updateList(msg)
		case pageCreate:
			return m.updateCreate(msg)
		case pageDetail:
			return m.updateDetail(msg)
		}
	}

	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() != list.Filtering {
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, m.fetchList()
		case "n":
			m.page = pageCreate
			m.errText = ""
			m.nameInput.SetValue("")
			m.nameInput.Focus()
			m.pieceIdx = 1
			return m, textinput.Blink
		case "enter":
			if item, ok := m.list.SelectedItem().(puzzleItem); ok {
				m.page = pageDetail
				m.puzzleID = item.puzzle.PuzzleID
				m.puzzle = nil
				m.loading = true
				m.notice = ""
				m.fileInput.SetValue("")
				m.fileInput.Focus()
				return m, m.fetchPuzzle(item.puzzle.PuzzleID)
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateCreate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.page = pageList
		m.errText = ""
		return m, nil
	case "left":
		if m.pieceIdx > 0 {
			m.pieceIdx--
		}
		return m, nil
	case "right":
		if m.pieceIdx < len(api.PieceCounts)-1 {
			m.pieceIdx++
		}
		return m, nil
	case "enter":
		// Submission stays disabled while the name is empty; no request is
		// sent for that case.
		if strings.TrimSpace(m.nameInput.Value()) == "" || m.creating {
			return m, nil
		}
		m.creating = true
		m.errText = ""
		return m, m.createPuzzle(strings.TrimSpace(m.nameInput.Value()), api.PieceCounts[m.pieceIdx])
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.page = pageList
		m.loading = true
		m.errText = ""
		return m, m.fetchList()
	case "enter":
		if m.puzzle == nil || !m.puzzle.Status.Pending() || m.uploading {
			return m, nil
		}
		path := strings.TrimSpace(m.fileInput.Value())
		if path == "" {
			// Local precondition: rejected without any network call.
			m.errText = "select an image file first"
			return m, nil
		}
		m.uploading = true
		m.errText = ""
		m.notice = ""
		return m, m.runUpload(m.puzzleID, path)
	}

	var cmd tea.Cmd
	m.fileInput, cmd = m.fileInput.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	switch m.page {
	case pageCreate:
		return m.viewCreate()
	case pageDetail:
		return m.viewDetail()
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder
	if m.loading {
		b.WriteString("Loading puzzles...\n")
	} else if m.errText != "" {
		b.WriteString(errorStyle.Render("Error: "+m.errText) + "\n")
	} else if len(m.list.Items()) == 0 {
		b.WriteString(titleStyle.Render("Puzzles") + "\n\n")
		b.WriteString("No puzzles yet. Press n to create one.\n")
	} else {
		b.WriteString(m.list.View() + "\n")
	}
	b.WriteString(helpStyle.Render("enter: open · n: new · r: refresh · q: quit"))
	return b.String()
}

func (m Model) viewCreate() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("New puzzle") + "\n\n")
	b.WriteString(labelStyle.Render("Name   ") + m.nameInput.View() + "\n")

	var counts []string
	for i, c := range api.PieceCounts {
		label := fmt.Sprintf("%d", c)
		if i == m.pieceIdx {
			label = okStyle.Render("[" + label + "]")
		}
		counts = append(counts, label)
	}
	b.WriteString(labelStyle.Render("Pieces ") + strings.Join(counts, " ") + "\n")

	if m.creating {
		b.WriteString("\nCreating...\n")
	}
	if m.errText != "" {
		b.WriteString("\n" + errorStyle.Render("Error: "+m.errText) + "\n")
	}
	b.WriteString(helpStyle.Render("enter: create · ←/→: pieces · esc: back"))
	return b.String()
}

func (m Model) viewDetail() string {
	var b strings.Builder

	switch {
	case m.loading:
		b.WriteString("Loading puzzle...\n")
	case m.puzzle == nil:
		b.WriteString(errorStyle.Render("Error: "+m.errText) + "\n")
	default:
		p := m.puzzle
		b.WriteString(titleStyle.Render(p.PuzzleName) + "\n\n")
		b.WriteString(labelStyle.Render("ID      ") + p.PuzzleID + "\n")
		b.WriteString(labelStyle.Render("Pieces  ") + fmt.Sprintf("%d", p.PieceCount) + "\n")
		b.WriteString(labelStyle.Render("Status  ") + statusStyle[p.Status].Render(string(p.Status)) + "\n")

		if p.Status.Pending() {
			b.WriteString("\nNo image attached yet.\n")
			b.WriteString(labelStyle.Render("Image  ") + m.fileInput.View() + "\n")
			if m.uploading {
				b.WriteString("\nUploading...\n")
			}
		} else if p.S3Key != "" {
			b.WriteString("\n" + okStyle.Render("Image attached") + " (" + p.S3Key + ")\n")
		} else {
			b.WriteString("\nImage attached, but no storage key is recorded.\n")
		}

		if m.notice != "" {
			b.WriteString("\n" + okStyle.Render(m.notice) + "\n")
		}
		if m.errText != "" {
			b.WriteString("\n" + errorStyle.Render("Error: "+m.errText) + "\n")
		}
	}

	b.WriteString(helpStyle.Render("enter: upload · esc: back"))
	return b.String()
}
