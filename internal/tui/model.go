package tui

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/tannerhall/tritrack/internal/cache"
	"github.com/tannerhall/tritrack/internal/constants"
	"github.com/tannerhall/tritrack/internal/session"
	"github.com/tannerhall/tritrack/internal/utils"
)

// row is one selectable (category, type) line in the today view. Rows are
// built from the closed type sets so every loggable activity is visible
// even at quantity zero.
type row struct {
	Category constants.Category
	Type     string
}

type KeyMap struct {
	NextView key.Binding
	PrevDay  key.Binding
	NextDay  key.Binding
	Up       key.Binding
	Down     key.Binding
	Add      key.Binding
	Step     key.Binding
	Remove   key.Binding
	Refresh  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextView: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
		PrevDay:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous day")),
		NextDay:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next day")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Add:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "log one")),
		Step:     key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "remove one")),
		Remove:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove entry")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextView, k.Add, k.Step, k.Remove, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextView, k.PrevDay, k.NextDay, k.Refresh},
		{k.Up, k.Down, k.Add, k.Step, k.Remove},
		{k.Help, k.Quit},
	}
}

type Model struct {
	session *session.Session
	state   constants.SessionState
	keys    KeyMap
	help    help.Model

	day      string
	rows     []row
	cursor   int
	dayEntry cache.Entry
	week     cache.Entry
	all      cache.Entry

	form       *huh.Form
	confirm    bool
	removeRow  row
	loadErr    map[constants.SessionState]error
	statusLine string
	width      int
	height     int
	quitting   bool
}

func NewModel(sess *session.Session) Model {
	var rows []row
	for _, cat := range constants.Categories {
		for _, t := range constants.EntryTypes[cat] {
			rows = append(rows, row{Category: cat, Type: t})
		}
	}

	m := Model{
		session: sess,
		state:   constants.StateToday,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		rows:    rows,
		loadErr: make(map[constants.SessionState]error),
	}

	if day, err := sess.Today(); err == nil {
		m.day = day
	} else {
		m.day = utils.Today(time.Now())
	}
	m.reload()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

// reload refreshes the entries backing the current views.
func (m *Model) reload() {
	m.dayEntry, m.loadErr[constants.StateToday] = m.session.Day(m.day)
	m.week, m.loadErr[constants.StateWeek] = m.session.Week(m.day)
	m.all, m.loadErr[constants.StateAllTime] = m.session.AllTime()
	m.loadErr[constants.StateStats] = m.loadErr[constants.StateWeek]
}

// quantityAt reads the focused day's quantity for a row, zero if absent.
func (m *Model) quantityAt(r row) int {
	entry, ok := m.dayEntry.Day.Entry(r.Category, r.Type)
	if !ok {
		return 0
	}
	return entry.Quantity
}

func (m *Model) denied(state constants.SessionState) bool {
	return errors.Is(m.loadErr[state], cache.ErrDenied)
}
