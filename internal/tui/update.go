package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/tannerhall/tritrack/internal/constants"
	"github.com/tannerhall/tritrack/internal/mutate"
	"github.com/tannerhall/tritrack/internal/utils"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.state == constants.StateConfirmRemove {
			return m.updateConfirm(msg)
		}
		return m.updateKeys(msg)
	}

	if m.state == constants.StateConfirmRemove && m.form != nil {
		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}
		return m, cmd
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.NextView):
		m.state = nextState(m.state)
		return m, nil

	case key.Matches(msg, m.keys.PrevDay):
		m.shiftDay(-1)
		return m, nil

	case key.Matches(msg, m.keys.NextDay):
		m.shiftDay(1)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Add):
		m.mutate(func(r row) error {
			return m.session.Engine.Add(m.session.UserID, m.day, r.Category, r.Type, 1)
		})
		return m, nil

	case key.Matches(msg, m.keys.Step):
		m.mutate(func(r row) error {
			return m.session.Engine.Decrement(m.session.UserID, m.day, r.Category, r.Type)
		})
		return m, nil

	case key.Matches(msg, m.keys.Remove):
		if m.state != constants.StateToday || len(m.rows) == 0 {
			return m, nil
		}
		r := m.rows[m.cursor]
		if m.quantityAt(r) == 0 {
			m.statusLine = "nothing logged for " + r.Type
			return m, nil
		}
		m.removeRow = r
		m.confirm = false
		m.form = newConfirmForm(&m.confirm, r)
		m.state = constants.StateConfirmRemove
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Refresh):
		m.session.Cache.InvalidateUser(m.session.UserID)
		m.reload()
		m.statusLine = "refreshed"
		return m, nil
	}

	return m, nil
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		if m.confirm {
			r := m.removeRow
			qty := m.quantityAt(r)
			if err := m.session.Engine.Remove(m.session.UserID, m.day, r.Category, r.Type, qty); err != nil {
				m.statusLine = mutationError(err)
			} else {
				m.statusLine = fmt.Sprintf("removed %s/%s", r.Category, r.Type)
				m.reload()
			}
		}
		m.form = nil
		m.state = constants.StateToday
		return m, nil
	}
	if m.form.State == huh.StateAborted {
		m.form = nil
		m.state = constants.StateToday
		return m, nil
	}

	return m, cmd
}

func (m *Model) mutate(fn func(r row) error) {
	if m.state != constants.StateToday || len(m.rows) == 0 {
		return
	}
	r := m.rows[m.cursor]
	if err := fn(r); err != nil {
		m.statusLine = mutationError(err)
		return
	}
	m.statusLine = ""
	m.reload()
}

func (m *Model) shiftDay(delta int) {
	t, err := utils.ParseDay(m.day)
	if err != nil {
		return
	}
	m.day = utils.FormatDay(t.AddDate(0, 0, delta))
	m.cursor = 0
	m.reload()
}

func mutationError(err error) string {
	switch {
	case errors.Is(err, mutate.ErrQuantityUnderflow):
		return "already at the minimum; use x to remove the entry"
	case errors.Is(err, mutate.ErrMutationPending):
		return "previous change still pending, try again"
	case errors.Is(err, mutate.ErrWriteFailed):
		return "write failed; views marked stale and will refetch"
	default:
		return err.Error()
	}
}

func nextState(s constants.SessionState) constants.SessionState {
	switch s {
	case constants.StateToday:
		return constants.StateWeek
	case constants.StateWeek:
		return constants.StateAllTime
	case constants.StateAllTime:
		return constants.StateStats
	default:
		return constants.StateToday
	}
}

func newConfirmForm(value *bool, r row) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Remove all of %s/%s for this day?", r.Category, r.Type)).
				Affirmative("Remove").
				Negative("Keep").
				Value(value),
		),
	)
}
