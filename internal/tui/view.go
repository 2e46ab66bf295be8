package tui

import (
	"fmt"
	"strings"

	"github.com/tannerhall/tritrack/internal/aggregate"
	"github.com/tannerhall/tritrack/internal/constants"
	"github.com/tannerhall/tritrack/internal/models"
)

var tabNames = []struct {
	state constants.SessionState
	label string
}{
	{constants.StateToday, "Today"},
	{constants.StateWeek, "Week"},
	{constants.StateAllTime, "All Time"},
	{constants.StateStats, "Stats"},
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.state == constants.StateConfirmRemove && m.form != nil {
		return docStyle.Render(m.form.View())
	}

	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	switch m.state {
	case constants.StateToday:
		b.WriteString(m.renderToday())
	case constants.StateWeek:
		b.WriteString(m.renderRange(constants.StateWeek, "This week", m.week.Days))
	case constants.StateAllTime:
		b.WriteString(m.renderRange(constants.StateAllTime, "All time (newest first)", m.all.Days))
	case constants.StateStats:
		b.WriteString(m.renderStats())
	}

	if m.statusLine != "" {
		b.WriteString("\n" + statusStyle.Render(m.statusLine))
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return docStyle.Render(b.String())
}

func (m Model) renderTabs() string {
	var tabs []string
	for _, t := range tabNames {
		if t.state == m.state {
			tabs = append(tabs, activeTabStyle.Render(t.label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(t.label))
		}
	}
	return strings.Join(tabs, " ")
}

func (m Model) renderToday() string {
	if m.denied(constants.StateToday) {
		return m.renderUpsell()
	}
	if err := m.loadErr[constants.StateToday]; err != nil {
		return statusStyle.Render(err.Error())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s   score %d\n\n", m.day, aggregate.DayScore(m.dayEntry.Day))

	var lastCat constants.Category
	for i, r := range m.rows {
		if r.Category != lastCat {
			b.WriteString(categoryStyle.Render(string(r.Category)) + "\n")
			lastCat = r.Category
		}
		line := fmt.Sprintf("  %-12s ×%d", r.Type, m.quantityAt(r))
		if i == m.cursor {
			line = selectedRowStyle.Render("▸" + line[1:])
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) renderRange(state constants.SessionState, title string, days []models.DayRecord) string {
	if m.denied(state) {
		return m.renderUpsell()
	}
	if err := m.loadErr[state]; err != nil {
		return statusStyle.Render(err.Error())
	}

	var b strings.Builder
	b.WriteString(title + "\n\n")
	if len(days) == 0 {
		b.WriteString("  (no entries)\n")
		return b.String()
	}
	for _, rec := range days {
		fmt.Fprintf(&b, "  %s  score %d\n", rec.Day, aggregate.DayScore(rec))
	}
	fmt.Fprintf(&b, "\n  avg score %.1f\n", aggregate.AverageScore(days))
	return b.String()
}

func (m Model) renderStats() string {
	if m.denied(constants.StateStats) {
		return m.renderUpsell()
	}
	if err := m.loadErr[constants.StateStats]; err != nil {
		return statusStyle.Render(err.Error())
	}

	days := m.week.Days
	var b strings.Builder
	fmt.Fprintf(&b, "This week   avg score %.1f   streak %d day(s)\n\n", aggregate.AverageScore(days), aggregate.Streak(days))
	for _, cat := range constants.Categories {
		fmt.Fprintf(&b, "%s  total %d\n", categoryStyle.Render(string(cat)), aggregate.TotalPerCategory(days, cat))
		for _, tc := range aggregate.BreakdownPerCategory(days, cat) {
			fmt.Fprintf(&b, "  %-12s ×%d\n", tc.Type, tc.Quantity)
		}
	}
	return b.String()
}

func (m Model) renderUpsell() string {
	plan := constants.PlanFree
	if prof := m.session.Profile(); prof != nil {
		plan = prof.Plan
	}
	msg := "This view is outside your plan's history window."
	switch plan {
	case constants.PlanFree:
		msg = fmt.Sprintf("The free plan keeps %d days of history.\nUpgrade to plus or premium to see more.", constants.FreeHistoryDays)
	case constants.PlanPlus:
		msg = fmt.Sprintf("The plus plan keeps %d days of history.\nUpgrade to premium for unlimited history.", constants.PlusHistoryDays)
	}
	return upsellStyle.Render(msg)
}
