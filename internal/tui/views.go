package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/memorymap/internal/memorymap"
)

const dateLayout = "Jan 2, 2006"

// renderDashboard renders the list of memory maps
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Your Memory Maps"))
	b.WriteString("\n")
	if user := m.session.User(); user != nil {
		b.WriteString(m.styles.Subtitle.Render("Signed in as " + user.DisplayName()))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " " + m.styles.Muted.Render("Loading memory maps..."))
	case m.lastError != "":
		b.WriteString(m.styles.Border.Render(m.styles.Error.Render("Error: ") + m.lastError))
	case len(m.maps) == 0:
		b.WriteString(m.styles.Muted.Render("No memory maps yet. Create your first one!"))
	default:
		b.WriteString(RenderCards(m.maps, m.styles, m.columns()))
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderHelpLine())
	return b.String()
}

// RenderCards lays maps out as a grid of cards.
func RenderCards(maps []memorymap.MemoryMap, styles Styles, columns int) string {
	if columns < 1 {
		columns = 1
	}

	var rows []string
	for start := 0; start < len(maps); start += columns {
		end := start + columns
		if end > len(maps) {
			end = len(maps)
		}
		cards := make([]string, 0, end-start)
		for _, mm := range maps[start:end] {
			cards = append(cards, renderCard(mm, styles))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderCard(mm memorymap.MemoryMap, styles Styles) string {
	var b strings.Builder
	b.WriteString(styles.CardHead.Render(mm.Title))
	b.WriteString("\n")
	b.WriteString(mm.Summary())
	b.WriteString("\n")
	if !mm.CreatedAt.IsZero() {
		b.WriteString(styles.Muted.Render(mm.CreatedAt.Local().Format(dateLayout)))
	}
	if mm.LocationName != "" {
		b.WriteString(styles.Muted.Render(" · " + mm.LocationName))
	}
	return styles.Card.Render(b.String())
}

func (m Model) columns() int {
	if m.width <= 0 {
		return 1
	}
	cardWidth := lipgloss.Width(m.styles.Card.Render(""))
	if cardWidth <= 0 {
		return 1
	}
	if n := m.width / cardWidth; n > 1 {
		if n > 3 {
			return 3
		}
		return n
	}
	return 1
}

func (m Model) renderHelpLine() string {
	bindings := []struct{ key, desc string }{
		{m.keys.Refresh.Help().Key, m.keys.Refresh.Help().Desc},
		{m.keys.Quit.Help().Key, m.keys.Quit.Help().Desc},
	}
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		parts = append(parts, fmt.Sprintf("%s %s", m.styles.Key.Render(kb.key), m.styles.KeyDesc.Render(kb.desc)))
	}
	return strings.Join(parts, m.styles.Muted.Render(" • "))
}
