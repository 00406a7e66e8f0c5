package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/collectorscorner/corner/internal/submit"
	"github.com/collectorscorner/corner/pkg/domain"
)

// homeModel lists the signed-in user's collections.
type homeModel struct {
	collections []domain.Collection
	cursor      int
	loading     bool
	err         string
	width       int
	height      int
}

func newHomeModel() homeModel {
	return homeModel{}
}

func (m homeModel) Update(msg tea.Msg) (homeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case userLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = submit.ErrorMessage(msg.err)
			return m, nil
		}
		m.err = ""
		m.collections = nil
		if msg.user != nil {
			m.collections = msg.user.Collections
		}
		if m.cursor >= len(m.collections) {
			m.cursor = 0
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.collections)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "enter":
			if m.cursor < len(m.collections) {
				c := m.collections[m.cursor]
				return m, func() tea.Msg { return openCollectionMsg{collection: c} }
			}
		}
	}
	return m, nil
}

func (m homeModel) View() string {
	if m.loading && len(m.collections) == 0 {
		return " " + dimStyle.Render("loading collections...")
	}
	if m.err != "" {
		return " " + errorStyle.Render("error: "+m.err) + "  " + dimStyle.Render("(r to retry)")
	}
	if len(m.collections) == 0 {
		return " " + dimStyle.Render("no collections yet") + "  " + inputPlaceholderStyle.Render("press n to create one")
	}

	var sb strings.Builder
	sb.WriteString(" " + sectionHeaderStyle.Render("YOUR COLLECTIONS") + "\n\n")

	descWidth := m.width - 50
	if descWidth < 20 {
		descWidth = 20
	}

	for i, c := range m.collections {
		cursor := "  "
		name := fmt.Sprintf("%-28s", truncStr(c.Title, 28))
		title := normalStyle.Render(name)
		if i == m.cursor {
			cursor = accentStyle.Render("> ")
			title = selectedStyle.Render(name)
		}
		visibility := dimStyle.Render("private")
		if c.IsPublic {
			visibility = successStyle.Render("public")
		}
		row := fmt.Sprintf(" %s%s  %s  %s  %s",
			cursor, title,
			metaStyle.Render(fmt.Sprintf("%3d cards", c.CardsCount)),
			visibility,
			dimStyle.Render(truncStr(oneLine(c.Category+" . "+c.Description), descWidth)))
		if i == m.cursor {
			row = selectedRowBg.Render(row)
		}
		sb.WriteString(row + "\n")
	}
	return sb.String()
}
