package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/collectorscorner/corner/internal/submit"
	"github.com/collectorscorner/corner/pkg/domain"
)

type linkCopiedMsg struct{ err error }

type linkOpenedMsg struct{ err error }

// collectionModel shows one collection and its cards.
type collectionModel struct {
	api       API
	info      domain.Collection
	cards     []domain.Card
	cursor    int
	loading   bool
	err       string
	statusMsg string
	width     int
	height    int
}

func newCollectionModel(api API, c domain.Collection) collectionModel {
	return collectionModel{api: api, info: c}
}

func (m collectionModel) Init() tea.Cmd {
	if m.api == nil {
		return nil
	}
	return loadCards(m.api, m.info.ID)
}

func (m collectionModel) Update(msg tea.Msg) (collectionModel, tea.Cmd) {
	switch msg := msg.(type) {
	case cardsLoadedMsg:
		if msg.collectionID != m.info.ID {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = submit.ErrorMessage(msg.err)
			return m, nil
		}
		m.err = ""
		m.cards = msg.res.Cards
		m.info = msg.res.Collection
		if m.cursor >= len(m.cards) {
			m.cursor = 0
		}

	case linkCopiedMsg:
		if msg.err != nil {
			m.statusMsg = "copy failed: " + msg.err.Error()
		} else {
			m.statusMsg = "image link copied"
		}

	case linkOpenedMsg:
		if msg.err != nil {
			m.statusMsg = "open failed: " + msg.err.Error()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		m.statusMsg = ""
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.cards)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "r":
			m.loading = true
			return m, m.Init()
		case "c":
			if link := m.selectedLink(); link != "" {
				return m, func() tea.Msg { return linkCopiedMsg{err: writeClipboard(link)} }
			}
			m.statusMsg = "no image"
		case "o":
			if link := m.selectedLink(); link != "" {
				return m, func() tea.Msg { return linkOpenedMsg{err: openBrowser(link)} }
			}
			m.statusMsg = "no image"
		}
	}
	return m, nil
}

// selectedLink is the image URL of the selected card, or of the
// collection itself when it has no cards.
func (m collectionModel) selectedLink() string {
	if m.api == nil {
		return ""
	}
	if m.cursor < len(m.cards) {
		return m.api.ImageURL(m.cards[m.cursor].ImageRef)
	}
	return m.api.ImageURL(m.info.ImageRef)
}

func (m collectionModel) View() string {
	var b strings.Builder

	visibility := "private"
	if m.info.IsPublic {
		visibility = "public"
	}
	b.WriteString("\n " + titleStyle.Render(m.info.Title) + "  " +
		metaStyle.Render(fmt.Sprintf("%s . %s . %d cards", m.info.Category, visibility, m.info.CardsCount)) + "\n")
	if m.info.Description != "" {
		b.WriteString(" " + dimStyle.Render(oneLine(m.info.Description)) + "\n")
	}
	if m.statusMsg != "" {
		b.WriteString(" " + successStyle.Render(m.statusMsg) + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.loading && len(m.cards) == 0:
		b.WriteString(" " + dimStyle.Render("loading cards..."))
		return b.String()
	case m.err != "":
		b.WriteString(" " + errorStyle.Render("error: "+m.err))
		return b.String()
	case len(m.cards) == 0:
		b.WriteString(" " + dimStyle.Render("no cards yet") + "  " + inputPlaceholderStyle.Render("press a to add one"))
		return b.String()
	}

	width := m.width
	if width < 40 {
		width = 40
	}
	for i, c := range m.cards {
		color := rarityHex(c.Rarity)
		label := RarityStyle(c.Rarity).Render(c.Rarity)
		title := normalStyle.Render(c.Title)
		if i == m.cursor {
			title = selectedStyle.Render(c.Title)
			label = accentStyle.Render("> ") + label
		}
		b.WriteString(cardBorder("top", label, color, width) + "\n")
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(" │")
		b.WriteString(bar + " " + title + "  " + metaStyle.Render(c.Category) + "\n")
		if c.Description != "" {
			b.WriteString(bar + " " + dimStyle.Render(truncStr(oneLine(c.Description), width-6)) + "\n")
		}
		b.WriteString(cardBorder("bottom", "", color, width) + "\n")
	}
	return b.String()
}
