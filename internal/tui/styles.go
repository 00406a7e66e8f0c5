package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Shimmer animation for the CORNER logo.
type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// renderShimmerLogo renders "C O R N E R" as a slow wave of warm light.
// Deep bronze (#3a2a14) -> bright amber (#f5b942).
func renderShimmerLogo(frame int) string {
	const text = "CORNER"
	n := len(text)

	var out string

	t := float64(frame)

	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)

		phase := t*0.1 - x*3.0
		phase += math.Sin(t*0.023) * 2.0

		b := math.Sin(phase)*0.5 + 0.5
		b = math.Pow(b, 1.3)

		// Slow breathing tide
		tide := math.Sin(t*0.035) * 0.12
		b = b*0.75 + tide + 0.18

		if b > 1.0 {
			b = 1.0
		} else if b < 0.05 {
			b = 0.05
		}

		r := clampByte(58 + b*(245-58))
		g := clampByte(42 + b*(185-42))
		bl := clampByte(20 + b*(66-20))

		color := fmt.Sprintf("#%02X%02X%02X", r, g, bl)

		s := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(color))
		out += s.Render(string(text[i]))

		if i < n-1 {
			out += "  "
		}
	}

	return out
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var (
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	// Help bar
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f5b942"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f5b942")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ade80"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e06060"))

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#606878"))

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#343c4a"))

	// Selected row background
	selectedRowBg = lipgloss.NewStyle().Background(lipgloss.Color("#1e1e2a"))

	rarityColors = map[string]lipgloss.Color{
		"common":    lipgloss.Color("#8890a0"),
		"uncommon":  lipgloss.Color("#4ade80"),
		"rare":      lipgloss.Color("#60a0e0"),
		"epic":      lipgloss.Color("#c084e0"),
		"legendary": lipgloss.Color("#f0944a"),
	}
)

// RarityStyle returns a bold style colored for the given rarity.
func RarityStyle(rarity string) lipgloss.Style {
	if c, ok := rarityColors[rarity]; ok {
		return lipgloss.NewStyle().Foreground(c).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#606878")).Bold(true)
}

func rarityHex(rarity string) string {
	if c, ok := rarityColors[rarity]; ok {
		return string(c)
	}
	return "#606878"
}

// cardBorder renders the top or bottom border of a card frame.
// pos: "top" or "bottom". label: optional header text (top only).
func cardBorder(pos, label, baseColor string, width int) string {
	w := width - 4
	if w < 10 {
		w = 10
	}
	line := lipgloss.NewStyle().Foreground(lipgloss.Color(baseColor))

	if pos == "bottom" {
		return line.Render(" └" + strings.Repeat("─", w))
	}
	if label == "" {
		return line.Render(" ┌" + strings.Repeat("─", w))
	}
	header := " ┌ " + label + " "
	remaining := w - lipgloss.Width(header) + 2 // +2 for " ┌"
	if remaining < 1 {
		remaining = 1
	}
	return line.Render(" ┌ ") + label + " " + line.Render(strings.Repeat("─", remaining))
}

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

// helpItem is a selectable link in the help overlay.
type helpItem struct {
	label string
	desc  string
	url   string
}

// helpItems lists the configured services; enter opens one in the browser.
func helpItems(apiURL, imageURL string) []helpItem {
	var items []helpItem
	if apiURL != "" {
		items = append(items, helpItem{"API", apiURL, apiURL})
	}
	if imageURL != "" {
		items = append(items, helpItem{"Image service", imageURL, imageURL})
	}
	return items
}

// helpView renders the interactive help overlay with a cursor.
func helpView(items []helpItem, cursor int) string {
	title := titleStyle.Render("C O R N E R")

	quote := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("Every collection starts with one card.")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	selectedStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f5b942"))
	linkDescStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)

	keys := []struct{ key, desc string }{
		{"1 / 2", "Collections / Account"},
		{"n", "New collection"},
		{"enter", "Open collection"},
		{"a", "Add a card (inside a collection)"},
		{"c / o", "Copy / open card image link"},
		{"r", "Refresh"},
		{"ctrl+s", "Submit form"},
		{"L", "Log out"},
	}
	commands := []struct{ cmd, desc string }{
		{"corner", "Open the collection browser"},
		{"corner login", "Sign in"},
		{"corner register", "Create an account"},
		{"corner logout", "Forget the stored session"},
		{"corner forgot-password", "Mail a reset link"},
		{"corner reset-password", "Set a new password with a reset token"},
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n\n  %s\n\n", title, quote)

	fmt.Fprintf(&b, "  %s\n", sectionStyle.Render("Keys"))
	for _, k := range keys {
		fmt.Fprintf(&b, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-24s", k.key)), descStyle.Render(k.desc))
	}

	fmt.Fprintf(&b, "\n  %s\n", sectionStyle.Render("Commands"))
	for _, c := range commands {
		fmt.Fprintf(&b, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-24s", c.cmd)), descStyle.Render(c.desc))
	}

	if len(items) == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, "\n  %s\n", sectionStyle.Render("Links (enter to open)"))
	for i, item := range items {
		label := cmdStyle.Render(fmt.Sprintf("%-24s", item.label))
		prefix := "    "
		if i == cursor {
			label = selectedStyle.Render(fmt.Sprintf("%-24s", item.label))
			prefix = "  > "
		}
		fmt.Fprintf(&b, "%s%s  %s\n", prefix, label, linkDescStyle.Render(item.desc))
	}
	return b.String()
}
