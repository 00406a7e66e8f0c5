package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/collectorscorner/corner/pkg/domain"
)

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 2000

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware) and single printable characters.
// Returns the text unchanged for non-printable keys (enter, esc, etc.).
// Input is clamped to maxInputLen runes.
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	default:
		if utf8.RuneCountInString(key) == 1 {
			if utf8.RuneCountInString(text) >= maxInputLen {
				return text
			}
			return text + key
		}
		return text
	}
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

type fieldKind int

const (
	kindText fieldKind = iota
	kindSecret
	kindToggle // y/n, flipped with space
	kindRarity // cycled with h/l
)

type formField struct {
	key   string
	label string
	kind  fieldKind
	value string
	hint  string
}

// fieldSet is the editable part of a form: a list of inputs and a focus.
type fieldSet struct {
	fields []formField
	focus  int
}

func newFieldSet(fields ...formField) fieldSet {
	return fieldSet{fields: fields}
}

func (s fieldSet) value(key string) string {
	for _, f := range s.fields {
		if f.key == key {
			return f.value
		}
	}
	return ""
}

func (s fieldSet) set(key, v string) fieldSet {
	fields := make([]formField, len(s.fields))
	copy(fields, s.fields)
	for i := range fields {
		if fields[i].key == key {
			fields[i].value = v
		}
	}
	s.fields = fields
	return s
}

func (s fieldSet) focused() formField {
	return s.fields[s.focus]
}

func (s fieldSet) onLast() bool {
	return s.focus == len(s.fields)-1
}

func (s fieldSet) next() fieldSet {
	s.focus = (s.focus + 1) % len(s.fields)
	return s
}

func (s fieldSet) prev() fieldSet {
	s.focus = (s.focus - 1 + len(s.fields)) % len(s.fields)
	return s
}

// edit applies a key to the focused field. It returns the key of the
// field whose value changed, or "" when the key was not an edit.
func (s fieldSet) edit(msg tea.KeyMsg) (fieldSet, string) {
	f := s.focused()
	key := msg.String()
	var v string

	switch f.kind {
	case kindToggle:
		if key != " " && key != "y" && key != "n" {
			return s, ""
		}
		v = "n"
		if (key == " " && f.value != "y") || key == "y" {
			v = "y"
		}
	case kindRarity:
		switch key {
		case "l", "right", " ":
			v = domain.NextRarity(f.value, 1)
		case "h", "left":
			v = domain.NextRarity(f.value, -1)
		default:
			return s, ""
		}
	default:
		if msg.Type != tea.KeyRunes && msg.Type != tea.KeySpace && msg.Type != tea.KeyBackspace {
			return s, ""
		}
		v = editRune(f.value, key)
	}

	if v == f.value {
		return s, ""
	}
	return s.set(f.key, v), f.key
}

// View renders every field, one per line, with errs beside the inputs.
func (s fieldSet) View(errs map[string]string, disabled bool) string {
	var b strings.Builder
	width := 0
	for _, f := range s.fields {
		if n := utf8.RuneCountInString(f.label); n > width {
			width = n
		}
	}
	for i, f := range s.fields {
		cursor := " "
		style := metaStyle
		if i == s.focus && !disabled {
			cursor = accentStyle.Render(">")
			style = selectedStyle
		}

		value := f.value
		switch f.kind {
		case kindSecret:
			value = strings.Repeat("•", utf8.RuneCountInString(value))
		case kindToggle:
			if value == "y" {
				value = "yes"
			} else {
				value = "no"
			}
		case kindRarity:
			if value == "" {
				value = domain.DefaultRarity
			}
			value = RarityStyle(value).Render(value)
		}
		if i == s.focus && !disabled && (f.kind == kindText || f.kind == kindSecret) {
			value += "█"
		}

		line := fmt.Sprintf("%s %s  %s", cursor, style.Render(fmt.Sprintf("%-*s", width, f.label)), normalStyle.Render(value))
		if msg := errs[f.key]; msg != "" {
			line += "  " + errorStyle.Render(msg)
		} else if f.hint != "" && i == s.focus {
			line += "  " + dimStyle.Render(f.hint)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
