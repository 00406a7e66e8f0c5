package main

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/lipgloss"
)

var cornerGreetings = [...]string{
	"Your shelves missed you.",
	"Every collection starts with one card. Yours has at least that.",
	"The binder is open. The sleeves are ready.",
	"Somebody out there is still looking for the card you already own.",
	"Mint condition. Much like your timing.",
	"Rare finds go to the ones who keep looking.",
	"The legendary pulls are not going to catalogue themselves.",
	"Stamps, coins, tickets, cards. The corner holds them all.",
	"A collection is just a story told one item at a time.",
	"The common ones matter too. They make the rare ones rare.",
}

func printHelp(w io.Writer) {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f5b942")).
		Bold(true).
		Render("C O R N E R")

	quote := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render(`"Every collection starts with one card."`)

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	commands := []struct{ cmd, desc string }{
		{"corner", "Open the collection browser (interactive TUI)"},
		{"corner login", "Sign in with username and password"},
		{"corner register", "Create an account"},
		{"corner logout", "Forget the stored session"},
		{"corner whoami", "Show the signed-in account"},
		{"corner forgot-password", "Mail a password reset link"},
		{"corner reset-password", "Set a new password with a reset token"},
		{"corner --version", "Show version"},
		{"corner help", "You are here"},
	}
	flags := []struct{ flag, desc string }{
		{"-a, --api-url", "API base URL (CORNER_API_URL)"},
		{"-i, --image-url", "Image service base URL (CORNER_IMAGE_URL)"},
		{"-s, --state", "Session database file (CORNER_STATE_PATH)"},
		{"--ephemeral", "Keep the session in memory only (CORNER_EPHEMERAL)"},
		{"-l, --log-level", "debug, info, warn or error (CORNER_LOG_LEVEL)"},
		{"--log-file", "Log file (CORNER_LOG_FILE)"},
		{"--log-format", "text or json (CORNER_LOG_FORMAT)"},
		{"--success-delay", "Pause after a saved form (CORNER_SUCCESS_DELAY)"},
		{"--timeout", "HTTP timeout (CORNER_TIMEOUT)"},
	}

	fmt.Fprintf(w, "\n  %s\n\n  %s\n\n  Commands:\n", title, quote)
	for _, c := range commands {
		fmt.Fprintf(w, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-24s", c.cmd)), descStyle.Render(c.desc))
	}
	fmt.Fprintf(w, "\n  Flags:\n")
	for _, f := range flags {
		fmt.Fprintf(w, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-24s", f.flag)), descStyle.Render(f.desc))
	}
	fmt.Fprintln(w)
}

func printGreeting(w io.Writer) {
	msg := cornerGreetings[rand.IntN(len(cornerGreetings))]

	quote := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render(msg)

	hint := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Render("To browse: corner")

	fmt.Fprintf(w, "\n%s\n\n%s\n\n", quote, hint)
}
