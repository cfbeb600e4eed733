package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/valuation/internal/theme"
)

// Styles contains lipgloss styles for the chat
type Styles struct {
	Title          lipgloss.Style
	Muted          lipgloss.Style
	Bot            lipgloss.Style
	User           lipgloss.Style
	Choice         lipgloss.Style
	ChoiceActive   lipgloss.Style
	Button         lipgloss.Style
	ButtonDisabled lipgloss.Style
	Info           lipgloss.Style
	Success        lipgloss.Style
	Error          lipgloss.Style
	Input          lipgloss.Style
	InputDisabled  lipgloss.Style
	Help           lipgloss.Style
	Key            lipgloss.Style
}

type palette struct {
	accent   lipgloss.Color
	onAccent lipgloss.Color
	text     lipgloss.Color
	muted    lipgloss.Color
	botBg    lipgloss.Color
	userBg   lipgloss.Color
	success  lipgloss.Color
	failure  lipgloss.Color
	info     lipgloss.Color
}

var (
	lightPalette = palette{
		accent:   lipgloss.Color("63"),  // Purple
		onAccent: lipgloss.Color("230"), // Light yellow
		text:     lipgloss.Color("235"),
		muted:    lipgloss.Color("244"),
		botBg:    lipgloss.Color("254"),
		userBg:   lipgloss.Color("153"),
		success:  lipgloss.Color("28"),
		failure:  lipgloss.Color("160"),
		info:     lipgloss.Color("25"),
	}

	darkPalette = palette{
		accent:   lipgloss.Color("141"),
		onAccent: lipgloss.Color("234"),
		text:     lipgloss.Color("252"),
		muted:    lipgloss.Color("241"), // Gray
		botBg:    lipgloss.Color("237"),
		userBg:   lipgloss.Color("24"),
		success:  lipgloss.Color("46"),  // Green
		failure:  lipgloss.Color("196"), // Red
		info:     lipgloss.Color("86"),  // Cyan
	}
)

// StylesFor returns the styles of the given theme
func StylesFor(t theme.Theme) Styles {
	p := lightPalette
	if t == theme.Dark {
		p = darkPalette
	}

	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.accent),
		Muted: lipgloss.NewStyle().
			Foreground(p.muted),
		Bot: lipgloss.NewStyle().
			Foreground(p.text).
			Background(p.botBg).
			Padding(0, 1),
		User: lipgloss.NewStyle().
			Foreground(p.text).
			Background(p.userBg).
			Padding(0, 1),
		Choice: lipgloss.NewStyle().
			Foreground(p.accent).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.muted).
			Padding(0, 1),
		ChoiceActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.onAccent).
			Background(p.accent).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.accent).
			Padding(0, 1),
		Button: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.onAccent).
			Background(p.accent).
			Padding(0, 2),
		ButtonDisabled: lipgloss.NewStyle().
			Foreground(p.muted).
			Padding(0, 2),
		Info: lipgloss.NewStyle().
			Foreground(p.info),
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.success),
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.failure),
		Input: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(p.accent),
		InputDisabled: lipgloss.NewStyle().
			Faint(true).
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(p.muted),
		Help: lipgloss.NewStyle().
			Foreground(p.muted),
		Key: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.accent),
	}
}
