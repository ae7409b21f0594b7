package tui

import "github.com/charmbracelet/lipgloss"

// theme holds every style the picker draws with.
type theme struct {
	card       lipgloss.Style
	activeCard lipgloss.Style
	heading    lipgloss.Style
	score      lipgloss.Style
	details    lipgloss.Style
	overview   lipgloss.Style
	badge      lipgloss.Style
	header     lipgloss.Style
	hintKey    lipgloss.Style
	hintText   lipgloss.Style
}

var (
	accent = lipgloss.Color("214")
	muted  = lipgloss.Color("244")

	mediaColors = map[string]lipgloss.Color{
		"movie": lipgloss.Color("33"),
		"tv":    lipgloss.Color("135"),
	}
	qualityColors = map[string]lipgloss.Color{
		"HD": lipgloss.Color("34"),
		"SD": lipgloss.Color("240"),
	}
)

func defaultTheme() theme {
	card := lipgloss.NewStyle().
		Border(lipgloss.HiddenBorder(), false, false, false, true).
		PaddingLeft(1)

	return theme{
		card: card,
		activeCard: card.
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(accent),
		heading:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")),
		score:    lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		details:  lipgloss.NewStyle().Foreground(muted),
		overview: lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Italic(true),
		badge: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("231")),
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			MarginBottom(1),
		hintKey:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		hintText: lipgloss.NewStyle().Foreground(muted),
	}
}

// badgeStyle colors a badge by its value, falling back to the muted tone.
func (t theme) badgeStyle(colors map[string]lipgloss.Color, value string) lipgloss.Style {
	bg, ok := colors[value]
	if !ok {
		bg = muted
	}
	return t.badge.Background(bg)
}
