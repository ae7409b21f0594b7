package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/marquee/internal/tmdb"
)

// resultItem adapts a search result to the list component.
type resultItem struct {
	result tmdb.SearchResult
}

func (i resultItem) FilterValue() string { return i.result.Title }

// heading is "Title (Year)", dropping the year when TMDB has no release date.
func (i resultItem) heading() string {
	if i.result.Year == "" || i.result.Year == "Unknown" {
		return i.result.Title
	}
	return fmt.Sprintf("%s (%s)", i.result.Title, i.result.Year)
}

// cardDelegate draws each result as a three line card: badges and title, score
// and genres, then the overview.
type cardDelegate struct {
	theme theme
}

func (d cardDelegate) Height() int                         { return 3 }
func (d cardDelegate) Spacing() int                        { return 1 }
func (d cardDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d cardDelegate) Render(w io.Writer, m list.Model, idx int, item list.Item) {
	it, ok := item.(resultItem)
	if !ok {
		return
	}

	// border and padding take three columns
	width := m.Width() - 3
	_, _ = fmt.Fprint(w, d.card(it, width, idx == m.Index()))
}

func (d cardDelegate) card(it resultItem, width int, active bool) string {
	badges := d.badges(it.result)
	title := d.theme.heading.Render(truncate(it.heading(), width-lipgloss.Width(badges)-1))

	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Top, badges, " ", title),
		d.theme.details.Render(truncate(scoreLine(it.result), width)),
		d.theme.overview.Render(truncate(it.result.Overview, width)),
	}

	style := d.theme.card
	if active {
		style = d.theme.activeCard
	}
	return style.Render(strings.Join(lines, "\n"))
}

// badges renders the media type and, when known, the quality tier.
func (d cardDelegate) badges(r tmdb.SearchResult) string {
	out := d.theme.badgeStyle(mediaColors, r.MediaType).Render(mediaLabel(r.MediaType))
	if r.Quality != "" {
		out += " " + d.theme.badgeStyle(qualityColors, r.Quality).Render(r.Quality)
	}
	return out
}

func mediaLabel(mediaType string) string {
	switch mediaType {
	case "movie":
		return "MOVIE"
	case "tv":
		return "TV"
	case "":
		return "?"
	default:
		return strings.ToUpper(mediaType)
	}
}

// scoreLine joins the TMDB score, vote count and genres. TMDB scores are out of ten.
func scoreLine(r tmdb.SearchResult) string {
	var parts []string
	if r.VoteCount > 0 && r.IMDBRating != "" {
		parts = append(parts, fmt.Sprintf("★ %s/10", r.IMDBRating))
	}
	if r.VoteCount > 0 {
		parts = append(parts, r.IMDBVotes+" votes")
	}
	if len(r.Genres) > 0 {
		parts = append(parts, strings.Join(r.Genres, ", "))
	}
	if len(parts) == 0 {
		return "Not rated yet"
	}
	return strings.Join(parts, " · ")
}

// truncate collapses whitespace and cuts value to width runes, marking the cut.
func truncate(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if width <= 0 || len(runes) <= width {
		return value
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
