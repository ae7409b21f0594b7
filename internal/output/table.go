package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/lepinkainen/marquee/internal/tmdb"
)

const overviewWidth = 60

func renderTable(value any) (string, bool) {
	switch v := value.(type) {
	case *tmdb.SearchResponse:
		return searchTable(v), true
	case []tmdb.SearchResult:
		return resultsTable(v, ""), true
	case *tmdb.Home:
		return homeTables(v), true
	case *tmdb.MovieDetails:
		return movieTable(v), true
	case *tmdb.TVDetails:
		return tvTable(v), true
	case *tmdb.Season:
		return seasonTable(v), true
	default:
		return "", false
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

func resultsTable(results []tmdb.SearchResult, title string) string {
	t := newTable()
	if title != "" {
		t.SetTitle(title)
	}
	t.AppendHeader(table.Row{"ID", "Type", "Title", "Year", "Quality", "Rating", "Votes"})
	for _, r := range results {
		t.AppendRow(table.Row{r.TMDBID, r.MediaType, r.Title, r.Year, r.Quality, r.IMDBRating, r.IMDBVotes})
	}
	return t.Render()
}

func searchTable(resp *tmdb.SearchResponse) string {
	if resp == nil || len(resp.Results) == 0 {
		return "No results found."
	}

	t := newTable()
	t.AppendHeader(table.Row{"ID", "Type", "Title", "Year", "Quality", "Rating", "Votes", "Genres"})
	for _, r := range resp.Results {
		t.AppendRow(table.Row{
			r.TMDBID,
			r.MediaType,
			r.Title,
			r.Year,
			r.Quality,
			r.IMDBRating,
			r.IMDBVotes,
			strings.Join(r.Genres, ", "),
		})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d results", resp.TotalResults), "", "", "", "", ""})
	return t.Render()
}

func homeTables(home *tmdb.Home) string {
	if home == nil {
		return ""
	}
	sections := []string{
		resultsTable(home.Trending, "Trending today"),
		resultsTable(home.Popular, "Popular movies"),
		resultsTable(home.TopRatedTV, "Top rated TV"),
	}
	return strings.Join(sections, "\n\n")
}

// detailTable renders a two-column field/value table, skipping empty values.
func detailTable(title string, rows [][2]string) string {
	t := newTable()
	t.SetTitle(title)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: overviewWidth},
	})
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		t.AppendRow(table.Row{row[0], row[1]})
	}
	return t.Render()
}

func castList(cast []tmdb.CastMember) string {
	names := make([]string, 0, len(cast))
	for _, c := range cast {
		if c.Character != "" {
			names = append(names, fmt.Sprintf("%s (%s)", c.Name, c.Character))
			continue
		}
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

func movieTable(m *tmdb.MovieDetails) string {
	if m == nil {
		return ""
	}
	title := m.Title
	if m.Year != "" {
		title = fmt.Sprintf("%s (%s)", m.Title, m.Year)
	}
	return detailTable(title, [][2]string{
		{"TMDB ID", fmt.Sprint(m.TMDBID)},
		{"Tagline", m.Tagline},
		{"Rating", m.Rating},
		{"Votes", m.Votes},
		{"Runtime", m.Runtime},
		{"Released", m.ReleaseDate},
		{"Genres", strings.Join(m.Genres, ", ")},
		{"Directors", strings.Join(m.Directors, ", ")},
		{"Cast", castList(m.Cast)},
		{"Plot", m.Plot},
		{"Trailer", m.Trailer},
		{"IMDb", m.IMDBURL},
		{"Poster", m.ImageSrc},
		{"Watch", m.EmbedURL},
	})
}

func tvTable(tv *tmdb.TVDetails) string {
	if tv == nil {
		return ""
	}
	title := tv.Title
	if tv.Year != "" {
		title = fmt.Sprintf("%s (%s)", tv.Title, tv.Year)
	}
	details := detailTable(title, [][2]string{
		{"TMDB ID", fmt.Sprint(tv.TMDBID)},
		{"Status", tv.Status},
		{"Rating", tv.Rating},
		{"Votes", tv.Votes},
		{"Runtime", tv.Runtime},
		{"First aired", tv.ReleaseDate},
		{"Last aired", tv.LastAirDate},
		{"Seasons", fmt.Sprint(tv.NumberOfSeasons)},
		{"Episodes", fmt.Sprint(tv.NumberOfEpisodes)},
		{"Genres", strings.Join(tv.Genres, ", ")},
		{"Creators", strings.Join(tv.Creators, ", ")},
		{"Cast", castList(tv.Cast)},
		{"Plot", tv.Plot},
		{"Trailer", tv.Trailer},
		{"Poster", tv.ImageSrc},
		{"Watch", tv.EmbedURL},
	})
	if len(tv.Seasons) == 0 {
		return details
	}

	t := newTable()
	t.SetTitle("Seasons")
	t.AppendHeader(table.Row{"#", "Name", "Episodes", "Air date"})
	for _, s := range tv.Seasons {
		t.AppendRow(table.Row{s.SeasonNumber, s.Name, s.EpisodeCount, s.AirDate})
	}
	return details + "\n\n" + t.Render()
}

func seasonTable(s *tmdb.Season) string {
	if s == nil {
		return ""
	}
	t := newTable()
	t.SetTitle(s.Name)
	t.AppendHeader(table.Row{"#", "Episode", "Air date", "Runtime", "Rating"})
	for _, e := range s.Episodes {
		t.AppendRow(table.Row{e.EpisodeNumber, e.Name, e.AirDate, e.Runtime, e.Rating})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d episodes", len(s.Episodes)), "", "", ""})
	return t.Render()
}
