package tmdb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	unknownYear = "Unknown"
	castLimit   = 10
)

// yearOf returns the YYYY prefix of a TMDB date, or "" when there is none.
func yearOf(date string) string {
	year, _, _ := strings.Cut(strings.TrimSpace(date), "-")
	return year
}

// searchQuality labels well-rated titles HD.
func searchQuality(voteAverage float64) string {
	if voteAverage > 7 {
		return "HD"
	}
	return "SD"
}

// listingQuality labels widely-voted titles HD.
func listingQuality(voteCount int) string {
	if voteCount > 1000 {
		return "HD"
	}
	return "SD"
}

// formatVoteCount abbreviates counts of a thousand or more, e.g. 1.2k.
func formatVoteCount(count int) string {
	if count >= 1000 {
		return fmt.Sprintf("%.1fk", float64(count)/1000)
	}
	return strconv.Itoa(count)
}

// formatVotes renders a full count with thousands separators, e.g. "12,345 votes".
func formatVotes(count int) string {
	return humanize.Comma(int64(count)) + " votes"
}

// halfRating maps TMDB's 0-10 average onto a five-star scale.
func halfRating(voteAverage float64) string {
	return fmt.Sprintf("%.1f", voteAverage/2)
}

func formatRuntime(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	return fmt.Sprintf("%d min", minutes)
}

func genreNames(genres []genre) []string {
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		names = append(names, g.Name)
	}
	return names
}

// trailers keeps YouTube trailers and teasers, in provider order.
func trailers(videos []video) []Video {
	out := make([]Video, 0, len(videos))
	for _, v := range videos {
		if v.Site != "YouTube" || (v.Type != "Trailer" && v.Type != "Teaser") {
			continue
		}
		out = append(out, Video{Key: v.Key, Name: v.Name, Type: v.Type, URL: YouTubeURL(v.Key)})
	}
	return out
}

func firstTrailer(videos []Video) string {
	if len(videos) == 0 {
		return ""
	}
	return videos[0].URL
}

// crewNames returns the distinct names of crew members holding any of jobs.
func crewNames(c credits, jobs ...string) []string {
	names := []string{}
	seen := make(map[string]bool)
	for _, member := range c.Crew {
		for _, job := range jobs {
			if member.Job == job && !seen[member.Name] {
				seen[member.Name] = true
				names = append(names, member.Name)
			}
		}
	}
	return names
}

func (c *Catalog) castMembers(cr credits) []CastMember {
	limit := min(len(cr.Cast), castLimit)
	cast := make([]CastMember, 0, limit)
	for _, actor := range cr.Cast[:limit] {
		member := CastMember{Name: actor.Name, Character: actor.Character}
		if actor.ProfilePath != "" {
			member.ProfileSrc = c.ImageURL(actor.ProfilePath, "medium", "profile")
		}
		cast = append(cast, member)
	}
	return cast
}

// formatSearchResult renders a search hit. mediaType overrides the item's own
// media_type for endpoints that omit it.
func (c *Catalog) formatSearchResult(m media, mediaType string, genres map[int]string) SearchResult {
	if mediaType == "" {
		mediaType = m.MediaType
	}

	year := yearOf(m.date())
	if year == "" {
		year = unknownYear
	}

	result := SearchResult{
		ID:         m.ID,
		TMDBID:     strconv.Itoa(m.ID),
		Title:      m.displayTitle(),
		Year:       year,
		Quality:    searchQuality(m.VoteAverage),
		IMDBRating: fmt.Sprintf("%.1f", m.VoteAverage),
		IMDBVotes:  formatVoteCount(m.VoteCount),
		MediaType:  mediaType,
		Overview:   m.Overview,
		VoteCount:  m.VoteCount,
	}
	if m.PosterPath != "" {
		result.ImageSrc = c.ImageURL(m.PosterPath, "large", "poster")
	}
	for _, id := range m.GenreIDs {
		if name, ok := genres[id]; ok {
			result.Genres = append(result.Genres, name)
		}
	}
	return result
}

// formatListing renders a home or related row item. Listings grade quality by
// vote count rather than average.
func (c *Catalog) formatListing(m media, mediaType string) SearchResult {
	result := c.formatSearchResult(m, mediaType, nil)
	result.Quality = listingQuality(m.VoteCount)
	if result.Year == unknownYear {
		result.Year = ""
	}
	return result
}
