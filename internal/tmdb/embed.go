package tmdb

import (
	"fmt"
	"net/url"
)

const (
	youTubeWatchURL = "https://www.youtube.com/watch?v="
	embedBaseURL    = "https://vidsrc.me/embed"
)

// YouTubeURL returns the watch URL for a YouTube video key.
func YouTubeURL(key string) string {
	return youTubeWatchURL + url.QueryEscape(key)
}

// IMDBURL returns the IMDb title page, or "" without an id.
func IMDBURL(imdbID string) string {
	if imdbID == "" {
		return ""
	}
	return "https://www.imdb.com/title/" + imdbID
}

// MovieEmbedURL returns the player URL for a movie, keyed by IMDb id.
func MovieEmbedURL(imdbID string) string {
	if imdbID == "" {
		return ""
	}
	return embedBaseURL + "/movie?imdb=" + url.QueryEscape(imdbID)
}

// TVEmbedURL returns the player URL for one episode of a show.
func TVEmbedURL(tmdbID, season, episode int) string {
	return fmt.Sprintf("%s/tv?tmdb=%d&season=%d&episode=%d", embedBaseURL, tmdbID, season, episode)
}
