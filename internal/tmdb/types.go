package tmdb

// Wire shapes, as TMDB returns them.

type media struct {
	ID           int     `json:"id"`
	MediaType    string  `json:"media_type"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Popularity   float64 `json:"popularity"`
	GenreIDs     []int   `json:"genre_ids"`
}

// displayTitle returns the movie title or the TV show name.
func (m media) displayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Name
}

func (m media) date() string {
	if m.ReleaseDate != "" {
		return m.ReleaseDate
	}
	return m.FirstAirDate
}

type page struct {
	Page         int     `json:"page"`
	Results      []media `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

type genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

type credits struct {
	Cast []struct {
		Name        string `json:"name"`
		Character   string `json:"character"`
		ProfilePath string `json:"profile_path"`
	} `json:"cast"`
	Crew []struct {
		Name string `json:"name"`
		Job  string `json:"job"`
	} `json:"crew"`
}

type movieResponse struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	Runtime      int     `json:"runtime"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	IMDBID       string  `json:"imdb_id"`
	Tagline      string  `json:"tagline"`
	Genres       []genre `json:"genres"`
	Videos       struct {
		Results []video `json:"results"`
	} `json:"videos"`
	Credits credits `json:"credits"`
}

type seasonSummaryResponse struct {
	SeasonNumber int    `json:"season_number"`
	Name         string `json:"name"`
	EpisodeCount int    `json:"episode_count"`
	AirDate      string `json:"air_date"`
	PosterPath   string `json:"poster_path"`
}

type tvResponse struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	FirstAirDate     string  `json:"first_air_date"`
	LastAirDate      string  `json:"last_air_date"`
	EpisodeRunTime   []int   `json:"episode_run_time"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Status           string  `json:"status"`
	NumberOfSeasons  int     `json:"number_of_seasons"`
	NumberOfEpisodes int     `json:"number_of_episodes"`
	Genres           []genre `json:"genres"`
	CreatedBy        []struct {
		Name string `json:"name"`
	} `json:"created_by"`
	Seasons []seasonSummaryResponse `json:"seasons"`
	Videos  struct {
		Results []video `json:"results"`
	} `json:"videos"`
	Credits credits `json:"credits"`
}

type seasonResponse struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	AirDate      string `json:"air_date"`
	SeasonNumber int    `json:"season_number"`
	PosterPath   string `json:"poster_path"`
	Episodes     []struct {
		EpisodeNumber int     `json:"episode_number"`
		Name          string  `json:"name"`
		Overview      string  `json:"overview"`
		AirDate       string  `json:"air_date"`
		Runtime       int     `json:"runtime"`
		StillPath     string  `json:"still_path"`
		VoteAverage   float64 `json:"vote_average"`
	} `json:"episodes"`
}

// Rendered shapes.

// SearchResult is one movie or TV show in a search, home or related listing.
type SearchResult struct {
	ID         int      `json:"-"`
	TMDBID     string   `json:"tmdb_id"`
	Title      string   `json:"title"`
	Year       string   `json:"year"`
	Quality    string   `json:"quality"`
	ImageSrc   string   `json:"image_src,omitempty"`
	IMDBRating string   `json:"imdb_rating"`
	IMDBVotes  string   `json:"imdb_votes"`
	MediaType  string   `json:"media_type"`
	Genres     []string `json:"genres,omitempty"`
	Overview   string   `json:"overview,omitempty"`
	VoteCount  int      `json:"vote_count"`
}

// SearchResponse is a combined multi-page search.
type SearchResponse struct {
	Results      []SearchResult `json:"results"`
	TotalResults int            `json:"total_results"`
	TotalPages   int            `json:"total_pages"`
}

// Home holds the landing page rows.
type Home struct {
	Trending   []SearchResult `json:"trending"`
	Popular    []SearchResult `json:"popular"`
	TopRatedTV []SearchResult `json:"top_rated_tv"`
}

// Video is a YouTube trailer or teaser.
type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// CastMember is one billed actor.
type CastMember struct {
	Name       string `json:"name"`
	Character  string `json:"character"`
	ProfileSrc string `json:"profile_src,omitempty"`
}

// MovieDetails is the watch page view of a movie.
type MovieDetails struct {
	TMDBID      int          `json:"tmdb_id"`
	Title       string       `json:"title"`
	Year        string       `json:"year"`
	Quality     string       `json:"quality"`
	Rating      string       `json:"imdb_rating"`
	Votes       string       `json:"imdb_votes"`
	ImageSrc    string       `json:"image_src"`
	Backdrop    string       `json:"backdrop_path,omitempty"`
	Plot        string       `json:"plot"`
	Tagline     string       `json:"tagline,omitempty"`
	Genres      []string     `json:"genres"`
	IMDBID      string       `json:"imdb_id,omitempty"`
	IMDBURL     string       `json:"imdb_url,omitempty"`
	Runtime     string       `json:"runtime,omitempty"`
	ReleaseDate string       `json:"release_date,omitempty"`
	Trailer     string       `json:"trailer,omitempty"`
	Videos      []Video      `json:"videos"`
	Directors   []string     `json:"directors"`
	Cast        []CastMember `json:"cast"`
	EmbedURL    string       `json:"embed_url,omitempty"`
}

// SeasonSummary is a season entry on a TV show.
type SeasonSummary struct {
	SeasonNumber int    `json:"season_number"`
	Name         string `json:"name"`
	EpisodeCount int    `json:"episode_count"`
	AirDate      string `json:"air_date,omitempty"`
	PosterSrc    string `json:"poster_src"`
}

// TVDetails is the series page view of a TV show.
type TVDetails struct {
	TMDBID           int             `json:"tmdb_id"`
	Title            string          `json:"title"`
	Year             string          `json:"year"`
	Quality          string          `json:"quality"`
	Rating           string          `json:"imdb_rating"`
	Votes            string          `json:"imdb_votes"`
	ImageSrc         string          `json:"image_src"`
	Backdrop         string          `json:"backdrop_path,omitempty"`
	Plot             string          `json:"plot"`
	Genres           []string        `json:"genres"`
	Runtime          string          `json:"runtime,omitempty"`
	ReleaseDate      string          `json:"release_date,omitempty"`
	LastAirDate      string          `json:"last_air_date,omitempty"`
	Status           string          `json:"status,omitempty"`
	NumberOfSeasons  int             `json:"number_of_seasons"`
	NumberOfEpisodes int             `json:"number_of_episodes"`
	Seasons          []SeasonSummary `json:"seasons"`
	Trailer          string          `json:"trailer,omitempty"`
	Videos           []Video         `json:"videos"`
	Creators         []string        `json:"creators"`
	Cast             []CastMember    `json:"cast"`
	EmbedURL         string          `json:"embed_url,omitempty"`
}

// Episode is one episode of a season.
type Episode struct {
	EpisodeNumber int    `json:"episode_number"`
	Name          string `json:"name"`
	Overview      string `json:"overview,omitempty"`
	AirDate       string `json:"air_date,omitempty"`
	Runtime       string `json:"runtime,omitempty"`
	StillSrc      string `json:"still_src"`
	Rating        string `json:"rating"`
	EmbedURL      string `json:"embed_url"`
}

// Season is one season of a TV show with its episodes.
type Season struct {
	TVID         int       `json:"tv_id"`
	SeasonNumber int       `json:"season_number"`
	Name         string    `json:"name"`
	Overview     string    `json:"overview,omitempty"`
	AirDate      string    `json:"air_date,omitempty"`
	PosterSrc    string    `json:"poster_src"`
	Episodes     []Episode `json:"episodes"`
}
