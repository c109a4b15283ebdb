package models

import "time"

// Anime is a catalog item administered centrally.
type Anime struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	ReleaseYear  int       `json:"release_year,omitempty"`
	EpisodeCount int       `json:"episode_count,omitempty"`
	PosterPath   string    `json:"poster_path,omitempty"`
	BannerPath   string    `json:"banner_path,omitempty"`
	Studio       string    `json:"studio,omitempty"`
	Director     string    `json:"director,omitempty"`
	Rating       *float64  `json:"rating,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	Genres       []Genre   `json:"genres,omitempty"`
}

// AnimeListItem is the summary row used by the catalog browse view.
type AnimeListItem struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	ReleaseYear  int    `json:"release_year,omitempty"`
	EpisodeCount int    `json:"episode_count,omitempty"`
	PosterPath   string `json:"poster_path,omitempty"`
}

// AnimeDetail is the full catalog view of one anime, including the calling
// user's watchlist entry when authenticated.
type AnimeDetail struct {
	Anime
	WatchlistEntry *WatchlistEntry `json:"watchlist_entry,omitempty"`
}

// CreateAnimeRequest carries the admin create-anime form fields.
type CreateAnimeRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ReleaseYear  int    `json:"release_year"`
	EpisodeCount int    `json:"episode_count"`
	PosterPath   string `json:"poster_path"`
	BannerPath   string `json:"banner_path"`
	GenreIDs     []int  `json:"genre_ids"`
}

// UpdateAnimeRequest carries the admin edit-anime form fields. The genre id
// set atomically replaces the anime's existing associations.
type UpdateAnimeRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	ReleaseYear  int      `json:"release_year"`
	EpisodeCount int      `json:"episode_count"`
	PosterPath   string   `json:"poster_path"`
	BannerPath   string   `json:"banner_path"`
	Studio       string   `json:"studio"`
	Director     string   `json:"director"`
	Rating       *float64 `json:"rating"`
	GenreIDs     []int    `json:"genre_ids"`
}

// AnimePage is one page of the catalog browse view.
type AnimePage struct {
	Items      []AnimeListItem `json:"items"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
}
