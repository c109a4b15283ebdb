package models

import "time"

// WatchStatus is the tracking status of a watchlist entry.
type WatchStatus string

const (
	StatusWatching    WatchStatus = "Watching"
	StatusCompleted   WatchStatus = "Completed"
	StatusOnHold      WatchStatus = "On-Hold"
	StatusDropped     WatchStatus = "Dropped"
	StatusPlanToWatch WatchStatus = "Plan to Watch"
)

// WatchStatuses lists every valid status in display order.
var WatchStatuses = []WatchStatus{
	StatusWatching,
	StatusCompleted,
	StatusOnHold,
	StatusDropped,
	StatusPlanToWatch,
}

// Valid reports whether the status is one of the five known values.
func (s WatchStatus) Valid() bool {
	switch s {
	case StatusWatching, StatusCompleted, StatusOnHold, StatusDropped, StatusPlanToWatch:
		return true
	}
	return false
}

// NormalizeStatus coerces an arbitrary status string to a valid status.
// Unknown or empty input falls back to "Plan to Watch"; this is the lenient
// policy the add path uses.
func NormalizeStatus(s string) WatchStatus {
	if status := WatchStatus(s); status.Valid() {
		return status
	}
	return StatusPlanToWatch
}

// WatchlistEntry links a user to one anime with status, rating and
// episode progress. At most one entry exists per (user, anime) pair.
type WatchlistEntry struct {
	ID                int         `json:"id"`
	UserID            int         `json:"user_id"`
	AnimeID           int         `json:"anime_id"`
	Status            WatchStatus `json:"status"`
	UserRating        *int        `json:"user_rating,omitempty"`
	EpisodesWatched   *int        `json:"episodes_watched,omitempty"`
	DateAdded         time.Time   `json:"date_added"`
	DateStatusUpdated time.Time   `json:"date_status_updated"`
}

// WatchlistItem is a watchlist entry joined with its anime summary, as
// rendered on the watchlist page.
type WatchlistItem struct {
	WatchlistEntry
	Title        string `json:"title"`
	PosterPath   string `json:"poster_path,omitempty"`
	EpisodeCount int    `json:"episode_count,omitempty"`
}

// AddWatchlistRequest carries the add-to-watchlist form fields. Status is
// optional and coerced; rating and episodes are stored as given.
type AddWatchlistRequest struct {
	AnimeID         int    `json:"anime_id"`
	Status          string `json:"status,omitempty"`
	UserRating      *int   `json:"user_rating,omitempty"`
	EpisodesWatched *int   `json:"episodes_watched,omitempty"`
}

// UpdateWatchlistRequest carries the update-watchlist form fields. Unlike
// add, status and rating are validated strictly.
type UpdateWatchlistRequest struct {
	AnimeID         int    `json:"anime_id"`
	Status          string `json:"status"`
	UserRating      *int   `json:"user_rating,omitempty"`
	EpisodesWatched *int   `json:"episodes_watched,omitempty"`
}

// WatchlistStats is the derived read-model computed from a user's listed
// entries; nothing here is persisted.
type WatchlistStats struct {
	StatusCounts    map[WatchStatus]int `json:"status_counts"`
	TotalEntries    int                 `json:"total_entries"`
	TotalEpisodes   int                 `json:"total_episodes"`
	WatchedEpisodes int                 `json:"watched_episodes"`
	CompletionRate  float64             `json:"completion_rate"`
	RatedCount      int                 `json:"rated_count"`
	AverageRating   *float64            `json:"average_rating,omitempty"`
}
