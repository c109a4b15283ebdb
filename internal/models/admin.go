package models

import "time"

// DashboardStats aggregates the counters shown on the admin dashboard.
type DashboardStats struct {
	TotalUsers            int                 `json:"total_users"`
	TotalAnime            int                 `json:"total_anime"`
	TotalGenres           int                 `json:"total_genres"`
	TotalWatchlistEntries int                 `json:"total_watchlist_entries"`
	NewUsers7d            int                 `json:"new_users_7d"`
	NewAnime30d           int                 `json:"new_anime_30d"`
	WatchlistByStatus     map[WatchStatus]int `json:"watchlist_by_status"`
	UnreadMessages        int                 `json:"unread_messages"`
}

// UserListItem is the user row shown in the admin user management table.
type UserListItem struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UpdateRoleRequest carries the admin change-role form fields.
type UpdateRoleRequest struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
}
