package models

// Genre is a catalog tag referenced by zero or more anime.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
