package domain

import "time"

// Movie tracks the home-media release of a TMDB title.
type Movie struct {
	TMDBID              int64
	Title               string
	Year                int
	PosterPath          string
	PhysicalReleaseDate *time.Time
	// HasReleased is evaluated when the record is written, not on read.
	HasReleased bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Released reports whether date is on or before now.
func Released(date time.Time, now time.Time) bool {
	return !date.After(now)
}
