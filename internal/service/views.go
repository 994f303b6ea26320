package service

import (
	"time"

	"remux-tracker/internal/domain"
)

type MovieView struct {
	TMDBID              int64   `json:"tmdb_id"`
	Title               string  `json:"title"`
	Year                int     `json:"year"`
	PosterPath          string  `json:"poster_path"`
	PhysicalReleaseDate *string `json:"physical_release_date,omitempty"`
	HasReleased         bool    `json:"has_released"`
	UpdatedAt           string  `json:"updated_at"`
}

type TorrentView struct {
	ID            int64         `json:"id"`
	MovieID       int64         `json:"movie_id"`
	Indexers      []string      `json:"indexers"`
	Resolution    string        `json:"resolution"`
	Quality       string        `json:"quality"`
	Encode        string        `json:"encode"`
	ReleaseGroup  string        `json:"release_group"`
	Size          int64         `json:"size"`
	MagnetLink    string        `json:"magnet_link,omitempty"`
	InfoHash      string        `json:"info_hash,omitempty"`
	Links         []domain.Link `json:"links"`
	FileName      string        `json:"file_name"`
	FirstSeen     string        `json:"first_seen"`
	VisualTags    []string      `json:"visual_tags"`
	AudioTags     []string      `json:"audio_tags"`
	AudioChannels []string      `json:"audio_channels"`
	Languages     []string      `json:"languages"`
	Rank          int           `json:"rank"`
}

type MovieDetailView struct {
	Movie    MovieView     `json:"movie"`
	Torrents []TorrentView `json:"torrents"`
}

// CatalogSnapshot is the exported state of the catalog.
type CatalogSnapshot struct {
	GeneratedAt string            `json:"generated_at"`
	Movies      []MovieDetailView `json:"movies"`
	Upcoming    []MovieView       `json:"upcoming"`
}

func movieToView(movie domain.Movie) MovieView {
	view := MovieView{
		TMDBID:      movie.TMDBID,
		Title:       movie.Title,
		Year:        movie.Year,
		PosterPath:  movie.PosterPath,
		HasReleased: movie.HasReleased,
		UpdatedAt:   movie.UpdatedAt.Format(time.RFC3339),
	}
	if movie.PhysicalReleaseDate != nil {
		v := movie.PhysicalReleaseDate.UTC().Format(time.DateOnly)
		view.PhysicalReleaseDate = &v
	}
	return view
}

func moviesToViews(movies []domain.Movie) []MovieView {
	views := make([]MovieView, len(movies))
	for i := range movies {
		views[i] = movieToView(movies[i])
	}
	return views
}

func torrentToView(t domain.Torrent) TorrentView {
	visual := make([]string, len(t.VisualTags))
	for i, tag := range t.VisualTags {
		visual[i] = string(tag)
	}
	return TorrentView{
		ID:            t.ID,
		MovieID:       t.MovieID,
		Indexers:      nonNil(t.Indexers),
		Resolution:    string(t.Resolution),
		Quality:       string(t.Quality),
		Encode:        string(t.Encode),
		ReleaseGroup:  t.ReleaseGroup,
		Size:          t.Size,
		MagnetLink:    t.MagnetLink,
		InfoHash:      t.InfoHash,
		Links:         nonNil(t.Links),
		FileName:      t.FileName,
		FirstSeen:     t.FirstSeen.UTC().Format(time.RFC3339),
		VisualTags:    visual,
		AudioTags:     nonNil(t.AudioTags),
		AudioChannels: nonNil(t.AudioChannels),
		Languages:     nonNil(t.Languages),
		Rank:          t.Rank,
	}
}

// nonNil keeps empty sets encoded as [] rather than null.
func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
