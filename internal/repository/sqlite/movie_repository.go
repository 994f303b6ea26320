package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"remux-tracker/internal/domain"
	"remux-tracker/internal/repository"
)

// physical_release_date is stored as unix seconds so range queries compare numerically.
const createMoviesTable = `
CREATE TABLE IF NOT EXISTS movies (
	tmdb_id INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	year INTEGER NOT NULL DEFAULT 0,
	poster_path TEXT NOT NULL DEFAULT '',
	physical_release_date INTEGER NULL,
	has_released INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_movies_physical_release_date ON movies(physical_release_date);
CREATE INDEX IF NOT EXISTS idx_movies_has_released ON movies(has_released);
`

const movieColumns = `tmdb_id, title, year, poster_path, physical_release_date, has_released, created_at, updated_at`

type MovieRepository struct {
	db *sql.DB
}

func NewMovieRepository(db *sql.DB) repository.MovieRepository {
	return &MovieRepository{db: db}
}

func (r *MovieRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createMoviesTable); err != nil {
		return fmt.Errorf("create movies table: %w", err)
	}
	return nil
}

func (r *MovieRepository) Upsert(ctx context.Context, movie *domain.Movie) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var createdAt time.Time
	err = tx.QueryRowContext(ctx, `SELECT created_at FROM movies WHERE tmdb_id=?`, movie.TMDBID).Scan(&createdAt)
	created := errors.Is(err, sql.ErrNoRows)
	if err != nil && !created {
		return false, fmt.Errorf("lookup movie: %w", err)
	}

	now := time.Now().UTC()
	movie.UpdatedAt = now
	if created {
		movie.CreatedAt = now
		_, err = tx.ExecContext(ctx, `
INSERT INTO movies (`+movieColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			movie.TMDBID,
			movie.Title,
			movie.Year,
			movie.PosterPath,
			unixOrNull(movie.PhysicalReleaseDate),
			movie.HasReleased,
			movie.CreatedAt,
			movie.UpdatedAt,
		)
		if err != nil {
			return false, fmt.Errorf("insert movie: %w", err)
		}
	} else {
		movie.CreatedAt = createdAt.Local()
		_, err = tx.ExecContext(ctx, `
UPDATE movies
SET title=?, year=?, poster_path=?, physical_release_date=?, has_released=?, updated_at=?
WHERE tmdb_id=?`,
			movie.Title,
			movie.Year,
			movie.PosterPath,
			unixOrNull(movie.PhysicalReleaseDate),
			movie.HasReleased,
			movie.UpdatedAt,
			movie.TMDBID,
		)
		if err != nil {
			return false, fmt.Errorf("update movie: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit movie upsert: %w", err)
	}
	return created, nil
}

func (r *MovieRepository) Get(ctx context.Context, tmdbID int64) (*domain.Movie, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE tmdb_id=?`, tmdbID)
	return scanMovie(row)
}

func (r *MovieRepository) ListByIDs(ctx context.Context, tmdbIDs []int64) ([]domain.Movie, error) {
	if len(tmdbIDs) == 0 {
		return []domain.Movie{}, nil
	}

	placeholders := make([]string, len(tmdbIDs))
	args := make([]any, len(tmdbIDs))
	for i, id := range tmdbIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT `+movieColumns+` FROM movies WHERE tmdb_id IN (%s) ORDER BY tmdb_id ASC`,
		strings.Join(placeholders, ","))
	return r.queryMovies(ctx, query, args...)
}

func (r *MovieRepository) ListReleased(ctx context.Context) ([]domain.Movie, error) {
	return r.queryMovies(ctx, `SELECT `+movieColumns+` FROM movies WHERE has_released=1 ORDER BY tmdb_id ASC`)
}

func (r *MovieRepository) ListPhysicalBetween(ctx context.Context, from, to time.Time) ([]domain.Movie, error) {
	return r.queryMovies(ctx, `
SELECT `+movieColumns+`
FROM movies
WHERE physical_release_date BETWEEN ? AND ?
ORDER BY physical_release_date ASC`,
		from.Unix(),
		to.Unix(),
	)
}

func (r *MovieRepository) ListUpcoming(ctx context.Context, now time.Time) ([]domain.Movie, error) {
	return r.queryMovies(ctx, `
SELECT `+movieColumns+`
FROM movies
WHERE has_released=0 AND physical_release_date >= ?
ORDER BY physical_release_date ASC`,
		now.Unix(),
	)
}

func (r *MovieRepository) ListReleasedWithTorrents(ctx context.Context) ([]domain.Movie, error) {
	return r.queryMovies(ctx, `
SELECT `+movieColumns+`
FROM movies m
WHERE m.has_released=1 AND EXISTS (SELECT 1 FROM torrents t WHERE t.movie_id = m.tmdb_id)
ORDER BY m.physical_release_date DESC`)
}

func (r *MovieRepository) queryMovies(ctx context.Context, query string, args ...any) ([]domain.Movie, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer rows.Close()

	movies := []domain.Movie{}
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, *movie)
	}
	return movies, rows.Err()
}

func scanMovie(scanner interface {
	Scan(dest ...any) error
}) (*domain.Movie, error) {
	var (
		movie     domain.Movie
		physical  sql.NullInt64
		createdAt time.Time
		updatedAt time.Time
	)
	if err := scanner.Scan(
		&movie.TMDBID,
		&movie.Title,
		&movie.Year,
		&movie.PosterPath,
		&physical,
		&movie.HasReleased,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("movie: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan movie: %w", err)
	}

	if physical.Valid {
		t := time.Unix(physical.Int64, 0).UTC()
		movie.PhysicalReleaseDate = &t
	}
	movie.CreatedAt = createdAt.Local()
	movie.UpdatedAt = updatedAt.Local()
	return &movie, nil
}

func unixOrNull(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}
