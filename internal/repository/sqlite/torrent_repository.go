package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"remux-tracker/internal/domain"
	"remux-tracker/internal/repository"
)

// The unique index is the dedup key. SQLite's default BINARY collation keeps
// release_group comparison case-sensitive.
const createTorrentsTable = `
CREATE TABLE IF NOT EXISTS torrents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	movie_id INTEGER NOT NULL,
	release_group TEXT NOT NULL,
	resolution TEXT NOT NULL DEFAULT '',
	quality TEXT NOT NULL DEFAULT '',
	encode TEXT NOT NULL DEFAULT '',
	indexers TEXT NOT NULL DEFAULT '[]',
	size INTEGER NOT NULL DEFAULT 0,
	magnet_link TEXT NOT NULL DEFAULT '',
	info_hash TEXT NOT NULL DEFAULT '',
	links TEXT NOT NULL DEFAULT '[]',
	file_name TEXT NOT NULL DEFAULT '',
	first_seen DATETIME NOT NULL,
	visual_tags TEXT NOT NULL DEFAULT '[]',
	audio_tags TEXT NOT NULL DEFAULT '[]',
	audio_channels TEXT NOT NULL DEFAULT '[]',
	languages TEXT NOT NULL DEFAULT '[]',
	rank INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_torrents_match ON torrents(movie_id, release_group, resolution, quality, encode);
CREATE INDEX IF NOT EXISTS idx_torrents_movie_id ON torrents(movie_id);
`

const torrentColumns = `id, movie_id, release_group, resolution, quality, encode, indexers, size, magnet_link, info_hash, links, file_name, first_seen, visual_tags, audio_tags, audio_channels, languages, rank, created_at, updated_at`

type TorrentRepository struct {
	db *sql.DB
}

func NewTorrentRepository(db *sql.DB) repository.TorrentRepository {
	return &TorrentRepository{db: db}
}

func (r *TorrentRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTorrentsTable); err != nil {
		return fmt.Errorf("create torrents table: %w", err)
	}
	return nil
}

func (r *TorrentRepository) FindByKey(ctx context.Context, key domain.TorrentKey) (*domain.Torrent, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+torrentColumns+`
FROM torrents
WHERE movie_id=? AND release_group=? AND resolution=? AND quality=? AND encode=?`,
		key.MovieID,
		key.ReleaseGroup,
		string(key.Resolution),
		string(key.Quality),
		string(key.Encode),
	)
	return scanTorrent(row)
}

func (r *TorrentRepository) Create(ctx context.Context, torrent *domain.Torrent) (int64, error) {
	now := time.Now().UTC()
	torrent.CreatedAt = now
	torrent.UpdatedAt = now
	if torrent.FirstSeen.IsZero() {
		torrent.FirstSeen = now
	}

	cols, err := encodeTorrentSets(torrent)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO torrents (movie_id, release_group, resolution, quality, encode, indexers, size, magnet_link, info_hash, links, file_name, first_seen, visual_tags, audio_tags, audio_channels, languages, rank, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		torrent.MovieID,
		torrent.ReleaseGroup,
		string(torrent.Resolution),
		string(torrent.Quality),
		string(torrent.Encode),
		cols.indexers,
		torrent.Size,
		torrent.MagnetLink,
		torrent.InfoHash,
		cols.links,
		torrent.FileName,
		torrent.FirstSeen.UTC(),
		cols.visualTags,
		cols.audioTags,
		cols.audioChannels,
		cols.languages,
		torrent.Rank,
		torrent.CreatedAt,
		torrent.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return 0, fmt.Errorf("torrent already exists: %w", err)
		}
		return 0, fmt.Errorf("insert torrent: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("torrent last insert id: %w", err)
	}
	torrent.ID = id
	return id, nil
}

// Update rewrites the mutable columns. The dedup key, first_seen and file_name
// belong to the first sighting and are left untouched.
func (r *TorrentRepository) Update(ctx context.Context, torrent *domain.Torrent) error {
	torrent.UpdatedAt = time.Now().UTC()

	cols, err := encodeTorrentSets(torrent)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE torrents
SET indexers=?, magnet_link=?, info_hash=?, links=?, rank=?, updated_at=?
WHERE id=?`,
		cols.indexers,
		torrent.MagnetLink,
		torrent.InfoHash,
		cols.links,
		torrent.Rank,
		torrent.UpdatedAt,
		torrent.ID,
	)
	if err != nil {
		return fmt.Errorf("update torrent: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("torrent update rows affected: %w", err)
	}
	if aff == 0 {
		return fmt.Errorf("torrent %d: %w", torrent.ID, repository.ErrNotFound)
	}
	return nil
}

func (r *TorrentRepository) ListByMovie(ctx context.Context, movieID int64) ([]domain.Torrent, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+torrentColumns+`
FROM torrents
WHERE movie_id=?
ORDER BY rank DESC, id ASC`,
		movieID,
	)
	if err != nil {
		return nil, fmt.Errorf("query torrents: %w", err)
	}
	defer rows.Close()

	torrents := []domain.Torrent{}
	for rows.Next() {
		torrent, err := scanTorrent(rows)
		if err != nil {
			return nil, err
		}
		torrents = append(torrents, *torrent)
	}
	return torrents, rows.Err()
}

func (r *TorrentRepository) MovieIDsWithQuality(ctx context.Context, quality domain.Quality) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT movie_id FROM torrents WHERE quality=? ORDER BY movie_id`, string(quality))
	if err != nil {
		return nil, fmt.Errorf("query torrent movie ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan movie id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type torrentSetColumns struct {
	indexers      string
	links         string
	visualTags    string
	audioTags     string
	audioChannels string
	languages     string
}

func encodeTorrentSets(t *domain.Torrent) (torrentSetColumns, error) {
	var (
		cols torrentSetColumns
		err  error
	)
	if cols.indexers, err = encodeList(t.Indexers); err != nil {
		return cols, fmt.Errorf("encode indexers: %w", err)
	}
	if cols.links, err = encodeList(t.Links); err != nil {
		return cols, fmt.Errorf("encode links: %w", err)
	}
	if cols.visualTags, err = encodeList(t.VisualTags); err != nil {
		return cols, fmt.Errorf("encode visual tags: %w", err)
	}
	if cols.audioTags, err = encodeList(t.AudioTags); err != nil {
		return cols, fmt.Errorf("encode audio tags: %w", err)
	}
	if cols.audioChannels, err = encodeList(t.AudioChannels); err != nil {
		return cols, fmt.Errorf("encode audio channels: %w", err)
	}
	if cols.languages, err = encodeList(t.Languages); err != nil {
		return cols, fmt.Errorf("encode languages: %w", err)
	}
	return cols, nil
}

func encodeList[T any](values []T) (string, error) {
	if values == nil {
		values = []T{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList[T any](raw string, dest *[]T) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return err
	}
	if len(*dest) == 0 {
		*dest = nil
	}
	return nil
}

func scanTorrent(scanner interface {
	Scan(dest ...any) error
}) (*domain.Torrent, error) {
	var (
		torrent                  domain.Torrent
		resolution, quality, enc string
		indexers, links          string
		visual, audio, channels  string
		langs                    string
		firstSeen                time.Time
		createdAt, updatedAt     time.Time
	)
	if err := scanner.Scan(
		&torrent.ID,
		&torrent.MovieID,
		&torrent.ReleaseGroup,
		&resolution,
		&quality,
		&enc,
		&indexers,
		&torrent.Size,
		&torrent.MagnetLink,
		&torrent.InfoHash,
		&links,
		&torrent.FileName,
		&firstSeen,
		&visual,
		&audio,
		&channels,
		&langs,
		&torrent.Rank,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("torrent: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan torrent: %w", err)
	}

	torrent.Resolution = domain.Resolution(resolution)
	torrent.Quality = domain.Quality(quality)
	torrent.Encode = domain.Encode(enc)
	torrent.FirstSeen = firstSeen.Local()
	torrent.CreatedAt = createdAt.Local()
	torrent.UpdatedAt = updatedAt.Local()

	for _, col := range []struct {
		name string
		fn   func() error
	}{
		{"indexers", func() error { return decodeList(indexers, &torrent.Indexers) }},
		{"links", func() error { return decodeList(links, &torrent.Links) }},
		{"visual_tags", func() error { return decodeList(visual, &torrent.VisualTags) }},
		{"audio_tags", func() error { return decodeList(audio, &torrent.AudioTags) }},
		{"audio_channels", func() error { return decodeList(channels, &torrent.AudioChannels) }},
		{"languages", func() error { return decodeList(langs, &torrent.Languages) }},
	} {
		if err := col.fn(); err != nil {
			return nil, fmt.Errorf("decode %s: %w", col.name, err)
		}
	}

	return &torrent, nil
}
