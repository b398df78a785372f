package store

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// AudioUnavailable is the sentinel stored in file_path when audio URL
// resolution permanently failed for a song. It marks "do not retry", as
// opposed to NULL meaning "not yet attempted".
const AudioUnavailable = "UNAVAILABLE"

const schema = `
CREATE TABLE IF NOT EXISTS songs (
	song_id      TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	album_name   TEXT,
	album_mid    TEXT,
	artist_names TEXT,
	cover_path   TEXT,
	tags         TEXT,
	lrc          TEXT,
	file_path    TEXT,
	file_size    INTEGER,
	file_md5     TEXT
);

CREATE TABLE IF NOT EXISTS comments (
	comment_id    TEXT PRIMARY KEY,
	song_id       TEXT NOT NULL,
	user_nickname TEXT,
	content       TEXT,
	liked_count   INTEGER,
	comment_time  INTEGER,
	FOREIGN KEY (song_id) REFERENCES songs (song_id)
);

CREATE INDEX IF NOT EXISTS idx_comments_song_id ON comments (song_id);
CREATE INDEX IF NOT EXISTS idx_comments_liked_count ON comments (liked_count DESC);
`

// Store is the single owner of persisted song and comment state. All
// components read and write through it so that an interruption at any point
// leaves the database resumable.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (or creates) the sqlite database at path and ensures the schema
// and indexes exist.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}

	// The crawl is strictly sequential; a single connection keeps sqlite's
	// writer lock uncontended.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	logger.Info("Database ready", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
