package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Song is one row of the songs table. Optional fields are empty strings /
// zero values when the corresponding column is NULL.
type Song struct {
	SongID      string   `json:"song_id"`
	Name        string   `json:"name"`
	AlbumName   string   `json:"album_name"`
	AlbumMid    string   `json:"album_mid"`
	ArtistNames []string `json:"artist_names"`
	CoverPath   string   `json:"cover_path,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Lyrics      string   `json:"lrc,omitempty"`
	FilePath    string   `json:"file_path,omitempty"`
	FileSize    int64    `json:"file_size,omitempty"`
	FileMD5     string   `json:"file_md5,omitempty"`
}

// UpsertSongIdentity inserts the identity and descriptive fields of a song.
// If the song already exists the call is a no-op: the first insert wins and
// later descriptive fields are ignored.
func (s *Store) UpsertSongIdentity(ctx context.Context, song *Song) error {
	artistsJSON, err := json.Marshal(song.ArtistNames)
	if err != nil {
		return fmt.Errorf("marshal artist names for song %s: %w", song.SongID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO songs (song_id, name, album_name, album_mid, artist_names)
		VALUES (?, ?, ?, ?, ?)`,
		song.SongID, song.Name, song.AlbumName, song.AlbumMid, string(artistsJSON))
	if err != nil {
		return fmt.Errorf("upsert song %s: %w", song.SongID, err)
	}
	return nil
}

// UpdateSongTags stores the derived tag set for a song. An empty set is
// stored as "[]", which still counts as "tags computed".
func (s *Store) UpdateSongTags(ctx context.Context, songID string, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshal tags for song %s: %w", songID, err)
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE songs SET tags = ? WHERE song_id = ?", string(tagsJSON), songID)
	if err != nil {
		return fmt.Errorf("update tags for song %s: %w", songID, err)
	}
	return nil
}

// UpdateSongCover stores the local cover path for a song.
func (s *Store) UpdateSongCover(ctx context.Context, songID, coverPath string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE songs SET cover_path = ? WHERE song_id = ?", coverPath, songID)
	if err != nil {
		return fmt.Errorf("update cover for song %s: %w", songID, err)
	}
	return nil
}

// UpdateSongLyrics stores the decoded lyric text for a song.
func (s *Store) UpdateSongLyrics(ctx context.Context, songID, lyrics string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE songs SET lrc = ? WHERE song_id = ?", lyrics, songID)
	if err != nil {
		return fmt.Errorf("update lyrics for song %s: %w", songID, err)
	}
	return nil
}

// UpdateSongAudio records a completed audio download. Path, size and hash are
// written in one statement so a crash can never leave them half-populated.
func (s *Store) UpdateSongAudio(ctx context.Context, songID, filePath string, fileSize int64, fileMD5 string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE songs SET file_path = ?, file_size = ?, file_md5 = ? WHERE song_id = ?",
		filePath, fileSize, fileMD5, songID)
	if err != nil {
		return fmt.Errorf("update audio for song %s: %w", songID, err)
	}
	return nil
}

// MarkAudioUnavailable writes the permanent-failure sentinel into file_path
// so future runs never retry URL resolution for this song.
func (s *Store) MarkAudioUnavailable(ctx context.Context, songID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE songs SET file_path = ? WHERE song_id = ?", AudioUnavailable, songID)
	if err != nil {
		return fmt.Errorf("mark song %s unavailable: %w", songID, err)
	}
	return nil
}

// HasSong reports whether an identity row exists for the song.
func (s *Store) HasSong(ctx context.Context, songID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM songs WHERE song_id = ?", songID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup song %s: %w", songID, err)
	}
	return true, nil
}

// FilePath returns the stored file_path for a song, or "" when the row is
// absent or the column is NULL. Callers distinguish the sentinel themselves.
func (s *Store) FilePath(ctx context.Context, songID string) (string, error) {
	return s.songText(ctx, "file_path", songID)
}

// CoverPath returns the stored cover_path, or "" when not yet downloaded.
func (s *Store) CoverPath(ctx context.Context, songID string) (string, error) {
	return s.songText(ctx, "cover_path", songID)
}

// Lyrics returns the stored lyric text, or "" when not yet fetched.
func (s *Store) Lyrics(ctx context.Context, songID string) (string, error) {
	return s.songText(ctx, "lrc", songID)
}

// Tags returns the serialized tag set, or "" when tags were never computed.
func (s *Store) Tags(ctx context.Context, songID string) (string, error) {
	return s.songText(ctx, "tags", songID)
}

// songText is the shared point lookup behind the per-field resumability
// checks. column is always one of the fixed names above, never user input.
func (s *Store) songText(ctx context.Context, column, songID string) (string, error) {
	var value sql.NullString
	query := fmt.Sprintf("SELECT %s FROM songs WHERE song_id = ?", column)
	err := s.db.QueryRowContext(ctx, query, songID).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup %s for song %s: %w", column, songID, err)
	}
	return value.String, nil
}

// GetSong returns the full row for a song, or nil when it does not exist.
func (s *Store) GetSong(ctx context.Context, songID string) (*Song, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT song_id, name, album_name, album_mid, artist_names,
		       cover_path, tags, lrc, file_path, file_size, file_md5
		FROM songs WHERE song_id = ?`, songID)

	song, err := s.scanSong(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get song %s: %w", songID, err)
	}
	return song, nil
}

// AllSongs returns every song row, ordered by song_id for deterministic
// export output.
func (s *Store) AllSongs(ctx context.Context) ([]*Song, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT song_id, name, album_name, album_mid, artist_names,
		       cover_path, tags, lrc, file_path, file_size, file_md5
		FROM songs ORDER BY song_id`)
	if err != nil {
		return nil, fmt.Errorf("query songs: %w", err)
	}
	defer rows.Close()

	var songs []*Song
	for rows.Next() {
		song, err := s.scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

// SongsByArtist returns songs whose serialized artist list contains the
// given artist name.
func (s *Store) SongsByArtist(ctx context.Context, artistName string) ([]*Song, error) {
	nameJSON, err := json.Marshal(artistName)
	if err != nil {
		return nil, fmt.Errorf("marshal artist name: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT song_id, name, album_name, album_mid, artist_names,
		       cover_path, tags, lrc, file_path, file_size, file_md5
		FROM songs WHERE artist_names LIKE ? ORDER BY song_id`,
		"%"+string(nameJSON)+"%")
	if err != nil {
		return nil, fmt.Errorf("query songs by artist: %w", err)
	}
	defer rows.Close()

	var songs []*Song
	for rows.Next() {
		song, err := s.scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanSong(row rowScanner) (*Song, error) {
	var song Song
	var albumName, albumMid, artists, cover, tags, lrc, filePath, fileMD5 sql.NullString
	var fileSize sql.NullInt64

	err := row.Scan(&song.SongID, &song.Name, &albumName, &albumMid, &artists,
		&cover, &tags, &lrc, &filePath, &fileSize, &fileMD5)
	if err != nil {
		return nil, err
	}

	song.AlbumName = albumName.String
	song.AlbumMid = albumMid.String
	song.CoverPath = cover.String
	song.Lyrics = lrc.String
	song.FilePath = filePath.String
	song.FileSize = fileSize.Int64
	song.FileMD5 = fileMD5.String

	if artists.Valid && artists.String != "" {
		if err := json.Unmarshal([]byte(artists.String), &song.ArtistNames); err != nil {
			s.logger.Warn("Unparseable artist_names column", zap.String("song_id", song.SongID))
		}
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &song.Tags); err != nil {
			s.logger.Warn("Unparseable tags column", zap.String("song_id", song.SongID))
		}
	}
	return &song, nil
}
