package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Comment is one row of the comments table. Comments are inserted in batches
// during enrichment and never mutated afterward.
type Comment struct {
	CommentID    string `json:"comment_id"`
	SongID       string `json:"song_id"`
	UserNickname string `json:"user_nickname"`
	Content      string `json:"content"`
	LikedCount   int64  `json:"liked_count"`
	CommentTime  int64  `json:"comment_time"`
}

// InsertComments inserts a batch of comments, ignoring any whose comment_id
// is already present. It returns the number of rows actually inserted.
func (s *Store) InsertComments(ctx context.Context, comments []*Comment) (int, error) {
	if len(comments) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin comment transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, comment := range comments {
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO comments
				(comment_id, song_id, user_nickname, content, liked_count, comment_time)
			VALUES (?, ?, ?, ?, ?, ?)`,
			comment.CommentID, comment.SongID, comment.UserNickname,
			comment.Content, comment.LikedCount, comment.CommentTime)
		if err != nil {
			return 0, fmt.Errorf("insert comment %s: %w", comment.CommentID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected for comment %s: %w", comment.CommentID, err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit comment transaction: %w", err)
	}
	return inserted, nil
}

// CommentCount returns how many comments are stored for a song.
func (s *Store) CommentCount(ctx context.Context, songID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM comments WHERE song_id = ?", songID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count comments for song %s: %w", songID, err)
	}
	return count, nil
}

// TopComments returns the n most-liked comments for a song, most liked first.
// This is the query the liked_count index exists for.
func (s *Store) TopComments(ctx context.Context, songID string, n int) ([]*Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT comment_id, song_id, user_nickname, content, liked_count, comment_time
		FROM comments WHERE song_id = ?
		ORDER BY liked_count DESC LIMIT ?`, songID, n)
	if err != nil {
		return nil, fmt.Errorf("query top comments for song %s: %w", songID, err)
	}
	defer rows.Close()

	return scanComments(rows)
}

// AllComments returns every comment row, grouped by song for export.
func (s *Store) AllComments(ctx context.Context) ([]*Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT comment_id, song_id, user_nickname, content, liked_count, comment_time
		FROM comments ORDER BY song_id, liked_count DESC`)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	return scanComments(rows)
}

func scanComments(rows *sql.Rows) ([]*Comment, error) {
	var comments []*Comment
	for rows.Next() {
		var c Comment
		err := rows.Scan(&c.CommentID, &c.SongID, &c.UserNickname,
			&c.Content, &c.LikedCount, &c.CommentTime)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}
