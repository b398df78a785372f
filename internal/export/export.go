// Package export dumps the harvested store to a spreadsheet for downstream
// consumers, one sheet per table.
package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"qqharvest.com/m/internal/store"
)

var songHeaders = []string{
	"song_id", "name", "album_name", "album_mid", "artist_names",
	"cover_path", "tags", "lrc", "file_path", "file_size", "file_md5",
}

var commentHeaders = []string{
	"comment_id", "song_id", "user_nickname", "content", "liked_count", "comment_time",
}

// ToExcel writes every song and comment row to an xlsx workbook with Songs
// and Comments sheets.
func ToExcel(ctx context.Context, st *store.Store, path string, logger *zap.Logger) error {
	songs, err := st.AllSongs(ctx)
	if err != nil {
		return fmt.Errorf("load songs for export: %w", err)
	}
	comments, err := st.AllComments(ctx)
	if err != nil {
		return fmt.Errorf("load comments for export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeSongsSheet(f, songs); err != nil {
		return err
	}
	if err := writeCommentsSheet(f, comments); err != nil {
		return err
	}

	// Drop the default sheet so the workbook only has the two data sheets.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save export to %s: %w", path, err)
	}

	logger.Info("Exported database to spreadsheet",
		zap.String("path", path),
		zap.Int("songs", len(songs)),
		zap.Int("comments", len(comments)))
	return nil
}

func writeSongsSheet(f *excelize.File, songs []*store.Song) error {
	const sheet = "Songs"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("new sheet %s: %w", sheet, err)
	}
	if err := writeRow(f, sheet, 1, toCells(songHeaders)); err != nil {
		return err
	}

	for i, song := range songs {
		row := []any{
			song.SongID,
			song.Name,
			song.AlbumName,
			song.AlbumMid,
			strings.Join(song.ArtistNames, ", "),
			song.CoverPath,
			strings.Join(song.Tags, ", "),
			song.Lyrics,
			song.FilePath,
			song.FileSize,
			song.FileMD5,
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeCommentsSheet(f *excelize.File, comments []*store.Comment) error {
	const sheet = "Comments"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("new sheet %s: %w", sheet, err)
	}
	if err := writeRow(f, sheet, 1, toCells(commentHeaders)); err != nil {
		return err
	}

	for i, comment := range comments {
		row := []any{
			comment.CommentID,
			comment.SongID,
			comment.UserNickname,
			comment.Content,
			comment.LikedCount,
			comment.CommentTime,
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("cell name for %s row %d: %w", sheet, row, err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("set cell %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func toCells(headers []string) []any {
	cells := make([]any, len(headers))
	for i, h := range headers {
		cells[i] = h
	}
	return cells
}
