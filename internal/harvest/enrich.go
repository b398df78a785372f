package harvest

import (
	"context"

	"go.uber.org/zap"

	"qqharvest.com/m/internal/qqmusic"
	"qqharvest.com/m/internal/store"
	"qqharvest.com/m/internal/tags"
)

// enrichSong runs the fixed step sequence for one song. Every step checks
// stored state before acting so a crash mid-song resumes cleanly, and no
// step failure aborts the remaining steps.
func (h *Harvester) enrichSong(ctx context.Context, info *qqmusic.SongInfo) {
	artistNames := make([]string, 0, len(info.Singer))
	for _, singer := range info.Singer {
		artistNames = append(artistNames, singer.Name)
	}

	song := &store.Song{
		SongID:      info.Mid,
		Name:        info.Name,
		AlbumName:   info.Album.Name,
		AlbumMid:    info.Album.Mid,
		ArtistNames: artistNames,
	}
	if err := h.store.UpsertSongIdentity(ctx, song); err != nil {
		// Without an identity row no later step can persist anything.
		h.metrics.StepErrors.Inc()
		h.logger.Error("Identity upsert failed, abandoning song",
			zap.String("song_id", song.SongID), zap.Error(err))
		return
	}

	h.tagStep(ctx, song)
	h.wait(ctx, h.cfg.StepDelay)

	h.coverStep(ctx, song)
	h.wait(ctx, h.cfg.StepDelay)

	h.commentStep(ctx, song, info.ID)
	h.wait(ctx, h.cfg.StepDelay)

	h.lyricStep(ctx, song)

	if h.cfg.DownloadAudio {
		h.wait(ctx, h.cfg.StepDelay)
		h.audioStep(ctx, song)
	}
}

// tagStep derives and stores the tag set unless one is already stored. A
// failed detail fetch leaves tags null so a future run retries.
func (h *Harvester) tagStep(ctx context.Context, song *store.Song) {
	stored, err := h.store.Tags(ctx, song.SongID)
	if err != nil {
		h.stepError("tags", song.SongID, err)
		return
	}
	if stored != "" {
		return
	}

	detail, err := h.api.TrackDetail(ctx, song.SongID)
	if err != nil {
		h.stepError("tags", song.SongID, err)
		return
	}

	derived := tags.Derive(nil, detail)
	if err := h.store.UpdateSongTags(ctx, song.SongID, derived); err != nil {
		h.stepError("tags", song.SongID, err)
		return
	}
	h.logger.Info("Stored tags",
		zap.String("song_id", song.SongID),
		zap.Strings("tags", derived))
}

// coverStep downloads the album cover unless one is already stored. Songs
// without an album mid have no cover URL and stay null.
func (h *Harvester) coverStep(ctx context.Context, song *store.Song) {
	stored, err := h.store.CoverPath(ctx, song.SongID)
	if err != nil {
		h.stepError("cover", song.SongID, err)
		return
	}
	if stored != "" {
		return
	}

	coverURL := qqmusic.CoverURL(song.AlbumMid)
	if coverURL == "" {
		h.logger.Debug("Song has no album mid, skipping cover",
			zap.String("song_id", song.SongID))
		return
	}

	coverPath := h.coverFilePath(song.Name, song.SongID)
	size, _, err := h.downloadToFile(ctx, coverURL, coverPath)
	if err != nil {
		h.stepError("cover", song.SongID, err)
		return
	}
	h.metrics.DownloadedBytes.Add(float64(size))

	if err := h.store.UpdateSongCover(ctx, song.SongID, coverPath); err != nil {
		h.stepError("cover", song.SongID, err)
		return
	}
	h.logger.Info("Stored cover",
		zap.String("song_id", song.SongID),
		zap.String("path", coverPath))
}

// commentStep paginates the comment endpoint and inserts everything
// idempotently, up to the per-song cap. The step is gated on already-stored
// comments unless RefetchComments forces a full re-crawl.
func (h *Harvester) commentStep(ctx context.Context, song *store.Song, songNumericID int64) {
	if songNumericID == 0 {
		h.logger.Debug("Song has no numeric id, skipping comments",
			zap.String("song_id", song.SongID))
		return
	}

	if !h.cfg.RefetchComments {
		count, err := h.store.CommentCount(ctx, song.SongID)
		if err != nil {
			h.stepError("comments", song.SongID, err)
			return
		}
		if count > 0 {
			return
		}
	}

	var collected []*store.Comment
	page := 0
	for len(collected) < h.cfg.MaxCommentsPerSong {
		comments, err := h.api.CommentsPage(ctx, songNumericID, page, h.cfg.CommentsPerPage)
		if err != nil {
			h.stepError("comments", song.SongID, err)
			break
		}
		if len(comments) == 0 {
			break
		}

		for _, c := range comments {
			collected = append(collected, &store.Comment{
				CommentID:    c.ID,
				SongID:       song.SongID,
				UserNickname: c.Nick,
				Content:      c.Content,
				LikedCount:   c.Praise,
				CommentTime:  c.Time,
			})
		}
		page++
		h.wait(ctx, h.cfg.StepDelay)
		if ctx.Err() != nil {
			break
		}
	}

	if len(collected) == 0 {
		return
	}
	inserted, err := h.store.InsertComments(ctx, collected)
	if err != nil {
		h.stepError("comments", song.SongID, err)
		return
	}
	h.metrics.CommentsStored.Add(float64(inserted))
	h.logger.Info("Stored comments",
		zap.String("song_id", song.SongID),
		zap.Int("fetched", len(collected)),
		zap.Int("inserted", inserted))
}

// lyricStep fetches and stores the lyric text unless one is already stored.
// Songs without lyrics stay null; that is a normal outcome.
func (h *Harvester) lyricStep(ctx context.Context, song *store.Song) {
	stored, err := h.store.Lyrics(ctx, song.SongID)
	if err != nil {
		h.stepError("lyrics", song.SongID, err)
		return
	}
	if stored != "" {
		return
	}

	lyrics, err := h.api.Lyrics(ctx, song.SongID)
	if err != nil {
		h.stepError("lyrics", song.SongID, err)
		return
	}
	if lyrics == "" {
		h.logger.Debug("No lyrics for song", zap.String("song_id", song.SongID))
		return
	}

	if err := h.store.UpdateSongLyrics(ctx, song.SongID, lyrics); err != nil {
		h.stepError("lyrics", song.SongID, err)
		return
	}
	h.logger.Info("Stored lyrics", zap.String("song_id", song.SongID))
}

// audioStep resolves and downloads the audio file when file_path is still
// null. Resolution reporting no stream is permanent and records the
// sentinel; everything else is transient and leaves the field null.
func (h *Harvester) audioStep(ctx context.Context, song *store.Song) {
	stored, err := h.store.FilePath(ctx, song.SongID)
	if err != nil {
		h.stepError("audio", song.SongID, err)
		return
	}
	if stored != "" {
		return
	}

	streamURL, err := h.api.StreamURL(ctx, song.SongID)
	if err != nil {
		h.stepError("audio", song.SongID, err)
		return
	}
	if streamURL == "" {
		if err := h.store.MarkAudioUnavailable(ctx, song.SongID); err != nil {
			h.stepError("audio", song.SongID, err)
			return
		}
		h.metrics.AudioUnavailable.Inc()
		h.logger.Info("Song has no streamable audio, marked unavailable",
			zap.String("song_id", song.SongID))
		return
	}

	audioPath := h.audioFilePath(song.Name, song.SongID)
	size, md5sum, err := h.downloadToFile(ctx, streamURL, audioPath)
	if err != nil {
		h.stepError("audio", song.SongID, err)
		return
	}
	h.metrics.DownloadedBytes.Add(float64(size))

	if err := h.store.UpdateSongAudio(ctx, song.SongID, audioPath, size, md5sum); err != nil {
		h.stepError("audio", song.SongID, err)
		return
	}
	h.logger.Info("Stored audio",
		zap.String("song_id", song.SongID),
		zap.String("path", audioPath),
		zap.Int64("size", size),
		zap.String("md5", md5sum))
}

func (h *Harvester) stepError(step, songID string, err error) {
	h.metrics.StepErrors.Inc()
	h.logger.Warn("Enrichment step failed",
		zap.String("step", step),
		zap.String("song_id", songID),
		zap.Error(err))
}
