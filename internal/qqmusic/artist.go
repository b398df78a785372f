package qqmusic

import (
	"context"

	"go.uber.org/zap"
)

type singerSongListResponse struct {
	Code int `json:"code"`
	Req  struct {
		Code int `json:"code"`
		Data struct {
			SingerName string `json:"singerName"`
			TotalNum   int    `json:"totalNum"`
			SongList   []struct {
				SongInfo *SongInfo `json:"songInfo"`
			} `json:"songList"`
		} `json:"data"`
	} `json:"req_1"`
}

// ArtistSongs pages through an artist's song list and accumulates every
// entry in arrival order. The loop advances an offset cursor by PageSize and
// terminates on an empty page or an upstream error; the claimed total from
// the first page is logged but never bounds the loop, because claimed totals
// may be stale. Returns nil when zero songs were ever accumulated.
func (c *Client) ArtistSongs(ctx context.Context, artistMid string) (*ArtistCatalog, error) {
	const op = "GetSingerSongList"

	catalog := &ArtistCatalog{ArtistMid: artistMid}
	offset := 0

	for {
		payload := map[string]any{
			"comm": map[string]any{"ct": 24, "cv": 0},
			"req_1": map[string]any{
				"module": "musichall.song_list_server",
				"method": "GetSingerSongList",
				"param": map[string]any{
					"singerMid": artistMid,
					"begin":     offset,
					"num":       c.cfg.PageSize,
					"order":     1, // by release time
				},
			},
		}

		var resp singerSongListResponse
		if err := c.postEnvelope(ctx, op, payload, &resp); err != nil {
			c.logger.Warn("Artist song list page failed",
				zap.String("artist_mid", artistMid),
				zap.Int("offset", offset),
				zap.Error(err))
			if len(catalog.Songs) == 0 {
				return nil, err
			}
			return catalog, nil
		}
		if resp.Code != 0 || resp.Req.Code != 0 {
			err := upstreamError(op, firstNonZero(resp.Code, resp.Req.Code))
			c.logger.Warn("Artist song list page rejected",
				zap.String("artist_mid", artistMid),
				zap.Int("offset", offset),
				zap.Error(err))
			if len(catalog.Songs) == 0 {
				return nil, err
			}
			return catalog, nil
		}

		data := resp.Req.Data
		if catalog.ArtistName == "" && data.SingerName != "" {
			catalog.ArtistName = data.SingerName
			catalog.ClaimedTotal = data.TotalNum
			c.logger.Info("Locked artist",
				zap.String("artist_mid", artistMid),
				zap.String("artist_name", data.SingerName),
				zap.Int("claimed_total", data.TotalNum))
		}

		if len(data.SongList) == 0 {
			break
		}
		for _, entry := range data.SongList {
			catalog.Songs = append(catalog.Songs, entry.SongInfo)
		}

		c.logger.Debug("Fetched artist song page",
			zap.String("artist_mid", artistMid),
			zap.Int("page_songs", len(data.SongList)),
			zap.Int("accumulated", len(catalog.Songs)))

		offset += c.cfg.PageSize
		sleep(ctx, c.cfg.PageDelay)
		if ctx.Err() != nil {
			break
		}
	}

	if len(catalog.Songs) == 0 {
		return nil, nil
	}
	return catalog, nil
}

func firstNonZero(codes ...int) int {
	for _, code := range codes {
		if code != 0 {
			return code
		}
	}
	return 0
}
