package qqmusic

import (
	"context"

	"go.uber.org/zap"
)

type singerListResponse struct {
	Code       int `json:"code"`
	SingerList struct {
		Code int `json:"code"`
		Data struct {
			SingerList []SingerEntry `json:"singerlist"`
		} `json:"data"`
	} `json:"singerList"`
}

// AllSingers pages through the upstream singer directory (all areas, sexes,
// genres and indexes) and returns every entry with both a mid and a name.
func (c *Client) AllSingers(ctx context.Context) ([]SingerEntry, error) {
	const op = "get_singer_list"

	var singers []SingerEntry
	page := 1

	for {
		payload := map[string]any{
			"comm": map[string]any{"ct": "24", "cv": "10000"},
			"singerList": map[string]any{
				"module": "Music.SingerListServer",
				"method": "get_singer_list",
				"param": map[string]any{
					"area":     -100,
					"sex":      -100,
					"genre":    -100,
					"index":    -100,
					"sin":      (page - 1) * c.cfg.PageSize,
					"cur_page": page,
				},
			},
		}

		var resp singerListResponse
		if err := c.postEnvelope(ctx, op, payload, &resp); err != nil {
			if len(singers) == 0 {
				return nil, err
			}
			c.logger.Warn("Singer list page failed, keeping partial result",
				zap.Int("page", page), zap.Error(err))
			return singers, nil
		}
		if resp.Code != 0 {
			if len(singers) == 0 {
				return nil, upstreamError(op, resp.Code)
			}
			return singers, nil
		}

		entries := resp.SingerList.Data.SingerList
		if len(entries) == 0 {
			break
		}
		for _, entry := range entries {
			if entry.Mid != "" && entry.Name != "" {
				singers = append(singers, entry)
			}
		}

		c.logger.Info("Fetched singer directory page",
			zap.Int("page", page),
			zap.Int("page_singers", len(entries)),
			zap.Int("accumulated", len(singers)))

		page++
		sleep(ctx, c.cfg.PageDelay)
		if ctx.Err() != nil {
			break
		}
	}

	return singers, nil
}
