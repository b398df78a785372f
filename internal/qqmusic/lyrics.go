package qqmusic

import (
	"context"
	"encoding/base64"
	"fmt"
)

type lyricResponse struct {
	Code int `json:"code"`
	Req  struct {
		Code int `json:"code"`
		Data struct {
			Lyric string `json:"lyric"`
		} `json:"data"`
	} `json:"req_lyric"`
}

// Lyrics fetches and decodes the lyric text for a song. The upstream wraps
// lyrics in base64. A song without lyrics returns "" with no error; that is
// a normal outcome, not a failure.
func (c *Client) Lyrics(ctx context.Context, songMid string) (string, error) {
	const op = "GetPlayLyricInfo"

	payload := map[string]any{
		"comm": map[string]any{"ct": 24, "cv": 0, "g_tk": 5381},
		"req_lyric": map[string]any{
			"module": "music.musichallSong.PlayLyricInfo",
			"method": "GetPlayLyricInfo",
			"param":  map[string]any{"songMID": songMid},
		},
	}

	var resp lyricResponse
	if err := c.postEnvelope(ctx, op, payload, &resp); err != nil {
		return "", err
	}
	if resp.Code != 0 || resp.Req.Code != 0 {
		return "", upstreamError(op, firstNonZero(resp.Code, resp.Req.Code))
	}
	if resp.Req.Data.Lyric == "" {
		return "", nil
	}

	decoded, err := base64.StdEncoding.DecodeString(resp.Req.Data.Lyric)
	if err != nil {
		return "", &Error{Kind: KindMalformed, Op: op,
			Err: fmt.Errorf("decode lyric payload: %w", err)}
	}
	return string(decoded), nil
}
