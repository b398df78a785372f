package qqmusic

import "context"

type trackInfoResponse struct {
	Code int `json:"code"`
	Req  struct {
		Code int `json:"code"`
		Data struct {
			TrackInfo *TrackInfo `json:"track_info"`
		} `json:"data"`
	} `json:"req_1"`
}

// TrackDetail fetches the detail record for a single song. Its attribute
// list carries the language and genre values tag derivation wants.
func (c *Client) TrackDetail(ctx context.Context, songMid string) (*TrackInfo, error) {
	const op = "GetTrackInfo"

	payload := map[string]any{
		"comm": map[string]any{"ct": 24, "cv": 0, "g_tk": 5381},
		"req_1": map[string]any{
			"module": "music.trackInfo.TrackInfoServer",
			"method": "GetTrackInfo",
			"param":  map[string]any{"song_mid": songMid},
		},
	}

	var resp trackInfoResponse
	if err := c.postEnvelope(ctx, op, payload, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 || resp.Req.Code != 0 {
		return nil, upstreamError(op, firstNonZero(resp.Code, resp.Req.Code))
	}
	return resp.Req.Data.TrackInfo, nil
}
