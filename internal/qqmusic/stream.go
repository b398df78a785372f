package qqmusic

import "context"

// defaultStreamHost is used when the vkey response carries no server host.
const defaultStreamHost = "http://ws.stream.qqmusic.qq.com/"

type vkeyResponse struct {
	Code int `json:"code"`
	Req  struct {
		Code int `json:"code"`
		Data struct {
			Sip        []string `json:"sip"`
			MidURLInfo []struct {
				Purl string `json:"purl"`
			} `json:"midurlinfo"`
		} `json:"data"`
	} `json:"req_0"`
}

// StreamURL resolves a playable audio URL for a song via the two-phase vkey
// handshake: the response carries a temporary URL fragment (purl) that must
// be concatenated onto a returned server host. An empty purl means the track
// is not streamable for this session — that is a permanent outcome, reported
// as ("", nil) so the caller can record the unavailable sentinel. Errors are
// transient and leave the song retryable.
func (c *Client) StreamURL(ctx context.Context, songMid string) (string, error) {
	const op = "CgiGetVkey"

	payload := map[string]any{
		"comm": map[string]any{"uin": "0", "format": "json", "ct": 24, "cv": 0},
		"req_0": map[string]any{
			"module": "vkey.GetVkeyServer",
			"method": "CgiGetVkey",
			"param": map[string]any{
				"guid":      "1234567890",
				"songmid":   []string{songMid},
				"songtype":  []int{0},
				"uin":       "0",
				"loginflag": 1,
				"platform":  "20",
			},
		},
	}

	var resp vkeyResponse
	if err := c.postEnvelope(ctx, op, payload, &resp); err != nil {
		return "", err
	}
	if resp.Code != 0 || resp.Req.Code != 0 {
		return "", upstreamError(op, firstNonZero(resp.Code, resp.Req.Code))
	}

	data := resp.Req.Data
	if len(data.MidURLInfo) == 0 || data.MidURLInfo[0].Purl == "" {
		return "", nil
	}

	host := defaultStreamHost
	if len(data.Sip) > 0 && data.Sip[0] != "" {
		host = data.Sip[0]
	}
	return host + data.MidURLInfo[0].Purl, nil
}
