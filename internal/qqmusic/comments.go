package qqmusic

import (
	"context"
	"net/url"
	"strconv"
)

type commentPageResponse struct {
	Code    int `json:"code"`
	Comment struct {
		CommentList []Comment `json:"commentlist"`
	} `json:"comment"`
}

// CommentsPage fetches one page of comments for a song. The comment endpoint
// is keyed by the song's numeric id, not its mid. An empty page means there
// are no more comments.
func (c *Client) CommentsPage(ctx context.Context, songNumericID int64, page, pageSize int) ([]Comment, error) {
	const op = "GetComments"

	params := url.Values{}
	params.Set("biztype", "1")
	params.Set("topid", strconv.FormatInt(songNumericID, 10))
	params.Set("cmd", "8")
	params.Set("pagenum", strconv.Itoa(page))
	params.Set("pagesize", strconv.Itoa(pageSize))
	params.Set("format", "json")
	params.Set("g_tk", "5381")

	var resp commentPageResponse
	if err := c.get(ctx, op, c.cfg.CommentBaseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, upstreamError(op, resp.Code)
	}
	return resp.Comment.CommentList, nil
}

