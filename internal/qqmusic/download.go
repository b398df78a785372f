package qqmusic

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
)

// Download streams the resource at url into w, hashing the bytes as they
// arrive. It returns the exact byte count written and the hex MD5 of the
// content; no transformation is applied in transit.
func (c *Client) Download(ctx context.Context, url string, w io.Writer) (int64, string, error) {
	const op = "Download"

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, "", &Error{Kind: KindTransient, Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, "", &Error{Kind: KindTransient, Op: op, Err: err}
	}
	c.setHeaders(req)

	resp, err := c.download.Do(req)
	if err != nil {
		return 0, "", &Error{Kind: KindTransient, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, "", &Error{Kind: KindTransient, Op: op,
			Err: fmt.Errorf("server returned status code %d", resp.StatusCode)}
	}

	hasher := md5.New()
	written, err := io.Copy(io.MultiWriter(w, hasher), resp.Body)
	if err != nil {
		return written, "", &Error{Kind: KindTransient, Op: op, Err: err}
	}
	return written, hex.EncodeToString(hasher.Sum(nil)), nil
}

// CoverURL builds the deterministic cover image URL for an album. Albums
// without a mid have no cover URL.
func CoverURL(albumMid string) string {
	if albumMid == "" {
		return ""
	}
	return "https://y.qq.com/music/photo_new/T002R500x500M000" + albumMid + ".jpg"
}
