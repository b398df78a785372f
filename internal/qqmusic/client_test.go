package qqmusic

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"qqharvest.com/m/internal/config"
)

// testConfig points a client at a fake server with all politeness delays
// removed so tests run instantly.
func testConfig(serverURL string) *config.Config {
	cfg := config.Default()
	cfg.APIBaseURL = serverURL
	cfg.CommentBaseURL = serverURL
	cfg.RequestInterval = 0
	cfg.PageDelay = 0
	cfg.StepDelay = 0
	cfg.SongDelay = 0
	return cfg
}

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	return NewClient(testConfig(serverURL), zaptest.NewLogger(t))
}

// decodeEnvelope parses the request body of the fake server into a generic
// map so handlers can dispatch on the envelope shape.
func decodeEnvelope(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&envelope))
	return envelope
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func songListPage(begin, count int) []map[string]any {
	page := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		page = append(page, map[string]any{
			"songInfo": map[string]any{
				"mid":    fmt.Sprintf("mid%04d", begin+i),
				"id":     begin + i + 1,
				"name":   fmt.Sprintf("song %d", begin+i),
				"album":  map[string]any{"mid": "alb001", "name": "album"},
				"singer": []map[string]any{{"mid": "sng001", "name": "歌手"}},
			},
		})
	}
	return page
}

func TestArtistSongsPaginationTerminatesOnEmptyPage(t *testing.T) {
	const total = 197
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		envelope := decodeEnvelope(t, r)
		param := envelope["req_1"].(map[string]any)["param"].(map[string]any)
		begin := int(param["begin"].(float64))
		num := int(param["num"].(float64))

		count := total - begin
		if count < 0 {
			count = 0
		}
		if count > num {
			count = num
		}

		writeJSON(t, w, map[string]any{
			"code": 0,
			"req_1": map[string]any{
				"code": 0,
				"data": map[string]any{
					"singerName": "周杰伦",
					"totalNum":   total,
					"songList":   songListPage(begin, count),
				},
			},
		})
	}))
	defer srv.Close()

	catalog, err := testClient(t, srv.URL).ArtistSongs(context.Background(), "0025NhlN2yWrP4")
	require.NoError(t, err)
	require.NotNil(t, catalog)

	assert.Equal(t, "周杰伦", catalog.ArtistName)
	assert.Equal(t, total, catalog.ClaimedTotal)
	assert.Len(t, catalog.Songs, total)
	assert.Equal(t, "mid0000", catalog.Songs[0].Mid)
	assert.Equal(t, "mid0196", catalog.Songs[total-1].Mid)
	// 80 + 80 + 37 + empty terminator, never a fifth request.
	assert.Equal(t, 4, calls)
}

func TestArtistSongsUpstreamCodeIsTypedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"code":  0,
			"req_1": map[string]any{"code": 1000},
		})
	}))
	defer srv.Close()

	catalog, err := testClient(t, srv.URL).ArtistSongs(context.Background(), "badmid")
	assert.Nil(t, catalog)
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindUpstream, apiErr.Kind)
	assert.Equal(t, 1000, apiErr.Code)
}

func TestArtistSongsKeepsPartialCatalogOnLaterPageFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			writeJSON(t, w, map[string]any{"code": 0, "req_1": map[string]any{"code": 2001}})
			return
		}
		writeJSON(t, w, map[string]any{
			"code": 0,
			"req_1": map[string]any{
				"code": 0,
				"data": map[string]any{
					"singerName": "邓紫棋",
					"totalNum":   500,
					"songList":   songListPage(0, 80),
				},
			},
		})
	}))
	defer srv.Close()

	catalog, err := testClient(t, srv.URL).ArtistSongs(context.Background(), "001fNHEf1SFEFN")
	require.NoError(t, err)
	require.NotNil(t, catalog)
	assert.Len(t, catalog.Songs, 80)
}

func TestArtistSongsNoSongsReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"code": 0,
			"req_1": map[string]any{
				"code": 0,
				"data": map[string]any{"singerName": "empty", "totalNum": 0},
			},
		})
	}))
	defer srv.Close()

	catalog, err := testClient(t, srv.URL).ArtistSongs(context.Background(), "empty")
	require.NoError(t, err)
	assert.Nil(t, catalog)
}

func TestTrackDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		envelope := decodeEnvelope(t, r)
		param := envelope["req_1"].(map[string]any)["param"].(map[string]any)
		assert.Equal(t, "003aAYrm3GE0Ac", param["song_mid"])

		writeJSON(t, w, map[string]any{
			"code": 0,
			"req_1": map[string]any{
				"code": 0,
				"data": map[string]any{
					"track_info": map[string]any{
						"info": []map[string]any{
							{"name": "lan", "content": []map[string]any{{"value": "国语"}}},
							{"name": "genre", "content": []map[string]any{{"value": "Pop"}}},
						},
					},
				},
			},
		})
	}))
	defer srv.Close()

	detail, err := testClient(t, srv.URL).TrackDetail(context.Background(), "003aAYrm3GE0Ac")
	require.NoError(t, err)
	require.NotNil(t, detail)
	require.Len(t, detail.Info, 2)
	assert.Equal(t, "lan", detail.Info[0].Name)
	assert.Equal(t, "国语", detail.Info[0].Content[0].Value)
}

func TestLyricsDecodesBase64(t *testing.T) {
	plain := "[00:00.00]晴天\n[00:05.00]故事的小黄花"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"code": 0,
			"req_lyric": map[string]any{
				"code": 0,
				"data": map[string]any{
					"lyric": base64.StdEncoding.EncodeToString([]byte(plain)),
				},
			},
		})
	}))
	defer srv.Close()

	lyrics, err := testClient(t, srv.URL).Lyrics(context.Background(), "mid")
	require.NoError(t, err)
	assert.Equal(t, plain, lyrics)
}

func TestLyricsEmptyIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"code":      0,
			"req_lyric": map[string]any{"code": 0, "data": map[string]any{"lyric": ""}},
		})
	}))
	defer srv.Close()

	lyrics, err := testClient(t, srv.URL).Lyrics(context.Background(), "mid")
	require.NoError(t, err)
	assert.Equal(t, "", lyrics)
}

func TestLyricsBadBase64IsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"code":      0,
			"req_lyric": map[string]any{"code": 0, "data": map[string]any{"lyric": "%%%not-base64%%%"}},
		})
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).Lyrics(context.Background(), "mid")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindMalformed, apiErr.Kind)
}

func TestStreamURLConcatenatesHostAndPurl(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"code": 0,
			"req_0": map[string]any{
				"code": 0,
				"data": map[string]any{
					"sip":        []string{"http://isure.stream.qqmusic.qq.com/"},
					"midurlinfo": []map[string]any{{"purl": "C400mid.m4a?vkey=abc"}},
				},
			},
		})
	}))
	defer srv.Close()

	url, err := testClient(t, srv.URL).StreamURL(context.Background(), "mid")
	require.NoError(t, err)
	assert.Equal(t, "http://isure.stream.qqmusic.qq.com/C400mid.m4a?vkey=abc", url)
}

func TestStreamURLFallsBackToDefaultHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"code": 0,
			"req_0": map[string]any{
				"code": 0,
				"data": map[string]any{
					"midurlinfo": []map[string]any{{"purl": "C400mid.m4a?vkey=abc"}},
				},
			},
		})
	}))
	defer srv.Close()

	url, err := testClient(t, srv.URL).StreamURL(context.Background(), "mid")
	require.NoError(t, err)
	assert.Equal(t, defaultStreamHost+"C400mid.m4a?vkey=abc", url)
}

func TestStreamURLEmptyPurlMeansUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"code": 0,
			"req_0": map[string]any{
				"code": 0,
				"data": map[string]any{
					"sip":        []string{"http://isure.stream.qqmusic.qq.com/"},
					"midurlinfo": []map[string]any{{"purl": ""}},
				},
			},
		})
	}))
	defer srv.Close()

	url, err := testClient(t, srv.URL).StreamURL(context.Background(), "mid")
	require.NoError(t, err)
	assert.Equal(t, "", url)
}

func TestCommentsPageSendsExpectedQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "1", query.Get("biztype"))
		assert.Equal(t, "8", query.Get("cmd"))
		assert.Equal(t, "105624036", query.Get("topid"))
		assert.Equal(t, "2", query.Get("pagenum"))
		assert.Equal(t, "25", query.Get("pagesize"))
		assert.Equal(t, "json", query.Get("format"))

		writeJSON(t, w, map[string]any{
			"code": 0,
			"comment": map[string]any{
				"commentlist": []map[string]any{
					{"commentid": "9001", "nick": "听友", "rootcommentcontent": "循环中", "praisenum": 321, "time": 1690000000},
				},
			},
		})
	}))
	defer srv.Close()

	comments, err := testClient(t, srv.URL).CommentsPage(context.Background(), 105624036, 2, 25)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "9001", comments[0].ID)
	assert.Equal(t, "听友", comments[0].Nick)
	assert.Equal(t, "循环中", comments[0].Content)
	assert.Equal(t, int64(321), comments[0].Praise)
}

func TestDownloadReportsSizeAndChecksum(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB, 0xCD, 0x01}, 1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write(payload)
		require.NoError(t, err)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	written, sum, err := testClient(t, srv.URL).Download(context.Background(), srv.URL+"/track.m4a", &buf)
	require.NoError(t, err)

	assert.Equal(t, int64(len(payload)), written)
	assert.Equal(t, payload, buf.Bytes())

	want := md5.Sum(payload)
	assert.Equal(t, hex.EncodeToString(want[:]), sum)
}

func TestDownloadHTTPErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	_, _, err := testClient(t, srv.URL).Download(context.Background(), srv.URL, &buf)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindTransient, apiErr.Kind)
}

func TestServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).TrackDetail(context.Background(), "mid")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindTransient, apiErr.Kind)
}

func TestAllSingersFiltersIncompleteEntries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			writeJSON(t, w, map[string]any{
				"code":       0,
				"singerList": map[string]any{"code": 0, "data": map[string]any{"singerlist": []any{}}},
			})
			return
		}
		writeJSON(t, w, map[string]any{
			"code": 0,
			"singerList": map[string]any{
				"code": 0,
				"data": map[string]any{
					"singerlist": []map[string]any{
						{"singer_mid": "m1", "singer_name": "林俊杰"},
						{"singer_mid": "", "singer_name": "nameless"},
						{"singer_mid": "m3", "singer_name": ""},
						{"singer_mid": "m4", "singer_name": "陈奕迅"},
					},
				},
			},
		})
	}))
	defer srv.Close()

	singers, err := testClient(t, srv.URL).AllSingers(context.Background())
	require.NoError(t, err)
	require.Len(t, singers, 2)
	assert.Equal(t, "m1", singers[0].Mid)
	assert.Equal(t, "m4", singers[1].Mid)
	assert.Equal(t, 2, calls)
}

func TestCoverURL(t *testing.T) {
	assert.Equal(t,
		"https://y.qq.com/music/photo_new/T002R500x500M000000MkMni19ClKG.jpg",
		CoverURL("000MkMni19ClKG"))
	assert.Equal(t, "", CoverURL(""))
}
