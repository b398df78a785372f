package qqmusic

// SongInfo is one entry of an artist's paginated song list. Mid is the
// stable textual identifier used everywhere; ID is the numeric identifier
// the comment endpoint wants.
type SongInfo struct {
	Mid    string   `json:"mid"`
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Album  Album    `json:"album"`
	Singer []Singer `json:"singer"`
}

// Album identifies the album a song belongs to.
type Album struct {
	Mid  string `json:"mid"`
	Name string `json:"name"`
}

// Singer is one credited artist on a song.
type Singer struct {
	Mid  string `json:"mid"`
	Name string `json:"name"`
}

// ArtistCatalog is the accumulated result of paging through an artist's
// song list. Songs are kept in upstream arrival order.
type ArtistCatalog struct {
	ArtistMid    string
	ArtistName   string
	ClaimedTotal int // upstream's totalNum; logged only, may be stale
	Songs        []*SongInfo
}

// TrackInfo is the detail payload for a single song. Only the attribute
// list matters here; language and genre attributes feed tag derivation.
type TrackInfo struct {
	Info []TrackAttr `json:"info"`
}

// TrackAttr is one named attribute of a song detail response.
type TrackAttr struct {
	Name    string      `json:"name"`
	Content []AttrValue `json:"content"`
}

// AttrValue is one value of a song detail attribute.
type AttrValue struct {
	Value string `json:"value"`
}

// PlaylistTag is a tag attached to a playlist a song was found through.
// Artist-keyed crawls have none, but tag derivation still accepts them.
type PlaylistTag struct {
	Name string `json:"name"`
}

// Comment is one upstream comment as returned by the comment endpoint.
type Comment struct {
	ID      string `json:"commentid"`
	Nick    string `json:"nick"`
	Content string `json:"rootcommentcontent"`
	Praise  int64  `json:"praisenum"`
	Time    int64  `json:"time"`
}

// SingerEntry is one row of the singer directory listing.
type SingerEntry struct {
	Mid  string `json:"singer_mid"`
	Name string `json:"singer_name"`
}
