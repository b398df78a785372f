package qqmusic

import "fmt"

// Kind classifies an upstream failure so callers can decide between retrying
// later (leave store state untouched) and giving up on a song.
type Kind int

const (
	// KindTransient covers timeouts, refused connections and non-2xx HTTP
	// statuses. The step did not complete; a future run retries it.
	KindTransient Kind = iota
	// KindUpstream is a non-zero business code inside an otherwise valid
	// response envelope. Treated like a transient failure.
	KindUpstream
	// KindMalformed is a response body that could not be decoded.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindUpstream:
		return "upstream"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by every client call.
type Error struct {
	Kind Kind
	Op   string // upstream operation, e.g. "GetSingerSongList"
	Code int    // business code when Kind is KindUpstream
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == KindUpstream {
		return fmt.Sprintf("%s: upstream code %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
