// Package tags derives a deduplicated label set for a song from its
// playlist tags and detail attributes. Pure functions, no I/O.
package tags

import (
	"sort"
	"strings"

	"qqharvest.com/m/internal/qqmusic"
)

// Upstream attribute names carrying taggable values.
const (
	attrLanguage = "lan"
	attrGenre    = "genre"
)

// Derive merges playlist tags with the language and genre attributes of a
// song detail record. Language values may be comma-joined ("国语,粤语") and
// are split into individual tags. Empty strings after trimming are dropped
// and duplicates collapse. The result is sorted so serialization is
// deterministic.
func Derive(playlistTags []qqmusic.PlaylistTag, detail *qqmusic.TrackInfo) []string {
	set := make(map[string]struct{})

	for _, tag := range playlistTags {
		add(set, tag.Name)
	}

	if detail != nil {
		for _, attr := range detail.Info {
			switch attr.Name {
			case attrLanguage:
				for _, content := range attr.Content {
					for _, lang := range strings.Split(content.Value, ",") {
						add(set, lang)
					}
				}
			case attrGenre:
				for _, content := range attr.Content {
					add(set, content.Value)
				}
			}
		}
	}

	derived := make([]string, 0, len(set))
	for tag := range set {
		derived = append(derived, tag)
	}
	sort.Strings(derived)
	return derived
}

func add(set map[string]struct{}, raw string) {
	tag := strings.TrimSpace(raw)
	if tag == "" {
		return
	}
	set[tag] = struct{}{}
}
