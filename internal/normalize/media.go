package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iconidentify/tumblrembed/internal/domain"
)

// Media is the representative media of one rendered block.
type Media struct {
	URL    string
	Width  int
	Height int
}

// Selected holds one representative media item per image, video and audio
// block, in flattened order.
type Selected struct {
	Images []Media
	Videos []Media
	Audios []Media
}

// Index is an optional 1-based media index taken from the query string.
type Index struct {
	Set bool
	N   int
}

// ParseIndex reads a 1-based media index. An empty value leaves the index
// unset; anything that is not an integer is an error.
func ParseIndex(raw string) (Index, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Index{}, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return Index{}, fmt.Errorf("parse media index %q: %w", raw, err)
	}
	return Index{Set: true, N: n}, nil
}

// At returns a set index for n.
func At(n int) Index {
	return Index{Set: true, N: n}
}

// SelectImage picks the first candidate flagged as original dimensions, else
// the first candidate. It reports false only for an empty candidate list.
func SelectImage(block domain.ImageBlock) (domain.MediaObject, bool) {
	if len(block.Media) == 0 {
		return domain.MediaObject{}, false
	}
	for _, m := range block.Media {
		if m.HasOriginalDimensions {
			return m, true
		}
	}
	return block.Media[0], true
}

// SelectStream picks the direct URL of a video or audio block, else the URL of
// its embedded media object.
func SelectStream(url string, media *domain.MediaObject) (Media, bool) {
	if url != "" {
		out := Media{URL: url}
		if media != nil {
			out.Width, out.Height = media.Width, media.Height
		}
		return out, true
	}
	if media != nil && media.URL != "" {
		return Media{URL: media.URL, Width: media.Width, Height: media.Height}, true
	}
	return Media{}, false
}

// Select resolves representative media for every image, video and audio block.
func Select(c Classified) Selected {
	var s Selected
	for _, img := range c.Image {
		if m, ok := SelectImage(img); ok {
			s.Images = append(s.Images, Media{URL: m.URL, Width: m.Width, Height: m.Height})
		}
	}
	for _, v := range c.Video {
		if m, ok := SelectStream(v.URL, v.Media); ok {
			s.Videos = append(s.Videos, m)
		}
	}
	for _, a := range c.Audio {
		if m, ok := SelectStream(a.URL, a.Media); ok {
			s.Audios = append(s.Audios, m)
		}
	}
	return s
}

// Pick applies an index override: unset returns every item, an in-range index
// returns that single item, and anything else returns nothing.
func Pick(items []Media, idx Index) []Media {
	if !idx.Set {
		return items
	}
	if idx.N < 1 || idx.N > len(items) {
		return nil
	}
	return items[idx.N-1 : idx.N]
}
