package embed

import (
	"golang.org/x/text/language"

	"github.com/iconidentify/tumblrembed/internal/domain"
	"github.com/iconidentify/tumblrembed/internal/normalize"
)

// oEmbed resource types.
const (
	OEmbedVideo = "video"
	OEmbedPhoto = "photo"
	OEmbedLink  = "link"
	OEmbedRich  = "rich"
	// OEmbedAudio is not an oEmbed 1.0 type but is what consumers of this
	// service expect for audio posts.
	OEmbedAudio = "audio"
)

// OEmbed is the oEmbed 1.0 response document.
type OEmbed struct {
	AuthorName   string `json:"author_name"`
	AuthorURL    string `json:"author_url"`
	ProviderName string `json:"provider_name"`
	ProviderURL  string `json:"provider_url"`
	Title        string `json:"title"`
	Type         string `json:"type"`
	Version      string `json:"version"`
}

// ValidOEmbedType reports whether t may be requested explicitly.
func ValidOEmbedType(t string) bool {
	switch t {
	case OEmbedVideo, OEmbedPhoto, OEmbedLink, OEmbedRich, OEmbedAudio:
		return true
	}
	return false
}

// InferOEmbedType picks the richest media kind present: video, then audio,
// then photo, else link.
func InferOEmbedType(media normalize.Selected) string {
	switch {
	case len(media.Videos) > 0:
		return OEmbedVideo
	case len(media.Audios) > 0:
		return OEmbedAudio
	case len(media.Images) > 0:
		return OEmbedPhoto
	default:
		return OEmbedLink
	}
}

// RenderOEmbed builds the oEmbed document of a post. An empty or unknown
// requested type is inferred from the post's media.
func (c *Composer) RenderOEmbed(post *domain.Post, media normalize.Selected, engagement normalize.Engagement, locale language.Tag, requestedType string) OEmbed {
	typ := requestedType
	if !ValidOEmbedType(typ) {
		typ = InferOEmbedType(media)
	}
	return OEmbed{
		AuthorName:   engagement.AuthorName(locale),
		AuthorURL:    post.Blog.URL,
		ProviderName: c.ServiceName,
		ProviderURL:  c.ProviderURL,
		Title:        "Tumblr",
		Type:         typ,
		Version:      "1.0",
	}
}
