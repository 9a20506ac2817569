package normalize

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/iconidentify/tumblrembed/internal/domain"
)

// DefaultLocale is used when the client's locale cannot be parsed.
var DefaultLocale = language.AmericanEnglish

// Engagement is the display-ready note breakdown of a post.
type Engagement struct {
	Notes   int
	Reblogs int
	Likes   int
}

// Aggregate combines the post's own note counter with its notes page. Totals
// the notes page omits are recomputed from the notes it does carry.
func Aggregate(summary *domain.NotesSummary, postNoteCount *int) Engagement {
	if summary == nil {
		summary = &domain.NotesSummary{}
	}

	likes := summary.CountType(domain.NoteTypeLike)
	if summary.TotalLikes != nil && *summary.TotalLikes > likes {
		likes = *summary.TotalLikes
	}
	reblogs := summary.CountType(domain.NoteTypeReblog)
	if summary.TotalReblogs != nil && *summary.TotalReblogs > reblogs {
		reblogs = *summary.TotalReblogs
	}

	notes := summary.TotalNotes
	if postNoteCount != nil {
		notes = *postNoteCount
	}

	return Engagement{
		Notes:   max(notes, 0),
		Reblogs: reblogs,
		Likes:   likes,
	}
}

// AuthorName renders the engagement line used as the oEmbed author name, with
// numbers formatted for the given locale.
func (e Engagement) AuthorName(tag language.Tag) string {
	p := message.NewPrinter(tag)
	return p.Sprintf("%d 📝 | %d 🔁 | %d ❤️", e.Notes, e.Reblogs, e.Likes)
}

// ParseLocale picks the preferred locale from an Accept-Language header value.
// An empty or unparseable header yields fallback.
func ParseLocale(acceptLanguage string, fallback language.Tag) language.Tag {
	if acceptLanguage == "" {
		return fallback
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 || tags[0] == language.Und {
		return fallback
	}
	return tags[0]
}
