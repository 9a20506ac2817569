package domain

// NoteType classifies a single note on a post.
type NoteType string

const (
	NoteTypeLike   NoteType = "like"
	NoteTypeReblog NoteType = "reblog"
	NoteTypeReply  NoteType = "reply"
	NoteTypeOther  NoteType = "other"
)

// ParseNoteType maps an upstream note type onto the known set.
func ParseNoteType(s string) NoteType {
	switch NoteType(s) {
	case NoteTypeLike, NoteTypeReblog, NoteTypeReply:
		return NoteType(s)
	case "posted":
		// "posted" is a reblog with added content.
		return NoteTypeReblog
	default:
		return NoteTypeOther
	}
}

// Note is one engagement record.
type Note struct {
	Type     NoteType `json:"type"`
	BlogName string   `json:"blog_name,omitempty"`
}

// NotesSummary is the notes page of a post. The like and reblog totals are
// optional because the platform omits them in some modes.
type NotesSummary struct {
	TotalNotes   int    `json:"total_notes"`
	TotalLikes   *int   `json:"total_likes,omitempty"`
	TotalReblogs *int   `json:"total_reblogs,omitempty"`
	Notes        []Note `json:"notes"`
}

// CountType returns the number of notes of the given type.
func (s *NotesSummary) CountType(t NoteType) int {
	n := 0
	for _, note := range s.Notes {
		if note.Type == t {
			n++
		}
	}
	return n
}
