package tumblr

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/iconidentify/tumblrembed/internal/domain"
)

type wireBlog struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

type wirePost struct {
	ID        json.Number `json:"id"`
	IDString  string      `json:"id_string"`
	BlogName  string      `json:"blog_name"`
	Blog      wireBlog    `json:"blog"`
	PostURL   string      `json:"post_url"`
	Tags      []string    `json:"tags"`
	Content   []wireBlock `json:"content"`
	Trail     []wireTrail `json:"trail"`
	NoteCount *int        `json:"note_count"`
}

type wireTrail struct {
	Post struct {
		ID json.Number `json:"id"`
	} `json:"post"`
	Blog           *wireBlog   `json:"blog"`
	BrokenBlogName string      `json:"broken_blog_name"`
	Content        []wireBlock `json:"content"`
}

type wireMedia struct {
	URL                   string `json:"url"`
	Width                 int    `json:"width"`
	Height                int    `json:"height"`
	HasOriginalDimensions bool   `json:"has_original_dimensions"`
}

// wireBlock carries the union of the NPF fields this service reads. Media is
// an array for images and a single object for video and audio.
type wireBlock struct {
	Type   string            `json:"type"`
	Text   string            `json:"text"`
	URL    string            `json:"url"`
	Media  json.RawMessage   `json:"media"`
	Colors map[string]string `json:"colors"`
}

type wireNote struct {
	Type     string `json:"type"`
	BlogName string `json:"blog_name"`
}

type wireNotes struct {
	Notes        []wireNote `json:"notes"`
	TotalNotes   int        `json:"total_notes"`
	TotalLikes   *int       `json:"total_likes"`
	TotalReblogs *int       `json:"total_reblogs"`
}

func (w *wirePost) toDomain() *domain.Post {
	id := w.IDString
	if id == "" {
		id = w.ID.String()
	}
	p := &domain.Post{
		ID:        domain.PostID(id),
		Blog:      domain.Blog{Name: w.Blog.Name, Title: w.Blog.Title, URL: w.Blog.URL},
		BlogName:  w.BlogName,
		PostURL:   w.PostURL,
		Tags:      w.Tags,
		Content:   convertBlocks(w.Content),
		NoteCount: w.NoteCount,
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	for _, t := range w.Trail {
		item := domain.TrailItem{
			PostID:         domain.PostID(t.Post.ID.String()),
			BrokenBlogName: t.BrokenBlogName,
			Content:        convertBlocks(t.Content),
		}
		if t.Blog != nil {
			item.Blog = &domain.Blog{Name: t.Blog.Name, Title: t.Blog.Title, URL: t.Blog.URL}
		}
		p.Trail = append(p.Trail, item)
	}
	return p
}

func (w *wireNotes) toDomain() *domain.NotesSummary {
	s := &domain.NotesSummary{
		TotalNotes:   w.TotalNotes,
		TotalLikes:   w.TotalLikes,
		TotalReblogs: w.TotalReblogs,
		Notes:        make([]domain.Note, 0, len(w.Notes)),
	}
	for _, n := range w.Notes {
		s.Notes = append(s.Notes, domain.Note{Type: domain.ParseNoteType(n.Type), BlogName: n.BlogName})
	}
	return s
}

func convertBlocks(in []wireBlock) []domain.ContentBlock {
	out := make([]domain.ContentBlock, 0, len(in))
	for _, b := range in {
		out = append(out, b.toDomain())
	}
	return out
}

func (b wireBlock) toDomain() domain.ContentBlock {
	switch b.Type {
	case "text":
		return domain.TextBlock{Text: b.Text}
	case "image":
		return domain.ImageBlock{Media: b.mediaList(), Colors: orderedColors(b.Colors)}
	case "video":
		return domain.VideoBlock{URL: b.URL, Media: b.mediaObject()}
	case "audio":
		return domain.AudioBlock{URL: b.URL, Media: b.mediaObject()}
	default:
		return domain.OtherBlock{Type: b.Type}
	}
}

func (b wireBlock) mediaList() []domain.MediaObject {
	raw := bytes.TrimSpace(b.Media)
	if len(raw) == 0 {
		return nil
	}
	var list []wireMedia
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil
		}
	} else {
		var one wireMedia
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil
		}
		list = []wireMedia{one}
	}
	out := make([]domain.MediaObject, 0, len(list))
	for _, m := range list {
		out = append(out, domain.MediaObject(m))
	}
	return out
}

// mediaObject returns the first media object of a video or audio block.
func (b wireBlock) mediaObject() *domain.MediaObject {
	list := b.mediaList()
	if len(list) == 0 {
		return nil
	}
	return &list[0]
}

// orderedColors reads c0, c1, ... until the first gap.
func orderedColors(colors map[string]string) []string {
	var out []string
	for i := 0; ; i++ {
		c, ok := colors["c"+strconv.Itoa(i)]
		if !ok {
			return out
		}
		out = append(out, c)
	}
}
