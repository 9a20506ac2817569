package domain

// PostID is the numeric identifier of a post, kept as its decimal string.
type PostID string

// String returns the string representation of the PostID.
func (id PostID) String() string {
	return string(id)
}

// Blog is the public identity of a blog.
type Blog struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Post is a post as fetched for a single request. It is never mutated after
// the fetch.
type Post struct {
	ID       PostID         `json:"id"`
	Blog     Blog           `json:"blog"`
	BlogName string         `json:"blog_name"`
	PostURL  string         `json:"post_url"`
	Tags     []string       `json:"tags"`
	Content  []ContentBlock `json:"content"`
	// Trail is the reblog chain, root first.
	Trail []TrailItem `json:"trail"`
	// NoteCount is nil when the platform omitted the counter.
	NoteCount *int `json:"note_count,omitempty"`
}

// TrailItem is one ancestor in a reblog chain.
type TrailItem struct {
	PostID PostID `json:"post_id,omitempty"`
	// Blog is nil for a deleted or unavailable blog; BrokenBlogName is set instead.
	Blog           *Blog          `json:"blog,omitempty"`
	BrokenBlogName string         `json:"broken_blog_name,omitempty"`
	Content        []ContentBlock `json:"content"`
}

// BlogDisplayName returns the ancestor's blog name, or the placeholder name of
// a broken blog.
func (t TrailItem) BlogDisplayName() string {
	if t.Blog != nil && t.Blog.Name != "" {
		return t.Blog.Name
	}
	return t.BrokenBlogName
}

// IsReblog reports whether the post carries a reblog trail.
func (p *Post) IsReblog() bool {
	return len(p.Trail) > 0
}

// Root returns the first entry of the trail, the original post of a reblog chain.
func (p *Post) Root() (TrailItem, bool) {
	if len(p.Trail) == 0 {
		return TrailItem{}, false
	}
	return p.Trail[0], true
}

// CreatorName is the blog name used for twitter:creator and the oEmbed link title.
func (p *Post) CreatorName() string {
	if p.BlogName != "" {
		return p.BlogName
	}
	return p.Blog.Name
}
