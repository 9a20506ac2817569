package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// =============================================================================
// Post Tests
// =============================================================================

func TestTrailItem_BlogDisplayName(t *testing.T) {
	tests := []struct {
		name string
		item TrailItem
		want string
	}{
		{"live blog", TrailItem{Blog: &Blog{Name: "staff"}}, "staff"},
		{"broken blog", TrailItem{BrokenBlogName: "gone-blog"}, "gone-blog"},
		{"blog without name falls back", TrailItem{Blog: &Blog{}, BrokenBlogName: "gone"}, "gone"},
		{"nothing known", TrailItem{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.BlogDisplayName(); got != tt.want {
				t.Errorf("BlogDisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPost_Root(t *testing.T) {
	p := &Post{}
	if p.IsReblog() {
		t.Error("post without trail should not be a reblog")
	}
	if _, ok := p.Root(); ok {
		t.Error("Root() should report false for an empty trail")
	}

	p.Trail = []TrailItem{
		{Blog: &Blog{Name: "origin"}},
		{Blog: &Blog{Name: "middle"}},
	}
	root, ok := p.Root()
	if !ok {
		t.Fatal("Root() should report true for a reblog")
	}
	if root.BlogDisplayName() != "origin" {
		t.Errorf("root = %q, want %q", root.BlogDisplayName(), "origin")
	}
}

func TestPost_CreatorName(t *testing.T) {
	p := &Post{Blog: Blog{Name: "from-blog"}}
	if got := p.CreatorName(); got != "from-blog" {
		t.Errorf("CreatorName() = %q, want %q", got, "from-blog")
	}
	p.BlogName = "explicit"
	if got := p.CreatorName(); got != "explicit" {
		t.Errorf("CreatorName() = %q, want %q", got, "explicit")
	}
}

// =============================================================================
// Content Block Tests
// =============================================================================

func TestContentBlock_Kind(t *testing.T) {
	tests := []struct {
		block ContentBlock
		want  BlockKind
	}{
		{TextBlock{}, BlockKindText},
		{ImageBlock{}, BlockKindImage},
		{VideoBlock{}, BlockKindVideo},
		{AudioBlock{}, BlockKindAudio},
		{OtherBlock{Type: "poll"}, BlockKindOther},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			if got := tt.block.Kind(); got != tt.want {
				t.Errorf("Kind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContentBlock_MarshalJSONTagsType(t *testing.T) {
	post := Post{
		ID: "1",
		Content: []ContentBlock{
			TextBlock{Text: "hello"},
			ImageBlock{Media: []MediaObject{{URL: "https://img/1.png", Width: 800, Height: 600}}},
			VideoBlock{URL: "https://vid/1.mp4"},
			OtherBlock{Type: "link"},
		},
	}

	data, err := json.Marshal(post)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		Content []map[string]any `json:"content"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	wantTypes := []string{"text", "image", "video", "other"}
	if len(decoded.Content) != len(wantTypes) {
		t.Fatalf("len(content) = %d, want %d", len(decoded.Content), len(wantTypes))
	}
	for i, want := range wantTypes {
		if decoded.Content[i]["type"] != want {
			t.Errorf("content[%d].type = %v, want %q", i, decoded.Content[i]["type"], want)
		}
	}
	if decoded.Content[0]["text"] != "hello" {
		t.Errorf("text block lost its text: %v", decoded.Content[0])
	}
	if decoded.Content[3]["upstream_type"] != "link" {
		t.Errorf("other block lost its upstream type: %v", decoded.Content[3])
	}
}

// =============================================================================
// Notes Tests
// =============================================================================

func TestParseNoteType(t *testing.T) {
	tests := []struct {
		in   string
		want NoteType
	}{
		{"like", NoteTypeLike},
		{"reblog", NoteTypeReblog},
		{"posted", NoteTypeReblog},
		{"reply", NoteTypeReply},
		{"follow", NoteTypeOther},
		{"", NoteTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseNoteType(tt.in); got != tt.want {
				t.Errorf("ParseNoteType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNotesSummary_CountType(t *testing.T) {
	s := &NotesSummary{Notes: []Note{
		{Type: NoteTypeLike},
		{Type: NoteTypeReblog},
		{Type: NoteTypeLike},
		{Type: NoteTypeReply},
	}}
	if got := s.CountType(NoteTypeLike); got != 2 {
		t.Errorf("likes = %d, want 2", got)
	}
	if got := s.CountType(NoteTypeReblog); got != 1 {
		t.Errorf("reblogs = %d, want 1", got)
	}
	if got := s.CountType(NoteTypeOther); got != 0 {
		t.Errorf("other = %d, want 0", got)
	}
}

// =============================================================================
// Credential Tests
// =============================================================================

func TestCredential_Variants(t *testing.T) {
	auth := Authenticated("access")
	if !auth.IsAuthenticated() || auth.Token != "access" {
		t.Errorf("unexpected authenticated credential: %+v", auth)
	}
	fb := Fallback("consumer")
	if fb.IsAuthenticated() || fb.Token != "consumer" {
		t.Errorf("unexpected fallback credential: %+v", fb)
	}
}

// =============================================================================
// Error Tests
// =============================================================================

func TestAPIError(t *testing.T) {
	err := &APIError{Status: 404, Message: "Not Found", Detail: "Post not found."}
	if got := err.Description(); got != "Not Found: Post not found." {
		t.Errorf("Description() = %q", got)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("Error() should include the status: %q", err.Error())
	}

	bare := &APIError{Status: 401, Message: "Unauthorized"}
	if got := bare.Description(); got != "Unauthorized" {
		t.Errorf("Description() = %q, want %q", got, "Unauthorized")
	}

	wrapped := fmt.Errorf("fetch post: %w", err)
	got, ok := AsAPIError(wrapped)
	if !ok || got != err {
		t.Errorf("AsAPIError() did not unwrap the API error")
	}
	if _, ok := AsAPIError(errors.New("dial tcp: refused")); ok {
		t.Error("AsAPIError() should reject plain errors")
	}
}

func TestPostError(t *testing.T) {
	base := errors.New("boom")
	err := NewPostError("staff", "123", "fetch post", base)

	if !errors.Is(err, base) {
		t.Error("PostError should unwrap to the base error")
	}
	if got := err.Error(); got != "fetch post [staff/123]: boom" {
		t.Errorf("Error() = %q", got)
	}

	noID := NewPostError("", "", "fetch post", base)
	if got := noID.Error(); got != "fetch post: boom" {
		t.Errorf("Error() = %q", got)
	}
}
