package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iconidentify/tumblrembed/internal/auth"
	"github.com/iconidentify/tumblrembed/internal/domain"
	"github.com/iconidentify/tumblrembed/internal/embed"
	"github.com/iconidentify/tumblrembed/internal/normalize"
	"github.com/iconidentify/tumblrembed/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockPlatform implements PostFetcher and NotesFetcher.
type mockPlatform struct {
	post     *domain.Post
	postErr  error
	notes    *domain.NotesSummary
	notesErr error

	fetchCalls []domain.Credential
	notesCalls []string
}

func (m *mockPlatform) FetchPost(ctx context.Context, cred domain.Credential, blog string, id domain.PostID) (*domain.Post, error) {
	m.fetchCalls = append(m.fetchCalls, cred)
	if m.postErr != nil {
		return nil, m.postErr
	}
	return m.post, nil
}

func (m *mockPlatform) GetNotes(ctx context.Context, cred domain.Credential, blog string, id domain.PostID, mode string) (*domain.NotesSummary, error) {
	m.notesCalls = append(m.notesCalls, blog+"/"+id.String()+"?"+mode)
	if m.notesErr != nil {
		return nil, m.notesErr
	}
	return m.notes, nil
}

type staticResolver struct {
	cred  domain.Credential
	calls int
}

func (s *staticResolver) Resolve(ctx context.Context) domain.Credential {
	s.calls++
	return s.cred
}

func samplePost() *domain.Post {
	n := 12
	return &domain.Post{
		ID:        "42",
		Blog:      domain.Blog{Name: "staff", Title: "Staff", URL: "https://staff.tumblr.com/"},
		BlogName:  "staff",
		PostURL:   "https://staff.tumblr.com/post/42",
		Tags:      []string{},
		NoteCount: &n,
		Content: []domain.ContentBlock{
			domain.TextBlock{Text: "hello"},
			domain.ImageBlock{Media: []domain.MediaObject{{URL: "https://64.media.tumblr.com/a.png", Width: 800, Height: 600, HasOriginalDimensions: true}}},
		},
	}
}

func newService(p *mockPlatform, r CredentialResolver) *EmbedService {
	return NewEmbedService(p, p, r, embed.NewComposer(embed.Composer{}), EmbedServiceConfig{}, testLogger())
}

func TestParsePostRef(t *testing.T) {
	tests := []struct {
		name    string
		blog    string
		id      string
		wantErr error
	}{
		{"valid", "staff", "690135035533230080", nil},
		{"non numeric id", "staff", "abc", domain.ErrInvalidPostID},
		{"negative id", "staff", "-1", domain.ErrInvalidPostID},
		{"empty id", "staff", "", domain.ErrInvalidPostID},
		{"missing username", "", "123", domain.ErrMissingUsername},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParsePostRef(tt.blog, tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParsePostRef() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && (ref.Blog != tt.blog || ref.PostID.String() != tt.id) {
				t.Errorf("ParsePostRef() = %+v", ref)
			}
		})
	}
}

func TestPostRef_PlatformURL(t *testing.T) {
	ref := PostRef{Blog: "staff", PostID: "1"}
	if got := ref.PlatformURL(); got != "https://www.tumblr.com/staff/1" {
		t.Errorf("PlatformURL() = %q", got)
	}
}

func TestEmbedService_Page(t *testing.T) {
	p := &mockPlatform{post: samplePost()}
	r := &staticResolver{cred: domain.Authenticated("at")}
	svc := newService(p, r)

	out, err := svc.Page(context.Background(), PostRef{Blog: "staff", PostID: "42"}, embed.PageOptions{})
	if err != nil {
		t.Fatalf("Page() error: %v", err)
	}
	if strings.Count(string(out), `property="og:image"`) != 1 {
		t.Errorf("expected exactly one og:image tag:\n%s", out)
	}
	if !strings.Contains(string(out), `<meta property="og:image-width" content="800" />`) {
		t.Errorf("expected og:image-width 800:\n%s", out)
	}
	if r.calls != 1 {
		t.Errorf("credential resolved %d times, want once per request", r.calls)
	}
	if len(p.fetchCalls) != 1 || p.fetchCalls[0] != domain.Authenticated("at") {
		t.Errorf("fetch calls = %+v", p.fetchCalls)
	}
	if len(p.notesCalls) != 0 {
		t.Error("HTML page should not fetch notes")
	}

	again, _ := svc.Page(context.Background(), PostRef{Blog: "staff", PostID: "42"}, embed.PageOptions{})
	if !bytes.Equal(out, again) {
		t.Error("same post and options should render byte-identical output")
	}
}

func TestEmbedService_PageOutOfRangeImage(t *testing.T) {
	post := samplePost()
	post.Content = append(post.Content, domain.ImageBlock{Media: []domain.MediaObject{{URL: "second"}}})
	svc := newService(&mockPlatform{post: post}, &staticResolver{cred: domain.Fallback("k")})

	out, err := svc.Page(context.Background(), PostRef{Blog: "staff", PostID: "42"}, embed.PageOptions{Image: normalize.At(5)})
	if err != nil {
		t.Fatalf("Page() error: %v", err)
	}
	if strings.Contains(string(out), `og:image"`) {
		t.Errorf("out-of-range index should emit no image tag:\n%s", out)
	}
}

func TestEmbedService_OEmbedRecomputesLikes(t *testing.T) {
	p := &mockPlatform{
		post: samplePost(),
		notes: &domain.NotesSummary{
			TotalNotes: 3,
			Notes: []domain.Note{
				{Type: domain.NoteTypeLike},
				{Type: domain.NoteTypeLike},
				{Type: domain.NoteTypeReblog},
			},
		},
	}
	svc := newService(p, &staticResolver{cred: domain.Fallback("k")})

	doc, err := svc.OEmbed(context.Background(), PostRef{Blog: "staff", PostID: "42"}, OEmbedOptions{})
	if err != nil {
		t.Fatalf("OEmbed() error: %v", err)
	}
	if doc.AuthorName != "12 📝 | 1 🔁 | 2 ❤️" {
		t.Errorf("AuthorName = %q", doc.AuthorName)
	}
	if doc.Type != embed.OEmbedPhoto || doc.AuthorURL != "https://staff.tumblr.com/" || doc.Version != "1.0" {
		t.Errorf("OEmbed() = %+v", doc)
	}
	if len(p.notesCalls) != 1 || p.notesCalls[0] != "staff/42?conversation" {
		t.Errorf("notes calls = %v", p.notesCalls)
	}
}

func TestEmbedService_OEmbedLocale(t *testing.T) {
	post := samplePost()
	n := 1234
	post.NoteCount = &n
	svc := newService(&mockPlatform{post: post, notes: &domain.NotesSummary{}}, &staticResolver{cred: domain.Fallback("k")})

	doc, err := svc.OEmbed(context.Background(), PostRef{Blog: "staff", PostID: "42"}, OEmbedOptions{AcceptLanguage: "de-DE,de;q=0.9", Type: "link"})
	if err != nil {
		t.Fatalf("OEmbed() error: %v", err)
	}
	if !strings.HasPrefix(doc.AuthorName, "1.234 ") {
		t.Errorf("AuthorName = %q, want German grouping", doc.AuthorName)
	}
	if doc.Type != "link" {
		t.Errorf("Type = %q, want requested link", doc.Type)
	}

	doc, _ = svc.OEmbed(context.Background(), PostRef{Blog: "staff", PostID: "42"}, OEmbedOptions{AcceptLanguage: ";;;"})
	if !strings.HasPrefix(doc.AuthorName, "1,234 ") {
		t.Errorf("AuthorName = %q, want default locale grouping", doc.AuthorName)
	}
}

func TestEmbedService_PropagatesErrors(t *testing.T) {
	apiErr := &domain.APIError{Status: 404, Message: "Not Found"}
	svc := newService(&mockPlatform{postErr: domain.NewPostError("staff", "42", "fetch post", apiErr)}, &staticResolver{cred: domain.Fallback("k")})

	_, err := svc.Page(context.Background(), PostRef{Blog: "staff", PostID: "42"}, embed.PageOptions{})
	if got, ok := domain.AsAPIError(err); !ok || got != apiErr {
		t.Errorf("Page() error = %v, want the API error", err)
	}

	notesErr := errors.New("notes down")
	svc = newService(&mockPlatform{post: samplePost(), notesErr: notesErr}, &staticResolver{cred: domain.Fallback("k")})
	if _, err := svc.OEmbed(context.Background(), PostRef{Blog: "staff", PostID: "42"}, OEmbedOptions{}); !errors.Is(err, notesErr) {
		t.Errorf("OEmbed() error = %v, want notes error", err)
	}
}

func TestEmbedService_RefreshFailureStillFetches(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer tokenSrv.Close()

	st := store.NewMemoryStore()
	_ = st.Put(context.Background(), store.KeyRefreshToken, "stale")
	coord := auth.NewCoordinator(auth.Config{
		ConsumerKey: "consumer",
		TokenURL:    tokenSrv.URL,
		HTTPTimeout: 2 * time.Second,
	}, st, nil, testLogger())

	p := &mockPlatform{post: samplePost()}
	svc := newService(p, coord)

	if _, err := svc.Page(context.Background(), PostRef{Blog: "staff", PostID: "42"}, embed.PageOptions{}); err != nil {
		t.Fatalf("Page() error: %v", err)
	}
	if len(p.fetchCalls) != 1 || p.fetchCalls[0] != domain.Fallback("consumer") {
		t.Errorf("fetch calls = %+v, want one unauthenticated fetch", p.fetchCalls)
	}

	// The post fetch alone decides the outcome.
	p.postErr = errors.New("dial tcp: connection refused")
	if _, err := svc.Page(context.Background(), PostRef{Blog: "staff", PostID: "42"}, embed.PageOptions{}); err == nil {
		t.Error("expected the fetch failure to surface")
	}
}

func TestEmbedService_ErrorPage(t *testing.T) {
	svc := newService(&mockPlatform{}, &staticResolver{})
	out, err := svc.ErrorPage(PostRef{Blog: "staff", PostID: "42"}, &domain.APIError{Status: 404, Message: "Not Found"}, "", true)
	if err != nil {
		t.Fatalf("ErrorPage() error: %v", err)
	}
	if !strings.Contains(string(out), `<link rel="canonical" href="https://www.tumblr.com/staff/42" />`) {
		t.Errorf("error page should link the platform URL:\n%s", out)
	}
}

func TestEmbedService_Post(t *testing.T) {
	post := samplePost()
	svc := newService(&mockPlatform{post: post}, &staticResolver{cred: domain.Fallback("k")})
	got, err := svc.Post(context.Background(), PostRef{Blog: "staff", PostID: "42"})
	if err != nil || got != post {
		t.Errorf("Post() = %v, %v", got, err)
	}
}
