package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/iconidentify/tumblrembed/internal/domain"
	"github.com/iconidentify/tumblrembed/internal/embed"
	"github.com/iconidentify/tumblrembed/internal/metrics"
	"github.com/iconidentify/tumblrembed/internal/service"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockPlatform is a test implementation of service.PostFetcher and
// service.NotesFetcher.
type mockPlatform struct {
	post     *domain.Post
	postErr  error
	notes    *domain.NotesSummary
	notesErr error

	fetched []string
}

func (m *mockPlatform) FetchPost(ctx context.Context, cred domain.Credential, blog string, id domain.PostID) (*domain.Post, error) {
	m.fetched = append(m.fetched, blog+"/"+id.String())
	if m.postErr != nil {
		return nil, m.postErr
	}
	return m.post, nil
}

func (m *mockPlatform) GetNotes(ctx context.Context, cred domain.Credential, blog string, id domain.PostID, mode string) (*domain.NotesSummary, error) {
	if m.notesErr != nil {
		return nil, m.notesErr
	}
	if m.notes == nil {
		return &domain.NotesSummary{}, nil
	}
	return m.notes, nil
}

type fallbackResolver struct{}

func (fallbackResolver) Resolve(ctx context.Context) domain.Credential {
	return domain.Fallback("consumer")
}

// mockPinger is a test implementation of Pinger.
type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }

var errStoreDown = errors.New("store unavailable")

func newTestEmbedHandler(p *mockPlatform, cfg EmbedConfig) (*EmbedHandler, *metrics.Metrics) {
	svc := service.NewEmbedService(p, p, fallbackResolver{}, embed.NewComposer(embed.Composer{}), service.EmbedServiceConfig{}, testLogger())
	m := metrics.New()
	return NewEmbedHandler(svc, cfg, m, testLogger()), m
}

func imagePost() *domain.Post {
	notes := 7
	return &domain.Post{
		ID:        "42",
		Blog:      domain.Blog{Name: "staff", Title: "Staff", URL: "https://staff.tumblr.com/"},
		BlogName:  "staff",
		PostURL:   "https://staff.tumblr.com/post/42",
		Tags:      []string{"news"},
		NoteCount: &notes,
		Content: []domain.ContentBlock{
			domain.TextBlock{Text: "hello"},
			domain.ImageBlock{Media: []domain.MediaObject{
				{URL: "https://64.media.tumblr.com/s640.png", Width: 640, Height: 480},
				{URL: "https://64.media.tumblr.com/orig.png", Width: 800, Height: 600, HasOriginalDimensions: true},
			}},
			domain.ImageBlock{Media: []domain.MediaObject{{URL: "https://64.media.tumblr.com/second.png", Width: 100, Height: 100}}},
		},
	}
}
