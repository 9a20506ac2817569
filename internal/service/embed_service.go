package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/iconidentify/tumblrembed/internal/domain"
	"github.com/iconidentify/tumblrembed/internal/embed"
	"github.com/iconidentify/tumblrembed/internal/normalize"
	"github.com/iconidentify/tumblrembed/internal/tumblr"
)

// PostFetcher fetches a single post.
type PostFetcher interface {
	FetchPost(ctx context.Context, cred domain.Credential, blog string, id domain.PostID) (*domain.Post, error)
}

// NotesFetcher fetches the notes page of a post.
type NotesFetcher interface {
	GetNotes(ctx context.Context, cred domain.Credential, blog string, id domain.PostID, mode string) (*domain.NotesSummary, error)
}

// CredentialResolver picks the credential for one request.
type CredentialResolver interface {
	Resolve(ctx context.Context) domain.Credential
}

// PostRef identifies the post a request is about.
type PostRef struct {
	Blog   string
	PostID domain.PostID
}

// ParsePostRef validates the blog name and post ID taken from a request.
func ParsePostRef(blog, postID string) (PostRef, error) {
	postID = strings.TrimSpace(postID)
	if _, err := strconv.ParseUint(postID, 10, 64); err != nil {
		return PostRef{}, domain.ErrInvalidPostID
	}
	blog = strings.TrimSpace(blog)
	if blog == "" {
		return PostRef{}, domain.ErrMissingUsername
	}
	return PostRef{Blog: blog, PostID: domain.PostID(postID)}, nil
}

// PlatformURL is the canonical platform URL of the referenced post.
func (r PostRef) PlatformURL() string {
	return fmt.Sprintf("https://www.tumblr.com/%s/%s", r.Blog, r.PostID)
}

// EmbedService runs the fetch, normalize and render pipeline for one request.
// It holds no mutable state.
type EmbedService struct {
	posts    PostFetcher
	notes    NotesFetcher
	creds    CredentialResolver
	composer *embed.Composer
	order    normalize.TrailOrder
	locale   language.Tag
	logger   *slog.Logger
}

// EmbedServiceConfig holds the deployment-wide rendering policy.
type EmbedServiceConfig struct {
	TrailOrder    normalize.TrailOrder
	DefaultLocale language.Tag
}

// NewEmbedService creates a new embed service.
func NewEmbedService(
	posts PostFetcher,
	notes NotesFetcher,
	creds CredentialResolver,
	composer *embed.Composer,
	cfg EmbedServiceConfig,
	logger *slog.Logger,
) *EmbedService {
	if cfg.TrailOrder == "" {
		cfg.TrailOrder = normalize.TrailOrderPostFirst
	}
	if cfg.DefaultLocale == language.Und {
		cfg.DefaultLocale = normalize.DefaultLocale
	}
	return &EmbedService{
		posts:    posts,
		notes:    notes,
		creds:    creds,
		composer: composer,
		order:    cfg.TrailOrder,
		locale:   cfg.DefaultLocale,
		logger:   logger,
	}
}

// fetch resolves the credential once and fetches the post with it.
func (s *EmbedService) fetch(ctx context.Context, ref PostRef) (*domain.Post, domain.Credential, error) {
	cred := s.creds.Resolve(ctx)
	s.logger.Debug("fetching post",
		"blog", ref.Blog,
		"post_id", ref.PostID,
		"authenticated", cred.IsAuthenticated(),
	)
	post, err := s.posts.FetchPost(ctx, cred, ref.Blog, ref.PostID)
	if err != nil {
		return nil, cred, err
	}
	return post, cred, nil
}

// Post returns the normalized post.
func (s *EmbedService) Post(ctx context.Context, ref PostRef) (*domain.Post, error) {
	post, _, err := s.fetch(ctx, ref)
	return post, err
}

// Page renders the HTML document of a post.
func (s *EmbedService) Page(ctx context.Context, ref PostRef, opts embed.PageOptions) ([]byte, error) {
	post, _, err := s.fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.composer.RenderPage(embed.NewPage(post, s.order), opts)
}

// OEmbedOptions are the per-request switches of the oEmbed document.
type OEmbedOptions struct {
	// AcceptLanguage is the client's Accept-Language header.
	AcceptLanguage string
	// Type overrides the inferred oEmbed type when valid.
	Type string
}

// OEmbed renders the oEmbed document of a post, including its note breakdown.
func (s *EmbedService) OEmbed(ctx context.Context, ref PostRef, opts OEmbedOptions) (*embed.OEmbed, error) {
	post, cred, err := s.fetch(ctx, ref)
	if err != nil {
		return nil, err
	}

	notesBlog := post.Blog.Name
	if notesBlog == "" {
		notesBlog = ref.Blog
	}
	notesID := post.ID
	if notesID == "" {
		notesID = ref.PostID
	}
	summary, err := s.notes.GetNotes(ctx, cred, notesBlog, notesID, tumblr.NotesModeConversation)
	if err != nil {
		return nil, err
	}

	page := embed.NewPage(post, s.order)
	locale := normalize.ParseLocale(opts.AcceptLanguage, s.locale)
	doc := s.composer.RenderOEmbed(post, page.Media, normalize.Aggregate(summary, post.NoteCount), locale, opts.Type)
	return &doc, nil
}

// ErrorPage renders the document shown when the platform refused the post.
func (s *EmbedService) ErrorPage(ref PostRef, apiErr *domain.APIError, extra string, noRedirect bool) ([]byte, error) {
	return s.composer.RenderError(apiErr, ref.PlatformURL(), extra, noRedirect)
}
