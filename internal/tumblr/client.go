// Package tumblr is a minimal client for the Tumblr v2 API: fetching a single
// post in NPF format and fetching its notes.
package tumblr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iconidentify/tumblrembed/internal/domain"
)

// DefaultBaseURL is the public API host.
const DefaultBaseURL = "https://api.tumblr.com"

// NotesModeConversation returns likes, reblogs and replies in one listing.
const NotesModeConversation = "conversation"

// Config configures a Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client fetches posts and notes from the Tumblr API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new Tumblr client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "tumblrembed/1.0"
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		userAgent: cfg.UserAgent,
	}
}

// FetchPost retrieves a single post, with its reblog trail, in NPF format.
func (c *Client) FetchPost(ctx context.Context, cred domain.Credential, blog string, id domain.PostID) (*domain.Post, error) {
	q := url.Values{}
	q.Set("npf", "true")
	path := fmt.Sprintf("/v2/blog/%s/posts/%s", url.PathEscape(blog), url.PathEscape(id.String()))

	var wp wirePost
	if err := c.get(ctx, cred, path, q, &wp); err != nil {
		return nil, domain.NewPostError(blog, id, "fetch post", err)
	}
	return wp.toDomain(), nil
}

// GetNotes retrieves the notes page of a post.
func (c *Client) GetNotes(ctx context.Context, cred domain.Credential, blog string, id domain.PostID, mode string) (*domain.NotesSummary, error) {
	q := url.Values{}
	q.Set("id", id.String())
	if mode != "" {
		q.Set("mode", mode)
	}
	path := fmt.Sprintf("/v2/blog/%s/notes", url.PathEscape(blog))

	var wn wireNotes
	if err := c.get(ctx, cred, path, q, &wn); err != nil {
		return nil, domain.NewPostError(blog, id, "fetch notes", err)
	}
	return wn.toDomain(), nil
}

// get performs an authenticated GET and decodes the envelope's response field
// into out. A non-2xx answer carrying the platform's error envelope becomes a
// *domain.APIError.
func (c *Client) get(ctx context.Context, cred domain.Credential, path string, q url.Values, out any) error {
	if !cred.IsAuthenticated() {
		q.Set("api_key", cred.Token)
	}
	endpoint := c.baseURL + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if cred.IsAuthenticated() {
		req.Header.Set("Authorization", "Bearer "+cred.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if apiErr := parseAPIError(resp.StatusCode, body); apiErr != nil {
			return apiErr
		}
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	env := envelope{Response: out}
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type envelope struct {
	Meta struct {
		Status int    `json:"status"`
		Msg    string `json:"msg"`
	} `json:"meta"`
	Response any `json:"response"`
	Errors   []struct {
		Title  string `json:"title"`
		Code   int    `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

func parseAPIError(status int, body []byte) *domain.APIError {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Meta.Msg == "" {
		return nil
	}
	apiErr := &domain.APIError{
		Status:  env.Meta.Status,
		Message: env.Meta.Msg,
	}
	if apiErr.Status == 0 {
		apiErr.Status = status
	}
	if len(env.Errors) > 0 {
		apiErr.Detail = env.Errors[0].Detail
	}
	return apiErr
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
