// Package auth decides which credential a request uses for the platform API.
// A stored refresh token is rotated on every request; when it is missing or
// rejected the request proceeds with the public consumer key.
package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/iconidentify/tumblrembed/internal/domain"
	"github.com/iconidentify/tumblrembed/internal/metrics"
	"github.com/iconidentify/tumblrembed/internal/store"
)

// DefaultTokenURL is the platform's OAuth2 token endpoint.
const DefaultTokenURL = "https://api.tumblr.com/v2/oauth2/token"

// Config holds the application credentials.
type Config struct {
	ConsumerKey    string
	ConsumerSecret string
	TokenURL       string
	UserAgent      string
	HTTPTimeout    time.Duration
}

// Coordinator resolves the credential for one request. It holds no per-request
// state; concurrent requests may both rotate the token, and the loser's next
// refresh simply falls back.
type Coordinator struct {
	oauth   *oauth2.Config
	hc      *http.Client
	key     string
	store   store.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewCoordinator creates a coordinator over the given store.
func NewCoordinator(cfg Config, st store.Store, m *metrics.Metrics, logger *slog.Logger) *Coordinator {
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 15 * time.Second
	}

	hc := &http.Client{Timeout: cfg.HTTPTimeout}
	if cfg.UserAgent != "" {
		hc.Transport = &userAgentTransport{ua: cfg.UserAgent, next: http.DefaultTransport}
	}

	return &Coordinator{
		oauth: &oauth2.Config{
			ClientID:     cfg.ConsumerKey,
			ClientSecret: cfg.ConsumerSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL: cfg.TokenURL,
				// client_id and client_secret travel in the request body.
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		hc:      hc,
		key:     cfg.ConsumerKey,
		store:   st,
		metrics: m,
		logger:  logger,
	}
}

// Resolve returns an authenticated credential when the stored refresh token
// can be exchanged, and the fallback credential otherwise. It never fails.
func (c *Coordinator) Resolve(ctx context.Context) domain.Credential {
	refreshToken, err := c.store.Get(ctx, store.KeyRefreshToken)
	if err != nil && !errors.Is(err, domain.ErrKeyNotFound) {
		c.logger.Warn("read refresh token failed, using consumer key", "error", err)
	}
	if strings.TrimSpace(refreshToken) == "" {
		c.metrics.ObserveTokenRefresh(metrics.OutcomeNoToken)
		return domain.Fallback(c.key)
	}

	tok, err := c.refresh(ctx, refreshToken)
	if err != nil {
		c.metrics.ObserveTokenRefresh(metrics.OutcomeFailed)
		c.logger.Warn("token refresh failed, using consumer key", "error", err)
		failure := err.Error()
		var re *RefreshError
		if errors.As(err, &re) && re.Raw != "" {
			failure = re.Raw
		}
		if err := c.store.Put(ctx, store.KeyAccessTokenError, failure); err != nil {
			c.logger.Error("record token error failed", "error", err)
		}
		return domain.Fallback(c.key)
	}

	// The platform invalidates the old refresh token as soon as it issues a new one.
	if err := c.store.Put(ctx, store.KeyRefreshToken, tok.RefreshToken); err != nil {
		c.logger.Error("persist rotated refresh token failed", "error", err)
	}
	c.metrics.ObserveTokenRefresh(metrics.OutcomeRefreshed)
	return domain.Authenticated(tok.AccessToken)
}

// RefreshError is a failed refresh grant. It matches domain.ErrTokenRefreshFailed.
type RefreshError struct {
	// Raw is the token endpoint's response body, empty when it never answered.
	Raw string
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("%v: %v", domain.ErrTokenRefreshFailed, e.Err)
}

func (e *RefreshError) Unwrap() []error {
	return []error{domain.ErrTokenRefreshFailed, e.Err}
}

// refresh performs the refresh grant. Failures are *RefreshError carrying the
// endpoint's body whenever one was received, including 2xx bodies that did not
// decode.
func (c *Coordinator) refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	capture := &bodyCapture{next: c.hc.Transport}
	hc := &http.Client{Timeout: c.hc.Timeout, Transport: capture}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)
	tok, err := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, &RefreshError{Raw: string(capture.body), Err: err}
	}
	if tok.AccessToken == "" {
		return nil, &RefreshError{Raw: string(capture.body), Err: errors.New("response missing access_token")}
	}
	return tok, nil
}

// maxTokenBody bounds how much of a token response is kept.
const maxTokenBody = 1 << 20

// bodyCapture keeps a copy of the last response body it relayed.
type bodyCapture struct {
	next http.RoundTripper
	body []byte
}

func (b *bodyCapture) RoundTrip(req *http.Request) (*http.Response, error) {
	next := b.next
	if next == nil {
		next = http.DefaultTransport
	}
	resp, err := next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenBody))
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	b.body = body
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

type userAgentTransport struct {
	ua   string
	next http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.ua)
	return t.next.RoundTrip(req)
}
