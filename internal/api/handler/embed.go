package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iconidentify/tumblrembed/internal/domain"
	"github.com/iconidentify/tumblrembed/internal/embed"
	"github.com/iconidentify/tumblrembed/internal/metrics"
	"github.com/iconidentify/tumblrembed/internal/normalize"
	"github.com/iconidentify/tumblrembed/internal/service"
)

const (
	contentTypeHTML       = "text/html;charset=UTF-8"
	contentTypeJSON       = "application/json;charset=UTF-8"
	contentTypeLegacyJSON = "text/json;charset=UTF-8"
)

// EmbedConfig holds the handler's deployment switches.
type EmbedConfig struct {
	// HomeURL is where GET / redirects.
	HomeURL string
	// PublicBaseURL overrides the scheme and host of oEmbed discovery links.
	PublicBaseURL string
	// LegacyJSONContentType serves JSON as text/json.
	LegacyJSONContentType bool
}

// EmbedHandler serves the embed pages and documents.
type EmbedHandler struct {
	svc     *service.EmbedService
	cfg     EmbedConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewEmbedHandler creates a new embed handler.
func NewEmbedHandler(svc *service.EmbedService, cfg EmbedConfig, m *metrics.Metrics, logger *slog.Logger) *EmbedHandler {
	if cfg.HomeURL == "" {
		cfg.HomeURL = "https://github.com/MarkSuckerberg/txtumblr"
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &EmbedHandler{
		svc:     svc,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
	}
}

// Home handles GET / by redirecting to the project page.
func (h *EmbedHandler) Home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.cfg.HomeURL, http.StatusMovedPermanently)
}

// Post handles GET /{username}/{postID}.
func (h *EmbedHandler) Post(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := metrics.FormatHTML
	switch {
	case q.Has("oembed"):
		format = metrics.FormatOEmbed
	case q.Has("json"):
		format = metrics.FormatJSON
	}

	ref, ok := h.parseRef(w, chi.URLParam(r, "username"), chi.URLParam(r, "postID"), format)
	if !ok {
		return
	}
	noRedirect := q.Has("noRedirect")

	switch format {
	case metrics.FormatOEmbed:
		h.writeOEmbed(w, r, ref, q.Get("type"), noRedirect)
	case metrics.FormatJSON:
		post, err := h.svc.Post(r.Context(), ref)
		if err != nil {
			h.handleError(w, r, ref, format, noRedirect, err)
			return
		}
		h.writeJSON(w, format, post)
	default:
		opts := embed.PageOptions{
			Image:      mediaIndex(q.Get("image")),
			Video:      mediaIndex(q.Get("video")),
			Audio:      mediaIndex(q.Get("audio")),
			NoRedirect: noRedirect,
			OEmbedURL:  h.oembedURL(r),
		}
		page, err := h.svc.Page(r.Context(), ref, opts)
		if err != nil {
			h.handleError(w, r, ref, format, noRedirect, err)
			return
		}
		w.Header().Set("Content-Type", contentTypeHTML)
		w.WriteHeader(http.StatusOK)
		w.Write(page)
		h.metrics.ObserveRender(format, metrics.OutcomeOK)
	}
}

// OEmbed handles GET /oembed?username=&post_id=&blog_url=&type=.
func (h *EmbedHandler) OEmbed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	username := q.Get("username")
	if username == "" {
		username = blogFromURL(q.Get("blog_url"))
	}
	ref, ok := h.parseRef(w, username, q.Get("post_id"), metrics.FormatOEmbed)
	if !ok {
		return
	}
	h.writeOEmbed(w, r, ref, q.Get("type"), q.Has("noRedirect"))
}

func (h *EmbedHandler) writeOEmbed(w http.ResponseWriter, r *http.Request, ref service.PostRef, typ string, noRedirect bool) {
	doc, err := h.svc.OEmbed(r.Context(), ref, service.OEmbedOptions{
		AcceptLanguage: r.Header.Get("Accept-Language"),
		Type:           typ,
	})
	if err != nil {
		h.handleError(w, r, ref, metrics.FormatOEmbed, noRedirect, err)
		return
	}
	h.writeJSON(w, metrics.FormatOEmbed, doc)
}

func (h *EmbedHandler) parseRef(w http.ResponseWriter, username, postID, format string) (service.PostRef, bool) {
	ref, err := service.ParsePostRef(username, postID)
	switch {
	case errors.Is(err, domain.ErrInvalidPostID):
		writeText(w, http.StatusBadRequest, "Bad post ID")
	case errors.Is(err, domain.ErrMissingUsername):
		writeText(w, http.StatusBadRequest, "No username provided")
	case err != nil:
		writeText(w, http.StatusBadRequest, err.Error())
	default:
		return ref, true
	}
	h.metrics.ObserveRender(format, metrics.OutcomeBadRequest)
	return service.PostRef{}, false
}

func (h *EmbedHandler) writeJSON(w http.ResponseWriter, format string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("failed to encode response", "format", format, "error", err)
		writeText(w, http.StatusInternalServerError, "Error encoding response")
		h.metrics.ObserveRender(format, metrics.OutcomeInternalError)
		return
	}
	ct := contentTypeJSON
	if h.cfg.LegacyJSONContentType {
		ct = contentTypeLegacyJSON
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
	h.metrics.ObserveRender(format, metrics.OutcomeOK)
}

// handleError renders a platform refusal as the error page with the
// platform's status, and anything else as a plain 500. oEmbed consumers get
// the refusal as plain text since they never display HTML.
func (h *EmbedHandler) handleError(w http.ResponseWriter, r *http.Request, ref service.PostRef, format string, noRedirect bool, err error) {
	if apiErr, ok := domain.AsAPIError(err); ok {
		h.logger.Info("platform refused post",
			"blog", ref.Blog,
			"post_id", ref.PostID,
			"format", format,
			"status", apiErr.Status,
			"message", apiErr.Message,
		)
		status := apiErr.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		if format == metrics.FormatOEmbed {
			writeText(w, status, "Tumblr Error: "+apiErr.Description())
			h.metrics.ObserveRender(format, metrics.OutcomeUpstreamError)
			return
		}
		page, renderErr := h.svc.ErrorPage(ref, apiErr, "", noRedirect)
		if renderErr == nil {
			w.Header().Set("Content-Type", contentTypeHTML)
			w.WriteHeader(status)
			w.Write(page)
			h.metrics.ObserveRender(format, metrics.OutcomeUpstreamError)
			return
		}
		err = renderErr
	}

	incident := uuid.NewString()
	h.logger.Error("failed to serve post",
		"incident_id", incident,
		"blog", ref.Blog,
		"post_id", ref.PostID,
		"format", format,
		"error", err,
	)
	writeText(w, http.StatusInternalServerError, fmt.Sprintf("Error fetching post: %v\nIncident: %s", err, incident))
	h.metrics.ObserveRender(format, metrics.OutcomeInternalError)
}

// oembedURL is the discovery link of the current page. Without PublicBaseURL
// the host comes from the request, so deployments behind a proxy that does
// not preserve Host should set it.
func (h *EmbedHandler) oembedURL(r *http.Request) string {
	base := h.cfg.PublicBaseURL
	if base == "" {
		base = requestScheme(r) + "://" + r.Host
	}
	return base + r.URL.EscapedPath() + "?oembed"
}

// requestScheme honours X-Forwarded-Proto only for http and https. Proxies
// may append values, so only the first is considered.
func requestScheme(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	proto, _, _ := strings.Cut(r.Header.Get("X-Forwarded-Proto"), ",")
	switch p := strings.ToLower(strings.TrimSpace(proto)); p {
	case "http", "https":
		scheme = p
	}
	return scheme
}

// mediaIndex reads a media query parameter. A value that is not a number
// selects nothing.
func mediaIndex(raw string) normalize.Index {
	idx, err := normalize.ParseIndex(raw)
	if err != nil {
		return normalize.At(0)
	}
	return idx
}

// blogFromURL extracts the blog name from either https://{blog}.tumblr.com/...
// or https://www.tumblr.com/{blog}/....
func blogFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case host == "tumblr.com" || host == "www.tumblr.com":
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		if segments[0] == "blog" && len(segments) > 1 {
			return segments[1]
		}
		return segments[0]
	case strings.HasSuffix(host, ".tumblr.com"):
		return strings.TrimSuffix(host, ".tumblr.com")
	default:
		return ""
	}
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(msg))
}
