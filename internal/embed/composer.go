// Package embed renders normalized posts as link-preview documents: an HTML
// page carrying OpenGraph and Twitter meta tags, an oEmbed payload, and an
// error page with the same tag set.
package embed

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/iconidentify/tumblrembed/internal/domain"
	"github.com/iconidentify/tumblrembed/internal/normalize"
)

// Card types understood by Twitter/X style consumers.
const (
	CardSummary           = "summary"
	CardSummaryLargeImage = "summary_large_image"
	CardPlayer            = "player"
)

// Composer holds the deployment-wide constants shared by every document.
type Composer struct {
	ServiceName  string
	ProviderURL  string
	Domain       string
	DefaultColor string
	DangerColor  string
}

// NewComposer fills in the defaults for any empty field.
func NewComposer(c Composer) *Composer {
	if c.ServiceName == "" {
		c.ServiceName = "txTumblr"
	}
	if c.ProviderURL == "" {
		c.ProviderURL = "https://github.com/MarkSuckerberg/txtumblr"
	}
	if c.Domain == "" {
		c.Domain = "tumblr.com"
	}
	if c.DefaultColor == "" {
		c.DefaultColor = "5555aa"
	}
	if c.DangerColor == "" {
		c.DangerColor = "aa5555"
	}
	c.DefaultColor = strings.TrimPrefix(c.DefaultColor, "#")
	c.DangerColor = strings.TrimPrefix(c.DangerColor, "#")
	return &c
}

// PageOptions are the per-request switches of the HTML page.
type PageOptions struct {
	Image      normalize.Index
	Video      normalize.Index
	Audio      normalize.Index
	NoRedirect bool
	// OEmbedURL is the absolute discovery URL of this page's oEmbed document.
	OEmbedURL string
}

// Page is everything the HTML document is derived from.
type Page struct {
	Post    *domain.Post
	Content normalize.Classified
	Media   normalize.Selected
}

// NewPage flattens, classifies and selects media for post.
func NewPage(post *domain.Post, order normalize.TrailOrder) Page {
	content := normalize.Classify(normalize.Flatten(post, order))
	return Page{
		Post:    post,
		Content: content,
		Media:   normalize.Select(content),
	}
}

// Title is the blog name, followed by the reblog source for reblogs or by the
// blog title otherwise.
func (p Page) Title() string {
	if root, ok := p.Post.Root(); ok {
		return fmt.Sprintf("%s 🔁 %s", p.Post.Blog.Name, root.BlogDisplayName())
	}
	return fmt.Sprintf("%s (%s)", p.Post.Blog.Name, p.Post.Blog.Title)
}

// Description is the tag line followed by every text block.
func (p Page) Description() string {
	var b strings.Builder
	if len(p.Post.Tags) > 0 {
		b.WriteString("Tags: #")
		b.WriteString(strings.Join(p.Post.Tags, " #"))
		b.WriteString("\n")
	}
	texts := make([]string, 0, len(p.Content.Text))
	for _, t := range p.Content.Text {
		texts = append(texts, t.Text)
	}
	b.WriteString(strings.Join(texts, "\n\n"))
	return b.String()
}

// Card is decided by the first image or video block in flattened order.
func (p Page) Card() string {
	switch p.Content.Lead {
	case domain.BlockKindVideo:
		return CardPlayer
	case domain.BlockKindImage:
		return CardSummaryLargeImage
	default:
		return CardSummary
	}
}

type pageData struct {
	ServiceName string
	Domain      string
	Title       string
	Description string
	PostURL     string
	Creator     string
	Site        string
	Card        string
	Images      []normalize.Media
	Videos      []normalize.Media
	Audios      []normalize.Media
	OEmbedURL   string
	Redirect    bool
	ThemeColor  string
}

// RenderPage renders the HTML document of a post.
func (c *Composer) RenderPage(p Page, opts PageOptions) ([]byte, error) {
	color, ok := p.Content.ThemeColor()
	if !ok {
		color = c.DefaultColor
	}

	data := pageData{
		ServiceName: c.ServiceName,
		Domain:      c.Domain,
		Title:       p.Title(),
		Description: p.Description(),
		PostURL:     p.Post.PostURL,
		Creator:     p.Post.CreatorName(),
		Site:        p.Post.Blog.URL,
		Card:        p.Card(),
		Images:      normalize.Pick(p.Media.Images, opts.Image),
		Videos:      normalize.Pick(p.Media.Videos, opts.Video),
		Audios:      normalize.Pick(p.Media.Audios, opts.Audio),
		OEmbedURL:   opts.OEmbedURL,
		Redirect:    !opts.NoRedirect,
		ThemeColor:  color,
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

type errorData struct {
	ServiceName string
	Domain      string
	Description string
	PostURL     string
	Redirect    bool
	ThemeColor  string
}

// RenderError renders the page shown when the platform refused the post.
func (c *Composer) RenderError(apiErr *domain.APIError, postURL, extra string, noRedirect bool) ([]byte, error) {
	var b strings.Builder
	b.WriteString("Unable to retrieve post from this link.\n\nTumblr Error:\n")
	b.WriteString(apiErr.Description())
	if extra != "" {
		b.WriteString("\n")
		b.WriteString(extra)
	}

	data := errorData{
		ServiceName: c.ServiceName,
		Domain:      c.Domain,
		Description: b.String(),
		PostURL:     postURL,
		Redirect:    !noRedirect,
		ThemeColor:  c.DangerColor,
	}

	var buf bytes.Buffer
	if err := errorTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render error page: %w", err)
	}
	return buf.Bytes(), nil
}

// attr escapes a value for a double-quoted attribute.
func attr(s string) string {
	return strings.ReplaceAll(s, `"`, "&quot;")
}

// text escapes a value for element content.
func text(s string) string {
	return template.HTMLEscapeString(s)
}

var funcs = template.FuncMap{"attr": attr, "text": text}

var pageTemplate = template.Must(template.New("page").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8" />
	<title>{{text .Title}}</title>
	<meta name="description" content="{{attr .Description}}" />
	<link rel="canonical" href="{{attr .PostURL}}" />

	<!-- OpenGraph embed tags -->
	<meta property="og:site_name" content="{{attr .ServiceName}}" />
	<meta property="og:type" content="website" />
	<meta property="og:title" content="{{attr .Title}}" />
	<meta property="og:url" content="{{attr .PostURL}}" />
	<meta property="og:description" content="{{attr .Description}}" />

	<!-- Twitter embed tags -->
	<meta name="twitter:card" content="{{.Card}}">
	<meta property="twitter:domain" content="{{attr .Domain}}">
	<meta property="twitter:title" content="{{attr .Title}}" />
	<meta property="twitter:creator" content="{{attr .Creator}}" />
	<meta property="twitter:site" content="{{attr .Site}}" />
	<meta property="twitter:url" content="{{attr .PostURL}}" />
	<meta property="twitter:description" content="{{attr .Description}}" />
{{range .Videos}}
	<meta property="og:video" content="{{attr .URL}}" />
	<meta property="twitter:player:stream" content="{{attr .URL}}" />
{{- if .Width}}
	<meta property="og:video:width" content="{{.Width}}" />
	<meta property="og:video:height" content="{{.Height}}" />
{{- end}}
{{end}}
{{- range .Images}}
	<meta property="og:image" content="{{attr .URL}}" />
	<meta property="og:image-height" content="{{.Height}}" />
	<meta property="og:image-width" content="{{.Width}}" />
	<meta property="twitter:image" content="{{attr .URL}}" />
{{end}}
{{- range .Audios}}
	<meta property="og:audio" content="{{attr .URL}}" />
{{end}}
{{- if .OEmbedURL}}
	<link rel="alternate" href="{{attr .OEmbedURL}}" type="application/json+oembed" title="{{attr .Creator}}" />
{{end}}
{{- if .Redirect}}
	<meta http-equiv="refresh" content="0;url={{attr .PostURL}}" />
{{end}}
	<meta property="theme-color" content="#{{attr .ThemeColor}}" />
</head>
</html>
`))

var errorTemplate = template.Must(template.New("error").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8" />
	<title>{{text .ServiceName}}</title>
	<meta name="description" content="{{attr .Description}}" />
	<link rel="canonical" href="{{attr .PostURL}}" />

	<!-- OpenGraph embed tags -->
	<meta property="og:site_name" content="{{attr .ServiceName}}" />
	<meta property="og:type" content="website" />
	<meta property="og:title" content="{{attr .ServiceName}}" />
	<meta property="og:url" content="{{attr .PostURL}}" />
	<meta property="og:description" content="{{attr .Description}}" />

	<!-- Twitter embed tags -->
	<meta name="twitter:card" content="summary">
	<meta property="twitter:domain" content="{{attr .Domain}}">
	<meta property="twitter:title" content="{{attr .ServiceName}}" />
	<meta property="twitter:url" content="{{attr .PostURL}}" />
	<meta property="twitter:description" content="{{attr .Description}}" />
{{if .Redirect}}
	<meta http-equiv="refresh" content="0;url={{attr .PostURL}}" />
{{end}}
	<meta property="theme-color" content="#{{attr .ThemeColor}}" />
</head>
</html>
`))
