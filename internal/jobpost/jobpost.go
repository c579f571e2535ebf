// Package jobpost retrieves a job posting from the web and reduces it to plain text that can be
// used as the job description of a selected role.
package jobpost

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jonathan/resume-pivot/internal/ingestion"
	"github.com/jonathan/resume-pivot/internal/logging"
)

const (
	// DefaultTimeout bounds a single HTTP fetch
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is sent with every request
	DefaultUserAgent = "Mozilla/5.0 (compatible; ResumePivot/1.0)"
	// MinPostingChars is the extracted length below which a page is assumed to be rendered by scripts
	MinPostingChars = 500
	// MaxPostingChars matches the job description limit accepted by role selection
	MaxPostingChars = 20000
	// maxBodyBytes caps how much of a response is read
	maxBodyBytes = 4 << 20
)

// Posting is the extracted text of one job posting
type Posting struct {
	URL      string `json:"url"`
	Board    Board  `json:"board"`
	Text     string `json:"text"`
	Rendered bool   `json:"rendered"`
}

// Error describes a failed fetch. StatusCode is zero when no response was received.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Renderer returns the HTML of a page after its scripts have run
type Renderer func(ctx context.Context, url string) (string, error)

// Options configures a Fetcher. Zero values use the defaults; a nil Render disables the
// browser fallback.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Render    Renderer
	Logger    *zap.Logger
}

// Fetcher downloads job postings
type Fetcher struct {
	client    *http.Client
	userAgent string
	render    Renderer
	logger    *zap.Logger
}

// NewFetcher creates a Fetcher
func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Fetcher{
		client:    &http.Client{Timeout: opts.Timeout},
		userAgent: opts.UserAgent,
		render:    opts.Render,
		logger:    logging.OrNop(opts.Logger).Named("jobpost"),
	}
}

// Fetch downloads the posting at rawURL and extracts its description. Pages that fail or yield
// too little text are retried through the renderer when one is configured.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Posting, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &Error{URL: rawURL, Message: "invalid URL", Cause: err}
	}
	posting := &Posting{URL: u.String(), Board: DetectBoard(u)}

	html, err := f.get(ctx, posting.URL)
	if err == nil {
		posting.Text, err = Extract(html, posting.Board)
	}

	if f.render != nil && ctx.Err() == nil && (err != nil || len(posting.Text) < MinPostingChars) {
		f.logger.Debug("rendering job posting in browser",
			zap.String("url", posting.URL),
			zap.Int("chars", len(posting.Text)),
			zap.Error(err))
		if text, rerr := f.renderText(ctx, posting); rerr != nil {
			f.logger.Warn("browser rendering failed", zap.String("url", posting.URL), zap.Error(rerr))
		} else if text != "" && len(text) > len(posting.Text) {
			posting.Text, posting.Rendered, err = text, true, nil
		}
	}
	if err != nil {
		return nil, err
	}

	if posting.Text == "" {
		return nil, &Error{URL: posting.URL, Message: "no job description text found"}
	}
	posting.Text = ingestion.Truncate(posting.Text, MaxPostingChars)

	f.logger.Info("fetched job posting",
		zap.String("url", posting.URL),
		zap.String("board", string(posting.Board)),
		zap.Bool("rendered", posting.Rendered),
		zap.Int("chars", len(posting.Text)))
	return posting, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &Error{URL: rawURL, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &Error{URL: rawURL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{URL: rawURL, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode), StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &Error{URL: rawURL, Message: "failed to read response body", Cause: err}
	}
	return string(body), nil
}

func (f *Fetcher) renderText(ctx context.Context, posting *Posting) (string, error) {
	html, err := f.render(ctx, posting.URL)
	if err != nil {
		return "", err
	}
	return Extract(html, posting.Board)
}

// Extract returns the description text of a posting page. Page chrome and application forms are
// removed; the first matching content selector of the board wins, falling back to the body.
func Extract(html string, board Board) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(strings.Join(board.noiseSelectors(), ", ")).Remove()

	content := doc.Find("body")
	for _, selector := range board.contentSelectors() {
		if s := doc.Find(selector); s.Length() > 0 {
			content = s.First()
			break
		}
	}

	fragment, err := goquery.OuterHtml(content)
	if err != nil {
		return "", fmt.Errorf("failed to render content: %w", err)
	}
	return ingestion.StripHTML(fragment)
}
