package research

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	// DefaultMaxSources bounds how many URLs one request will fetch.
	DefaultMaxSources = 3

	// DefaultMaxSourceChars truncates a single source's markdown so one
	// long page cannot crowd out the rest of the planning context.
	DefaultMaxSourceChars = 8000
)

// pageFetcher is the slice of Fetcher the agent needs; stubbed in tests.
type pageFetcher interface {
	Fetch(ctx context.Context, urlStr string) (*Page, error)
}

// Agent fetches the URLs mentioned in a planning request and turns their
// readable content into a markdown findings block. Every failure is
// per-source and non-fatal: a dead link costs one source, never the plan.
type Agent struct {
	fetcher    pageFetcher
	extractor  *Extractor
	logger     *slog.Logger
	maxSources int
	maxChars   int
}

// Option configures an Agent.
type Option func(*Agent)

// WithFetchTimeout rebuilds the fetcher with the given timeout.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(a *Agent) { a.fetcher = NewFetcher(timeout, defaultMaxContentSize) }
}

// WithMaxSources caps how many URLs are fetched per request.
func WithMaxSources(n int) Option {
	return func(a *Agent) { a.maxSources = n }
}

// WithLogger sets the agent logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// NewAgent creates a research agent with the default hardened fetcher.
func NewAgent(opts ...Option) *Agent {
	a := &Agent{
		fetcher:    NewFetcher(defaultFetchTimeout, defaultMaxContentSize),
		extractor:  NewExtractor(),
		logger:     slog.Default(),
		maxSources: DefaultMaxSources,
		maxChars:   DefaultMaxSourceChars,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Augment fetches the URLs mentioned in the topic and background and
// returns a markdown findings block. No URLs, or no source yielding
// readable content, returns empty findings and no error.
func (a *Agent) Augment(ctx context.Context, topic, background string) (string, error) {
	urls := ExtractURLs(topic + "\n" + background)
	if len(urls) == 0 {
		return "", nil
	}
	if len(urls) > a.maxSources {
		a.logger.Info("Capping research sources", "found", len(urls), "max", a.maxSources)
		urls = urls[:a.maxSources]
	}

	var sections []string
	for _, urlStr := range urls {
		section, err := a.fetchSource(ctx, urlStr)
		if err != nil {
			a.logger.Warn("Research source skipped", "url", urlStr, "error", err)
			continue
		}
		sections = append(sections, section)
	}

	return strings.Join(sections, "\n\n"), nil
}

func (a *Agent) fetchSource(ctx context.Context, urlStr string) (string, error) {
	page, err := a.fetcher.Fetch(ctx, urlStr)
	if err != nil {
		return "", err
	}

	extract, err := a.extractor.Extract(page)
	if err != nil {
		return "", err
	}

	content := extract.Markdown
	if len(content) > a.maxChars {
		content = content[:a.maxChars] + "\n[truncated]"
	}

	title := extract.Title
	if title == "" {
		title = urlStr
	}

	return fmt.Sprintf("### %s\nSource: %s\n\n%s", title, urlStr, content), nil
}
