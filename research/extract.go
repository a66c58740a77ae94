package research

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

var excessiveLinesRe = regexp.MustCompile(`\n{4,}`)

// Extract is the readable content of a page, converted to markdown.
type Extract struct {
	Title    string
	Markdown string
}

// Extractor pulls the readable article out of an HTML page and converts
// it to markdown.
type Extractor struct {
	converter *md.Converter
}

// NewExtractor creates an extractor with GitHub-flavored markdown output.
func NewExtractor() *Extractor {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	return &Extractor{converter: converter}
}

// Extract runs readability over the page and converts the article body
// to markdown. The page URL resolves relative links.
func (e *Extractor) Extract(page *Page) (*Extract, error) {
	pageURL, err := url.Parse(page.URL)
	if err != nil {
		return nil, fmt.Errorf("parse page URL: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(page.Body), pageURL)
	if err != nil {
		return nil, fmt.Errorf("extract readable content: %w", err)
	}

	markdown, err := e.converter.ConvertString(article.Content)
	if err != nil {
		return nil, fmt.Errorf("convert to markdown: %w", err)
	}

	markdown = cleanMarkdown(markdown)
	if markdown == "" {
		return nil, fmt.Errorf("no readable content")
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = extractHTMLTitle(page.Body)
	}
	if title == "" {
		title = extractMarkdownTitle(markdown)
	}

	return &Extract{Title: title, Markdown: markdown}, nil
}

// cleanMarkdown collapses excessive blank lines and trims trailing
// whitespace per line.
func cleanMarkdown(content string) string {
	content = excessiveLinesRe.ReplaceAllString(content, "\n\n\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	content = strings.Join(lines, "\n")

	return strings.TrimSpace(content)
}

// extractHTMLTitle pulls the <title> element from raw HTML.
func extractHTMLTitle(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			if title == "" {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return title
}

// extractMarkdownTitle extracts the first H1 heading from markdown.
func extractMarkdownTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
