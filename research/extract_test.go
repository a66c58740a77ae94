package research

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head><title>Deployment Checklist</title></head>
<body>
<nav><a href="/">Home</a> <a href="/blog">Blog</a></nav>
<article>
<h1>Deployment Checklist</h1>
<p>Before shipping a release, confirm that the staging environment has run the
full integration suite against the release candidate. A green build on the
developer's machine is not evidence that the artifact produced by CI behaves
the same way under the production configuration.</p>
<p>Database migrations deserve their own dry run. Apply them against a recent
snapshot of production data and measure how long each step holds its locks.
Anything that rewrites a large table should be scheduled in a maintenance
window rather than rolled out with the application.</p>
<p>Finally, make sure the rollback path actually works. A deployment process
that can only move forward turns every small mistake into an incident.</p>
</article>
<footer>Copyright 2026</footer>
</body>
</html>`

func TestExtractArticle(t *testing.T) {
	e := NewExtractor()

	extract, err := e.Extract(&Page{
		URL:  "https://example.com/deploy-checklist",
		Body: []byte(articleHTML),
	})
	require.NoError(t, err)

	assert.Equal(t, "Deployment Checklist", extract.Title)
	assert.Contains(t, extract.Markdown, "staging environment")
	assert.Contains(t, extract.Markdown, "rollback path")
}

func TestExtractNoReadableContent(t *testing.T) {
	e := NewExtractor()

	_, err := e.Extract(&Page{
		URL:  "https://example.com/empty",
		Body: []byte("<html><body></body></html>"),
	})
	assert.Error(t, err)
}

func TestCleanMarkdown(t *testing.T) {
	in := "# Title   \n\n\n\n\n\nbody text\t\n"
	out := cleanMarkdown(in)

	assert.False(t, strings.Contains(out, "\n\n\n\n"))
	assert.False(t, strings.HasSuffix(out, "\n"))
	assert.Contains(t, out, "# Title")
}

func TestExtractMarkdownTitle(t *testing.T) {
	assert.Equal(t, "Hello", extractMarkdownTitle("intro\n# Hello\nbody"))
	assert.Equal(t, "", extractMarkdownTitle("no heading here"))
}
