package content

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedPages(t *testing.T) {
	lib, err := Load()
	require.NoError(t, err)

	privacy, err := lib.Get("privacy")
	require.NoError(t, err)
	assert.Equal(t, "Privacy Policy", privacy.Title)
	assert.Equal(t, "Privacy Policy for Mess Nightlife App", privacy.Description)
	assert.Equal(t, "December 6, 2025", privacy.UpdatedAt)
	assert.Contains(t, string(privacy.Body), "<h2>1. Introduction</h2>")
	assert.Contains(t, string(privacy.Body), `href="mailto:privacy@messnightlife.com"`)

	terms, err := lib.Get("terms")
	require.NoError(t, err)
	assert.Equal(t, "Terms of Service", terms.Title)

	_, err = lib.Get("cookies")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParse(t *testing.T) {
	t.Run("front_matter", func(t *testing.T) {
		p, err := Parse("about", []byte("---\ntitle: About\n---\n\n# Hi\n\n- **one**\n"))
		require.NoError(t, err)
		assert.Equal(t, "About", p.Title)
		assert.Contains(t, string(p.Body), "<h1>Hi</h1>")
		assert.Contains(t, string(p.Body), "<strong>one</strong>")
	})

	t.Run("no_front_matter_uses_slug", func(t *testing.T) {
		p, err := Parse("about", []byte("plain"))
		require.NoError(t, err)
		assert.Equal(t, "about", p.Title)
		assert.Equal(t, "<p>plain</p>", strings.TrimSpace(string(p.Body)))
	})

	t.Run("unterminated_front_matter_is_body", func(t *testing.T) {
		p, err := Parse("x", []byte("---\ntitle: x\n"))
		require.NoError(t, err)
		assert.Equal(t, "x", p.Title)
	})

	t.Run("bad_yaml", func(t *testing.T) {
		_, err := Parse("x", []byte("---\ntitle: [\n---\nbody"))
		assert.Error(t, err)
	})

	t.Run("raw_html_is_dropped", func(t *testing.T) {
		p, err := Parse("x", []byte("<script>alert(1)</script>\n\ntext"))
		require.NoError(t, err)
		assert.NotContains(t, string(p.Body), "<script>")
	})
}

func TestLoadFS_SkipsNonMarkdown(t *testing.T) {
	fsys := fstest.MapFS{
		"pages/a.md":      {Data: []byte("---\ntitle: A\n---\nbody")},
		"pages/notes.txt": {Data: []byte("ignored")},
	}
	lib, err := LoadFS(fsys, "pages")
	require.NoError(t, err)
	_, err = lib.Get("a")
	assert.NoError(t, err)
	_, err = lib.Get("notes")
	assert.ErrorIs(t, err, ErrNotFound)
}
