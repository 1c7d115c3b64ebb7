package content

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

//go:embed pages/*.md
var pagesFS embed.FS

var ErrNotFound = errors.New("content: page not found")

// Page is a static document with its rendered body.
type Page struct {
	Slug        string
	Title       string
	Description string
	UpdatedAt   string
	Body        template.HTML
}

type frontMatter struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	UpdatedAt   string `yaml:"updated_at"`
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify))

// Library holds the parsed pages, keyed by slug.
type Library struct {
	pages map[string]Page
}

// Load parses every embedded page.
func Load() (*Library, error) {
	return LoadFS(pagesFS, "pages")
}

// LoadFS parses every .md file under dir in fsys.
func LoadFS(fsys fs.FS, dir string) (*Library, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	lib := &Library{pages: make(map[string]Page, len(entries))}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		slug := strings.TrimSuffix(e.Name(), ".md")
		page, err := Parse(slug, data)
		if err != nil {
			return nil, err
		}
		lib.pages[slug] = page
	}
	return lib, nil
}

// Get returns the page for slug.
func (l *Library) Get(slug string) (Page, error) {
	p, ok := l.pages[slug]
	if !ok {
		return Page{}, ErrNotFound
	}
	return p, nil
}

// Parse reads a markdown document with optional YAML front matter.
func Parse(slug string, data []byte) (Page, error) {
	fm, body := splitFrontMatter(string(data))
	front := frontMatter{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return Page{}, fmt.Errorf("content: parse front matter %s: %w", slug, err)
		}
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return Page{}, fmt.Errorf("content: render %s: %w", slug, err)
	}

	page := Page{
		Slug:        slug,
		Title:       strings.TrimSpace(front.Title),
		Description: strings.TrimSpace(front.Description),
		UpdatedAt:   strings.TrimSpace(front.UpdatedAt),
		// goldmark drops raw HTML unless WithUnsafe is set.
		Body: template.HTML(buf.String()),
	}
	if page.Title == "" {
		page.Title = slug
	}
	return page, nil
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}
