package handlers

import (
	"io"
	"net/http"

	"github.com/messnightlife/mess-web/internal/content"
)

type PageSource interface {
	Get(slug string) (content.Page, error)
}

type PageRenderer interface {
	Page(w io.Writer, p content.Page, path string) error
	Home(w io.Writer) error
}

// PageHandler serves the landing page and static documents.
type PageHandler struct {
	pages    PageSource
	renderer PageRenderer
}

func NewPageHandler(pages PageSource, renderer PageRenderer) *PageHandler {
	return &PageHandler{pages: pages, renderer: renderer}
}

func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, r, http.StatusOK, h.renderer.Home)
}

// Static returns a handler for the page stored under slug.
func (h *PageHandler) Static(slug string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := h.pages.Get(slug)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		writeHTML(w, r, http.StatusOK, func(out io.Writer) error {
			return h.renderer.Page(out, page, r.URL.Path)
		})
	}
}
