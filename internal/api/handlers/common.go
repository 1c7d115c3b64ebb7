package handlers

import (
	"bytes"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/messnightlife/mess-web/internal/logger"
)

// writeHTML renders into a buffer first so a template failure still yields a
// clean 500 instead of a half written page.
func writeHTML(w http.ResponseWriter, r *http.Request, status int, fn func(io.Writer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("render failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(buf.Bytes())
}

// pathParam returns the decoded route parameter. chi matches on RawPath when
// the request carried escapes it would otherwise lose, e.g. %2F, and the
// parameter is then still escaped.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}
