package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/messnightlife/mess-web/internal/content"
	"github.com/messnightlife/mess-web/internal/domain"
	"github.com/messnightlife/mess-web/internal/render"
	"github.com/messnightlife/mess-web/internal/seo"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, id string) (*domain.Event, bool) {
	args := m.Called(ctx, id)
	ev, _ := args.Get(0).(*domain.Event)
	return ev, args.Bool(1)
}

type failingRenderer struct{}

func (failingRenderer) Event(io.Writer, *domain.Event, string) error {
	return errors.New("template exploded")
}

func (failingRenderer) Page(io.Writer, content.Page, string) error {
	return errors.New("template exploded")
}

func (failingRenderer) Home(io.Writer) error {
	return errors.New("template exploded")
}

func newRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	r, err := render.New(render.Options{Site: seo.Site{Origin: "https://messnightlife.com", Name: "Mess"}})
	require.NoError(t, err)
	return r
}

func eventRouter(h *EventHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/events/{id}", h.GetEventPreview)
	return r
}

func sampleEvent() *domain.Event {
	return &domain.Event{
		ID:        "evt_1",
		Title:     "Rooftop Sessions",
		StartsAt:  time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC),
		VenueName: "Loft",
		Address:   "12 King St",
	}
}

func TestGetEventPreview_Found(t *testing.T) {
	res := new(mockResolver)
	res.On("Resolve", mock.Anything, "evt_1").Return(sampleEvent(), true)

	h := NewEventHandler(res, newRenderer(t), 60*time.Second)
	w := httptest.NewRecorder()
	eventRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/evt_1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "s-maxage=60")

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	assert.Equal(t, "Rooftop Sessions", doc.Find("h1").Text())
	assert.Equal(t, "Rooftop Sessions - Mess", doc.Find("title").Text())
	res.AssertExpectations(t)
}

func TestGetEventPreview_NotFound(t *testing.T) {
	res := new(mockResolver)
	res.On("Resolve", mock.Anything, "gone").Return(nil, false)

	h := NewEventHandler(res, newRenderer(t), 60*time.Second)
	w := httptest.NewRecorder()
	eventRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/gone", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	assert.Equal(t, "Event Not Found - Mess", doc.Find("title").Text())
	robots, _ := doc.Find(`meta[name="robots"]`).Attr("content")
	assert.Contains(t, robots, "noindex")
}

func TestGetEventPreview_IgnoresEventWhenNotOK(t *testing.T) {
	res := new(mockResolver)
	res.On("Resolve", mock.Anything, "half").Return(sampleEvent(), false)

	h := NewEventHandler(res, newRenderer(t), 60*time.Second)
	w := httptest.NewRecorder()
	eventRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/half", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "Rooftop Sessions")
}

func TestGetEventPreview_DecodesID(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{name: "escaped_slash", target: "/events/a%2Fb", want: "a/b"},
		{name: "escaped_space", target: "/events/a%20b", want: "a b"},
		{name: "utf8", target: "/events/caf%C3%A9", want: "café"},
		{name: "plain", target: "/events/123", want: "123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := new(mockResolver)
			res.On("Resolve", mock.Anything, tt.want).Return(nil, false)

			h := NewEventHandler(res, newRenderer(t), time.Minute)
			w := httptest.NewRecorder()
			eventRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, http.StatusNotFound, w.Code)
			res.AssertExpectations(t)
		})
	}
}

func TestGetEventPreview_RenderFailure(t *testing.T) {
	res := new(mockResolver)
	res.On("Resolve", mock.Anything, "evt_1").Return(sampleEvent(), true)

	h := NewEventHandler(res, failingRenderer{}, time.Minute)
	w := httptest.NewRecorder()
	eventRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/evt_1", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "<html")
}

func TestGetEventPreview_HeadHasNoBody(t *testing.T) {
	res := new(mockResolver)
	res.On("Resolve", mock.Anything, "evt_1").Return(sampleEvent(), true)

	h := NewEventHandler(res, newRenderer(t), time.Minute)
	r := chi.NewRouter()
	r.Head("/events/{id}", h.GetEventPreview)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/events/evt_1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, w.Body.Len())
}

func TestPageHandler(t *testing.T) {
	lib, err := content.Load()
	require.NoError(t, err)
	h := NewPageHandler(lib, newRenderer(t))

	t.Run("privacy", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Static("privacy")(w, httptest.NewRequest(http.MethodGet, "/privacy", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		doc, err := goquery.NewDocumentFromReader(w.Body)
		require.NoError(t, err)
		assert.Equal(t, "Privacy Policy", doc.Find("h1").First().Text())
		canonical, _ := doc.Find(`link[rel="canonical"]`).Attr("href")
		assert.Equal(t, "https://messnightlife.com/privacy", canonical)
	})

	t.Run("unknown_slug", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Static("cookies")(w, httptest.NewRequest(http.MethodGet, "/cookies", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("home", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Home(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `href="/privacy"`)
	})

	t.Run("home_render_failure", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewPageHandler(lib, failingRenderer{}).Home(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
