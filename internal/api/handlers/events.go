package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/messnightlife/mess-web/internal/domain"
)

type EventResolver interface {
	Resolve(ctx context.Context, id string) (*domain.Event, bool)
}

type EventRenderer interface {
	Event(w io.Writer, ev *domain.Event, id string) error
}

// EventHandler serves shared event links.
type EventHandler struct {
	resolver   EventResolver
	renderer   EventRenderer
	revalidate time.Duration
}

func NewEventHandler(resolver EventResolver, renderer EventRenderer, revalidate time.Duration) *EventHandler {
	return &EventHandler{
		resolver:   resolver,
		renderer:   renderer,
		revalidate: revalidate,
	}
}

// GetEventPreview renders the preview page. Anything short of a complete event
// renders the not found page with a 404.
func (h *EventHandler) GetEventPreview(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")

	ev, ok := h.resolver.Resolve(r.Context(), id)
	status := http.StatusOK
	if ok {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=0, s-maxage=%d, stale-while-revalidate", int(h.revalidate.Seconds())))
	} else {
		ev = nil
		status = http.StatusNotFound
		w.Header().Set("Cache-Control", "no-store")
	}

	writeHTML(w, r, status, func(out io.Writer) error {
		return h.renderer.Event(out, ev, id)
	})
}
