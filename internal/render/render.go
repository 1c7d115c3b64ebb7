package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"time"

	"github.com/messnightlife/mess-web/internal/content"
	"github.com/messnightlife/mess-web/internal/currency"
	"github.com/messnightlife/mess-web/internal/domain"
	"github.com/messnightlife/mess-web/internal/seo"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

const (
	DateLayout = "Mon, Jan 2"
	TimeLayout = "3:04 PM"

	DefaultAppScheme    = "nightlife"
	DefaultAppStoreURL  = "https://apps.apple.com/app/mess-nightlife"
	DefaultPlayStoreURL = "https://play.google.com/store/apps/details?id=com.mess.nightlife"
)

var views = []string{"event", "not_found", "page", "home"}

type Options struct {
	Site         seo.Site
	Location     *time.Location
	AppScheme    string
	AppStoreURL  string
	PlayStoreURL string
}

type Stores struct {
	AppStoreURL  string
	PlayStoreURL string
}

// document is the data every view receives; Body is view specific.
type document struct {
	Meta     seo.Metadata
	JSONLD   template.JS
	SiteName string
	Stores   Stores
	Body     any
}

// EventView holds the display strings for a found event.
type EventView struct {
	Title       string
	ImageURL    string
	Date        string
	Time        string
	Location    string
	Address     string
	Price       string
	Description string
	DeepLink    template.URL
}

// Renderer turns resolved records into HTML documents sharing the base layout.
type Renderer struct {
	views map[string]*template.Template
	opts  Options
}

func New(opts Options) (*Renderer, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.AppScheme == "" {
		opts.AppScheme = DefaultAppScheme
	}
	if opts.AppStoreURL == "" {
		opts.AppStoreURL = DefaultAppStoreURL
	}
	if opts.PlayStoreURL == "" {
		opts.PlayStoreURL = DefaultPlayStoreURL
	}

	r := &Renderer{views: make(map[string]*template.Template, len(views)), opts: opts}
	for _, name := range views {
		t, err := template.New(name).ParseFS(templatesFS, "templates/base.tmpl", "templates/"+name+".tmpl")
		if err != nil {
			return nil, fmt.Errorf("render: parse %s: %w", name, err)
		}
		r.views[name] = t
	}
	return r, nil
}

// Event renders the preview for ev, or the not found document when ev is nil.
// id is the identifier from the inbound route.
func (r *Renderer) Event(w io.Writer, ev *domain.Event, id string) error {
	if ev == nil {
		return r.NotFound(w)
	}
	meta := seo.BuildMetadata(ev, id, r.opts.Site, r.opts.Location)
	return r.execute(w, "event", meta, BuildEventView(ev, id, r.opts))
}

func (r *Renderer) NotFound(w io.Writer) error {
	return r.execute(w, "not_found", seo.NotFoundMetadata(r.opts.Site), nil)
}

// Page renders a static content page served at path.
func (r *Renderer) Page(w io.Writer, p content.Page, path string) error {
	meta := seo.PageMetadata(r.opts.Site, p.Title, p.Description, path)
	return r.execute(w, "page", meta, p)
}

func (r *Renderer) Home(w io.Writer) error {
	meta := seo.PageMetadata(r.opts.Site, "Nightlife events", "Discover events and open them in the "+r.opts.Site.Name+" app.", "/")
	meta.Title = r.opts.Site.Name
	return r.execute(w, "home", meta, nil)
}

func (r *Renderer) execute(w io.Writer, view string, meta seo.Metadata, body any) error {
	t, ok := r.views[view]
	if !ok {
		return fmt.Errorf("render: unknown view %q", view)
	}
	doc := document{
		Meta:     meta,
		JSONLD:   template.JS(meta.JSONLD),
		SiteName: r.opts.Site.Name,
		Stores: Stores{
			AppStoreURL:  r.opts.AppStoreURL,
			PlayStoreURL: r.opts.PlayStoreURL,
		},
		Body: body,
	}
	return t.ExecuteTemplate(w, "base", doc)
}

// BuildEventView derives the visible fields. The address line is dropped when
// it repeats the venue label and the price only appears when above zero.
func BuildEventView(ev *domain.Event, id string, opts Options) EventView {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	scheme := opts.AppScheme
	if scheme == "" {
		scheme = DefaultAppScheme
	}

	starts := ev.StartsAt.In(loc)
	v := EventView{
		Title:       ev.Title,
		ImageURL:    ev.ImageURL,
		Date:        starts.Format(DateLayout),
		Time:        starts.Format(TimeLayout),
		Location:    ev.VenueName,
		Description: ev.Description,
		DeepLink:    template.URL(DeepLink(scheme, id)),
	}
	if v.Location == "" {
		v.Location = ev.Address
	} else if ev.ShowAddress() {
		v.Address = ev.Address
	}
	if ev.HasPrice() {
		v.Price = currency.Format(*ev.Price, ev.CurrencyCode)
	}
	return v
}

// DeepLink is the app URI for id.
func DeepLink(scheme, id string) string {
	return scheme + "://events/" + url.PathEscape(id)
}
