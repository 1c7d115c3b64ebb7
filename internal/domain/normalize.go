package domain

import (
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/messnightlife/mess-web/internal/currency"
)

// Field precedence across payload versions. The first source with a non-empty
// value wins; tests pin the order.
var (
	timeSources = []source{
		{"start_time", func(r *RawEvent) string { return r.StartTime.String() }},
		{"date", func(r *RawEvent) string { return r.Date.String() }},
	}
	venueSources = []source{
		{"venue_name", func(r *RawEvent) string { return r.VenueName.String() }},
		{"location", func(r *RawEvent) string { return r.Location.String() }},
	}
	addressSources = []source{
		{"venue_address", func(r *RawEvent) string { return r.VenueAddress.String() }},
		{"address+city", func(r *RawEvent) string { return joinNonEmpty(", ", r.Address.String(), r.City.String()) }},
	}
	imageSources = []source{
		{"image_url", func(r *RawEvent) string { return webURL(r.ImageURL.String()) }},
		{"cover_image_url", func(r *RawEvent) string { return webURL(r.CoverImageURL.String()) }},
		{"media_urls[0]", func(r *RawEvent) string { return webURL(r.MediaURLs.First()) }},
	}
	organizerSources = []source{
		{"organizer.full_name", func(r *RawEvent) string {
			if r.Organizer == nil {
				return ""
			}
			return r.Organizer.FullName.String()
		}},
		{"organizer.username", func(r *RawEvent) string {
			if r.Organizer == nil {
				return ""
			}
			return r.Organizer.Username.String()
		}},
	}
)

type source struct {
	name string
	get  func(*RawEvent) string
}

func resolve(r *RawEvent, sources []source) string {
	v, _ := resolveSource(r, sources)
	return v
}

// resolveSource also names the field that supplied the value, "" when none did.
func resolveSource(r *RawEvent, sources []source) (value, field string) {
	for _, s := range sources {
		if v := s.get(r); v != "" {
			return v, s.name
		}
	}
	return "", ""
}

var textPolicy = bluemonday.StrictPolicy()

// timeLayouts are tried in order. Values without a zone are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize derives the display record from a raw payload. It returns false
// when raw is nil or lacks a title or a parseable start time: without those
// there is nothing worth previewing.
func Normalize(raw *RawEvent) (*Event, bool) {
	if raw == nil {
		return nil, false
	}

	title := raw.Title.String()
	if title == "" {
		return nil, false
	}
	startRaw := resolve(raw, timeSources)
	startsAt, ok := ParseTime(startRaw)
	if !ok {
		return nil, false
	}

	venue := resolve(raw, venueSources)
	address := resolve(raw, addressSources)
	if address == "" {
		address = venue
	}
	image := resolve(raw, imageSources)
	organizer := resolve(raw, organizerSources)

	ev := &Event{
		ID:            raw.ID.String(),
		Title:         title,
		Description:   PlainText(raw.Description.String()),
		StartsAt:      startsAt,
		VenueName:     venue,
		Address:       address,
		ImageURL:      image,
		Category:      raw.Category.String(),
		OrganizerName: organizer,
	}
	if end, ok := ParseTime(raw.EndTime.String()); ok {
		ev.EndsAt = &end
	}

	price := raw.Price
	if !price.Valid {
		price = raw.TicketPrice
	}
	if price.Valid {
		p := price.Value
		ev.Price = &p
		ev.CurrencyCode = currency.Normalize(raw.Currency.String())
		if ev.CurrencyCode == "" {
			ev.CurrencyCode = currency.DefaultCode
		}
	}
	return ev, true
}

// ParseTime reads the timestamp spellings the backend has emitted.
func ParseTime(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// PlainText strips markup from user supplied rich text. The result is
// unescaped; templates escape it again on output.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

// webURL keeps absolute http(s) URLs and drops anything else; image URLs end
// up in meta tags that browsers and crawlers follow.
func webURL(v string) string {
	u, err := url.Parse(v)
	if err != nil || u.Host == "" {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return v
	}
	return ""
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
