package seo

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/messnightlife/mess-web/internal/domain"
)

const (
	// DescriptionLimit is the rune budget for meta descriptions.
	DescriptionLimit = 150
	Ellipsis         = "…"

	NotFoundTitle = "Event Not Found"

	ImageWidth  = 1200
	ImageHeight = 630
)

// Site identifies the public web origin pages are served from.
type Site struct {
	Origin string
	Name   string
}

// URL joins path onto the site origin.
func (s Site) URL(path string) string {
	return strings.TrimRight(s.Origin, "/") + path
}

// Title appends the product name.
func (s Site) Title(t string) string {
	if s.Name == "" {
		return t
	}
	return t + " - " + s.Name
}

type Image struct {
	URL    string
	Width  int
	Height int
	Alt    string
}

type OpenGraph struct {
	Title       string
	Description string
	URL         string
	SiteName    string
	Type        string
	Image       *Image
}

type Twitter struct {
	Card        string
	Title       string
	Description string
	Image       string
}

// Metadata is everything the document head needs.
type Metadata struct {
	Title       string
	Description string
	Canonical   string
	Robots      string
	OG          *OpenGraph
	Twitter     *Twitter
	JSONLD      string
}

// BuildMetadata derives head metadata for an event page. id is the identifier
// from the inbound route; the payload's own id is never used for URLs. A nil
// event yields the not found metadata.
func BuildMetadata(ev *domain.Event, id string, site Site, loc *time.Location) Metadata {
	if ev == nil {
		return NotFoundMetadata(site)
	}
	if loc == nil {
		loc = time.UTC
	}

	canonical := EventURL(site, id)
	description := Truncate(ev.Description, DescriptionLimit)
	if description == "" {
		description = SynthesizedDescription(ev, loc)
	}

	m := Metadata{
		Title:       site.Title(ev.Title),
		Description: description,
		Canonical:   canonical,
		OG: &OpenGraph{
			Title:       ev.Title,
			Description: description,
			URL:         canonical,
			SiteName:    site.Name,
			Type:        "website",
		},
		Twitter: &Twitter{
			Card:        "summary_large_image",
			Title:       ev.Title,
			Description: description,
			Image:       ev.ImageURL,
		},
		JSONLD: JSON(Event(ev, canonical)),
	}
	if ev.ImageURL != "" {
		m.OG.Image = &Image{
			URL:    ev.ImageURL,
			Width:  ImageWidth,
			Height: ImageHeight,
			Alt:    ev.Title,
		}
	}
	return m
}

// NotFoundMetadata is used whenever no event could be resolved.
func NotFoundMetadata(site Site) Metadata {
	return Metadata{
		Title:  site.Title(NotFoundTitle),
		Robots: "noindex",
	}
}

// PageMetadata covers static pages such as the legal documents.
func PageMetadata(site Site, title, description, path string) Metadata {
	canonical := site.URL(path)
	return Metadata{
		Title:       site.Title(title),
		Description: description,
		Canonical:   canonical,
		OG: &OpenGraph{
			Title:       title,
			Description: description,
			URL:         canonical,
			SiteName:    site.Name,
			Type:        "website",
		},
	}
}

// EventURL is the canonical page URL for id.
func EventURL(site Site, id string) string {
	return site.URL("/events/" + url.PathEscape(id))
}

// SynthesizedDescription stands in when an event has no description, e.g.
// "Sunday, June 1 at Loft".
func SynthesizedDescription(ev *domain.Event, loc *time.Location) string {
	date := ev.StartsAt.In(loc).Format("Monday, January 2")
	if ev.VenueName == "" {
		return date
	}
	return date + " at " + ev.VenueName
}

// Truncate shortens s to at most limit runes, ending with an ellipsis when
// anything was cut.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	cut := strings.TrimRightFunc(string(runes[:limit-1]), isSpace)
	return cut + Ellipsis
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
