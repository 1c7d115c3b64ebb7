package seo

import (
	"encoding/json"
	"time"

	"github.com/messnightlife/mess-web/internal/domain"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Event returns a schema.org Event payload.
func Event(ev *domain.Event, pageURL string) map[string]any {
	m := map[string]any{
		"@context":            "https://schema.org",
		"@type":               "Event",
		"name":                ev.Title,
		"startDate":           ev.StartsAt.Format(time.RFC3339),
		"eventStatus":         "https://schema.org/EventScheduled",
		"eventAttendanceMode": "https://schema.org/OfflineEventAttendanceMode",
	}
	if pageURL != "" {
		m["url"] = pageURL
	}
	if ev.EndsAt != nil {
		m["endDate"] = ev.EndsAt.Format(time.RFC3339)
	}
	if ev.Description != "" {
		m["description"] = ev.Description
	}
	if ev.ImageURL != "" {
		m["image"] = []string{ev.ImageURL}
	}
	if ev.VenueName != "" || ev.Address != "" {
		place := map[string]any{"@type": "Place"}
		if ev.VenueName != "" {
			place["name"] = ev.VenueName
		}
		if ev.Address != "" {
			place["address"] = ev.Address
		}
		m["location"] = place
	}
	if ev.HasPrice() {
		offer := map[string]any{
			"@type":         "Offer",
			"price":         *ev.Price,
			"priceCurrency": ev.CurrencyCode,
		}
		if pageURL != "" {
			offer["url"] = pageURL
		}
		m["offers"] = offer
	}
	if ev.OrganizerName != "" {
		m["organizer"] = map[string]any{
			"@type": "Person",
			"name":  ev.OrganizerName,
		}
	}
	if ev.Category != "" {
		m["keywords"] = ev.Category
	}
	return m
}
