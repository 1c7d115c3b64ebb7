package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// RawEvent is the backend's event payload as it has looked across API
// versions. Every field is optional and several concepts have more than one
// spelling; Normalize decides which one wins.
type RawEvent struct {
	ID            FlexString    `json:"id"`
	Title         FlexString    `json:"title"`
	Description   FlexString    `json:"description"`
	StartTime     FlexString    `json:"start_time"`
	Date          FlexString    `json:"date"`
	EndTime       FlexString    `json:"end_time"`
	VenueName     FlexString    `json:"venue_name"`
	Location      FlexString    `json:"location"`
	VenueAddress  FlexString    `json:"venue_address"`
	Address       FlexString    `json:"address"`
	City          FlexString    `json:"city"`
	ImageURL      FlexString    `json:"image_url"`
	CoverImageURL FlexString    `json:"cover_image_url"`
	MediaURLs     FlexStrings   `json:"media_urls"`
	Price         FlexNumber    `json:"price"`
	TicketPrice   FlexNumber    `json:"ticket_price"`
	Currency      FlexString    `json:"currency"`
	Category      FlexString    `json:"category"`
	Organizer     *RawOrganizer `json:"organizer,omitempty"`
}

type RawOrganizer struct {
	Username FlexString `json:"username"`
	FullName FlexString `json:"full_name"`
}

// Event is the normalized, display-ready view of a RawEvent.
type Event struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	StartsAt      time.Time  `json:"starts_at"`
	EndsAt        *time.Time `json:"ends_at,omitempty"`
	VenueName     string     `json:"venue_name,omitempty"`
	Address       string     `json:"address,omitempty"`
	ImageURL      string     `json:"image_url,omitempty"`
	Price         *float64   `json:"price,omitempty"`
	CurrencyCode  string     `json:"currency,omitempty"`
	Category      string     `json:"category,omitempty"`
	OrganizerName string     `json:"organizer_name,omitempty"`
}

// HasPrice reports whether a price card should be shown. Zero means free and
// is never displayed.
func (e *Event) HasPrice() bool {
	return e != nil && e.Price != nil && *e.Price > 0
}

// ShowAddress reports whether the address line adds anything beyond the venue
// label.
func (e *Event) ShowAddress() bool {
	return e != nil && e.Address != "" && e.Address != e.VenueName
}

// FlexString accepts a JSON string or number. Any other JSON value decodes to
// the empty string instead of failing the whole payload.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*s = ""
		return nil
	}
	switch b[0] {
	case '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(v)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*s = FlexString(b)
	default:
		*s = ""
	}
	return nil
}

// String returns the trimmed value.
func (s FlexString) String() string {
	return strings.TrimSpace(string(s))
}

// FlexStrings accepts either an array of strings or a single string.
type FlexStrings []string

func (l *FlexStrings) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*l = nil
		return nil
	}
	switch b[0] {
	case '[':
		var items []FlexString
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, it.String())
		}
		*l = out
	case '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*l = []string{v}
	default:
		*l = nil
	}
	return nil
}

// First returns the first non-empty entry.
func (l FlexStrings) First() string {
	for _, v := range l {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// FlexNumber accepts a JSON number or a numeric string. Valid is false when the
// field was absent, null, or not a number.
type FlexNumber struct {
	Value float64
	Valid bool
}

func (n *FlexNumber) UnmarshalJSON(b []byte) error {
	*n = FlexNumber{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	var raw string
	switch b[0] {
	case '"':
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		raw = string(b)
	default:
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil
	}
	*n = FlexNumber{Value: v, Valid: true}
	return nil
}

func (n FlexNumber) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func (l FlexStrings) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("null"), nil
	}
	return json.Marshal([]string(l))
}
