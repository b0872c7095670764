package adventure

import (
	"encoding/json"
	"time"
)

type Adventure struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	CoverImage  string    `json:"cover_image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Photo struct {
	ID          string    `json:"id"`
	AdventureID string    `json:"adventure_id"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// Popup is what a map marker shows when opened. It carries no markup.
type Popup struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Link         string `json:"link"`
}

type Marker struct {
	ID          string  `json:"id"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	CoverImage  string  `json:"cover_image,omitempty"`
	Popup       Popup   `json:"popup"`
	DistanceKm  float64 `json:"distance_km,omitempty"`
}

// DetailView is one adventure as its detail page shows it. The can_* flags
// only drive which controls are offered.
type DetailView struct {
	Adventure Adventure `json:"adventure"`
	Gallery   []string  `json:"gallery,omitempty"`
	Marker    Marker    `json:"marker"`
	CanEdit   bool      `json:"can_edit"`
	CanDelete bool      `json:"can_delete"`
	CanUpload bool      `json:"can_upload"`
}

// CreateInput is the create form. The coordinates come from a map pick and
// are nil until one is made.
type CreateInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	CoverImage  string   `json:"cover_image"`
}

// CoordinateText is a coordinate as typed into the edit form. JSON numbers
// and JSON strings are both accepted.
type CoordinateText string

func (c *CoordinateText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = CoordinateText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = CoordinateText(n.String())
	return nil
}

type EditInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Latitude    CoordinateText `json:"latitude"`
	Longitude   CoordinateText `json:"longitude"`
	CoverImage  *string        `json:"cover_image"`
}

// EditForm is the edit form prefilled from the stored record.
type EditForm struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Latitude    string `json:"latitude"`
	Longitude   string `json:"longitude"`
	CoverImage  string `json:"cover_image"`
}

// Fields are the columns an edit may change.
type Fields struct {
	Title       string
	Description string
	Latitude    float64
	Longitude   float64
	CoverImage  *string
}

type Upload struct {
	Name string
	Data []byte
}

func DetailPath(id string) string {
	return "/adventures/" + id
}
