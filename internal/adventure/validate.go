package adventure

import (
	"net/url"
	"strconv"
	"strings"

	"backend-storymap/internal/session"
	"backend-storymap/internal/shared/geo"
)

// IsOwner reports whether viewer owns a record with ownerID. It is a display
// hint; the store enforces ownership on every mutation.
func IsOwner(viewer *session.Session, ownerID string) bool {
	id := viewer.ID()
	return id != "" && id == ownerID
}

// ParseCoordinate converts form text into a number.
func ParseCoordinate(field string, text CoordinateText) (float64, error) {
	s := strings.TrimSpace(string(text))
	if s == "" {
		return 0, invalid(field, "is required")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, invalid(field, "must be a number")
	}
	return v, nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", invalid("title", "is required")
	}
	return title, nil
}

func validateCoordinates(lat, lng float64) error {
	if !geo.ValidLatLng(lat, 0) {
		return invalid("latitude", "must be between -90 and 90")
	}
	if !geo.ValidLatLng(0, lng) {
		return invalid("longitude", "must be between -180 and 180")
	}
	return nil
}

func (in CreateInput) validate() (Adventure, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return Adventure{}, err
	}
	if in.Latitude == nil || in.Longitude == nil {
		return Adventure{}, invalid("location", "pick a location on the map")
	}
	if err := validateCoordinates(*in.Latitude, *in.Longitude); err != nil {
		return Adventure{}, err
	}
	return Adventure{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Latitude:    *in.Latitude,
		Longitude:   *in.Longitude,
		CoverImage:  strings.TrimSpace(in.CoverImage),
	}, nil
}

func (in EditInput) validate() (Fields, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return Fields{}, err
	}
	lat, err := ParseCoordinate("latitude", in.Latitude)
	if err != nil {
		return Fields{}, err
	}
	lng, err := ParseCoordinate("longitude", in.Longitude)
	if err != nil {
		return Fields{}, err
	}
	if err := validateCoordinates(lat, lng); err != nil {
		return Fields{}, err
	}
	f := Fields{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Latitude:    lat,
		Longitude:   lng,
	}
	if in.CoverImage != nil {
		cover := strings.TrimSpace(*in.CoverImage)
		f.CoverImage = &cover
	}
	return f, nil
}

// validImageURL accepts only absolute http(s) URLs.
func validImageURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return invalid("image_url", "must be an absolute http(s) url")
	}
	return nil
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
