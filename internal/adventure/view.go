package adventure

import (
	"iter"
	"slices"
	"sort"

	"backend-storymap/internal/session"
	"backend-storymap/internal/shared/geo"
)

const DefaultRadiusKm = 50.0

// Gallery yields photo URLs in the order given. It is nil when there is
// nothing to show.
func Gallery(photos []Photo) iter.Seq[string] {
	if len(photos) == 0 {
		return nil
	}
	return func(yield func(string) bool) {
		for _, p := range photos {
			if !yield(p.ImageURL) {
				return
			}
		}
	}
}

func MarkerFor(a Adventure) Marker {
	return Marker{
		ID:          a.ID,
		Lat:         a.Latitude,
		Lng:         a.Longitude,
		Title:       a.Title,
		Description: a.Description,
		CoverImage:  a.CoverImage,
		Popup: Popup{
			Title:        a.Title,
			Description:  a.Description,
			ThumbnailURL: a.CoverImage,
			Link:         DetailPath(a.ID),
		},
	}
}

func Markers(adventures []Adventure) []Marker {
	markers := make([]Marker, 0, len(adventures))
	for _, a := range adventures {
		markers = append(markers, MarkerFor(a))
	}
	return markers
}

// Nearby returns markers within radiusKm of the point, closest first.
func Nearby(adventures []Adventure, lat, lng, radiusKm float64) []Marker {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	markers := []Marker{}
	for _, a := range adventures {
		d := geo.HaversineKm(lat, lng, a.Latitude, a.Longitude)
		if d > radiusKm {
			continue
		}
		m := MarkerFor(a)
		m.DistanceKm = d
		markers = append(markers, m)
	}
	sort.SliceStable(markers, func(i, j int) bool {
		return markers[i].DistanceKm < markers[j].DistanceKm
	})
	return markers
}

// NewDetailView assembles the detail page. The cover falls back to the first
// photo.
func NewDetailView(viewer *session.Session, a Adventure, photos []Photo) DetailView {
	if a.CoverImage == "" && len(photos) > 0 {
		a.CoverImage = photos[0].ImageURL
	}
	owner := IsOwner(viewer, a.OwnerID)
	view := DetailView{
		Adventure: a,
		Marker:    MarkerFor(a),
		CanEdit:   owner,
		CanDelete: owner,
		CanUpload: owner,
	}
	if seq := Gallery(photos); seq != nil {
		view.Gallery = slices.Collect(seq)
	}
	return view
}

func editFormFor(a Adventure) EditForm {
	return EditForm{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Latitude:    formatCoordinate(a.Latitude),
		Longitude:   formatCoordinate(a.Longitude),
		CoverImage:  a.CoverImage,
	}
}
