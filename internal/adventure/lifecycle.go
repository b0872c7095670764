package adventure

import (
	"context"
	"log/slog"
	"strings"

	"backend-storymap/internal/lock"
	"backend-storymap/internal/session"
	"backend-storymap/internal/stream"

	"golang.org/x/sync/errgroup"
)

const (
	EventCreated    = "adventure.created"
	EventUpdated    = "adventure.updated"
	EventDeleted    = "adventure.deleted"
	EventPhotoAdded = "photo.added"
)

// Publisher receives lifecycle events. *stream.Hub satisfies it.
type Publisher interface {
	Publish(ev stream.Event, topics ...string)
}

// Lifecycle runs the adventure flows. Each flow validates locally, holds an
// in-flight guard for its remote call and then makes exactly one mutation.
type Lifecycle struct {
	records Records
	media   MediaStore
	guard   lock.Guard
	events  Publisher
	logger  *slog.Logger
}

func NewLifecycle(records Records, media MediaStore, guard lock.Guard, events Publisher, logger *slog.Logger) *Lifecycle {
	if guard == nil {
		guard = lock.NewLocalGuard()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{records: records, media: media, guard: guard, events: events, logger: logger}
}

func (l *Lifecycle) Create(ctx context.Context, viewer *session.Session, in CreateInput) (Adventure, error) {
	if viewer.ID() == "" {
		return Adventure{}, ErrSignInRequired
	}
	a, err := in.validate()
	if err != nil {
		return Adventure{}, err
	}
	a.OwnerID = viewer.ID()

	release, err := l.guard.Acquire(ctx, "create:"+viewer.ID())
	if err != nil {
		return Adventure{}, err
	}
	defer release()

	created, err := l.records.Create(ctx, a)
	if err != nil {
		return Adventure{}, err
	}
	l.publish(EventCreated, created.ID, MarkerFor(created))
	return created, nil
}

func (l *Lifecycle) Get(ctx context.Context, id string) (Adventure, error) {
	return l.records.Get(ctx, id)
}

func (l *Lifecycle) List(ctx context.Context) ([]Adventure, error) {
	return l.records.List(ctx)
}

func (l *Lifecycle) Photos(ctx context.Context, id string) ([]Photo, error) {
	return l.records.Photos(ctx, id)
}

func (l *Lifecycle) Markers(ctx context.Context) ([]Marker, error) {
	adventures, err := l.records.List(ctx)
	if err != nil {
		return nil, err
	}
	return Markers(adventures), nil
}

func (l *Lifecycle) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]Marker, error) {
	if err := validateCoordinates(lat, lng); err != nil {
		return nil, err
	}
	adventures, err := l.records.List(ctx)
	if err != nil {
		return nil, err
	}
	return Nearby(adventures, lat, lng, radiusKm), nil
}

// Detail loads the record and its photos concurrently; both must succeed.
func (l *Lifecycle) Detail(ctx context.Context, viewer *session.Session, id string) (DetailView, error) {
	var (
		a      Adventure
		photos []Photo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = l.records.Get(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		photos, err = l.records.Photos(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return DetailView{}, err
	}
	return NewDetailView(viewer, a, photos), nil
}

// LoadForEdit produces the edit form only for the owner.
func (l *Lifecycle) LoadForEdit(ctx context.Context, viewer *session.Session, id string) (EditForm, error) {
	a, err := l.records.Get(ctx, id)
	if err != nil {
		return EditForm{}, err
	}
	if !IsOwner(viewer, a.OwnerID) {
		return EditForm{}, ErrNotOwner
	}
	return editFormFor(a), nil
}

func (l *Lifecycle) SubmitEdit(ctx context.Context, viewer *session.Session, id string, in EditInput) (Adventure, error) {
	if viewer.ID() == "" {
		return Adventure{}, ErrSignInRequired
	}
	fields, err := in.validate()
	if err != nil {
		return Adventure{}, err
	}

	release, err := l.guard.Acquire(ctx, "edit:"+id)
	if err != nil {
		return Adventure{}, err
	}
	defer release()

	updated, err := l.records.Update(ctx, id, viewer.ID(), fields)
	if err != nil {
		return Adventure{}, err
	}
	l.publish(EventUpdated, updated.ID, MarkerFor(updated))
	return updated, nil
}

// Delete is terminal and runs only once the caller has confirmed it.
func (l *Lifecycle) Delete(ctx context.Context, viewer *session.Session, id string, confirmed bool) error {
	if viewer.ID() == "" {
		return ErrSignInRequired
	}
	if !confirmed {
		return ErrNotConfirmed
	}

	release, err := l.guard.Acquire(ctx, "delete:"+id)
	if err != nil {
		return err
	}
	defer release()

	if err := l.records.Delete(ctx, id, viewer.ID()); err != nil {
		return err
	}
	l.publish(EventDeleted, id, nil)
	return nil
}

// AttachPhoto uploads the file and then records the photo. A failed record
// step leaves the upload orphaned; it is logged and never retried here.
func (l *Lifecycle) AttachPhoto(ctx context.Context, viewer *session.Session, adventureID string, up Upload) (Photo, error) {
	if viewer.ID() == "" {
		return Photo{}, ErrSignInRequired
	}
	if len(up.Data) == 0 {
		return Photo{}, invalid("file", "is required")
	}

	release, err := l.guard.Acquire(ctx, attachKey(viewer, adventureID))
	if err != nil {
		return Photo{}, err
	}
	defer release()

	url, err := l.media.Upload(ctx, viewer.ID(), up.Name, up.Data)
	if err != nil {
		return Photo{}, err
	}
	if url == "" {
		return Photo{}, ErrNoMediaURL
	}

	photo, err := l.addPhoto(ctx, viewer, adventureID, url)
	if err != nil {
		l.logger.Warn("photo upload orphaned", "adventure_id", adventureID, "url", url, "error", err)
		return Photo{}, err
	}
	return photo, nil
}

// RecordPhoto runs only the record step for a URL that was already
// uploaded. When the media store is an Issuer, the URL must be one it handed
// to the viewer.
func (l *Lifecycle) RecordPhoto(ctx context.Context, viewer *session.Session, adventureID, imageURL string) (Photo, error) {
	if viewer.ID() == "" {
		return Photo{}, ErrSignInRequired
	}
	if err := validImageURL(imageURL); err != nil {
		return Photo{}, err
	}
	imageURL = strings.TrimSpace(imageURL)
	if issuer, ok := l.media.(Issuer); ok {
		issued, err := issuer.Issued(ctx, viewer.ID(), imageURL)
		if err != nil {
			return Photo{}, err
		}
		if !issued {
			return Photo{}, invalid("image_url", "was not uploaded through the media store")
		}
	}

	release, err := l.guard.Acquire(ctx, attachKey(viewer, adventureID))
	if err != nil {
		return Photo{}, err
	}
	defer release()

	return l.addPhoto(ctx, viewer, adventureID, imageURL)
}

func (l *Lifecycle) addPhoto(ctx context.Context, viewer *session.Session, adventureID, url string) (Photo, error) {
	photo, err := l.records.AddPhoto(ctx, adventureID, viewer.ID(), url)
	if err != nil {
		return Photo{}, err
	}
	l.publish(EventPhotoAdded, adventureID, photo)
	return photo, nil
}

func (l *Lifecycle) publish(kind, adventureID string, data any) {
	if l.events == nil {
		return
	}
	l.events.Publish(stream.Event{Type: kind, AdventureID: adventureID, Data: data},
		stream.TopicMap, stream.AdventureTopic(adventureID))
}

func attachKey(viewer *session.Session, adventureID string) string {
	return "attach:" + viewer.ID() + ":" + adventureID
}
