package adventure

import (
	"context"
	"fmt"
	"sync"
	"time"

	"backend-storymap/internal/stream"
)

// fakeRecords is an in-memory Records that enforces ownership the way the
// Postgres store does and counts every call.
type fakeRecords struct {
	mu         sync.Mutex
	adventures map[string]Adventure
	photos     map[string][]Photo
	calls      int
	nextID     int

	// createEntered is signalled and createGate awaited inside Create when set.
	createEntered chan struct{}
	createGate    chan struct{}

	createErr   error
	addPhotoErr error
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{adventures: map[string]Adventure{}, photos: map[string][]Photo{}}
}

func (f *fakeRecords) seed(a Adventure) {
	f.adventures[a.ID] = a
}

func (f *fakeRecords) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeRecords) Create(_ context.Context, a Adventure) (Adventure, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.createEntered != nil {
		f.createEntered <- struct{}{}
	}
	if f.createGate != nil {
		<-f.createGate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return Adventure{}, f.createErr
	}
	f.nextID++
	a.ID = fmt.Sprintf("adv-store-%d", f.nextID)
	a.CreatedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.adventures[a.ID] = a
	return a, nil
}

func (f *fakeRecords) Get(_ context.Context, id string) (Adventure, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	a, ok := f.adventures[id]
	if !ok {
		return Adventure{}, ErrNotFound
	}
	return a, nil
}

func (f *fakeRecords) List(_ context.Context) ([]Adventure, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := []Adventure{}
	for _, a := range f.adventures {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeRecords) Update(_ context.Context, id, ownerID string, fields Fields) (Adventure, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	a, ok := f.adventures[id]
	if !ok {
		return Adventure{}, ErrNotFound
	}
	if a.OwnerID != ownerID {
		return Adventure{}, ErrNotOwner
	}
	a.Title = fields.Title
	a.Description = fields.Description
	a.Latitude = fields.Latitude
	a.Longitude = fields.Longitude
	if fields.CoverImage != nil {
		a.CoverImage = *fields.CoverImage
	}
	f.adventures[id] = a
	return a, nil
}

func (f *fakeRecords) Delete(_ context.Context, id, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	a, ok := f.adventures[id]
	if !ok {
		return ErrNotFound
	}
	if a.OwnerID != ownerID {
		return ErrNotOwner
	}
	delete(f.adventures, id)
	delete(f.photos, id)
	return nil
}

func (f *fakeRecords) AddPhoto(_ context.Context, adventureID, ownerID, imageURL string) (Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.addPhotoErr != nil {
		return Photo{}, f.addPhotoErr
	}
	a, ok := f.adventures[adventureID]
	if !ok {
		return Photo{}, ErrNotFound
	}
	if a.OwnerID != ownerID {
		return Photo{}, ErrNotOwner
	}
	p := Photo{
		ID:          fmt.Sprintf("photo-%d", len(f.photos[adventureID])+1),
		AdventureID: adventureID,
		ImageURL:    imageURL,
		CreatedAt:   time.Now(),
	}
	f.photos[adventureID] = append(f.photos[adventureID], p)
	return p, nil
}

func (f *fakeRecords) Photos(_ context.Context, adventureID string) ([]Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return append([]Photo{}, f.photos[adventureID]...), nil
}

type fakeMedia struct {
	url    string
	err    error
	calls  int
	issued map[string]bool
}

// uploadedBy returns a media store that already handed urls to userID.
func uploadedBy(userID string, urls ...string) *fakeMedia {
	m := &fakeMedia{issued: map[string]bool{}}
	for _, u := range urls {
		m.issued[userID+" "+u] = true
	}
	return m
}

func (m *fakeMedia) Upload(_ context.Context, userID, _ string, _ []byte) (string, error) {
	m.calls++
	if m.err == nil && m.url != "" {
		if m.issued == nil {
			m.issued = map[string]bool{}
		}
		m.issued[userID+" "+m.url] = true
	}
	return m.url, m.err
}

func (m *fakeMedia) Issued(_ context.Context, userID, url string) (bool, error) {
	return m.issued[userID+" "+url], nil
}

type eventRecorder struct {
	mu     sync.Mutex
	events []stream.Event
	topics [][]string
}

func (r *eventRecorder) Publish(ev stream.Event, topics ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	r.topics = append(r.topics, topics)
}
