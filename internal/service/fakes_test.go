package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/sakif/events/internal/apperror"
	"github.com/sakif/events/internal/model"
	"github.com/sakif/events/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeStore is an in-memory implementation of all three repositories.
// Tests poke at the maps directly to set up state and check results.
type fakeStore struct {
	events  map[int64]*model.Event
	regs    []model.Registration
	users   map[string]*model.User
	nextID  int64
	listErr error // returned by ListEvents when set
}

var (
	_ repository.EventRepository        = (*fakeStore)(nil)
	_ repository.RegistrationRepository = (*fakeStore)(nil)
	_ repository.UserRepository         = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		events: make(map[int64]*model.Event),
		users:  make(map[string]*model.User),
		nextID: 1,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (f *fakeStore) id() int64 {
	id := f.nextID
	f.nextID++
	return id
}

func (f *fakeStore) CreateEvent(_ context.Context, event *model.Event) error {
	for _, e := range f.events {
		if e.Slug == event.Slug || e.Name == event.Name {
			return apperror.Conflict("event", event.Slug)
		}
	}
	event.ID = f.id()
	event.Created = time.Now()
	event.Updated = event.Created
	copied := *event
	f.events[event.ID] = &copied
	return nil
}

func (f *fakeStore) UpdateEvent(_ context.Context, id int64, event *model.Event) error {
	stored, ok := f.events[id]
	if !ok {
		return apperror.NotFound("event", strconv.FormatInt(id, 10))
	}
	for _, e := range f.events {
		if e.ID != id && e.Slug == event.Slug {
			return apperror.Conflict("event", event.Slug)
		}
	}
	stored.Name = event.Name
	stored.Slug = event.Slug
	stored.Location = event.Location
	stored.URL = event.URL
	stored.Updated = time.Now()
	*event = *stored
	return nil
}

func (f *fakeStore) RemoveRegistrationsFromEvent(_ context.Context, id int64) (int64, error) {
	var kept []model.Registration
	var n int64
	for _, r := range f.regs {
		if r.Event == id {
			n++
			continue
		}
		kept = append(kept, r)
	}
	f.regs = kept
	return n, nil
}

func (f *fakeStore) RemoveEvent(ctx context.Context, id int64) error {
	if _, ok := f.events[id]; !ok {
		return apperror.NotFound("event", strconv.FormatInt(id, 10))
	}
	f.RemoveRegistrationsFromEvent(ctx, id)
	delete(f.events, id)
	return nil
}

func (f *fakeStore) ListEvents(_ context.Context, opts repository.ListOptions) ([]model.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	all := make([]model.Event, 0, len(f.events))
	for _, e := range f.events {
		all = append(all, *e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if opts.Offset >= len(all) {
		return []model.Event{}, nil
	}
	end := min(opts.Offset+opts.Limit, len(all))
	return all[opts.Offset:end], nil
}

func (f *fakeStore) CountEvents(context.Context) (int, error) {
	return len(f.events), nil
}

func (f *fakeStore) GetEventBySlug(_ context.Context, slug string) (*model.Event, error) {
	for _, e := range f.events {
		if e.Slug == slug {
			copied := *e
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("event", slug)
}

func (f *fakeStore) GetEventByName(_ context.Context, name string) (*model.Event, error) {
	for _, e := range f.events {
		if e.Name == name {
			copied := *e
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("event", name)
}

func (f *fakeStore) Register(_ context.Context, reg *model.Registration) error {
	if _, ok := f.events[reg.Event]; !ok {
		return apperror.NotFound("event", strconv.FormatInt(reg.Event, 10))
	}
	for _, r := range f.regs {
		if r.Name == reg.Name && r.Event == reg.Event {
			return apperror.Conflict("registration", reg.Name)
		}
	}
	reg.ID = f.id()
	reg.Created = time.Now()
	f.regs = append(f.regs, *reg)
	return nil
}

func (f *fakeStore) Unregister(_ context.Context, name string, eventID int64) (int64, error) {
	for i, r := range f.regs {
		if r.Name == name && r.Event == eventID {
			f.regs = append(f.regs[:i], f.regs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeStore) IsAlreadyRegistered(_ context.Context, name string, eventID int64) (bool, error) {
	for _, r := range f.regs {
		if r.Name == name && r.Event == eventID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListRegistrations(_ context.Context, eventID int64) ([]model.Registration, error) {
	regs := []model.Registration{}
	for _, r := range f.regs {
		if r.Event == eventID {
			regs = append(regs, r)
		}
	}
	return regs, nil
}

func (f *fakeStore) RegisterUser(_ context.Context, user *model.User) error {
	if _, ok := f.users[user.Username]; ok {
		return apperror.Conflict("user", user.Username)
	}
	user.ID = f.id()
	copied := *user
	f.users[user.Username] = &copied
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, apperror.NotFound("user", username)
	}
	return u, nil
}
