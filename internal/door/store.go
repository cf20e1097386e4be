package door

import (
	"context"
	"sort"
	"sync"
)

// Store persists doors. Implementations never see the dashboard door.
type Store interface {
	List(ctx context.Context) ([]Door, error)
	Get(ctx context.Context, id int64) (*Door, error)
	Create(ctx context.Context, in CreateInput) (*Door, error)
	Update(ctx context.Context, id int64, in UpdateInput) (*Door, error)
	Delete(ctx context.Context, id int64) error
	Close() error
}

// MemoryStore keeps doors in process memory. It backs the service when no
// database is configured.
type MemoryStore struct {
	mux    sync.RWMutex
	doors  map[int64]Door
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		doors:  make(map[int64]Door),
		nextID: 1,
	}
}

func (s *MemoryStore) List(ctx context.Context) ([]Door, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	doors := make([]Door, 0, len(s.doors))
	for _, d := range s.doors {
		doors = append(doors, d)
	}

	sort.Slice(doors, func(i, j int) bool { return doors[i].ID < doors[j].ID })

	return doors, nil
}

func (s *MemoryStore) Get(ctx context.Context, id int64) (*Door, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	d, ok := s.doors[id]
	if !ok {
		return nil, ErrNotFound
	}

	return &d, nil
}

func (s *MemoryStore) Create(ctx context.Context, in CreateInput) (*Door, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	d := Door{ID: s.nextID, Name: in.Name, WebhookURL: in.WebhookURL}
	s.doors[d.ID] = d
	s.nextID++

	return &d, nil
}

func (s *MemoryStore) Update(ctx context.Context, id int64, in UpdateInput) (*Door, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	d, ok := s.doors[id]
	if !ok {
		return nil, ErrNotFound
	}

	if in.Name != nil {
		d.Name = *in.Name
	}

	if in.WebhookURL != nil {
		d.WebhookURL = *in.WebhookURL
	}

	s.doors[id] = d

	return &d, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if _, ok := s.doors[id]; !ok {
		return ErrNotFound
	}

	delete(s.doors, id)

	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
