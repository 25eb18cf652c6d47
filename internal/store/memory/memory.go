package memory

import (
	"context"
	"sync"

	"bodekasse/internal/core"
	"bodekasse/internal/store"
	"bodekasse/internal/store/csvfile"
)

var _ store.Store = (*Store)(nil)

// Store keeps both datasets in process memory.
type Store struct {
	mu      sync.Mutex
	members []core.Member
	fines   []core.Fine
}

func New(members []core.Member, fines []core.Fine) *Store {
	s := &Store{
		members: append([]core.Member(nil), members...),
		fines:   append([]core.Fine(nil), fines...),
	}
	store.SortMembers(s.members)
	return s
}

// NewFromFiles seeds the store from members.csv and fines.csv under base.
// Missing files seed nothing; unreadable ones are reported.
func NewFromFiles(ctx context.Context, base string) (*Store, error) {
	src := csvfile.New(base)
	members, err := src.LoadMembers(ctx)
	if err != nil {
		return nil, err
	}
	fines, err := src.LoadFines(ctx)
	if err != nil {
		return nil, err
	}
	return New(members, fines), nil
}

func (s *Store) LoadMembers(_ context.Context) ([]core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Member{}, s.members...)
	store.SortMembers(out)
	return out, nil
}

func (s *Store) SaveMembers(_ context.Context, members []core.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = append([]core.Member(nil), members...)
	return nil
}

func (s *Store) LoadFines(_ context.Context) ([]core.Fine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Fine{}, s.fines...), nil
}

func (s *Store) SaveFines(_ context.Context, fines []core.Fine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fines = append([]core.Fine(nil), fines...)
	return nil
}
