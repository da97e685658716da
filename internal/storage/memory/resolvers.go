package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/hodei-sh/authz-core/hrn"
	"github.com/hodei-sh/authz-core/iam"
)

// EntityStore is an in-process iam.PrincipalResolver, iam.ResourceResolver,
// and iam.ParentResolver over a flat map of pre-registered entities, keyed
// by canonical HRN string.
type EntityStore struct {
	mu       sync.Mutex
	entities map[string]iam.Entity
}

// NewEntityStore returns an empty EntityStore.
func NewEntityStore() *EntityStore {
	return &EntityStore{entities: map[string]iam.Entity{}}
}

// Put registers or replaces an entity.
func (s *EntityStore) Put(e iam.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[e.HRN.String()] = e
}

// Resolve implements both iam.PrincipalResolver and iam.ResourceResolver.
func (s *EntityStore) Resolve(_ context.Context, h hrn.HRN) (iam.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[h.String()]
	if !ok {
		return iam.Entity{}, &iam.ResolverError{Kind: iam.ResolverNotFound}
	}
	return e, nil
}

// ResolveParents implements iam.ParentResolver by looking up each of h's
// immediate parent HRNs in the same store.
func (s *EntityStore) ResolveParents(ctx context.Context, h hrn.HRN) ([]iam.Entity, error) {
	s.mu.Lock()
	e, ok := s.entities[h.String()]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	parents := make([]iam.Entity, 0, len(e.Parents))
	for _, p := range e.Parents {
		parent, err := s.Resolve(ctx, p)
		if err != nil {
			var re *iam.ResolverError
			if errors.As(err, &re) && re.Kind == iam.ResolverNotFound {
				continue
			}
			return nil, err
		}
		parents = append(parents, parent)
	}
	return parents, nil
}
