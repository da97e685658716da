package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hodei-sh/authz-core/hrn"
	"github.com/hodei-sh/authz-core/policy"
)

// PolicyStore is an in-process policy.PolicyStoragePort and policy.
// PolicyFinder, keyed by canonical HRN string.
type PolicyStore struct {
	mu  sync.Mutex
	byHRN map[string]policy.Policy
}

// NewPolicyStore returns an empty PolicyStore.
func NewPolicyStore() *PolicyStore {
	return &PolicyStore{byHRN: map[string]policy.Policy{}}
}

// Create stores p, keyed by p.HRN.
func (s *PolicyStore) Create(_ context.Context, p policy.Policy) (policy.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byHRN[p.HRN.String()] = p
	return p, nil
}

// Update enforces the optimistic revision check spec.md §5 requires:
// next is written only if the currently stored revision for next.HRN
// equals expectedRevision.
func (s *PolicyStore) Update(_ context.Context, expectedRevision int, next policy.Policy) (policy.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := next.HRN.String()
	current, ok := s.byHRN[key]
	if !ok {
		return policy.Policy{}, notFoundErr(key)
	}
	if current.Revision != expectedRevision {
		return policy.Policy{}, conflictErr(key, expectedRevision, current.Revision)
	}
	s.byHRN[key] = next
	return next, nil
}

// Tombstone marks the policy at h deleted without removing it.
func (s *PolicyStore) Tombstone(_ context.Context, h hrn.HRN) (policy.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := h.String()
	p, ok := s.byHRN[key]
	if !ok {
		return policy.Policy{}, notFoundErr(key)
	}
	now := time.Now().UTC()
	p.Tombstoned = true
	p.TombstonedAt = &now
	s.byHRN[key] = p
	return p, nil
}

// Get returns the policy at h.
func (s *PolicyStore) Get(_ context.Context, h hrn.HRN) (policy.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byHRN[h.String()]
	if !ok {
		return policy.Policy{}, notFoundErr(h.String())
	}
	return p, nil
}

// ListForPrincipal returns every non-tombstoned policy whose Binding
// matches principal's canonical HRN string or is empty (bound to all
// principals).
func (s *PolicyStore) ListForPrincipal(_ context.Context, principal hrn.HRN) ([]policy.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []policy.Policy
	for _, p := range s.byHRN {
		if p.Tombstoned {
			continue
		}
		if p.Binding == "" || p.Binding == principal.String() {
			out = append(out, p)
		}
	}
	return out, nil
}

// PoliciesFor implements policy.PolicyFinder by delegating to
// ListForPrincipal, so the same store backs both the CRUD port and the
// read-only evaluation-path port.
func (s *PolicyStore) PoliciesFor(ctx context.Context, principal hrn.HRN) ([]policy.Policy, error) {
	return s.ListForPrincipal(ctx, principal)
}

// notFoundErr and conflictErr return the *policy.Error kinds the
// PolicyStoragePort contract requires (spec.md §6), so callers can
// errors.As against policy.Error regardless of which adapter is wired in.
func notFoundErr(key string) error {
	return policy.NewStorageError(policy.KindNotFound, "no policy stored at "+key, nil)
}

func conflictErr(key string, expected, actual int) error {
	return policy.NewStorageError(policy.KindConflict, "revision conflict at "+key+": expected "+itoa(expected)+", stored "+itoa(actual), nil)
}
