// Package memory provides in-process implementations of every persistence
// port the policy core depends on, grounded on the teacher's mock backend
// (internal/core/backend/mock). It is the default for tests and for
// cmd/authzctl runs whose storage.backend is "memory" (the default).
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hodei-sh/authz-core/authzschema"
)

// SchemaStore is an in-process authzschema.SchemaStoragePort. A single
// schema row is retained at a time, matching the startup-phase, single-build
// model of spec.md §5.
type SchemaStore struct {
	mu     sync.Mutex
	latest *authzschema.PersistedSchema
	seq    int
}

// NewSchemaStore returns an empty SchemaStore.
func NewSchemaStore() *SchemaStore {
	return &SchemaStore{}
}

// Save persists content/hash as the new latest schema, assigning a
// strictly-increasing integer version string (spec.md §9 resolves the
// monotonicity open question this way).
func (s *SchemaStore) Save(_ context.Context, content, hash string) (authzschema.PersistedSchema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	p := authzschema.PersistedSchema{
		ID:        uuid.NewString(),
		Content:   content,
		Hash:      hash,
		Version:   itoa(s.seq),
		CreatedAt: time.Now().UTC(),
	}
	s.latest = &p
	return p, nil
}

// LoadLatest returns the last-saved schema, or nil if none has been saved.
func (s *SchemaStore) LoadLatest(context.Context) (*authzschema.PersistedSchema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return nil, nil
	}
	cp := *s.latest
	return &cp, nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
