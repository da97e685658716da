package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/hodei-sh/authz-core/hrn"
	"github.com/hodei-sh/authz-core/iam"
	"github.com/hodei-sh/authz-core/policy"
)

func TestSchemaStoreSaveAssignsSequentialVersions(t *testing.T) {
	s := NewSchemaStore()
	first, err := s.Save(context.Background(), "content-v1", "hash-v1")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if first.Version != "1" {
		t.Fatalf("Version = %q, want %q", first.Version, "1")
	}

	latest, err := s.LoadLatest(context.Background())
	if err != nil {
		t.Fatalf("LoadLatest: %v", err)
	}
	if latest == nil || latest.Hash != "hash-v1" {
		t.Fatalf("expected latest to match the saved row, got %+v", latest)
	}

	second, err := s.Save(context.Background(), "content-v2", "hash-v2")
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if second.Version != "2" {
		t.Fatalf("second Version = %q, want %q", second.Version, "2")
	}
}

func TestSchemaStoreLoadLatestEmpty(t *testing.T) {
	s := NewSchemaStore()
	latest, err := s.LoadLatest(context.Background())
	if err != nil {
		t.Fatalf("LoadLatest: %v", err)
	}
	if latest != nil {
		t.Fatalf("expected nil before any Save, got %+v", latest)
	}
}

func mustHRN(t *testing.T, s string) hrn.HRN {
	t.Helper()
	h, err := hrn.Parse(s)
	if err != nil {
		t.Fatalf("hrn.Parse(%q): %v", s, err)
	}
	return h
}

func TestPolicyStoreUpdateDetectsConflict(t *testing.T) {
	s := NewPolicyStore()
	h := mustHRN(t, "hrn:hodei:iam::acc1:policy:p1")

	if _, err := s.Create(context.Background(), policy.Policy{HRN: h, Revision: 1}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := s.Update(context.Background(), 99, policy.Policy{HRN: h, Revision: 2})
	if err == nil {
		t.Fatalf("expected a conflict error on stale revision")
	}
	var pe *policy.Error
	if !errors.As(err, &pe) || pe.Kind != policy.KindConflict {
		t.Fatalf("expected policy.KindConflict, got %v", err)
	}

	updated, err := s.Update(context.Background(), 1, policy.Policy{HRN: h, Revision: 2})
	if err != nil {
		t.Fatalf("Update with correct expected revision: %v", err)
	}
	if updated.Revision != 2 {
		t.Fatalf("Revision = %d, want 2", updated.Revision)
	}
}

func TestPolicyStoreTombstoneExcludesFromList(t *testing.T) {
	s := NewPolicyStore()
	h := mustHRN(t, "hrn:hodei:iam::acc1:policy:p1")
	principal := mustHRN(t, "hrn:hodei:iam::acc1:Iam::User:alice")

	if _, err := s.Create(context.Background(), policy.Policy{HRN: h, Revision: 1, Binding: principal.String()}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	before, err := s.ListForPrincipal(context.Background(), principal)
	if err != nil || len(before) != 1 {
		t.Fatalf("ListForPrincipal before delete: %v, %d results", err, len(before))
	}

	if _, err := s.Tombstone(context.Background(), h); err != nil {
		t.Fatalf("Tombstone: %v", err)
	}
	after, err := s.ListForPrincipal(context.Background(), principal)
	if err != nil {
		t.Fatalf("ListForPrincipal after delete: %v", err)
	}
	if len(after) != 0 {
		t.Fatalf("expected tombstoned policy to be excluded, got %d results", len(after))
	}
}

func TestEntityStoreResolveParentsSkipsMissing(t *testing.T) {
	store := NewEntityStore()
	user := mustHRN(t, "hrn:hodei:iam::acc1:Iam::User:alice")
	missingGroup := mustHRN(t, "hrn:hodei:iam::acc1:Iam::Group:ghost")
	store.Put(iam.Entity{HRN: user, Type: "Iam::User", Parents: []hrn.HRN{missingGroup}})

	resolved, err := store.Resolve(context.Background(), user)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.HRN != user {
		t.Fatalf("resolved the wrong entity")
	}

	parents, err := store.ResolveParents(context.Background(), user)
	if err != nil {
		t.Fatalf("ResolveParents: %v", err)
	}
	if len(parents) != 0 {
		t.Fatalf("expected missing parent to be skipped, got %v", parents)
	}
}

func TestEntityStoreResolveNotFound(t *testing.T) {
	store := NewEntityStore()
	_, err := store.Resolve(context.Background(), mustHRN(t, "hrn:hodei:iam::acc1:Iam::User:ghost"))
	if err == nil {
		t.Fatalf("expected a not-found error")
	}
	var re *iam.ResolverError
	if !errors.As(err, &re) || re.Kind != iam.ResolverNotFound {
		t.Fatalf("expected iam.ResolverNotFound, got %v", err)
	}
}
