package policy

import (
	"context"

	"github.com/hodei-sh/authz-core/hrn"
)

// PolicyStoragePort is the durable CRUD port the policy use-cases depend on
// (spec.md §6 "PolicyStoragePort { create/get/update/delete/list }").
// Implementations live in internal/storage/*.
type PolicyStoragePort interface {
	Create(ctx context.Context, p Policy) (Policy, error)

	// Update performs an optimistic revision check: it must fail with
	// *Error{Kind: KindConflict} if expectedRevision does not match the
	// currently stored revision for next.HRN (spec.md §5 "writes are
	// serialized per policy HRN").
	Update(ctx context.Context, expectedRevision int, next Policy) (Policy, error)

	// Tombstone marks the policy at h as deleted without removing the row.
	Tombstone(ctx context.Context, h hrn.HRN) (Policy, error)

	Get(ctx context.Context, h hrn.HRN) (Policy, error)

	// ListForPrincipal returns all non-tombstoned policies bound to the
	// given principal HRN.
	ListForPrincipal(ctx context.Context, principal hrn.HRN) ([]Policy, error)
}

// PolicyFinder is the narrower read-side port the IAM orchestrator depends
// on (spec.md §4.7, §6). It is implemented by the same storage adapters
// that satisfy PolicyStoragePort but is declared separately so evaluation-
// path consumers cannot reach the CRUD surface.
type PolicyFinder interface {
	PoliciesFor(ctx context.Context, principal hrn.HRN) ([]Policy, error)
}
