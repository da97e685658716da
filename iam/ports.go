package iam

import (
	"context"

	"github.com/hodei-sh/authz-core/hrn"
	"github.com/hodei-sh/authz-core/policy"
)

// ResolverKind classifies why a PrincipalResolver or ResourceResolver call
// failed (spec.md §4.7).
type ResolverKind int

const (
	// ResolverNotFound: no entity exists at the given HRN.
	ResolverNotFound ResolverKind = iota
	// ResolverTypeMismatch: the entity exists but its concrete attributes
	// disagree with its declared descriptor.
	ResolverTypeMismatch
)

// ResolverError is returned by PrincipalResolver.Resolve and
// ResourceResolver.Resolve.
type ResolverError struct {
	Kind  ResolverKind
	cause error
}

func (e *ResolverError) Error() string {
	prefix := "resolver: not_found"
	if e.Kind == ResolverTypeMismatch {
		prefix = "resolver: type_mismatch"
	}
	if e.cause == nil {
		return prefix
	}
	return prefix + ": " + e.cause.Error()
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ResolverError) Unwrap() error { return e.cause }

// PrincipalResolver resolves a principal HRN to its runtime Entity
// (spec.md §4.7).
type PrincipalResolver interface {
	Resolve(ctx context.Context, h hrn.HRN) (Entity, error)
}

// ResourceResolver resolves a resource HRN to its runtime Entity
// (spec.md §4.7).
type ResourceResolver interface {
	Resolve(ctx context.Context, h hrn.HRN) (Entity, error)
}

// ParentResolver resolves the immediate parents of an already-resolved
// entity, so the orchestrator can materialize the transitive closure
// Cedar's `in` predicates need (spec.md §4.7 step 4, §9 "Hierarchical
// entity graph"). Principal and resource resolvers typically also satisfy
// this for their own entity's parents.
type ParentResolver interface {
	ResolveParents(ctx context.Context, h hrn.HRN) ([]Entity, error)
}

// PolicyFinder is an alias for policy.PolicyFinder, reused verbatim so the
// orchestrator and the policy package share one port definition rather than
// two structurally-identical interfaces.
type PolicyFinder = policy.PolicyFinder
