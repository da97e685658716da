package policy

import (
	"context"

	"github.com/hodei-sh/authz-core/hrn"
)

// DeletePolicy tombstones a policy record; the row is retained for audit
// (spec.md §4.5 "DeletePolicy ... tombstones the record").
type DeletePolicy struct {
	storage PolicyStoragePort
}

// NewDeletePolicy binds the use-case to its storage port.
func NewDeletePolicy(storage PolicyStoragePort) *DeletePolicy {
	return &DeletePolicy{storage: storage}
}

// Execute tombstones the policy at h. Returns *Error{Kind: KindNotFound} if
// it does not exist.
func (uc *DeletePolicy) Execute(ctx context.Context, h hrn.HRN) (Policy, error) {
	p, err := uc.storage.Tombstone(ctx, h)
	if err != nil {
		return Policy{}, newErr(KindNotFound, "tombstoning policy "+h.String(), err)
	}
	return p, nil
}

// GetPolicy is the read-side counterpart (spec.md §4.5 "GetPolicy").
type GetPolicy struct {
	storage PolicyStoragePort
}

// NewGetPolicy binds the use-case to its storage port.
func NewGetPolicy(storage PolicyStoragePort) *GetPolicy {
	return &GetPolicy{storage: storage}
}

// Execute returns the policy at h, or *Error{Kind: KindNotFound}.
func (uc *GetPolicy) Execute(ctx context.Context, h hrn.HRN) (Policy, error) {
	p, err := uc.storage.Get(ctx, h)
	if err != nil {
		return Policy{}, newErr(KindNotFound, "policy "+h.String()+" not found", err)
	}
	return p, nil
}

// ListPoliciesForPrincipal is the read-side bulk counterpart (spec.md §4.5
// "ListPoliciesForPrincipal").
type ListPoliciesForPrincipal struct {
	storage PolicyStoragePort
}

// NewListPoliciesForPrincipal binds the use-case to its storage port.
func NewListPoliciesForPrincipal(storage PolicyStoragePort) *ListPoliciesForPrincipal {
	return &ListPoliciesForPrincipal{storage: storage}
}

// Execute returns every non-tombstoned policy bound to principal.
func (uc *ListPoliciesForPrincipal) Execute(ctx context.Context, principal hrn.HRN) ([]Policy, error) {
	policies, err := uc.storage.ListForPrincipal(ctx, principal)
	if err != nil {
		return nil, newErr(KindStorage, "listing policies for "+principal.String(), err)
	}
	return policies, nil
}
