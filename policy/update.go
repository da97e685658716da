package policy

import (
	"context"

	"github.com/hodei-sh/authz-core/authzschema"
	"github.com/hodei-sh/authz-core/hrn"
)

// UpdatePolicy validates new Cedar source and writes it as the next
// revision of an existing policy (spec.md §4.5 "UpdatePolicy").
type UpdatePolicy struct {
	storage PolicyStoragePort
	loader  *authzschema.LoadSchema
}

// NewUpdatePolicy binds the use-case to its storage port and schema loader.
func NewUpdatePolicy(storage PolicyStoragePort, loader *authzschema.LoadSchema) *UpdatePolicy {
	return &UpdatePolicy{storage: storage, loader: loader}
}

// Execute loads the current record at h, validates source against the
// loaded schema, and persists revision+1. Returns *Error{Kind: KindConflict}
// if the stored revision has moved since Get, *Error{Kind: KindNotFound} if
// h does not exist.
func (uc *UpdatePolicy) Execute(ctx context.Context, h hrn.HRN, source, description string) (Policy, error) {
	current, err := uc.storage.Get(ctx, h)
	if err != nil {
		return Policy{}, newErr(KindNotFound, "loading policy "+h.String(), err)
	}

	schema, err := uc.loader.Execute(ctx)
	if err != nil {
		return Policy{}, newErr(KindStorage, "loading schema for validation", err)
	}
	if _, err := validate(source, schema); err != nil {
		return Policy{}, err
	}

	next := current
	next.Source = source
	next.Description = description
	next.Revision = current.Revision + 1
	next.ValidatedAgainstSchemaHash = schema.Hash

	stored, err := uc.storage.Update(ctx, current.Revision, next)
	if err != nil {
		return Policy{}, err
	}
	return stored, nil
}
