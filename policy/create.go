package policy

import (
	"context"

	"github.com/google/uuid"

	"github.com/hodei-sh/authz-core/authzschema"
	"github.com/hodei-sh/authz-core/hrn"
)

// CreatePolicy parses and schema-validates a Cedar policy source, assigns
// it a fresh HRN and revision 1, and persists it (spec.md §4.5).
type CreatePolicy struct {
	storage   PolicyStoragePort
	loader    *authzschema.LoadSchema
	partition string
	service   string
	account   string
}

// NewCreatePolicy binds the use-case to its storage port, schema loader, and
// the HRN segments new policy identifiers are minted under
// (hrn:<partition>:<service>::<account>:policy:<uuid>).
func NewCreatePolicy(storage PolicyStoragePort, loader *authzschema.LoadSchema, partition, service, account string) *CreatePolicy {
	return &CreatePolicy{storage: storage, loader: loader, partition: partition, service: service, account: account}
}

// Execute validates source against the currently loaded schema and, on
// success, persists a new Policy at revision 1.
func (uc *CreatePolicy) Execute(ctx context.Context, source, description, binding string) (Policy, error) {
	schema, err := uc.loader.Execute(ctx)
	if err != nil {
		return Policy{}, newErr(KindStorage, "loading schema for validation", err)
	}
	if _, err := validate(source, schema); err != nil {
		return Policy{}, err
	}

	id, err := hrn.New(uc.partition, uc.service, "", uc.account, "policy", uuid.NewString())
	if err != nil {
		return Policy{}, newErr(KindStorage, "minting policy HRN", err)
	}

	p := Policy{
		HRN:                        id,
		Source:                     source,
		Revision:                   1,
		Description:                description,
		Binding:                    binding,
		ValidatedAgainstSchemaHash: schema.Hash,
	}
	stored, err := uc.storage.Create(ctx, p)
	if err != nil {
		return Policy{}, newErr(KindStorage, "persisting policy", err)
	}
	return stored, nil
}
