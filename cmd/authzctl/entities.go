package main

import (
	cedartypes "github.com/cedar-policy/cedar-go/types"

	"github.com/hodei-sh/authz-core/hrn"
	"github.com/hodei-sh/authz-core/iam"
	"github.com/hodei-sh/authz-core/kernel"
)

// memoryEntity builds an iam.Entity for the demo in-memory entity store
// from a flat string-attribute map.
func memoryEntity(h hrn.HRN, qualifiedType kernel.QualifiedTypeName, attrs map[string]string, parents []hrn.HRN) iam.Entity {
	values := make(map[string]cedartypes.Value, len(attrs))
	for k, v := range attrs {
		values[k] = cedartypes.String(v)
	}
	return iam.Entity{
		HRN:        h,
		Type:       qualifiedType,
		Attributes: values,
		Parents:    parents,
	}
}
