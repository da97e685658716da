package iam

import (
	cedartypes "github.com/cedar-policy/cedar-go/types"

	"github.com/hodei-sh/authz-core/hrn"
	"github.com/hodei-sh/authz-core/kernel"
)

// Entity is the runtime instance presented to the evaluator: an HRN, the
// qualified type it was declared under, its concrete attributes, and the
// HRNs of its immediate parents for hierarchical containment (spec.md §3
// "Entity (runtime instance)").
type Entity struct {
	HRN        hrn.HRN
	Type       kernel.QualifiedTypeName
	Attributes map[string]cedartypes.Value
	Parents    []hrn.HRN
}

// toCedar converts a resolved Entity to the wire shape Cedar's authorizer
// consumes.
func (e Entity) toCedar() *cedartypes.Entity {
	record := cedartypes.RecordMap{}
	for k, v := range e.Attributes {
		record[cedartypes.String(k)] = v
	}
	parents := make([]cedartypes.EntityUID, 0, len(e.Parents))
	for _, p := range e.Parents {
		parents = append(parents, cedartypes.NewEntityUID(cedartypes.EntityType(p.ResourceType()), cedartypes.String(p.ResourcePath())))
	}
	return &cedartypes.Entity{
		UID:        cedartypes.NewEntityUID(cedartypes.EntityType(e.Type), cedartypes.String(e.HRN.ResourcePath())),
		Parents:    parents,
		Attributes: cedartypes.NewRecord(record),
	}
}
