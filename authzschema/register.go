package authzschema

import (
	"github.com/hodei-sh/authz-core/internal/schemabuilder"
	"github.com/hodei-sh/authz-core/kernel"
)

// RegisterEntityType adds a single entity type declaration to the
// in-progress schema (spec.md §4.3 operation "register_entity_type").
// Registration order never affects the eventual BuildSchema output
// (spec.md §8 invariant #2); it only affects which duplicate/unknown-type
// error surfaces first.
type RegisterEntityType struct {
	builder *schemabuilder.Builder
}

// NewRegisterEntityType binds the use-case to the shared in-progress builder.
func NewRegisterEntityType(b *schemabuilder.Builder) *RegisterEntityType {
	return &RegisterEntityType{builder: b}
}

// Execute registers d. Returns a *schemabuilder.Error (KindDuplicateEntityType,
// KindBuilderInUse) unchanged for the caller to inspect via errors.As.
func (uc *RegisterEntityType) Execute(d kernel.EntityTypeDescriptor) error {
	return uc.builder.RegisterEntity(d)
}

// RegisterActionType adds a single action declaration to the in-progress
// schema (spec.md §4.3 operation "register_action_type").
type RegisterActionType struct {
	builder *schemabuilder.Builder
}

// NewRegisterActionType binds the use-case to the shared in-progress builder.
func NewRegisterActionType(b *schemabuilder.Builder) *RegisterActionType {
	return &RegisterActionType{builder: b}
}

// Execute registers a. Returns a *schemabuilder.Error (KindDuplicateAction,
// KindBuilderInUse) unchanged.
func (uc *RegisterActionType) Execute(a kernel.ActionDescriptor) error {
	return uc.builder.RegisterAction(a)
}
