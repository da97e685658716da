// Package kernel defines the narrow, language-neutral contracts that every
// bounded context implements on its own domain types so the policy core can
// learn about them without importing anything from that context, and
// without the core ever importing anything from the bounded context either.
//
// A context that owns, say, a `User` entity implements [EntityTypeDescriptor]
// (and, if `User` can be the subject of an authorization decision,
// [Principal]) on it once. The policy core never sees `User` itself — only
// the descriptor it returns.
package kernel

// ServiceName identifies the bounded context that owns an entity or action
// type (e.g. "iam", "artifacts").
type ServiceName string

// TypeName identifies an entity type within its owning service (e.g. "User").
type TypeName string

// QualifiedTypeName is a service-qualified entity type reference as used in
// action applicability lists (e.g. "Iam::User").
type QualifiedTypeName string

// AttributeName identifies a single attribute on an entity type.
type AttributeName string

// AttributeKind enumerates the closed set of attribute shapes the schema
// builder understands.
type AttributeKind int

const (
	// AttributeString is a Cedar String.
	AttributeString AttributeKind = iota
	// AttributeLong is a Cedar Long (64-bit integer).
	AttributeLong
	// AttributeBoolean is a Cedar Boolean.
	AttributeBoolean
	// AttributeSet is a Cedar Set<T>; Element describes T.
	AttributeSet
	// AttributeRecord is a Cedar Record; Fields describes its members.
	AttributeRecord
	// AttributeEntityRef is a reference to another entity type; RefType
	// names the referenced, service-qualified entity type.
	AttributeEntityRef
)

// AttributeType describes the shape of one attribute. Only the fields
// relevant to Kind are meaningful:
//   - AttributeSet uses Element
//   - AttributeRecord uses Fields
//   - AttributeEntityRef uses RefType
type AttributeType struct {
	Kind     AttributeKind
	Element  *AttributeType
	Fields   []RecordField
	RefType  QualifiedTypeName
	Optional bool
}

// RecordField is one named member of an AttributeRecord.
type RecordField struct {
	Name AttributeName
	Type AttributeType
}

// String returns a Cedar-style String attribute type.
func String() AttributeType { return AttributeType{Kind: AttributeString} }

// Long returns a Cedar-style Long attribute type.
func Long() AttributeType { return AttributeType{Kind: AttributeLong} }

// Boolean returns a Cedar-style Boolean attribute type.
func Boolean() AttributeType { return AttributeType{Kind: AttributeBoolean} }

// Set returns a Cedar-style Set<element> attribute type.
func Set(element AttributeType) AttributeType {
	return AttributeType{Kind: AttributeSet, Element: &element}
}

// Record returns a Cedar-style Record attribute type with the given fields.
func Record(fields ...RecordField) AttributeType {
	return AttributeType{Kind: AttributeRecord, Fields: fields}
}

// EntityRef returns an attribute type that references another entity type.
func EntityRef(refType QualifiedTypeName) AttributeType {
	return AttributeType{Kind: AttributeEntityRef, RefType: refType}
}

// Field builds a RecordField, for use with Record.
func Field(name AttributeName, typ AttributeType) RecordField {
	return RecordField{Name: name, Type: typ}
}

// AttributeSchema is the ordered attribute-name-to-type mapping a bounded
// context publishes for one of its entity types. Order is preserved because
// it is meaningful for reproducible documentation, even though the schema
// builder re-sorts by name at serialization time (see internal/schemabuilder).
type AttributeSchema []NamedAttribute

// NamedAttribute pairs an attribute name with its type, preserving
// declaration order within an AttributeSchema.
type NamedAttribute struct {
	Name AttributeName
	Type AttributeType
}

// EntityTypeDescriptor is the static metadata a bounded context publishes
// about one of its entity types.
//
// Implementations are plain value types with no mutable state: the schema
// builder calls these methods once, at registration time, and never again.
type EntityTypeDescriptor interface {
	// ServiceName is the owning bounded context's name.
	ServiceName() ServiceName
	// TypeName is this entity type's name within ServiceName.
	TypeName() TypeName
	// AttributesSchema is the ordered attribute-name-to-type mapping.
	AttributesSchema() AttributeSchema
}

// Principal is a marker capability an EntityTypeDescriptor additionally
// implements to declare that instances of its type may be the subject of an
// authorization request.
type Principal interface {
	IsPrincipal()
}

// Resource is a marker capability an EntityTypeDescriptor additionally
// implements to declare that instances of its type may be the object of an
// authorization request.
type Resource interface {
	IsResource()
}

// HasParentTypes is an optional capability an EntityTypeDescriptor may
// additionally implement to declare the entity types its instances can be a
// member of at the type level (e.g. a User's parent type is Group). The
// schema builder emits these as Cedar "in" relationships on the entity
// declaration. Entity types with no hierarchical parent simply do not
// implement this interface.
type HasParentTypes interface {
	ParentTypes() []QualifiedTypeName
}

// ActionDescriptor is the static metadata a bounded context publishes about
// one of its action types.
type ActionDescriptor interface {
	// Name is the action's name (e.g. "CreateUser").
	Name() string
	// ServiceName is the owning bounded context's name.
	ServiceName() ServiceName
	// AppliesToPrincipal is the non-empty set of entity types that may be
	// the principal for this action.
	AppliesToPrincipal() []QualifiedTypeName
	// AppliesToResource is the non-empty set of entity types that may be
	// the resource for this action.
	AppliesToResource() []QualifiedTypeName
}
