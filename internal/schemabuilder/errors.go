package schemabuilder

// Kind classifies schema-build failures (spec.md §4.3, §7 "Validation").
type Kind int

const (
	// KindDuplicateEntityType: the same qualified entity type was registered twice.
	KindDuplicateEntityType Kind = iota
	// KindDuplicateAction: the same action name (within a service) was registered twice.
	KindDuplicateAction
	// KindUnknownReferencedType: an action or entity referenced a type that was never registered.
	KindUnknownReferencedType
	// KindCycle: the type-level parent graph contains a cycle.
	KindCycle
	// KindInvalidCedar: the assembled schema failed to round-trip through Cedar's own parser.
	KindInvalidCedar
	// KindBuilderInUse: the builder was already consumed by BuildSchema; any later
	// RegisterEntity, RegisterAction or BuildSchema call on it reports this.
	KindBuilderInUse
)

// Error reports why the schema builder rejected a registration or a build.
type Error struct {
	Kind   Kind
	Detail string
	cause  error
}

func (e *Error) Error() string {
	msg := kindString(e.Kind) + ": " + e.Detail
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap exposes any underlying cause (e.g. a Cedar parser error) for errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

func kindString(k Kind) string {
	switch k {
	case KindDuplicateEntityType:
		return "duplicate_entity_type"
	case KindDuplicateAction:
		return "duplicate_action"
	case KindUnknownReferencedType:
		return "unknown_referenced_type"
	case KindCycle:
		return "cycle"
	case KindInvalidCedar:
		return "invalid_cedar"
	case KindBuilderInUse:
		return "builder_in_use"
	default:
		return "unknown"
	}
}

func newErr(kind Kind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, cause: cause}
}
