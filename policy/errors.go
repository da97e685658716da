package policy

// Kind classifies why a policy operation failed (spec.md §7 taxonomy:
// Validation, Not-found, Conflict, Dependency).
type Kind int

const (
	// KindParse: the Cedar policy source did not parse.
	KindParse Kind = iota
	// KindSchemaViolation: the policy parsed but references an action or
	// entity type the currently loaded schema does not declare. Attribute
	// accesses are not type-checked against the schema.
	KindSchemaViolation
	// KindStorage: the PolicyStoragePort failed.
	KindStorage
	// KindNotFound: no policy exists for the given HRN.
	KindNotFound
	// KindConflict: an update targeted a stale revision.
	KindConflict
)

// Error is the typed error union returned by every policy use-case.
type Error struct {
	Kind  Kind
	Detail string
	cause error
}

func (e *Error) Error() string {
	msg := "policy: " + kindString(e.Kind) + ": " + e.Detail
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

func kindString(k Kind) string {
	switch k {
	case KindParse:
		return "parse"
	case KindSchemaViolation:
		return "schema_violation"
	case KindStorage:
		return "storage"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

func newErr(kind Kind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, cause: cause}
}

// NewStorageError builds an *Error for use by PolicyStoragePort
// implementations (internal/storage/*), which must report failures as the
// typed kinds this package's use-cases expect rather than opaque errors.
func NewStorageError(kind Kind, detail string, cause error) *Error {
	return newErr(kind, detail, cause)
}
