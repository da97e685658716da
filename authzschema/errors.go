package authzschema

// BuildKind classifies why BuildSchema failed.
type BuildKind int

const (
	// BuildKindSchema means the in-memory builder itself rejected the
	// registration multiset (duplicate type, unknown reference, cycle,
	// invalid Cedar). The underlying *schemabuilder.Error is reachable via
	// errors.As/errors.Unwrap.
	BuildKindSchema BuildKind = iota
	// BuildKindStorage means the SchemaStoragePort failed.
	BuildKindStorage
)

// BuildSchemaError is returned by BuildSchema.Execute.
type BuildSchemaError struct {
	Kind  BuildKind
	cause error
}

func (e *BuildSchemaError) Error() string {
	switch e.Kind {
	case BuildKindStorage:
		return "build_schema: storage: " + e.cause.Error()
	default:
		return "build_schema: schema: " + e.cause.Error()
	}
}

// Unwrap exposes the underlying schemabuilder or storage error.
func (e *BuildSchemaError) Unwrap() error { return e.cause }

func schemaErr(cause error) error  { return &BuildSchemaError{Kind: BuildKindSchema, cause: cause} }
func storageErr(cause error) error { return &BuildSchemaError{Kind: BuildKindStorage, cause: cause} }

// LoadKind classifies why LoadSchema failed.
type LoadKind int

const (
	// LoadKindUnavailable means no schema has been persisted yet, or the
	// storage port failed to retrieve one (spec.md §7 "Dependency", retryable).
	LoadKindUnavailable LoadKind = iota
	// LoadKindInvalidCedar means the persisted content failed to parse.
	LoadKindInvalidCedar
)

// LoadSchemaError is returned by LoadSchema.Execute.
type LoadSchemaError struct {
	Kind  LoadKind
	cause error
}

func (e *LoadSchemaError) Error() string {
	switch e.Kind {
	case LoadKindInvalidCedar:
		return "load_schema: invalid_cedar: " + e.cause.Error()
	default:
		return "load_schema: unavailable: " + errString(e.cause)
	}
}

// Unwrap exposes the underlying cause, when any.
func (e *LoadSchemaError) Unwrap() error { return e.cause }

func errString(err error) string {
	if err == nil {
		return "no schema has been persisted yet"
	}
	return err.Error()
}
