package iam

// Kind classifies why IamPolicyEvaluator.Evaluate failed (spec.md §4.7,
// §7's Validation/Not-found/Dependency/Fatal taxonomy applied to the
// orchestrator).
type Kind int

const (
	// KindUnknownAction: the requested action is not declared in the
	// currently loaded schema. No evaluation is attempted.
	KindUnknownAction Kind = iota
	// KindPrincipalNotFound: PrincipalResolver returned NotFound.
	KindPrincipalNotFound
	// KindResourceNotFound: ResourceResolver returned NotFound.
	KindResourceNotFound
	// KindTypeMismatch: a resolver returned an entity whose concrete type
	// disagrees with its descriptor. Fatal.
	KindTypeMismatch
	// KindEntityCycle: the parent-entity graph contains a cycle while
	// materializing the transitive closure. Fatal.
	KindEntityCycle
	// KindDepthExceeded: the parent-entity graph exceeds the configured
	// traversal depth without a cycle. Fatal.
	KindDepthExceeded
	// KindSchemaUnavailable: the evaluator reported no schema could be
	// loaded. Retryable at a higher layer.
	KindSchemaUnavailable
	// KindFatal: the evaluator reported an entity type mismatch or policy
	// incompatibility. Non-retryable.
	KindFatal
	// KindDependency: a resolver or policy finder failed for reasons other
	// than not-found (backend failure). Retryable.
	KindDependency
)

// Error is the typed error union returned by IamPolicyEvaluator.Evaluate.
type Error struct {
	Kind  Kind
	Detail string
	cause error
}

func (e *Error) Error() string {
	msg := "iam: " + kindString(e.Kind) + ": " + e.Detail
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

func kindString(k Kind) string {
	switch k {
	case KindUnknownAction:
		return "unknown_action"
	case KindPrincipalNotFound:
		return "principal_not_found"
	case KindResourceNotFound:
		return "resource_not_found"
	case KindTypeMismatch:
		return "type_mismatch"
	case KindEntityCycle:
		return "entity_cycle"
	case KindDepthExceeded:
		return "depth_exceeded"
	case KindSchemaUnavailable:
		return "schema_unavailable"
	case KindFatal:
		return "fatal"
	case KindDependency:
		return "dependency"
	default:
		return "unknown"
	}
}

func newErr(kind Kind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, cause: cause}
}
