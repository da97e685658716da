package evaluator

import (
	cedartypes "github.com/cedar-policy/cedar-go/types"

	"github.com/hodei-sh/authz-core/hrn"
)

// Request is the immutable input to a single evaluation (spec.md §3
// "Authorization request").
type Request struct {
	Principal hrn.HRN
	Action    string
	Resource  hrn.HRN
	Context   map[string]cedartypes.Value
}

// Decision is always fully populated: either the evaluator returns a
// Decision or it returns a typed *Error, never both (spec.md §3
// "Authorization decision").
type Decision struct {
	Allowed             bool
	DeterminingPolicies []hrn.HRN
	Reasons             []string
}

// EvaluationRequest bundles everything EvaluatePoliciesPort.Evaluate needs:
// the request, the policy set to evaluate against, and the resolved
// entities (principal, resource, and their transitive parents).
type EvaluationRequest struct {
	Request  Request
	Policies map[hrn.HRN]string // policy HRN -> Cedar source
	Entities cedartypes.Entities
}
