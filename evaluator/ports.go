package evaluator

import "context"

// EvaluatePoliciesPort is the single evaluation entry point every caller
// (the IAM orchestrator) depends on (spec.md §4.6).
//
// Evaluate is side-effect-free apart from telemetry: it never mutates
// policies or entities, and identical inputs always produce identical
// decisions (spec.md §8 invariant #4).
type EvaluatePoliciesPort interface {
	Evaluate(ctx context.Context, req EvaluationRequest) (Decision, error)
}
