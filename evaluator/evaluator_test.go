package evaluator

import (
	"context"
	"testing"

	cedartypes "github.com/cedar-policy/cedar-go/types"

	"github.com/hodei-sh/authz-core/authzschema"
	"github.com/hodei-sh/authz-core/hrn"
)

const testSchema = `namespace Iam {
  entity User;
  entity Account;
  action CreateUser appliesTo { principal: [User], resource: [Account] };
}`

type fakeLoader struct{}

func (fakeLoader) LoadLatest(context.Context) (*authzschema.PersistedSchema, error) {
	return &authzschema.PersistedSchema{Content: testSchema, Hash: "h", Version: "v1"}, nil
}

func mustHRN(t *testing.T, s string) hrn.HRN {
	t.Helper()
	h, err := hrn.Parse(s)
	if err != nil {
		t.Fatalf("hrn.Parse(%q): %v", s, err)
	}
	return h
}

// TestEvaluateScenarioS3 covers spec.md §8 scenario S3: a single permit
// matching the request yields Allow with one determining policy.
func TestEvaluateScenarioS3(t *testing.T) {
	principal := mustHRN(t, "hrn:hodei:iam::acc1:Iam::User:alice")
	resource := mustHRN(t, "hrn:hodei:iam::acc1:Iam::Account:acc1")

	adapter := NewCedarAdapter(authzschema.NewLoadSchema(fakeLoader{}))
	entities := cedartypes.Entities{}

	decision, err := adapter.Evaluate(context.Background(), EvaluationRequest{
		Request: Request{Principal: principal, Action: "CreateUser", Resource: resource},
		Policies: map[hrn.HRN]string{
			mustHRN(t, "hrn:hodei:iam::acc1:policy:p1"): `permit(principal, action == Action::"CreateUser", resource);`,
		},
		Entities: entities,
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("expected Allow, got Deny (reasons=%v)", decision.Reasons)
	}
	if len(decision.DeterminingPolicies) != 1 {
		t.Fatalf("DeterminingPolicies = %v, want length 1", decision.DeterminingPolicies)
	}
}

// TestEvaluateScenarioS4 covers spec.md §8 scenario S4: an explicit forbid
// for the same principal overrides the permit.
func TestEvaluateScenarioS4(t *testing.T) {
	principal := mustHRN(t, "hrn:hodei:iam::acc1:Iam::User:alice")
	resource := mustHRN(t, "hrn:hodei:iam::acc1:Iam::Account:acc1")

	adapter := NewCedarAdapter(authzschema.NewLoadSchema(fakeLoader{}))

	decision, err := adapter.Evaluate(context.Background(), EvaluationRequest{
		Request: Request{Principal: principal, Action: "CreateUser", Resource: resource},
		Policies: map[hrn.HRN]string{
			mustHRN(t, "hrn:hodei:iam::acc1:policy:p1"): `permit(principal, action == Action::"CreateUser", resource);`,
			mustHRN(t, "hrn:hodei:iam::acc1:policy:p2"): `forbid(principal == Iam::User::"alice", action, resource);`,
		},
		Entities: cedartypes.Entities{},
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if decision.Allowed {
		t.Fatalf("expected Deny, got Allow")
	}
}

// TestEvaluateRejectsEntityTypeMismatch covers spec.md §4.6/§8:
// EvaluatePoliciesPort must reject a supplied entity whose type has no
// matching declaration in the schema with KindEntityTypeMismatch, never
// silently evaluating against it.
func TestEvaluateRejectsEntityTypeMismatch(t *testing.T) {
	principal := mustHRN(t, "hrn:hodei:iam::acc1:Iam::User:alice")
	resource := mustHRN(t, "hrn:hodei:iam::acc1:Iam::Account:acc1")

	adapter := NewCedarAdapter(authzschema.NewLoadSchema(fakeLoader{}))
	entities := cedartypes.Entities{
		cedartypes.NewEntityUID("Iam::Widget", "alice"): {
			UID: cedartypes.NewEntityUID("Iam::Widget", "alice"),
		},
	}

	_, err := adapter.Evaluate(context.Background(), EvaluationRequest{
		Request: Request{Principal: principal, Action: "CreateUser", Resource: resource},
		Policies: map[hrn.HRN]string{
			mustHRN(t, "hrn:hodei:iam::acc1:policy:p1"): `permit(principal, action == Action::"CreateUser", resource);`,
		},
		Entities: entities,
	})
	if err == nil {
		t.Fatalf("expected an entity-type-mismatch error")
	}
	var ee *Error
	if e, ok := err.(*Error); ok {
		ee = e
	}
	if ee == nil || ee.Kind != KindEntityTypeMismatch {
		t.Fatalf("expected KindEntityTypeMismatch, got %v", err)
	}
}

func TestEvaluateEmptyPolicySetDenies(t *testing.T) {
	principal := mustHRN(t, "hrn:hodei:iam::acc1:Iam::User:alice")
	resource := mustHRN(t, "hrn:hodei:iam::acc1:Iam::Account:acc1")

	adapter := NewCedarAdapter(authzschema.NewLoadSchema(fakeLoader{}))
	decision, err := adapter.Evaluate(context.Background(), EvaluationRequest{
		Request:  Request{Principal: principal, Action: "CreateUser", Resource: resource},
		Policies: map[hrn.HRN]string{},
		Entities: cedartypes.Entities{},
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if decision.Allowed {
		t.Fatalf("expected Deny with an empty policy set")
	}
	if len(decision.DeterminingPolicies) != 0 {
		t.Fatalf("expected empty DeterminingPolicies, got %v", decision.DeterminingPolicies)
	}
}
