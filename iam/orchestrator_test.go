package iam

import (
	"context"
	"errors"
	"testing"

	"github.com/hodei-sh/authz-core/authzschema"
	"github.com/hodei-sh/authz-core/evaluator"
	"github.com/hodei-sh/authz-core/hrn"
	"github.com/hodei-sh/authz-core/policy"
)

const testSchema = `namespace Iam {
  entity User;
  entity Account;
  action CreateUser appliesTo { principal: [User], resource: [Account] };
}`

type fakeLoader struct{ content string }

func (f fakeLoader) LoadLatest(context.Context) (*authzschema.PersistedSchema, error) {
	return &authzschema.PersistedSchema{Content: f.content, Hash: "h", Version: "v1"}, nil
}

func newSchemaLoader() *authzschema.LoadSchema {
	return authzschema.NewLoadSchema(fakeLoader{content: testSchema})
}

func mustHRN(t *testing.T, s string) hrn.HRN {
	t.Helper()
	h, err := hrn.Parse(s)
	if err != nil {
		t.Fatalf("hrn.Parse(%q): %v", s, err)
	}
	return h
}

type staticResolver struct {
	entities map[string]Entity
}

func (s staticResolver) Resolve(_ context.Context, h hrn.HRN) (Entity, error) {
	e, ok := s.entities[h.String()]
	if !ok {
		return Entity{}, &ResolverError{Kind: ResolverNotFound, cause: errors.New("no such entity")}
	}
	return e, nil
}

func (s staticResolver) ResolveParents(_ context.Context, h hrn.HRN) ([]Entity, error) {
	return nil, nil
}

type fakePolicyFinder struct {
	policies []policy.Policy
}

func (f fakePolicyFinder) PoliciesFor(context.Context, hrn.HRN) ([]policy.Policy, error) {
	return f.policies, nil
}

type allowAllEvaluator struct{ called bool }

func (a *allowAllEvaluator) Evaluate(context.Context, evaluator.EvaluationRequest) (evaluator.Decision, error) {
	a.called = true
	return evaluator.Decision{Allowed: true, DeterminingPolicies: []hrn.HRN{}}, nil
}

// TestEvaluateUnknownActionS5 covers spec.md §8 scenario S5: an action not
// declared in the schema is rejected before any evaluation is attempted.
func TestEvaluateUnknownActionS5(t *testing.T) {
	principal := mustHRN(t, "hrn:hodei:iam::acc1:Iam::User:alice")
	resource := mustHRN(t, "hrn:hodei:iam::acc1:Iam::Account:acc1")

	ev := &allowAllEvaluator{}
	orch := New(
		newSchemaLoader(),
		staticResolver{entities: map[string]Entity{principal.String(): {HRN: principal, Type: "Iam::User"}}},
		staticResolver{entities: map[string]Entity{resource.String(): {HRN: resource, Type: "Iam::Account"}}},
		nil,
		fakePolicyFinder{},
		ev,
	)

	_, err := orch.Evaluate(context.Background(), Request{Principal: principal, Action: "FrobnicateWidgets", Resource: resource})
	if err == nil {
		t.Fatalf("expected an unknown-action error")
	}
	var ie *Error
	if !errors.As(err, &ie) || ie.Kind != KindUnknownAction {
		t.Fatalf("expected KindUnknownAction, got %v", err)
	}
	if ev.called {
		t.Fatalf("evaluator must not be called for an unknown action")
	}
}

// TestEvaluatePrincipalNotFoundS6 covers spec.md §8 scenario S6: a missing
// principal short-circuits before the policy finder or evaluator run.
func TestEvaluatePrincipalNotFoundS6(t *testing.T) {
	resource := mustHRN(t, "hrn:hodei:iam::acc1:Iam::Account:acc1")
	missingPrincipal := mustHRN(t, "hrn:hodei:iam::acc1:Iam::User:ghost")

	ev := &allowAllEvaluator{}
	orch := New(
		newSchemaLoader(),
		staticResolver{entities: map[string]Entity{}},
		staticResolver{entities: map[string]Entity{resource.String(): {HRN: resource, Type: "Iam::Account"}}},
		nil,
		fakePolicyFinder{},
		ev,
	)

	_, err := orch.Evaluate(context.Background(), Request{Principal: missingPrincipal, Action: "CreateUser", Resource: resource})
	if err == nil {
		t.Fatalf("expected a principal-not-found error")
	}
	var ie *Error
	if !errors.As(err, &ie) || ie.Kind != KindPrincipalNotFound {
		t.Fatalf("expected KindPrincipalNotFound, got %v", err)
	}
	if ev.called {
		t.Fatalf("evaluator must not be called when principal resolution fails")
	}
}

// TestEvaluateNeverAllowsOnResolutionFailure covers spec.md §8 invariant #7.
func TestEvaluateNeverAllowsOnResolutionFailure(t *testing.T) {
	missingResource := mustHRN(t, "hrn:hodei:iam::acc1:Iam::Account:ghost")
	principal := mustHRN(t, "hrn:hodei:iam::acc1:Iam::User:alice")

	ev := &allowAllEvaluator{}
	orch := New(
		newSchemaLoader(),
		staticResolver{entities: map[string]Entity{principal.String(): {HRN: principal, Type: "Iam::User"}}},
		staticResolver{entities: map[string]Entity{}},
		nil,
		fakePolicyFinder{},
		ev,
	)

	decision, err := orch.Evaluate(context.Background(), Request{Principal: principal, Action: "CreateUser", Resource: missingResource})
	if err == nil {
		t.Fatalf("expected a resource-not-found error")
	}
	if decision.Allowed {
		t.Fatalf("must never return Allow when resolution failed")
	}
}

func TestEvaluateEmptyPolicySetDenies(t *testing.T) {
	principal := mustHRN(t, "hrn:hodei:iam::acc1:Iam::User:alice")
	resource := mustHRN(t, "hrn:hodei:iam::acc1:Iam::Account:acc1")

	orch := New(
		newSchemaLoader(),
		staticResolver{entities: map[string]Entity{principal.String(): {HRN: principal, Type: "Iam::User"}}},
		staticResolver{entities: map[string]Entity{resource.String(): {HRN: resource, Type: "Iam::Account"}}},
		nil,
		fakePolicyFinder{policies: nil},
		evaluator.NewCedarAdapter(newSchemaLoader()),
	)

	decision, err := orch.Evaluate(context.Background(), Request{Principal: principal, Action: "CreateUser", Resource: resource})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if decision.Allowed {
		t.Fatalf("expected Deny with an empty policy set")
	}
	if len(decision.DeterminingPolicies) != 0 {
		t.Fatalf("expected empty DeterminingPolicies")
	}
}

type cyclicParentResolver struct{}

func (cyclicParentResolver) Resolve(context.Context, hrn.HRN) (Entity, error) { return Entity{}, nil }
func (cyclicParentResolver) ResolveParents(_ context.Context, h hrn.HRN) ([]Entity, error) {
	return []Entity{{HRN: h, Type: "Iam::Group"}}, nil
}

func TestMaterializeClosureDetectsCycle(t *testing.T) {
	principal := mustHRN(t, "hrn:hodei:iam::acc1:Iam::Group:g1")
	resource := mustHRN(t, "hrn:hodei:iam::acc1:Iam::Account:acc1")

	orch := New(
		newSchemaLoader(),
		staticResolver{entities: map[string]Entity{principal.String(): {HRN: principal, Type: "Iam::Group"}}},
		staticResolver{entities: map[string]Entity{resource.String(): {HRN: resource, Type: "Iam::Account"}}},
		cyclicParentResolver{},
		fakePolicyFinder{},
		&allowAllEvaluator{},
	)

	_, err := orch.Evaluate(context.Background(), Request{Principal: principal, Action: "CreateUser", Resource: resource})
	if err == nil {
		t.Fatalf("expected an entity-cycle error")
	}
	var ie *Error
	if !errors.As(err, &ie) || ie.Kind != KindEntityCycle {
		t.Fatalf("expected KindEntityCycle, got %v", err)
	}
}
