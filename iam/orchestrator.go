package iam

import (
	"context"
	"errors"

	cedartypes "github.com/cedar-policy/cedar-go/types"
	"golang.org/x/sync/errgroup"

	"github.com/hodei-sh/authz-core/authzschema"
	"github.com/hodei-sh/authz-core/evaluator"
	"github.com/hodei-sh/authz-core/hrn"
	"github.com/hodei-sh/authz-core/internal/logging"
)

var log = logging.GetLogger("iam")

// DefaultMaxParentDepth is the transitive parent-closure bound used when a
// caller does not override it (spec.md §4.7 step 4, "up to a configured
// depth (default 16)").
const DefaultMaxParentDepth = 16

// Request is the raw kernel-level authorization request every bounded
// context submits (spec.md §4.7 "bridges the raw kernel-level authorization
// request ... to a fully-resolved evaluation").
type Request struct {
	Principal hrn.HRN
	Action    string
	Resource  hrn.HRN
	Context   map[string]cedartypes.Value
}

// IamPolicyEvaluator is the use-case every bounded context invokes to ask
// "is this principal allowed to do X on Y?" (spec.md §4.7).
type IamPolicyEvaluator struct {
	schemaLoader     *authzschema.LoadSchema
	principals       PrincipalResolver
	resources        ResourceResolver
	parents          ParentResolver
	policyFinder     PolicyFinder
	evaluatePolicies evaluator.EvaluatePoliciesPort
	maxParentDepth   int
}

// Option configures an IamPolicyEvaluator at construction time.
type Option func(*IamPolicyEvaluator)

// WithMaxParentDepth overrides DefaultMaxParentDepth.
func WithMaxParentDepth(depth int) Option {
	return func(e *IamPolicyEvaluator) { e.maxParentDepth = depth }
}

// New builds an IamPolicyEvaluator from its segregated dependencies.
func New(
	schemaLoader *authzschema.LoadSchema,
	principals PrincipalResolver,
	resources ResourceResolver,
	parents ParentResolver,
	policyFinder PolicyFinder,
	evaluatePolicies evaluator.EvaluatePoliciesPort,
	opts ...Option,
) *IamPolicyEvaluator {
	e := &IamPolicyEvaluator{
		schemaLoader:     schemaLoader,
		principals:       principals,
		resources:        resources,
		parents:          parents,
		policyFinder:     policyFinder,
		evaluatePolicies: evaluatePolicies,
		maxParentDepth:   DefaultMaxParentDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs the five-step algorithm of spec.md §4.7:
//  1. validate the action is known to the schema;
//  2. resolve principal and resource in parallel;
//  3. fetch the principal's policy set;
//  4. materialize the transitive parent closure up to maxParentDepth;
//  5. call EvaluatePoliciesPort and map its errors.
//
// A Deny is never an error; the orchestrator never returns Allow if any
// resolution step failed (spec.md §8 invariant #7).
func (e *IamPolicyEvaluator) Evaluate(ctx context.Context, req Request) (evaluator.Decision, error) {
	log.Debug("iam", "evaluate", "state=Received", "principal", req.Principal.String(), "action", req.Action, "resource", req.Resource.String())

	schema, err := e.schemaLoader.Execute(ctx)
	if err != nil {
		return evaluator.Decision{}, newErr(KindSchemaUnavailable, "loading schema", err)
	}
	if !schema.HasAction(req.Action) {
		return evaluator.Decision{}, newErr(KindUnknownAction, "action \""+req.Action+"\" is not declared in the loaded schema", nil)
	}

	log.Debug("iam", "evaluate", "state=ResolvingEntities")
	var principal, resource Entity
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := e.principals.Resolve(gctx, req.Principal)
		if err != nil {
			return classifyResolverErr(err, KindPrincipalNotFound)
		}
		principal = p
		return nil
	})
	g.Go(func() error {
		r, err := e.resources.Resolve(gctx, req.Resource)
		if err != nil {
			return classifyResolverErr(err, KindResourceNotFound)
		}
		resource = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return evaluator.Decision{}, err
	}

	log.Debug("iam", "evaluate", "state=FetchingPolicies")
	policies, err := e.policyFinder.PoliciesFor(ctx, req.Principal)
	if err != nil {
		return evaluator.Decision{}, newErr(KindDependency, "fetching policy set for "+req.Principal.String(), err)
	}
	policySource := make(map[hrn.HRN]string, len(policies))
	for _, p := range policies {
		policySource[p.HRN] = p.Source
	}

	closure, err := e.materializeClosure(ctx, principal, resource)
	if err != nil {
		return evaluator.Decision{}, err
	}

	log.Debug("iam", "evaluate", "state=Evaluating")
	decision, err := e.evaluatePolicies.Evaluate(ctx, evaluator.EvaluationRequest{
		Request: evaluator.Request{
			Principal: req.Principal,
			Action:    req.Action,
			Resource:  req.Resource,
			Context:   req.Context,
		},
		Policies: policySource,
		Entities: closure,
	})
	if err != nil {
		var evalErr *evaluator.Error
		if errors.As(err, &evalErr) {
			switch evalErr.Kind {
			case evaluator.KindSchemaUnavailable:
				log.Warn("iam", "evaluate", "state=Failed", "reason", "schema_unavailable")
				return evaluator.Decision{}, newErr(KindSchemaUnavailable, "evaluator reported schema unavailable", err)
			default:
				log.Error("iam", "evaluate", "state=Failed", "reason", "evaluator_fatal")
				return evaluator.Decision{}, newErr(KindFatal, "evaluator reported a fatal error", err)
			}
		}
		return evaluator.Decision{}, newErr(KindFatal, "evaluator failed", err)
	}

	if decision.Allowed {
		log.Debug("iam", "evaluate", "state=Allowed")
	} else {
		log.Debug("iam", "evaluate", "state=Denied")
	}
	return decision, nil
}

func classifyResolverErr(err error, notFoundKind Kind) error {
	var re *ResolverError
	if errors.As(err, &re) {
		switch re.Kind {
		case ResolverTypeMismatch:
			return newErr(KindTypeMismatch, "resolved entity does not match its descriptor", err)
		case ResolverNotFound:
			return newErr(notFoundKind, "entity not found", err)
		}
	}
	return newErr(KindDependency, "entity resolution failed", err)
}

// materializeClosure assembles principal, resource, and their transitive
// parents (group memberships, org containers) into the Entities map Cedar's
// `in` predicates need (spec.md §4.7 step 4, §9 "Hierarchical entity
// graph"). Cycles are reported as KindEntityCycle; exceeding maxParentDepth
// without a cycle is reported as KindDepthExceeded.
func (e *IamPolicyEvaluator) materializeClosure(ctx context.Context, principal, resource Entity) (cedartypes.Entities, error) {
	entities := cedartypes.Entities{}
	visiting := map[string]bool{}

	var walk func(ent Entity, depth int) error
	walk = func(ent Entity, depth int) error {
		key := ent.HRN.String()
		if visiting[key] {
			return newErr(KindEntityCycle, "entity graph contains a cycle at "+key, nil)
		}
		if _, already := entities[ent.toCedar().UID]; already {
			return nil
		}
		if depth > e.maxParentDepth {
			return newErr(KindDepthExceeded, "parent graph exceeds max depth "+itoa(e.maxParentDepth)+" at "+key, nil)
		}
		visiting[key] = true
		defer delete(visiting, key)

		cedarEnt := ent.toCedar()
		entities[cedarEnt.UID] = cedarEnt

		if e.parents == nil {
			return nil
		}
		parents, err := e.parents.ResolveParents(ctx, ent.HRN)
		if err != nil {
			return newErr(KindDependency, "resolving parents of "+key, err)
		}
		for _, p := range parents {
			if err := walk(p, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(principal, 0); err != nil {
		return nil, err
	}
	if err := walk(resource, 0); err != nil {
		return nil, err
	}
	return entities, nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}
