package evaluator

import (
	"context"

	cedar "github.com/cedar-policy/cedar-go"
	cedartypes "github.com/cedar-policy/cedar-go/types"

	"github.com/hodei-sh/authz-core/authzschema"
	"github.com/hodei-sh/authz-core/hrn"
	"github.com/hodei-sh/authz-core/internal/logging"
)

var log = logging.GetLogger("evaluator")

// CedarAdapter implements EvaluatePoliciesPort against the real Cedar
// authorizer (spec.md §4.6 "EvaluatePoliciesPort & Adapter").
type CedarAdapter struct {
	loader *authzschema.LoadSchema
}

// NewCedarAdapter binds the adapter to the schema loader it consults before
// every evaluation.
func NewCedarAdapter(loader *authzschema.LoadSchema) *CedarAdapter {
	return &CedarAdapter{loader: loader}
}

// Evaluate loads the latest schema, assembles a Cedar policy set and
// authorization request from req, and invokes Cedar's authorizer. Tie-break
// rules follow Cedar's own documented semantics (explicit forbid beats
// permit); this adapter does not redefine them.
func (a *CedarAdapter) Evaluate(ctx context.Context, req EvaluationRequest) (Decision, error) {
	schema, err := a.loader.Execute(ctx)
	if err != nil {
		return Decision{}, newErr(KindSchemaUnavailable, "loading schema", err)
	}

	for uid := range req.Entities {
		if !schema.HasEntityType(string(uid.Type)) {
			return Decision{}, newErr(KindEntityTypeMismatch,
				"entity "+string(uid.Type)+"::\""+string(uid.ID)+"\" has no matching entity type declared in the schema", nil)
		}
	}

	ps := cedar.NewPolicySet()
	idToHRN := make(map[cedar.PolicyID]hrn.HRN, len(req.Policies))
	for policyHRN, source := range req.Policies {
		var p cedar.Policy
		if err := p.UnmarshalCedar([]byte(source)); err != nil {
			return Decision{}, newErr(KindPolicyIncompatible, "policy "+policyHRN.String()+" failed to parse", err)
		}
		id := cedar.PolicyID(policyHRN.String())
		ps.Add(id, &p)
		idToHRN[id] = policyHRN
	}

	cedarReq := cedar.Request{
		Principal: cedartypes.NewEntityUID(cedartypes.EntityType(req.Request.Principal.ResourceType()), cedartypes.String(req.Request.Principal.ResourcePath())),
		Action:    cedartypes.NewEntityUID("Action", cedartypes.String(req.Request.Action)),
		Resource:  cedartypes.NewEntityUID(cedartypes.EntityType(req.Request.Resource.ResourceType()), cedartypes.String(req.Request.Resource.ResourcePath())),
		Context:   cedartypes.NewRecord(toRecordMap(req.Request.Context)),
	}

	decision, diagnostic := cedar.IsAuthorized(ps, req.Entities, cedarReq)

	var determining []hrn.HRN
	for _, reason := range diagnostic.Reasons {
		if h, ok := idToHRN[reason.PolicyID]; ok {
			determining = append(determining, h)
		}
	}
	var reasons []string
	for _, e := range diagnostic.Errors {
		reasons = append(reasons, e.Error())
	}

	log.Debug("evaluator", "evaluate", "cedar authorization evaluated",
		"principal", req.Request.Principal.String(),
		"action", req.Request.Action,
		"resource", req.Request.Resource.String(),
		"allow", decision == cedartypes.Allow,
	)

	return Decision{
		Allowed:             decision == cedartypes.Allow,
		DeterminingPolicies: determining,
		Reasons:             reasons,
	}, nil
}

func toRecordMap(ctx map[string]cedartypes.Value) cedartypes.RecordMap {
	m := cedartypes.RecordMap{}
	for k, v := range ctx {
		m[cedartypes.String(k)] = v
	}
	return m
}
