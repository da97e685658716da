// Package schemabuilder is the private, in-memory schema accumulator behind
// the policy core's public schema lifecycle use-cases (see package
// authzschema). It is never exported outside the module: bounded contexts
// never see a *Builder, only the RegisterEntityType/RegisterActionType/
// BuildSchema use-cases that hold one internally.
//
// Registrations are commutative: the same multiset of entity and action
// fragments produces byte-identical schema output regardless of the order
// they were registered in, because ordering is imposed at BuildSchema time
// (sorted by qualified name), never at registration time.
package schemabuilder

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	cedarschema "github.com/cedar-policy/cedar-go/schema"

	"github.com/hodei-sh/authz-core/kernel"
)

type entityFragment struct {
	serviceName kernel.ServiceName
	typeName    kernel.TypeName
	attrs       kernel.AttributeSchema
	isPrincipal bool
	isResource  bool
	parentTypes []kernel.QualifiedTypeName
}

type actionFragment struct {
	name             string
	serviceName      kernel.ServiceName
	appliesPrincipal []kernel.QualifiedTypeName
	appliesResource  []kernel.QualifiedTypeName
}

// Builder accumulates entity-type and action-type fragments contributed by
// bounded contexts. It is an ordinary mutex-guarded value owned by whichever
// startup orchestrator drives the sequential registration phase (spec.md
// §5) — there is no process-wide instance.
type Builder struct {
	mu       sync.Mutex
	entities map[kernel.QualifiedTypeName]entityFragment
	actions  map[string]actionFragment
	consumed bool
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{
		entities: make(map[kernel.QualifiedTypeName]entityFragment),
		actions:  make(map[string]actionFragment),
	}
}

// QualifiedName combines a service name and type name the same way every
// caller must, so that entity declarations and the QualifiedTypeName
// strings used in action applicability lists agree.
func QualifiedName(service kernel.ServiceName, typeName kernel.TypeName) kernel.QualifiedTypeName {
	return kernel.QualifiedTypeName(namespaceFor(service) + "::" + string(typeName))
}

func namespaceFor(service kernel.ServiceName) string {
	s := string(service)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// RegisterEntity records the fragment contributed by one entity type
// descriptor. It never performs I/O and never suspends.
func (b *Builder) RegisterEntity(d kernel.EntityTypeDescriptor) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.consumed {
		return newErr(KindBuilderInUse, "builder already consumed by BuildSchema", nil)
	}

	qn := QualifiedName(d.ServiceName(), d.TypeName())
	if _, exists := b.entities[qn]; exists {
		return newErr(KindDuplicateEntityType, string(qn), nil)
	}

	frag := entityFragment{
		serviceName: d.ServiceName(),
		typeName:    d.TypeName(),
		attrs:       d.AttributesSchema(),
	}
	if _, ok := d.(kernel.Principal); ok {
		frag.isPrincipal = true
	}
	if _, ok := d.(kernel.Resource); ok {
		frag.isResource = true
	}
	if hp, ok := d.(kernel.HasParentTypes); ok {
		frag.parentTypes = hp.ParentTypes()
	}

	b.entities[qn] = frag
	return nil
}

// RegisterAction records the fragment contributed by one action descriptor.
// Referenced-type validation (every applies-to type must be registered) is
// deferred to BuildSchema because registration order is unconstrained.
func (b *Builder) RegisterAction(a kernel.ActionDescriptor) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.consumed {
		return newErr(KindBuilderInUse, "builder already consumed by BuildSchema", nil)
	}

	key := string(a.ServiceName()) + "::" + a.Name()
	if _, exists := b.actions[key]; exists {
		return newErr(KindDuplicateAction, key, nil)
	}

	principals := append([]kernel.QualifiedTypeName(nil), a.AppliesToPrincipal()...)
	resources := append([]kernel.QualifiedTypeName(nil), a.AppliesToResource()...)

	b.actions[key] = actionFragment{
		name:             a.Name(),
		serviceName:      a.ServiceName(),
		appliesPrincipal: principals,
		appliesResource:  resources,
	}
	return nil
}

// EntityCount returns the number of distinct entity types registered so far.
func (b *Builder) EntityCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entities)
}

// ActionCount returns the number of distinct actions registered so far.
func (b *Builder) ActionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.actions)
}

// Result is the output of a successful BuildSchema call: the canonical
// Cedar schema text plus the entity/action counts it was built from.
type Result struct {
	Content     string
	EntityCount int
	ActionCount int
}

// BuildSchema consumes the builder — no further registrations are possible
// afterwards — and emits a canonical Cedar schema with entities sorted by
// qualified name, actions sorted by name, and attributes sorted by name, so
// that two permutations of the same registration multiset always produce
// byte-identical output.
func (b *Builder) BuildSchema() (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.consumed {
		return Result{}, newErr(KindBuilderInUse, "builder already consumed", nil)
	}
	b.consumed = true

	if err := validateReferences(b.entities, b.actions); err != nil {
		return Result{}, err
	}
	if err := detectParentCycles(b.entities); err != nil {
		return Result{}, err
	}

	bySvc := groupByNamespace(b.entities, b.actions)

	cs := cedarschema.NewSchema()
	for _, ns := range sortedKeys(bySvc) {
		decls := bySvc[ns]
		cs = cs.WithNamespace(ns, decls...)
	}

	text, err := cs.MarshalCedar()
	if err != nil {
		return Result{}, newErr(KindInvalidCedar, "failed to marshal assembled schema", err)
	}

	// Round-trip sanity: the canonical text must parse back to a schema,
	// satisfying spec.md §6's "MUST round-trip through Cedar's parser".
	var reparsed cedarschema.Schema
	if err := reparsed.UnmarshalCedar(text); err != nil {
		return Result{}, newErr(KindInvalidCedar, "assembled schema did not round-trip", err)
	}

	return Result{
		Content:     string(text),
		EntityCount: len(b.entities),
		ActionCount: len(b.actions),
	}, nil
}

func sortedKeys[V any](m map[string][]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func groupByNamespace(entities map[kernel.QualifiedTypeName]entityFragment, actions map[string]actionFragment) map[string][]cedarschema.Declaration {
	out := make(map[string][]cedarschema.Declaration)

	entityKeys := make([]kernel.QualifiedTypeName, 0, len(entities))
	for qn := range entities {
		entityKeys = append(entityKeys, qn)
	}
	sort.Slice(entityKeys, func(i, j int) bool { return entityKeys[i] < entityKeys[j] })

	for _, qn := range entityKeys {
		frag := entities[qn]
		ns := namespaceFor(frag.serviceName)
		out[ns] = append(out[ns], buildEntityDecl(frag))
	}

	actionKeys := make([]string, 0, len(actions))
	for k := range actions {
		actionKeys = append(actionKeys, k)
	}
	sort.Strings(actionKeys)

	for _, k := range actionKeys {
		frag := actions[k]
		ns := namespaceFor(frag.serviceName)
		out[ns] = append(out[ns], buildActionDecl(frag))
	}

	return out
}

func buildEntityDecl(frag entityFragment) *cedarschema.Entity {
	e := cedarschema.NewEntity(string(frag.typeName))

	attrNames := make([]string, 0, len(frag.attrs))
	byName := make(map[string]kernel.AttributeType, len(frag.attrs))
	for _, na := range frag.attrs {
		attrNames = append(attrNames, string(na.Name))
		byName[string(na.Name)] = na.Type
	}
	sort.Strings(attrNames)
	for _, name := range attrNames {
		at := byName[name]
		if at.Optional {
			e = e.WithOptionalAttribute(name, toCedarType(at))
		} else {
			e = e.WithAttribute(name, toCedarType(at))
		}
	}

	if frag.isPrincipal {
		e = e.WithAnnotation("hodei_principal", "true")
	}
	if frag.isResource {
		e = e.WithAnnotation("hodei_resource", "true")
	}

	parents := make([]string, 0, len(frag.parentTypes))
	for _, p := range frag.parentTypes {
		parents = append(parents, string(p))
	}
	sort.Strings(parents)
	if len(parents) > 0 {
		e = e.MemberOf(parents...)
	}

	return e
}

func buildActionDecl(frag actionFragment) *cedarschema.Action {
	principals := toStrings(frag.appliesPrincipal)
	resources := toStrings(frag.appliesResource)
	sort.Strings(principals)
	sort.Strings(resources)

	a := cedarschema.NewAction(frag.name)
	a = a.AppliesTo(cedarschema.Principals(principals...), cedarschema.Resources(resources...), nil)
	return a
}

func toStrings(qns []kernel.QualifiedTypeName) []string {
	out := make([]string, len(qns))
	for i, q := range qns {
		out[i] = string(q)
	}
	return out
}

func toCedarType(at kernel.AttributeType) cedarschema.Type {
	switch at.Kind {
	case kernel.AttributeString:
		return cedarschema.String()
	case kernel.AttributeLong:
		return cedarschema.Long()
	case kernel.AttributeBoolean:
		return cedarschema.Boolean()
	case kernel.AttributeSet:
		var elem cedarschema.Type = cedarschema.String()
		if at.Element != nil {
			elem = toCedarType(*at.Element)
		}
		return cedarschema.Set(elem)
	case kernel.AttributeRecord:
		rec := cedarschema.Record()
		for _, f := range at.Fields {
			if f.Type.Optional {
				rec = rec.WithOptionalAttribute(string(f.Name), toCedarType(f.Type))
			} else {
				rec = rec.WithAttribute(string(f.Name), toCedarType(f.Type))
			}
		}
		return rec
	case kernel.AttributeEntityRef:
		return cedarschema.EntityType(string(at.RefType))
	default:
		return cedarschema.String()
	}
}

func validateReferences(entities map[kernel.QualifiedTypeName]entityFragment, actions map[string]actionFragment) error {
	known := make(map[kernel.QualifiedTypeName]bool, len(entities))
	for qn := range entities {
		known[qn] = true
	}

	for key, frag := range actions {
		for _, p := range frag.appliesPrincipal {
			if !known[p] {
				return newErr(KindUnknownReferencedType, fmt.Sprintf("action %s references unknown principal type %s", key, p), nil)
			}
		}
		for _, r := range frag.appliesResource {
			if !known[r] {
				return newErr(KindUnknownReferencedType, fmt.Sprintf("action %s references unknown resource type %s", key, r), nil)
			}
		}
	}

	for qn, frag := range entities {
		for _, parent := range frag.parentTypes {
			if !known[parent] {
				return newErr(KindUnknownReferencedType, fmt.Sprintf("entity %s references unknown parent type %s", qn, parent), nil)
			}
		}
		for _, ref := range collectEntityRefs(frag.attrs) {
			if !known[ref] {
				return newErr(KindUnknownReferencedType, fmt.Sprintf("entity %s references unknown entity-ref type %s", qn, ref), nil)
			}
		}
	}

	return nil
}

func collectEntityRefs(attrs kernel.AttributeSchema) []kernel.QualifiedTypeName {
	var refs []kernel.QualifiedTypeName
	var walk func(at kernel.AttributeType)
	walk = func(at kernel.AttributeType) {
		switch at.Kind {
		case kernel.AttributeEntityRef:
			refs = append(refs, at.RefType)
		case kernel.AttributeSet:
			if at.Element != nil {
				walk(*at.Element)
			}
		case kernel.AttributeRecord:
			for _, f := range at.Fields {
				walk(f.Type)
			}
		}
	}
	for _, na := range attrs {
		walk(na.Type)
	}
	return refs
}

func detectParentCycles(entities map[kernel.QualifiedTypeName]entityFragment) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[kernel.QualifiedTypeName]int, len(entities))

	var visit func(qn kernel.QualifiedTypeName) error
	visit = func(qn kernel.QualifiedTypeName) error {
		switch color[qn] {
		case gray:
			return newErr(KindCycle, fmt.Sprintf("parent-type cycle involving %s", qn), nil)
		case black:
			return nil
		}
		color[qn] = gray
		for _, parent := range entities[qn].parentTypes {
			if _, ok := entities[parent]; !ok {
				continue // unknown-reference case already reported by validateReferences
			}
			if err := visit(parent); err != nil {
				return err
			}
		}
		color[qn] = black
		return nil
	}

	qns := make([]kernel.QualifiedTypeName, 0, len(entities))
	for qn := range entities {
		qns = append(qns, qn)
	}
	sort.Slice(qns, func(i, j int) bool { return qns[i] < qns[j] })

	for _, qn := range qns {
		if err := visit(qn); err != nil {
			return err
		}
	}
	return nil
}
