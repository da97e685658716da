package authzschema

import (
	"regexp"
	"strings"

	cedarschema "github.com/cedar-policy/cedar-go/schema"
)

// Schema is a loaded, parsed Cedar schema together with the content hash and
// version it was persisted under. Every policy validator and evaluator
// instance holds one, refreshed on a cadence out of this module's scope
// (spec.md §4.4 "Schema Loader").
type Schema struct {
	Content string
	Hash    string
	Version string
	Cedar   *cedarschema.Schema
}

// ParseSchema parses Cedar schema text and pairs it with its hash/version
// metadata. Returns *LoadSchemaError{Kind: LoadKindInvalidCedar} if the text
// does not parse.
func ParseSchema(content, hash, version string) (Schema, error) {
	var cs cedarschema.Schema
	if err := cs.UnmarshalCedar([]byte(content)); err != nil {
		return Schema{}, &LoadSchemaError{Kind: LoadKindInvalidCedar, cause: err}
	}
	return Schema{Content: content, Hash: hash, Version: version, Cedar: &cs}, nil
}

// HasAction reports whether the schema's canonical Cedar text declares an
// action with the given bare name. Used by the IAM orchestrator to reject
// unknown actions before any evaluation is attempted (spec.md §4.7 step 1,
// §8 boundary behavior "Unknown action").
func (s Schema) HasAction(name string) bool {
	if s.Content == "" {
		return false
	}
	pattern := `\baction\s+"?` + regexp.QuoteMeta(name) + `"?\b`
	return regexp.MustCompile(pattern).MatchString(s.Content)
}

// HasEntityType reports whether the schema's canonical Cedar text declares
// an entity type matching name, which may be bare (e.g. "User") or
// namespace-qualified (e.g. "Iam::User"). Entities are declared bare inside
// their owning `namespace Service { ... }` block, so a qualified reference is
// resolved to its bare type name before matching.
func (s Schema) HasEntityType(name string) bool {
	if s.Content == "" {
		return false
	}
	if idx := strings.LastIndex(name, "::"); idx != -1 {
		name = name[idx+2:]
	}
	pattern := `\bentity\s+` + regexp.QuoteMeta(name) + `\b`
	return regexp.MustCompile(pattern).MatchString(s.Content)
}
