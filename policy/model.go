package policy

import (
	"time"

	"github.com/hodei-sh/authz-core/hrn"
)

// Annotations is an optional free-form string map an operator can attach to
// a policy record for operational bookkeeping (ticket links, owning team,
// rollout wave). The policy core never inspects its contents.
type Annotations map[string]string

// Policy is the durable record a bounded context authors and the
// orchestrator's PolicyFinder returns (spec.md §3 "Policy").
//
// Policies are immutable under a given revision: UpdatePolicy writes a new
// revision number with the new source, replacing the stored record. Earlier
// revisions are not retained.
type Policy struct {
	HRN         hrn.HRN
	Source      string
	Revision    int
	Description string
	Binding     string
	Annotations Annotations

	// Tombstoned records DeletePolicy's tombstone-style removal (spec.md
	// §4.5): deleted policies are retained for audit, never hard-deleted.
	Tombstoned     bool
	TombstonedAt   *time.Time

	// ValidatedAgainstSchemaHash is the hash of the schema this revision
	// was last validated against (an [EXPANSION] per SPEC_FULL.md §3,
	// resolving spec.md §9's open question on schema-hash stamping).
	ValidatedAgainstSchemaHash string
}
