package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/hodei-sh/authz-core/hrn"
	"github.com/hodei-sh/authz-core/policy"
)

// PolicyStore is a *sqlx.DB-backed policy.PolicyStoragePort and
// policy.PolicyFinder.
type PolicyStore struct {
	db *sqlx.DB
}

// NewPolicyStore wraps an already-migrated *sqlx.DB.
func NewPolicyStore(db *sqlx.DB) *PolicyStore {
	return &PolicyStore{db: db}
}

// policyRow mirrors policy.Policy with sqlx column tags and a jsonb-encoded
// annotations column.
type policyRow struct {
	HRN                        string       `db:"hrn"`
	Source                     string       `db:"source"`
	Revision                   int          `db:"revision"`
	Description                string       `db:"description"`
	Binding                    string       `db:"binding"`
	Annotations                []byte       `db:"annotations"`
	Tombstoned                 bool         `db:"tombstoned"`
	TombstonedAt               sql.NullTime `db:"tombstoned_at"`
	ValidatedAgainstSchemaHash string       `db:"validated_against_schema_hash"`
}

func rowFromDomain(p policy.Policy) (policyRow, error) {
	ann := p.Annotations
	if ann == nil {
		ann = policy.Annotations{}
	}
	encoded, err := json.Marshal(ann)
	if err != nil {
		return policyRow{}, errors.Wrap(err, "encoding annotations")
	}
	row := policyRow{
		HRN:                        p.HRN.String(),
		Source:                     p.Source,
		Revision:                   p.Revision,
		Description:                p.Description,
		Binding:                    p.Binding,
		Annotations:                encoded,
		Tombstoned:                 p.Tombstoned,
		ValidatedAgainstSchemaHash: p.ValidatedAgainstSchemaHash,
	}
	if p.TombstonedAt != nil {
		row.TombstonedAt = sql.NullTime{Time: *p.TombstonedAt, Valid: true}
	}
	return row, nil
}

func (r policyRow) toDomain() (policy.Policy, error) {
	h, err := hrn.Parse(r.HRN)
	if err != nil {
		return policy.Policy{}, errors.Wrap(err, "parsing stored policy hrn")
	}
	var ann policy.Annotations
	if len(r.Annotations) > 0 {
		if err := json.Unmarshal(r.Annotations, &ann); err != nil {
			return policy.Policy{}, errors.Wrap(err, "decoding annotations")
		}
	}
	p := policy.Policy{
		HRN:                        h,
		Source:                     r.Source,
		Revision:                   r.Revision,
		Description:                r.Description,
		Binding:                    r.Binding,
		Annotations:                ann,
		Tombstoned:                 r.Tombstoned,
		ValidatedAgainstSchemaHash: r.ValidatedAgainstSchemaHash,
	}
	if r.TombstonedAt.Valid {
		t := r.TombstonedAt.Time
		p.TombstonedAt = &t
	}
	return p, nil
}

func (s *PolicyStore) Create(ctx context.Context, p policy.Policy) (policy.Policy, error) {
	row, err := rowFromDomain(p)
	if err != nil {
		return policy.Policy{}, err
	}
	const q = `
		INSERT INTO authz_policies
			(hrn, source, revision, description, binding, annotations, tombstoned, tombstoned_at, validated_against_schema_hash)
		VALUES
			(:hrn, :source, :revision, :description, :binding, :annotations, :tombstoned, :tombstoned_at, :validated_against_schema_hash)`
	if _, err := s.db.NamedExecContext(ctx, q, row); err != nil {
		return policy.Policy{}, policy.NewStorageError(policy.KindStorage, "inserting authz_policies row", err)
	}
	return p, nil
}

func (s *PolicyStore) Update(ctx context.Context, expectedRevision int, next policy.Policy) (policy.Policy, error) {
	row, err := rowFromDomain(next)
	if err != nil {
		return policy.Policy{}, err
	}
	const q = `
		UPDATE authz_policies SET
			source = :source,
			revision = :revision,
			description = :description,
			binding = :binding,
			annotations = :annotations,
			validated_against_schema_hash = :validated_against_schema_hash
		WHERE hrn = :hrn AND revision = :expected_revision`
	named := struct {
		policyRow
		ExpectedRevision int `db:"expected_revision"`
	}{policyRow: row, ExpectedRevision: expectedRevision}

	res, err := s.db.NamedExecContext(ctx, q, named)
	if err != nil {
		return policy.Policy{}, policy.NewStorageError(policy.KindStorage, "updating authz_policies row", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return policy.Policy{}, policy.NewStorageError(policy.KindStorage, "reading rows affected", err)
	}
	if affected == 0 {
		current, getErr := s.Get(ctx, next.HRN)
		if getErr != nil {
			return policy.Policy{}, policy.NewStorageError(policy.KindConflict, "revision conflict (current row unreadable)", getErr)
		}
		return policy.Policy{}, policy.NewStorageError(policy.KindConflict,
			"revision conflict: expected "+itoa(expectedRevision)+", stored "+itoa(current.Revision), nil)
	}
	return next, nil
}

func (s *PolicyStore) Tombstone(ctx context.Context, h hrn.HRN) (policy.Policy, error) {
	now := time.Now()
	const q = `
		UPDATE authz_policies SET tombstoned = true, tombstoned_at = $2
		WHERE hrn = $1`
	res, err := s.db.ExecContext(ctx, q, h.String(), now)
	if err != nil {
		return policy.Policy{}, policy.NewStorageError(policy.KindStorage, "tombstoning authz_policies row", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return policy.Policy{}, policy.NewStorageError(policy.KindNotFound, "no policy stored at "+h.String(), nil)
	}
	return s.Get(ctx, h)
}

func (s *PolicyStore) Get(ctx context.Context, h hrn.HRN) (policy.Policy, error) {
	var row policyRow
	const q = `
		SELECT hrn, source, revision, description, binding, annotations, tombstoned, tombstoned_at, validated_against_schema_hash
		FROM authz_policies WHERE hrn = $1`
	err := s.db.GetContext(ctx, &row, q, h.String())
	if errors.Is(err, sql.ErrNoRows) {
		return policy.Policy{}, policy.NewStorageError(policy.KindNotFound, "no policy stored at "+h.String(), nil)
	}
	if err != nil {
		return policy.Policy{}, policy.NewStorageError(policy.KindStorage, "loading authz_policies row", err)
	}
	return row.toDomain()
}

func (s *PolicyStore) ListForPrincipal(ctx context.Context, principal hrn.HRN) ([]policy.Policy, error) {
	var rows []policyRow
	const q = `
		SELECT hrn, source, revision, description, binding, annotations, tombstoned, tombstoned_at, validated_against_schema_hash
		FROM authz_policies
		WHERE NOT tombstoned AND (binding = '' OR binding = $1)
		ORDER BY hrn`
	if err := s.db.SelectContext(ctx, &rows, q, principal.String()); err != nil {
		return nil, policy.NewStorageError(policy.KindStorage, "listing authz_policies rows", err)
	}
	out := make([]policy.Policy, 0, len(rows))
	for _, r := range rows {
		p, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// PoliciesFor satisfies policy.PolicyFinder, the narrower read-side port
// the IAM orchestrator depends on.
func (s *PolicyStore) PoliciesFor(ctx context.Context, principal hrn.HRN) ([]policy.Policy, error) {
	return s.ListForPrincipal(ctx, principal)
}
