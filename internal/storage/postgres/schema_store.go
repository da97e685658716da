package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/hodei-sh/authz-core/authzschema"
)

// SchemaStore is a *sqlx.DB-backed authzschema.SchemaStoragePort. Versions
// are assigned as a monotonically increasing decimal count of rows already
// persisted, matching internal/storage/memory's sequential scheme so the
// two adapters are interchangeable from a caller's point of view.
type SchemaStore struct {
	db *sqlx.DB
}

// NewSchemaStore wraps an already-migrated *sqlx.DB.
func NewSchemaStore(db *sqlx.DB) *SchemaStore {
	return &SchemaStore{db: db}
}

// schemaRow mirrors authzschema.PersistedSchema with sqlx column tags; the
// snake_case created_at column does not match sqlx's default field mapper
// for an embedded stdlib-named field, so rows are scanned here and then
// converted.
type schemaRow struct {
	ID        string    `db:"id"`
	Content   string    `db:"content"`
	Hash      string    `db:"hash"`
	Version   string    `db:"version"`
	CreatedAt time.Time `db:"created_at"`
}

func (r schemaRow) toDomain() authzschema.PersistedSchema {
	return authzschema.PersistedSchema{
		ID:        r.ID,
		Content:   r.Content,
		Hash:      r.Hash,
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
	}
}

func (s *SchemaStore) Save(ctx context.Context, content, hash string) (authzschema.PersistedSchema, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT count(*) FROM authz_schemas`); err != nil {
		return authzschema.PersistedSchema{}, errors.Wrap(err, "counting authz_schemas")
	}

	row := schemaRow{
		ID:      uuid.NewString(),
		Content: content,
		Hash:    hash,
		Version: itoa(count + 1),
	}
	const q = `
		INSERT INTO authz_schemas (id, content, hash, version)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`
	if err := s.db.GetContext(ctx, &row.CreatedAt, q, row.ID, row.Content, row.Hash, row.Version); err != nil {
		return authzschema.PersistedSchema{}, errors.Wrap(err, "inserting authz_schemas row")
	}
	return row.toDomain(), nil
}

func (s *SchemaStore) LoadLatest(ctx context.Context) (*authzschema.PersistedSchema, error) {
	var row schemaRow
	const q = `
		SELECT id, content, hash, version, created_at
		FROM authz_schemas
		ORDER BY created_at DESC
		LIMIT 1`
	err := s.db.GetContext(ctx, &row, q)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading latest authz_schemas row")
	}
	domain := row.toDomain()
	return &domain, nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
