package authzschema

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/hodei-sh/authz-core/internal/schemabuilder"
)

// BuildSchemaResult reports the outcome of a BuildSchema.Execute call
// (spec.md §4.4 operation "build_schema").
type BuildSchemaResult struct {
	PersistedSchema
	EntityCount   int
	ActionCount   int
	WasPersisted bool
}

// BuildSchema assembles the registrations accumulated in a
// *schemabuilder.Builder into a canonical Cedar schema, hashes it, and
// persists it through a SchemaStoragePort — idempotently.
type BuildSchema struct {
	builder *schemabuilder.Builder
	storage SchemaStoragePort
}

// NewBuildSchema binds the use-case to the in-progress builder and the
// storage port it persists through.
func NewBuildSchema(b *schemabuilder.Builder, storage SchemaStoragePort) *BuildSchema {
	return &BuildSchema{builder: b, storage: storage}
}

// Execute runs the five-step algorithm from spec.md §4.4:
//  1. Consume the builder, producing canonical schema content. Any
//     *schemabuilder.Error propagates wrapped as *BuildSchemaError{Kind:
//     BuildKindSchema}.
//  2. Hash the canonical content with SHA-256 (lowercase hex).
//  3. Load the latest persisted schema, if any.
//  4. If its hash matches the freshly computed one, return without writing
//     — WasPersisted is false and the returned record is the existing one
//     (spec.md §8 scenario S2).
//  5. Otherwise persist the new content and return it with WasPersisted
//     true (spec.md §8 scenario S1).
func (uc *BuildSchema) Execute(ctx context.Context) (BuildSchemaResult, error) {
	res, err := uc.builder.BuildSchema()
	if err != nil {
		return BuildSchemaResult{}, schemaErr(err)
	}

	sum := sha256.Sum256([]byte(res.Content))
	hash := hex.EncodeToString(sum[:])

	existing, err := uc.storage.LoadLatest(ctx)
	if err != nil {
		return BuildSchemaResult{}, storageErr(err)
	}
	if existing != nil && existing.Hash == hash {
		return BuildSchemaResult{
			PersistedSchema: *existing,
			EntityCount:     res.EntityCount,
			ActionCount:     res.ActionCount,
			WasPersisted:    false,
		}, nil
	}

	persisted, err := uc.storage.Save(ctx, res.Content, hash)
	if err != nil {
		return BuildSchemaResult{}, storageErr(err)
	}
	return BuildSchemaResult{
		PersistedSchema: persisted,
		EntityCount:     res.EntityCount,
		ActionCount:     res.ActionCount,
		WasPersisted:    true,
	}, nil
}
