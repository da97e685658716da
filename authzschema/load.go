package authzschema

import "context"

// LoadSchema retrieves and parses the most recently persisted schema
// (spec.md §4.4 operation "load_schema"). Policy validation and evaluation
// both depend on this use-case to obtain a current Schema.
type LoadSchema struct {
	loader SchemaLoaderPort
}

// NewLoadSchema binds the use-case to a read-only schema loader.
func NewLoadSchema(loader SchemaLoaderPort) *LoadSchema {
	return &LoadSchema{loader: loader}
}

// Execute loads the latest persisted schema and parses it. Returns
// *LoadSchemaError{Kind: LoadKindUnavailable} if none has ever been
// persisted or the port failed, or {Kind: LoadKindInvalidCedar} if the
// persisted content does not parse as Cedar schema text.
func (uc *LoadSchema) Execute(ctx context.Context) (Schema, error) {
	persisted, err := uc.loader.LoadLatest(ctx)
	if err != nil {
		return Schema{}, &LoadSchemaError{Kind: LoadKindUnavailable, cause: err}
	}
	if persisted == nil {
		return Schema{}, &LoadSchemaError{Kind: LoadKindUnavailable}
	}
	return ParseSchema(persisted.Content, persisted.Hash, persisted.Version)
}
