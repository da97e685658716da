package authzschema

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hodei-sh/authz-core/internal/schemabuilder"
	"github.com/hodei-sh/authz-core/kernel"
)

type fakeStorage struct {
	mu      sync.Mutex
	latest  *PersistedSchema
	saveErr error
	loadErr error
	nextID  int
}

func (f *fakeStorage) Save(_ context.Context, content, hash string) (PersistedSchema, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return PersistedSchema{}, f.saveErr
	}
	f.nextID++
	p := PersistedSchema{
		ID:        "schema-" + itoa(f.nextID),
		Content:   content,
		Hash:      hash,
		Version:   "v" + itoa(f.nextID),
		CreatedAt: time.Unix(int64(f.nextID), 0),
	}
	f.latest = &p
	return p, nil
}

func (f *fakeStorage) LoadLatest(_ context.Context) (*PersistedSchema, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.latest, nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

type userDescriptor struct{}

func (userDescriptor) ServiceName() kernel.ServiceName { return "iam" }
func (userDescriptor) TypeName() kernel.TypeName       { return "User" }
func (userDescriptor) AttributesSchema() kernel.AttributeSchema {
	return kernel.AttributeSchema{{Name: "email", Type: kernel.String()}}
}
func (userDescriptor) IsPrincipal() {}

type accountDescriptor struct{}

func (accountDescriptor) ServiceName() kernel.ServiceName          { return "iam" }
func (accountDescriptor) TypeName() kernel.TypeName                { return "Account" }
func (accountDescriptor) AttributesSchema() kernel.AttributeSchema { return nil }
func (accountDescriptor) IsResource()                              {}

type createUserAction struct{}

func (createUserAction) Name() string                    { return "CreateUser" }
func (createUserAction) ServiceName() kernel.ServiceName { return "iam" }
func (createUserAction) AppliesToPrincipal() []kernel.QualifiedTypeName {
	return []kernel.QualifiedTypeName{"Iam::User"}
}
func (createUserAction) AppliesToResource() []kernel.QualifiedTypeName {
	return []kernel.QualifiedTypeName{"Iam::Account"}
}

func registerScenario1(t *testing.T, b *schemabuilder.Builder) {
	t.Helper()
	if err := NewRegisterEntityType(b).Execute(accountDescriptor{}); err != nil {
		t.Fatalf("RegisterEntityType(account): %v", err)
	}
	if err := NewRegisterEntityType(b).Execute(userDescriptor{}); err != nil {
		t.Fatalf("RegisterEntityType(user): %v", err)
	}
	if err := NewRegisterActionType(b).Execute(createUserAction{}); err != nil {
		t.Fatalf("RegisterActionType: %v", err)
	}
}

// TestBuildSchemaScenarioS1 covers spec.md §8 scenario S1: first build of a
// fresh schema persists it and reports entity_count=2, action_count=1,
// was_persisted=true.
func TestBuildSchemaScenarioS1(t *testing.T) {
	b := schemabuilder.New()
	registerScenario1(t, b)
	storage := &fakeStorage{}

	res, err := NewBuildSchema(b, storage).Execute(context.Background())
	if err != nil {
		t.Fatalf("BuildSchema.Execute: %v", err)
	}
	if res.EntityCount != 2 {
		t.Fatalf("EntityCount = %d, want 2", res.EntityCount)
	}
	if res.ActionCount != 1 {
		t.Fatalf("ActionCount = %d, want 1", res.ActionCount)
	}
	if !res.WasPersisted {
		t.Fatalf("expected WasPersisted = true on first build")
	}
	if res.Hash == "" || res.Version == "" {
		t.Fatalf("expected non-empty hash/version, got %+v", res)
	}
}

// TestBuildSchemaScenarioS2 covers spec.md §8 scenario S2: rebuilding the
// identical registration multiset against existing persisted state is a
// no-op write, reporting was_persisted=false with the same hash/version.
func TestBuildSchemaScenarioS2(t *testing.T) {
	storage := &fakeStorage{}

	b1 := schemabuilder.New()
	registerScenario1(t, b1)
	first, err := NewBuildSchema(b1, storage).Execute(context.Background())
	if err != nil {
		t.Fatalf("first BuildSchema.Execute: %v", err)
	}
	if !first.WasPersisted {
		t.Fatalf("expected first build to persist")
	}

	b2 := schemabuilder.New()
	registerScenario1(t, b2)
	second, err := NewBuildSchema(b2, storage).Execute(context.Background())
	if err != nil {
		t.Fatalf("second BuildSchema.Execute: %v", err)
	}
	if second.WasPersisted {
		t.Fatalf("expected second identical build to be a no-op, WasPersisted = true")
	}
	if second.Hash != first.Hash {
		t.Fatalf("hash changed across idempotent rebuild: %q vs %q", first.Hash, second.Hash)
	}
	if second.Version != first.Version {
		t.Fatalf("version changed across idempotent rebuild: %q vs %q", first.Version, second.Version)
	}
}

func TestLoadSchemaRoundTrip(t *testing.T) {
	b := schemabuilder.New()
	registerScenario1(t, b)
	storage := &fakeStorage{}
	built, err := NewBuildSchema(b, storage).Execute(context.Background())
	if err != nil {
		t.Fatalf("BuildSchema.Execute: %v", err)
	}

	loaded, err := NewLoadSchema(storage).Execute(context.Background())
	if err != nil {
		t.Fatalf("LoadSchema.Execute: %v", err)
	}
	if loaded.Hash != built.Hash {
		t.Fatalf("loaded hash %q != built hash %q", loaded.Hash, built.Hash)
	}
	if loaded.Cedar == nil {
		t.Fatalf("expected parsed Cedar schema")
	}
}

func TestLoadSchemaUnavailableWhenNeverPersisted(t *testing.T) {
	storage := &fakeStorage{}
	_, err := NewLoadSchema(storage).Execute(context.Background())
	if err == nil {
		t.Fatalf("expected error when no schema has ever been persisted")
	}
	var lse *LoadSchemaError
	if e, ok := err.(*LoadSchemaError); ok {
		lse = e
	}
	if lse == nil || lse.Kind != LoadKindUnavailable {
		t.Fatalf("expected LoadKindUnavailable, got %v", err)
	}
}

func TestSchemaHasActionAndEntityType(t *testing.T) {
	b := schemabuilder.New()
	registerScenario1(t, b)
	storage := &fakeStorage{}
	if _, err := NewBuildSchema(b, storage).Execute(context.Background()); err != nil {
		t.Fatalf("BuildSchema.Execute: %v", err)
	}

	schema, err := NewLoadSchema(storage).Execute(context.Background())
	if err != nil {
		t.Fatalf("LoadSchema.Execute: %v", err)
	}

	if !schema.HasAction("CreateUser") {
		t.Fatalf("expected HasAction(CreateUser) to be true against %s", schema.Content)
	}
	if schema.HasAction("FrobnicateWidgets") {
		t.Fatalf("expected HasAction(FrobnicateWidgets) to be false")
	}

	// Entities are declared bare inside their owning namespace, so both the
	// bare and namespace-qualified spellings of a known type must resolve.
	if !schema.HasEntityType("User") {
		t.Fatalf("expected HasEntityType(User) to be true against %s", schema.Content)
	}
	if !schema.HasEntityType("Iam::User") {
		t.Fatalf("expected HasEntityType(Iam::User) to be true against %s", schema.Content)
	}
	if schema.HasEntityType("Widget") {
		t.Fatalf("expected HasEntityType(Widget) to be false")
	}
}
