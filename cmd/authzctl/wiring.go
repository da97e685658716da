package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hodei-sh/authz-core/authzschema"
	"github.com/hodei-sh/authz-core/evaluator"
	"github.com/hodei-sh/authz-core/hrn"
	"github.com/hodei-sh/authz-core/iam"
	"github.com/hodei-sh/authz-core/internal/schemabuilder"
	"github.com/hodei-sh/authz-core/internal/storage/memory"
	"github.com/hodei-sh/authz-core/internal/storage/postgres"
	"github.com/hodei-sh/authz-core/policy"
	"github.com/hodei-sh/authz-core/pkg/config"
)

// app bundles every use-case a subcommand needs, assembled once at process
// startup from whichever storage adapter config selects. It is the
// composition root's output — the only place in this binary that wires
// concrete adapters to the core's ports (spec.md §1's hexagonal boundary).
type app struct {
	db *sqlx.DB

	registerEntity *authzschema.RegisterEntityType
	registerAction *authzschema.RegisterActionType
	buildSchema    *authzschema.BuildSchema
	loadSchema     *authzschema.LoadSchema

	createPolicy *policy.CreatePolicy
	updatePolicy *policy.UpdatePolicy
	deletePolicy *policy.DeletePolicy
	getPolicy    *policy.GetPolicy
	listPolicies *policy.ListPoliciesForPrincipal

	orchestrator *iam.IamPolicyEvaluator
	entities     *memory.EntityStore
	metrics      *demoMetrics
}

// newApp wires the demo bounded context and every core use-case against
// the storage backend config.GetBackend selects.
func newApp(ctx context.Context) (*app, error) {
	config.Init()
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	// policyAdapter is the intersection of the two policy-side ports every
	// storage adapter in this module satisfies; the composition root needs
	// both (CRUD for the policy subcommands, the narrower read-only finder
	// for the IAM orchestrator) from a single concrete instance.
	type policyAdapter interface {
		policy.PolicyStoragePort
		policy.PolicyFinder
	}

	var (
		schemaStorage authzschema.SchemaStoragePort
		policyStorage policyAdapter
		db            *sqlx.DB
	)

	switch backend := config.GetBackend(); backend {
	case config.BackendPostgres:
		dsn := config.VConfig.GetString(config.StorageDSN)
		if dsn == "" {
			return nil, fmt.Errorf("storage.dsn must be set when storage.backend is %q", backend)
		}
		opened, err := postgres.Open(dsn)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		if err := postgres.Migrate(opened); err != nil {
			return nil, fmt.Errorf("migrating postgres: %w", err)
		}
		db = opened
		schemaStorage = postgres.NewSchemaStore(opened)
		policyStorage = postgres.NewPolicyStore(opened)
	case config.BackendMemory:
		schemaStorage = memory.NewSchemaStore()
		policyStorage = memory.NewPolicyStore()
	default:
		return nil, fmt.Errorf("unknown storage.backend %q", backend)
	}

	builder := schemabuilder.New()
	registerEntity := authzschema.NewRegisterEntityType(builder)
	registerAction := authzschema.NewRegisterActionType(builder)
	buildSchema := authzschema.NewBuildSchema(builder, schemaStorage)
	loadSchema := authzschema.NewLoadSchema(schemaStorage)

	partition := config.VConfig.GetString(config.HrnPartition)
	service := config.VConfig.GetString(config.HrnService)
	account := config.VConfig.GetString(config.HrnAccount)

	a := &app{
		db:             db,
		registerEntity: registerEntity,
		registerAction: registerAction,
		buildSchema:    buildSchema,
		loadSchema:     loadSchema,
		createPolicy:   policy.NewCreatePolicy(policyStorage, loadSchema, partition, service, account),
		updatePolicy:   policy.NewUpdatePolicy(policyStorage, loadSchema),
		deletePolicy:   policy.NewDeletePolicy(policyStorage),
		getPolicy:      policy.NewGetPolicy(policyStorage),
		listPolicies:   policy.NewListPoliciesForPrincipal(policyStorage),
		entities:       memory.NewEntityStore(),
		metrics:        newDemoMetrics(config.VConfig.GetBool(config.MetricsEnabled)),
	}

	evaluatePolicies := evaluator.NewCedarAdapter(loadSchema)
	maxDepth := config.VConfig.GetInt(config.IamMaxParentDepth)
	a.orchestrator = iam.New(loadSchema, a.entities, a.entities, a.entities, policyStorage, evaluatePolicies, iam.WithMaxParentDepth(maxDepth))

	if err := a.bootstrapDemo(ctx, partition, service, account); err != nil {
		return nil, fmt.Errorf("bootstrapping demo schema/entities: %w", err)
	}

	return a, nil
}

// bootstrapDemo registers the demo bounded context's types, builds the
// schema if needed, and seeds a handful of entities so `evaluate` has
// something to resolve against out of the box.
func (a *app) bootstrapDemo(ctx context.Context, partition, service, account string) error {
	entities, actions := demoDescriptors()
	for _, d := range entities {
		if err := a.registerEntity.Execute(d); err != nil {
			return err
		}
	}
	for _, act := range actions {
		if err := a.registerAction.Execute(act); err != nil {
			return err
		}
	}
	result, err := a.buildSchema.Execute(ctx)
	if err != nil {
		return err
	}
	a.metrics.recordSchemaBuild(result.EntityCount, result.ActionCount)

	group, err := hrn.New(partition, service, "", account, "Iam::Group", "engineering")
	if err != nil {
		return err
	}
	user, err := hrn.New(partition, service, "", account, "Iam::User", "alice")
	if err != nil {
		return err
	}
	acct, err := hrn.New(partition, service, "", account, "Iam::Account", account)
	if err != nil {
		return err
	}

	a.entities.Put(memoryEntity(group, "Iam::Group", nil, nil))
	a.entities.Put(memoryEntity(user, "Iam::User", map[string]string{"email": "alice@example.com", "status": "active"}, []hrn.HRN{group}))
	a.entities.Put(memoryEntity(acct, "Iam::Account", map[string]string{"name": account}, nil))

	return nil
}

func (a *app) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
