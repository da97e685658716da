package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Manage the Cedar schema assembled from registered entity and action types",
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Register the demo bounded context's types and (re)build the schema",
				Action: runSchemaBuild,
			},
			{
				Name:   "show",
				Usage:  "Print the currently persisted Cedar schema",
				Action: runSchemaShow,
			},
		},
	}
}

func runSchemaBuild(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	schema, err := a.loadSchema.Execute(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("schema version %s persisted (hash %s)\n", schema.Version, schema.Hash)
	return nil
}

func runSchemaShow(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	schema, err := a.loadSchema.Execute(ctx)
	if err != nil {
		return err
	}
	fmt.Println(schema.Content)
	return nil
}
