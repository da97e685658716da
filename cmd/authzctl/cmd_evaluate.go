package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hodei-sh/authz-core/hrn"
	"github.com/hodei-sh/authz-core/iam"
)

func evaluateCommand() *cli.Command {
	return &cli.Command{
		Name:  "evaluate",
		Usage: "Evaluate whether a principal may take an action on a resource",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "principal", Required: true},
			&cli.StringFlag{Name: "action", Required: true},
			&cli.StringFlag{Name: "resource", Required: true},
		},
		Action: runEvaluate,
	}
}

func runEvaluate(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	principal, err := hrn.Parse(cmd.String("principal"))
	if err != nil {
		return fmt.Errorf("parsing --principal: %w", err)
	}
	resource, err := hrn.Parse(cmd.String("resource"))
	if err != nil {
		return fmt.Errorf("parsing --resource: %w", err)
	}

	decision, err := a.orchestrator.Evaluate(ctx, iam.Request{
		Principal: principal,
		Action:    cmd.String("action"),
		Resource:  resource,
	})
	if err != nil {
		return err
	}
	a.metrics.recordEvaluation(decision)

	if decision.Allowed {
		fmt.Println("ALLOW")
	} else {
		fmt.Println("DENY")
	}
	for _, p := range decision.DeterminingPolicies {
		fmt.Printf("  determined by %s\n", p.String())
	}
	for _, r := range decision.Reasons {
		fmt.Printf("  reason: %s\n", r)
	}
	return nil
}
