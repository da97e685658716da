package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/hodei-sh/authz-core/hrn"
)

func policyCommand() *cli.Command {
	return &cli.Command{
		Name:  "policy",
		Usage: "Create, inspect, and remove Cedar policies",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a new policy from a Cedar source file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Cedar policy source file, or '-' for stdin", Required: true},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Human-readable description"},
					&cli.StringFlag{Name: "binding", Aliases: []string{"b"}, Usage: "Principal HRN this policy is scoped to; empty binds to all principals"},
				},
				Action: runPolicyCreate,
			},
			{
				Name:  "get",
				Usage: "Show a single policy by HRN",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "hrn", Required: true},
				},
				Action: runPolicyGet,
			},
			{
				Name:  "update",
				Usage: "Replace a policy's source, creating a new revision",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "hrn", Required: true},
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Cedar policy source file, or '-' for stdin", Required: true},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}},
				},
				Action: runPolicyUpdate,
			},
			{
				Name:  "delete",
				Usage: "Tombstone a policy",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "hrn", Required: true},
				},
				Action: runPolicyDelete,
			},
			{
				Name:  "list",
				Usage: "List non-tombstoned policies bound to a principal",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "principal", Required: true},
				},
				Action: runPolicyList,
			},
		},
	}
}

func readSource(file string) (string, error) {
	if file == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(file) // #nosec G304 -- CLI tool intentionally reads operator-provided paths
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", file, err)
	}
	return string(data), nil
}

func runPolicyCreate(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	source, err := readSource(cmd.String("file"))
	if err != nil {
		return err
	}

	p, err := a.createPolicy.Execute(ctx, source, cmd.String("description"), cmd.String("binding"))
	if err != nil {
		return err
	}
	fmt.Printf("created %s (revision %d)\n", p.HRN.String(), p.Revision)
	return nil
}

func runPolicyGet(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	h, err := hrn.Parse(cmd.String("hrn"))
	if err != nil {
		return err
	}
	p, err := a.getPolicy.Execute(ctx, h)
	if err != nil {
		return err
	}
	fmt.Printf("%s (revision %d, tombstoned=%v)\n%s\n", p.HRN.String(), p.Revision, p.Tombstoned, p.Source)
	return nil
}

func runPolicyUpdate(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	h, err := hrn.Parse(cmd.String("hrn"))
	if err != nil {
		return err
	}
	source, err := readSource(cmd.String("file"))
	if err != nil {
		return err
	}
	p, err := a.updatePolicy.Execute(ctx, h, source, cmd.String("description"))
	if err != nil {
		return err
	}
	fmt.Printf("updated %s to revision %d\n", p.HRN.String(), p.Revision)
	return nil
}

func runPolicyDelete(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	h, err := hrn.Parse(cmd.String("hrn"))
	if err != nil {
		return err
	}
	p, err := a.deletePolicy.Execute(ctx, h)
	if err != nil {
		return err
	}
	fmt.Printf("tombstoned %s\n", p.HRN.String())
	return nil
}

func runPolicyList(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	principal, err := hrn.Parse(cmd.String("principal"))
	if err != nil {
		return err
	}
	policies, err := a.listPolicies.Execute(ctx, principal)
	if err != nil {
		return err
	}
	for _, p := range policies {
		fmt.Printf("%s (revision %d)\n", p.HRN.String(), p.Revision)
	}
	return nil
}
