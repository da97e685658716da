package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/hodei-sh/authz-core/internal/logging"
)

var logger = logging.GetLogger("authzctl")

func main() {
	cmd := &cli.Command{
		Name:  "authzctl",
		Usage: "Operator CLI for the Hodei Artifacts attribute-based authorization core",
		Commands: []*cli.Command{
			schemaCommand(),
			policyCommand(),
			evaluateCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Error("sys", "run", "command failed", "error", err.Error())
		log.Fatal(err)
	}
}
