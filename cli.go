package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// Applicator defines the interface for the core application logic.
// This allows the CLI to be tested independently of the main app implementation.
type Applicator interface {
	Serve(ctx context.Context, cfgPath string) error
	Export(ctx context.Context, cfgPath, outPath string, keyFocusOnly bool, serviceType string) error
}

// BuildCLI creates the full CLI command structure for the application.
// It injects the core application logic (the Applicator) into the command actions.
func BuildCLI(app Applicator) *cli.Command {

	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   "config.yaml",
		Usage:   "path to the configuration file",
	}

	serveCmd := &cli.Command{
		Name:  "serve",
		Usage: "Run the delivery analysis dashboard web server",
		Flags: []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Serve(ctx, c.String("config"))
		},
	}

	exportCmd := &cli.Command{
		Name:  "export",
		Usage: "Write the analysis to an xlsx workbook",
		Flags: []cli.Flag{
			configFlag,
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Value:   "delivery-analysis.xlsx",
				Usage:   "path of the workbook to write",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "include all deals, not just the key focus subset",
			},
			&cli.StringFlag{
				Name:    "service",
				Aliases: []string{"s"},
				Value:   "All",
				Usage:   "constrain the export to one service type",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Export(ctx, c.String("config"), c.String("out"), !c.Bool("all"), c.String("service"))
		},
	}

	rootCmd := &cli.Command{
		Name:     "cntxt-delivery-analysis",
		Usage:    "Presales delivery / partner quote comparison dashboard",
		Commands: []*cli.Command{serveCmd, exportCmd},
	}

	return rootCmd
}
