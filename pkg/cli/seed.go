package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/insurdesk/concierge/pkg/service/corpus"
	"github.com/insurdesk/concierge/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdSeed() *cli.Command {
	var rtCfg runtimeConfig
	var sourceType string
	var location string
	var replace bool

	flags := []cli.Flag{
		sourceTypeFlag(&sourceType),
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "FAQ document, a local path or gs://bucket/object",
			Required:    true,
			Sources:     cli.EnvVars("CONCIERGE_SEED_FILE"),
			Destination: &location,
		},
		&cli.BoolFlag{
			Name:        "replace",
			Usage:       "Delete existing entries of the source type before seeding",
			Destination: &replace,
		},
	}
	flags = append(flags, rtCfg.Flags()...)

	return &cli.Command{
		Name:  "seed",
		Usage: "Load a numbered FAQ document as unvectorized knowledge entries",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := rtCfg.build(ctx, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			st, err := pickSourceType(sourceType, rt.app.SourceType())
			if err != nil {
				return err
			}

			r, err := corpus.Open(ctx, location)
			if err != nil {
				return goerr.Wrap(err, "failed to open FAQ document")
			}
			defer func() {
				if err := r.Close(); err != nil {
					logging.Default().Warn("failed to close FAQ document", "error", err)
				}
			}()

			result, err := rt.uc.Knowledge.SeedFAQ(ctx, st, r, replace)
			if err != nil {
				return goerr.Wrap(err, "failed to seed FAQ", goerr.V("location", location))
			}

			_, _ = successColor.Fprintf(os.Stdout, "Seeded %s from %s\n", st, location)
			_, _ = fmt.Fprintf(os.Stdout, "  parsed:  %d\n  created: %d\n  skipped: %d\n  deleted: %d\n",
				result.Parsed, result.Created, result.Skipped, result.Deleted)
			return nil
		},
	}
}
