package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/insurdesk/concierge/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
	failureColor = color.New(color.FgRed, color.Bold)
)

// sourceTypeFlag overrides the configured default source type
func sourceTypeFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "source-type",
		Aliases:     []string{"t"},
		Usage:       "Source type to operate on (defaults to indexing.source_type of the config)",
		Sources:     cli.EnvVars("CONCIERGE_SOURCE_TYPE"),
		Destination: dst,
	}
}

func pickSourceType(flag string, fallback types.SourceType) (types.SourceType, error) {
	st := fallback
	if flag != "" {
		st = types.SourceType(flag)
	}
	if err := st.Validate(); err != nil {
		return "", goerr.Wrap(err, "invalid source type")
	}
	return st, nil
}

func printStatus(w io.Writer, st types.SourceType, status *model.IndexStatus) {
	_, _ = headerColor.Fprintf(w, "Index status (%s)\n", st)
	_, _ = fmt.Fprintf(w, "  total:        %d\n", status.Total)
	_, _ = fmt.Fprintf(w, "  vectorized:   %d\n", status.Vectorized)
	_, _ = fmt.Fprintf(w, "  unvectorized: %d\n", status.Unvectorized)
}

func printResult(w io.Writer, result *model.IndexResult) {
	if result.Success {
		_, _ = successColor.Fprintf(w, "Indexed %d entries\n", result.Processed)
		return
	}
	_, _ = failureColor.Fprintf(w, "Indexing failed for %d entries\n", result.Failed)
	for _, e := range result.Errors {
		_, _ = fmt.Fprintf(w, "  - %s\n", e)
	}
}

func cmdIndex() *cli.Command {
	var rtCfg runtimeConfig
	var sourceType string

	flags := append([]cli.Flag{sourceTypeFlag(&sourceType)}, rtCfg.Flags()...)

	return &cli.Command{
		Name:    "index",
		Aliases: []string{"vectorize"},
		Usage:   "Embed every pending knowledge entry of a source type",
		Flags:   flags,
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

			var w io.Writer = os.Stdout
			before, err := rt.uc.Indexing.Status(ctx, st)
			if err != nil {
				return goerr.Wrap(err, "failed to get index status")
			}
			printStatus(w, st, before)

			result := rt.uc.Indexing.Run(ctx, st)
			printResult(w, result)

			after, err := rt.uc.Indexing.Status(ctx, st)
			if err != nil {
				return goerr.Wrap(err, "failed to get index status")
			}
			printStatus(w, st, after)

			if !result.Success {
				return goerr.New("indexing failed",
					goerr.V("source_type", st.String()),
					goerr.V("errors", result.Errors))
			}
			return nil
		},
	}
}

func cmdStatus() *cli.Command {
	var rtCfg runtimeConfig
	var sourceType string

	flags := append([]cli.Flag{sourceTypeFlag(&sourceType)}, rtCfg.Flags()...)

	return &cli.Command{
		Name:  "status",
		Usage: "Show how many knowledge entries are vectorized",
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

			status, err := rt.uc.Indexing.Status(ctx, st)
			if err != nil {
				return goerr.Wrap(err, "failed to get index status")
			}
			printStatus(os.Stdout, st, status)
			return nil
		},
	}
}
