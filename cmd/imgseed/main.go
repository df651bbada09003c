// Command imgseed prepares and populates an imgdex catalog.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/imgdex/internal/bootstrap"
	"github.com/kailas-cloud/imgdex/internal/config"
	dombatch "github.com/kailas-cloud/imgdex/internal/domain/batch"
	logpkg "github.com/kailas-cloud/imgdex/internal/logger"
	batchuc "github.com/kailas-cloud/imgdex/internal/usecase/batch"
	describeuc "github.com/kailas-cloud/imgdex/internal/usecase/describe"
	"github.com/kailas-cloud/imgdex/internal/version"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "imgseed:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "imgseed",
		Usage:   "Prepare and populate an imgdex catalog",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "Config environment (config/<env>.yaml)",
				EnvVars: []string{"ENV"},
				Value:   "local",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Overall command timeout",
				Value: 5 * time.Minute,
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "index",
				Usage:  "Create the catalog search index (redis) or schema (postgres)",
				Action: indexCommand,
			},
			{
				Name:   "load",
				Usage:  "Import images and metadata from a YAML fixture",
				Action: loadCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the YAML fixture",
						Required: true,
					},
				},
			},
			{
				Name:   "describe",
				Usage:  "Generate AI metadata for one image or backfill recent images",
				Action: describeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Describe a single image",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Regenerate even when fresh metadata exists (with --id)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of recent images to scan when backfilling",
						Value: 100,
					},
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove images and their metadata",
				ArgsUsage: "<id> [<id>...]",
				Action:    removeCommand,
			},
		},
	}
}

// env bundles what every command needs.
type env struct {
	cfg    config.Config
	logger *zap.Logger
	stores *bootstrap.Stores
}

func setup(c *cli.Context) (context.Context, context.CancelFunc, *env, error) {
	cfg, err := config.Load(c.String("env"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(c.String("env"), "imgseed", c.String("log-level"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create logger: %w", err)
	}

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	stores, err := bootstrap.OpenStores(ctx, &cfg, logger)
	if err != nil {
		cancel()
		return nil, nil, nil, fmt.Errorf("open catalog: %w", err)
	}

	done := func() {
		stores.Close()
		_ = logger.Sync()
		cancel()
	}
	return ctx, done, &env{cfg: cfg, logger: logger, stores: stores}, nil
}

func indexCommand(c *cli.Context) error {
	ctx, done, e, err := setup(c)
	if err != nil {
		return err
	}
	defer done()

	if err := e.stores.Prepare(ctx); err != nil {
		return fmt.Errorf("prepare catalog: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "catalog prepared (driver %s)\n", e.cfg.Catalog.Driver)
	return nil
}

func loadCommand(c *cli.Context) error {
	batch, err := loadFixture(c.String("file"), time.Now())
	if err != nil {
		return err
	}

	ctx, done, e, err := setup(c)
	if err != nil {
		return err
	}
	defer done()

	if err := e.stores.Prepare(ctx); err != nil {
		return fmt.Errorf("prepare catalog: %w", err)
	}
	results := e.batch().Import(ctx, batch.Records, batch.Metadata)
	sum := reportResults(c, results)

	e.logger.Info("Fixture loaded",
		zap.String("file", c.String("file")),
		zap.Int("ok", sum.OK),
		zap.Int("failed", sum.Failed),
	)
	fmt.Fprintf(c.App.Writer, "loaded %d images, %d failed\n", sum.OK, sum.Failed)
	if sum.Failed > 0 {
		return fmt.Errorf("%d items failed", sum.Failed)
	}
	return nil
}

func describeCommand(c *cli.Context) error {
	ctx, done, e, err := setup(c)
	if err != nil {
		return err
	}
	defer done()

	describer := bootstrap.BuildDescriber(ctx, e.cfg.Describer, e.stores.KV, e.logger)
	if describer == nil {
		return errors.New("no describer configured (describer.provider)")
	}
	staleAfter := time.Duration(e.cfg.Describer.StaleAfterDays) * 24 * time.Hour
	svc := describeuc.New(e.stores.Reader, e.stores.Writer, describer, staleAfter, e.logger)

	if id := c.String("id"); id != "" {
		out, err := svc.Describe(ctx, id, c.Bool("force"))
		if err != nil {
			return fmt.Errorf("describe %s: %w", id, err)
		}
		fmt.Fprintf(c.App.Writer, "%s: scene=%q generated=%t\n", id, out.Metadata.Scene, out.Generated)
		return nil
	}

	n, err := svc.Backfill(ctx, c.Int("limit"))
	fmt.Fprintf(c.App.Writer, "described %d images\n", n)
	if err != nil {
		return fmt.Errorf("backfill: %w", err)
	}
	return nil
}

func removeCommand(c *cli.Context) error {
	ids := c.Args().Slice()
	if len(ids) == 0 {
		return errors.New("at least one image id is required")
	}

	ctx, done, e, err := setup(c)
	if err != nil {
		return err
	}
	defer done()

	sum := reportResults(c, e.batch().Remove(ctx, ids))
	fmt.Fprintf(c.App.Writer, "removed %d images, %d failed\n", sum.OK, sum.Failed)
	if sum.Failed > 0 {
		return fmt.Errorf("%d removals failed", sum.Failed)
	}
	return nil
}

func (e *env) batch() *batchuc.Service {
	svc := batchuc.New(e.stores.Catalog, e.stores.Writer, e.stores.Catalog, e.logger)
	if e.stores.Cache != nil {
		svc = svc.WithCache(e.stores.Cache)
	}
	return svc
}

// reportResults prints every failed item and returns the tally.
func reportResults(c *cli.Context, results []dombatch.Result) dombatch.Summary {
	for _, r := range dombatch.Failed(results) {
		fmt.Fprintf(c.App.ErrWriter, "  %s: %v\n", r.ID(), r.Err())
	}
	return dombatch.Summarize(results)
}
