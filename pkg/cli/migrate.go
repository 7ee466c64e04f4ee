package cli

import (
	"context"

	"github.com/insurdesk/concierge/pkg/cli/config"
	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/insurdesk/concierge/pkg/repository/postgres"
	"github.com/insurdesk/concierge/pkg/utils/logging"
	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var repoCfg config.Repository
	var dryRun bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Preview changes without applying (firestore only)",
			Destination: &dryRun,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Create Firestore indexes or the PostgreSQL schema",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			logger.Info("Migrate configuration",
				"backend", repoCfg.Backend(),
				"projectID", repoCfg.ProjectID(),
				"databaseID", repoCfg.DatabaseID(),
				"dryRun", dryRun)

			switch repoCfg.Backend() {
			case config.BackendFirestore:
				return migrateFirestore(ctx, repoCfg.ProjectID(), repoCfg.DatabaseID(), dryRun)
			case config.BackendPostgres:
				return migratePostgres(ctx, repoCfg.PostgresDSN())
			case config.BackendMemory:
				logger.Info("Memory backend needs no migration")
				return nil
			default:
				return goerr.Wrap(config.ErrInvalidBackend, "invalid repository backend",
					goerr.V(config.BackendKey, repoCfg.Backend()))
			}
		},
	}
}

// defaultFirestoreDatabase is used when --firestore-database-id is empty
const defaultFirestoreDatabase = "(default)"

func migrateFirestore(ctx context.Context, projectID, databaseID string, dryRun bool) error {
	logger := logging.Default()
	if projectID == "" {
		return goerr.Wrap(config.ErrMissingFlag, "firestore-project-id is required",
			goerr.V(config.FlagKey, "firestore-project-id"))
	}
	if databaseID == "" {
		databaseID = defaultFirestoreDatabase
	}

	indexConfig := getIndexConfig()
	if err := indexConfig.Validate(); err != nil {
		return goerr.Wrap(err, "invalid index configuration")
	}

	client, err := fireconf.New(ctx, projectID, databaseID, indexConfig,
		fireconf.WithLogger(logger),
		fireconf.WithDryRun(dryRun),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to create fireconf client")
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close fireconf client", "error", err.Error())
		}
	}()

	if dryRun {
		logger.Info("Dry run mode - previewing changes")
	} else {
		logger.Info("Applying migrations")
	}
	if err := client.Migrate(ctx); err != nil {
		return goerr.Wrap(err, "failed to apply migrations", goerr.V("dryRun", dryRun))
	}
	logger.Info("Migrations completed", "dryRun", dryRun)
	return nil
}

func migratePostgres(ctx context.Context, dsn string) error {
	if dsn == "" {
		return goerr.Wrap(config.ErrMissingFlag, "postgres-dsn is required",
			goerr.V(config.FlagKey, "postgres-dsn"))
	}

	db, err := postgres.New(dsn)
	if err != nil {
		return goerr.Wrap(err, "failed to connect to postgres")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Default().Error("failed to close postgres", "error", err.Error())
		}
	}()

	if err := db.Migrate(ctx); err != nil {
		return goerr.Wrap(err, "failed to migrate postgres")
	}
	logging.Default().Info("PostgreSQL schema applied")
	return nil
}

// getIndexConfig returns the Firestore index configuration for the
// knowledge_entries collection
func getIndexConfig() *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: "knowledge_entries",
				Indexes: []fireconf.Index{
					// List: SourceType ASC, CreatedAt ASC
					{
						Fields: []fireconf.IndexField{
							{Path: "SourceType", Order: fireconf.OrderAscending},
							{Path: "CreatedAt", Order: fireconf.OrderAscending},
						},
					},
					// ListPending: SourceType, Vectorized, ID ASC
					{
						Fields: []fireconf.IndexField{
							{Path: "SourceType", Order: fireconf.OrderAscending},
							{Path: "Vectorized", Order: fireconf.OrderAscending},
							{Path: "ID", Order: fireconf.OrderAscending},
						},
					},
					{
						Fields: []fireconf.IndexField{
							{
								Path: "Embedding",
								Vector: &fireconf.VectorConfig{
									Dimension: model.EmbeddingDimension,
								},
							},
						},
					},
				},
			},
		},
	}
}
