package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/weberc2/extinspect/pkg/pgartifactstore"
)

func pgCommand() *cli.Command {
	return &cli.Command{
		Name:  "pg",
		Usage: "manage artifacts stored in postgres",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "image name the artifacts are stored under",
			},
		},
		Subcommands: []*cli.Command{{
			Name:  "table",
			Usage: "manage the artifacts table",
			Subcommands: []*cli.Command{{
				Name:  "ensure",
				Usage: "create the artifacts table if it doesn't exist",
				Action: withStore(func(
					ctx *cli.Context,
					store *pgartifactstore.PGArtifactStore,
				) error {
					return store.EnsureTable(ctx.Context)
				}),
			}, {
				Name:  "drop",
				Usage: "drop the artifacts table",
				Action: withStore(func(
					ctx *cli.Context,
					store *pgartifactstore.PGArtifactStore,
				) error {
					return store.DropTable(ctx.Context)
				}),
			}},
		}, {
			Name:  "list",
			Usage: "list the paths of an image's artifacts",
			Action: withStore(func(
				ctx *cli.Context,
				store *pgartifactstore.PGArtifactStore,
			) error {
				artifacts, err := store.List(ctx.Context)
				if err != nil {
					return err
				}
				for _, a := range artifacts {
					fmt.Printf("%s\t%d\n", a.Path, len(a.Content))
				}
				return nil
			}),
		}, {
			Name:  "get",
			Usage: "print one artifact",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "path",
					Usage:    "artifact path, e.g. `BlockGroup-0/4-Inode-2-Hex.txt`",
					Required: true,
				},
			},
			Action: withStore(func(
				ctx *cli.Context,
				store *pgartifactstore.PGArtifactStore,
			) error {
				content, err := store.Get(ctx.Context, ctx.String("path"))
				if err != nil {
					return err
				}
				if _, err := os.Stdout.Write(content); err != nil {
					return fmt.Errorf("writing artifact to stdout: %w", err)
				}
				return nil
			}),
		}, {
			Name:  "clear",
			Usage: "delete every artifact of an image",
			Action: withStore(func(
				ctx *cli.Context,
				store *pgartifactstore.PGArtifactStore,
			) error {
				return store.ClearImage(ctx.Context)
			}),
		}},
	}
}

// withStore opens the artifacts store from the `PG_*` environment. The image
// name comes from `--prefix` or, failing that, from the configured image.
func withStore(
	f func(*cli.Context, *pgartifactstore.PGArtifactStore) error,
) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		c, err := LoadConfig(ctx.String("config"))
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		applyFlags(ctx, c)
		logger, err := newLogger(c, os.Stderr)
		if err != nil {
			return err
		}

		store := pgartifactstore.PGArtifactStore{
			Table: c.PGTable,
			Image: c.ImagePrefix(),
		}
		if store.Image == "" {
			return fmt.Errorf(
				"missing required configuration: prefix / %s_PREFIX",
				envVarPrefix,
			)
		}

		db, err := pgartifactstore.OpenEnv()
		if err != nil {
			return fmt.Errorf("opening PGArtifactStore: %w", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Errorf("closing postgres connection: %v", err)
			}
		}()
		store.DB = db

		logger.WithFields(logrus.Fields{
			"table": c.PGTable,
			"image": store.Image,
		}).Debugf("running `%s`", ctx.Command.Name)
		return f(ctx, &store)
	}
}
