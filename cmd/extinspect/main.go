package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	pz "github.com/weberc2/httpeasy"

	"github.com/weberc2/extinspect/pkg/inspect"
	"github.com/weberc2/extinspect/pkg/inspectservice"
	"github.com/weberc2/extinspect/pkg/volume"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  appName,
		Usage: "decode the metadata of an ext2/3/4 image",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
			},
			&cli.StringFlag{
				Name:    "image",
				Aliases: []string{"i"},
				Usage:   "path to the filesystem image",
			},
			&cli.StringFlag{Name: "log-level", Usage: "logrus level"},
			&cli.StringFlag{Name: "log-format", Usage: "`text` or `json`"},
			&cli.BoolFlag{
				Name:  "from-superblock",
				Usage: "take the geometry from the superblock",
			},
			&cli.BoolFlag{
				Name:  "validate-magic",
				Usage: "fail when the superblock magic isn't 0xef53",
			},
			&cli.IntFlag{
				Name:  "inode-scan-limit",
				Usage: "inode slots scanned per group (0 scans all)",
			},
		},
		Commands: []*cli.Command{{
			Name:  "dump",
			Usage: "write hex dumps and field tables for every structure",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "`dir`, `s3` or `postgres`",
				},
				&cli.StringFlag{Name: "output-dir", Usage: "output root for `dir`"},
				&cli.StringFlag{Name: "bucket", Usage: "bucket for `s3`"},
				&cli.StringFlag{
					Name:  "prefix",
					Usage: "object key prefix or postgres image name",
				},
				&cli.BoolFlag{Name: "gzip", Usage: "compress objects for `s3`"},
				&cli.IntFlag{
					Name:  "groups",
					Usage: "number of block groups to process (0 processes all)",
				},
				&cli.IntFlag{
					Name:  "parallelism",
					Usage: "block groups decoded concurrently",
				},
			},
			Action: withConfig(dump),
		}, {
			Name:   "superblock",
			Usage:  "print the decoded superblock as JSON",
			Action: withConfig(superblock),
		}, {
			Name:  "serve",
			Usage: "serve the decoded metadata over HTTP",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "addr", Usage: "listen address"},
			},
			Action: withConfig(serve),
		}, pgCommand()},
	}
}

// withConfig loads the layered configuration and the logger before running
// `f`.
func withConfig(
	f func(ctx *cli.Context, c *Config, logger *logrus.Logger) error,
) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		c, err := LoadConfig(ctx.String("config"))
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		applyFlags(ctx, c)
		if err := c.Validate(); err != nil {
			return err
		}
		logger, err := newLogger(c, os.Stderr)
		if err != nil {
			return err
		}
		return f(ctx, c, logger)
	}
}

func applyFlags(ctx *cli.Context, c *Config) {
	for flag, set := range map[string]func(){
		"image":            func() { c.Image = ctx.String("image") },
		"log-level":        func() { c.LogLevel = ctx.String("log-level") },
		"log-format":       func() { c.LogFormat = ctx.String("log-format") },
		"from-superblock":  func() { c.GeometryFromSuperblock = ctx.Bool("from-superblock") },
		"validate-magic":   func() { c.ValidateMagic = ctx.Bool("validate-magic") },
		"inode-scan-limit": func() { c.InodeScanLimit = ctx.Int("inode-scan-limit") },
		"output":           func() { c.Output = ctx.String("output") },
		"output-dir":       func() { c.OutputDir = ctx.String("output-dir") },
		"bucket":           func() { c.Bucket = ctx.String("bucket") },
		"prefix":           func() { c.Prefix = ctx.String("prefix") },
		"gzip":             func() { c.Gzip = ctx.Bool("gzip") },
		"groups":           func() { c.Groups = ctx.Int("groups") },
		"parallelism":      func() { c.Parallelism = ctx.Int("parallelism") },
		"addr":             func() { c.Addr = ctx.String("addr") },
	} {
		if ctx.IsSet(flag) {
			set()
		}
	}
}

func dump(ctx *cli.Context, c *Config, logger *logrus.Logger) error {
	vol, err := volume.OpenFileVolume(c.Image)
	if err != nil {
		return err
	}
	defer vol.Close()

	sink, closeSink, err := newSink(c, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSink(); err != nil {
			logger.Errorf("closing output: %v", err)
		}
	}()

	log := logger.WithField("image", c.Image)
	inspector := inspect.Inspector{
		Volume: vol,
		Sink:   sink,
		Config: c.InspectConfig(),
		Logger: log,
	}
	summary, err := inspector.Run(ctx.Context)
	if err != nil {
		return fmt.Errorf("inspecting image `%s`: %w", c.Image, err)
	}
	log.WithField("groups", len(summary.Groups)).
		WithField("inodes", summary.Inodes()).
		Infof("inspection complete")
	return nil
}

func superblock(ctx *cli.Context, c *Config, logger *logrus.Logger) error {
	vol, err := volume.OpenFileVolume(c.Image)
	if err != nil {
		return err
	}
	defer vol.Close()

	img := inspect.Image{Volume: vol, Config: c.InspectConfig()}
	sb, _, err := img.Superblock()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(sb.Fields, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling superblock to JSON: %w", err)
	}
	if _, err := fmt.Printf("%s\n", data); err != nil {
		return fmt.Errorf("writing JSON to stdout: %w", err)
	}
	return nil
}

func serve(ctx *cli.Context, c *Config, logger *logrus.Logger) error {
	vol, err := volume.OpenFileVolume(c.Image)
	if err != nil {
		return err
	}
	defer vol.Close()

	service := inspectservice.InspectService{
		Image: inspect.Image{Volume: vol, Config: c.InspectConfig()},
	}
	server := http.Server{
		Addr:    c.Addr,
		Handler: pz.Register(pz.JSONLog(os.Stderr), service.Routes()...),
	}
	go func() {
		<-ctx.Context.Done()
		server.Close()
	}()

	logger.WithField("addr", c.Addr).
		WithField("image", c.Image).
		Infof("listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
