package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/weberc2/extinspect/pkg/inspect"
	"github.com/weberc2/extinspect/pkg/objectstore"
)

const (
	envVarPrefix = "EXTINSPECT"
	appName      = "extinspect"
)

const (
	OutputDir      = "dir"
	OutputS3       = "s3"
	OutputPostgres = "postgres"
)

// Config is layered: defaults, then the YAML file, then `EXTINSPECT_*`
// environment variables, then command-line flags.
type Config struct {
	Image string `envconfig:"IMAGE" yaml:"image"`

	Output    string `envconfig:"OUTPUT"     yaml:"output"`
	OutputDir string `envconfig:"OUTPUT_DIR" yaml:"outputDir"`

	// Prefix names the image in object keys and postgres rows. It defaults
	// to a slug of the image file name.
	Prefix      string `envconfig:"PREFIX"        yaml:"prefix"`
	Bucket      string `envconfig:"BUCKET"        yaml:"bucket"`
	Gzip        bool   `envconfig:"GZIP"          yaml:"gzip"`
	S3Region    string `envconfig:"S3_REGION"     yaml:"s3Region"`
	S3Endpoint  string `envconfig:"S3_ENDPOINT"   yaml:"s3Endpoint"`
	S3PathStyle bool   `envconfig:"S3_PATH_STYLE" yaml:"s3PathStyle"`
	PGTable     string `envconfig:"PG_TABLE"      yaml:"pgTable"`

	Addr      string `envconfig:"ADDR"       yaml:"addr"`
	LogLevel  string `envconfig:"LOG_LEVEL"  yaml:"logLevel"`
	LogFormat string `envconfig:"LOG_FORMAT" yaml:"logFormat"`

	ImageSize              uint64 `envconfig:"IMAGE_SIZE"               yaml:"imageSize"`
	BlockSize              uint64 `envconfig:"BLOCK_SIZE"               yaml:"blockSize"`
	GroupCount             int    `envconfig:"GROUP_COUNT"              yaml:"groupCount"`
	InodeRatio             uint64 `envconfig:"INODE_RATIO"              yaml:"inodeRatio"`
	InodeSize              uint64 `envconfig:"INODE_SIZE"               yaml:"inodeSize"`
	DescriptorSize         uint64 `envconfig:"DESCRIPTOR_SIZE"          yaml:"descriptorSize"`
	Groups                 int    `envconfig:"GROUPS"                   yaml:"groups"`
	InodeScanLimit         int    `envconfig:"INODE_SCAN_LIMIT"         yaml:"inodeScanLimit"`
	Parallelism            int    `envconfig:"PARALLELISM"              yaml:"parallelism"`
	GeometryFromSuperblock bool   `envconfig:"GEOMETRY_FROM_SUPERBLOCK" yaml:"geometryFromSuperblock"`
	ValidateMagic          bool   `envconfig:"VALIDATE_MAGIC"           yaml:"validateMagic"`
}

// DefaultConfig matches the layout of the images produced by the reference
// `mkfs.ext4` invocation.
func DefaultConfig() Config {
	ic := inspect.DefaultConfig()
	return Config{
		Output:         OutputDir,
		OutputDir:      "outputs",
		Addr:           "127.0.0.1:8080",
		LogLevel:       "info",
		LogFormat:      "text",
		PGTable:        "artifacts",
		ImageSize:      ic.ImageSize,
		BlockSize:      ic.BlockSize,
		GroupCount:     ic.GroupCount,
		InodeRatio:     ic.InodeRatio,
		InodeSize:      ic.InodeSize,
		DescriptorSize: ic.DescriptorSize,
		InodeScanLimit: ic.InodeScanLimit,
		Parallelism:    ic.Parallelism,
	}
}

// configFile picks the YAML file: `explicit` if set, then
// `EXTINSPECT_CONFIG_FILE`, then `~/.config/extinspect.yaml`.
func configFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if file := os.Getenv(envVarPrefix + "_CONFIG_FILE"); file != "" {
		return file
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName+".yaml")
}

// LoadConfig applies the config file and the environment on top of the
// defaults. A missing file is only an error when named explicitly.
func LoadConfig(explicit string) (*Config, error) {
	c := DefaultConfig()
	if file := configFile(explicit); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			if explicit != "" || !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := yaml.UnmarshalStrict(data, &c); err != nil {
			return nil, fmt.Errorf(
				"unmarshaling config file `%s`: %w",
				file,
				err,
			)
		}
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}

	return &c, nil
}

func (c *Config) Validate() error {
	if y, e := func() (string, string) {
		if c.Image == "" {
			return "image", "IMAGE"
		}
		if c.Output == OutputDir && c.OutputDir == "" {
			return "outputDir", "OUTPUT_DIR"
		}
		if c.Output == OutputS3 && c.Bucket == "" {
			return "bucket", "BUCKET"
		}
		return "", ""
	}(); y != "" {
		return fmt.Errorf(
			"missing required configuration: %s / %s_%s",
			y,
			envVarPrefix,
			e,
		)
	}

	switch c.Output {
	case OutputDir, OutputS3, OutputPostgres:
	default:
		return fmt.Errorf(
			"invalid configuration: output: wanted one of `%s`, `%s`, `%s`; "+
				"found `%s`",
			OutputDir,
			OutputS3,
			OutputPostgres,
			c.Output,
		)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf(
			"invalid configuration: logFormat: wanted `text` or `json`; "+
				"found `%s`",
			c.LogFormat,
		)
	}
	return nil
}

// ImagePrefix is Prefix, or a slug of the image file name without its
// extension.
func (c *Config) ImagePrefix() string {
	if c.Prefix != "" {
		return c.Prefix
	}
	base := filepath.Base(c.Image)
	return slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
}

func (c *Config) InspectConfig() inspect.Config {
	return inspect.Config{
		ImageSize:              c.ImageSize,
		BlockSize:              c.BlockSize,
		GroupCount:             c.GroupCount,
		InodeRatio:             c.InodeRatio,
		InodeSize:              c.InodeSize,
		DescriptorSize:         c.DescriptorSize,
		Groups:                 c.Groups,
		InodeScanLimit:         c.InodeScanLimit,
		Parallelism:            c.Parallelism,
		GeometryFromSuperblock: c.GeometryFromSuperblock,
		ValidateMagic:          c.ValidateMagic,
	}
}

func (c *Config) S3Options() objectstore.S3Options {
	return objectstore.S3Options{
		Region:    c.S3Region,
		Endpoint:  c.S3Endpoint,
		PathStyle: c.S3PathStyle,
	}
}
