package main

import (
	"github.com/sirupsen/logrus"

	"github.com/weberc2/extinspect/pkg/artifact"
	"github.com/weberc2/extinspect/pkg/objectstore"
	"github.com/weberc2/extinspect/pkg/pgartifactstore"
)

// newSink builds the sink for the configured output kind. The returned
// function releases any connection the sink holds.
func newSink(c *Config, logger logrus.FieldLogger) (artifact.Sink, func() error, error) {
	noop := func() error { return nil }
	switch c.Output {
	case OutputS3:
		s3Store, err := objectstore.NewS3ObjectStore(c.S3Options())
		if err != nil {
			return nil, nil, err
		}
		var store objectstore.ObjectStore = s3Store
		if c.Gzip {
			store = &objectstore.GzipObjectStore{ObjectStore: store}
		}
		logger.WithField("bucket", c.Bucket).
			WithField("prefix", c.ImagePrefix()).
			WithField("gzip", c.Gzip).
			Infof("writing artifacts to object storage")
		return &artifact.ObjectStoreSink{
			Store:  store,
			Bucket: c.Bucket,
			Prefix: c.ImagePrefix(),
		}, noop, nil
	case OutputPostgres:
		db, err := pgartifactstore.OpenEnv()
		if err != nil {
			return nil, nil, err
		}
		logger.WithField("table", c.PGTable).
			WithField("image", c.ImagePrefix()).
			Infof("writing artifacts to postgres")
		return &pgartifactstore.PGArtifactStore{
			DB:    db,
			Table: c.PGTable,
			Image: c.ImagePrefix(),
		}, db.Close, nil
	default:
		logger.WithField("root", c.OutputDir).
			Infof("writing artifacts to directory")
		return &artifact.DirSink{Root: c.OutputDir}, noop, nil
	}
}
