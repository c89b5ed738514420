package cmd

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/emrgen/contentstore/internal/blob"
	"github.com/emrgen/contentstore/internal/cache"
	"github.com/emrgen/contentstore/internal/compress"
	"github.com/emrgen/contentstore/internal/config"
	"github.com/emrgen/contentstore/internal/extract"
	"github.com/emrgen/contentstore/internal/gc"
	"github.com/emrgen/contentstore/internal/hashindex"
	"github.com/emrgen/contentstore/internal/service"
	"github.com/emrgen/contentstore/internal/stats"
	"github.com/emrgen/contentstore/internal/store"
	"github.com/emrgen/contentstore/internal/upload"
)

// env wires the application components from the loaded configuration.
type env struct {
	cfg      *config.Config
	store    store.Store
	blobs    *blob.Store
	index    hashindex.Index
	contents *service.ContentService
	uploads  *upload.Service
	gc       *gc.Collector
	stats    *stats.Reporter
}

func newEnv() *env {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("error loading config: %v", err)
	}

	db := config.GetDB(cfg)
	docStore := store.NewGormStore(db)
	if err := docStore.Migrate(); err != nil {
		logrus.Fatalf("error migrating database: %v", err)
	}

	var blobs *blob.Store
	switch cfg.Storage.Backend {
	case "s3":
		blobs, err = blob.NewS3Store(context.Background(), blob.S3Options{
			Bucket:   cfg.Storage.Bucket,
			Prefix:   cfg.Storage.Prefix,
			Region:   cfg.Storage.Region,
			Endpoint: cfg.Storage.Endpoint,
		})
	default:
		blobs, err = blob.NewFSStore(cfg.Storage.Root)
	}
	if err != nil {
		logrus.Fatalf("error opening storage: %v", err)
	}

	var index hashindex.Index
	switch cfg.HashIndex.Backend {
	case "badger":
		index, err = hashindex.NewBadgerIndex(cfg.HashIndex.BadgerPath)
		if err != nil {
			logrus.Fatalf("error opening hash index: %v", err)
		}
	default:
		index = hashindex.NewDBIndex(docStore)
	}

	var c cache.Cache = cache.NewNop()
	if cfg.Redis.Addr != "" {
		c = cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	}

	extractor := extract.New(cfg.Extract.MaxDepth)
	collector := gc.NewCollector(docStore, blobs, extractor)
	compressor := compress.ForName(cfg.Compression)

	return &env{
		cfg:      cfg,
		store:    docStore,
		blobs:    blobs,
		index:    index,
		contents: service.NewContentService(compressor, docStore, c, collector),
		uploads: upload.NewService(blobs, index, upload.Options{
			MaxSize:      cfg.Upload.MaxSize,
			AllowedTypes: cfg.Upload.AllowedTypes,
		}),
		gc:    collector,
		stats: stats.NewReporter(docStore, blobs, extractor, c),
	}
}

func (e *env) Close() {
	if err := e.index.Close(); err != nil {
		logrus.Errorf("error closing hash index: %v", err)
	}
}
