package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/contract-extractor/internal/common"
	"github.com/joseph-ayodele/contract-extractor/internal/document"
	"github.com/joseph-ayodele/contract-extractor/internal/extract"
	"github.com/joseph-ayodele/contract-extractor/internal/logger"
	"github.com/joseph-ayodele/contract-extractor/internal/pipeline"
	"github.com/joseph-ayodele/contract-extractor/internal/repository"
	"github.com/joseph-ayodele/contract-extractor/internal/storage"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *common.Config
	logger     *slog.Logger
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads .env (when present), then defaults, the config file
// and the environment.
func (c *commandContext) ensureConfig() (*common.Config, error) {
	c.configOnce.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			c.configErr = common.NewAppError("CONFIG_ERROR", "load .env", err)
			return
		}
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := common.LoadConfig(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.logger = logger.Init(cfg.Log)
	})
	return c.config, c.configErr
}

// validConfig is ensureConfig plus the checks commands that touch
// storage need.
func (c *commandContext) validConfig() (*common.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *commandContext) parseStage(cfg *common.Config) *pipeline.ParseStage {
	parser := document.New(cfg.Parser, c.logger)
	extractor := extract.NewExtractor(
		extract.WithVersion(cfg.Extraction.ExtractorVersion),
		extract.WithLogger(c.logger),
	)
	return pipeline.NewParseStage(parser, extractor, cfg.Extraction.PenaltyFactor, c.logger)
}

// openLedger returns nil when no ledger DSN is configured.
func (c *commandContext) openLedger(ctx context.Context, cfg *common.Config) (*repository.DB, repository.ExtractionJobRepository, error) {
	if strings.TrimSpace(cfg.Ledger.DSN) == "" {
		return nil, nil, nil
	}
	db, err := repository.Open(ctx, cfg.Ledger.DSN, c.logger)
	if err != nil {
		return nil, nil, err
	}
	return db, repository.NewExtractionJobRepository(db, nil, c.logger), nil
}

// newProcessor wires storage, parser, extractor and ledger. The returned
// func releases the ledger.
func (c *commandContext) newProcessor(ctx context.Context, cfg *common.Config, store storage.ObjectStore) (*pipeline.Processor, func(), error) {
	if store == nil {
		var err error
		store, err = storage.New(cfg.Storage, c.logger)
		if err != nil {
			return nil, nil, err
		}
	}
	db, jobs, err := c.openLedger(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	var opts []pipeline.Option
	if jobs != nil {
		opts = append(opts, pipeline.WithLedger(jobs))
	}
	proc := pipeline.NewProcessor(pipeline.ConfigFrom(cfg), store, c.parseStage(cfg), c.logger, opts...)
	return proc, func() { db.Close() }, nil
}
