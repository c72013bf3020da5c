// Package engine wires the loader, validators and conflict detector into
// the three analyses exposed by the command line tools and the HTTP API.
package engine

import (
	"context"
	"os"

	"go.uber.org/zap"

	"kgcheck/internal/conflict"
	"kgcheck/internal/model"
	"kgcheck/internal/report"
	"kgcheck/internal/schema"
	"kgcheck/internal/source"
	"kgcheck/internal/validate"
	"kgcheck/pkg/config"
	"kgcheck/pkg/logger"
)

// Engine runs analyses against one corpus root and one schema.
type Engine struct {
	cfg       *config.Config
	schema    *schema.Schema
	loader    *source.Loader
	validator *validate.Validator
	logger    *zap.Logger
}

// New loads the schema named by cfg. A schema that cannot be read is fatal.
func New(cfg *config.Config) (*Engine, error) {
	s, err := schema.LoadFiles(cfg.EntitySchemaFile(), cfg.RelationshipSchemaFile())
	if err != nil {
		return nil, err
	}
	return NewWithSchema(cfg, s), nil
}

// NewWithSchema builds an engine around an already loaded schema.
func NewWithSchema(cfg *config.Config, s *schema.Schema) *Engine {
	log := logger.Get()
	for _, w := range s.Warnings() {
		log.Warn("Schema warning", zap.String("warning", w))
	}
	log.Debug("Schema loaded",
		zap.Int("entity_types", len(s.EntityNames())),
		zap.Int("relationship_types", len(s.RelationshipLabels())),
	)
	return &Engine{
		cfg:       cfg,
		schema:    s,
		loader:    source.NewLoader(cfg.Workers, cfg.Extension),
		validator: validate.New(s),
		logger:    log,
	}
}

// Schema returns the schema the engine validates against.
func (e *Engine) Schema() *schema.Schema { return e.schema }

// Config returns the engine configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

// CorpusDirs lists the directories that make up the corpus.
func (e *Engine) CorpusDirs() []string {
	return []string{e.cfg.EntitiesPath(), e.cfg.SymbolsPath(), e.cfg.RelationshipsPath()}
}

// ValidatePath runs the syntax and property checks over a file or every
// matching file of a directory.
func (e *Engine) ValidatePath(ctx context.Context, path string) (*report.ValidationReport, error) {
	files, err := e.loader.Resolve(path)
	if err != nil {
		return nil, err
	}
	sources, err := e.loader.Load(ctx, files)
	if err != nil {
		return nil, err
	}

	mode := report.ModeBatch
	if info, statErr := os.Stat(path); statErr == nil && !info.IsDir() {
		mode = report.ModeSingle
	}

	results := make([]model.ValidationResult, 0, len(sources))
	for _, sf := range sources {
		results = append(results, e.validator.Validate(sf))
	}
	r := report.NewValidationReport(mode, results)
	e.logger.Info("Validation complete",
		zap.String("path", path),
		zap.Int("valid", r.Valid),
		zap.Int("invalid", r.Invalid),
	)
	return r, nil
}

// ValidateContent checks text supplied directly rather than read from disk.
func (e *Engine) ValidateContent(path, content string) model.ValidationResult {
	return e.validator.Validate(source.FromContent(path, content))
}

// Consistency checks every file of the entity type's directory whose name
// contains nameFilter. Symbols live in the symbols directory, every other
// type in the entities directory.
func (e *Engine) Consistency(ctx context.Context, entityType, nameFilter string) (*report.ValidationReport, error) {
	dir := e.cfg.EntitiesPath()
	if entityType == model.SymbolType {
		dir = e.cfg.SymbolsPath()
	}
	files, err := e.loader.Discover(dir)
	if err != nil {
		return nil, err
	}
	files = e.loader.FilterByName(files, nameFilter)

	sources, err := e.loader.Load(ctx, files)
	if err != nil {
		return nil, err
	}
	results := make([]model.ValidationResult, 0, len(sources))
	for _, sf := range sources {
		results = append(results, e.validator.Consistency(sf, entityType))
	}

	r := report.NewValidationReport(report.ModeSummary, results)
	r.EntityType = entityType
	e.logger.Info("Consistency check complete",
		zap.String("type", entityType),
		zap.String("filter", nameFilter),
		zap.Int("files", len(results)),
		zap.Int("invalid", r.Invalid),
	)
	return r, nil
}

// Corpus loads every corpus directory and builds the graph model.
func (e *Engine) Corpus(ctx context.Context) (*model.Corpus, error) {
	sources, err := e.loader.LoadDirs(ctx, e.CorpusDirs()...)
	if err != nil {
		return nil, err
	}
	return source.BuildCorpus(sources), nil
}

// Conflicts builds the corpus and runs the conflict rules. symbolsOnly
// restricts the run to the symbol rules; the whole corpus is still loaded so
// CONFLICTS_WITH relationships declared outside the symbols directory count.
func (e *Engine) Conflicts(ctx context.Context, symbolsOnly bool) (*report.ConflictReport, error) {
	c, err := e.Corpus(ctx)
	if err != nil {
		return nil, err
	}
	rules := conflict.DefaultRules()
	if symbolsOnly {
		rules = conflict.SymbolRules()
	}
	findings, err := conflict.NewDetector(rules).Detect(ctx, c)
	if err != nil {
		return nil, err
	}
	return report.NewConflictReport(c, findings, symbolsOnly), nil
}
