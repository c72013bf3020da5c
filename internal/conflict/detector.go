package conflict

import (
	"context"

	"go.uber.org/zap"

	"kgcheck/internal/model"
	kgerrors "kgcheck/pkg/errors"
	"kgcheck/pkg/logger"
)

// Detector runs a fixed list of rules over a corpus.
type Detector struct {
	rules  []Rule
	logger *zap.Logger
}

// NewDetector creates a detector for the given rules. Nil means DefaultRules.
func NewDetector(rules []Rule) *Detector {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Detector{rules: rules, logger: logger.Get()}
}

// Rules returns the registry in run order.
func (d *Detector) Rules() []Rule { return d.rules }

// Detect runs every rule in registry order and concatenates the findings.
// The corpus must be fully built; it is only read.
func (d *Detector) Detect(ctx context.Context, c *model.Corpus) ([]Finding, error) {
	var findings []Finding
	for _, rule := range d.rules {
		if err := ctx.Err(); err != nil {
			return nil, kgerrors.NewContextCancelled("conflict detection", err)
		}
		found := rule.Check(c)
		if len(found) > 0 {
			d.logger.Debug("Rule produced findings",
				zap.String("rule", rule.Name),
				zap.Int("findings", len(found)),
			)
		}
		findings = append(findings, found...)
	}

	d.logger.Info("Conflict detection complete",
		zap.Int("rules", len(d.rules)),
		zap.Int("files", len(c.Files())),
		zap.Int("findings", len(findings)),
	)
	return findings, nil
}
