package service

import (
	"context"
	"log/slog"

	"sitebot/internal/client/nlu"
	"sitebot/internal/model"
)

// ConfidenceThreshold is the score an intent must exceed to be trusted.
const ConfidenceThreshold = 0.95

// NLU is the hosted intent classifier.
type NLU interface {
	Query(ctx context.Context, text string) (nlu.TopIntent, error)
}

// IntentClassifier applies the confidence policy to NLU results.
type IntentClassifier struct {
	nlu    NLU
	logger *slog.Logger
}

// NewIntentClassifier creates a classifier backed by n.
func NewIntentClassifier(n NLU, logger *slog.Logger) *IntentClassifier {
	return &IntentClassifier{nlu: n, logger: logger}
}

// Classify returns the accepted intent for text, or the fallback result
// (empty name, zero confidence). It never fails: service errors are logged
// and degrade to the fallback. One attempt, no retry.
func (c *IntentClassifier) Classify(ctx context.Context, text string) model.IntentResult {
	top, err := c.nlu.Query(ctx, text)
	if err != nil {
		c.logger.Warn("intent classification failed, using fallback", "err", err)
		return model.IntentResult{}
	}
	if top.Score > ConfidenceThreshold {
		return model.IntentResult{Name: top.Intent, Confidence: top.Score}
	}
	c.logger.Debug("intent below confidence threshold",
		"intent", top.Intent, "score", top.Score, "threshold", ConfidenceThreshold)
	return model.IntentResult{}
}
