package classifier

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/myhostelpal/complaint-service/internal/domain"
	"github.com/myhostelpal/complaint-service/internal/observability"
)

const (
	DefaultCategory = domain.CategoryOther
	DefaultPriority = domain.TicketPriorityMedium
)

// Fallback reasons attached to default results.
const (
	ReasonDisabled         = "classifier disabled"
	ReasonShortDescription = "description too short"
	ReasonModelError       = "model call failed"
	ReasonUnparseable      = "unparseable model reply"
	ReasonUnknownValue     = "model returned an unknown value"
)

// Options tunes model calls.
type Options struct {
	Timeout           time.Duration
	MaxAttempts       int
	RetryDelay        time.Duration
	MinDescriptionLen int
}

// CategoryResult is the outcome of category inference.
type CategoryResult struct {
	Category   domain.TicketCategory
	Confidence float64
	Keywords   []string
	// Default is set when the neutral fallback was used instead of a model answer.
	Default bool
	Reason  string
}

// PriorityResult is the outcome of priority prediction.
type PriorityResult struct {
	Priority   domain.TicketPriority
	Confidence float64
	Reasoning  string
	Default    bool
	Reason     string
}

// Analysis combines both inferences for a complaint.
type Analysis struct {
	Category       CategoryResult
	CategoryManual bool
	Priority       PriorityResult
	Suggestions    []string
}

// ToDomain converts the analysis into the form stored on tickets.
func (a Analysis) ToDomain() domain.AIAnalysis {
	out := domain.AIAnalysis{
		CategoryConfidence: a.Category.Confidence,
		PriorityConfidence: a.Priority.Confidence,
		CategorySource:     domain.SourceAI,
		PrioritySource:     domain.SourceAI,
		Keywords:           append([]string{}, a.Category.Keywords...),
		SuggestedActions:   append([]string{}, a.Suggestions...),
		Reasoning:          a.Priority.Reasoning,
	}
	switch {
	case a.CategoryManual:
		out.CategorySource = domain.SourceManual
	case a.Category.Default:
		out.CategorySource = domain.SourceDefault
	}
	if a.Priority.Default {
		out.PrioritySource = domain.SourceDefault
	}
	return out
}

// Classifier derives category and priority for complaints. It never returns
// an error: every failure degrades to the neutral default.
type Classifier struct {
	completer Completer
	opts      Options
	logger    *zap.Logger
	metrics   *observability.Metrics
	sleep     func(ctx context.Context, d time.Duration) error
}

// New builds a Classifier. A nil completer disables model calls.
func New(completer Completer, opts Options, logger *zap.Logger, metrics *observability.Metrics) *Classifier {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.MinDescriptionLen <= 0 {
		opts.MinDescriptionLen = 10
	}
	return &Classifier{
		completer: completer,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
		sleep:     sleepCtx,
	}
}

// Classify infers the category of a complaint.
func (c *Classifier) Classify(ctx context.Context, title, description string) CategoryResult {
	if reason, skip := c.skip(description); skip {
		return c.defaultCategory(reason)
	}

	raw, err := c.complete(ctx, categoryPrompt(title, description))
	if err != nil {
		c.logger.Warn("category inference failed", zap.Error(err))
		return c.defaultCategory(ReasonModelError)
	}

	var reply categoryReply
	if err := decodeReply(raw, &reply); err != nil {
		c.logger.Warn("unparseable category reply", zap.Error(err), zap.String("raw", raw))
		return c.defaultCategory(ReasonUnparseable)
	}
	category := domain.TicketCategory(strings.ToLower(strings.TrimSpace(reply.Category)))
	if !category.Valid() {
		c.logger.Warn("unknown category from model", zap.String("category", reply.Category), zap.String("raw", raw))
		return c.defaultCategory(ReasonUnknownValue)
	}

	c.metrics.RecordClassification("category", "ok")
	keywords := reply.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return CategoryResult{
		Category:   category,
		Confidence: parseConfidence(reply.Confidence),
		Keywords:   keywords,
	}
}

// PredictPriority infers urgency given an already known category.
func (c *Classifier) PredictPriority(ctx context.Context, title, description string, category domain.TicketCategory) PriorityResult {
	if reason, skip := c.skip(description); skip {
		return c.defaultPriority(reason)
	}

	raw, err := c.complete(ctx, priorityPrompt(title, description, category))
	if err != nil {
		c.logger.Warn("priority prediction failed", zap.Error(err))
		return c.defaultPriority(ReasonModelError)
	}

	var reply priorityReply
	if err := decodeReply(raw, &reply); err != nil {
		c.logger.Warn("unparseable priority reply", zap.Error(err), zap.String("raw", raw))
		return c.defaultPriority(ReasonUnparseable)
	}
	priority := domain.TicketPriority(strings.ToLower(strings.TrimSpace(reply.Priority)))
	if !priority.Valid() {
		c.logger.Warn("unknown priority from model", zap.String("priority", reply.Priority), zap.String("raw", raw))
		return c.defaultPriority(ReasonUnknownValue)
	}

	c.metrics.RecordClassification("priority", "ok")
	return PriorityResult{
		Priority:   priority,
		Confidence: parseConfidence(reply.Confidence),
		Reasoning:  reply.Reasoning,
	}
}

// Analyze runs category inference (unless category is supplied) followed by
// priority prediction. A supplied category is trusted with full confidence.
func (c *Classifier) Analyze(ctx context.Context, title, description string, category *domain.TicketCategory) Analysis {
	var analysis Analysis
	if category != nil {
		analysis.Category = CategoryResult{Category: *category, Confidence: 1, Keywords: []string{}}
		analysis.CategoryManual = true
	} else {
		analysis.Category = c.Classify(ctx, title, description)
	}
	analysis.Priority = c.PredictPriority(ctx, title, description, analysis.Category.Category)
	analysis.Suggestions = []string{}
	return analysis
}

func (c *Classifier) skip(description string) (string, bool) {
	if c.completer == nil {
		return ReasonDisabled, true
	}
	if len([]rune(strings.TrimSpace(description))) < c.opts.MinDescriptionLen {
		return ReasonShortDescription, true
	}
	return "", false
}

func (c *Classifier) defaultCategory(reason string) CategoryResult {
	c.metrics.RecordClassification("category", "default")
	return CategoryResult{
		Category:   DefaultCategory,
		Confidence: neutralConfidence,
		Keywords:   []string{},
		Default:    true,
		Reason:     reason,
	}
}

func (c *Classifier) defaultPriority(reason string) PriorityResult {
	c.metrics.RecordClassification("priority", "default")
	return PriorityResult{
		Priority:   DefaultPriority,
		Confidence: neutralConfidence,
		Reasoning:  "Unable to analyze priority",
		Default:    true,
		Reason:     reason,
	}
}

// complete bounds the call with its own timeout, detached from the caller's
// cancellation, and retries ErrUnavailable with a fixed delay.
func (c *Classifier) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.Timeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		raw, err := c.completer.Complete(ctx, prompt)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !errors.Is(err, ErrUnavailable) || attempt == c.opts.MaxAttempts {
			break
		}
		c.logger.Info("model overloaded, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.opts.MaxAttempts),
			zap.Duration("delay", c.opts.RetryDelay),
		)
		if err := c.sleep(ctx, c.opts.RetryDelay); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
