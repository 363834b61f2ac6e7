// Package classifier suggests a category and priority for a ticket description.
//
// The external model is best-effort: every failure resolves to DefaultSuggestion,
// and Result.Outcome records which path produced the answer.
package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// ErrEmptyDescription is returned when the trimmed description is empty.
var ErrEmptyDescription = errors.New("description required")

// Suggestion is a proposed category and priority. It is never persisted directly.
type Suggestion struct {
	Category domain.TicketCategory `json:"category"`
	Priority domain.TicketPriority `json:"priority"`
}

// DefaultSuggestion is returned whenever classification cannot be trusted.
var DefaultSuggestion = Suggestion{
	Category: domain.TicketCategoryGeneral,
	Priority: domain.TicketPriorityMedium,
}

// Outcome names the path that produced a Result.
type Outcome string

const (
	OutcomeClassified        Outcome = "classified"
	OutcomeCached            Outcome = "cached"
	OutcomeNoCredential      Outcome = "no_credential"
	OutcomeServiceError      Outcome = "service_error"
	OutcomeMalformedResponse Outcome = "malformed_response"
)

// Result carries the suggestion together with how it was obtained.
type Result struct {
	Suggestion Suggestion
	Outcome    Outcome
	// Coerced is set when the service answered with values outside the enums.
	Coerced bool
	// Err holds the cause for service_error and malformed_response.
	Err error
}

// Degraded reports whether the suggestion is the fallback default.
func (r Result) Degraded() bool {
	switch r.Outcome {
	case OutcomeNoCredential, OutcomeServiceError, OutcomeMalformedResponse:
		return true
	default:
		return false
	}
}

// Completer sends a prompt to a text model and returns its raw text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Cache stores successful suggestions keyed by description digest.
type Cache interface {
	Get(ctx context.Context, key string) (Suggestion, bool, error)
	Set(ctx context.Context, key string, suggestion Suggestion, ttl time.Duration) error
}

// Options configures a Classifier. A nil Completer selects the default path.
type Options struct {
	Completer Completer
	Cache     Cache
	CacheTTL  time.Duration
	Timeout   time.Duration
	Logger    *zap.Logger
}

// Classifier runs the classification fallback chain.
type Classifier struct {
	completer Completer
	cache     Cache
	cacheTTL  time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

// New builds a Classifier.
func New(opts Options) *Classifier {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Classifier{
		completer: opts.Completer,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		timeout:   timeout,
		logger:    logger,
	}
}

// NewFromConfig wires the Anthropic completer when an API key is configured.
func NewFromConfig(cfg config.ClassifierConfig, cache Cache, logger *zap.Logger) *Classifier {
	opts := Options{
		Timeout: cfg.Timeout(),
		Logger:  logger,
	}
	if cfg.APIKey != "" {
		opts.Completer = NewAnthropicCompleter(cfg)
		if cache != nil && cfg.CacheTTL() > 0 {
			opts.Cache = cache
			opts.CacheTTL = cfg.CacheTTL()
		}
	}
	return New(opts)
}

// Enabled reports whether an external service is configured.
func (c *Classifier) Enabled() bool {
	return c.completer != nil
}

// Classify returns a suggestion for description. The only error is
// ErrEmptyDescription; service failures degrade to DefaultSuggestion.
func (c *Classifier) Classify(ctx context.Context, description string) (Result, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Result{}, ErrEmptyDescription
	}
	if c.completer == nil {
		return Result{Suggestion: DefaultSuggestion, Outcome: OutcomeNoCredential}, nil
	}

	key := cacheKey(description)
	if cached, ok := c.lookup(ctx, key); ok {
		return Result{Suggestion: cached, Outcome: OutcomeCached}, nil
	}

	result := c.classifyRemote(ctx, description)
	if result.Degraded() {
		c.logger.Warn("classification degraded to default",
			zap.String("outcome", string(result.Outcome)),
			zap.Error(result.Err))
		return result, nil
	}
	if result.Coerced {
		c.logger.Info("classification coerced out-of-enum values",
			zap.String("category", string(result.Suggestion.Category)),
			zap.String("priority", string(result.Suggestion.Priority)))
	}
	c.store(ctx, key, result.Suggestion)
	return result, nil
}

func (c *Classifier) classifyRemote(ctx context.Context, description string) Result {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.completer.Complete(callCtx, BuildPrompt(description))
	if err != nil {
		return Result{Suggestion: DefaultSuggestion, Outcome: OutcomeServiceError, Err: err}
	}

	suggestion, coerced, err := ParseSuggestion(text)
	if err != nil {
		return Result{Suggestion: DefaultSuggestion, Outcome: OutcomeMalformedResponse, Err: err}
	}
	return Result{Suggestion: suggestion, Outcome: OutcomeClassified, Coerced: coerced}
}

func (c *Classifier) lookup(ctx context.Context, key string) (Suggestion, bool) {
	if c.cache == nil || c.cacheTTL <= 0 {
		return Suggestion{}, false
	}
	cached, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Debug("classification cache read failed", zap.Error(err))
		return Suggestion{}, false
	}
	return cached, ok
}

func (c *Classifier) store(ctx context.Context, key string, suggestion Suggestion) {
	if c.cache == nil || c.cacheTTL <= 0 {
		return
	}
	if err := c.cache.Set(ctx, key, suggestion, c.cacheTTL); err != nil {
		c.logger.Debug("classification cache write failed", zap.Error(err))
	}
}

// ParseSuggestion decodes the model reply. Both fields must be present and
// be strings; values outside the enums are coerced and reported via coerced.
func ParseSuggestion(text string) (Suggestion, bool, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return Suggestion{}, false, fmt.Errorf("decode reply: %w", err)
	}

	category, err := stringField(fields, "category")
	if err != nil {
		return Suggestion{}, false, err
	}
	priority, err := stringField(fields, "priority")
	if err != nil {
		return Suggestion{}, false, err
	}

	suggestion := Suggestion{
		Category: domain.TicketCategory(category),
		Priority: domain.TicketPriority(priority),
	}
	coerced := false
	if !suggestion.Category.Valid() {
		suggestion.Category = DefaultSuggestion.Category
		coerced = true
	}
	if !suggestion.Priority.Valid() {
		suggestion.Priority = DefaultSuggestion.Priority
		coerced = true
	}
	return suggestion, coerced, nil
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok || strings.TrimSpace(string(raw)) == "null" {
		return "", fmt.Errorf("reply missing %q", name)
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("reply field %q is not a string: %w", name, err)
	}
	return value, nil
}

func cacheKey(description string) string {
	sum := sha256.Sum256([]byte(description))
	return "classify:" + hex.EncodeToString(sum[:])
}
