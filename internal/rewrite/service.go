// Package rewrite asks a language model to rewrite a card and turns its
// reply back into structured content.
package rewrite

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hpungsan/deck/internal/config"
	"github.com/hpungsan/deck/internal/errors"
	"github.com/hpungsan/deck/internal/logger"
)

// Result is a parsed suggestion plus its diff against the current card.
type Result struct {
	Suggestion Suggestion `json:"suggestion"`
	Diff       string     `json:"diff"`
}

// Service validates, rate limits and dispatches rewrite requests.
type Service struct {
	gen     Generator
	limiter *Limiter
	cfg     config.RewriteConfig
	log     *logger.Logger
}

// NewService wires a generator to the configured limits.
func NewService(gen Generator, cfg config.RewriteConfig, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		gen:     gen,
		limiter: NewLimiter(cfg.RequestsPerMinute),
		cfg:     cfg,
		log:     log,
	}
}

// NewClaudeService builds a Service backed by the Anthropic API using the
// key named in cfg.APIKeyEnv.
func NewClaudeService(cfg config.RewriteConfig, log *logger.Logger) *Service {
	gen := &Claude{
		APIKey:     cfg.APIKey(),
		Model:      cfg.Model,
		Endpoint:   cfg.Endpoint,
		MaxTokens:  cfg.MaxTokens,
		MaxRetries: cfg.MaxRetries,
		Client:     &http.Client{Timeout: 60 * time.Second},
	}
	return NewService(gen, cfg, log)
}

// Rewrite runs one request end to end. Validation failures and model
// refusals are PROMPT_REJECTED, local throttling is RATE_LIMITED, and any
// upstream failure is REWRITE_UNAVAILABLE (retryable).
func (s *Service) Rewrite(ctx context.Context, req Request) (*Result, error) {
	if err := Validate(req.Prompt, s.cfg); err != nil {
		return nil, err
	}

	if !s.limiter.Allow() {
		wait := s.limiter.RetryAfter().Round(time.Second)
		return nil, errors.NewRateLimited(fmt.Sprintf("too many rewrite requests; try again in %s", wait))
	}

	s.log.RewriteRequested(req.CardID, len([]rune(req.Prompt)))
	raw, err := s.gen.Generate(ctx, req)
	if err != nil {
		s.log.RewriteFailed(req.CardID, err)
		if stderrors.Is(err, context.Canceled) {
			return nil, errors.NewCancelled("rewrite")
		}
		var dErr *errors.DeckError
		if stderrors.As(err, &dErr) {
			return nil, dErr
		}
		return nil, errors.NewRewriteUnavailable(err)
	}

	sug, err := ParseReply(raw, req.Title)
	if err != nil {
		s.log.RewriteFailed(req.CardID, err)
		return nil, err
	}

	return &Result{
		Suggestion: sug,
		Diff:       DiffCards(req.Title, req.Text, sug.Title, sug.Text),
	}, nil
}
