package service

import (
	"context"
	"errors"
	"time"

	"visaletter-backend/assets"
	"visaletter-backend/logger"
	"visaletter-backend/models"

	"github.com/google/uuid"
)

// Generator produces letter text from a composed prompt
type Generator interface {
	Generate(ctx context.Context, prompt models.Prompt) (*Generation, error)
}

// GenerationLogWriter persists generation metadata
type GenerationLogWriter interface {
	Create(ctx context.Context, entry *models.GenerationLog) error
}

// LetterService turns raw intake into a generated cover letter
type LetterService struct {
	assets     *assets.State
	normalizer *Normalizer
	classifier *Classifier
	composer   *Composer
	generator  Generator
	logs       GenerationLogWriter
	logger     *logger.Logger
	now        func() time.Time
}

// LetterServiceOption is a functional option for LetterService
type LetterServiceOption func(*LetterService)

// LetterWithAssets sets the asset state loaded at startup
func LetterWithAssets(state *assets.State) LetterServiceOption {
	return func(s *LetterService) {
		s.assets = state
	}
}

// LetterWithNormalizer sets the intake normalizer
func LetterWithNormalizer(n *Normalizer) LetterServiceOption {
	return func(s *LetterService) {
		s.normalizer = n
	}
}

// LetterWithClassifier sets the scenario classifier
func LetterWithClassifier(c *Classifier) LetterServiceOption {
	return func(s *LetterService) {
		s.classifier = c
	}
}

// LetterWithComposer sets the prompt composer
func LetterWithComposer(c *Composer) LetterServiceOption {
	return func(s *LetterService) {
		s.composer = c
	}
}

// LetterWithGenerator sets the generation backend
func LetterWithGenerator(g Generator) LetterServiceOption {
	return func(s *LetterService) {
		s.generator = g
	}
}

// LetterWithGenerationLog sets the optional generation log writer
func LetterWithGenerationLog(w GenerationLogWriter) LetterServiceOption {
	return func(s *LetterService) {
		s.logs = w
	}
}

// LetterWithLogger sets the logger
func LetterWithLogger(l *logger.Logger) LetterServiceOption {
	return func(s *LetterService) {
		s.logger = l
	}
}

// NewLetterService creates a new letter service
func NewLetterService(opts ...LetterServiceOption) *LetterService {
	s := &LetterService{
		logger: logger.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateLetterRequest represents a request to generate a letter
type GenerateLetterRequest struct {
	RequestID string
	Fields    map[string]any
}

// GenerateLetterResult represents a generated letter
type GenerateLetterResult struct {
	Letter       string
	Model        string
	FallbackUsed bool
	Flags        models.ScenarioFlags
}

// PreviewPromptResult is the composed prompt without a model call
type PreviewPromptResult struct {
	Prompt    models.Prompt
	Facts     []string
	Flags     models.ScenarioFlags
	Rationale []string
}

// preparedLetter is everything computed before the model call
type preparedLetter struct {
	bundle    *assets.Bundle
	flags     models.ScenarioFlags
	facts     []string
	rationale []string
	prompt    models.Prompt
}

// GenerateLetter validates intake, builds the prompt and calls the model.
// Asset and validation failures return before any model call.
func (s *LetterService) GenerateLetter(ctx context.Context, req GenerateLetterRequest) (*GenerateLetterResult, error) {
	if s.generator == nil {
		return nil, errors.New("generator not set")
	}

	started := s.now()
	entry := &models.GenerationLog{
		ID:        uuid.New(),
		RequestID: req.RequestID,
		Status:    models.GenerationRejected,
		Scenarios: models.ScenarioList{},
	}

	prepared, err := s.prepare(req.RequestID, req.Fields)
	if err != nil {
		s.record(ctx, entry, started, err)
		return nil, err
	}

	entry.Scenarios = models.ScenarioList(prepared.flags.Active())
	entry.AssetFingerprint = &prepared.bundle.Fingerprint
	entry.PromptChars = prepared.prompt.Len()

	generation, err := s.generator.Generate(ctx, prepared.prompt)
	if err != nil {
		entry.Status = models.GenerationFailed
		var upstreamErr *UpstreamError
		if errors.As(err, &upstreamErr) {
			entry.Model = &upstreamErr.Model
		}
		s.record(ctx, entry, started, err)
		return nil, err
	}

	entry.Status = models.GenerationCompleted
	entry.Model = &generation.Model
	entry.FallbackUsed = generation.FallbackUsed
	s.record(ctx, entry, started, nil)

	return &GenerateLetterResult{
		Letter:       generation.Text,
		Model:        generation.Model,
		FallbackUsed: generation.FallbackUsed,
		Flags:        prepared.flags,
	}, nil
}

// PreviewPrompt runs every step of GenerateLetter except the model call
func (s *LetterService) PreviewPrompt(ctx context.Context, req GenerateLetterRequest) (*PreviewPromptResult, error) {
	prepared, err := s.prepare(req.RequestID, req.Fields)
	if err != nil {
		return nil, err
	}
	return &PreviewPromptResult{
		Prompt:    prepared.prompt,
		Facts:     prepared.facts,
		Flags:     prepared.flags,
		Rationale: prepared.rationale,
	}, nil
}

func (s *LetterService) prepare(requestID string, fields map[string]any) (*preparedLetter, error) {
	if s.normalizer == nil {
		return nil, errors.New("normalizer not set")
	}
	if s.classifier == nil {
		return nil, errors.New("classifier not set")
	}
	if s.composer == nil {
		return nil, errors.New("composer not set")
	}

	// 1. Policy assets must be loaded
	bundle, err := s.assets.Bundle()
	if err != nil {
		return nil, err
	}

	// 2. Normalize and validate intake
	payload, err := s.normalizer.Normalize(fields)
	if err != nil {
		return nil, err
	}

	// 3. Classify; rule errors degrade to false flags
	flags, err := s.classifier.Classify(payload)
	if err != nil {
		s.logger.Warn("scenario rule evaluation failed", "request_id", requestID, "error", err)
	}

	// 4. Facts, rationale and prompt
	facts := BuildFactSheet(payload, flags)
	rationale := BuildRationale(payload, flags)
	prompt := s.composer.Compose(ComposeInput{
		Facts:     facts,
		Flags:     flags,
		Bundle:    bundle,
		Rationale: rationale,
	})

	return &preparedLetter{
		bundle:    bundle,
		flags:     flags,
		facts:     facts,
		rationale: rationale,
		prompt:    prompt,
	}, nil
}

// record writes the generation log entry. Failures are logged, never returned.
func (s *LetterService) record(ctx context.Context, entry *models.GenerationLog, started time.Time, err error) {
	entry.DurationMs = s.now().Sub(started).Milliseconds()
	if code := ErrorCode(err); code != "" {
		entry.ErrorCode = &code
	}

	s.logger.Info("letter generation finished",
		"request_id", entry.RequestID,
		"status", entry.Status,
		"scenarios", entry.Scenarios,
		"fallback_used", entry.FallbackUsed,
		"error_code", entry.ErrorCode,
		"duration_ms", entry.DurationMs,
	)

	if s.logs == nil {
		return
	}
	// The request context may already be cancelled
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if werr := s.logs.Create(writeCtx, entry); werr != nil {
		s.logger.Warn("failed to write generation log", "request_id", entry.RequestID, "error", werr)
	}
}
