package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"visaletter-backend/logger"
	"visaletter-backend/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
)

// ModelCaller sends a prompt to one named model and returns its text
type ModelCaller interface {
	Call(ctx context.Context, model string, prompt models.Prompt) (string, error)
}

// GeminiCaller implements ModelCaller with the Gemini API.
// The system block becomes the system instruction; the reference and user
// blocks are sent as ordered parts of one user turn.
type GeminiCaller struct {
	client      *genai.Client
	temperature float32
}

// NewGeminiCaller wraps an initialized Gemini client
func NewGeminiCaller(client *genai.Client, temperature float32) *GeminiCaller {
	return &GeminiCaller{client: client, temperature: temperature}
}

// Call runs a single generateContent request
func (g *GeminiCaller) Call(ctx context.Context, modelName string, prompt models.Prompt) (string, error) {
	if g.client == nil {
		return "", errors.New("gemini client not set")
	}

	model := g.client.GenerativeModel(modelName)
	model.SetTemperature(g.temperature)

	var parts []genai.Part
	for _, block := range prompt.Blocks {
		if block.Role == models.RoleSystem {
			model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(block.Text)}}
			continue
		}
		parts = append(parts, genai.Text(block.Text))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return b.String(), nil
}

// Generation is a successful model response
type Generation struct {
	Text         string
	Model        string
	FallbackUsed bool
}

// GenerationClient calls the primary model and, on failure, the fallback
// model exactly once
type GenerationClient struct {
	caller   ModelCaller
	primary  string
	fallback string
	timeout  time.Duration
	logger   *logger.Logger
}

// GenerationClientOption is a functional option for GenerationClient
type GenerationClientOption func(*GenerationClient)

// GenerationWithTimeout bounds each model call
func GenerationWithTimeout(d time.Duration) GenerationClientOption {
	return func(c *GenerationClient) {
		c.timeout = d
	}
}

// GenerationWithLogger sets the logger
func GenerationWithLogger(l *logger.Logger) GenerationClientOption {
	return func(c *GenerationClient) {
		c.logger = l
	}
}

// NewGenerationClient creates a client for the given primary and fallback models
func NewGenerationClient(caller ModelCaller, primary, fallback string, opts ...GenerationClientOption) *GenerationClient {
	c := &GenerationClient{
		caller:   caller,
		primary:  primary,
		fallback: fallback,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate returns the letter text. A primary failure triggers one fallback
// call; a second failure is returned as *UpstreamError. A successful call
// with no text returns ErrEmptyResult without trying the fallback. If ctx is
// done after the primary fails, ctx.Err() is returned and no fallback is made.
func (c *GenerationClient) Generate(ctx context.Context, prompt models.Prompt) (*Generation, error) {
	if c.caller == nil {
		return nil, errors.New("model caller not set")
	}

	text, err := c.call(ctx, c.primary, prompt)
	if err == nil {
		return c.result(text, c.primary, false)
	}

	// The caller is gone; a fallback call could only fail the same way
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	if c.fallback == "" || c.fallback == c.primary {
		return nil, newUpstreamError(c.primary, err)
	}

	c.logger.Warn("primary model failed, trying fallback",
		"model", c.primary,
		"fallback_model", c.fallback,
		"status", upstreamStatus(err),
		"error", err,
	)

	text, err = c.call(ctx, c.fallback, prompt)
	if err != nil {
		return nil, newUpstreamError(c.fallback, err)
	}
	return c.result(text, c.fallback, true)
}

func (c *GenerationClient) call(ctx context.Context, model string, prompt models.Prompt) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.caller.Call(ctx, model, prompt)
}

func (c *GenerationClient) result(text, model string, fallbackUsed bool) (*Generation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w (model %s)", ErrEmptyResult, model)
	}
	return &Generation{Text: text, Model: model, FallbackUsed: fallbackUsed}, nil
}

func newUpstreamError(model string, err error) *UpstreamError {
	return &UpstreamError{Model: model, Status: upstreamStatus(err), Err: err}
}

// upstreamStatus extracts an HTTP status from a Google API error, or 0
func upstreamStatus(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code > 0 {
		return gerr.Code
	}

	if ae, ok := apierror.FromError(err); ok {
		if code := ae.HTTPCode(); code > 0 {
			return code
		}
		if st := ae.GRPCStatus(); st != nil {
			return grpcToHTTP(st.Code())
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return 0
}

func grpcToHTTP(code codes.Code) int {
	switch code {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Internal, codes.Unknown, codes.DataLoss:
		return http.StatusInternalServerError
	}
	return 0
}
