package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"visaletter-backend/models"

	"google.golang.org/api/googleapi"
)

type fakeResponse struct {
	text string
	err  error
}

// fakeCaller answers per model and records every call
type fakeCaller struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     []string
	block     bool
}

func (f *fakeCaller) Call(ctx context.Context, model string, prompt models.Prompt) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, model)
	resp := f.responses[model]
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return resp.text, resp.err
}

func (f *fakeCaller) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testPrompt() models.Prompt {
	return models.Prompt{Blocks: []models.PromptBlock{
		{Role: models.RoleSystem, Text: "system"},
		{Role: models.RoleReference, Text: "reference"},
		{Role: models.RoleUser, Text: "user"},
	}}
}

func TestGeneratePrimarySucceeds(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{responses: map[string]fakeResponse{"primary": {text: "  Dear Officer  "}}}
	client := NewGenerationClient(caller, "primary", "fallback")

	gen, err := client.Generate(context.Background(), testPrompt())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gen.Text != "Dear Officer" || gen.Model != "primary" || gen.FallbackUsed {
		t.Fatalf("unexpected generation: %+v", gen)
	}
	if caller.callCount() != 1 {
		t.Fatalf("expected one call, got %d", caller.callCount())
	}
}

func TestGenerateFallsBackOnce(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{responses: map[string]fakeResponse{
		"primary":  {err: errors.New("overloaded")},
		"fallback": {text: "Letter"},
	}}
	gen, err := NewGenerationClient(caller, "primary", "fallback").Generate(context.Background(), testPrompt())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gen.Model != "fallback" || !gen.FallbackUsed {
		t.Fatalf("unexpected generation: %+v", gen)
	}
}

func TestGenerateBothFail(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{responses: map[string]fakeResponse{
		"primary":  {err: errors.New("overloaded")},
		"fallback": {err: &googleapi.Error{Code: http.StatusTooManyRequests, Message: "quota"}},
	}}
	_, err := NewGenerationClient(caller, "primary", "fallback").Generate(context.Background(), testPrompt())

	var upstreamErr *UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstreamErr.Model != "fallback" || upstreamErr.Status != http.StatusTooManyRequests {
		t.Fatalf("unexpected upstream error: %+v", upstreamErr)
	}
	if caller.callCount() != 2 {
		t.Fatalf("expected exactly two calls, got %d", caller.callCount())
	}
	if ErrorCode(err) != CodeGenerationFailed {
		t.Fatalf("got=%q", ErrorCode(err))
	}
}

func TestGenerateEmptyResult(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{responses: map[string]fakeResponse{
		"primary":  {text: "   "},
		"fallback": {text: "should not be used"},
	}}
	_, err := NewGenerationClient(caller, "primary", "fallback").Generate(context.Background(), testPrompt())
	if !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
	if caller.callCount() != 1 {
		t.Fatalf("empty result must not trigger the fallback")
	}
	if ErrorCode(err) != CodeEmptyGeneration {
		t.Fatalf("got=%q", ErrorCode(err))
	}
}

func TestGenerateTimeout(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{block: true}
	client := NewGenerationClient(caller, "primary", "fallback", GenerationWithTimeout(10*time.Millisecond))

	_, err := client.Generate(context.Background(), testPrompt())
	var upstreamErr *UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstreamErr.Status != http.StatusGatewayTimeout {
		t.Fatalf("got=%d want=%d", upstreamErr.Status, http.StatusGatewayTimeout)
	}
	if caller.callCount() != 2 {
		t.Fatalf("each model gets its own timeout, got %d calls", caller.callCount())
	}
}

func TestGenerateWithoutFallbackModel(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{responses: map[string]fakeResponse{"primary": {err: errors.New("boom")}}}
	_, err := NewGenerationClient(caller, "primary", "").Generate(context.Background(), testPrompt())

	var upstreamErr *UpstreamError
	if !errors.As(err, &upstreamErr) || upstreamErr.Model != "primary" || upstreamErr.Status != 0 {
		t.Fatalf("unexpected error: %v", err)
	}
	if caller.callCount() != 1 {
		t.Fatalf("expected one call")
	}
}

func TestGenerateSkipsFallbackWhenCallerCancelled(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{block: true}
	client := NewGenerationClient(caller, "primary", "fallback")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, testPrompt())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got=%v want=%v", err, context.Canceled)
	}
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		t.Fatalf("cancellation must not be reported as an upstream failure: %v", err)
	}
	if n := caller.callCount(); n != 1 {
		t.Fatalf("got=%d calls want=1", n)
	}
}
