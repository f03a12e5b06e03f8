package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"visaletter-backend/assets"
	"visaletter-backend/config"
	"visaletter-backend/middleware"
	"visaletter-backend/models"
	"visaletter-backend/service"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubGenerator struct {
	gen   *service.Generation
	err   error
	calls int
}

func (s *stubGenerator) Generate(ctx context.Context, prompt models.Prompt) (*service.Generation, error) {
	s.calls++
	return s.gen, s.err
}

func handlerBundle() *assets.Bundle {
	return &assets.Bundle{
		MasterRules:      "rules",
		StructureGuide:   "guide",
		QualityChecklist: "checklist",
		MasterTemplate:   "template",
		MiniTemplates:    []assets.Document{{Name: "refusal.txt", Content: "refusal"}},
		Samples:          []assets.Document{{Name: "one.txt", Content: "sample"}},
		Fingerprint:      "f00d",
		Location:         "/policy",
	}
}

func newTestRouter(t *testing.T, state *assets.State, gen service.Generator) *gin.Engine {
	t.Helper()

	cfg := config.Default()
	classifier, err := service.NewClassifier(nil)
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	letterService := service.NewLetterService(
		service.LetterWithAssets(state),
		service.LetterWithNormalizer(service.NewNormalizer(cfg.Intake.DefaultCompanyName, cfg.Intake.DefaultFunding, classifier.Sponsored)),
		service.LetterWithClassifier(classifier),
		service.LetterWithComposer(service.NewComposer(cfg.Prompt, cfg.Currency)),
		service.LetterWithGenerator(gen),
	)

	letterHandler := NewLetterHandler(letterService, nil)
	assetHandler := NewAssetHandler(state)

	r := gin.New()
	r.Use(middleware.RequestID())
	api := r.Group("/api")
	api.GET("/assets/status", assetHandler.Status)
	api.POST("/letters", letterHandler.GenerateLetter)
	api.POST("/letters/preview", letterHandler.PreviewPrompt)
	return r
}

func validIntake() map[string]any {
	return map[string]any{
		"name":        "Ada Obi",
		"age":         29,
		"nationality": "Nigerian",
		"destination": "UK",
		"visaType":    "Tourist",
		"purpose":     "Holiday",
		"income":      "₦450,000",
	}
}

type envelope struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Error   struct {
		Code          string   `json:"code"`
		Message       string   `json:"message"`
		Detail        string   `json:"detail"`
		MissingFields []string `json:"missing_fields"`
		MissingAssets []string `json:"missing_assets"`
	} `json:"error"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return w, env
}

func TestGenerateLetterSuccess(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{gen: &service.Generation{Text: "Dear Visa Officer", Model: "gemini-2.5-pro"}}
	r := newTestRouter(t, assets.Ready(handlerBundle()), gen)

	w, env := doJSON(t, r, http.MethodPost, "/api/letters", validIntake())
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("got=%d body=%s", w.Code, w.Body.String())
	}
	if env.Data["letter"] != "Dear Visa Officer" {
		t.Fatalf("got=%v", env.Data["letter"])
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Fatalf("request id header missing")
	}
}

func TestGenerateLetterValidationFailure(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{}
	r := newTestRouter(t, assets.Ready(handlerBundle()), gen)

	body := validIntake()
	body["funding"] = "sponsor"
	delete(body, "age")

	w, env := doJSON(t, r, http.MethodPost, "/api/letters", body)
	if w.Code != http.StatusBadRequest || env.Error.Code != service.CodeValidationFailed {
		t.Fatalf("got=%d body=%s", w.Code, w.Body.String())
	}
	want := []string{"age", "sponsorName", "sponsorRelationship"}
	if len(env.Error.MissingFields) != len(want) {
		t.Fatalf("got=%v want=%v", env.Error.MissingFields, want)
	}
	for i := range want {
		if env.Error.MissingFields[i] != want[i] {
			t.Fatalf("got=%v want=%v", env.Error.MissingFields, want)
		}
	}
	if gen.calls != 0 {
		t.Fatalf("generator must not be called")
	}
}

func TestGenerateLetterInvalidBody(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, assets.Ready(handlerBundle()), &stubGenerator{})

	w, env := doJSON(t, r, http.MethodPost, "/api/letters", `["not", "an", "object"]`)
	if w.Code != http.StatusBadRequest || env.Error.Code != service.CodeInvalidRequest {
		t.Fatalf("got=%d body=%s", w.Code, w.Body.String())
	}
}

func TestGenerateLetterUpstreamStatusMirrored(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{err: &service.UpstreamError{Model: "gemini-2.5-flash", Status: http.StatusTooManyRequests, Err: errors.New("quota exceeded")}}
	r := newTestRouter(t, assets.Ready(handlerBundle()), gen)

	w, env := doJSON(t, r, http.MethodPost, "/api/letters", validIntake())
	if w.Code != http.StatusTooManyRequests || env.Error.Code != service.CodeGenerationFailed {
		t.Fatalf("got=%d body=%s", w.Code, w.Body.String())
	}
	if env.Error.Detail != "quota exceeded" {
		t.Fatalf("got=%q", env.Error.Detail)
	}
}

func TestGenerateLetterUpstreamWithoutStatus(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{err: &service.UpstreamError{Model: "m", Err: errors.New("connection reset")}}
	r := newTestRouter(t, assets.Ready(handlerBundle()), gen)

	w, _ := doJSON(t, r, http.MethodPost, "/api/letters", validIntake())
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("got=%d want=%d", w.Code, http.StatusInternalServerError)
	}
}

func TestGenerateLetterEmptyResult(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{err: service.ErrEmptyResult}
	r := newTestRouter(t, assets.Ready(handlerBundle()), gen)

	w, env := doJSON(t, r, http.MethodPost, "/api/letters", validIntake())
	if w.Code != http.StatusBadGateway || env.Error.Code != service.CodeEmptyGeneration {
		t.Fatalf("got=%d body=%s", w.Code, w.Body.String())
	}
}

func TestDegradedAssets(t *testing.T) {
	t.Parallel()

	state := assets.Degraded(&assets.ConfigurationError{Missing: []string{"mini_templates", "samples"}})
	r := newTestRouter(t, state, &stubGenerator{})

	w, env := doJSON(t, r, http.MethodPost, "/api/letters", validIntake())
	if w.Code != http.StatusServiceUnavailable || env.Error.Code != service.CodeAssetsMissing {
		t.Fatalf("got=%d body=%s", w.Code, w.Body.String())
	}
	if len(env.Error.MissingAssets) != 2 || env.Error.MissingAssets[0] != "mini_templates" {
		t.Fatalf("got=%v", env.Error.MissingAssets)
	}

	w, env = doJSON(t, r, http.MethodGet, "/api/assets/status", nil)
	if w.Code != http.StatusServiceUnavailable || len(env.Error.MissingAssets) != 2 {
		t.Fatalf("got=%d body=%s", w.Code, w.Body.String())
	}
}

func TestAssetStatusReady(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, assets.Ready(handlerBundle()), &stubGenerator{})

	w, env := doJSON(t, r, http.MethodGet, "/api/assets/status", nil)
	if w.Code != http.StatusOK || env.Data["fingerprint"] != "f00d" {
		t.Fatalf("got=%d body=%s", w.Code, w.Body.String())
	}
}

func TestPreviewPrompt(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{}
	r := newTestRouter(t, assets.Ready(handlerBundle()), gen)

	w, env := doJSON(t, r, http.MethodPost, "/api/letters/preview", validIntake())
	if w.Code != http.StatusOK {
		t.Fatalf("got=%d body=%s", w.Code, w.Body.String())
	}
	facts, ok := env.Data["facts"].([]any)
	if !ok || len(facts) != 8 || facts[1] != "Age: 29" {
		t.Fatalf("unexpected facts: %v", env.Data["facts"])
	}
	if gen.calls != 0 {
		t.Fatalf("preview must not call the generator")
	}
}
