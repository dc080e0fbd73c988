package httpapi

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"artistry/internal/domain"
	"artistry/internal/http/handlers"
	"artistry/internal/imagegen"
	"artistry/internal/infra"
	"artistry/internal/workflow"
)

type stubWorkflow struct {
	submitted []workflow.SubmitRequest
	submitErr error
	jobs      map[string]*domain.Job
	enhanced  []workflow.EnhancedRequest
	result    *domain.WorkflowResult
	runErr    error
}

func (s *stubWorkflow) Submit(ctx context.Context, req workflow.SubmitRequest) (string, error) {
	if s.submitErr != nil {
		return "", s.submitErr
	}
	s.submitted = append(s.submitted, req)
	return "job-1", nil
}

func (s *stubWorkflow) GetStatus(ctx context.Context, jobID string) (*domain.Job, error) {
	if s.jobs == nil {
		return nil, fmt.Errorf("status: %w", domain.ErrConfigurationMissing)
	}
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

func (s *stubWorkflow) RunEnhanced(ctx context.Context, req workflow.EnhancedRequest) (*domain.WorkflowResult, error) {
	s.enhanced = append(s.enhanced, req)
	if s.runErr != nil {
		return nil, s.runErr
	}
	return s.result, nil
}

type stubSessions struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	updates  int
}

func newStubSessions() *stubSessions {
	return &stubSessions{sessions: map[string]*domain.Session{}}
}

func (s *stubSessions) Create(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *stubSessions) Update(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return domain.ErrNotFound
	}
	s.updates++
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *stubSessions) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *session
	return &cp, nil
}

type stubGenerator struct {
	req imagegen.BudgetRequest
	err error
}

func (g *stubGenerator) Generate(ctx context.Context, req imagegen.BudgetRequest) (*domain.GenerationResult, error) {
	g.req = req
	if g.err != nil {
		return nil, g.err
	}
	return &domain.GenerationResult{Image: []byte("out"), Passes: [][]byte{[]byte("out")}, NumPasses: 1, Strategy: domain.StrategyStructurePreserving, PromptUsed: "prompt"}, nil
}

type stubPasses struct {
	steps []domain.InpaintingStep
	masks imagegen.MaskSet
	err   error
}

func (p *stubPasses) Run(ctx context.Context, base []byte, masks imagegen.MaskSet, steps []domain.InpaintingStep, opts imagegen.RunOptions) (*domain.GenerationResult, error) {
	p.steps, p.masks = steps, masks
	if p.err != nil {
		return nil, p.err
	}
	return &domain.GenerationResult{Image: []byte("p2"), Passes: [][]byte{[]byte("p1"), []byte("p2")}, NumPasses: 2, Skipped: []string{"lamp"}}, nil
}

type memArtifacts map[string][]byte

func (m memArtifacts) Read(ctx context.Context, key string) ([]byte, error) {
	data, ok := m[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (m memArtifacts) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for key := range m {
		if strings.HasPrefix(key, prefix+"/") {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.Strings(keys)
	return keys, nil
}

type fixture struct {
	wf        *stubWorkflow
	sessions  *stubSessions
	gen       *stubGenerator
	passes    *stubPasses
	artifacts memArtifacts
	handler   http.Handler
}

func newFixture(t *testing.T, persistent bool) *fixture {
	t.Helper()
	f := &fixture{
		wf:        &stubWorkflow{},
		sessions:  newStubSessions(),
		gen:       &stubGenerator{},
		passes:    &stubPasses{},
		artifacts: memArtifacts{},
	}
	app := handlers.App{
		Workflow:        f.wf,
		PersistenceMode: infra.PersistenceStateless,
		Generator:       f.gen,
		MultiPass:       f.passes,
		Artifacts:       f.artifacts,
		Metrics:         infra.NewMetrics(),
		Logger:          zerolog.New(io.Discard),
	}
	if persistent {
		app.Sessions = f.sessions
		app.PersistenceMode = infra.PersistenceSQLite
		f.wf.jobs = map[string]*domain.Job{}
	}
	f.handler = NewRouter(handlers.NewApp(app), Options{CORSAllowedOrigins: []string{"http://localhost:3000"}, RateLimitPerMin: 100})
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v (%s)", err, rec.Body.String())
	}
	return out
}

func pngB64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 180, B: 160, A: 255})
		}
	}
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestHealth(t *testing.T) {
	f := newFixture(t, true)
	rec := f.do(t, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" || body["persistence"] != infra.PersistenceSQLite {
		t.Fatalf("unexpected body: %v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing request id header")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Fatalf("metrics output missing go collector")
	}
}

func TestSubmitRoom(t *testing.T) {
	f := newFixture(t, true)
	rec := f.do(t, http.MethodPost, "/rooms", map[string]any{
		"image_b64": "abc",
		"prompt":    "scandinavian",
		"options":   map[string]any{"budget": "high", "items": []string{"sofa"}},
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["job_id"] != "job-1" || body["status"] != "pending" {
		t.Fatalf("unexpected body: %v", body)
	}
	if len(f.wf.submitted) != 1 || f.wf.submitted[0].Options.Budget != "high" || f.wf.submitted[0].Prompt != "scandinavian" {
		t.Fatalf("unexpected submission: %+v", f.wf.submitted)
	}
}

func TestSubmitRoomErrors(t *testing.T) {
	tests := []struct {
		name string
		body any
		err  error
		code int
		want string
	}{
		{name: "malformed json", body: "{", code: http.StatusBadRequest, want: "bad_request"},
		{name: "missing image", body: map[string]any{"prompt": "x"}, code: http.StatusUnprocessableEntity, want: "validation_failed"},
		{name: "validation from workflow", body: map[string]any{"image_b64": "x"}, err: domain.NewValidationError("budget", "bad"), code: http.StatusUnprocessableEntity, want: "validation_failed"},
		{name: "stateless", body: map[string]any{"image_b64": "x"}, err: fmt.Errorf("submit: %w", domain.ErrConfigurationMissing), code: http.StatusServiceUnavailable, want: "persistence_unavailable"},
		{name: "unknown session", body: map[string]any{"image_b64": "x"}, err: fmt.Errorf("session s: %w", domain.ErrNotFound), code: http.StatusNotFound, want: "not_found"},
		{name: "unexpected", body: map[string]any{"image_b64": "x"}, err: fmt.Errorf("disk full"), code: http.StatusInternalServerError, want: "internal"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, true)
			f.wf.submitErr = tc.err
			rec := f.do(t, http.MethodPost, "/rooms", tc.body)
			if rec.Code != tc.code {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.code, rec.Body.String())
			}
			if got := decodeBody(t, rec)["error"]; got != tc.want {
				t.Fatalf("error = %v, want %s", got, tc.want)
			}
		})
	}
}

func TestValidationErrorCarriesField(t *testing.T) {
	f := newFixture(t, true)
	f.wf.submitErr = domain.NewValidationError("options.mode", "must be one of subtle, balanced, bold")
	rec := f.do(t, http.MethodPost, "/rooms", map[string]any{"image_b64": "x"})
	body := decodeBody(t, rec)
	if body["field"] != "options.mode" {
		t.Fatalf("field = %v", body["field"])
	}
}

func TestRoomStatus(t *testing.T) {
	f := newFixture(t, true)
	errMsg := "segment: boom"
	f.wf.jobs["done"] = &domain.Job{ID: "done", Status: domain.JobStatusDone, Result: json.RawMessage(`{"num_passes":2}`)}
	f.wf.jobs["failed"] = &domain.Job{ID: "failed", Status: domain.JobStatusFailed, Error: &errMsg}

	body := decodeBody(t, f.do(t, http.MethodGet, "/rooms/done", nil))
	if body["status"] != "done" || body["result"].(map[string]any)["num_passes"] != float64(2) {
		t.Fatalf("unexpected done body: %v", body)
	}
	body = decodeBody(t, f.do(t, http.MethodGet, "/rooms/failed", nil))
	if body["status"] != "failed" || body["error"] != errMsg || body["result"] != nil {
		t.Fatalf("unexpected failed body: %v", body)
	}
	if rec := f.do(t, http.MethodGet, "/rooms/missing", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing job status = %d", rec.Code)
	}
}

func TestRoomStatusStateless(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodGet, "/rooms/any", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRoomPassesZip(t *testing.T) {
	f := newFixture(t, true)
	f.artifacts["rooms/j1/pass-01.png"] = []byte("one")
	f.artifacts["rooms/j1/pass-02.png"] = []byte("two")
	f.artifacts["rooms/j1/final.png"] = []byte("two")
	f.artifacts["rooms/j1/notes.txt"] = []byte("skip")

	rec := f.do(t, http.MethodGet, "/rooms/j1/passes.zip", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("content type = %q", ct)
	}
	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	var names []string
	for _, file := range zr.File {
		names = append(names, file.Name)
	}
	want := []string{"final.png", "pass-01.png", "pass-02.png"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("zip entries = %v, want %v", names, want)
	}

	if rec := f.do(t, http.MethodGet, "/rooms/unknown/passes.zip", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown job status = %d", rec.Code)
	}
}

func TestCollectPreferencesCreatesThenUpdates(t *testing.T) {
	f := newFixture(t, true)
	rec := f.do(t, http.MethodPost, "/api/collect-preferences", map[string]any{
		"budget_range":     "LOW",
		"design_tips":      "  warm tones ",
		"item_replacement": []string{"Sofa", "couch", " ", "lamp"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	id, _ := body["session_id"].(string)
	if id == "" || body["persisted"] != true {
		t.Fatalf("unexpected body: %v", body)
	}
	stored, err := f.sessions.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("session not stored: %v", err)
	}
	if stored.BudgetRange != domain.BudgetLow || stored.DesignTips != "warm tones" {
		t.Fatalf("unexpected session: %+v", stored)
	}
	if strings.Join(stored.ItemReplacement, ",") != "Sofa,lamp" {
		t.Fatalf("items = %v", stored.ItemReplacement)
	}

	rec = f.do(t, http.MethodPost, "/api/collect-preferences", map[string]any{"session_id": id, "budget_range": "high"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}
	if f.sessions.updates != 1 {
		t.Fatalf("updates = %d", f.sessions.updates)
	}

	body = decodeBody(t, f.do(t, http.MethodGet, "/api/preferences/"+id, nil))
	if body["budget_range"] != "high" || body["session_id"] != id {
		t.Fatalf("unexpected preferences: %v", body)
	}
}

func TestCollectPreferencesStateless(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodPost, "/api/collect-preferences", map[string]any{"budget_range": "medium"})
	body := decodeBody(t, rec)
	if rec.Code != http.StatusOK || body["persisted"] != false || body["session_id"] == "" {
		t.Fatalf("unexpected response %d %v", rec.Code, body)
	}
	if rec := f.do(t, http.MethodGet, "/api/preferences/x", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("read preferences status = %d", rec.Code)
	}
}

func TestCollectPreferencesRejectsBudget(t *testing.T) {
	f := newFixture(t, true)
	rec := f.do(t, http.MethodPost, "/api/collect-preferences", map[string]any{"budget_range": "luxury"})
	if rec.Code != http.StatusUnprocessableEntity || decodeBody(t, rec)["field"] != "budget_range" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestEnhancedWorkflow(t *testing.T) {
	f := newFixture(t, true)
	f.wf.result = &domain.WorkflowResult{ResultID: "r1", GeneratedImage: "img", BudgetApplied: domain.BudgetHigh, Strategy: domain.StrategyMultiPass, NumPasses: 2}
	rec := f.do(t, http.MethodPost, "/workflow/enhanced", map[string]any{"image_b64": "abc", "session_id": " s1 ", "mode": "bold"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["result_id"] != "r1" || body["strategy"] != "multi_pass" || body["budget_applied"] != "high" {
		t.Fatalf("unexpected body: %v", body)
	}
	if f.wf.enhanced[0].SessionID != "s1" || f.wf.enhanced[0].Mode != "bold" {
		t.Fatalf("unexpected request: %+v", f.wf.enhanced[0])
	}
}

func TestEnhancedWorkflowErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		want string
	}{
		{name: "stage upstream", err: &workflow.StageError{Stage: workflow.StageSegment, Err: &domain.UpstreamError{Service: "segment", StatusCode: 500, Err: fmt.Errorf("boom")}}, code: http.StatusBadGateway, want: "upstream_unavailable"},
		{name: "model not loaded", err: &workflow.StageError{Stage: workflow.StageGenerate, Err: fmt.Errorf("pass 1 (sofa): %w", domain.ErrModelNotLoaded)}, code: http.StatusServiceUnavailable, want: "model_not_loaded"},
		{name: "unknown session", err: fmt.Errorf("session s: %w", domain.ErrNotFound), code: http.StatusNotFound, want: "not_found"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, true)
			f.wf.runErr = tc.err
			rec := f.do(t, http.MethodPost, "/workflow/enhanced", map[string]any{"image_b64": "abc"})
			if rec.Code != tc.code || decodeBody(t, rec)["error"] != tc.want {
				t.Fatalf("got %d %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestReasonUpgrades(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodPost, "/advise/reason-upgrades", map[string]any{
		"item_conditions": map[string]string{"bed": "old", "Chair": "new"},
		"user_selection":  []string{"bed"},
		"budget":          "high",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var body struct {
		Replace   []string                 `json:"replace"`
		Keep      []string                 `json:"keep"`
		Decisions []domain.UpgradeDecision `json:"detailed_decisions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Join(body.Replace, ",") != "bed" || strings.Join(body.Keep, ",") != "chair" {
		t.Fatalf("replace=%v keep=%v", body.Replace, body.Keep)
	}
	if len(body.Decisions) != 2 || body.Decisions[0].Priority != 5 || body.Decisions[1].Priority != 1 {
		t.Fatalf("decisions = %+v", body.Decisions)
	}
}

func TestReasonUpgradesBadBudget(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodPost, "/advise/reason-upgrades", map[string]any{"budget": "cheap"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestReasonUpgradesRejectsUnknownCondition(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodPost, "/advise/reason-upgrades", map[string]any{
		"item_conditions": map[string]string{"bed": "banana"},
		"user_selection":  []string{"bed"},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if got := decodeBody(t, rec)["field"]; got != "item_conditions.bed" {
		t.Fatalf("field = %v", got)
	}
}

func TestRefineBudget(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodPost, "/advise/refine-budget", map[string]any{
		"base_design":    "modern",
		"budget":         "medium",
		"item_selection": []string{"bed", "spaceship"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var body struct {
		BaseDesign    string                         `json:"base_design"`
		Materials     map[string]domain.MaterialSpec `json:"materials"`
		DetailedSpecs []map[string]any               `json:"detailed_specs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.BaseDesign != "modern" || len(body.Materials) != 2 || len(body.DetailedSpecs) != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Materials["spaceship"].Material != "standard spaceship" {
		t.Fatalf("fallback material = %+v", body.Materials["spaceship"])
	}
	if body.Materials["bed"].Material == "" || body.Materials["bed"].Finish == "" {
		t.Fatalf("bed material = %+v", body.Materials["bed"])
	}
}

func TestInpaintMulti(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodPost, "/generate/inpaint_multi", map[string]any{
		"image": pngB64(t),
		"masks": map[string]string{"sofa": pngB64(t)},
		"steps": []map[string]any{
			{"object": "sofa", "prompt": "velvet sofa", "strength": 0.6},
			{"object": "lamp", "prompt": "brass lamp", "strength": 0.6},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["num_passes"] != float64(2) || body["final_image"] != base64.StdEncoding.EncodeToString([]byte("p2")) {
		t.Fatalf("unexpected body: %v", body)
	}
	if len(body["intermediate_passes"].([]any)) != 2 {
		t.Fatalf("passes = %v", body["intermediate_passes"])
	}
	if len(f.passes.steps) != 2 || !f.passes.masks.Has("sofa") {
		t.Fatalf("runner got steps=%v masks=%v", f.passes.steps, f.passes.masks.Labels())
	}
}

func TestInpaintMultiValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{name: "bad image", body: map[string]any{"image": "!!", "steps": []map[string]any{{"object": "sofa"}}}, field: "image"},
		{name: "no steps", body: map[string]any{"image": "IMG"}, field: "steps"},
		{name: "guidance out of range", body: map[string]any{"image": "IMG", "steps": []map[string]any{{"object": "sofa"}}, "guidance_scale": 99}, field: "options"},
		{name: "bad mask", body: map[string]any{"image": "IMG", "steps": []map[string]any{{"object": "sofa"}}, "masks": map[string]string{"sofa": "@@"}}, field: "masks.sofa"},
		{name: "step strength", body: map[string]any{"image": "IMG", "steps": []map[string]any{{"object": "sofa", "prompt": "velvet sofa", "strength": 0.6}, {"object": "rug", "prompt": "wool rug", "strength": 1.7}}}, field: "steps[1].strength"},
		{name: "step prompt", body: map[string]any{"image": "IMG", "steps": []map[string]any{{"object": "sofa", "strength": 0.6}}}, field: "steps[0].prompt"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, false)
			if tc.body["image"] == "IMG" {
				tc.body["image"] = pngB64(t)
			}
			rec := f.do(t, http.MethodPost, "/generate/inpaint_multi", tc.body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
			}
			if got := decodeBody(t, rec)["field"]; got != tc.field {
				t.Fatalf("field = %v, want %s", got, tc.field)
			}
		})
	}
}

func TestBudgetAwareGenerate(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodPost, "/generate/budget-aware", map[string]any{
		"image":         pngB64(t),
		"base_prompt":   "cozy",
		"replace_items": []string{"Couch", "bed"},
		"material_specs": map[string]any{
			"bed": map[string]any{"item": "bed", "material": "oak", "finish": "matte"},
		},
		"budget": "low",
		"mode":   "subtle",
		"refine": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["strategy"] != domain.StrategyStructurePreserving || body["budget"] != "low" || body["prompt_used"] != "prompt" {
		t.Fatalf("unexpected body: %v", body)
	}
	req := f.gen.req
	if strings.Join(req.ReplaceItems, ",") != "sofa,bed" {
		t.Fatalf("replace items = %v", req.ReplaceItems)
	}
	if req.Materials["bed"].Material != "oak" || req.Materials["sofa"].Material == "" {
		t.Fatalf("materials = %+v", req.Materials)
	}
	if req.Mode != domain.ModeSubtle || req.Budget != domain.BudgetLow || !req.Refine || req.Options.RunID == "" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestBudgetAwareGenerateModelNotLoaded(t *testing.T) {
	f := newFixture(t, false)
	f.gen.err = fmt.Errorf("pass 1 (structure): %w", domain.ErrModelNotLoaded)
	rec := f.do(t, http.MethodPost, "/generate/budget-aware", map[string]any{"image": pngB64(t)})
	if rec.Code != http.StatusServiceUnavailable || decodeBody(t, rec)["error"] != "model_not_loaded" {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, false)
	req := httptest.NewRequest(http.MethodOptions, "/workflow/enhanced", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("preflight got %d %v", rec.Code, rec.Header())
	}
}
