package workflow

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"artistry/internal/domain"
	"artistry/internal/imagegen"
	"artistry/internal/infra"
)

func solidPNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, imagegen.CanvasSize, imagegen.CanvasSize))
	for i := 0; i < len(img.Pix); i += 4 {
		r, g, b, a := c.RGBA()
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func roomB64(t *testing.T) string {
	return base64.StdEncoding.EncodeToString(solidPNG(t, color.RGBA{R: 120, G: 100, B: 80, A: 255}))
}

func maskPNG(t *testing.T, box domain.Box) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, imagegen.BoxMask(box, imagegen.CanvasSize, imagegen.CanvasSize)); err != nil {
		t.Fatalf("encode mask: %v", err)
	}
	return buf.Bytes()
}

// callLog records collaborator calls in order across fakes.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeDetector struct {
	log     *callLog
	objects []domain.DetectedObject
	err     error
}

func (f *fakeDetector) Detect(ctx context.Context, image []byte) ([]domain.DetectedObject, error) {
	f.log.add("detect")
	return f.objects, f.err
}

type fakeSegmenter struct {
	log   *callLog
	masks []domain.ObjectMask
	err   error
}

func (f *fakeSegmenter) Segment(ctx context.Context, image []byte, objects []domain.DetectedObject) ([]domain.ObjectMask, error) {
	f.log.add("segment")
	return f.masks, f.err
}

type fakeRater struct {
	log     *callLog
	ratings []domain.ConditionRating
	err     error
	items   []string
}

func (f *fakeRater) RateConditions(ctx context.Context, image []byte, items []string) ([]domain.ConditionRating, error) {
	f.log.add("rate")
	f.items = items
	return f.ratings, f.err
}

type fakeGenerator struct {
	log  *callLog
	out  []byte
	err  error
	reqs []imagegen.BudgetRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, req imagegen.BudgetRequest) (*domain.GenerationResult, error) {
	f.log.add("generate")
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	strategy := domain.StrategyStructurePreserving
	if len(req.Masks) > 0 && len(req.ReplaceItems) > 0 {
		strategy = domain.StrategyMultiPass
	}
	return &domain.GenerationResult{
		Image:     f.out,
		Passes:    [][]byte{f.out},
		NumPasses: 1,
		Strategy:  strategy,
	}, nil
}

type memArtifacts struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memArtifacts) Write(ctx context.Context, key string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = data
	return key, nil
}

func (m *memArtifacts) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.data))
	for k := range m.data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// memJobs enforces the job state machine like the SQL repositories do.
type memJobs struct {
	mu      sync.Mutex
	jobs    map[string]*domain.Job
	order   []string
	history map[string][]domain.JobStatus
	// doneErr, when set, fails every transition to done.
	doneErr error
}

func newMemJobs() *memJobs {
	return &memJobs{jobs: map[string]*domain.Job{}, history: map[string][]domain.JobStatus{}}
}

func (m *memJobs) Create(ctx context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	cp.CreatedAt, cp.UpdatedAt = time.Now(), time.Now()
	m.jobs[job.ID] = &cp
	m.order = append(m.order, job.ID)
	m.history[job.ID] = []domain.JobStatus{job.Status}
	return nil
}

func (m *memJobs) UpdateStatus(ctx context.Context, id string, status domain.JobStatus, errMsg *string, result []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if !domain.CanTransition(job.Status, status) {
		return domain.ErrInvalidTransition
	}
	if status == domain.JobStatusDone && m.doneErr != nil {
		return m.doneErr
	}
	job.Status = status
	if errMsg != nil {
		msg := *errMsg
		job.Error = &msg
	}
	if len(result) > 0 {
		job.Result = append([]byte(nil), result...)
	}
	m.history[id] = append(m.history[id], status)
	return nil
}

func (m *memJobs) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *memJobs) ClaimPending(ctx context.Context) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		job := m.jobs[id]
		if job.Status == domain.JobStatusPending {
			job.Status = domain.JobStatusRunning
			m.history[id] = append(m.history[id], domain.JobStatusRunning)
			cp := *job
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memJobs) statuses(id string) []domain.JobStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.JobStatus(nil), m.history[id]...)
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func (m *memSessions) Create(ctx context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions == nil {
		m.sessions = map[string]domain.Session{}
	}
	m.sessions[s.ID] = *s
	return nil
}

func (m *memSessions) Update(ctx context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return domain.ErrNotFound
	}
	m.sessions[s.ID] = *s
	return nil
}

func (m *memSessions) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

type memResults struct {
	mu      sync.Mutex
	results map[string]domain.StoredResult
}

func (m *memResults) Save(ctx context.Context, r *domain.StoredResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.results == nil {
		m.results = map[string]domain.StoredResult{}
	}
	m.results[r.ID] = *r
	return nil
}

func (m *memResults) GetByID(ctx context.Context, id string) (*domain.StoredResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

type harness struct {
	log       *callLog
	detector  *fakeDetector
	segmenter *fakeSegmenter
	rater     *fakeRater
	generator *fakeGenerator
	jobs      *memJobs
	sessions  *memSessions
	results   *memResults
	artifacts *memArtifacts
}

var sofaBox = domain.Box{X1: 100, Y1: 200, X2: 400, Y2: 450}

func newHarness(t *testing.T) *harness {
	log := &callLog{}
	return &harness{
		log: log,
		detector: &fakeDetector{log: log, objects: []domain.DetectedObject{
			{Label: "Couch", Box: sofaBox, Score: 0.92},
			{Label: "bed", Box: domain.Box{X1: 0, Y1: 0, X2: 50, Y2: 50}, Score: 0.71},
		}},
		segmenter: &fakeSegmenter{log: log, masks: []domain.ObjectMask{{Label: "couch", Box: sofaBox, PNG: maskPNG(t, sofaBox)}}},
		rater: &fakeRater{log: log, ratings: []domain.ConditionRating{
			{Item: "sofa", Condition: domain.ConditionOld, Confidence: 0.9},
			{Item: "bed", Condition: domain.ConditionNew, Confidence: 0.8},
		}},
		generator: &fakeGenerator{log: log, out: solidPNG(t, color.RGBA{R: 1, G: 2, B: 3, A: 255})},
		jobs:      newMemJobs(),
		sessions:  &memSessions{},
		results:   &memResults{},
		artifacts: &memArtifacts{},
	}
}

func (h *harness) stores() domain.Stores {
	return domain.Stores{Mode: "memory", Jobs: h.jobs, Claimer: h.jobs, Sessions: h.sessions, Results: h.results}
}

func (h *harness) orchestrator(t *testing.T, stores domain.Stores, dispatch string) *Orchestrator {
	t.Helper()
	o, err := New(Deps{
		Detector:     h.detector,
		Segmenter:    h.segmenter,
		Rater:        h.rater,
		Generator:    h.generator,
		Stores:       stores,
		Artifacts:    h.artifacts,
		LightTimeout: 5 * time.Second,
		Dispatch:     dispatch,
		Concurrency:  1,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func zerologDiscard() infra.Logger {
	return zerolog.New(io.Discard)
}
