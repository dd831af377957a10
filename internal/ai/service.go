package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/testmo/internal/clock"
	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
	testmoerrors "github.com/mrz1836/testmo/internal/errors"
	"github.com/mrz1836/testmo/internal/evidence"
	"github.com/mrz1836/testmo/internal/metrics"
	"github.com/mrz1836/testmo/internal/prompts"
)

// Operation names used in logs and metrics.
const (
	OpGenerate = "generate"
	OpRefine   = "refine"
	OpVariants = "variants"
	OpImport   = "import"
	OpAnalyze  = "analyze_evidence"
	OpDefect   = "defect_report"
)

// Creator names stamped on AI-produced cases.
const (
	CreatorImport  = "BulkImport"
	CreatorVariant = "AI-Variant-Generator"
)

// Sampling temperatures per operation. Variants run hotter for diversity.
const (
	tempGenerate = 0.3
	tempRefine   = 0.3
	tempVariants = 0.6
	tempImport   = 0.1
	tempDefect   = 0.4
	tempAnalyze  = 0.1
)

const defaultRole = "Case Manager"

// Service runs AI operations with retry, metrics and response hydration.
type Service struct {
	model       Model
	policy      RetryPolicy
	logger      zerolog.Logger
	metrics     metrics.Recorder
	clock       clock.Clock
	batchSize   int
	concurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithRetryPolicy sets the retry policy for transient failures.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithClock sets the time source for LastUpdated stamps.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithImportBatching sets how many CSV rows go into one request and how many
// requests may run at once. Values below one are ignored.
func WithImportBatching(size, concurrency int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
		if concurrency > 0 {
			s.concurrency = concurrency
		}
	}
}

// NewService creates a Service backed by model.
func NewService(model Model, opts ...Option) *Service {
	s := &Service{
		model:       model,
		policy:      DefaultRetryPolicy(),
		logger:      zerolog.Nop(),
		metrics:     metrics.NoopRecorder{},
		clock:       clock.RealClock{},
		batchSize:   constants.DefaultImportBatchSize,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MediaInput is an optional document or screenshot given to the generator.
type MediaInput struct {
	MIMEType string
	Data     []byte
}

// GenerateInput describes what to generate a case from.
type GenerateInput struct {
	Context  string
	Role     string
	Priority constants.Priority
	Media    *MediaInput
	Settings domain.ProjectSettings
}

// Generate creates a new case from free text and optional media. The result
// has no id; the collection assigns one when it is saved.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (tc domain.TestCase, err error) {
	defer s.observe(OpGenerate, time.Now(), &err)

	if strings.TrimSpace(in.Context) == "" && in.Media == nil {
		return domain.TestCase{}, fmt.Errorf("generation context %w", testmoerrors.ErrEmptyValue)
	}
	if in.Role == "" {
		in.Role = defaultRole
	}
	if !in.Priority.IsValid() {
		in.Priority = constants.PriorityMedium
	}

	var parts []Part
	if in.Media != nil && len(in.Media.Data) > 0 {
		parts = append(parts, Part{MIMEType: in.Media.MIMEType, Data: in.Media.Data})
	}
	parts = append(parts, TextPart(generatePrompt(&in)))

	raw, err := call[rawCase](ctx, s, OpGenerate, Request{
		System:      systemPrompt(prompts.SystemAuthor),
		Parts:       parts,
		Schema:      testCaseSchema(),
		Temperature: tempGenerate,
	})
	if err != nil {
		return domain.TestCase{}, err
	}
	tc, err = hydrateCase(&raw, s.clock.Now())
	if err != nil {
		return domain.TestCase{}, err
	}
	tc.ID = ""
	return tc, nil
}

// Refine rewrites a case's content. Id, status, draft flag, creator and
// assignee are kept; steps come back unexecuted because their content changed.
func (s *Service) Refine(ctx context.Context, current domain.TestCase, settings domain.ProjectSettings) (tc domain.TestCase, err error) {
	defer s.observe(OpRefine, time.Now(), &err)

	in := refineInput{Title: current.Title, Summary: current.Summary, Meta: current.Meta}
	for _, st := range current.Steps {
		in.Steps = append(in.Steps, refineStep{Desc: st.Description, Expected: st.ExpectedResult, Data: st.TestData})
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return domain.TestCase{}, fmt.Errorf("failed to encode case for refinement: %w", err)
	}

	raw, err := call[rawCase](ctx, s, OpRefine, Request{
		System:      systemPrompt(prompts.SystemAuthor),
		Parts:       []Part{TextPart(refinePrompt(string(payload), settings))},
		Schema:      testCaseSchema(),
		Temperature: tempRefine,
	})
	if err != nil {
		return domain.TestCase{}, err
	}
	tc, err = hydrateCase(&raw, s.clock.Now())
	if err != nil {
		return domain.TestCase{}, err
	}
	tc.ID = current.ID
	tc.Status = current.Status
	tc.Draft = current.Draft
	tc.CreatedBy = current.CreatedBy
	tc.AssignedTo = current.AssignedTo
	return tc, nil
}

// Variants derives 3 to 5 negative or edge-case variants of a case. They come
// back as drafts without ids, tagged AI-Variant.
func (s *Service) Variants(ctx context.Context, current domain.TestCase, settings domain.ProjectSettings) (out []domain.TestCase, err error) {
	defer s.observe(OpVariants, time.Now(), &err)

	in := variantInput{Title: current.Title, Summary: current.Summary, Meta: current.Meta}
	for _, st := range current.Steps {
		in.Steps = append(in.Steps, st.Description)
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode case for variants: %w", err)
	}

	raws, err := call[[]rawCase](ctx, s, OpVariants, Request{
		System:      systemPrompt(prompts.SystemAuthor),
		Parts:       []Part{TextPart(variantsPrompt(string(payload), settings))},
		Schema:      testCaseListSchema(),
		Temperature: tempVariants,
	})
	if err != nil {
		return nil, err
	}
	out = s.hydrateAll(OpVariants, raws)
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no usable variants", testmoerrors.ErrAIEmptyResponse)
	}
	for i := range out {
		out[i].ID = ""
		out[i].Draft = true
		out[i].CreatedBy = CreatorVariant
		out[i].AddTags(constants.TagAIVariant)
	}
	return out, nil
}

// ParseImport converts CSV text into cases. The first non-blank line is the
// header and is sent with every batch. Batches keep input order; the first
// failing batch aborts the import.
func (s *Service) ParseImport(ctx context.Context, csv string) (out []domain.TestCase, err error) {
	defer s.observe(OpImport, time.Now(), &err)

	header, rows := splitCSV(csv)
	if header == "" || len(rows) == 0 {
		return nil, fmt.Errorf("import needs a header and at least one data row: %w", testmoerrors.ErrEmptyValue)
	}

	var batches []string
	for i := 0; i < len(rows); i += s.batchSize {
		end := min(i+s.batchSize, len(rows))
		batches = append(batches, strings.Join(append([]string{header}, rows[i:end]...), "\n"))
	}
	s.logger.Info().
		Int("rows", len(rows)).
		Int("batches", len(batches)).
		Int("concurrency", s.concurrency).
		Msg("starting import")

	results := make([][]domain.TestCase, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, batch := range batches {
		g.Go(func() error {
			raws, err := call[[]rawCase](gctx, s, OpImport, Request{
				System:      systemPrompt(prompts.SystemImport),
				Parts:       []Part{TextPart(importPrompt(batch))},
				Schema:      testCaseListSchema(),
				Temperature: tempImport,
			})
			if errors.Is(err, testmoerrors.ErrAIEmptyResponse) {
				s.logger.Warn().Int("batch", i+1).Msg("import batch returned nothing")
				return nil
			}
			if err != nil {
				return fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err)
			}
			results[i] = s.hydrateAll(OpImport, raws)
			s.logger.Debug().Int("batch", i+1).Int("cases", len(results[i])).Msg("import batch done")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range results {
		out = append(out, r...)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no test cases could be parsed, check the CSV format", testmoerrors.ErrAIEmptyResponse)
	}
	for i := range out {
		out[i].ID = ""
		out[i].CreatedBy = CreatorImport
	}
	return out, nil
}

// AnalyzeEvidence asks the model whether evidence matches the expected result.
func (s *Service) AnalyzeEvidence(ctx context.Context, expected, evidenceRef string, settings domain.ProjectSettings) (a *domain.EvidenceAnalysis, err error) {
	defer s.observe(OpAnalyze, time.Now(), &err)

	if evidenceRef == "" {
		return nil, testmoerrors.ErrEvidenceAnalysisWithoutEvidence
	}
	mime, data, err := evidence.Decode(evidenceRef)
	if err != nil {
		return nil, err
	}

	raw, err := call[rawAnalysis](ctx, s, OpAnalyze, Request{
		System: systemPrompt(prompts.SystemVisual),
		Parts: []Part{
			{MIMEType: mime, Data: data},
			TextPart(analysisPrompt(expected, settings)),
		},
		Schema:      analysisSchema(),
		Temperature: tempAnalyze,
	})
	if err != nil {
		return nil, err
	}
	return hydrateAnalysis(&raw)
}

// DefectReport drafts a bug report for a failed step. A missing environment
// is filled from the case meta.
func (s *Service) DefectReport(ctx context.Context, tc *domain.TestCase, step *domain.TestStep) (r domain.DefectReport, err error) {
	defer s.observe(OpDefect, time.Now(), &err)

	meta := tc.Meta
	if meta == nil {
		meta = domain.Meta{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return domain.DefectReport{}, fmt.Errorf("failed to encode meta: %w", err)
	}

	raw, err := call[rawDefect](ctx, s, OpDefect, Request{
		System:      systemPrompt(prompts.SystemDefect),
		Parts:       []Part{TextPart(defectPrompt(tc, step, string(metaJSON)))},
		Schema:      defectSchema(),
		Temperature: tempDefect,
	})
	if err != nil {
		return domain.DefectReport{}, err
	}
	r, err = hydrateDefect(&raw)
	if err != nil {
		return domain.DefectReport{}, err
	}
	if r.Environment == "" {
		pairs := make([]string, 0, len(tc.Meta))
		for _, k := range tc.Meta.Keys() {
			pairs = append(pairs, k+"="+tc.Meta[k])
		}
		r.Environment = strings.Join(pairs, ", ")
	}
	return r, nil
}

// call sends req through the retry policy and decodes the answer.
func call[T any](ctx context.Context, s *Service, op string, req Request) (T, error) {
	text, err := Retry(ctx, s.policy, func(attempt int, delay time.Duration, err error) {
		s.metrics.AIRetry(op)
		s.logger.Warn().
			Err(err).
			Str("operation", op).
			Int("attempt", attempt).
			Int("max_attempts", s.policy.MaxAttempts).
			Dur("backoff", delay).
			Msg("AI service rate limited, retrying")
	}, func(ctx context.Context) (string, error) {
		return s.model.Generate(ctx, req)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](text)
}

// hydrateAll hydrates every case, dropping the ones that fail validation.
func (s *Service) hydrateAll(op string, raws []rawCase) []domain.TestCase {
	now := s.clock.Now()
	out := make([]domain.TestCase, 0, len(raws))
	for i := range raws {
		tc, err := hydrateCase(&raws[i], now)
		if err != nil {
			s.logger.Warn().Err(err).Str("operation", op).Int("index", i).Msg("dropping unusable AI case")
			continue
		}
		out = append(out, tc)
	}
	return out
}

func (s *Service) observe(op string, start time.Time, errp *error) {
	elapsed := time.Since(start)
	outcome := outcomeOf(*errp)
	s.metrics.AICall(op, outcome, elapsed)
	if *errp != nil {
		s.logger.Error().Err(*errp).Str("operation", op).Str("outcome", outcome).Dur("duration", elapsed).Msg("AI operation failed")
		return
	}
	s.logger.Debug().Str("operation", op).Dur("duration", elapsed).Msg("AI operation completed")
}

// splitCSV returns the header and the non-blank data rows. A leading byte
// order mark, as written by the exporter, is dropped.
func splitCSV(csv string) (string, []string) {
	csv = strings.TrimPrefix(csv, "\ufeff")
	var lines []string
	for _, line := range strings.Split(csv, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return "", nil
	}
	return lines[0], lines[1:]
}
