package collection

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/testmo/internal/activity"
	"github.com/mrz1836/testmo/internal/clock"
	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
	"github.com/mrz1836/testmo/internal/errors"
	"github.com/mrz1836/testmo/internal/execution"
	"github.com/mrz1836/testmo/internal/metrics"
	"github.com/mrz1836/testmo/internal/status"
)


// Repository persists the whole case collection.
type Repository interface {
	LoadCases(ctx context.Context) ([]domain.TestCase, error)
	SaveCases(ctx context.Context, cases []domain.TestCase) error
}

// Manager is the single writer of the case collection. Every mutating method
// validates first, applies the change atomically to the in-memory collection,
// recomputes the status of the touched non-draft cases, persists the whole
// collection and appends exactly one activity entry. Save failures are logged
// and never returned: the in-memory collection stays authoritative.
type Manager struct {
	mu      sync.Mutex
	cases   []domain.TestCase
	repo    Repository
	journal *activity.Journal
	clock   clock.Clock
	logger  zerolog.Logger
	metrics metrics.Recorder
	newID   func() (string, error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the time source for LastUpdated.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(m *Manager) { m.metrics = r }
}

// WithIDFunc overrides case id generation.
func WithIDFunc(f func() (string, error)) Option {
	return func(m *Manager) { m.newID = f }
}

// NewManager creates a Manager. Call Load before use.
func NewManager(repo Repository, journal *activity.Journal, opts ...Option) *Manager {
	m := &Manager{
		repo:    repo,
		journal: journal,
		clock:   clock.RealClock{},
		logger:  zerolog.Nop(),
		metrics: metrics.NoopRecorder{},
		newID:   GenerateID,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load replaces the in-memory collection with the stored one.
func (m *Manager) Load(ctx context.Context) error {
	cases, err := m.repo.LoadCases(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cases: %w", err)
	}
	m.mu.Lock()
	m.cases = cases
	m.mu.Unlock()
	return nil
}

// Cases returns a deep copy of the collection.
func (m *Manager) Cases() []domain.TestCase {
	return m.List(Filter{})
}

// List returns copies of the cases matching f, in collection order.
func (m *Manager) List(f Filter) []domain.TestCase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return f.Apply(m.cases)
}

// Get returns a copy of the case with id.
func (m *Manager) Get(id string) (domain.TestCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := indexOf(m.cases, id)
	if i < 0 {
		return domain.TestCase{}, fmt.Errorf("%w: %s", errors.ErrCaseNotFound, id)
	}
	return m.cases[i].Clone(), nil
}

// Save upserts cases (generator save, manual create, edit). Cases without an
// id get a fresh one. Logged as one create entry targeting the id, or
// "<N> Cases" when several are saved.
func (m *Manager) Save(ctx context.Context, actor string, cases ...domain.TestCase) ([]domain.TestCase, error) {
	if len(cases) == 0 {
		return nil, fmt.Errorf("cases %w", errors.ErrEmptyValue)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	prepared, err := m.prepare(actor, cases)
	if err != nil {
		return nil, err
	}
	m.cases = UpsertMany(m.cases, prepared)
	m.persist(ctx)

	target := prepared[0].ID
	if len(prepared) > 1 {
		target = fmt.Sprintf("%d Cases", len(prepared))
	}
	m.record(ctx, actor, constants.ActionCreate, target, "", len(prepared))
	return cloneAll(prepared), nil
}

// Import prepends parsed cases and logs one import entry "<N> Cases".
func (m *Manager) Import(ctx context.Context, actor string, cases []domain.TestCase) ([]domain.TestCase, error) {
	if len(cases) == 0 {
		return nil, fmt.Errorf("imported cases %w", errors.ErrEmptyValue)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	prepared, err := m.prepare(actor, cases)
	if err != nil {
		return nil, err
	}
	m.cases = UpsertMany(m.cases, prepared)
	m.persist(ctx)
	m.record(ctx, actor, constants.ActionImport, fmt.Sprintf("%d Cases", len(prepared)), "", len(prepared))
	return cloneAll(prepared), nil
}

// Update replaces one existing case in place. It writes no activity entry;
// the caller's higher-level command logs its own.
func (m *Manager) Update(ctx context.Context, tc domain.TestCase) (domain.TestCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if indexOf(m.cases, tc.ID) < 0 {
		return domain.TestCase{}, fmt.Errorf("%w: %s", errors.ErrCaseNotFound, tc.ID)
	}
	if err := m.touch(&tc); err != nil {
		return domain.TestCase{}, err
	}
	m.cases = PatchMany(m.cases, []domain.TestCase{tc})
	m.persist(ctx)
	return tc.Clone(), nil
}

// BulkUpdate replaces several existing cases in place and logs one
// "Bulk Update" entry. Any unknown id rejects the whole batch.
func (m *Manager) BulkUpdate(ctx context.Context, actor string, cases []domain.TestCase) error {
	if len(cases) == 0 {
		return fmt.Errorf("cases %w", errors.ErrEmptyValue)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	patched := cloneAll(cases)
	for i := range patched {
		if indexOf(m.cases, patched[i].ID) < 0 {
			return fmt.Errorf("%w: %s", errors.ErrCaseNotFound, patched[i].ID)
		}
		if err := m.touch(&patched[i]); err != nil {
			return err
		}
	}
	m.cases = PatchMany(m.cases, patched)
	m.persist(ctx)
	m.record(ctx, actor, constants.ActionUpdate, "Bulk Update", fmt.Sprintf("%d cases", len(patched)), len(patched))
	return nil
}

// Delete removes cases by id. One id logs the id as target; several log
// "Bulk Delete". Any unknown id rejects the whole call.
func (m *Manager) Delete(ctx context.Context, actor string, ids ...string) error {
	if len(ids) == 0 {
		return fmt.Errorf("case ids %w", errors.ErrEmptyValue)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	set := IDSet(ids...)
	for id := range set {
		if indexOf(m.cases, id) < 0 {
			return fmt.Errorf("%w: %s", errors.ErrCaseNotFound, id)
		}
	}
	m.cases = RemoveMany(m.cases, set)
	m.persist(ctx)

	if len(set) == 1 {
		m.record(ctx, actor, constants.ActionDelete, ids[0], "", 1)
	} else {
		m.record(ctx, actor, constants.ActionDelete, "Bulk Delete", fmt.Sprintf("%d cases", len(set)), len(set))
	}
	return nil
}

// Duplicate copies a case under a new id with execution cleared and
// prepends the copy.
func (m *Manager) Duplicate(ctx context.Context, actor, id string) (domain.TestCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := indexOf(m.cases, id)
	if i < 0 {
		return domain.TestCase{}, fmt.Errorf("%w: %s", errors.ErrCaseNotFound, id)
	}
	newID, err := m.uniqueID(nil)
	if err != nil {
		return domain.TestCase{}, err
	}
	dup := Duplicate(&m.cases[i], newID)
	if err := m.touch(&dup); err != nil {
		return domain.TestCase{}, err
	}
	m.cases = UpsertMany(m.cases, []domain.TestCase{dup})
	m.persist(ctx)
	m.record(ctx, actor, constants.ActionCreate, newID, "Duplicated from "+id, 1)
	return dup.Clone(), nil
}

// Reset clears every step's execution fields for a regression re-run.
func (m *Manager) Reset(ctx context.Context, actor, id string) (domain.TestCase, error) {
	return m.mutate(ctx, actor, id, constants.ActionStatusChange, "Reset (Regression)", func(tc *domain.TestCase) error {
		tc.ResetExecution()
		tc.Draft = false
		tc.ExecutedBy = ""
		return nil
	})
}

// Assign sets the assignee. An empty username clears it.
func (m *Manager) Assign(ctx context.Context, actor, id, username string) (domain.TestCase, error) {
	return m.mutate(ctx, actor, id, constants.ActionUpdate, "Assigned to "+username, func(tc *domain.TestCase) error {
		tc.AssignedTo = username
		return nil
	})
}

// Activate turns Draft cases into active ones. Cases that are already active
// are left alone and repeated ids count once. One distinct id logs the id as
// target; several log "Bulk Update".
func (m *Manager) Activate(ctx context.Context, actor string, ids ...string) ([]domain.TestCase, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("case ids %w", errors.ErrEmptyValue)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	set := IDSet(ids...)
	seen := make(map[string]struct{}, len(set))
	var changed []domain.TestCase
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		i := indexOf(m.cases, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", errors.ErrCaseNotFound, id)
		}
		if !m.cases[i].Draft {
			continue
		}
		tc := m.cases[i].Clone()
		tc.Draft = false
		if err := m.touch(&tc); err != nil {
			return nil, err
		}
		changed = append(changed, tc)
	}
	if len(changed) == 0 {
		return nil, nil
	}
	m.cases = PatchMany(m.cases, changed)
	m.persist(ctx)

	if len(set) == 1 {
		m.record(ctx, actor, constants.ActionUpdate, changed[0].ID, "Activated", 1)
	} else {
		m.record(ctx, actor, constants.ActionUpdate, "Bulk Update", fmt.Sprintf("%d cases", len(changed)), len(changed))
	}
	return cloneAll(changed), nil
}

// SaveGenerated stores a generated case as a Backlog draft. With withFlows,
// each negative flow is also stored as its own draft. Logged as one create entry.
func (m *Manager) SaveGenerated(ctx context.Context, actor string, tc domain.TestCase, withFlows bool) ([]domain.TestCase, error) {
	m.mu.Lock()
	main := AsBacklogDraft(tc)
	if main.ID == "" {
		id, err := m.uniqueID(nil)
		if err != nil {
			m.mu.Unlock()
			return nil, err
		}
		main.ID = id
	}
	batch := []domain.TestCase{main}
	if withFlows {
		taken := map[string]struct{}{main.ID: {}}
		for i := range tc.NegativeFlows {
			id, err := m.uniqueID(taken)
			if err != nil {
				m.mu.Unlock()
				return nil, err
			}
			taken[id] = struct{}{}
			batch = append(batch, FlowDraft(&tc, &tc.NegativeFlows[i], id))
		}
	}
	m.mu.Unlock()

	return m.Save(ctx, actor, batch...)
}

// PromoteFlow creates an active case from one negative flow of a stored case.
func (m *Manager) PromoteFlow(ctx context.Context, actor, caseID, flowID string) (domain.TestCase, error) {
	m.mu.Lock()
	i := indexOf(m.cases, caseID)
	if i < 0 {
		m.mu.Unlock()
		return domain.TestCase{}, fmt.Errorf("%w: %s", errors.ErrCaseNotFound, caseID)
	}
	parent := m.cases[i].Clone()
	flow, err := parent.FlowByID(flowID)
	if err != nil {
		m.mu.Unlock()
		return domain.TestCase{}, err
	}
	id, err := m.uniqueID(nil)
	m.mu.Unlock()
	if err != nil {
		return domain.TestCase{}, err
	}

	saved, err := m.Save(ctx, actor, PromotedFlow(&parent, flow, id))
	if err != nil {
		return domain.TestCase{}, err
	}
	return saved[0], nil
}

// SetStepStatus changes one step's status from the detail view through the
// interception gate. A returned Dialog means nothing changed yet; complete it
// with ResolveStepStatus.
func (m *Manager) SetStepStatus(ctx context.Context, actor, caseID, stepID string, o execution.Outcome) (*execution.Dialog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := indexOf(m.cases, caseID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", errors.ErrCaseNotFound, caseID)
	}
	tc := m.cases[i].Clone()
	d, err := execution.Request(&tc, stepID, o, actor, m.clock.Now())
	if err != nil || d != nil {
		return d, err
	}
	m.commitStep(ctx, actor, tc, stepID, o.Status)
	return nil, nil
}

// ResolveStepStatus confirms a dialog returned by SetStepStatus.
func (m *Manager) ResolveStepStatus(ctx context.Context, actor, caseID string, d *execution.Dialog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := indexOf(m.cases, caseID)
	if i < 0 {
		return fmt.Errorf("%w: %s", errors.ErrCaseNotFound, caseID)
	}
	tc := m.cases[i].Clone()
	if err := execution.Resolve(&tc, d, actor, m.clock.Now()); err != nil {
		return err
	}
	m.commitStep(ctx, actor, tc, d.StepID(), d.Mode())
	return nil
}

func (m *Manager) commitStep(ctx context.Context, actor string, tc domain.TestCase, stepID string, st constants.StepStatus) {
	step, _ := tc.StepByID(stepID)
	m.cases = PatchMany(m.cases, []domain.TestCase{tc})
	m.persist(ctx)
	m.metrics.StepOutcome(st)
	m.record(ctx, actor, constants.ActionStatusChange, tc.ID, fmt.Sprintf("Step %d updated to %s", step.Sequence, st), 1)
}

// EditStep applies a field edit to one step. Not logged.
func (m *Manager) EditStep(ctx context.Context, caseID, stepID string, e execution.StepEdit) (domain.TestCase, error) {
	return m.mutate(ctx, "", caseID, "", "", func(tc *domain.TestCase) error {
		return execution.EditStep(tc, stepID, e, m.clock.Now())
	})
}

// AttachEvidence replaces a step's evidence. Not logged.
func (m *Manager) AttachEvidence(ctx context.Context, caseID, stepID, ref string) (domain.TestCase, error) {
	return m.mutate(ctx, "", caseID, "", "", func(tc *domain.TestCase) error {
		return execution.AttachEvidence(tc, stepID, ref, m.clock.Now())
	})
}

// RemoveEvidence drops a step's evidence. Not logged.
func (m *Manager) RemoveEvidence(ctx context.Context, caseID, stepID string) (domain.TestCase, error) {
	return m.mutate(ctx, "", caseID, "", "", func(tc *domain.TestCase) error {
		return execution.RemoveEvidence(tc, stepID, m.clock.Now())
	})
}

// SetAnalysis stores an evidence analysis on a step. Not logged.
func (m *Manager) SetAnalysis(ctx context.Context, caseID, stepID string, a *domain.EvidenceAnalysis) (domain.TestCase, error) {
	return m.mutate(ctx, "", caseID, "", "", func(tc *domain.TestCase) error {
		return execution.SetAnalysis(tc, stepID, a, m.clock.Now())
	})
}

// ApplyRefinement stores an AI-refined version of an existing case on behalf of actor.
func (m *Manager) ApplyRefinement(ctx context.Context, actor string, refined domain.TestCase) (domain.TestCase, error) {
	return m.mutate(ctx, actor, refined.ID, constants.ActionUpdate, "Refined with AI", func(tc *domain.TestCase) error {
		*tc = refined.Clone()
		return nil
	})
}

// AddVariants prepends AI-generated variants of parentID on behalf of actor.
func (m *Manager) AddVariants(ctx context.Context, actor, parentID string, variants []domain.TestCase) ([]domain.TestCase, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("variants %w", errors.ErrEmptyValue)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if indexOf(m.cases, parentID) < 0 {
		return nil, fmt.Errorf("%w: %s", errors.ErrCaseNotFound, parentID)
	}
	prepared, err := m.prepare(actor, variants)
	if err != nil {
		return nil, err
	}
	m.cases = UpsertMany(m.cases, prepared)
	m.persist(ctx)
	m.record(ctx, actor, constants.ActionCreate, fmt.Sprintf("%d Variants", len(prepared)), "Generated with AI from "+parentID, len(prepared))
	return cloneAll(prepared), nil
}

// Commit stores a Runner's working copy. A non-empty details string is
// logged as a status_change entry.
func (m *Manager) Commit(ctx context.Context, actor string, tc *domain.TestCase, details string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if indexOf(m.cases, tc.ID) < 0 {
		return fmt.Errorf("%w: %s", errors.ErrCaseNotFound, tc.ID)
	}
	c := tc.Clone()
	status.Recompute(&c)
	m.cases = PatchMany(m.cases, []domain.TestCase{c})
	m.persist(ctx)
	if details != "" {
		m.record(ctx, actor, constants.ActionStatusChange, c.ID, details, 1)
	}
	return nil
}

var _ execution.Committer = (*Manager)(nil)

// mutate applies fn to a copy of case id and stores the result. An empty
// action writes no activity entry.
func (m *Manager) mutate(ctx context.Context, actor, id string, action constants.ActivityAction, details string, fn func(*domain.TestCase) error) (domain.TestCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := indexOf(m.cases, id)
	if i < 0 {
		return domain.TestCase{}, fmt.Errorf("%w: %s", errors.ErrCaseNotFound, id)
	}
	tc := m.cases[i].Clone()
	if err := fn(&tc); err != nil {
		return domain.TestCase{}, err
	}
	if err := m.touch(&tc); err != nil {
		return domain.TestCase{}, err
	}
	m.cases = PatchMany(m.cases, []domain.TestCase{tc})
	m.persist(ctx)
	if action != "" {
		m.record(ctx, actor, action, id, details, 1)
	}
	return tc.Clone(), nil
}

// prepare copies and normalizes cases for insertion: ids are assigned, steps
// ordered and numbered, status recomputed. Nothing is kept if any case is invalid.
func (m *Manager) prepare(actor string, cases []domain.TestCase) ([]domain.TestCase, error) {
	out := cloneAll(cases)
	taken := make(map[string]struct{}, len(out))
	for i := range out {
		tc := &out[i]
		if strings.TrimSpace(tc.ID) == "" {
			id, err := m.uniqueID(taken)
			if err != nil {
				return nil, err
			}
			tc.ID = id
		}
		taken[tc.ID] = struct{}{}
		if tc.CreatedBy == "" {
			tc.CreatedBy = actor
		}
		normalizeSteps(tc)
		if err := m.touch(tc); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// touch validates tc, recomputes its status and stamps LastUpdated.
func (m *Manager) touch(tc *domain.TestCase) error {
	if err := tc.Validate(); err != nil {
		return err
	}
	status.Recompute(tc)
	tc.LastUpdated = m.clock.Now()
	return nil
}

// normalizeSteps orders steps by sequence, renumbers them 1..n and fills
// missing step ids.
func normalizeSteps(tc *domain.TestCase) {
	tc.SortSteps()
	domain.Renumber(tc.Steps)
	for i := range tc.Steps {
		if tc.Steps[i].StepID == "" {
			tc.Steps[i].StepID = uuid.NewString()
		}
		if tc.Steps[i].Status == "" {
			tc.Steps[i].Status = constants.StepStatusNotStarted
		}
	}
}

// uniqueID generates a case id not used by the collection or extra.
func (m *Manager) uniqueID(extra map[string]struct{}) (string, error) {
	for range maxIDAttempts {
		id, err := m.newID()
		if err != nil {
			return "", err
		}
		if _, dup := extra[id]; dup {
			continue
		}
		if indexOf(m.cases, id) < 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: could not generate a unique case id", errors.ErrInvalidArgument)
}

func (m *Manager) persist(ctx context.Context) {
	if err := m.repo.SaveCases(ctx, m.cases); err != nil {
		m.metrics.PersistFailure(constants.KeyCases)
		m.logger.Warn().Err(err).Str("key", constants.KeyCases).Int("cases", len(m.cases)).
			Msg("failed to persist cases, keeping in-memory state")
	}
}

func (m *Manager) record(ctx context.Context, actor string, action constants.ActivityAction, target, details string, n int) {
	m.metrics.CaseMutation(action, n)
	if m.journal != nil {
		m.journal.Record(ctx, actor, action, target, details)
	}
}

func cloneAll(in []domain.TestCase) []domain.TestCase {
	out := make([]domain.TestCase, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
